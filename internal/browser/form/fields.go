package form

import (
	"strconv"
	"time"

	"github.com/xkilldash9x/tourscout/internal/browser/locator"
)

// Field is one logical input of the search form.
type Field int

const (
	FieldCountry Field = iota
	FieldDeparture
	FieldDateFrom
	FieldDateTo
	FieldNights
	FieldAdults
)

func (f Field) String() string {
	switch f {
	case FieldCountry:
		return "country"
	case FieldDeparture:
		return "departure"
	case FieldDateFrom:
		return "date_from"
	case FieldDateTo:
		return "date_to"
	case FieldNights:
		return "nights"
	case FieldAdults:
		return "adults"
	}
	return "field(" + strconv.Itoa(int(f)) + ")"
}

// Selectors and labels of the search widget.
const (
	countryFieldClass   = ".TVCountrySelect"
	departureFieldClass = ".TVDepartureSelect"
	submitButtonClass   = ".TVSearchButton"

	countryLabel   = "Страна"
	departureLabel = "Город вылета"
	submitLabel    = "Найти"

	// pickerRows are the tag categories a picker renders its values as.
	pickerRows = "option, li, div, span"
)

// step is one locate-and-act unit within a field.
type step struct {
	name   string
	ladder locator.Ladder
	action locator.Action
}

// plan returns the steps that set field to value. The last step is the one
// that actually carries the value.
func plan(field Field, value string, t Timing) []step {
	switch field {
	case FieldCountry:
		return []step{
			{
				name: "open",
				ladder: locator.Ladder{
					locator.Chain{Name: "country-field", Timeout: t.Locator, ActionTimeout: t.Action, Selectors: []locator.Selector{
						locator.CSS(countryFieldClass),
						locator.CSS(".tv-country-select"),
						locator.HasText("div", countryLabel),
					}},
					locator.Scan{Name: "country-field", Candidates: "div, span, label, button", Text: countryLabel, Timeout: t.Locator},
				},
				action: locator.Click(),
			},
			pickValue("country-value", value, t),
		}

	case FieldDeparture:
		return []step{
			{
				name: "open",
				ladder: locator.Ladder{
					locator.Chain{Name: "departure-field", Timeout: t.Locator, ActionTimeout: t.Action, Selectors: []locator.Selector{
						locator.CSS(departureFieldClass),
						locator.CSS(".tv-departure-select"),
						locator.HasText("div", departureLabel),
						locator.CSS(`select[name*="departure"]`),
						locator.CSS(`div[class*="departure"]`),
					}},
					locator.Scan{Name: "departure-label", Candidates: "div, span, label, button", Text: departureLabel, Timeout: t.Locator},
					locator.Scan{Name: "departure-select", Candidates: "select", Attr: "name", Text: "departure", Timeout: t.Locator},
				},
				action: locator.Click(),
			},
			pickValue("departure-value", value, t),
		}

	case FieldDateFrom, FieldDateTo:
		nth := 0
		if field == FieldDateTo {
			nth = 1
		}
		return []step{{
			name: "fill",
			ladder: locator.Ladder{
				locator.Chain{Name: field.String(), Timeout: t.Locator, ActionTimeout: t.Action, Selectors: []locator.Selector{
					locator.XPath("(//input[@type='date'] | //input[contains(@placeholder, 'дата') or contains(@placeholder, 'Дата')])[" + strconv.Itoa(nth+1) + "]"),
				}},
				locator.Scan{Name: field.String(), Candidates: `input[type="date"], input[placeholder*="дата" i]`, Nth: nth, Timeout: t.Locator},
			},
			action: locator.Fill(value),
		}}

	case FieldNights:
		return []step{{
			name: "select",
			ladder: locator.Ladder{
				locator.Chain{Name: "nights", Timeout: t.Locator, ActionTimeout: t.Action, Selectors: []locator.Selector{
					locator.CSS(`select[name*="night"]`),
					locator.CSS(`select[name*="duration"]`),
				}},
				locator.Scan{Name: "nights", Candidates: `select[name*="night" i], select[name*="duration" i], select[name*="ноч" i]`, Timeout: t.Locator},
			},
			action: locator.SelectOption(value),
		}}

	case FieldAdults:
		return []step{{
			name: "select",
			ladder: locator.Ladder{
				locator.Chain{Name: "adults", Timeout: t.Locator, ActionTimeout: t.Action, Selectors: []locator.Selector{
					locator.CSS(`select[name*="adult"]`),
				}},
				locator.Scan{Name: "adults", Candidates: `select[name*="adult" i], select[name*="взросл" i]`, Timeout: t.Locator},
			},
			action: locator.SelectOption(value),
		}}
	}
	return nil
}

// pickValue selects value inside an already opened picker. The exact scan
// runs first so "Кипр" never lands on a longer row that merely contains it.
func pickValue(name, value string, t Timing) step {
	return step{
		name: "pick",
		ladder: locator.Ladder{
			locator.Chain{Name: name, Timeout: t.Picker, ActionTimeout: t.Action, Selectors: []locator.Selector{
				locator.Text(value),
				locator.HasText("option", value),
				locator.HasText("div", value),
				locator.HasText("li", value),
			}},
			locator.Scan{Name: name + "-exact", Candidates: pickerRows, Text: value, Exact: true, Timeout: t.Picker},
			locator.Scan{Name: name, Candidates: pickerRows, Text: value, Timeout: t.Picker},
		},
		action: locator.Click(),
	}
}

// submitLadder ends in a bare Enter so a missing button still submits.
func submitLadder(t Timing) locator.Ladder {
	return locator.Ladder{
		locator.Chain{Name: "submit", Timeout: t.Locator, ActionTimeout: t.Action, Selectors: []locator.Selector{
			locator.CSS(submitButtonClass),
			locator.HasText("button", submitLabel),
		}},
		locator.KeyPress{Key: "Enter", Timeout: t.Action},
	}
}

// Timing holds the per-lookup budgets and the budget of each interaction.
type Timing struct {
	Locator time.Duration
	Picker  time.Duration
	Action  time.Duration
}
