package schemas

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the day.month.year format the search widget expects.
const DateLayout = "02.01.2006"

// ResortAny is the request default meaning no resort filter.
const ResortAny = "any"

// SearchRequest describes one tour search. It is a plain value; copies are
// independent and nothing in the engine mutates a request it was handed.
type SearchRequest struct {
	Country    Country   `json:"country"`
	Departure  Departure `json:"departure"`
	DateFrom   string    `json:"date_from"`
	DateTo     string    `json:"date_to"`
	NightsFrom int       `json:"nights_from"`
	NightsTo   int       `json:"nights_to"`
	Adults     int       `json:"adults"`
	Children   int       `json:"children"`
	Meal       string    `json:"meal"`
	Resort     string    `json:"resort"`
	// Zero means unconstrained for the three fields below.
	PriceMin int `json:"price_min,omitempty"`
	PriceMax int `json:"price_max,omitempty"`
	Stars    int `json:"stars,omitempty"`
}

// DefaultSearchRequest returns the request used when a caller leaves fields unset.
func DefaultSearchRequest() SearchRequest {
	return SearchRequest{
		Country:    CountryTurkey,
		Departure:  DepartureMoscow,
		DateFrom:   "01.12.2025",
		DateTo:     "31.12.2025",
		NightsFrom: 7,
		NightsTo:   7,
		Adults:     2,
		Children:   0,
		Meal:       MealAny,
		Resort:     ResortAny,
	}
}

// Validate checks the vocabulary fields first, then the structural ones. The
// first failure is returned as a *ValidationError.
func (r SearchRequest) Validate() error {
	if !r.Country.Valid() {
		return &ValidationError{Field: "country", Value: fmt.Sprint(int(r.Country)), Err: ErrUnknownCountry}
	}
	if !r.Departure.Valid() {
		return &ValidationError{Field: "departure", Value: fmt.Sprint(int(r.Departure)), Err: ErrUnknownDeparture}
	}

	from, err := time.Parse(DateLayout, r.DateFrom)
	if err != nil {
		return invalid("date_from", r.DateFrom, "must be a dd.mm.yyyy date")
	}
	to, err := time.Parse(DateLayout, r.DateTo)
	if err != nil {
		return invalid("date_to", r.DateTo, "must be a dd.mm.yyyy date")
	}
	if to.Before(from) {
		return invalid("date_to", r.DateTo, "must not precede date_from")
	}

	if r.NightsFrom < 1 {
		return invalid("nights_from", fmt.Sprint(r.NightsFrom), "must be at least 1")
	}
	if r.NightsTo < r.NightsFrom {
		return invalid("nights_to", fmt.Sprint(r.NightsTo), "must not be less than nights_from")
	}
	if r.Adults < 1 {
		return invalid("adults", fmt.Sprint(r.Adults), "must be at least 1")
	}
	if r.Children < 0 {
		return invalid("children", fmt.Sprint(r.Children), "must not be negative")
	}
	if r.PriceMin < 0 || r.PriceMax < 0 {
		return invalid("price", fmt.Sprintf("%d..%d", r.PriceMin, r.PriceMax), "must not be negative")
	}
	if r.PriceMax > 0 && r.PriceMin > r.PriceMax {
		return invalid("price_min", fmt.Sprint(r.PriceMin), "must not exceed price_max")
	}
	if r.Stars < 0 || r.Stars > 5 {
		return invalid("stars", fmt.Sprint(r.Stars), "must be 0 (any) or between 1 and 5")
	}
	if !IsAnyMeal(r.Meal) {
		if _, ok := ParseMealPlan(r.Meal); !ok {
			return invalid("meal", r.Meal, "is not a known meal plan")
		}
	}
	return nil
}

func invalid(field, value, reason string) error {
	return &ValidationError{Field: field, Value: value, Reason: reason, Err: ErrInvalidRequest}
}

// HasResortFilter reports whether the resort field narrows the results.
func (r SearchRequest) HasResortFilter() bool {
	switch strings.ToLower(strings.TrimSpace(r.Resort)) {
	case "", ResortAny, "любой":
		return false
	}
	return true
}

// Admits reports whether a listing satisfies the request's post-search
// filters. Fields the extractor could not read never exclude a listing.
func (r SearchRequest) Admits(l TourListing) bool {
	if price, ok := l.PriceValue(); ok {
		if r.PriceMax > 0 && price > r.PriceMax {
			return false
		}
		if r.PriceMin > 0 && price < r.PriceMin {
			return false
		}
	}
	if stars, ok := l.StarsValue(); ok && r.Stars > 0 && stars < float64(r.Stars) {
		return false
	}
	if r.HasResortFilter() && l.Resort != Unknown &&
		!strings.Contains(strings.ToLower(l.Resort), strings.ToLower(strings.TrimSpace(r.Resort))) {
		return false
	}
	if !IsAnyMeal(r.Meal) && l.Meal != Unknown {
		want, _ := ParseMealPlan(r.Meal)
		if MealPlan(l.Meal) != want {
			return false
		}
	}
	return true
}
