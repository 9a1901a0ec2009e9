package schemas

import (
	"strings"
)

// -- Closed Vocabularies --

// vocabEntry pairs the stable machine code of a vocabulary member with the
// display string the remote UI renders for it.
type vocabEntry struct {
	code string
	name string
}

// vocabulary is the shared lookup table behind Country and Departure. Index 0
// is reserved for the zero value so an uninitialised member never validates.
type vocabulary struct {
	entries []vocabEntry
	byName  map[string]int
	byCode  map[string]int
}

func newVocabulary(entries ...vocabEntry) vocabulary {
	v := vocabulary{
		entries: append([]vocabEntry{{}}, entries...),
		byName:  make(map[string]int, len(entries)),
		byCode:  make(map[string]int, len(entries)),
	}
	for i, e := range v.entries[1:] {
		v.byName[e.name] = i + 1
		v.byCode[e.code] = i + 1
	}
	return v
}

func (v vocabulary) valid(i int) bool { return i > 0 && i < len(v.entries) }

func (v vocabulary) name(i int) string {
	if !v.valid(i) {
		return ""
	}
	return v.entries[i].name
}

func (v vocabulary) code(i int) string {
	if !v.valid(i) {
		return ""
	}
	return v.entries[i].code
}

// lookup resolves an exact display name, or a machine code in any case.
func (v vocabulary) lookup(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if i, ok := v.byName[s]; ok {
		return i, true
	}
	i, ok := v.byCode[strings.ToUpper(s)]
	return i, ok
}

// VocabularyItem is the serialised form of a vocabulary member, as exposed by
// the listing endpoints.
type VocabularyItem struct {
	Name  string `json:"name"`
	Code  string `json:"code"`
	Group string `json:"group,omitempty"`
}

// -- Country --

// Country is a destination country supported by the search widget.
type Country int

const (
	CountryTurkey Country = iota + 1
	CountryEgypt
	CountryUAE
	CountryThailand
	CountryCyprus
	CountryGreece
	CountrySpain
	CountryItaly
	CountryFrance
)

var countries = newVocabulary(
	vocabEntry{"TURKEY", "Турция"},
	vocabEntry{"EGYPT", "Египет"},
	vocabEntry{"UAE", "ОАЭ"},
	vocabEntry{"THAILAND", "Таиланд"},
	vocabEntry{"CYPRUS", "Кипр"},
	vocabEntry{"GREECE", "Греция"},
	vocabEntry{"SPAIN", "Испания"},
	vocabEntry{"ITALY", "Италия"},
	vocabEntry{"FRANCE", "Франция"},
)

// Countries returns every supported country in enumeration order.
func Countries() []Country {
	out := make([]Country, 0, len(countries.entries)-1)
	for i := 1; i < len(countries.entries); i++ {
		out = append(out, Country(i))
	}
	return out
}

// ParseCountry resolves a display name ("Турция") or code ("TURKEY").
func ParseCountry(s string) (Country, error) {
	i, ok := countries.lookup(s)
	if !ok {
		return 0, &ValidationError{Field: "country", Value: s, Err: ErrUnknownCountry}
	}
	return Country(i), nil
}

func (c Country) Valid() bool    { return countries.valid(int(c)) }
func (c Country) String() string { return countries.name(int(c)) }
func (c Country) Code() string   { return countries.code(int(c)) }

func (c Country) Item() VocabularyItem {
	return VocabularyItem{Name: c.String(), Code: c.Code()}
}

func (c Country) MarshalText() ([]byte, error) { return []byte(c.String()), nil }

func (c *Country) UnmarshalText(b []byte) error {
	parsed, err := ParseCountry(string(b))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// -- Departure --

// DepartureGroup is the national sub-group a departure city belongs to.
type DepartureGroup string

const (
	GroupRussia     DepartureGroup = "Россия"
	GroupKazakhstan DepartureGroup = "Казахстан"
	GroupBelarus    DepartureGroup = "Беларусь"
)

// Departure is a departure city supported by the search widget.
type Departure int

const (
	DepartureMoscow Departure = iota + 1
	DepartureSaintPetersburg
	DepartureNovosibirsk
	DepartureEkaterinburg
	DepartureKazan
	DepartureNizhnyNovgorod
	DepartureChelyabinsk
	DepartureOmsk
	DepartureSamara
	DepartureRostov
	DepartureAlmaty
	DepartureAstana
	DepartureShymkent
	DepartureAktobe
	DepartureMinsk
	DepartureBrest
	DepartureGrodno
	DepartureVitebsk
	DepartureMogilev
	DepartureGomel
)

var departures = newVocabulary(
	vocabEntry{"MOSCOW", "Москва"},
	vocabEntry{"SPB", "Санкт-Петербург"},
	vocabEntry{"NOVOSIBIRSK", "Новосибирск"},
	vocabEntry{"EKATERINBURG", "Екатеринбург"},
	vocabEntry{"KAZAN", "Казань"},
	vocabEntry{"NIZHNY_NOVGOROD", "Нижний Новгород"},
	vocabEntry{"CHELYABINSK", "Челябинск"},
	vocabEntry{"OMSK", "Омск"},
	vocabEntry{"SAMARA", "Самара"},
	vocabEntry{"ROSTOV", "Ростов-на-Дону"},
	vocabEntry{"ALMATY", "Алматы"},
	vocabEntry{"ASTANA", "Астана"},
	vocabEntry{"SHYMKENT", "Шымкент"},
	vocabEntry{"AKTOBE", "Актобе"},
	vocabEntry{"MINSK", "Минск"},
	vocabEntry{"BREST", "Брест"},
	vocabEntry{"GRODNO", "Гродно"},
	vocabEntry{"VITEBSK", "Витебск"},
	vocabEntry{"MOGILEV", "Могилев"},
	vocabEntry{"GOMEL", "Гомель"},
)

// Departures returns every supported departure city in enumeration order.
func Departures() []Departure {
	out := make([]Departure, 0, len(departures.entries)-1)
	for i := 1; i < len(departures.entries); i++ {
		out = append(out, Departure(i))
	}
	return out
}

// ParseDeparture resolves a display name ("Москва") or code ("MOSCOW").
func ParseDeparture(s string) (Departure, error) {
	i, ok := departures.lookup(s)
	if !ok {
		return 0, &ValidationError{Field: "departure", Value: s, Err: ErrUnknownDeparture}
	}
	return Departure(i), nil
}

func (d Departure) Valid() bool    { return departures.valid(int(d)) }
func (d Departure) String() string { return departures.name(int(d)) }
func (d Departure) Code() string   { return departures.code(int(d)) }

// Group reports the national sub-group of the city.
func (d Departure) Group() DepartureGroup {
	switch {
	case d >= DepartureMoscow && d <= DepartureRostov:
		return GroupRussia
	case d >= DepartureAlmaty && d <= DepartureAktobe:
		return GroupKazakhstan
	case d >= DepartureMinsk && d <= DepartureGomel:
		return GroupBelarus
	}
	return ""
}

func (d Departure) Item() VocabularyItem {
	return VocabularyItem{Name: d.String(), Code: d.Code(), Group: string(d.Group())}
}

func (d Departure) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

func (d *Departure) UnmarshalText(b []byte) error {
	parsed, err := ParseDeparture(string(b))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
