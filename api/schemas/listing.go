package schemas

import (
	"strconv"
	"strings"
	"unicode"
)

// Unknown marks a listing field the extractor could not read.
const Unknown = "unknown"

// TourListing is one normalised tour offer.
type TourListing struct {
	Hotel    string `json:"hotel"`
	Price    string `json:"price"`
	Stars    string `json:"stars"`
	Resort   string `json:"resort"`
	Rating   string `json:"rating"`
	Nights   string `json:"nights"`
	DateFrom string `json:"date"`
	DateTo   string `json:"date_to"`
	Meal     string `json:"meal"`
	Operator string `json:"operator"`
	Country  string `json:"country"`
}

// PriceValue returns the numeric part of Price.
func (l TourListing) PriceValue() (int, bool) {
	return leadingInt(l.Price)
}

// StarsValue returns the numeric star rating, if one was extracted.
func (l TourListing) StarsValue() (float64, bool) {
	if l.Stars == "" || l.Stars == Unknown {
		return 0, false
	}
	s := strings.TrimRightFunc(l.Stars, func(r rune) bool { return !unicode.IsDigit(r) })
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func leadingInt(s string) (int, bool) {
	if s == "" || s == Unknown {
		return 0, false
	}
	var b strings.Builder
	for _, r := range s {
		if !unicode.IsDigit(r) {
			break
		}
		b.WriteRune(r)
	}
	v, err := strconv.Atoi(b.String())
	if err != nil {
		return 0, false
	}
	return v, true
}
