// Package extract turns candidate result cards into normalised tour listings.
package extract

import (
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/xkilldash9x/tourscout/api/schemas"
)

// Card is one candidate result block as captured from the rendered page.
type Card struct {
	Class  string  `json:"class"`
	Text   string  `json:"text"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	// Unmeasured cards come from static markup and skip the size filter.
	Unmeasured bool `json:"unmeasured,omitempty"`
}

// Options bound the structural and textual filters.
type Options struct {
	MinWidth      float64
	MinHeight     float64
	MaxTextLength int
	MinNameLength int
}

// DefaultOptions returns the filter bounds used against the live widget.
func DefaultOptions() Options {
	return Options{
		MinWidth:      150,
		MinHeight:     50,
		MaxTextLength: 3000,
		MinNameLength: 3,
	}
}

// Extractor applies the card filters and the field rule ladders.
type Extractor struct {
	opts Options
	log  *zap.Logger
}

// New creates an Extractor. Zero-valued options fall back to the defaults.
func New(opts Options, logger *zap.Logger) *Extractor {
	def := DefaultOptions()
	if opts.MinWidth <= 0 {
		opts.MinWidth = def.MinWidth
	}
	if opts.MinHeight <= 0 {
		opts.MinHeight = def.MinHeight
	}
	if opts.MaxTextLength <= 0 {
		opts.MaxTextLength = def.MaxTextLength
	}
	if opts.MinNameLength <= 0 {
		opts.MinNameLength = def.MinNameLength
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Extractor{opts: opts, log: logger.Named("extract")}
}

// Options returns the effective filter bounds.
func (e *Extractor) Options() Options { return e.opts }

// Extract filters cards and builds one listing per surviving card, keeping
// the input order. Listings without a usable hotel name are dropped.
func (e *Extractor) Extract(cards []Card, country string) []schemas.TourListing {
	out := make([]schemas.TourListing, 0, len(cards))
	rejected := 0
	for _, c := range cards {
		if !e.Candidate(c) {
			rejected++
			continue
		}
		l := e.Record(c.Text, country)
		if !e.keep(l) {
			rejected++
			continue
		}
		out = append(out, l)
	}
	e.log.Debug("Cards extracted",
		zap.Int("cards", len(cards)),
		zap.Int("listings", len(out)),
		zap.Int("rejected", rejected))
	return out
}

// Candidate reports whether a card is large enough and carries both a price
// and a star-marked hotel name.
func (e *Extractor) Candidate(c Card) bool {
	if !c.Unmeasured && (c.Width <= e.opts.MinWidth || c.Height <= e.opts.MinHeight) {
		return false
	}
	text := e.truncate(c.Text)
	return hasPrice(text) && hasHotelMarker(text)
}

// Record runs every field ladder over the card text. Fields without a match
// carry schemas.Unknown.
func (e *Extractor) Record(text, country string) schemas.TourListing {
	text = e.truncate(text)
	ls := lines(text)
	from, to := dates(text)
	if country == "" {
		country = schemas.Unknown
	}
	return schemas.TourListing{
		Hotel:    hotelName(ls),
		Price:    price(text),
		Stars:    stars(ls),
		Resort:   resort(ls, text),
		Rating:   rating(ls),
		Nights:   nights(text),
		DateFrom: from,
		DateTo:   to,
		Meal:     mealLadder.match(text),
		Operator: operatorLadder.match(text),
		Country:  country,
	}
}

func (e *Extractor) keep(l schemas.TourListing) bool {
	return l.Hotel != schemas.Unknown && utf8.RuneCountInString(l.Hotel) > e.opts.MinNameLength
}

func (e *Extractor) truncate(s string) string {
	if utf8.RuneCountInString(s) <= e.opts.MaxTextLength {
		return s
	}
	r := []rune(s)
	return string(r[:e.opts.MaxTextLength])
}
