// Package service hosts the search engine behind the CLI and the HTTP
// surface: request validation, post-search filters, comparisons and history.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/xkilldash9x/tourscout/api/schemas"
	"github.com/xkilldash9x/tourscout/internal/config"
	"github.com/xkilldash9x/tourscout/internal/query"
	"github.com/xkilldash9x/tourscout/internal/search"
)

// ErrHistoryDisabled is returned by history calls when no database is set up.
var ErrHistoryDisabled = errors.New("search history requires a database")

// Searcher runs one search. The browser driver and the mock backend both
// satisfy it.
type Searcher interface {
	Search(ctx context.Context, req schemas.SearchRequest) ([]schemas.TourListing, error)
}

// ObservedSearcher also reports session state transitions.
type ObservedSearcher interface {
	Searcher
	SearchWithObserver(ctx context.Context, req schemas.SearchRequest, observe search.Observer) ([]schemas.TourListing, error)
}

// History persists searches.
type History interface {
	RecordSearch(ctx context.Context, req schemas.SearchRequest, listings []schemas.TourListing) (string, error)
	RecentSearches(ctx context.Context, limit int) ([]schemas.SearchRecord, error)
}

// TourService is safe for concurrent use; each search runs in its own session.
type TourService struct {
	backend    Searcher
	history    History
	translator *query.Translator
	batch      config.BatchConfig
	mock       bool
	logger     *zap.Logger

	started  time.Time
	searches atomic.Int64
	listings atomic.Int64
	rejected atomic.Int64
	failures atomic.Int64
}

// Option configures a TourService.
type Option func(*TourService)

// WithHistory records every successful search.
func WithHistory(h History) Option {
	return func(s *TourService) { s.history = h }
}

// WithBatch bounds comparisons.
func WithBatch(cfg config.BatchConfig) Option {
	return func(s *TourService) { s.batch = cfg }
}

// WithMockBackend marks the service as serving canned data.
func WithMockBackend() Option {
	return func(s *TourService) { s.mock = true }
}

// New creates a TourService around backend.
func New(backend Searcher, logger *zap.Logger, opts ...Option) *TourService {
	s := &TourService{
		backend:    backend,
		translator: query.NewTranslator(schemas.DefaultSearchRequest()),
		batch:      config.BatchConfig{Concurrency: 2, SearchesPerMinute: 6},
		logger:     logger.Named("service"),
		started:    time.Now(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Search validates req, runs the backend and applies the request filters.
// Validation failures come back as *schemas.ValidationError; a search that
// found nothing returns an empty slice.
func (s *TourService) Search(ctx context.Context, req schemas.SearchRequest) ([]schemas.TourListing, error) {
	return s.SearchWithObserver(ctx, req, nil)
}

// SearchWithObserver is Search with session state callbacks, when the backend
// can report them.
func (s *TourService) SearchWithObserver(ctx context.Context, req schemas.SearchRequest, observe search.Observer) ([]schemas.TourListing, error) {
	if err := req.Validate(); err != nil {
		s.rejected.Add(1)
		return nil, err
	}
	s.searches.Add(1)

	var (
		raw []schemas.TourListing
		err error
	)
	if ob, ok := s.backend.(ObservedSearcher); ok && observe != nil {
		raw, err = ob.SearchWithObserver(ctx, req, observe)
	} else {
		raw, err = s.backend.Search(ctx, req)
	}
	if err != nil {
		if schemas.IsValidationError(err) {
			s.rejected.Add(1)
		} else {
			s.failures.Add(1)
		}
		return nil, err
	}

	listings := Filter(req, raw)
	s.listings.Add(int64(len(listings)))
	s.logger.Info("Search served",
		zap.Stringer("country", req.Country),
		zap.Stringer("departure", req.Departure),
		zap.Int("extracted", len(raw)),
		zap.Int("returned", len(listings)))

	if s.history != nil {
		if _, err := s.history.RecordSearch(ctx, req, listings); err != nil {
			s.logger.Warn("Could not record search history", zap.Error(err))
		}
	}
	return listings, nil
}

// Filter keeps the listings req admits, in order.
func Filter(req schemas.SearchRequest, listings []schemas.TourListing) []schemas.TourListing {
	out := make([]schemas.TourListing, 0, len(listings))
	for _, l := range listings {
		if req.Admits(l) {
			out = append(out, l)
		}
	}
	return out
}

// Translate parses a free-text query without searching.
func (s *TourService) Translate(text string) schemas.SearchRequest {
	return s.translator.Translate(text)
}

// QuickSearch translates text and searches with the result.
func (s *TourService) QuickSearch(ctx context.Context, text string) (schemas.QuickSearchResult, error) {
	req := s.translator.Translate(text)
	res := schemas.QuickSearchResult{Query: text, Request: req}
	tours, err := s.Search(ctx, req)
	if err != nil {
		return res, err
	}
	res.Tours = tours
	return res, nil
}

// Compare searches req once per departure, one isolated session each, paced
// by the batch rate limit. A departure that fails contributes an empty
// result; results keep the order of departures.
func (s *TourService) Compare(ctx context.Context, req schemas.SearchRequest, departures []schemas.Departure) ([]schemas.ComparisonResult, error) {
	if len(departures) == 0 {
		return nil, &schemas.ValidationError{Field: "departures", Reason: "at least one departure is required", Err: schemas.ErrInvalidRequest}
	}
	for _, d := range departures {
		probe := req
		probe.Departure = d
		if err := probe.Validate(); err != nil {
			s.rejected.Add(1)
			return nil, err
		}
	}

	limit := rate.Inf
	if s.batch.SearchesPerMinute > 0 {
		limit = rate.Limit(s.batch.SearchesPerMinute / 60)
	}
	limiter := rate.NewLimiter(limit, 1)

	results := make([]schemas.ComparisonResult, len(departures))
	var g errgroup.Group
	if s.batch.Concurrency > 0 {
		g.SetLimit(s.batch.Concurrency)
	}
	for i, d := range departures {
		results[i] = schemas.ComparisonResult{Departure: d, Tours: []schemas.TourListing{}}
		g.Go(func() error {
			if err := limiter.Wait(ctx); err != nil {
				s.logger.Warn("Comparison cancelled before search", zap.Stringer("departure", d), zap.Error(err))
				return nil
			}
			one := req
			one.Departure = d
			tours, err := s.Search(ctx, one)
			if err != nil {
				s.logger.Warn("Departure search failed", zap.Stringer("departure", d), zap.Error(err))
				return nil
			}
			results[i].Tours = tours
			results[i].Count = len(tours)
			results[i].MinPrice = minPrice(tours)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("comparison failed: %w", err)
	}
	return results, nil
}

func minPrice(tours []schemas.TourListing) int {
	low := 0
	for _, t := range tours {
		if v, ok := t.PriceValue(); ok && (low == 0 || v < low) {
			low = v
		}
	}
	return low
}

// Countries lists the supported destinations.
func (s *TourService) Countries() []schemas.VocabularyItem {
	all := schemas.Countries()
	items := make([]schemas.VocabularyItem, len(all))
	for i, c := range all {
		items[i] = c.Item()
	}
	return items
}

// Departures lists the supported departure cities with their country group.
func (s *TourService) Departures() []schemas.VocabularyItem {
	all := schemas.Departures()
	items := make([]schemas.VocabularyItem, len(all))
	for i, d := range all {
		items[i] = d.Item()
	}
	return items
}

// RecentSearches returns stored searches, newest first.
func (s *TourService) RecentSearches(ctx context.Context, limit int) ([]schemas.SearchRecord, error) {
	if s.history == nil {
		return nil, ErrHistoryDisabled
	}
	return s.history.RecentSearches(ctx, limit)
}

// Stats reports counters since the service started.
func (s *TourService) Stats() schemas.Stats {
	return schemas.Stats{
		Searches:    s.searches.Load(),
		Listings:    s.listings.Load(),
		Rejected:    s.rejected.Load(),
		Failures:    s.failures.Load(),
		StartedAt:   s.started.UTC(),
		Uptime:      time.Since(s.started).Round(time.Second).String(),
		MockBackend: s.mock,
	}
}
