// Package search drives one tour search through the remote widget, from
// opening a browser session to reading the rendered result cards.
package search

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xkilldash9x/tourscout/api/schemas"
	"github.com/xkilldash9x/tourscout/internal/browser/form"
	"github.com/xkilldash9x/tourscout/internal/browser/locator"
	"github.com/xkilldash9x/tourscout/internal/config"
	"github.com/xkilldash9x/tourscout/internal/extract"
)

// Driver runs searches. Each call owns exactly one session and steps through
// it strictly in sequence; concurrent calls never share a session.
type Driver struct {
	opener    Opener
	cfg       config.AutomationConfig
	form      *form.Controller
	extractor *extract.Extractor
	logger    *zap.Logger
}

// NewDriver wires a driver around an opener.
func NewDriver(opener Opener, cfg config.AutomationConfig, extractor *extract.Extractor, logger *zap.Logger) *Driver {
	return &Driver{
		opener: opener,
		cfg:    cfg,
		form: form.NewController(logger, form.Timing{
			Locator: cfg.LocatorTimeout,
			Picker:  cfg.PickerTimeout,
			Action:  cfg.ActionTimeout,
		}),
		extractor: extractor,
		logger:    logger.Named("search"),
	}
}

// Search runs one session for req. A request that fails validation is
// rejected with a *schemas.ValidationError before any browser work. Every
// other failure is logged and yields an empty, non-nil result.
func (d *Driver) Search(ctx context.Context, req schemas.SearchRequest) ([]schemas.TourListing, error) {
	return d.SearchWithObserver(ctx, req, nil)
}

// SearchWithObserver is Search with a callback on every state transition.
func (d *Driver) SearchWithObserver(ctx context.Context, req schemas.SearchRequest, observe Observer) ([]schemas.TourListing, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	r := &run{
		id:      uuid.New().String(),
		observe: observe,
	}
	r.logger = d.logger.With(
		zap.String("search_id", r.id),
		zap.Stringer("country", req.Country),
		zap.Stringer("departure", req.Departure))

	start := time.Now()
	listings := d.drive(ctx, req, r)
	r.logger.Info("Search finished",
		zap.Int("listings", len(listings)),
		zap.Stringer("last_state", r.last),
		zap.Duration("elapsed", time.Since(start)))
	return listings, nil
}

// run is the per-call session state.
type run struct {
	id      string
	state   State
	last    State
	observe Observer
	logger  *zap.Logger
}

func (r *run) enter(s State) {
	if s != Closed {
		r.last = s
	}
	r.state = s
	r.logger.Debug("Session state", zap.Stringer("state", s))
	if r.observe != nil {
		r.observe(s)
	}
}

func (d *Driver) drive(ctx context.Context, req schemas.SearchRequest, r *run) []schemas.TourListing {
	empty := []schemas.TourListing{}

	sess, err := d.opener.Open(ctx)
	if err != nil {
		r.logger.Error("Could not open browser session", zap.Error(err))
		r.enter(Closed)
		return empty
	}
	r.enter(SessionOpen)
	defer func() {
		if err := sess.Close(); err != nil {
			r.logger.Warn("Browser session did not close cleanly", zap.Error(err))
		}
		r.enter(Closed)
	}()

	navCtx, cancel := context.WithTimeout(ctx, d.cfg.NavigationTimeout)
	err = sess.Navigate(navCtx, d.cfg.TargetURL)
	cancel()
	if err != nil {
		r.logger.Error("Navigation failed", zap.String("url", d.cfg.TargetURL), zap.Error(err))
		return empty
	}
	r.enter(Navigated)

	readyCtx, cancel := context.WithTimeout(ctx, d.cfg.ReadyTimeout)
	err = sess.WaitVisible(readyCtx, locator.CSS(d.cfg.ReadyMarker))
	cancel()
	if err != nil {
		if ctx.Err() != nil {
			return empty
		}
		r.logger.Warn("Search form readiness marker not seen, continuing", zap.Error(err))
	}
	if err := wait(ctx, d.cfg.PostNavigationWait); err != nil {
		return empty
	}
	r.enter(FormReady)

	for _, f := range fieldValues(req) {
		d.form.Apply(ctx, sess, f.field, f.value)
		if err := wait(ctx, d.cfg.FieldSettle); err != nil {
			return empty
		}
	}
	r.enter(FieldsApplied)

	d.form.Submit(ctx, sess)
	r.enter(Submitted)

	if err := wait(ctx, d.cfg.ResultsSettle); err != nil {
		return empty
	}
	r.enter(ResultsSettled)

	var cards []extract.Card
	collectCtx, cancel := actionContext(ctx, d.cfg.ActionTimeout)
	err = sess.Evaluate(collectCtx, extract.CollectScript(d.extractor.Options().MaxTextLength), &cards)
	cancel()
	if err != nil {
		r.logger.Error("Could not read result cards", zap.Error(err))
		return empty
	}
	listings := d.extractor.Extract(cards, req.Country.String())
	r.enter(Extracted)
	return listings
}

type fieldValue struct {
	field form.Field
	value string
}

func fieldValues(req schemas.SearchRequest) []fieldValue {
	return []fieldValue{
		{form.FieldCountry, req.Country.String()},
		{form.FieldDeparture, req.Departure.String()},
		{form.FieldDateFrom, req.DateFrom},
		{form.FieldDateTo, req.DateTo},
		{form.FieldNights, strconv.Itoa(req.NightsFrom)},
		{form.FieldAdults, strconv.Itoa(req.Adults)},
	}
}

// actionContext bounds a single page interaction when d is set.
func actionContext(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, d)
}

// wait pauses for d or until ctx ends.
func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
