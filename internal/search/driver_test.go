package search

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/xkilldash9x/tourscout/api/schemas"
	"github.com/xkilldash9x/tourscout/internal/config"
	"github.com/xkilldash9x/tourscout/internal/extract"
	"github.com/xkilldash9x/tourscout/internal/mocks"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const targetURL = "https://search.test/"

func testAutomation() config.AutomationConfig {
	return config.AutomationConfig{
		TargetURL:          targetURL,
		ReadyMarker:        ".ready",
		NavigationTimeout:  50 * time.Millisecond,
		ReadyTimeout:       10 * time.Millisecond,
		PostNavigationWait: time.Millisecond,
		LocatorTimeout:     5 * time.Millisecond,
		PickerTimeout:      5 * time.Millisecond,
		ActionTimeout:      20 * time.Millisecond,
		FieldSettle:        time.Millisecond,
		ResultsSettle:      time.Millisecond,
	}
}

var beachCard = extract.Card{
	Class:  "TVSHotelResultItem",
	Text:   "Beach Resort*Кемер, 4.8\n125.000 руб\n7 ночей\n15.02.2026\nAll Inclusive\nAnex Tour",
	Width:  640,
	Height: 220,
}

var chromeCard = extract.Card{Class: "TVResultListViewItem", Text: "Поделиться,\nНайти", Width: 640, Height: 220}

// recorder collects observed states.
type recorder struct {
	mu     sync.Mutex
	states []State
}

func (r *recorder) observe(s State) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states = append(r.states, s)
}

func (r *recorder) seen() []State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]State(nil), r.states...)
}

func newTestDriver(page *mocks.FakePage, cfg config.AutomationConfig) (*Driver, *int, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	opened := 0
	opener := OpenerFunc(func(context.Context) (Session, error) {
		opened++
		return page, nil
	})
	return NewDriver(opener, cfg, extract.New(extract.DefaultOptions(), nil), zap.New(core)), &opened, logs
}

func TestSearch(t *testing.T) {
	ctx := context.Background()
	req := schemas.DefaultSearchRequest()

	t.Run("should walk every state in order and extract listings", func(t *testing.T) {
		page := mocks.NewFakePage(".ready")
		page.Results = []extract.Card{beachCard, chromeCard}
		d, _, _ := newTestDriver(page, testAutomation())
		rec := &recorder{}

		got, err := d.SearchWithObserver(ctx, req, rec.observe)

		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "Beach Resort", got[0].Hotel)
		assert.Equal(t, "Турция", got[0].Country)
		assert.Equal(t, []State{SessionOpen, Navigated, FormReady, FieldsApplied, Submitted, ResultsSettled, Extracted, Closed}, rec.seen())
		assert.Equal(t, []string{targetURL}, page.Navigated)
		assert.Equal(t, 1, page.Closed())
	})

	t.Run("should submit with enter and read the panel when no control resolves", func(t *testing.T) {
		page := mocks.NewFakePage()
		d, _, logs := newTestDriver(page, testAutomation())

		got, err := d.Search(ctx, req)

		require.NoError(t, err)
		assert.NotNil(t, got)
		assert.Empty(t, got)
		entries := page.Entries()
		require.GreaterOrEqual(t, len(entries), 2)
		assert.Equal(t, "key Enter", entries[len(entries)-2])
		assert.Equal(t, "collect", entries[len(entries)-1])
		assert.Equal(t, 1, logs.FilterMessage("Search form readiness marker not seen, continuing").Len())
		assert.NotZero(t, logs.FilterMessage("Field step not applied").Len())
	})

	t.Run("should return an empty result when navigation times out", func(t *testing.T) {
		page := mocks.NewFakePage()
		page.NavigateBlocks = true
		d, _, logs := newTestDriver(page, testAutomation())
		rec := &recorder{}

		got, err := d.SearchWithObserver(ctx, req, rec.observe)

		require.NoError(t, err)
		assert.NotNil(t, got)
		assert.Empty(t, got)
		assert.Equal(t, []State{SessionOpen, Closed}, rec.seen())
		assert.Equal(t, 1, page.Closed())
		assert.Equal(t, 1, logs.FilterMessage("Navigation failed").Len())
	})

	t.Run("should give up on a result panel that never answers", func(t *testing.T) {
		page := mocks.NewFakePage(".ready")
		page.StallCollect = true
		d, _, logs := newTestDriver(page, testAutomation())
		rec := &recorder{}

		got, err := d.SearchWithObserver(ctx, req, rec.observe)

		require.NoError(t, err)
		assert.Empty(t, got)
		assert.NotContains(t, rec.seen(), Extracted)
		assert.Equal(t, Closed, rec.seen()[len(rec.seen())-1])
		assert.Equal(t, 1, logs.FilterMessage("Could not read result cards").Len())
		assert.Equal(t, 1, page.Closed())
	})

	t.Run("should drop chrome-only cards", func(t *testing.T) {
		page := mocks.NewFakePage(".ready")
		page.Results = []extract.Card{chromeCard}
		d, _, _ := newTestDriver(page, testAutomation())

		got, err := d.Search(ctx, req)
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("should reject unknown vocabulary before opening a session", func(t *testing.T) {
		page := mocks.NewFakePage()
		d, opened, _ := newTestDriver(page, testAutomation())
		bad := req
		bad.Departure = schemas.Departure(0)

		got, err := d.Search(ctx, bad)

		assert.Nil(t, got)
		require.Error(t, err)
		assert.True(t, schemas.IsValidationError(err))
		assert.ErrorIs(t, err, schemas.ErrUnknownDeparture)
		assert.Zero(t, *opened)
		assert.Zero(t, page.Closed())
	})

	t.Run("should end with closed when the session cannot open", func(t *testing.T) {
		opener := OpenerFunc(func(context.Context) (Session, error) { return nil, errors.New("no chrome") })
		d := NewDriver(opener, testAutomation(), extract.New(extract.DefaultOptions(), nil), zap.NewNop())
		rec := &recorder{}

		got, err := d.SearchWithObserver(ctx, req, rec.observe)

		require.NoError(t, err)
		assert.Empty(t, got)
		assert.Equal(t, []State{Closed}, rec.seen())
	})

	t.Run("should release the session when cancelled mid-run", func(t *testing.T) {
		cfg := testAutomation()
		cfg.ResultsSettle = time.Hour
		page := mocks.NewFakePage(".ready")
		page.Results = []extract.Card{beachCard}
		d, _, _ := newTestDriver(page, cfg)
		runCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		rec := &recorder{}

		got, err := d.SearchWithObserver(runCtx, req, func(s State) {
			rec.observe(s)
			if s == Submitted {
				cancel()
			}
		})

		require.NoError(t, err)
		assert.Empty(t, got)
		assert.Equal(t, Closed, rec.seen()[len(rec.seen())-1])
		assert.NotContains(t, rec.seen(), ResultsSettled)
		assert.Equal(t, 1, page.Closed())
	})
}

func TestFieldValues(t *testing.T) {
	req := schemas.DefaultSearchRequest()
	req.NightsFrom, req.Adults = 10, 3

	values := fieldValues(req)

	require.Len(t, values, 6)
	assert.Equal(t, "Турция", values[0].value)
	assert.Equal(t, "Москва", values[1].value)
	assert.Equal(t, "01.12.2025", values[2].value)
	assert.Equal(t, "31.12.2025", values[3].value)
	assert.Equal(t, "10", values[4].value)
	assert.Equal(t, "3", values[5].value)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "session_open", SessionOpen.String())
	assert.Equal(t, "closed", Closed.String())
	assert.Equal(t, "invalid", State(42).String())
}
