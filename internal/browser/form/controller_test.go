package form

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/xkilldash9x/tourscout/internal/browser/locator"
	"github.com/xkilldash9x/tourscout/internal/mocks"
)

var testTiming = Timing{Locator: 50 * time.Millisecond, Picker: 50 * time.Millisecond, Action: 50 * time.Millisecond}

// within fails the test when fn does not return inside d.
func within(t *testing.T, d time.Duration, fn func()) {
	t.Helper()
	done := make(chan struct{})
	go func() {
		defer close(done)
		fn()
	}()
	select {
	case <-done:
	case <-time.After(d):
		t.Fatalf("still running after %s", d)
	}
}

func newTestController() (*Controller, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return NewController(zap.New(core), testTiming), logs
}

func TestApplyCountry(t *testing.T) {
	ctx := context.Background()

	t.Run("should open the picker and pick the value through chains", func(t *testing.T) {
		c, _ := newTestController()
		page := mocks.NewFakePage(countryFieldClass, locator.Text("Египет").Query)

		outcome := c.Apply(ctx, page, FieldCountry, "Египет")

		assert.Equal(t, Applied, outcome)
		assert.Equal(t, []string{
			"click " + countryFieldClass,
			"click " + locator.Text("Египет").Query,
		}, page.Entries())
	})

	t.Run("should prefer an exact text match in the scripted fallback", func(t *testing.T) {
		c, _ := newTestController()
		page := mocks.NewFakePage(countryFieldClass)
		var scripts []string
		page.ScanFound = func(script string) bool {
			scripts = append(scripts, script)
			return strings.Contains(script, `"exact":true`)
		}

		outcome := c.Apply(ctx, page, FieldCountry, "Кипр")

		assert.Equal(t, Applied, outcome)
		require.Len(t, scripts, 1)
		assert.Contains(t, scripts[0], `"text":"Кипр"`)
		assert.Equal(t, []string{"click " + countryFieldClass, "scan true"}, page.Entries())
	})
}

func TestApplyStaleNodes(t *testing.T) {
	ctx := context.Background()

	t.Run("should bound clicks on nodes that vanish after lookup", func(t *testing.T) {
		c, logs := newTestController()
		value := locator.Text("Египет").Query
		page := mocks.NewFakePage(countryFieldClass, value)
		page.Stale[countryFieldClass] = true
		page.Stale[value] = true

		var outcome Outcome
		within(t, 2*time.Second, func() {
			outcome = c.Apply(ctx, page, FieldCountry, "Египет")
		})

		assert.Equal(t, Skipped, outcome)
		assert.Equal(t, 2, logs.FilterMessage("Field step not applied").Len())
	})

	t.Run("should fall through to enter when the submit button goes stale", func(t *testing.T) {
		c, _ := newTestController()
		page := mocks.NewFakePage(submitButtonClass)
		page.Stale[submitButtonClass] = true

		var outcome Outcome
		within(t, 2*time.Second, func() {
			outcome = c.Submit(ctx, page)
		})

		assert.Equal(t, Applied, outcome)
		assert.Equal(t, []string{"key Enter"}, page.Entries())
	})
}

func TestApplyDeparture(t *testing.T) {
	ctx := context.Background()

	t.Run("should fall back to scripted scans for both phases", func(t *testing.T) {
		c, _ := newTestController()
		page := mocks.NewFakePage()
		page.ScanFound = func(string) bool { return true }

		outcome := c.Apply(ctx, page, FieldDeparture, "Алматы")

		assert.Equal(t, Applied, outcome)
		assert.Equal(t, []string{"scan true", "scan true"}, page.Entries())
	})

	t.Run("should still pick the value when the field opener is missing", func(t *testing.T) {
		c, logs := newTestController()
		page := mocks.NewFakePage(locator.Text("Минск").Query)

		outcome := c.Apply(ctx, page, FieldDeparture, "Минск")

		assert.Equal(t, Applied, outcome)
		assert.Equal(t, 1, logs.FilterMessage("Field step not applied").Len())
		assert.Contains(t, page.Entries(), "click "+locator.Text("Минск").Query)
	})

	t.Run("should skip and warn when nothing can be found", func(t *testing.T) {
		c, logs := newTestController()
		page := mocks.NewFakePage()

		outcome := c.Apply(ctx, page, FieldDeparture, "Гомель")

		assert.Equal(t, Skipped, outcome)
		warnings := logs.FilterLevelExact(zapcore.WarnLevel).All()
		require.Len(t, warnings, 2)
		assert.Equal(t, "departure", warnings[1].ContextMap()["field"])
		assert.Equal(t, "pick", warnings[1].ContextMap()["step"])
	})
}

func TestApplyInputs(t *testing.T) {
	ctx := context.Background()

	t.Run("should fill the second date input for the end date", func(t *testing.T) {
		c, _ := newTestController()
		to := plan(FieldDateTo, "31.12.2025", testTiming)[0].ladder[0].(locator.Chain).Selectors[0]
		assert.Contains(t, to.Query, ")[2]")

		page := mocks.NewFakePage(to.Query)
		assert.Equal(t, Applied, c.Apply(ctx, page, FieldDateTo, "31.12.2025"))
		assert.Equal(t, []string{"fill " + to.Query + " 31.12.2025"}, page.Entries())
	})

	t.Run("should select nights through the duration fallback", func(t *testing.T) {
		c, _ := newTestController()
		page := mocks.NewFakePage(`select[name*="duration"]`)

		assert.Equal(t, Applied, c.Apply(ctx, page, FieldNights, "7"))
		assert.Equal(t, []string{`select select[name*="duration"] 7`}, page.Entries())
	})

	t.Run("should select adults", func(t *testing.T) {
		c, _ := newTestController()
		page := mocks.NewFakePage(`select[name*="adult"]`)

		assert.Equal(t, Applied, c.Apply(ctx, page, FieldAdults, "2"))
	})

	t.Run("should skip unknown fields", func(t *testing.T) {
		c, _ := newTestController()
		assert.Equal(t, Skipped, c.Apply(ctx, mocks.NewFakePage(), Field(99), "x"))
	})
}

func TestSubmit(t *testing.T) {
	ctx := context.Background()

	t.Run("should click the search button", func(t *testing.T) {
		c, _ := newTestController()
		page := mocks.NewFakePage(submitButtonClass)
		assert.Equal(t, Applied, c.Submit(ctx, page))
		assert.Equal(t, []string{"click " + submitButtonClass}, page.Entries())
	})

	t.Run("should press enter when no button resolves", func(t *testing.T) {
		c, _ := newTestController()
		page := mocks.NewFakePage()
		assert.Equal(t, Applied, c.Submit(ctx, page))
		assert.Equal(t, []string{"key Enter"}, page.Entries())
	})
}
