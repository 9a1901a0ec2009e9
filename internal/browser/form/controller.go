// Package form sets the logical fields of the tour search form.
package form

import (
	"context"

	"go.uber.org/zap"

	"github.com/xkilldash9x/tourscout/internal/browser/locator"
)

// Outcome is a diagnostic flag; callers never branch on it for control flow
// beyond logging.
type Outcome int

const (
	Skipped Outcome = iota
	Applied
)

func (o Outcome) String() string {
	if o == Applied {
		return "applied"
	}
	return "skipped"
}

// Controller applies one logical field at a time through its locator ladders.
// Every application is best effort: failures are logged, never returned.
type Controller struct {
	log    *zap.Logger
	timing Timing
}

// NewController creates a Controller with the given probe budgets.
func NewController(logger *zap.Logger, timing Timing) *Controller {
	return &Controller{
		log:    logger.Named("form"),
		timing: timing,
	}
}

// Apply sets field to value. Steps of a field run independently so a picker
// that is already open can still be used when its opener was not found. The
// outcome reflects the final, value-carrying step.
func (c *Controller) Apply(ctx context.Context, p locator.Page, field Field, value string) Outcome {
	steps := plan(field, value, c.timing)
	if len(steps) == 0 {
		c.log.Warn("No locator plan for field", zap.Stringer("field", field))
		return Skipped
	}

	outcome := Skipped
	for i, s := range steps {
		winner, err := s.ladder.Apply(ctx, p, s.action)
		if err != nil {
			c.log.Warn("Field step not applied",
				zap.Stringer("field", field),
				zap.String("step", s.name),
				zap.String("value", value),
				zap.Error(err))
			continue
		}
		c.log.Debug("Field step applied",
			zap.Stringer("field", field),
			zap.String("step", s.name),
			zap.String("via", winner.String()))
		if i == len(steps)-1 {
			outcome = Applied
		}
	}
	return outcome
}

// Submit triggers the search, falling back to the Enter key.
func (c *Controller) Submit(ctx context.Context, p locator.Page) Outcome {
	winner, err := submitLadder(c.timing).Apply(ctx, p, locator.Click())
	if err != nil {
		c.log.Warn("Search form not submitted", zap.Error(err))
		return Skipped
	}
	c.log.Debug("Search form submitted", zap.String("via", winner.String()))
	return Applied
}
