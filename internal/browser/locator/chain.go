package locator

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Chain is an ordered list of structural selectors for one logical target.
// Ordering is priority: once a selector resolves the rest are never probed.
type Chain struct {
	Name      string
	Selectors []Selector
	// Timeout bounds each probe separately.
	Timeout time.Duration
	// ActionTimeout bounds the interaction with the winning element. The
	// node can vanish between lookup and action, which would otherwise
	// leave the action waiting on the caller's context.
	ActionTimeout time.Duration
}

// Handle is a resolved chain entry.
type Handle struct {
	Selector Selector
	// Index is the position of Selector within its chain.
	Index int
}

// Resolve probes each selector in turn with its own timeout and returns the
// first one that matches a visible element.
func (c Chain) Resolve(ctx context.Context, p Page) (Handle, error) {
	for i, sel := range c.Selectors {
		if err := ctx.Err(); err != nil {
			return Handle{}, err
		}
		if c.probe(ctx, p, sel) {
			return Handle{Selector: sel, Index: i}, nil
		}
	}
	return Handle{}, fmt.Errorf("%w: chain %s exhausted after %d selectors", ErrNotFound, c.Name, len(c.Selectors))
}

func (c Chain) probe(ctx context.Context, p Page, sel Selector) bool {
	probeCtx, cancel := withBudget(ctx, c.Timeout)
	defer cancel()
	return p.WaitVisible(probeCtx, sel) == nil
}

// withBudget applies d when it is positive.
func withBudget(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, d)
}

// Locate resolves the chain and applies act to the winning element.
func (c Chain) Locate(ctx context.Context, p Page, act Action) error {
	h, err := c.Resolve(ctx, p)
	if err != nil {
		return err
	}
	actCtx, cancel := withBudget(ctx, c.ActionTimeout)
	defer cancel()
	return h.Do(actCtx, p, act)
}

func (c Chain) String() string {
	parts := make([]string, len(c.Selectors))
	for i, s := range c.Selectors {
		parts[i] = s.String()
	}
	return "chain:" + c.Name + "[" + strings.Join(parts, " | ") + "]"
}

// Do applies act to the element behind the handle.
func (h Handle) Do(ctx context.Context, p Page, act Action) error {
	var err error
	switch act.Kind {
	case ActFill:
		err = p.Fill(ctx, h.Selector, act.Value)
	case ActSelect:
		err = p.Select(ctx, h.Selector, act.Value)
	default:
		err = p.Click(ctx, h.Selector)
	}
	if err != nil {
		return fmt.Errorf("%s on %s: %w", act.Kind, h.Selector, err)
	}
	return nil
}
