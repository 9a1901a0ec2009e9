package browser

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/chromedp/chromedp/kb"
	"go.uber.org/zap"

	"github.com/xkilldash9x/tourscout/internal/browser/locator"
)

// ErrNoElement is returned when a value-setting script finds no element.
var ErrNoElement = errors.New("no element matches selector")

var keyCodes = map[string]string{
	"Enter":  kb.Enter,
	"Escape": kb.Escape,
	"Tab":    kb.Tab,
}

// Session is one browser process driven through a single tab.
type Session struct {
	id     string
	ctx    context.Context
	cancel context.CancelFunc
	logger *zap.Logger

	onClose   func()
	closeOnce sync.Once
	closeErr  error
}

func newSession(id string, ctx context.Context, cancel context.CancelFunc, logger *zap.Logger, onClose func()) *Session {
	return &Session{
		id:      id,
		ctx:     ctx,
		cancel:  cancel,
		logger:  logger.With(zap.String("session_id", id)),
		onClose: onClose,
	}
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

func (s *Session) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := combineContext(s.ctx, ctx)
	defer cancel()
	return chromedp.Run(runCtx, actions...)
}

func queryOption(sel locator.Selector) chromedp.QueryOption {
	if sel.Kind == locator.ByXPath {
		return chromedp.BySearch
	}
	return chromedp.ByQuery
}

// Navigate loads url and waits for the load event.
func (s *Session) Navigate(ctx context.Context, url string) error {
	return s.run(ctx, chromedp.Navigate(url))
}

func (s *Session) WaitVisible(ctx context.Context, sel locator.Selector) error {
	return s.run(ctx, chromedp.WaitVisible(sel.Query, queryOption(sel)))
}

func (s *Session) Click(ctx context.Context, sel locator.Selector) error {
	return s.run(ctx, chromedp.Click(sel.Query, queryOption(sel), chromedp.NodeVisible))
}

func (s *Session) Fill(ctx context.Context, sel locator.Selector, value string) error {
	return s.setValue(ctx, sel, value)
}

func (s *Session) Select(ctx context.Context, sel locator.Selector, value string) error {
	return s.setValue(ctx, sel, value)
}

func (s *Session) setValue(ctx context.Context, sel locator.Selector, value string) error {
	script, err := setValueScript(sel, value)
	if err != nil {
		return err
	}
	var ok bool
	if err := s.run(ctx, chromedp.Evaluate(script, &ok)); err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrNoElement, sel)
	}
	return nil
}

// PressKey dispatches a named key (Enter, Escape, Tab) or literal text.
func (s *Session) PressKey(ctx context.Context, key string) error {
	if code, ok := keyCodes[key]; ok {
		key = code
	}
	return s.run(ctx, chromedp.KeyEvent(key))
}

func (s *Session) Evaluate(ctx context.Context, script string, res interface{}) error {
	if res == nil {
		var discard interface{}
		res = &discard
	}
	return s.run(ctx, chromedp.Evaluate(script, res))
}

// Close stops the browser process. It is safe to call more than once.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		done := make(chan error, 1)
		go func() { done <- chromedp.Cancel(s.ctx) }()
		select {
		case err := <-done:
			if err != nil && !errors.Is(err, context.Canceled) {
				s.closeErr = fmt.Errorf("closing browser session: %w", err)
			}
		case <-time.After(shutdownGracePeriod):
			s.closeErr = errors.New("closing browser session: timed out")
		}
		s.cancel()
		if s.onClose != nil {
			s.onClose()
		}
		s.logger.Debug("Browser session closed.")
	})
	return s.closeErr
}
