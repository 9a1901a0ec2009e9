// Package browser owns the Chrome processes behind search sessions.
package browser

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/xkilldash9x/tourscout/internal/browser/stealth"
	"github.com/xkilldash9x/tourscout/internal/config"
)

const (
	sessionInitTimeout  = 30 * time.Second
	shutdownGracePeriod = 15 * time.Second
)

// ErrManagerClosed is returned by NewSession after Shutdown.
var ErrManagerClosed = errors.New("browser manager is shut down")

// Manager hands out isolated sessions. Every session gets its own browser
// process from a shared allocator, so nothing leaks between searches.
type Manager struct {
	allocCtx    context.Context
	allocCancel context.CancelFunc

	cfg     config.BrowserConfig
	persona stealth.Persona
	logger  *zap.Logger

	slots *semaphore.Weighted

	mu       sync.Mutex
	sessions map[string]*Session
	closed   bool
	wg       sync.WaitGroup
}

// NewManager prepares the allocator. No browser starts until the first
// session is requested.
func NewManager(ctx context.Context, cfg config.BrowserConfig, logger *zap.Logger) (*Manager, error) {
	if cfg.Concurrency < 1 {
		return nil, fmt.Errorf("browser concurrency must be positive, got %d", cfg.Concurrency)
	}
	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, DefaultAllocatorOptions(cfg)...)
	m := &Manager{
		allocCtx:    allocCtx,
		allocCancel: allocCancel,
		cfg:         cfg,
		persona:     stealth.FromConfig(cfg),
		logger:      logger.Named("browser_manager"),
		slots:       semaphore.NewWeighted(int64(cfg.Concurrency)),
		sessions:    make(map[string]*Session),
	}
	m.logger.Info("Browser manager created (launch deferred).",
		zap.Bool("headless", cfg.Headless),
		zap.Int("concurrency", cfg.Concurrency))
	return m, nil
}

// NewSession waits for a free slot, launches a browser and installs the
// persona. The caller must Close the session.
func (m *Manager) NewSession(ctx context.Context) (*Session, error) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil, ErrManagerClosed
	}
	m.wg.Add(1)
	m.mu.Unlock()

	if err := m.slots.Acquire(ctx, 1); err != nil {
		m.wg.Done()
		return nil, fmt.Errorf("waiting for a browser slot: %w", err)
	}

	id := uuid.New().String()
	opts := []chromedp.ContextOption{}
	if m.cfg.Debug {
		sugar := m.logger.Sugar()
		opts = append(opts, chromedp.WithDebugf(sugar.Debugf))
	}
	tabCtx, tabCancel := chromedp.NewContext(m.allocCtx, opts...)

	s := newSession(id, tabCtx, tabCancel, m.logger, func() {
		m.mu.Lock()
		delete(m.sessions, id)
		m.mu.Unlock()
		m.slots.Release(1)
		m.wg.Done()
	})

	initCtx, cancel := context.WithTimeout(ctx, sessionInitTimeout)
	defer cancel()
	if err := launch(initCtx, tabCtx); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}
	if err := s.run(initCtx, stealth.Apply(m.persona, s.logger)); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("failed to initialize browser session: %w", err)
	}

	m.register(s)
	return s, nil
}

func (m *Manager) register(s *Session) {
	m.mu.Lock()
	m.sessions[s.id] = s
	m.mu.Unlock()
	s.logger.Debug("Browser session opened.", zap.Int("active_sessions", m.Active()))
}

// launch starts the browser bound to tabCtx. The first Run must use tabCtx
// itself: the process lives as long as the context it was allocated with.
func launch(ctx, tabCtx context.Context) error {
	done := make(chan error, 1)
	go func() { done <- chromedp.Run(tabCtx) }()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Active reports the number of open sessions.
func (m *Manager) Active() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Shutdown closes open sessions, waits for them, then stops the allocator.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	open := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		open = append(open, s)
	}
	m.mu.Unlock()

	m.logger.Info("Shutting down browser manager.", zap.Int("open_sessions", len(open)))
	for _, s := range open {
		if err := s.Close(); err != nil {
			m.logger.Warn("Error closing session during shutdown.", zap.String("session_id", s.ID()), zap.Error(err))
		}
	}

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()

	var err error
	select {
	case <-done:
	case <-ctx.Done():
		err = fmt.Errorf("timed out waiting for sessions: %w", ctx.Err())
		m.logger.Warn("Sessions still open at shutdown, forcing allocator stop.")
	}
	m.allocCancel()
	return err
}
