package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/xkilldash9x/tourscout/internal/browser"
	"github.com/xkilldash9x/tourscout/internal/config"
	"github.com/xkilldash9x/tourscout/internal/extract"
	"github.com/xkilldash9x/tourscout/internal/search"
	"github.com/xkilldash9x/tourscout/internal/store"
)

// ComponentFactory builds the components for a command. It is an interface
// so commands can be tested without a browser or a database.
type ComponentFactory interface {
	Create(ctx context.Context, cfg config.Interface, logger *zap.Logger) (*Components, error)
}

type concreteFactory struct{}

// NewComponentFactory creates a new production-ready component factory.
func NewComponentFactory() ComponentFactory {
	return &concreteFactory{}
}

// NewExtractor builds the card extractor from configuration.
func NewExtractor(cfg config.ExtractionConfig, logger *zap.Logger) *extract.Extractor {
	return extract.New(extract.Options{
		MinWidth:      cfg.MinCardWidth,
		MinHeight:     cfg.MinCardHeight,
		MaxTextLength: cfg.MaxTextLength,
		MinNameLength: cfg.MinNameLength,
	}, logger)
}

// Create wires the backend (browser driver or mock), optional history and
// the service. Partially built components are shut down on failure.
func (f *concreteFactory) Create(ctx context.Context, cfg config.Interface, logger *zap.Logger) (*Components, error) {
	components := &Components{}

	var initializationErr error
	defer func() {
		if initializationErr != nil {
			logger.Warn("Initialization failed, shutting down partially created components.", zap.Error(initializationErr))
			components.Shutdown()
		}
	}()

	opts := []Option{WithBatch(cfg.Batch())}

	if url := cfg.Database().URL; url != "" {
		pool, err := InitializeDBPool(ctx, url, logger)
		if err != nil {
			initializationErr = err
			return nil, initializationErr
		}
		components.DBPool = pool

		st, err := store.New(ctx, pool, logger)
		if err != nil {
			initializationErr = fmt.Errorf("failed to initialize database store: %w", err)
			return nil, initializationErr
		}
		if err := st.EnsureSchema(ctx); err != nil {
			initializationErr = err
			return nil, initializationErr
		}
		components.Store = st
		opts = append(opts, WithHistory(st))
	} else {
		logger.Debug("No database configured, search history disabled.")
	}

	var backend Searcher
	if cfg.Server().Mock {
		logger.Info("Using the mock search backend.")
		backend = MockBackend{}
		opts = append(opts, WithMockBackend())
	} else {
		manager, err := browser.NewManager(ctx, cfg.Browser(), logger)
		if err != nil {
			initializationErr = fmt.Errorf("failed to initialize browser manager: %w", err)
			return nil, initializationErr
		}
		components.BrowserManager = manager
		backend = search.NewDriver(search.BrowserOpener(manager), cfg.Automation(), NewExtractor(cfg.Extraction(), logger), logger)
	}

	components.Service = New(backend, logger, opts...)
	logger.Debug("Service components initialized.")
	return components, nil
}
