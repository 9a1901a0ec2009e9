package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/xkilldash9x/tourscout/api/schemas"
	"github.com/xkilldash9x/tourscout/internal/config"
	"github.com/xkilldash9x/tourscout/internal/mocks"
	"github.com/xkilldash9x/tourscout/internal/service"
)

func TestComponentFactory(t *testing.T) {
	t.Run("should build a mock-backed service without a database", func(t *testing.T) {
		cfg := new(mocks.MockConfig)
		cfg.On("Batch").Return(config.BatchConfig{Concurrency: 2})
		cfg.On("Database").Return(config.DatabaseConfig{})
		cfg.On("Server").Return(config.ServerConfig{Mock: true})

		components, err := service.NewComponentFactory().Create(context.Background(), cfg, zaptest.NewLogger(t))
		require.NoError(t, err)
		defer components.Shutdown()

		assert.Nil(t, components.BrowserManager)
		assert.Nil(t, components.Store)
		assert.True(t, components.Service.Stats().MockBackend)

		tours, err := components.Service.Search(context.Background(), schemas.DefaultSearchRequest())
		require.NoError(t, err)
		assert.Len(t, tours, 3)

		_, err = components.Service.RecentSearches(context.Background(), 5)
		assert.ErrorIs(t, err, service.ErrHistoryDisabled)
		cfg.AssertExpectations(t)
	})

	t.Run("should map extraction settings onto the extractor", func(t *testing.T) {
		ex := service.NewExtractor(config.ExtractionConfig{
			MinCardWidth: 150, MinCardHeight: 50, MaxTextLength: 1200, MinNameLength: 3,
		}, zaptest.NewLogger(t))
		opts := ex.Options()
		assert.Equal(t, 1200, opts.MaxTextLength)
		assert.Equal(t, 3, opts.MinNameLength)
		assert.InDelta(t, 150, opts.MinWidth, 0.001)
	})
}
