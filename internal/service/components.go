package service

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/xkilldash9x/tourscout/internal/browser"
	"github.com/xkilldash9x/tourscout/internal/observability"
	"github.com/xkilldash9x/tourscout/internal/store"
)

// Components holds everything a command needs and releases it in order.
type Components struct {
	Service        *TourService
	BrowserManager *browser.Manager
	Store          *store.Store
	DBPool         *pgxpool.Pool
}

// Shutdown gracefully closes all components, ensuring resources are released in the correct order.
func (c *Components) Shutdown() {
	logger := observability.GetLogger()
	logger.Debug("Beginning components shutdown sequence.")

	if c.BrowserManager != nil {
		// Separate context so shutdown completes after the main context is cancelled.
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := c.BrowserManager.Shutdown(shutdownCtx); err != nil {
			logger.Warn("Error during browser manager shutdown.", zap.Error(err))
		} else {
			logger.Debug("Browser manager shut down.")
		}
	}

	if c.DBPool != nil {
		c.DBPool.Close()
		logger.Debug("Database connection pool closed.")
	}

	logger.Debug("All components shut down.")
}
