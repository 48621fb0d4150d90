package app

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	_ "github.com/uniedit/reelforge/cmd/server/docs" // swagger docs
	"github.com/uniedit/reelforge/internal/domain/project"
	"github.com/uniedit/reelforge/internal/infra/config"
	"github.com/uniedit/reelforge/internal/utils/metrics"
)

// Dependencies holds all injected dependencies.
type Dependencies struct {
	Config   *config.Config
	Logger   *zap.Logger
	Registry *prometheus.Registry
	Metrics  *metrics.Metrics

	Projects *project.Domain
	Router   *gin.Engine
}

// App represents the application.
type App struct {
	deps    *Dependencies
	cleanup func()
}

// New creates a new application instance.
func New(cfg *config.Config) (*App, error) {
	deps, cleanup, err := InitializeDependencies(cfg)
	if err != nil {
		return nil, fmt.Errorf("init dependencies: %w", err)
	}
	deps.Logger.Info("application initialized",
		zap.Int("providers", len(cfg.Providers)),
		zap.Bool("database", cfg.Database.Enabled),
		zap.Bool("redis", cfg.Redis.Enabled),
		zap.Bool("kafka", cfg.Kafka.Enabled),
		zap.Bool("storage", cfg.Storage.Bucket != ""),
		zap.Bool("render", cfg.Render.BaseURL != ""),
	)
	return &App{deps: deps, cleanup: cleanup}, nil
}

// Router returns the HTTP handler.
func (a *App) Router() *gin.Engine {
	return a.deps.Router
}

// Logger returns the root logger.
func (a *App) Logger() *zap.Logger {
	return a.deps.Logger
}

// Stop cancels running gates, waits for them until ctx expires, then closes
// the connections.
func (a *App) Stop(ctx context.Context) error {
	err := a.deps.Projects.Shutdown(ctx)
	if err != nil {
		a.deps.Logger.Warn("gates still running at shutdown", zap.Error(err))
	}
	a.cleanup()
	_ = a.deps.Logger.Sync()
	return err
}
