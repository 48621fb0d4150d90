package gin

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerfiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/uniedit/reelforge/internal/port/inbound"
	"github.com/uniedit/reelforge/internal/utils/metrics"
	"github.com/uniedit/reelforge/internal/utils/middleware"
)

// HealthCheck reports whether a dependency is reachable.
type HealthCheck func(ctx context.Context) error

// RouterConfig configures the HTTP router.
type RouterConfig struct {
	Debug        bool
	AllowOrigins []string
	Swagger      bool
	// Gatherer serves /metrics. Nil disables the endpoint.
	Gatherer prometheus.Gatherer
	// Checks are run by /health with a short timeout.
	Checks map[string]HealthCheck
}

// NewRouter builds the engine with the global middleware, health, metrics,
// swagger and the /api/v1 project routes.
func NewRouter(cfg RouterConfig, projects inbound.ProjectHttpPort, m *metrics.Metrics, logger *zap.Logger) *gin.Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestID())
	r.Use(middleware.Logging(logger))
	if m != nil {
		r.Use(middleware.Metrics(m))
	}
	cors := middleware.DefaultCORSConfig()
	if len(cfg.AllowOrigins) > 0 {
		cors.AllowOrigins = cfg.AllowOrigins
	}
	r.Use(middleware.CORS(cors))

	r.GET("/health", healthHandler(cfg.Checks))
	if cfg.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{})))
	}
	if cfg.Swagger {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerfiles.Handler))
	}

	v1 := r.Group("/api/v1")
	RegisterProjectRoutes(v1, projects)

	return r
}

func healthHandler(checks map[string]HealthCheck) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		results := make(map[string]string, len(checks))
		for name, check := range checks {
			if err := check(ctx); err != nil {
				results[name] = err.Error()
				status = http.StatusServiceUnavailable
				continue
			}
			results[name] = "ok"
		}

		body := gin.H{"status": "ok"}
		if status != http.StatusOK {
			body["status"] = "degraded"
		}
		if len(results) > 0 {
			body["checks"] = results
		}
		c.JSON(status, body)
	}
}
