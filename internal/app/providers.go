package app

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/wire"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	// Domains
	"github.com/uniedit/reelforge/internal/domain/asset"
	"github.com/uniedit/reelforge/internal/domain/generation"
	"github.com/uniedit/reelforge/internal/domain/project"
	"github.com/uniedit/reelforge/internal/domain/script"

	// Inbound adapters
	ginadapter "github.com/uniedit/reelforge/internal/adapter/inbound/gin"

	// Ports
	"github.com/uniedit/reelforge/internal/port/inbound"
	"github.com/uniedit/reelforge/internal/port/outbound"

	// Outbound adapters
	"github.com/uniedit/reelforge/internal/adapter/outbound/kafka"
	"github.com/uniedit/reelforge/internal/adapter/outbound/mediaprovider"
	"github.com/uniedit/reelforge/internal/adapter/outbound/postgres"
	redisadapter "github.com/uniedit/reelforge/internal/adapter/outbound/redis"
	"github.com/uniedit/reelforge/internal/adapter/outbound/render"
	"github.com/uniedit/reelforge/internal/adapter/outbound/s3"
	"github.com/uniedit/reelforge/internal/adapter/outbound/scorer"

	// Infrastructure
	"github.com/uniedit/reelforge/internal/infra/config"
	"github.com/uniedit/reelforge/internal/infra/events"
	"github.com/uniedit/reelforge/internal/infra/httpclient"
	"github.com/uniedit/reelforge/internal/infra/task"
	"github.com/uniedit/reelforge/internal/shared/cache"
	"github.com/uniedit/reelforge/internal/shared/database"
	"github.com/uniedit/reelforge/internal/shared/logger"

	// Utils
	"github.com/uniedit/reelforge/internal/utils/metrics"
)

// ===== Infrastructure Providers =====

// InfraSet provides infrastructure dependencies.
var InfraSet = wire.NewSet(
	ProvideLogger,
	ProvideRegistry,
	ProvideMetrics,
	ProvideHTTPPool,
	ProvideDatabase,
	ProvideRedisClient,
	ProvideStorage,
	ProvideEventBus,
)

// ProvideLogger creates the root logger.
func ProvideLogger(cfg *config.Config) *zap.Logger {
	return logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
	})
}

// ProvideRegistry creates the Prometheus registry served on /metrics.
func ProvideRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// ProvideMetrics creates application metrics, or nil when disabled.
func ProvideMetrics(cfg *config.Config, reg *prometheus.Registry) *metrics.Metrics {
	if !cfg.Metrics.Enabled {
		return nil
	}
	return metrics.New(cfg.Metrics.Namespace, reg)
}

// ProvideHTTPPool creates the connection pool shared by every outbound adapter.
func ProvideHTTPPool(cfg *config.Config) (*httpclient.Pool, func()) {
	pool := httpclient.NewPool(cfg.HTTPClient)
	return pool, pool.Close
}

// ProvideDatabase opens Postgres when enabled. A nil DB disables the archives.
func ProvideDatabase(cfg *config.Config, log *zap.Logger) (*gorm.DB, func(), error) {
	if !cfg.Database.Enabled {
		return nil, func() {}, nil
	}
	db, err := database.New(&cfg.Database)
	if err != nil {
		return nil, nil, err
	}
	if cfg.Database.AutoMigrate {
		if err := postgres.AutoMigrate(db); err != nil {
			_ = database.Close(db)
			return nil, nil, err
		}
	}
	cleanup := func() {
		if err := database.Close(db); err != nil {
			log.Warn("database close failed", zap.Error(err))
		}
	}
	return db, cleanup, nil
}

// ProvideRedisClient connects to Redis when enabled. Redis is optional: a
// failed connection is logged and the snapshot cache is disabled.
func ProvideRedisClient(cfg *config.Config, log *zap.Logger) (goredis.UniversalClient, func()) {
	if !cfg.Redis.Enabled || cfg.Redis.Address == "" {
		return nil, func() {}
	}
	client, err := cache.NewRedisClient(context.Background(), &cfg.Redis)
	if err != nil {
		log.Warn("Redis connection failed, continuing without cache", zap.Error(err))
		return nil, func() {}
	}
	return client, func() { _ = client.Close() }
}

// ProvideStorage creates the object storage client when a bucket is configured.
func ProvideStorage(cfg *config.Config) (*s3.Storage, error) {
	if cfg.Storage.Bucket == "" {
		return nil, nil
	}
	client, err := s3.NewClient(&cfg.Storage)
	if err != nil {
		return nil, err
	}
	return s3.NewStorage(client, &cfg.Storage), nil
}

// ProvideEventBus creates the escalation bus. Escalations are always logged
// and, when Kafka is enabled, forwarded to the escalation topic.
func ProvideEventBus(cfg *config.Config, log *zap.Logger) (*events.Bus, func(), error) {
	bus := events.NewBus(log)
	bus.Register(events.LogEscalations(log.Named("review")))

	if !cfg.Kafka.Enabled {
		return bus, func() {}, nil
	}
	producer, err := kafka.NewProducer(&cfg.Kafka.Config, log)
	if err != nil {
		return nil, nil, err
	}
	bus.Register(events.ForwardEscalations(kafka.NewEscalationPublisher(producer, cfg.Kafka.EscalationTopic)))
	cleanup := func() {
		if err := producer.Close(); err != nil {
			log.Warn("kafka producer close failed", zap.Error(err))
		}
	}
	return bus, cleanup, nil
}

// ===== Generation Providers =====

// GenerationSet provides provider adapters, the scorer and the planner.
var GenerationSet = wire.NewSet(
	ProvideProviderPoller,
	ProvideProviderRegistry,
	ProvideProviderLookup,
	ProvidePlanner,
	ProvideScorer,
	ProvideResolver,
)

// ProvideProviderPoller creates the poller shared by task-based providers.
func ProvideProviderPoller(cfg *config.Config, log *zap.Logger) *task.Poller {
	return task.NewPoller(&cfg.ProviderPoll, log)
}

// ProvideProviderRegistry builds one breaker-wrapped adapter per configured provider.
func ProvideProviderRegistry(cfg *config.Config, pool *httpclient.Pool, poller *task.Poller, log *zap.Logger) (*mediaprovider.Registry, error) {
	return mediaprovider.Build(cfg.Providers, &cfg.Breaker, pool.Client(cfg.HTTPClient.ProviderTimeout), poller, log)
}

// ProvideProviderLookup exposes the registry to the gates.
func ProvideProviderLookup(r *mediaprovider.Registry) generation.ProviderLookup {
	return r
}

// ProvidePlanner builds the provider table. Media kinds the table leaves
// unset fall back to every registered provider that supports them.
func ProvidePlanner(cfg *config.Config, r *mediaprovider.Registry) *generation.Planner {
	table := generation.NewProviderTable()
	for _, kind := range []script.MediaKind{script.MediaKindVideo, script.MediaKindImage} {
		ids, ok := cfg.ProviderTable.Defaults[string(kind)]
		if !ok || len(ids) == 0 {
			ids = r.Supporting(kind)
		}
		table.SetDefault(kind, ids...)
	}
	for kind, bySceneType := range cfg.ProviderTable.BySceneType {
		for sceneType, ids := range bySceneType {
			table.SetForSceneType(script.MediaKind(kind), script.SceneType(sceneType), ids...)
		}
	}

	plannerConfig := generation.DefaultPlannerConfig()
	if cfg.Planner.SwitchAfterRepeats > 0 {
		plannerConfig.SwitchAfterRepeats = cfg.Planner.SwitchAfterRepeats
	}
	return generation.NewPlanner(nil, table, plannerConfig)
}

// ProvideScorer creates the content scorer client. Its exchanges are bounded
// by scorer.timeout.
func ProvideScorer(cfg *config.Config, pool *httpclient.Pool, log *zap.Logger) generation.ContentScorer {
	return scorer.NewClient(&cfg.Scorer, pool.Client(cfg.Scorer.Timeout), log)
}

// ProvideResolver resolves bucket references first, then public URLs.
func ProvideResolver(storage *s3.Storage) asset.Resolver {
	if storage == nil {
		return asset.NewPublicResolver(false)
	}
	return asset.NewChainResolver(
		s3.NewResolver(storage, storage.Bucket()),
		asset.NewPublicResolver(false),
	)
}

// ===== Store Providers =====

// StoreSet provides the optional archives, cache and render outputs.
var StoreSet = wire.NewSet(
	ProvideProjectCache,
	ProvideAttemptArchive,
	ProvideRenderSpecArchive,
	ProvideEscalationPublisher,
	ProvideGenerationMetrics,
	ProvideRenderBackend,
	ProvideOutputStore,
)

// ProvideProjectCache caches project snapshots in Redis.
func ProvideProjectCache(cfg *config.Config, client goredis.UniversalClient) outbound.ProjectCachePort {
	if client == nil {
		return nil
	}
	return redisadapter.NewProjectCacheAdapter(
		redisadapter.NewCache(client, cfg.Redis.KeyPrefix),
		cfg.Redis.SnapshotTTL,
	)
}

// ProvideAttemptArchive stores attempts in Postgres.
func ProvideAttemptArchive(db *gorm.DB) outbound.AttemptDatabasePort {
	if db == nil {
		return nil
	}
	return postgres.NewAttemptDBAdapter(db)
}

// ProvideRenderSpecArchive stores composed specs in Postgres.
func ProvideRenderSpecArchive(db *gorm.DB) outbound.RenderSpecDatabasePort {
	if db == nil {
		return nil
	}
	return postgres.NewRenderSpecDBAdapter(db)
}

// ProvideEscalationPublisher publishes escalations on the event bus.
func ProvideEscalationPublisher(bus *events.Bus) outbound.EscalationPublisherPort {
	return bus
}

// ProvideGenerationMetrics exposes metrics to the domain.
func ProvideGenerationMetrics(m *metrics.Metrics) outbound.GenerationMetricsPort {
	if m == nil {
		return nil
	}
	return m
}

// ProvideRenderBackend creates the render backend client when configured.
// Submit, poll and download set their own deadlines, so the client has none.
func ProvideRenderBackend(cfg *config.Config, pool *httpclient.Pool, log *zap.Logger) outbound.RenderBackendPort {
	if cfg.Render.BaseURL == "" {
		return nil
	}
	return render.NewBackend(&cfg.Render, pool.Client(0), log)
}

// ProvideOutputStore uploads rendered videos to object storage.
func ProvideOutputStore(cfg *config.Config, storage *s3.Storage) outbound.RenderOutputStoragePort {
	if storage == nil {
		return nil
	}
	return s3.NewOutputStore(storage, cfg.Storage.OutputPrefix, cfg.Storage.PresignExpiry)
}

// ===== Project Providers =====

// ProjectSet provides the project domain and its HTTP surface.
var ProjectSet = wire.NewSet(
	ProvideProjectDomain,
	wire.Bind(new(inbound.ProjectDomain), new(*project.Domain)),
	ginadapter.NewProjectHandler,
	ProvideRouter,
)

// ProvideProjectDomain creates the project domain.
func ProvideProjectDomain(
	cfg *config.Config,
	providers generation.ProviderLookup,
	contentScorer generation.ContentScorer,
	resolver asset.Resolver,
	planner *generation.Planner,
	projectCache outbound.ProjectCachePort,
	attempts outbound.AttemptDatabasePort,
	specs outbound.RenderSpecDatabasePort,
	escalations outbound.EscalationPublisherPort,
	renderer outbound.RenderBackendPort,
	outputs outbound.RenderOutputStoragePort,
	generationMetrics outbound.GenerationMetricsPort,
	log *zap.Logger,
) (*project.Domain, error) {
	deps := project.Dependencies{
		Providers:   providers,
		Scorer:      contentScorer,
		Resolver:    resolver,
		Planner:     planner,
		Cache:       projectCache,
		Attempts:    attempts,
		Specs:       specs,
		Escalations: escalations,
		Renderer:    renderer,
		Outputs:     outputs,
		Metrics:     generationMetrics,
	}
	return project.NewDomain(deps, &project.Config{
		FPS:                cfg.Project.FPS,
		MaxConcurrentCalls: cfg.Project.MaxConcurrentCalls,
		PersistTimeout:     cfg.Project.PersistTimeout,
		MusicURL:           cfg.Project.MusicURL,
		SFXLibrary:         cfg.SFXLibrary,
		Policy:             &cfg.Gate,
		Brand:              &cfg.Brand,
		Sound:              &cfg.Sound,
	}, log)
}

// ProvideRouter builds the HTTP engine with health checks for every
// connected dependency.
func ProvideRouter(
	cfg *config.Config,
	projects inbound.ProjectHttpPort,
	m *metrics.Metrics,
	reg *prometheus.Registry,
	db *gorm.DB,
	redisClient goredis.UniversalClient,
	log *zap.Logger,
) *gin.Engine {
	checks := map[string]ginadapter.HealthCheck{}
	if db != nil {
		checks["database"] = database.Ping(db)
	}
	if redisClient != nil {
		checks["redis"] = cache.Ping(redisClient)
	}

	routerConfig := ginadapter.RouterConfig{
		Debug:        cfg.Log.Level == "debug",
		AllowOrigins: cfg.Server.AllowOrigins,
		Swagger:      cfg.Server.Swagger,
		Checks:       checks,
	}
	if m != nil {
		routerConfig.Gatherer = reg
	}
	return ginadapter.NewRouter(routerConfig, projects, m, log)
}

// ===== App Set =====

// AppSet is the complete provider set.
var AppSet = wire.NewSet(
	InfraSet,
	GenerationSet,
	StoreSet,
	ProjectSet,
)
