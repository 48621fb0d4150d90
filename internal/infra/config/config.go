package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/uniedit/reelforge/internal/adapter/outbound/kafka"
	"github.com/uniedit/reelforge/internal/adapter/outbound/mediaprovider"
	"github.com/uniedit/reelforge/internal/adapter/outbound/render"
	"github.com/uniedit/reelforge/internal/adapter/outbound/s3"
	"github.com/uniedit/reelforge/internal/adapter/outbound/scorer"
	"github.com/uniedit/reelforge/internal/domain/brand"
	"github.com/uniedit/reelforge/internal/domain/generation"
	"github.com/uniedit/reelforge/internal/domain/sound"
	"github.com/uniedit/reelforge/internal/infra/task"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "REELFORGE"

// Config holds all application configuration.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Redis      RedisConfig      `mapstructure:"redis"`
	HTTPClient HTTPClientConfig `mapstructure:"http_client"`
	Storage    s3.Config        `mapstructure:"storage"`
	Kafka      KafkaConfig      `mapstructure:"kafka"`
	Log        LogConfig        `mapstructure:"log"`

	Project       ProjectConfig               `mapstructure:"project"`
	Gate          generation.Policy           `mapstructure:"gate"`
	Planner       PlannerConfig               `mapstructure:"planner"`
	Providers     []mediaprovider.Config      `mapstructure:"providers"`
	ProviderPoll  task.Config                 `mapstructure:"provider_poll"`
	ProviderTable ProviderTableConfig         `mapstructure:"provider_table"`
	Breaker       mediaprovider.BreakerConfig `mapstructure:"breaker"`
	Scorer        scorer.Config               `mapstructure:"scorer"`
	Render        render.Config               `mapstructure:"render"`
	Sound         sound.Config                `mapstructure:"sound"`
	Brand         brand.Config                `mapstructure:"brand"`
	SFXLibrary    map[string]string           `mapstructure:"sfx_library"`
	Metrics       MetricsConfig               `mapstructure:"metrics"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Address         string        `mapstructure:"address"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	AllowOrigins    []string      `mapstructure:"allow_origins"`
	Swagger         bool          `mapstructure:"swagger"`
}

// DatabaseConfig holds database configuration.
type DatabaseConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Database        string        `mapstructure:"database"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
	AutoMigrate     bool          `mapstructure:"auto_migrate"`
}

// DSN returns the database connection string.
func (c *DatabaseConfig) DSN() string {
	dsn := fmt.Sprintf(
		"host=%s port=%d user=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Database, c.SSLMode,
	)
	if c.Password != "" {
		dsn += fmt.Sprintf(" password=%s", c.Password)
	}
	return dsn
}

// RedisConfig holds Redis configuration.
type RedisConfig struct {
	Enabled     bool          `mapstructure:"enabled"`
	Address     string        `mapstructure:"address"`
	Password    string        `mapstructure:"password"`
	DB          int           `mapstructure:"db"`
	KeyPrefix   string        `mapstructure:"key_prefix"`
	SnapshotTTL time.Duration `mapstructure:"snapshot_ttl"`
}

// HTTPClientConfig holds HTTP client configuration for connection pooling.
type HTTPClientConfig struct {
	// Connection pool settings
	MaxIdleConns        int           `mapstructure:"max_idle_conns"`
	MaxIdleConnsPerHost int           `mapstructure:"max_idle_conns_per_host"`
	MaxConnsPerHost     int           `mapstructure:"max_conns_per_host"`
	IdleConnTimeout     time.Duration `mapstructure:"idle_conn_timeout"`

	// Timeout settings
	DialTimeout         time.Duration `mapstructure:"dial_timeout"`
	TLSHandshakeTimeout time.Duration `mapstructure:"tls_handshake_timeout"`
	// ResponseHeaderTimeout bounds the wait for response headers on every client.
	ResponseHeaderTimeout time.Duration `mapstructure:"response_header_timeout"`
	// ProviderTimeout caps one media provider exchange. Whole provider tasks
	// are bounded by the gate's provider timeouts.
	ProviderTimeout time.Duration `mapstructure:"provider_timeout"`

	KeepAlive time.Duration `mapstructure:"keep_alive"`
}

// KafkaConfig holds the escalation producer configuration.
type KafkaConfig struct {
	Enabled bool `mapstructure:"enabled"`

	kafka.Config `mapstructure:",squash"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// MetricsConfig holds Prometheus configuration.
type MetricsConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Namespace string `mapstructure:"namespace"`
}

// ProjectConfig holds orchestration settings that are not gate policy.
type ProjectConfig struct {
	FPS                int           `mapstructure:"fps"`
	MaxConcurrentCalls int64         `mapstructure:"max_concurrent_calls"`
	PersistTimeout     time.Duration `mapstructure:"persist_timeout"`
	MusicURL           string        `mapstructure:"music_url"`
}

// PlannerConfig tunes regeneration.
type PlannerConfig struct {
	SwitchAfterRepeats int `mapstructure:"switch_after_repeats"`
}

// ProviderTableConfig lists provider candidates per media kind, optionally
// refined per scene type. The first id is primary.
type ProviderTableConfig struct {
	Defaults    map[string][]string            `mapstructure:"defaults"`
	BySceneType map[string]map[string][]string `mapstructure:"by_scene_type"`
}

// Load reads config.yaml from the working directory, ./configs or
// /etc/reelforge, then applies REELFORGE_* environment overrides.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	v.AddConfigPath("/etc/reelforge")

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	return load(v)
}

// LoadFile reads configuration from an explicit path.
func LoadFile(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	setDefaults(v)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	return load(v)
}

func load(v *viper.Viper) (*Config, error) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Brand has nested overlay rules; its defaults are seeded on the struct
	// so a partial brand section keeps the remaining defaults.
	cfg := Config{Brand: *brand.DefaultConfig()}
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	applySecrets(&cfg)

	if s := os.Getenv(EnvPrefix + "_KAFKA_BROKERS"); s != "" {
		cfg.Kafka.Brokers = parseCommaSeparatedList(s)
	}
	if s := os.Getenv(EnvPrefix + "_SERVER_ALLOW_ORIGINS"); s != "" {
		cfg.Server.AllowOrigins = parseCommaSeparatedList(s)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applySecrets overrides sensitive values from the environment.
func applySecrets(cfg *Config) {
	if password := os.Getenv(EnvPrefix + "_DB_PASSWORD"); password != "" {
		cfg.Database.Password = password
	}
	if password := os.Getenv(EnvPrefix + "_REDIS_PASSWORD"); password != "" {
		cfg.Redis.Password = password
	}
	if key := os.Getenv(EnvPrefix + "_STORAGE_SECRET_KEY"); key != "" {
		cfg.Storage.SecretAccessKey = key
	}
	if key := os.Getenv(EnvPrefix + "_SCORER_API_KEY"); key != "" {
		cfg.Scorer.APIKey = key
	}
	if key := os.Getenv(EnvPrefix + "_RENDER_API_KEY"); key != "" {
		cfg.Render.APIKey = key
	}
	for i := range cfg.Providers {
		if cfg.Providers[i].ID == "" {
			cfg.Providers[i].ID = cfg.Providers[i].Preset
		}
		if key := os.Getenv(ProviderKeyEnv(cfg.Providers[i].ID)); key != "" {
			cfg.Providers[i].APIKey = key
		}
	}
}

// ProviderKeyEnv names the environment variable holding a provider's API key.
func ProviderKeyEnv(providerID string) string {
	id := strings.ToUpper(strings.NewReplacer("-", "_", ".", "_").Replace(providerID))
	return EnvPrefix + "_PROVIDER_" + id + "_API_KEY"
}

// Validate checks cross-section constraints the individual sections cannot.
func (c *Config) Validate() error {
	if err := c.Gate.Validate(); err != nil {
		return fmt.Errorf("gate: %w", err)
	}
	if err := c.Sound.Validate(); err != nil {
		return fmt.Errorf("sound: %w", err)
	}
	seen := make(map[string]bool, len(c.Providers))
	for _, p := range c.Providers {
		id := p.ID
		if id == "" {
			id = p.Preset
		}
		if id == "" {
			return fmt.Errorf("providers: entry without id or preset")
		}
		if seen[id] {
			return fmt.Errorf("providers: duplicate id %q", id)
		}
		seen[id] = true
	}
	for kind, ids := range c.ProviderTable.Defaults {
		for _, id := range ids {
			if !seen[id] {
				return fmt.Errorf("provider_table.defaults.%s: unknown provider %q", kind, id)
			}
		}
	}
	for kind, byType := range c.ProviderTable.BySceneType {
		for sceneType, ids := range byType {
			for _, id := range ids {
				if !seen[id] {
					return fmt.Errorf("provider_table.by_scene_type.%s.%s: unknown provider %q", kind, sceneType, id)
				}
			}
		}
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka: enabled without brokers")
	}
	return nil
}

// parseCommaSeparatedList splits a comma-separated string, dropping blanks.
func parseCommaSeparatedList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.address", ":8080")
	v.SetDefault("server.read_timeout", 30*time.Second)
	// Compose with wait and render block for minutes.
	v.SetDefault("server.write_timeout", 30*time.Minute)
	v.SetDefault("server.idle_timeout", 120*time.Second)
	v.SetDefault("server.shutdown_timeout", 30*time.Second)
	v.SetDefault("server.swagger", true)

	// Database defaults
	v.SetDefault("database.enabled", true)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.database", "reelforge")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 10)
	v.SetDefault("database.conn_max_lifetime", time.Hour)
	v.SetDefault("database.conn_max_idle_time", 30*time.Minute)
	v.SetDefault("database.auto_migrate", true)

	// Redis defaults
	v.SetDefault("redis.enabled", true)
	v.SetDefault("redis.address", "localhost:6379")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.key_prefix", "reelforge:")
	v.SetDefault("redis.snapshot_ttl", 24*time.Hour)

	// HTTP client defaults
	v.SetDefault("http_client.max_idle_conns", 100)
	v.SetDefault("http_client.max_idle_conns_per_host", 20)
	v.SetDefault("http_client.max_conns_per_host", 50)
	v.SetDefault("http_client.idle_conn_timeout", 90*time.Second)
	v.SetDefault("http_client.dial_timeout", 30*time.Second)
	v.SetDefault("http_client.tls_handshake_timeout", 10*time.Second)
	v.SetDefault("http_client.response_header_timeout", 60*time.Second)
	v.SetDefault("http_client.provider_timeout", 120*time.Second)
	v.SetDefault("http_client.keep_alive", 30*time.Second)

	// Storage defaults
	v.SetDefault("storage.region", "auto")
	v.SetDefault("storage.presign_expiry", 24*time.Hour)
	v.SetDefault("storage.output_prefix", "renders/")

	// Kafka defaults
	v.SetDefault("kafka.enabled", false)
	v.SetDefault("kafka.client_id", "reelforge")
	v.SetDefault("kafka.escalation_topic", kafka.DefaultEscalationTopic)
	v.SetDefault("kafka.max_retries", 5)
	v.SetDefault("kafka.timeout", 10*time.Second)

	// Log defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Metrics defaults
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.namespace", "reelforge")

	// Project defaults
	v.SetDefault("project.fps", 30)
	v.SetDefault("project.max_concurrent_calls", 4)
	v.SetDefault("project.persist_timeout", 5*time.Second)

	// Gate defaults
	policy := generation.DefaultPolicy()
	v.SetDefault("gate.approve_threshold", policy.ApproveThreshold)
	v.SetDefault("gate.review_threshold", policy.ReviewThreshold)
	v.SetDefault("gate.regenerate_threshold", policy.RegenerateThreshold)
	v.SetDefault("gate.max_attempts", policy.MaxAttempts)
	v.SetDefault("gate.default_provider_timeout", policy.DefaultProviderTimeout)
	for kind, timeout := range policy.ProviderTimeouts {
		v.SetDefault("gate.provider_timeouts."+string(kind), timeout)
	}

	// Planner defaults
	v.SetDefault("planner.switch_after_repeats", generation.DefaultPlannerConfig().SwitchAfterRepeats)

	// Provider polling defaults
	v.SetDefault("provider_poll.poll_interval", 5*time.Second)
	v.SetDefault("provider_poll.poll_timeout", 10*time.Minute)
	v.SetDefault("provider_poll.max_poll_attempts", 0)
	v.SetDefault("provider_poll.request_timeout", 15*time.Second)
	v.SetDefault("provider_poll.max_consecutive_errors", 3)

	// Breaker defaults
	breaker := mediaprovider.DefaultBreakerConfig()
	v.SetDefault("breaker.failure_threshold", breaker.FailureThreshold)
	v.SetDefault("breaker.interval", breaker.Interval)
	v.SetDefault("breaker.timeout", breaker.Timeout)
	v.SetDefault("breaker.max_half_open_requests", breaker.MaxHalfOpenRequests)

	// Scorer defaults
	v.SetDefault("scorer.timeout", 60*time.Second)

	// Render defaults
	renderCfg := render.DefaultConfig()
	v.SetDefault("render.submit_timeout", renderCfg.SubmitTimeout)
	v.SetDefault("render.download_timeout", renderCfg.DownloadTimeout)
	v.SetDefault("render.max_output_bytes", renderCfg.MaxOutputBytes)
	v.SetDefault("render.poll.poll_interval", renderCfg.Poll.PollInterval)
	v.SetDefault("render.poll.poll_timeout", renderCfg.Poll.PollTimeout)
	v.SetDefault("render.poll.request_timeout", renderCfg.Poll.RequestTimeout)
	v.SetDefault("render.poll.max_consecutive_errors", renderCfg.Poll.MaxConsecutiveErrors)

	// Sound defaults
	mix := sound.DefaultConfig()
	v.SetDefault("sound.base_volume", mix.BaseVolume)
	v.SetDefault("sound.duck_level", mix.DuckLevel)
	v.SetDefault("sound.fade_frames", mix.FadeFrames)
	v.SetDefault("sound.rise_lead_seconds", mix.RiseLeadSeconds)
	v.SetDefault("sound.transition_key", mix.TransitionKey)
	v.SetDefault("sound.transition_seconds", mix.TransitionSeconds)
	v.SetDefault("sound.impact_key", mix.ImpactKey)
	v.SetDefault("sound.impact_seconds", mix.ImpactSeconds)
	v.SetDefault("sound.rise_key", mix.RiseKey)
	v.SetDefault("sound.ambient_key", mix.AmbientKey)
	v.SetDefault("sound.ambient_volume", mix.AmbientVolume)
	v.SetDefault("sound.cue_volume", mix.CueVolume)
}
