package config

import (
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"go-lesson-cache/internal/memcache"
	"go-lesson-cache/internal/resource"
	"go-lesson-cache/internal/service"
)

// Store backend names accepted in the store section.
const (
	BackendBadger = "badger"
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

// Duration decodes Go duration strings ("30s", "7h") from YAML.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Config represents the main configuration structure
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Upstream UpstreamConfig `yaml:"upstream"`
	Memory   MemoryConfig   `yaml:"memory_cache"`
	Store    StoreConfig    `yaml:"store"`
	Resource ResourceConfig `yaml:"resource"`
	Facade   FacadeConfig   `yaml:"facade"`
}

// ServerConfig configures the HTTP gateway.
type ServerConfig struct {
	ListenAddr   string   `yaml:"listen_addr"`
	ReadTimeout  Duration `yaml:"read_timeout"`
	WriteTimeout Duration `yaml:"write_timeout"`
}

// UpstreamConfig points at the origin the gateway fronts.
type UpstreamConfig struct {
	BaseURL string   `yaml:"base_url"`
	Timeout Duration `yaml:"timeout"`
}

// MemoryConfig configures the in-process cache tier.
type MemoryConfig struct {
	MaxEntries    int      `yaml:"max_entries"`
	SweepInterval Duration `yaml:"sweep_interval"`
}

// StoreConfig selects and configures the durable tier backend.
type StoreConfig struct {
	Backend string      `yaml:"backend"`
	Path    string      `yaml:"path"`
	Redis   RedisConfig `yaml:"redis"`
}

// RedisConfig configures the redis backend when selected.
type RedisConfig struct {
	URL            string   `yaml:"url"`
	ConnectTimeout Duration `yaml:"connect_timeout"`
	ReadTimeout    Duration `yaml:"read_timeout"`
	WriteTimeout   Duration `yaml:"write_timeout"`
	PoolSize       int      `yaml:"pool_size"`
}

// BoundsConfig limits one byte-cache role.
type BoundsConfig struct {
	MaxEntries int      `yaml:"max_entries"`
	MaxAge     Duration `yaml:"max_age"`
}

func (b BoundsConfig) bounds() resource.CacheBounds {
	return resource.CacheBounds{MaxEntries: b.MaxEntries, MaxAge: b.MaxAge.Std()}
}

// ResourceConfig configures the intercepting agent.
type ResourceConfig struct {
	Version     string                `yaml:"version"`
	Precache    []string              `yaml:"precache"`
	OfflinePath string                `yaml:"offline_path"`
	Static      BoundsConfig          `yaml:"static"`
	Dynamic     BoundsConfig          `yaml:"dynamic"`
	API         BoundsConfig          `yaml:"api"`
	Rules       resource.RoutingRules `yaml:"rules"`
}

// FacadeConfig tunes the orchestration facade.
type FacadeConfig struct {
	LessonTTL          Duration `yaml:"lesson_ttl"`
	MediaTTL           Duration `yaml:"media_ttl"`
	TranslationWindow  Duration `yaml:"translation_window"`
	PreloadCount       int      `yaml:"preload_count"`
	MemoryThreshold    int      `yaml:"memory_threshold"`
	StorageBudgetBytes int64    `yaml:"storage_budget_bytes"`
	CleanupMaxAge      Duration `yaml:"cleanup_max_age"`
}

// LoadConfig loads configuration from file path
func LoadConfig(configPath string, logger *zap.Logger) (*Config, error) {
	logger.Info("Loading configuration", zap.String("path", configPath))

	file, err := os.Open(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var config Config
	decoder := yaml.NewDecoder(file)
	if err := decoder.Decode(&config); err != nil {
		return nil, fmt.Errorf("failed to decode YAML config: %w", err)
	}

	config.applyDefaults()
	if err := config.validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// applyDefaults sets default values for missing configuration
func (c *Config) applyDefaults() {
	if c.Server.ListenAddr == "" {
		c.Server.ListenAddr = ":8080"
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = Duration(30 * time.Second)
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = Duration(30 * time.Second)
	}
	if c.Upstream.Timeout == 0 {
		c.Upstream.Timeout = Duration(15 * time.Second)
	}
	if c.Memory.MaxEntries == 0 {
		c.Memory.MaxEntries = memcache.DefaultMaxEntries
	}
	if c.Memory.SweepInterval == 0 {
		c.Memory.SweepInterval = Duration(memcache.DefaultSweepInterval)
	}
	if c.Store.Backend == "" {
		c.Store.Backend = BackendBadger
	}
	if c.Store.Path == "" {
		c.Store.Path = "data/lesson-cache"
	}
	if c.Resource.Version == "" {
		c.Resource.Version = "v1"
	}
	if c.Resource.OfflinePath == "" {
		c.Resource.OfflinePath = "/offline"
	}
}

func (c *Config) validate() error {
	switch c.Store.Backend {
	case BackendBadger, BackendMemory:
	case BackendRedis:
		if c.Store.Redis.URL == "" {
			return fmt.Errorf("store backend %q requires store.redis.url", BackendRedis)
		}
	default:
		return fmt.Errorf("unknown store backend %q", c.Store.Backend)
	}
	if c.Upstream.BaseURL == "" {
		return fmt.Errorf("upstream.base_url is required")
	}
	return nil
}

// ResourceOptions converts the resource section into agent options.
func (c *Config) ResourceOptions() resource.Options {
	return resource.Options{
		Version:     c.Resource.Version,
		Precache:    c.Resource.Precache,
		OfflinePath: c.Resource.OfflinePath,
		Static:      c.Resource.Static.bounds(),
		Dynamic:     c.Resource.Dynamic.bounds(),
		API:         c.Resource.API.bounds(),
		Rules:       c.Resource.Rules,
	}
}

// FacadeOptions converts the facade section into service options.
func (c *Config) FacadeOptions() service.Options {
	return service.Options{
		LessonTTL:          c.Facade.LessonTTL.Std(),
		MediaTTL:           c.Facade.MediaTTL.Std(),
		TranslationWindow:  c.Facade.TranslationWindow.Std(),
		PreloadCount:       c.Facade.PreloadCount,
		MemoryThreshold:    c.Facade.MemoryThreshold,
		StorageBudgetBytes: c.Facade.StorageBudgetBytes,
		CleanupMaxAge:      c.Facade.CleanupMaxAge.Std(),
	}
}
