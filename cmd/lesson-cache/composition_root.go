package main

import (
	"context"
	"fmt"
	"net/url"
	"os"

	"go.uber.org/zap"

	"go-lesson-cache/internal/bytecache"
	"go-lesson-cache/internal/config"
	"go-lesson-cache/internal/httpserver"
	"go-lesson-cache/internal/interfaces"
	"go-lesson-cache/internal/memcache"
	"go-lesson-cache/internal/resource"
	"go-lesson-cache/internal/service"
	"go-lesson-cache/internal/store/badgerstore"
	"go-lesson-cache/internal/store/memstore"
	"go-lesson-cache/internal/store/redisstore"
)

// CompositionRoot holds all application dependencies and provides a centralized
// place for dependency injection and service initialization.
// This pattern helps with:
// - Centralized dependency management
// - Easier testing (can inject mocks)
// - Clear separation of concerns
// - Proper resource cleanup
type CompositionRoot struct {
	// Configuration
	Config *config.Config
	Logger *zap.Logger

	// Cache tiers
	MemoryCache *memcache.Cache
	RecordStore interfaces.RecordStore

	// Resource agent
	CacheStorage *bytecache.Storage
	Agent        *resource.Agent

	// Services
	Facade     *service.CacheService
	HTTPServer *httpserver.Server
}

// NewCompositionRoot creates and initializes all application dependencies.
// It follows the dependency injection pattern where all services are created
// and wired together in the correct order.
//
// Initialization order:
// 1. Logger (needed by all other components)
// 2. Configuration (defines how components should be configured)
// 3. Cache tiers (memory cache, durable record store)
// 4. Resource agent (byte-cache storage, install and activate)
// 5. Facade (orchestrates the tiers)
// 6. HTTP Server (uses all above components)
func NewCompositionRoot(ctx context.Context) (*CompositionRoot, error) {
	root := &CompositionRoot{}

	// Initialize logger first
	if err := root.initLogger(); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	// Load configuration
	if err := root.loadConfig(); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	// Initialize cache tiers
	if err := root.initCacheTiers(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize cache tiers: %w", err)
	}

	// Initialize the resource agent
	if err := root.initAgent(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize resource agent: %w", err)
	}

	// Initialize services
	if err := root.initServices(); err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	// Initialize HTTP server
	if err := root.initHTTPServer(); err != nil {
		return nil, fmt.Errorf("failed to initialize HTTP server: %w", err)
	}

	return root, nil
}

// initLogger initializes the application logger
func (r *CompositionRoot) initLogger() error {
	logger, err := zap.NewProduction()
	if err != nil {
		return err
	}
	r.Logger = logger
	return nil
}

// loadConfig loads the application configuration
func (r *CompositionRoot) loadConfig() error {
	configPath := os.Getenv("LESSON_CACHE_CONFIG")
	if configPath == "" {
		configPath = "/app/lesson_cache.yaml"
	}

	cfg, err := config.LoadConfig(configPath, r.Logger)
	if err != nil {
		return err
	}

	r.Config = cfg
	return nil
}

// initCacheTiers initializes the memory cache and the durable store
func (r *CompositionRoot) initCacheTiers(ctx context.Context) error {
	r.MemoryCache = memcache.New(memcache.Options{
		MaxEntries:    r.Config.Memory.MaxEntries,
		SweepInterval: r.Config.Memory.SweepInterval.Std(),
	}, r.Logger)

	recordStore, err := r.buildRecordStore()
	if err != nil {
		return err
	}
	if err := recordStore.Initialize(ctx); err != nil {
		return fmt.Errorf("failed to initialize %s store: %w", r.Config.Store.Backend, err)
	}
	r.RecordStore = recordStore

	r.Logger.Info("Cache tiers initialized",
		zap.String("store_backend", r.Config.Store.Backend),
		zap.Int("memory_max_entries", r.Config.Memory.MaxEntries))
	return nil
}

// buildRecordStore selects the configured durable backend
func (r *CompositionRoot) buildRecordStore() (interfaces.RecordStore, error) {
	switch r.Config.Store.Backend {
	case config.BackendBadger:
		return badgerstore.New(r.Config.Store.Path, r.Logger), nil
	case config.BackendRedis:
		redisURL := GetRedisURL(r.Config.Store.Redis.URL, r.Logger)
		client, err := redisstore.NewClient(redisURL, redisstore.ClientOptions{
			ConnectTimeout: r.Config.Store.Redis.ConnectTimeout.Std(),
			ReadTimeout:    r.Config.Store.Redis.ReadTimeout.Std(),
			WriteTimeout:   r.Config.Store.Redis.WriteTimeout.Std(),
			PoolSize:       r.Config.Store.Redis.PoolSize,
		}, r.Logger)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		return redisstore.New(client, r.Logger), nil
	case config.BackendMemory:
		return memstore.New(), nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", r.Config.Store.Backend)
	}
}

// initAgent initializes the intercepting resource agent and runs its
// install and activate lifecycle
func (r *CompositionRoot) initAgent(ctx context.Context) error {
	r.CacheStorage = bytecache.NewStorage(r.Logger)

	fetcher := newUpstreamFetcher(r.Config.Upstream.Timeout.Std())
	r.Agent = resource.New(r.Config.ResourceOptions(), fetcher, r.CacheStorage, r.Logger)

	if err := r.Agent.Install(ctx); err != nil {
		return fmt.Errorf("agent install failed: %w", err)
	}
	r.Agent.Activate(ctx)
	return nil
}

// initServices initializes application services
func (r *CompositionRoot) initServices() error {
	r.Facade = service.New(
		r.MemoryCache,
		r.RecordStore,
		r.Config.FacadeOptions(),
		r.Logger,
	)
	return nil
}

// initHTTPServer initializes the HTTP server
func (r *CompositionRoot) initHTTPServer() error {
	upstream, err := url.Parse(r.Config.Upstream.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid upstream base URL: %w", err)
	}

	r.HTTPServer = httpserver.NewServer(
		r.Facade,
		r.Agent,
		upstream,
		httpserver.Options{
			ListenAddr:   r.Config.Server.ListenAddr,
			ReadTimeout:  r.Config.Server.ReadTimeout.Std(),
			WriteTimeout: r.Config.Server.WriteTimeout.Std(),
		},
		r.Logger,
	)
	return nil
}

// Cleanup performs cleanup of all resources
func (r *CompositionRoot) Cleanup() error {
	var errors []error

	// Sync logger
	if r.Logger != nil {
		if err := r.Logger.Sync(); err != nil {
			errors = append(errors, fmt.Errorf("failed to sync logger: %w", err))
		}
	}

	// Close the facade, which stops the memory sweep and closes the store
	if r.Facade != nil {
		if err := r.Facade.Close(); err != nil {
			errors = append(errors, fmt.Errorf("failed to close cache facade: %w", err))
		}
	}

	// Return first error if any
	if len(errors) > 0 {
		return errors[0]
	}

	return nil
}
