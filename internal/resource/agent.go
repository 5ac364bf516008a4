// Package resource implements the background agent that intercepts read
// requests and applies one of five caching strategies against three
// versioned byte-caches.
package resource

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"go-lesson-cache/internal/bytecache"
	"go-lesson-cache/internal/interfaces"
	"go-lesson-cache/internal/metrics"
)

// CacheBounds configures one byte-cache role.
type CacheBounds struct {
	MaxEntries int
	MaxAge     time.Duration
}

// Options configures the agent.
type Options struct {
	// Version tags cache names; bumping it orphans old caches until the
	// next activation sweeps them.
	Version string

	// Precache lists absolute URLs fetched into the static cache at
	// install time.
	Precache []string

	// OfflinePath is the path of the precached offline page served to
	// failed navigations.
	OfflinePath string

	Static  CacheBounds
	Dynamic CacheBounds
	API     CacheBounds

	Rules RoutingRules
}

// DefaultBounds mirror the original deployment's cache limits.
var (
	DefaultStaticBounds  = CacheBounds{MaxEntries: 60, MaxAge: 7 * 24 * time.Hour}
	DefaultDynamicBounds = CacheBounds{MaxEntries: 40, MaxAge: 24 * time.Hour}
	DefaultAPIBounds     = CacheBounds{MaxEntries: 50, MaxAge: time.Hour}
)

// Agent routes intercepted requests to strategies. It is safe for
// concurrent use; each in-flight request runs independently.
type Agent struct {
	version     string
	offlinePath string
	precache    []string

	storage *bytecache.Storage
	static  *bytecache.Cache
	dynamic *bytecache.Cache
	api     *bytecache.Cache

	router     *Router
	strategies map[StrategyKind]Strategy
	next       Next
	logger     *zap.Logger

	mu          sync.Mutex
	offline     *bytecache.Snapshot
	active      bool
	skipWaiting bool

	syncHandlers map[string]func(ctx context.Context) error
	pushHandler  func(payload []byte)
	clickHandler func(action string)
}

// New creates an agent over the given fetcher and cache storage.
func New(opts Options, fetcher interfaces.Fetcher, storage *bytecache.Storage, logger *zap.Logger) *Agent {
	if opts.Static.MaxEntries == 0 {
		opts.Static = DefaultStaticBounds
	}
	if opts.Dynamic.MaxEntries == 0 {
		opts.Dynamic = DefaultDynamicBounds
	}
	if opts.API.MaxEntries == 0 {
		opts.API = DefaultAPIBounds
	}
	if opts.OfflinePath == "" {
		opts.OfflinePath = "/offline"
	}

	a := &Agent{
		version:      opts.Version,
		offlinePath:  opts.OfflinePath,
		precache:     opts.Precache,
		storage:      storage,
		router:       NewRouter(opts.Rules, logger),
		logger:       logger,
		syncHandlers: make(map[string]func(ctx context.Context) error),
	}
	a.next = func(ctx context.Context, req *http.Request) (*http.Response, error) {
		return fetcher.Do(req.WithContext(ctx))
	}

	a.static = storage.Open(bytecache.CacheSpec{
		Name: cacheName(RoleStatic, opts.Version), MaxEntries: opts.Static.MaxEntries, MaxAge: opts.Static.MaxAge})
	a.dynamic = storage.Open(bytecache.CacheSpec{
		Name: cacheName(RoleDynamic, opts.Version), MaxEntries: opts.Dynamic.MaxEntries, MaxAge: opts.Dynamic.MaxAge})
	a.api = storage.Open(bytecache.CacheSpec{
		Name: cacheName(RoleAPI, opts.Version), MaxEntries: opts.API.MaxEntries, MaxAge: opts.API.MaxAge})

	group := &singleflight.Group{}
	a.strategies = map[StrategyKind]Strategy{
		StrategyCacheFirst:           &cacheFirst{logger: logger},
		StrategyNetworkFirst:         &networkFirst{logger: logger},
		StrategyStaleWhileRevalidate: &staleWhileRevalidate{logger: logger, group: group},
		StrategyNetworkOnly:          &networkOnly{},
		StrategyCacheOnly:            &cacheOnly{},
	}
	return a
}

func cacheName(role Role, version string) string {
	return string(role) + "-" + version
}

// Version returns the agent's cache-version tag.
func (a *Agent) Version() string { return a.version }

// CacheNames returns the current-version byte-cache names.
func (a *Agent) CacheNames() []string {
	return []string{
		cacheName(RoleStatic, a.version),
		cacheName(RoleDynamic, a.version),
		cacheName(RoleAPI, a.version),
	}
}

// Install pre-populates the static cache from the precache manifest.
// Individual fetch failures are logged and skipped; installation
// proceeds regardless.
func (a *Agent) Install(ctx context.Context) error {
	for _, rawURL := range a.precache {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			a.logger.Warn("Invalid precache URL", zap.String("url", rawURL), zap.Error(err))
			continue
		}
		resp, err := a.next(ctx, req)
		if err != nil {
			a.logger.Warn("Precache fetch failed", zap.String("url", rawURL), zap.Error(err))
			continue
		}
		if !cacheable(resp.StatusCode) {
			_ = resp.Body.Close()
			a.logger.Warn("Precache fetch returned non-success status",
				zap.String("url", rawURL), zap.Int("status", resp.StatusCode))
			continue
		}
		snap, err := takeSnapshot(resp)
		if err != nil {
			a.logger.Warn("Precache snapshot failed", zap.String("url", rawURL), zap.Error(err))
			continue
		}
		a.static.Put(req, snap)

		if req.URL.Path == a.offlinePath {
			a.mu.Lock()
			a.offline = snap
			a.mu.Unlock()
		}
	}
	a.logger.Info("Install complete",
		zap.String("version", a.version),
		zap.Int("precached", a.static.Len()))
	return nil
}

// Activate sweeps byte-caches from older versions and marks the agent
// active, taking over request interception immediately.
func (a *Agent) Activate(ctx context.Context) {
	deleted := a.storage.DeleteStale(a.CacheNames())
	a.mu.Lock()
	a.active = true
	a.mu.Unlock()
	a.logger.Info("Activated",
		zap.String("version", a.version),
		zap.Strings("swept", deleted))
}

// Active reports whether Activate has run.
func (a *Agent) Active() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.active
}

// Intercept handles one outbound request. Non-read methods pass through
// to the network untouched. Strategy failures degrade to the offline
// fallback; Intercept always produces a response.
func (a *Agent) Intercept(ctx context.Context, req *http.Request) (*http.Response, error) {
	if req.Method != http.MethodGet && req.Method != http.MethodHead {
		return a.next(ctx, req)
	}

	decision := a.router.Route(req)
	metrics.RecordStrategyRequest(string(decision.Strategy), string(decision.Role))

	resp, err := a.strategies[decision.Strategy].Execute(ctx, req, a.cacheFor(decision.Role), a.next)
	if err != nil {
		a.logger.Debug("Strategy failed, applying offline fallback",
			zap.String("url", req.URL.String()),
			zap.String("strategy", string(decision.Strategy)),
			zap.Error(err))
		return a.handleOfflineRequest(req), nil
	}
	return resp, nil
}

func (a *Agent) cacheFor(role Role) *bytecache.Cache {
	switch role {
	case RoleStatic:
		return a.static
	case RoleDynamic:
		return a.dynamic
	default:
		return a.api
	}
}

// handleOfflineRequest guarantees a response when every tier is
// exhausted: the precached offline page for navigations, otherwise a
// synthesized 503 JSON body.
func (a *Agent) handleOfflineRequest(req *http.Request) *http.Response {
	if isNavigation(req) {
		a.mu.Lock()
		offline := a.offline
		a.mu.Unlock()
		if offline != nil {
			metrics.RecordOfflineFallback("page")
			return snapshotResponse(req, offline)
		}
	}

	metrics.RecordOfflineFallback("synthesized")
	body, _ := json.Marshal(map[string]string{
		"error":   "Offline",
		"message": "You appear to be offline and this content has not been cached.",
	})
	header := http.Header{}
	header.Set("Content-Type", "application/json")
	return &http.Response{
		StatusCode:    http.StatusServiceUnavailable,
		Status:        http.StatusText(http.StatusServiceUnavailable),
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        header,
		Body:          io.NopCloser(bytes.NewReader(body)),
		ContentLength: int64(len(body)),
		Request:       req,
	}
}

// isNavigation reports whether the request is a full-page navigation.
func isNavigation(req *http.Request) bool {
	if req.Method != http.MethodGet {
		return false
	}
	if req.Header.Get("Sec-Fetch-Mode") == "navigate" {
		return true
	}
	return strings.Contains(req.Header.Get("Accept"), "text/html")
}
