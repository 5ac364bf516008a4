package resource

import (
	"context"
	"net/http"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"go-lesson-cache/internal/bytecache"
)

// Next is the continuation a strategy calls to reach the real network.
type Next func(ctx context.Context, req *http.Request) (*http.Response, error)

// Strategy executes one caching policy against a named byte-cache.
type Strategy interface {
	Kind() StrategyKind
	Execute(ctx context.Context, req *http.Request, cache *bytecache.Cache, next Next) (*http.Response, error)
}

// cacheFirst serves a fresh cached response, fetching only on miss or
// staleness. A failed fetch degrades to the cached response even when
// stale.
type cacheFirst struct {
	logger *zap.Logger
}

func (s *cacheFirst) Kind() StrategyKind { return StrategyCacheFirst }

func (s *cacheFirst) Execute(ctx context.Context, req *http.Request, cache *bytecache.Cache, next Next) (*http.Response, error) {
	if snap, ok := cache.Match(req); ok && !cache.IsStale(snap) {
		return snapshotResponse(req, snap), nil
	}

	resp, err := next(ctx, req)
	if err != nil {
		if snap, ok := cache.Match(req); ok {
			s.logger.Debug("Serving stale cached response after fetch failure",
				zap.String("url", req.URL.String()))
			return snapshotResponse(req, snap), nil
		}
		return nil, &NetworkError{URL: req.URL.String(), Err: err}
	}

	if !cacheable(resp.StatusCode) {
		return resp, nil
	}
	snap, err := takeSnapshot(resp)
	if err != nil {
		return nil, err
	}
	cache.Put(req, snap)
	return snapshotResponse(req, snap), nil
}

// networkFirst always tries the network, keeping the cache as a
// fallback for failures.
type networkFirst struct {
	logger *zap.Logger
}

func (s *networkFirst) Kind() StrategyKind { return StrategyNetworkFirst }

func (s *networkFirst) Execute(ctx context.Context, req *http.Request, cache *bytecache.Cache, next Next) (*http.Response, error) {
	resp, err := next(ctx, req)
	if err != nil {
		if snap, ok := cache.Match(req); ok {
			s.logger.Debug("Network failed, serving cached response",
				zap.String("url", req.URL.String()))
			return snapshotResponse(req, snap), nil
		}
		return nil, &NetworkError{URL: req.URL.String(), Err: err}
	}

	if !cacheable(resp.StatusCode) {
		return resp, nil
	}
	snap, err := takeSnapshot(resp)
	if err != nil {
		return nil, err
	}
	cache.Put(req, snap)
	return snapshotResponse(req, snap), nil
}

// staleWhileRevalidate serves the cached response immediately and
// refreshes the cache in the background for next time. Background
// failures are swallowed; concurrent revalidations of the same key are
// collapsed.
type staleWhileRevalidate struct {
	logger *zap.Logger
	group  *singleflight.Group
}

func (s *staleWhileRevalidate) Kind() StrategyKind { return StrategyStaleWhileRevalidate }

func (s *staleWhileRevalidate) Execute(ctx context.Context, req *http.Request, cache *bytecache.Cache, next Next) (*http.Response, error) {
	if snap, ok := cache.Match(req); ok {
		s.revalidate(ctx, req, cache, next)
		return snapshotResponse(req, snap), nil
	}

	// No cache: the caller waits on the network result.
	resp, err := next(ctx, req)
	if err != nil {
		return nil, &NetworkError{URL: req.URL.String(), Err: err}
	}
	if !cacheable(resp.StatusCode) {
		return resp, nil
	}
	snap, err := takeSnapshot(resp)
	if err != nil {
		return nil, err
	}
	cache.Put(req, snap)
	return snapshotResponse(req, snap), nil
}

func (s *staleWhileRevalidate) revalidate(ctx context.Context, req *http.Request, cache *bytecache.Cache, next Next) {
	key := bytecache.RequestKey(req)
	// Detach from the caller so serving the cached response does not
	// cancel the refresh.
	bg := context.WithoutCancel(ctx)
	clone := req.Clone(bg)

	go func() {
		_, _, _ = s.group.Do(key, func() (interface{}, error) {
			resp, err := next(bg, clone)
			if err != nil {
				s.logger.Debug("Background revalidation failed",
					zap.String("url", clone.URL.String()),
					zap.Error(err))
				return nil, nil
			}
			if !cacheable(resp.StatusCode) {
				_ = resp.Body.Close()
				return nil, nil
			}
			snap, err := takeSnapshot(resp)
			if err != nil {
				return nil, nil
			}
			cache.PutKey(key, snap)
			return nil, nil
		})
	}()
}

// networkOnly never reads or writes the cache.
type networkOnly struct{}

func (s *networkOnly) Kind() StrategyKind { return StrategyNetworkOnly }

func (s *networkOnly) Execute(ctx context.Context, req *http.Request, cache *bytecache.Cache, next Next) (*http.Response, error) {
	resp, err := next(ctx, req)
	if err != nil {
		return nil, &NetworkError{URL: req.URL.String(), Err: err}
	}
	return resp, nil
}

// cacheOnly serves solely from cache, stale or not; used by the offline
// fallback path.
type cacheOnly struct{}

func (s *cacheOnly) Kind() StrategyKind { return StrategyCacheOnly }

func (s *cacheOnly) Execute(ctx context.Context, req *http.Request, cache *bytecache.Cache, next Next) (*http.Response, error) {
	if snap, ok := cache.Match(req); ok {
		return snapshotResponse(req, snap), nil
	}
	return nil, ErrOfflineFallbackExhausted
}
