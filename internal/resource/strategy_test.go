package resource

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"go-lesson-cache/internal/bytecache"
)

func okResponse(body string) *http.Response {
	header := http.Header{}
	header.Set("Content-Type", "application/json")
	header.Set("Date", time.Now().UTC().Format(http.TimeFormat))
	return &http.Response{
		StatusCode: http.StatusOK,
		Header:     header,
		Body:       io.NopCloser(bytes.NewReader([]byte(body))),
	}
}

// countingNext returns a Next serving canned responses and counts calls.
func countingNext(calls *atomic.Int32, fn func(req *http.Request) (*http.Response, error)) Next {
	return func(ctx context.Context, req *http.Request) (*http.Response, error) {
		calls.Add(1)
		return fn(req)
	}
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	return string(body)
}

func newTestCache() *bytecache.Cache {
	return bytecache.NewCache("test-v1", 10, time.Hour, zap.NewNop())
}

func TestCacheFirst_StoresOnMissThenServesCached(t *testing.T) {
	cache := newTestCache()
	strat := &cacheFirst{logger: zap.NewNop()}
	req := httptest.NewRequest("GET", "http://app.local/icons/logo.png", nil)

	var calls atomic.Int32
	next := countingNext(&calls, func(*http.Request) (*http.Response, error) {
		return okResponse("png-bytes"), nil
	})

	resp, err := strat.Execute(context.Background(), req, cache, next)
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", readBody(t, resp))
	assert.Equal(t, int32(1), calls.Load())

	// Second identical request: cached bytes, no second network call.
	resp, err = strat.Execute(context.Background(), req, cache, next)
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", readBody(t, resp))
	assert.Equal(t, int32(1), calls.Load())
}

func TestCacheFirst_RefetchesWhenStale(t *testing.T) {
	cache := bytecache.NewCache("test-v1", 10, time.Nanosecond, zap.NewNop())
	strat := &cacheFirst{logger: zap.NewNop()}
	req := httptest.NewRequest("GET", "http://app.local/icons/logo.png", nil)

	stale := &bytecache.Snapshot{
		Status:   http.StatusOK,
		Header:   http.Header{},
		Body:     []byte("stale"),
		StoredAt: time.Now().Add(-time.Minute),
	}
	cache.Put(req, stale)

	var calls atomic.Int32
	next := countingNext(&calls, func(*http.Request) (*http.Response, error) {
		return okResponse("fresh"), nil
	})

	resp, err := strat.Execute(context.Background(), req, cache, next)
	require.NoError(t, err)
	assert.Equal(t, "fresh", readBody(t, resp))
	assert.Equal(t, int32(1), calls.Load())
}

func TestCacheFirst_ServesStaleOnFetchFailure(t *testing.T) {
	cache := bytecache.NewCache("test-v1", 10, time.Nanosecond, zap.NewNop())
	strat := &cacheFirst{logger: zap.NewNop()}
	req := httptest.NewRequest("GET", "http://app.local/icons/logo.png", nil)

	cache.Put(req, &bytecache.Snapshot{
		Status:   http.StatusOK,
		Header:   http.Header{},
		Body:     []byte("stale-but-usable"),
		StoredAt: time.Now().Add(-time.Minute),
	})

	next := func(ctx context.Context, req *http.Request) (*http.Response, error) {
		return nil, errors.New("connection refused")
	}

	resp, err := strat.Execute(context.Background(), req, cache, next)
	require.NoError(t, err)
	assert.Equal(t, "stale-but-usable", readBody(t, resp))
}

func TestCacheFirst_PropagatesErrorWithoutCache(t *testing.T) {
	strat := &cacheFirst{logger: zap.NewNop()}
	req := httptest.NewRequest("GET", "http://app.local/icons/logo.png", nil)

	next := func(ctx context.Context, req *http.Request) (*http.Response, error) {
		return nil, errors.New("connection refused")
	}

	_, err := strat.Execute(context.Background(), req, newTestCache(), next)
	var netErr *NetworkError
	require.ErrorAs(t, err, &netErr)
	assert.Equal(t, "http://app.local/icons/logo.png", netErr.URL)
}

func TestNetworkFirst_StoresSuccessfulResponse(t *testing.T) {
	cache := newTestCache()
	strat := &networkFirst{logger: zap.NewNop()}
	req := httptest.NewRequest("GET", "http://app.local/api/admin/users", nil)

	var calls atomic.Int32
	next := countingNext(&calls, func(*http.Request) (*http.Response, error) {
		return okResponse(`["user-1"]`), nil
	})

	resp, err := strat.Execute(context.Background(), req, cache, next)
	require.NoError(t, err)
	assert.Equal(t, `["user-1"]`, readBody(t, resp))

	// The network is always consulted, even with a cached copy.
	resp, err = strat.Execute(context.Background(), req, cache, next)
	require.NoError(t, err)
	assert.Equal(t, `["user-1"]`, readBody(t, resp))
	assert.Equal(t, int32(2), calls.Load())
}

func TestNetworkFirst_FallsBackToCacheOnFailure(t *testing.T) {
	cache := newTestCache()
	strat := &networkFirst{logger: zap.NewNop()}
	req := httptest.NewRequest("GET", "http://app.local/api/admin/users", nil)

	healthy := true
	next := func(ctx context.Context, req *http.Request) (*http.Response, error) {
		if !healthy {
			return nil, errors.New("network down")
		}
		return okResponse(`["user-1"]`), nil
	}

	resp, err := strat.Execute(context.Background(), req, cache, next)
	require.NoError(t, err)
	readBody(t, resp)

	// Network now fails; the previously stored response is returned
	// instead of propagating the error.
	healthy = false
	resp, err = strat.Execute(context.Background(), req, cache, next)
	require.NoError(t, err)
	assert.Equal(t, `["user-1"]`, readBody(t, resp))
}

func TestNetworkFirst_PropagatesErrorWithoutCache(t *testing.T) {
	strat := &networkFirst{logger: zap.NewNop()}
	req := httptest.NewRequest("GET", "http://app.local/api/admin/users", nil)

	next := func(ctx context.Context, req *http.Request) (*http.Response, error) {
		return nil, errors.New("network down")
	}

	_, err := strat.Execute(context.Background(), req, newTestCache(), next)
	var netErr *NetworkError
	assert.ErrorAs(t, err, &netErr)
}

func TestNetworkFirst_DoesNotStoreErrorStatus(t *testing.T) {
	cache := newTestCache()
	strat := &networkFirst{logger: zap.NewNop()}
	req := httptest.NewRequest("GET", "http://app.local/api/lessons", nil)

	next := func(ctx context.Context, req *http.Request) (*http.Response, error) {
		resp := okResponse(`upstream broke`)
		resp.StatusCode = http.StatusBadGateway
		return resp, nil
	}

	resp, err := strat.Execute(context.Background(), req, cache, next)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	readBody(t, resp)
	assert.Equal(t, 0, cache.Len())
}

func TestStaleWhileRevalidate_ServesCachedThenUpdates(t *testing.T) {
	cache := newTestCache()
	strat := &staleWhileRevalidate{logger: zap.NewNop(), group: &singleflight.Group{}}
	req := httptest.NewRequest("GET", "http://app.local/api/content/42", nil)

	var calls atomic.Int32
	version := atomic.Int32{}
	next := countingNext(&calls, func(*http.Request) (*http.Response, error) {
		if version.Load() == 0 {
			return okResponse(`{"rev":1}`), nil
		}
		return okResponse(`{"rev":2}`), nil
	})

	// First call: miss, waits on network.
	resp, err := strat.Execute(context.Background(), req, cache, next)
	require.NoError(t, err)
	assert.Equal(t, `{"rev":1}`, readBody(t, resp))
	require.Equal(t, int32(1), calls.Load())

	// Second call: cached value returned immediately while the
	// background fetch refreshes the entry.
	version.Store(1)
	resp, err = strat.Execute(context.Background(), req, cache, next)
	require.NoError(t, err)
	assert.Equal(t, `{"rev":1}`, readBody(t, resp))

	assert.Eventually(t, func() bool {
		return calls.Load() == 2
	}, time.Second, 5*time.Millisecond)

	assert.Eventually(t, func() bool {
		snap, ok := cache.Match(req)
		return ok && string(snap.Body) == `{"rev":2}`
	}, time.Second, 5*time.Millisecond)

	// Third call observes the refreshed value.
	resp, err = strat.Execute(context.Background(), req, cache, next)
	require.NoError(t, err)
	assert.Equal(t, `{"rev":2}`, readBody(t, resp))
}

func TestStaleWhileRevalidate_SwallowsBackgroundFailure(t *testing.T) {
	cache := newTestCache()
	strat := &staleWhileRevalidate{logger: zap.NewNop(), group: &singleflight.Group{}}
	req := httptest.NewRequest("GET", "http://app.local/api/content/42", nil)

	var calls atomic.Int32
	healthy := atomic.Bool{}
	healthy.Store(true)
	next := countingNext(&calls, func(*http.Request) (*http.Response, error) {
		if !healthy.Load() {
			return nil, errors.New("network down")
		}
		return okResponse(`{"rev":1}`), nil
	})

	resp, err := strat.Execute(context.Background(), req, cache, next)
	require.NoError(t, err)
	readBody(t, resp)

	healthy.Store(false)
	resp, err = strat.Execute(context.Background(), req, cache, next)
	require.NoError(t, err)
	assert.Equal(t, `{"rev":1}`, readBody(t, resp))

	assert.Eventually(t, func() bool {
		return calls.Load() == 2
	}, time.Second, 5*time.Millisecond)

	// The cached entry survived the failed refresh.
	snap, ok := cache.Match(req)
	require.True(t, ok)
	assert.Equal(t, `{"rev":1}`, string(snap.Body))
}

func TestNetworkOnly_NeverTouchesCache(t *testing.T) {
	cache := newTestCache()
	strat := &networkOnly{}
	req := httptest.NewRequest("GET", "http://app.local/api/collaboration/sessions", nil)

	next := func(ctx context.Context, req *http.Request) (*http.Response, error) {
		return okResponse("live"), nil
	}

	resp, err := strat.Execute(context.Background(), req, cache, next)
	require.NoError(t, err)
	assert.Equal(t, "live", readBody(t, resp))
	assert.Equal(t, 0, cache.Len())

	failing := func(ctx context.Context, req *http.Request) (*http.Response, error) {
		return nil, errors.New("network down")
	}
	_, err = strat.Execute(context.Background(), req, cache, failing)
	var netErr *NetworkError
	assert.ErrorAs(t, err, &netErr)
}

func TestCacheOnly_ServesCacheOrExhausts(t *testing.T) {
	cache := newTestCache()
	strat := &cacheOnly{}
	req := httptest.NewRequest("GET", "http://app.local/offline", nil)

	_, err := strat.Execute(context.Background(), req, cache, nil)
	assert.ErrorIs(t, err, ErrOfflineFallbackExhausted)

	cache.Put(req, &bytecache.Snapshot{Status: http.StatusOK, Header: http.Header{}, Body: []byte("offline page")})
	resp, err := strat.Execute(context.Background(), req, cache, nil)
	require.NoError(t, err)
	assert.Equal(t, "offline page", readBody(t, resp))
}
