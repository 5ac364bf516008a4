package httpserver

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"go-lesson-cache/internal/bytecache"
	"go-lesson-cache/internal/memcache"
	"go-lesson-cache/internal/models"
	"go-lesson-cache/internal/resource"
	"go-lesson-cache/internal/service"
	"go-lesson-cache/internal/store/memstore"
)

type fetchFunc func(req *http.Request) (*http.Response, error)

func (f fetchFunc) Do(req *http.Request) (*http.Response, error) { return f(req) }

func upstreamResponse(body string) *http.Response {
	return &http.Response{
		StatusCode: http.StatusOK,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

func newTestRouter(t *testing.T, fetch fetchFunc) *mux.Router {
	t.Helper()
	logger := zaptest.NewLogger(t)

	memory := memcache.New(memcache.Options{MaxEntries: 100, SweepInterval: time.Hour}, logger)
	t.Cleanup(memory.Close)
	recordStore := memstore.New()
	require.NoError(t, recordStore.Initialize(context.Background()))
	facade := service.New(memory, recordStore, service.Options{}, logger)

	storage := bytecache.NewStorage(logger)
	agent := resource.New(resource.Options{Version: "v1"}, fetch, storage, logger)
	agent.Activate(context.Background())

	upstream, err := url.Parse("http://upstream.local")
	require.NoError(t, err)

	server := NewServer(facade, agent, upstream, Options{ListenAddr: ":0"}, logger)
	return server.createRouter()
}

func doJSON(t *testing.T, router *mux.Router, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v))
}

func TestLessonEndpoints(t *testing.T) {
	router := newTestRouter(t, func(req *http.Request) (*http.Response, error) {
		return upstreamResponse("{}"), nil
	})

	lesson := models.Lesson{Slug: "greetings", Title: "Greetings", Level: "beginner"}
	rec := doJSON(t, router, "POST", "/cache/lessons", lesson)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, "GET", "/cache/lessons/greetings", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var got LessonResponse
	decode(t, rec, &got)
	assert.True(t, got.Found)
	require.NotNil(t, got.Lesson)
	assert.Equal(t, "Greetings", got.Lesson.Title)

	rec = doJSON(t, router, "GET", "/cache/lessons/absent", nil)
	decode(t, rec, &got)
	assert.False(t, got.Found)
}

func TestLessonEndpoint_RejectsMissingSlug(t *testing.T) {
	router := newTestRouter(t, func(req *http.Request) (*http.Response, error) {
		return upstreamResponse("{}"), nil
	})

	rec := doJSON(t, router, "POST", "/cache/lessons", models.Lesson{Title: "No slug"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMediaEndpoints(t *testing.T) {
	router := newTestRouter(t, func(req *http.Request) (*http.Response, error) {
		return upstreamResponse("{}"), nil
	})

	asset := models.MediaAsset{ID: 7, Kind: "audio", URL: "/audio/greeting.mp3", MimeType: "audio/mpeg"}
	rec := doJSON(t, router, "POST", "/cache/media", asset)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, "GET", "/cache/media/7", nil)
	var got MediaResponse
	decode(t, rec, &got)
	assert.True(t, got.Found)
	require.NotNil(t, got.Asset)
	assert.Equal(t, "/audio/greeting.mp3", got.Asset.URL)
}

func TestProgressEndpoints(t *testing.T) {
	router := newTestRouter(t, func(req *http.Request) (*http.Response, error) {
		return upstreamResponse("{}"), nil
	})

	for _, p := range []models.UserProgress{
		{UserID: "u1", LessonID: "greetings", SectionKind: "vocabulary", Score: 80},
		{UserID: "u1", LessonID: "numbers", SectionKind: "vocabulary", Score: 70},
	} {
		rec := doJSON(t, router, "POST", "/cache/progress", p)
		require.Equal(t, http.StatusOK, rec.Code)
	}

	rec := doJSON(t, router, "GET", "/cache/progress/u1", nil)
	var got ProgressResponse
	decode(t, rec, &got)
	assert.Len(t, got.Progress, 2)

	rec = doJSON(t, router, "GET", "/cache/progress/u1?lesson=numbers", nil)
	decode(t, rec, &got)
	require.Len(t, got.Progress, 1)
	assert.Equal(t, "numbers", got.Progress[0].LessonID)
}

func TestTranslationEndpoints(t *testing.T) {
	router := newTestRouter(t, func(req *http.Request) (*http.Response, error) {
		return upstreamResponse("{}"), nil
	})

	rec := doJSON(t, router, "POST", "/cache/translations", TranslationRequest{
		Locale:    "ty",
		Namespace: "common",
		Data:      map[string]interface{}{"hello": "ia ora na"},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, "GET", "/cache/translations/ty/common", nil)
	var got TranslationResponse
	decode(t, rec, &got)
	assert.True(t, got.Found)
	assert.Equal(t, "ia ora na", got.Data["hello"])
}

func TestClearEndpoint(t *testing.T) {
	router := newTestRouter(t, func(req *http.Request) (*http.Response, error) {
		return upstreamResponse("{}"), nil
	})

	rec := doJSON(t, router, "POST", "/cache/lessons", models.Lesson{Slug: "greetings"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, "POST", "/cache/clear", ClearRequest{Tier: "store", Collection: "lessons"})
	require.Equal(t, http.StatusOK, rec.Code)
	rec = doJSON(t, router, "POST", "/cache/clear", ClearRequest{Tier: "memory"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, "GET", "/cache/lessons/greetings", nil)
	var got LessonResponse
	decode(t, rec, &got)
	assert.False(t, got.Found)

	rec = doJSON(t, router, "POST", "/cache/clear", ClearRequest{Tier: "everything"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStatsAndHealthEndpoints(t *testing.T) {
	router := newTestRouter(t, func(req *http.Request) (*http.Response, error) {
		return upstreamResponse("{}"), nil
	})

	rec := doJSON(t, router, "GET", "/cache/stats", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var stats models.CacheStatistics
	decode(t, rec, &stats)
	assert.NotNil(t, stats.Store.Counts)

	rec = doJSON(t, router, "GET", "/cache/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var report models.HealthReport
	decode(t, rec, &report)
	assert.True(t, report.Healthy)
}

func TestAgentMessageEndpoint(t *testing.T) {
	router := newTestRouter(t, func(req *http.Request) (*http.Response, error) {
		return upstreamResponse("{}"), nil
	})

	rec := doJSON(t, router, "POST", "/agent/message", resource.Message{Type: resource.MessageGetVersion})
	require.Equal(t, http.StatusOK, rec.Code)
	var reply resource.Reply
	decode(t, rec, &reply)
	assert.True(t, reply.OK)
	assert.Equal(t, "v1", reply.Version)
}

func TestGatewayProxiesThroughAgent(t *testing.T) {
	var seen string
	router := newTestRouter(t, func(req *http.Request) (*http.Response, error) {
		seen = req.URL.String()
		return upstreamResponse(`{"lessons":[]}`), nil
	})

	rec := doJSON(t, router, "GET", "/gateway/api/lessons?level=beginner", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "http://upstream.local/api/lessons?level=beginner", seen)
	assert.JSONEq(t, `{"lessons":[]}`, rec.Body.String())
}

func TestGatewayOfflineFallback(t *testing.T) {
	router := newTestRouter(t, func(req *http.Request) (*http.Response, error) {
		return nil, &resource.NetworkError{URL: req.URL.String(), Err: context.DeadlineExceeded}
	})

	rec := doJSON(t, router, "GET", "/gateway/api/collaboration/live", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var payload map[string]string
	decode(t, rec, &payload)
	assert.Equal(t, "Offline", payload["error"])
}
