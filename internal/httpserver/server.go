package httpserver

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"go-lesson-cache/internal/resource"
	"go-lesson-cache/internal/service"
)

// Options configures the HTTP server.
type Options struct {
	ListenAddr   string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Server exposes the cache facade and the intercepting gateway over
// HTTP.
type Server struct {
	facade   *service.CacheService
	agent    *resource.Agent
	upstream *url.URL
	logger   *zap.Logger
	server   *http.Server
	opts     Options
}

// NewServer creates the cache HTTP server. upstream is the origin the
// gateway routes fall through to.
func NewServer(facade *service.CacheService, agent *resource.Agent, upstream *url.URL, opts Options, logger *zap.Logger) *Server {
	return &Server{
		facade:   facade,
		agent:    agent,
		upstream: upstream,
		logger:   logger,
		opts:     opts,
	}
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         s.opts.ListenAddr,
		Handler:      s.createRouter(),
		ReadTimeout:  s.opts.ReadTimeout,
		WriteTimeout: s.opts.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	s.logger.Info("Starting cache HTTP server", zap.String("addr", s.opts.ListenAddr))
	return s.server.ListenAndServe()
}

// Stop stops the HTTP server
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Stopping cache HTTP server")
	return s.server.Shutdown(ctx)
}

// createRouter creates and configures the HTTP router
func (s *Server) createRouter() *mux.Router {
	router := mux.NewRouter()

	// Facade endpoints
	router.HandleFunc("/cache/lessons", s.handleCacheLesson).Methods("POST")
	router.HandleFunc("/cache/lessons/{slug}", s.handleGetLesson).Methods("GET")
	router.HandleFunc("/cache/media", s.handleCacheMedia).Methods("POST")
	router.HandleFunc("/cache/media/{id:[0-9]+}", s.handleGetMedia).Methods("GET")
	router.HandleFunc("/cache/progress", s.handleCacheProgress).Methods("POST")
	router.HandleFunc("/cache/progress/{user}", s.handleGetProgress).Methods("GET")
	router.HandleFunc("/cache/translations", s.handleCacheTranslation).Methods("POST")
	router.HandleFunc("/cache/translations/{locale}/{namespace}", s.handleGetTranslation).Methods("GET")
	router.HandleFunc("/cache/api-responses", s.handleCacheAPIResponse).Methods("POST")
	router.HandleFunc("/cache/api-responses", s.handleGetAPIResponse).Methods("GET")

	// Maintenance endpoints
	router.HandleFunc("/cache/stats", s.handleStats).Methods("GET")
	router.HandleFunc("/cache/health", s.handleCacheHealth).Methods("GET")
	router.HandleFunc("/cache/clear", s.handleClear).Methods("POST")
	router.HandleFunc("/cache/preload", s.handlePreload).Methods("POST")
	router.HandleFunc("/cache/sync", s.handleMarkSynced).Methods("POST")

	// Agent endpoints
	router.HandleFunc("/agent/message", s.handleAgentMessage).Methods("POST")
	router.PathPrefix("/gateway/").HandlerFunc(s.handleGateway)

	// Health check
	router.HandleFunc("/health", s.handleHealth).Methods("GET")

	// Prometheus metrics endpoint
	router.Handle("/metrics", promhttp.Handler()).Methods("GET")

	return router
}

// handleHealth handles health check requests
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeResponse(w, map[string]interface{}{
		"status": "healthy",
		"time":   time.Now().UTC(),
	})
}

// parseRequest parses JSON request body
func (s *Server) parseRequest(r *http.Request, v interface{}) error {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return err
	}
	defer r.Body.Close()

	return json.Unmarshal(body, v)
}

// writeResponse writes JSON response
func (s *Server) writeResponse(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("Failed to write response", zap.Error(err))
	}
}

// writeErrorResponse writes error response
func (s *Server) writeErrorResponse(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	response := StatusResponse{Success: false, Error: message}
	if err := json.NewEncoder(w).Encode(response); err != nil {
		s.logger.Error("Failed to write error response", zap.Error(err))
	}
}
