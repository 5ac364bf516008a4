package httpserver

import (
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"go-lesson-cache/internal/resource"
)

// handleGateway forwards a request to the upstream origin through the
// intercepting agent, so reads get the agent's caching strategies and
// offline fallback.
func (s *Server) handleGateway(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/gateway")
	if rest == "" {
		rest = "/"
	}

	target := *s.upstream
	target.Path = strings.TrimSuffix(s.upstream.Path, "/") + rest
	target.RawQuery = r.URL.RawQuery

	outbound, err := http.NewRequestWithContext(r.Context(), r.Method, target.String(), r.Body)
	if err != nil {
		s.writeErrorResponse(w, "Invalid gateway request", http.StatusBadRequest)
		return
	}
	copyHeader(outbound.Header, r.Header)

	resp, err := s.agent.Intercept(r.Context(), outbound)
	if err != nil {
		s.logger.Error("Gateway request failed", zap.String("path", rest), zap.Error(err))
		s.writeErrorResponse(w, "Upstream request failed", http.StatusBadGateway)
		return
	}
	defer resp.Body.Close()

	copyHeader(w.Header(), resp.Header)
	w.WriteHeader(resp.StatusCode)
	if _, err := io.Copy(w, resp.Body); err != nil {
		s.logger.Warn("Gateway response copy interrupted", zap.Error(err))
	}
}

// handleAgentMessage dispatches one foreground control message to the
// agent and returns its reply.
func (s *Server) handleAgentMessage(w http.ResponseWriter, r *http.Request) {
	var msg resource.Message
	if err := s.parseRequest(r, &msg); err != nil {
		s.writeErrorResponse(w, "Invalid request", http.StatusBadRequest)
		return
	}
	if msg.Type == "" {
		s.writeErrorResponse(w, "Missing required field: type", http.StatusBadRequest)
		return
	}

	reply := s.agent.HandleMessage(r.Context(), msg)
	s.writeResponse(w, reply)
}

func copyHeader(dst, src http.Header) {
	for key, values := range src {
		for _, value := range values {
			dst.Add(key, value)
		}
	}
}
