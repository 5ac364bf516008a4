package httpserver

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"go-lesson-cache/internal/models"
)

// handleCacheLesson stores one lesson through the facade.
func (s *Server) handleCacheLesson(w http.ResponseWriter, r *http.Request) {
	var lesson models.Lesson
	if err := s.parseRequest(r, &lesson); err != nil {
		s.writeErrorResponse(w, "Invalid request", http.StatusBadRequest)
		return
	}
	if lesson.Slug == "" {
		s.writeErrorResponse(w, "Missing required field: slug", http.StatusBadRequest)
		return
	}

	if err := s.facade.CacheLesson(r.Context(), lesson); err != nil {
		s.writeErrorResponse(w, fmt.Sprintf("Cache service error: %v", err), http.StatusInternalServerError)
		return
	}
	s.writeResponse(w, StatusResponse{Success: true})
}

// handleGetLesson reads one lesson by slug.
func (s *Server) handleGetLesson(w http.ResponseWriter, r *http.Request) {
	slug := mux.Vars(r)["slug"]

	lesson := s.facade.GetCachedLesson(r.Context(), slug)
	s.writeResponse(w, LessonResponse{Success: true, Found: lesson != nil, Lesson: lesson})
}

// handleCacheMedia stores one media asset.
func (s *Server) handleCacheMedia(w http.ResponseWriter, r *http.Request) {
	var asset models.MediaAsset
	if err := s.parseRequest(r, &asset); err != nil {
		s.writeErrorResponse(w, "Invalid request", http.StatusBadRequest)
		return
	}
	if asset.ID == 0 {
		s.writeErrorResponse(w, "Missing required field: id", http.StatusBadRequest)
		return
	}

	if err := s.facade.CacheMediaAsset(r.Context(), asset); err != nil {
		s.writeErrorResponse(w, fmt.Sprintf("Cache service error: %v", err), http.StatusInternalServerError)
		return
	}
	s.writeResponse(w, StatusResponse{Success: true})
}

// handleGetMedia reads one media asset by integer id.
func (s *Server) handleGetMedia(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		s.writeErrorResponse(w, "Invalid media id", http.StatusBadRequest)
		return
	}

	asset := s.facade.GetCachedMediaAsset(r.Context(), id)
	s.writeResponse(w, MediaResponse{Success: true, Found: asset != nil, Asset: asset})
}

// handleCacheProgress stores one progress row.
func (s *Server) handleCacheProgress(w http.ResponseWriter, r *http.Request) {
	var progress models.UserProgress
	if err := s.parseRequest(r, &progress); err != nil {
		s.writeErrorResponse(w, "Invalid request", http.StatusBadRequest)
		return
	}
	if progress.UserID == "" || progress.LessonID == "" || progress.SectionKind == "" {
		s.writeErrorResponse(w, "Missing required fields: user_id, lesson_id, section_kind", http.StatusBadRequest)
		return
	}

	if err := s.facade.CacheUserProgress(r.Context(), progress); err != nil {
		s.writeErrorResponse(w, fmt.Sprintf("Cache service error: %v", err), http.StatusInternalServerError)
		return
	}
	s.writeResponse(w, StatusResponse{Success: true})
}

// handleGetProgress queries progress for a user, optionally narrowed to
// one lesson via the lesson query parameter.
func (s *Server) handleGetProgress(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["user"]
	lessonID := r.URL.Query().Get("lesson")

	progress := s.facade.GetCachedUserProgress(r.Context(), userID, lessonID)
	s.writeResponse(w, ProgressResponse{Success: true, Progress: progress})
}

// handleCacheTranslation stores one translation bundle.
func (s *Server) handleCacheTranslation(w http.ResponseWriter, r *http.Request) {
	var req TranslationRequest
	if err := s.parseRequest(r, &req); err != nil {
		s.writeErrorResponse(w, "Invalid request", http.StatusBadRequest)
		return
	}
	if req.Locale == "" || req.Namespace == "" {
		s.writeErrorResponse(w, "Missing required fields: locale, namespace", http.StatusBadRequest)
		return
	}

	s.facade.CacheTranslation(req.Locale, req.Namespace, req.Data)
	s.writeResponse(w, StatusResponse{Success: true})
}

// handleGetTranslation reads one translation bundle.
func (s *Server) handleGetTranslation(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	data := s.facade.GetCachedTranslation(vars["locale"], vars["namespace"])
	s.writeResponse(w, TranslationResponse{Success: true, Found: data != nil, Data: data})
}

// handleCacheAPIResponse stores one API payload with a caller TTL.
func (s *Server) handleCacheAPIResponse(w http.ResponseWriter, r *http.Request) {
	var req APIResponseRequest
	if err := s.parseRequest(r, &req); err != nil {
		s.writeErrorResponse(w, "Invalid request", http.StatusBadRequest)
		return
	}
	if req.Endpoint == "" || req.TTLSeconds <= 0 {
		s.writeErrorResponse(w, "Missing required fields: endpoint, ttl_seconds", http.StatusBadRequest)
		return
	}

	s.facade.CacheAPIResponse(req.Endpoint, req.Data, time.Duration(req.TTLSeconds)*time.Second)
	s.writeResponse(w, StatusResponse{Success: true})
}

// handleGetAPIResponse reads one cached API payload.
func (s *Server) handleGetAPIResponse(w http.ResponseWriter, r *http.Request) {
	endpoint := r.URL.Query().Get("endpoint")
	if endpoint == "" {
		s.writeErrorResponse(w, "Missing required query parameter: endpoint", http.StatusBadRequest)
		return
	}

	data := s.facade.GetCachedAPIResponse(endpoint)
	s.writeResponse(w, APIResponseResponse{Success: true, Found: data != nil, Data: data})
}

// handleStats reports aggregate cache statistics.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	s.writeResponse(w, s.facade.Stats(r.Context()))
}

// handleCacheHealth reports the facade's advisory health findings.
func (s *Server) handleCacheHealth(w http.ResponseWriter, r *http.Request) {
	s.writeResponse(w, s.facade.CheckHealth(r.Context()))
}

// handleClear clears the memory tier or the durable store. Store clears
// are never cascaded from memory clears; the tier must be named.
func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	var req ClearRequest
	if err := s.parseRequest(r, &req); err != nil {
		s.writeErrorResponse(w, "Invalid request", http.StatusBadRequest)
		return
	}

	switch req.Tier {
	case "memory":
		s.facade.ClearAll()
	case "store":
		if err := s.facade.ClearStore(r.Context(), req.Collection); err != nil {
			s.writeErrorResponse(w, fmt.Sprintf("Cache service error: %v", err), http.StatusBadRequest)
			return
		}
	default:
		s.writeErrorResponse(w, "Field tier must be \"memory\" or \"store\"", http.StatusBadRequest)
		return
	}
	s.writeResponse(w, StatusResponse{Success: true})
}

// handlePreload warms the memory tier from the durable store.
func (s *Server) handlePreload(w http.ResponseWriter, r *http.Request) {
	if err := s.facade.PreloadEssentialData(r.Context()); err != nil {
		s.writeErrorResponse(w, fmt.Sprintf("Cache service error: %v", err), http.StatusInternalServerError)
		return
	}
	s.writeResponse(w, StatusResponse{Success: true})
}

// handleMarkSynced records a completed data sync timestamp.
func (s *Server) handleMarkSynced(w http.ResponseWriter, r *http.Request) {
	var req SyncRequest
	if err := s.parseRequest(r, &req); err != nil {
		s.writeErrorResponse(w, "Invalid request", http.StatusBadRequest)
		return
	}
	syncedAt := req.SyncedAt
	if syncedAt.IsZero() {
		syncedAt = time.Now()
	}

	if err := s.facade.MarkSynced(r.Context(), syncedAt); err != nil {
		s.writeErrorResponse(w, fmt.Sprintf("Cache service error: %v", err), http.StatusInternalServerError)
		return
	}
	s.writeResponse(w, StatusResponse{Success: true})
}
