package httpserver

import (
	"time"

	"go-lesson-cache/internal/models"
)

// TranslationRequest caches one locale+namespace bundle.
type TranslationRequest struct {
	Locale    string                 `json:"locale"`
	Namespace string                 `json:"namespace"`
	Data      map[string]interface{} `json:"data"`
}

// APIResponseRequest caches one endpoint payload with a caller TTL.
type APIResponseRequest struct {
	Endpoint   string      `json:"endpoint"`
	Data       interface{} `json:"data"`
	TTLSeconds int         `json:"ttl_seconds"`
}

// ClearRequest selects what to clear. Tier is "memory" or "store";
// Collection narrows a store clear to one collection.
type ClearRequest struct {
	Tier       string `json:"tier"`
	Collection string `json:"collection,omitempty"`
}

// StatusResponse acknowledges a write operation.
type StatusResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// LessonResponse wraps a lesson read.
type LessonResponse struct {
	Success bool           `json:"success"`
	Found   bool           `json:"found"`
	Lesson  *models.Lesson `json:"lesson,omitempty"`
}

// MediaResponse wraps a media asset read.
type MediaResponse struct {
	Success bool               `json:"success"`
	Found   bool               `json:"found"`
	Asset   *models.MediaAsset `json:"asset,omitempty"`
}

// ProgressResponse wraps a progress query.
type ProgressResponse struct {
	Success  bool                  `json:"success"`
	Progress []models.UserProgress `json:"progress"`
}

// TranslationResponse wraps a translation read.
type TranslationResponse struct {
	Success bool                   `json:"success"`
	Found   bool                   `json:"found"`
	Data    map[string]interface{} `json:"data,omitempty"`
}

// APIResponseResponse wraps a cached API payload read.
type APIResponseResponse struct {
	Success bool        `json:"success"`
	Found   bool        `json:"found"`
	Data    interface{} `json:"data,omitempty"`
}

// SyncRequest records a completed data sync.
type SyncRequest struct {
	SyncedAt time.Time `json:"synced_at"`
}
