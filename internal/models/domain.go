package models

// Lesson is a unit of course content, keyed by its URL slug.
type Lesson struct {
	Slug        string   `json:"slug"`
	Title       string   `json:"title"`
	TitleTahiti string   `json:"title_ty,omitempty"`
	Level       string   `json:"level,omitempty"`
	Sections    []string `json:"sections,omitempty"`
	Body        string   `json:"body,omitempty"`
	UpdatedAt   int64    `json:"updated_at,omitempty"`
}

// MediaAsset is an audio/image attachment, keyed by integer ID.
type MediaAsset struct {
	ID       int    `json:"id"`
	Kind     string `json:"kind"` // "audio" or "image"
	URL      string `json:"url"`
	MimeType string `json:"mime_type,omitempty"`
	SizeByte int64  `json:"size_bytes,omitempty"`
}

// UserProgress is one user's completion state for a lesson section.
type UserProgress struct {
	UserID      string  `json:"user_id"`
	LessonID    string  `json:"lesson_id"`
	SectionKind string  `json:"section_kind"`
	Score       float64 `json:"score,omitempty"`
	Completed   bool    `json:"completed"`
	UpdatedAt   int64   `json:"updated_at,omitempty"`
}
