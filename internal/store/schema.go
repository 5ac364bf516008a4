package store

import (
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"go-lesson-cache/internal/models"
)

// SchemaVersion is bumped when collections or indexes change. Backends
// store it in the metadata collection at initialization.
const SchemaVersion = 1

// Collection names.
const (
	CollectionLessons  = "lessons"
	CollectionMedia    = "media"
	CollectionProgress = "progress"
	CollectionMetadata = "metadata"
)

// Index names on the progress collection.
const (
	IndexProgressByUser       = "by_user"
	IndexProgressByUserLesson = "by_user_lesson"
)

// Metadata record keys.
const (
	MetaLastSync      = "last_sync"
	MetaSchemaVersion = "schema_version"
)

// KeySep joins the parts of composite keys and index values. Key parts
// (user IDs, lesson slugs, section kinds) must not contain it.
const KeySep = "|"

// CollectionSpec names a collection and its secondary indexes.
type CollectionSpec struct {
	Name    string
	Indexes []string
}

// Collections returns the full schema in creation order.
func Collections() []CollectionSpec {
	return []CollectionSpec{
		{Name: CollectionLessons},
		{Name: CollectionMedia},
		{Name: CollectionProgress, Indexes: []string{IndexProgressByUser, IndexProgressByUserLesson}},
		{Name: CollectionMetadata},
	}
}

// ValidCollection reports whether name is part of the schema.
func ValidCollection(name string) bool {
	for _, spec := range Collections() {
		if spec.Name == name {
			return true
		}
	}
	return false
}

// ValidIndex reports whether the collection declares the index.
func ValidIndex(collection, index string) bool {
	for _, spec := range Collections() {
		if spec.Name != collection {
			continue
		}
		for _, idx := range spec.Indexes {
			if idx == index {
				return true
			}
		}
	}
	return false
}

// ProgressKey builds the progress collection's composite primary key.
func ProgressKey(userID, lessonID, sectionKind string) string {
	return strings.Join([]string{userID, lessonID, sectionKind}, KeySep)
}

// UserLessonIndexValue builds the composite value for the
// by_user_lesson index.
func UserLessonIndexValue(userID, lessonID string) string {
	return userID + KeySep + lessonID
}

// MediaKey formats a media asset's integer ID as a store key.
func MediaKey(id int) string {
	return strconv.Itoa(id)
}

// LessonRecord encodes a lesson for the lessons collection.
func LessonRecord(lesson models.Lesson) (models.Record, error) {
	data, err := json.Marshal(lesson)
	if err != nil {
		return models.Record{}, err
	}
	return models.Record{Key: lesson.Slug, Data: data}, nil
}

// MediaRecord encodes a media asset for the media collection.
func MediaRecord(asset models.MediaAsset) (models.Record, error) {
	data, err := json.Marshal(asset)
	if err != nil {
		return models.Record{}, err
	}
	return models.Record{Key: MediaKey(asset.ID), Data: data}, nil
}

// ProgressRecord encodes a progress row with its index values.
func ProgressRecord(progress models.UserProgress) (models.Record, error) {
	data, err := json.Marshal(progress)
	if err != nil {
		return models.Record{}, err
	}
	return models.Record{
		Key:  ProgressKey(progress.UserID, progress.LessonID, progress.SectionKind),
		Data: data,
		Index: map[string]string{
			IndexProgressByUser:       progress.UserID,
			IndexProgressByUserLesson: UserLessonIndexValue(progress.UserID, progress.LessonID),
		},
	}, nil
}

// MetadataRecord encodes one metadata entry.
func MetadataRecord(key string, value interface{}) (models.Record, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return models.Record{}, err
	}
	return models.Record{Key: key, Data: data}, nil
}

// DecodeRecord unmarshals a record's payload into v.
func DecodeRecord(rec *models.Record, v interface{}) error {
	return json.Unmarshal(rec.Data, v)
}

// LastSyncRecord encodes the last-sync timestamp metadata entry.
func LastSyncRecord(t time.Time) (models.Record, error) {
	return MetadataRecord(MetaLastSync, t.UTC().Format(time.RFC3339Nano))
}

// DecodeLastSync parses a last-sync metadata record.
func DecodeLastSync(rec *models.Record) (time.Time, error) {
	var raw string
	if err := json.Unmarshal(rec.Data, &raw); err != nil {
		return time.Time{}, err
	}
	return time.Parse(time.RFC3339Nano, raw)
}
