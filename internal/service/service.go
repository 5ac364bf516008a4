package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"go-lesson-cache/internal/interfaces"
	"go-lesson-cache/internal/metrics"
	"go-lesson-cache/internal/models"
	"go-lesson-cache/internal/store"
)

// Memory-tier key prefixes per domain type.
const (
	lessonKeyPrefix      = "lesson:"
	mediaKeyPrefix       = "media:"
	translationKeyPrefix = "translation:"
	apiKeyPrefix         = "api:"
)

// Defaults applied by New when the corresponding option is zero.
const (
	DefaultLessonTTL          = 30 * time.Minute
	DefaultMediaTTL           = time.Hour
	DefaultTranslationWindow  = 5 * time.Minute
	DefaultPreloadCount       = 10
	DefaultMemoryThreshold    = 800
	DefaultStorageBudgetBytes = int64(500 << 20)
	DefaultCleanupMaxAge      = 4 * time.Hour
)

// diskSizer is implemented by store backends that can report their
// on-disk footprint. Stats probes for it and tolerates its absence.
type diskSizer interface {
	DiskUsage() (int64, error)
}

// Options tunes the facade's TTL policy and health thresholds.
type Options struct {
	// LessonTTL and MediaTTL bound the memory-tier mirror of
	// durable records.
	LessonTTL time.Duration
	MediaTTL  time.Duration

	// TranslationWindow is the read-time freshness window for
	// translation bundles, independent of the memory tier's own TTL.
	TranslationWindow time.Duration

	// PreloadCount caps how many lessons PreloadEssentialData promotes.
	PreloadCount int

	// MemoryThreshold is the entry count above which CheckHealth
	// reports the memory tier as oversized.
	MemoryThreshold int

	// StorageBudgetBytes is the durable-store budget; CheckHealth
	// warns above 80% of it.
	StorageBudgetBytes int64

	// CleanupMaxAge is how stale the last memory sweep may be before
	// CheckHealth flags it.
	CleanupMaxAge time.Duration
}

func (o Options) withDefaults() Options {
	if o.LessonTTL == 0 {
		o.LessonTTL = DefaultLessonTTL
	}
	if o.MediaTTL == 0 {
		o.MediaTTL = DefaultMediaTTL
	}
	if o.TranslationWindow == 0 {
		o.TranslationWindow = DefaultTranslationWindow
	}
	if o.PreloadCount == 0 {
		o.PreloadCount = DefaultPreloadCount
	}
	if o.MemoryThreshold == 0 {
		o.MemoryThreshold = DefaultMemoryThreshold
	}
	if o.StorageBudgetBytes == 0 {
		o.StorageBudgetBytes = DefaultStorageBudgetBytes
	}
	if o.CleanupMaxAge == 0 {
		o.CleanupMaxAge = DefaultCleanupMaxAge
	}
	return o
}

// translationEntry wraps a translation bundle with its own write
// timestamp. The freshness window is checked against CachedAt at read
// time, not against the memory tier's TTL.
type translationEntry struct {
	Data     map[string]interface{}
	CachedAt time.Time
}

// apiEntry wraps a cached API payload the same way.
type apiEntry struct {
	Data     interface{}
	CachedAt time.Time
}

// CacheService is the single sanctioned access path to the cache
// tiers. Reads degrade to nil/empty on tier failure; writes surface
// wrapped errors.
type CacheService struct {
	memory interfaces.MemoryCache
	store  interfaces.RecordStore
	opts   Options
	logger *zap.Logger

	now func() time.Time
}

// New builds the facade over an initialized store and memory cache.
func New(memory interfaces.MemoryCache, recordStore interfaces.RecordStore, opts Options, logger *zap.Logger) *CacheService {
	return &CacheService{
		memory: memory,
		store:  recordStore,
		opts:   opts.withDefaults(),
		logger: logger,
		now:    time.Now,
	}
}

// CacheLesson writes the lesson through to the durable store and
// mirrors it into the memory tier.
func (s *CacheService) CacheLesson(ctx context.Context, lesson models.Lesson) error {
	rec, err := store.LessonRecord(lesson)
	if err != nil {
		return fmt.Errorf("encode lesson %q: %w", lesson.Slug, err)
	}
	if err := s.store.UpsertMany(ctx, store.CollectionLessons, []models.Record{rec}); err != nil {
		return fmt.Errorf("cache lesson %q: %w", lesson.Slug, err)
	}
	s.memory.Set(lessonKeyPrefix+lesson.Slug, lesson, s.opts.LessonTTL)
	return nil
}

// GetCachedLesson returns the lesson or nil. Memory tier first; a
// durable-store hit is promoted into memory before returning.
func (s *CacheService) GetCachedLesson(ctx context.Context, slug string) *models.Lesson {
	if v, ok := s.memory.Get(lessonKeyPrefix + slug); ok {
		if lesson, ok := v.(models.Lesson); ok {
			return &lesson
		}
	}

	rec, err := s.store.GetByKey(ctx, store.CollectionLessons, slug)
	if err != nil {
		if !errors.Is(err, store.ErrRecordNotFound) {
			s.logger.Warn("Lesson read failed", zap.String("slug", slug), zap.Error(err))
		}
		metrics.RecordTierMiss("store")
		return nil
	}
	metrics.RecordTierHit("store")

	var lesson models.Lesson
	if err := store.DecodeRecord(rec, &lesson); err != nil {
		s.logger.Warn("Lesson record corrupt", zap.String("slug", slug), zap.Error(err))
		return nil
	}
	s.memory.Set(lessonKeyPrefix+slug, lesson, s.opts.LessonTTL)
	return &lesson
}

// CacheMediaAsset writes the asset through to the durable store and
// mirrors it into the memory tier.
func (s *CacheService) CacheMediaAsset(ctx context.Context, asset models.MediaAsset) error {
	rec, err := store.MediaRecord(asset)
	if err != nil {
		return fmt.Errorf("encode media asset %d: %w", asset.ID, err)
	}
	if err := s.store.UpsertMany(ctx, store.CollectionMedia, []models.Record{rec}); err != nil {
		return fmt.Errorf("cache media asset %d: %w", asset.ID, err)
	}
	s.memory.Set(mediaKeyPrefix+store.MediaKey(asset.ID), asset, s.opts.MediaTTL)
	return nil
}

// GetCachedMediaAsset returns the asset or nil, promoting durable-store
// hits into memory.
func (s *CacheService) GetCachedMediaAsset(ctx context.Context, id int) *models.MediaAsset {
	key := mediaKeyPrefix + store.MediaKey(id)
	if v, ok := s.memory.Get(key); ok {
		if asset, ok := v.(models.MediaAsset); ok {
			return &asset
		}
	}

	rec, err := s.store.GetByKey(ctx, store.CollectionMedia, store.MediaKey(id))
	if err != nil {
		if !errors.Is(err, store.ErrRecordNotFound) {
			s.logger.Warn("Media read failed", zap.Int("id", id), zap.Error(err))
		}
		metrics.RecordTierMiss("store")
		return nil
	}
	metrics.RecordTierHit("store")

	var asset models.MediaAsset
	if err := store.DecodeRecord(rec, &asset); err != nil {
		s.logger.Warn("Media record corrupt", zap.Int("id", id), zap.Error(err))
		return nil
	}
	s.memory.Set(key, asset, s.opts.MediaTTL)
	return &asset
}

// CacheUserProgress writes progress rows to the durable store only.
// Progress reads are index queries, so the memory tier is never the
// source of truth for this type.
func (s *CacheService) CacheUserProgress(ctx context.Context, progress models.UserProgress) error {
	rec, err := store.ProgressRecord(progress)
	if err != nil {
		return fmt.Errorf("encode progress for user %q: %w", progress.UserID, err)
	}
	if err := s.store.UpsertMany(ctx, store.CollectionProgress, []models.Record{rec}); err != nil {
		return fmt.Errorf("cache progress for user %q: %w", progress.UserID, err)
	}
	return nil
}

// GetCachedUserProgress returns all progress rows for the user, or for
// one user+lesson pair when lessonID is non-empty. Tier failures
// degrade to an empty slice.
func (s *CacheService) GetCachedUserProgress(ctx context.Context, userID, lessonID string) []models.UserProgress {
	index, value := store.IndexProgressByUser, userID
	if lessonID != "" {
		index, value = store.IndexProgressByUserLesson, store.UserLessonIndexValue(userID, lessonID)
	}

	recs, err := s.store.QueryByIndex(ctx, store.CollectionProgress, index, value)
	if err != nil {
		s.logger.Warn("Progress query failed",
			zap.String("user_id", userID), zap.String("lesson_id", lessonID), zap.Error(err))
		metrics.RecordTierMiss("store")
		return []models.UserProgress{}
	}
	metrics.RecordTierHit("store")

	out := make([]models.UserProgress, 0, len(recs))
	for i := range recs {
		var p models.UserProgress
		if err := store.DecodeRecord(&recs[i], &p); err != nil {
			s.logger.Warn("Progress record corrupt", zap.String("key", recs[i].Key), zap.Error(err))
			continue
		}
		out = append(out, p)
	}
	return out
}

// CacheTranslation stores a translation bundle in the memory tier
// only, stamped with its write time.
func (s *CacheService) CacheTranslation(locale, namespace string, data map[string]interface{}) {
	s.memory.Set(translationKey(locale, namespace), translationEntry{
		Data:     data,
		CachedAt: s.now(),
	}, 2*s.opts.TranslationWindow)
}

// GetCachedTranslation returns the bundle while it is inside the
// freshness window. An expired bundle is deleted on access and nil is
// returned.
func (s *CacheService) GetCachedTranslation(locale, namespace string) map[string]interface{} {
	key := translationKey(locale, namespace)
	v, ok := s.memory.Get(key)
	if !ok {
		return nil
	}
	entry, ok := v.(translationEntry)
	if !ok {
		s.memory.Delete(key)
		return nil
	}
	if s.now().Sub(entry.CachedAt) > s.opts.TranslationWindow {
		s.memory.Delete(key)
		return nil
	}
	return entry.Data
}

// CacheAPIResponse stores an API payload in the memory tier only, with
// the caller's TTL.
func (s *CacheService) CacheAPIResponse(endpoint string, data interface{}, ttl time.Duration) {
	s.memory.Set(apiKeyPrefix+endpoint, apiEntry{Data: data, CachedAt: s.now()}, ttl)
}

// GetCachedAPIResponse returns the cached payload or nil.
func (s *CacheService) GetCachedAPIResponse(endpoint string) interface{} {
	v, ok := s.memory.Get(apiKeyPrefix + endpoint)
	if !ok {
		return nil
	}
	entry, ok := v.(apiEntry)
	if !ok {
		return nil
	}
	return entry.Data
}

// PreloadEssentialData promotes the first PreloadCount lessons from
// the durable store into the memory tier. A simple warming pass, not
// usage-informed.
func (s *CacheService) PreloadEssentialData(ctx context.Context) error {
	recs, err := s.store.GetAll(ctx, store.CollectionLessons)
	if err != nil {
		return fmt.Errorf("preload lessons: %w", err)
	}
	promoted := 0
	for i := range recs {
		if promoted >= s.opts.PreloadCount {
			break
		}
		var lesson models.Lesson
		if err := store.DecodeRecord(&recs[i], &lesson); err != nil {
			s.logger.Warn("Skipping corrupt lesson during preload",
				zap.String("key", recs[i].Key), zap.Error(err))
			continue
		}
		s.memory.Set(lessonKeyPrefix+lesson.Slug, lesson, s.opts.LessonTTL)
		promoted++
	}
	s.logger.Info("Preloaded essential data", zap.Int("lessons", promoted))
	return nil
}

// Stats aggregates both tiers into one report. Per-tier failures are
// logged and leave the corresponding section zeroed.
func (s *CacheService) Stats(ctx context.Context) models.CacheStatistics {
	memStats := s.memory.Stats()

	storeStats := models.StoreStats{Counts: make(map[string]int)}
	for _, spec := range store.Collections() {
		n, err := s.store.Count(ctx, spec.Name)
		if err != nil {
			s.logger.Warn("Count failed", zap.String("collection", spec.Name), zap.Error(err))
			continue
		}
		storeStats.Counts[spec.Name] = n
		storeStats.TotalItems += n
	}
	if rec, err := s.store.GetByKey(ctx, store.CollectionMetadata, store.MetaLastSync); err == nil {
		if t, err := store.DecodeLastSync(rec); err == nil {
			storeStats.LastSync = t
		}
	}

	stats := models.CacheStatistics{
		TotalItems:       memStats.Entries + storeStats.TotalItems,
		MemoryUsageBytes: memStats.MemoryUsageBytes,
		HitRate:          memStats.HitRate,
		LastCleanup:      memStats.LastCleanup,
		Memory:           memStats,
		Store:            storeStats,
	}
	if sizer, ok := s.store.(diskSizer); ok {
		if size, err := sizer.DiskUsage(); err == nil {
			stats.DiskUsageBytes = size
		}
	}
	return stats
}

// MarkSynced records the last successful data sync timestamp in the
// metadata collection.
func (s *CacheService) MarkSynced(ctx context.Context, t time.Time) error {
	rec, err := store.LastSyncRecord(t)
	if err != nil {
		return fmt.Errorf("encode last-sync: %w", err)
	}
	if err := s.store.UpsertMany(ctx, store.CollectionMetadata, []models.Record{rec}); err != nil {
		return fmt.Errorf("record last-sync: %w", err)
	}
	return nil
}

// CheckHealth derives advisory findings. Issues never fail the check
// hard; the report is guidance, not a gate.
func (s *CacheService) CheckHealth(ctx context.Context) models.HealthReport {
	var issues []models.HealthIssue

	memStats := s.memory.Stats()
	if memStats.Entries > s.opts.MemoryThreshold {
		issues = append(issues, models.HealthIssue{
			Issue:      fmt.Sprintf("memory cache holds %d entries (threshold %d)", memStats.Entries, s.opts.MemoryThreshold),
			Suggestion: "run ForceCleanup or lower per-type TTLs",
		})
	}

	if sizer, ok := s.store.(diskSizer); ok {
		if size, err := sizer.DiskUsage(); err == nil && size > s.opts.StorageBudgetBytes*8/10 {
			issues = append(issues, models.HealthIssue{
				Issue:      fmt.Sprintf("durable store uses %d of %d budgeted bytes", size, s.opts.StorageBudgetBytes),
				Suggestion: "clear unused collections or raise the storage budget",
			})
		}
	}

	if last := s.memory.LastCleanup(); !last.IsZero() && s.now().Sub(last) > s.opts.CleanupMaxAge {
		issues = append(issues, models.HealthIssue{
			Issue:      fmt.Sprintf("memory sweep has not run since %s", last.Format(time.RFC3339)),
			Suggestion: "check that the cleanup scheduler is running",
		})
	}

	return models.HealthReport{Healthy: len(issues) == 0, Issues: issues}
}

// ClearAll empties the memory tier. The durable store is untouched;
// clearing it is the separate, explicit ClearStore call.
func (s *CacheService) ClearAll() {
	s.memory.Clear()
}

// ForceCleanup triggers an immediate memory-tier sweep.
func (s *CacheService) ForceCleanup() {
	s.memory.ForceCleanup()
}

// ClearStore drops one durable collection, or all of them when
// collection is empty.
func (s *CacheService) ClearStore(ctx context.Context, collection string) error {
	if collection != "" && !store.ValidCollection(collection) {
		return fmt.Errorf("clear store: %w: %s", store.ErrUnknownCollection, collection)
	}
	if err := s.store.Clear(ctx, collection); err != nil {
		return fmt.Errorf("clear store: %w", err)
	}
	return nil
}

// Close stops the memory tier's sweep and closes the durable store.
func (s *CacheService) Close() error {
	s.memory.Close()
	if err := s.store.Close(); err != nil {
		return fmt.Errorf("close store: %w", err)
	}
	return nil
}

func translationKey(locale, namespace string) string {
	return translationKeyPrefix + strings.Join([]string{locale, namespace}, ":")
}
