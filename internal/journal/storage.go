// SPDX-License-Identifier: MIT

package journal

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	xglog "github.com/bello-app/bellod/internal/log"
	"github.com/bello-app/bellod/internal/metrics"
)

// Storage composes the metadata store and the file store and exposes the
// journal operations with consistency guarantees between the two.
//
// All failures are converted to benign results (nil/false/empty) at the
// operation boundary and logged; nothing propagates to callers. The mutex
// serializes the read-modify-write cycle over the metadata document; reads
// take it too because the self-healing prune pass counts as a write.
type Storage struct {
	mu    sync.Mutex
	files *fileStore
	meta  *metadataStore

	// now is replaceable in tests for deterministic createdAt stamps.
	now func() time.Time
}

// New creates a Storage rooted at dataDir. Directories are created lazily by
// Initialize or the first save.
func New(dataDir string) *Storage {
	return &Storage{
		files: newFileStore(dataDir),
		meta:  &metadataStore{path: filepath.Join(dataDir, "bello_metadata.json")},
		now:   time.Now,
	}
}

// VideosDir returns the directory holding video blobs, for the watcher.
func (s *Storage) VideosDir() string {
	return s.files.videosDir
}

// Initialize ensures the store directories exist. Failure is logged and
// swallowed; the next save attempt will retry.
func (s *Storage) Initialize(ctx context.Context) {
	logger := xglog.WithComponentFromContext(ctx, "journal")
	if err := s.files.ensureDirs(); err != nil {
		logger.Error().Err(err).Str("event", "storage.init_error").Msg("failed to initialize storage")
	}
}

// SaveVideo moves the captured temp file into the store and indexes it.
// Returns nil on any I/O failure (move or metadata write). A failing
// thumbnail copy does not fail the save; the record is indexed without one.
func (s *Storage) SaveVideo(ctx context.Context, uri, date, clock, thumbnailPath string) *VideoRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	logger := xglog.WithComponentFromContext(ctx, "journal")

	if err := s.files.ensureDirs(); err != nil {
		logger.Error().Err(err).Str("event", "video.save_error").Msg("failed to prepare storage")
		metrics.IncVideoSaved("failure")
		return nil
	}

	filename := DailyFilename(date, clock)
	path := s.files.videoPath(filename)
	if err := s.files.moveVideo(uri, path); err != nil {
		logger.Error().Err(err).
			Str("event", "video.save_error").
			Str("date", date).
			Msg("failed to move video into store")
		metrics.IncVideoSaved("failure")
		return nil
	}

	record := VideoRecord{
		ID:        DailyID(date, clock),
		Filename:  filename,
		Date:      date,
		Time:      clock,
		Filepath:  path,
		Duration:  0, // measured at playback, not capture
		CreatedAt: s.now().UnixMilli(),
	}

	if thumbnailPath != "" {
		thumbURL, err := s.files.copyThumbnail(thumbnailPath, record.ID)
		if err != nil {
			// thumbnail loss must not block the save
			logger.Warn().Err(err).
				Str("event", "video.thumbnail_error").
				Str("id", record.ID).
				Msg("failed to copy thumbnail, saving video without one")
		} else {
			record.ThumbnailURL = thumbURL
		}
	}

	if err := s.persist(ctx, record); err != nil {
		logger.Error().Err(err).
			Str("event", "video.save_error").
			Str("id", record.ID).
			Msg("failed to update metadata")
		metrics.IncVideoSaved("failure")
		return nil
	}

	logger.Info().
		Str("event", "video.saved").
		Str("id", record.ID).
		Str("path", path).
		Msg("video saved")
	metrics.IncVideoSaved("success")
	return &record
}

// SaveRecap moves a composed recap file into the store and indexes it as a
// protected recap record. Same failure contract as SaveVideo.
func (s *Storage) SaveRecap(ctx context.Context, uri string, typ RecapType, year, weekOrMonth int) *VideoRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	logger := xglog.WithComponentFromContext(ctx, "journal")

	if err := s.files.ensureDirs(); err != nil {
		logger.Error().Err(err).Str("event", "recap.save_error").Msg("failed to prepare storage")
		return nil
	}

	filename := RecapFilename(typ, year, weekOrMonth)
	path := s.files.videoPath(filename)
	if err := s.files.moveVideo(uri, path); err != nil {
		logger.Error().Err(err).
			Str("event", "recap.save_error").
			Str("type", typ.String()).
			Msg("failed to move recap into store")
		return nil
	}

	now := s.now()
	record := VideoRecord{
		ID:        RecapID(typ, year, weekOrMonth),
		Filename:  filename,
		Date:      now.Format("2006-01-02"),
		Time:      now.Format("15:04"),
		Filepath:  path,
		IsRecap:   true,
		RecapType: typ,
		Year:      year,
		CreatedAt: now.UnixMilli(),
	}
	if typ == RecapWeekly {
		record.WeekNumber = weekOrMonth
	} else {
		record.Month = weekOrMonth
	}

	if err := s.persist(ctx, record); err != nil {
		logger.Error().Err(err).
			Str("event", "recap.save_error").
			Str("id", record.ID).
			Msg("failed to update metadata")
		return nil
	}

	logger.Info().
		Str("event", "recap.saved").
		Str("id", record.ID).
		Str("path", path).
		Msg("recap saved")
	return &record
}

// GetAllVideos returns all known records, newest first. Any failure yields an
// empty list. Entries whose backing file vanished are pruned and the pruned
// document is written back (self-healing).
func (s *Storage) GetAllVideos(ctx context.Context) []VideoRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.loadPruned(ctx)
	if err != nil {
		logger := xglog.WithComponentFromContext(ctx, "journal")
		logger.Error().Err(err).Str("event", "video.list_error").Msg("failed to load videos")
		return []VideoRecord{}
	}
	return sortNewestFirst(records)
}

// GetVideosByMonth returns records whose date falls in the given year-month.
// Matching is string comparison on zero-padded components, so dates must be
// encoded YYYY-MM-DD.
func (s *Storage) GetVideosByMonth(ctx context.Context, year, month int) []VideoRecord {
	all := s.GetAllVideos(ctx)
	prefix := fmt.Sprintf("%d-%02d", year, month)

	filtered := make([]VideoRecord, 0, len(all))
	for _, record := range all {
		if len(record.Date) >= len(prefix) && record.Date[:len(prefix)] == prefix {
			filtered = append(filtered, record)
		}
	}
	return filtered
}

// HasVideoForDate reports whether a non-recap record exists for the exact
// ISO date string.
func (s *Storage) HasVideoForDate(ctx context.Context, date string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.loadPruned(ctx)
	if err != nil {
		return false
	}
	for _, record := range records {
		if record.Date == date && !record.IsRecap {
			return true
		}
	}
	return false
}

// DeleteVideo removes a daily capture and its metadata entry. Returns false
// when the id is unknown, the record is a protected recap, or on I/O error;
// the caller cannot distinguish these. Thumbnail removal is best-effort and
// never blocks the deletion.
func (s *Storage) DeleteVideo(ctx context.Context, id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	logger := xglog.WithComponentFromContext(ctx, "journal")

	records, err := s.loadPruned(ctx)
	if err != nil {
		logger.Error().Err(err).Str("event", "video.delete_error").Str("id", id).Msg("failed to load videos")
		metrics.IncVideoDeleted("failure")
		return false
	}

	idx := -1
	for i, record := range records {
		if record.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		logger.Warn().Str("event", "video.delete_rejected").Str("id", id).Str("reason", "not_found").Msg("video not found")
		metrics.IncVideoDeleted("not_found")
		return false
	}

	record := records[idx]
	if record.IsRecap {
		// recaps are derived, protected artifacts
		logger.Warn().Str("event", "video.delete_rejected").Str("id", id).Str("reason", "recap_protected").Msg("refusing to delete recap")
		metrics.IncVideoDeleted("recap_protected")
		return false
	}

	if err := s.files.remove(record.Filepath); err != nil {
		logger.Error().Err(err).Str("event", "video.delete_error").Str("id", id).Msg("failed to delete video file")
		metrics.IncVideoDeleted("failure")
		return false
	}

	if record.ThumbnailURL != "" {
		if err := s.files.remove(record.ThumbnailURL); err != nil {
			logger.Warn().Err(err).
				Str("event", "video.thumbnail_error").
				Str("id", id).
				Msg("failed to delete thumbnail")
		}
	}

	remaining := append(records[:idx:idx], records[idx+1:]...)
	if err := s.meta.save(ctx, remaining); err != nil {
		logger.Error().Err(err).Str("event", "video.delete_error").Str("id", id).Msg("failed to update metadata")
		metrics.IncVideoDeleted("failure")
		return false
	}

	logger.Info().Str("event", "video.deleted").Str("id", id).Msg("video deleted")
	metrics.IncVideoDeleted("success")
	return true
}

// Prune runs the self-healing pass without returning records. Used by the
// directory watcher after out-of-band deletions.
func (s *Storage) Prune(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.loadPruned(ctx); err != nil {
		logger := xglog.WithComponentFromContext(ctx, "journal")
		logger.Error().Err(err).Str("event", "video.prune_error").Msg("failed to prune metadata")
	}
}

// persist upserts a record into the metadata document. Caller holds the lock.
func (s *Storage) persist(ctx context.Context, record VideoRecord) error {
	records, err := s.loadPruned(ctx)
	if err != nil {
		return err
	}
	return s.meta.save(ctx, upsert(records, record))
}

// loadPruned loads the metadata document, drops entries whose backing file
// is missing and, when anything was dropped, immediately writes the pruned
// list back. Returned records keep document order. Caller holds the lock.
func (s *Storage) loadPruned(ctx context.Context) ([]VideoRecord, error) {
	records, err := s.meta.load()
	if err != nil {
		return nil, err
	}

	valid := make([]VideoRecord, 0, len(records))
	for _, record := range records {
		if _, err := os.Stat(record.Filepath); err == nil {
			valid = append(valid, record)
		}
	}

	if dropped := len(records) - len(valid); dropped > 0 {
		logger := xglog.WithComponentFromContext(ctx, "journal")
		logger.Info().
			Str("event", "video.pruned").
			Int("dropped", dropped).
			Msg("pruned metadata entries with missing files")
		metrics.RecordPrunedEntries(dropped)
		if err := s.meta.save(ctx, valid); err != nil {
			return nil, err
		}
	}

	metrics.RecordStoredVideos(len(valid))
	return valid, nil
}

func sortNewestFirst(records []VideoRecord) []VideoRecord {
	sorted := make([]VideoRecord, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt > sorted[j].CreatedAt
	})
	return sorted
}
