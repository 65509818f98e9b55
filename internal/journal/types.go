// SPDX-License-Identifier: MIT

// Package journal implements the daily-video-journal store: a JSON-backed
// metadata index kept consistent with a file-backed video/thumbnail store.
package journal

import (
	"fmt"
	"strings"
)

// RecapType discriminates the two recap aggregation periods.
type RecapType string

const (
	RecapWeekly  RecapType = "weekly"
	RecapMonthly RecapType = "monthly"
)

// String returns the string representation of RecapType.
func (r RecapType) String() string {
	return string(r)
}

// VideoRecord is one entry of the metadata store: either a daily capture or
// a recap artifact (IsRecap=true). JSON field names match the persisted
// document layout consumed by the mobile client.
type VideoRecord struct {
	ID           string    `json:"id"`
	Filename     string    `json:"filename"`
	Date         string    `json:"date"` // YYYY-MM-DD
	Time         string    `json:"time"` // HH:MM
	Filepath     string    `json:"filepath"`
	Duration     int       `json:"duration"` // seconds, 0 until measured at playback
	ThumbnailURL string    `json:"thumbnailUrl,omitempty"`
	IsRecap      bool      `json:"isRecap,omitempty"`
	RecapType    RecapType `json:"recapType,omitempty"`
	WeekNumber   int       `json:"weekNumber,omitempty"`
	Month        int       `json:"month,omitempty"`
	Year         int       `json:"year,omitempty"`
	CreatedAt    int64     `json:"createdAt"` // epoch millis, sort key
}

// DailyID derives the record id for a daily capture. Ids are reconstructible
// from the capture date and time alone.
func DailyID(date, clock string) string {
	return date + "_" + clock
}

// DailyFilename derives the stable on-disk name for a daily capture.
func DailyFilename(date, clock string) string {
	return date + "_" + strings.ReplaceAll(clock, ":", "-") + ".mp4"
}

// RecapID derives the namespaced id for a recap artifact.
func RecapID(typ RecapType, year, weekOrMonth int) string {
	return fmt.Sprintf("recap_%s_%d_%d", typ, year, weekOrMonth)
}

// RecapFilename derives the on-disk name for a recap artifact.
func RecapFilename(typ RecapType, year, weekOrMonth int) string {
	if typ == RecapWeekly {
		return fmt.Sprintf("recap_week_%d-%02d.mp4", year, weekOrMonth)
	}
	return fmt.Sprintf("recap_%d-%02d.mp4", year, weekOrMonth)
}

// ThumbnailFilename derives the on-disk name for a record's preview image.
func ThumbnailFilename(videoID string) string {
	return "thumb-" + videoID + ".jpg"
}
