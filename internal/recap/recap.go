// SPDX-License-Identifier: MIT

// Package recap decides, purely from the current date, whether a weekly or
// monthly recap compilation is due, and orchestrates its generation.
package recap

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/bello-app/bellod/internal/journal"
	xglog "github.com/bello-app/bellod/internal/log"
	"github.com/bello-app/bellod/internal/metrics"
)

// Composer produces a merged recap video file from the period's daily clips
// and returns the path of the composed temp file. Media composition is a
// pluggable external capability; the daemon ships without one.
type Composer interface {
	ComposeWeekly(ctx context.Context, year, week int) (string, error)
	ComposeMonthly(ctx context.Context, year, month int) (string, error)
}

// ErrNotImplemented is returned by NoopComposer. A generation attempt that
// hits it leaves no state behind, so the next check retries.
var ErrNotImplemented = errors.New("recap: video composition not implemented")

// NoopComposer is the placeholder composer used until real video merging
// exists.
type NoopComposer struct{}

func (NoopComposer) ComposeWeekly(_ context.Context, _, _ int) (string, error) {
	return "", ErrNotImplemented
}

func (NoopComposer) ComposeMonthly(_ context.Context, _, _ int) (string, error) {
	return "", ErrNotImplemented
}

// Generator evaluates the recap triggers and persists composed recaps.
type Generator struct {
	storage  *journal.Storage
	composer Composer

	// now is replaceable in tests to pin the trigger date.
	now func() time.Time
}

// Option configures a Generator.
type Option func(*Generator)

// WithComposer overrides the media composer.
func WithComposer(c Composer) Option {
	return func(g *Generator) { g.composer = c }
}

// WithClock overrides the time source (for tests).
func WithClock(now func() time.Time) Option {
	return func(g *Generator) { g.now = now }
}

// NewGenerator creates a Generator backed by the given storage.
func NewGenerator(storage *journal.Storage, opts ...Option) *Generator {
	g := &Generator{
		storage:  storage,
		composer: NoopComposer{},
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// WeekNumber computes the week-of-year used to key weekly recaps.
//
// This reproduces the client's historical formula exactly: fractional days
// since local Jan 1 plus Jan 1's weekday (Sunday=0) plus one, divided by
// seven, rounded up. It is NOT ISO-8601 week numbering and must stay
// bit-for-bit stable, otherwise recap ids stop matching existing files.
func WeekNumber(t time.Time) int {
	firstDayOfYear := time.Date(t.Year(), time.January, 1, 0, 0, 0, 0, t.Location())
	pastDaysOfYear := float64(t.Sub(firstDayOfYear)) / float64(24*time.Hour)
	return int(math.Ceil((pastDaysOfYear + float64(firstDayOfYear.Weekday()) + 1) / 7))
}

// shouldGenerateWeekly reports whether the weekly trigger fires: Mondays.
func shouldGenerateWeekly(now time.Time) bool {
	return now.Weekday() == time.Monday
}

// shouldGenerateMonthly reports whether the monthly trigger fires: the 1st.
func shouldGenerateMonthly(now time.Time) bool {
	return now.Day() == 1
}

// CheckAndGenerateRecaps is the single entry point invoked on daemon start
// and on manual refresh. Both triggers are evaluated independently; a
// month-start Monday attempts both generations. Failures never propagate.
func (g *Generator) CheckAndGenerateRecaps(ctx context.Context) {
	logger := xglog.WithComponentFromContext(ctx, "recap")
	now := g.now()
	year := now.Year()
	metrics.IncRecapCheck()

	if shouldGenerateWeekly(now) {
		week := WeekNumber(now)
		logger.Info().
			Str("event", "recap.check").
			Str("type", journal.RecapWeekly.String()).
			Int("year", year).
			Int("week", week).
			Msg("weekly recap due")
		g.GenerateWeeklyRecap(ctx, year, week)
	}

	if shouldGenerateMonthly(now) {
		month := int(now.Month())
		logger.Info().
			Str("event", "recap.check").
			Str("type", journal.RecapMonthly.String()).
			Int("year", year).
			Int("month", month).
			Msg("monthly recap due")
		g.GenerateMonthlyRecap(ctx, year, month)
	}
}

// GenerateWeeklyRecap composes and persists the recap for the given week.
// Returns nil when composition is unavailable or anything fails; no marker
// is written, so the next invocation retries.
func (g *Generator) GenerateWeeklyRecap(ctx context.Context, year, week int) *journal.VideoRecord {
	logger := xglog.WithComponentFromContext(ctx, "recap")

	uri, err := g.composer.ComposeWeekly(ctx, year, week)
	if err != nil {
		if errors.Is(err, ErrNotImplemented) {
			logger.Warn().
				Str("event", "recap.skipped").
				Int("year", year).
				Int("week", week).
				Msg("skipping weekly recap: video merging not implemented")
			metrics.IncRecapGeneration(journal.RecapWeekly.String(), "skipped")
			return nil
		}
		logger.Error().Err(err).
			Str("event", "recap.compose_error").
			Int("year", year).
			Int("week", week).
			Msg("weekly recap composition failed")
		metrics.IncRecapGeneration(journal.RecapWeekly.String(), "failure")
		return nil
	}

	record := g.storage.SaveRecap(ctx, uri, journal.RecapWeekly, year, week)
	if record == nil {
		metrics.IncRecapGeneration(journal.RecapWeekly.String(), "failure")
		return nil
	}
	metrics.IncRecapGeneration(journal.RecapWeekly.String(), "success")
	return record
}

// GenerateMonthlyRecap composes and persists the recap for the given month.
func (g *Generator) GenerateMonthlyRecap(ctx context.Context, year, month int) *journal.VideoRecord {
	logger := xglog.WithComponentFromContext(ctx, "recap")

	uri, err := g.composer.ComposeMonthly(ctx, year, month)
	if err != nil {
		if errors.Is(err, ErrNotImplemented) {
			logger.Warn().
				Str("event", "recap.skipped").
				Int("year", year).
				Int("month", month).
				Msg("skipping monthly recap: video merging not implemented")
			metrics.IncRecapGeneration(journal.RecapMonthly.String(), "skipped")
			return nil
		}
		logger.Error().Err(err).
			Str("event", "recap.compose_error").
			Int("year", year).
			Int("month", month).
			Msg("monthly recap composition failed")
		metrics.IncRecapGeneration(journal.RecapMonthly.String(), "failure")
		return nil
	}

	record := g.storage.SaveRecap(ctx, uri, journal.RecapMonthly, year, month)
	if record == nil {
		metrics.IncRecapGeneration(journal.RecapMonthly.String(), "failure")
		return nil
	}
	metrics.IncRecapGeneration(journal.RecapMonthly.String(), "success")
	return record
}
