// SPDX-License-Identifier: MIT
package recap

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bello-app/bellod/internal/journal"
)

// spyComposer records invocations and serves canned results.
type spyComposer struct {
	weeklyCalls  []struct{ year, week int }
	monthlyCalls []struct{ year, month int }
	weeklyURI    string
	monthlyURI   string
	err          error
}

func (c *spyComposer) ComposeWeekly(_ context.Context, year, week int) (string, error) {
	c.weeklyCalls = append(c.weeklyCalls, struct{ year, week int }{year, week})
	return c.weeklyURI, c.err
}

func (c *spyComposer) ComposeMonthly(_ context.Context, year, month int) (string, error) {
	c.monthlyCalls = append(c.monthlyCalls, struct{ year, month int }{year, month})
	return c.monthlyURI, c.err
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func newTestGenerator(t *testing.T, now time.Time, composer Composer) (*Generator, *journal.Storage) {
	t.Helper()
	storage := journal.New(t.TempDir())
	g := NewGenerator(storage, WithComposer(composer), WithClock(fixedClock(now)))
	return g, storage
}

func TestWeekNumberPinned(t *testing.T) {
	cases := []struct {
		name string
		date time.Time
		want int
	}{
		// Jan 1 at midnight is always week 1 regardless of weekday
		{"jan1-2024-midnight", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), 1},
		{"jan1-2025-midnight", time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), 1},
		{"jan1-2023-midnight", time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC), 1},
		// 2024-01-01 is a Monday: jan1 weekday=1, day 8 gives ceil((7+1+1)/7)=2
		{"second-monday-2024", time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC), 2},
		// mid-year: 189 full days into 2024 -> ceil((189+1+1)/7) = 28
		{"jul8-2024", time.Date(2024, 7, 8, 0, 0, 0, 0, time.UTC), 28},
		// intra-day fraction feeds the ceiling: 2023 starts on a Sunday (0),
		// so noon Jan 1 is ceil((0.5+0+1)/7) = 1
		{"jan1-2023-noon", time.Date(2023, 1, 1, 12, 0, 0, 0, time.UTC), 1},
		// 2022 starts on a Saturday (6): noon Jan 1 is ceil((0.5+6+1)/7) = 2
		{"jan1-2022-noon", time.Date(2022, 1, 1, 12, 0, 0, 0, time.UTC), 2},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, WeekNumber(tc.date))
		})
	}
}

func TestWeekNumberDeterministic(t *testing.T) {
	date := time.Date(2024, 5, 17, 8, 30, 0, 0, time.UTC)
	first := WeekNumber(date)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, WeekNumber(date))
	}
}

func TestCheckOnMondayAttemptsWeeklyOnly(t *testing.T) {
	// 2024-07-08 is a Monday, not a month start
	composer := &spyComposer{err: ErrNotImplemented}
	g, _ := newTestGenerator(t, time.Date(2024, 7, 8, 9, 0, 0, 0, time.UTC), composer)

	g.CheckAndGenerateRecaps(context.Background())

	require.Len(t, composer.weeklyCalls, 1)
	assert.Equal(t, 2024, composer.weeklyCalls[0].year)
	assert.Equal(t, 28, composer.weeklyCalls[0].week)
	assert.Empty(t, composer.monthlyCalls)
}

func TestCheckOnMonthStartAttemptsMonthlyOnly(t *testing.T) {
	// 2024-08-01 is a Thursday
	composer := &spyComposer{err: ErrNotImplemented}
	g, _ := newTestGenerator(t, time.Date(2024, 8, 1, 9, 0, 0, 0, time.UTC), composer)

	g.CheckAndGenerateRecaps(context.Background())

	assert.Empty(t, composer.weeklyCalls)
	require.Len(t, composer.monthlyCalls, 1)
	assert.Equal(t, 2024, composer.monthlyCalls[0].year)
	assert.Equal(t, 8, composer.monthlyCalls[0].month)
}

func TestCheckOnMonthStartMondayAttemptsBoth(t *testing.T) {
	// 2024-07-01 is a Monday and the first of the month
	composer := &spyComposer{err: ErrNotImplemented}
	g, _ := newTestGenerator(t, time.Date(2024, 7, 1, 9, 0, 0, 0, time.UTC), composer)

	g.CheckAndGenerateRecaps(context.Background())

	assert.Len(t, composer.weeklyCalls, 1)
	assert.Len(t, composer.monthlyCalls, 1)
}

func TestCheckOnOrdinaryDayAttemptsNeither(t *testing.T) {
	// 2024-07-09 is a Tuesday, the ninth
	composer := &spyComposer{err: ErrNotImplemented}
	g, _ := newTestGenerator(t, time.Date(2024, 7, 9, 9, 0, 0, 0, time.UTC), composer)

	g.CheckAndGenerateRecaps(context.Background())

	assert.Empty(t, composer.weeklyCalls)
	assert.Empty(t, composer.monthlyCalls)
}

func TestGenerateWithNoopComposerLeavesStoreUntouched(t *testing.T) {
	ctx := context.Background()
	g, storage := newTestGenerator(t, time.Date(2024, 7, 8, 9, 0, 0, 0, time.UTC), NoopComposer{})

	assert.Nil(t, g.GenerateWeeklyRecap(ctx, 2024, 28))
	assert.Nil(t, g.GenerateMonthlyRecap(ctx, 2024, 7))
	assert.Empty(t, storage.GetAllVideos(ctx))
}

func TestFailedGenerationRetriesOnNextCheck(t *testing.T) {
	composer := &spyComposer{err: errors.New("ffmpeg exploded")}
	g, storage := newTestGenerator(t, time.Date(2024, 7, 8, 9, 0, 0, 0, time.UTC), composer)

	// a failed attempt leaves no marker, so every check retries
	g.CheckAndGenerateRecaps(context.Background())
	g.CheckAndGenerateRecaps(context.Background())

	assert.Len(t, composer.weeklyCalls, 2)
	assert.Empty(t, storage.GetAllVideos(context.Background()))
}

func TestGenerateWeeklyPersistsComposedRecap(t *testing.T) {
	ctx := context.Background()

	merged := filepath.Join(t.TempDir(), "merged.mp4")
	require.NoError(t, os.WriteFile(merged, []byte("merged payload"), 0o644))

	composer := &spyComposer{weeklyURI: merged}
	g, storage := newTestGenerator(t, time.Date(2024, 7, 8, 9, 0, 0, 0, time.UTC), composer)

	record := g.GenerateWeeklyRecap(ctx, 2024, 28)
	require.NotNil(t, record)
	assert.Equal(t, "recap_weekly_2024_28", record.ID)
	assert.True(t, record.IsRecap)
	assert.Equal(t, 28, record.WeekNumber)

	all := storage.GetAllVideos(ctx)
	require.Len(t, all, 1)
	assert.Equal(t, record.ID, all[0].ID)

	// composed recaps are protected like any other recap
	assert.False(t, storage.DeleteVideo(ctx, record.ID))
}

func TestGenerateMonthlyPersistsComposedRecap(t *testing.T) {
	ctx := context.Background()

	merged := filepath.Join(t.TempDir(), "merged.mp4")
	require.NoError(t, os.WriteFile(merged, []byte("merged payload"), 0o644))

	composer := &spyComposer{monthlyURI: merged}
	g, storage := newTestGenerator(t, time.Date(2024, 8, 1, 9, 0, 0, 0, time.UTC), composer)

	record := g.GenerateMonthlyRecap(ctx, 2024, 7)
	require.NotNil(t, record)
	assert.Equal(t, "recap_monthly_2024_7", record.ID)
	assert.Equal(t, "recap_2024-07.mp4", record.Filename)
	assert.Equal(t, 7, record.Month)

	all := storage.GetAllVideos(ctx)
	require.Len(t, all, 1)
	assert.Equal(t, record.ID, all[0].ID)
}
