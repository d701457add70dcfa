package analytics_test

import (
	"testing"
	"time"

	"github.com/harperreed/gymlog/internal/analytics"
	"github.com/harperreed/gymlog/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWeekStart(t *testing.T) {
	// Sunday belongs to the week that started the previous Monday
	sunday := time.Date(2024, 3, 17, 22, 30, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC), analytics.WeekStart(sunday))

	monday := time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, monday, analytics.WeekStart(monday))
}

func TestBucketByWeek_Empty(t *testing.T) {
	now := time.Date(2024, 3, 14, 12, 0, 0, 0, time.UTC)

	buckets := analytics.BucketByWeek(nil, 8, now)
	require.Len(t, buckets, 8)

	wantLabels := []string{"W4", "W5", "W6", "W7", "W8", "W9", "W10", "W11"}
	for i, b := range buckets {
		assert.Equal(t, wantLabels[i], b.Label)
		assert.Zero(t, b.Volume)
		assert.Zero(t, b.SyntheticVolume)
		assert.Zero(t, b.Sessions)
	}
	assert.True(t, buckets[7].Contains(now))
}

func TestWeekBuckets_YearBoundary(t *testing.T) {
	// 2021-01-03 is in ISO week 53 of 2020
	now := time.Date(2021, 1, 3, 8, 0, 0, 0, time.UTC)

	buckets := analytics.WeekBuckets(now, 3)
	require.Len(t, buckets, 3)
	assert.Equal(t, "W51", buckets[0].Label)
	assert.Equal(t, "W52", buckets[1].Label)
	assert.Equal(t, "W53", buckets[2].Label)
	assert.Equal(t, 2020, buckets[2].Year)
	assert.Equal(t, time.Date(2020, 12, 28, 0, 0, 0, 0, time.UTC), buckets[2].Start)
}

func TestWeekBuckets_NonPositiveCount(t *testing.T) {
	assert.Empty(t, analytics.WeekBuckets(time.Now(), 0))
	assert.Empty(t, analytics.WeekBuckets(time.Now(), -2))
}

func TestFoldSessions(t *testing.T) {
	now := time.Date(2024, 3, 14, 12, 0, 0, 0, time.UTC)
	buckets := analytics.WeekBuckets(now, 4)

	thisWeek := session(1, now.AddDate(0, 0, -1), exercise("Squat", 3, weightReps(100, 5)))
	twoWeeksAgo := session(2, now.AddDate(0, 0, -14), exercise("Bench", 3, weightReps(60, 10)))
	synthetic := session(3, now.AddDate(0, 0, -2))
	synthetic.WithDuration(40)
	tooOld := session(4, now.AddDate(0, 0, -60), exercise("Squat", 3, weightReps(100, 5)))

	got := analytics.FoldSessions(buckets, []*models.Session{thisWeek, twoWeeksAgo, synthetic, tooOld})
	require.Len(t, got, 4)

	assert.Equal(t, 500.0, got[3].Volume)
	assert.Equal(t, 40.0, got[3].SyntheticVolume)
	assert.Equal(t, 2, got[3].Sessions)
	assert.Equal(t, 600.0, got[1].Volume)
	assert.Equal(t, 1, got[1].Sessions)
	assert.Zero(t, got[0].Sessions)
	assert.Zero(t, got[2].Sessions)

	// input buckets stay empty
	assert.Zero(t, buckets[3].Volume)
}
