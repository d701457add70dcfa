package analytics_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/harperreed/gymlog/internal/analytics"
	"github.com/harperreed/gymlog/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestAnalyzer_WeeklyVolume(t *testing.T) {
	ctrl := gomock.NewController(t)
	repoMock := NewMocksessionsRepo(ctrl)

	now := time.Date(2024, 3, 14, 12, 0, 0, 0, time.UTC)
	analyzer := analytics.NewAnalyzer(repoMock).WithClock(func() time.Time { return now })

	from := time.Date(2024, 2, 19, 0, 0, 0, 0, time.UTC)
	repoMock.EXPECT().
		ListSessionDetails(gomock.Any(), models.SessionFilter{From: &from}).
		Return([]*models.Session{
			session(2, now, exercise("Squat", 3, weightReps(100, 5))),
			session(1, now.AddDate(0, 0, -7), exercise("Squat", 3, weightReps(90, 5))),
		}, nil)

	buckets, err := analyzer.WeeklyVolume(context.Background(), 4)
	require.NoError(t, err)
	require.Len(t, buckets, 4)
	assert.Equal(t, "W11", buckets[3].Label)
	assert.Equal(t, 500.0, buckets[3].Volume)
	assert.Equal(t, 450.0, buckets[2].Volume)
}

func TestAnalyzer_WeeklyVolume_RepoError(t *testing.T) {
	ctrl := gomock.NewController(t)
	repoMock := NewMocksessionsRepo(ctrl)
	analyzer := analytics.NewAnalyzer(repoMock)

	boom := errors.New("boom")
	repoMock.EXPECT().ListSessionDetails(gomock.Any(), gomock.Any()).Return(nil, boom)

	buckets, err := analyzer.WeeklyVolume(context.Background(), 8)
	require.ErrorIs(t, err, boom)
	assert.Nil(t, buckets)
}

func TestAnalyzer_ProgressiveOverload(t *testing.T) {
	ctrl := gomock.NewController(t)
	repoMock := NewMocksessionsRepo(ctrl)
	analyzer := analytics.NewAnalyzer(repoMock)

	base := time.Date(2024, 4, 1, 7, 0, 0, 0, time.UTC)
	repoMock.EXPECT().ListSessionDetails(gomock.Any(), models.SessionFilter{}).Return([]*models.Session{
		session(3, base.AddDate(0, 0, 2), exercise("Bench", 3, weightReps(62.5, 8))),
		session(2, base.AddDate(0, 0, 1), exercise("Squat", 3, weightReps(100, 5))),
		session(1, base, exercise("Bench", 3, weightReps(60, 8))),
	}, nil)

	points, err := analyzer.ProgressiveOverload(context.Background(), "Bench", 4)
	require.NoError(t, err)
	require.Len(t, points, 4)
	assert.Equal(t, 60.0, points[0].AvgWeight)
	assert.Equal(t, 62.5, points[1].AvgWeight)
	assert.True(t, points[3].Padded)
}

func TestAnalyzer_CompletionRate(t *testing.T) {
	ctrl := gomock.NewController(t)
	repoMock := NewMocksessionsRepo(ctrl)
	analyzer := analytics.NewAnalyzer(repoMock)

	name := "Leg Day"
	filter := models.SessionFilter{TemplateName: &name}
	repoMock.EXPECT().ListSessionDetails(gomock.Any(), filter).Return([]*models.Session{
		session(1, time.Now(),
			exercise("Squat", 3, weightReps(100, 5), weightReps(100, 5), weightReps(100, 5)),
			exercise("Lunge", 3, weightReps(20, 10), weightReps(20, 10)),
		),
	}, nil)

	c, err := analyzer.CompletionRate(context.Background(), filter)
	require.NoError(t, err)
	assert.Equal(t, 50.0, c.Percent)
}

func TestAnalyzer_TopExercises_OldestFirstTieBreak(t *testing.T) {
	ctrl := gomock.NewController(t)
	repoMock := NewMocksessionsRepo(ctrl)
	analyzer := analytics.NewAnalyzer(repoMock)

	base := time.Date(2024, 4, 1, 7, 0, 0, 0, time.UTC)
	repoMock.EXPECT().ListSessionDetails(gomock.Any(), gomock.Any()).Return([]*models.Session{
		session(2, base.AddDate(0, 0, 1), exercise("Row", 3, weightReps(50, 10))),
		session(1, base, exercise("Press", 3, weightReps(40, 8))),
	}, nil)

	top, err := analyzer.TopExercises(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, "Press", top[0].Name)
	assert.Equal(t, "Row", top[1].Name)
}

func TestAnalyzer_Summary(t *testing.T) {
	ctrl := gomock.NewController(t)
	repoMock := NewMocksessionsRepo(ctrl)

	now := time.Date(2024, 3, 14, 12, 0, 0, 0, time.UTC)
	analyzer := analytics.NewAnalyzer(repoMock).WithClock(func() time.Time { return now })

	empty := session(3, now.AddDate(0, 0, -1))
	repoMock.EXPECT().ListSessionDetails(gomock.Any(), gomock.Any()).Return([]*models.Session{
		empty,
		session(2, now.AddDate(0, 0, -3), exercise("Squat", 3, weightReps(100, 5), weightReps(100, 5), weightReps(100, 5))),
		session(1, now.AddDate(0, 0, -10), exercise("Squat", 3, weightReps(100, 5))),
	}, nil)

	sum, err := analyzer.Summary(context.Background(), 2, 3)
	require.NoError(t, err)
	assert.Equal(t, 3, sum.TotalSessions)
	assert.Equal(t, 2000.0, sum.TotalVolume)
	assert.Equal(t, 1, sum.SyntheticSessions)
	require.NotNil(t, sum.LastSession)
	assert.Equal(t, empty.SessionDate, *sum.LastSession)
	require.Len(t, sum.Weekly, 2)
	assert.Equal(t, analytics.PlaceholderVolume, sum.Weekly[1].SyntheticVolume)
	assert.Equal(t, 1, sum.Completion.Completed)
	assert.Equal(t, 2, sum.Completion.Total)
	require.Len(t, sum.TopExercises, 1)
	assert.Equal(t, 2, sum.TopExercises[0].Count)
}
