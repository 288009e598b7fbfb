package progress

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/lexi/internal/content"
	"github.com/abhisek/lexi/internal/store"
)

var now = time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)

func TestChartValue(t *testing.T) {
	cat := content.Default()
	tests := []struct {
		level string
		want  int
	}{
		{"1-20", 100},
		{"21-40", 80},
		{"41-60", 60},
		{"61-80", 40},
		{"81-100", 20},
	}
	for _, tt := range tests {
		got, ok := ChartValue(cat, tt.level)
		require.True(t, ok, tt.level)
		assert.Equal(t, tt.want, got, tt.level)
	}
	_, ok := ChartValue(cat, "5-6")
	assert.False(t, ok)
}

func TestBuildEmpty(t *testing.T) {
	r := Build(&store.ProgressRecord{Key: "ana"}, content.Default(), now)
	assert.Equal(t, "ana", r.Name)
	assert.Equal(t, TrendFirstSession, r.Trend)
	assert.Zero(t, r.AvgAttempts)
	assert.Zero(t, r.Percent)
	assert.Empty(t, r.Chart)
	assert.False(t, r.InProgress())
}

func TestBuildInProgress(t *testing.T) {
	rec := &store.ProgressRecord{
		Key: "ana", Name: "Ana",
		CurrentLevel: "21-40", CurrentExerciseIndex: 2, CompletedExercises: 2,
		Sessions: []store.SessionEntry{
			{Level: "21-40", Date: "2026-10-16", CompletedExercises: 1, Timestamp: 200},
			{Level: "41-60", Date: "2026-10-15", CompletedExercises: 0, Timestamp: 100},
			{Level: "21-40", Date: "2026-10-16", CompletedExercises: 2, Timestamp: 300},
		},
		Attempts: []store.AttemptEntry{
			{Correct: false, AttemptNumber: 1},
			{Correct: true, AttemptNumber: 2},
			{Correct: true, AttemptNumber: 1},
		},
	}
	r := Build(rec, content.Default(), now)

	assert.True(t, r.InProgress())
	assert.InDelta(t, 66.67, r.Percent, 0.01)
	assert.Equal(t, "Intermediate Analysis & Communication", r.LevelDescription)
	assert.Equal(t, 1.5, r.AvgAttempts)
	assert.Equal(t, 2, r.CorrectAttempts)
	assert.Equal(t, 3, r.TotalAttempts)

	// Sorted by timestamp; zero-completion sessions are not charted.
	require.Len(t, r.Sessions, 3)
	assert.Equal(t, int64(100), r.Sessions[0].Timestamp)
	assert.Equal(t, []Point{
		{Date: "2026-10-16", Level: "21-40", Value: 80},
		{Date: "2026-10-16", Level: "21-40", Value: 80},
	}, r.Chart)

	// Stored order: second-to-last is 41-60, current is 21-40, a lower index.
	assert.Equal(t, TrendImprovement, r.Trend)
}

func TestBuildFinishedLevelAddsPoint(t *testing.T) {
	rec := &store.ProgressRecord{
		Key: "ana", CurrentLevel: "1-20", CompletedExercises: 3,
		Sessions: []store.SessionEntry{{Level: "1-20", Date: "2026-10-10", Timestamp: 1}},
	}
	r := Build(rec, content.Default(), now)
	assert.False(t, r.InProgress())
	assert.Equal(t, []Point{{Date: "2026-10-17", Level: "1-20", Value: 100}}, r.Chart)
}

func TestTrend(t *testing.T) {
	sessions := func(levels ...string) []store.SessionEntry {
		out := make([]store.SessionEntry, len(levels))
		for i, l := range levels {
			out[i] = store.SessionEntry{Level: l, Timestamp: int64(i)}
		}
		return out
	}
	tests := []struct {
		name    string
		current string
		levels  []store.SessionEntry
		want    Trend
	}{
		{"one session", "1-20", sessions("1-20"), TrendFirstSession},
		{"harder level", "41-60", sessions("21-40", "41-60"), TrendDeterioration},
		{"easier level", "1-20", sessions("21-40", "1-20"), TrendImprovement},
		{"same level", "21-40", sessions("21-40", "21-40"), TrendStable},
		{"no current uses last session", "", sessions("41-60", "21-40"), TrendImprovement},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := Build(&store.ProgressRecord{Key: "x", CurrentLevel: tt.current, Sessions: tt.levels}, content.Default(), now)
			assert.Equal(t, tt.want, r.Trend)
		})
	}
}

func TestRender(t *testing.T) {
	rec := &store.ProgressRecord{
		Name: "Ana", CurrentLevel: "21-40", CompletedExercises: 1,
		Sessions: []store.SessionEntry{{Level: "21-40", Date: "2026-10-16", CompletedExercises: 1, Timestamp: 1}},
		Attempts: []store.AttemptEntry{{Correct: true, AttemptNumber: 2}},
	}
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, Build(rec, content.Default(), now)))

	out := buf.String()
	assert.Contains(t, out, "Ana's Progress")
	assert.Contains(t, out, "Level:           21-40")
	assert.Contains(t, out, "Exercises Done:  1/3")
	assert.Contains(t, out, "Average Attempts per Correct Answer: 2.0")
	assert.Contains(t, out, "Progress Trend:  First Session")
	assert.Contains(t, out, "2026-10-16  21-40    1/3")
}

func TestBar(t *testing.T) {
	assert.Equal(t, "░░░░", Bar(0, 4))
	assert.Equal(t, "██░░", Bar(50, 4))
	assert.Equal(t, "████", Bar(150, 4))
}
