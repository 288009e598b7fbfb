// Package progress turns a learner's stored history into the figures shown on
// the progress dashboard: level completion, a level chart, average attempts
// and the trend between sessions.
package progress

import (
	"slices"
	"time"

	"github.com/abhisek/lexi/internal/content"
	"github.com/abhisek/lexi/internal/store"
)

// Trend compares the learner's latest level with the one before.
// A lower level index is an easier level, so moving down is improvement.
type Trend string

const (
	TrendFirstSession  Trend = "First Session"
	TrendImprovement   Trend = "Improvement"
	TrendStable        Trend = "Stable"
	TrendDeterioration Trend = "Deterioration"
)

// Point is one value on the level chart.
type Point struct {
	Date  string `json:"date"`
	Level string `json:"level"`
	Value int    `json:"value"`
}

// Report is the dashboard view of one learner.
type Report struct {
	Name               string               `json:"name"`
	CurrentLevel       string               `json:"currentLevel,omitempty"`
	LevelDescription   string               `json:"levelDescription,omitempty"`
	CompletedExercises int                  `json:"completedExercises"`
	Percent            float64              `json:"percent"`
	Chart              []Point              `json:"chart"`
	AvgAttempts        float64              `json:"avgAttempts"`
	Trend              Trend                `json:"trend"`
	TotalAttempts      int                  `json:"totalAttempts"`
	CorrectAttempts    int                  `json:"correctAttempts"`
	Sessions           []store.SessionEntry `json:"sessions"`
}

// InProgress reports whether a level is open and not yet finished.
func (r Report) InProgress() bool {
	return r.CurrentLevel != "" && r.CompletedExercises < content.ExercisesPerLevel
}

// Build computes the report for rec. now dates the synthetic chart point
// added when the current level has just been finished.
func Build(rec *store.ProgressRecord, cat *content.Catalog, now time.Time) Report {
	r := Report{
		Name:               rec.Name,
		CurrentLevel:       rec.CurrentLevel,
		CompletedExercises: rec.CompletedExercises,
		Chart:              []Point{},
	}
	if r.Name == "" {
		r.Name = rec.Key
	}
	if lvl, err := cat.LevelByRange(rec.CurrentLevel); err == nil {
		r.LevelDescription = lvl.Description
	}
	if rec.CurrentLevel != "" {
		r.Percent = float64(rec.CompletedExercises) / float64(content.ExercisesPerLevel) * 100
	}

	r.Sessions = slices.Clone(rec.Sessions)
	slices.SortStableFunc(r.Sessions, func(a, b store.SessionEntry) int {
		switch {
		case a.Timestamp < b.Timestamp:
			return -1
		case a.Timestamp > b.Timestamp:
			return 1
		}
		return 0
	})

	for _, s := range r.Sessions {
		if s.CompletedExercises > 0 {
			r.addPoint(cat, s.Date, s.Level)
		}
	}
	if rec.CurrentLevel != "" && rec.CompletedExercises == content.ExercisesPerLevel {
		r.addPoint(cat, now.UTC().Format("2006-01-02"), rec.CurrentLevel)
	}

	r.AvgAttempts, r.CorrectAttempts = averageAttempts(rec.Attempts)
	r.TotalAttempts = len(rec.Attempts)
	r.Trend = trend(rec, cat)
	return r
}

// ChartValue maps a level to its chart height: the easiest level scores
// highest, in steps of 20.
func ChartValue(cat *content.Catalog, level string) (int, bool) {
	idx := cat.IndexOf(level)
	if idx < 0 {
		return 0, false
	}
	return (len(cat.Levels())-1-idx)*20 + 20, true
}

func (r *Report) addPoint(cat *content.Catalog, date, level string) {
	if v, ok := ChartValue(cat, level); ok {
		r.Chart = append(r.Chart, Point{Date: date, Level: level, Value: v})
	}
}

// averageAttempts is the mean attempt number over correct attempts.
func averageAttempts(attempts []store.AttemptEntry) (float64, int) {
	var sum, n int
	for _, a := range attempts {
		if a.Correct {
			sum += a.AttemptNumber
			n++
		}
	}
	if n == 0 {
		return 0, 0
	}
	return float64(sum) / float64(n), n
}

func trend(rec *store.ProgressRecord, cat *content.Catalog) Trend {
	n := len(rec.Sessions)
	if n < 2 {
		return TrendFirstSession
	}
	latest := rec.CurrentLevel
	if latest == "" {
		latest = rec.Sessions[n-1].Level
	}
	cur := cat.IndexOf(latest)
	prev := cat.IndexOf(rec.Sessions[n-2].Level)
	switch {
	case cur > prev:
		return TrendDeterioration
	case cur < prev:
		return TrendImprovement
	default:
		return TrendStable
	}
}
