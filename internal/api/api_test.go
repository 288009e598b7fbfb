package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/lexi/internal/evaluate"
	"github.com/abhisek/lexi/internal/progress"
	"github.com/abhisek/lexi/internal/store"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubEvaluator struct {
	got []evaluate.Request
}

func (s *stubEvaluator) Evaluate(_ context.Context, req evaluate.Request) evaluate.Verdict {
	s.got = append(s.got, req)
	return evaluate.Verdict{Correct: true, Feedback: "Nice.", Source: evaluate.SourceLLM}
}

func newTestRouter(t *testing.T, ev Evaluator) (*gin.Engine, store.ProgressRepo) {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	s, err := store.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	repo := s.ProgressRepo()
	now := func() time.Time { return time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC) }
	return NewRouter(Deps{Repo: repo, Evaluator: ev, Now: now}), repo
}

func do(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHealthz(t *testing.T) {
	r, _ := newTestRouter(t, nil)
	w := do(r, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestGetProgress(t *testing.T) {
	r, repo := newTestRouter(t, nil)
	ctx := context.Background()

	_, _, err := repo.LoadOrCreate(ctx, "Ana")
	require.NoError(t, err)
	require.NoError(t, repo.UpdateSnapshot(ctx, "Ana", store.SnapshotPatch{
		CurrentLevel:       store.Ptr("21-40"),
		CompletedExercises: store.Ptr(1),
	}))
	require.NoError(t, repo.AppendSession(ctx, "Ana", store.SessionEntry{Level: "21-40", Date: "2026-10-16", CompletedExercises: 1, Timestamp: 1}))
	require.NoError(t, repo.AppendAttempt(ctx, "Ana", store.AttemptEntry{Level: "21-40", Correct: true, AttemptNumber: 3, Timestamp: 2}))

	w := do(r, http.MethodGet, "/api/learners/ANA/progress", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var rep progress.Report
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rep))
	assert.Equal(t, "Ana", rep.Name)
	assert.Equal(t, "21-40", rep.CurrentLevel)
	assert.Equal(t, 3.0, rep.AvgAttempts)
	assert.Equal(t, progress.TrendFirstSession, rep.Trend)
	assert.Equal(t, []progress.Point{{Date: "2026-10-16", Level: "21-40", Value: 80}}, rep.Chart)
}

func TestGetProgressNotFound(t *testing.T) {
	r, _ := newTestRouter(t, nil)
	w := do(r, http.MethodGet, "/api/learners/nobody/progress", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"learner not found"}`, w.Body.String())
}

func TestLevels(t *testing.T) {
	r, _ := newTestRouter(t, nil)

	w := do(r, http.MethodGet, "/api/levels", "")
	require.Equal(t, http.StatusOK, w.Code)
	var levels []levelSummary
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &levels))
	require.Len(t, levels, 5)
	assert.Equal(t, "1-20", levels[0].Range)
	assert.Equal(t, 3, levels[0].Exercises)

	w = do(r, http.MethodGet, "/api/levels/41-60", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"range":"41-60"`)
	assert.NotContains(t, w.Body.String(), "expected")

	w = do(r, http.MethodGet, "/api/levels/7-9", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCheckAnswer(t *testing.T) {
	ev := &stubEvaluator{}
	r, _ := newTestRouter(t, ev)

	w := do(r, http.MethodPost, "/api/levels/1-20/exercises/2/check", `{"answer":"anything"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.JSONEq(t, `{"isCorrect":true,"feedback":"Nice.","source":"llm"}`, w.Body.String())
	require.Len(t, ev.got, 1)
	assert.Equal(t, "anything", ev.got[0].Response)

	tests := []struct {
		name string
		path string
		body string
		want int
	}{
		{"missing answer", "/api/levels/1-20/exercises/1/check", `{}`, http.StatusBadRequest},
		{"bad index", "/api/levels/1-20/exercises/x/check", `{"answer":"a"}`, http.StatusBadRequest},
		{"index out of range", "/api/levels/1-20/exercises/4/check", `{"answer":"a"}`, http.StatusNotFound},
		{"unknown level", "/api/levels/0-1/exercises/1/check", `{"answer":"a"}`, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(r, http.MethodPost, tt.path, tt.body)
			assert.Equal(t, tt.want, w.Code, w.Body.String())
		})
	}
}

func TestCheckAnswerFallback(t *testing.T) {
	r, _ := newTestRouter(t, nil)
	w := do(r, http.MethodPost, "/api/levels/1-20/exercises/1/check", `{"answer":"no"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var v evaluate.Verdict
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v))
	assert.False(t, v.Correct)
	assert.Equal(t, evaluate.SourceFallback, v.Source)
	assert.Equal(t, evaluate.FeedbackIncorrect, v.Feedback)
}
