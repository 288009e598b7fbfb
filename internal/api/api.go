// Package api serves learner progress and the level catalog over HTTP.
package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/abhisek/lexi/internal/content"
	"github.com/abhisek/lexi/internal/evaluate"
	"github.com/abhisek/lexi/internal/progress"
	"github.com/abhisek/lexi/internal/store"
)

const shutdownTimeout = 10 * time.Second

// Evaluator judges a single answer.
type Evaluator interface {
	Evaluate(ctx context.Context, req evaluate.Request) evaluate.Verdict
}

// Deps are the services the handlers read from. Evaluator is optional;
// without it the check endpoint uses the deterministic comparison.
type Deps struct {
	Repo      store.ProgressRepo
	Catalog   *content.Catalog
	Evaluator Evaluator
	Logger    *slog.Logger
	Now       func() time.Time
}

type handler struct {
	Deps
}

// NewRouter builds the gin engine with all routes registered.
func NewRouter(d Deps) *gin.Engine {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.Catalog == nil {
		d.Catalog = content.Default()
	}
	h := &handler{Deps: d}

	r := gin.New()
	r.Use(requestLogger(d.Logger), gin.Recovery())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	api.GET("/levels", h.listLevels)
	api.GET("/levels/:range", h.getLevel)
	api.POST("/levels/:range/exercises/:index/check", h.checkAnswer)
	api.GET("/learners/:name/progress", h.getProgress)
	return r
}

// Serve runs the router on addr until ctx is cancelled, then shuts down
// gracefully.
func Serve(ctx context.Context, addr string, d Deps) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           NewRouter(d),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve %s: %w", addr, err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

type levelSummary struct {
	Range       string `json:"range"`
	Description string `json:"description"`
	Exercises   int    `json:"exercises"`
}

type exerciseView struct {
	Index    int    `json:"index"`
	Question string `json:"question"`
	Kind     string `json:"kind"`
}

type levelView struct {
	levelSummary
	Items []exerciseView `json:"items"`
}

func (h *handler) listLevels(c *gin.Context) {
	levels := h.Catalog.Levels()
	out := make([]levelSummary, len(levels))
	for i, l := range levels {
		out[i] = summarize(l)
	}
	c.JSON(http.StatusOK, out)
}

func (h *handler) getLevel(c *gin.Context) {
	lvl, err := h.Catalog.LevelByRange(c.Param("range"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "level not found"})
		return
	}
	view := levelView{levelSummary: summarize(*lvl)}
	// Expected answers and hints are not exposed.
	for i, ex := range lvl.Exercises {
		view.Items = append(view.Items, exerciseView{Index: i + 1, Question: ex.Question, Kind: string(ex.Kind)})
	}
	c.JSON(http.StatusOK, view)
}

type checkRequest struct {
	Answer string `json:"answer" binding:"required"`
}

func (h *handler) checkAnswer(c *gin.Context) {
	lvl, err := h.Catalog.LevelByRange(c.Param("range"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "level not found"})
		return
	}
	idx, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "exercise index must be a number"})
		return
	}
	ex, ok := lvl.Exercise(idx - 1)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "exercise not found"})
		return
	}

	var body checkRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	req := evaluate.Request{Response: body.Answer, Exercise: ex}
	var v evaluate.Verdict
	if h.Evaluator != nil {
		v = h.Evaluator.Evaluate(c.Request.Context(), req)
	} else {
		v = evaluate.Fallback(req)
	}
	c.JSON(http.StatusOK, v)
}

func (h *handler) getProgress(c *gin.Context) {
	name := c.Param("name")
	rec, err := h.Repo.Get(c.Request.Context(), name)
	if err != nil {
		h.Logger.Error("load progress", "learner", store.LearnerKey(name), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load progress"})
		return
	}
	if rec == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "learner not found"})
		return
	}
	c.JSON(http.StatusOK, progress.Build(rec, h.Catalog, h.Now()))
}

func summarize(l content.Level) levelSummary {
	return levelSummary{
		Range:       l.Range.String(),
		Description: l.Description,
		Exercises:   len(l.Exercises),
	}
}

func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info("http request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
		)
	}
}
