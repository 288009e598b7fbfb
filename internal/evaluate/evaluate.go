// Package evaluate decides whether a learner's answer to an exercise is
// acceptable. The primary judge is an LLM; when it cannot answer, a fixed set
// of string rules takes over so a turn is never lost to a provider outage.
package evaluate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"text/template"
	"time"

	"github.com/abhisek/lexi/internal/content"
	"github.com/abhisek/lexi/internal/llm"
)

// Source names the strategy that produced a Verdict.
type Source string

const (
	SourceLLM      Source = "llm"
	SourceFallback Source = "fallback"
	SourceCache    Source = "cache"
)

// Canned feedback used by the fallback rules.
const (
	FeedbackCorrect   = "Excellent work!"
	FeedbackIncorrect = "Not quite right. Try again."
)

// Request is one answer to judge.
type Request struct {
	Response string
	Exercise content.Exercise
}

// Verdict is the outcome of judging a Request.
type Verdict struct {
	Correct  bool   `json:"isCorrect"`
	Feedback string `json:"feedback"`
	Source   Source `json:"source"`
}

// Config holds configuration for the evaluator.
type Config struct {
	MaxTokens   int
	Temperature float64
	// Timeout bounds one evaluation including retries. Zero means no bound
	// beyond the caller's context.
	Timeout time.Duration
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		MaxTokens:   256,
		Temperature: 0.2,
		Timeout:     30 * time.Second,
	}
}

// Evaluator judges answers with an LLM and falls back to string rules.
type Evaluator struct {
	provider llm.Provider
	cache    Cache
	cfg      Config
	logger   *slog.Logger
}

// Option customizes an Evaluator.
type Option func(*Evaluator)

// WithCache enables verdict caching.
func WithCache(c Cache) Option {
	return func(e *Evaluator) { e.cache = c }
}

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(e *Evaluator) {
		if l != nil {
			e.logger = l
		}
	}
}

// New creates an Evaluator. A nil provider makes every verdict come from the
// fallback rules.
func New(provider llm.Provider, cfg Config, opts ...Option) *Evaluator {
	e := &Evaluator{provider: provider, cfg: cfg, logger: slog.Default()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// evaluationOutput is the raw LLM response.
type evaluationOutput struct {
	IsCorrect bool   `json:"isCorrect"`
	Feedback  string `json:"feedback"`
}

// Evaluate judges req. It never fails: any provider error yields a fallback
// verdict.
func (e *Evaluator) Evaluate(ctx context.Context, req Request) Verdict {
	if e.provider == nil {
		return Fallback(req)
	}

	key := cacheKey(req)
	if e.cache != nil {
		v, ok, err := e.cache.Get(ctx, key)
		if err != nil {
			e.logger.Warn("verdict cache read failed", "error", err)
		} else if ok {
			v.Source = SourceCache
			return v
		}
	}

	v, err := e.ask(ctx, req)
	if err != nil {
		e.logger.Warn("falling back to string similarity", "kind", req.Exercise.Kind, "error", err)
		return Fallback(req)
	}

	if e.cache != nil {
		if err := e.cache.Set(ctx, key, v); err != nil {
			e.logger.Warn("verdict cache write failed", "error", err)
		}
	}
	return v
}

func (e *Evaluator) ask(ctx context.Context, req Request) (Verdict, error) {
	ctx = llm.WithPurpose(ctx, llm.PurposeAnswerEvaluation)
	if e.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.cfg.Timeout)
		defer cancel()
	}

	userMsg, err := buildEvaluationMessage(req)
	if err != nil {
		return Verdict{}, fmt.Errorf("build evaluation prompt: %w", err)
	}

	resp, err := e.provider.Generate(ctx, llm.Request{
		System: evaluationSystemPrompt,
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: userMsg},
		},
		Schema:      EvaluationSchema,
		MaxTokens:   e.cfg.MaxTokens,
		Temperature: e.cfg.Temperature,
	})
	if err != nil {
		return Verdict{}, fmt.Errorf("LLM evaluation failed: %w", err)
	}

	var raw evaluationOutput
	if err := json.Unmarshal(resp.Content, &raw); err != nil {
		return Verdict{}, fmt.Errorf("failed to parse evaluation response: %w", err)
	}

	feedback := strings.TrimSpace(raw.Feedback)
	if feedback == "" {
		feedback = FeedbackIncorrect
		if raw.IsCorrect {
			feedback = FeedbackCorrect
		}
	}
	return Verdict{Correct: raw.IsCorrect, Feedback: feedback, Source: SourceLLM}, nil
}

// EvaluationSchema defines the JSON schema for LLM answer evaluations.
var EvaluationSchema = &llm.Schema{
	Name:        "answer-evaluation",
	Description: "Whether a learner's answer to a literacy exercise is acceptable, with feedback",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"isCorrect": map[string]any{
				"type":        "boolean",
				"description": "True if the response is acceptable",
			},
			"feedback": map[string]any{
				"type":        "string",
				"description": "Short, encouraging and constructive feedback addressed to the learner",
			},
		},
		"required":             []any{"isCorrect", "feedback"},
		"additionalProperties": false,
	},
}

const evaluationSystemPrompt = `You are a patient tutor for adults with dyslexia. You judge answers to short workplace literacy exercises.

Instructions:
- Evaluate the response for content accuracy, key points covered and understanding of the concept.
- Do not penalise spelling, spacing or capitalisation unless the exercise is about them.
- Mark the response acceptable when it shows the learner understood the task, even if worded differently.
- Keep feedback to one or two sentences, addressed directly to the learner.`

var evaluationUserTemplate = template.Must(template.New("evaluation").Parse(`Exercise type: {{.Exercise.Kind}}
Question: {{.Exercise.Question}}
Expected answer: {{.Exercise.Expected}}
Learner's response: {{.Response}}`))

func buildEvaluationMessage(req Request) (string, error) {
	var buf bytes.Buffer
	if err := evaluationUserTemplate.Execute(&buf, req); err != nil {
		return "", err
	}
	return buf.String(), nil
}
