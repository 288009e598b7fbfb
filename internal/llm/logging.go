package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/abhisek/lexi/internal/store"
)

// LoggingProvider writes one llm_request_events row per call, successful or
// not, so `lexi llm` can show what each evaluation cost and why it failed.
type LoggingProvider struct {
	inner    Provider
	provider string
	events   store.EventRepo
}

// WithLogging records calls made through p under the given provider name.
func WithLogging(p Provider, provider string, events store.EventRepo) Provider {
	return &LoggingProvider{inner: p, provider: provider, events: events}
}

func (l *LoggingProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()
	resp, err := l.inner.Generate(ctx, req)

	ev := store.LLMRequestEventData{
		Provider:    l.provider,
		Model:       l.inner.ModelID(),
		Purpose:     PurposeFrom(ctx),
		LatencyMs:   time.Since(start).Milliseconds(),
		Success:     err == nil,
		RequestBody: renderRequest(req),
	}
	if resp != nil {
		ev.Model = resp.Model
		ev.InputTokens = resp.Usage.InputTokens
		ev.OutputTokens = resp.Usage.OutputTokens
		ev.ResponseBody = string(resp.Content)
	}
	if err != nil {
		ev.ErrorKind = ErrorKind(err)
		ev.ErrorMessage = err.Error()
		ev.ResponseBody = failedContent(err)
	}

	// The caller may already have given up on ctx; the row is still wanted.
	if logErr := l.events.AppendLLMRequest(context.WithoutCancel(ctx), ev); logErr != nil {
		slog.Warn("failed to log LLM request event", "purpose", ev.Purpose, "error", logErr)
	}
	return resp, err
}

func (l *LoggingProvider) ModelID() string {
	return l.inner.ModelID()
}

// failedContent is whatever the model sent back before its reply was
// rejected, if anything.
func failedContent(err error) string {
	var invalid *ErrInvalidResponse
	var maxTok *ErrMaxTokensExceeded
	switch {
	case errors.As(err, &invalid):
		return string(invalid.Content)
	case errors.As(err, &maxTok):
		return string(maxTok.Content)
	}
	return ""
}

// renderRequest lays out a request the way `lexi llm view` prints it.
func renderRequest(req Request) string {
	var b strings.Builder
	section := func(title, body string) {
		fmt.Fprintf(&b, "[%s]\n%s\n\n", title, body)
	}
	if req.System != "" {
		section("system", req.System)
	}
	for _, m := range req.Messages {
		section(string(m.Role), m.Content)
	}
	if req.Schema != nil {
		if def, err := json.Marshal(req.Schema.Definition); err == nil {
			section("schema: "+req.Schema.Name, string(def))
		}
	}
	return strings.TrimRight(b.String(), "\n") + "\n"
}
