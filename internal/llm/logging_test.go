package llm

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/abhisek/lexi/internal/store"
)

// recordingEvents keeps appended events in memory.
type recordingEvents struct {
	store.EventRepo
	got []store.LLMRequestEventData
	err error
}

func (r *recordingEvents) AppendLLMRequest(_ context.Context, data store.LLMRequestEventData) error {
	r.got = append(r.got, data)
	return r.err
}

func TestLoggingProvider_Success(t *testing.T) {
	events := &recordingEvents{}
	mock := NewMockProvider(MockResponse{
		Content: json.RawMessage(`{"isCorrect":true,"feedback":"Nice."}`),
		Usage:   Usage{InputTokens: 80, OutputTokens: 12, TotalTokens: 92},
	})
	p := WithLogging(mock, "gemini", events)

	ctx := WithPurpose(context.Background(), PurposeAnswerEvaluation)
	if _, err := p.Generate(ctx, evaluationRequest()); err != nil {
		t.Fatal(err)
	}

	if len(events.got) != 1 {
		t.Fatalf("events = %d", len(events.got))
	}
	ev := events.got[0]
	if ev.Provider != "gemini" || ev.Model != "mock" || ev.Purpose != PurposeAnswerEvaluation {
		t.Errorf("event = %+v", ev)
	}
	if !ev.Success || ev.ErrorKind != "" || ev.InputTokens != 80 || ev.OutputTokens != 12 {
		t.Errorf("event = %+v", ev)
	}
	for _, want := range []string{"[system]\nYou judge answers", "[user]\nQuestion: Summarise", "[schema: test-verdict]"} {
		if !strings.Contains(ev.RequestBody, want) {
			t.Errorf("request body missing %q:\n%s", want, ev.RequestBody)
		}
	}
}

func TestLoggingProvider_Failure(t *testing.T) {
	events := &recordingEvents{err: errors.New("disk full")}
	mock := NewMockProvider(MockResponse{Err: &ErrInvalidResponse{
		Content: json.RawMessage(`The answer is right.`),
		Err:     errors.New("not JSON"),
	}})
	p := WithLogging(mock, "openai", events)

	// A failing event write does not replace the provider's error.
	_, err := p.Generate(context.Background(), evaluationRequest())
	var inv *ErrInvalidResponse
	if !errors.As(err, &inv) {
		t.Fatalf("err = %v", err)
	}

	ev := events.got[0]
	if ev.Success || ev.ErrorKind != "invalid" || ev.Purpose != "unknown" {
		t.Errorf("event = %+v", ev)
	}
	if ev.ResponseBody != "The answer is right." {
		t.Errorf("response body = %q", ev.ResponseBody)
	}
}

func TestErrorKind(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{&ErrRateLimit{}, "rate_limit"},
		{&ErrMaxTokensExceeded{}, "max_tokens"},
		{&ErrContentBlocked{Reason: "safety"}, "blocked"},
		{&ErrRequestRejected{StatusCode: 401}, "rejected"},
		{&ErrProviderUnavailable{}, "unavailable"},
		{context.DeadlineExceeded, "timeout"},
		{errors.Join(ErrBreakerOpen, errors.New("open")), "breaker_open"},
	}
	for _, tt := range tests {
		if got := ErrorKind(tt.err); got != tt.want {
			t.Errorf("ErrorKind(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}
