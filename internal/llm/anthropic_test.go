package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestAnthropicProvider(t *testing.T, handler http.HandlerFunc) *AnthropicProvider {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	p, err := NewAnthropicProvider(AnthropicConfig{
		APIKey:  "test-key",
		Model:   "claude-haiku",
		BaseURL: server.URL,
	})
	if err != nil {
		t.Fatalf("new provider: %v", err)
	}
	return p
}

func anthropicReply(stop string, texts ...string) map[string]any {
	var blocks []map[string]any
	for _, text := range texts {
		blocks = append(blocks, map[string]any{"type": "text", "text": text})
	}
	return map[string]any{
		"id":          "msg_test",
		"type":        "message",
		"role":        "assistant",
		"content":     blocks,
		"model":       "claude-haiku-4-5-20251001",
		"stop_reason": stop,
		"usage":       map[string]any{"input_tokens": 110, "output_tokens": 21},
	}
}

func TestAnthropicProvider_Verdict(t *testing.T) {
	var body map[string]any
	p := newTestAnthropicProvider(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&body)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(anthropicReply("end_turn", `{"isCorrect":true,`, `"feedback":"Clear and complete."}`))
	})

	resp, err := p.Generate(context.Background(), evaluationRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(resp.Content) != `{"isCorrect":true,"feedback":"Clear and complete."}` {
		t.Errorf("content = %s", resp.Content)
	}
	if resp.Usage.TotalTokens != 131 {
		t.Errorf("usage = %+v", resp.Usage)
	}
	if resp.StopReason != StopEnd {
		t.Errorf("stop = %q", resp.StopReason)
	}
	if body["model"] != "claude-haiku-4-5-20251001" {
		t.Errorf("model sent = %v", body["model"])
	}
	if _, ok := body["output_config"]; !ok {
		t.Errorf("expected output_config in request: %v", body)
	}
}

func TestAnthropicProvider_FailureModes(t *testing.T) {
	tests := []struct {
		name   string
		status int
		reply  any
		check  func(error) bool
	}{
		{
			name:   "refusal",
			status: http.StatusOK,
			reply:  anthropicReply("refusal", "I won't assess this response."),
			check:  func(err error) bool { var e *ErrContentBlocked; return errors.As(err, &e) },
		},
		{
			name:   "max tokens",
			status: http.StatusOK,
			reply:  anthropicReply("max_tokens", `{"isCorrect":false,"feedback":"The`),
			check:  func(err error) bool { var e *ErrMaxTokensExceeded; return errors.As(err, &e) },
		},
		{
			name:   "no text",
			status: http.StatusOK,
			reply:  anthropicReply("end_turn"),
			check:  func(err error) bool { var e *ErrInvalidResponse; return errors.As(err, &e) },
		},
		{
			name:   "rate limited",
			status: http.StatusTooManyRequests,
			reply:  map[string]any{"type": "error", "error": map[string]any{"type": "rate_limit_error", "message": "Rate limit exceeded"}},
			check:  func(err error) bool { var e *ErrRateLimit; return errors.As(err, &e) },
		},
		{
			name:   "overloaded",
			status: 529,
			reply:  map[string]any{"type": "error", "error": map[string]any{"type": "overloaded_error", "message": "Overloaded"}},
			check:  func(err error) bool { var e *ErrProviderUnavailable; return errors.As(err, &e) },
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newTestAnthropicProvider(t, func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				json.NewEncoder(w).Encode(tt.reply)
			})
			_, err := p.Generate(context.Background(), evaluationRequest())
			if err == nil || !tt.check(err) {
				t.Fatalf("unexpected error: %T (%v)", err, err)
			}
		})
	}
}

func TestAnthropicModelMapping(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"claude-sonnet", "claude-sonnet-4-20250514"},
		{"claude-haiku", "claude-haiku-4-5-20251001"},
		{"claude-sonnet-4-20250514", "claude-sonnet-4-20250514"},
	}
	for _, tt := range tests {
		if got := resolveModel(tt.input, anthropicModels); got != tt.expected {
			t.Errorf("resolveModel(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}
