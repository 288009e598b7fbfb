package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestOpenAIProvider(t *testing.T, headers map[string]string, handler http.HandlerFunc) *OpenAIProvider {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	p, err := NewOpenAIProvider(OpenAIConfig{
		APIKey:  "test-key",
		Model:   "gpt-4o-mini",
		BaseURL: server.URL + "/v1",
		Headers: headers,
	})
	if err != nil {
		t.Fatalf("new provider: %v", err)
	}
	return p
}

func openaiReply(content, refusal, finish string) map[string]any {
	msg := map[string]any{"role": "assistant", "content": content}
	if refusal != "" {
		msg["refusal"] = refusal
	}
	return map[string]any{
		"id":      "chatcmpl-test",
		"object":  "chat.completion",
		"created": 1760659200,
		"model":   "gpt-4o-mini-2024-07-18",
		"choices": []map[string]any{{
			"index":         0,
			"message":       msg,
			"finish_reason": finish,
		}},
		"usage": map[string]any{
			"prompt_tokens":     90,
			"completion_tokens": 14,
			"total_tokens":      104,
		},
	}
}

func TestOpenAIProvider_Verdict(t *testing.T) {
	var body map[string]any
	p := newTestOpenAIProvider(t, nil, func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&body)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(openaiReply(`{"isCorrect":false,"feedback":"Say when the park closes."}`, "", "stop"))
	})

	resp, err := p.Generate(context.Background(), evaluationRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(resp.Content) != `{"isCorrect":false,"feedback":"Say when the park closes."}` {
		t.Errorf("content = %s", resp.Content)
	}
	if resp.Usage.InputTokens != 90 || resp.Usage.OutputTokens != 14 {
		t.Errorf("usage = %+v", resp.Usage)
	}
	if resp.Model != "gpt-4o-mini-2024-07-18" || resp.StopReason != StopEnd {
		t.Errorf("model = %q, stop = %q", resp.Model, resp.StopReason)
	}

	format, _ := body["response_format"].(map[string]any)
	schema, _ := format["json_schema"].(map[string]any)
	if format["type"] != "json_schema" || schema["name"] != "test-verdict" || schema["strict"] != true {
		t.Errorf("response_format = %v", format)
	}
	msgs, _ := body["messages"].([]any)
	if len(msgs) != 2 || msgs[0].(map[string]any)["role"] != "system" {
		t.Errorf("messages = %v", msgs)
	}
}

func TestOpenAIProvider_FailureModes(t *testing.T) {
	tests := []struct {
		name   string
		status int
		reply  any
		check  func(error) bool
	}{
		{
			name:   "refusal",
			status: http.StatusOK,
			reply:  openaiReply("", "I can't help with that.", "stop"),
			check:  func(err error) bool { var e *ErrContentBlocked; return errors.As(err, &e) },
		},
		{
			name:   "content filter",
			status: http.StatusOK,
			reply:  openaiReply("", "", "content_filter"),
			check:  func(err error) bool { var e *ErrContentBlocked; return errors.As(err, &e) },
		},
		{
			name:   "length",
			status: http.StatusOK,
			reply:  openaiReply(`{"isCorrect":tr`, "", "length"),
			check:  func(err error) bool { var e *ErrMaxTokensExceeded; return errors.As(err, &e) },
		},
		{
			name:   "rate limited",
			status: http.StatusTooManyRequests,
			reply:  map[string]any{"error": map[string]any{"type": "tokens", "message": "Rate limit exceeded", "code": "rate_limit_exceeded"}},
			check:  func(err error) bool { var e *ErrRateLimit; return errors.As(err, &e) },
		},
		{
			name:   "unauthorized",
			status: http.StatusUnauthorized,
			reply:  map[string]any{"error": map[string]any{"type": "invalid_request_error", "message": "Incorrect API key provided", "code": "invalid_api_key"}},
			check:  func(err error) bool { var e *ErrRequestRejected; return errors.As(err, &e) && !Retryable(err) },
		},
		{
			name:   "server error",
			status: http.StatusInternalServerError,
			reply:  map[string]any{"error": map[string]any{"type": "server_error", "message": "Internal server error"}},
			check:  func(err error) bool { var e *ErrProviderUnavailable; return errors.As(err, &e) },
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newTestOpenAIProvider(t, nil, func(w http.ResponseWriter, r *http.Request) {
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

func TestOpenAIProvider_Headers(t *testing.T) {
	var title string
	p := newTestOpenAIProvider(t, map[string]string{"X-Title": "lexi"}, func(w http.ResponseWriter, r *http.Request) {
		title = r.Header.Get("X-Title")
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(openaiReply(`{"isCorrect":true,"feedback":"Yes."}`, "", "stop"))
	})
	if _, err := p.Generate(context.Background(), evaluationRequest()); err != nil {
		t.Fatal(err)
	}
	if title != "lexi" {
		t.Errorf("X-Title = %q", title)
	}
}

func TestOpenAIModelMapping(t *testing.T) {
	p, err := NewOpenAIProvider(OpenAIConfig{APIKey: "k", Model: "gpt-4o"})
	if err != nil {
		t.Fatal(err)
	}
	if p.ModelID() != "gpt-4o" {
		t.Errorf("model = %q", p.ModelID())
	}
	if _, err := NewOpenAIProvider(OpenAIConfig{Model: "gpt-4o"}); err == nil {
		t.Error("expected error for empty API key")
	}
}
