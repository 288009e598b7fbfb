package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestNewOpenRouterProvider(t *testing.T) {
	if _, err := NewOpenRouterProvider(OpenRouterConfig{Model: "google/gemini-2.0-flash-exp"}); err == nil {
		t.Fatal("expected error for empty API key")
	}

	p, err := NewOpenRouterProvider(OpenRouterConfig{APIKey: "sk-or-test", Model: "anthropic/claude-3-haiku"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Vendor-prefixed IDs are never remapped.
	if p.ModelID() != "anthropic/claude-3-haiku" {
		t.Errorf("model = %q", p.ModelID())
	}
}

func TestOpenRouterProvider_SendsAttribution(t *testing.T) {
	var got http.Header
	var model string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		var body struct {
			Model string `json:"model"`
		}
		json.NewDecoder(r.Body).Decode(&body)
		model = body.Model
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(openaiReply(`{"isCorrect":true,"feedback":"Spot on."}`, "", "stop"))
	}))
	t.Cleanup(server.Close)

	p, err := NewOpenRouterProvider(OpenRouterConfig{
		APIKey:  "sk-or-test",
		Model:   "google/gemini-2.0-flash-exp",
		BaseURL: server.URL,
	})
	if err != nil {
		t.Fatal(err)
	}
	resp, err := p.Generate(context.Background(), evaluationRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(resp.Content) != `{"isCorrect":true,"feedback":"Spot on."}` {
		t.Errorf("content = %s", resp.Content)
	}
	if model != "google/gemini-2.0-flash-exp" {
		t.Errorf("model sent = %q", model)
	}
	if got.Get("X-Title") != "lexi" || got.Get("HTTP-Referer") == "" {
		t.Errorf("attribution headers missing: %v", got)
	}
	if got.Get("Authorization") != "Bearer sk-or-test" {
		t.Errorf("authorization = %q", got.Get("Authorization"))
	}
}
