package llm

import (
	"errors"
	"testing"
)

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"bare object", `{"isCorrect":true}`, `{"isCorrect":true}`},
		{"markdown fence", "```json\n{\"isCorrect\":true}\n```", `{"isCorrect":true}`},
		{"preamble", `Here is my evaluation: {"isCorrect":false,"feedback":"Close."} Hope that helps!`, `{"isCorrect":false,"feedback":"Close."}`},
		{"braces in strings", `{"feedback":"Use {curly} words like \"}\" carefully"}`, `{"feedback":"Use {curly} words like \"}\" carefully"}`},
		{"nested", `x {"a":{"b":1}} y`, `{"a":{"b":1}}`},
		{"no object", "  plain text  ", "plain text"},
		{"unbalanced", `ok {"isCorrect":true`, `{"isCorrect":true`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := extractJSON(tt.in); got != tt.want {
				t.Errorf("extractJSON(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestDecodeOutput(t *testing.T) {
	t.Run("fenced verdict", func(t *testing.T) {
		got, err := decodeOutput(verdictSchema(), "```json\n{\"isCorrect\":true,\"feedback\":\"Great.\"}\n```", StopEnd)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if string(got) != `{"isCorrect":true,"feedback":"Great."}` {
			t.Errorf("content = %s", got)
		}
	})

	t.Run("truncated", func(t *testing.T) {
		_, err := decodeOutput(verdictSchema(), `{"isCorrect":true,"feedb`, StopMaxTokens)
		var maxTok *ErrMaxTokensExceeded
		if !errors.As(err, &maxTok) {
			t.Fatalf("expected ErrMaxTokensExceeded, got: %v", err)
		}
		if Retryable(err) {
			t.Error("truncation should not be retried")
		}
	})

	t.Run("off schema", func(t *testing.T) {
		_, err := decodeOutput(verdictSchema(), `{"correct":true}`, StopEnd)
		var inv *ErrInvalidResponse
		if !errors.As(err, &inv) {
			t.Fatalf("expected ErrInvalidResponse, got: %v", err)
		}
	})

	t.Run("free text", func(t *testing.T) {
		got, err := decodeOutput(nil, `Say "hi"`, StopEnd)
		if err != nil {
			t.Fatal(err)
		}
		if string(got) != `"Say \"hi\""` {
			t.Errorf("content = %s", got)
		}
	})
}

func TestRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"rate limit", &ErrRateLimit{Err: errors.New("429")}, true},
		{"unavailable", &ErrProviderUnavailable{Err: errors.New("503")}, true},
		{"plain network error", errors.New("connection reset"), true},
		{"invalid", &ErrInvalidResponse{Err: errors.New("bad")}, false},
		{"blocked", &ErrContentBlocked{Reason: "SAFETY"}, false},
		{"breaker open", ErrBreakerOpen, false},
		{"bad key", &ErrRequestRejected{StatusCode: 401, Err: errors.New("unauthorized")}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Retryable(tt.err); got != tt.want {
				t.Errorf("Retryable(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}
