package llm

import (
	"encoding/json"
	"errors"
	"testing"
)

func verdictSchema() *Schema {
	return &Schema{
		Name:        "test-verdict",
		Description: "Whether an answer is acceptable",
		Definition: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"isCorrect": map[string]any{"type": "boolean"},
				"feedback":  map[string]any{"type": "string"},
				"source":    map[string]any{"type": "string", "enum": []any{"llm", "fallback"}},
			},
			"required":             []any{"isCorrect", "feedback"},
			"additionalProperties": false,
		},
	}
}

func TestValidateResponse(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr bool
	}{
		{"complete verdict", `{"isCorrect":true,"feedback":"Good summary.","source":"llm"}`, false},
		{"optional field omitted", `{"isCorrect":false,"feedback":"Mention the date."}`, false},
		{"missing feedback", `{"isCorrect":true}`, true},
		{"string instead of boolean", `{"isCorrect":"true","feedback":"ok"}`, true},
		{"unknown enum value", `{"isCorrect":true,"feedback":"ok","source":"cache"}`, true},
		{"extra property", `{"isCorrect":true,"feedback":"ok","score":3}`, true},
		{"malformed", `{isCorrect: true}`, true},
		{"empty", ``, true},
		{"whitespace", "  \n", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateResponse(verdictSchema(), json.RawMessage(tt.raw))
			if !tt.wantErr {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			var inv *ErrInvalidResponse
			if !errors.As(err, &inv) {
				t.Fatalf("expected ErrInvalidResponse, got: %v", err)
			}
			if string(inv.Content) != tt.raw {
				t.Errorf("content = %q, want %q", inv.Content, tt.raw)
			}
		})
	}
}

func TestValidateResponse_NilSchema(t *testing.T) {
	if err := validateResponse(nil, json.RawMessage(`not even json`)); err != nil {
		t.Fatalf("expected no error with nil schema, got: %v", err)
	}
}

func TestValidateResponse_BadSchema(t *testing.T) {
	schema := &Schema{
		Name:       "test-broken",
		Definition: map[string]any{"type": 42},
	}
	err := validateResponse(schema, json.RawMessage(`{}`))
	var inv *ErrInvalidResponse
	if !errors.As(err, &inv) {
		t.Fatalf("expected ErrInvalidResponse, got: %v", err)
	}
}

func TestValidatorIsCompiledOnce(t *testing.T) {
	schema := verdictSchema()
	schema.Name = "test-verdict-cached"
	a, err := validator(schema)
	if err != nil {
		t.Fatal(err)
	}
	b, err := validator(schema)
	if err != nil {
		t.Fatal(err)
	}
	if a != b {
		t.Error("expected the cached validator on the second call")
	}
}
