package llm

import (
	"encoding/json"
	"strings"
)

// decodeOutput turns a model's text reply into Response content. With a
// schema the reply must hold exactly one JSON object; models in plain text
// mode like to wrap it in a markdown fence or a sentence of preamble, so
// that is stripped before validation. Without a schema the text is returned
// as a JSON string.
func decodeOutput(schema *Schema, text, stop string) (json.RawMessage, error) {
	if stop == StopMaxTokens {
		return nil, &ErrMaxTokensExceeded{Content: json.RawMessage(text)}
	}
	if schema == nil {
		b, err := json.Marshal(text)
		if err != nil {
			return nil, &ErrInvalidResponse{Err: err}
		}
		return b, nil
	}

	content := json.RawMessage(extractJSON(text))
	if err := validateResponse(schema, content); err != nil {
		return nil, err
	}
	return content, nil
}

// extractJSON returns the outermost {...} span of s, or s trimmed when there
// is none. Braces inside string literals are skipped.
func extractJSON(s string) string {
	s = strings.TrimSpace(s)
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return s
	}

	depth := 0
	inString, escaped := false, false
	for i := start; i < len(s); i++ {
		c := s[i]
		switch {
		case escaped:
			escaped = false
		case inString && c == '\\':
			escaped = true
		case c == '"':
			inString = !inString
		case inString:
		case c == '{':
			depth++
		case c == '}':
			depth--
			if depth == 0 {
				return s[start : i+1]
			}
		}
	}
	// Unbalanced: let validation report it.
	return s[start:]
}
