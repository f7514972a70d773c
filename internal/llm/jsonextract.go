package llm

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ExtractObject parses text that is expected to contain a single JSON object.
// Models occasionally wrap their answer in conversational prose, so the
// fallback order is: direct parse, then the first balanced-brace span, then
// failure.
func ExtractObject(text string) (json.RawMessage, error) {
	trimmed := strings.TrimSpace(text)
	if json.Valid([]byte(trimmed)) && strings.HasPrefix(trimmed, "{") {
		return json.RawMessage(trimmed), nil
	}

	span, ok := firstObjectSpan(trimmed)
	if !ok {
		return nil, fmt.Errorf("no JSON object found in model output")
	}
	if !json.Valid([]byte(span)) {
		return nil, fmt.Errorf("extracted span is not valid JSON")
	}
	return json.RawMessage(span), nil
}

// firstObjectSpan returns the substring from the first '{' to its matching
// '}', honouring string literals and escapes.
func firstObjectSpan(text string) (string, bool) {
	start := strings.IndexByte(text, '{')
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		ch := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[start : i+1], true
			}
		}
	}
	return "", false
}
