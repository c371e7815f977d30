package selection

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// ParseError reports that a completion response could not be parsed as the
// expected JSON array. It carries the raw offending text for diagnostics;
// a malformed response is never silently treated as an empty result.
type ParseError struct {
	Raw    string
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	raw := e.Raw
	if len(raw) > 200 {
		raw = raw[:200]
	}
	if e.Err != nil {
		return fmt.Sprintf("malformed selection response: %s: %v (raw: %q)", e.Reason, e.Err, raw)
	}
	return fmt.Sprintf("malformed selection response: %s (raw: %q)", e.Reason, raw)
}

func (e *ParseError) Unwrap() error { return e.Err }

var codeFencePattern = regexp.MustCompile("```(?:json)?\\s*")

// ExtractJSONArray locates and parses the one JSON array in text, which may
// be wrapped in commentary and/or markdown code fences. It returns the
// array's elements raw, leaving per-element decoding to the caller.
func ExtractJSONArray(text string) ([]json.RawMessage, error) {
	cleaned := strings.TrimSpace(codeFencePattern.ReplaceAllString(text, ""))

	start := strings.Index(cleaned, "[")
	end := strings.LastIndex(cleaned, "]")
	if start == -1 || end < start {
		return nil, &ParseError{Raw: text, Reason: "no JSON array found"}
	}

	var items []json.RawMessage
	if err := json.Unmarshal([]byte(cleaned[start:end+1]), &items); err != nil {
		return nil, &ParseError{Raw: text, Reason: "invalid JSON array", Err: err}
	}
	return items, nil
}
