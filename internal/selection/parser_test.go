package selection

import (
	"errors"
	"strings"
	"testing"
)

func TestExtractJSONArray(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want int
	}{
		{"bare array", `[{"timestamp": 10, "reason": "x"}]`, 1},
		{"fenced json", "```json\n[{\"timestamp\": 10, \"reason\": \"x\"}, {\"timestamp\": 20, \"reason\": \"y\"}]\n```", 2},
		{"fence without language", "```\n[1, 2, 3]\n```", 3},
		{"wrapped in commentary", "Here are the timestamps you asked for:\n[{\"timestamp\": 5, \"reason\": \"intro\"}]\nLet me know if you need more.", 1},
		{"empty array", "[]", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items, err := ExtractJSONArray(tt.in)
			if err != nil {
				t.Fatalf("ExtractJSONArray() error = %v", err)
			}
			if len(items) != tt.want {
				t.Errorf("got %d items, want %d", len(items), tt.want)
			}
		})
	}
}

func TestExtractJSONArrayNoArray(t *testing.T) {
	_, err := ExtractJSONArray("I could not find any noteworthy moments.")
	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("error = %v, want *ParseError", err)
	}
	if !strings.Contains(parseErr.Raw, "noteworthy") {
		t.Errorf("ParseError should carry the raw response, got %q", parseErr.Raw)
	}
}

func TestExtractJSONArrayInvalidJSON(t *testing.T) {
	_, err := ExtractJSONArray(`[{"timestamp": 10, "reason": }]`)
	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("error = %v, want *ParseError", err)
	}
	if parseErr.Err == nil {
		t.Error("ParseError should wrap the JSON decode error")
	}
}

func TestParseErrorTruncatesRawInMessage(t *testing.T) {
	err := &ParseError{Raw: strings.Repeat("x", 500), Reason: "no JSON array found"}
	if len(err.Error()) > 300 {
		t.Errorf("error message too long: %d chars", len(err.Error()))
	}
}
