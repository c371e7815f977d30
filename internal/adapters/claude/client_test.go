package claude

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/benhall/vid2notes/internal/ports"
)

func newTestClient(handler http.HandlerFunc) (*Client, *httptest.Server) {
	srv := httptest.NewServer(handler)
	c := New("test-key")
	c.apiURL = srv.URL
	return c, srv
}

func TestCompleteTextRequest(t *testing.T) {
	var gotReq apiRequest
	c, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("x-api-key") != "test-key" {
			t.Errorf("missing api key header")
		}
		if r.Header.Get("anthropic-version") == "" {
			t.Errorf("missing anthropic-version header")
		}
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Fatalf("decoding request: %v", err)
		}
		fmt.Fprint(w, `{"content": [{"type": "text", "text": "hello "}, {"type": "text", "text": "world"}]}`)
	})
	defer srv.Close()

	got, err := c.Complete(context.Background(), ports.CompletionRequest{
		Model:     "test-model",
		MaxTokens: 100,
		System:    "be brief",
		Parts:     []ports.ContentPart{ports.TextPart("hi")},
	})
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if got != "hello world" {
		t.Errorf("Complete() = %q", got)
	}
	if gotReq.Model != "test-model" || gotReq.System != "be brief" {
		t.Errorf("request = %+v", gotReq)
	}
	if len(gotReq.Messages) != 1 || gotReq.Messages[0].Role != "user" {
		t.Errorf("messages = %+v", gotReq.Messages)
	}
}

func TestCompleteImageParts(t *testing.T) {
	var gotReq apiRequest
	c, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&gotReq)
		fmt.Fprint(w, `{"content": [{"type": "text", "text": "a chart"}]}`)
	})
	defer srv.Close()

	_, err := c.Complete(context.Background(), ports.CompletionRequest{
		Model:     "m",
		MaxTokens: 10,
		Parts: []ports.ContentPart{
			ports.TextPart("describe:"),
			ports.ImagePart("aGVsbG8=", "image/png"),
		},
	})
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}

	content := gotReq.Messages[0].Content
	if len(content) != 2 {
		t.Fatalf("content parts = %d, want 2", len(content))
	}
	if content[0].Type != "text" || content[1].Type != "image" {
		t.Errorf("part types = %s, %s", content[0].Type, content[1].Type)
	}
	if content[1].Source == nil || content[1].Source.MediaType != "image/png" || content[1].Source.Data != "aGVsbG8=" {
		t.Errorf("image source = %+v", content[1].Source)
	}
}

func TestCompleteAPIError(t *testing.T) {
	c, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		fmt.Fprint(w, `{"error": {"type": "rate_limit_error", "message": "slow down"}}`)
	})
	defer srv.Close()

	_, err := c.Complete(context.Background(), ports.CompletionRequest{
		Model: "m", MaxTokens: 10, Parts: []ports.ContentPart{ports.TextPart("hi")},
	})

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error = %v, want *APIError", err)
	}
	if apiErr.StatusCode != http.StatusTooManyRequests || apiErr.Type != "rate_limit_error" {
		t.Errorf("apiErr = %+v", apiErr)
	}
}

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

var _ net.Error = timeoutErr{}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"rate limit", &APIError{StatusCode: 429}, true},
		{"server error", &APIError{StatusCode: 500}, true},
		{"overloaded", &APIError{StatusCode: 529}, true},
		{"bad request", &APIError{StatusCode: 400}, false},
		{"auth failure", &APIError{StatusCode: 401}, false},
		{"network timeout", timeoutErr{}, true},
		{"wrapped network timeout", fmt.Errorf("request failed: %w", timeoutErr{}), true},
		{"plain error", errors.New("nope"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRetryable(tt.err); got != tt.want {
				t.Errorf("IsRetryable(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestCompleteMissingKey(t *testing.T) {
	c := New("")
	c.apiKey = ""
	_, err := c.Complete(context.Background(), ports.CompletionRequest{Model: "m"})
	if err == nil {
		t.Error("Complete() with no key should fail")
	}
}
