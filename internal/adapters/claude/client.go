// Package claude implements the completion port against the Anthropic
// messages API using plain net/http.
package claude

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/benhall/vid2notes/internal/ports"
)

const (
	defaultAPIURL  = "https://api.anthropic.com/v1/messages"
	apiVersion     = "2023-06-01"
	requestTimeout = 300 * time.Second
)

// APIError is a non-2xx response from the API. The status code drives
// retry classification.
type APIError struct {
	StatusCode int
	Type       string
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("anthropic API error (status %d, %s): %s", e.StatusCode, e.Type, e.Message)
}

// Client talks to the Anthropic messages API. It satisfies ports.Completer
// for both text-only and vision prompts.
type Client struct {
	apiKey     string
	apiURL     string
	httpClient *http.Client
}

// New creates a client. An empty apiKey falls back to ANTHROPIC_API_KEY.
func New(apiKey string) *Client {
	if apiKey == "" {
		apiKey = os.Getenv("ANTHROPIC_API_KEY")
	}
	return &Client{
		apiKey: apiKey,
		apiURL: defaultAPIURL,
		httpClient: &http.Client{
			Timeout: requestTimeout,
		},
	}
}

type apiRequest struct {
	Model     string       `json:"model"`
	MaxTokens int          `json:"max_tokens"`
	System    string       `json:"system,omitempty"`
	Messages  []apiMessage `json:"messages"`
}

type apiMessage struct {
	Role    string       `json:"role"`
	Content []apiContent `json:"content"`
}

type apiContent struct {
	Type   string          `json:"type"`
	Text   string          `json:"text,omitempty"`
	Source *apiImageSource `json:"source,omitempty"`
}

type apiImageSource struct {
	Type      string `json:"type"`
	MediaType string `json:"media_type"`
	Data      string `json:"data"`
}

type apiResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// Complete sends the request parts as a single user message and returns the
// concatenated text of the response.
func (c *Client) Complete(ctx context.Context, req ports.CompletionRequest) (string, error) {
	if c.apiKey == "" {
		return "", errors.New("anthropic API key not set (ANTHROPIC_API_KEY)")
	}

	content := make([]apiContent, 0, len(req.Parts))
	for _, part := range req.Parts {
		if part.IsImage() {
			content = append(content, apiContent{
				Type: "image",
				Source: &apiImageSource{
					Type:      "base64",
					MediaType: part.ImageMediaType,
					Data:      part.ImageData,
				},
			})
		} else {
			content = append(content, apiContent{Type: "text", Text: part.Text})
		}
	}

	body, err := json.Marshal(apiRequest{
		Model:     req.Model,
		MaxTokens: req.MaxTokens,
		System:    req.System,
		Messages:  []apiMessage{{Role: "user", Content: content}},
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("x-api-key", c.apiKey)
	httpReq.Header.Set("anthropic-version", apiVersion)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	var apiResp apiResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		if resp.StatusCode != http.StatusOK {
			return "", &APIError{StatusCode: resp.StatusCode, Type: "unknown", Message: string(respBody)}
		}
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		apiErr := &APIError{StatusCode: resp.StatusCode, Type: "unknown"}
		if apiResp.Error != nil {
			apiErr.Type = apiResp.Error.Type
			apiErr.Message = apiResp.Error.Message
		}
		return "", apiErr
	}

	var text string
	for _, block := range apiResp.Content {
		if block.Type == "text" {
			text += block.Text
		}
	}
	if text == "" {
		return "", errors.New("empty response from completion service")
	}
	return text, nil
}

// RetryableError classifies rate limits, transient server errors, and
// connection failures as retryable. Everything else propagates unchanged.
func (c *Client) RetryableError(err error) bool {
	return IsRetryable(err)
}

// IsRetryable reports whether err is a transient service condition.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		if apiErr.StatusCode == http.StatusTooManyRequests {
			return true
		}
		if apiErr.StatusCode >= 500 && apiErr.StatusCode < 600 {
			return true
		}
		// overloaded_error arrives as 529 on some gateways; covered above.
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	// http.Client wraps dial/timeout failures in *url.Error, which
	// implements net.Error; anything else is not worth retrying.
	return false
}
