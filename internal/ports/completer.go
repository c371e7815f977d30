package ports

import "context"

// ContentPart is one unit of a completion prompt: either text or an
// inline base64-encoded image.
type ContentPart struct {
	Text string

	// ImageData and ImageMediaType are set for image parts.
	ImageData      string
	ImageMediaType string
}

// TextPart builds a text content part.
func TextPart(text string) ContentPart {
	return ContentPart{Text: text}
}

// ImagePart builds an inline image content part from base64 data.
func ImagePart(data, mediaType string) ContentPart {
	return ContentPart{ImageData: data, ImageMediaType: mediaType}
}

// IsImage reports whether the part carries image data.
func (p ContentPart) IsImage() bool {
	return p.ImageData != ""
}

// CompletionRequest is one call to the completion service. Parts are sent
// in order as a single user message.
type CompletionRequest struct {
	Model     string
	MaxTokens int
	System    string
	Parts     []ContentPart
}

// Completer is a text or vision completion service. It may fail with
// transient errors the caller is expected to classify and retry.
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)

	// RetryableError reports whether an error returned by Complete is a
	// transient condition worth retrying (rate limit, connection failure,
	// server error).
	RetryableError(err error) bool
}
