package domain

import "time"

// Session is the final aggregate record for one processed video, written
// once at successful pipeline completion.
type Session struct {
	VideoID           string     `json:"video_id"`
	URL               string     `json:"url"`
	Title             string     `json:"title"`
	Duration          float64    `json:"duration"`
	ExtractedAt       time.Time  `json:"extracted_at"`
	FrameCount        int        `json:"frame_count"`
	Transcript        Transcript `json:"transcript"`
	FrameDescriptions []string   `json:"frame_descriptions"`
	Frames            []Frame    `json:"frames"`
}

// SessionSummary is the listing view of a session.
type SessionSummary struct {
	SessionID   string    `json:"session_id"`
	Title       string    `json:"title"`
	URL         string    `json:"url"`
	Duration    float64   `json:"duration"`
	Frames      int       `json:"frames"`
	ExtractedAt time.Time `json:"extracted_at"`
}

// Query is one answered question against a session, appended to the
// session's query log.
type Query struct {
	Question       string   `json:"question"`
	ContextSources []string `json:"context_sources"`
	Answer         string   `json:"answer"`
}
