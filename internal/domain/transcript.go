package domain

import (
	"fmt"
	"strings"
)

// Segment represents one unit of time-aligned spoken text.
type Segment struct {
	Text     string  `json:"text"`
	Start    float64 `json:"start"`
	Duration float64 `json:"duration"`
}

// Transcript is the ordered list of segments for one video.
type Transcript []Segment

// Duration returns the end time of the last segment, in seconds.
func (t Transcript) Duration() float64 {
	if len(t) == 0 {
		return 0
	}
	last := t[len(t)-1]
	return last.Start + last.Duration
}

// ToText returns the plain text concatenation of all segments.
func (t Transcript) ToText() string {
	parts := make([]string, 0, len(t))
	for _, seg := range t {
		parts = append(parts, strings.TrimSpace(seg.Text))
	}
	return strings.Join(parts, " ")
}

// Window returns the concatenated text of all segments whose start lies
// within `window` seconds of `timestamp`, in transcript order.
func (t Transcript) Window(timestamp, window float64) string {
	var parts []string
	for _, seg := range t {
		if seg.Start >= timestamp-window && seg.Start <= timestamp+window {
			parts = append(parts, seg.Text)
		}
	}
	return strings.TrimSpace(strings.Join(parts, " "))
}

// Chapter is a named time range within the video, typically author-supplied.
type Chapter struct {
	Title     string  `json:"title"`
	StartTime float64 `json:"start_time"`
	EndTime   float64 `json:"end_time"`
}

// FormatTimestamp renders seconds as M:SS for prompts and logs.
func FormatTimestamp(seconds float64) string {
	mm := int(seconds) / 60
	ss := int(seconds) % 60
	return fmt.Sprintf("%d:%02d", mm, ss)
}
