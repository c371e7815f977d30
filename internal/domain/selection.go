package domain

// Selection is a committed (timestamp, reason) pair: a moment of the video
// the pipeline has decided to capture. Before validation and spacing the
// same shape is referred to as a candidate.
type Selection struct {
	Timestamp float64 `json:"timestamp"`
	Reason    string  `json:"reason"`
}

// Frame is one successfully extracted image with its source timestamp.
type Frame struct {
	Timestamp float64 `json:"timestamp"`
	Path      string  `json:"path"`
	Reason    string  `json:"reason,omitempty"`
}
