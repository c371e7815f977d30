package domain

// State identifies how far the extraction pipeline has progressed for one
// video. It is persisted alongside each checkpoint artifact and is the
// single source of truth when resuming: a stage runs only if the recorded
// state has not passed it yet.
type State string

const (
	StateInit              State = "init"
	StateDownloaded        State = "downloaded"
	StateTranscriptFetched State = "transcript_fetched"
	StateFramesSelected    State = "frames_selected"
	StateFramesExtracted   State = "frames_extracted"
	StateDescribing        State = "describing"
	StateCompleted         State = "completed"
	StateFailed            State = "failed"
)

// stateOrder gives each non-terminal state a rank so progress comparisons
// are explicit. Failed is deliberately absent: a failed run resumes from
// whatever stage last committed, not from the failure marker.
var stateOrder = map[State]int{
	StateInit:              0,
	StateDownloaded:        1,
	StateTranscriptFetched: 2,
	StateFramesSelected:    3,
	StateFramesExtracted:   4,
	StateDescribing:        5,
	StateCompleted:         6,
}

// AtLeast reports whether s has reached or passed other.
func (s State) AtLeast(other State) bool {
	a, ok := stateOrder[s]
	if !ok {
		return false
	}
	b := stateOrder[other]
	return a >= b
}

// Valid reports whether s is a known pipeline state.
func (s State) Valid() bool {
	if s == StateFailed {
		return true
	}
	_, ok := stateOrder[s]
	return ok
}
