package ports

import (
	"context"

	"github.com/benhall/vid2notes/internal/domain"
)

// SessionStore persists per-video checkpoint artifacts and the final
// session record under an explicit storage root. The pipeline state enum
// is committed together with each artifact write and is the single source
// of truth on resume.
type SessionStore interface {
	// SessionDir returns the directory holding all artifacts for videoID.
	SessionDir(videoID string) string

	// State returns the recorded pipeline state, StateInit if none.
	State(ctx context.Context, videoID string) (domain.State, error)
	SetState(ctx context.Context, videoID string, state domain.State) error

	// Checkpoint artifacts. Each Save also advances the recorded state.
	SaveVideo(ctx context.Context, videoID string, result *FetchResult) error
	LoadVideo(ctx context.Context, videoID string) (*FetchResult, error)

	SaveTranscript(ctx context.Context, videoID string, transcript domain.Transcript) error
	LoadTranscript(ctx context.Context, videoID string) (domain.Transcript, error)

	SaveSelections(ctx context.Context, videoID string, selections []domain.Selection) error
	LoadSelections(ctx context.Context, videoID string) ([]domain.Selection, error)

	SaveFrames(ctx context.Context, videoID string, frames []domain.Frame) error
	LoadFrames(ctx context.Context, videoID string) ([]domain.Frame, error)

	// FramesDir returns the directory frames are extracted into.
	FramesDir(videoID string) string

	// Incremental description progress: one JSON-encoded string per line,
	// appended and flushed durably before the next batch begins.
	AppendDescription(ctx context.Context, videoID string, description string) error
	LoadProgress(ctx context.Context, videoID string) ([]string, error)
	DeleteProgress(ctx context.Context, videoID string) error

	// Final aggregate record, written atomically at completion.
	SaveSession(ctx context.Context, session *domain.Session) error
	LoadSession(ctx context.Context, videoID string) (*domain.Session, error)
	SessionExists(ctx context.Context, videoID string) bool
	ListSessions(ctx context.Context) ([]domain.SessionSummary, error)

	// AppendQuery records an answered question against a session.
	AppendQuery(ctx context.Context, videoID string, query domain.Query) error

	// Delete removes every artifact for videoID.
	Delete(ctx context.Context, videoID string) error
}
