// Package store persists per-video checkpoint artifacts under an explicit
// storage root. Every artifact write commits the matching pipeline state in
// the same call, so the recorded state never claims more progress than the
// artifacts can back.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"

	"github.com/benhall/vid2notes/internal/domain"
	"github.com/benhall/vid2notes/internal/ports"
)

const (
	stateFile      = "state.json"
	videoFile      = "video.json"
	transcriptFile = "transcript.json"
	chaptersFile   = "chapters.json"
	selectionsFile = "selections.json"
	framesFile     = "frames.json"
	progressFile   = "descriptions.progress"
	sessionFile    = "session.json"
	queriesFile    = "queries.jsonl"
	framesDirName  = "frames"
)

// Store is a filesystem-backed ports.SessionStore.
type Store struct {
	fs     afero.Fs
	root   string
	logger zerolog.Logger
}

// New creates a store rooted at root on the OS filesystem.
func New(root string, logger zerolog.Logger) *Store {
	return NewWithFs(afero.NewOsFs(), root, logger)
}

// NewWithFs creates a store on an arbitrary filesystem, used by tests.
func NewWithFs(fs afero.Fs, root string, logger zerolog.Logger) *Store {
	return &Store{
		fs:     fs,
		root:   root,
		logger: logger.With().Str("component", "store").Logger(),
	}
}

// SessionDir returns the directory holding all artifacts for videoID.
func (s *Store) SessionDir(videoID string) string {
	return filepath.Join(s.root, videoID)
}

// FramesDir returns the directory frames are extracted into.
func (s *Store) FramesDir(videoID string) string {
	return filepath.Join(s.SessionDir(videoID), framesDirName)
}

func (s *Store) path(videoID, name string) string {
	return filepath.Join(s.SessionDir(videoID), name)
}

func (s *Store) writeJSON(videoID, name string, v any) error {
	if err := s.fs.MkdirAll(s.SessionDir(videoID), 0755); err != nil {
		return fmt.Errorf("creating session directory: %w", err)
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling %s: %w", name, err)
	}
	if err := afero.WriteFile(s.fs, s.path(videoID, name), data, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", name, err)
	}
	return nil
}

func (s *Store) readJSON(videoID, name string, v any) error {
	data, err := afero.ReadFile(s.fs, s.path(videoID, name))
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", domain.ErrMissingCheckpoint, name)
		}
		return fmt.Errorf("reading %s: %w", name, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parsing %s: %w", name, err)
	}
	return nil
}

// State returns the recorded pipeline state, StateInit if none is recorded.
func (s *Store) State(ctx context.Context, videoID string) (domain.State, error) {
	var rec struct {
		State domain.State `json:"state"`
	}
	if err := s.readJSON(videoID, stateFile, &rec); err != nil {
		if errors.Is(err, domain.ErrMissingCheckpoint) {
			return domain.StateInit, nil
		}
		return domain.StateInit, err
	}
	if !rec.State.Valid() {
		return domain.StateInit, fmt.Errorf("unknown pipeline state %q", rec.State)
	}
	return rec.State, nil
}

// SetState records the pipeline state for videoID.
func (s *Store) SetState(ctx context.Context, videoID string, state domain.State) error {
	return s.writeJSON(videoID, stateFile, map[string]domain.State{"state": state})
}

// SaveVideo stores download metadata (including chapters) and advances the
// state to downloaded.
func (s *Store) SaveVideo(ctx context.Context, videoID string, result *ports.FetchResult) error {
	if err := s.writeJSON(videoID, videoFile, result); err != nil {
		return err
	}
	if err := s.writeJSON(videoID, chaptersFile, result.Chapters); err != nil {
		return err
	}
	return s.SetState(ctx, videoID, domain.StateDownloaded)
}

// LoadVideo reads download metadata back.
func (s *Store) LoadVideo(ctx context.Context, videoID string) (*ports.FetchResult, error) {
	var result ports.FetchResult
	if err := s.readJSON(videoID, videoFile, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// SaveTranscript stores the transcript and advances the state.
func (s *Store) SaveTranscript(ctx context.Context, videoID string, transcript domain.Transcript) error {
	if err := s.writeJSON(videoID, transcriptFile, transcript); err != nil {
		return err
	}
	return s.SetState(ctx, videoID, domain.StateTranscriptFetched)
}

// LoadTranscript reads the transcript checkpoint back.
func (s *Store) LoadTranscript(ctx context.Context, videoID string) (domain.Transcript, error) {
	var transcript domain.Transcript
	if err := s.readJSON(videoID, transcriptFile, &transcript); err != nil {
		return nil, err
	}
	return transcript, nil
}

// SaveSelections stores the committed selections and advances the state.
func (s *Store) SaveSelections(ctx context.Context, videoID string, selections []domain.Selection) error {
	if err := s.writeJSON(videoID, selectionsFile, selections); err != nil {
		return err
	}
	return s.SetState(ctx, videoID, domain.StateFramesSelected)
}

// LoadSelections reads the selections checkpoint back.
func (s *Store) LoadSelections(ctx context.Context, videoID string) ([]domain.Selection, error) {
	var selections []domain.Selection
	if err := s.readJSON(videoID, selectionsFile, &selections); err != nil {
		return nil, err
	}
	return selections, nil
}

// SaveFrames stores the extracted frame metadata and advances the state.
// The list is written even when some grabs failed.
func (s *Store) SaveFrames(ctx context.Context, videoID string, frames []domain.Frame) error {
	if err := s.fs.MkdirAll(s.FramesDir(videoID), 0755); err != nil {
		return fmt.Errorf("creating frames directory: %w", err)
	}
	if err := s.writeJSON(videoID, filepath.Join(framesDirName, framesFile), frames); err != nil {
		return err
	}
	return s.SetState(ctx, videoID, domain.StateFramesExtracted)
}

// LoadFrames reads the frame metadata checkpoint back, verbatim.
func (s *Store) LoadFrames(ctx context.Context, videoID string) ([]domain.Frame, error) {
	var frames []domain.Frame
	if err := s.readJSON(videoID, filepath.Join(framesDirName, framesFile), &frames); err != nil {
		return nil, err
	}
	return frames, nil
}

// AppendDescription appends one completed batch description to the progress
// log and flushes it durably before returning. The first append also moves
// the state to describing.
func (s *Store) AppendDescription(ctx context.Context, videoID string, description string) error {
	if err := s.SetState(ctx, videoID, domain.StateDescribing); err != nil {
		return err
	}

	line, err := json.Marshal(description)
	if err != nil {
		return fmt.Errorf("encoding description: %w", err)
	}

	f, err := s.fs.OpenFile(s.path(videoID, progressFile), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("opening progress log: %w", err)
	}
	if _, err := f.Write(append(line, '\n')); err != nil {
		f.Close()
		return fmt.Errorf("appending to progress log: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return fmt.Errorf("flushing progress log: %w", err)
	}
	return f.Close()
}

// LoadProgress returns the descriptions completed so far, in batch order.
// A missing progress log means no batches have completed.
func (s *Store) LoadProgress(ctx context.Context, videoID string) ([]string, error) {
	data, err := afero.ReadFile(s.fs, s.path(videoID, progressFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading progress log: %w", err)
	}

	var descriptions []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		var desc string
		if err := json.Unmarshal([]byte(line), &desc); err != nil {
			return nil, fmt.Errorf("corrupt progress log line: %w", err)
		}
		descriptions = append(descriptions, desc)
	}
	return descriptions, nil
}

// DeleteProgress removes the progress log once it is superseded by the
// final session record.
func (s *Store) DeleteProgress(ctx context.Context, videoID string) error {
	err := s.fs.Remove(s.path(videoID, progressFile))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// SaveSession writes the final aggregate record atomically (temp file, then
// rename) and marks the pipeline completed.
func (s *Store) SaveSession(ctx context.Context, session *domain.Session) error {
	videoID := session.VideoID
	if err := s.fs.MkdirAll(s.SessionDir(videoID), 0755); err != nil {
		return fmt.Errorf("creating session directory: %w", err)
	}

	data, err := json.MarshalIndent(session, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling session: %w", err)
	}

	tmpPath := s.path(videoID, sessionFile+".tmp")
	if err := afero.WriteFile(s.fs, tmpPath, data, 0644); err != nil {
		return fmt.Errorf("writing session: %w", err)
	}
	if err := s.fs.Rename(tmpPath, s.path(videoID, sessionFile)); err != nil {
		return fmt.Errorf("committing session: %w", err)
	}

	return s.SetState(ctx, videoID, domain.StateCompleted)
}

// LoadSession loads a completed session, ErrSessionNotFound if absent.
func (s *Store) LoadSession(ctx context.Context, videoID string) (*domain.Session, error) {
	data, err := afero.ReadFile(s.fs, s.path(videoID, sessionFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", domain.ErrSessionNotFound, videoID)
		}
		return nil, fmt.Errorf("reading session: %w", err)
	}
	var session domain.Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("parsing session: %w", err)
	}
	return &session, nil
}

// SessionExists reports whether videoID has a completed session.
func (s *Store) SessionExists(ctx context.Context, videoID string) bool {
	ok, err := afero.Exists(s.fs, s.path(videoID, sessionFile))
	return err == nil && ok
}

// ListSessions returns summaries for all completed sessions, newest first.
// Unreadable entries are skipped.
func (s *Store) ListSessions(ctx context.Context) ([]domain.SessionSummary, error) {
	entries, err := afero.ReadDir(s.fs, s.root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading storage root: %w", err)
	}

	var summaries []domain.SessionSummary
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		session, err := s.LoadSession(ctx, entry.Name())
		if err != nil {
			continue
		}
		summaries = append(summaries, domain.SessionSummary{
			SessionID:   session.VideoID,
			Title:       session.Title,
			URL:         session.URL,
			Duration:    session.Duration,
			Frames:      session.FrameCount,
			ExtractedAt: session.ExtractedAt,
		})
	}

	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].ExtractedAt.After(summaries[j].ExtractedAt)
	})
	return summaries, nil
}

// AppendQuery records an answered question in the session's query log.
func (s *Store) AppendQuery(ctx context.Context, videoID string, query domain.Query) error {
	if err := s.fs.MkdirAll(s.SessionDir(videoID), 0755); err != nil {
		return fmt.Errorf("creating session directory: %w", err)
	}

	line, err := json.Marshal(query)
	if err != nil {
		return fmt.Errorf("encoding query: %w", err)
	}

	f, err := s.fs.OpenFile(s.path(videoID, queriesFile), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("opening query log: %w", err)
	}
	if _, err := f.Write(append(line, '\n')); err != nil {
		f.Close()
		return fmt.Errorf("appending to query log: %w", err)
	}
	return f.Close()
}

// Delete removes every artifact for videoID.
func (s *Store) Delete(ctx context.Context, videoID string) error {
	return s.fs.RemoveAll(s.SessionDir(videoID))
}
