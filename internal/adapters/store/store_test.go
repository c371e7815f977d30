package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"

	"github.com/benhall/vid2notes/internal/domain"
	"github.com/benhall/vid2notes/internal/ports"
)

func newTestStore() *Store {
	return NewWithFs(afero.NewMemMapFs(), "/sessions", zerolog.Nop())
}

func TestStateDefaultsToInit(t *testing.T) {
	s := newTestStore()
	state, err := s.State(context.Background(), "vid1")
	if err != nil {
		t.Fatalf("State() error = %v", err)
	}
	if state != domain.StateInit {
		t.Errorf("State() = %v, want init", state)
	}
}

func TestArtifactWritesCommitState(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()

	if err := s.SaveVideo(ctx, "vid1", &ports.FetchResult{
		VideoPath: "/sessions/vid1/video.mp4",
		VideoID:   "vid1",
		Title:     "Intro to Trading",
		Duration:  900,
		Chapters:  []domain.Chapter{{Title: "Setup", StartTime: 0, EndTime: 300}},
	}); err != nil {
		t.Fatalf("SaveVideo() error = %v", err)
	}
	assertState(t, s, "vid1", domain.StateDownloaded)

	if err := s.SaveTranscript(ctx, "vid1", domain.Transcript{{Text: "hi", Start: 0, Duration: 2}}); err != nil {
		t.Fatalf("SaveTranscript() error = %v", err)
	}
	assertState(t, s, "vid1", domain.StateTranscriptFetched)

	if err := s.SaveSelections(ctx, "vid1", []domain.Selection{{Timestamp: 50, Reason: "chart"}}); err != nil {
		t.Fatalf("SaveSelections() error = %v", err)
	}
	assertState(t, s, "vid1", domain.StateFramesSelected)

	if err := s.SaveFrames(ctx, "vid1", []domain.Frame{{Timestamp: 50, Path: "frames/frame_0000_50.00s.png", Reason: "chart"}}); err != nil {
		t.Fatalf("SaveFrames() error = %v", err)
	}
	assertState(t, s, "vid1", domain.StateFramesExtracted)
}

func assertState(t *testing.T, s *Store, videoID string, want domain.State) {
	t.Helper()
	state, err := s.State(context.Background(), videoID)
	if err != nil {
		t.Fatalf("State() error = %v", err)
	}
	if state != want {
		t.Errorf("State() = %v, want %v", state, want)
	}
}

func TestLoadArtifactsRoundTrip(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()

	video := &ports.FetchResult{VideoPath: "/v.mp4", VideoID: "vid1", Title: "T", Duration: 120}
	transcript := domain.Transcript{{Text: "a", Start: 0, Duration: 1}, {Text: "b", Start: 1, Duration: 2}}
	frames := []domain.Frame{{Timestamp: 10, Path: "p1"}, {Timestamp: 20, Path: "p2", Reason: "r"}}

	if err := s.SaveVideo(ctx, "vid1", video); err != nil {
		t.Fatal(err)
	}
	if err := s.SaveTranscript(ctx, "vid1", transcript); err != nil {
		t.Fatal(err)
	}
	if err := s.SaveFrames(ctx, "vid1", frames); err != nil {
		t.Fatal(err)
	}

	gotVideo, err := s.LoadVideo(ctx, "vid1")
	if err != nil || gotVideo.Title != "T" || gotVideo.Duration != 120 {
		t.Errorf("LoadVideo() = %+v, %v", gotVideo, err)
	}
	gotTranscript, err := s.LoadTranscript(ctx, "vid1")
	if err != nil || len(gotTranscript) != 2 || gotTranscript[1].Text != "b" {
		t.Errorf("LoadTranscript() = %+v, %v", gotTranscript, err)
	}
	gotFrames, err := s.LoadFrames(ctx, "vid1")
	if err != nil || len(gotFrames) != 2 || gotFrames[1].Reason != "r" {
		t.Errorf("LoadFrames() = %+v, %v", gotFrames, err)
	}
}

func TestLoadMissingCheckpoint(t *testing.T) {
	s := newTestStore()
	_, err := s.LoadTranscript(context.Background(), "nope")
	if !errors.Is(err, domain.ErrMissingCheckpoint) {
		t.Errorf("LoadTranscript() error = %v, want ErrMissingCheckpoint", err)
	}
	_, err = s.LoadFrames(context.Background(), "nope")
	if !errors.Is(err, domain.ErrMissingCheckpoint) {
		t.Errorf("LoadFrames() error = %v, want ErrMissingCheckpoint", err)
	}
}

func TestProgressLogAppendLoadDelete(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()

	got, err := s.LoadProgress(ctx, "vid1")
	if err != nil || got != nil {
		t.Fatalf("LoadProgress() on empty = %v, %v", got, err)
	}

	descriptions := []string{"batch one text", "batch two\nwith a newline", `batch "three"`}
	for _, d := range descriptions {
		if err := s.AppendDescription(ctx, "vid1", d); err != nil {
			t.Fatalf("AppendDescription() error = %v", err)
		}
	}
	assertState(t, s, "vid1", domain.StateDescribing)

	got, err = s.LoadProgress(ctx, "vid1")
	if err != nil {
		t.Fatalf("LoadProgress() error = %v", err)
	}
	if len(got) != len(descriptions) {
		t.Fatalf("LoadProgress() = %d entries, want %d", len(got), len(descriptions))
	}
	for i := range descriptions {
		if got[i] != descriptions[i] {
			t.Errorf("progress[%d] = %q, want %q", i, got[i], descriptions[i])
		}
	}

	if err := s.DeleteProgress(ctx, "vid1"); err != nil {
		t.Fatalf("DeleteProgress() error = %v", err)
	}
	got, err = s.LoadProgress(ctx, "vid1")
	if err != nil || got != nil {
		t.Errorf("LoadProgress() after delete = %v, %v", got, err)
	}
	// Deleting twice is fine.
	if err := s.DeleteProgress(ctx, "vid1"); err != nil {
		t.Errorf("second DeleteProgress() error = %v", err)
	}
}

func TestSessionSaveLoadList(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()

	if s.SessionExists(ctx, "vid1") {
		t.Error("SessionExists() before save")
	}
	_, err := s.LoadSession(ctx, "vid1")
	if !errors.Is(err, domain.ErrSessionNotFound) {
		t.Errorf("LoadSession() error = %v, want ErrSessionNotFound", err)
	}

	older := &domain.Session{
		VideoID:     "vid1",
		Title:       "First",
		Duration:    100,
		FrameCount:  3,
		ExtractedAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	newer := &domain.Session{
		VideoID:     "vid2",
		Title:       "Second",
		Duration:    200,
		FrameCount:  5,
		ExtractedAt: time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
	}
	if err := s.SaveSession(ctx, older); err != nil {
		t.Fatalf("SaveSession() error = %v", err)
	}
	if err := s.SaveSession(ctx, newer); err != nil {
		t.Fatalf("SaveSession() error = %v", err)
	}
	assertState(t, s, "vid1", domain.StateCompleted)

	got, err := s.LoadSession(ctx, "vid1")
	if err != nil || got.Title != "First" {
		t.Errorf("LoadSession() = %+v, %v", got, err)
	}
	if !s.SessionExists(ctx, "vid1") {
		t.Error("SessionExists() after save")
	}

	summaries, err := s.ListSessions(ctx)
	if err != nil {
		t.Fatalf("ListSessions() error = %v", err)
	}
	if len(summaries) != 2 {
		t.Fatalf("ListSessions() = %d entries, want 2", len(summaries))
	}
	if summaries[0].SessionID != "vid2" || summaries[1].SessionID != "vid1" {
		t.Errorf("ListSessions() not newest first: %+v", summaries)
	}
}

func TestListSessionsSkipsIncomplete(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()

	// A session dir with checkpoints but no final record must not list.
	if err := s.SaveTranscript(ctx, "partial", domain.Transcript{{Text: "x", Start: 0, Duration: 1}}); err != nil {
		t.Fatal(err)
	}

	summaries, err := s.ListSessions(ctx)
	if err != nil {
		t.Fatalf("ListSessions() error = %v", err)
	}
	if len(summaries) != 0 {
		t.Errorf("ListSessions() = %+v, want empty", summaries)
	}
}

func TestAppendQuery(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()

	q := domain.Query{Question: "what is the entry?", ContextSources: []string{"notes.md"}, Answer: "buy low"}
	if err := s.AppendQuery(ctx, "vid1", q); err != nil {
		t.Fatalf("AppendQuery() error = %v", err)
	}
	if err := s.AppendQuery(ctx, "vid1", domain.Query{Question: "q2", Answer: "a2"}); err != nil {
		t.Fatalf("AppendQuery() error = %v", err)
	}

	data, err := afero.ReadFile(s.fs, s.path("vid1", queriesFile))
	if err != nil {
		t.Fatal(err)
	}
	if n := len(splitNonEmptyLines(string(data))); n != 2 {
		t.Errorf("query log has %d lines, want 2", n)
	}
}

func splitNonEmptyLines(s string) []string {
	var lines []string
	start := 0
	for i := 0; i <= len(s); i++ {
		if i == len(s) || s[i] == '\n' {
			if i > start {
				lines = append(lines, s[start:i])
			}
			start = i + 1
		}
	}
	return lines
}
