package application

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/benhall/vid2notes/internal/config"
	"github.com/benhall/vid2notes/internal/describe"
	"github.com/benhall/vid2notes/internal/domain"
	"github.com/benhall/vid2notes/internal/ports"
	"github.com/benhall/vid2notes/internal/selection"
)

// Mode chooses how timestamps are selected for a run.
type Mode string

const (
	// ModeFrames asks a completion model to pick visually important
	// moments from the transcript. This is the default path.
	ModeFrames Mode = "frames"
	// ModeSlides asks for complete, standalone visuals instead, with a
	// smaller cap and wider spacing.
	ModeSlides Mode = "slides"
	// ModeScene uses the visual-diff signal over the raw video and needs
	// no transcript or completion model for selection.
	ModeScene Mode = "scene"
)

// ExtractRequest describes one pipeline run.
type ExtractRequest struct {
	URL     string
	VideoID string
	Mode    Mode

	// Resume continues an interrupted run from its recorded state instead
	// of starting over. It requires at least one committed checkpoint.
	Resume bool
	// Force discards any existing artifacts for the video first.
	Force bool

	// SceneThreshold and SceneMinInterval override the configured values
	// for ModeScene when non-zero.
	SceneThreshold   float64
	SceneMinInterval float64
}

// PipelineService sequences download, transcript fetch, timestamp
// selection, frame extraction, and description into a final session
// record. Every stage commits its artifact and the advanced state enum
// together, so an interrupted run can be resumed from the last stage
// that finished.
type PipelineService struct {
	store       ports.SessionStore
	source      ports.VideoSource
	transcripts ports.TranscriptProvider
	grabber     ports.FrameGrabber
	selector    *selection.TranscriptSelector
	scenes      *selection.SceneSelector
	describer   *describe.Describer
	cfg         *config.Config
	logger      zerolog.Logger
}

func NewPipelineService(
	store ports.SessionStore,
	source ports.VideoSource,
	transcripts ports.TranscriptProvider,
	grabber ports.FrameGrabber,
	selector *selection.TranscriptSelector,
	scenes *selection.SceneSelector,
	describer *describe.Describer,
	cfg *config.Config,
	logger zerolog.Logger,
) *PipelineService {
	return &PipelineService{
		store:       store,
		source:      source,
		transcripts: transcripts,
		grabber:     grabber,
		selector:    selector,
		scenes:      scenes,
		describer:   describer,
		cfg:         cfg,
		logger:      logger.With().Str("component", "pipeline").Logger(),
	}
}

// Extract runs the pipeline for one video and returns the final session.
// If a completed session already exists and neither Resume nor Force is
// set, the stored session is returned untouched.
func (s *PipelineService) Extract(ctx context.Context, req ExtractRequest) (*domain.Session, error) {
	logger := s.logger.With().
		Str("run_id", uuid.NewString()).
		Str("video_id", req.VideoID).
		Str("mode", string(req.Mode)).
		Logger()

	if req.Force {
		if err := s.store.Delete(ctx, req.VideoID); err != nil {
			return nil, fmt.Errorf("clearing existing artifacts: %w", err)
		}
	} else if s.store.SessionExists(ctx, req.VideoID) {
		logger.Info().Msg("session already extracted, returning stored record")
		return s.store.LoadSession(ctx, req.VideoID)
	}

	state := domain.StateInit
	if req.Resume {
		recorded, err := s.store.State(ctx, req.VideoID)
		if err != nil {
			return nil, fmt.Errorf("reading pipeline state: %w", err)
		}
		if !recorded.AtLeast(domain.StateDownloaded) {
			return nil, fmt.Errorf("resume requested for %s: %w", req.VideoID, domain.ErrMissingCheckpoint)
		}
		state = recorded
		logger.Info().Str("state", string(state)).Msg("resuming from recorded state")
	}

	video, err := s.stageDownload(ctx, req, state, logger)
	if err != nil {
		return nil, s.fail(logger, "download", err)
	}

	transcript, err := s.stageTranscript(ctx, req, state, logger)
	if err != nil {
		return nil, s.fail(logger, "transcript", err)
	}

	selections, err := s.stageSelect(ctx, req, state, video, transcript, logger)
	if err != nil {
		return nil, s.fail(logger, "select", err)
	}

	frames, err := s.stageExtract(ctx, req, state, video, selections, logger)
	if err != nil {
		return nil, s.fail(logger, "extract", err)
	}

	descriptions, err := s.stageDescribe(ctx, req, transcript, frames, logger)
	if err != nil {
		return nil, s.fail(logger, "describe", err)
	}

	session := &domain.Session{
		VideoID:           req.VideoID,
		URL:               req.URL,
		Title:             video.Title,
		Duration:          sessionDuration(video, transcript, frames),
		ExtractedAt:       time.Now().UTC(),
		FrameCount:        len(frames),
		Transcript:        transcript,
		FrameDescriptions: descriptions,
		Frames:            frames,
	}
	if err := s.store.SaveSession(ctx, session); err != nil {
		return nil, s.fail(logger, "finalize", err)
	}
	if err := s.store.DeleteProgress(ctx, req.VideoID); err != nil {
		logger.Warn().Err(err).Msg("progress log left behind after completion")
	}

	logger.Info().
		Int("frames", len(frames)).
		Int("descriptions", len(descriptions)).
		Msg("extraction complete")
	return session, nil
}

// fail reports the failing stage. The recorded state keeps whatever the
// last committed checkpoint was, so a later --resume picks up from there
// rather than from the failure itself.
func (s *PipelineService) fail(logger zerolog.Logger, stage string, err error) error {
	logger.Error().Str("stage", stage).Err(err).Msg("pipeline failed")
	return fmt.Errorf("%s: %w", stage, err)
}

func (s *PipelineService) stageDownload(ctx context.Context, req ExtractRequest, state domain.State, logger zerolog.Logger) (*ports.FetchResult, error) {
	if state.AtLeast(domain.StateDownloaded) {
		logger.Info().Msg("video already downloaded, loading checkpoint")
		return s.store.LoadVideo(ctx, req.VideoID)
	}

	logger.Info().Str("url", req.URL).Msg("downloading video")
	video, err := s.source.Fetch(ctx, req.URL, s.store.SessionDir(req.VideoID))
	if err != nil {
		return nil, err
	}
	if err := s.store.SaveVideo(ctx, req.VideoID, video); err != nil {
		return nil, err
	}
	return video, nil
}

func (s *PipelineService) stageTranscript(ctx context.Context, req ExtractRequest, state domain.State, logger zerolog.Logger) (domain.Transcript, error) {
	if state.AtLeast(domain.StateTranscriptFetched) {
		logger.Info().Msg("transcript already fetched, loading checkpoint")
		return s.store.LoadTranscript(ctx, req.VideoID)
	}

	transcript, err := s.transcripts.Fetch(ctx, req.VideoID, s.store.SessionDir(req.VideoID))
	if err != nil {
		return nil, err
	}
	if err := s.store.SaveTranscript(ctx, req.VideoID, transcript); err != nil {
		return nil, err
	}
	logger.Info().Int("segments", len(transcript)).Msg("transcript fetched")
	return transcript, nil
}

func (s *PipelineService) stageSelect(
	ctx context.Context,
	req ExtractRequest,
	state domain.State,
	video *ports.FetchResult,
	transcript domain.Transcript,
	logger zerolog.Logger,
) ([]domain.Selection, error) {
	if state.AtLeast(domain.StateFramesSelected) {
		logger.Info().Msg("selections already made, loading checkpoint")
		return s.store.LoadSelections(ctx, req.VideoID)
	}

	var (
		selections []domain.Selection
		err        error
	)
	switch req.Mode {
	case ModeScene:
		selections, err = s.selectByScene(ctx, req, video.VideoPath)
	case ModeSlides:
		selections, err = s.selector.SelectSlides(ctx, transcript, video.Chapters, selection.Params{
			Model:       s.cfg.Models.Selection,
			MaxItems:    s.cfg.Selection.MaxSlides,
			MinInterval: s.cfg.Selection.MinSlideInterval,
		})
	default:
		selections, err = s.selector.SelectFrames(ctx, transcript, video.Chapters, selection.Params{
			Model:       s.cfg.Models.Selection,
			MaxItems:    s.cfg.Selection.MaxFrames,
			MinInterval: s.cfg.Selection.MinFrameInterval,
		})
	}
	if err != nil {
		return nil, err
	}

	if err := s.store.SaveSelections(ctx, req.VideoID, selections); err != nil {
		return nil, err
	}
	logger.Info().Int("selections", len(selections)).Msg("timestamps selected")
	return selections, nil
}

func (s *PipelineService) selectByScene(ctx context.Context, req ExtractRequest, videoPath string) ([]domain.Selection, error) {
	p := selection.SceneParams{
		Threshold:         s.cfg.Frames.SceneThreshold,
		MinInterval:       s.cfg.Frames.MinInterval,
		FallbackThreshold: s.cfg.Selection.FallbackThreshold,
		FallbackInterval:  s.cfg.Selection.FallbackInterval,
	}
	if req.SceneThreshold > 0 {
		p.Threshold = req.SceneThreshold
	}
	if req.SceneMinInterval > 0 {
		p.MinInterval = req.SceneMinInterval
	}

	timestamps, err := s.scenes.Select(ctx, videoPath, p)
	if err != nil {
		return nil, err
	}
	selections := make([]domain.Selection, len(timestamps))
	for i, ts := range timestamps {
		selections[i] = domain.Selection{Timestamp: ts}
	}
	return selections, nil
}

func (s *PipelineService) stageExtract(
	ctx context.Context,
	req ExtractRequest,
	state domain.State,
	video *ports.FetchResult,
	selections []domain.Selection,
	logger zerolog.Logger,
) ([]domain.Frame, error) {
	if state.AtLeast(domain.StateFramesExtracted) {
		logger.Info().Msg("frames already extracted, loading checkpoint")
		return s.store.LoadFrames(ctx, req.VideoID)
	}

	frames, err := ExtractFrames(ctx, s.grabber, video.VideoPath, selections,
		s.store.FramesDir(req.VideoID), s.cfg.Frames.MaxWidth, logger)
	if err != nil {
		return nil, err
	}
	// Persist even a lossy result before judging it, so the checkpoint
	// reflects what is actually on disk.
	if err := s.store.SaveFrames(ctx, req.VideoID, frames); err != nil {
		return nil, err
	}
	if len(frames) == 0 {
		return nil, domain.ErrNoFrames
	}
	return frames, nil
}

func (s *PipelineService) stageDescribe(
	ctx context.Context,
	req ExtractRequest,
	transcript domain.Transcript,
	frames []domain.Frame,
	logger zerolog.Logger,
) ([]string, error) {
	completed, err := s.store.LoadProgress(ctx, req.VideoID)
	if err != nil {
		return nil, err
	}

	return s.describer.Describe(ctx, describe.Request{
		Frames:           frames,
		Transcript:       transcript,
		Model:            s.cfg.Models.Description,
		TranscriptWindow: s.cfg.Describe.TranscriptWindow,
		BatchSize:        s.cfg.Describe.BatchSize,
		Completed:        completed,
		OnBatch: func(ctx context.Context, desc string) error {
			return s.store.AppendDescription(ctx, req.VideoID, desc)
		},
	})
}

// sessionDuration prefers downloader metadata, then the transcript span,
// then the last extracted frame.
func sessionDuration(video *ports.FetchResult, transcript domain.Transcript, frames []domain.Frame) float64 {
	if video.Duration > 0 {
		return video.Duration
	}
	if d := transcript.Duration(); d > 0 {
		return d
	}
	if len(frames) > 0 {
		return frames[len(frames)-1].Timestamp
	}
	return 0
}
