package selection

import (
	"context"
	"fmt"
	"sort"

	"github.com/rs/zerolog"

	"github.com/benhall/vid2notes/internal/ports"
)

// SceneParams tunes the scene-change selection path.
type SceneParams struct {
	Threshold         float64
	MinInterval       float64
	FallbackThreshold int
	FallbackInterval  float64
}

// SceneSelector derives candidate timestamps from a visual-diff signal over
// the raw video. This is the legacy path, used when no transcript-driven
// selection is wanted.
type SceneSelector struct {
	detector ports.SceneDetector
	grabber  ports.FrameGrabber
	logger   zerolog.Logger
}

func NewSceneSelector(detector ports.SceneDetector, grabber ports.FrameGrabber, logger zerolog.Logger) *SceneSelector {
	return &SceneSelector{
		detector: detector,
		grabber:  grabber,
		logger:   logger.With().Str("component", "scene-selector").Logger(),
	}
}

// Select runs scene detection, spaces the raw timestamps, and pads with
// evenly spaced fallback samples when detection is too sparse. A failing
// diff signal is fatal for this stage.
func (s *SceneSelector) Select(ctx context.Context, videoPath string, p SceneParams) ([]float64, error) {
	raw, err := s.detector.DetectScenes(ctx, videoPath, p.Threshold)
	if err != nil {
		return nil, fmt.Errorf("scene detection failed: %w", err)
	}

	timestamps := ApplyMinInterval(raw, p.MinInterval)
	s.logger.Info().
		Int("raw", len(raw)).
		Int("filtered", len(timestamps)).
		Float64("min_interval", p.MinInterval).
		Msg("scene changes filtered")

	if len(timestamps) < p.FallbackThreshold {
		duration, err := s.grabber.Duration(ctx, videoPath)
		if err != nil {
			return nil, fmt.Errorf("probing duration for fallback sampling: %w", err)
		}
		if duration > 0 {
			extras := FallbackTimestamps(duration, timestamps, p.FallbackInterval)
			timestamps = append(timestamps, extras...)
			sort.Float64s(timestamps)
			s.logger.Info().
				Int("added", len(extras)).
				Float64("interval", p.FallbackInterval).
				Int("total", len(timestamps)).
				Msg("too few scene changes, padded with time-based samples")
		}
	}

	return timestamps, nil
}
