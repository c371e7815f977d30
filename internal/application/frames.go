package application

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/benhall/vid2notes/internal/domain"
	"github.com/benhall/vid2notes/internal/ports"
)

// ExtractFrames grabs one image per selection, in input order. A failed
// grab is logged and skipped; failures shrink the result but never reorder
// it. Callers persist the returned list even when some grabs failed and
// decide whether an empty result is fatal.
func ExtractFrames(
	ctx context.Context,
	grabber ports.FrameGrabber,
	videoPath string,
	selections []domain.Selection,
	framesDir string,
	maxWidth int,
	logger zerolog.Logger,
) ([]domain.Frame, error) {
	if err := os.MkdirAll(framesDir, 0755); err != nil {
		return nil, fmt.Errorf("creating frames directory: %w", err)
	}

	frames := make([]domain.Frame, 0, len(selections))

	for i, sel := range selections {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		outPath := filepath.Join(framesDir, fmt.Sprintf("frame_%04d_%.2fs.png", i, sel.Timestamp))
		if err := grabber.Grab(ctx, videoPath, sel.Timestamp, outPath, maxWidth); err != nil {
			logger.Warn().
				Int("frame", i+1).
				Int("of", len(selections)).
				Float64("timestamp", sel.Timestamp).
				Err(err).
				Msg("frame grab failed, skipping")
			continue
		}

		frames = append(frames, domain.Frame{
			Timestamp: sel.Timestamp,
			Path:      outPath,
			Reason:    sel.Reason,
		})
		logger.Info().
			Int("frame", i+1).
			Int("of", len(selections)).
			Float64("timestamp", sel.Timestamp).
			Str("path", filepath.Base(outPath)).
			Msg("frame extracted")
	}

	return frames, nil
}
