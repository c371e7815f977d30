package ffmpeg

import (
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	"image/png"
	"os"
	"strconv"

	"github.com/nfnt/resize"
)

// Grab extracts the frame at timestamp into outPath as PNG. If the frame is
// wider than maxWidth it is downscaled with a Lanczos filter, preserving
// aspect ratio, to keep API token cost down without losing readability.
func (e *Executor) Grab(ctx context.Context, videoPath string, timestamp float64, outPath string, maxWidth int) error {
	args := []string{
		"-ss", strconv.FormatFloat(timestamp, 'f', 2, 64),
		"-i", videoPath,
		"-vframes", "1",
		"-q:v", "2",
		outPath,
		"-y",
	}

	// A single bad seek should not fail the whole extraction; what decides
	// success is whether an image landed at outPath.
	if err := e.run(ctx, args, nil); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		e.logger.Debug().Float64("timestamp", timestamp).Err(err).Msg("frame grab reported error")
	}

	if _, err := os.Stat(outPath); err != nil {
		return fmt.Errorf("no frame written at %.2fs: %w", timestamp, err)
	}

	if maxWidth > 0 {
		if err := downscale(outPath, maxWidth); err != nil {
			return fmt.Errorf("resizing frame at %.2fs: %w", timestamp, err)
		}
	}
	return nil
}

func downscale(path string, maxWidth int) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	img, _, err := image.Decode(f)
	f.Close()
	if err != nil {
		return fmt.Errorf("decoding frame: %w", err)
	}

	if img.Bounds().Dx() <= maxWidth {
		return nil
	}

	scaled := resize.Resize(uint(maxWidth), 0, img, resize.Lanczos3)

	out, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(out, scaled); err != nil {
		out.Close()
		return fmt.Errorf("encoding resized frame: %w", err)
	}
	return out.Close()
}
