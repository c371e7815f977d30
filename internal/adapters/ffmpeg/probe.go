package ffmpeg

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

// Duration returns the video length in seconds using ffprobe.
func (e *Executor) Duration(ctx context.Context, videoPath string) (float64, error) {
	out, err := e.capture(ctx, []string{
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		videoPath,
	})
	if err != nil {
		return 0, err
	}

	duration, err := strconv.ParseFloat(strings.TrimSpace(out), 64)
	if err != nil {
		return 0, fmt.Errorf("unexpected ffprobe duration output %q: %w", strings.TrimSpace(out), err)
	}
	return duration, nil
}
