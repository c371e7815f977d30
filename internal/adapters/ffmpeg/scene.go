package ffmpeg

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var ptsTimePattern = regexp.MustCompile(`pts_time:([\d.]+)`)

// DetectScenes runs ffmpeg's scene-change filter at the given sensitivity
// threshold (0-1, lower is more sensitive) and returns the timestamps of
// detected changes. showinfo output arrives on stderr.
func (e *Executor) DetectScenes(ctx context.Context, videoPath string, threshold float64) ([]float64, error) {
	e.logger.Info().
		Str("video", videoPath).
		Float64("threshold", threshold).
		Msg("detecting scene changes")

	var lines []string
	args := []string{
		"-i", videoPath,
		"-vf", fmt.Sprintf("select='gt(scene,%f)',showinfo", threshold),
		"-vsync", "vfr",
		"-f", "null", "-",
	}
	runErr := e.run(ctx, args, func(line string) {
		lines = append(lines, line)
	})

	timestamps := parseSceneTimestamps(lines)

	// ffmpeg's null muxer exits non-zero for some inputs even after
	// emitting useful showinfo lines; only fail when nothing was parsed.
	if runErr != nil && len(timestamps) == 0 {
		return nil, runErr
	}

	e.logger.Info().Int("scenes", len(timestamps)).Msg("scene detection complete")
	return timestamps, nil
}

func parseSceneTimestamps(lines []string) []float64 {
	var timestamps []float64
	for _, line := range lines {
		if !strings.Contains(line, "showinfo") || !strings.Contains(line, "pts_time") {
			continue
		}
		m := ptsTimePattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		if ts, err := strconv.ParseFloat(m[1], 64); err == nil {
			timestamps = append(timestamps, ts)
		}
	}
	return timestamps
}
