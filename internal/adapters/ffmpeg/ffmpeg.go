// Package ffmpeg shells out to ffmpeg/ffprobe for frame grabs, scene-change
// detection, and duration probing.
package ffmpeg

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os/exec"

	"github.com/rs/zerolog"

	"github.com/benhall/vid2notes/internal/domain"
)

// Executor handles all ffmpeg operations.
type Executor struct {
	logger      zerolog.Logger
	ffmpegPath  string
	ffprobePath string
}

// New locates the ffmpeg and ffprobe binaries and returns an executor.
func New(logger zerolog.Logger) (*Executor, error) {
	ffmpegPath, err := exec.LookPath("ffmpeg")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrFFmpegNotFound, err)
	}

	ffprobePath, err := exec.LookPath("ffprobe")
	if err != nil {
		return nil, fmt.Errorf("%w: ffprobe: %v", domain.ErrFFmpegNotFound, err)
	}

	return &Executor{
		logger:      logger.With().Str("component", "ffmpeg").Logger(),
		ffmpegPath:  ffmpegPath,
		ffprobePath: ffprobePath,
	}, nil
}

// run executes ffmpeg with args, streaming stderr lines to lineHandler.
// ffmpeg writes diagnostics (including showinfo output) to stderr.
func (e *Executor) run(ctx context.Context, args []string, lineHandler func(line string)) error {
	e.logger.Debug().Strs("args", args).Msg("executing ffmpeg")

	cmd := exec.CommandContext(ctx, e.ffmpegPath, args...)

	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("failed to create stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start ffmpeg: %w", err)
	}

	scanner := bufio.NewScanner(stderr)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		if lineHandler != nil {
			lineHandler(scanner.Text())
		}
	}

	if err := cmd.Wait(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("ffmpeg execution failed: %w", err)
	}
	return nil
}

// capture executes ffprobe with args and returns its stdout.
func (e *Executor) capture(ctx context.Context, args []string) (string, error) {
	cmd := exec.CommandContext(ctx, e.ffprobePath, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("ffprobe failed: %w (%s)", err, bytes.TrimSpace(stderr.Bytes()))
	}
	return stdout.String(), nil
}
