package ytdlp

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/benhall/vid2notes/internal/domain"
)

// json3Track matches YouTube's json3 caption format as written by yt-dlp.
type json3Track struct {
	Events []struct {
		StartMs    float64 `json:"tStartMs"`
		DurationMs float64 `json:"dDurationMs"`
		Segs       []struct {
			UTF8 string `json:"utf8"`
		} `json:"segs"`
	} `json:"events"`
}

// TranscriptFetcher pulls caption tracks through the same yt-dlp binary
// the downloader uses.
type TranscriptFetcher struct {
	d *Downloader
}

func NewTranscriptFetcher(d *Downloader) *TranscriptFetcher {
	return &TranscriptFetcher{d: d}
}

// Fetch downloads the caption track for videoID into destDir and returns it
// as ordered transcript segments. A video with no captions yields an empty
// transcript; selectors that need transcript content reject that themselves.
func (t *TranscriptFetcher) Fetch(ctx context.Context, videoID, destDir string) (domain.Transcript, error) {
	d := t.d
	binPath := d.GetBinaryPath()
	if binPath == "" {
		return nil, domain.ErrYtDlpNotFound
	}

	if err := os.MkdirAll(destDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create destination directory: %w", err)
	}

	args := []string{
		"--no-warnings",
		"--skip-download",
		"--write-subs",
		"--write-auto-subs",
		"--sub-langs", "en.*",
		"--sub-format", "json3",
		"-o", filepath.Join(destDir, "captions"),
		"https://www.youtube.com/watch?v=" + videoID,
	}

	d.logger.Info().Str("video_id", videoID).Msg("fetching transcript")
	cmd := exec.CommandContext(ctx, binPath, args...)
	if output, err := cmd.CombinedOutput(); err != nil {
		return nil, fmt.Errorf("yt-dlp subtitle fetch failed: %s", firstLine(string(output)))
	}

	matches, err := filepath.Glob(filepath.Join(destDir, "captions*.json3"))
	if err != nil || len(matches) == 0 {
		d.logger.Warn().Str("video_id", videoID).Msg("no caption track found")
		return domain.Transcript{}, nil
	}

	data, err := os.ReadFile(matches[0])
	if err != nil {
		return nil, fmt.Errorf("reading caption track: %w", err)
	}
	transcript, err := parseJSON3(data)
	if err != nil {
		return nil, fmt.Errorf("parsing caption track: %w", err)
	}

	d.logger.Info().Int("segments", len(transcript)).Msg("transcript fetched")
	return transcript, nil
}

func parseJSON3(data []byte) (domain.Transcript, error) {
	var track json3Track
	if err := json.Unmarshal(data, &track); err != nil {
		return nil, err
	}

	transcript := make(domain.Transcript, 0, len(track.Events))
	for _, ev := range track.Events {
		var b strings.Builder
		for _, seg := range ev.Segs {
			b.WriteString(seg.UTF8)
		}
		text := strings.TrimSpace(strings.ReplaceAll(b.String(), "\n", " "))
		if text == "" {
			continue
		}
		transcript = append(transcript, domain.Segment{
			Text:     text,
			Start:    ev.StartMs / 1000,
			Duration: ev.DurationMs / 1000,
		})
	}
	return transcript, nil
}
