// Package ytdlp implements the video source and transcript provider ports
// by shelling out to yt-dlp.
package ytdlp

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/rs/zerolog"

	"github.com/benhall/vid2notes/internal/domain"
	"github.com/benhall/vid2notes/internal/ports"
)

// Downloader implements ports.VideoSource and ports.TranscriptProvider
// using yt-dlp.
type Downloader struct {
	binPath string
	logger  zerolog.Logger
}

// NewDownloader creates a new yt-dlp downloader.
func NewDownloader(logger zerolog.Logger) *Downloader {
	return &Downloader{logger: logger.With().Str("component", "ytdlp").Logger()}
}

func (d *Downloader) findBinary() string {
	if path, err := exec.LookPath("yt-dlp"); err == nil {
		return path
	}
	return ""
}

// GetBinaryPath returns the resolved yt-dlp path, empty when not installed.
func (d *Downloader) GetBinaryPath() string {
	if d.binPath == "" {
		d.binPath = d.findBinary()
	}
	return d.binPath
}

// IsAvailable checks if yt-dlp is installed.
func (d *Downloader) IsAvailable() bool {
	return d.GetBinaryPath() != ""
}

var videoIDPatterns = []*regexp.Regexp{
	regexp.MustCompile(`youtu\.be/([^?&/]+)`),
	regexp.MustCompile(`youtube\.com/watch\?v=([^&]+)`),
	regexp.MustCompile(`youtube\.com/embed/([^?&/]+)`),
	regexp.MustCompile(`youtube\.com/shorts/([^?&/]+)`),
}

// ExtractVideoID pulls the video id out of a YouTube URL.
func ExtractVideoID(url string) (string, error) {
	for _, p := range videoIDPatterns {
		if m := p.FindStringSubmatch(url); m != nil {
			return m[1], nil
		}
	}
	return "", fmt.Errorf("cannot extract video ID from %q", url)
}

// videoInfo matches the fields we need from yt-dlp's JSON output.
type videoInfo struct {
	ID       string  `json:"id"`
	Title    string  `json:"title"`
	Duration float64 `json:"duration"`
	Ext      string  `json:"ext"`
	Chapters []struct {
		Title     string  `json:"title"`
		StartTime float64 `json:"start_time"`
		EndTime   float64 `json:"end_time"`
	} `json:"chapters"`
	RequestedDownloads []struct {
		Filepath string `json:"filepath"`
	} `json:"requested_downloads"`
}

// Fetch downloads the video for url into destDir and returns its location
// plus metadata including chapter markers.
func (d *Downloader) Fetch(ctx context.Context, url, destDir string) (*ports.FetchResult, error) {
	binPath := d.GetBinaryPath()
	if binPath == "" {
		return nil, domain.ErrYtDlpNotFound
	}

	if err := os.MkdirAll(destDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create destination directory: %w", err)
	}

	outputTemplate := filepath.Join(destDir, "video.%(ext)s")
	args := []string{
		"--no-warnings",
		"--print-json",
		"-f", "bestvideo[ext=mp4]+bestaudio[ext=m4a]/best[ext=mp4]/best",
		"-o", outputTemplate,
		url,
	}

	d.logger.Info().Str("url", url).Msg("downloading video")
	cmd := exec.CommandContext(ctx, binPath, args...)
	output, err := cmd.Output()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			stderr := string(exitErr.Stderr)
			if strings.Contains(stderr, "429") || strings.Contains(strings.ToLower(stderr), "rate") {
				return nil, fmt.Errorf("%w: %s", domain.ErrRateLimited, firstLine(stderr))
			}
			return nil, fmt.Errorf("yt-dlp failed: %s", firstLine(stderr))
		}
		return nil, fmt.Errorf("yt-dlp failed: %w", err)
	}

	var info videoInfo
	if err := json.Unmarshal(output, &info); err != nil {
		return nil, fmt.Errorf("failed to parse yt-dlp output: %w", err)
	}

	videoPath := filepath.Join(destDir, fmt.Sprintf("video.%s", info.Ext))
	if len(info.RequestedDownloads) > 0 && info.RequestedDownloads[0].Filepath != "" {
		videoPath = info.RequestedDownloads[0].Filepath
	}
	// yt-dlp may merge into .mkv when mp4 is unavailable.
	if _, err := os.Stat(videoPath); err != nil {
		if matches, _ := filepath.Glob(filepath.Join(destDir, "video.*")); len(matches) > 0 {
			videoPath = matches[0]
		}
	}

	chapters := make([]domain.Chapter, 0, len(info.Chapters))
	for _, ch := range info.Chapters {
		chapters = append(chapters, domain.Chapter{
			Title:     ch.Title,
			StartTime: ch.StartTime,
			EndTime:   ch.EndTime,
		})
	}

	d.logger.Info().
		Str("video", videoPath).
		Float64("duration", info.Duration).
		Int("chapters", len(chapters)).
		Msg("video downloaded")

	return &ports.FetchResult{
		VideoPath: videoPath,
		VideoID:   info.ID,
		Title:     info.Title,
		Duration:  info.Duration,
		Chapters:  chapters,
	}, nil
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
