package domain

import "errors"

var (
	// Remote service errors
	ErrRateLimited = errors.New("rate limited by completion service")
	ErrTransient   = errors.New("transient service failure")

	// Pipeline errors
	ErrNoFrames        = errors.New("no frames extracted from video")
	ErrEmptyTranscript = errors.New("transcript is empty")

	// Checkpoint and session errors
	ErrMissingCheckpoint = errors.New("checkpoint artifact missing - run a full extraction first")
	ErrSessionNotFound   = errors.New("session not found")

	// Dependency errors
	ErrFFmpegNotFound = errors.New("ffmpeg not found in PATH")
	ErrYtDlpNotFound  = errors.New("yt-dlp not found in PATH")
)
