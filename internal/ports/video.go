package ports

import (
	"context"

	"github.com/benhall/vid2notes/internal/domain"
)

// FetchResult contains the result of a video download.
type FetchResult struct {
	VideoPath string
	VideoID   string
	Title     string
	Duration  float64
	Chapters  []domain.Chapter
}

// VideoSource downloads videos and their metadata.
type VideoSource interface {
	// Fetch downloads the video for url into destDir and returns its
	// location plus metadata. Failure is fatal to the run.
	Fetch(ctx context.Context, url, destDir string) (*FetchResult, error)

	// IsAvailable checks that the underlying downloader is installed.
	IsAvailable() bool
}

// TranscriptProvider fetches the time-aligned transcript for a video.
// An empty transcript is valid at this boundary; selectors that need
// transcript content reject it themselves.
type TranscriptProvider interface {
	Fetch(ctx context.Context, videoID, destDir string) (domain.Transcript, error)
}

// FrameGrabber extracts single frames from a local video file.
type FrameGrabber interface {
	// Grab writes the frame at timestamp to outPath, downscaling to
	// maxWidth if the source frame is wider. A missing output image is
	// reported as an error.
	Grab(ctx context.Context, videoPath string, timestamp float64, outPath string, maxWidth int) error

	// Duration returns the video length in seconds.
	Duration(ctx context.Context, videoPath string) (float64, error)
}

// SceneDetector derives candidate timestamps from a visual-diff signal
// over the raw video. Lower thresholds are more sensitive.
type SceneDetector interface {
	DetectScenes(ctx context.Context, videoPath string, threshold float64) ([]float64, error)
}
