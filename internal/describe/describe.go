// Package describe sends batches of extracted frames to a vision completion
// model and collects one description per batch, checkpointing each batch as
// it completes so an interrupted run can resume without repeating work.
package describe

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/benhall/vid2notes/internal/domain"
	"github.com/benhall/vid2notes/internal/ports"
	"github.com/benhall/vid2notes/internal/retry"
)

const describeMaxTokens = 2000

const systemPrompt = "You are analyzing an instructional screen-recording video. " +
	"Charts and annotations only - no webcam. " +
	"Extract precise, actionable information from each frame."

const trailingInstructions = "For each frame above, describe concisely:\n" +
	"1. What is visible on screen - chart type, timeframe, price levels, " +
	"highlighted zones, drawn lines, annotations, candle patterns\n" +
	"2. What concept the instructor is demonstrating based on the transcript\n" +
	"3. Any specific entry/exit conditions, confirmations, or invalidations shown\n\n" +
	"Be precise - mention exact visual elements like 'red supply zone', " +
	"'wick below support closing above', 'break and retest', etc."

// Request configures one description run.
type Request struct {
	Frames     []domain.Frame
	Transcript domain.Transcript
	Model      string

	// TranscriptWindow is how many seconds of spoken context before and
	// after a frame's timestamp to include in its prompt.
	TranscriptWindow float64
	BatchSize        int

	// Completed holds descriptions from a previous interrupted run, in
	// batch order. Batches with an index below len(Completed) are skipped.
	Completed []string

	// OnBatch, if set, is called with each newly completed description and
	// must persist it durably before the next batch begins.
	OnBatch func(ctx context.Context, description string) error
}

// Describer turns frame batches into text descriptions.
type Describer struct {
	completer ports.Completer
	retry     *retry.Policy
	logger    zerolog.Logger
}

func New(completer ports.Completer, logger zerolog.Logger) *Describer {
	return &Describer{
		completer: completer,
		retry:     retry.New(completer.RetryableError, logger),
		logger:    logger.With().Str("component", "describe").Logger(),
	}
}

// BatchCount returns the total number of batches for a frame count.
func BatchCount(frameCount, batchSize int) int {
	if batchSize <= 0 || frameCount <= 0 {
		return 0
	}
	return (frameCount + batchSize - 1) / batchSize
}

// batchBounds returns the [start, end) frame range of batch i. Boundaries
// are a pure function of the frame count and batch size, so a resumed run
// always partitions identically to a fresh one.
func batchBounds(frameCount, batchSize, i int) (int, int) {
	start := i * batchSize
	end := start + batchSize
	if end > frameCount {
		end = frameCount
	}
	return start, end
}

// Describe processes every batch not already covered by req.Completed and
// returns the full ordered description list, old and new.
func (d *Describer) Describe(ctx context.Context, req Request) ([]string, error) {
	total := BatchCount(len(req.Frames), req.BatchSize)
	descriptions := append([]string(nil), req.Completed...)

	if len(descriptions) > 0 {
		d.logger.Info().
			Int("completed", len(descriptions)).
			Int("total", total).
			Msg("resuming description from progress log")
	}

	for i := len(descriptions); i < total; i++ {
		start, end := batchBounds(len(req.Frames), req.BatchSize, i)
		d.logger.Info().
			Int("batch", i+1).
			Int("total", total).
			Int("frames_from", start+1).
			Int("frames_to", end).
			Msg("describing frames")

		parts, err := d.buildBatchParts(req.Frames[start:end], req.Transcript, req.TranscriptWindow)
		if err != nil {
			return nil, err
		}

		var text string
		err = d.retry.Do(ctx, func(ctx context.Context) error {
			var err error
			text, err = d.completer.Complete(ctx, ports.CompletionRequest{
				Model:     req.Model,
				MaxTokens: describeMaxTokens,
				System:    systemPrompt,
				Parts:     parts,
			})
			return err
		})
		if err != nil {
			return nil, fmt.Errorf("describing batch %d/%d: %w", i+1, total, err)
		}

		descriptions = append(descriptions, text)
		if req.OnBatch != nil {
			if err := req.OnBatch(ctx, text); err != nil {
				return nil, fmt.Errorf("persisting batch %d/%d: %w", i+1, total, err)
			}
		}
	}

	return descriptions, nil
}

func (d *Describer) buildBatchParts(frames []domain.Frame, transcript domain.Transcript, window float64) ([]ports.ContentPart, error) {
	parts := make([]ports.ContentPart, 0, 2*len(frames)+1)

	for _, frame := range frames {
		text := fmt.Sprintf("\n--- Frame at %.1fs ---\n", frame.Timestamp)
		text += fmt.Sprintf("Transcript around this moment: %q\n", transcript.Window(frame.Timestamp, window))
		if frame.Reason != "" {
			text += fmt.Sprintf("Why this frame was selected: %s\n", frame.Reason)
		}
		text += fmt.Sprintf("Screen at %.1fs:", frame.Timestamp)
		parts = append(parts, ports.TextPart(text))

		data, err := encodeImage(frame.Path)
		if err != nil {
			return nil, fmt.Errorf("reading frame %s: %w", frame.Path, err)
		}
		parts = append(parts, ports.ImagePart(data, "image/png"))
	}

	parts = append(parts, ports.TextPart(trailingInstructions))
	return parts, nil
}

func encodeImage(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(data), nil
}
