package selection

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/benhall/vid2notes/internal/domain"
	"github.com/benhall/vid2notes/internal/ports"
	"github.com/benhall/vid2notes/internal/retry"
)

const selectionMaxTokens = 4096

// Params tunes one transcript-driven selection run.
type Params struct {
	Model       string
	MaxItems    int
	MinInterval float64
}

// TranscriptSelector asks a text completion model to read a transcript
// (plus chapter markers) and propose visually salient moments with reasons.
type TranscriptSelector struct {
	completer ports.Completer
	retry     *retry.Policy
	logger    zerolog.Logger
}

// NewTranscriptSelector wires a selector to a completion service. Transient
// completion failures are retried through the shared policy.
func NewTranscriptSelector(completer ports.Completer, logger zerolog.Logger) *TranscriptSelector {
	return &TranscriptSelector{
		completer: completer,
		retry:     retry.New(completer.RetryableError, logger),
		logger:    logger.With().Str("component", "selector").Logger(),
	}
}

// SelectFrames identifies up to p.MaxItems timestamps where the instructor
// is showing something visually important enough to need a screenshot.
func (s *TranscriptSelector) SelectFrames(ctx context.Context, transcript domain.Transcript, chapters []domain.Chapter, p Params) ([]domain.Selection, error) {
	if len(transcript) == 0 {
		return nil, domain.ErrEmptyTranscript
	}
	duration := transcript.Duration()

	system := "You are analyzing the transcript of an instructional screen-recording video " +
		"to identify moments where a screenshot would help understand the visual content. " +
		"The video shows charts, diagrams, and annotations - no webcam."

	var b strings.Builder
	fmt.Fprintf(&b, "Here is the transcript of a %d-second instructional video. ", int(duration))
	fmt.Fprintf(&b, "Identify up to %d timestamps where the instructor is showing something "+
		"visually important that would require a screenshot to understand.\n\n", p.MaxItems)
	b.WriteString("Focus on moments where:\n" +
		"- A new chart, diagram, or example appears on screen\n" +
		"- The instructor points to, circles, or highlights specific visual elements\n" +
		"- Key patterns, zones, levels, or formations are being described\n" +
		"- Step-by-step visual walkthroughs transition to a new step\n" +
		"- Before/after comparisons are shown\n" +
		"- The instructor uses words like 'here', 'this', 'look', 'see', 'notice' " +
		"while describing something on screen\n" +
		"- **A topic or section is wrapping up** - the completed chart/diagram/zone is " +
		"fully drawn and the instructor is summarizing or transitioning to the next topic. " +
		"These end-of-section frames capture the final, complete visual.\n")
	b.WriteString(chaptersSection(chapters,
		"IMPORTANT: Always capture a frame near the END of each chapter - "+
			"this is when the instructor's final annotation, completed zone, or "+
			"summary for that section is fully visible on screen.\n"))
	b.WriteString("\nReturn ONLY a JSON array, ordered by importance (most critical first):\n" +
		`[{"timestamp": <seconds>, "reason": "<brief description>"}]` + "\n\n")
	b.WriteString("TRANSCRIPT:\n" + formatTranscript(transcript))

	return s.selectWithPrompt(ctx, system, b.String(), duration, p)
}

// SelectSlides identifies up to p.MaxItems timestamps where the screen
// shows a complete, self-contained visual that would work as a standalone
// presentation slide.
func (s *TranscriptSelector) SelectSlides(ctx context.Context, transcript domain.Transcript, chapters []domain.Chapter, p Params) ([]domain.Selection, error) {
	if len(transcript) == 0 {
		return nil, domain.ErrEmptyTranscript
	}
	duration := transcript.Duration()

	system := "You are analyzing the transcript of an instructional video to identify " +
		"moments where the screen shows a COMPLETE visual that would work as a " +
		"standalone slide in a presentation deck. The video shows charts, diagrams, " +
		"code, and annotations."

	var b strings.Builder
	fmt.Fprintf(&b, "Here is the transcript of a %d-second instructional video. ", int(duration))
	fmt.Fprintf(&b, "Identify up to %d timestamps where the screen shows a COMPLETE "+
		"visual that would make a good standalone presentation slide.\n\n", p.MaxItems)
	b.WriteString("Select moments where:\n" +
		"- A diagram, chart, or illustration is FULLY DRAWN and COMPLETE (not " +
		"mid-animation or mid-drawing). Prefer the moment just AFTER the instructor " +
		"finishes building a visual, not while they are still adding to it.\n" +
		"- Text, labels, or titles are clearly visible and would be readable as a slide.\n" +
		"- A key concept, definition, formula, or summary is displayed on screen.\n" +
		"- A code snippet or configuration is fully shown (not partially scrolled).\n" +
		"- A comparison table, list of steps, or structured information is complete.\n" +
		"- A section title or topic header is shown (good for slide deck dividers).\n\n" +
		"AVOID selecting moments where:\n" +
		"- The instructor is mid-drawing or mid-typing (visual is incomplete).\n" +
		"- The screen is transitioning between views.\n" +
		"- The content is a near-duplicate of an already-selected slide.\n" +
		"- The visual is too zoomed-in to be self-explanatory without narration.\n\n" +
		"For each selection, the 'reason' should describe what the slide would " +
		"communicate as a standalone visual (e.g. 'Complete architecture diagram " +
		"showing 3-tier system' not 'instructor is drawing a diagram').\n\n" +
		"Prioritize DIVERSITY of content - a good slide deck covers all major topics.\n")
	b.WriteString(chaptersSection(chapters,
		"IMPORTANT: Capture a frame near the END of each chapter - this is "+
			"when the completed visual for that section is fully visible.\n"))
	b.WriteString("\nReturn ONLY a JSON array, ordered by importance (most critical first):\n" +
		`[{"timestamp": <seconds>, "reason": "<brief description>"}]` + "\n\n")
	b.WriteString("TRANSCRIPT:\n" + formatTranscript(transcript))

	return s.selectWithPrompt(ctx, system, b.String(), duration, p)
}

func (s *TranscriptSelector) selectWithPrompt(ctx context.Context, system, prompt string, duration float64, p Params) ([]domain.Selection, error) {
	var response string
	err := s.retry.Do(ctx, func(ctx context.Context) error {
		var err error
		response, err = s.completer.Complete(ctx, ports.CompletionRequest{
			Model:     p.Model,
			MaxTokens: selectionMaxTokens,
			System:    system,
			Parts:     []ports.ContentPart{ports.TextPart(prompt)},
		})
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("transcript selection failed: %w", err)
	}

	items, err := ExtractJSONArray(response)
	if err != nil {
		return nil, err
	}

	selections := validateCandidates(items, duration)
	s.logger.Debug().
		Int("raw", len(items)).
		Int("valid", len(selections)).
		Msg("validated selection candidates")

	return spaceAndCap(selections, p.MinInterval, p.MaxItems), nil
}

// validateCandidates decodes raw array items, dropping any whose timestamp
// is missing, non-numeric, or outside [0, duration].
func validateCandidates(items []json.RawMessage, duration float64) []domain.Selection {
	selections := make([]domain.Selection, 0, len(items))
	for _, item := range items {
		var cand struct {
			Timestamp *float64 `json:"timestamp"`
			Reason    string   `json:"reason"`
		}
		if err := json.Unmarshal(item, &cand); err != nil || cand.Timestamp == nil {
			continue
		}
		ts := *cand.Timestamp
		if ts < 0 || ts > duration {
			continue
		}
		selections = append(selections, domain.Selection{Timestamp: ts, Reason: cand.Reason})
	}
	return selections
}

// spaceAndCap sorts candidates by timestamp, enforces the minimum interval,
// and caps the result at maxItems. The cap keeps the earliest maxItems in
// timestamp order even though the model was asked for importance order;
// later, possibly more important candidates are dropped.
func spaceAndCap(selections []domain.Selection, minInterval float64, maxItems int) []domain.Selection {
	sort.Slice(selections, func(i, j int) bool {
		return selections[i].Timestamp < selections[j].Timestamp
	})

	timestamps := make([]float64, len(selections))
	for i, sel := range selections {
		timestamps[i] = sel.Timestamp
	}
	kept := make(map[float64]bool, len(timestamps))
	for _, t := range ApplyMinInterval(timestamps, minInterval) {
		kept[t] = true
	}

	filtered := selections[:0]
	for _, sel := range selections {
		if kept[sel.Timestamp] {
			filtered = append(filtered, sel)
		}
	}

	if maxItems > 0 && len(filtered) > maxItems {
		filtered = filtered[:maxItems]
	}
	return filtered
}

func formatTranscript(transcript domain.Transcript) string {
	lines := make([]string, 0, len(transcript))
	for _, seg := range transcript {
		lines = append(lines, fmt.Sprintf("[%s] %s", domain.FormatTimestamp(seg.Start), seg.Text))
	}
	return strings.Join(lines, "\n")
}

func chaptersSection(chapters []domain.Chapter, instruction string) string {
	if len(chapters) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("\n\nThe video has the following chapters:\n")
	for _, ch := range chapters {
		fmt.Fprintf(&b, "  [%s - %s] %s\n",
			domain.FormatTimestamp(ch.StartTime), domain.FormatTimestamp(ch.EndTime), ch.Title)
	}
	b.WriteString(instruction)
	return b.String()
}
