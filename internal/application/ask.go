package application

import (
	"context"
	"fmt"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rs/zerolog"

	"github.com/benhall/vid2notes/internal/domain"
	"github.com/benhall/vid2notes/internal/ports"
	"github.com/benhall/vid2notes/internal/retry"
)

const (
	askMaxTokens = 8192
	// sessionCacheSize bounds how many loaded sessions stay in memory for
	// repeated questions against the same videos.
	sessionCacheSize = 16
	// transcriptCharLimit caps how much raw transcript goes into the
	// prompt; frame descriptions carry the visual detail past this point.
	transcriptCharLimit = 10000
)

// AskRequest is one free-form question against a stored session.
type AskRequest struct {
	VideoID  string
	Question string
	Model    string

	// Context is optional caller-supplied text injected into the prompt,
	// and ContextSources are the labels recorded in the query log.
	Context        string
	ContextSources []string
}

// AskService answers questions against completed sessions. No synthesis
// prompt is hardcoded: the session is presented as a knowledge base and
// the model picks the response format the question calls for.
type AskService struct {
	store     ports.SessionStore
	completer ports.Completer
	retry     *retry.Policy
	cache     *lru.Cache[string, *domain.Session]
	logger    zerolog.Logger
}

func NewAskService(store ports.SessionStore, completer ports.Completer, logger zerolog.Logger) *AskService {
	cache, _ := lru.New[string, *domain.Session](sessionCacheSize)
	return &AskService{
		store:     store,
		completer: completer,
		retry:     retry.New(completer.RetryableError, logger),
		cache:     cache,
		logger:    logger.With().Str("component", "ask").Logger(),
	}
}

// Ask loads the session, builds the prompt, and records the answered
// question in the session's query log.
func (s *AskService) Ask(ctx context.Context, req AskRequest) (string, error) {
	session, err := s.loadSession(ctx, req.VideoID)
	if err != nil {
		return "", err
	}

	prompt := buildAskPrompt(session, req.Question, req.Context)

	var answer string
	err = s.retry.Do(ctx, func(ctx context.Context) error {
		answer, err = s.completer.Complete(ctx, ports.CompletionRequest{
			Model:     req.Model,
			MaxTokens: askMaxTokens,
			Parts:     []ports.ContentPart{ports.TextPart(prompt)},
		})
		return err
	})
	if err != nil {
		return "", fmt.Errorf("answering question: %w", err)
	}
	answer = strings.TrimSpace(answer)

	if err := s.store.AppendQuery(ctx, req.VideoID, domain.Query{
		Question:       req.Question,
		ContextSources: req.ContextSources,
		Answer:         answer,
	}); err != nil {
		s.logger.Warn().Err(err).Msg("query log append failed")
	}
	return answer, nil
}

func (s *AskService) loadSession(ctx context.Context, videoID string) (*domain.Session, error) {
	if session, ok := s.cache.Get(videoID); ok {
		return session, nil
	}
	session, err := s.store.LoadSession(ctx, videoID)
	if err != nil {
		return nil, err
	}
	s.cache.Add(videoID, session)
	return session, nil
}

var sectionRule = strings.Repeat("─", 40)

func buildAskPrompt(session *domain.Session, question, context string) string {
	hasFrames := len(session.FrameDescriptions) > 0
	modeLabel := "transcript-only"
	if hasFrames {
		modeLabel = "full (transcript + visual)"
	}
	title := session.Title
	if title == "" {
		title = session.VideoID
	}

	sections := []string{fmt.Sprintf(
		"You have access to a processed video:\n"+
			"  Title   : %s\n"+
			"  URL     : %s\n"+
			"  Duration: %.0fs  |  Mode: %s",
		title, session.URL, session.Duration, modeLabel)}

	if hasFrames {
		batches := make([]string, len(session.FrameDescriptions))
		for i, d := range session.FrameDescriptions {
			batches[i] = fmt.Sprintf("=== Batch %d ===\n%s", i+1, d)
		}
		sections = append(sections, fmt.Sprintf(
			"FRAME-BY-FRAME VISUAL ANALYSIS\n%s\n%s",
			sectionRule, strings.Join(batches, "\n\n")))
	}

	transcript := session.Transcript.ToText()
	if len(transcript) > transcriptCharLimit {
		transcript = transcript[:transcriptCharLimit]
	}
	sections = append(sections, fmt.Sprintf(
		"TRANSCRIPT (first %d chars)\n%s\n%s",
		transcriptCharLimit, sectionRule, transcript))

	if strings.TrimSpace(context) != "" {
		sections = append(sections, fmt.Sprintf(
			"CONTEXT PROVIDED BY USER\n%s\n%s", sectionRule, context))
	}

	sections = append(sections, fmt.Sprintf("QUESTION\n%s\n%s", sectionRule, question))
	return strings.Join(sections, "\n\n")
}
