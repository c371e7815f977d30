package application

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/benhall/vid2notes/internal/domain"
	"github.com/benhall/vid2notes/internal/ports"
)

// SessionsService exposes read-side operations over stored sessions.
type SessionsService struct {
	store  ports.SessionStore
	logger zerolog.Logger
}

func NewSessionsService(store ports.SessionStore, logger zerolog.Logger) *SessionsService {
	return &SessionsService{
		store:  store,
		logger: logger.With().Str("component", "sessions").Logger(),
	}
}

// List returns summaries of all completed sessions, newest first.
func (s *SessionsService) List(ctx context.Context) ([]domain.SessionSummary, error) {
	return s.store.ListSessions(ctx)
}

// Get loads one completed session.
func (s *SessionsService) Get(ctx context.Context, videoID string) (*domain.Session, error) {
	return s.store.LoadSession(ctx, videoID)
}

// Delete removes a session and all its artifacts.
func (s *SessionsService) Delete(ctx context.Context, videoID string) error {
	s.logger.Info().Str("video_id", videoID).Msg("deleting session artifacts")
	return s.store.Delete(ctx, videoID)
}
