package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/rotisk95/Thalionyx/internal/model"
	"github.com/rotisk95/Thalionyx/internal/store"
)

// SessionService handles reflection-session records.
type SessionService struct {
	store store.Store
	now   func() time.Time
}

func NewSessionService(s store.Store) *SessionService {
	return &SessionService{store: s, now: func() time.Time { return time.Now().UTC() }}
}

// SaveSession upserts a session, assigning id and timestamps when absent.
func (s *SessionService) SaveSession(ctx context.Context, sess *model.ReflectionSession) (*model.ReflectionSession, error) {
	next := *sess
	if next.SessionID == "" {
		next.SessionID = uuid.New().String()
	}
	if next.StartTime.IsZero() {
		next.StartTime = s.now()
	}
	if next.CreationTime.IsZero() {
		next.CreationTime = s.now()
	}
	if next.FragmentIDs == nil {
		next.FragmentIDs = []string{}
	}
	return s.store.Sessions().Save(ctx, &next)
}

// ListSessions returns every stored session.
func (s *SessionService) ListSessions(ctx context.Context) ([]*model.ReflectionSession, error) {
	return s.store.Sessions().List(ctx)
}
