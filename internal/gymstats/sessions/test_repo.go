package sessions

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// TestRepo is an in-memory sessions repo with the same one active session
// per user rule as the database.
type TestRepo struct {
	mu       sync.Mutex
	sessions map[string]Session
}

func NewTestRepo() *TestRepo {
	return &TestRepo{
		sessions: make(map[string]Session),
	}
}

func (r *TestRepo) Create(_ context.Context, s Session) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.sessions {
		if existing.UserID == s.UserID && existing.Status == StatusInProgress {
			return nil, ErrActiveSessionExists
		}
	}
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	s.Status = StatusInProgress
	s.UpdatedAt = s.StartedAt
	r.sessions[s.ID] = s
	return &s, nil
}

func (r *TestRepo) Get(_ context.Context, id string) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return &s, nil
}

func (r *TestRepo) Active(_ context.Context, userID string) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, s := range r.sessions {
		if s.UserID == userID && s.Status == StatusInProgress {
			return &s, nil
		}
	}
	return nil, ErrSessionNotFound
}

func (r *TestRepo) Finish(_ context.Context, id string, sets []SetLog, finishedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	if !ok || s.Status != StatusInProgress {
		return ErrSessionNotActive
	}
	s.Status = StatusCompleted
	s.FinishedAt = &finishedAt
	s.UpdatedAt = finishedAt
	s.Sets = append([]SetLog(nil), sets...)
	r.sessions[id] = s
	return nil
}

func (r *TestRepo) AbortIdle(_ context.Context, idleSince, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int64
	for id, s := range r.sessions {
		if s.Status == StatusInProgress && s.UpdatedAt.Before(idleSince) {
			s.Status = StatusAborted
			finishedAt := now
			s.FinishedAt = &finishedAt
			s.UpdatedAt = now
			r.sessions[id] = s
			n++
		}
	}
	return n, nil
}
