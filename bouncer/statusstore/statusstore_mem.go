package statusstore

import (
	"context"
	"sync"
	"time"
)

type MemStatusStore struct {
	mu      sync.Mutex
	records map[string]*Record
}

func NewMemStatusStore() *MemStatusStore {
	return &MemStatusStore{
		records: make(map[string]*Record),
	}
}

var _ StatusStore = (*MemStatusStore)(nil)

func (s *MemStatusStore) Get(ctx context.Context, username string) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[username]
	if !ok {
		return nil, nil
	}
	cp := *rec
	return &cp, nil
}

func (s *MemStatusStore) Set(ctx context.Context, username string, status UserStatus, reason, evaluator string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	rec, ok := s.records[username]
	if !ok {
		// first write for a username may be any status (external intake can
		// record a ban directly)
		s.records[username] = &Record{
			Username:   username,
			Status:     status,
			Reason:     reason,
			Evaluator:  evaluator,
			ReportedAt: now,
			UpdatedAt:  now,
		}
		return nil
	}
	if !CanTransition(rec.Status, status) {
		return transitionErr(username, rec.Status, status)
	}
	rec.Status = status
	rec.Reason = reason
	if evaluator != "" {
		rec.Evaluator = evaluator
	}
	rec.UpdatedAt = now
	return nil
}

func (s *MemStatusStore) Override(ctx context.Context, username string, status UserStatus, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	rec, ok := s.records[username]
	if !ok {
		s.records[username] = &Record{
			Username:   username,
			Status:     status,
			Reason:     reason,
			ReportedAt: now,
			UpdatedAt:  now,
		}
		return nil
	}
	rec.Status = status
	rec.Reason = reason
	rec.UpdatedAt = now
	return nil
}

func (s *MemStatusStore) ListByStatus(ctx context.Context, status UserStatus) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []string
	for name, rec := range s.records {
		if rec.Status == status {
			out = append(out, name)
		}
	}
	return out, nil
}
