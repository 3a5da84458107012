package varstore

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"sync"
)

type MemVarStore struct {
	mu   sync.RWMutex
	Vars map[string]any
}

func NewMemVarStore() *MemVarStore {
	return &MemVarStore{
		Vars: make(map[string]any),
	}
}

var _ Store = (*MemVarStore)(nil)

func (s *MemVarStore) Set(key string, val any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Vars[key] = val
}

func (s *MemVarStore) GetString(ctx context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.Vars[key]
	if !ok {
		return "", false, nil
	}
	str, ok := v.(string)
	return str, ok, nil
}

func (s *MemVarStore) GetStringList(ctx context.Context, key string) ([]string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.Vars[key]
	if !ok {
		return nil, false, nil
	}
	switch l := v.(type) {
	case []string:
		return l, true, nil
	case []any:
		// JSON-decoded lists arrive as []any
		out := make([]string, 0, len(l))
		for _, item := range l {
			if str, ok := item.(string); ok {
				out = append(out, str)
			}
		}
		return out, true, nil
	}
	return nil, false, nil
}

func (s *MemVarStore) GetInt(ctx context.Context, key string) (int64, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.Vars[key]
	if !ok {
		return 0, false, nil
	}
	switch n := v.(type) {
	case int:
		return int64(n), true, nil
	case int64:
		return n, true, nil
	case float64:
		return int64(n), true, nil
	}
	return 0, false, nil
}

func (s *MemVarStore) GetBool(ctx context.Context, key string) (bool, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.Vars[key]
	if !ok {
		return false, false, nil
	}
	b, ok := v.(bool)
	return b, ok, nil
}

// LoadFromFileJSON merges a flat JSON object of settings into the store.
func (s *MemVarStore) LoadFromFileJSON(p string) error {
	f, err := os.Open(p)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	raw, err := io.ReadAll(f)
	if err != nil {
		return err
	}

	var vars map[string]any
	if err := json.Unmarshal(raw, &vars); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for k, v := range vars {
		s.Vars[k] = v
	}
	return nil
}
