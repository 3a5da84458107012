package reddit

import (
	"context"
	"sync"
)

// MockClient is an in-memory account/history provider for tests. Accounts
// not present in the maps behave as unreachable (ErrNotFound).
type MockClient struct {
	mu       sync.Mutex
	Accounts map[string]*AccountMeta
	History  map[string][]HistoryItem
	Links    map[string][]string
	LinkErr  error
}

func NewMockClient() *MockClient {
	return &MockClient{
		Accounts: make(map[string]*AccountMeta),
		History:  make(map[string][]HistoryItem),
		Links:    make(map[string][]string),
	}
}

var _ AccountFetcher = (*MockClient)(nil)
var _ HistoryFetcher = (*MockClient)(nil)
var _ SocialLinkFetcher = (*MockClient)(nil)

func (m *MockClient) GetAccount(ctx context.Context, username string) (*AccountMeta, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	am, ok := m.Accounts[username]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *am
	return &cp, nil
}

func (m *MockClient) GetHistory(ctx context.Context, username string, limit int) ([]HistoryItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.Accounts[username]; !ok {
		return nil, ErrNotFound
	}
	items := m.History[username]
	if len(items) > limit {
		items = items[:limit]
	}
	out := make([]HistoryItem, len(items))
	copy(out, items)
	return out, nil
}

func (m *MockClient) GetSocialLinks(ctx context.Context, username string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.LinkErr != nil {
		return nil, m.LinkErr
	}
	return m.Links[username], nil
}

// RemoveAccount makes the account unreachable, simulating a suspension or deletion.
func (m *MockClient) RemoveAccount(username string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.Accounts, username)
}
