package sessions

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is a process-local Store. It backs tests and single-instance
// development runs without Redis.
type MemoryStore struct {
	mu      sync.Mutex
	records map[string]Record
	sets    map[string]map[string]struct{}
	Now     func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[string]Record),
		sets:    make(map[string]map[string]struct{}),
		Now:     time.Now,
	}
}

func (m *MemoryStore) Save(_ context.Context, kind Kind, userID, token string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.Now()
	m.records[tokenKey(kind, userID, token)] = Record{UserID: userID, Token: token, CreatedAt: now, ExpiresAt: now.Add(ttl)}
	set := m.sets[userSetKey(kind, userID)]
	if set == nil {
		set = make(map[string]struct{})
		m.sets[userSetKey(kind, userID)] = set
	}
	set[token] = struct{}{}
	return nil
}

func (m *MemoryStore) IsValid(_ context.Context, kind Kind, userID, token string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[tokenKey(kind, userID, token)]
	if !ok {
		return false, nil
	}
	if rec.Expired(m.Now()) {
		m.removeLocked(kind, userID, token)
		return false, nil
	}
	return true, nil
}

func (m *MemoryStore) Remove(_ context.Context, kind Kind, userID, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.removeLocked(kind, userID, token)
	return nil
}

func (m *MemoryStore) removeLocked(kind Kind, userID, token string) {
	delete(m.records, tokenKey(kind, userID, token))
	if set := m.sets[userSetKey(kind, userID)]; set != nil {
		delete(set, token)
	}
}

func (m *MemoryStore) RemoveToken(ctx context.Context, userID, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, kind := range []Kind{Access, Refresh} {
		if _, ok := m.records[tokenKey(kind, userID, token)]; ok {
			m.removeLocked(kind, userID, token)
			return nil
		}
	}
	return nil
}

func (m *MemoryStore) RemoveAllUserTokens(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, kind := range []Kind{Access, Refresh} {
		for token := range m.sets[userSetKey(kind, userID)] {
			delete(m.records, tokenKey(kind, userID, token))
		}
		delete(m.sets, userSetKey(kind, userID))
	}
	return nil
}

func (m *MemoryStore) ActiveSessions(_ context.Context, userID string) (Counts, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := Counts{
		AccessTokens:  int64(len(m.sets[userSetKey(Access, userID)])),
		RefreshTokens: int64(len(m.sets[userSetKey(Refresh, userID)])),
	}
	c.Total = c.AccessTokens + c.RefreshTokens
	return c, nil
}

func (m *MemoryStore) CleanupExpiredTokens(_ context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.Now()
	removed := 0
	for _, kind := range []Kind{Access, Refresh} {
		for key, rec := range m.records {
			if key != tokenKey(kind, rec.UserID, rec.Token) {
				continue
			}
			if rec.Expired(now) {
				m.removeLocked(kind, rec.UserID, rec.Token)
				removed++
			}
		}
	}
	return removed, nil
}
