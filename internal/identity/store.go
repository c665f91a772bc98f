package identity

import "sync"

// TokenStore keeps the tokens of one browser session.
type TokenStore interface {
	Load() (Tokens, bool)
	Save(t Tokens)
	Clear()
}

// MemoryStore is a TokenStore for callers without cookies.
type MemoryStore struct {
	mu     sync.Mutex
	tokens Tokens
	set    bool
}

// NewMemoryStore returns a store preloaded with t unless t is empty.
func NewMemoryStore(t Tokens) *MemoryStore {
	return &MemoryStore{tokens: t, set: !t.Empty()}
}

// Load returns the stored tokens.
func (m *MemoryStore) Load() (Tokens, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.tokens, m.set
}

// Save replaces the stored tokens.
func (m *MemoryStore) Save(t Tokens) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.tokens = t
	m.set = true
}

// Clear forgets the stored tokens.
func (m *MemoryStore) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.tokens = Tokens{}
	m.set = false
}
