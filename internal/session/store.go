package session

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Session holds the logged-in identity and thread identifiers the calling
// layer knows about a conversation. The orchestrator itself never reads it;
// the API layer uses it to merge previously captured fields (typically the
// email) into a fresh turn's context.
type Session struct {
	ID         string    `json:"id"`
	CustomerID string    `json:"customer_id"`
	Email      string    `json:"email"`
	ThreadID   string    `json:"thread_id"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Store persists sessions. Implementations: MemoryStore here, and the
// Postgres-backed store in internal/storage/postgres.
type Store interface {
	Put(ctx context.Context, s Session) (Session, error)
	Get(ctx context.Context, id string) (Session, bool, error)
}

// NewID mints a session identifier.
func NewID() string {
	return "sess-" + strings.ReplaceAll(uuid.New().String(), "-", "")[:16]
}

// MemoryStore keeps sessions in process memory. Good enough for a single
// instance; use the Postgres store when sessions must survive restarts.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]Session
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]Session)}
}

func (m *MemoryStore) Put(ctx context.Context, s Session) (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now().UTC()
	if s.ID == "" {
		s.ID = NewID()
	}
	if existing, ok := m.sessions[s.ID]; ok {
		s.CreatedAt = existing.CreatedAt
	} else {
		s.CreatedAt = now
	}
	s.UpdatedAt = now
	m.sessions[s.ID] = s
	return s, nil
}

func (m *MemoryStore) Get(ctx context.Context, id string) (Session, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	return s, ok, nil
}
