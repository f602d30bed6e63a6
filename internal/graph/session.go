package graph

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"taskforge/internal/domain"
)

// Session is the durable execution state of one run of the graph for one
// initial Task: just an id, the shared Context, and the current node name.
type Session struct {
	ID            string
	Context       *Context
	CurrentTaskID string
}

// sessionDTO is the JSON wire shape persisted for a Session; Context is
// flattened to a plain map so round-tripping via json preserves key/value
// equality (spec §8 "JSON serialize->deserialize of a Session preserves id,
// current_task_id, and the set of Context keys and values").
type sessionDTO struct {
	ID            string         `json:"id"`
	CurrentTaskID string         `json:"current_task_id"`
	Context       map[string]any `json:"context"`
}

// MarshalJSON implements json.Marshaler.
func (s *Session) MarshalJSON() ([]byte, error) {
	return json.Marshal(sessionDTO{ID: s.ID, CurrentTaskID: s.CurrentTaskID, Context: s.Context.Snapshot()})
}

// UnmarshalJSON implements json.Unmarshaler.
func (s *Session) UnmarshalJSON(data []byte) error {
	var dto sessionDTO
	if err := json.Unmarshal(data, &dto); err != nil {
		return err
	}
	s.ID = dto.ID
	s.CurrentTaskID = dto.CurrentTaskID
	s.Context = NewContext()
	for k, v := range dto.Context {
		s.Context.Set(k, v)
	}
	return nil
}

// NewSession creates a fresh Session seeded with an initial node name.
func NewSession(initialTaskID string) *Session {
	return &Session{ID: uuid.NewString(), Context: NewContext(), CurrentTaskID: initialTaskID}
}

// SessionStorage is the port over durable session persistence (spec §4.5).
type SessionStorage interface {
	Save(ctx context.Context, s *Session) error
	Get(ctx context.Context, id string) (*Session, bool, error)
	Delete(ctx context.Context, id string) error
}

// MemorySessionStorage is the default in-memory SessionStorage backing,
// used in tests and as a process-local default.
type MemorySessionStorage struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewMemorySessionStorage constructs an empty in-memory store.
func NewMemorySessionStorage() *MemorySessionStorage {
	return &MemorySessionStorage{sessions: make(map[string]*Session)}
}

func (m *MemorySessionStorage) Save(_ context.Context, s *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := &Session{ID: s.ID, CurrentTaskID: s.CurrentTaskID, Context: NewContext()}
	for k, v := range s.Context.Snapshot() {
		cp.Context.Set(k, v)
	}
	m.sessions[s.ID] = cp
	return nil
}

func (m *MemorySessionStorage) Get(_ context.Context, id string) (*Session, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, false, nil
	}
	cp := &Session{ID: s.ID, CurrentTaskID: s.CurrentTaskID, Context: NewContext()}
	for k, v := range s.Context.Snapshot() {
		cp.Context.Set(k, v)
	}
	return cp, true, nil
}

func (m *MemorySessionStorage) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}

// SQLSessionStorage backs SessionStorage with a `sessions(id TEXT PRIMARY
// KEY, data TEXT)` table, mirroring the teacher's local_session.go
// mutex-guarded *sql.DB + JSON-blob-column idiom.
type SQLSessionStorage struct {
	mu sync.Mutex
	db *sql.DB
}

// NewSQLSessionStorage wraps an already-migrated *sql.DB.
func NewSQLSessionStorage(db *sql.DB) *SQLSessionStorage {
	return &SQLSessionStorage{db: db}
}

func (s *SQLSessionStorage) Save(ctx context.Context, sess *Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("%w: marshal session: %v", domain.ErrPersistence, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err = s.db.ExecContext(ctx, `INSERT INTO sessions(id, data) VALUES(?, ?)
		ON CONFLICT(id) DO UPDATE SET data = excluded.data`, sess.ID, string(data))
	if err != nil {
		return fmt.Errorf("%w: saving session %s: %v", domain.ErrPersistence, sess.ID, err)
	}
	return nil
}

func (s *SQLSessionStorage) Get(ctx context.Context, id string) (*Session, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var data string
	err := s.db.QueryRowContext(ctx, `SELECT data FROM sessions WHERE id = ?`, id).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("%w: loading session %s: %v", domain.ErrPersistence, id, err)
	}
	sess := &Session{}
	if err := json.Unmarshal([]byte(data), sess); err != nil {
		return nil, false, fmt.Errorf("%w: decoding session %s: %v", domain.ErrPersistence, id, err)
	}
	return sess, true, nil
}

func (s *SQLSessionStorage) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("%w: deleting session %s: %v", domain.ErrPersistence, id, err)
	}
	return nil
}
