package repo

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/careerlog/server/internal/assistant/model"
)

// MemoryStore is a volatile Store implementation backed by process-local
// maps. It is safe for concurrent access and suited to tests and demo runs.
// Records are cloned on the way in and out so callers never share state with
// the store.
type MemoryStore struct {
	mu       sync.RWMutex
	profiles map[model.UserID]*model.Profile
	sessions map[model.UserID]*model.SessionState
	turns    map[model.UserID]map[string][]model.Turn
	recents  map[model.UserID][]model.Turn
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		profiles: make(map[model.UserID]*model.Profile),
		sessions: make(map[model.UserID]*model.SessionState),
		turns:    make(map[model.UserID]map[string][]model.Turn),
		recents:  make(map[model.UserID][]model.Turn),
	}
}

func (m *MemoryStore) GetProfile(_ context.Context, uid model.UserID) (*model.Profile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if p, ok := m.profiles[uid]; ok {
		return p.Clone(), nil
	}
	return nil, nil
}

func (m *MemoryStore) UpsertProfile(_ context.Context, uid model.UserID, profile *model.Profile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.profiles[uid] = profile.Clone()
	return nil
}

func (m *MemoryStore) GetSession(_ context.Context, uid model.UserID) (*model.SessionState, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if s, ok := m.sessions[uid]; ok {
		return s.Clone(), nil
	}
	return nil, nil
}

func (m *MemoryStore) UpsertSession(_ context.Context, uid model.UserID, session *model.SessionState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[uid] = session.Clone()
	return nil
}

func (m *MemoryStore) DeleteSession(_ context.Context, uid model.UserID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, uid)
	return nil
}

func (m *MemoryStore) AppendTurn(_ context.Context, uid model.UserID, turn model.Turn) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.appendTurnLocked(uid, turn), nil
}

func (m *MemoryStore) appendTurnLocked(uid model.UserID, turn model.Turn) string {
	if turn.ID == "" {
		turn.ID = uuid.NewString()
	}
	date := model.DateKey(turn.Timestamp)
	if m.turns[uid] == nil {
		m.turns[uid] = make(map[string][]model.Turn)
	}
	m.turns[uid][date] = append(m.turns[uid][date], turn)
	m.recents[uid] = append(m.recents[uid], turn)
	if n := len(m.recents[uid]); n > recentTurnsKept {
		m.recents[uid] = append([]model.Turn(nil), m.recents[uid][n-recentTurnsKept:]...)
	}
	return turn.ID
}

func (m *MemoryStore) TurnsForDate(_ context.Context, uid model.UserID, date string, limit int) ([]model.Turn, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	list := m.turns[uid][date]
	if limit > 0 && len(list) > limit {
		list = list[:limit]
	}
	return append([]model.Turn(nil), list...), nil
}

func (m *MemoryStore) RecentTurns(_ context.Context, uid model.UserID, limit int) ([]model.Turn, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	list := m.recents[uid]
	if limit > 0 && len(list) > limit {
		list = list[len(list)-limit:]
	}
	return append([]model.Turn(nil), list...), nil
}

func (m *MemoryStore) HasTurnsOnDate(_ context.Context, uid model.UserID, date string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.turns[uid][date]) > 0, nil
}

func (m *MemoryStore) Commit(_ context.Context, uid model.UserID, profile *model.Profile, session *model.SessionState, turn *model.Turn) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if profile != nil {
		m.profiles[uid] = profile.Clone()
	}
	if session != nil {
		m.sessions[uid] = session.Clone()
	} else {
		delete(m.sessions, uid)
	}
	if turn != nil {
		turn.ID = m.appendTurnLocked(uid, *turn)
	}
	return nil
}

var _ model.Store = (*MemoryStore)(nil)
