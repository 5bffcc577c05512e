package session

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/aisa-it/templater/internal/templater/catalog"
	"github.com/aisa-it/templater/internal/templater/editor/model"
	"github.com/aisa-it/templater/pkg/limiter"
	"github.com/gofrs/uuid"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionLimit    = errors.New("session limit reached")
)

// Manager хранит открытые сессии редактора.
type Manager struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*Session

	catalog *catalog.Catalog
	limiter limiter.LimiterInt
	opts    Options
}

func NewManager(c *catalog.Catalog, l limiter.LimiterInt, opts Options) *Manager {
	if l == nil {
		l = limiter.CommunityLimiter{}
	}
	return &Manager{
		sessions: make(map[uuid.UUID]*Session),
		catalog:  c,
		limiter:  l,
		opts:     opts,
	}
}

// Open открывает сессию над документом.
func (m *Manager) Open(doc *model.Node) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.limiter.CanOpenSession(len(m.sessions)) {
		return nil, ErrSessionLimit
	}

	s, err := New(doc, m.catalog, m.opts)
	if err != nil {
		return nil, err
	}
	m.sessions[s.ID] = s
	activeSessionsGauge.Set(float64(len(m.sessions)))
	slog.Info("Open editor session", "session", s.ID)
	return s, nil
}

func (m *Manager) Get(id uuid.UUID) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

func (m *Manager) Close(id uuid.UUID) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	activeSessionsGauge.Set(float64(len(m.sessions)))
	m.mu.Unlock()

	if !ok {
		return ErrSessionNotFound
	}
	s.Close()
	slog.Info("Close editor session", "session", id)
	return nil
}

// EvictIdle закрывает сессии, к которым не обращались дольше ttl.
func (m *Manager) EvictIdle(ttl time.Duration) int {
	deadline := time.Now().Add(-ttl)

	m.mu.Lock()
	var idle []*Session
	for id, s := range m.sessions {
		if s.LastAccess().Before(deadline) {
			idle = append(idle, s)
			delete(m.sessions, id)
		}
	}
	activeSessionsGauge.Set(float64(len(m.sessions)))
	m.mu.Unlock()

	for _, s := range idle {
		s.Close()
		slog.Info("Evict idle editor session", "session", s.ID, "lastAccess", s.LastAccess())
	}
	return len(idle)
}

func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Remaining - сколько еще сессий можно открыть.
func (m *Manager) Remaining() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.limiter.GetRemainingSessions(len(m.sessions))
}

func (m *Manager) CloseAll() {
	m.mu.Lock()
	sessions := m.sessions
	m.sessions = make(map[uuid.UUID]*Session)
	activeSessionsGauge.Set(0)
	m.mu.Unlock()

	for _, s := range sessions {
		s.Close()
	}
}
