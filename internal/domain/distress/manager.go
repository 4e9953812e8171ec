package distress

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"petconnect/internal/platform/logger"
	"petconnect/internal/ports/location"
)

var (
	ErrInvalidInput = errors.New("invalid input")
)

// Manager mantiene una sesión de auxilio por usuario. Las sesiones son el
// "ancestro común" observable: cualquier vista (home, mapa, websocket) lee
// y cancela el mismo objeto.
type Manager struct {
	provider location.Provider
	log      logger.Logger

	// inyectables en tests
	now       func() time.Time
	tickEvery time.Duration

	mu       sync.Mutex
	sessions map[string]*Session
}

func NewManager(provider location.Provider, log logger.Logger) *Manager {
	if log == nil {
		log = logger.NewNop()
	}
	return &Manager{
		provider:  provider,
		log:       log,
		now:       time.Now,
		tickEvery: defaultTickInterval,
		sessions:  make(map[string]*Session),
	}
}

func (m *Manager) session(userID string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[userID]
	if !ok {
		s = newSession(userID, m.provider, m.log, m.now, m.tickEvery)
		m.sessions[userID] = s
	}
	return s
}

// Start activa la sesión del usuario. El caller ya validó la confirmación.
func (m *Manager) Start(ctx context.Context, userID string) (Snapshot, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return Snapshot{}, ErrInvalidInput
	}

	m.log.Info("distress session started", map[string]any{"user_id": userID})
	return m.session(userID).Start(ctx), nil
}

// Stop cancela la sesión. Idempotente: sin sesión o ya Idle es un no-op.
func (m *Manager) Stop(userID string) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return
	}

	m.mu.Lock()
	s, ok := m.sessions[userID]
	m.mu.Unlock()
	if !ok {
		return
	}

	s.Stop()
	m.log.Info("distress session stopped", map[string]any{"user_id": userID})
}

func (m *Manager) Snapshot(userID string) Snapshot {
	m.mu.Lock()
	s, ok := m.sessions[userID]
	m.mu.Unlock()
	if !ok {
		return Snapshot{Elapsed: "00:00"}
	}
	return s.Snapshot()
}

// Subscribe observa la sesión del usuario (creándola Idle si no existe).
func (m *Manager) Subscribe(userID string, fn func(Snapshot)) func() {
	return m.session(userID).Subscribe(fn)
}
