package distress

import (
	"context"
	"fmt"
	"sync"
	"time"

	"petconnect/internal/platform/logger"
	"petconnect/internal/ports/location"
)

const (
	// Mismo umbral de movimiento que usaba el watch del dispositivo.
	minDistanceMeters = 10

	defaultTickInterval = time.Second
)

// Snapshot es la vista inmutable de la sesión que se publica a los observers.
type Snapshot struct {
	Active            bool
	StartedAt         time.Time // zero si Idle
	Elapsed           string    // MM:SS
	LastKnownPosition *location.Position
}

// Session es la máquina de estados de la alerta de auxilio de un usuario.
// Dos estados: Idle y Active. Solo transiciona por Start/Stop confirmados;
// no hay timeout automático: una sesión activa sin fixes sigue activa.
// Todo vive en memoria, nada se persiste.
type Session struct {
	userID   string
	provider location.Provider
	log      logger.Logger

	now       func() time.Time
	tickEvery time.Duration

	mu        sync.Mutex
	active    bool
	startedAt time.Time
	elapsed   string
	lastPos   *location.Position
	sub       location.Subscription
	stopTick  chan struct{}
	// gen invalida callbacks de posición que lleguen después de Stop.
	gen uint64

	obsMu     sync.Mutex
	observers map[int]func(Snapshot)
	nextObsID int
}

func newSession(userID string, provider location.Provider, log logger.Logger, now func() time.Time, tickEvery time.Duration) *Session {
	if now == nil {
		now = time.Now
	}
	if tickEvery <= 0 {
		tickEvery = defaultTickInterval
	}
	return &Session{
		userID:    userID,
		provider:  provider,
		log:       log,
		now:       now,
		tickEvery: tickEvery,
		elapsed:   "00:00",
		observers: make(map[int]func(Snapshot)),
	}
}

// Start activa la sesión. Precondición del caller: el usuario confirmó la
// alerta explícitamente (nunca se arranca implícito). Si ya está activa es
// un no-op. Si el permiso de ubicación es denegado, la sesión igual queda
// Active pero sin feed de posiciones: la alerta no se bloquea en el prompt.
func (s *Session) Start(ctx context.Context) Snapshot {
	s.mu.Lock()
	if s.active {
		snap := s.snapshotLocked()
		s.mu.Unlock()
		return snap
	}

	s.active = true
	s.startedAt = s.now()
	s.elapsed = "00:00"
	s.lastPos = nil
	s.gen++
	gen := s.gen

	stop := make(chan struct{})
	s.stopTick = stop
	s.mu.Unlock()

	s.startSampling(ctx, gen)
	go s.tickLoop(stop)

	snap := s.Snapshot()
	s.notify(snap)
	return snap
}

func (s *Session) startSampling(ctx context.Context, gen uint64) {
	granted, err := s.provider.RequestPermission(ctx, s.userID)
	if err != nil {
		s.log.Warn("location permission check failed", map[string]any{"user_id": s.userID, "err": err.Error()})
		return
	}
	if !granted {
		// Sesión activa pero ciega: los updates simplemente no llegan.
		s.log.Warn("location permission denied; distress session has no position feed", map[string]any{"user_id": s.userID})
		return
	}

	sub, err := s.provider.Watch(ctx, s.userID, location.WatchOptions{MinDistanceMeters: minDistanceMeters}, func(p location.Position) {
		s.onPosition(gen, p)
	})
	if err != nil {
		s.log.Warn("position watch failed", map[string]any{"user_id": s.userID, "err": err.Error()})
		return
	}

	s.mu.Lock()
	if s.active && s.gen == gen {
		s.sub = sub
		s.mu.Unlock()
		return
	}
	// La sesión se canceló mientras armábamos el watch.
	s.mu.Unlock()
	sub.Unsubscribe()
}

// Stop vuelve a Idle: limpia posición, corta el ticker y libera el watch
// exactamente una vez. Idempotente: parar una sesión Idle es un no-op.
func (s *Session) Stop() {
	s.mu.Lock()
	if !s.active {
		s.mu.Unlock()
		return
	}

	s.active = false
	s.startedAt = time.Time{}
	s.elapsed = "00:00"
	s.lastPos = nil
	s.gen++

	sub := s.sub
	s.sub = nil
	if s.stopTick != nil {
		close(s.stopTick)
		s.stopTick = nil
	}
	snap := s.snapshotLocked()
	s.mu.Unlock()

	if sub != nil {
		sub.Unsubscribe()
	}
	s.notify(snap)
}

// Snapshot devuelve la vista actual de la sesión.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() Snapshot {
	return Snapshot{
		Active:            s.active,
		StartedAt:         s.startedAt,
		Elapsed:           s.elapsed,
		LastKnownPosition: s.lastPos,
	}
}

// Subscribe registra un observer de la sesión compartida. Las dos "pantallas"
// (origen y mapa) observan el mismo objeto, así una cancelación en cualquiera
// se refleja en todas. El unsubscribe devuelto es idempotente.
func (s *Session) Subscribe(fn func(Snapshot)) func() {
	s.obsMu.Lock()
	defer s.obsMu.Unlock()

	id := s.nextObsID
	s.nextObsID++
	s.observers[id] = fn

	return func() {
		s.obsMu.Lock()
		defer s.obsMu.Unlock()
		delete(s.observers, id)
	}
}

func (s *Session) onPosition(gen uint64, p location.Position) {
	s.mu.Lock()
	// Callback tardío después de Stop: no puede resucitar estado.
	if !s.active || gen != s.gen {
		s.mu.Unlock()
		return
	}
	pos := p
	s.lastPos = &pos
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(snap)
}

func (s *Session) tickLoop(stop chan struct{}) {
	t := time.NewTicker(s.tickEvery)
	defer t.Stop()

	for {
		select {
		case <-stop:
			return
		case <-t.C:
			if !s.tick() {
				return
			}
		}
	}
}

// tick recalcula el string de tiempo transcurrido. Devuelve false cuando la
// sesión ya no está activa (el loop muere dentro del siguiente tick).
func (s *Session) tick() bool {
	s.mu.Lock()
	if !s.active {
		s.mu.Unlock()
		return false
	}
	s.elapsed = formatElapsed(s.now().Sub(s.startedAt))
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(snap)
	return true
}

func (s *Session) notify(snap Snapshot) {
	s.obsMu.Lock()
	fns := make([]func(Snapshot), 0, len(s.observers))
	for _, fn := range s.observers {
		fns = append(fns, fn)
	}
	s.obsMu.Unlock()

	for _, fn := range fns {
		fn(snap)
	}
}

// formatElapsed formatea wall-clock transcurrido como MM:SS con zero-padding.
// No corrige clock jumps; si el reloj del device cambia, el valor salta.
func formatElapsed(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	secs := int(d / time.Second)
	return fmt.Sprintf("%02d:%02d", secs/60, secs%60)
}
