// Package gateway implementa location.Provider como un ingestor push:
// el dispositivo reporta fixes por HTTP y el gateway los reparte a los
// watchers activos aplicando el umbral de distancia de cada suscripción.
package gateway

import (
	"context"
	"math"
	"sync"

	"petconnect/internal/ports/location"
)

type watcher struct {
	fn      func(location.Position)
	minDist float64
	// última posición entregada a ESTE watcher (el umbral es por suscripción)
	lastSent *location.Position
}

type Gateway struct {
	mu       sync.Mutex
	perms    map[string]bool
	last     map[string]location.Position
	watchers map[string]map[int]*watcher
	nextID   int
}

func New() *Gateway {
	return &Gateway{
		perms:    make(map[string]bool),
		last:     make(map[string]location.Position),
		watchers: make(map[string]map[int]*watcher),
	}
}

// SetPermission registra el resultado del prompt de permisos del device.
// Sin registro previo, RequestPermission responde denied.
func (g *Gateway) SetPermission(userID string, granted bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.perms[userID] = granted
}

func (g *Gateway) RequestPermission(ctx context.Context, userID string) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.perms[userID], nil
}

func (g *Gateway) Current(ctx context.Context, userID string) (location.Position, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	pos, ok := g.last[userID]
	if !ok {
		return location.Position{}, location.ErrNoFix
	}
	return pos, nil
}

func (g *Gateway) Watch(ctx context.Context, userID string, opts location.WatchOptions, fn func(location.Position)) (location.Subscription, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.perms[userID] {
		return nil, location.ErrPermissionDenied
	}

	id := g.nextID
	g.nextID++

	byID, ok := g.watchers[userID]
	if !ok {
		byID = make(map[int]*watcher)
		g.watchers[userID] = byID
	}
	byID[id] = &watcher{fn: fn, minDist: opts.MinDistanceMeters}

	return &subscription{g: g, userID: userID, id: id}, nil
}

// Report ingesta un fix del device: guarda el last-known (last-write-wins)
// y lo entrega a cada watcher que haya acumulado suficiente movimiento.
func (g *Gateway) Report(userID string, pos location.Position) {
	g.mu.Lock()
	g.last[userID] = pos

	deliver := make([]func(location.Position), 0)
	for _, wt := range g.watchers[userID] {
		if wt.lastSent != nil && distanceMeters(*wt.lastSent, pos) < wt.minDist {
			continue
		}
		p := pos
		wt.lastSent = &p
		deliver = append(deliver, wt.fn)
	}
	g.mu.Unlock()

	// Callbacks fuera del lock: un handler puede des-suscribirse sin deadlock.
	for _, fn := range deliver {
		fn(pos)
	}
}

type subscription struct {
	g      *Gateway
	userID string
	id     int
}

// Unsubscribe es idempotente: liberar dos veces es un no-op.
func (s *subscription) Unsubscribe() {
	s.g.mu.Lock()
	defer s.g.mu.Unlock()

	byID, ok := s.g.watchers[s.userID]
	if !ok {
		return
	}
	delete(byID, s.id)
	if len(byID) == 0 {
		delete(s.g.watchers, s.userID)
	}
}

const earthRadiusMeters = 6371000

// distanceMeters: haversine entre dos coordenadas.
func distanceMeters(a, b location.Position) float64 {
	lat1 := a.Latitude * math.Pi / 180
	lat2 := b.Latitude * math.Pi / 180
	dLat := (b.Latitude - a.Latitude) * math.Pi / 180
	dLon := (b.Longitude - a.Longitude) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)

	return 2 * earthRadiusMeters * math.Asin(math.Sqrt(h))
}
