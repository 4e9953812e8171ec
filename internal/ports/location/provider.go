package location

import (
	"context"
	"errors"
)

var (
	ErrPermissionDenied = errors.New("location permission denied")
	ErrNoFix            = errors.New("no position fix available")
)

// Position es una coordenada cruda del dispositivo.
type Position struct {
	Latitude  float64
	Longitude float64
}

// WatchOptions controla el muestreo continuo.
// El umbral es por distancia (no por tiempo), igual que el servicio del dispositivo.
type WatchOptions struct {
	MinDistanceMeters float64
}

// Subscription es un feed vivo de posiciones. Unsubscribe debe ser idempotente:
// liberar dos veces no puede romper nada.
type Subscription interface {
	Unsubscribe()
}

// Provider abstrae el servicio de ubicación del dispositivo.
// userID identifica al dispositivo que reporta (un device por usuario en MVP).
type Provider interface {
	// RequestPermission devuelve si el usuario otorgó acceso a ubicación.
	RequestPermission(ctx context.Context, userID string) (bool, error)

	// Current devuelve una posición one-shot, o ErrNoFix si nunca reportó.
	Current(ctx context.Context, userID string) (Position, error)

	// Watch entrega cada posición nueva vía fn hasta Unsubscribe.
	// Las entregas respetan el orden de llegada; no hay dedupe.
	Watch(ctx context.Context, userID string, opts WatchOptions, fn func(Position)) (Subscription, error)
}
