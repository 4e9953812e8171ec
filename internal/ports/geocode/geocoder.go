package geocode

import (
	"context"
	"errors"
)

// ErrNoResults distingue "búsqueda sin resultados" de una falla de red/upstream.
var ErrNoResults = errors.New("no results")

type Place struct {
	Latitude  float64
	Longitude float64
	Label     string
}

// Geocoder resuelve texto libre a coordenadas.
// El orden de los resultados es el del proveedor; el primero es el mejor match.
type Geocoder interface {
	Search(ctx context.Context, query string) ([]Place, error)
}
