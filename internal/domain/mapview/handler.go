package mapview

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"petconnect/internal/middleware"
	"petconnect/internal/ports/geocode"
	"petconnect/internal/ports/location"

	"github.com/go-chi/chi/v5"
)

// Región inicial del mapa cuando todavía no hay fix del usuario.
const (
	DefaultLatitude       = 37.78825
	DefaultLongitude      = -122.4324
	DefaultLatitudeDelta  = 0.0922
	DefaultLongitudeDelta = 0.0421
)

func RegisterRoutes(r chi.Router, geocoder geocode.Geocoder, provider location.Provider) {
	r.Route("/map", func(mr chi.Router) {
		mr.Get("/", mapStateHandler(provider))
		mr.Get("/search", searchHandler(geocoder))
	})
}

type regionResponse struct {
	Latitude       float64 `json:"latitude"`
	Longitude      float64 `json:"longitude"`
	LatitudeDelta  float64 `json:"latitude_delta"`
	LongitudeDelta float64 `json:"longitude_delta"`
}

type positionResponse struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type mapStateResponse struct {
	Region       regionResponse    `json:"region"`
	UserLocation *positionResponse `json:"user_location,omitempty"`

	// Copia local del flag, sembrada una sola vez desde el handoff param.
	// El estado vivo de la sesión se sigue por /distress/live.
	DistressActive bool `json:"distress_active"`
}

type searchResultResponse struct {
	Label  string           `json:"label"`
	Marker positionResponse `json:"marker"`
	Region regionResponse   `json:"region"`
}

// mapStateHandler arma el estado inicial de la vista de mapa:
// región por defecto, fix one-shot si hay permiso, y el flag de distress
// leído del query param de navegación.
func mapStateHandler(provider location.Provider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		out := mapStateResponse{
			Region: regionResponse{
				Latitude:       DefaultLatitude,
				Longitude:      DefaultLongitude,
				LatitudeDelta:  DefaultLatitudeDelta,
				LongitudeDelta: DefaultLongitudeDelta,
			},
			DistressActive: r.URL.Query().Get("distress_active") == "true",
		}

		granted, err := provider.RequestPermission(r.Context(), claims.UserID)
		if err == nil && granted {
			if pos, err := provider.Current(r.Context(), claims.UserID); err == nil {
				out.UserLocation = &positionResponse{Latitude: pos.Latitude, Longitude: pos.Longitude}
				out.Region.Latitude = pos.Latitude
				out.Region.Longitude = pos.Longitude
			}
		}
		// Permiso denegado o sin fix: el mapa abre en la región default.

		writeJSON(w, http.StatusOK, out)
	}
}

func searchHandler(geocoder geocode.Geocoder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		query := strings.TrimSpace(r.URL.Query().Get("q"))
		if query == "" {
			http.Error(w, "q is required", http.StatusBadRequest)
			return
		}

		places, err := geocoder.Search(r.Context(), query)
		if err != nil {
			// "Sin resultados" es un outcome, no una falla: 404 sin marker.
			if errors.Is(err, geocode.ErrNoResults) {
				http.Error(w, "location not found", http.StatusNotFound)
				return
			}
			http.Error(w, "location search failed", http.StatusBadGateway)
			return
		}
		if len(places) == 0 {
			http.Error(w, "location not found", http.StatusNotFound)
			return
		}

		// Primer resultado = mejor match del proveedor.
		first := places[0]
		writeJSON(w, http.StatusOK, searchResultResponse{
			Label:  first.Label,
			Marker: positionResponse{Latitude: first.Latitude, Longitude: first.Longitude},
			Region: regionResponse{
				Latitude:       first.Latitude,
				Longitude:      first.Longitude,
				LatitudeDelta:  DefaultLatitudeDelta,
				LongitudeDelta: DefaultLongitudeDelta,
			},
		})
	}
}

// writeJSON está duplicado intencionalmente en handlers de distintos módulos
// para evitar crear helpers compartidos demasiado pronto.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
