package gateway

import (
	"encoding/json"
	"net/http"
	"strings"

	"petconnect/internal/middleware"
	"petconnect/internal/ports/location"

	"github.com/go-chi/chi/v5"
)

// RegisterRoutes expone la ingesta del device:
// - POST /device/permission: resultado del prompt de permisos
// - POST /device/location:   fix de posición
func RegisterRoutes(r chi.Router, g *Gateway) {
	r.Route("/device", func(dr chi.Router) {
		dr.Post("/permission", permissionHandler(g))
		dr.Post("/location", reportHandler(g))
	})
}

type permissionRequest struct {
	Granted bool `json:"granted"`
}

type reportRequest struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

func permissionHandler(g *Gateway) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req permissionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		g.SetPermission(claims.UserID, req.Granted)
		w.WriteHeader(http.StatusNoContent)
	}
}

func reportHandler(g *Gateway) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req reportRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		if req.Latitude < -90 || req.Latitude > 90 || req.Longitude < -180 || req.Longitude > 180 {
			http.Error(w, "invalid coordinates", http.StatusBadRequest)
			return
		}

		g.Report(claims.UserID, location.Position{
			Latitude:  req.Latitude,
			Longitude: req.Longitude,
		})
		w.WriteHeader(http.StatusAccepted)
	}
}
