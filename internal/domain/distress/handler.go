package distress

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"petconnect/internal/middleware"
	"petconnect/internal/platform/logger"
	"petconnect/internal/ports/location"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
)

func RegisterRoutes(r chi.Router, mgr *Manager, log logger.Logger) {
	r.Route("/distress", func(dr chi.Router) {
		dr.Post("/start", startHandler(mgr))
		dr.Post("/stop", stopHandler(mgr))
		dr.Get("/", snapshotHandler(mgr))

		// Stream de snapshots: la sesión compartida, observable desde
		// cualquier pantalla.
		dr.Get("/live", liveHandler(mgr, log))
	})
}

type confirmRequest struct {
	Confirm bool `json:"confirm"`
}

type positionResponse struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type snapshotResponse struct {
	Active            bool              `json:"active"`
	StartedAt         *time.Time        `json:"started_at,omitempty"`
	Elapsed           string            `json:"elapsed"`
	LastKnownPosition *positionResponse `json:"last_known_position,omitempty"`
}

type startResponse struct {
	Session snapshotResponse `json:"session"`
	// Handoff de navegación: el mapa lee distress_active una sola vez para
	// sembrar su estado inicial.
	Handoff handoffResponse `json:"handoff"`
}

type handoffResponse struct {
	DistressActive string `json:"distress_active"`
	MapPath        string `json:"map_path"`
}

func startHandler(mgr *Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req confirmRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		// La sesión jamás arranca implícita: sin confirmación explícita no hay alerta.
		if !req.Confirm {
			http.Error(w, "confirmation required", http.StatusBadRequest)
			return
		}

		snap, err := mgr.Start(r.Context(), claims.UserID)
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		writeJSON(w, http.StatusOK, startResponse{
			Session: toSnapshotResponse(snap),
			Handoff: handoffResponse{
				DistressActive: "true",
				MapPath:        "/map?distress_active=true",
			},
		})
	}
}

func stopHandler(mgr *Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req confirmRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		if !req.Confirm {
			http.Error(w, "confirmation required", http.StatusBadRequest)
			return
		}

		// Idempotente: stop sobre una sesión Idle devuelve el estado Idle.
		mgr.Stop(claims.UserID)
		writeJSON(w, http.StatusOK, toSnapshotResponse(mgr.Snapshot(claims.UserID)))
	}
}

func snapshotHandler(mgr *Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		writeJSON(w, http.StatusOK, toSnapshotResponse(mgr.Snapshot(claims.UserID)))
	}
}

func liveHandler(mgr *Manager, log logger.Logger) http.HandlerFunc {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     func(*http.Request) bool { return true },
	}

	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Warn("distress ws upgrade failed", map[string]any{"err": err.Error()})
			return
		}
		defer conn.Close()

		// Buffer 1 con reemplazo: solo interesa el snapshot más reciente.
		send := make(chan Snapshot, 1)
		push := func(s Snapshot) {
			for {
				select {
				case send <- s:
					return
				default:
					select {
					case <-send:
					default:
					}
				}
			}
		}

		unsubscribe := mgr.Subscribe(claims.UserID, push)
		defer unsubscribe()

		// Estado actual primero, después cada cambio.
		push(mgr.Snapshot(claims.UserID))

		done := make(chan struct{})
		go func() {
			defer close(done)
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()

		for {
			select {
			case <-done:
				return
			case snap := <-send:
				if err := conn.WriteJSON(toSnapshotResponse(snap)); err != nil {
					return
				}
			}
		}
	}
}

func toSnapshotResponse(s Snapshot) snapshotResponse {
	out := snapshotResponse{
		Active:  s.Active,
		Elapsed: s.Elapsed,
	}
	if !s.StartedAt.IsZero() {
		t := s.StartedAt
		out.StartedAt = &t
	}
	if s.LastKnownPosition != nil {
		out.LastKnownPosition = toPositionResponse(*s.LastKnownPosition)
	}
	return out
}

func toPositionResponse(p location.Position) *positionResponse {
	return &positionResponse{Latitude: p.Latitude, Longitude: p.Longitude}
}

// writeJSON está duplicado intencionalmente en handlers de distintos módulos
// para evitar crear helpers compartidos demasiado pronto.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
