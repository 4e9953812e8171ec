package posts

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"petconnect/internal/domain/accounts"
	"petconnect/internal/domain/pets"
	"petconnect/internal/middleware"
	"petconnect/internal/platform/logger"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
)

const defaultListLimit = 50

func RegisterRoutes(r chi.Router, svc *Service, feed *Feed, accountsSvc *accounts.Service, petsSvc *pets.Service, log logger.Logger) {
	r.Route("/posts", func(pr chi.Router) {
		pr.Post("/", createPostHandler(svc, accountsSvc, petsSvc))
		pr.Get("/", listPostsHandler(svc))

		// Feed en vivo: websocket que empuja cada post nuevo.
		pr.Get("/live", liveFeedHandler(feed, log))
	})
}

type createPostRequest struct {
	Content string `json:"content"`
}

type postResponse struct {
	ID         string    `json:"id"`
	AuthorID   string    `json:"author_id"`
	AuthorName string    `json:"author_name"`
	PetName    string    `json:"pet_name"`
	PetType    string    `json:"pet_type"`
	Content    string    `json:"content"`
	CreatedAt  time.Time `json:"created_at"`
}

func createPostHandler(svc *Service, accountsSvc *accounts.Service, petsSvc *pets.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req createPostRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		// Publicar requiere username y al menos
		// un perfil de mascota (se usa la más antigua como snapshot).
		authorName, err := accountsSvc.DisplayName(r.Context(), claims.UserID)
		if err != nil || strings.TrimSpace(authorName) == "" {
			http.Error(w, "user profile incomplete", http.StatusBadRequest)
			return
		}

		pet, err := petsSvc.FirstByOwner(r.Context(), claims.UserID)
		if err != nil {
			http.Error(w, "pet profile required before posting", http.StatusBadRequest)
			return
		}

		p, err := svc.Create(r.Context(), CreateInput{
			AuthorID:   claims.UserID,
			AuthorName: authorName,
			PetName:    pet.Name,
			PetType:    pet.Type,
			Content:    req.Content,
		})
		if err != nil {
			if errors.Is(err, ErrInvalidInput) {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		writeJSON(w, http.StatusCreated, toPostResponse(p))
	}
}

func listPostsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		limit := defaultListLimit
		if v := r.URL.Query().Get("limit"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n <= 0 {
				http.Error(w, "limit must be a positive integer", http.StatusBadRequest)
				return
			}
			limit = n
		}

		items, err := svc.ListRecent(r.Context(), limit)
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		out := make([]postResponse, 0, len(items))
		for _, p := range items {
			out = append(out, toPostResponse(p))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func liveFeedHandler(feed *Feed, log logger.Logger) http.HandlerFunc {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		// El origen lo valida el reverse proxy en deploy; aquí aceptamos todo.
		CheckOrigin: func(*http.Request) bool { return true },
	}

	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Warn("feed ws upgrade failed", map[string]any{"err": err.Error()})
			return
		}
		defer conn.Close()

		// Buffer corto: si el cliente no drena, se descartan posts en vez de
		// frenar el fanout para el resto.
		send := make(chan Post, 16)
		unsubscribe := feed.Subscribe(func(p Post) {
			select {
			case send <- p:
			default:
			}
		})
		defer unsubscribe()

		// Reader solo para detectar el close del cliente.
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
			case p := <-send:
				if err := conn.WriteJSON(toPostResponse(p)); err != nil {
					return
				}
			}
		}
	}
}

func toPostResponse(p Post) postResponse {
	return postResponse{
		ID:         p.ID,
		AuthorID:   p.AuthorID,
		AuthorName: p.AuthorName,
		PetName:    p.PetName,
		PetType:    p.PetType,
		Content:    p.Content,
		CreatedAt:  p.CreatedAt,
	}
}

// writeJSON está duplicado intencionalmente en handlers de distintos módulos
// para evitar crear helpers compartidos demasiado pronto.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
