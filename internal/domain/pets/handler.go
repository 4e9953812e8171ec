package pets

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"petconnect/internal/middleware"
	"petconnect/internal/ports/blob"

	"github.com/go-chi/chi/v5"
)

const maxPhotoBytes = 8 << 20 // 8MB

func RegisterRoutes(r chi.Router, svc *Service, photos blob.Store) {
	r.Route("/pets", func(pr chi.Router) {
		pr.Post("/", createPetHandler(svc))
		pr.Get("/", listPetsHandler(svc))

		pr.Get("/{petID}", getPetHandler(svc))
		pr.Patch("/{petID}", updatePetHandler(svc))
		pr.Delete("/{petID}", deletePetHandler(svc))

		// Foto: multipart upload -> blob store -> photo_url en el perfil.
		pr.Post("/{petID}/photo", uploadPhotoHandler(svc, photos))
	})
}

type createPetRequest struct {
	Name            string   `json:"name"`
	Type            string   `json:"type"`
	Breed           string   `json:"breed"`
	Age             int      `json:"age"`
	Gender          string   `json:"gender"`
	SpayedNeutered  bool     `json:"spayed_neutered"`
	TemperamentTags []string `json:"temperament_tags"`
}

type updatePetRequest struct {
	// Punteros para PATCH real: nil = no tocar.
	Name            *string   `json:"name"`
	Type            *string   `json:"type"`
	Breed           *string   `json:"breed"`
	Age             *int      `json:"age"`
	Gender          *string   `json:"gender"`
	SpayedNeutered  *bool     `json:"spayed_neutered"`
	TemperamentTags *[]string `json:"temperament_tags"`
}

type petResponse struct {
	ID              string    `json:"id"`
	OwnerUserID     string    `json:"owner_user_id"`
	Name            string    `json:"name"`
	Type            string    `json:"type"`
	Breed           string    `json:"breed"`
	Age             int       `json:"age"`
	Gender          string    `json:"gender"`
	SpayedNeutered  bool      `json:"spayed_neutered"`
	TemperamentTags []string  `json:"temperament_tags"`
	PhotoURL        string    `json:"photo_url,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func createPetHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req createPetRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		p, err := svc.Create(r.Context(), claims.UserID, CreateInput{
			Name:            req.Name,
			Type:            req.Type,
			Breed:           req.Breed,
			Age:             req.Age,
			Gender:          req.Gender,
			SpayedNeutered:  req.SpayedNeutered,
			TemperamentTags: req.TemperamentTags,
		})
		if err != nil {
			if errors.Is(err, ErrInvalidInput) {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		writeJSON(w, http.StatusCreated, toPetResponse(p))
	}
}

func listPetsHandler(svc *Service) http.HandlerFunc {
	// Owner-only: cada usuario ve solamente sus mascotas.
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		items, err := svc.ListByOwner(r.Context(), claims.UserID)
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		out := make([]petResponse, 0, len(items))
		for _, p := range items {
			out = append(out, toPetResponse(p))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func getPetHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		p, err := svc.GetByID(r.Context(), chi.URLParam(r, "petID"))
		if err != nil {
			http.Error(w, "pet not found", http.StatusNotFound)
			return
		}
		if p.OwnerUserID != claims.UserID {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}

		writeJSON(w, http.StatusOK, toPetResponse(p))
	}
}

func updatePetHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()

		var req updatePetRequest
		if err := dec.Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		updated, err := svc.Update(r.Context(), chi.URLParam(r, "petID"), claims.UserID, UpdateInput{
			Name:            req.Name,
			Type:            req.Type,
			Breed:           req.Breed,
			Age:             req.Age,
			Gender:          req.Gender,
			SpayedNeutered:  req.SpayedNeutered,
			TemperamentTags: req.TemperamentTags,
		})
		if err != nil {
			writeServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toPetResponse(updated))
	}
}

func deletePetHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		if err := svc.Delete(r.Context(), chi.URLParam(r, "petID"), claims.UserID); err != nil {
			writeServiceError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func uploadPhotoHandler(svc *Service, photos blob.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		if photos == nil {
			http.Error(w, "photo storage not configured", http.StatusServiceUnavailable)
			return
		}

		petID := chi.URLParam(r, "petID")
		p, err := svc.GetByID(r.Context(), petID)
		if err != nil {
			http.Error(w, "pet not found", http.StatusNotFound)
			return
		}
		if p.OwnerUserID != claims.UserID {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}

		if err := r.ParseMultipartForm(maxPhotoBytes); err != nil {
			http.Error(w, "invalid multipart body", http.StatusBadRequest)
			return
		}
		file, header, err := r.FormFile("photo")
		if err != nil {
			http.Error(w, "photo file required", http.StatusBadRequest)
			return
		}
		defer file.Close()

		contentType := header.Header.Get("Content-Type")
		if contentType == "" {
			contentType = "image/jpeg"
		}

		// Namespacing por usuario: users/<uid>/pet_photos/<name>_<ts>.jpg
		key := fmt.Sprintf("users/%s/pet_photos/%s_%d.jpg", claims.UserID, p.Name, time.Now().UnixMilli())

		url, err := photos.Put(r.Context(), key, file, header.Size, contentType)
		if err != nil {
			http.Error(w, "photo upload failed", http.StatusBadGateway)
			return
		}

		// Si este write falla, el objeto recién subido queda huérfano (sin cleanup).
		updated, err := svc.SetPhotoURL(r.Context(), petID, claims.UserID, url)
		if err != nil {
			writeServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toPetResponse(updated))
	}
}

func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidInput):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ErrNotFound):
		http.Error(w, "pet not found", http.StatusNotFound)
	case errors.Is(err, ErrForbidden):
		http.Error(w, "forbidden", http.StatusForbidden)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func toPetResponse(p Pet) petResponse {
	tags := make([]string, 0, len(p.TemperamentTags))
	for _, t := range p.TemperamentTags {
		tags = append(tags, string(t))
	}
	return petResponse{
		ID:              p.ID,
		OwnerUserID:     p.OwnerUserID,
		Name:            p.Name,
		Type:            p.Type,
		Breed:           p.Breed,
		Age:             p.Age,
		Gender:          string(p.Gender),
		SpayedNeutered:  p.SpayedNeutered,
		TemperamentTags: tags,
		PhotoURL:        p.PhotoURL,
		CreatedAt:       p.CreatedAt,
		UpdatedAt:       p.UpdatedAt,
	}
}

// writeJSON está duplicado intencionalmente en handlers de distintos módulos
// para evitar crear helpers compartidos demasiado pronto.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
