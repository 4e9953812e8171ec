package pets

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("not found")
	ErrForbidden    = errors.New("forbidden")
)

type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{
		repo: repo,
		now:  time.Now,
	}
}

type CreateInput struct {
	Name            string
	Type            string
	Breed           string
	Age             int
	Gender          string
	SpayedNeutered  bool
	TemperamentTags []string
}

func (s *Service) Create(ctx context.Context, ownerUserID string, in CreateInput) (Pet, error) {
	if strings.TrimSpace(ownerUserID) == "" {
		return Pet{}, ErrInvalidInput
	}
	// Campos obligatorios del formulario de registro:
	// name, type, breed, age y gender.
	if strings.TrimSpace(in.Name) == "" ||
		strings.TrimSpace(in.Type) == "" ||
		strings.TrimSpace(in.Breed) == "" {
		return Pet{}, ErrInvalidInput
	}
	if in.Age <= 0 {
		return Pet{}, ErrInvalidInput
	}

	gender, err := parseGender(in.Gender)
	if err != nil {
		return Pet{}, err
	}
	tags, err := normalizeTagsStrict(in.TemperamentTags)
	if err != nil {
		return Pet{}, err
	}

	now := s.now()
	p := Pet{
		ID:              uuid.NewString(),
		OwnerUserID:     ownerUserID,
		Name:            strings.TrimSpace(in.Name),
		Type:            strings.TrimSpace(in.Type),
		Breed:           strings.TrimSpace(in.Breed),
		Age:             in.Age,
		Gender:          gender,
		SpayedNeutered:  in.SpayedNeutered,
		TemperamentTags: tags,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := s.repo.Create(ctx, p); err != nil {
		return Pet{}, err
	}
	return p, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (Pet, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) ListByOwner(ctx context.Context, ownerUserID string) ([]Pet, error) {
	return s.repo.ListByOwner(ctx, ownerUserID)
}

// FirstByOwner devuelve la mascota más antigua del usuario.
// El feed la usa como snapshot (pet_name/pet_type) al crear un post.
func (s *Service) FirstByOwner(ctx context.Context, ownerUserID string) (Pet, error) {
	items, err := s.repo.ListByOwner(ctx, ownerUserID)
	if err != nil {
		return Pet{}, err
	}
	if len(items) == 0 {
		return Pet{}, ErrNotFound
	}
	return items[0], nil
}

type UpdateInput struct {
	// Punteros para PATCH real: nil = no tocar.
	Name            *string
	Type            *string
	Breed           *string
	Age             *int
	Gender          *string
	SpayedNeutered  *bool
	TemperamentTags *[]string
}

func (s *Service) Update(ctx context.Context, petID, callerUserID string, in UpdateInput) (Pet, error) {
	current, err := s.mustOwn(ctx, petID, callerUserID)
	if err != nil {
		return Pet{}, err
	}

	if in.Name != nil {
		if strings.TrimSpace(*in.Name) == "" {
			return Pet{}, ErrInvalidInput
		}
		current.Name = strings.TrimSpace(*in.Name)
	}
	if in.Type != nil {
		if strings.TrimSpace(*in.Type) == "" {
			return Pet{}, ErrInvalidInput
		}
		current.Type = strings.TrimSpace(*in.Type)
	}
	if in.Breed != nil {
		if strings.TrimSpace(*in.Breed) == "" {
			return Pet{}, ErrInvalidInput
		}
		current.Breed = strings.TrimSpace(*in.Breed)
	}
	if in.Age != nil {
		if *in.Age <= 0 {
			return Pet{}, ErrInvalidInput
		}
		current.Age = *in.Age
	}
	if in.Gender != nil {
		g, err := parseGender(*in.Gender)
		if err != nil {
			return Pet{}, err
		}
		current.Gender = g
	}
	if in.SpayedNeutered != nil {
		current.SpayedNeutered = *in.SpayedNeutered
	}
	if in.TemperamentTags != nil {
		tags, err := normalizeTagsStrict(*in.TemperamentTags)
		if err != nil {
			return Pet{}, err
		}
		current.TemperamentTags = tags
	}

	current.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, current); err != nil {
		return Pet{}, err
	}
	return current, nil
}

// SetPhotoURL fija la URL de la foto después de un upload exitoso.
// Si este write falla, el objeto ya subido queda huérfano en el blob store;
// no hay compensación en MVP.
func (s *Service) SetPhotoURL(ctx context.Context, petID, callerUserID, url string) (Pet, error) {
	current, err := s.mustOwn(ctx, petID, callerUserID)
	if err != nil {
		return Pet{}, err
	}

	current.PhotoURL = strings.TrimSpace(url)
	current.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, current); err != nil {
		return Pet{}, err
	}
	return current, nil
}

func (s *Service) Delete(ctx context.Context, petID, callerUserID string) error {
	if _, err := s.mustOwn(ctx, petID, callerUserID); err != nil {
		return err
	}
	return s.repo.Delete(ctx, petID)
}

func (s *Service) mustOwn(ctx context.Context, petID, callerUserID string) (Pet, error) {
	petID = strings.TrimSpace(petID)
	callerUserID = strings.TrimSpace(callerUserID)
	if petID == "" || callerUserID == "" {
		return Pet{}, ErrInvalidInput
	}

	p, err := s.repo.GetByID(ctx, petID)
	if err != nil {
		return Pet{}, ErrNotFound
	}
	if p.OwnerUserID != callerUserID {
		return Pet{}, ErrForbidden
	}
	return p, nil
}

func parseGender(s string) (Gender, error) {
	switch Gender(strings.ToLower(strings.TrimSpace(s))) {
	case GenderMale:
		return GenderMale, nil
	case GenderFemale:
		return GenderFemale, nil
	default:
		return "", ErrInvalidInput
	}
}

// normalizeTagsStrict valida contra el set conocido, dedupea y conserva
// el orden de UI.
func normalizeTagsStrict(raw []string) ([]TemperamentTag, error) {
	if len(raw) == 0 {
		return nil, nil
	}

	known := map[TemperamentTag]bool{}
	for _, t := range AllTemperamentTags {
		known[t] = true
	}

	seen := map[TemperamentTag]bool{}
	for _, r := range raw {
		tag := TemperamentTag(strings.ToLower(strings.TrimSpace(r)))
		if !known[tag] {
			return nil, ErrInvalidInput
		}
		seen[tag] = true
	}

	out := make([]TemperamentTag, 0, len(seen))
	for _, t := range AllTemperamentTags {
		if seen[t] {
			out = append(out, t)
		}
	}
	return out, nil
}
