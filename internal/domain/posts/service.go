package posts

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInvalidInput = errors.New("invalid input")
)

const maxContentLen = 2000

type Service struct {
	repo Repository
	feed *Feed
	now  func() time.Time
}

// NewService recibe el Feed para publicar cada post nuevo a los
// suscriptores en vivo. feed puede ser nil (sin realtime).
func NewService(repo Repository, feed *Feed) *Service {
	return &Service{
		repo: repo,
		feed: feed,
		now:  time.Now,
	}
}

type CreateInput struct {
	AuthorID   string
	AuthorName string
	PetName    string
	PetType    string
	Content    string
}

func (s *Service) Create(ctx context.Context, in CreateInput) (Post, error) {
	// Publicar exige autor con username, mascota y contenido.
	if strings.TrimSpace(in.AuthorID) == "" ||
		strings.TrimSpace(in.AuthorName) == "" ||
		strings.TrimSpace(in.PetName) == "" ||
		strings.TrimSpace(in.PetType) == "" {
		return Post{}, ErrInvalidInput
	}

	content := strings.TrimSpace(in.Content)
	if content == "" || len(content) > maxContentLen {
		return Post{}, ErrInvalidInput
	}

	p := Post{
		ID:         uuid.NewString(),
		AuthorID:   strings.TrimSpace(in.AuthorID),
		AuthorName: strings.TrimSpace(in.AuthorName),
		PetName:    strings.TrimSpace(in.PetName),
		PetType:    strings.TrimSpace(in.PetType),
		Content:    content,
		CreatedAt:  s.now(),
	}

	if err := s.repo.Create(ctx, p); err != nil {
		return Post{}, err
	}

	if s.feed != nil {
		s.feed.Publish(p)
	}
	return p, nil
}

func (s *Service) ListRecent(ctx context.Context, limit int) ([]Post, error) {
	return s.repo.ListRecent(ctx, limit)
}
