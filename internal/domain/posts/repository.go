package posts

import "context"

type Repository interface {
	Create(ctx context.Context, p Post) error
	// ListRecent devuelve posts ordenados por created_at descendente.
	// limit <= 0 usa el default del adapter.
	ListRecent(ctx context.Context, limit int) ([]Post, error)
}
