package postgres

import (
	"context"
	"database/sql"

	"petconnect/internal/domain/posts"
)

const defaultPostsLimit = 50

type PostsRepo struct {
	db *sql.DB
}

func NewPostsRepo(db *sql.DB) *PostsRepo {
	return &PostsRepo{db: db}
}

func (r *PostsRepo) Create(ctx context.Context, p posts.Post) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO posts (
			id, author_id, author_name,
			pet_name, pet_type, content,
			created_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7)
	`,
		p.ID,
		p.AuthorID,
		p.AuthorName,
		p.PetName,
		p.PetType,
		p.Content,
		p.CreatedAt,
	)
	return err
}

func (r *PostsRepo) ListRecent(ctx context.Context, limit int) ([]posts.Post, error) {
	if limit <= 0 {
		limit = defaultPostsLimit
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, author_id, author_name, pet_name, pet_type, content, created_at
		FROM posts
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]posts.Post, 0)
	for rows.Next() {
		var p posts.Post
		if err := rows.Scan(
			&p.ID,
			&p.AuthorID,
			&p.AuthorName,
			&p.PetName,
			&p.PetType,
			&p.Content,
			&p.CreatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
