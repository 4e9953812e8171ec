package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"petconnect/internal/domain/posts"
)

const defaultPostsLimit = 50

type postsRepo struct {
	mu    sync.RWMutex
	items []posts.Post
}

func NewPostsRepo() posts.Repository {
	return &postsRepo{}
}

func (r *postsRepo) Create(ctx context.Context, p posts.Post) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if strings.TrimSpace(p.ID) == "" {
		return errors.New("post id required")
	}
	r.items = append(r.items, p)
	return nil
}

func (r *postsRepo) ListRecent(ctx context.Context, limit int) ([]posts.Post, error) {
	if limit <= 0 {
		limit = defaultPostsLimit
	}

	r.mu.RLock()
	out := make([]posts.Post, len(r.items))
	copy(out, r.items)
	r.mu.RUnlock()

	// created_at desc, mismo orden que el adapter de Postgres
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})

	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
