package memory

import (
	"context"
	"errors"
	"strings"
	"sync"

	"petconnect/internal/domain/accounts"
)

var (
	ErrNotFound = errors.New("not found")
)

type usersRepo struct {
	mu   sync.RWMutex
	byID map[string]accounts.User
}

func NewUsersRepo() accounts.Repository {
	return &usersRepo{
		byID: make(map[string]accounts.User),
	}
}

func (r *usersRepo) Create(ctx context.Context, u accounts.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if strings.TrimSpace(u.ID) == "" {
		return errors.New("user id required")
	}
	if _, exists := r.byID[u.ID]; exists {
		return errors.New("user already exists")
	}
	for _, existing := range r.byID {
		if existing.Email == u.Email {
			return errors.New("email already exists")
		}
	}
	r.byID[u.ID] = u
	return nil
}

func (r *usersRepo) GetByID(ctx context.Context, id string) (accounts.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.byID[id]
	if !ok {
		return accounts.User{}, ErrNotFound
	}
	return u, nil
}

func (r *usersRepo) GetByEmail(ctx context.Context, email string) (accounts.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.byID {
		if u.Email == email {
			return u, nil
		}
	}
	return accounts.User{}, ErrNotFound
}
