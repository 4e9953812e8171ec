package accounts

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNotFound           = errors.New("not found")
)

// AuthEvent se emite en cada transición de sesión (login/logout).
type AuthEvent struct {
	UserID   string
	SignedIn bool
}

type Service struct {
	repo Repository
	now  func() time.Time

	obsMu     sync.Mutex
	observers map[int]func(AuthEvent)
	nextObsID int
}

func NewService(repo Repository) *Service {
	return &Service{
		repo:      repo,
		now:       time.Now,
		observers: make(map[int]func(AuthEvent)),
	}
}

type SignUpInput struct {
	Email    string
	Password string
	Username string
}

func (s *Service) SignUp(ctx context.Context, in SignUpInput) (User, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	username := strings.TrimSpace(in.Username)

	if email == "" || username == "" {
		return User{}, ErrInvalidInput
	}
	if !strings.Contains(email, "@") {
		return User{}, ErrInvalidInput
	}
	// Mínimo de 6 caracteres, el piso típico de los proveedores de auth.
	if len(in.Password) < 6 {
		return User{}, ErrInvalidInput
	}

	if _, err := s.repo.GetByEmail(ctx, email); err == nil {
		return User{}, ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, err
	}

	now := s.now()
	u := User{
		ID:           uuid.NewString(),
		Email:        email,
		Username:     username,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.repo.Create(ctx, u); err != nil {
		return User{}, err
	}
	return u, nil
}

// SignIn verifica credenciales y notifica a los observers de auth-state.
func (s *Service) SignIn(ctx context.Context, email, password string) (User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return User{}, ErrInvalidCredentials
	}

	u, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return User{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(password)); err != nil {
		return User{}, ErrInvalidCredentials
	}

	s.notify(AuthEvent{UserID: u.ID, SignedIn: true})
	return u, nil
}

// SignOut es puramente una transición de estado observable: el token JWT
// sigue siendo válido hasta expirar (sin revocación server-side en MVP).
func (s *Service) SignOut(ctx context.Context, userID string) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return
	}
	s.notify(AuthEvent{UserID: userID, SignedIn: false})
}

func (s *Service) GetByID(ctx context.Context, id string) (User, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return User{}, ErrInvalidInput
	}
	return s.repo.GetByID(ctx, id)
}

// DisplayName devuelve el username para snapshots (posts).
func (s *Service) DisplayName(ctx context.Context, userID string) (string, error) {
	u, err := s.GetByID(ctx, userID)
	if err != nil {
		return "", err
	}
	return u.Username, nil
}

// SubscribeAuthState registra un observer que se dispara en cada login/logout.
// Devuelve el unsubscribe; llamarlo más de una vez es seguro.
func (s *Service) SubscribeAuthState(fn func(AuthEvent)) func() {
	s.obsMu.Lock()
	defer s.obsMu.Unlock()

	id := s.nextObsID
	s.nextObsID++
	s.observers[id] = fn

	return func() {
		s.obsMu.Lock()
		defer s.obsMu.Unlock()
		delete(s.observers, id)
	}
}

func (s *Service) notify(ev AuthEvent) {
	s.obsMu.Lock()
	fns := make([]func(AuthEvent), 0, len(s.observers))
	for _, fn := range s.observers {
		fns = append(fns, fn)
	}
	s.obsMu.Unlock()

	// Entrega sincrónica fuera del lock: un observer puede des-suscribirse
	// desde su propio callback sin deadlock.
	for _, fn := range fns {
		fn(ev)
	}
}
