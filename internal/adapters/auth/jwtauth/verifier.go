package jwtauth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"petconnect/internal/ports/auth"

	"github.com/golang-jwt/jwt/v5"
)

// Verifier implementa auth.AuthVerifier sobre tokens firmados por Issuer.
// Se instancia desde main/router; el middleware no conoce esta implementación.
type Verifier struct {
	secret []byte
}

func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(strings.TrimSpace(secret))}
}

func (v *Verifier) Verify(ctx context.Context, token string) (auth.Claims, error) {
	if v == nil || len(v.secret) == 0 {
		return auth.Claims{}, ErrNotConfigured
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return auth.Claims{}, ErrInvalidToken
	}

	var c claims
	parsed, err := jwt.ParseWithClaims(token, &c, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil {
		return auth.Claims{}, fmt.Errorf("jwtauth: verify failed: %w", err)
	}
	if !parsed.Valid {
		return auth.Claims{}, ErrInvalidToken
	}

	c.UserID = strings.TrimSpace(c.UserID)
	if c.UserID == "" {
		return auth.Claims{}, errors.New("jwtauth: claims missing user id")
	}

	return auth.Claims{
		UserID: c.UserID,
		Email:  strings.TrimSpace(c.Email),
	}, nil
}
