package jwtauth

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestIssueAndVerify(t *testing.T) {
	issuer := NewIssuer("test-secret", time.Hour)
	verifier := NewVerifier("test-secret")

	token, err := issuer.Issue("user-1", "a@b.com")
	if err != nil {
		t.Fatal(err)
	}
	if token == "" {
		t.Fatal("expected a token")
	}

	c, err := verifier.Verify(context.Background(), token)
	if err != nil {
		t.Fatal(err)
	}
	if c.UserID != "user-1" || c.Email != "a@b.com" {
		t.Fatalf("unexpected claims: %+v", c)
	}
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	issuer := NewIssuer("secret-a", time.Hour)
	verifier := NewVerifier("secret-b")

	token, err := issuer.Issue("user-1", "")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := verifier.Verify(context.Background(), token); err == nil {
		t.Fatal("expected verify to fail with wrong secret")
	}
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	issuer := NewIssuer("test-secret", time.Minute)
	issuer.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }

	token, err := issuer.Issue("user-1", "")
	if err != nil {
		t.Fatal(err)
	}

	verifier := NewVerifier("test-secret")
	if _, err := verifier.Verify(context.Background(), token); err == nil {
		t.Fatal("expected expired token to fail")
	}
}

func TestEmptySecret(t *testing.T) {
	issuer := NewIssuer("", 0)
	if _, err := issuer.Issue("user-1", ""); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}

	verifier := NewVerifier(" ")
	if _, err := verifier.Verify(context.Background(), "whatever"); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}

func TestIssueRequiresUserID(t *testing.T) {
	issuer := NewIssuer("test-secret", 0)
	if _, err := issuer.Issue("", "a@b.com"); err == nil {
		t.Fatal("expected error without user id")
	}
}
