package auth

import "context"

// AuthVerifier valida el access token de un request y devuelve la identidad
// del usuario. La implementación productiva es JWT (adapters/auth/jwtauth);
// un verifier nil deja al middleware en modo dev (header X-Debug-User-ID).
type AuthVerifier interface {
	// Verify devuelve los claims del token, o error si viene vacío,
	// mal firmado o vencido.
	Verify(ctx context.Context, token string) (Claims, error)
}
