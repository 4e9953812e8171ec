package accounts

import "time"

// User representa una cuenta registrada.
// El documento de perfil (username) vive junto a las credenciales;
// el hash nunca sale del dominio (no se serializa en handlers).
type User struct {
	ID       string
	Email    string
	Username string

	PasswordHash []byte

	CreatedAt time.Time
	UpdatedAt time.Time
}
