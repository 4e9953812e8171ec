package blob

import (
	"context"
	"io"
)

// Store abstrae el almacenamiento de binarios (fotos de mascotas).
// Put sube el objeto y devuelve la URL pública de descarga.
// Los keys se namespacen por usuario: users/<uid>/pet_photos/<archivo>.
type Store interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error)
}
