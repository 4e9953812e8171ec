package posts

import "time"

// Post es una entrada del feed social. Append-only: no hay edición ni
// borrado desde el app. author_name y pet_name/pet_type son snapshots
// tomados al momento de publicar (no se actualizan si el perfil cambia).
type Post struct {
	ID string

	AuthorID   string
	AuthorName string

	PetName string
	PetType string

	Content string

	// Asignado por el servidor al crear; el cliente nunca manda timestamps.
	CreatedAt time.Time
}
