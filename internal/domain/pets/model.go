package pets

import "time"

// Gender define el sexo de la mascota.
// @Enum male, female
type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
)

// TemperamentTag son los tags de temperamento que muestra el perfil.
type TemperamentTag string

const (
	TagPlayful      TemperamentTag = "playful"
	TagShy          TemperamentTag = "shy"
	TagReactive     TemperamentTag = "reactive"
	TagLovesKids    TemperamentTag = "loves_kids"
	TagGoodWithCats TemperamentTag = "good_with_cats"
)

// AllTemperamentTags en orden de UI.
var AllTemperamentTags = []TemperamentTag{
	TagPlayful,
	TagShy,
	TagReactive,
	TagLovesKids,
	TagGoodWithCats,
}

// Pet representa el perfil de una mascota registrada en PetConnect.
// Pertenece a exactamente un usuario; solo el owner puede tocarlo.
type Pet struct {
	ID          string
	OwnerUserID string

	Name           string
	Type           string // dog, cat, etc. (texto libre en la UI)
	Breed          string
	Age            int
	Gender         Gender
	SpayedNeutered bool

	TemperamentTags []TemperamentTag

	// URL pública de la foto subida al blob store; vacío si no hay foto.
	PhotoURL string

	CreatedAt time.Time
	UpdatedAt time.Time
}
