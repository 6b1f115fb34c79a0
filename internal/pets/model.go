package pets

import "time"

const (
	EstadoActivo   = "Activo"
	EstadoInactivo = "Inactivo"

	SexoMacho  = "M"
	SexoHembra = "H"
)

type Pet struct {
	ID            string    `bson:"_id,omitempty" json:"id"`
	Nombre        string    `bson:"nombre" json:"nombre"`
	Especie       string    `bson:"especie" json:"especie"`
	Raza          string    `bson:"raza" json:"raza"`
	Edad          int       `bson:"edad" json:"edad"`
	Sexo          string    `bson:"sexo" json:"sexo"`
	UsuarioID     string    `bson:"usuario_id" json:"usuario_id"`
	Estado        string    `bson:"estado" json:"estado"`
	Observaciones string    `bson:"observaciones,omitempty" json:"observaciones,omitempty"`
	FechaRegistro time.Time `bson:"fecha_registro" json:"fecha_registro"`
}

type CreateRequest struct {
	Nombre        string `json:"nombre" validate:"required"`
	Especie       string `json:"especie" validate:"required"`
	Raza          string `json:"raza" validate:"required"`
	Edad          int    `json:"edad" validate:"gte=0,lte=100"`
	Sexo          string `json:"sexo" validate:"required,oneof=M H"`
	UsuarioID     string `json:"usuario_id" validate:"required"`
	Observaciones string `json:"observaciones"`
}

type UpdateRequest struct {
	Nombre        string `json:"nombre" validate:"required"`
	Especie       string `json:"especie" validate:"required"`
	Raza          string `json:"raza" validate:"required"`
	Edad          int    `json:"edad" validate:"gte=0,lte=100"`
	Sexo          string `json:"sexo" validate:"required,oneof=M H"`
	UsuarioID     string `json:"usuario_id" validate:"required"`
	Observaciones string `json:"observaciones"`
}

type SpeciesCount struct {
	Especie string `bson:"_id" json:"especie"`
	Total   int64  `bson:"total" json:"total"`
}

type Stats struct {
	TotalMascotas     int64          `json:"total_mascotas"`
	MascotasActivas   int64          `json:"mascotas_activas"`
	MascotasInactivas int64          `json:"mascotas_inactivas"`
	EspeciesStats     []SpeciesCount `json:"especies_stats"`
}
