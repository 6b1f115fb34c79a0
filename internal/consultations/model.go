package consultations

import (
	"time"

	"vetclinic-backend/internal/money"
	"vetclinic-backend/internal/pets"
)

const (
	EstadoCompletada = "Completada"
	EstadoPendiente  = "Pendiente"
	EstadoCancelada  = "Cancelada"
)

var validEstados = map[string]struct{}{
	EstadoCompletada: {},
	EstadoPendiente:  {},
	EstadoCancelada:  {},
}

func IsValidEstado(value string) bool {
	_, ok := validEstados[value]
	return ok
}

type Consultation struct {
	ID            string      `bson:"_id,omitempty" json:"id"`
	MascotaID     string      `bson:"mascota_id" json:"mascota_id"`
	VeterinarioID string      `bson:"veterinario_id" json:"veterinario_id"`
	FechaConsulta string      `bson:"fecha_consulta" json:"fecha_consulta"`
	Motivo        string      `bson:"motivo" json:"motivo"`
	Diagnostico   string      `bson:"diagnostico" json:"diagnostico"`
	Tratamiento   string      `bson:"tratamiento" json:"tratamiento"`
	Medicamentos  string      `bson:"medicamentos,omitempty" json:"medicamentos,omitempty"`
	Observaciones string      `bson:"observaciones,omitempty" json:"observaciones,omitempty"`
	Costo         money.Cents `bson:"costo" json:"costo"`
	Peso          *float64    `bson:"peso,omitempty" json:"peso,omitempty"`
	Temperatura   *float64    `bson:"temperatura,omitempty" json:"temperatura,omitempty"`
	Estado        string      `bson:"estado" json:"estado"`
	FechaRegistro time.Time   `bson:"fechaRegistro" json:"fechaRegistro"`
}

// Detailed carries the names the list page shows, joined server-side so
// the front end never cross-references parallel collections.
type Detailed struct {
	Consultation
	ClienteID         string `json:"cliente_id"`
	MascotaNombre     string `json:"mascota_nombre"`
	MascotaEspecie    string `json:"mascota_especie"`
	VeterinarioNombre string `json:"veterinario_nombre"`
	ClienteNombre     string `json:"cliente_nombre"`
}

type CreateRequest struct {
	MascotaID     string      `json:"mascota_id" validate:"required"`
	VeterinarioID string      `json:"veterinario_id" validate:"required"`
	FechaConsulta string      `json:"fecha_consulta" validate:"required,date"`
	Motivo        string      `json:"motivo" validate:"required"`
	Diagnostico   string      `json:"diagnostico" validate:"required"`
	Tratamiento   string      `json:"tratamiento" validate:"required"`
	Medicamentos  string      `json:"medicamentos"`
	Observaciones string      `json:"observaciones"`
	Costo         money.Cents `json:"costo" validate:"gte=0"`
	Peso          *float64    `json:"peso" validate:"omitempty,gt=0"`
	Temperatura   *float64    `json:"temperatura" validate:"omitempty,gt=0"`
	Estado        string      `json:"estado" validate:"required,oneof=Completada Pendiente Cancelada"`
}

type UpdateRequest struct {
	FechaConsulta string      `json:"fecha_consulta" validate:"required,date"`
	Motivo        string      `json:"motivo" validate:"required"`
	Diagnostico   string      `json:"diagnostico" validate:"required"`
	Tratamiento   string      `json:"tratamiento" validate:"required"`
	Medicamentos  string      `json:"medicamentos"`
	Observaciones string      `json:"observaciones"`
	Costo         money.Cents `json:"costo" validate:"gte=0"`
	Peso          *float64    `json:"peso" validate:"omitempty,gt=0"`
	Temperatura   *float64    `json:"temperatura" validate:"omitempty,gt=0"`
	Estado        string      `json:"estado" validate:"required,oneof=Completada Pendiente Cancelada"`
}

// PetHistory is a mascota together with its medical trail summary.
type PetHistory struct {
	pets.Pet
	ConsultasCount     int            `json:"consultas_count"`
	ConsultasRecientes []Consultation `json:"consultas_recientes"`
}

type Stats struct {
	TotalConsultas       int64       `json:"total_consultas"`
	ConsultasCompletadas int64       `json:"consultas_completadas"`
	ConsultasPendientes  int64       `json:"consultas_pendientes"`
	IngresosTotales      money.Cents `json:"ingresos_totales"`
}
