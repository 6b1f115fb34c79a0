package appointments

import "time"

const (
	EstadoAgendada   = "Agendada"
	EstadoCompletada = "Completada"
	EstadoCancelada  = "Cancelada"
)

var validEstados = map[string]struct{}{
	EstadoAgendada:   {},
	EstadoCompletada: {},
	EstadoCancelada:  {},
}

func IsValidEstado(value string) bool {
	_, ok := validEstados[value]
	return ok
}

// CanTransition encodes the appointment lifecycle: an appointment is
// created Agendada and may move once, to Completada or Cancelada. Both
// end states are terminal.
func CanTransition(from, to string) bool {
	if from != EstadoAgendada {
		return false
	}
	return to == EstadoCompletada || to == EstadoCancelada
}

type Appointment struct {
	ID            string    `bson:"_id,omitempty" json:"id"`
	MascotaID     string    `bson:"mascota_id" json:"mascota_id"`
	UsuarioID     string    `bson:"usuario_id" json:"usuario_id"`
	FechaCita     string    `bson:"fechaCita" json:"fechaCita"`
	HoraCita      string    `bson:"horaCita" json:"horaCita"`
	Motivo        string    `bson:"motivo" json:"motivo"`
	Estado        string    `bson:"estado" json:"estado"`
	FechaRegistro time.Time `bson:"fechaRegistro" json:"fechaRegistro"`
}

type CreateRequest struct {
	MascotaID string `json:"mascota_id" validate:"required"`
	UsuarioID string `json:"usuario_id" validate:"required"`
	FechaCita string `json:"fechaCita" validate:"required,date"`
	HoraCita  string `json:"horaCita" validate:"required,clock"`
	Motivo    string `json:"motivo" validate:"required"`
}

type UpdateRequest struct {
	MascotaID string `json:"mascota_id" validate:"required"`
	UsuarioID string `json:"usuario_id" validate:"required"`
	FechaCita string `json:"fechaCita" validate:"required,date"`
	HoraCita  string `json:"horaCita" validate:"required,clock"`
	Motivo    string `json:"motivo" validate:"required"`
}

type StatusRequest struct {
	Estado string `json:"estado" validate:"required,oneof=Completada Cancelada"`
}

// AvailableSlot mirrors the /citas/horarios-disponibles/ response rows.
type AvailableSlot struct {
	Fecha      string `json:"fecha"`
	Hora       string `json:"hora"`
	Disponible bool   `json:"disponible"`
}

type ListFilter struct {
	Fecha  string
	Estado string
}
