package users

import "time"

const (
	RolAdministrador = "Administrador"
	RolVeterinario   = "Veterinario"
	RolSecretaria    = "Secretaria"
	RolCliente       = "Cliente"

	EstadoActivo   = "Activo"
	EstadoInactivo = "Inactivo"
)

var validRoles = map[string]struct{}{
	RolAdministrador: {},
	RolVeterinario:   {},
	RolSecretaria:    {},
	RolCliente:       {},
}

func IsValidRol(value string) bool {
	_, ok := validRoles[value]
	return ok
}

// User covers every person the clinic tracks. Clients without login
// credentials simply have no correo/hash; staff always do.
type User struct {
	ID            string    `bson:"_id,omitempty" json:"id"`
	Nombre        string    `bson:"nombre" json:"nombre"`
	Apellido      string    `bson:"apellido" json:"apellido"`
	Correo        string    `bson:"correo,omitempty" json:"correo,omitempty"`
	PasswordHash  string    `bson:"passwordHash,omitempty" json:"-"`
	RolNombre     string    `bson:"rol_nombre" json:"rol_nombre"`
	Telefono      string    `bson:"telefono,omitempty" json:"telefono,omitempty"`
	Direccion     string    `bson:"direccion,omitempty" json:"direccion,omitempty"`
	Estado        string    `bson:"estado" json:"estado"`
	FechaRegistro time.Time `bson:"fechaRegistro" json:"fechaRegistro"`
}

type CreateRequest struct {
	Nombre     string `json:"nombre" validate:"required"`
	Apellido   string `json:"apellido" validate:"required"`
	Correo     string `json:"correo" validate:"omitempty,email"`
	Contrasena string `json:"contrasena" validate:"omitempty,min=8"`
	RolNombre  string `json:"rol_nombre" validate:"required,oneof=Administrador Veterinario Secretaria Cliente"`
	Telefono   string `json:"telefono" validate:"omitempty,phone"`
	Direccion  string `json:"direccion"`
}

type UpdateRequest struct {
	Nombre     string `json:"nombre" validate:"required"`
	Apellido   string `json:"apellido" validate:"required"`
	Correo     string `json:"correo" validate:"omitempty,email"`
	Contrasena string `json:"contrasena" validate:"omitempty,min=8"`
	RolNombre  string `json:"rol_nombre" validate:"required,oneof=Administrador Veterinario Secretaria Cliente"`
	Telefono   string `json:"telefono" validate:"omitempty,phone"`
	Direccion  string `json:"direccion"`
	Estado     string `json:"estado" validate:"omitempty,oneof=Activo Inactivo"`
}

type LoginRequest struct {
	Correo     string `json:"correo" validate:"required,email"`
	Contrasena string `json:"contrasena" validate:"required"`
}

type RegisterRequest struct {
	Nombre     string `json:"nombre" validate:"required"`
	Apellido   string `json:"apellido" validate:"required"`
	Correo     string `json:"correo" validate:"required,email"`
	Contrasena string `json:"contrasena" validate:"required,min=8"`
	Telefono   string `json:"telefono" validate:"omitempty,phone"`
	Direccion  string `json:"direccion"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh" validate:"required"`
}

type SessionResponse struct {
	AccessToken  string `json:"access"`
	RefreshToken string `json:"refresh"`
	User         User   `json:"user"`
}

type ListFilter struct {
	RolNombre string
	Estado    string
}
