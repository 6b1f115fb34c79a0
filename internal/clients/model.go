package clients

import "vetclinic-backend/internal/users"

// Client is a usuario with rol Cliente, decorated with the pet join the
// list page needs. The join happens server-side, once per request,
// instead of leaving the front end to cross-reference parallel lists.
type Client struct {
	users.User    `bson:",inline"`
	MascotasCount int      `json:"mascotas_count"`
	MascotasNames []string `json:"mascotas_names"`
}

type CreateRequest struct {
	Nombre     string `json:"nombre" validate:"required"`
	Apellido   string `json:"apellido" validate:"required"`
	Telefono   string `json:"telefono" validate:"required,phone"`
	Direccion  string `json:"direccion" validate:"required"`
	Correo     string `json:"correo" validate:"omitempty,email"`
	Contrasena string `json:"contrasena" validate:"omitempty,min=8"`
}

type UpdateRequest struct {
	Nombre    string `json:"nombre" validate:"required"`
	Apellido  string `json:"apellido" validate:"required"`
	Telefono  string `json:"telefono" validate:"required,phone"`
	Direccion string `json:"direccion" validate:"required"`
	Correo    string `json:"correo" validate:"omitempty,email"`
}

type StatusRequest struct {
	Estado string `json:"estado" validate:"required,oneof=Activo Inactivo"`
}

type DeletionCheck struct {
	PuedeEliminar bool   `json:"puede_eliminar"`
	Razon         string `json:"razon,omitempty"`
}

type DeactivationCheck struct {
	PuedeDesactivar bool   `json:"puede_desactivar"`
	Razon           string `json:"razon,omitempty"`
}
