package clients

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"vetclinic-backend/internal/auth"
	"vetclinic-backend/internal/pets"
	"vetclinic-backend/internal/users"
)

var (
	ErrNotFound        = errors.New("cliente no encontrado")
	ErrDuplicateCorreo = errors.New("el correo ya esta registrado")
	ErrHasPets         = errors.New("el cliente tiene mascotas registradas")
	ErrHasActivePets   = errors.New("el cliente tiene mascotas activas")
)

// PetDirectory is the slice of the pets service the client guards need.
type PetDirectory interface {
	List(ctx context.Context, search string) ([]pets.Pet, error)
	ListByOwner(ctx context.Context, ownerID string) ([]pets.Pet, error)
	HasPets(ctx context.Context, ownerID string) (bool, error)
	HasActivePets(ctx context.Context, ownerID string) (bool, error)
}

type Service struct {
	users    users.Repository
	pets     PetDirectory
	location *time.Location
}

func NewService(userRepo users.Repository, petDir PetDirectory, location *time.Location) *Service {
	if location == nil {
		location = time.Local
	}
	return &Service{users: userRepo, pets: petDir, location: location}
}

func (s *Service) get(ctx context.Context, id string) (users.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return users.User{}, ErrNotFound
		}
		return users.User{}, err
	}
	if user.RolNombre != users.RolCliente {
		return users.User{}, ErrNotFound
	}
	return user, nil
}

func (s *Service) decorate(ctx context.Context, user users.User) (Client, error) {
	owned, err := s.pets.ListByOwner(ctx, user.ID)
	if err != nil {
		return Client{}, err
	}
	client := Client{User: user, MascotasCount: len(owned), MascotasNames: make([]string, 0, len(owned))}
	for _, p := range owned {
		client.MascotasNames = append(client.MascotasNames, p.Nombre)
	}
	return client, nil
}

func (s *Service) Create(ctx context.Context, req CreateRequest) (Client, error) {
	// Login lowercases before lookup, so stored correos are lowercase too.
	correo := strings.ToLower(strings.TrimSpace(req.Correo))
	user := users.User{
		ID:            primitive.NewObjectID().Hex(),
		Nombre:        req.Nombre,
		Apellido:      req.Apellido,
		Correo:        correo,
		RolNombre:     users.RolCliente,
		Telefono:      req.Telefono,
		Direccion:     req.Direccion,
		Estado:        users.EstadoActivo,
		FechaRegistro: time.Now().In(s.location),
	}
	if correo != "" {
		if _, err := s.users.GetByCorreo(ctx, correo); err == nil {
			return Client{}, ErrDuplicateCorreo
		} else if !errors.Is(err, mongo.ErrNoDocuments) {
			return Client{}, err
		}
	}
	if req.Contrasena != "" {
		hash, err := auth.HashPassword(req.Contrasena)
		if err != nil {
			return Client{}, err
		}
		user.PasswordHash = hash
	}
	if err := s.users.Create(ctx, user); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return Client{}, ErrDuplicateCorreo
		}
		return Client{}, err
	}
	return Client{User: user, MascotasNames: []string{}}, nil
}

// List joins every cliente against the full pet roster in one pass
// instead of issuing a query per row.
func (s *Service) List(ctx context.Context, estado string) ([]Client, error) {
	people, err := s.users.List(ctx, users.ListFilter{RolNombre: users.RolCliente, Estado: estado})
	if err != nil {
		return nil, err
	}
	roster, err := s.pets.List(ctx, "")
	if err != nil {
		return nil, err
	}
	byOwner := make(map[string][]string, len(people))
	for _, p := range roster {
		byOwner[p.UsuarioID] = append(byOwner[p.UsuarioID], p.Nombre)
	}
	items := make([]Client, 0, len(people))
	for _, person := range people {
		names := byOwner[person.ID]
		if names == nil {
			names = []string{}
		}
		sort.Strings(names)
		items = append(items, Client{User: person, MascotasCount: len(names), MascotasNames: names})
	}
	return items, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (Client, error) {
	user, err := s.get(ctx, id)
	if err != nil {
		return Client{}, err
	}
	return s.decorate(ctx, user)
}

func (s *Service) Update(ctx context.Context, id string, req UpdateRequest) (Client, error) {
	user, err := s.get(ctx, id)
	if err != nil {
		return Client{}, err
	}
	correo := strings.ToLower(strings.TrimSpace(req.Correo))
	if correo != "" && correo != user.Correo {
		if _, err := s.users.GetByCorreo(ctx, correo); err == nil {
			return Client{}, ErrDuplicateCorreo
		} else if !errors.Is(err, mongo.ErrNoDocuments) {
			return Client{}, err
		}
	}
	user.Nombre = req.Nombre
	user.Apellido = req.Apellido
	user.Telefono = req.Telefono
	user.Direccion = req.Direccion
	user.Correo = correo
	if err := s.users.Update(ctx, user); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return Client{}, ErrDuplicateCorreo
		}
		return Client{}, err
	}
	return s.decorate(ctx, user)
}

// SetEstado flips the cliente between Activo and Inactivo. Deactivation
// is refused while any of their pets is still Activo.
func (s *Service) SetEstado(ctx context.Context, id, estado string) (Client, error) {
	user, err := s.get(ctx, id)
	if err != nil {
		return Client{}, err
	}
	if estado == users.EstadoInactivo && user.Estado != users.EstadoInactivo {
		active, err := s.pets.HasActivePets(ctx, id)
		if err != nil {
			return Client{}, err
		}
		if active {
			return Client{}, ErrHasActivePets
		}
	}
	updated, err := s.users.SetEstado(ctx, id, estado)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return Client{}, ErrNotFound
		}
		return Client{}, err
	}
	return s.decorate(ctx, updated)
}

// Delete removes the cliente. Any registered pet, active or not, blocks
// the deletion so the pet history never loses its owner.
func (s *Service) Delete(ctx context.Context, id string) error {
	if _, err := s.get(ctx, id); err != nil {
		return err
	}
	has, err := s.pets.HasPets(ctx, id)
	if err != nil {
		return err
	}
	if has {
		return ErrHasPets
	}
	return s.users.Delete(ctx, id)
}

func (s *Service) ValidateDeletion(ctx context.Context, id string) (DeletionCheck, error) {
	if _, err := s.get(ctx, id); err != nil {
		return DeletionCheck{}, err
	}
	has, err := s.pets.HasPets(ctx, id)
	if err != nil {
		return DeletionCheck{}, err
	}
	if has {
		return DeletionCheck{PuedeEliminar: false, Razon: ErrHasPets.Error()}, nil
	}
	return DeletionCheck{PuedeEliminar: true}, nil
}

func (s *Service) ValidateDeactivation(ctx context.Context, id string) (DeactivationCheck, error) {
	if _, err := s.get(ctx, id); err != nil {
		return DeactivationCheck{}, err
	}
	active, err := s.pets.HasActivePets(ctx, id)
	if err != nil {
		return DeactivationCheck{}, err
	}
	if active {
		return DeactivationCheck{PuedeDesactivar: false, Razon: ErrHasActivePets.Error()}, nil
	}
	return DeactivationCheck{PuedeDesactivar: true}, nil
}

// Directory answers cliente existence checks for other services without
// dragging in the pet join. The pets service consults it before
// registering a new mascota.
type Directory struct {
	users users.Repository
}

func NewDirectory(userRepo users.Repository) *Directory {
	return &Directory{users: userRepo}
}

func (d *Directory) Exists(ctx context.Context, id string) (bool, error) {
	user, err := d.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return false, nil
		}
		return false, err
	}
	return user.RolNombre == users.RolCliente, nil
}
