package pets

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

var (
	ErrNotFound      = errors.New("mascota no encontrada")
	ErrOwnerNotFound = errors.New("cliente no encontrado")
)

// OwnerDirectory is satisfied by the clients service; a pet always
// belongs to exactly one registered client.
type OwnerDirectory interface {
	Exists(ctx context.Context, id string) (bool, error)
}

type Service struct {
	repo     Repository
	owners   OwnerDirectory
	location *time.Location
}

func NewService(repo Repository, owners OwnerDirectory, location *time.Location) *Service {
	return &Service{
		repo:     repo,
		owners:   owners,
		location: location,
	}
}

func (s *Service) checkOwner(ctx context.Context, ownerID string) error {
	if s.owners == nil {
		return nil
	}
	exists, err := s.owners.Exists(ctx, ownerID)
	if err != nil {
		return err
	}
	if !exists {
		return ErrOwnerNotFound
	}
	return nil
}

func (s *Service) Create(ctx context.Context, req CreateRequest) (Pet, error) {
	ownerID := strings.TrimSpace(req.UsuarioID)
	if err := s.checkOwner(ctx, ownerID); err != nil {
		return Pet{}, err
	}

	pet := Pet{
		ID:            primitive.NewObjectID().Hex(),
		Nombre:        strings.TrimSpace(req.Nombre),
		Especie:       strings.TrimSpace(req.Especie),
		Raza:          strings.TrimSpace(req.Raza),
		Edad:          req.Edad,
		Sexo:          req.Sexo,
		UsuarioID:     ownerID,
		Estado:        EstadoActivo,
		Observaciones: strings.TrimSpace(req.Observaciones),
		FechaRegistro: time.Now().In(s.location),
	}

	if err := s.repo.Create(ctx, pet); err != nil {
		return Pet{}, err
	}
	return pet, nil
}

func (s *Service) List(ctx context.Context, search string) ([]Pet, error) {
	return s.repo.List(ctx, strings.TrimSpace(search))
}

func (s *Service) ListByOwner(ctx context.Context, ownerID string) ([]Pet, error) {
	return s.repo.ListByOwner(ctx, strings.TrimSpace(ownerID))
}

func (s *Service) GetByID(ctx context.Context, id string) (Pet, error) {
	pet, err := s.repo.GetByID(ctx, strings.TrimSpace(id))
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return Pet{}, ErrNotFound
		}
		return Pet{}, err
	}
	return pet, nil
}

func (s *Service) Update(ctx context.Context, id string, req UpdateRequest) (Pet, error) {
	current, err := s.GetByID(ctx, id)
	if err != nil {
		return Pet{}, err
	}

	ownerID := strings.TrimSpace(req.UsuarioID)
	if ownerID != current.UsuarioID {
		if err := s.checkOwner(ctx, ownerID); err != nil {
			return Pet{}, err
		}
	}

	current.Nombre = strings.TrimSpace(req.Nombre)
	current.Especie = strings.TrimSpace(req.Especie)
	current.Raza = strings.TrimSpace(req.Raza)
	current.Edad = req.Edad
	current.Sexo = req.Sexo
	current.UsuarioID = ownerID
	current.Observaciones = strings.TrimSpace(req.Observaciones)

	if err := s.repo.Update(ctx, current); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return Pet{}, ErrNotFound
		}
		return Pet{}, err
	}
	return current, nil
}

func (s *Service) Activate(ctx context.Context, id string) (Pet, error) {
	return s.setEstado(ctx, id, EstadoActivo)
}

func (s *Service) Deactivate(ctx context.Context, id string) (Pet, error) {
	return s.setEstado(ctx, id, EstadoInactivo)
}

func (s *Service) setEstado(ctx context.Context, id, estado string) (Pet, error) {
	updated, err := s.repo.SetEstado(ctx, strings.TrimSpace(id), estado)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return Pet{}, ErrNotFound
		}
		return Pet{}, err
	}
	return updated, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, strings.TrimSpace(id)); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

func (s *Service) Species(ctx context.Context) ([]string, error) {
	return s.repo.Species(ctx)
}

func (s *Service) Stats(ctx context.Context) (Stats, error) {
	return s.repo.Stats(ctx)
}

// IsActive implements the appointment service's pet check.
func (s *Service) IsActive(ctx context.Context, id string) (bool, error) {
	pet, err := s.repo.GetByID(ctx, strings.TrimSpace(id))
	if err != nil {
		return false, err
	}
	return pet.Estado == EstadoActivo, nil
}

// HasPets and HasActivePets back the client deactivation/deletion guards.
func (s *Service) HasPets(ctx context.Context, ownerID string) (bool, error) {
	count, err := s.repo.CountByOwner(ctx, strings.TrimSpace(ownerID), "")
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *Service) HasActivePets(ctx context.Context, ownerID string) (bool, error) {
	count, err := s.repo.CountByOwner(ctx, strings.TrimSpace(ownerID), EstadoActivo)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
