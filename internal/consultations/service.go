package consultations

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"vetclinic-backend/internal/pets"
	"vetclinic-backend/internal/users"
)

const recentHistoryLimit = 3

var (
	ErrNotFound      = errors.New("consulta no encontrada")
	ErrPetNotFound   = errors.New("mascota no encontrada")
	ErrVetNotFound   = errors.New("veterinario no encontrado")
	ErrInvalidEstado = errors.New("estado de consulta invalido")
)

// PetDirectory is the slice of the pets service the medical history
// join needs.
type PetDirectory interface {
	GetByID(ctx context.Context, id string) (pets.Pet, error)
	List(ctx context.Context, search string) ([]pets.Pet, error)
}

// StaffDirectory is satisfied by the users service.
type StaffDirectory interface {
	IsVeterinarian(ctx context.Context, id string) (bool, error)
	List(ctx context.Context, filter users.ListFilter) ([]users.User, error)
}

type Service struct {
	repo     Repository
	pets     PetDirectory
	staff    StaffDirectory
	location *time.Location
}

func NewService(repo Repository, petDir PetDirectory, staff StaffDirectory, location *time.Location) *Service {
	if location == nil {
		location = time.Local
	}
	return &Service{repo: repo, pets: petDir, staff: staff, location: location}
}

func (s *Service) checkRefs(ctx context.Context, mascotaID, veterinarioID string) error {
	if _, err := s.pets.GetByID(ctx, mascotaID); err != nil {
		if errors.Is(err, pets.ErrNotFound) {
			return ErrPetNotFound
		}
		return err
	}
	isVet, err := s.staff.IsVeterinarian(ctx, veterinarioID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return ErrVetNotFound
		}
		return err
	}
	if !isVet {
		return ErrVetNotFound
	}
	return nil
}

func (s *Service) Create(ctx context.Context, req CreateRequest) (Consultation, error) {
	if err := s.checkRefs(ctx, req.MascotaID, req.VeterinarioID); err != nil {
		return Consultation{}, err
	}
	consultation := Consultation{
		ID:            primitive.NewObjectID().Hex(),
		MascotaID:     req.MascotaID,
		VeterinarioID: req.VeterinarioID,
		FechaConsulta: req.FechaConsulta,
		Motivo:        req.Motivo,
		Diagnostico:   req.Diagnostico,
		Tratamiento:   req.Tratamiento,
		Medicamentos:  req.Medicamentos,
		Observaciones: req.Observaciones,
		Costo:         req.Costo,
		Peso:          req.Peso,
		Temperatura:   req.Temperatura,
		Estado:        req.Estado,
		FechaRegistro: time.Now().In(s.location),
	}
	if err := s.repo.Create(ctx, consultation); err != nil {
		return Consultation{}, err
	}
	return consultation, nil
}

// List returns every consulta decorated with pet, owner and vet names.
// The three collections are fetched once and joined in memory.
func (s *Service) List(ctx context.Context, estado string) ([]Detailed, error) {
	if estado != "" && !IsValidEstado(estado) {
		return nil, ErrInvalidEstado
	}
	items, err := s.repo.List(ctx, estado)
	if err != nil {
		return nil, err
	}
	return s.decorateAll(ctx, items)
}

func (s *Service) GetByID(ctx context.Context, id string) (Detailed, error) {
	consultation, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return Detailed{}, ErrNotFound
		}
		return Detailed{}, err
	}
	decorated, err := s.decorateAll(ctx, []Consultation{consultation})
	if err != nil {
		return Detailed{}, err
	}
	return decorated[0], nil
}

func (s *Service) Update(ctx context.Context, id string, req UpdateRequest) (Consultation, error) {
	consultation, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return Consultation{}, ErrNotFound
		}
		return Consultation{}, err
	}
	consultation.FechaConsulta = req.FechaConsulta
	consultation.Motivo = req.Motivo
	consultation.Diagnostico = req.Diagnostico
	consultation.Tratamiento = req.Tratamiento
	consultation.Medicamentos = req.Medicamentos
	consultation.Observaciones = req.Observaciones
	consultation.Costo = req.Costo
	consultation.Peso = req.Peso
	consultation.Temperatura = req.Temperatura
	consultation.Estado = req.Estado
	if err := s.repo.Update(ctx, consultation); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return Consultation{}, ErrNotFound
		}
		return Consultation{}, err
	}
	return consultation, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

func (s *Service) ListByMascota(ctx context.Context, mascotaID string) ([]Consultation, error) {
	if _, err := s.pets.GetByID(ctx, mascotaID); err != nil {
		if errors.Is(err, pets.ErrNotFound) {
			return nil, ErrPetNotFound
		}
		return nil, err
	}
	return s.repo.ListByMascota(ctx, mascotaID)
}

// PetsWithHistory lists every mascota that has at least one consulta,
// newest visits first, capped to the handful the history page previews.
func (s *Service) PetsWithHistory(ctx context.Context) ([]PetHistory, error) {
	visits, err := s.repo.List(ctx, "")
	if err != nil {
		return nil, err
	}
	roster, err := s.pets.List(ctx, "")
	if err != nil {
		return nil, err
	}

	byPet := make(map[string][]Consultation)
	for _, v := range visits {
		byPet[v.MascotaID] = append(byPet[v.MascotaID], v)
	}

	items := make([]PetHistory, 0, len(byPet))
	for _, pet := range roster {
		trail := byPet[pet.ID]
		if len(trail) == 0 {
			continue
		}
		sort.SliceStable(trail, func(i, j int) bool {
			return trail[i].FechaConsulta > trail[j].FechaConsulta
		})
		recent := trail
		if len(recent) > recentHistoryLimit {
			recent = recent[:recentHistoryLimit]
		}
		items = append(items, PetHistory{Pet: pet, ConsultasCount: len(trail), ConsultasRecientes: recent})
	}
	return items, nil
}

func (s *Service) Stats(ctx context.Context) (Stats, error) {
	return s.repo.Stats(ctx)
}

func (s *Service) decorateAll(ctx context.Context, items []Consultation) ([]Detailed, error) {
	roster, err := s.pets.List(ctx, "")
	if err != nil {
		return nil, err
	}
	people, err := s.staff.List(ctx, users.ListFilter{})
	if err != nil {
		return nil, err
	}

	petByID := make(map[string]pets.Pet, len(roster))
	for _, p := range roster {
		petByID[p.ID] = p
	}
	nameByID := make(map[string]string, len(people))
	for _, u := range people {
		nameByID[u.ID] = fmt.Sprintf("%s %s", u.Nombre, u.Apellido)
	}

	detailed := make([]Detailed, 0, len(items))
	for _, c := range items {
		row := Detailed{Consultation: c}
		if pet, ok := petByID[c.MascotaID]; ok {
			row.MascotaNombre = pet.Nombre
			row.MascotaEspecie = pet.Especie
			row.ClienteID = pet.UsuarioID
			row.ClienteNombre = nameByID[pet.UsuarioID]
		}
		row.VeterinarioNombre = nameByID[c.VeterinarioID]
		detailed = append(detailed, row)
	}
	return detailed, nil
}
