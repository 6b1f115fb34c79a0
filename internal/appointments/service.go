package appointments

import (
	"context"
	"errors"
	"strings"
	"time"

	"vetclinic-backend/internal/schedule"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

var (
	ErrNotFound          = errors.New("cita no encontrada")
	ErrSlotTaken         = errors.New("el horario ya esta reservado")
	ErrSlotNotInTemplate = errors.New("horario fuera del calendario de atencion")
	ErrDatePast          = errors.New("la fecha ya paso")
	ErrIllegalTransition = errors.New("transicion de estado no permitida")
	ErrInvalidEstado     = errors.New("estado invalido")
	ErrPetNotFound       = errors.New("mascota no encontrada")
	ErrPetInactive       = errors.New("la mascota esta inactiva")
	ErrVetNotFound       = errors.New("veterinario no encontrado")
)

// PetDirectory and VetDirectory are satisfied by the pets and users
// services; the appointment flow only needs existence/level checks, not
// the full records.
type PetDirectory interface {
	IsActive(ctx context.Context, id string) (bool, error)
}

type VetDirectory interface {
	IsVeterinarian(ctx context.Context, id string) (bool, error)
}

type Service struct {
	repo     Repository
	pets     PetDirectory
	vets     VetDirectory
	location *time.Location
}

func NewService(repo Repository, pets PetDirectory, vets VetDirectory, location *time.Location) *Service {
	return &Service{
		repo:     repo,
		pets:     pets,
		vets:     vets,
		location: location,
	}
}

// reservedTimes collects the booked times for a date. Cancelled
// appointments release their slot.
func (s *Service) reservedTimes(ctx context.Context, fecha string) (map[string]bool, error) {
	booked, err := s.repo.List(ctx, ListFilter{Fecha: fecha})
	if err != nil {
		return nil, err
	}
	reserved := make(map[string]bool, len(booked))
	for _, appt := range booked {
		if appt.Estado == EstadoCancelada {
			continue
		}
		reserved[appt.HoraCita] = true
	}
	return reserved, nil
}

// AvailableSlots returns the full template for the date with a
// disponible flag per slot, the shape /citas/horarios-disponibles/
// serves. A fully booked day yields all-false rows, not an error.
func (s *Service) AvailableSlots(ctx context.Context, fecha string) ([]AvailableSlot, error) {
	template, err := schedule.TemplateSlots(fecha, s.location)
	if err != nil {
		return nil, err
	}

	reserved, err := s.reservedTimes(ctx, fecha)
	if err != nil {
		return nil, err
	}

	slots := make([]AvailableSlot, 0, len(template))
	for _, hora := range template {
		slots = append(slots, AvailableSlot{
			Fecha:      fecha,
			Hora:       hora,
			Disponible: !reserved[hora],
		})
	}
	return slots, nil
}

// ValidateSlot answers /citas/validar-horario/: whether (fecha, hora) can
// still be booked right now.
func (s *Service) ValidateSlot(ctx context.Context, fecha, hora string, now time.Time) (bool, error) {
	reserved, err := s.reservedTimes(ctx, fecha)
	if err != nil {
		return false, err
	}
	return schedule.IsSlotAvailable(fecha, hora, s.location, now, reserved)
}

func (s *Service) checkRefs(ctx context.Context, mascotaID, usuarioID string) error {
	active, err := s.pets.IsActive(ctx, mascotaID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return ErrPetNotFound
		}
		return err
	}
	if !active {
		return ErrPetInactive
	}

	isVet, err := s.vets.IsVeterinarian(ctx, usuarioID)
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

// checkSlot re-verifies availability at submission time. The slot-picker
// already filtered taken times, but another client may have booked since;
// the partial unique index is the final authority on the race.
func (s *Service) checkSlot(ctx context.Context, fecha, hora string, now time.Time) error {
	past, err := schedule.IsDatePast(fecha, s.location, now)
	if err != nil {
		return err
	}
	if past {
		return ErrDatePast
	}

	inTemplate, err := schedule.IsSlotInTemplate(fecha, hora, s.location)
	if err != nil {
		return err
	}
	if !inTemplate {
		return ErrSlotNotInTemplate
	}

	// A slot earlier today is as unbookable as a past date.
	pastSlot, err := schedule.IsSlotPast(fecha, hora, s.location, now)
	if err != nil {
		return err
	}
	if pastSlot {
		return ErrDatePast
	}

	reserved, err := s.reservedTimes(ctx, fecha)
	if err != nil {
		return err
	}
	if reserved[hora] {
		return ErrSlotTaken
	}
	return nil
}

func (s *Service) Create(ctx context.Context, req CreateRequest, now time.Time) (Appointment, error) {
	if err := s.checkRefs(ctx, req.MascotaID, req.UsuarioID); err != nil {
		return Appointment{}, err
	}
	if err := s.checkSlot(ctx, req.FechaCita, req.HoraCita, now); err != nil {
		return Appointment{}, err
	}

	appointment := Appointment{
		ID:            primitive.NewObjectID().Hex(),
		MascotaID:     strings.TrimSpace(req.MascotaID),
		UsuarioID:     strings.TrimSpace(req.UsuarioID),
		FechaCita:     req.FechaCita,
		HoraCita:      req.HoraCita,
		Motivo:        strings.TrimSpace(req.Motivo),
		Estado:        EstadoAgendada,
		FechaRegistro: now.In(s.location),
	}

	if err := s.repo.Create(ctx, appointment); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return Appointment{}, ErrSlotTaken
		}
		return Appointment{}, err
	}

	return appointment, nil
}

func (s *Service) List(ctx context.Context, filter ListFilter) ([]Appointment, error) {
	if filter.Estado != "" && !IsValidEstado(filter.Estado) {
		return nil, ErrInvalidEstado
	}
	return s.repo.List(ctx, filter)
}

func (s *Service) GetByID(ctx context.Context, id string) (Appointment, error) {
	appointment, err := s.repo.GetByID(ctx, strings.TrimSpace(id))
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return Appointment{}, ErrNotFound
		}
		return Appointment{}, err
	}
	return appointment, nil
}

// Update reschedules an appointment. Only Agendada appointments can move;
// the conflict guard runs again when the slot changes.
func (s *Service) Update(ctx context.Context, id string, req UpdateRequest, now time.Time) (Appointment, error) {
	current, err := s.GetByID(ctx, id)
	if err != nil {
		return Appointment{}, err
	}
	if current.Estado != EstadoAgendada {
		return Appointment{}, ErrIllegalTransition
	}

	if err := s.checkRefs(ctx, req.MascotaID, req.UsuarioID); err != nil {
		return Appointment{}, err
	}

	slotChanged := current.FechaCita != req.FechaCita || current.HoraCita != req.HoraCita
	if slotChanged {
		if err := s.checkSlot(ctx, req.FechaCita, req.HoraCita, now); err != nil {
			return Appointment{}, err
		}
	}

	current.MascotaID = strings.TrimSpace(req.MascotaID)
	current.UsuarioID = strings.TrimSpace(req.UsuarioID)
	current.FechaCita = req.FechaCita
	current.HoraCita = req.HoraCita
	current.Motivo = strings.TrimSpace(req.Motivo)

	if err := s.repo.Update(ctx, current); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return Appointment{}, ErrSlotTaken
		}
		if errors.Is(err, mongo.ErrNoDocuments) {
			return Appointment{}, ErrNotFound
		}
		return Appointment{}, err
	}
	return current, nil
}

func (s *Service) ChangeEstado(ctx context.Context, id, estado string) (Appointment, error) {
	current, err := s.GetByID(ctx, id)
	if err != nil {
		return Appointment{}, err
	}
	if !CanTransition(current.Estado, estado) {
		return Appointment{}, ErrIllegalTransition
	}

	updated, err := s.repo.UpdateEstado(ctx, current.ID, estado)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return Appointment{}, ErrNotFound
		}
		return Appointment{}, err
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
