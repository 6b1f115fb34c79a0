package appointments

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"
)

type memoryRepo struct {
	items map[string]Appointment
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{items: make(map[string]Appointment)}
}

func (r *memoryRepo) Create(_ context.Context, appointment Appointment) error {
	r.items[appointment.ID] = appointment
	return nil
}

func (r *memoryRepo) List(_ context.Context, filter ListFilter) ([]Appointment, error) {
	out := make([]Appointment, 0)
	for _, appt := range r.items {
		if filter.Fecha != "" && appt.FechaCita != filter.Fecha {
			continue
		}
		if filter.Estado != "" && appt.Estado != filter.Estado {
			continue
		}
		out = append(out, appt)
	}
	return out, nil
}

func (r *memoryRepo) GetByID(_ context.Context, id string) (Appointment, error) {
	appt, ok := r.items[id]
	if !ok {
		return Appointment{}, mongo.ErrNoDocuments
	}
	return appt, nil
}

func (r *memoryRepo) Update(_ context.Context, appointment Appointment) error {
	if _, ok := r.items[appointment.ID]; !ok {
		return mongo.ErrNoDocuments
	}
	r.items[appointment.ID] = appointment
	return nil
}

func (r *memoryRepo) UpdateEstado(_ context.Context, id, estado string) (Appointment, error) {
	appt, ok := r.items[id]
	if !ok {
		return Appointment{}, mongo.ErrNoDocuments
	}
	appt.Estado = estado
	r.items[id] = appt
	return appt, nil
}

func (r *memoryRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.items[id]; !ok {
		return mongo.ErrNoDocuments
	}
	delete(r.items, id)
	return nil
}

type fakePets struct {
	active map[string]bool
}

func (f fakePets) IsActive(_ context.Context, id string) (bool, error) {
	active, ok := f.active[id]
	if !ok {
		return false, mongo.ErrNoDocuments
	}
	return active, nil
}

type fakeVets struct {
	vets map[string]bool
}

func (f fakeVets) IsVeterinarian(_ context.Context, id string) (bool, error) {
	isVet, ok := f.vets[id]
	if !ok {
		return false, mongo.ErrNoDocuments
	}
	return isVet, nil
}

func newTestService(repo Repository) *Service {
	pets := fakePets{active: map[string]bool{"pet-1": true, "pet-2": true, "pet-inactive": false}}
	vets := fakeVets{vets: map[string]bool{"vet-1": true, "sec-1": false}}
	return NewService(repo, pets, vets, time.UTC)
}

// now is a Monday so the weekday template applies to the booking date.
var testNow = time.Date(2026, time.March, 2, 8, 0, 0, 0, time.UTC)

const testDate = "2026-03-03"

func createReq(hora string) CreateRequest {
	return CreateRequest{
		MascotaID: "pet-1",
		UsuarioID: "vet-1",
		FechaCita: testDate,
		HoraCita:  hora,
		Motivo:    "control anual",
	}
}

func TestCreateBooksAgendada(t *testing.T) {
	svc := newTestService(newMemoryRepo())

	appt, err := svc.Create(context.Background(), createReq("09:00"), testNow)
	require.NoError(t, err)
	assert.Equal(t, EstadoAgendada, appt.Estado)
	assert.Equal(t, testDate, appt.FechaCita)
	assert.Equal(t, "09:00", appt.HoraCita)
	assert.NotEmpty(t, appt.ID)
}

func TestCreateRejectsTakenSlot(t *testing.T) {
	svc := newTestService(newMemoryRepo())

	_, err := svc.Create(context.Background(), createReq("10:00"), testNow)
	require.NoError(t, err)

	second := createReq("10:00")
	second.MascotaID = "pet-2"
	_, err = svc.Create(context.Background(), second, testNow)
	assert.ErrorIs(t, err, ErrSlotTaken)
}

func TestCreateSucceedsAfterCancellation(t *testing.T) {
	svc := newTestService(newMemoryRepo())

	first, err := svc.Create(context.Background(), createReq("10:00"), testNow)
	require.NoError(t, err)

	_, err = svc.ChangeEstado(context.Background(), first.ID, EstadoCancelada)
	require.NoError(t, err)

	second := createReq("10:00")
	second.MascotaID = "pet-2"
	_, err = svc.Create(context.Background(), second, testNow)
	assert.NoError(t, err)
}

func TestCreateRejectsBadReferences(t *testing.T) {
	svc := newTestService(newMemoryRepo())

	req := createReq("09:00")
	req.MascotaID = "missing"
	_, err := svc.Create(context.Background(), req, testNow)
	assert.ErrorIs(t, err, ErrPetNotFound)

	req = createReq("09:00")
	req.MascotaID = "pet-inactive"
	_, err = svc.Create(context.Background(), req, testNow)
	assert.ErrorIs(t, err, ErrPetInactive)

	req = createReq("09:00")
	req.UsuarioID = "sec-1"
	_, err = svc.Create(context.Background(), req, testNow)
	assert.ErrorIs(t, err, ErrVetNotFound)
}

func TestCreateRejectsPastAndOffTemplate(t *testing.T) {
	svc := newTestService(newMemoryRepo())

	req := createReq("09:00")
	req.FechaCita = "2026-02-27"
	_, err := svc.Create(context.Background(), req, testNow)
	assert.ErrorIs(t, err, ErrDatePast)

	// 12:00 falls in the lunch gap of the weekday template.
	_, err = svc.Create(context.Background(), createReq("12:00"), testNow)
	assert.ErrorIs(t, err, ErrSlotNotInTemplate)
}

func TestCreateRejectsElapsedSlotToday(t *testing.T) {
	svc := newTestService(newMemoryRepo())
	midMorning := time.Date(2026, time.March, 2, 10, 30, 0, 0, time.UTC)

	req := createReq("09:00")
	req.FechaCita = "2026-03-02"
	_, err := svc.Create(context.Background(), req, midMorning)
	assert.ErrorIs(t, err, ErrDatePast)

	// Later slots the same day are still open.
	req = createReq("11:00")
	req.FechaCita = "2026-03-02"
	appt, err := svc.Create(context.Background(), req, midMorning)
	require.NoError(t, err)
	assert.Equal(t, EstadoAgendada, appt.Estado)
}

func TestAvailableSlotsMarksReserved(t *testing.T) {
	svc := newTestService(newMemoryRepo())

	_, err := svc.Create(context.Background(), createReq("14:00"), testNow)
	require.NoError(t, err)

	slots, err := svc.AvailableSlots(context.Background(), testDate)
	require.NoError(t, err)
	require.Len(t, slots, 7)

	seen := make(map[string]bool, len(slots))
	for _, slot := range slots {
		assert.False(t, seen[slot.Hora], "duplicate slot %s", slot.Hora)
		seen[slot.Hora] = true
		if slot.Hora == "14:00" {
			assert.False(t, slot.Disponible)
		} else {
			assert.True(t, slot.Disponible, "slot %s should be free", slot.Hora)
		}
	}
}

func TestChangeEstadoTransitions(t *testing.T) {
	svc := newTestService(newMemoryRepo())

	appt, err := svc.Create(context.Background(), createReq("09:00"), testNow)
	require.NoError(t, err)

	updated, err := svc.ChangeEstado(context.Background(), appt.ID, EstadoCompletada)
	require.NoError(t, err)
	assert.Equal(t, EstadoCompletada, updated.Estado)

	_, err = svc.ChangeEstado(context.Background(), appt.ID, EstadoCancelada)
	assert.ErrorIs(t, err, ErrIllegalTransition)

	_, err = svc.ChangeEstado(context.Background(), "missing", EstadoCompletada)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateOnlyAgendada(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo)

	appt, err := svc.Create(context.Background(), createReq("09:00"), testNow)
	require.NoError(t, err)

	moved, err := svc.Update(context.Background(), appt.ID, UpdateRequest{
		MascotaID: "pet-1",
		UsuarioID: "vet-1",
		FechaCita: testDate,
		HoraCita:  "15:00",
		Motivo:    "control anual",
	}, testNow)
	require.NoError(t, err)
	assert.Equal(t, "15:00", moved.HoraCita)

	_, err = svc.ChangeEstado(context.Background(), appt.ID, EstadoCompletada)
	require.NoError(t, err)

	_, err = svc.Update(context.Background(), appt.ID, UpdateRequest{
		MascotaID: "pet-1",
		UsuarioID: "vet-1",
		FechaCita: testDate,
		HoraCita:  "16:00",
		Motivo:    "control anual",
	}, testNow)
	assert.ErrorIs(t, err, ErrIllegalTransition)
}

func TestUpdateRejectsMovingOntoTakenSlot(t *testing.T) {
	svc := newTestService(newMemoryRepo())

	first, err := svc.Create(context.Background(), createReq("09:00"), testNow)
	require.NoError(t, err)

	second := createReq("10:00")
	second.MascotaID = "pet-2"
	_, err = svc.Create(context.Background(), second, testNow)
	require.NoError(t, err)

	_, err = svc.Update(context.Background(), first.ID, UpdateRequest{
		MascotaID: "pet-1",
		UsuarioID: "vet-1",
		FechaCita: testDate,
		HoraCita:  "10:00",
		Motivo:    "control anual",
	}, testNow)
	assert.ErrorIs(t, err, ErrSlotTaken)
}

func TestListRejectsUnknownEstado(t *testing.T) {
	svc := newTestService(newMemoryRepo())

	_, err := svc.List(context.Background(), ListFilter{Estado: "Pagada"})
	assert.ErrorIs(t, err, ErrInvalidEstado)
}
