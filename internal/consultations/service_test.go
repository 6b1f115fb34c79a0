package consultations

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"

	"vetclinic-backend/internal/money"
	"vetclinic-backend/internal/pets"
	"vetclinic-backend/internal/users"
)

type memoryRepo struct {
	items map[string]Consultation
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{items: make(map[string]Consultation)}
}

func (r *memoryRepo) Create(_ context.Context, consultation Consultation) error {
	r.items[consultation.ID] = consultation
	return nil
}

func (r *memoryRepo) List(_ context.Context, estado string) ([]Consultation, error) {
	out := make([]Consultation, 0)
	for _, c := range r.items {
		if estado != "" && c.Estado != estado {
			continue
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FechaConsulta > out[j].FechaConsulta })
	return out, nil
}

func (r *memoryRepo) GetByID(_ context.Context, id string) (Consultation, error) {
	c, ok := r.items[id]
	if !ok {
		return Consultation{}, mongo.ErrNoDocuments
	}
	return c, nil
}

func (r *memoryRepo) ListByMascota(_ context.Context, mascotaID string) ([]Consultation, error) {
	out := make([]Consultation, 0)
	for _, c := range r.items {
		if c.MascotaID == mascotaID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FechaConsulta > out[j].FechaConsulta })
	return out, nil
}

func (r *memoryRepo) Update(_ context.Context, consultation Consultation) error {
	if _, ok := r.items[consultation.ID]; !ok {
		return mongo.ErrNoDocuments
	}
	r.items[consultation.ID] = consultation
	return nil
}

func (r *memoryRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.items[id]; !ok {
		return mongo.ErrNoDocuments
	}
	delete(r.items, id)
	return nil
}

func (r *memoryRepo) Stats(_ context.Context) (Stats, error) {
	var stats Stats
	for _, c := range r.items {
		stats.TotalConsultas++
		switch c.Estado {
		case EstadoCompletada:
			stats.ConsultasCompletadas++
			stats.IngresosTotales += c.Costo
		case EstadoPendiente:
			stats.ConsultasPendientes++
		}
	}
	return stats, nil
}

type fakePetDir struct {
	roster map[string]pets.Pet
}

func (f fakePetDir) GetByID(_ context.Context, id string) (pets.Pet, error) {
	pet, ok := f.roster[id]
	if !ok {
		return pets.Pet{}, pets.ErrNotFound
	}
	return pet, nil
}

func (f fakePetDir) List(_ context.Context, _ string) ([]pets.Pet, error) {
	out := make([]pets.Pet, 0, len(f.roster))
	for _, pet := range f.roster {
		out = append(out, pet)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type fakeStaff struct {
	people map[string]users.User
}

func (f fakeStaff) IsVeterinarian(_ context.Context, id string) (bool, error) {
	user, ok := f.people[id]
	if !ok {
		return false, mongo.ErrNoDocuments
	}
	return user.RolNombre == users.RolVeterinario && user.Estado == users.EstadoActivo, nil
}

func (f fakeStaff) List(_ context.Context, filter users.ListFilter) ([]users.User, error) {
	out := make([]users.User, 0)
	for _, user := range f.people {
		if filter.RolNombre != "" && user.RolNombre != filter.RolNombre {
			continue
		}
		out = append(out, user)
	}
	return out, nil
}

func newTestService(repo Repository) *Service {
	petDir := fakePetDir{roster: map[string]pets.Pet{
		"pet-1": {ID: "pet-1", Nombre: "Rocky", Especie: "Perro", UsuarioID: "cli-1", Estado: pets.EstadoActivo},
		"pet-2": {ID: "pet-2", Nombre: "Luna", Especie: "Gato", UsuarioID: "cli-2", Estado: pets.EstadoActivo},
	}}
	staff := fakeStaff{people: map[string]users.User{
		"vet-1": {ID: "vet-1", Nombre: "Laura", Apellido: "Jimenez", RolNombre: users.RolVeterinario, Estado: users.EstadoActivo},
		"cli-1": {ID: "cli-1", Nombre: "Maria", Apellido: "Solis", RolNombre: users.RolCliente, Estado: users.EstadoActivo},
		"cli-2": {ID: "cli-2", Nombre: "Jorge", Apellido: "Vargas", RolNombre: users.RolCliente, Estado: users.EstadoActivo},
		"sec-1": {ID: "sec-1", Nombre: "Rosa", Apellido: "Mena", RolNombre: users.RolSecretaria, Estado: users.EstadoActivo},
	}}
	return NewService(repo, petDir, staff, time.UTC)
}

func visitRequest(mascotaID, fecha string, costo money.Cents, estado string) CreateRequest {
	return CreateRequest{
		MascotaID:     mascotaID,
		VeterinarioID: "vet-1",
		FechaConsulta: fecha,
		Motivo:        "control general",
		Diagnostico:   "saludable",
		Tratamiento:   "ninguno",
		Costo:         costo,
		Estado:        estado,
	}
}

func TestCreateChecksReferences(t *testing.T) {
	svc := newTestService(newMemoryRepo())

	created, err := svc.Create(context.Background(), visitRequest("pet-1", "2026-02-10", 20000, EstadoCompletada))
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.False(t, created.FechaRegistro.IsZero())

	req := visitRequest("missing", "2026-02-10", 20000, EstadoCompletada)
	_, err = svc.Create(context.Background(), req)
	assert.ErrorIs(t, err, ErrPetNotFound)

	req = visitRequest("pet-1", "2026-02-10", 20000, EstadoCompletada)
	req.VeterinarioID = "sec-1"
	_, err = svc.Create(context.Background(), req)
	assert.ErrorIs(t, err, ErrVetNotFound)

	req.VeterinarioID = "missing"
	_, err = svc.Create(context.Background(), req)
	assert.ErrorIs(t, err, ErrVetNotFound)
}

func TestListDecoratesNames(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo)

	_, err := svc.Create(context.Background(), visitRequest("pet-1", "2026-02-10", 20000, EstadoCompletada))
	require.NoError(t, err)

	items, err := svc.List(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Rocky", items[0].MascotaNombre)
	assert.Equal(t, "Perro", items[0].MascotaEspecie)
	assert.Equal(t, "cli-1", items[0].ClienteID)
	assert.Equal(t, "Maria Solis", items[0].ClienteNombre)
	assert.Equal(t, "Laura Jimenez", items[0].VeterinarioNombre)

	_, err = svc.List(context.Background(), "Inventado")
	assert.ErrorIs(t, err, ErrInvalidEstado)
}

func TestPetsWithHistoryCapsRecentVisits(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo)

	fechas := []string{"2026-01-05", "2026-01-12", "2026-01-19", "2026-01-26", "2026-02-02"}
	for _, fecha := range fechas {
		_, err := svc.Create(context.Background(), visitRequest("pet-1", fecha, 10000, EstadoCompletada))
		require.NoError(t, err)
	}

	items, err := svc.PetsWithHistory(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "pet-1", items[0].ID)
	assert.Equal(t, 5, items[0].ConsultasCount)
	require.Len(t, items[0].ConsultasRecientes, 3)
	assert.Equal(t, "2026-02-02", items[0].ConsultasRecientes[0].FechaConsulta)
	assert.Equal(t, "2026-01-26", items[0].ConsultasRecientes[1].FechaConsulta)
	assert.Equal(t, "2026-01-19", items[0].ConsultasRecientes[2].FechaConsulta)
}

func TestStats(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo)

	_, err := svc.Create(context.Background(), visitRequest("pet-1", "2026-02-10", 20000, EstadoCompletada))
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), visitRequest("pet-2", "2026-02-11", 15000, EstadoCompletada))
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), visitRequest("pet-2", "2026-02-12", 5000, EstadoPendiente))
	require.NoError(t, err)

	stats, err := svc.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.TotalConsultas)
	assert.Equal(t, int64(2), stats.ConsultasCompletadas)
	assert.Equal(t, int64(1), stats.ConsultasPendientes)
	assert.Equal(t, money.Cents(35000), stats.IngresosTotales)
}

func TestListByMascotaRequiresPet(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo)

	_, err := svc.Create(context.Background(), visitRequest("pet-1", "2026-02-10", 20000, EstadoCompletada))
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), visitRequest("pet-2", "2026-02-11", 15000, EstadoCompletada))
	require.NoError(t, err)

	visits, err := svc.ListByMascota(context.Background(), "pet-1")
	require.NoError(t, err)
	require.Len(t, visits, 1)
	assert.Equal(t, "pet-1", visits[0].MascotaID)

	_, err = svc.ListByMascota(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrPetNotFound)
}
