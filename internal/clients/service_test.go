package clients

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"

	"vetclinic-backend/internal/pets"
	"vetclinic-backend/internal/users"
)

type memoryUsers struct {
	items map[string]users.User
}

func newMemoryUsers(seed ...users.User) *memoryUsers {
	repo := &memoryUsers{items: make(map[string]users.User)}
	for _, user := range seed {
		repo.items[user.ID] = user
	}
	return repo
}

func (r *memoryUsers) Create(_ context.Context, user users.User) error {
	r.items[user.ID] = user
	return nil
}

func (r *memoryUsers) List(_ context.Context, filter users.ListFilter) ([]users.User, error) {
	out := make([]users.User, 0)
	for _, user := range r.items {
		if filter.RolNombre != "" && user.RolNombre != filter.RolNombre {
			continue
		}
		if filter.Estado != "" && user.Estado != filter.Estado {
			continue
		}
		out = append(out, user)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Apellido < out[j].Apellido })
	return out, nil
}

func (r *memoryUsers) GetByID(_ context.Context, id string) (users.User, error) {
	user, ok := r.items[id]
	if !ok {
		return users.User{}, mongo.ErrNoDocuments
	}
	return user, nil
}

func (r *memoryUsers) GetByCorreo(_ context.Context, correo string) (users.User, error) {
	for _, user := range r.items {
		if user.Correo == correo {
			return user, nil
		}
	}
	return users.User{}, mongo.ErrNoDocuments
}

func (r *memoryUsers) Update(_ context.Context, user users.User) error {
	if _, ok := r.items[user.ID]; !ok {
		return mongo.ErrNoDocuments
	}
	r.items[user.ID] = user
	return nil
}

func (r *memoryUsers) SetEstado(_ context.Context, id, estado string) (users.User, error) {
	user, ok := r.items[id]
	if !ok {
		return users.User{}, mongo.ErrNoDocuments
	}
	user.Estado = estado
	r.items[id] = user
	return user, nil
}

func (r *memoryUsers) Delete(_ context.Context, id string) error {
	if _, ok := r.items[id]; !ok {
		return mongo.ErrNoDocuments
	}
	delete(r.items, id)
	return nil
}

type fakePets struct {
	byOwner map[string][]pets.Pet
}

func (f fakePets) List(_ context.Context, _ string) ([]pets.Pet, error) {
	out := make([]pets.Pet, 0)
	for _, owned := range f.byOwner {
		out = append(out, owned...)
	}
	return out, nil
}

func (f fakePets) ListByOwner(_ context.Context, ownerID string) ([]pets.Pet, error) {
	return append([]pets.Pet{}, f.byOwner[ownerID]...), nil
}

func (f fakePets) HasPets(_ context.Context, ownerID string) (bool, error) {
	return len(f.byOwner[ownerID]) > 0, nil
}

func (f fakePets) HasActivePets(_ context.Context, ownerID string) (bool, error) {
	for _, p := range f.byOwner[ownerID] {
		if p.Estado == pets.EstadoActivo {
			return true, nil
		}
	}
	return false, nil
}

func cliente(id, nombre, apellido string) users.User {
	return users.User{
		ID:            id,
		Nombre:        nombre,
		Apellido:      apellido,
		RolNombre:     users.RolCliente,
		Estado:        users.EstadoActivo,
		FechaRegistro: time.Date(2026, time.January, 5, 9, 0, 0, 0, time.UTC),
	}
}

func TestGetByIDRejectsNonClientes(t *testing.T) {
	repo := newMemoryUsers(
		cliente("cli-1", "Maria", "Solis"),
		users.User{ID: "vet-1", Nombre: "Laura", Apellido: "Jimenez", RolNombre: users.RolVeterinario, Estado: users.EstadoActivo},
	)
	svc := NewService(repo, fakePets{byOwner: map[string][]pets.Pet{}}, time.UTC)

	client, err := svc.GetByID(context.Background(), "cli-1")
	require.NoError(t, err)
	assert.Equal(t, "Maria", client.Nombre)
	assert.Equal(t, 0, client.MascotasCount)
	assert.NotNil(t, client.MascotasNames)

	_, err = svc.GetByID(context.Background(), "vet-1")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.GetByID(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCreateRejectsDuplicateCorreo(t *testing.T) {
	existing := cliente("cli-1", "Maria", "Solis")
	existing.Correo = "maria@example.com"
	repo := newMemoryUsers(existing)
	svc := NewService(repo, fakePets{byOwner: map[string][]pets.Pet{}}, time.UTC)

	_, err := svc.Create(context.Background(), CreateRequest{
		Nombre:   "Otra",
		Apellido: "Persona",
		Telefono: "8888-2000",
		Correo:   "maria@example.com",
	})
	assert.ErrorIs(t, err, ErrDuplicateCorreo)

	created, err := svc.Create(context.Background(), CreateRequest{
		Nombre:   "Jorge",
		Apellido: "Vargas",
		Telefono: "8888-3000",
	})
	require.NoError(t, err)
	assert.Equal(t, users.RolCliente, created.RolNombre)
	assert.Equal(t, users.EstadoActivo, created.Estado)
}

func TestCorreoStoredLowercase(t *testing.T) {
	repo := newMemoryUsers()
	svc := NewService(repo, fakePets{byOwner: map[string][]pets.Pet{}}, time.UTC)

	created, err := svc.Create(context.Background(), CreateRequest{
		Nombre:   "Ana",
		Apellido: "Mora",
		Telefono: "8888-4000",
		Correo:   " Ana.Mora@Example.com ",
	})
	require.NoError(t, err)
	assert.Equal(t, "ana.mora@example.com", created.Correo)

	// Login lowercases before lookup, so the stored form must match.
	stored, err := repo.GetByCorreo(context.Background(), "ana.mora@example.com")
	require.NoError(t, err)
	assert.Equal(t, created.ID, stored.ID)

	_, err = svc.Create(context.Background(), CreateRequest{
		Nombre:   "Otra",
		Apellido: "Persona",
		Telefono: "8888-5000",
		Correo:   "ANA.MORA@EXAMPLE.COM",
	})
	assert.ErrorIs(t, err, ErrDuplicateCorreo)

	updated, err := svc.Update(context.Background(), created.ID, UpdateRequest{
		Nombre:   "Ana",
		Apellido: "Mora",
		Telefono: "8888-4000",
		Correo:   "Ana.Mora@Otro.com",
	})
	require.NoError(t, err)
	assert.Equal(t, "ana.mora@otro.com", updated.Correo)
}

func TestListJoinsPetNames(t *testing.T) {
	repo := newMemoryUsers(
		cliente("cli-1", "Maria", "Solis"),
		cliente("cli-2", "Jorge", "Vargas"),
	)
	petDir := fakePets{byOwner: map[string][]pets.Pet{
		"cli-1": {
			{ID: "pet-1", Nombre: "Rocky", UsuarioID: "cli-1", Estado: pets.EstadoActivo},
			{ID: "pet-2", Nombre: "Luna", UsuarioID: "cli-1", Estado: pets.EstadoActivo},
		},
	}}
	svc := NewService(repo, petDir, time.UTC)

	items, err := svc.List(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, items, 2)

	byID := make(map[string]Client, len(items))
	for _, item := range items {
		byID[item.ID] = item
	}
	assert.Equal(t, 2, byID["cli-1"].MascotasCount)
	assert.Equal(t, []string{"Luna", "Rocky"}, byID["cli-1"].MascotasNames)
	assert.Equal(t, 0, byID["cli-2"].MascotasCount)
	assert.NotNil(t, byID["cli-2"].MascotasNames)
}

func TestDeactivationBlockedByActivePets(t *testing.T) {
	repo := newMemoryUsers(cliente("cli-1", "Maria", "Solis"))
	petDir := fakePets{byOwner: map[string][]pets.Pet{
		"cli-1": {{ID: "pet-1", Nombre: "Rocky", UsuarioID: "cli-1", Estado: pets.EstadoActivo}},
	}}
	svc := NewService(repo, petDir, time.UTC)

	_, err := svc.SetEstado(context.Background(), "cli-1", users.EstadoInactivo)
	assert.ErrorIs(t, err, ErrHasActivePets)

	check, err := svc.ValidateDeactivation(context.Background(), "cli-1")
	require.NoError(t, err)
	assert.False(t, check.PuedeDesactivar)
	assert.Equal(t, ErrHasActivePets.Error(), check.Razon)

	// An inactive pet no longer blocks the estado change.
	petDir.byOwner["cli-1"][0].Estado = pets.EstadoInactivo
	client, err := svc.SetEstado(context.Background(), "cli-1", users.EstadoInactivo)
	require.NoError(t, err)
	assert.Equal(t, users.EstadoInactivo, client.Estado)
}

func TestDeletionBlockedByAnyPet(t *testing.T) {
	repo := newMemoryUsers(cliente("cli-1", "Maria", "Solis"))
	petDir := fakePets{byOwner: map[string][]pets.Pet{
		"cli-1": {{ID: "pet-1", Nombre: "Rocky", UsuarioID: "cli-1", Estado: pets.EstadoInactivo}},
	}}
	svc := NewService(repo, petDir, time.UTC)

	err := svc.Delete(context.Background(), "cli-1")
	assert.ErrorIs(t, err, ErrHasPets)

	check, err := svc.ValidateDeletion(context.Background(), "cli-1")
	require.NoError(t, err)
	assert.False(t, check.PuedeEliminar)
	assert.Equal(t, ErrHasPets.Error(), check.Razon)

	petDir.byOwner["cli-1"] = nil
	require.NoError(t, svc.Delete(context.Background(), "cli-1"))

	_, err = svc.GetByID(context.Background(), "cli-1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDirectoryExists(t *testing.T) {
	repo := newMemoryUsers(
		cliente("cli-1", "Maria", "Solis"),
		users.User{ID: "vet-1", RolNombre: users.RolVeterinario},
	)
	dir := NewDirectory(repo)

	ok, err := dir.Exists(context.Background(), "cli-1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = dir.Exists(context.Background(), "vet-1")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = dir.Exists(context.Background(), "missing")
	require.NoError(t, err)
	assert.False(t, ok)
}
