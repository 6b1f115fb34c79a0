package users

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"

	"vetclinic-backend/internal/auth"
)

type memoryRepo struct {
	items map[string]User
}

func newMemoryRepo(seed ...User) *memoryRepo {
	repo := &memoryRepo{items: make(map[string]User)}
	for _, user := range seed {
		repo.items[user.ID] = user
	}
	return repo
}

func (r *memoryRepo) Create(_ context.Context, user User) error {
	for _, existing := range r.items {
		if existing.Correo != "" && existing.Correo == user.Correo {
			return mongo.WriteException{WriteErrors: []mongo.WriteError{{Code: 11000}}}
		}
	}
	r.items[user.ID] = user
	return nil
}

func (r *memoryRepo) List(_ context.Context, filter ListFilter) ([]User, error) {
	out := make([]User, 0)
	for _, user := range r.items {
		if filter.RolNombre != "" && user.RolNombre != filter.RolNombre {
			continue
		}
		if filter.Estado != "" && user.Estado != filter.Estado {
			continue
		}
		out = append(out, user)
	}
	return out, nil
}

func (r *memoryRepo) GetByID(_ context.Context, id string) (User, error) {
	user, ok := r.items[id]
	if !ok {
		return User{}, mongo.ErrNoDocuments
	}
	return user, nil
}

func (r *memoryRepo) GetByCorreo(_ context.Context, correo string) (User, error) {
	for _, user := range r.items {
		if user.Correo == correo {
			return user, nil
		}
	}
	return User{}, mongo.ErrNoDocuments
}

func (r *memoryRepo) Update(_ context.Context, user User) error {
	current, ok := r.items[user.ID]
	if !ok {
		return mongo.ErrNoDocuments
	}
	if user.PasswordHash == "" {
		user.PasswordHash = current.PasswordHash
	}
	r.items[user.ID] = user
	return nil
}

func (r *memoryRepo) SetEstado(_ context.Context, id, estado string) (User, error) {
	user, ok := r.items[id]
	if !ok {
		return User{}, mongo.ErrNoDocuments
	}
	user.Estado = estado
	r.items[id] = user
	return user, nil
}

func (r *memoryRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.items[id]; !ok {
		return mongo.ErrNoDocuments
	}
	delete(r.items, id)
	return nil
}

func testManager() *auth.Manager {
	return &auth.Manager{
		Secret:     []byte("test-secret"),
		AccessTTL:  15 * time.Minute,
		RefreshTTL: 24 * time.Hour,
		Issuer:     "vetclinic-backend",
	}
}

func activeUser(t *testing.T, id, correo, password string) User {
	t.Helper()
	hash, err := auth.HashPassword(password)
	require.NoError(t, err)
	return User{
		ID:           id,
		Nombre:       "Ana",
		Apellido:     "Castro",
		Correo:       correo,
		PasswordHash: hash,
		RolNombre:    RolAdministrador,
		Estado:       EstadoActivo,
	}
}

func TestLogin(t *testing.T) {
	user := activeUser(t, "usr-1", "ana@example.com", "secreta123")
	repo := newMemoryRepo(user)
	svc := NewService(repo, testManager(), time.UTC)

	session, err := svc.Login(context.Background(), LoginRequest{Correo: "  Ana@Example.com ", Contrasena: "secreta123"})
	require.NoError(t, err)
	assert.NotEmpty(t, session.AccessToken)
	assert.NotEmpty(t, session.RefreshToken)
	assert.Equal(t, "usr-1", session.User.ID)

	_, err = svc.Login(context.Background(), LoginRequest{Correo: "ana@example.com", Contrasena: "equivocada"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(context.Background(), LoginRequest{Correo: "nadie@example.com", Contrasena: "secreta123"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLoginInactiveAccount(t *testing.T) {
	user := activeUser(t, "usr-1", "ana@example.com", "secreta123")
	user.Estado = EstadoInactivo
	repo := newMemoryRepo(user)
	svc := NewService(repo, testManager(), time.UTC)

	_, err := svc.Login(context.Background(), LoginRequest{Correo: "ana@example.com", Contrasena: "secreta123"})
	assert.ErrorIs(t, err, ErrInactiveAccount)
}

func TestLoginWithoutTokenManager(t *testing.T) {
	repo := newMemoryRepo(activeUser(t, "usr-1", "ana@example.com", "secreta123"))
	svc := NewService(repo, nil, time.UTC)

	_, err := svc.Login(context.Background(), LoginRequest{Correo: "ana@example.com", Contrasena: "secreta123"})
	assert.ErrorIs(t, err, ErrAuthNotConfigured)
}

func TestRefreshRejectsAccessTokens(t *testing.T) {
	user := activeUser(t, "usr-1", "ana@example.com", "secreta123")
	repo := newMemoryRepo(user)
	manager := testManager()
	svc := NewService(repo, manager, time.UTC)

	session, err := svc.Login(context.Background(), LoginRequest{Correo: "ana@example.com", Contrasena: "secreta123"})
	require.NoError(t, err)

	renewed, err := svc.Refresh(context.Background(), session.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, "usr-1", renewed.User.ID)

	_, err = svc.Refresh(context.Background(), session.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Refresh(context.Background(), "no-es-un-token")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestRegisterAssignsClienteRole(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, testManager(), time.UTC)

	session, err := svc.Register(context.Background(), RegisterRequest{
		Nombre:     "Maria",
		Apellido:   "Solis",
		Correo:     "Maria@Example.com",
		Contrasena: "secreta123",
		Telefono:   "8888-1000",
	})
	require.NoError(t, err)
	assert.Equal(t, RolCliente, session.User.RolNombre)
	assert.Equal(t, EstadoActivo, session.User.Estado)
	assert.Equal(t, "maria@example.com", session.User.Correo)

	_, err = svc.Register(context.Background(), RegisterRequest{
		Nombre:     "Otra",
		Apellido:   "Persona",
		Correo:     "maria@example.com",
		Contrasena: "secreta123",
	})
	assert.ErrorIs(t, err, ErrDuplicateCorreo)
}

func TestDeleteGuardsCurrentSession(t *testing.T) {
	repo := newMemoryRepo(
		activeUser(t, "usr-1", "ana@example.com", "secreta123"),
		activeUser(t, "usr-2", "jose@example.com", "secreta123"),
	)
	svc := NewService(repo, testManager(), time.UTC)

	err := svc.Delete(context.Background(), "usr-1", "usr-1")
	assert.ErrorIs(t, err, ErrSelfDeletion)

	require.NoError(t, svc.Delete(context.Background(), "usr-2", "usr-1"))

	err = svc.Delete(context.Background(), "usr-2", "usr-1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestIsVeterinarian(t *testing.T) {
	vet := activeUser(t, "vet-1", "vet@example.com", "secreta123")
	vet.RolNombre = RolVeterinario
	inactive := activeUser(t, "vet-2", "vet2@example.com", "secreta123")
	inactive.RolNombre = RolVeterinario
	inactive.Estado = EstadoInactivo
	repo := newMemoryRepo(vet, inactive, activeUser(t, "usr-1", "ana@example.com", "secreta123"))
	svc := NewService(repo, testManager(), time.UTC)

	ok, err := svc.IsVeterinarian(context.Background(), "vet-1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = svc.IsVeterinarian(context.Background(), "vet-2")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = svc.IsVeterinarian(context.Background(), "usr-1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestContact(t *testing.T) {
	repo := newMemoryRepo(activeUser(t, "usr-1", "ana@example.com", "secreta123"))
	svc := NewService(repo, testManager(), time.UTC)

	correo, nombre, err := svc.Contact(context.Background(), "usr-1")
	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", correo)
	assert.Equal(t, "Ana Castro", nombre)

	_, _, err = svc.Contact(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}
