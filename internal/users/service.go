package users

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"vetclinic-backend/internal/auth"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

var (
	ErrNotFound           = errors.New("usuario no encontrado")
	ErrInvalidCredentials = errors.New("correo o contrasena incorrectos")
	ErrInactiveAccount    = errors.New("tu cuenta esta inactiva, contacta al administrador")
	ErrDuplicateCorreo    = errors.New("el correo ya esta registrado")
	ErrSelfDeletion       = errors.New("no puedes eliminar tu propio usuario")
	ErrAuthNotConfigured  = errors.New("autenticacion no configurada")
)

type Service struct {
	repo     Repository
	tokens   *auth.Manager
	location *time.Location
}

func NewService(repo Repository, tokens *auth.Manager, location *time.Location) *Service {
	return &Service{
		repo:     repo,
		tokens:   tokens,
		location: location,
	}
}

func (s *Service) Login(ctx context.Context, req LoginRequest) (SessionResponse, error) {
	if s.tokens == nil {
		return SessionResponse{}, ErrAuthNotConfigured
	}

	correo := strings.ToLower(strings.TrimSpace(req.Correo))
	user, err := s.repo.GetByCorreo(ctx, correo)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return SessionResponse{}, ErrInvalidCredentials
		}
		return SessionResponse{}, err
	}

	if err := auth.ComparePassword(user.PasswordHash, req.Contrasena); err != nil {
		return SessionResponse{}, ErrInvalidCredentials
	}
	if user.Estado != EstadoActivo {
		return SessionResponse{}, ErrInactiveAccount
	}

	return s.newSession(user)
}

// Register self-enrolls a client account. Staff accounts are created by an
// administrator through Create.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (SessionResponse, error) {
	if s.tokens == nil {
		return SessionResponse{}, ErrAuthNotConfigured
	}

	hash, err := auth.HashPassword(req.Contrasena)
	if err != nil {
		return SessionResponse{}, err
	}

	user := User{
		ID:            primitive.NewObjectID().Hex(),
		Nombre:        strings.TrimSpace(req.Nombre),
		Apellido:      strings.TrimSpace(req.Apellido),
		Correo:        strings.ToLower(strings.TrimSpace(req.Correo)),
		PasswordHash:  hash,
		RolNombre:     RolCliente,
		Telefono:      strings.TrimSpace(req.Telefono),
		Direccion:     strings.TrimSpace(req.Direccion),
		Estado:        EstadoActivo,
		FechaRegistro: time.Now().In(s.location),
	}

	if err := s.repo.Create(ctx, user); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return SessionResponse{}, ErrDuplicateCorreo
		}
		return SessionResponse{}, err
	}

	return s.newSession(user)
}

func (s *Service) Refresh(ctx context.Context, refreshToken string) (SessionResponse, error) {
	if s.tokens == nil {
		return SessionResponse{}, ErrAuthNotConfigured
	}

	claims, err := s.tokens.Parse(refreshToken)
	if err != nil || claims.Kind != auth.KindRefresh {
		return SessionResponse{}, ErrInvalidCredentials
	}

	user, err := s.repo.GetByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return SessionResponse{}, ErrInvalidCredentials
		}
		return SessionResponse{}, err
	}
	if user.Estado != EstadoActivo {
		return SessionResponse{}, ErrInactiveAccount
	}

	return s.newSession(user)
}

func (s *Service) newSession(user User) (SessionResponse, error) {
	access, err := s.tokens.NewAccessToken(user.ID, user.RolNombre)
	if err != nil {
		return SessionResponse{}, err
	}
	refresh, err := s.tokens.NewRefreshToken(user.ID, user.RolNombre)
	if err != nil {
		return SessionResponse{}, err
	}
	return SessionResponse{
		AccessToken:  access,
		RefreshToken: refresh,
		User:         user,
	}, nil
}

func (s *Service) Create(ctx context.Context, req CreateRequest) (User, error) {
	user := User{
		ID:            primitive.NewObjectID().Hex(),
		Nombre:        strings.TrimSpace(req.Nombre),
		Apellido:      strings.TrimSpace(req.Apellido),
		Correo:        strings.ToLower(strings.TrimSpace(req.Correo)),
		RolNombre:     req.RolNombre,
		Telefono:      strings.TrimSpace(req.Telefono),
		Direccion:     strings.TrimSpace(req.Direccion),
		Estado:        EstadoActivo,
		FechaRegistro: time.Now().In(s.location),
	}

	if req.Contrasena != "" {
		hash, err := auth.HashPassword(req.Contrasena)
		if err != nil {
			return User{}, err
		}
		user.PasswordHash = hash
	}

	if err := s.repo.Create(ctx, user); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return User{}, ErrDuplicateCorreo
		}
		return User{}, err
	}
	return user, nil
}

func (s *Service) List(ctx context.Context, filter ListFilter) ([]User, error) {
	return s.repo.List(ctx, filter)
}

func (s *Service) GetByID(ctx context.Context, id string) (User, error) {
	user, err := s.repo.GetByID(ctx, strings.TrimSpace(id))
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return User{}, ErrNotFound
		}
		return User{}, err
	}
	return user, nil
}

func (s *Service) Update(ctx context.Context, id string, req UpdateRequest) (User, error) {
	current, err := s.GetByID(ctx, id)
	if err != nil {
		return User{}, err
	}

	current.Nombre = strings.TrimSpace(req.Nombre)
	current.Apellido = strings.TrimSpace(req.Apellido)
	current.Correo = strings.ToLower(strings.TrimSpace(req.Correo))
	current.RolNombre = req.RolNombre
	current.Telefono = strings.TrimSpace(req.Telefono)
	current.Direccion = strings.TrimSpace(req.Direccion)
	if req.Estado != "" {
		current.Estado = req.Estado
	}
	if req.Contrasena != "" {
		hash, err := auth.HashPassword(req.Contrasena)
		if err != nil {
			return User{}, err
		}
		current.PasswordHash = hash
	} else {
		current.PasswordHash = ""
	}

	if err := s.repo.Update(ctx, current); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return User{}, ErrDuplicateCorreo
		}
		if errors.Is(err, mongo.ErrNoDocuments) {
			return User{}, ErrNotFound
		}
		return User{}, err
	}
	return s.GetByID(ctx, id)
}

// Delete removes a user. Deleting the account behind the current session
// is rejected so an administrator cannot lock themselves out mid-session.
func (s *Service) Delete(ctx context.Context, id, currentUserID string) error {
	id = strings.TrimSpace(id)
	if id == currentUserID {
		return ErrSelfDeletion
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

// IsVeterinarian implements the appointment service's vet check.
func (s *Service) IsVeterinarian(ctx context.Context, id string) (bool, error) {
	user, err := s.repo.GetByID(ctx, strings.TrimSpace(id))
	if err != nil {
		return false, err
	}
	return user.RolNombre == RolVeterinario && user.Estado == EstadoActivo, nil
}

// Contact returns the delivery address for notification emails. The
// email is empty for usuarios without credentials.
func (s *Service) Contact(ctx context.Context, id string) (string, string, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return "", "", ErrNotFound
		}
		return "", "", err
	}
	return user.Correo, fmt.Sprintf("%s %s", user.Nombre, user.Apellido), nil
}
