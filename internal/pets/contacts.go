package pets

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"

	"vetclinic-backend/internal/users"
)

// OwnerContact is the deliverable address behind a mascota. Email may
// be empty: clientes without credentials have no correo on file.
type OwnerContact struct {
	Email         string
	Nombre        string
	MascotaNombre string
}

// OwnerContacts resolves mascota ids to their owner's contact data for
// notification sends.
type OwnerContacts struct {
	repo  Repository
	users users.Repository
}

func NewOwnerContacts(repo Repository, userRepo users.Repository) *OwnerContacts {
	return &OwnerContacts{repo: repo, users: userRepo}
}

func (c *OwnerContacts) OwnerContact(ctx context.Context, mascotaID string) (OwnerContact, error) {
	pet, err := c.repo.GetByID(ctx, mascotaID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return OwnerContact{}, ErrNotFound
		}
		return OwnerContact{}, err
	}
	owner, err := c.users.GetByID(ctx, pet.UsuarioID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return OwnerContact{}, ErrOwnerNotFound
		}
		return OwnerContact{}, err
	}
	return OwnerContact{
		Email:         owner.Correo,
		Nombre:        fmt.Sprintf("%s %s", owner.Nombre, owner.Apellido),
		MascotaNombre: pet.Nombre,
	}, nil
}
