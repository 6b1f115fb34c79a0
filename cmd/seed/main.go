package main

import (
	"context"
	"log"
	"time"

	"vetclinic-backend/internal/auth"
	"vetclinic-backend/internal/config"
	"vetclinic-backend/internal/db"
	"vetclinic-backend/internal/users"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type seedVet struct {
	Nombre   string
	Apellido string
	Correo   string
	Telefono string
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, cols, err := db.Connect(ctx, cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		log.Fatal(err)
	}
	defer client.Disconnect(context.Background())

	if err := db.EnsureIndexes(ctx, cols); err != nil {
		log.Fatal(err)
	}

	if cfg.AdminEmail == "" || cfg.AdminPassword == "" {
		log.Println("seed admin: ADMIN_EMAIL or ADMIN_PASSWORD missing, skipping")
	} else {
		if err := seedUser(ctx, cols, users.User{
			Nombre:    "Admin",
			Apellido:  "Sistema",
			Correo:    cfg.AdminEmail,
			RolNombre: users.RolAdministrador,
		}, cfg.AdminPassword, cfg.Timezone); err != nil {
			log.Fatalf("seed admin error: %v", err)
		}
	}

	vets := []seedVet{
		{Nombre: "Laura", Apellido: "Jimenez", Correo: "laura.jimenez@vetclinic.local", Telefono: "8888-1001"},
		{Nombre: "Carlos", Apellido: "Mora", Correo: "carlos.mora@vetclinic.local", Telefono: "8888-1002"},
	}
	for _, vet := range vets {
		err := seedUser(ctx, cols, users.User{
			Nombre:    vet.Nombre,
			Apellido:  vet.Apellido,
			Correo:    vet.Correo,
			RolNombre: users.RolVeterinario,
			Telefono:  vet.Telefono,
		}, "", cfg.Timezone)
		if err != nil {
			log.Fatalf("seed vet error for %s: %v", vet.Correo, err)
		}
	}

	log.Println("seed completed")
}

// seedUser upserts by correo so re-running the seeder never duplicates
// or overwrites accounts.
func seedUser(ctx context.Context, cols *db.Collections, user users.User, password string, loc *time.Location) error {
	if cols == nil || cols.Users == nil {
		return nil
	}

	doc := bson.M{
		"_id":           primitive.NewObjectID().Hex(),
		"nombre":        user.Nombre,
		"apellido":      user.Apellido,
		"correo":        user.Correo,
		"rol_nombre":    user.RolNombre,
		"estado":        users.EstadoActivo,
		"fechaRegistro": time.Now().In(loc),
	}
	if user.Telefono != "" {
		doc["telefono"] = user.Telefono
	}
	if password != "" {
		hash, err := auth.HashPassword(password)
		if err != nil {
			return err
		}
		doc["passwordHash"] = hash
	}

	filter := bson.M{"correo": user.Correo}
	update := bson.M{"$setOnInsert": doc}
	_, err := cols.Users.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	return err
}
