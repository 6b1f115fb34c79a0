package db

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Collections struct {
	Users         *mongo.Collection
	Pets          *mongo.Collection
	Appointments  *mongo.Collection
	Consultations *mongo.Collection
	Invoices      *mongo.Collection
	Counters      *mongo.Collection
}

func Connect(ctx context.Context, uri, dbName string) (*mongo.Client, *Collections, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, nil, err
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, nil, err
	}

	db := client.Database(dbName)

	cols := &Collections{
		Users:         db.Collection("usuarios"),
		Pets:          db.Collection("mascotas"),
		Appointments:  db.Collection("citas"),
		Consultations: db.Collection("consultas"),
		Invoices:      db.Collection("facturas"),
		Counters:      db.Collection("counters"),
	}

	return client, cols, nil
}

func EnsureIndexes(ctx context.Context, cols *Collections) error {
	indexTimeout, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	_, err := cols.Users.Indexes().CreateMany(indexTimeout, []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "correo", Value: 1}},
			Options: options.Index().SetUnique(true).SetPartialFilterExpression(
				bson.M{"correo": bson.M{"$type": "string", "$gt": ""}},
			),
		},
		{
			Keys: bson.D{{Key: "rol_nombre", Value: 1}},
		},
	})
	if err != nil {
		return err
	}

	// Cancelled appointments keep their (date, time) pair; only live ones
	// participate in the uniqueness constraint.
	_, err = cols.Appointments.Indexes().CreateMany(indexTimeout, []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "fechaCita", Value: 1}, {Key: "horaCita", Value: 1}},
			Options: options.Index().SetUnique(true).SetPartialFilterExpression(
				bson.M{"estado": bson.M{"$ne": "Cancelada"}},
			),
		},
		{
			Keys: bson.D{{Key: "fechaCita", Value: 1}},
		},
	})
	if err != nil {
		return err
	}

	_, err = cols.Pets.Indexes().CreateMany(indexTimeout, []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "usuario_id", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "especie", Value: 1}},
		},
	})
	if err != nil {
		return err
	}

	_, err = cols.Consultations.Indexes().CreateMany(indexTimeout, []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "mascota_id", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "estado", Value: 1}},
		},
	})
	if err != nil {
		return err
	}

	_, err = cols.Invoices.Indexes().CreateMany(indexTimeout, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "consulta_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "numero_factura", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "estado", Value: 1}},
		},
	})
	if err != nil {
		return err
	}

	return nil
}
