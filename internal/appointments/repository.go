package appointments

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Repository interface {
	Create(ctx context.Context, appointment Appointment) error
	List(ctx context.Context, filter ListFilter) ([]Appointment, error)
	GetByID(ctx context.Context, id string) (Appointment, error)
	Update(ctx context.Context, appointment Appointment) error
	UpdateEstado(ctx context.Context, id, estado string) (Appointment, error)
	Delete(ctx context.Context, id string) error
}

type MongoRepository struct {
	col *mongo.Collection
}

func NewRepository(col *mongo.Collection) *MongoRepository {
	return &MongoRepository{col: col}
}

func (r *MongoRepository) Create(ctx context.Context, appointment Appointment) error {
	_, err := r.col.InsertOne(ctx, appointment)
	return err
}

func (r *MongoRepository) List(ctx context.Context, filter ListFilter) ([]Appointment, error) {
	query := bson.M{}
	if filter.Fecha != "" {
		query["fechaCita"] = filter.Fecha
	}
	if filter.Estado != "" {
		query["estado"] = filter.Estado
	}

	opts := options.Find().SetSort(bson.D{{Key: "fechaCita", Value: 1}, {Key: "horaCita", Value: 1}})
	cursor, err := r.col.Find(ctx, query, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	items := make([]Appointment, 0)
	for cursor.Next(ctx) {
		var appointment Appointment
		if err := cursor.Decode(&appointment); err != nil {
			return nil, err
		}
		items = append(items, appointment)
	}
	if err := cursor.Err(); err != nil {
		return nil, err
	}

	return items, nil
}

func (r *MongoRepository) GetByID(ctx context.Context, id string) (Appointment, error) {
	var appointment Appointment
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&appointment); err != nil {
		return Appointment{}, err
	}
	return appointment, nil
}

func (r *MongoRepository) Update(ctx context.Context, appointment Appointment) error {
	update := bson.M{
		"$set": bson.M{
			"mascota_id": appointment.MascotaID,
			"usuario_id": appointment.UsuarioID,
			"fechaCita":  appointment.FechaCita,
			"horaCita":   appointment.HoraCita,
			"motivo":     appointment.Motivo,
		},
	}
	res, err := r.col.UpdateOne(ctx, bson.M{"_id": appointment.ID}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

func (r *MongoRepository) UpdateEstado(ctx context.Context, id, estado string) (Appointment, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	update := bson.M{"$set": bson.M{"estado": estado}}

	var updated Appointment
	if err := r.col.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, opts).Decode(&updated); err != nil {
		return Appointment{}, err
	}
	return updated, nil
}

func (r *MongoRepository) Delete(ctx context.Context, id string) error {
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}
