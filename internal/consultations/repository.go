package consultations

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"vetclinic-backend/internal/money"
)

type Repository interface {
	Create(ctx context.Context, consultation Consultation) error
	List(ctx context.Context, estado string) ([]Consultation, error)
	GetByID(ctx context.Context, id string) (Consultation, error)
	ListByMascota(ctx context.Context, mascotaID string) ([]Consultation, error)
	Update(ctx context.Context, consultation Consultation) error
	Delete(ctx context.Context, id string) error
	Stats(ctx context.Context) (Stats, error)
}

type MongoRepository struct {
	col *mongo.Collection
}

func NewRepository(col *mongo.Collection) *MongoRepository {
	return &MongoRepository{col: col}
}

func (r *MongoRepository) Create(ctx context.Context, consultation Consultation) error {
	_, err := r.col.InsertOne(ctx, consultation)
	return err
}

func (r *MongoRepository) List(ctx context.Context, estado string) ([]Consultation, error) {
	query := bson.M{}
	if estado != "" {
		query["estado"] = estado
	}
	opts := options.Find().SetSort(bson.D{{Key: "fecha_consulta", Value: -1}, {Key: "fechaRegistro", Value: -1}})
	return r.find(ctx, query, opts)
}

func (r *MongoRepository) GetByID(ctx context.Context, id string) (Consultation, error) {
	var consultation Consultation
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&consultation); err != nil {
		return Consultation{}, err
	}
	return consultation, nil
}

func (r *MongoRepository) ListByMascota(ctx context.Context, mascotaID string) ([]Consultation, error) {
	opts := options.Find().SetSort(bson.D{{Key: "fecha_consulta", Value: -1}})
	return r.find(ctx, bson.M{"mascota_id": mascotaID}, opts)
}

func (r *MongoRepository) Update(ctx context.Context, consultation Consultation) error {
	update := bson.M{"$set": bson.M{
		"fecha_consulta": consultation.FechaConsulta,
		"motivo":         consultation.Motivo,
		"diagnostico":    consultation.Diagnostico,
		"tratamiento":    consultation.Tratamiento,
		"medicamentos":   consultation.Medicamentos,
		"observaciones":  consultation.Observaciones,
		"costo":          consultation.Costo,
		"peso":           consultation.Peso,
		"temperatura":    consultation.Temperatura,
		"estado":         consultation.Estado,
	}}
	res, err := r.col.UpdateOne(ctx, bson.M{"_id": consultation.ID}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
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

// Stats folds counts per estado and the revenue of completed visits
// into one aggregation pass.
func (r *MongoRepository) Stats(ctx context.Context) (Stats, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.M{
			"_id":   "$estado",
			"count": bson.M{"$sum": 1},
			"costo": bson.M{"$sum": "$costo"},
		}}},
	}
	cursor, err := r.col.Aggregate(ctx, pipeline)
	if err != nil {
		return Stats{}, err
	}
	defer cursor.Close(ctx)

	var stats Stats
	for cursor.Next(ctx) {
		var row struct {
			Estado string `bson:"_id"`
			Count  int64  `bson:"count"`
			Costo  int64  `bson:"costo"`
		}
		if err := cursor.Decode(&row); err != nil {
			return Stats{}, err
		}
		stats.TotalConsultas += row.Count
		switch row.Estado {
		case EstadoCompletada:
			stats.ConsultasCompletadas = row.Count
			stats.IngresosTotales = money.Cents(row.Costo)
		case EstadoPendiente:
			stats.ConsultasPendientes = row.Count
		}
	}
	if err := cursor.Err(); err != nil {
		return Stats{}, err
	}
	return stats, nil
}

func (r *MongoRepository) find(ctx context.Context, query bson.M, opts *options.FindOptions) ([]Consultation, error) {
	cursor, err := r.col.Find(ctx, query, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	items := make([]Consultation, 0)
	for cursor.Next(ctx) {
		var consultation Consultation
		if err := cursor.Decode(&consultation); err != nil {
			return nil, err
		}
		items = append(items, consultation)
	}
	if err := cursor.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
