package pets

import (
	"context"
	"regexp"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Repository interface {
	Create(ctx context.Context, pet Pet) error
	List(ctx context.Context, search string) ([]Pet, error)
	ListByOwner(ctx context.Context, ownerID string) ([]Pet, error)
	GetByID(ctx context.Context, id string) (Pet, error)
	Update(ctx context.Context, pet Pet) error
	SetEstado(ctx context.Context, id, estado string) (Pet, error)
	Delete(ctx context.Context, id string) error
	CountByOwner(ctx context.Context, ownerID string, estado string) (int64, error)
	Species(ctx context.Context) ([]string, error)
	Stats(ctx context.Context) (Stats, error)
}

type MongoRepository struct {
	col *mongo.Collection
}

func NewRepository(col *mongo.Collection) *MongoRepository {
	return &MongoRepository{col: col}
}

func (r *MongoRepository) Create(ctx context.Context, pet Pet) error {
	_, err := r.col.InsertOne(ctx, pet)
	return err
}

func (r *MongoRepository) List(ctx context.Context, search string) ([]Pet, error) {
	query := bson.M{}
	if search != "" {
		// Substring match on the fields the list page filters by.
		// Quoted so metacharacters in the input stay literal.
		regex := bson.M{"$regex": regexp.QuoteMeta(search), "$options": "i"}
		query["$or"] = []bson.M{
			{"nombre": regex},
			{"especie": regex},
			{"raza": regex},
		}
	}
	return r.find(ctx, query)
}

func (r *MongoRepository) ListByOwner(ctx context.Context, ownerID string) ([]Pet, error) {
	return r.find(ctx, bson.M{"usuario_id": ownerID})
}

func (r *MongoRepository) find(ctx context.Context, query bson.M) ([]Pet, error) {
	opts := options.Find().SetSort(bson.D{{Key: "nombre", Value: 1}})
	cursor, err := r.col.Find(ctx, query, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	items := make([]Pet, 0)
	for cursor.Next(ctx) {
		var pet Pet
		if err := cursor.Decode(&pet); err != nil {
			return nil, err
		}
		items = append(items, pet)
	}
	if err := cursor.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func (r *MongoRepository) GetByID(ctx context.Context, id string) (Pet, error) {
	var pet Pet
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&pet); err != nil {
		return Pet{}, err
	}
	return pet, nil
}

func (r *MongoRepository) Update(ctx context.Context, pet Pet) error {
	update := bson.M{
		"$set": bson.M{
			"nombre":        pet.Nombre,
			"especie":       pet.Especie,
			"raza":          pet.Raza,
			"edad":          pet.Edad,
			"sexo":          pet.Sexo,
			"usuario_id":    pet.UsuarioID,
			"observaciones": pet.Observaciones,
		},
	}
	res, err := r.col.UpdateOne(ctx, bson.M{"_id": pet.ID}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

func (r *MongoRepository) SetEstado(ctx context.Context, id, estado string) (Pet, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	update := bson.M{"$set": bson.M{"estado": estado}}

	var updated Pet
	if err := r.col.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, opts).Decode(&updated); err != nil {
		return Pet{}, err
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

func (r *MongoRepository) CountByOwner(ctx context.Context, ownerID string, estado string) (int64, error) {
	query := bson.M{"usuario_id": ownerID}
	if estado != "" {
		query["estado"] = estado
	}
	return r.col.CountDocuments(ctx, query)
}

func (r *MongoRepository) Species(ctx context.Context) ([]string, error) {
	raw, err := r.col.Distinct(ctx, "especie", bson.M{})
	if err != nil {
		return nil, err
	}
	species := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok && s != "" {
			species = append(species, s)
		}
	}
	return species, nil
}

func (r *MongoRepository) Stats(ctx context.Context) (Stats, error) {
	total, err := r.col.CountDocuments(ctx, bson.M{})
	if err != nil {
		return Stats{}, err
	}
	active, err := r.col.CountDocuments(ctx, bson.M{"estado": EstadoActivo})
	if err != nil {
		return Stats{}, err
	}

	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.M{"_id": "$especie", "total": bson.M{"$sum": 1}}}},
		{{Key: "$sort", Value: bson.D{{Key: "total", Value: -1}, {Key: "_id", Value: 1}}}},
	}
	cursor, err := r.col.Aggregate(ctx, pipeline)
	if err != nil {
		return Stats{}, err
	}
	defer cursor.Close(ctx)

	species := make([]SpeciesCount, 0)
	for cursor.Next(ctx) {
		var row SpeciesCount
		if err := cursor.Decode(&row); err != nil {
			return Stats{}, err
		}
		species = append(species, row)
	}
	if err := cursor.Err(); err != nil {
		return Stats{}, err
	}

	return Stats{
		TotalMascotas:     total,
		MascotasActivas:   active,
		MascotasInactivas: total - active,
		EspeciesStats:     species,
	}, nil
}
