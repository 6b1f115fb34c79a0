package users

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Repository interface {
	Create(ctx context.Context, user User) error
	List(ctx context.Context, filter ListFilter) ([]User, error)
	GetByID(ctx context.Context, id string) (User, error)
	GetByCorreo(ctx context.Context, correo string) (User, error)
	Update(ctx context.Context, user User) error
	SetEstado(ctx context.Context, id, estado string) (User, error)
	Delete(ctx context.Context, id string) error
}

type MongoRepository struct {
	col *mongo.Collection
}

func NewRepository(col *mongo.Collection) *MongoRepository {
	return &MongoRepository{col: col}
}

func (r *MongoRepository) Create(ctx context.Context, user User) error {
	_, err := r.col.InsertOne(ctx, user)
	return err
}

func (r *MongoRepository) List(ctx context.Context, filter ListFilter) ([]User, error) {
	query := bson.M{}
	if filter.RolNombre != "" {
		query["rol_nombre"] = filter.RolNombre
	}
	if filter.Estado != "" {
		query["estado"] = filter.Estado
	}

	opts := options.Find().SetSort(bson.D{{Key: "apellido", Value: 1}, {Key: "nombre", Value: 1}})
	cursor, err := r.col.Find(ctx, query, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	items := make([]User, 0)
	for cursor.Next(ctx) {
		var user User
		if err := cursor.Decode(&user); err != nil {
			return nil, err
		}
		items = append(items, user)
	}
	if err := cursor.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func (r *MongoRepository) GetByID(ctx context.Context, id string) (User, error) {
	var user User
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&user); err != nil {
		return User{}, err
	}
	return user, nil
}

func (r *MongoRepository) GetByCorreo(ctx context.Context, correo string) (User, error) {
	var user User
	if err := r.col.FindOne(ctx, bson.M{"correo": correo}).Decode(&user); err != nil {
		return User{}, err
	}
	return user, nil
}

func (r *MongoRepository) Update(ctx context.Context, user User) error {
	set := bson.M{
		"nombre":     user.Nombre,
		"apellido":   user.Apellido,
		"rol_nombre": user.RolNombre,
		"telefono":   user.Telefono,
		"direccion":  user.Direccion,
		"estado":     user.Estado,
	}
	if user.Correo != "" {
		set["correo"] = user.Correo
	}
	if user.PasswordHash != "" {
		set["passwordHash"] = user.PasswordHash
	}

	res, err := r.col.UpdateOne(ctx, bson.M{"_id": user.ID}, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

func (r *MongoRepository) SetEstado(ctx context.Context, id, estado string) (User, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	update := bson.M{"$set": bson.M{"estado": estado}}

	var updated User
	if err := r.col.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, opts).Decode(&updated); err != nil {
		return User{}, err
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
