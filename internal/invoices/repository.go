package invoices

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Repository interface {
	Create(ctx context.Context, invoice Invoice) error
	List(ctx context.Context) ([]Invoice, error)
	GetByID(ctx context.Context, id string) (Invoice, error)
	MarkPaid(ctx context.Context, id, metodoPago, observaciones string, paidAt time.Time) (Invoice, error)
	MarkVoided(ctx context.Context, id, observaciones string) (Invoice, error)
	NextNumber(ctx context.Context) (string, error)
}

type MongoRepository struct {
	col      *mongo.Collection
	counters *mongo.Collection
}

func NewRepository(col, counters *mongo.Collection) *MongoRepository {
	return &MongoRepository{col: col, counters: counters}
}

func (r *MongoRepository) Create(ctx context.Context, invoice Invoice) error {
	_, err := r.col.InsertOne(ctx, invoice)
	return err
}

func (r *MongoRepository) List(ctx context.Context) ([]Invoice, error) {
	opts := options.Find().SetSort(bson.D{{Key: "fecha_emision", Value: -1}})
	cursor, err := r.col.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	items := make([]Invoice, 0)
	for cursor.Next(ctx) {
		var invoice Invoice
		if err := cursor.Decode(&invoice); err != nil {
			return nil, err
		}
		items = append(items, invoice)
	}
	if err := cursor.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func (r *MongoRepository) GetByID(ctx context.Context, id string) (Invoice, error) {
	var invoice Invoice
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&invoice); err != nil {
		return Invoice{}, err
	}
	return invoice, nil
}

// MarkPaid flips a Pendiente factura to Pagada in one atomic update.
// The estado filter makes the transition race-free: a factura already
// paid or voided by a concurrent request matches nothing.
func (r *MongoRepository) MarkPaid(ctx context.Context, id, metodoPago, observaciones string, paidAt time.Time) (Invoice, error) {
	set := bson.M{
		"estado":      EstadoPagada,
		"metodo_pago": metodoPago,
		"fecha_pago":  paidAt,
	}
	if observaciones != "" {
		set["observaciones"] = observaciones
	}
	return r.transition(ctx, id, set)
}

func (r *MongoRepository) MarkVoided(ctx context.Context, id, observaciones string) (Invoice, error) {
	set := bson.M{"estado": EstadoAnulada}
	if observaciones != "" {
		set["observaciones"] = observaciones
	}
	return r.transition(ctx, id, set)
}

func (r *MongoRepository) transition(ctx context.Context, id string, set bson.M) (Invoice, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	filter := bson.M{"_id": id, "estado": EstadoPendiente}
	var invoice Invoice
	err := r.col.FindOneAndUpdate(ctx, filter, bson.M{"$set": set}, opts).Decode(&invoice)
	if err != nil {
		return Invoice{}, err
	}
	return invoice, nil
}

// NextNumber draws the next invoice number from the counters
// collection with an atomic upserted $inc.
func (r *MongoRepository) NextNumber(ctx context.Context) (string, error) {
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)
	var counter struct {
		Seq int64 `bson:"seq"`
	}
	err := r.counters.FindOneAndUpdate(ctx,
		bson.M{"_id": "facturas"},
		bson.M{"$inc": bson.M{"seq": 1}},
		opts,
	).Decode(&counter)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("FAC-%06d", counter.Seq), nil
}
