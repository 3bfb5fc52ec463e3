package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/rl1809/products-api/internal/core/domain"
	"github.com/rl1809/products-api/internal/obs"
)

// productKey is the document _id. Ids are only unique within a category, so
// the category is part of the key.
type productKey struct {
	Category string `bson:"category"`
	ID       string `bson:"id"`
}

type productDoc struct {
	Key       productKey `bson:"_id"`
	Category  string     `bson:"category"`
	Name      string     `bson:"name"`
	Quantity  int        `bson:"quantity"`
	Price     float64    `bson:"price"`
	Clearance bool       `bson:"clearance"`
	UpdatedAt time.Time  `bson:"updatedAt"`
}

func toDoc(p domain.Product) productDoc {
	return productDoc{
		Key:       productKey{Category: p.Category, ID: p.ID},
		Category:  p.Category,
		Name:      p.Name,
		Quantity:  p.Quantity,
		Price:     p.Price,
		Clearance: p.Clearance,
		UpdatedAt: p.UpdatedAt,
	}
}

func (d productDoc) product() domain.Product {
	return domain.Product{
		ID:        d.Key.ID,
		Category:  d.Category,
		Name:      d.Name,
		Quantity:  d.Quantity,
		Price:     d.Price,
		Clearance: d.Clearance,
		UpdatedAt: d.UpdatedAt.UTC(),
	}
}

// MongoAdapter stores products in one MongoDB collection. The category
// plays the partition key role: the same id may exist once per category.
type MongoAdapter struct {
	coll *lazy[*mongo.Collection]
}

// NewMongoAdapter returns an adapter that connects on first use and makes
// sure the (category, updatedAt) index exists.
func NewMongoAdapter(uri, database, collection string) *MongoAdapter {
	return &MongoAdapter{coll: newLazy(func(ctx context.Context) (*mongo.Collection, error) {
		client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
		if err != nil {
			return nil, fmt.Errorf("mongo connect: %w", err)
		}
		coll := client.Database(database).Collection(collection)
		_, err = coll.Indexes().CreateOne(ctx, mongo.IndexModel{
			Keys: bson.D{{Key: "category", Value: 1}, {Key: "updatedAt", Value: -1}},
		})
		if err != nil {
			_ = client.Disconnect(ctx)
			return nil, fmt.Errorf("mongo ensure index: %w", err)
		}
		obs.Logger.Info().Str("database", database).Str("collection", collection).Msg("mongo: connected")
		return coll, nil
	})}
}

func (a *MongoAdapter) List(ctx context.Context) ([]domain.Product, error) {
	return a.find(ctx, bson.D{})
}

func (a *MongoAdapter) ListByCategory(ctx context.Context, category string) ([]domain.Product, error) {
	return a.find(ctx, bson.D{{Key: "category", Value: category}})
}

func (a *MongoAdapter) find(ctx context.Context, filter bson.D) ([]domain.Product, error) {
	coll, err := a.coll.get(ctx)
	if err != nil {
		return nil, err
	}

	opts := options.Find().SetSort(bson.D{{Key: "updatedAt", Value: -1}})
	cur, err := coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	var docs []productDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}

	out := make([]domain.Product, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.product())
	}
	return out, nil
}

func (a *MongoAdapter) Get(ctx context.Context, id, category string) (domain.Product, error) {
	coll, err := a.coll.get(ctx)
	if err != nil {
		return domain.Product{}, err
	}

	var d productDoc
	err = coll.FindOne(ctx, pointFilter(id, category)).Decode(&d)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return domain.Product{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Product{}, err
	}
	return d.product(), nil
}

func (a *MongoAdapter) Create(ctx context.Context, product domain.Product) (domain.Product, error) {
	coll, err := a.coll.get(ctx)
	if err != nil {
		return domain.Product{}, err
	}

	if _, err := coll.InsertOne(ctx, toDoc(product)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.Product{}, ErrConflict
		}
		return domain.Product{}, err
	}
	obs.Logger.Info().Str("op", "create").Str("id", product.ID).Str("name", product.Name).Msg("mongo: wrote product")
	return product, nil
}

func (a *MongoAdapter) Upsert(ctx context.Context, product domain.Product) (domain.Product, error) {
	coll, err := a.coll.get(ctx)
	if err != nil {
		return domain.Product{}, err
	}

	_, err = coll.ReplaceOne(ctx, pointFilter(product.ID, product.Category), toDoc(product), options.Replace().SetUpsert(true))
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.Product{}, ErrConflict
		}
		return domain.Product{}, err
	}
	obs.Logger.Info().Str("op", "upsert").Str("id", product.ID).Str("name", product.Name).Msg("mongo: wrote product")
	return product, nil
}

func (a *MongoAdapter) Delete(ctx context.Context, id, category string) error {
	coll, err := a.coll.get(ctx)
	if err != nil {
		return err
	}

	res, err := coll.DeleteOne(ctx, pointFilter(id, category))
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return domain.ErrNotFound
	}
	obs.Logger.Info().Str("id", id).Msg("mongo: deleted product")
	return nil
}

func (a *MongoAdapter) Ping(ctx context.Context) error {
	coll, err := a.coll.get(ctx)
	if err != nil {
		return err
	}
	return coll.Database().Client().Ping(ctx, readpref.Primary())
}

func (a *MongoAdapter) Close(ctx context.Context) error {
	coll, ok := a.coll.loaded()
	if !ok {
		return nil
	}
	return coll.Database().Client().Disconnect(ctx)
}

func pointFilter(id, category string) bson.D {
	return bson.D{{Key: "_id", Value: productKey{Category: category, ID: id}}}
}
