package repositories

import (
	"context"
	"time"

	"outfitter/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoCartRepository stores one cart document per user in a MongoDB collection.
// Every mutation is a single findOneAndUpdate with an aggregation-pipeline update, so the
// item change and the recomputed totals land in the same atomic document write.
type MongoCartRepository struct {
	coll    *mongo.Collection
	timeout time.Duration
	now     func() time.Time
}

// NewMongoCartRepository creates a new instance of MongoCartRepository.
func NewMongoCartRepository(coll *mongo.Collection, timeout time.Duration) *MongoCartRepository {
	return &MongoCartRepository{coll: coll, timeout: timeout, now: time.Now}
}

// EnsureIndexes creates the unique userId index that keeps lazy creation to one document
// per user under concurrent upserts.
func (r *MongoCartRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	_, err := r.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "userId", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("carts_user_unique"),
	})
	return storeError("ensure cart indexes", err)
}

func (r *MongoCartRepository) Get(ctx context.Context, userID string) (*models.Cart, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var cart models.Cart
	if err := r.coll.FindOne(ctx, bson.M{"userId": userID}).Decode(&cart); err != nil {
		return nil, storeError("get cart", err)
	}
	return normalizeCart(&cart), nil
}

func (r *MongoCartRepository) AddItem(ctx context.Context, userID string, line models.CartLine) (*models.Cart, error) {
	if line.AddedAt.IsZero() {
		line.AddedAt = r.now().UTC()
	}
	pipeline := mongo.Pipeline{
		setStage(bson.M{"items": addLineExpr(line)}),
		cartTotalsStage(),
	}
	return r.findOneAndUpdate(ctx, "add cart item", userID, pipeline, true)
}

func (r *MongoCartRepository) UpdateQuantity(ctx context.Context, userID, productID string, quantity int) (*models.Cart, error) {
	var items bson.M
	if quantity <= 0 {
		items = withoutLineExpr(productID)
	} else {
		items = bson.M{"$map": bson.M{
			"input": ifNullItems,
			"as":    "line",
			"in": bson.M{"$cond": bson.A{
				bson.M{"$eq": bson.A{"$$line.productId", literal(productID)}},
				bson.M{"$mergeObjects": bson.A{"$$line", bson.M{"quantity": literal(quantity)}}},
				"$$line",
			}},
		}}
	}
	pipeline := mongo.Pipeline{setStage(bson.M{"items": items}), cartTotalsStage()}
	return r.findOneAndUpdate(ctx, "update cart quantity", userID, pipeline, false)
}

func (r *MongoCartRepository) RemoveItem(ctx context.Context, userID, productID string) (*models.Cart, error) {
	pipeline := mongo.Pipeline{setStage(bson.M{"items": withoutLineExpr(productID)}), cartTotalsStage()}
	return r.findOneAndUpdate(ctx, "remove cart item", userID, pipeline, false)
}

func (r *MongoCartRepository) Clear(ctx context.Context, userID string) (*models.Cart, error) {
	pipeline := mongo.Pipeline{setStage(bson.M{"items": literal(bson.A{})}), cartTotalsStage()}
	return r.findOneAndUpdate(ctx, "clear cart", userID, pipeline, false)
}

func (r *MongoCartRepository) findOneAndUpdate(ctx context.Context, op, userID string, pipeline mongo.Pipeline, upsert bool) (*models.Cart, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	opts := options.FindOneAndUpdate().
		SetUpsert(upsert).
		SetReturnDocument(options.After)

	var cart models.Cart
	if err := r.coll.FindOneAndUpdate(ctx, bson.M{"userId": userID}, pipeline, opts).Decode(&cart); err != nil {
		return nil, storeError(op, err)
	}
	return normalizeCart(&cart), nil
}

var ifNullItems = bson.M{"$ifNull": bson.A{"$items", bson.A{}}}

// literal keeps user supplied values such as product ids from being read as field paths.
func literal(v any) bson.M {
	return bson.M{"$literal": v}
}

func setStage(fields bson.M) bson.D {
	return bson.D{{Key: "$set", Value: fields}}
}

// addLineExpr merges line into the existing items: quantity is incremented on the line with
// the same productId, otherwise line is appended.
func addLineExpr(line models.CartLine) bson.M {
	pid := literal(line.ProductID)
	merged := bson.M{"$map": bson.M{
		"input": ifNullItems,
		"as":    "line",
		"in": bson.M{"$cond": bson.A{
			bson.M{"$eq": bson.A{"$$line.productId", pid}},
			bson.M{"$mergeObjects": bson.A{
				"$$line",
				bson.M{"quantity": bson.M{"$add": bson.A{"$$line.quantity", line.Quantity}}},
			}},
			"$$line",
		}},
	}}
	appended := bson.M{"$concatArrays": bson.A{ifNullItems, literal(bson.A{line})}}
	present := bson.M{"$in": bson.A{pid, bson.M{"$ifNull": bson.A{"$items.productId", bson.A{}}}}}

	return bson.M{"$cond": bson.A{present, merged, appended}}
}

func withoutLineExpr(productID string) bson.M {
	return bson.M{"$filter": bson.M{
		"input": ifNullItems,
		"as":    "line",
		"cond":  bson.M{"$ne": bson.A{"$$line.productId", literal(productID)}},
	}}
}

// cartTotalsStage derives totalItems and totalPrice from the items written by the previous
// stage. It must run as its own stage: expressions inside one $set see the input document.
func cartTotalsStage() bson.D {
	return setStage(bson.M{
		"totalItems": bson.M{"$sum": "$items.quantity"},
		"totalPrice": bson.M{"$sum": bson.M{"$map": bson.M{
			"input": "$items",
			"as":    "line",
			"in":    bson.M{"$multiply": bson.A{"$$line.quantity", "$$line.productPrice"}},
		}}},
		"lastUpdated": "$$NOW",
	})
}

func normalizeCart(c *models.Cart) *models.Cart {
	if c.Items == nil {
		c.Items = []models.CartLine{}
	}
	return c
}
