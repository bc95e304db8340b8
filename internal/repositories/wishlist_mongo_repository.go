package repositories

import (
	"context"
	"errors"
	"time"

	"outfitter/internal/apperr"
	"outfitter/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoWishlistRepository stores one wishlist document per user in a MongoDB collection.
type MongoWishlistRepository struct {
	coll    *mongo.Collection
	timeout time.Duration
	now     func() time.Time
}

// NewMongoWishlistRepository creates a new instance of MongoWishlistRepository.
func NewMongoWishlistRepository(coll *mongo.Collection, timeout time.Duration) *MongoWishlistRepository {
	return &MongoWishlistRepository{coll: coll, timeout: timeout, now: time.Now}
}

// EnsureIndexes creates the unique userId index. AddItem relies on it to turn a duplicate
// product into a duplicate-key failure instead of a second document.
func (r *MongoWishlistRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	_, err := r.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "userId", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("wishlists_user_unique"),
	})
	return storeError("ensure wishlist indexes", err)
}

func (r *MongoWishlistRepository) Get(ctx context.Context, userID string) (*models.Wishlist, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var w models.Wishlist
	if err := r.coll.FindOne(ctx, bson.M{"userId": userID}).Decode(&w); err != nil {
		return nil, storeError("get wishlist", err)
	}
	return normalizeWishlist(&w), nil
}

func (r *MongoWishlistRepository) Contains(ctx context.Context, userID, productID string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	n, err := r.coll.CountDocuments(ctx,
		bson.M{"userId": userID, "items.productId": productID},
		options.Count().SetLimit(1))
	if err != nil {
		return false, storeError("check wishlist", err)
	}
	return n > 0, nil
}

// AddItem only matches a document that does not hold productID yet. When the document holds
// it, the upsert tries to insert a second document for the user and the unique index rejects
// it. A duplicate key can also come from two first adds racing to create the document; that
// case is told apart by checking for the product and retried once against the now existing
// document.
func (r *MongoWishlistRepository) AddItem(ctx context.Context, userID, productID string) (*models.Wishlist, error) {
	item := models.WishlistItem{ProductID: productID, AddedAt: r.now().UTC()}
	pipeline := mongo.Pipeline{
		setStage(bson.M{"items": bson.M{"$concatArrays": bson.A{ifNullItems, literal(bson.A{item})}}}),
		wishlistCountStage(),
	}
	filter := bson.M{"userId": userID, "items.productId": bson.M{"$ne": productID}}

	for attempt := 0; ; attempt++ {
		w, err := r.findOneAndUpdate(ctx, "add wishlist item", filter, pipeline, true)
		if !errors.Is(err, errDuplicateKey) {
			return w, err
		}
		present, cerr := r.Contains(ctx, userID, productID)
		if cerr != nil {
			return nil, cerr
		}
		if present || attempt > 0 {
			return nil, apperr.New(apperr.AlreadyInWishlist, "product is already in the wishlist")
		}
	}
}

func (r *MongoWishlistRepository) RemoveItem(ctx context.Context, userID, productID string) (*models.Wishlist, error) {
	pipeline := mongo.Pipeline{
		setStage(bson.M{"items": withoutLineExpr(productID)}),
		wishlistCountStage(),
	}
	return r.findOneAndUpdate(ctx, "remove wishlist item", bson.M{"userId": userID}, pipeline, false)
}

func (r *MongoWishlistRepository) Clear(ctx context.Context, userID string) (*models.Wishlist, error) {
	pipeline := mongo.Pipeline{setStage(bson.M{"items": literal(bson.A{})}), wishlistCountStage()}
	return r.findOneAndUpdate(ctx, "clear wishlist", bson.M{"userId": userID}, pipeline, false)
}

// Reorder matches only when the stored items are exactly the given ids: same size and every
// id present. With duplicate-free ids that is a permutation check done by the store itself.
func (r *MongoWishlistRepository) Reorder(ctx context.Context, userID string, productIDs []string) (*models.Wishlist, error) {
	filter := bson.M{"userId": userID, "items": bson.M{"$size": len(productIDs)}}
	if len(productIDs) > 0 {
		filter["items.productId"] = bson.M{"$all": productIDs}
	}
	reordered := bson.M{"$map": bson.M{
		"input": literal(productIDs),
		"as":    "pid",
		"in": bson.M{"$arrayElemAt": bson.A{
			bson.M{"$filter": bson.M{
				"input": "$items",
				"as":    "item",
				"cond":  bson.M{"$eq": bson.A{"$$item.productId", "$$pid"}},
			}},
			0,
		}},
	}}
	pipeline := mongo.Pipeline{setStage(bson.M{"items": reordered}), wishlistCountStage()}

	w, err := r.findOneAndUpdate(ctx, "reorder wishlist", filter, pipeline, false)
	if !apperr.Is(err, apperr.NotFound) {
		return w, err
	}

	// Tell a missing document apart from a list that is not a permutation.
	if _, gerr := r.Get(ctx, userID); gerr != nil {
		return nil, gerr
	}
	return nil, errInvalidReorder
}

var errDuplicateKey = errors.New("duplicate key")

func (r *MongoWishlistRepository) findOneAndUpdate(ctx context.Context, op string, filter bson.M, pipeline mongo.Pipeline, upsert bool) (*models.Wishlist, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	opts := options.FindOneAndUpdate().
		SetUpsert(upsert).
		SetReturnDocument(options.After)

	var w models.Wishlist
	err := r.coll.FindOneAndUpdate(ctx, filter, pipeline, opts).Decode(&w)
	switch {
	case err == nil:
		return normalizeWishlist(&w), nil
	case mongo.IsDuplicateKeyError(err):
		return nil, errDuplicateKey
	default:
		return nil, storeError(op, err)
	}
}

func wishlistCountStage() bson.D {
	return setStage(bson.M{
		"itemCount": bson.M{"$size": "$items"},
		"updatedAt": "$$NOW",
	})
}

func normalizeWishlist(w *models.Wishlist) *models.Wishlist {
	if w.Items == nil {
		w.Items = []models.WishlistItem{}
	}
	w.ItemCount = len(w.Items)
	return w
}
