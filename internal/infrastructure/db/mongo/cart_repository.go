package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/storefront/commerce-core/internal/core/domain"
)

const collectionCarts = "carts"

// CartRepository keeps one document per user, keyed by user_id.
type CartRepository struct {
	col *mongo.Collection
}

func NewCartRepository(db *mongo.Database) *CartRepository {
	return &CartRepository{col: db.Collection(collectionCarts)}
}

type cartItemDocument struct {
	ProductID string               `bson:"product_id"`
	Price     primitive.Decimal128 `bson:"price"`
	Quantity  int                  `bson:"quantity"`
}

type cartDocument struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	UserID    string             `bson:"user_id"`
	Items     []cartItemDocument `bson:"items"`
	UpdatedAt time.Time          `bson:"updated_at"`
}

func (d *cartDocument) toDomain() (*domain.Cart, error) {
	cart := &domain.Cart{
		ID:        d.ID.Hex(),
		UserID:    d.UserID,
		Items:     make([]domain.CartItem, 0, len(d.Items)),
		UpdatedAt: d.UpdatedAt.UTC(),
	}
	for _, it := range d.Items {
		price, err := fromDecimal128(it.Price)
		if err != nil {
			return nil, err
		}
		cart.Items = append(cart.Items, domain.CartItem{
			Product:  domain.Product{ID: it.ProductID, Price: price},
			Quantity: it.Quantity,
		})
	}
	return cart, nil
}

func (r *CartRepository) GetByUserID(ctx context.Context, userID string) (*domain.Cart, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc cartDocument
	if err := r.col.FindOne(ctx, bson.M{"user_id": userID}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrCartNotFound
		}
		return nil, fmt.Errorf("find cart: %w", err)
	}
	return doc.toDomain()
}

func (r *CartRepository) DeleteByUserID(ctx context.Context, userID string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.DeleteOne(ctx, bson.M{"user_id": userID})
	if err != nil {
		return false, fmt.Errorf("delete cart: %w", err)
	}
	return res.DeletedCount > 0, nil
}

func (r *CartRepository) DeleteVersion(ctx context.Context, v domain.CartVersion) (bool, error) {
	oid, err := primitive.ObjectIDFromHex(v.CartID)
	if err != nil {
		return false, nil
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.DeleteOne(ctx, bson.M{"_id": oid, "user_id": v.UserID, "updated_at": v.UpdatedAt})
	if err != nil {
		return false, fmt.Errorf("delete cart version: %w", err)
	}
	return res.DeletedCount > 0, nil
}

// Save upserts the user's cart and returns the stored document.
func (r *CartRepository) Save(ctx context.Context, cart *domain.Cart) (*domain.Cart, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	items := make([]cartItemDocument, 0, len(cart.Items))
	for _, it := range cart.Items {
		price, err := toDecimal128(it.Product.Price)
		if err != nil {
			return nil, err
		}
		items = append(items, cartItemDocument{ProductID: it.Product.ID, Price: price, Quantity: it.Quantity})
	}

	updatedAt := cart.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now().UTC()
	}

	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	update := bson.M{"$set": bson.M{"items": items, "updated_at": updatedAt}}

	var doc cartDocument
	if err := r.col.FindOneAndUpdate(ctx, bson.M{"user_id": cart.UserID}, update, opts).Decode(&doc); err != nil {
		return nil, fmt.Errorf("upsert cart: %w", err)
	}
	return doc.toDomain()
}

// EnsureIndexes enforces one cart per user.
func (r *CartRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err := r.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "user_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}
