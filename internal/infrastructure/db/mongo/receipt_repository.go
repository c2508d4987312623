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
	"github.com/storefront/commerce-core/internal/core/ports"
)

const collectionReceipts = "receipts"

type ReceiptRepository struct {
	col *mongo.Collection
}

func NewReceiptRepository(db *mongo.Database) *ReceiptRepository {
	return &ReceiptRepository{col: db.Collection(collectionReceipts)}
}

type receiptItemDocument struct {
	ProductID string               `bson:"product_id"`
	Quantity  int                  `bson:"quantity"`
	UnitPrice primitive.Decimal128 `bson:"unit_price"`
	LineTotal primitive.Decimal128 `bson:"line_total"`
}

type receiptDocument struct {
	ID          primitive.ObjectID    `bson:"_id,omitempty"`
	UserID      string                `bson:"user_id"`
	Items       []receiptItemDocument `bson:"items"`
	TotalAmount primitive.Decimal128  `bson:"total_amount"`
	Note        string                `bson:"note,omitempty"`
	CreatedAt   time.Time             `bson:"created_at"`
}

func newReceiptDocument(r *domain.Receipt) (*receiptDocument, error) {
	total, err := toDecimal128(r.TotalAmount)
	if err != nil {
		return nil, err
	}
	doc := &receiptDocument{
		UserID:      r.UserID,
		Items:       make([]receiptItemDocument, 0, len(r.Items)),
		TotalAmount: total,
		Note:        r.Note,
		CreatedAt:   r.CreatedAt,
	}
	for _, it := range r.Items {
		unit, err := toDecimal128(it.UnitPrice)
		if err != nil {
			return nil, err
		}
		line, err := toDecimal128(it.LineTotal)
		if err != nil {
			return nil, err
		}
		doc.Items = append(doc.Items, receiptItemDocument{
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			UnitPrice: unit,
			LineTotal: line,
		})
	}
	return doc, nil
}

func (d *receiptDocument) toDomain() (*domain.Receipt, error) {
	total, err := fromDecimal128(d.TotalAmount)
	if err != nil {
		return nil, err
	}
	r := &domain.Receipt{
		ID:          d.ID.Hex(),
		UserID:      d.UserID,
		Items:       make([]domain.ReceiptItem, 0, len(d.Items)),
		TotalAmount: total,
		Note:        d.Note,
		CreatedAt:   d.CreatedAt.UTC(),
	}
	for _, it := range d.Items {
		unit, err := fromDecimal128(it.UnitPrice)
		if err != nil {
			return nil, err
		}
		line, err := fromDecimal128(it.LineTotal)
		if err != nil {
			return nil, err
		}
		r.Items = append(r.Items, domain.ReceiptItem{
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			UnitPrice: unit,
			LineTotal: line,
		})
	}
	return r, nil
}

// Save inserts a new receipt document.
func (r *ReceiptRepository) Save(ctx context.Context, receipt *domain.Receipt) (*domain.Receipt, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc, err := newReceiptDocument(receipt)
	if err != nil {
		return nil, err
	}
	res, err := r.col.InsertOne(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("insert receipt: %w", err)
	}
	doc.ID = res.InsertedID.(primitive.ObjectID)
	return doc.toDomain()
}

// Find returns a page of receipts, newest first. An empty UserID matches
// every user.
func (r *ReceiptRepository) Find(ctx context.Context, filter ports.ReceiptFilter) ([]*domain.Receipt, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	query := bson.M{}
	if filter.UserID != "" {
		query["user_id"] = filter.UserID
	}

	total, err := r.col.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, fmt.Errorf("count receipts: %w", err)
	}

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	if filter.Limit > 0 {
		page := filter.Page
		if page < 1 {
			page = 1
		}
		opts.SetSkip(int64((page - 1) * filter.Limit)).SetLimit(int64(filter.Limit))
	}

	cur, err := r.col.Find(ctx, query, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("find receipts: %w", err)
	}
	defer cur.Close(ctx)

	var docs []receiptDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, 0, fmt.Errorf("decode receipts: %w", err)
	}

	receipts := make([]*domain.Receipt, 0, len(docs))
	for i := range docs {
		rec, err := docs[i].toDomain()
		if err != nil {
			return nil, 0, err
		}
		receipts = append(receipts, rec)
	}
	return receipts, total, nil
}

func (r *ReceiptRepository) FindByID(ctx context.Context, id string) (*domain.Receipt, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrReceiptNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc receiptDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrReceiptNotFound
		}
		return nil, fmt.Errorf("find receipt: %w", err)
	}
	return doc.toDomain()
}

// Update applies the mutable fields of patch and returns the updated receipt.
func (r *ReceiptRepository) Update(ctx context.Context, id string, patch domain.ReceiptPatch) (*domain.Receipt, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrReceiptNotFound
	}
	if patch.Note == nil {
		return r.FindByID(ctx, id)
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	update := bson.M{"$set": bson.M{"note": *patch.Note}}

	var doc receiptDocument
	if err := r.col.FindOneAndUpdate(ctx, bson.M{"_id": oid}, update, opts).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrReceiptNotFound
		}
		return nil, fmt.Errorf("update receipt: %w", err)
	}
	return doc.toDomain()
}

func (r *ReceiptRepository) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return domain.ErrReceiptNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("delete receipt: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrReceiptNotFound
	}
	return nil
}

// EnsureIndexes creates necessary indexes on the receipts collection.
func (r *ReceiptRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "created_at", Value: -1}}},
	}

	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}
