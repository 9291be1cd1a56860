package cart

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	lineItemsCollection = "cart_line_items"
	profilesCollection  = "consumer_profiles"
)

type lineItemDocument struct {
	ConsumerID string    `bson:"consumer_id"`
	ProductID  string    `bson:"product_id"`
	Name       string    `bson:"name"`
	UnitPrice  string    `bson:"unit_price"`
	Quantity   int       `bson:"quantity"`
	VendorID   string    `bson:"vendor_id"`
	ImageRef   string    `bson:"image_ref,omitempty"`
	Position   int64     `bson:"position"`
	UpdatedAt  time.Time `bson:"updated_at"`
}

type profileDocument struct {
	ConsumerID string    `bson:"_id"`
	Name       string    `bson:"name"`
	Address    string    `bson:"address"`
	UpdatedAt  time.Time `bson:"updated_at"`
}

// MongoStorage persists one document per line item.
type MongoStorage struct {
	items    *mongo.Collection
	profiles *mongo.Collection
}

func NewMongoStorage(database *mongo.Database) *MongoStorage {
	return &MongoStorage{
		items:    database.Collection(lineItemsCollection),
		profiles: database.Collection(profilesCollection),
	}
}

// EnsureIndexes creates the unique (consumer_id, product_id) index.
func (m *MongoStorage) EnsureIndexes(ctx context.Context) error {
	_, err := m.items.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "consumer_id", Value: 1}, {Key: "product_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("create cart index: %w", err)
	}
	return nil
}

func (m *MongoStorage) Load(ctx context.Context, consumerID string) ([]LineItem, error) {
	cursor, err := m.items.Find(ctx,
		bson.M{"consumer_id": consumerID},
		options.Find().SetSort(bson.D{{Key: "position", Value: 1}}),
	)
	if err != nil {
		return nil, fmt.Errorf("find cart items: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []lineItemDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode cart items: %w", err)
	}
	items := make([]LineItem, 0, len(docs))
	for _, doc := range docs {
		price, err := decimal.NewFromString(doc.UnitPrice)
		if err != nil {
			return nil, fmt.Errorf("decode price of %s: %w", doc.ProductID, err)
		}
		items = append(items, LineItem{
			ProductID: doc.ProductID,
			Name:      doc.Name,
			UnitPrice: price,
			Quantity:  doc.Quantity,
			VendorID:  doc.VendorID,
			ImageRef:  doc.ImageRef,
			Position:  doc.Position,
		})
	}
	return items, nil
}

func (m *MongoStorage) SaveItem(ctx context.Context, consumerID string, item LineItem) error {
	doc := lineItemDocument{
		ConsumerID: consumerID,
		ProductID:  item.ProductID,
		Name:       item.Name,
		UnitPrice:  item.UnitPrice.String(),
		Quantity:   item.Quantity,
		VendorID:   item.VendorID,
		ImageRef:   item.ImageRef,
		Position:   item.Position,
		UpdatedAt:  time.Now().UTC(),
	}
	filter := bson.M{"consumer_id": consumerID, "product_id": item.ProductID}
	if _, err := m.items.ReplaceOne(ctx, filter, doc, options.Replace().SetUpsert(true)); err != nil {
		return fmt.Errorf("upsert cart item: %w", err)
	}
	return nil
}

func (m *MongoStorage) DeleteItem(ctx context.Context, consumerID, productID string) error {
	if _, err := m.items.DeleteOne(ctx, bson.M{"consumer_id": consumerID, "product_id": productID}); err != nil {
		return fmt.Errorf("delete cart item: %w", err)
	}
	return nil
}

func (m *MongoStorage) Clear(ctx context.Context, consumerID string) error {
	if _, err := m.items.DeleteMany(ctx, bson.M{"consumer_id": consumerID}); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return nil
}

func (m *MongoStorage) LoadProfile(ctx context.Context, consumerID string) (*Profile, error) {
	var doc profileDocument
	err := m.profiles.FindOne(ctx, bson.M{"_id": consumerID}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("find profile: %w", err)
	}
	return &Profile{
		ConsumerID: doc.ConsumerID,
		Name:       doc.Name,
		Address:    doc.Address,
		UpdatedAt:  doc.UpdatedAt,
	}, nil
}

func (m *MongoStorage) SaveProfile(ctx context.Context, profile Profile) error {
	doc := profileDocument{
		ConsumerID: profile.ConsumerID,
		Name:       profile.Name,
		Address:    profile.Address,
		UpdatedAt:  profile.UpdatedAt,
	}
	if doc.UpdatedAt.IsZero() {
		doc.UpdatedAt = time.Now().UTC()
	}
	_, err := m.profiles.ReplaceOne(ctx, bson.M{"_id": doc.ConsumerID}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("upsert profile: %w", err)
	}
	return nil
}
