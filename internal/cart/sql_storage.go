package cart

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/gocart/storefront/pkg/db"
)

type lineItemRow struct {
	ConsumerID string          `gorm:"column:consumer_id;primaryKey"`
	ProductID  string          `gorm:"column:product_id;primaryKey"`
	Name       string          `gorm:"column:name"`
	UnitPrice  decimal.Decimal `gorm:"column:unit_price;type:numeric"`
	Quantity   int             `gorm:"column:quantity"`
	VendorID   string          `gorm:"column:vendor_id"`
	ImageRef   string          `gorm:"column:image_ref"`
	Position   int64           `gorm:"column:position"`
	UpdatedAt  time.Time       `gorm:"column:updated_at"`
}

func (lineItemRow) TableName() string { return "cart_line_items" }

type profileRow struct {
	ConsumerID string    `gorm:"column:consumer_id;primaryKey"`
	Name       string    `gorm:"column:name"`
	Address    string    `gorm:"column:address"`
	UpdatedAt  time.Time `gorm:"column:updated_at"`
}

func (profileRow) TableName() string { return "consumer_profiles" }

// SQLStorage persists one row per line item in cart_line_items.
type SQLStorage struct {
	db *gorm.DB
}

func NewSQLStorage(conn *gorm.DB) *SQLStorage {
	return &SQLStorage{db: conn}
}

func (s *SQLStorage) Load(ctx context.Context, consumerID string) ([]LineItem, error) {
	var rows []lineItemRow
	if err := s.db.WithContext(ctx).
		Where("consumer_id = ?", consumerID).
		Order("position ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	items := make([]LineItem, 0, len(rows))
	for _, row := range rows {
		items = append(items, LineItem{
			ProductID: row.ProductID,
			Name:      row.Name,
			UnitPrice: row.UnitPrice,
			Quantity:  row.Quantity,
			VendorID:  row.VendorID,
			ImageRef:  row.ImageRef,
			Position:  row.Position,
		})
	}
	return items, nil
}

// SaveItem upserts the row keyed by (consumer_id, product_id).
func (s *SQLStorage) SaveItem(ctx context.Context, consumerID string, item LineItem) error {
	row := lineItemRow{
		ConsumerID: consumerID,
		ProductID:  item.ProductID,
		Name:       item.Name,
		UnitPrice:  item.UnitPrice,
		Quantity:   item.Quantity,
		VendorID:   item.VendorID,
		ImageRef:   item.ImageRef,
		Position:   item.Position,
		UpdatedAt:  time.Now().UTC(),
	}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "consumer_id"}, {Name: "product_id"}},
			UpdateAll: true,
		}).
		Create(&row).Error
}

func (s *SQLStorage) DeleteItem(ctx context.Context, consumerID, productID string) error {
	return s.db.WithContext(ctx).
		Where("consumer_id = ? AND product_id = ?", consumerID, productID).
		Delete(&lineItemRow{}).Error
}

func (s *SQLStorage) Clear(ctx context.Context, consumerID string) error {
	return s.db.WithContext(ctx).
		Where("consumer_id = ?", consumerID).
		Delete(&lineItemRow{}).Error
}

func (s *SQLStorage) LoadProfile(ctx context.Context, consumerID string) (*Profile, error) {
	var row profileRow
	err := s.db.WithContext(ctx).
		Where("consumer_id = ?", consumerID).
		First(&row).Error
	if err != nil {
		if db.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return &Profile{
		ConsumerID: row.ConsumerID,
		Name:       row.Name,
		Address:    row.Address,
		UpdatedAt:  row.UpdatedAt,
	}, nil
}

func (s *SQLStorage) SaveProfile(ctx context.Context, profile Profile) error {
	row := profileRow{
		ConsumerID: profile.ConsumerID,
		Name:       profile.Name,
		Address:    profile.Address,
		UpdatedAt:  profile.UpdatedAt,
	}
	if row.UpdatedAt.IsZero() {
		row.UpdatedAt = time.Now().UTC()
	}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "consumer_id"}},
			UpdateAll: true,
		}).
		Create(&row).Error
}
