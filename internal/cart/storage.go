package cart

import "context"

// Storage persists cart line items under a consumer-scoped namespace. Load
// returns items ordered by Position.
type Storage interface {
	Load(ctx context.Context, consumerID string) ([]LineItem, error)
	SaveItem(ctx context.Context, consumerID string, item LineItem) error
	DeleteItem(ctx context.Context, consumerID, productID string) error
	Clear(ctx context.Context, consumerID string) error
}

// ProfileStorage persists the last-known consumer profile. LoadProfile
// returns nil without error when nothing is stored.
type ProfileStorage interface {
	LoadProfile(ctx context.Context, consumerID string) (*Profile, error)
	SaveProfile(ctx context.Context, profile Profile) error
}
