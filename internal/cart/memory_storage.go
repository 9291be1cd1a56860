package cart

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryStorage keeps carts and profiles in process memory.
type MemoryStorage struct {
	mu       sync.Mutex
	carts    map[string]map[string]LineItem
	profiles map[string]Profile
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		carts:    map[string]map[string]LineItem{},
		profiles: map[string]Profile{},
	}
}

func (m *MemoryStorage) Load(_ context.Context, consumerID string) ([]LineItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	items := make([]LineItem, 0, len(m.carts[consumerID]))
	for _, item := range m.carts[consumerID] {
		items = append(items, item)
	}
	sortByPosition(items)
	return items, nil
}

func (m *MemoryStorage) SaveItem(_ context.Context, consumerID string, item LineItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cart, ok := m.carts[consumerID]
	if !ok {
		cart = map[string]LineItem{}
		m.carts[consumerID] = cart
	}
	cart[item.ProductID] = item
	return nil
}

func (m *MemoryStorage) DeleteItem(_ context.Context, consumerID, productID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.carts[consumerID], productID)
	return nil
}

func (m *MemoryStorage) Clear(_ context.Context, consumerID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.carts, consumerID)
	return nil
}

func (m *MemoryStorage) LoadProfile(_ context.Context, consumerID string) (*Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	profile, ok := m.profiles[consumerID]
	if !ok {
		return nil, nil
	}
	return &profile, nil
}

func (m *MemoryStorage) SaveProfile(_ context.Context, profile Profile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if profile.UpdatedAt.IsZero() {
		profile.UpdatedAt = time.Now().UTC()
	}
	m.profiles[profile.ConsumerID] = profile
	return nil
}

func sortByPosition(items []LineItem) {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Position == items[j].Position {
			return items[i].ProductID < items[j].ProductID
		}
		return items[i].Position < items[j].Position
	})
}
