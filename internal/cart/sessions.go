package cart

import (
	"context"
	"hash/fnv"
	"strings"
	"sync"

	pkgerrors "github.com/gocart/storefront/pkg/errors"
)

const lockStripes = 256

// Sessions opens consumer carts over shared storage. Every Open reads the
// cart from storage, so a cart changed by another process is never served
// stale. Stores of the same consumer in this process share one mutex.
type Sessions struct {
	storage Storage
	opts    []StoreOption

	locks [lockStripes]sync.Mutex
}

// NewSessions builds a registry over storage.
func NewSessions(storage Storage, opts ...StoreOption) *Sessions {
	return &Sessions{
		storage: storage,
		opts:    opts,
	}
}

// Open loads the consumer's current cart.
func (s *Sessions) Open(ctx context.Context, consumerID string) (*Store, error) {
	consumerID = strings.TrimSpace(consumerID)
	if consumerID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "consumer id is required")
	}

	opts := make([]StoreOption, 0, len(s.opts)+1)
	opts = append(opts, withLock(s.lockFor(consumerID)))
	opts = append(opts, s.opts...)
	return NewStore(ctx, consumerID, s.storage, opts...)
}

func (s *Sessions) lockFor(consumerID string) *sync.Mutex {
	h := fnv.New32a()
	_, _ = h.Write([]byte(consumerID))
	return &s.locks[h.Sum32()%lockStripes]
}
