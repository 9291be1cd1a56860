package checkout

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	pkgerrors "github.com/gocart/storefront/pkg/errors"
)

// ErrCheckoutInFlight refuses a second submission while one is outstanding.
var ErrCheckoutInFlight = pkgerrors.New(pkgerrors.CodeConflict, "checkout already in progress")

// Guard admits at most one checkout per consumer at a time.
type Guard interface {
	Acquire(ctx context.Context, consumerID string) (release func(), err error)
}

// MemoryGuard guards checkouts within one process.
type MemoryGuard struct {
	mu       sync.Mutex
	inflight map[string]struct{}
}

func NewMemoryGuard() *MemoryGuard {
	return &MemoryGuard{inflight: map[string]struct{}{}}
}

func (g *MemoryGuard) Acquire(_ context.Context, consumerID string) (func(), error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, busy := g.inflight[consumerID]; busy {
		return nil, ErrCheckoutInFlight
	}
	g.inflight[consumerID] = struct{}{}

	var once sync.Once
	return func() {
		once.Do(func() {
			g.mu.Lock()
			delete(g.inflight, consumerID)
			g.mu.Unlock()
		})
	}, nil
}

type lockStore interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	ReleaseLock(ctx context.Context, key, token string) (bool, error)
	LockKey(scope, id string) string
}

const lockScope = "checkout"

// RedisGuard guards checkouts across processes with a SETNX lock. The TTL
// bounds how long a crashed holder can block the consumer.
type RedisGuard struct {
	store lockStore
	ttl   time.Duration
}

func NewRedisGuard(store lockStore, ttl time.Duration) *RedisGuard {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &RedisGuard{store: store, ttl: ttl}
}

func (g *RedisGuard) Acquire(ctx context.Context, consumerID string) (func(), error) {
	key := g.store.LockKey(lockScope, consumerID)
	token := uuid.NewString()
	ok, err := g.store.SetNX(ctx, key, token, g.ttl)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "acquire checkout lock")
	}
	if !ok {
		return nil, ErrCheckoutInFlight
	}
	var once sync.Once
	return func() {
		once.Do(func() {
			// An expired lock may already belong to another request; ReleaseLock checks the token.
			releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
			defer cancel()
			_, _ = g.store.ReleaseLock(releaseCtx, key, token)
		})
	}, nil
}
