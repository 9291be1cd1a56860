package cart

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/gocart/storefront/pkg/config"
	"github.com/gocart/storefront/pkg/mongo"
)

func TestMongoStorage(t *testing.T) {
	uri := os.Getenv("GOCART_TEST_MONGO_URI")
	if uri == "" {
		t.Skip("GOCART_TEST_MONGO_URI not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client, err := mongo.New(ctx, config.MongoConfig{URI: uri, Database: "gocart_test_" + uuid.NewString()[:8]}, nil)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = client.Database().Drop(context.Background())
		_ = client.Close(context.Background())
	})

	storage := NewMongoStorage(client.Database())
	require.NoError(t, storage.EnsureIndexes(ctx))
	runStorageContract(t, storage)
	runProfileContract(t, storage)
}
