package redis_test

import (
	"context"
	"os"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/cost-ledger/ledger"
	"github.com/warp/cost-ledger/store/redis"
)

// These tests need a disposable Redis in TEST_REDIS_URL.
func newStore(t *testing.T) *redis.Store {
	t.Helper()
	url := os.Getenv("TEST_REDIS_URL")
	if url == "" {
		t.Skip("TEST_REDIS_URL not set")
	}
	s, err := redis.New(context.Background(), url)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestNew_BadURL(t *testing.T) {
	_, err := redis.New(context.Background(), "not a url")
	assert.Error(t, err)
}

func TestStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	id := "redis-test-" + t.Name()

	missing, err := s.Load(ctx, id)
	require.NoError(t, err)
	assert.Nil(t, missing)

	snap := &ledger.Snapshot{
		Recipes: []ledger.Recipe{{ID: "latte", Name: "Latte", Price: decimal.RequireFromString("4.50")}},
		Version: 2,
	}
	require.NoError(t, s.Save(ctx, id, snap))

	loaded, err := s.Load(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, int64(2), loaded.Version)
	assert.Equal(t, "Latte", loaded.Recipes[0].Name)

	ids, err := s.Restaurants(ctx)
	require.NoError(t, err)
	assert.Contains(t, ids, id)
}
