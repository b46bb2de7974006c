package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/mongodb"
)

type wishlistEntry struct {
	ProductID int    `json:"productId"`
	Name      string `json:"productName"`
}

// exerciseStore runs the behaviour every backend must share.
func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	_, err := s.Get(ctx, KeyCart)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Set(ctx, KeyAuthToken, []byte("token-1")))
	got, err := s.Get(ctx, KeyAuthToken)
	require.NoError(t, err)
	assert.Equal(t, "token-1", string(got))

	require.NoError(t, s.Set(ctx, KeyAuthToken, []byte("token-2")))
	got, err = s.Get(ctx, KeyAuthToken)
	require.NoError(t, err)
	assert.Equal(t, "token-2", string(got))

	items := []wishlistEntry{{ProductID: 3, Name: "Lamp"}}
	require.NoError(t, SetJSON(ctx, s, KeyWishlist, items))
	var decoded []wishlistEntry
	require.NoError(t, GetJSON(ctx, s, KeyWishlist, &decoded))
	assert.Equal(t, items, decoded)

	require.NoError(t, s.Delete(ctx, KeyAuthToken))
	_, err = s.Get(ctx, KeyAuthToken)
	assert.ErrorIs(t, err, ErrNotFound)

	// deleting a missing key is not an error
	assert.NoError(t, s.Delete(ctx, "missing"))
}

func TestMemoryStore(t *testing.T) {
	s := NewMemoryStore()
	defer s.Close()
	exerciseStore(t, s)
}

func TestMemoryStore_CopiesValues(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	value := []byte("abc")
	require.NoError(t, s.Set(ctx, "k", value))
	value[0] = 'x'

	got, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(got))
}

func TestGetJSON_InvalidJSON(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, s.Set(ctx, KeyCart, []byte("{not json")))

	var lines []wishlistEntry
	err := GetJSON(ctx, s, KeyCart, &lines)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestSQLiteStore(t *testing.T) {
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "state.db"), "test")
	require.NoError(t, err)
	defer s.Close()
	exerciseStore(t, s)
}

func TestSQLiteStore_SurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.db")
	ctx := context.Background()

	s, err := NewSQLiteStore(path, "alice")
	require.NoError(t, err)
	require.NoError(t, s.Set(ctx, KeyCart, []byte(`[]`)))
	require.NoError(t, s.Close())

	reopened, err := NewSQLiteStore(path, "alice")
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.Get(ctx, KeyCart)
	require.NoError(t, err)
	assert.Equal(t, `[]`, string(got))
}

func TestSQLiteStore_NamespacesIsolated(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.db")
	ctx := context.Background()

	a, err := NewSQLiteStore(path, "alice")
	require.NoError(t, err)
	require.NoError(t, a.Set(ctx, KeyAuthToken, []byte("a")))
	require.NoError(t, a.Close())

	b, err := NewSQLiteStore(path, "bob")
	require.NoError(t, err)
	defer b.Close()

	_, err = b.Get(ctx, KeyAuthToken)
	assert.ErrorIs(t, err, ErrNotFound)
}

func setupTestRedis(t *testing.T, ttl time.Duration) (*RedisStore, *miniredis.Miniredis, func()) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	s := NewRedisStore(client, "test", ttl)

	cleanup := func() {
		client.Close()
		mr.Close()
	}
	return s, mr, cleanup
}

func TestRedisStore(t *testing.T) {
	s, _, cleanup := setupTestRedis(t, 0)
	defer cleanup()
	exerciseStore(t, s)
}

func TestRedisStore_KeyLayout(t *testing.T) {
	s, mr, cleanup := setupTestRedis(t, 0)
	defer cleanup()

	require.NoError(t, s.Set(context.Background(), KeyCart, []byte(`[]`)))
	assert.True(t, mr.Exists("storefront:test:shopping_cart"))
}

func TestRedisStore_TTLWithJitter(t *testing.T) {
	s, mr, cleanup := setupTestRedis(t, time.Hour)
	defer cleanup()

	require.NoError(t, s.Set(context.Background(), KeyCart, []byte(`[]`)))

	ttl := mr.TTL("storefront:test:shopping_cart")
	assert.GreaterOrEqual(t, ttl, time.Hour)
	assert.LessOrEqual(t, ttl, time.Hour+15*time.Minute)

	mr.FastForward(2 * time.Hour)
	_, err := s.Get(context.Background(), KeyCart)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisStore_ServerDown(t *testing.T) {
	s, mr, cleanup := setupTestRedis(t, 0)
	defer cleanup()
	mr.Close()

	_, err := s.Get(context.Background(), KeyCart)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestMongoStore(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	ctx := context.Background()

	mongoContainer, err := mongodb.Run(ctx, "mongo:7")
	require.NoError(t, err)
	defer func() {
		if err := mongoContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	}()

	uri, err := mongoContainer.ConnectionString(ctx)
	require.NoError(t, err)

	db, err := ConnectMongoDB(ctx, uri, "testdb")
	require.NoError(t, err)

	s := NewMongoStore(db, "test")
	require.NoError(t, s.CreateIndexes(ctx))
	defer s.Close()

	exerciseStore(t, s)
}
