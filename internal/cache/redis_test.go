package cache

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestRedis creates a mock Redis server for testing
func setupTestRedis(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	mr, err := miniredis.Run()
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})

	store := NewRedisStore(client)

	t.Cleanup(func() {
		client.Close()
		mr.Close()
	})

	return store, mr
}

func TestRedisStore_PutAndGet(t *testing.T) {
	store, _ := setupTestRedis(t)

	require.NoError(t, store.Put("url|abc", []byte("B00TESTID1"), time.Hour))

	v, err := store.Get("url|abc")
	require.NoError(t, err)
	assert.Equal(t, []byte("B00TESTID1"), v)
}

func TestRedisStore_GetNotFound(t *testing.T) {
	store, _ := setupTestRedis(t)

	_, err := store.Get("nonexistent")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisStore_Expiration(t *testing.T) {
	store, mr := setupTestRedis(t)

	require.NoError(t, store.Put("product|B00TESTID1", []byte("{}"), 100*time.Millisecond))

	// Fast-forward time in miniredis
	mr.FastForward(150 * time.Millisecond)

	_, err := store.Get("product|B00TESTID1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisStore_Delete(t *testing.T) {
	store, _ := setupTestRedis(t)

	require.NoError(t, store.Put("url|abc", []byte("x"), time.Hour))
	require.NoError(t, store.Delete("url|abc"))

	_, err := store.Get("url|abc")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisStore_DeletePrefix(t *testing.T) {
	store, _ := setupTestRedis(t)

	require.NoError(t, store.Put(NamespaceURL+"a", []byte("1"), time.Hour))
	require.NoError(t, store.Put(NamespaceURL+"b", []byte("2"), time.Hour))
	require.NoError(t, store.Put(NamespaceProduct+"B00TESTID1", []byte("3"), time.Hour))

	n, err := store.DeletePrefix(NamespaceURL)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	_, err = store.Get(NamespaceURL + "a")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = store.Get(NamespaceProduct + "B00TESTID1")
	assert.NoError(t, err)
}

func TestRedisStore_ClearAll(t *testing.T) {
	store, _ := setupTestRedis(t)

	keys := []string{
		NamespaceURL + "h1",
		NamespaceProduct + "B00TESTID1",
		NamespaceSearch + "usb charger",
	}
	for _, k := range keys {
		require.NoError(t, store.Put(k, []byte("v"), time.Hour))
	}

	n, err := ClearAll(store)
	require.NoError(t, err)
	assert.Equal(t, len(keys), n)

	for _, k := range keys {
		_, err := store.Get(k)
		assert.ErrorIs(t, err, ErrNotFound, k)
	}
}
