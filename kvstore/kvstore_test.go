package kvstore

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/go-sif/sifkit"
	"github.com/go-sif/sifkit/coder"
	serrors "github.com/go-sif/sifkit/errors"
)

func createTestStore(t *testing.T) *Store {
	store, err := CreateStore(t.TempDir(), coder.Create())
	require.Nil(t, err)
	t.Cleanup(func() {
		require.Nil(t, store.Close())
	})
	return store
}

func TestPutAndGet(t *testing.T) {
	store := createTestStore(t)
	require.Nil(t, store.Put("greeting", "hello"))
	require.Nil(t, store.Put("account", sifkit.Row{"plan": "team", "seats": int64(8)}))

	v, err := store.Get("greeting")
	require.Nil(t, err)
	require.Equal(t, "hello", v)

	v, err = store.Get("account")
	require.Nil(t, err)
	require.Equal(t, sifkit.Row{"plan": "team", "seats": int64(8)}, v)
}

func TestPutReplaces(t *testing.T) {
	store := createTestStore(t)
	require.Nil(t, store.Put("key", int64(1)))
	require.Nil(t, store.Put("key", int64(2)))
	v, err := store.Get("key")
	require.Nil(t, err)
	require.Equal(t, int64(2), v)
}

func TestPutAll(t *testing.T) {
	store := createTestStore(t)
	kvs := []sifkit.KV{
		{Key: "a", Value: int64(1)},
		{Key: "b", Value: "two"},
		{Key: "c", Value: sifkit.Row{"n": int64(3)}},
	}
	require.Nil(t, store.PutAll(kvs))
	for _, kv := range kvs {
		v, err := store.Get(kv.Key.(string))
		require.Nil(t, err)
		require.Equal(t, kv.Value, v)
	}
}

func TestPutAllRejectsNonStringKeys(t *testing.T) {
	store := createTestStore(t)
	err := store.PutAll([]sifkit.KV{{Key: int64(7), Value: "value"}})
	require.NotNil(t, err)
	require.Contains(t, err.Error(), "must be strings")
}

func TestGetMissingKey(t *testing.T) {
	store := createTestStore(t)
	_, err := store.Get("absent")
	require.IsType(t, serrors.KeyNotFoundError{}, err)
	require.Contains(t, err.Error(), "absent")
}
