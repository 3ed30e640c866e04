package store

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"atelier/api/internal/keycodec"
)

type backendFactory func(t *testing.T) Backend

func newMiniredisBackend(t *testing.T) Backend {
	t.Helper()
	s := miniredis.RunT(t)
	backend, err := NewRedisBackend("redis://"+s.Addr(), "")
	require.NoError(t, err)
	t.Cleanup(func() { _ = backend.Close() })
	return backend
}

func newMemoryBadgerBackend(t *testing.T) Backend {
	t.Helper()
	backend, err := OpenBadger(InMemoryDir)
	require.NoError(t, err)
	t.Cleanup(func() { _ = backend.Close() })
	return backend
}

func TestContentStoreRedis(t *testing.T) {
	runContentStoreSuite(t, newMiniredisBackend)
}

func TestContentStoreBadger(t *testing.T) {
	runContentStoreSuite(t, newMemoryBadgerBackend)
}

func runContentStoreSuite(t *testing.T, newBackend backendFactory) {
	t.Run("get missing is not found", func(t *testing.T) {
		s := NewContentStore(newBackend(t))
		_, err := s.GetItem(context.Background(), "works", "nope")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("put then get carries id", func(t *testing.T) {
		s := NewContentStore(newBackend(t))
		ctx := context.Background()
		require.NoError(t, s.PutItem(ctx, "works", "42", Item{"title": "Demo", "description": "x"}))

		item, err := s.GetItem(ctx, "works", "42")
		require.NoError(t, err)
		assert.Equal(t, Item{"id": "42", "title": "Demo", "description": "x"}, item)
	})

	t.Run("last write wins", func(t *testing.T) {
		s := NewContentStore(newBackend(t))
		ctx := context.Background()
		require.NoError(t, s.PutItem(ctx, "works", "1", Item{"title": "v1", "draft": true}))
		require.NoError(t, s.PutItem(ctx, "works", "1", Item{"title": "v2"}))

		item, err := s.GetItem(ctx, "works", "1")
		require.NoError(t, err)
		assert.Equal(t, "v2", item["title"])
		assert.NotContains(t, item, "draft")
	})

	t.Run("delete is idempotent", func(t *testing.T) {
		s := NewContentStore(newBackend(t))
		ctx := context.Background()
		require.NoError(t, s.PutItem(ctx, "news", "1", Item{"title": "a"}))

		require.NoError(t, s.DeleteItem(ctx, "news", "1"))
		require.NoError(t, s.DeleteItem(ctx, "news", "1"))

		_, err := s.GetItem(ctx, "news", "1")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("list returns exactly live items of the category", func(t *testing.T) {
		s := NewContentStore(newBackend(t))
		ctx := context.Background()
		for _, id := range []string{"1", "2", "3", "a:b"} {
			require.NoError(t, s.PutItem(ctx, "works", id, Item{"title": "w" + id}))
		}
		require.NoError(t, s.PutItem(ctx, "worksheet", "9", Item{"title": "other"}))
		require.NoError(t, s.PutItem(ctx, "news", "1", Item{"title": "n1"}))
		require.NoError(t, s.DeleteItem(ctx, "works", "2"))

		items, err := s.ListByCategory(ctx, "works")
		require.NoError(t, err)

		ids := make([]string, 0, len(items))
		for _, item := range items {
			id, _ := item[IDField].(string)
			ids = append(ids, id)
			assert.Equal(t, "w"+id, item["title"])
		}
		sort.Strings(ids)
		assert.Equal(t, []string{"1", "3", "a:b"}, ids)
	})

	t.Run("list of empty category is empty not nil", func(t *testing.T) {
		s := NewContentStore(newBackend(t))
		items, err := s.ListByCategory(context.Background(), "pricing")
		require.NoError(t, err)
		assert.NotNil(t, items)
		assert.Empty(t, items)
	})

	t.Run("singleton addressing", func(t *testing.T) {
		s := NewContentStore(newBackend(t))
		ctx := context.Background()
		require.NoError(t, s.PutItem(ctx, "pricing", keycodec.SingletonID, Item{"basePrice": 40000}))

		item, err := s.GetItem(ctx, "pricing", keycodec.SingletonID)
		require.NoError(t, err)
		assert.Equal(t, json.Number("40000"), item["basePrice"])
		assert.Equal(t, keycodec.SingletonID, item[IDField])
	})

	t.Run("nested values round trip", func(t *testing.T) {
		s := NewContentStore(newBackend(t))
		ctx := context.Background()
		payload := Item{
			"enabled": false,
			"options": []any{
				map[string]any{"name": "Logo", "price": 5000},
			},
		}
		require.NoError(t, s.PutItem(ctx, "pricing", keycodec.SingletonID, payload))

		item, err := s.GetItem(ctx, "pricing", keycodec.SingletonID)
		require.NoError(t, err)
		assert.Equal(t, false, item["enabled"])
		options, ok := item["options"].([]any)
		require.True(t, ok)
		require.Len(t, options, 1)
		option := options[0].(map[string]any)
		assert.Equal(t, "Logo", option["name"])
		assert.Equal(t, json.Number("5000"), option["price"])
	})

	t.Run("stored id field is overridden by key id", func(t *testing.T) {
		s := NewContentStore(newBackend(t))
		ctx := context.Background()
		require.NoError(t, s.PutItem(ctx, "works", "7", Item{"id": "spoofed", "title": "t"}))

		item, err := s.GetItem(ctx, "works", "7")
		require.NoError(t, err)
		assert.Equal(t, "7", item[IDField])
	})

	t.Run("malformed stored value is a storage error", func(t *testing.T) {
		backend := newBackend(t)
		s := NewContentStore(backend)
		ctx := context.Background()
		if err := backend.Put(ctx, "works:bad", []byte("{not json")); err != nil {
			t.Skipf("backend rejects malformed JSON on write: %v", err)
		}

		_, err := s.GetItem(ctx, "works", "bad")
		var storageErr *StorageError
		require.ErrorAs(t, err, &storageErr)
		assert.Equal(t, "decode", storageErr.Op)

		_, err = s.ListByCategory(ctx, "works")
		assert.ErrorAs(t, err, &storageErr)
	})

	t.Run("invalid category rejected before backend", func(t *testing.T) {
		s := NewContentStore(newBackend(t))
		ctx := context.Background()
		err := s.PutItem(ctx, "works:x", "1", Item{})
		assert.ErrorIs(t, err, keycodec.ErrInvalidCategory)
		_, err = s.ListByCategory(ctx, "")
		assert.ErrorIs(t, err, keycodec.ErrInvalidCategory)
	})
}

type failingBackend struct {
	err error
}

func (f failingBackend) Get(context.Context, string) ([]byte, error)    { return nil, f.err }
func (f failingBackend) Put(context.Context, string, []byte) error      { return f.err }
func (f failingBackend) Delete(context.Context, string) error           { return f.err }
func (f failingBackend) Keys(context.Context, string) ([]string, error) { return nil, f.err }
func (f failingBackend) Ping(context.Context) error                     { return f.err }
func (f failingBackend) Close() error                                   { return nil }

func TestContentStoreWrapsBackendFailures(t *testing.T) {
	cause := errors.New("connection reset")
	s := NewContentStore(failingBackend{err: cause})
	ctx := context.Background()

	_, err := s.GetItem(ctx, "works", "1")
	assert.ErrorIs(t, err, cause)
	assert.NotErrorIs(t, err, ErrNotFound)

	err = s.PutItem(ctx, "works", "1", Item{})
	var storageErr *StorageError
	require.ErrorAs(t, err, &storageErr)
	assert.Equal(t, "put", storageErr.Op)
	assert.Equal(t, "works:1", storageErr.Key)

	assert.ErrorIs(t, s.DeleteItem(ctx, "works", "1"), cause)

	_, err = s.ListByCategory(ctx, "works")
	assert.ErrorIs(t, err, cause)
}

type vanishingBackend struct {
	Backend
	vanished string
}

func (v vanishingBackend) Get(ctx context.Context, key string) ([]byte, error) {
	if key == v.vanished {
		return nil, ErrNotFound
	}
	return v.Backend.Get(ctx, key)
}

func TestListSkipsKeysDeletedMidList(t *testing.T) {
	inner := newMemoryBadgerBackend(t)
	ctx := context.Background()
	require.NoError(t, inner.Put(ctx, "news:1", []byte(`{"title":"kept"}`)))
	require.NoError(t, inner.Put(ctx, "news:2", []byte(`{"title":"gone"}`)))

	s := NewContentStore(vanishingBackend{Backend: inner, vanished: "news:2"})
	items, err := s.ListByCategory(ctx, "news")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "1", items[0][IDField])
}
