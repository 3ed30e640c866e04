package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBadgerBackendPersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	backend, err := OpenBadger(dir)
	require.NoError(t, err)
	require.NoError(t, backend.Put(ctx, "news:1", []byte(`{"title":"hello"}`)))
	require.NoError(t, backend.Close())

	reopened, err := OpenBadger(dir)
	require.NoError(t, err)
	defer reopened.Close()

	value, err := reopened.Get(ctx, "news:1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"title":"hello"}`, string(value))
}

func TestBadgerBackendKeysByPrefix(t *testing.T) {
	backend := newMemoryBadgerBackend(t)
	ctx := context.Background()
	require.NoError(t, backend.Put(ctx, "works:1", []byte(`{}`)))
	require.NoError(t, backend.Put(ctx, "works:2", []byte(`{}`)))
	require.NoError(t, backend.Put(ctx, "workshop:1", []byte(`{}`)))

	keys, err := backend.Keys(ctx, "works:")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"works:1", "works:2"}, keys)
}

func TestBadgerBackendPingAfterClose(t *testing.T) {
	backend, err := OpenBadger(InMemoryDir)
	require.NoError(t, err)
	require.NoError(t, backend.Ping(context.Background()))
	require.NoError(t, backend.Close())
	assert.Error(t, backend.Ping(context.Background()))
}
