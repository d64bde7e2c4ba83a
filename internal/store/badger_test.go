package store

import (
	"context"
	"strings"
	"testing"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupLocal(t *testing.T) *Local {
	opts := badger.DefaultOptions("").WithInMemory(true)
	opts.Logger = nil // Disable logging for tests

	db, err := badger.Open(opts)
	require.NoError(t, err)

	local, err := NewLocal(db)
	require.NoError(t, err)

	t.Cleanup(func() {
		local.Close()
		db.Close()
	})
	return local
}

func TestLocalRoundTrip(t *testing.T) {
	local := setupLocal(t)
	ctx := context.Background()

	err := local.Store(ctx, "p1", "source/a.tsx", "text/typescript", []byte("hi"))
	require.NoError(t, err)

	content, mimeType, err := local.Get(ctx, "p1", "source/a.tsx")
	require.NoError(t, err)
	assert.Equal(t, "hi", string(content))
	assert.Equal(t, "text/typescript", mimeType)
}

func TestLocalCompressesLargeValues(t *testing.T) {
	local := setupLocal(t)
	ctx := context.Background()

	// Well above the compression threshold.
	big := strings.Repeat("const answer = 42;\n", 500)
	err := local.Store(ctx, "p1", "source/big.ts", "text/typescript", []byte(big))
	require.NoError(t, err)

	content, _, err := local.Get(ctx, "p1", "source/big.ts")
	require.NoError(t, err)
	assert.Equal(t, big, string(content))
}

func TestLocalGetMissing(t *testing.T) {
	local := setupLocal(t)

	_, _, err := local.Get(context.Background(), "p1", "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLocalListByPrefix(t *testing.T) {
	local := setupLocal(t)
	ctx := context.Background()

	require.NoError(t, local.Store(ctx, "p1", "source/a.tsx", "text/typescript", []byte("a")))
	require.NoError(t, local.Store(ctx, "p1", "source/b.css", "text/css", []byte("b")))
	require.NoError(t, local.Store(ctx, "p1", "compiled/index.html", "text/html", []byte("c")))
	require.NoError(t, local.Store(ctx, "p2", "source/other.ts", "text/typescript", []byte("d")))

	entries, err := local.List(ctx, "p1", "source/")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "source/a.tsx", entries[0].Key)
	assert.Equal(t, "text/typescript", entries[0].MimeType)
	assert.Equal(t, "source/b.css", entries[1].Key)

	// Projects do not bleed into each other.
	entries, err = local.List(ctx, "p2", "")
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestLocalDelete(t *testing.T) {
	local := setupLocal(t)
	ctx := context.Background()

	require.NoError(t, local.Store(ctx, "p1", "source/a.tsx", "text/typescript", []byte("a")))
	require.NoError(t, local.Delete(ctx, "p1", "source/a.tsx"))

	_, _, err := local.Get(ctx, "p1", "source/a.tsx")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, local.Delete(ctx, "p1", "source/a.tsx"), ErrNotFound)
}
