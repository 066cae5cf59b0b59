package localdir

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPutGetDelete(t *testing.T) {
	ctx := context.Background()
	b, err := New(t.TempDir())
	require.NoError(t, err)

	key := "t1/eng/ab/abcdef"
	data := []byte("hello world")

	require.NoError(t, b.Put(ctx, key, bytes.NewReader(data), int64(len(data))))

	exists, err := b.Exists(ctx, key)
	require.NoError(t, err)
	assert.True(t, exists)

	got, err := b.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, data, got)

	rc, size, err := b.GetStream(ctx, key)
	require.NoError(t, err)
	defer rc.Close()
	assert.Equal(t, uint64(len(data)), size)
	streamed, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, data, streamed)

	require.NoError(t, b.Delete(ctx, key))
	exists, err = b.Exists(ctx, key)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestResolveRejectsTraversal(t *testing.T) {
	b, err := New(t.TempDir())
	require.NoError(t, err)

	_, err = b.resolve("../../etc/passwd")
	assert.Error(t, err)
}

func TestPresignedURLsUnsupported(t *testing.T) {
	b, err := New(t.TempDir())
	require.NoError(t, err)
	assert.False(t, b.SupportsPresignedURLs())

	url, err := b.PresignGet(context.Background(), "k", 0)
	require.NoError(t, err)
	assert.Empty(t, url)
}

func TestHealthcheck(t *testing.T) {
	b, err := New(t.TempDir())
	require.NoError(t, err)
	_, err = b.Healthcheck(context.Background())
	assert.NoError(t, err)
}
