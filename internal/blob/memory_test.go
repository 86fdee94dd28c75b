package blob

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func put(t *testing.T, m *Memory, key, body string) {
	t.Helper()
	require.NoError(t, m.Put(context.Background(), key, strings.NewReader(body), int64(len(body)), "image/jpeg"))
}

func read(t *testing.T, obj *Object) string {
	t.Helper()
	require.NotNil(t, obj)
	require.NotNil(t, obj.Body)
	defer obj.Body.Close()
	b, err := io.ReadAll(obj.Body)
	require.NoError(t, err)
	return string(b)
}

func TestImageKey(t *testing.T) {
	assert.Equal(t, "lobby1/img1.jpeg", ImageKey("lobby1", "img1"))
	assert.True(t, strings.HasPrefix(ImageKey("lobby1", "img1"), LobbyPrefix("lobby1")))
}

func TestMemoryGetMissing(t *testing.T) {
	obj, err := NewMemory().Get(context.Background(), "nope", GetOptions{})
	require.NoError(t, err)
	assert.Nil(t, obj)
}

func TestMemoryConditional(t *testing.T) {
	m := NewMemory()
	put(t, m, "l/a.jpeg", "hello world")
	ctx := context.Background()

	obj, err := m.Get(ctx, "l/a.jpeg", GetOptions{})
	require.NoError(t, err)
	etag := obj.ETag
	assert.Equal(t, "hello world", read(t, obj))

	obj, err = m.Get(ctx, "l/a.jpeg", GetOptions{IfNoneMatch: etag})
	require.NoError(t, err)
	assert.True(t, obj.NotModified)
	assert.Nil(t, obj.Body)

	obj, err = m.Get(ctx, "l/a.jpeg", GetOptions{IfMatch: `"other"`})
	require.NoError(t, err)
	assert.True(t, obj.PreconditionFailed)

	obj, err = m.Get(ctx, "l/a.jpeg", GetOptions{IfMatch: etag})
	require.NoError(t, err)
	assert.Equal(t, "hello world", read(t, obj))

	future := time.Now().Add(time.Hour)
	obj, err = m.Get(ctx, "l/a.jpeg", GetOptions{IfModifiedSince: &future})
	require.NoError(t, err)
	assert.True(t, obj.NotModified)
}

func TestMemoryRange(t *testing.T) {
	m := NewMemory()
	put(t, m, "k", "0123456789")
	ctx := context.Background()

	cases := map[string]string{
		"bytes=0-3":  "0123",
		"bytes=7-":   "789",
		"bytes=-2":   "89",
		"bytes=5-99": "56789",
		"bytes=x-1":  "0123456789",
		"items=0-1":  "0123456789",
	}
	for header, want := range cases {
		obj, err := m.Get(ctx, "k", GetOptions{Range: header})
		require.NoError(t, err)
		assert.Equal(t, want, read(t, obj), header)
	}
}

func TestMemoryListAndDelete(t *testing.T) {
	m := NewMemory()
	put(t, m, "l1/a.jpeg", "a")
	put(t, m, "l1/b.jpeg", "b")
	put(t, m, "l10/c.jpeg", "c")
	ctx := context.Background()

	keys, err := m.List(ctx, LobbyPrefix("l1"))
	require.NoError(t, err)
	assert.Equal(t, []string{"l1/a.jpeg", "l1/b.jpeg"}, keys)

	require.NoError(t, m.Delete(ctx, "l1/a.jpeg"))
	keys, err = m.List(ctx, LobbyPrefix("l1"))
	require.NoError(t, err)
	assert.Equal(t, []string{"l1/b.jpeg"}, keys)
}
