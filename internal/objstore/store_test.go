package objstore

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func TestParseRef(t *testing.T) {
	bucket, key, err := ParseRef("s3://my-bucket/media/abc.png")
	require.NoError(t, err)
	require.Equal(t, "my-bucket", bucket)
	require.Equal(t, "media/abc.png", key)

	for _, bad := range []string{"", "http://b/k", "s3://", "s3://bucket", "s3://bucket/"} {
		_, _, err := ParseRef(bad)
		require.Error(t, err, "ref %q should be rejected", bad)
	}
}

func roundTrip(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()

	ref, err := store.Put(ctx, "media/test.png", []byte{0x89, 'P', 'N', 'G'}, "image/png")
	require.NoError(t, err)
	require.Contains(t, ref, "s3://")

	data, contentType, err := store.Get(ctx, ref)
	require.NoError(t, err)
	require.Equal(t, []byte{0x89, 'P', 'N', 'G'}, data)
	require.Equal(t, "image/png", contentType)

	require.NoError(t, store.Delete(ctx, ref))
	_, _, err = store.Get(ctx, ref)
	var notFound *ErrNotFound
	require.ErrorAs(t, err, &notFound)

	// Deleting again is a no-op.
	require.NoError(t, store.Delete(ctx, ref))
	require.NoError(t, store.Health(ctx))
}

func TestMemoryStore(t *testing.T) {
	roundTrip(t, NewMemoryStore("test-bucket"))
}

func TestMemoryStoreCopiesData(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore("test-bucket")

	payload := []byte("abc")
	ref, err := store.Put(ctx, "k", payload, "text/plain")
	require.NoError(t, err)
	payload[0] = 'z'

	data, _, err := store.Get(ctx, ref)
	require.NoError(t, err)
	require.Equal(t, []byte("abc"), data)
}

func TestFileStore(t *testing.T) {
	store, err := NewFileStore(t.TempDir(), "test-bucket")
	require.NoError(t, err)
	roundTrip(t, store)
}

func TestFileStoreRejectsTraversal(t *testing.T) {
	store, err := NewFileStore(t.TempDir(), "test-bucket")
	require.NoError(t, err)

	_, err = store.Put(context.Background(), "../escape", []byte("x"), "text/plain")
	require.Error(t, err)
}

func TestRedisStore(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewRedisStoreWithClient(client, "stdapi:", "test-bucket")
	roundTrip(t, store)
}

func TestRedisStoreBinarySafe(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewRedisStoreWithClient(client, "stdapi:", "test-bucket")

	payload := []byte{0x00, 0xff, 0x10, 0x00, 0x7f}
	ref, err := store.Put(context.Background(), "bin", payload, "application/octet-stream")
	require.NoError(t, err)

	data, contentType, err := store.Get(context.Background(), ref)
	require.NoError(t, err)
	require.Equal(t, payload, data)
	require.Equal(t, "application/octet-stream", contentType)
}
