package media

import (
	"context"
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/require"

	apperrors "stdapi-go/internal/errors"
	"stdapi-go/internal/objstore"
)

var pngBytes = []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A, 0, 0, 0, 0}

var wavBytes = append([]byte("RIFF"), append([]byte{0x24, 0, 0, 0}, []byte("WAVEfmt ")...)...)

var mp4Bytes = []byte{
	0, 0, 0, 0x18, 'f', 't', 'y', 'p', 'i', 's', 'o', 'm',
	0, 0, 2, 0, 'i', 's', 'o', 'm', 'i', 's', 'o', '2',
}

func newTestResolver() (*Resolver, *objstore.MemoryStore) {
	store := objstore.NewMemoryStore("test-bucket")
	return NewResolver(store), store
}

func dataURI(mime string, data []byte) string {
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
}

func TestResolvePlainText(t *testing.T) {
	r, _ := newTestResolver()

	res, err := r.Resolve(context.Background(), 0, "hello world", false)
	require.NoError(t, err)
	require.Equal(t, KindText, res.Kind)
	require.Equal(t, "hello world", res.Text)
	require.False(t, res.Inline())
}

func TestResolveImageDataURI(t *testing.T) {
	r, _ := newTestResolver()

	res, err := r.Resolve(context.Background(), 2, dataURI("image/png", pngBytes), false)
	require.NoError(t, err)
	require.Equal(t, 2, res.Index)
	require.Equal(t, KindImage, res.Kind)
	require.Equal(t, "image/png", res.MIME)
	require.Equal(t, "png", res.Format)
	require.Equal(t, pngBytes, res.Data)
	require.True(t, res.Inline())
}

func TestResolveSniffsBytesNotHeader(t *testing.T) {
	r, _ := newTestResolver()

	// Declared as JPEG, actually PNG. The bytes win.
	res, err := r.Resolve(context.Background(), 0, dataURI("image/jpeg", pngBytes), false)
	require.NoError(t, err)
	require.Equal(t, "image/png", res.MIME)
}

func TestResolveAudioAndVideo(t *testing.T) {
	r, _ := newTestResolver()

	res, err := r.Resolve(context.Background(), 0, dataURI("audio/wav", wavBytes), false)
	require.NoError(t, err)
	require.Equal(t, KindAudio, res.Kind)
	require.Equal(t, "wav", res.Format)

	res, err = r.Resolve(context.Background(), 1, dataURI("video/mp4", mp4Bytes), false)
	require.NoError(t, err)
	require.Equal(t, KindVideo, res.Kind)
	require.Equal(t, "mp4", res.Format)
}

func TestResolveCorruptDataURI(t *testing.T) {
	r, _ := newTestResolver()

	_, err := r.Resolve(context.Background(), 3, "data:image/png;base64,!!!not-base64!!!", false)
	var apiErr *apperrors.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, 400, apiErr.HTTPStatus)
	require.Contains(t, apiErr.Message, "index 3")
}

func TestResolveForceOffload(t *testing.T) {
	r, store := newTestResolver()

	res, err := r.Resolve(context.Background(), 0, dataURI("image/png", pngBytes), true)
	require.NoError(t, err)
	require.Empty(t, res.Data)
	require.Contains(t, res.Ref, "s3://test-bucket/media/")
	require.False(t, res.Inline())

	data, contentType, err := store.Get(context.Background(), res.Ref)
	require.NoError(t, err)
	require.Equal(t, pngBytes, data)
	require.Equal(t, "image/png", contentType)
}

func TestResolveOffloadOverLimit(t *testing.T) {
	store := objstore.NewMemoryStore("test-bucket")
	r := NewResolverWithLimit(store, 4)

	res, err := r.Resolve(context.Background(), 0, dataURI("image/png", pngBytes), false)
	require.NoError(t, err)
	require.NotEmpty(t, res.Ref)
	require.Equal(t, len(pngBytes), res.Size)
}

func TestResolveReferencePassthrough(t *testing.T) {
	r, _ := newTestResolver()

	res, err := r.Resolve(context.Background(), 0, "s3://media-bucket/videos/clip.mp4", false)
	require.NoError(t, err)
	require.Equal(t, KindVideo, res.Kind)
	require.Equal(t, "mp4", res.Format)
	require.Equal(t, "s3://media-bucket/videos/clip.mp4", res.Ref)
	require.Empty(t, res.Data)
}

func TestResolveReferenceUnknownExtension(t *testing.T) {
	r, _ := newTestResolver()

	_, err := r.Resolve(context.Background(), 5, "s3://media-bucket/blob.xyz", false)
	var apiErr *apperrors.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, 400, apiErr.HTTPStatus)
}

func TestResolveMediaBareBase64(t *testing.T) {
	r, _ := newTestResolver()

	res, err := r.ResolveMedia(context.Background(), 0, base64.StdEncoding.EncodeToString(pngBytes), false)
	require.NoError(t, err)
	require.Equal(t, KindImage, res.Kind)

	_, err = r.ResolveMedia(context.Background(), 1, "definitely not base64 content", false)
	var apiErr *apperrors.APIError
	require.ErrorAs(t, err, &apiErr)
}

func TestResolveMediaRejectsText(t *testing.T) {
	r, _ := newTestResolver()

	_, err := r.ResolveMedia(context.Background(), 0, base64.StdEncoding.EncodeToString([]byte("just words")), false)
	var apiErr *apperrors.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, 400, apiErr.HTTPStatus)
}
