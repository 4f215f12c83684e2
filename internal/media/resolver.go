package media

import (
	"context"
	"encoding/base64"
	"fmt"
	"path"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	apperrors "stdapi-go/internal/errors"
	"stdapi-go/internal/objstore"
)

// Kind classifies a resolved input item.
type Kind string

const (
	KindText  Kind = "text"
	KindImage Kind = "image"
	KindVideo Kind = "video"
	KindAudio Kind = "audio"
)

// InlineLimit is the maximum payload the provider body accepts inline.
// Anything larger is offloaded to the object store and passed by reference.
const InlineLimit = 24_990_000

// Resolved is one input item after classification and decoding. Media is
// either inline (Data set) or referenced (Ref set), never both.
type Resolved struct {
	Index  int
	Kind   Kind
	Text   string
	Data   []byte
	MIME   string
	Format string
	Ref    string
	Size   int
}

// Inline reports whether media bytes travel in the provider body.
func (r *Resolved) Inline() bool {
	return r.Kind != KindText && r.Ref == ""
}

// Resolver decodes input items and applies the inline-vs-offload policy.
type Resolver struct {
	store       objstore.Store
	inlineLimit int
}

func NewResolver(store objstore.Store) *Resolver {
	return &Resolver{store: store, inlineLimit: InlineLimit}
}

// NewResolverWithLimit is used in tests to exercise the offload path
// without multi-megabyte fixtures.
func NewResolverWithLimit(store objstore.Store, limit int) *Resolver {
	return &Resolver{store: store, inlineLimit: limit}
}

// Resolve classifies a single input value. Plain strings become text items;
// data URIs and object references become media. forceOffload pushes decoded
// media to the object store regardless of size.
func (r *Resolver) Resolve(ctx context.Context, index int, value string, forceOffload bool) (*Resolved, error) {
	if ref := strings.TrimSpace(value); strings.HasPrefix(ref, "s3://") {
		return r.resolveReference(index, ref)
	}
	if strings.HasPrefix(value, "data:") {
		return r.resolveDataURI(ctx, index, value, forceOffload)
	}
	return &Resolved{Index: index, Kind: KindText, Text: value, Size: len(value)}, nil
}

// ResolveMedia resolves a value that must be media (image list entries).
// Bare base64 without a data-URI wrapper is accepted here.
func (r *Resolver) ResolveMedia(ctx context.Context, index int, value string, forceOffload bool) (*Resolved, error) {
	if ref := strings.TrimSpace(value); strings.HasPrefix(ref, "s3://") {
		return r.resolveReference(index, ref)
	}
	if strings.HasPrefix(value, "data:") {
		return r.resolveDataURI(ctx, index, value, forceOffload)
	}
	data, err := base64.StdEncoding.DecodeString(strings.TrimSpace(value))
	if err != nil {
		return nil, apperrors.NewInvalidRequestf("Invalid media payload at index %d: not valid base64", index)
	}
	return r.finishMedia(ctx, index, data, forceOffload)
}

func (r *Resolver) resolveDataURI(ctx context.Context, index int, value string, forceOffload bool) (*Resolved, error) {
	comma := strings.IndexByte(value, ',')
	if comma < 0 {
		return nil, apperrors.NewInvalidRequestf("Invalid data URI at index %d", index)
	}
	header := value[len("data:"):comma]
	payload := value[comma+1:]
	if !strings.Contains(header, "base64") {
		return nil, apperrors.NewInvalidRequestf("Invalid data URI at index %d: only base64 encoding is supported", index)
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, apperrors.NewInvalidRequestf("Invalid data URI at index %d: corrupt base64 payload", index)
	}
	return r.finishMedia(ctx, index, data, forceOffload)
}

func (r *Resolver) finishMedia(ctx context.Context, index int, data []byte, forceOffload bool) (*Resolved, error) {
	if len(data) == 0 {
		return nil, apperrors.NewInvalidRequestf("Empty media payload at index %d", index)
	}

	// Content type comes from the bytes, not the declared header.
	mtype := mimetype.Detect(data)
	mime := mtype.String()
	if semi := strings.IndexByte(mime, ';'); semi >= 0 {
		mime = mime[:semi]
	}
	kind := kindForMIME(mime)
	if kind == KindText {
		return nil, apperrors.NewInvalidRequestf("Unsupported media payload at index %d: detected %s", index, mime)
	}

	resolved := &Resolved{
		Index:  index,
		Kind:   kind,
		MIME:   mime,
		Format: formatForMIME(mime),
		Size:   len(data),
	}

	if forceOffload || len(data) > r.inlineLimit {
		ext := mtype.Extension()
		if ext == "" {
			ext = ".bin"
		}
		ref, err := r.store.Put(ctx, "media/"+uuid.NewString()+ext, data, mime)
		if err != nil {
			return nil, fmt.Errorf("failed to offload media at index %d: %w", index, err)
		}
		resolved.Ref = ref
		return resolved, nil
	}

	resolved.Data = data
	return resolved, nil
}

func (r *Resolver) resolveReference(index int, ref string) (*Resolved, error) {
	if _, _, err := objstore.ParseRef(ref); err != nil {
		return nil, apperrors.NewInvalidRequestf("Invalid object reference at index %d", index)
	}
	mime, format := guessByExtension(ref)
	kind := kindForMIME(mime)
	if kind == KindText {
		return nil, apperrors.NewInvalidRequestf("Cannot determine media type of reference at index %d", index)
	}
	return &Resolved{
		Index:  index,
		Kind:   kind,
		MIME:   mime,
		Format: format,
		Ref:    ref,
	}, nil
}

// Fetch reads back offloaded media bytes. Adapters whose provider cannot
// accept references use this to re-inline stored payloads.
func (r *Resolver) Fetch(ctx context.Context, ref string) ([]byte, error) {
	data, _, err := r.store.Get(ctx, ref)
	return data, err
}

// Offload stores already-decoded bytes and returns the reference. Adapters
// use this for provider-specific thresholds (e.g. long text documents).
func (r *Resolver) Offload(ctx context.Context, data []byte, mime, ext string) (string, error) {
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return r.store.Put(ctx, "media/"+uuid.NewString()+ext, data, mime)
}

func kindForMIME(mime string) Kind {
	switch {
	case strings.HasPrefix(mime, "image/"):
		return KindImage
	case strings.HasPrefix(mime, "video/"):
		return KindVideo
	case strings.HasPrefix(mime, "audio/"):
		return KindAudio
	default:
		return KindText
	}
}

func formatForMIME(mime string) string {
	slash := strings.IndexByte(mime, '/')
	if slash < 0 {
		return ""
	}
	format := mime[slash+1:]
	switch format {
	case "jpg":
		return "jpeg"
	case "quicktime":
		return "mov"
	case "x-wav", "wave":
		return "wav"
	case "mpeg":
		if strings.HasPrefix(mime, "audio/") {
			return "mp3"
		}
		return format
	}
	return format
}

var extensionMIME = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".gif":  "image/gif",
	".webp": "image/webp",
	".mp4":  "video/mp4",
	".webm": "video/webm",
	".mov":  "video/quicktime",
	".mkv":  "video/x-matroska",
	".wav":  "audio/wav",
	".mp3":  "audio/mpeg",
	".flac": "audio/flac",
	".ogg":  "audio/ogg",
	".m4a":  "audio/mp4",
}

func guessByExtension(ref string) (mime, format string) {
	ext := strings.ToLower(path.Ext(ref))
	mime, ok := extensionMIME[ext]
	if !ok {
		return "", ""
	}
	return mime, formatForMIME(mime)
}
