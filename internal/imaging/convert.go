package imaging

import (
	"bytes"
	"image"
	_ "image/gif"
	"image/jpeg"
	"image/png"

	apperrors "stdapi-go/internal/errors"
)

const jpegQuality = 95

// NormalizeFormat folds format aliases to the canonical encoder name.
func NormalizeFormat(format string) string {
	if format == "jpg" {
		return "jpeg"
	}
	return format
}

// Convert re-encodes generated image bytes into the requested container.
// Bytes already in the requested format pass through untouched. The provider
// may emit png, jpeg or gif; output is png or jpeg.
func Convert(data []byte, requested string) ([]byte, error) {
	requested = NormalizeFormat(requested)
	if requested != "png" && requested != "jpeg" {
		return nil, apperrors.NewInvalidRequestf(
			"Invalid output format '%s'; supported formats: png, jpeg.", requested)
	}

	img, native, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, apperrors.NewUpstream("Provider returned an undecodable image")
	}
	if native == requested {
		return data, nil
	}

	var buf bytes.Buffer
	switch requested {
	case "png":
		err = png.Encode(&buf, img)
	case "jpeg":
		err = jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality})
	}
	if err != nil {
		return nil, apperrors.NewUpstream("Failed to encode image output")
	}
	return buf.Bytes(), nil
}
