package processor

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"strings"

	"resize-orchestrator/internal/domain"

	"github.com/gabriel-vasile/mimetype"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

var (
	ErrEmptyImage        = errors.New("empty image data")
	ErrUnsupportedFormat = errors.New("unsupported image format")
)

// Inspect sniffs the content type of data and decodes the image header. Only
// the header is parsed, pixel data is never decoded. The returned content
// type is the sniffed one and always carries the image/ prefix.
func Inspect(data []byte) (domain.AssetMetadata, string, error) {
	if len(data) == 0 {
		return domain.AssetMetadata{}, "", ErrEmptyImage
	}

	mime := mimetype.Detect(data)
	if !strings.HasPrefix(mime.String(), "image/") {
		return domain.AssetMetadata{}, mime.String(), fmt.Errorf("%w: %s", ErrUnsupportedFormat, mime.String())
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return domain.AssetMetadata{}, mime.String(), fmt.Errorf("%w: failed to decode header: %v", ErrUnsupportedFormat, err)
	}

	return domain.AssetMetadata{
		Width:  cfg.Width,
		Height: cfg.Height,
		Size:   int64(len(data)),
		Format: format,
	}, mime.String(), nil
}
