package uploader

import (
	"bytes"
	"image"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"

	"materialapi/internal/model"
)

// probeDimensions decodes the image header to recover width and height.
// Non-image files and undecodable payloads yield (0, 0); a probe failure
// never blocks the upload chain.
func probeDimensions(category model.Category, data []byte) (int, int) {
	if category != model.CategoryImage || len(data) == 0 {
		return 0, 0
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0
	}
	return cfg.Width, cfg.Height
}
