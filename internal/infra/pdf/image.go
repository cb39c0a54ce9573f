package pdf

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

// embeddable is an image ready for fpdf: JPEG as uploaded, everything else
// re-encoded to 8-bit non-interlaced PNG (fpdf rejects interlaced and 16-bit PNGs).
type embeddable struct {
	data   []byte
	kind   string // fpdf image type: JPG or PNG
	width  int
	height int
}

func normalizeImage(data []byte) (*embeddable, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding image header: %w", err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("image has no pixels (%dx%d)", cfg.Width, cfg.Height)
	}

	if format == "jpeg" {
		return &embeddable{data: data, kind: "JPG", width: cfg.Width, height: cfg.Height}, nil
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", format, err)
	}
	b := img.Bounds()
	rgba := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)

	var buf bytes.Buffer
	if err := png.Encode(&buf, rgba); err != nil {
		return nil, fmt.Errorf("encoding png: %w", err)
	}
	return &embeddable{data: buf.Bytes(), kind: "PNG", width: b.Dx(), height: b.Dy()}, nil
}
