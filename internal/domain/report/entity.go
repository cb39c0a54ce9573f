package report

import "errors"

// FitPolicy decides how an image is placed in the fixed bounding box.
type FitPolicy string

const (
	// FitContain scales the image preserving its aspect ratio and centres it in the box.
	FitContain FitPolicy = "contain"
	// FitStretch forces the image into the full box.
	FitStretch FitPolicy = "stretch"
)

// Valid reports whether p is a known policy.
func (p FitPolicy) Valid() bool {
	return p == FitContain || p == FitStretch
}

// Document is what ends up in the generated PDF, top to bottom.
type Document struct {
	Title string
	Image []byte // optional
	Body  string
}

var (
	ErrEmptyBody = errors.New("result text is required")
	// ErrInvalidDataURI rejects the request before anything is rendered.
	ErrInvalidDataURI = errors.New("image must be a base64 image data uri")
	// ErrInvalidImage means the payload decoded but is not an image the renderer can embed.
	ErrInvalidImage = errors.New("image could not be decoded")
)
