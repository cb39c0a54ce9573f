package ai

import (
	"encoding/base64"
	"fmt"
	"regexp"
	"strings"
)

// Image is an uploaded picture handed to the model.
type Image struct {
	Data     []byte
	MimeType string
}

// Base64 returns the standard base64 encoding of the image bytes.
func (i Image) Base64() string {
	return base64.StdEncoding.EncodeToString(i.Data)
}

// DataURI returns data:<mime>;base64,<data>.
func (i Image) DataURI() string {
	return DataURI(i.MimeType, i.Base64())
}

func DataURI(mimeType, encoded string) string {
	return "data:" + mimeType + ";base64," + encoded
}

var imageDataURIPrefix = regexp.MustCompile(`^data:image/[\w.+-]+;base64,`)

// ParseDataURI strips the image data URI header and decodes the payload.
func ParseDataURI(uri string) ([]byte, error) {
	uri = strings.TrimSpace(uri)
	loc := imageDataURIPrefix.FindStringIndex(uri)
	if loc == nil {
		return nil, fmt.Errorf("%w: missing data:image/<type>;base64, header", ErrInvalidDataURI)
	}
	data, err := base64.StdEncoding.DecodeString(uri[loc[1]:])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDataURI, err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty payload", ErrInvalidDataURI)
	}
	return data, nil
}
