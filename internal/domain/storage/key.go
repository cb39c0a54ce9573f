package storage

import (
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
)

// NewKey builds <area>/<prefix><unix-millis>-<token><ext>. The random token keeps
// names unique when two requests land in the same millisecond.
func NewKey(area, prefix, ext string, now time.Time) string {
	token := strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	return path.Join(area, fmt.Sprintf("%s%d-%s%s", prefix, now.UnixMilli(), token, ext))
}

// Name returns the file name part of a key.
func Name(key string) string {
	return path.Base(key)
}

// ExtensionFor maps an image MIME type to a file extension.
func ExtensionFor(mimeType string) string {
	switch strings.ToLower(mimeType) {
	case "image/jpeg", "image/jpg", "image/pjpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	case "image/bmp":
		return ".bmp"
	case "image/heic":
		return ".heic"
	default:
		return ".img"
	}
}
