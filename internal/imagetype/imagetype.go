// Package imagetype decides whether uploaded bytes are an image.
package imagetype

import (
	"mime"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// Detect returns the media type of data if it is an image. The content is
// sniffed; the declared type is only trusted when sniffing is inconclusive.
func Detect(data []byte, declared string) (string, bool) {
	if len(data) == 0 {
		return "", false
	}
	detected := mimetype.Detect(data)
	if mediaType := base(detected.String()); IsImage(mediaType) {
		return mediaType, true
	}
	if detected.Is("application/octet-stream") {
		if d := base(declared); IsImage(d) {
			return d, true
		}
	}
	return "", false
}

// IsImage reports whether contentType is an image/* media type.
func IsImage(contentType string) bool {
	return strings.HasPrefix(base(contentType), "image/")
}

func base(contentType string) string {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return ""
	}
	return strings.ToLower(mediaType)
}
