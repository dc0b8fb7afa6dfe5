package upload

import (
	"bytes"
	"encoding/base64"
	"errors"

	"github.com/sozercan/image-verdict/internal/client"
	"github.com/sozercan/image-verdict/internal/imagetype"
)

var ErrNotImage = errors.New("file is not an image")

// File is a file offered by the user, from drag-and-drop or a file picker.
type File struct {
	Name string
	// ContentType as declared by the sender; may be empty
	ContentType string
	Data        []byte
}

// Image is the staged image together with its preview.
type Image struct {
	Name        string
	ContentType string
	Data        []byte
	// Preview is a base64 data URI suitable for an <img src>
	Preview string
}

// Decode validates that f is an image and builds its preview.
// The same input always produces the same Image.
func Decode(f File) (Image, error) {
	contentType, ok := imagetype.Detect(f.Data, f.ContentType)
	if !ok {
		return Image{}, ErrNotImage
	}

	data := bytes.Clone(f.Data)
	return Image{
		Name:        f.Name,
		ContentType: contentType,
		Data:        data,
		Preview:     "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(data),
	}, nil
}

func (img Image) upload() client.Upload {
	return client.Upload{
		Filename:    img.Name,
		ContentType: img.ContentType,
		Data:        img.Data,
	}
}
