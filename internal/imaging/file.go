package imaging

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// File is an image handed to the pipeline. Type is the declared media type;
// Open may be called more than once.
type File struct {
	Name string
	Type string
	Size int64
	Open func() (io.ReadCloser, error)
}

var allowedTypes = map[string]struct{}{
	"image/jpeg":    {},
	"image/png":     {},
	"image/gif":     {},
	"image/webp":    {},
	"image/bmp":     {},
	"image/svg+xml": {},
}

// IsValidImageFile reports whether f declares an accepted image media type.
func IsValidImageFile(f File) bool {
	_, ok := allowedTypes[f.Type]
	return ok
}

// FromBytes wraps data as a File. An empty mediaType is sniffed from the
// content.
func FromBytes(name, mediaType string, data []byte) File {
	if mediaType == "" {
		mediaType = DetectType(data)
	}
	return File{
		Name: name,
		Type: mediaType,
		Size: int64(len(data)),
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(data)), nil
		},
	}
}

// FromPath describes a file on disk. The media type is sniffed from the
// file header.
func FromPath(path string) (File, error) {
	info, err := os.Stat(path)
	if err != nil {
		return File{}, err
	}

	mt, err := mimetype.DetectFile(path)
	if err != nil {
		return File{}, err
	}

	return File{
		Name: filepath.Base(path),
		Type: baseType(mt),
		Size: info.Size(),
		Open: func() (io.ReadCloser, error) {
			return os.Open(path)
		},
	}, nil
}

// DetectType sniffs the media type of data, without parameters.
func DetectType(data []byte) string {
	return baseType(mimetype.Detect(data))
}

func baseType(mt *mimetype.MIME) string {
	// mimetype reports e.g. "text/plain; charset=utf-8".
	base, _, _ := strings.Cut(mt.String(), ";")
	return base
}
