package storage

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

// ImageStore persists uploaded images under a logical directory and
// returns their public URL.
type ImageStore interface {
	Store(ctx context.Context, directory string, data []byte) (string, error)
	// Delete removes the image behind url. URLs this store did not issue are ignored.
	Delete(ctx context.Context, url string) error
}

// Image directories
const (
	DirRestaurants     = "restaurants"
	DirRestaurantLogos = "restaurants/logos"
	DirDishes          = "dishes"
)

// DefaultMaxImageBytes is the upload limit when none is configured
const DefaultMaxImageBytes = 5 << 20

var (
	ErrEmptyImage           = errors.New("file is empty")
	ErrImageTooLarge        = errors.New("file exceeds maximum allowed size")
	ErrUnsupportedImageType = errors.New("invalid file type, allowed types: image/jpeg, image/png, image/webp")
)

var allowedTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

// Validate sniffs data and returns its content type and file extension
func Validate(data []byte, maxBytes int64) (contentType, ext string, err error) {
	if len(data) == 0 {
		return "", "", ErrEmptyImage
	}
	if maxBytes <= 0 {
		maxBytes = DefaultMaxImageBytes
	}
	if int64(len(data)) > maxBytes {
		return "", "", fmt.Errorf("%w of %d MB", ErrImageTooLarge, maxBytes>>20)
	}

	mt := mimetype.Detect(data)
	for m := mt; m != nil; m = m.Parent() {
		if e, ok := allowedTypes[m.String()]; ok {
			return m.String(), e, nil
		}
	}
	return "", "", ErrUnsupportedImageType
}

// objectKey builds a unique name inside directory
func objectKey(directory, ext string) (string, error) {
	dir := path.Clean("/" + directory)
	if dir == "/" {
		return "", errors.New("image directory is required")
	}
	return strings.TrimPrefix(dir, "/") + "/" + uuid.NewString() + ext, nil
}

// keyFromURL returns the object key for a URL under base, or false
func keyFromURL(base, url string) (string, bool) {
	base = strings.TrimRight(base, "/")
	if url == "" || !strings.HasPrefix(url, base+"/") {
		return "", false
	}
	key := path.Clean("/" + strings.TrimPrefix(url, base+"/"))
	if key == "/" {
		return "", false
	}
	return strings.TrimPrefix(key, "/"), true
}
