// Package storage keeps photo files in a remote image store. Two backends
// exist: Cloudinary, which transforms on upload, and any S3-compatible
// object store, for which the transformation is done locally.
package storage

import (
	"context"
	"strings"

	"github.com/dmitrijs2005/datingapp/internal/server/models"
)

// PhotoSize is the edge of the square every stored photo is cropped to.
const PhotoSize = 500

type UploadResult struct {
	URL      string
	PublicID string
}

type ImageStorage interface {
	// Upload stores a 500x500 fill-cropped rendition of data under the
	// namespace of owner. Assets of different owners never share a key.
	Upload(ctx context.Context, owner, name string, data []byte) (*UploadResult, error)
	Delete(ctx context.Context, publicID string) error
	// Fetch returns the stored bytes of photo.
	Fetch(ctx context.Context, photo *models.Photo) ([]byte, error)
}

// Error is a failure reported by the storage service itself. Its message is
// safe to show to the client.
type Error struct {
	Message string
}

func (e *Error) Error() string { return e.Message }

// joinKey joins the non-empty parts of an object path with "/".
func joinKey(parts ...string) string {
	kept := parts[:0:0]
	for _, p := range parts {
		if p = strings.Trim(p, "/"); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, "/")
}
