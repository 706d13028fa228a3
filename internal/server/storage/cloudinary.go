package storage

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/dmitrijs2005/datingapp/internal/netx"
	"github.com/dmitrijs2005/datingapp/internal/server/models"
)

// fillFaceTransformation crops to a 500x500 square centred on the face.
const fillFaceTransformation = "c_fill,g_face,h_500,w_500"

// cloudinaryUploader is the part of the Cloudinary upload API in use.
type cloudinaryUploader interface {
	Upload(ctx context.Context, file interface{}, params uploader.UploadParams) (*uploader.UploadResult, error)
	Destroy(ctx context.Context, params uploader.DestroyParams) (*uploader.DestroyResult, error)
}

type CloudinaryStorage struct {
	api       cloudinaryUploader
	folder    string
	http      *http.Client
	fetchSize int64
}

func NewCloudinaryStorage(cloudName, apiKey, apiSecret, folder string, fetchTimeout time.Duration, maxBytes int64) (*CloudinaryStorage, error) {
	cld, err := cloudinary.NewFromParams(cloudName, apiKey, apiSecret)
	if err != nil {
		return nil, fmt.Errorf("cloudinary: %w", err)
	}
	return newCloudinaryStorage(&cld.Upload, folder, fetchTimeout, maxBytes), nil
}

func newCloudinaryStorage(api cloudinaryUploader, folder string, fetchTimeout time.Duration, maxBytes int64) *CloudinaryStorage {
	return &CloudinaryStorage{
		api:       api,
		folder:    folder,
		http:      &http.Client{Timeout: fetchTimeout},
		fetchSize: maxBytes,
	}
}

func (s *CloudinaryStorage) Upload(ctx context.Context, owner, name string, data []byte) (*UploadResult, error) {
	res, err := s.api.Upload(ctx, bytes.NewReader(data), uploader.UploadParams{
		Folder:         joinKey(s.folder, owner),
		Transformation: fillFaceTransformation,
	})
	if err != nil {
		return nil, fmt.Errorf("cloudinary upload %s: %w", name, err)
	}
	if res.Error.Message != "" {
		return nil, &Error{Message: res.Error.Message}
	}
	return &UploadResult{URL: res.SecureURL, PublicID: res.PublicID}, nil
}

func (s *CloudinaryStorage) Delete(ctx context.Context, publicID string) error {
	res, err := s.api.Destroy(ctx, uploader.DestroyParams{PublicID: publicID})
	if err != nil {
		return fmt.Errorf("cloudinary destroy %s: %w", publicID, err)
	}
	if res.Error.Message != "" {
		return &Error{Message: res.Error.Message}
	}
	return nil
}

func (s *CloudinaryStorage) Fetch(ctx context.Context, photo *models.Photo) ([]byte, error) {
	return netx.Fetch(ctx, s.http, photo.URL, s.fetchSize)
}
