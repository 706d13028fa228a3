package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dmitrijs2005/datingapp/internal/client/client"
)

type PhotoAPI interface {
	Member(ctx context.Context, username string) (*client.Member, error)
	AddPhoto(ctx context.Context, filename string, data []byte) (*client.Photo, error)
	SetMainPhoto(ctx context.Context, id int64) error
	DeletePhoto(ctx context.Context, id int64) error
}

type PhotoService struct {
	api   PhotoAPI
	store *SessionStore
}

func NewPhotoService(api PhotoAPI, store *SessionStore) *PhotoService {
	return &PhotoService{api: api, store: store}
}

// Upload sends the image at path to the server, which scans, checks and
// stores it.
func (p *PhotoService) Upload(ctx context.Context, path string) (*client.Photo, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return p.api.AddPhoto(ctx, filepath.Base(path), data)
}

// List returns the signed-in user's photos.
func (p *PhotoService) List(ctx context.Context) ([]client.Photo, error) {
	username, err := p.store.Username(ctx)
	if err != nil {
		return nil, err
	}
	m, err := p.api.Member(ctx, username)
	if err != nil {
		return nil, err
	}
	return m.Photos, nil
}

func (p *PhotoService) SetMain(ctx context.Context, id int64) error {
	return p.api.SetMainPhoto(ctx, id)
}

func (p *PhotoService) Delete(ctx context.Context, id int64) error {
	return p.api.DeletePhoto(ctx, id)
}
