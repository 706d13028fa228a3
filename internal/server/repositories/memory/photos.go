package memory

import (
	"context"

	"github.com/dmitrijs2005/datingapp/internal/common"
	"github.com/dmitrijs2005/datingapp/internal/server/models"
)

type PhotosRepository struct {
	s *Store
}

func (r *PhotosRepository) ListByUser(ctx context.Context, userID string) ([]*models.Photo, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.userPhotos(userID), nil
}

func (r *PhotosRepository) Create(ctx context.Context, photo *models.Photo) (*models.Photo, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	r.s.nextPhoto++
	photo.ID = r.s.nextPhoto
	c := *photo
	r.s.photos[photo.ID] = &c
	return photo, nil
}

func (r *PhotosRepository) SetMain(ctx context.Context, id int64, isMain bool) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	p, ok := r.s.photos[id]
	if !ok {
		return common.ErrorNotFound
	}
	p.IsMain = isMain
	return nil
}

func (r *PhotosRepository) Delete(ctx context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	delete(r.s.photos, id)
	return nil
}
