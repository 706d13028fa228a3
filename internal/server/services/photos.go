package services

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync"
	"time"

	"github.com/dmitrijs2005/datingapp/internal/common"
	"github.com/dmitrijs2005/datingapp/internal/dbx"
	"github.com/dmitrijs2005/datingapp/internal/logging"
	"github.com/dmitrijs2005/datingapp/internal/server/config"
	"github.com/dmitrijs2005/datingapp/internal/server/imagesim"
	"github.com/dmitrijs2005/datingapp/internal/server/metrics"
	"github.com/dmitrijs2005/datingapp/internal/server/models"
	"github.com/dmitrijs2005/datingapp/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/datingapp/internal/server/scanner"
	"github.com/dmitrijs2005/datingapp/internal/server/storage"
	"golang.org/x/sync/errgroup"
)

// Upload is a file received from a client.
type Upload struct {
	Filename string
	Data     []byte
}

// PhotoService runs the photo intake pipeline and manages a member's photos.
type PhotoService struct {
	tx           dbx.Transactor
	repomanager  repomanager.RepositoryManager
	scanner      scanner.Scanner
	storage      storage.ImageStorage
	comparer     *imagesim.Comparer
	threshold    float64
	workers      int
	fetchTimeout time.Duration
	logger       logging.Logger
}

func NewPhotoService(tx dbx.Transactor, m repomanager.RepositoryManager, sc scanner.Scanner, st storage.ImageStorage, cfg *config.Config, logger logging.Logger) (*PhotoService, error) {
	cmp, err := imagesim.NewComparer(cfg.SimilarityBoxSize, cfg.ResizeFilter)
	if err != nil {
		return nil, err
	}
	return &PhotoService{
		tx:           tx,
		repomanager:  m,
		scanner:      sc,
		storage:      st,
		comparer:     cmp,
		threshold:    cfg.SimilarityThreshold,
		workers:      max(1, cfg.SimilarityWorkers),
		fetchTimeout: cfg.PhotoFetchTimeout,
		logger:       logger.With("module", "photos"),
	}, nil
}

func outcome(name string) { metrics.PhotoIntakeTotal.WithLabelValues(name).Inc() }

// AddPhoto validates, scans, uploads and de-duplicates file before storing it
// as a photo of userID. The first photo of a user becomes the main one.
// Steps run strictly in order and the first failure ends the request.
func (s *PhotoService) AddPhoto(ctx context.Context, userID string, file *Upload) (*models.Photo, error) {
	if file == nil || len(file.Data) == 0 {
		outcome("no_file")
		return nil, ErrNoFile
	}
	log := s.logger.With("user_id", userID, "filename", file.Filename)

	res, err := s.scanner.Scan(ctx, file.Data)
	if err != nil {
		log.Error(ctx, "malware scan failed", "error", err)
		outcome("scan_rejected")
		return nil, ErrAddPhoto
	}
	if !res.Clean() {
		log.Warn(ctx, "upload rejected by malware scan", "status", res.Status, "virus", res.Virus)
		outcome("scan_rejected")
		return nil, ErrAddPhoto
	}

	uploaded, err := s.storage.Upload(ctx, userID, file.Filename, file.Data)
	if err != nil {
		outcome("upload_failed")
		var se *storage.Error
		if errors.As(err, &se) {
			log.Warn(ctx, "image storage refused upload", "error", se.Message)
			return nil, se
		}
		log.Error(ctx, "image upload failed", "error", err)
		return nil, ErrAddPhoto
	}

	existing, err := s.repomanager.Photos(s.tx.DB()).ListByUser(ctx, userID)
	if err != nil {
		s.discard(ctx, uploaded)
		outcome("persist_failed")
		return nil, err
	}

	for _, p := range existing {
		if p.URL == uploaded.URL {
			// the asset is shared with the existing photo, keep it
			outcome("duplicate")
			return nil, ErrDuplicatePhoto
		}
	}

	if len(existing) > 0 {
		if err := s.checkSimilarity(ctx, file.Data, existing); err != nil {
			s.discard(ctx, uploaded)
			switch {
			case errors.Is(err, ErrSimilarPhoto):
				outcome("similar")
			case ctx.Err() != nil:
				outcome("cancelled")
			default:
				outcome("decode_failed")
			}
			return nil, err
		}
	}

	photo, err := s.persist(ctx, userID, uploaded)
	if err != nil {
		log.Error(ctx, "saving photo failed", "error", err)
		s.discard(ctx, uploaded)
		outcome("persist_failed")
		return nil, ErrAddPhoto
	}

	outcome("accepted")
	log.Info(ctx, "photo added", "photo_id", photo.ID, "is_main", photo.IsMain)
	return photo, nil
}

// checkSimilarity compares data against every existing photo and returns
// ErrSimilarPhoto as soon as one scores above the threshold. A match takes
// precedence over fetch or decode failures of other photos. A cancelled ctx
// is an error: the check never passes without comparing every photo.
func (s *PhotoService) checkSimilarity(ctx context.Context, data []byte, existing []*models.Photo) error {
	candidate, err := s.comparer.PrepareBytes(data)
	if err != nil {
		s.logger.Error(ctx, "cannot decode uploaded image", "error", err)
		return fmt.Errorf("%w: %v", ErrImageDecode, err)
	}

	var (
		mu       sync.Mutex
		firstErr error
	)
	record := func(err error) {
		mu.Lock()
		defer mu.Unlock()
		if firstErr == nil {
			firstErr = err
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)

	for _, p := range existing {
		p := p
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			score, err := s.score(gctx, candidate, p)
			if err != nil {
				record(err)
				return nil
			}
			if score > s.threshold {
				s.logger.Info(ctx, "similar photo found", "photo_id", p.ID, "score", score)
				return ErrSimilarPhoto
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return firstErr
}

// score rates the stored photo p against candidate. Pictures whose fitted
// boxes differ in shape cannot be compared pixel by pixel and score 0, so
// they never block an upload.

func (s *PhotoService) score(ctx context.Context, candidate *image.RGBA, p *models.Photo) (float64, error) {
	if s.fetchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.fetchTimeout)
		defer cancel()
	}

	raw, err := s.storage.Fetch(ctx, p)
	if err != nil {
		s.logger.Error(ctx, "fetching stored photo failed", "photo_id", p.ID, "error", err)
		return 0, fmt.Errorf("fetch photo %d: %w", p.ID, err)
	}

	stored, err := s.comparer.PrepareBytes(raw)
	if err != nil {
		s.logger.Error(ctx, "cannot decode stored photo", "photo_id", p.ID, "error", err)
		return 0, fmt.Errorf("%w: photo %d: %v", ErrImageDecode, p.ID, err)
	}

	score, err := imagesim.Similarity(candidate, stored)
	if errors.Is(err, imagesim.ErrSizeMismatch) {
		s.logger.Debug(ctx, "photo shapes not comparable", "photo_id", p.ID, "error", err)
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	metrics.SimilarityScore.Observe(score)
	return score, nil
}

func (s *PhotoService) persist(ctx context.Context, userID string, up *storage.UploadResult) (*models.Photo, error) {
	var photo *models.Photo
	err := s.tx.WithTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repomanager.Users(tx).LockForUpdate(ctx, userID); err != nil {
			return err
		}
		repo := s.repomanager.Photos(tx)
		current, err := repo.ListByUser(ctx, userID)
		if err != nil {
			return err
		}
		photo, err = repo.Create(ctx, &models.Photo{
			UserID:   userID,
			URL:      up.URL,
			PublicID: up.PublicID,
			IsMain:   len(current) == 0,
		})
		return err
	})
	return photo, err
}

// discard removes an uploaded asset that will not be kept. Failures are only
// logged.
func (s *PhotoService) discard(ctx context.Context, up *storage.UploadResult) {
	if up.PublicID == "" {
		return
	}
	if err := s.storage.Delete(context.WithoutCancel(ctx), up.PublicID); err != nil {
		s.logger.Warn(ctx, "removing rejected upload failed", "public_id", up.PublicID, "error", err)
	}
}

// lockedPhoto locks the photos of userID for the rest of tx and returns
// photoID along with all of them.
func (s *PhotoService) lockedPhoto(ctx context.Context, tx dbx.DBTX, userID string, photoID int64) (*models.Photo, []*models.Photo, error) {
	if err := s.repomanager.Users(tx).LockForUpdate(ctx, userID); err != nil {
		return nil, nil, err
	}
	photos, err := s.repomanager.Photos(tx).ListByUser(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	for _, p := range photos {
		if p.ID == photoID {
			return p, photos, nil
		}
	}
	return nil, photos, common.ErrorNotFound
}

// SetMainPhoto moves the main flag of userID to photoID.
func (s *PhotoService) SetMainPhoto(ctx context.Context, userID string, photoID int64) error {
	err := s.tx.WithTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		photo, all, err := s.lockedPhoto(ctx, tx, userID, photoID)
		if err != nil {
			return err
		}
		if photo.IsMain {
			return ErrAlreadyMain
		}
		repo := s.repomanager.Photos(tx)
		// clear first: at most one main photo per user is enforced by the schema
		for _, p := range all {
			if p.IsMain {
				if err := repo.SetMain(ctx, p.ID, false); err != nil {
					return err
				}
			}
		}
		return repo.SetMain(ctx, photo.ID, true)
	})
	switch {
	case err == nil:
		return nil
	case errors.Is(err, common.ErrorNotFound), errors.Is(err, ErrAlreadyMain):
		return err
	}
	s.logger.Error(ctx, "setting main photo failed", "user_id", userID, "photo_id", photoID, "error", err)
	return ErrSetMain
}

// DeletePhoto removes a non-main photo from storage and the database.
func (s *PhotoService) DeletePhoto(ctx context.Context, userID string, photoID int64) error {
	var se *storage.Error
	err := s.tx.WithTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		photo, _, err := s.lockedPhoto(ctx, tx, userID, photoID)
		if err != nil {
			return err
		}
		if photo.IsMain {
			return ErrDeleteMain
		}

		if photo.PublicID != "" {
			if err := s.storage.Delete(ctx, photo.PublicID); err != nil {
				return err
			}
		}
		return s.repomanager.Photos(tx).Delete(ctx, photo.ID)
	})
	switch {
	case err == nil:
		return nil
	case errors.Is(err, common.ErrorNotFound), errors.Is(err, ErrDeleteMain):
		return err
	case errors.As(err, &se):
		return se
	}
	s.logger.Error(ctx, "deleting photo failed", "user_id", userID, "photo_id", photoID, "error", err)
	return ErrDeletePhoto
}
