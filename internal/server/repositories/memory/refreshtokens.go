package memory

import (
	"context"
	"time"

	"github.com/dmitrijs2005/datingapp/internal/common"
	"github.com/dmitrijs2005/datingapp/internal/server/models"
)

type RefreshTokensRepository struct {
	s *Store
}

func (r *RefreshTokensRepository) Create(ctx context.Context, userID string, tokenHash string, validity time.Duration) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	now := time.Now()
	r.s.tokens[tokenHash] = &models.RefreshToken{
		ID: newID(), UserID: userID, TokenHash: tokenHash, Expires: now.Add(validity), CreatedAt: now,
	}
	return nil
}

func (r *RefreshTokensRepository) Find(ctx context.Context, tokenHash string) (*models.RefreshToken, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	t, ok := r.s.tokens[tokenHash]
	if !ok {
		return nil, common.ErrorNotFound
	}
	c := *t
	return &c, nil
}

func (r *RefreshTokensRepository) Delete(ctx context.Context, tokenHash string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	delete(r.s.tokens, tokenHash)
	return nil
}

func (r *RefreshTokensRepository) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var n int64
	for k, t := range r.s.tokens {
		if t.Expires.Before(before) {
			delete(r.s.tokens, k)
			n++
		}
	}
	return n, nil
}
