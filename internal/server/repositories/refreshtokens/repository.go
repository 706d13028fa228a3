// Package refreshtokens declares the repository contract for issued refresh
// tokens. Tokens are looked up by their hash, never by the raw value.
package refreshtokens

import (
	"context"
	"time"

	"github.com/dmitrijs2005/datingapp/internal/server/models"
)

type Repository interface {
	// Create stores a token hash for userID expiring at now+validity.
	Create(ctx context.Context, userID string, tokenHash string, validity time.Duration) error

	// Find returns common.ErrorNotFound when the hash is unknown.
	Find(ctx context.Context, tokenHash string) (*models.RefreshToken, error)

	// Delete is a no-op for unknown hashes.
	Delete(ctx context.Context, tokenHash string) error

	// DeleteExpired removes tokens that expired before the given time.
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}
