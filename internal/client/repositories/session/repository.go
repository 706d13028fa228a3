// Package session persists the signed-in user's tokens and name in the
// local SQLite database.
package session

import "context"

// Keys used by the client.
const (
	KeyUsername     = "username"
	KeyAccessToken  = "access_token"
	KeyRefreshToken = "refresh_token"
)

type Repository interface {
	// Get returns common.ErrorNotFound for an unknown key.
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error
}
