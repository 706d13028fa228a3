// Package services holds the terminal client's use cases: signing in,
// managing photos and exchanging encrypted messages.
package services

import (
	"context"
	"database/sql"
	"errors"

	"github.com/dmitrijs2005/datingapp/internal/client/client"
	"github.com/dmitrijs2005/datingapp/internal/client/repositories/session"
	"github.com/dmitrijs2005/datingapp/internal/common"
	"github.com/dmitrijs2005/datingapp/internal/dbx"
)

// SessionStore keeps the signed-in user in the local database. It satisfies
// client.TokenStore so refreshed tokens are persisted transparently.
type SessionStore struct {
	db *sql.DB
}

func NewSessionStore(db *sql.DB) *SessionStore {
	return &SessionStore{db: db}
}

func (s *SessionStore) repo() session.Repository {
	return session.NewSQLiteRepository(s.db)
}

func (s *SessionStore) get(ctx context.Context, key string) (string, error) {
	v, err := s.repo().Get(ctx, key)
	if errors.Is(err, common.ErrorNotFound) {
		return "", client.ErrNotSignedIn
	}
	return v, err
}

func (s *SessionStore) Tokens(ctx context.Context) (string, string, error) {
	access, err := s.get(ctx, session.KeyAccessToken)
	if err != nil {
		return "", "", err
	}
	refresh, err := s.get(ctx, session.KeyRefreshToken)
	if err != nil {
		return "", "", err
	}
	return access, refresh, nil
}

func (s *SessionStore) SaveTokens(ctx context.Context, access, refresh string) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := session.NewSQLiteRepository(tx)
		if err := repo.Set(ctx, session.KeyAccessToken, access); err != nil {
			return err
		}
		return repo.Set(ctx, session.KeyRefreshToken, refresh)
	})
}

// Username returns client.ErrNotSignedIn when nobody is signed in.
func (s *SessionStore) Username(ctx context.Context) (string, error) {
	return s.get(ctx, session.KeyUsername)
}

func (s *SessionStore) save(ctx context.Context, u *client.User) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := session.NewSQLiteRepository(tx)
		for k, v := range map[string]string{
			session.KeyUsername:     u.Username,
			session.KeyAccessToken:  u.Token,
			session.KeyRefreshToken: u.RefreshToken,
		} {
			if err := repo.Set(ctx, k, v); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *SessionStore) Clear(ctx context.Context) error {
	return s.repo().Clear(ctx)
}
