package services

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/datingapp/internal/client/client"
)

// AuthAPI is the part of the API client used for signing in.
type AuthAPI interface {
	Register(ctx context.Context, in client.RegisterRequest) (*client.User, error)
	Login(ctx context.Context, username, password string) (*client.User, error)
	Ping(ctx context.Context) error
}

type AuthService struct {
	api   AuthAPI
	store *SessionStore
}

func NewAuthService(api AuthAPI, store *SessionStore) *AuthService {
	return &AuthService{api: api, store: store}
}

// Register creates the account and signs the new user in.
func (a *AuthService) Register(ctx context.Context, in client.RegisterRequest) (*client.User, error) {
	u, err := a.api.Register(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("register error: %w", err)
	}
	if err := a.store.save(ctx, u); err != nil {
		return nil, fmt.Errorf("session saving error: %w", err)
	}
	return u, nil
}

func (a *AuthService) Login(ctx context.Context, username string, password []byte) (*client.User, error) {
	u, err := a.api.Login(ctx, username, string(password))
	if err != nil {
		return nil, fmt.Errorf("login error: %w", err)
	}
	if err := a.store.save(ctx, u); err != nil {
		return nil, fmt.Errorf("session saving error: %w", err)
	}
	return u, nil
}

func (a *AuthService) Logout(ctx context.Context) error {
	return a.store.Clear(ctx)
}

func (a *AuthService) CurrentUser(ctx context.Context) (string, error) {
	return a.store.Username(ctx)
}

func (a *AuthService) Ping(ctx context.Context) error {
	return a.api.Ping(ctx)
}
