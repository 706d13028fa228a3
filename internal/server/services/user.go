// Package services contains server-side business logic. This file implements
// AccountService, which handles registration, login and the access/refresh
// token lifecycle.
package services

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/dmitrijs2005/datingapp/internal/common"
	"github.com/dmitrijs2005/datingapp/internal/dbx"
	"github.com/dmitrijs2005/datingapp/internal/logging"
	"github.com/dmitrijs2005/datingapp/internal/server/auth"
	"github.com/dmitrijs2005/datingapp/internal/server/config"
	"github.com/dmitrijs2005/datingapp/internal/server/models"
	"github.com/dmitrijs2005/datingapp/internal/server/repositories/repomanager"
	"golang.org/x/crypto/bcrypt"
)

// TokenPair bundles a short-lived access token and a long-lived refresh token.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// Session is what a client gets back after register, login or refresh.
type Session struct {
	User *models.User
	TokenPair
}

type RegisterInput struct {
	Username    string
	Password    string
	KnownAs     string
	Gender      string
	DateOfBirth time.Time
	City        string
	Country     string
}

type AccountService struct {
	tx                           dbx.Transactor
	repomanager                  repomanager.RepositoryManager
	tokens                       *auth.TokenService
	refreshTokenValidityDuration time.Duration
	verifyRefreshToken           bool
	logger                       logging.Logger
	now                          func() time.Time
}

func NewAccountService(tx dbx.Transactor, m repomanager.RepositoryManager, tokens *auth.TokenService, cfg *config.Config, logger logging.Logger) *AccountService {
	return &AccountService{
		tx:                           tx,
		repomanager:                  m,
		tokens:                       tokens,
		refreshTokenValidityDuration: cfg.RefreshTokenValidityDuration,
		verifyRefreshToken:           cfg.VerifyRefreshToken,
		logger:                       logger.With("module", "accounts"),
		now:                          time.Now,
	}
}

// Register creates a member account and signs the new user in.
func (s *AccountService) Register(ctx context.Context, in RegisterInput) (*Session, error) {
	username := strings.ToLower(strings.TrimSpace(in.Username))

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &models.User{
		UserName:     username,
		PasswordHash: hash,
		KnownAs:      in.KnownAs,
		Gender:       strings.ToLower(in.Gender),
		DateOfBirth:  in.DateOfBirth,
		City:         in.City,
		Country:      in.Country,
	}

	var session *Session
	err = s.tx.WithTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		users := s.repomanager.Users(tx)

		created, err := users.Create(ctx, user)
		if err != nil {
			if errors.Is(err, common.ErrorAlreadyExists) {
				return ErrUsernameTaken
			}
			return fmt.Errorf("error creating user: %w", err)
		}

		created.Roles = []string{common.RoleMember}
		if err := users.SetRoles(ctx, created.ID, created.Roles); err != nil {
			return fmt.Errorf("error assigning role: %w", err)
		}

		pair, err := s.generateTokenPair(ctx, tx, created)
		if err != nil {
			return err
		}
		session = &Session{User: created, TokenPair: *pair}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "user registered", "username", username)
	return session, nil
}

// Login checks the password and issues a new token pair.
func (s *AccountService) Login(ctx context.Context, username, password string) (*Session, error) {
	user, err := s.loadUser(ctx, strings.ToLower(strings.TrimSpace(username)))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, ErrInvalidUsername
		}
		return nil, err
	}

	if bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(password)) != nil {
		return nil, ErrInvalidPassword
	}

	pair, err := s.generateTokenPair(ctx, s.tx.DB(), user)
	if err != nil {
		return nil, err
	}
	return &Session{User: user, TokenPair: *pair}, nil
}

// Refresh exchanges an access token, which may have expired, for a new pair.
// The username is taken from the token's unique_name claim. When refresh
// token verification is on, the presented refresh token must be a stored,
// unexpired token of the same user; it is consumed by the exchange.
func (s *AccountService) Refresh(ctx context.Context, accessToken, refreshToken string) (*Session, error) {
	claims, err := s.tokens.ValidateExpiredToken(accessToken)
	if err != nil {
		return nil, err
	}

	user, err := s.loadUser(ctx, claims.UniqueName)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthorized
		}
		return nil, err
	}

	hash := auth.HashRefreshToken(refreshToken)
	if s.verifyRefreshToken {
		stored, err := s.repomanager.RefreshTokens(s.tx.DB()).Find(ctx, hash)
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return nil, ErrInvalidRefreshToken
			}
			return nil, fmt.Errorf("error searching refresh token: %w", err)
		}
		if stored.UserID != user.ID {
			return nil, ErrInvalidRefreshToken
		}
		if stored.Expires.Before(s.now()) {
			return nil, common.ErrRefreshTokenExpired
		}
	}

	var pair *TokenPair
	err = s.tx.WithTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		if s.verifyRefreshToken {
			if err := s.repomanager.RefreshTokens(tx).Delete(ctx, hash); err != nil {
				return fmt.Errorf("error deleting refresh token: %w", err)
			}
		}
		var genErr error
		pair, genErr = s.generateTokenPair(ctx, tx, user)
		return genErr
	})
	if err != nil {
		return nil, err
	}
	return &Session{User: user, TokenPair: *pair}, nil
}

// SeedAdmin makes sure an administrator account exists. An existing account
// of that name is granted the Admin and Moderator roles.
func (s *AccountService) SeedAdmin(ctx context.Context, username, password string) error {
	username = strings.ToLower(username)
	users := s.repomanager.Users(s.tx.DB())

	user, err := users.GetUserByLogin(ctx, username)
	switch {
	case errors.Is(err, common.ErrorNotFound):
		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("hash password: %w", err)
		}
		return s.tx.WithTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
			created, err := s.repomanager.Users(tx).Create(ctx, &models.User{UserName: username, PasswordHash: hash, KnownAs: "Admin"})
			if err != nil {
				return fmt.Errorf("error creating admin: %w", err)
			}
			return s.repomanager.Users(tx).SetRoles(ctx, created.ID, []string{common.RoleAdmin, common.RoleModerator})
		})
	case err != nil:
		return err
	}

	roles, err := users.GetRoles(ctx, user.ID)
	if err != nil {
		return err
	}
	if slices.Contains(roles, common.RoleAdmin) {
		return nil
	}
	for _, r := range []string{common.RoleAdmin, common.RoleModerator} {
		if !slices.Contains(roles, r) {
			roles = append(roles, r)
		}
	}
	return users.SetRoles(ctx, user.ID, roles)
}

// PurgeExpiredRefreshTokens deletes refresh tokens that are past their expiry.
func (s *AccountService) PurgeExpiredRefreshTokens(ctx context.Context) (int64, error) {
	return s.repomanager.RefreshTokens(s.tx.DB()).DeleteExpired(ctx, s.now())
}

// --- helpers below ---

// loadUser fetches the user with roles and main photo URL.
func (s *AccountService) loadUser(ctx context.Context, username string) (*models.User, error) {
	db := s.tx.DB()

	user, err := s.repomanager.Users(db).GetUserByLogin(ctx, username)
	if err != nil {
		return nil, err
	}
	if user.Roles, err = s.repomanager.Users(db).GetRoles(ctx, user.ID); err != nil {
		return nil, err
	}
	if user.MainPhotoURL, err = mainPhotoURL(ctx, s.repomanager, db, user.ID); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *AccountService) generateTokenPair(ctx context.Context, db dbx.DBTX, user *models.User) (*TokenPair, error) {
	access, err := s.tokens.IssueAccessToken(user.ID, user.UserName, user.Roles)
	if err != nil {
		return nil, common.ErrorInternal
	}
	refresh, err := s.tokens.IssueRefreshToken()
	if err != nil {
		return nil, common.ErrorInternal
	}

	err = s.repomanager.RefreshTokens(db).Create(ctx, user.ID, auth.HashRefreshToken(refresh), s.refreshTokenValidityDuration)
	if err != nil {
		return nil, common.ErrorInternal
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

func mainPhotoURL(ctx context.Context, m repomanager.RepositoryManager, db dbx.DBTX, userID string) (string, error) {
	photos, err := m.Photos(db).ListByUser(ctx, userID)
	if err != nil {
		return "", err
	}
	for _, p := range photos {
		if p.IsMain {
			return p.URL, nil
		}
	}
	return "", nil
}
