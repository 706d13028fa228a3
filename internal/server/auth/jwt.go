// Package auth issues and validates the tokens handed to API clients:
// HS512 access tokens and opaque random refresh tokens.
package auth

import (
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/datingapp/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// RefreshTokenSize is the number of random bytes in a refresh token.
const RefreshTokenSize = 64

var ErrEmptyKey = errors.New("token key is empty")

// Claims carried by access tokens.
type Claims struct {
	jwt.RegisteredClaims
	NameID     string           `json:"nameid"`
	UniqueName string           `json:"unique_name"`
	Roles      jwt.ClaimStrings `json:"role,omitempty"`
}

// TokenService holds the signing key and access token lifetime.
type TokenService struct {
	key       []byte
	accessTTL time.Duration
	now       func() time.Time
}

func NewTokenService(key string, accessTTL time.Duration) (*TokenService, error) {
	if key == "" {
		return nil, ErrEmptyKey
	}
	return &TokenService{key: []byte(key), accessTTL: accessTTL, now: time.Now}, nil
}

// IssueAccessToken signs a token for the user that expires after the
// configured lifetime.
func (s *TokenService) IssueAccessToken(userID, username string, roles []string) (string, error) {
	now := s.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.accessTTL)),
		},
		NameID:     userID,
		UniqueName: username,
		Roles:      roles,
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString(s.key)
	if err != nil {
		return "", fmt.Errorf("sign access token: %w", err)
	}
	return token, nil
}

// IssueRefreshToken returns 64 random bytes in standard base64.
func (s *TokenService) IssueRefreshToken() (string, error) {
	return common.MakeRandBase64String(RefreshTokenSize)
}

func (s *TokenService) keyFunc(t *jwt.Token) (any, error) {
	alg, _ := t.Header["alg"].(string)
	if !strings.EqualFold(alg, jwt.SigningMethodHS512.Alg()) {
		return nil, fmt.Errorf("unexpected signing algorithm %q", alg)
	}
	return s.key, nil
}

// ParseAccessToken fully validates a token, expiry included.
func (s *TokenService) ParseAccessToken(token string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims, s.keyFunc, jwt.WithTimeFunc(s.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, common.ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", common.ErrInvalidToken, err)
	}
	if claims.UniqueName == "" {
		return nil, common.ErrInvalidToken
	}
	return claims, nil
}

// ValidateExpiredToken checks the signature and algorithm of a possibly
// expired token and returns its claims. Time-based claims are not checked,
// so it must only be used on the refresh path.
func (s *TokenService) ValidateExpiredToken(token string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims, s.keyFunc, jwt.WithoutClaimsValidation())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrInvalidToken, err)
	}
	if claims.UniqueName == "" {
		return nil, common.ErrInvalidToken
	}
	return claims, nil
}

// HashRefreshToken is the lookup key under which refresh tokens are stored.
func HashRefreshToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}
