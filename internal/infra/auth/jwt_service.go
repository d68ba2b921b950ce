// Package auth provides concrete implementations for authentication-related domain services.
package auth

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"tubeid/config"
	"tubeid/internal/domain/entity"
	"tubeid/internal/domain/service"
)

// Fallback lifetimes used when the config leaves the TTLs unset.
const (
	defaultAccessTTL  = time.Minute * 15
	defaultRefreshTTL = time.Hour * 24 * 7
)

// jwtService is a concrete implementation of the TokenService interface using the JWT standard.
// Each token kind is signed with its own secret, so an access token can never
// be replayed as a refresh token or vice versa.
type jwtService struct {
	secrets map[entity.TokenKind][]byte
	ttls    map[entity.TokenKind]time.Duration
}

// NewJWTService is the constructor for jwtService.
// It takes configuration values to create a new token service instance.
func NewJWTService(cfg *config.Config) (service.TokenService, error) {
	if cfg.Token.AccessSecret == "" || cfg.Token.RefreshSecret == "" {
		return nil, errors.New("jwt secrets must be provided")
	}
	if cfg.Token.AccessSecret == cfg.Token.RefreshSecret {
		return nil, errors.New("access and refresh secrets must differ")
	}

	accessTTL := cfg.Token.AccessTTL
	if accessTTL <= 0 {
		accessTTL = defaultAccessTTL
	}
	refreshTTL := cfg.Token.RefreshTTL
	if refreshTTL <= 0 {
		refreshTTL = defaultRefreshTTL
	}

	return &jwtService{
		secrets: map[entity.TokenKind][]byte{
			entity.TokenKindAccess:  []byte(cfg.Token.AccessSecret),
			entity.TokenKindRefresh: []byte(cfg.Token.RefreshSecret),
		},
		ttls: map[entity.TokenKind]time.Duration{
			entity.TokenKindAccess:  accessTTL,
			entity.TokenKindRefresh: refreshTTL,
		},
	}, nil
}

// Issue creates a signed token of the given kind for a user.
func (s *jwtService) Issue(userID uuid.UUID, kind entity.TokenKind) (string, error) {
	secret, ok := s.secrets[kind]
	if !ok {
		return "", service.ErrTokenInvalid
	}

	now := time.Now()
	claims := jwt.MapClaims{
		"sub":  userID.String(),               // Subject (who the token is for)
		"iat":  now.Unix(),                    // Issued At
		"exp":  now.Add(s.ttls[kind]).Unix(),  // Expiration Time
		"type": string(kind),                  // Kind of token (access or refresh)
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	return token.SignedString(secret)
}

// Verify checks signature, expiry and kind, returning the subject user ID.
func (s *jwtService) Verify(tokenString string, kind entity.TokenKind) (uuid.UUID, error) {
	secret, ok := s.secrets[kind]
	if !ok {
		return uuid.Nil, service.ErrTokenInvalid
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		// Ensure the signing method is what we expect.
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}

		return secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return uuid.Nil, service.ErrTokenExpired
		}

		return uuid.Nil, service.ErrTokenInvalid
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return uuid.Nil, service.ErrTokenInvalid
	}

	if tokenType, _ := claims["type"].(string); tokenType != string(kind) {
		return uuid.Nil, service.ErrTokenInvalid
	}

	subject, err := claims.GetSubject()
	if err != nil {
		return uuid.Nil, service.ErrTokenInvalid
	}

	userID, err := uuid.Parse(subject)
	if err != nil {
		return uuid.Nil, service.ErrTokenInvalid
	}

	return userID, nil
}

// HashToken returns the SHA-256 hex digest of a raw token.
// Refresh tokens are persisted and compared only in this form.
func (s *jwtService) HashToken(token string) string {
	digest := sha256.Sum256([]byte(token))

	return hex.EncodeToString(digest[:])
}

// TTL returns the configured lifetime for the given token kind.
func (s *jwtService) TTL(kind entity.TokenKind) time.Duration {
	return s.ttls[kind]
}
