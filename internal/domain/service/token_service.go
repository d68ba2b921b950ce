package service

import (
	"errors"
	"time"

	"tubeid/internal/domain/entity"

	"github.com/google/uuid"
)

// Verification failure modes. Expiry is distinguished from every other
// failure so callers can log the reason, but both map to the same client
// response at the boundary.
var (
	// ErrTokenExpired is returned when a structurally valid token is past its expiry.
	ErrTokenExpired = errors.New("token has expired")
	// ErrTokenInvalid is returned for any other failure: bad signature,
	// malformed claims, or a token of the wrong kind.
	ErrTokenInvalid = errors.New("token is invalid")
)

// TokenService defines the interface for minting and verifying session tokens.
// This abstracts the signing scheme from the use cases; tokens are opaque
// strings everywhere outside the implementation.
type TokenService interface {
	// Issue creates a signed token of the given kind carrying the user's ID
	// as its subject.
	Issue(userID uuid.UUID, kind entity.TokenKind) (string, error)

	// Verify checks signature, expiry and kind, returning the subject user ID.
	// Failures are ErrTokenExpired or ErrTokenInvalid.
	Verify(token string, kind entity.TokenKind) (uuid.UUID, error)

	// HashToken returns the SHA-256 hex digest of a raw token, the form in
	// which refresh tokens are persisted and compared.
	HashToken(token string) string

	// TTL returns the configured lifetime for the given token kind.
	TTL(kind entity.TokenKind) time.Duration
}
