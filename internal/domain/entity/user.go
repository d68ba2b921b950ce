// Package entity contains the core business objects of the project,
// each representing a unique, identifiable concept within the domain.
package entity

import (
	"time"

	"github.com/google/uuid"
)

// User is the core entity in the system, representing a single registered account.
// PasswordHash and RefreshTokenHash are credentials: they are never serialized
// outward and are only loaded when the flow actually needs them.
type User struct {
	ID               uuid.UUID `json:"id"`               // The unique identifier for the user, generated by the database.
	Username         string    `json:"username"`         // The unique handle, stored lowercase.
	Email            string    `json:"email"`            // The user's unique contact email, usable as a login identifier.
	FullName         string    `json:"fullName"`         // The user's display name.
	Avatar           string    `json:"avatar"`           // URL of the avatar image in the object store.
	CoverImage       string    `json:"coverImage"`       // URL of the optional cover image in the object store.
	PasswordHash     string    `json:"-"`                // The bcrypt hash of the user's password.
	RefreshTokenHash string    `json:"-"`                // SHA-256 hex of the single currently valid refresh token; empty when logged out.
	CreatedAt        time.Time `json:"createdAt"`        // Timestamp of when this account was created.
	UpdatedAt        time.Time `json:"updatedAt"`        // Timestamp of the last modification to this account.
}

// AuthUser is the sanitized identity attached to a request context after the
// access token has been verified. It never carries credential material.
type AuthUser struct {
	ID         uuid.UUID `json:"id"`
	Username   string    `json:"username"`
	Email      string    `json:"email"`
	FullName   string    `json:"fullName"`
	Avatar     string    `json:"avatar"`
	CoverImage string    `json:"coverImage"`
}

// AuthView projects the user into its request-scoped sanitized form.
func (u *User) AuthView() *AuthUser {
	return &AuthUser{
		ID:         u.ID,
		Username:   u.Username,
		Email:      u.Email,
		FullName:   u.FullName,
		Avatar:     u.Avatar,
		CoverImage: u.CoverImage,
	}
}
