package entity

// TokenKind distinguishes the two token families. Each kind is signed with
// its own secret and carries its own lifetime, so a token of one kind never
// verifies as the other.
type TokenKind string

const (
	// TokenKindAccess is the short-lived token presented on every request.
	TokenKindAccess TokenKind = "access"
	// TokenKindRefresh is the long-lived token exchanged for a new pair.
	TokenKindRefresh TokenKind = "refresh"
)

// TokenPair is the transient result of minting a session: both tokens go to
// the client, only the hash of the refresh token is persisted.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}
