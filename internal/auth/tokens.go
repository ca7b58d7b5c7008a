package auth

import (
	"errors"
	"fmt"
	"time"

	"aidanwoods.dev/go-paseto"
)

const (
	tokenIssuer   = "locallibrary"
	tokenAudience = "locallibrary-web"
)

// SessionClaims is what a session token proves: which server-side session
// the bearer holds.
type SessionClaims struct {
	SessionID string
	ExpiresAt time.Time
}

// TokenService issues and verifies PASETO v4.local session tokens.
type TokenService struct {
	key paseto.V4SymmetricKey
	now func() time.Time
}

// NewTokenService creates a token service from a 32 byte symmetric key.
func NewTokenService(key []byte) (*TokenService, error) {
	if len(key) != keySize {
		return nil, fmt.Errorf("PASETO v4 key must be %d bytes, got %d", keySize, len(key))
	}

	symmetric, err := paseto.V4SymmetricKeyFromBytes(key)
	if err != nil {
		return nil, fmt.Errorf("create PASETO symmetric key: %w", err)
	}

	return &TokenService{key: symmetric, now: time.Now}, nil
}

// Issue encrypts a token for sessionID that expires at expiresAt.
func (s *TokenService) Issue(sessionID string, expiresAt time.Time) string {
	now := s.now()

	token := paseto.NewToken()
	token.SetIssuer(tokenIssuer)
	token.SetAudience(tokenAudience)
	token.SetSubject(sessionID)
	token.SetIssuedAt(now)
	token.SetNotBefore(now)
	token.SetExpiration(expiresAt)

	return token.V4Encrypt(s.key, nil)
}

// Verify decrypts a token and checks issuer, audience and expiry.
func (s *TokenService) Verify(raw string) (*SessionClaims, error) {
	parser := paseto.NewParserWithoutExpiryCheck()
	parser.AddRule(paseto.ForAudience(tokenAudience))
	parser.AddRule(paseto.IssuedBy(tokenIssuer))
	parser.AddRule(paseto.ValidAt(s.now()))

	token, err := parser.ParseV4Local(s.key, raw, nil)
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}

	sessionID, err := token.GetSubject()
	if err != nil || sessionID == "" {
		return nil, errors.New("token has no session")
	}
	expiresAt, err := token.GetExpiration()
	if err != nil {
		return nil, fmt.Errorf("token has no expiry: %w", err)
	}

	return &SessionClaims{SessionID: sessionID, ExpiresAt: expiresAt}, nil
}
