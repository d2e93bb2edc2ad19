// Package auth resolves bearer session tokens to user identities.
//
// Tokens are never stored in the clear: the sessions table holds the
// HMAC-SHA256 of the token under a server-side pepper, so a leaked table
// cannot be replayed. The resolved user id is passed explicitly into every
// domain operation; nothing downstream reads ambient auth state.
package auth

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"time"

	"github.com/go-faster/errors"
)

// ErrUnauthorized is returned for missing, unknown, or expired tokens.
var ErrUnauthorized = errors.New("unauthorized")

// Session is an authenticated user session.
type Session struct {
	TokenHash string
	UserID    string
	ExpiresAt time.Time
}

// Repository provides lookup of sessions by token hash.
type Repository interface {
	FindByTokenHash(ctx context.Context, hash string) (*Session, error)
}

// Authenticator validates bearer tokens against stored session hashes.
type Authenticator struct {
	sessions Repository
	pepper   []byte
	now      func() time.Time
}

// NewAuthenticator creates an Authenticator with the given session repository
// and HMAC pepper.
func NewAuthenticator(sessions Repository, pepper []byte) *Authenticator {
	return &Authenticator{
		sessions: sessions,
		pepper:   pepper,
		now:      time.Now,
	}
}

// Authenticate resolves a bearer token to the owning user id. It returns
// ErrUnauthorized for unknown or expired tokens; repository failures other
// than a miss are wrapped and surfaced as-is.
func (a *Authenticator) Authenticate(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", ErrUnauthorized
	}

	mac := hmac.New(sha256.New, a.pepper)
	mac.Write([]byte(token))
	hash := mac.Sum(nil)

	sess, err := a.sessions.FindByTokenHash(ctx, hex.EncodeToString(hash))
	if err != nil {
		if errors.Is(err, ErrUnauthorized) {
			return "", ErrUnauthorized
		}
		return "", errors.Wrap(err, "find session")
	}

	// Constant-time re-check of the stored hash guards against a repository
	// returning a stale or wrong row.
	stored, err := hex.DecodeString(sess.TokenHash)
	if err != nil || subtle.ConstantTimeCompare(hash, stored) != 1 {
		return "", ErrUnauthorized
	}

	if a.now().After(sess.ExpiresAt) {
		return "", ErrUnauthorized
	}

	return sess.UserID, nil
}

// HashToken returns the hex HMAC-SHA256 of token under pepper. Used by
// seeding and session creation to store new tokens.
func HashToken(token string, pepper []byte) string {
	mac := hmac.New(sha256.New, pepper)
	mac.Write([]byte(token))
	return hex.EncodeToString(mac.Sum(nil))
}
