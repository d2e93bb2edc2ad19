package auth

import (
	"context"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockSessions struct {
	byHash map[string]*Session
	err    error
}

func (m *mockSessions) FindByTokenHash(_ context.Context, hash string) (*Session, error) {
	if m.err != nil {
		return nil, m.err
	}
	s, ok := m.byHash[hash]
	if !ok {
		return nil, ErrUnauthorized
	}
	return s, nil
}

var pepper = []byte("test-pepper")

func seededSessions(token, userID string, expiresAt time.Time) *mockSessions {
	hash := HashToken(token, pepper)
	return &mockSessions{byHash: map[string]*Session{
		hash: {TokenHash: hash, UserID: userID, ExpiresAt: expiresAt},
	}}
}

func TestAuthenticate_ValidToken(t *testing.T) {
	a := NewAuthenticator(seededSessions("tok", "u1", time.Now().Add(time.Hour)), pepper)

	userID, err := a.Authenticate(context.Background(), "tok")

	require.NoError(t, err)
	assert.Equal(t, "u1", userID)
}

func TestAuthenticate_EmptyToken(t *testing.T) {
	a := NewAuthenticator(&mockSessions{}, pepper)

	_, err := a.Authenticate(context.Background(), "")
	require.ErrorIs(t, err, ErrUnauthorized)
}

func TestAuthenticate_UnknownToken(t *testing.T) {
	a := NewAuthenticator(seededSessions("tok", "u1", time.Now().Add(time.Hour)), pepper)

	_, err := a.Authenticate(context.Background(), "other")
	require.ErrorIs(t, err, ErrUnauthorized)
}

func TestAuthenticate_ExpiredSession(t *testing.T) {
	a := NewAuthenticator(seededSessions("tok", "u1", time.Now().Add(-time.Minute)), pepper)

	_, err := a.Authenticate(context.Background(), "tok")
	require.ErrorIs(t, err, ErrUnauthorized)
}

func TestAuthenticate_WrongPepper(t *testing.T) {
	sessions := seededSessions("tok", "u1", time.Now().Add(time.Hour))
	a := NewAuthenticator(sessions, []byte("different-pepper"))

	_, err := a.Authenticate(context.Background(), "tok")
	require.ErrorIs(t, err, ErrUnauthorized)
}

func TestAuthenticate_RepositoryError(t *testing.T) {
	a := NewAuthenticator(&mockSessions{err: errors.New("db down")}, pepper)

	_, err := a.Authenticate(context.Background(), "tok")

	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrUnauthorized)
	assert.Contains(t, err.Error(), "find session")
}
