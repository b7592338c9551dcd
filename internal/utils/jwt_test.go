package utils

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTokens() *TokenService {
	return NewTokenService("test-secret", 15*time.Minute, 7*24*time.Hour)
}

func TestIssueAndVerify(t *testing.T) {
	s := newTestTokens()

	pair, err := s.Issue(42, "alice@example.com")
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)
	assert.NotEqual(t, pair.AccessToken, pair.RefreshToken)

	access, err := s.Verify(pair.AccessToken)
	require.NoError(t, err)
	id, err := access.UserID()
	require.NoError(t, err)
	assert.Equal(t, uint64(42), id)
	assert.Equal(t, "alice@example.com", access.Email)
	assert.NotEmpty(t, access.ID)

	refresh, err := s.Verify(pair.RefreshToken)
	require.NoError(t, err)
	assert.True(t, refresh.ExpiresAt.After(access.ExpiresAt.Time))
}

func TestIssue_SameSecondTokensDiffer(t *testing.T) {
	s := newTestTokens()
	fixed := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return fixed }

	a, err := s.Issue(1, "a@example.com")
	require.NoError(t, err)
	b, err := s.Issue(1, "a@example.com")
	require.NoError(t, err)

	assert.NotEqual(t, a.AccessToken, b.AccessToken)
	assert.NotEqual(t, a.RefreshToken, b.RefreshToken)
}

func TestVerify_Expired(t *testing.T) {
	s := newTestTokens()
	s.now = func() time.Time { return time.Now().Add(-time.Hour) }
	pair, err := s.Issue(1, "a@example.com")
	require.NoError(t, err)

	s.now = time.Now
	_, err = s.Verify(pair.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)

	// the refresh window is longer and still valid
	_, err = s.Verify(pair.RefreshToken)
	assert.NoError(t, err)
}

func TestVerify_WrongSecret(t *testing.T) {
	pair, err := newTestTokens().Issue(1, "a@example.com")
	require.NoError(t, err)

	other := NewTokenService("another-secret", time.Minute, time.Hour)
	_, err = other.Verify(pair.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerify_RejectsOtherAlgorithms(t *testing.T) {
	claims := Claims{
		Email: "a@example.com",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = newTestTokens().Verify(none)
	assert.ErrorIs(t, err, ErrInvalidToken)

	hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	_, err = newTestTokens().Verify(hs512)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerify_Malformed(t *testing.T) {
	s := newTestTokens()
	for _, raw := range []string{"", "abc", "a.b.c", strings.Repeat("x", 300)} {
		_, err := s.Verify(raw)
		assert.ErrorIs(t, err, ErrInvalidToken, raw)
	}
}

func TestVerify_MissingExpiry(t *testing.T) {
	claims := Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "1"}}
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	_, err = newTestTokens().Verify(raw)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerify_BadSubject(t *testing.T) {
	claims := Claims{RegisteredClaims: jwt.RegisteredClaims{
		Subject:   "not-a-number",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}}
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	_, err = newTestTokens().Verify(raw)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
