package session

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToken_Validate(t *testing.T) {
	now := time.Now()

	tok := Token{AccessToken: "abc", IssuedAt: now, ExpiresAt: now.Add(time.Hour)}
	require.NoError(t, tok.Validate())

	tok.ExpiresAt = now
	require.ErrorIs(t, tok.Validate(), ErrExpiryBeforeIssue)

	tok.ExpiresAt = now.Add(-time.Second)
	require.ErrorIs(t, tok.Validate(), ErrExpiryBeforeIssue)

	tok.AccessToken = ""
	require.ErrorIs(t, tok.Validate(), ErrEmptyAccessToken)
}

func TestToken_Valid(t *testing.T) {
	now := time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)
	tok := Token{AccessToken: "abc", IssuedAt: now.Add(-time.Hour), ExpiresAt: now.Add(2 * time.Minute)}

	assert.True(t, tok.Valid(now, time.Minute))
	assert.False(t, tok.Valid(now, 2*time.Minute))
	assert.False(t, tok.Valid(now.Add(90*time.Second), time.Minute))
	assert.True(t, tok.Valid(now.Add(90*time.Second), 0))
	assert.False(t, Token{ExpiresAt: now.Add(time.Hour)}.Valid(now, 0))
}

func TestToken_OAuth2(t *testing.T) {
	exp := time.Now().Add(time.Hour)
	tok := Token{AccessToken: "abc", RefreshToken: "ref", ExpiresAt: exp}

	o := tok.OAuth2()
	assert.Equal(t, "abc", o.AccessToken)
	assert.Equal(t, "Bearer", o.TokenType)
	assert.Equal(t, "ref", o.RefreshToken)
	assert.Equal(t, exp, o.Expiry)
	assert.True(t, o.Valid())
}

func TestSession_Horizon(t *testing.T) {
	now := time.Now()
	s := &Session{
		OAuth2: Token{AccessToken: "a", ExpiresAt: now.Add(time.Hour)},
	}
	assert.False(t, s.CanRefresh())
	assert.Equal(t, now.Add(time.Hour), s.Horizon())

	s.OAuth2.RefreshExpiresAt = now.Add(24 * time.Hour)
	assert.Equal(t, now.Add(24*time.Hour), s.Horizon())

	s.OAuth1 = OAuth1Token{Token: "t", Secret: "s", MFAExpiresAt: now.Add(365 * 24 * time.Hour)}
	assert.True(t, s.CanRefresh())
	assert.Equal(t, now.Add(365*24*time.Hour), s.Horizon())

	var nilSession *Session
	assert.False(t, nilSession.CanRefresh())
}

func TestSession_HorizonFollowsOAuth1(t *testing.T) {
	now := time.Date(2026, 10, 16, 8, 0, 0, 0, time.UTC)
	s := &Session{
		OAuth1: OAuth1Token{Token: "t", Secret: "s"},
		OAuth2: Token{AccessToken: "a", IssuedAt: now, ExpiresAt: now.Add(time.Hour)},
	}

	// no refresh expiry and no oauth1 expiry: the oauth1 token is still trusted for a year
	assert.Equal(t, now.Add(DefaultOAuth1TTL), s.Horizon())

	s.OAuth1.ExpiresAt = now.Add(90 * 24 * time.Hour)
	assert.Equal(t, now.Add(90*24*time.Hour), s.Horizon())

	s.OAuth1 = OAuth1Token{}
	assert.Equal(t, now.Add(time.Hour), s.Horizon())
}

func TestOAuth1Token_Expired(t *testing.T) {
	now := time.Now()
	assert.False(t, OAuth1Token{}.Expired(now))
	assert.False(t, OAuth1Token{ExpiresAt: now.Add(time.Minute)}.Expired(now))
	assert.True(t, OAuth1Token{ExpiresAt: now}.Expired(now))
	assert.True(t, OAuth1Token{ExpiresAt: now.Add(-time.Minute)}.Expired(now))
}

func TestParseClaims(t *testing.T) {
	iat := time.Date(2026, 10, 16, 10, 0, 0, 0, time.UTC)
	exp := iat.Add(26 * time.Hour)
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "user-guid-1",
		IssuedAt:  jwt.NewNumericDate(iat),
		ExpiresAt: jwt.NewNumericDate(exp),
	}).SignedString([]byte("whatever"))
	require.NoError(t, err)

	claims, err := ParseClaims(signed)
	require.NoError(t, err)
	assert.Equal(t, "user-guid-1", claims.Subject)
	assert.True(t, iat.Equal(claims.IssuedAt))
	assert.True(t, exp.Equal(claims.ExpiresAt))

	_, err = ParseClaims("not-a-jwt")
	require.Error(t, err)
}
