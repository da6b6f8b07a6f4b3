package session

import (
	"errors"
	"fmt"
	"time"

	"golang.org/x/oauth2"
)

const (
	DefaultTokenType = "Bearer"
	// DefaultOAuth1TTL is how long an OAuth1 token is trusted when its expiry is unknown.
	DefaultOAuth1TTL = 365 * 24 * time.Hour
)

var (
	ErrEmptyAccessToken  = errors.New("empty access token")
	ErrExpiryBeforeIssue = errors.New("token expiry is not after issue time")
)

// Token is the short lived bearer token used for Connect API calls.
type Token struct {
	AccessToken      string    `json:"access_token"`
	TokenType        string    `json:"token_type"`
	RefreshToken     string    `json:"refresh_token,omitempty"`
	Scope            string    `json:"scope,omitempty"`
	IssuedAt         time.Time `json:"issued_at"`
	ExpiresAt        time.Time `json:"expires_at"`
	RefreshExpiresAt time.Time `json:"refresh_expires_at,omitempty"`
}

func (t Token) Validate() error {
	if t.AccessToken == "" {
		return ErrEmptyAccessToken
	}
	if !t.ExpiresAt.After(t.IssuedAt) {
		return fmt.Errorf("%w: issued %s, expires %s", ErrExpiryBeforeIssue, t.IssuedAt, t.ExpiresAt)
	}
	return nil
}

// Valid reports whether the token can still be used at now, keeping buffer in reserve.
func (t Token) Valid(now time.Time, buffer time.Duration) bool {
	if t.AccessToken == "" {
		return false
	}
	return now.Add(buffer).Before(t.ExpiresAt)
}

func (t Token) Type() string {
	if t.TokenType == "" {
		return DefaultTokenType
	}
	return t.TokenType
}

func (t Token) OAuth2() *oauth2.Token {
	return &oauth2.Token{
		AccessToken:  t.AccessToken,
		TokenType:    t.Type(),
		RefreshToken: t.RefreshToken,
		Expiry:       t.ExpiresAt,
	}
}

// OAuth1Token is the long lived token minted from the SSO ticket.
// It is exchanged for a fresh OAuth2 Token whenever the latter expires.
type OAuth1Token struct {
	Token        string    `json:"oauth_token"`
	Secret       string    `json:"oauth_token_secret"`
	MFAToken     string    `json:"mfa_token,omitempty"`
	MFAExpiresAt time.Time `json:"mfa_expires_at,omitempty"`
	ExpiresAt    time.Time `json:"expires_at,omitempty"`
}

func (t OAuth1Token) Empty() bool {
	return t.Token == "" || t.Secret == ""
}

// Expired reports whether a known expiry has passed at now.
func (t OAuth1Token) Expired(now time.Time) bool {
	return !t.ExpiresAt.IsZero() && !now.Before(t.ExpiresAt)
}

type Session struct {
	OAuth1  OAuth1Token `json:"oauth1"`
	OAuth2  Token       `json:"oauth2"`
	Subject string      `json:"subject,omitempty"`
}

// CanRefresh reports whether the OAuth1 part can mint a new OAuth2 token.
func (s *Session) CanRefresh() bool {
	return s != nil && !s.OAuth1.Empty()
}

// Horizon is the latest moment the session is of any use, it drives store TTLs.
// While the OAuth1 token can mint new access tokens the session lives until
// the OAuth1 expiry, or DefaultOAuth1TTL after the last issue when that is unknown.
func (s *Session) Horizon() time.Time {
	horizon := s.OAuth2.ExpiresAt
	if s.OAuth2.RefreshExpiresAt.After(horizon) {
		horizon = s.OAuth2.RefreshExpiresAt
	}
	if !s.CanRefresh() {
		return horizon
	}

	oauth1Expiry := s.OAuth1.ExpiresAt
	if oauth1Expiry.IsZero() && !s.OAuth2.IssuedAt.IsZero() {
		oauth1Expiry = s.OAuth2.IssuedAt.Add(DefaultOAuth1TTL)
	}
	if oauth1Expiry.After(horizon) {
		horizon = oauth1Expiry
	}
	if s.OAuth1.MFAExpiresAt.After(horizon) {
		horizon = s.OAuth1.MFAExpiresAt
	}
	return horizon
}
