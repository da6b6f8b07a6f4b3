// Package oauth trades an SSO service ticket for an OAuth1 token and
// an OAuth1 token for short lived OAuth2 bearer tokens.
package oauth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/2beens/garminpartner/internal/session"
	"github.com/2beens/garminpartner/internal/telemetry/tracing"

	"github.com/dghubble/oauth1"
	log "github.com/sirupsen/logrus"
)

const (
	defaultExpiresIn      = 3600 * time.Second
	mfaExpirationLayout   = "2006-01-02 15:04:05.000"
	maxOAuthResponseBytes = 1 << 20
)

var (
	ErrNoConsumer     = errors.New("oauth consumer credentials unavailable")
	ErrMissingOAuth1  = errors.New("oauth1 token missing in response")
	ErrMissingOAuth2  = errors.New("access token missing in response")
	ErrOAuth1Required = errors.New("oauth1 token required")
)

type Consumer struct {
	Key    string `json:"consumer_key"`
	Secret string `json:"consumer_secret"`
}

type ClientParams struct {
	HTTPClient  *http.Client
	APIURL      string
	ConsumerURL string
	LoginURL    string
	UserAgent   string
}

type Client struct {
	httpClient  *http.Client
	apiURL      string
	consumerURL string
	loginURL    string
	userAgent   string
	now         func() time.Time

	mu       sync.Mutex
	consumer *Consumer
}

type exchangeResponse struct {
	Scope                 string `json:"scope"`
	AccessToken           string `json:"access_token"`
	TokenType             string `json:"token_type"`
	RefreshToken          string `json:"refresh_token"`
	ExpiresIn             int64  `json:"expires_in"`
	RefreshTokenExpiresIn int64  `json:"refresh_token_expires_in"`
}

func NewClient(params ClientParams) *Client {
	httpClient := params.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return &Client{
		httpClient:  httpClient,
		apiURL:      strings.TrimSuffix(params.APIURL, "/"),
		consumerURL: params.ConsumerURL,
		loginURL:    params.LoginURL,
		userAgent:   params.UserAgent,
		now:         time.Now,
	}
}

// SetConsumer pins the consumer credentials so they are never fetched.
func (c *Client) SetConsumer(key, secret string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.consumer = &Consumer{Key: key, Secret: secret}
}

// Consumer returns the app consumer credentials, fetching them once per process.
func (c *Client) Consumer(ctx context.Context) (Consumer, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.consumer != nil {
		return *c.consumer, nil
	}

	if c.consumerURL == "" {
		return Consumer{}, ErrNoConsumer
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.consumerURL, nil)
	if err != nil {
		return Consumer{}, err
	}

	body, err := c.do(c.httpClient, req)
	if err != nil {
		return Consumer{}, fmt.Errorf("%w: %s", ErrNoConsumer, err)
	}

	consumer := &Consumer{}
	if err := json.Unmarshal(body, consumer); err != nil {
		return Consumer{}, fmt.Errorf("%w: unmarshal: %s", ErrNoConsumer, err)
	}
	if consumer.Key == "" || consumer.Secret == "" {
		return Consumer{}, ErrNoConsumer
	}

	c.consumer = consumer
	log.Debugln("oauth consumer credentials fetched")

	return *consumer, nil
}

// Preauthorize trades the sso service ticket for the long lived OAuth1 token.
func (c *Client) Preauthorize(ctx context.Context, ticket string) (_ session.OAuth1Token, err error) {
	ctx, span := tracing.StartSpan(ctx, "oauth.preauthorize")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	consumer, err := c.Consumer(ctx)
	if err != nil {
		return session.OAuth1Token{}, err
	}

	params := url.Values{
		"ticket":             {ticket},
		"login-url":          {c.loginURL},
		"accepts-mfa-tokens": {"true"},
	}
	reqURL := c.apiURL + "/oauth-service/oauth/preauthorized?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return session.OAuth1Token{}, err
	}

	body, err := c.do(c.signingClient(ctx, consumer, oauth1.NewToken("", "")), req)
	if err != nil {
		return session.OAuth1Token{}, fmt.Errorf("preauthorize: %w", err)
	}

	values, err := url.ParseQuery(string(body))
	if err != nil {
		return session.OAuth1Token{}, fmt.Errorf("parse preauthorize response: %w", err)
	}

	tok := session.OAuth1Token{
		Token:    values.Get("oauth_token"),
		Secret:   values.Get("oauth_token_secret"),
		MFAToken: values.Get("mfa_token"),
	}
	if tok.Empty() {
		return session.OAuth1Token{}, ErrMissingOAuth1
	}

	if exp := values.Get("mfa_expiration_timestamp"); exp != "" {
		if parsed, err := time.Parse(mfaExpirationLayout, exp); err == nil {
			tok.MFAExpiresAt = parsed
		} else {
			log.Debugf("ignoring unparsable mfa expiration %q: %s", exp, err)
		}
	}

	return tok, nil
}

// Exchange mints a fresh OAuth2 token from the OAuth1 token.
func (c *Client) Exchange(ctx context.Context, oauth1Token session.OAuth1Token) (_ session.Token, err error) {
	ctx, span := tracing.StartSpan(ctx, "oauth.exchange")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if oauth1Token.Empty() {
		return session.Token{}, ErrOAuth1Required
	}

	consumer, err := c.Consumer(ctx)
	if err != nil {
		return session.Token{}, err
	}

	form := url.Values{}
	if oauth1Token.MFAToken != "" {
		form.Set("mfa_token", oauth1Token.MFAToken)
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		c.apiURL+"/oauth-service/oauth/exchange/user/2.0",
		strings.NewReader(form.Encode()),
	)
	if err != nil {
		return session.Token{}, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	signing := c.signingClient(ctx, consumer, oauth1.NewToken(oauth1Token.Token, oauth1Token.Secret))
	body, err := c.do(signing, req)
	if err != nil {
		return session.Token{}, fmt.Errorf("exchange: %w", err)
	}

	var resp exchangeResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return session.Token{}, fmt.Errorf("unmarshal exchange response: %w", err)
	}
	if resp.AccessToken == "" {
		return session.Token{}, ErrMissingOAuth2
	}

	return c.tokenFromResponse(resp), nil
}

func (c *Client) tokenFromResponse(resp exchangeResponse) session.Token {
	now := c.now().UTC()
	tok := session.Token{
		AccessToken:  resp.AccessToken,
		TokenType:    resp.TokenType,
		RefreshToken: resp.RefreshToken,
		Scope:        resp.Scope,
		IssuedAt:     now,
	}

	switch {
	case resp.ExpiresIn > 0:
		tok.ExpiresAt = now.Add(time.Duration(resp.ExpiresIn) * time.Second)
	default:
		tok.ExpiresAt = now.Add(defaultExpiresIn)
		if claims, err := session.ParseClaims(resp.AccessToken); err == nil && claims.ExpiresAt.After(now) {
			tok.ExpiresAt = claims.ExpiresAt
		}
	}

	if resp.RefreshTokenExpiresIn > 0 {
		tok.RefreshExpiresAt = now.Add(time.Duration(resp.RefreshTokenExpiresIn) * time.Second)
	}

	return tok
}

func (c *Client) signingClient(ctx context.Context, consumer Consumer, token *oauth1.Token) *http.Client {
	config := oauth1.NewConfig(consumer.Key, consumer.Secret)
	signing := config.Client(context.WithValue(ctx, oauth1.HTTPClient, c.httpClient), token)
	signing.Timeout = c.httpClient.Timeout
	return signing
}

func (c *Client) do(httpClient *http.Client, req *http.Request) ([]byte, error) {
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http client do: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxOAuthResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	return body, nil
}

type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	body := e.Body
	if len(body) > 200 {
		body = body[:200]
	}
	return fmt.Sprintf("unexpected status %d: %s", e.StatusCode, body)
}
