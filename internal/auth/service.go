package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/2beens/garminpartner/internal/garmin/oauth"
	"github.com/2beens/garminpartner/internal/session"
	"github.com/2beens/garminpartner/internal/sessionstore"
	"github.com/2beens/garminpartner/internal/telemetry/metrics"
	"github.com/2beens/garminpartner/internal/telemetry/tracing"

	log "github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
)

const DefaultRefreshBuffer = time.Minute

var (
	ErrMissingCredentials = errors.New("email and password are required")
	ErrNotAuthenticated   = errors.New("not authenticated")
)

//go:generate mockgen -source=$GOFILE -destination=service_mocks_test.go -package=auth_test

type ssoClient interface {
	Login(ctx context.Context, email, password string) (string, error)
}

type oauthClient interface {
	Preauthorize(ctx context.Context, ticket string) (session.OAuth1Token, error)
	Exchange(ctx context.Context, oauth1Token session.OAuth1Token) (session.Token, error)
}

type sessionStore interface {
	Load(ctx context.Context) (*session.Session, error)
	Save(ctx context.Context, s *session.Session) error
	Clear(ctx context.Context) error
}

type Service struct {
	sso            ssoClient
	oauth          oauthClient
	store          sessionStore
	metricsManager *metrics.Manager
	refreshBuffer  time.Duration
	oauth1TTL      time.Duration
	baseClient     *http.Client

	// serializes refreshes so concurrent callers do not mint several tokens
	refreshMutex sync.Mutex
}

func NewService(
	sso ssoClient,
	oauth oauthClient,
	store sessionStore,
	metricsManager *metrics.Manager,
	refreshBuffer time.Duration,
	baseClient *http.Client,
) *Service {
	if refreshBuffer <= 0 {
		refreshBuffer = DefaultRefreshBuffer
	}
	if baseClient == nil {
		baseClient = http.DefaultClient
	}
	return &Service{
		sso:            sso,
		oauth:          oauth,
		store:          store,
		metricsManager: metricsManager,
		refreshBuffer:  refreshBuffer,
		oauth1TTL:      session.DefaultOAuth1TTL,
		baseClient:     baseClient,
	}
}

// SetOAuth1TTL sets how long a fresh OAuth1 token is trusted for, Garmin does not say.
func (s *Service) SetOAuth1TTL(ttl time.Duration) {
	if ttl <= 0 {
		ttl = session.DefaultOAuth1TTL
	}
	s.oauth1TTL = ttl
}

// GetValidAuth returns the stored session if its access token is still
// usable, nil otherwise. It never touches the network.
func (s *Service) GetValidAuth(ctx context.Context) (*session.Session, error) {
	sess, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	if sess == nil || !sess.OAuth2.Valid(time.Now(), s.refreshBuffer) {
		return nil, nil
	}
	return sess, nil
}

// Stored returns whatever session is persisted, expired or not.
func (s *Service) Stored(ctx context.Context) (*session.Session, error) {
	return s.load(ctx)
}

func (s *Service) Authenticate(ctx context.Context, email, password string) (_ *session.Session, err error) {
	ctx, span := tracing.StartSpan(ctx, "auth.authenticate")
	defer func() {
		s.metricsManager.CounterLogins.WithLabelValues(metrics.Result(err)).Inc()
		tracing.EndSpanWithErrCheck(span, err)
	}()

	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, ErrMissingCredentials
	}

	ticket, err := s.sso.Login(ctx, email, password)
	if err != nil {
		return nil, fmt.Errorf("sso login: %w", err)
	}

	oauth1Token, err := s.oauth.Preauthorize(ctx, ticket)
	if err != nil {
		return nil, fmt.Errorf("preauthorize: %w", err)
	}
	if oauth1Token.ExpiresAt.IsZero() {
		oauth1Token.ExpiresAt = time.Now().Add(s.oauth1TTL)
	}

	token, err := s.oauth.Exchange(ctx, oauth1Token)
	if err != nil {
		return nil, fmt.Errorf("exchange oauth1 token: %w", err)
	}

	sess := &session.Session{
		OAuth1:  oauth1Token,
		OAuth2:  token,
		Subject: subjectOf(token),
	}
	if err := s.store.Save(ctx, sess); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}

	log.Infof("authenticated garmin account [%s], token valid until %s", sess.Subject, token.ExpiresAt.Format(time.RFC3339))
	return sess, nil
}

// Refresh mints a new access token from the stored OAuth1 token.
func (s *Service) Refresh(ctx context.Context) (_ *session.Session, err error) {
	s.refreshMutex.Lock()
	defer s.refreshMutex.Unlock()

	ctx, span := tracing.StartSpan(ctx, "auth.refresh")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	sess, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	if !sess.CanRefresh() {
		return nil, ErrNotAuthenticated
	}
	if sess.OAuth1.Expired(time.Now()) {
		return nil, fmt.Errorf("%w: oauth1 token expired at %s", ErrNotAuthenticated, sess.OAuth1.ExpiresAt.Format(time.RFC3339))
	}

	// another caller may have refreshed while we waited on the mutex
	if sess.OAuth2.Valid(time.Now(), s.refreshBuffer) {
		return sess, nil
	}

	token, err := s.oauth.Exchange(ctx, sess.OAuth1)
	s.metricsManager.CounterTokenRefreshes.WithLabelValues(metrics.Result(err)).Inc()
	if err != nil {
		if rejected(err) {
			return nil, fmt.Errorf("%w: refresh: %w", ErrNotAuthenticated, err)
		}
		return nil, fmt.Errorf("refresh: %w", err)
	}

	sess.OAuth2 = token
	if subject := subjectOf(token); subject != "" {
		sess.Subject = subject
	}
	if err := s.store.Save(ctx, sess); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}

	log.Debugf("access token refreshed, valid until %s", token.ExpiresAt.Format(time.RFC3339))
	return sess, nil
}

// TokenSource yields a valid access token, refreshing it when it is about to expire.
func (s *Service) TokenSource(ctx context.Context) oauth2.TokenSource {
	var initial *oauth2.Token
	if sess, err := s.GetValidAuth(ctx); err == nil && sess != nil {
		initial = sess.OAuth2.OAuth2()
	}
	return oauth2.ReuseTokenSourceWithExpiry(initial, &refresher{ctx: ctx, service: s}, s.refreshBuffer)
}

// HTTPClient returns a client that sends the bearer token on every request.
func (s *Service) HTTPClient(ctx context.Context) *http.Client {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, s.baseClient)
	client := oauth2.NewClient(ctx, s.TokenSource(ctx))
	client.Timeout = s.baseClient.Timeout
	return client
}

func (s *Service) ClearAuth(ctx context.Context) error {
	if err := s.store.Clear(ctx); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	log.Infoln("stored session cleared")
	return nil
}

func (s *Service) load(ctx context.Context) (*session.Session, error) {
	sess, err := s.store.Load(ctx)
	if errors.Is(err, sessionstore.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	return sess, nil
}

// rejected reports whether garmin refused the OAuth1 token itself,
// as opposed to the exchange failing on the way.
func rejected(err error) bool {
	var statusErr *oauth.StatusError
	if !errors.As(err, &statusErr) {
		return false
	}
	return statusErr.StatusCode == http.StatusUnauthorized || statusErr.StatusCode == http.StatusForbidden
}

func subjectOf(token session.Token) string {
	claims, err := session.ParseClaims(token.AccessToken)
	if err != nil {
		log.Tracef("access token is not a jwt: %s", err)
		return ""
	}
	return claims.Subject
}

type refresher struct {
	ctx     context.Context
	service *Service
}

func (r *refresher) Token() (*oauth2.Token, error) {
	if sess, err := r.service.GetValidAuth(r.ctx); err != nil {
		return nil, err
	} else if sess != nil {
		return sess.OAuth2.OAuth2(), nil
	}

	sess, err := r.service.Refresh(r.ctx)
	if err != nil {
		return nil, err
	}
	return sess.OAuth2.OAuth2(), nil
}
