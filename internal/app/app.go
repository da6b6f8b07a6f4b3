package app

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"

	"github.com/2beens/garminpartner/internal/auth"
	"github.com/2beens/garminpartner/internal/config"
	"github.com/2beens/garminpartner/internal/garmin/connect"
	"github.com/2beens/garminpartner/internal/garmin/oauth"
	"github.com/2beens/garminpartner/internal/garmin/sso"
	"github.com/2beens/garminpartner/internal/history"
	"github.com/2beens/garminpartner/internal/sessionstore"
	"github.com/2beens/garminpartner/internal/telemetry/metrics"
	"github.com/2beens/garminpartner/internal/telemetry/tracing"
	"github.com/2beens/garminpartner/internal/uploader"

	"github.com/go-redis/redis/extra/redisotel/v8"
	"github.com/go-redis/redis/v8"
	log "github.com/sirupsen/logrus"
	"go.uber.org/multierr"
)

const (
	metricsNamespace = "garminpartner"
	metricsJob       = "garminpartner_cli"
	sessionKeyFile   = "session.key"
)

type NewAppParams struct {
	Config           *config.Config
	MFAPrompt        sso.MFAPrompt
	Out              io.Writer
	TracingEnabled   bool
	MetricsSubsystem string
}

// App wires the garmin clients, the session store and the upload history
// together and runs the CLI commands on top of them.
type App struct {
	cfg            *config.Config
	out            io.Writer
	metricsManager *metrics.Manager
	auth           *auth.Service
	connect        *connect.Client
	uploader       *uploader.Service
	history        history.Repo
	closers        []io.Closer
}

func NewApp(ctx context.Context, params NewAppParams) (*App, error) {
	cfg := params.Config
	out := params.Out
	if out == nil {
		out = os.Stdout
	}

	subsystem := params.MetricsSubsystem
	if subsystem == "" {
		subsystem = "cli"
	}
	promRegistry := metrics.NewRegistry()
	metricsManager := metrics.NewManager(metricsNamespace, subsystem, promRegistry)

	transport := tracing.NewTransport(http.DefaultTransport)
	baseClient := &http.Client{
		Transport: transport,
		Timeout:   cfg.HTTPTimeout.Duration,
	}

	app := &App{
		cfg:            cfg,
		out:            out,
		metricsManager: metricsManager,
	}

	store, storeCloser, err := newSessionStore(ctx, cfg, params.TracingEnabled)
	if err != nil {
		return nil, fmt.Errorf("session store: %w", err)
	}
	if storeCloser != nil {
		app.closers = append(app.closers, storeCloser)
	}

	ssoClient, err := sso.NewClient(cfg.SSOURL, cfg.SSOUserAgent, transport, cfg.HTTPTimeout.Duration)
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("sso client: %w", err)
	}
	ssoClient.SetMFAPrompt(params.MFAPrompt)

	oauthClient := oauth.NewClient(oauth.ClientParams{
		HTTPClient:  baseClient,
		APIURL:      cfg.APIURL,
		ConsumerURL: cfg.OAuthConsumerURL,
		LoginURL:    ssoClient.EmbedURL(),
		UserAgent:   cfg.UserAgent,
	})
	if cfg.OAuthConsumerKey != "" && cfg.OAuthConsumerSecret != "" {
		oauthClient.SetConsumer(cfg.OAuthConsumerKey, cfg.OAuthConsumerSecret)
	}

	app.auth = auth.NewService(
		ssoClient,
		oauthClient,
		store,
		metricsManager,
		cfg.TokenRefreshBuffer.Duration,
		baseClient,
	)
	app.auth.SetOAuth1TTL(cfg.OAuth1TTL.Duration)

	app.connect = connect.NewClient(connect.ClientParams{
		HTTPClient:        app.auth.HTTPClient(ctx),
		BaseURL:           cfg.APIURL,
		UserAgent:         cfg.UserAgent,
		RequestsPerSecond: cfg.RequestsPerSecond,
		MaxRetries:        cfg.MaxRetries,
		CacheSizeMB:       cfg.CacheSizeMB,
		CacheTTL:          cfg.CacheTTL.Duration,
		MetricsManager:    metricsManager,
	})

	app.history, err = history.Open(ctx, history.OpenParams{
		Config:          cfg,
		TracingEnabled:  params.TracingEnabled,
		MetricsRegistry: promRegistry,
	})
	if err != nil {
		log.Errorf("upload history unavailable, continuing without it: %s", err)
		app.history = history.NopRepo{}
	}
	app.closers = append(app.closers, app.history)

	app.uploader = uploader.NewService(app.auth, app.connect, app.history, metricsManager)

	return app, nil
}

// Close releases stores and pushes the collected metrics.
func (a *App) Close() error {
	var err error
	for _, c := range a.closers {
		err = multierr.Append(err, c.Close())
	}
	if a.cfg.PushgatewayURL != "" {
		err = multierr.Append(err, a.metricsManager.Push(a.cfg.PushgatewayURL, metricsJob))
	}
	return err
}

func newSealer(cfg *config.Config) (*sessionstore.Sealer, error) {
	if cfg.SessionPassphrase != "" {
		return sessionstore.NewPassphraseSealer(cfg.SessionPassphrase)
	}
	log.Debugln("no session passphrase set, using the local key file")
	return sessionstore.NewKeyFileSealer(filepath.Join(filepath.Dir(cfg.SessionFilePath), sessionKeyFile))
}

func newSessionStore(ctx context.Context, cfg *config.Config, tracingEnabled bool) (sessionstore.Store, io.Closer, error) {
	sealer, err := newSealer(cfg)
	if err != nil {
		return nil, nil, err
	}

	switch cfg.SessionStore {
	case config.SessionStoreRedis:
		rdb := redis.NewClient(&redis.Options{
			Addr:     net.JoinHostPort(cfg.RedisHost, cfg.RedisPort),
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if tracingEnabled {
			rdb.AddHook(redisotel.NewTracingHook())
		}
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Errorf("failed to ping redis: %s", err)
		}
		return sessionstore.NewRedisStore(rdb, cfg.SessionProfile, sealer), rdb, nil
	default:
		return sessionstore.NewFileStore(cfg.SessionFilePath, sealer), nil, nil
	}
}
