package integration_testing

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/2beens/garminpartner/internal/config"
	"github.com/2beens/garminpartner/internal/db"

	"github.com/go-redis/redis/v8"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
)

const (
	// EnvDockerTests enables the suite, it needs a reachable docker daemon.
	EnvDockerTests = "GARMINPARTNER_DOCKER_TESTS"

	testDBName    = "garminpartner"
	dockerMaxWait = 90 * time.Second
)

type dockerDeps struct {
	pool         *dockertest.Pool
	redisPort    string
	postgresPort string
	teardown     []func()
}

func newDockerDeps() (*dockerDeps, error) {
	// uses a sensible default on windows (tcp/http) and linux/osx (socket)
	pool, err := dockertest.NewPool("")
	if err != nil {
		return nil, fmt.Errorf("could not create new dockertest pool: %w", err)
	}
	pool.MaxWait = dockerMaxWait

	// uses pool to try to connect to Docker
	if err = pool.Client.Ping(); err != nil {
		return nil, fmt.Errorf("could not ping dockertest pool: %w", err)
	}

	deps := &dockerDeps{pool: pool}

	if deps.redisPort, err = deps.redisSetup(); err != nil {
		deps.cleanup()
		return nil, fmt.Errorf("failed to setup redis: %w", err)
	}

	if deps.postgresPort, err = deps.postgresSetup(); err != nil {
		deps.cleanup()
		return nil, fmt.Errorf("failed to setup postgres: %w", err)
	}

	return deps, nil
}

func (d *dockerDeps) cleanup() {
	for _, teardown := range d.teardown {
		teardown()
	}
}

func (d *dockerDeps) redisSetup() (string, error) {
	redisResource, err := d.pool.RunWithOptions(&dockertest.RunOptions{
		Repository: "redis",
		Tag:        "6.2",
	}, func(config *docker.HostConfig) {
		config.AutoRemove = true
	})
	if err != nil {
		return "", fmt.Errorf("run redis: %w", err)
	}

	d.teardown = append(d.teardown, func() {
		_ = redisResource.Close()
	})

	redisPort := redisResource.GetPort("6379/tcp")
	err = d.pool.Retry(func() error {
		rdb := redis.NewClient(&redis.Options{Addr: net.JoinHostPort("localhost", redisPort)})
		defer rdb.Close()
		return rdb.Ping(context.Background()).Err()
	})
	if err != nil {
		return "", fmt.Errorf("wait for redis: %w", err)
	}

	return redisPort, nil
}

func (d *dockerDeps) postgresSetup() (string, error) {
	pgResource, err := d.pool.RunWithOptions(&dockertest.RunOptions{
		Repository: "postgres",
		Tag:        "16",
		Env: []string{
			"POSTGRES_USER=postgres",
			"POSTGRES_HOST_AUTH_METHOD=trust",
			"POSTGRES_DB=" + testDBName,
		},
	}, func(config *docker.HostConfig) {
		config.AutoRemove = true
		config.RestartPolicy = docker.RestartPolicy{
			Name: "no",
		}
	})
	if err != nil {
		return "", fmt.Errorf("dockerpool run postgres: %w", err)
	}

	d.teardown = append(d.teardown, func() {
		_ = pgResource.Close()
	})

	pgPort := pgResource.GetPort("5432/tcp")
	err = d.pool.Retry(func() error {
		ctx := context.Background()
		pool, err := db.NewDBPool(ctx, db.NewDBPoolParams{
			DBHost: "localhost",
			DBPort: pgPort,
			DBName: testDBName,
		})
		if err != nil {
			return err
		}
		defer pool.Close()
		return pool.Ping(ctx)
	})
	if err != nil {
		return "", fmt.Errorf("wait for postgres: %w", err)
	}

	return pgPort, nil
}

func (d *dockerDeps) config(apiURL, tempDir string) *config.Config {
	cfg := config.Default()
	cfg.SSOURL = apiURL
	cfg.APIURL = apiURL
	cfg.OAuthConsumerKey = "ck"
	cfg.OAuthConsumerSecret = "cs"
	cfg.RequestsPerSecond = 100
	cfg.SessionStore = config.SessionStoreRedis
	cfg.SessionProfile = "integration"
	cfg.SessionPassphrase = "integration passphrase"
	cfg.SessionFilePath = tempDir + "/session.bin"
	cfg.RedisHost = "localhost"
	cfg.RedisPort = d.redisPort
	cfg.HistoryDriver = config.HistoryPostgres
	cfg.PostgresHost = "localhost"
	cfg.PostgresPort = d.postgresPort
	cfg.PostgresDBName = testDBName
	return cfg
}
