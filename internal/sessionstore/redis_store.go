package sessionstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/2beens/garminpartner/internal/session"
	"github.com/2beens/garminpartner/internal/telemetry/tracing"

	"github.com/go-redis/redis/v8"
	log "github.com/sirupsen/logrus"
)

const sessionKeyPrefix = "garminpartner-session||"

// RedisStore shares one sealed session per profile between machines.
type RedisStore struct {
	redisClient *redis.Client
	key         string
	sealer      *Sealer
	now         func() time.Time
}

func NewRedisStore(redisClient *redis.Client, profile string, sealer *Sealer) *RedisStore {
	return &RedisStore{
		redisClient: redisClient,
		key:         sessionKeyPrefix + profile,
		sealer:      sealer,
		now:         time.Now,
	}
}

func (rs *RedisStore) Load(ctx context.Context) (_ *session.Session, err error) {
	ctx, span := tracing.StartSpan(ctx, "sessionstore.redis.load")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	sealed, err := rs.redisClient.Get(ctx, rs.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("redis get session: %w", err)
	}

	s, err := unseal(rs.sealer, sealed)
	if err != nil {
		return nil, fmt.Errorf("unseal session: %w", err)
	}

	return s, nil
}

func (rs *RedisStore) Save(ctx context.Context, s *session.Session) (err error) {
	ctx, span := tracing.StartSpan(ctx, "sessionstore.redis.save")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	// redis reads a zero ttl as "keep forever", a dead session is dropped instead
	ttl := s.Horizon().Sub(rs.now()).Truncate(time.Second)
	if ttl <= 0 {
		log.Warnf("session for [%s] is already past its horizon, not storing it", rs.key)
		if err := rs.redisClient.Del(ctx, rs.key).Err(); err != nil {
			return fmt.Errorf("redis del expired session: %w", err)
		}
		return nil
	}

	sealed, err := seal(rs.sealer, s)
	if err != nil {
		return err
	}

	if err := rs.redisClient.Set(ctx, rs.key, sealed, ttl).Err(); err != nil {
		return fmt.Errorf("redis set session: %w", err)
	}

	return nil
}

func (rs *RedisStore) Clear(ctx context.Context) (err error) {
	ctx, span := tracing.StartSpan(ctx, "sessionstore.redis.clear")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if err := rs.redisClient.Del(ctx, rs.key).Err(); err != nil {
		return fmt.Errorf("redis del session: %w", err)
	}

	return nil
}
