package valkey

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/gomodule/redigo/redis"
	"go.uber.org/zap"

	"github.com/BarkinBalci/attribution-service/internal/config"
	"github.com/BarkinBalci/attribution-service/internal/domain"
)

const keyPrefix = "attribution:idempotency:"

// Store implements idempotency.Store on Valkey (or Redis) with SET NX EX.
// With failOpen set, an unreachable server lets the delivery through
// instead of failing it.
type Store struct {
	pool     *redis.Pool
	ttl      time.Duration
	failOpen bool
	log      *zap.Logger
}

// NewStore creates a pooled store and verifies the connection
func NewStore(ctx context.Context, cfg *config.Valkey, log *zap.Logger) (*Store, error) {
	addr := net.JoinHostPort(cfg.Host, cfg.Port)

	pool := &redis.Pool{
		MaxIdle:     10,
		IdleTimeout: 240 * time.Second,
		DialContext: func(ctx context.Context) (redis.Conn, error) {
			return redis.DialContext(ctx, "tcp", addr,
				redis.DialConnectTimeout(2*time.Second),
				redis.DialReadTimeout(time.Second),
				redis.DialWriteTimeout(time.Second))
		},
		TestOnBorrow: func(c redis.Conn, t time.Time) error {
			if time.Since(t) < time.Minute {
				return nil
			}
			_, err := c.Do("PING")
			return err
		},
	}

	s := &Store{pool: pool, ttl: cfg.IdempotencyTTL, failOpen: cfg.IdempotencyFailOpen, log: log}
	if err := s.Ping(ctx); err != nil {
		if !s.failOpen {
			_ = pool.Close()
			return nil, fmt.Errorf("failed to ping valkey: %w", err)
		}
		log.Warn("Valkey unreachable, idempotency checks will fail open", zap.String("addr", addr), zap.Error(err))
	} else {
		log.Info("Valkey connection established", zap.String("addr", addr))
	}

	return s, nil
}

// Claim sets the key if it does not exist yet
func (s *Store) Claim(ctx context.Context, key string) error {
	conn, err := s.pool.GetContext(ctx)
	if err != nil {
		return s.unavailable("claim", key, err)
	}
	defer conn.Close()

	args := []any{keyPrefix + key, 1, "NX"}
	if s.ttl > 0 {
		args = append(args, "EX", int64(s.ttl.Seconds()))
	}

	_, err = redis.String(redis.DoContext(conn, ctx, "SET", args...))
	if errors.Is(err, redis.ErrNil) {
		return domain.ErrDuplicate
	}
	if err != nil {
		return s.unavailable("claim", key, err)
	}
	return nil
}

// Release deletes the key so the delivery can be retried
func (s *Store) Release(ctx context.Context, key string) error {
	conn, err := s.pool.GetContext(ctx)
	if err != nil {
		return s.unavailable("release", key, err)
	}
	defer conn.Close()

	if _, err := redis.DoContext(conn, ctx, "DEL", keyPrefix+key); err != nil {
		return s.unavailable("release", key, err)
	}
	return nil
}

func (s *Store) unavailable(op, key string, err error) error {
	if s.failOpen {
		s.log.Warn("Idempotency store unavailable, failing open",
			zap.String("op", op),
			zap.String("key", key),
			zap.Error(err))
		return nil
	}
	return domain.NewStorageError("idempotency "+op, err)
}

// Ping checks if the Valkey connection is alive
func (s *Store) Ping(ctx context.Context) error {
	conn, err := s.pool.GetContext(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	_, err = redis.DoContext(conn, ctx, "PING")
	return err
}

// Close closes the connection pool
func (s *Store) Close() error {
	return s.pool.Close()
}
