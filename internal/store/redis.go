package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"

	"github.com/artvista/cartsync/internal/config"
	"github.com/artvista/cartsync/internal/log"
	inOtel "github.com/artvista/cartsync/internal/otel"
	"github.com/artvista/cartsync/pkg/cart"
)

var (
	cacheOnce sync.Once
	cache     *redis.Client
)

// NewCacheClient builds the shared redis client with otel tracing and
// metrics, same contract as the file store but for kiosk deployments where
// the guest cart must survive the device.
func NewCacheClient(c context.Context, cfg config.Cache) *redis.Client {
	c, span := inOtel.Tracer.Start(c, "main NewCacheClient")
	defer span.End()
	cacheOnce.Do(func() {
		logger := zerolog.Ctx(c).
			With().
			Str(log.KeyTag, "main NewCacheClient").
			Logger()

		logger = logger.With().Str(log.KeyProcess, "initializing redis client").Logger()
		logger.Info().Msg("initializing redis client")
		cache = redis.NewClient(&redis.Options{
			Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
			Password: cfg.Password,
			DB:       cfg.Database,
		})
		logger.Info().Msg("initialized redis client")

		logger = logger.With().Str(log.KeyProcess, "initializing redis otel tracing").Logger()
		logger.Info().Msg("initializing redis otel tracing")
		err := redisotel.InstrumentTracing(cache, redisotel.WithAttributes(semconv.DBSystemRedis))
		if err != nil {
			err = fmt.Errorf("failed initializing otel redis tracing with error=%w", err)
			logger.Fatal().Err(err).Msg(err.Error())
		}
		logger.Info().Msg("initialized redis otel tracing")

		logger = logger.With().Str(log.KeyProcess, "initializing redis otel metric").Logger()
		logger.Info().Msg("initializing redis otel metric")
		err = redisotel.InstrumentMetrics(cache, redisotel.WithAttributes(semconv.DBSystemRedis))
		if err != nil {
			err = fmt.Errorf("failed initializing otel redis metric with error=%w", err)
			logger.Fatal().Err(err).Msg(err.Error())
		}
		logger.Info().Msg("initialized redis otel metric")

		logger = logger.With().Str(log.KeyProcess, "pinging connection to redis").Logger()
		logger.Info().Msg("pinging connection to redis")
		err = cache.Ping(c).Err()
		if err != nil {
			err = fmt.Errorf("failed to pinging to redis with error=%w", err)
			logger.Fatal().Err(err).Msg(err.Error())
		}
		logger.Info().Msg("pinged connection to redis")
	})
	return cache
}

// RedisStore keeps the guest cart under one redis key.
type RedisStore struct {
	client *redis.Client
	key    string
}

func NewRedisStore(client *redis.Client, key string) *RedisStore {
	return &RedisStore{client: client, key: key}
}

func (s *RedisStore) Read(c context.Context) []cart.Item {
	c, span := inOtel.Tracer.Start(c, "RedisStore Read")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "RedisStore Read").
		Str(log.KeyStorageKey, s.key).
		Logger()

	data, err := s.client.Get(c, s.key).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			logger.Warn().Err(err).Msgf("failed reading guest cart with error=%s", err.Error())
		}
		return []cart.Item{}
	}

	items := []cart.Item{}
	if err := json.Unmarshal([]byte(data), &items); err != nil {
		err = fmt.Errorf("failed unmarshaling guest cart with error=%w", err)
		logger.Warn().Err(err).Msg("guest cart is corrupt, purging it")
		if delErr := s.client.Del(c, s.key).Err(); delErr != nil {
			logger.Warn().
				Err(delErr).
				Msgf("failed purging corrupt guest cart with error=%s", delErr.Error())
		}
		return []cart.Item{}
	}
	return items
}

func (s *RedisStore) Write(c context.Context, items []cart.Item) error {
	c, span := inOtel.Tracer.Start(c, "RedisStore Write")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "RedisStore Write").
		Str(log.KeyStorageKey, s.key).
		Int(log.KeyCartItemCount, len(items)).
		Logger()

	data, err := json.Marshal(items)
	if err != nil {
		err = fmt.Errorf("failed marshaling guest cart with error=%w", err)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	if err := s.client.Set(c, s.key, data, 0).Err(); err != nil {
		err = fmt.Errorf("failed writing guest cart with error=%w", err)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	return nil
}

func (s *RedisStore) Clear(c context.Context) error {
	c, span := inOtel.Tracer.Start(c, "RedisStore Clear")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "RedisStore Clear").
		Str(log.KeyStorageKey, s.key).
		Logger()

	if err := s.client.Del(c, s.key).Err(); err != nil {
		err = fmt.Errorf("failed clearing guest cart with error=%w", err)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	return nil
}
