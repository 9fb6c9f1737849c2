// Package app builds the clients the api and worker binaries share and the
// HTTP router.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/extra/redisotel/v9"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/noah-isme/toko-billing/internal/config"
	"github.com/noah-isme/toko-billing/internal/db"
	"github.com/noah-isme/toko-billing/internal/events"
	"github.com/noah-isme/toko-billing/internal/gateway"
	"github.com/noah-isme/toko-billing/internal/notify"
	"github.com/noah-isme/toko-billing/internal/obs"
	"github.com/noah-isme/toko-billing/internal/resilience"
)

// Dependencies enumerates the process-wide clients.
type Dependencies struct {
	Config  *config.Config
	Logger  zerolog.Logger
	Pool    *pgxpool.Pool
	Store   *db.Store
	Redis   *redis.Client
	Tasks   *asynq.Client
	Bus     *events.Bus
	Gateway *gateway.StripeFactory
	Breaker *resilience.Breaker
}

// NewPool opens and pings a traced pgx pool.
func NewPool(ctx context.Context, databaseURL, appName string) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database config: %w", err)
	}
	poolConfig.ConnConfig.Tracer = obs.PGXTracer{}
	if poolConfig.ConnConfig.RuntimeParams == nil {
		poolConfig.ConnConfig.RuntimeParams = map[string]string{}
	}
	poolConfig.ConnConfig.RuntimeParams["application_name"] = appName

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return pool, nil
}

// NewRedis opens and pings a traced Redis client.
func NewRedis(ctx context.Context, redisURL string, logger zerolog.Logger) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := redisotel.InstrumentTracing(client); err != nil {
		logger.Error().Err(err).Msg("instrument redis tracing")
	}
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

// NewGateway builds the stripe factory. Every outbound call passes through
// the breaker and is traced.
func NewGateway(cfg config.GatewayConfig, logger zerolog.Logger) (*gateway.StripeFactory, *resilience.Breaker) {
	breaker := resilience.NewBreaker(resilience.BreakerConfig{
		Target:       "payment-gateway",
		MinRequests:  cfg.BreakerMinRequests,
		FailureRatio: cfg.BreakerFailureRatio,
		OpenFor:      cfg.BreakerOpenFor,
	}).WithLogger(logger)
	httpClient := &http.Client{
		Transport: otelhttp.NewTransport(&resilience.Transport{Base: http.DefaultTransport, Breaker: breaker}),
	}
	return &gateway.StripeFactory{HTTPClient: httpClient, APIURL: cfg.APIURL, Timeout: cfg.Timeout}, breaker
}

// New connects everything. The caller owns Close.
func New(ctx context.Context, cfg *config.Config, logger zerolog.Logger, appName string) (*Dependencies, error) {
	pool, err := NewPool(ctx, cfg.DatabaseURL, appName)
	if err != nil {
		return nil, err
	}
	rdb, err := NewRedis(ctx, cfg.RedisURL, logger)
	if err != nil {
		pool.Close()
		return nil, err
	}
	taskOpt, err := asynq.ParseRedisURI(cfg.RedisURL)
	if err != nil {
		pool.Close()
		_ = rdb.Close()
		return nil, fmt.Errorf("parse asynq redis uri: %w", err)
	}
	tasks := asynq.NewClient(taskOpt)
	store := db.NewStore(pool)
	gw, breaker := NewGateway(cfg.Gateway, logger)

	return &Dependencies{
		Config:  cfg,
		Logger:  logger,
		Pool:    pool,
		Store:   store,
		Redis:   rdb,
		Tasks:   tasks,
		Bus:     &events.Bus{Store: store.Queries, Notifiers: []events.Notifier{notify.NewTaskNotifier(tasks)}},
		Gateway: gw,
		Breaker: breaker,
	}, nil
}

func (d *Dependencies) Close() error {
	var errs []error
	if d.Tasks != nil {
		errs = append(errs, d.Tasks.Close())
	}
	if d.Redis != nil {
		errs = append(errs, d.Redis.Close())
	}
	if d.Pool != nil {
		d.Pool.Close()
	}
	return errors.Join(errs...)
}
