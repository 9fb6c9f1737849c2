package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/noah-isme/toko-billing/internal/app"
	"github.com/noah-isme/toko-billing/internal/common"
	"github.com/noah-isme/toko-billing/internal/config"
	dbgen "github.com/noah-isme/toko-billing/internal/db/gen"
	"github.com/noah-isme/toko-billing/internal/notify"
	"github.com/noah-isme/toko-billing/internal/obs"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	logger := obs.NewLogger(cfg.Obs.LogFormat, cfg.Obs.LogLevel).With().Str("component", "worker").Logger()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	startCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	pool, err := app.NewPool(startCtx, cfg.DatabaseURL, cfg.Obs.ServiceName+"-worker")
	if err != nil {
		cancel()
		logger.Fatal().Err(err).Msg("initialise database")
	}
	defer pool.Close()
	rdb, err := app.NewRedis(startCtx, cfg.RedisURL, logger)
	cancel()
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise redis")
	}
	defer func() {
		if err := rdb.Close(); err != nil {
			logger.Error().Err(err).Msg("close redis")
		}
	}()

	redisOpt, err := asynq.ParseRedisURI(cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse asynq redis uri")
	}
	srv := asynq.NewServer(redisOpt, asynq.Config{
		Concurrency:     cfg.Worker.Concurrency,
		Queues:          map[string]int{notify.QueueNotifications: 1},
		ShutdownTimeout: 10 * time.Second,
		ErrorHandler: asynq.ErrorHandlerFunc(func(_ context.Context, task *asynq.Task, err error) {
			logger.Error().Err(err).Str("task_type", task.Type()).Msg("task failed")
		}),
	})

	mux := asynq.NewServeMux()
	notify.EmailHandlers{
		Mail:       common.LogEmailSender{Logger: logger},
		Recipients: dbgen.New(pool),
		Guard:      notify.RedisReplayGuard{Client: rdb},
		GuardTTL:   24 * time.Hour,
		Logger:     logger,
	}.Register(mux)

	if err := srv.Start(mux); err != nil {
		logger.Fatal().Err(err).Msg("start worker")
	}
	logger.Info().Int("concurrency", cfg.Worker.Concurrency).Msg("worker started")

	<-ctx.Done()
	logger.Info().Msg("worker shutting down")
	srv.Shutdown()
}
