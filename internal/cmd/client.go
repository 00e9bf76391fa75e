package cmd

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/edgarlens/edgarlens/internal/config"
	"github.com/edgarlens/edgarlens/internal/httpc"
	"github.com/edgarlens/edgarlens/internal/store"
)

// buildClient assembles the request pipeline from configuration. The
// returned throttler is nil for the redis backend, whose admission log lives
// out of process.
func buildClient(cfg *config.Config, logger *zap.Logger) (*httpc.Client, *httpc.Throttler, error) {
	rate, err := httpc.NewRequestRate(cfg.RateLimit.MaxRequests, cfg.RateLimit.Window)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid rate limit: %w", err)
	}

	var (
		tickets   httpc.TicketSource
		throttler *httpc.Throttler
	)
	switch cfg.RateLimit.Backend {
	case config.BackendRedis:
		tickets = &httpc.RedisThrottler{
			Client:       redis.NewClient(&redis.Options{Addr: cfg.RateLimit.RedisAddr}),
			Key:          cfg.RateLimit.RedisKey,
			Rate:         rate,
			PollInterval: cfg.RateLimit.PollInterval,
		}
	default:
		throttler = httpc.NewThrottler(rate)
		throttler.PollInterval = cfg.RateLimit.PollInterval
		tickets = throttler
	}

	client := &httpc.Client{
		HTTPClient: &http.Client{
			Timeout: cfg.HTTP.Timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		Tickets:  tickets,
		Identity: cfg.Identity,
		Retry: httpc.RetryPolicy{
			MaxAttempts: cfg.Retry.MaxAttempts,
			Timeout:     cfg.Retry.Timeout,
			InitialWait: cfg.Retry.InitialWait,
		},
		Logger: logger,
	}
	return client, throttler, nil
}

// persistUsage folds this invocation's limiter metrics into the store.
// Best-effort: a missing or unopenable store only logs a debug line.
func persistUsage(ctx context.Context, cfg *config.Config, logger *zap.Logger, group string, throttler *httpc.Throttler, stats httpc.Stats) {
	if throttler == nil {
		return
	}
	metrics := throttler.Metrics()
	if metrics.TotalCalls == 0 {
		return
	}

	db, err := store.Open(ctx, cfg.Store)
	if err != nil {
		logger.Debug("skipping usage persistence", zap.Error(err))
		return
	}
	defer db.Close() // nolint:errcheck // best-effort cleanup

	if err := db.Migrate(ctx); err != nil {
		logger.Debug("skipping usage persistence", zap.Error(err))
		return
	}

	window, _ := time.ParseDuration(metrics.Window)
	record := store.RateLimitRecord{
		Group:         group,
		TotalCalls:    metrics.TotalCalls,
		PeakCallRate:  metrics.PeakCallRate,
		MaxRequests:   metrics.MaxRequests,
		WindowSeconds: window.Seconds(),
		RateLimited:   stats.RateLimited,
	}
	if err := db.RecordUsage(ctx, record); err != nil {
		logger.Debug("failed to persist usage", zap.Error(err))
	}
}

func openStore(ctx context.Context) (*store.Store, error) {
	db, err := store.Open(ctx, appConfig.Store)
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}
