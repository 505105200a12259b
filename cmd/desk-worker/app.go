package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/BearBump/ShipDesk/config"
	"github.com/BearBump/ShipDesk/internal/broker/kafka"
	"github.com/BearBump/ShipDesk/internal/cache/rediscache"
	"github.com/BearBump/ShipDesk/internal/integrations/resilient"
	"github.com/BearBump/ShipDesk/internal/services/aggregator"
	"github.com/BearBump/ShipDesk/internal/services/poller"
	"github.com/BearBump/ShipDesk/internal/services/snapshot"
	"golang.org/x/sync/errgroup"
)

type recordSource struct {
	src       snapshot.Source
	fallbacks func() int64
}

type workerFactories struct {
	newProducer    func(cfg *config.Config) poller.Producer
	newRateLimiter func(cfg *config.Config) resilient.RateLimiter
	newSource      func(cfg *config.Config, rl resilient.RateLimiter) (recordSource, error)
}

func defaultWorkerFactories() workerFactories {
	return workerFactories{
		newProducer: func(cfg *config.Config) poller.Producer {
			if cfg.Kafka.Host == "" {
				return nil
			}
			brokers := []string{fmt.Sprintf("%s:%d", cfg.Kafka.Host, cfg.Kafka.Port)}
			return kafka.NewProducer(brokers)
		},
		newRateLimiter: func(cfg *config.Config) resilient.RateLimiter {
			if cfg.Redis.Host == "" {
				return nil
			}
			redisAddr := fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port)
			return rediscache.NewRateLimiter(redisAddr)
		},
		newSource: func(cfg *config.Config, rl resilient.RateLimiter) (recordSource, error) {
			svc, client, err := aggregator.FromConfig(cfg, rl)
			if err != nil {
				return recordSource{}, err
			}
			return recordSource{
				src:       svc,
				fallbacks: func() int64 { return client.Stats().TotalFallbacks },
			}, nil
		},
	}
}

func RunDeskWorker(ctx context.Context, cfg *config.Config, f workerFactories, httpOpts workerHTTPOpts) error {
	topic := cfg.Kafka.RecordsSyncedTopicName
	if topic == "" {
		topic = "records.synced"
	}
	pollInterval := time.Duration(cfg.ShipDesk.WorkerPollIntervalSeconds) * time.Second
	if pollInterval <= 0 {
		pollInterval = 5 * time.Minute
	}

	rl := f.newRateLimiter(cfg)
	// лимитер держит свой redis-клиент: закрываем, как и producer
	if c, ok := rl.(io.Closer); ok {
		defer func() { _ = c.Close() }()
	}
	rs, err := f.newSource(cfg, rl)
	if err != nil {
		return err
	}
	store := snapshot.New(rs.src, 0)

	producer := f.newProducer(cfg)
	if producer == nil {
		slog.Warn("kafka is not configured, snapshots will not be published")
	}
	if c, ok := producer.(io.Closer); ok {
		defer func() { _ = c.Close() }()
	}

	p := poller.New(store, producer, topic).
		WithPlanner(poller.PlannerConfig{Interval: pollInterval, Jitter: pollInterval / 10}).
		WithFallbackCounter(rs.fallbacks)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return p.Run(gctx) })

	if httpOpts.swaggerPath != "" {
		httpOpts.poller = p
		httpOpts.cfg = cfg
		g.Go(func() error { return runWorkerHTTPServer(gctx, httpOpts) })
	} else {
		slog.Warn("worker swaggerPath is not set, ops server disabled")
	}

	slog.Info("desk worker started", "topic", topic, "interval", pollInterval.String(), "mode", rs.src.Mode())
	return g.Wait()
}
