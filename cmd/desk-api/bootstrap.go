package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/BearBump/ShipDesk/config"
	dashboardapi "github.com/BearBump/ShipDesk/internal/api/dashboard_api"
	"github.com/BearBump/ShipDesk/internal/api/helpdeskproxy"
	"github.com/BearBump/ShipDesk/internal/broker/kafka"
	"github.com/BearBump/ShipDesk/internal/cache/rediscache"
	"github.com/BearBump/ShipDesk/internal/integrations/freshdesk"
	"github.com/BearBump/ShipDesk/internal/integrations/parcelninja/fake"
	"github.com/BearBump/ShipDesk/internal/integrations/resilient"
	"github.com/BearBump/ShipDesk/internal/services/aggregator"
	"github.com/BearBump/ShipDesk/internal/services/snapshot"
	"github.com/BearBump/ShipDesk/internal/services/xref"
)

type deskAPIApp struct {
	ctx      context.Context
	cancel   context.CancelFunc
	opts     deskAPIOpts
	api      *dashboardapi.DashboardAPI
	store    *snapshot.Store
	consumer *kafka.Consumer
	redis    *rediscache.RedisCache
}

func mustBootstrapDeskAPI() *deskAPIApp {
	if err := config.LoadDotEnv(os.Getenv("envFile")); err != nil {
		panic(err)
	}
	cfgPath := os.Getenv("configPath")
	if cfgPath == "" {
		panic("configPath env var is required")
	}
	swaggerPath := os.Getenv("swaggerPath")
	if swaggerPath == "" {
		panic("swaggerPath env var is required")
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		panic(fmt.Sprintf("ошибка парсинга конфига, %v", err))
	}
	if err := cfg.Validate(); err != nil {
		panic(fmt.Sprintf("невалидный конфиг, %v", err))
	}

	httpAddr := cfg.ShipDesk.HTTPAddr
	if httpAddr == "" {
		httpAddr = ":8080"
	}
	consumerGroup := cfg.ShipDesk.KafkaConsumerGroup
	if consumerGroup == "" {
		consumerGroup = "desk-api"
	}
	topic := cfg.Kafka.RecordsSyncedTopicName
	if topic == "" {
		topic = "records.synced"
	}
	metaTTL := time.Duration(cfg.Freshdesk.MetadataCacheTTLSeconds) * time.Second
	if metaTTL <= 0 {
		metaTTL = 10 * time.Minute
	}

	// redis необязателен: без него нет кеша метаданных и локального лимита
	var rc *rediscache.RedisCache
	var rl resilient.RateLimiter
	if cfg.Redis.Host != "" {
		rc = rediscache.New(fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port))
		rl = rc.RateLimiter()
	}

	agg, pn, err := aggregator.FromConfig(cfg, rl)
	if err != nil {
		panic(err)
	}
	store := snapshot.New(agg, 0)

	helpdesk := freshdesk.New(freshdesk.Options{
		Domain:   cfg.Freshdesk.Domain,
		APIKey:   cfg.Freshdesk.APIKey,
		Mode:     cfg.Freshdesk.ConnectionMode,
		ProxyURL: cfg.Freshdesk.ProxyURL,
	})
	proxy := helpdeskproxy.New(cfg.Freshdesk.Domain, cfg.Freshdesk.APIKey)
	if rc != nil {
		// клиент и прокси делят ключи helpdesk:meta:*
		helpdesk.WithMetadataCache(rc, metaTTL)
		proxy.WithCache(rc, metaTTL)
	}

	// mock mode stays offline, search included
	var remote xref.RemoteSearcher
	if agg.Mode() != config.DataModeMock {
		remote = pn
	}

	api := dashboardapi.New(store, xref.New(remote), aggregator.BrandNames(cfg)).
		WithHelpdesk(helpdesk, proxy)
	if agg.Mode() != config.DataModeLive {
		// mock records are dated around the simulated day
		today, _ := fake.ParseToday(cfg.ParcelNinja.SimulatedToday)
		api.WithToday(func() time.Time { return today })
	}

	var consumer *kafka.Consumer
	if cfg.Kafka.Host != "" {
		brokers := []string{fmt.Sprintf("%s:%d", cfg.Kafka.Host, cfg.Kafka.Port)}
		consumer = kafka.NewConsumer(kafka.ConsumerConfig{
			Brokers: brokers,
			Topic:   topic,
			GroupID: consumerGroup,
		})
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	return &deskAPIApp{
		ctx:    ctx,
		cancel: cancel,
		opts: deskAPIOpts{
			httpAddr:       httpAddr,
			swaggerPath:    swaggerPath,
			topic:          topic,
			consumerGroup:  consumerGroup,
			initialRefresh: true,
		},
		api:      api,
		store:    store,
		consumer: consumer,
		redis:    rc,
	}
}

func (a *deskAPIApp) Run() error {
	// typed nil *kafka.Consumer must not leak into the interface
	var consumer kafkaConsumer
	if a.consumer != nil {
		consumer = a.consumer
	}
	return runDeskAPI(a.ctx, a.opts, a.api, a.store, consumer)
}

func (a *deskAPIApp) Close() {
	if a.cancel != nil {
		a.cancel()
	}
	if a.consumer != nil {
		n, last := a.consumer.Consumed()
		slog.Info("kafka consumer closed", "consumed", n, "last_offset", last)
		_ = a.consumer.Close()
	}
	if a.redis != nil {
		_ = a.redis.Close()
	}
}
