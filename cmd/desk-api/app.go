package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"time"

	dashboardapi "github.com/BearBump/ShipDesk/internal/api/dashboard_api"
	"github.com/BearBump/ShipDesk/internal/broker/messages"
	"github.com/BearBump/ShipDesk/internal/services/snapshot"
	"github.com/go-chi/chi/v5"
	httpSwagger "github.com/swaggo/http-swagger"
)

type deskAPIOpts struct {
	httpAddr    string
	swaggerPath string

	topic         string
	consumerGroup string

	// initialRefresh loads records on startup instead of waiting for the worker.
	initialRefresh bool

	onListen func(httpAddr string)
}

type kafkaConsumer interface {
	Consume(ctx context.Context, handler func(key, value []byte) error) error
}

type snapshotStore interface {
	Refresh(ctx context.Context) (snapshot.Snapshot, error)
	Apply(snap snapshot.Snapshot) snapshot.Snapshot
}

func runDeskAPI(ctx context.Context, opts deskAPIOpts, api *dashboardapi.DashboardAPI, store snapshotStore, consumer kafkaConsumer) error {
	if opts.swaggerPath == "" {
		return fmt.Errorf("swaggerPath env var is required")
	}
	if _, err := os.Stat(opts.swaggerPath); os.IsNotExist(err) {
		return fmt.Errorf("swagger file not found: %s", opts.swaggerPath)
	}

	lis, err := net.Listen("tcp", opts.httpAddr)
	if err != nil {
		return err
	}
	if opts.onListen != nil {
		opts.onListen(lis.Addr().String())
	}

	httpErr := make(chan error, 1)
	go func() {
		httpErr <- runHTTPServer(ctx, lis, api, opts.swaggerPath)
	}()

	if opts.initialRefresh {
		go func() {
			if _, err := store.Refresh(ctx); err != nil {
				slog.Error("initial refresh", "error", err.Error())
			}
		}()
	}

	if consumer != nil {
		go func() {
			slog.Info("kafka consumer started", "topic", opts.topic, "group", opts.consumerGroup)
			err := consumer.Consume(ctx, func(_key, value []byte) error {
				return applySynced(store, value)
			})
			if err != nil && ctx.Err() == nil {
				slog.Error("kafka consumer stopped", "error", err.Error())
			}
		}()
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-httpErr:
		if err == nil {
			return ctx.Err()
		}
		return err
	}
}

// applySynced installs a worker snapshot. Malformed messages are skipped so a
// single bad payload does not stall the partition.
func applySynced(store snapshotStore, value []byte) error {
	var m messages.RecordsSynced
	if err := json.Unmarshal(value, &m); err != nil {
		slog.Warn("skip malformed records.synced message", "error", err.Error())
		return nil
	}
	snap := store.Apply(snapshot.FromMessage(m))
	slog.Info("snapshot applied", "sync_id", m.SyncID, "mode", m.Mode, "new", snap.NewCount, "fallbacks", m.FallbackCount)
	return nil
}

func newRouter(api *dashboardapi.DashboardAPI, swaggerPath string) chi.Router {
	r := chi.NewRouter()
	r.Get("/swagger.json", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, swaggerPath)
	})
	r.Get("/docs/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger.json"),
	))

	api.Routes(r)
	return r
}

func runHTTPServer(ctx context.Context, lis net.Listener, api *dashboardapi.DashboardAPI, swaggerPath string) error {
	srv := &http.Server{Handler: newRouter(api, swaggerPath)}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	slog.Info("HTTP server listening", "addr", lis.Addr().String())
	if err := srv.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
