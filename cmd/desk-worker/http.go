package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/BearBump/ShipDesk/config"
	"github.com/BearBump/ShipDesk/internal/services/poller"
	"github.com/go-chi/chi/v5"
	httpSwagger "github.com/swaggo/http-swagger"
)

type workerHTTPOpts struct {
	httpAddr    string
	swaggerPath string
	onListen    func(httpAddr string)

	poller *poller.Poller
	cfg    *config.Config
}

type opsHandlers struct {
	poller *poller.Poller
	cfg    *config.Config
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// withPoller answers 503 while the worker runs without a poller (tests, misconfiguration).
func (h opsHandlers) withPoller(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if h.poller == nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "poller not wired"})
			return
		}
		next(w, r)
	}
}

func (h opsHandlers) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// readyz становится 200 только после первой успешной синхронизации.
func (h opsHandlers) readyz(w http.ResponseWriter, _ *http.Request) {
	st := h.poller.Stats()
	if st.LastSyncAt == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{"status": "warming up", "lastError": st.LastError})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ready", "lastSyncAt": st.LastSyncAt})
}

func (h opsHandlers) stats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.poller.Stats())
}

func (h opsHandlers) trigger(w http.ResponseWriter, _ *http.Request) {
	h.poller.Trigger()
	writeJSON(w, http.StatusOK, map[string]bool{"triggered": true})
}

func (h opsHandlers) config(w http.ResponseWriter, _ *http.Request) {
	if h.cfg == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "config not wired"})
		return
	}
	writeJSON(w, http.StatusOK, publicConfig(h.cfg))
}

func newWorkerRouter(opts workerHTTPOpts) chi.Router {
	h := opsHandlers{poller: opts.poller, cfg: opts.cfg}
	r := chi.NewRouter()

	r.Get("/healthz", h.healthz)
	r.Get("/readyz", h.withPoller(h.readyz))
	r.Get("/stats", h.withPoller(h.stats))
	r.Post("/trigger", h.withPoller(h.trigger))
	r.Get("/config", h.config)

	r.Get("/swagger.json", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-store")
		http.ServeFile(w, r, opts.swaggerPath)
	})
	swaggerURL := "/swagger.json"
	if fi, err := os.Stat(opts.swaggerPath); err == nil {
		swaggerURL = fmt.Sprintf("/swagger.json?v=%d", fi.ModTime().Unix())
	}
	r.Get("/docs/*", httpSwagger.Handler(httpSwagger.URL(swaggerURL)))
	return r
}

// publicConfig is the operational subset of the config; credentials and API
// keys are never included.
func publicConfig(cfg *config.Config) map[string]any {
	stores := make([]string, 0, len(cfg.Stores))
	for _, s := range cfg.Stores {
		stores = append(stores, s.Name)
	}
	return map[string]any{
		"dataMode":            cfg.ParcelNinja.DataMode,
		"stores":              stores,
		"pageSize":            cfg.ParcelNinja.PageSize,
		"lookbackDays":        cfg.ParcelNinja.LookbackDays,
		"searchLookbackDays":  cfg.ParcelNinja.SearchLookbackDays,
		"rateLimitPerMinute":  cfg.ParcelNinja.RateLimitPerMinute,
		"forwardingEnabled":   cfg.ParcelNinja.ForwardURL != "",
		"pollIntervalSeconds": cfg.ShipDesk.WorkerPollIntervalSeconds,
		"topic":               cfg.Kafka.RecordsSyncedTopicName,
	}
}

func runWorkerHTTPServer(ctx context.Context, opts workerHTTPOpts) error {
	if opts.httpAddr == "" {
		opts.httpAddr = ":8082"
	}
	if opts.swaggerPath == "" {
		return fmt.Errorf("worker swaggerPath env var is required")
	}
	if _, err := os.Stat(opts.swaggerPath); os.IsNotExist(err) {
		return fmt.Errorf("worker swagger file not found: %s", opts.swaggerPath)
	}

	lis, err := net.Listen("tcp", opts.httpAddr)
	if err != nil {
		return err
	}
	if opts.onListen != nil {
		opts.onListen(lis.Addr().String())
	}

	srv := &http.Server{Handler: newWorkerRouter(opts)}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		_ = lis.Close()
	}()

	if err := srv.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
