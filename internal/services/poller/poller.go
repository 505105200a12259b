package poller

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/BearBump/ShipDesk/internal/services/snapshot"
	"github.com/pkg/errors"
)

type Refresher interface {
	Refresh(ctx context.Context) (snapshot.Snapshot, error)
}

type Producer interface {
	Publish(ctx context.Context, topic string, key, value []byte) error
}

// Poller runs refresh cycles on a schedule (or on Trigger) and publishes every
// resulting snapshot. A nil producer only refreshes.
type Poller struct {
	refresher Refresher
	producer  Producer
	topic     string

	planner *Planner

	publishAttempts int
	publishBackoff  time.Duration

	fallbacks func() int64

	triggerCh chan struct{}

	startedAtUnixNano   int64
	lastCycleUnixNano   atomic.Int64
	lastTriggerUnixNano atomic.Int64
	lastSyncUnixNano    atomic.Int64
	totalCycles         atomic.Int64
	totalPublished      atomic.Int64
	totalErrors         atomic.Int64
	consecutiveFailures atomic.Int64
	lastOutbounds       atomic.Int64
	lastInbounds        atomic.Int64
	lastNewCount        atomic.Int64
	lastFallbacks       atomic.Int64
	lastErrorMu         sync.Mutex
	lastError           string
}

func New(refresher Refresher, producer Producer, topic string) *Poller {
	return &Poller{
		refresher:         refresher,
		producer:          producer,
		topic:             topic,
		planner:           NewPlanner(DefaultPlannerConfig(), nil),
		publishAttempts:   10,
		publishBackoff:    150 * time.Millisecond,
		triggerCh:         make(chan struct{}, 1),
		startedAtUnixNano: time.Now().UTC().UnixNano(),
	}
}

func (p *Poller) WithPlanner(cfg PlannerConfig) *Poller {
	p.planner = NewPlanner(cfg, nil)
	return p
}

func (p *Poller) WithPublishRetry(attempts int, backoff time.Duration) *Poller {
	if attempts > 0 {
		p.publishAttempts = attempts
	}
	if backoff > 0 {
		p.publishBackoff = backoff
	}
	return p
}

// WithFallbackCounter reports how many upstream calls have fallen back so far;
// each published snapshot carries the delta since the previous cycle.
func (p *Poller) WithFallbackCounter(f func() int64) *Poller {
	p.fallbacks = f
	return p
}

// Trigger forces an immediate refresh cycle (best-effort, non-blocking).
func (p *Poller) Trigger() {
	p.lastTriggerUnixNano.Store(time.Now().UTC().UnixNano())
	select {
	case p.triggerCh <- struct{}{}:
	default:
	}
}

type Stats struct {
	StartedAt           time.Time  `json:"startedAt"`
	LastCycleAt         *time.Time `json:"lastCycleAt,omitempty"`
	LastTriggerAt       *time.Time `json:"lastTriggerAt,omitempty"`
	LastSyncAt          *time.Time `json:"lastSyncAt,omitempty"`
	TotalCycles         int64      `json:"totalCycles"`
	TotalPublished      int64      `json:"totalPublished"`
	TotalErrors         int64      `json:"totalErrors"`
	ConsecutiveFailures int64      `json:"consecutiveFailures"`
	LastOutbounds       int64      `json:"lastOutbounds"`
	LastInbounds        int64      `json:"lastInbounds"`
	LastNewCount        int64      `json:"lastNewCount"`
	LastFallbacks       int64      `json:"lastFallbacks"`
	LastError           string     `json:"lastError,omitempty"`
}

func (p *Poller) Stats() Stats {
	st := Stats{
		StartedAt:           time.Unix(0, p.startedAtUnixNano).UTC(),
		TotalCycles:         p.totalCycles.Load(),
		TotalPublished:      p.totalPublished.Load(),
		TotalErrors:         p.totalErrors.Load(),
		ConsecutiveFailures: p.consecutiveFailures.Load(),
		LastOutbounds:       p.lastOutbounds.Load(),
		LastInbounds:        p.lastInbounds.Load(),
		LastNewCount:        p.lastNewCount.Load(),
		LastFallbacks:       p.lastFallbacks.Load(),
	}
	st.LastCycleAt = unixPtr(p.lastCycleUnixNano.Load())
	st.LastTriggerAt = unixPtr(p.lastTriggerUnixNano.Load())
	st.LastSyncAt = unixPtr(p.lastSyncUnixNano.Load())
	p.lastErrorMu.Lock()
	st.LastError = p.lastError
	p.lastErrorMu.Unlock()
	return st
}

func unixPtr(n int64) *time.Time {
	if n <= 0 {
		return nil
	}
	t := time.Unix(0, n).UTC()
	return &t
}

// Run refreshes once immediately, then on every planned tick or trigger until
// ctx is done.
func (p *Poller) Run(ctx context.Context) error {
	p.runOnce(ctx)

	t := time.NewTimer(p.planner.NextDelay(int(p.consecutiveFailures.Load())))
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
			p.runOnce(ctx)
		case <-p.triggerCh:
			if !t.Stop() {
				select {
				case <-t.C:
				default:
				}
			}
			p.runOnce(ctx)
		}
		t.Reset(p.planner.NextDelay(int(p.consecutiveFailures.Load())))
	}
}

func (p *Poller) runOnce(ctx context.Context) {
	p.lastCycleUnixNano.Store(time.Now().UTC().UnixNano())
	p.totalCycles.Add(1)

	if err := p.cycle(ctx); err != nil {
		p.totalErrors.Add(1)
		p.consecutiveFailures.Add(1)
		p.setLastError(err)
		slog.Error("refresh cycle", "error", err.Error())
		return
	}
	p.consecutiveFailures.Store(0)
}

func (p *Poller) cycle(ctx context.Context) error {
	before := p.fallbackCount()
	snap, err := p.refresher.Refresh(ctx)
	if err != nil {
		return errors.Wrap(err, "refresh")
	}

	msg := snap.Message()
	msg.FallbackCount = p.fallbackCount() - before

	p.lastSyncUnixNano.Store(snap.SyncedAt.UnixNano())
	p.lastOutbounds.Store(int64(len(snap.Outbounds)))
	p.lastInbounds.Store(int64(len(snap.Inbounds)))
	p.lastNewCount.Store(int64(snap.NewCount))
	p.lastFallbacks.Store(msg.FallbackCount)

	slog.Info("records refreshed",
		"sync_id", snap.SyncID,
		"mode", snap.Mode,
		"outbounds", len(snap.Outbounds),
		"inbounds", len(snap.Inbounds),
		"new", snap.NewCount,
		"fallbacks", msg.FallbackCount,
	)

	if p.producer == nil {
		return nil
	}

	b, err := json.Marshal(msg)
	if err != nil {
		return errors.Wrap(err, "marshal kafka msg")
	}
	if err := p.publish(ctx, []byte(snap.Mode), b); err != nil {
		return err
	}
	p.totalPublished.Add(1)
	return nil
}

// publish retries: Kafka may not be ready right after the stack starts.
func (p *Poller) publish(ctx context.Context, key, value []byte) error {
	var pubErr error
	for i := 0; i < p.publishAttempts; i++ {
		if pubErr = p.producer.Publish(ctx, p.topic, key, value); pubErr == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return errors.Wrap(ctx.Err(), "publish")
		case <-time.After(time.Duration(i+1) * p.publishBackoff):
		}
	}
	return pubErr
}

func (p *Poller) fallbackCount() int64 {
	if p.fallbacks == nil {
		return 0
	}
	return p.fallbacks()
}

func (p *Poller) setLastError(err error) {
	p.lastErrorMu.Lock()
	p.lastError = err.Error()
	p.lastErrorMu.Unlock()
}
