package poller

import (
	"math/rand"
	"time"
)

type Rand interface {
	Intn(n int) int
}

type PlannerConfig struct {
	Interval time.Duration // default: 5 minutes
	Jitter   time.Duration // default: 0, added as [0, Jitter]

	Backoff1 time.Duration // default: 1 minute
	Backoff2 time.Duration // default: 2 minutes
	Backoff3 time.Duration // default: 5 minutes
	Backoff4 time.Duration // default: 10 minutes
}

func DefaultPlannerConfig() PlannerConfig {
	return PlannerConfig{
		Interval: 5 * time.Minute,

		Backoff1: 1 * time.Minute,
		Backoff2: 2 * time.Minute,
		Backoff3: 5 * time.Minute,
		Backoff4: 10 * time.Minute,
	}
}

// Planner decides when the next refresh cycle runs: the regular interval after
// a good cycle, a growing backoff after consecutive failures.
type Planner struct {
	cfg PlannerConfig
	r   Rand
}

func NewPlanner(cfg PlannerConfig, r Rand) *Planner {
	def := DefaultPlannerConfig()
	if cfg.Interval <= 0 {
		cfg.Interval = def.Interval
	}
	if cfg.Jitter < 0 {
		cfg.Jitter = 0
	}
	if cfg.Backoff1 <= 0 {
		cfg.Backoff1 = def.Backoff1
	}
	if cfg.Backoff2 <= 0 {
		cfg.Backoff2 = def.Backoff2
	}
	if cfg.Backoff3 <= 0 {
		cfg.Backoff3 = def.Backoff3
	}
	if cfg.Backoff4 <= 0 {
		cfg.Backoff4 = def.Backoff4
	}
	if r == nil {
		r = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Planner{cfg: cfg, r: r}
}

func (p *Planner) NextDelay(consecutiveFailures int) time.Duration {
	if consecutiveFailures > 0 {
		return p.BackoffDelay(consecutiveFailures)
	}
	if p.cfg.Jitter <= 0 {
		return p.cfg.Interval
	}
	sec := int(p.cfg.Jitter.Seconds())
	if sec <= 0 {
		return p.cfg.Interval
	}
	return p.cfg.Interval + time.Duration(p.r.Intn(sec+1))*time.Second
}

func (p *Planner) BackoffDelay(failures int) time.Duration {
	switch {
	case failures <= 1:
		return p.cfg.Backoff1
	case failures == 2:
		return p.cfg.Backoff2
	case failures == 3:
		return p.cfg.Backoff3
	default:
		return p.cfg.Backoff4
	}
}
