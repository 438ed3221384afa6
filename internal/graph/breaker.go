package graph

import (
	"context"
	"fmt"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// BreakerConfig holds configuration for the executor circuit breaker.
type BreakerConfig struct {
	Name             string
	Timeout          time.Duration // per-query deadline
	MaxRequests      uint32
	Interval         time.Duration
	OpenTimeout      time.Duration
	FailureThreshold float64
	MinRequests      uint32
}

// DefaultBreakerConfig returns the standard settings for name.
func DefaultBreakerConfig(name string) BreakerConfig {
	return BreakerConfig{
		Name:             name,
		Timeout:          10 * time.Second,
		MaxRequests:      3,
		Interval:         30 * time.Second,
		OpenTimeout:      60 * time.Second,
		FailureThreshold: 0.6,
		MinRequests:      5,
	}
}

// QueryObserver receives the outcome of every guarded query.
type QueryObserver interface {
	ObserveGraphQuery(duration time.Duration, err error)
}

// GuardedExecutor bounds every query with a deadline and stops calling an
// unhealthy graph database through a circuit breaker. An open breaker,
// a timeout and an unsuccessful result are all returned as errors.
type GuardedExecutor struct {
	inner    Executor
	cb       *gobreaker.CircuitBreaker
	timeout  time.Duration
	observer QueryObserver
	logger   *zap.Logger
}

// NewGuardedExecutor wraps inner.
func NewGuardedExecutor(inner Executor, cfg BreakerConfig, observer QueryObserver, logger *zap.Logger) *GuardedExecutor {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultBreakerConfig(cfg.Name).Timeout
	}

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("Graph circuit breaker state changed",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})

	return &GuardedExecutor{
		inner:    inner,
		cb:       cb,
		timeout:  cfg.Timeout,
		observer: observer,
		logger:   logger,
	}
}

// Execute implements Executor.
func (g *GuardedExecutor) Execute(ctx context.Context, query string, bindings map[string]any) (*Result, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	start := time.Now()
	out, err := g.cb.Execute(func() (any, error) {
		res, err := g.inner.Execute(ctx, query, bindings)
		if err != nil {
			return nil, err
		}
		if res == nil || !res.Success {
			msg := "empty result"
			if res != nil {
				msg = res.Error
			}
			return nil, fmt.Errorf("graph query unsuccessful: %s", msg)
		}
		return res, nil
	})
	if err == nil && ctx.Err() != nil {
		err = ctx.Err()
	}
	if g.observer != nil {
		g.observer.ObserveGraphQuery(time.Since(start), err)
	}
	if err != nil {
		return nil, err
	}
	return out.(*Result), nil
}

// State reports the breaker state for status displays.
func (g *GuardedExecutor) State() string {
	return g.cb.State().String()
}
