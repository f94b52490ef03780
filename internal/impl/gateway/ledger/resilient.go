package impl_ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	domain_ledger "github.com/PedroCamargo-dev/idempotent-transfers-service/internal/domain/ledger"
	port_ledger "github.com/PedroCamargo-dev/idempotent-transfers-service/internal/ports/gateway/ledger"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

const fallbackPrefix = "Ledger unavailable: "

type ResilientConfig struct {
	Name        string
	CallTimeout time.Duration
	// FailureRateThreshold is a percentage in (0, 100].
	FailureRateThreshold float64
	MinimumCalls         uint32
	// WindowInterval is how often the CLOSED-state counters reset.
	WindowInterval     time.Duration
	OpenDuration       time.Duration
	HalfOpenTrialCalls uint32
	// SlowCallThreshold marks successful calls slower than this as breaker
	// failures. Zero disables slow-call accounting.
	SlowCallThreshold time.Duration
}

func DefaultResilientConfig() ResilientConfig {
	return ResilientConfig{
		Name:                 "ledger",
		CallTimeout:          3 * time.Second,
		FailureRateThreshold: 50,
		MinimumCalls:         5,
		WindowInterval:       60 * time.Second,
		OpenDuration:         10 * time.Second,
		HalfOpenTrialCalls:   3,
		SlowCallThreshold:    2 * time.Second,
	}
}

func (c ResilientConfig) withDefaults() ResilientConfig {
	def := DefaultResilientConfig()
	if c.Name == "" {
		c.Name = def.Name
	}
	if c.CallTimeout <= 0 {
		c.CallTimeout = def.CallTimeout
	}
	if c.FailureRateThreshold <= 0 || c.FailureRateThreshold > 100 {
		c.FailureRateThreshold = def.FailureRateThreshold
	}
	if c.MinimumCalls == 0 {
		c.MinimumCalls = def.MinimumCalls
	}
	if c.WindowInterval <= 0 {
		c.WindowInterval = def.WindowInterval
	}
	if c.OpenDuration <= 0 {
		c.OpenDuration = def.OpenDuration
	}
	if c.HalfOpenTrialCalls == 0 {
		c.HalfOpenTrialCalls = def.HalfOpenTrialCalls
	}
	return c
}

// errSlowCall is reported to the breaker for a call that succeeded too slowly.
var errSlowCall = errors.New("ledger: slow call")

// ResilientClient wraps a Gateway with a deadline, a circuit breaker and a
// fallback. PostTransfer never returns a fault: it always resolves to an
// Outcome.
type ResilientClient struct {
	gateway port_ledger.Gateway
	breaker *gobreaker.CircuitBreaker
	cfg     ResilientConfig
	logger  *zap.Logger
}

func NewResilientClient(gateway port_ledger.Gateway, cfg ResilientConfig, logger *zap.Logger) *ResilientClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg = cfg.withDefaults()

	c := &ResilientClient{gateway: gateway, cfg: cfg, logger: logger}

	c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.HalfOpenTrialCalls,
		Interval:    cfg.WindowInterval,
		Timeout:     cfg.OpenDuration,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinimumCalls {
				return false
			}
			rate := float64(counts.TotalFailures) * 100 / float64(counts.Requests)
			return rate >= cfg.FailureRateThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			c.logger.Warn("circuit_breaker_state_change",
				zap.String("breaker", name),
				zap.String("from", stateName(from)),
				zap.String("to", stateName(to)),
			)
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
	})

	return c
}

func (c *ResilientClient) PostTransfer(ctx context.Context, req port_ledger.TransferRequest) domain_ledger.Outcome {
	fields := []zap.Field{
		zap.Int64("fromAccountId", req.FromAccountID),
		zap.Int64("toAccountId", req.ToAccountID),
		zap.String("amount", req.Amount.String()),
		zap.String("transferId", req.TransferID.String()),
	}

	c.logger.Info("ledger_call_attempt", fields...)
	start := time.Now()

	res, err := c.breaker.Execute(func() (any, error) {
		out, err := c.call(ctx, req)
		if err == nil && c.cfg.SlowCallThreshold > 0 && time.Since(start) > c.cfg.SlowCallThreshold {
			return out, errSlowCall
		}
		return out, err
	})

	if err == nil || errors.Is(err, errSlowCall) {
		return res.(domain_ledger.Outcome)
	}

	class := classify(err)
	c.logger.Error("ledger_call_failed", append(fields,
		zap.String("errorType", string(class)),
		zap.String("message", err.Error()),
		zap.Duration("elapsed", time.Since(start)),
	)...)

	return domain_ledger.Failure(fallbackPrefix + string(class))
}

// call enforces CallTimeout even against a gateway that ignores its context.
func (c *ResilientClient) call(ctx context.Context, req port_ledger.TransferRequest) (domain_ledger.Outcome, error) {
	callCtx, cancel := context.WithTimeout(ctx, c.cfg.CallTimeout)
	defer cancel()

	type result struct {
		out domain_ledger.Outcome
		err error
	}
	done := make(chan result, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- result{err: &GatewayError{Class: ClassPanic, Err: fmt.Errorf("%v", r)}}
			}
		}()

		out, err := c.gateway.PostTransfer(callCtx, req)
		done <- result{out: out, err: err}
	}()

	select {
	case r := <-done:
		return r.out, r.err
	case <-callCtx.Done():
		return domain_ledger.Outcome{}, callCtx.Err()
	}
}

// State reports CLOSED, OPEN or HALF_OPEN.
func (c *ResilientClient) State() string {
	return stateName(c.breaker.State())
}

func stateName(s gobreaker.State) string {
	switch s {
	case gobreaker.StateClosed:
		return "CLOSED"
	case gobreaker.StateOpen:
		return "OPEN"
	case gobreaker.StateHalfOpen:
		return "HALF_OPEN"
	default:
		return "UNKNOWN"
	}
}
