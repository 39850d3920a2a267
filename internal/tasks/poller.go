package tasks

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/joenivl/top2000/internal/shared"
)

// Ticker runs one resolution cycle. Implemented by [Coordinator].
type Ticker interface {
	Tick(ctx context.Context) error
}

// Poller runs coordinator ticks on a fixed interval. Ticks never overlap:
// each one runs to completion before the next timer fire is serviced, and
// a tick that outlasts the interval simply delays its successor.
type Poller struct {
	coordinator Ticker
	interval    time.Duration
	logger      *log.Logger
}

// NewPoller creates a Poller with the interval clamped to the supported
// bounds.
func NewPoller(coordinator Ticker, intervalSeconds int, logger *log.Logger) *Poller {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	if intervalSeconds < shared.MinPollInterval {
		intervalSeconds = shared.MinPollInterval
	}
	if intervalSeconds > shared.MaxPollInterval {
		intervalSeconds = shared.MaxPollInterval
	}
	return &Poller{
		coordinator: coordinator,
		interval:    time.Duration(intervalSeconds) * time.Second,
		logger:      logger,
	}
}

// Interval returns the effective (clamped) tick interval.
func (p *Poller) Interval() time.Duration {
	return p.interval
}

// Run ticks immediately, then on every interval until the context is
// cancelled. Failed ticks are logged; the loop never aborts on them.
func (p *Poller) Run(ctx context.Context) error {
	p.logger.Info("poller started", "interval", p.interval)

	p.tick(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("poller stopped")
			return ctx.Err()
		case <-ticker.C:
			p.tick(ctx)
		}
	}
}

func (p *Poller) tick(ctx context.Context) {
	if err := p.coordinator.Tick(ctx); err != nil {
		p.logger.Error("tick failed", "err", err)
	}
}
