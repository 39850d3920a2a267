package tasks

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/joenivl/top2000/internal/shared"
)

type countingTicker struct {
	ticks int32
	err   error
}

func (c *countingTicker) Tick(ctx context.Context) error {
	atomic.AddInt32(&c.ticks, 1)
	return c.err
}

func TestPollerInterval(t *testing.T) {
	cases := []struct {
		name    string
		seconds int
		want    time.Duration
	}{
		{"below floor is clamped up", 5, shared.MinPollInterval * time.Second},
		{"within bounds is kept", 30, 30 * time.Second},
		{"above ceiling is clamped down", 600, shared.MaxPollInterval * time.Second},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := NewPoller(&countingTicker{}, tc.seconds, nil)
			if p.Interval() != tc.want {
				t.Errorf("expected %v, got %v", tc.want, p.Interval())
			}
		})
	}
}

func TestPollerRun(t *testing.T) {
	t.Run("ticks immediately and stops on cancel", func(t *testing.T) {
		ticker := &countingTicker{}
		p := NewPoller(ticker, 60, nil)

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)
		go func() { done <- p.Run(ctx) }()

		deadline := time.After(2 * time.Second)
		for atomic.LoadInt32(&ticker.ticks) == 0 {
			select {
			case <-deadline:
				t.Fatal("poller never ticked")
			case <-time.After(10 * time.Millisecond):
			}
		}

		cancel()
		select {
		case err := <-done:
			if !errors.Is(err, context.Canceled) {
				t.Errorf("expected context.Canceled, got %v", err)
			}
		case <-time.After(2 * time.Second):
			t.Fatal("poller did not stop after cancel")
		}
	})

	t.Run("failed ticks do not stop the loop", func(t *testing.T) {
		ticker := &countingTicker{err: errors.New("upstream down")}
		p := NewPoller(ticker, 60, nil)

		ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
		defer cancel()

		if err := p.Run(ctx); !errors.Is(err, context.DeadlineExceeded) {
			t.Errorf("expected deadline exceeded, got %v", err)
		}
		if atomic.LoadInt32(&ticker.ticks) == 0 {
			t.Error("expected at least one tick")
		}
	})
}
