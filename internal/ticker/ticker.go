// Package ticker drives a Projector on a fixed cadence and publishes the
// resulting frames.
package ticker

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/mattjoyce/rings/internal/clock"
	"github.com/mattjoyce/rings/internal/events"
	"github.com/mattjoyce/rings/internal/render"
)

// ErrAlreadyStarted is returned by a second call to Start.
var ErrAlreadyStarted = errors.New("ticker already started")

// BlockChange is the payload of a block.changed event.
type BlockChange struct {
	RunID string    `json:"run_id"`
	From  string    `json:"from,omitempty"`
	To    string    `json:"to"`
	Color string    `json:"color,omitempty"`
	Until time.Time `json:"until"`
}

// Driver calls the projector once per interval. Each tick reads the clock
// afresh; there is no drift compensation.
type Driver struct {
	projector Projector
	publisher Publisher
	clock     clock.Clock
	interval  time.Duration
	observer  Observer
	logger    *slog.Logger
	runID     string

	latest    atomic.Pointer[render.Frame]
	lastBlock string

	started  atomic.Bool
	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// New creates a driver. A nil publisher gets a private hub; observer may be nil.
func New(p Projector, pub Publisher, c clock.Clock, interval time.Duration, observer Observer, logger *slog.Logger) *Driver {
	if pub == nil {
		pub = events.NewHub(128)
	}
	if c == nil {
		c = clock.Real{}
	}
	if interval <= 0 {
		interval = time.Second
	}
	runID := uuid.NewString()
	return &Driver{
		projector: p,
		publisher: pub,
		clock:     c,
		interval:  interval,
		observer:  observer,
		logger:    logger.With("run_id", runID),
		runID:     runID,
		stopCh:    make(chan struct{}),
	}
}

// RunID identifies this driver instance in events and logs.
func (d *Driver) RunID() string {
	return d.runID
}

// Start renders the first frame synchronously, then ticks in the background
// until Stop is called or ctx is cancelled.
func (d *Driver) Start(ctx context.Context) error {
	if !d.started.CompareAndSwap(false, true) {
		return ErrAlreadyStarted
	}

	d.logger.Info("Starting tick driver", "interval", d.interval)
	d.publisher.PublishAt(events.TypeDriverStarted, d.clock.Now(), map[string]any{
		"run_id":   d.runID,
		"interval": d.interval.String(),
	})

	d.Tick()

	d.wg.Add(1)
	go d.loop(ctx)
	return nil
}

// Stop halts the loop and waits for it to exit. It is safe to call more than once.
func (d *Driver) Stop() {
	d.stopOnce.Do(func() {
		d.logger.Info("Stopping tick driver")
		close(d.stopCh)
		d.wg.Wait()
		d.publisher.PublishAt(events.TypeDriverStopped, d.clock.Now(), map[string]any{
			"run_id": d.runID,
		})
		d.logger.Info("Tick driver stopped")
	})
}

// Latest returns the most recent frame, or nil before the first tick.
func (d *Driver) Latest() *render.Frame {
	return d.latest.Load()
}

func (d *Driver) loop(ctx context.Context) {
	defer d.wg.Done()

	t := time.NewTicker(d.interval)
	defer t.Stop()

	for {
		select {
		case <-t.C:
			d.Tick()
		case <-d.stopCh:
			return
		case <-ctx.Done():
			d.logger.Warn("Tick driver context cancelled, stopping loop")
			return
		}
	}
}

// Tick performs one evaluation. Only the loop goroutine calls it after Start.
func (d *Driver) Tick() render.Frame {
	now := d.clock.Now()
	began := time.Now()
	frame := d.projector.Tick(now)
	took := time.Since(began)

	d.latest.Store(&frame)
	if d.observer != nil {
		d.observer.ObserveTick(frame, took)
	}

	if frame.Block.Name != d.lastBlock {
		change := BlockChange{
			RunID: d.runID,
			From:  d.lastBlock,
			To:    frame.Block.Name,
			Color: frame.Block.Color,
			Until: frame.Block.End,
		}
		d.logger.Info("Block changed", "from", change.From, "to", change.To, "until", change.Until)
		d.publisher.PublishAt(events.TypeBlockChanged, now, change)
		if d.observer != nil {
			d.observer.BlockChanged(frame.Block.Name)
		}
		d.lastBlock = frame.Block.Name
	}

	d.publisher.PublishAt(events.TypeFrameRendered, now, frame)
	d.logger.Debug("Tick", "block", frame.Block.Name, "countdown", frame.Block.Countdown, "took", took)
	return frame
}
