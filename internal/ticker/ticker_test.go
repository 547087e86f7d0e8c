package ticker

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mattjoyce/rings/internal/clock"
	"github.com/mattjoyce/rings/internal/config"
	"github.com/mattjoyce/rings/internal/events"
	"github.com/mattjoyce/rings/internal/render"
	"github.com/mattjoyce/rings/internal/ticker/mocks"
)

func newTestLogger() (*slog.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	handler := slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	return slog.New(handler), &buf
}

func newProjector(t *testing.T) *render.Projector {
	t.Helper()
	p, err := render.NewProjector(config.Defaults())
	require.NoError(t, err)
	return p
}

type recordingObserver struct {
	mu     sync.Mutex
	ticks  int
	blocks []string
}

func (o *recordingObserver) ObserveTick(render.Frame, time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.ticks++
}

func (o *recordingObserver) BlockChanged(block string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.blocks = append(o.blocks, block)
}

func TestTick_PublishesBlockChangeBeforeFrame(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	pub := mocks.NewMockPublisher(ctrl)
	start := time.Date(2024, 3, 15, 10, 59, 0, 0, time.UTC)
	fake := clock.NewFake(start)
	obs := &recordingObserver{}
	logger, _ := newTestLogger()

	d := New(newProjector(t), pub, fake, time.Second, obs, logger)

	var changes []BlockChange
	capture := func(_ string, _ time.Time, data any) events.Event {
		changes = append(changes, data.(BlockChange))
		return events.Event{}
	}

	gomock.InOrder(
		pub.EXPECT().PublishAt(events.TypeBlockChanged, start, gomock.Any()).DoAndReturn(capture),
		pub.EXPECT().PublishAt(events.TypeFrameRendered, start, gomock.Any()).Return(events.Event{}),
		pub.EXPECT().PublishAt(events.TypeFrameRendered, start.Add(30*time.Second), gomock.Any()).Return(events.Event{}),
		pub.EXPECT().PublishAt(events.TypeBlockChanged, start.Add(time.Minute), gomock.Any()).DoAndReturn(capture),
		pub.EXPECT().PublishAt(events.TypeFrameRendered, start.Add(time.Minute), gomock.Any()).Return(events.Event{}),
	)

	d.Tick()
	fake.Advance(30 * time.Second)
	d.Tick()
	fake.Advance(30 * time.Second)
	f := d.Tick()

	require.Len(t, changes, 2)
	assert.Equal(t, "", changes[0].From)
	assert.Equal(t, "ichi", changes[0].To)
	assert.Equal(t, "ichi", changes[1].From)
	assert.Equal(t, "ni", changes[1].To)
	assert.Equal(t, "#ffaf47", changes[1].Color)
	assert.Equal(t, d.RunID(), changes[1].RunID)
	assert.Equal(t, time.Date(2024, 3, 15, 15, 0, 0, 0, time.UTC), changes[1].Until)

	assert.Equal(t, "ni", f.Block.Name)
	assert.Equal(t, 3, obs.ticks)
	assert.Equal(t, []string{"ichi", "ni"}, obs.blocks)
	require.NotNil(t, d.Latest())
	assert.Equal(t, f, *d.Latest())
}

func TestStartStop(t *testing.T) {
	hub := events.NewHub(4096)
	fake := clock.NewFake(time.Date(2024, 3, 15, 2, 0, 0, 0, time.UTC))
	logger, logs := newTestLogger()

	d := New(newProjector(t), hub, fake, 5*time.Millisecond, nil, logger)
	assert.Nil(t, d.Latest())

	require.NoError(t, d.Start(context.Background()))
	assert.ErrorIs(t, d.Start(context.Background()), ErrAlreadyStarted)

	latest := d.Latest()
	require.NotNil(t, latest)
	assert.Equal(t, "go", latest.Block.Name)

	require.Eventually(t, func() bool {
		n := 0
		for _, ev := range hub.SnapshotSince(0) {
			if ev.Type == events.TypeFrameRendered {
				n++
			}
		}
		return n >= 3
	}, 2*time.Second, 5*time.Millisecond)

	d.Stop()
	d.Stop()

	snap := hub.SnapshotSince(0)
	require.NotEmpty(t, snap)
	assert.Equal(t, events.TypeDriverStarted, snap[0].Type)
	assert.Equal(t, events.TypeBlockChanged, snap[1].Type)
	assert.Equal(t, events.TypeDriverStopped, snap[len(snap)-1].Type)

	blockChanges := 0
	for _, ev := range snap {
		if ev.Type == events.TypeBlockChanged {
			blockChanges++
		}
	}
	assert.Equal(t, 1, blockChanges, "fake clock never moves, so the block never changes after the first tick")

	assert.Contains(t, logs.String(), d.RunID())
}

func TestStartStopsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	logger, _ := newTestLogger()
	d := New(newProjector(t), nil, nil, time.Millisecond, nil, logger)

	require.NoError(t, d.Start(ctx))
	cancel()

	done := make(chan struct{})
	go func() {
		d.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not return after context cancel")
	}
}

func TestNew_Defaults(t *testing.T) {
	logger, _ := newTestLogger()
	d := New(newProjector(t), nil, nil, 0, nil, logger)
	assert.Equal(t, time.Second, d.interval)
	assert.NotEmpty(t, d.RunID())
	assert.IsType(t, clock.Real{}, d.clock)
}

func TestNew_KeepsCallerComponent(t *testing.T) {
	logger, logs := newTestLogger()
	logger = logger.With("component", "ticker")

	d := New(newProjector(t), nil, clock.NewFake(time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)), time.Second, nil, logger)
	d.Tick()

	line := strings.SplitN(logs.String(), "\n", 2)[0]
	require.NotEmpty(t, line)
	assert.Equal(t, 1, strings.Count(line, `"component"`), line)
	assert.Contains(t, line, `"run_id":"`+d.RunID()+`"`)
}
