package ticker

import (
	"time"

	"github.com/mattjoyce/rings/internal/events"
	"github.com/mattjoyce/rings/internal/render"
)

//go:generate mockgen -destination=mocks/mock_publisher.go -package=mocks github.com/mattjoyce/rings/internal/ticker Publisher

// Projector turns an instant into a frame.
type Projector interface {
	Tick(now time.Time) render.Frame
}

// Publisher receives driver events.
type Publisher interface {
	PublishAt(eventType string, at time.Time, data any) events.Event
}

// Observer is notified of every frame and block transition.
type Observer interface {
	ObserveTick(f render.Frame, took time.Duration)
	BlockChanged(block string)
}
