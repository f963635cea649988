package workflow

import (
	"context"
	"errors"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/smadinen7/Market-Intelligence-Assistant/pkg/logger"
)

type EventType string

const (
	EventSessionSeeded      EventType = "session.seeded"
	EventCompetitorAnalyzed EventType = "competitor.analyzed"
	EventCompetitorFailed   EventType = "competitor.failed"
	EventSessionReset       EventType = "session.reset"
)

// Event is a workflow notification.
type Event struct {
	ID          string    `json:"id"`
	Type        EventType `json:"type"`
	SessionID   string    `json:"session_id"`
	Company     string    `json:"company,omitempty"`
	Competitor  string    `json:"competitor,omitempty"`
	Competitors []string  `json:"competitors,omitempty"`
	Error       string    `json:"error,omitempty"`
	Time        time.Time `json:"time"`
}

// Notifier receives workflow events. Delivery failures never affect the
// workflow.
type Notifier interface {
	Notify(ctx context.Context, event Event) error
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(ctx context.Context, event Event) error

func (f NotifierFunc) Notify(ctx context.Context, event Event) error {
	return f(ctx, event)
}

// MultiNotifier delivers an event to every notifier. All notifiers are
// called; their errors are joined.
type MultiNotifier []Notifier

func (m MultiNotifier) Notify(ctx context.Context, event Event) error {
	var errs []error
	for _, n := range m {
		if n == nil {
			continue
		}
		if err := n.Notify(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (s *Session) notify(ctx context.Context, event Event) {
	if s.notifier == nil {
		return
	}
	id, err := gonanoid.New()
	if err != nil {
		logger.Warn("[Workflow] Failed to generate event id", "err", err)
	}
	event.ID = id
	event.SessionID = s.id
	event.Time = time.Now().UTC()

	if err := s.notifier.Notify(context.WithoutCancel(ctx), event); err != nil {
		logger.Warn("[Workflow] Failed to deliver event", "type", event.Type, "session", s.id, "err", err)
	}
}
