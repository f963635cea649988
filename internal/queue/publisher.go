package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/rabbitmq/amqp091-go"

	"github.com/smadinen7/Market-Intelligence-Assistant/pkg/workflow"
)

// Publisher forwards workflow events to the event exchange. The routing key
// is the event type.
type Publisher struct {
	mu sync.Mutex
	ch *amqp091.Channel
}

func NewPublisher(ch *amqp091.Channel) *Publisher {
	return &Publisher{ch: ch}
}

// Notify implements workflow.Notifier.
func (p *Publisher) Notify(ctx context.Context, event workflow.Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	// amqp channels must not be shared between goroutines.
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := PublishTopic(ctx, p.ch, string(event.Type), data); err != nil {
		return fmt.Errorf("failed to publish %s: %w", event.Type, err)
	}
	return nil
}
