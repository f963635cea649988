package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rabbitmq/amqp091-go"

	"github.com/smadinen7/Market-Intelligence-Assistant/pkg/logger"
	"github.com/smadinen7/Market-Intelligence-Assistant/pkg/workflow"
)

// MaxRetries is how often a message is retried before it is dead-lettered.
const MaxRetries = 10

// EventHandler processes one decoded workflow event.
type EventHandler func(ctx context.Context, event workflow.Event) error

// DecodeEvent parses a message body published by Publisher.
func DecodeEvent(body []byte) (workflow.Event, error) {
	var event workflow.Event
	if err := json.Unmarshal(body, &event); err != nil {
		return workflow.Event{}, fmt.Errorf("failed to decode event: %w", err)
	}
	if event.Type == "" || event.SessionID == "" {
		return workflow.Event{}, fmt.Errorf("event without type or session")
	}
	return event, nil
}

// ProcessEventMessage decodes a delivery body and hands it to handler.
func ProcessEventMessage(ctx context.Context, handler EventHandler, body []byte) error {
	event, err := DecodeEvent(body)
	if err != nil {
		return err
	}
	logger.Debug("[Queue] Processing event", "type", event.Type, "session", event.SessionID, "id", event.ID)
	return handler(ctx, event)
}

// Retries returns the retry count stored in the message headers.
func Retries(headers amqp091.Table) int {
	switch v := headers["x-retries"].(type) {
	case int32:
		return int(v)
	case int64:
		return int(v)
	case int:
		return v
	}
	return 0
}

// HandleProcessingError moves a failed message to the retry queue, or to the
// dead-letter queue once it ran out of retries.
func HandleProcessingError(ch *amqp091.Channel, msg amqp091.Delivery, queueName string) {
	retries := Retries(msg.Headers)

	target := queueName + "_retry"
	headers := msg.Headers
	if headers == nil {
		headers = amqp091.Table{}
	}
	if retries >= MaxRetries {
		target = queueName + "_dlq"
		logger.Info("[Queue] Sending message to DLQ", "dlq", target)
	} else {
		headers["x-retries"] = int32(retries + 1)
	}

	err := ch.Publish(
		"",
		target,
		false,
		false,
		amqp091.Publishing{
			ContentType: msg.ContentType,
			Body:        msg.Body,
			Headers:     headers,
		},
	)
	if err != nil {
		logger.Error("[Queue] Failed to republish message", "queue", target, "err", err)
		if nerr := msg.Nack(false, true); nerr != nil {
			logger.Error("[Queue] Failed to nack message", "err", nerr)
		}
		return
	}
	if err := msg.Ack(false); err != nil {
		logger.Error("[Queue] Failed to ack message", "err", err)
	}
}
