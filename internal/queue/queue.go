package queue

import (
	"context"
	"fmt"
	"time"

	"github.com/rabbitmq/amqp091-go"

	"github.com/smadinen7/Market-Intelligence-Assistant/internal/util"
	"github.com/smadinen7/Market-Intelligence-Assistant/pkg/logger"
)

const (
	// EventExchange is the topic exchange workflow events are published on.
	EventExchange = "market_events"
	// EventQueue receives every workflow event for archiving.
	EventQueue = "event_queue"
)

// EventTopics are the routing keys bound to EventQueue.
var EventTopics = []string{"session.*", "competitor.*"}

// Enabled reports whether a broker is configured.
func Enabled() bool {
	return util.GetEnvString("RABBITMQ_HOST", "") != ""
}

// Init connects to the configured broker.
func Init() *amqp091.Connection {
	user := util.GetEnvString("RABBITMQ_USER", "guest")
	pass := util.GetEnvString("RABBITMQ_PASSWORD", "guest")
	host := util.GetEnv("RABBITMQ_HOST")
	port := util.GetEnvString("RABBITMQ_PORT", "5672")

	connURL := fmt.Sprintf(
		"amqp://%s:%s@%s:%s/",
		user,
		pass,
		host,
		port,
	)

	conn, err := amqp091.Dial(connURL)
	if err != nil {
		logger.Fatal("Failed to connect to RabbitMQ", "err", err)
	}

	return conn
}

// SetupQueues declares the event exchange, the event queue with its retry
// and dead-letter queues and binds the event topics.
func SetupQueues(ch *amqp091.Channel) error {
	err := ch.ExchangeDeclare(
		EventExchange,
		"topic",
		true,  // durable
		false, // autoDelete
		false, // internal
		false, // noWait
		nil,
	)
	if err != nil {
		return fmt.Errorf("exchange declare %s: %w", EventExchange, err)
	}

	if _, err := ch.QueueDeclare(EventQueue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare %s: %w", EventQueue, err)
	}
	if _, err := ch.QueueDeclare(EventQueue+"_dlq", true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare %s_dlq: %w", EventQueue, err)
	}
	_, err = ch.QueueDeclare(
		EventQueue+"_retry",
		true,
		false,
		false,
		false,
		amqp091.Table{
			"x-message-ttl":             int32(10000),
			"x-dead-letter-exchange":    "",
			"x-dead-letter-routing-key": EventQueue,
		},
	)
	if err != nil {
		return fmt.Errorf("queue declare %s_retry: %w", EventQueue, err)
	}

	for _, topic := range EventTopics {
		if err := ch.QueueBind(EventQueue, topic, EventExchange, false, nil); err != nil {
			return fmt.Errorf("queue bind %s: %w", topic, err)
		}
	}
	return nil
}

// PublishTopic publishes a persistent JSON message on the event exchange.
func PublishTopic(ctx context.Context, ch *amqp091.Channel, topic string, data []byte) error {
	publishing := amqp091.Publishing{
		ContentType:  "application/json",
		Body:         data,
		DeliveryMode: amqp091.Persistent,
		Timestamp:    time.Now(),
	}

	return ch.PublishWithContext(
		ctx,
		EventExchange,
		topic,
		false,
		false,
		publishing,
	)
}
