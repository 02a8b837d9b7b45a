package event

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	// PolicyEventsQueue carries lifecycle events for downstream consumers
	// such as notification and settlement services.
	PolicyEventsQueue = "policy_lifecycle_events"
)

// PolicyEvent is the envelope published for every policy lifecycle change.
type PolicyEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Payload   any       `json:"payload"`
	EmittedAt time.Time `json:"emitted_at"`
}

// PolicyEventPublisher publishes policy lifecycle events to RabbitMQ.
type PolicyEventPublisher struct {
	conn              *RabbitMQConnection
	messagesPublished int64
	messagesFailed    int64
	lastPublishTime   time.Time
}

func NewPolicyEventPublisher(conn *RabbitMQConnection) *PolicyEventPublisher {
	return &PolicyEventPublisher{
		conn:            conn,
		lastPublishTime: time.Now(),
	}
}

// PublishPolicyEvent publishes one lifecycle event to the policy events queue.
func (p *PolicyEventPublisher) PublishPolicyEvent(ctx context.Context, eventType string, payload any) error {
	// Ensure the queue exists
	_, err := p.conn.Channel.QueueDeclare(
		PolicyEventsQueue, // queue name
		true,              // durable
		false,             // delete when unused
		false,             // exclusive
		false,             // no-wait
		nil,               // arguments
	)
	if err != nil {
		p.messagesFailed++
		return fmt.Errorf("failed to declare queue: %w", err)
	}

	event := PolicyEvent{
		EventID:   uuid.NewString(),
		EventType: eventType,
		Payload:   payload,
		EmittedAt: time.Now(),
	}

	body, err := json.Marshal(event)
	if err != nil {
		p.messagesFailed++
		return fmt.Errorf("failed to marshal policy event: %w", err)
	}

	err = p.conn.Channel.PublishWithContext(
		ctx,
		"",                // exchange
		PolicyEventsQueue, // routing key (queue name)
		false,             // mandatory
		false,             // immediate
		amqp.Publishing{
			DeliveryMode: amqp.Persistent,
			ContentType:  "application/json",
			Body:         body,
			Timestamp:    time.Now(),
		},
	)
	if err != nil {
		p.messagesFailed++
		return fmt.Errorf("failed to publish policy event: %w", err)
	}

	p.messagesPublished++
	p.lastPublishTime = time.Now()

	slog.Info("Policy event published",
		"queue", PolicyEventsQueue,
		"event_type", eventType,
		"event_id", event.EventID,
	)

	return nil
}

// GetMetrics returns publisher metrics
func (p *PolicyEventPublisher) GetMetrics() map[string]any {
	return map[string]any{
		"messages_published": p.messagesPublished,
		"messages_failed":    p.messagesFailed,
		"last_publish_time":  p.lastPublishTime,
		"queue":              PolicyEventsQueue,
	}
}

// HealthCheck reports whether the underlying connection is still usable.
func (p *PolicyEventPublisher) HealthCheck() bool {
	return p.conn != nil && p.conn.Connection != nil && !p.conn.Connection.IsClosed()
}
