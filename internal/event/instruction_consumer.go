package event

import (
	"context"
	"encoding/json"
	"log/slog"

	"insurance-service/internal/instruction"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	InstructionQueue = "insurance_instructions"
)

// InstructionMessage is the queue envelope for one operation frame. Payload
// is the raw little-endian instruction payload, base64 over JSON.
type InstructionMessage struct {
	Selector byte                 `json:"selector"`
	Payload  []byte               `json:"payload"`
	Accounts instruction.Accounts `json:"accounts"`
}

// InstructionConsumer consumes operation frames from RabbitMQ and feeds them
// to the dispatcher.
type InstructionConsumer struct {
	conn       *RabbitMQConnection
	dispatcher *instruction.Dispatcher
}

func NewInstructionConsumer(conn *RabbitMQConnection, dispatcher *instruction.Dispatcher) *InstructionConsumer {
	return &InstructionConsumer{
		conn:       conn,
		dispatcher: dispatcher,
	}
}

// Start begins consuming instruction messages.
func (c *InstructionConsumer) Start(ctx context.Context) error {
	_, err := c.conn.Channel.QueueDeclare(
		InstructionQueue,
		true,  // durable
		false, // auto-delete
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		return err
	}

	msgs, err := c.conn.Channel.Consume(
		InstructionQueue,
		"",    // consumer tag (auto-generated)
		false, // auto-ack (we'll manually ack after processing)
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		return err
	}

	slog.Info("Instruction consumer started", "queue", InstructionQueue)

	go func() {
		for {
			select {
			case <-ctx.Done():
				slog.Info("Instruction consumer stopped")
				return
			case msg, ok := <-msgs:
				if !ok {
					slog.Warn("Instruction consumer channel closed")
					return
				}
				c.processMessage(ctx, msg)
			}
		}
	}()

	return nil
}

func (c *InstructionConsumer) processMessage(ctx context.Context, msg amqp.Delivery) {
	var envelope InstructionMessage
	if err := json.Unmarshal(msg.Body, &envelope); err != nil {
		slog.Error("failed to unmarshal instruction message", "error", err)
		// Reject the message and don't requeue (malformed message)
		msg.Nack(false, false)
		return
	}

	instr := &instruction.Instruction{
		Selector: envelope.Selector,
		Payload:  envelope.Payload,
		Accounts: envelope.Accounts,
	}

	if _, err := c.dispatcher.Dispatch(ctx, instr); err != nil {
		slog.Error("failed to process instruction",
			"selector", envelope.Selector,
			"error", err,
		)
		// Business rejections are final, don't requeue
		msg.Nack(false, false)
		return
	}

	msg.Ack(false)
	slog.Info("Instruction processed", "selector", envelope.Selector)
}
