package rabbitmq

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/streadway/amqp"
	"go.uber.org/zap"
)

// DefaultQueue receives order lifecycle events.
const DefaultQueue = "order_queue"

// EventOrderCreated is the message type of OrderEvent publications.
const EventOrderCreated = "order.created"

// OrderEvent is the JSON body published for every created order.
type OrderEvent struct {
	OrderID    uint      `json:"order_id"`
	UserID     uint      `json:"user_id"`
	ProductIDs []uint    `json:"product_ids"`
	Source     string    `json:"source"` // e.g. "csv_import"
	CreatedAt  time.Time `json:"created_at"`
}

// Config holds RabbitMQ connection details.
type Config struct {
	URL   string
	Queue string
}

// Client holds the RabbitMQ connection and channel.
type Client struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	queue   string
	logger  *zap.Logger
	mu      sync.Mutex // guards channel publishes
}

// NewClient connects to RabbitMQ, opens a channel and declares the durable
// order queue.
func NewClient(cfg Config, logger *zap.Logger) (*Client, error) {
	if cfg.Queue == "" {
		cfg.Queue = DefaultQueue
	}

	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	_, err = ch.QueueDeclare(
		cfg.Queue, // name
		true,      // durable
		false,     // delete when unused
		false,     // exclusive
		false,     // no-wait
		nil,       // arguments
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare %s: %w", cfg.Queue, err)
	}

	logger.Info("RabbitMQ client connected", zap.String("queue", cfg.Queue))

	return &Client{
		conn:    conn,
		channel: ch,
		queue:   cfg.Queue,
		logger:  logger.Named("rabbitmq"),
	}, nil
}

// Close closes the RabbitMQ channel and connection.
func (c *Client) Close() error {
	var errs []error
	if c.channel != nil {
		if err := c.channel.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close channel: %w", err))
		}
	}
	if c.conn != nil {
		if err := c.conn.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close connection: %w", err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("errors while closing RabbitMQ client: %v", errs)
	}
	return nil
}

// PublishOrderCreated publishes a persistent order.created message.
func (c *Client) PublishOrderCreated(event OrderEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal order event: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.channel == nil {
		return fmt.Errorf("RabbitMQ channel is not available")
	}

	err = c.channel.Publish(
		"",      // default exchange
		c.queue, // routing key: the queue name
		false,   // mandatory
		false,   // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Type:         EventOrderCreated,
			Body:         body,
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
		})
	if err != nil {
		return fmt.Errorf("failed to publish order event: %w", err)
	}

	c.logger.Debug("order event sent", zap.Uint("order_id", event.OrderID))
	return nil
}

// DecodeOrderEvent parses the body of an order event message.
func DecodeOrderEvent(body []byte) (OrderEvent, error) {
	var event OrderEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return event, fmt.Errorf("failed to decode order event: %w", err)
	}
	return event, nil
}

// ConsumeOrderEvents starts a goroutine delivering messages of the order
// queue to handler. A handler error requeues the message.
func (c *Client) ConsumeOrderEvents(handler func(event OrderEvent) error) error {
	if c.channel == nil {
		return fmt.Errorf("RabbitMQ channel is not available for consumption")
	}

	msgs, err := c.channel.Consume(
		c.queue, // queue
		"",      // consumer tag
		false,   // auto-ack
		false,   // exclusive
		false,   // no-local
		false,   // no-wait
		nil,     // args
	)
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	go func() {
		for msg := range msgs {
			c.handleDelivery(msg, handler)
		}
		c.logger.Info("order event consumer stopped")
	}()
	return nil
}

func (c *Client) handleDelivery(msg amqp.Delivery, handler func(OrderEvent) error) {
	event, err := DecodeOrderEvent(msg.Body)
	if err != nil {
		// Undecodable messages would loop forever if requeued.
		c.logger.Warn("dropping malformed order event", zap.Uint64("tag", msg.DeliveryTag), zap.Error(err))
		if nackErr := msg.Nack(false, false); nackErr != nil {
			c.logger.Error("failed to nack message", zap.Error(nackErr))
		}
		return
	}

	if err := handler(event); err != nil {
		c.logger.Warn("order event handler failed", zap.Uint64("tag", msg.DeliveryTag), zap.Error(err))
		if nackErr := msg.Nack(false, true); nackErr != nil {
			c.logger.Error("failed to nack message", zap.Error(nackErr))
		}
		return
	}
	if ackErr := msg.Ack(false); ackErr != nil {
		c.logger.Error("failed to ack message", zap.Error(ackErr))
	}
}
