package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"japoke-backend/internal/logging"
	"japoke-backend/internal/models"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
)

const StatusExchange = "order_status_fanout"

// StatusMessage is the body published for every status change.
type StatusMessage struct {
	OrderID      uuid.UUID          `json:"orderId"`
	OrderNumber  string             `json:"orderNumber"`
	Status       models.OrderStatus `json:"status"`
	CustomerName string             `json:"customerName"`
	ChangedAt    time.Time          `json:"changedAt"`
}

// Publisher announces status changes on a fanout exchange so kitchen screens
// and other listeners can follow orders.
type Publisher struct {
	url string
	log *logrus.Entry
	now func() time.Time

	mu      sync.Mutex
	conn    *amqp.Connection
	channel *amqp.Channel
}

// NewPublisher dials with retry and declares the exchange.
func NewPublisher(url string, attempts int, log *logrus.Entry) (*Publisher, error) {
	p := &Publisher{url: url, log: log, now: time.Now}
	var err error
	for i := 0; i < attempts; i++ {
		if err = p.connect(); err == nil {
			return p, nil
		}
		if i < attempts-1 {
			wait := time.Duration(i+1) * 2 * time.Second
			logging.LogWarn(log, "NewPublisher", fmt.Sprintf("rabbitmq connect failed, retrying in %v", wait), nil, err)
			time.Sleep(wait)
		}
	}
	return nil, fmt.Errorf("failed to connect to RabbitMQ after %d attempts: %w", attempts, err)
}

func (p *Publisher) connect() error {
	conn, err := amqp.Dial(p.url)
	if err != nil {
		return err
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return err
	}
	err = ch.ExchangeDeclare(
		StatusExchange, // name
		"fanout",       // type
		true,           // durable
		false,          // auto-deleted
		false,          // internal
		false,          // no-wait
		nil,            // arguments
	)
	if err != nil {
		conn.Close()
		return fmt.Errorf("failed to declare %s exchange: %w", StatusExchange, err)
	}
	p.conn, p.channel = conn, ch
	return nil
}

func (p *Publisher) NotifyStatusChange(ctx context.Context, order *models.Order, status models.OrderStatus) error {
	body, err := json.Marshal(StatusMessage{
		OrderID:      order.ID,
		OrderNumber:  order.OrderNumber,
		Status:       status,
		CustomerName: order.Customer.Name,
		ChangedAt:    p.now(),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.conn == nil || p.conn.IsClosed() {
		if err := p.connect(); err != nil {
			return fmt.Errorf("failed to reconnect: %w", err)
		}
	}
	err = p.channel.PublishWithContext(ctx,
		StatusExchange, // exchange
		"",             // routing key
		false,          // mandatory
		false,          // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Transient,
			Timestamp:    p.now(),
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish message: %w", err)
	}
	return nil
}

func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.conn == nil {
		return nil
	}
	return p.conn.Close()
}
