package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/op/go-logging"
	amqp "github.com/rabbitmq/amqp091-go"
)

var log = logging.MustGetLogger("events")

// AMQPPublisher sends events to a durable RabbitMQ queue through the
// default exchange. The connection and channel are opened once and
// reopened on the next publish if the broker dropped either.
type AMQPPublisher struct {
	url   string
	queue string

	mu   sync.Mutex
	conn *amqp.Connection
	ch   *amqp.Channel
}

// NewAMQPPublisher dials the broker and declares the queue.
func NewAMQPPublisher(url, queue string) (*AMQPPublisher, error) {
	p := &AMQPPublisher{url: url, queue: queue}
	if err := p.connect(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *AMQPPublisher) connect() error {
	conn, err := amqp.Dial(p.url)
	if err != nil {
		return fmt.Errorf("rabbitmq dial: %w", err)
	}
	p.conn = conn
	if err := p.openChannel(); err != nil {
		conn.Close()
		p.conn = nil
		return err
	}
	return nil
}

// openChannel opens a channel on the current connection and declares the
// queue on it.
func (p *AMQPPublisher) openChannel() error {
	ch, err := p.conn.Channel()
	if err != nil {
		return fmt.Errorf("rabbitmq channel: %w", err)
	}
	if _, err := ch.QueueDeclare(
		p.queue, // name
		true,    // durable
		false,   // autoDelete
		false,   // exclusive
		false,   // noWait
		nil,     // args
	); err != nil {
		ch.Close()
		return fmt.Errorf("rabbitmq queue declare: %w", err)
	}
	p.ch = ch
	return nil
}

// reconnectPlan decides what to reopen before a publish. A channel
// closed by a broker exception leaves the connection usable.
func reconnectPlan(connDown, chDown bool) (redial, reopen bool) {
	if connDown {
		return true, false
	}
	return false, chDown
}

// PublishImportCompleted sends the event as persistent JSON.
func (p *AMQPPublisher) PublishImportCompleted(ctx context.Context, ev ImportCompleted) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	redial, reopen := reconnectPlan(
		p.conn == nil || p.conn.IsClosed(),
		p.ch == nil || p.ch.IsClosed(),
	)
	switch {
	case redial:
		log.Warning("rabbitmq connection lost, reconnecting")
		if p.ch != nil {
			p.ch.Close()
		}
		if err := p.connect(); err != nil {
			return err
		}
	case reopen:
		log.Warning("rabbitmq channel closed, reopening")
		if err := p.openChannel(); err != nil {
			return err
		}
	}

	return p.ch.PublishWithContext(ctx,
		"",      // default exchange
		p.queue, // routing key = queue name
		false,   // mandatory
		false,   // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now().UTC(),
			Body:         body,
		},
	)
}

// Close closes the channel and connection.
func (p *AMQPPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.ch != nil {
		p.ch.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}
