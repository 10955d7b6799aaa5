package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sol1corejz/marketcore/internal/logger"
	"go.uber.org/zap"
)

const lifecycleExchange = "marketcore.lifecycle"

// AMQPDispatcher publishes lifecycle events to a topic exchange with routing
// key <entityType>.<toStatus>. Publish failures are logged and dropped.
type AMQPDispatcher struct {
	mu   sync.Mutex
	conn *amqp.Connection
	ch   *amqp.Channel
}

func NewAMQPDispatcher(url string) (*AMQPDispatcher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect amqp: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}

	if err := ch.ExchangeDeclare(lifecycleExchange, "topic", true, false, false, false, nil); err != nil {
		conn.Close()
		return nil, err
	}

	return &AMQPDispatcher{conn: conn, ch: ch}, nil
}

func (d *AMQPDispatcher) Notify(e Event) {
	body, err := json.Marshal(e)
	if err != nil {
		logger.Log.Error("Failed to encode lifecycle event", zap.Error(err))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	d.mu.Lock()
	defer d.mu.Unlock()

	err = d.ch.PublishWithContext(ctx, lifecycleExchange, e.EntityType+"."+e.ToStatus, false, false, amqp.Publishing{
		ContentType: "application/json",
		Body:        body,
	})
	if err != nil {
		logger.Log.Error("Failed to publish lifecycle event", zap.Error(err))
	}
}

func (d *AMQPDispatcher) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.ch.Close()
	d.conn.Close()
}
