package rabbitmq

import (
	"context"
	"encoding/json"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	POST_CREATED_QUEUE         = "post.created"
	POST_CREATED_DEAD_QUEUE    = "post.created.dead"
	POST_IMAGE_GENERATED_QUEUE = "post.image_generated"
)

// queues maps each queue to its declare arguments. Rejected post.created
// messages are dead-lettered instead of dropped.
var queues = []struct {
	name string
	args amqp.Table
}{
	{name: POST_CREATED_DEAD_QUEUE},
	{name: POST_CREATED_QUEUE, args: amqp.Table{
		"x-dead-letter-exchange":    "",
		"x-dead-letter-routing-key": POST_CREATED_DEAD_QUEUE,
	}},
	{name: POST_IMAGE_GENERATED_QUEUE},
}

type MQConn struct {
	conn *amqp.Connection
	// amqp channels are not safe for concurrent publishing
	mu sync.Mutex
	ch *amqp.Channel
}

func New(url string) (*MQConn, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}

	for _, queue := range queues {
		if _, err := ch.QueueDeclare(queue.name, true, false, false, false, queue.args); err != nil {
			ch.Close()
			conn.Close()
			return nil, err
		}
	}

	return &MQConn{
		conn: conn,
		ch:   ch,
	}, nil
}

func (c *MQConn) Publish(ctx context.Context, queue string, body []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.ch.PublishWithContext(ctx, "", queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         body,
	})
}

func (c *MQConn) PublishJSON(ctx context.Context, queue string, v interface{}) error {
	body, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.Publish(ctx, queue, body)
}

// Consume opens a dedicated channel for queue with manual acks.
func (c *MQConn) Consume(queue string) (<-chan amqp.Delivery, error) {
	ch, err := c.conn.Channel()
	if err != nil {
		return nil, err
	}
	if err := ch.Qos(1, 0, false); err != nil {
		ch.Close()
		return nil, err
	}

	return ch.Consume(queue, "", false, false, false, false, nil)
}

func (c *MQConn) Close() error {
	c.ch.Close()
	return c.conn.Close()
}
