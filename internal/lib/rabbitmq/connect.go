// Package rabbitmq подключается к RabbitMQ, объявляет exchange для событий
// и публикует в него JSON-сообщения.
package rabbitmq

import (
	"context"
	"fmt"
	"time"

	"github.com/streadway/amqp"
)

// Connect подключается к брокеру, повторяя попытку retries раз с паузой delay.
func Connect(ctx context.Context, url string, retries int, delay time.Duration) (*amqp.Connection, error) {
	const op = "rabbitmq.Connect"

	if retries < 1 {
		retries = 1
	}

	var err error
	for i := range retries {
		var conn *amqp.Connection
		conn, err = amqp.Dial(url)
		if err == nil {
			return conn, nil
		}
		if i == retries-1 {
			break
		}
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%s: %w", op, ctx.Err())
		case <-time.After(delay):
		}
	}

	return nil, fmt.Errorf("%s: %w", op, err)
}

// Binding очередь, привязываемая к exchange по ключу.
type Binding struct {
	QueueName  string
	RoutingKey string
}

// SetupExchange открывает канал и объявляет topic exchange. Если переданы
// привязки, объявляет и привязывает очереди.
func SetupExchange(conn *amqp.Connection, exchange string, bindings ...Binding) (*amqp.Channel, error) {
	const op = "rabbitmq.SetupExchange"

	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	err = ch.ExchangeDeclare(
		exchange,
		amqp.ExchangeTopic,
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	for _, b := range bindings {
		if _, err := ch.QueueDeclare(b.QueueName, true, false, false, false, nil); err != nil {
			_ = ch.Close()
			return nil, fmt.Errorf("%s: failed to declare queue %s: %w", op, b.QueueName, err)
		}
		if err := ch.QueueBind(b.QueueName, b.RoutingKey, exchange, false, nil); err != nil {
			_ = ch.Close()
			return nil, fmt.Errorf("%s: failed to bind queue %s with routing key %s: %w", op, b.QueueName, b.RoutingKey, err)
		}
	}

	return ch, nil
}

// BindTemporaryQueue объявляет эксклюзивную очередь с именем от сервера,
// которая удаляется при закрытии соединения, и привязывает её к exchange.
func BindTemporaryQueue(ch *amqp.Channel, exchange, routingKey string) (string, error) {
	const op = "rabbitmq.BindTemporaryQueue"

	q, err := ch.QueueDeclare("", false, true, true, false, nil)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	if err := ch.QueueBind(q.Name, routingKey, exchange, false, nil); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return q.Name, nil
}
