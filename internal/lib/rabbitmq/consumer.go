package rabbitmq

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/profile-session/internal/lib/sl"
)

// Consumer часть *amqp.Channel, нужная для чтения очереди.
type Consumer interface {
	Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error)
}

// ConsumeMessages читает очередь и передаёт тела сообщений в handler по одному,
// в порядке доставки. Успех подтверждается Ack, ошибка обработчика возвращает
// сообщение в очередь только если requeue=true, иначе оно отбрасывается.
// Блокируется до отмены ctx или закрытия канала доставки.
func ConsumeMessages(ctx context.Context, c Consumer, queue string, requeue bool, log *slog.Logger, handler func([]byte) error) error {
	const op = "rabbitmq.ConsumeMessages"

	deliveries, err := c.Consume(queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	log = log.With(slog.String("op", op), slog.String("queue", queue))
	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-deliveries:
			if !ok {
				return nil
			}
			if err := handler(d.Body); err != nil {
				log.Warn("failed to handle message", sl.Err(err))
				if nackErr := d.Nack(false, requeue); nackErr != nil {
					log.Error("failed to nack message", sl.Err(nackErr))
				}
				continue
			}
			if ackErr := d.Ack(false); ackErr != nil {
				log.Error("failed to ack message", sl.Err(ackErr))
			}
		}
	}
}
