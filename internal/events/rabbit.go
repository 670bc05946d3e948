// Package events доставляет события сессии другим процессам через RabbitMQ,
// чтобы они сбрасывали данные, производные от старой эпохи.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/magabrotheeeer/profile-session/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/profile-session/internal/session"
)

// RoutingKeyPrefix префикс ключа маршрутизации: session.login, session.logout и т.д.
const RoutingKeyPrefix = "session."

// RoutingKey возвращает ключ маршрутизации для типа события.
func RoutingKey(t session.EventType) string {
	return RoutingKeyPrefix + string(t)
}

// RabbitNotifier публикует события сессии в exchange.
type RabbitNotifier struct {
	mu       sync.Mutex
	pub      rabbitmq.Publisher
	exchange string
	log      *slog.Logger
}

// NewRabbitNotifier создаёт notifier поверх канала RabbitMQ.
func NewRabbitNotifier(pub rabbitmq.Publisher, exchange string, log *slog.Logger) *RabbitNotifier {
	return &RabbitNotifier{pub: pub, exchange: exchange, log: log}
}

// Notify публикует событие. Контекст не используется: streadway/amqp его не принимает.
func (n *RabbitNotifier) Notify(_ context.Context, e session.Event) error {
	const op = "events.RabbitNotifier.Notify"

	n.mu.Lock()
	defer n.mu.Unlock()

	if err := rabbitmq.PublishMessage(n.pub, n.exchange, RoutingKey(e.Type), e); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	n.log.Debug("session event published",
		slog.String("op", op),
		slog.String("type", string(e.Type)),
		slog.Uint64("epoch", e.Epoch))
	return nil
}

// Watch читает события сессии из очереди и передаёт их в fn.
// Нераспознанные сообщения отбрасываются.
func Watch(ctx context.Context, c rabbitmq.Consumer, queue string, log *slog.Logger, fn func(session.Event)) error {
	return rabbitmq.ConsumeMessages(ctx, c, queue, false, log, func(body []byte) error {
		var e session.Event
		if err := json.Unmarshal(body, &e); err != nil {
			return fmt.Errorf("events.Watch: %w", err)
		}
		if e.Type == "" {
			return fmt.Errorf("events.Watch: event without type")
		}
		fn(e)
		return nil
	})
}
