// Package events publishes a "mutation accepted" notification after each
// push item reaches a terminal state, fanning out to whatever external
// audit/notification consumers subscribe to the topic exchange.
// Recalculation itself never depends on this channel.
package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/alaalsalam/hisabi-backend/common/mrabbitmq"
	syncdomain "github.com/alaalsalam/hisabi-backend/internal/domain/sync"
	amqp "github.com/rabbitmq/amqp091-go"
)

// Publisher implements ports.EventPublisher over a RabbitMQ topic exchange.
type Publisher struct {
	conn *mrabbitmq.RabbitMQConnection
}

func NewPublisher(conn *mrabbitmq.RabbitMQConnection) *Publisher {
	return &Publisher{conn: conn}
}

type mutationEvent struct {
	WalletID string                `json:"wallet_id"`
	UserID   string                `json:"user_id"`
	DeviceID string                `json:"device_id"`
	Result   syncdomain.ItemResult `json:"result"`
}

// PublishMutation fans out one item's terminal result. Best-effort: the
// caller treats a publish failure as a warning, never as a push failure.
func (p *Publisher) PublishMutation(ctx context.Context, scope syncdomain.Scope, result syncdomain.ItemResult) error {
	ch, err := p.conn.GetChannel(ctx)
	if err != nil {
		return err
	}

	body, err := json.Marshal(mutationEvent{
		WalletID: scope.WalletID,
		UserID:   scope.UserID,
		DeviceID: scope.DeviceID,
		Result:   result,
	})
	if err != nil {
		return err
	}

	routingKey := fmt.Sprintf("sync.mutation.%s", result.Status)

	return ch.PublishWithContext(ctx, p.conn.Exchange, routingKey, false, false, amqp.Publishing{
		ContentType: "application/json",
		Body:        body,
	})
}
