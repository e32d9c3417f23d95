package mrabbitmq

import (
	"context"
	"errors"

	"github.com/alaalsalam/hisabi-backend/common/mlog"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// RabbitMQConnection is a hub which deal with rabbitmq connections.
// It is used to publish mutation-accepted notifications after a push completes;
// recalculation itself stays synchronous and never waits on this channel.
type RabbitMQConnection struct {
	ConnectionStringSource string
	Exchange               string
	Conn                   *amqp.Connection
	Channel                *amqp.Channel
	Connected              bool
	Logger                 mlog.Logger
}

// Connect keeps a singleton connection with rabbitmq.
func (rc *RabbitMQConnection) Connect(ctx context.Context) error {
	rc.Logger.Info("Connecting on rabbitmq...")

	conn, err := amqp.Dial(rc.ConnectionStringSource)
	if err != nil {
		rc.Logger.Error("failed to connect on rabbitmq", zap.Error(err))
		return err
	}

	ch, err := conn.Channel()
	if err != nil {
		rc.Logger.Error("failed to open channel on rabbitmq", zap.Error(err))
		return err
	}

	if err := ch.ExchangeDeclare(rc.Exchange, "topic", true, false, false, false, nil); err != nil {
		rc.Logger.Error("failed to declare exchange on rabbitmq", zap.Error(err))
		return err
	}

	if !rc.healthCheck(ch) {
		rc.Connected = false
		err := errors.New("can't connect rabbitmq")
		rc.Logger.Error("RabbitMQ.HealthCheck", zap.Error(err))

		return err
	}

	rc.Logger.Info("Connected on rabbitmq ✅ \n")

	rc.Connected = true
	rc.Conn = conn
	rc.Channel = ch

	return nil
}

// GetChannel returns a pointer to the rabbitmq channel, initializing the connection if necessary.
func (rc *RabbitMQConnection) GetChannel(ctx context.Context) (*amqp.Channel, error) {
	if !rc.Connected {
		if err := rc.Connect(ctx); err != nil {
			rc.Logger.Infof("ERRCONECT %s", err)
			return nil, err
		}
	}

	return rc.Channel, nil
}

// healthCheck confirms the declared exchange is reachable.
func (rc *RabbitMQConnection) healthCheck(ch *amqp.Channel) bool {
	if err := ch.ExchangeDeclarePassive(rc.Exchange, "topic", true, false, false, false, nil); err != nil {
		rc.Logger.Error("rabbitmq unhealthy...", zap.Error(err))
		return false
	}

	return true
}
