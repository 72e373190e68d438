package clients

import (
	"encoding/json"
	"fmt"
	"phdsim-telemetry-svc/src/internal/config"
	"phdsim-telemetry-svc/src/internal/models"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/streadway/amqp"
)

// ActivityPublisher publishes gameplay activity events to RabbitMQ.
// A nil channel disables publishing, so the service runs fine without
// a broker configured.
type ActivityPublisher struct {
	channel *amqp.Channel
	cfg     *config.RabbitMQConfig
}

func NewActivityPublisher(cfg *config.Configuration, channel *amqp.Channel) *ActivityPublisher {
	return &ActivityPublisher{
		channel: channel,
		cfg:     &cfg.Queue.RabbitMQ,
	}
}

func (p *ActivityPublisher) Enabled() bool {
	return p.channel != nil
}

// PublishActivity publishes a gameplay activity message. Failures are
// logged, never returned to request handlers.
func (p *ActivityPublisher) PublishActivity(playerID, serviceName, action string) error {
	return p.PublishActivityWithDetails(playerID, serviceName, action, "", "", nil)
}

// PublishActivityWithDetails publishes gameplay activity with IP, UserAgent
// and extra metadata.
func (p *ActivityPublisher) PublishActivityWithDetails(playerID, serviceName, action, ipAddress, userAgent string, metadata map[string]string) error {
	if !p.Enabled() {
		return nil
	}

	message := models.ActivityMessage{
		PlayerID:    playerID,
		ServiceName: serviceName,
		Action:      action,
		IPAddress:   ipAddress,
		UserAgent:   userAgent,
		Metadata:    metadata,
		Timestamp:   time.Now(),
	}

	body, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to marshal activity message: %w", err)
	}

	err = p.channel.Publish(
		p.cfg.Exchange,
		p.cfg.RoutingKey,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType: "application/json",
			Body:        body,
			Timestamp:   time.Now(),
		},
	)

	if err != nil {
		logrus.WithError(err).Error("Failed to publish activity message")
		return fmt.Errorf("failed to publish activity message: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"player_id":   playerID,
		"service":     serviceName,
		"action":      action,
		"exchange":    p.cfg.Exchange,
		"routing_key": p.cfg.RoutingKey,
	}).Debug("Activity message published")

	return nil
}
