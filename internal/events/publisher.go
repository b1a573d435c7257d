// Package events publishes audit events for back-office writes to NATS JetStream.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/sirupsen/logrus"
	"backoffice-service/internal/models"
)

const (
	streamName = "BACKOFFICE_EVENTS"

	SubjectProductRegistered   = "product.registered"
	SubjectWholesaleRegistered = "wholesale.registered"
	SubjectWholesaleUpdated    = "wholesale.updated"
)

// Event is the audit payload published for every back-office write.
type Event struct {
	EventID   string      `json:"eventId"`
	EventType string      `json:"eventType"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data"`
}

// Publisher publishes audit events. Publishing is fire-and-forget: a broker
// outage must never fail the write that triggered the event.
type Publisher struct {
	nc     *nats.Conn
	js     jetstream.JetStream
	logger *logrus.Entry
}

// NewPublisher connects to NATS and ensures the back-office stream exists.
func NewPublisher(natsURL string, logger *logrus.Logger) (*Publisher, error) {
	nc, err := nats.Connect(natsURL,
		nats.Name("backoffice-service"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	p := &Publisher{
		nc:     nc,
		js:     js,
		logger: logger.WithField("component", "events"),
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if _, err := js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:      streamName,
		Subjects:  []string{"product.>", "wholesale.>"},
		Retention: jetstream.LimitsPolicy,
		MaxAge:    7 * 24 * time.Hour,
		Storage:   jetstream.FileStorage,
		Replicas:  1,
	}); err != nil {
		p.logger.WithError(err).Warn("Failed to ensure events stream (may already exist)")
	}

	return p, nil
}

// Close closes the NATS connection.
func (p *Publisher) Close() {
	if p.nc != nil {
		p.nc.Close()
	}
}

// PublishProductRegistered publishes a product.registered event.
func (p *Publisher) PublishProductRegistered(product *models.Product) {
	p.publish(SubjectProductRegistered, product)
}

// PublishWholesaleRegistered publishes a wholesale.registered event.
func (p *Publisher) PublishWholesaleRegistered(lot *models.WholesaleLot) {
	p.publish(SubjectWholesaleRegistered, lot)
}

// PublishWholesaleUpdated publishes a wholesale.updated event.
func (p *Publisher) PublishWholesaleUpdated(lot *models.WholesaleLot) {
	p.publish(SubjectWholesaleUpdated, lot)
}

func (p *Publisher) publish(subject string, data interface{}) {
	event := Event{
		EventID:   uuid.New().String(),
		EventType: subject,
		Timestamp: time.Now().UTC(),
		Data:      data,
	}

	// Publish asynchronously to not block the main flow.
	go func() {
		payload, err := json.Marshal(event)
		if err != nil {
			p.logger.WithError(err).Error("Failed to marshal event")
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if _, err := p.js.Publish(ctx, subject, payload); err != nil {
			p.logger.WithError(err).WithField("subject", subject).Error("Failed to publish event")
			return
		}
		p.logger.WithField("subject", subject).Debug("Event published")
	}()
}
