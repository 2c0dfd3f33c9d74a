package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"
)

const (
	SubjectCheckInCreated   = "checkin.created"
	SubjectCheckInCancelled = "checkin.cancelled"
	SubjectCheckInChanged   = "checkin.changed"
)

type CheckInEvent struct {
	EventType   string    `json:"event_type"`
	ClassID     string    `json:"class_id"`
	FromClassID string    `json:"from_class_id,omitempty"`
	UserID      string    `json:"user_id"`
	ClassDate   string    `json:"class_date"`
	OccurredAt  time.Time `json:"occurred_at"`
}

type EventPublisher interface {
	PublishCheckIn(ctx context.Context, event CheckInEvent) error
	Close()
}

type NatsPublisher struct {
	conn *nats.Conn
}

func NewNatsPublisher(natsURL string) (*NatsPublisher, error) {
	nc, err := nats.Connect(natsURL, nats.Name("fazendo-90"), nats.MaxReconnects(-1))
	if err != nil {
		return nil, err
	}
	return &NatsPublisher{conn: nc}, nil
}

// PublishCheckIn sends the event on the subject named by its EventType.
func (p *NatsPublisher) PublishCheckIn(ctx context.Context, event CheckInEvent) error {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	if err := p.conn.Publish(event.EventType, payload); err != nil {
		log.Ctx(ctx).Error().Err(err).Str("subject", event.EventType).Msg("Error publishing to NATS")
		return err
	}

	log.Ctx(ctx).Debug().Str("subject", event.EventType).Str("class_id", event.ClassID).Msg("Published event to NATS")
	return nil
}

func (p *NatsPublisher) Close() {
	if p.conn != nil {
		p.conn.Close()
	}
}

// NoopPublisher is used when NATS_URL is empty.
type NoopPublisher struct{}

func (NoopPublisher) PublishCheckIn(context.Context, CheckInEvent) error { return nil }

func (NoopPublisher) Close() {}
