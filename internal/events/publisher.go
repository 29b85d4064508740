package events

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
)

const SubjectProfileUpdated = "profile.updated"

// Publisher broadcasts the cache-invalidation signal emitted after every
// successful profile mutation.
type Publisher interface {
	PublishProfileUpdated(userID uuid.UUID) error
}

type ProfileUpdatedEvent struct {
	EventType string    `json:"event_type"`
	UserID    uuid.UUID `json:"user_id"`
	UpdatedAt time.Time `json:"updated_at"`
}

type NatsPublisher struct {
	conn *nats.Conn
}

func NewNatsPublisher(natsURL string) (*NatsPublisher, error) {
	nc, err := nats.Connect(natsURL)

	if err != nil {
		return nil, err
	}

	return &NatsPublisher{conn: nc}, nil
}

func (p *NatsPublisher) PublishProfileUpdated(userID uuid.UUID) error {
	event := ProfileUpdatedEvent{
		EventType: SubjectProfileUpdated,
		UserID:    userID,
		UpdatedAt: time.Now(),
	}

	eventJSON, err := json.Marshal(event)

	if err != nil {
		slog.Error("Error marshalling event JSON", "error", err)
		return err
	}

	err = p.conn.Publish(SubjectProfileUpdated, eventJSON)

	if err != nil {
		slog.Error("Error publishing to NATS", "error", err)
		return err
	}

	slog.Info("Published profile update event", "subject", SubjectProfileUpdated, "user_id", userID)

	return nil
}
