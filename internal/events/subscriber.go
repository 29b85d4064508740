package events

import (
	"encoding/json"
	"log/slog"

	"github.com/nats-io/nats.go"

	"profile-service/internal/cache"
)

// InvalidationSubscriber evicts cached profiles when another replica (or
// this one) reports a mutation. Without it, a replica could keep serving a
// stale profile for the full cache TTL.
type InvalidationSubscriber struct {
	natsConn *nats.Conn
	profiles *cache.ProfileCache
}

func NewInvalidationSubscriber(natsURL string, profiles *cache.ProfileCache) (*InvalidationSubscriber, error) {
	nc, err := nats.Connect(natsURL)
	if err != nil {
		return nil, err
	}

	subscriber := &InvalidationSubscriber{
		natsConn: nc,
		profiles: profiles,
	}

	if err := subscriber.subscribe(); err != nil {
		nc.Close()
		return nil, err
	}

	return subscriber, nil
}

func (s *InvalidationSubscriber) subscribe() error {
	_, err := s.natsConn.Subscribe(SubjectProfileUpdated, func(msg *nats.Msg) {
		var event ProfileUpdatedEvent
		if err := json.Unmarshal(msg.Data, &event); err != nil {
			slog.Error("Failed to unmarshal profile update event", "error", err)
			return
		}

		s.profiles.Remove(event.UserID)
		slog.Info("Evicted cached profile", "user_id", event.UserID)
	})

	if err != nil {
		return err
	}

	slog.Info("Invalidation subscriber listening", "subject", SubjectProfileUpdated)
	return nil
}

func (s *InvalidationSubscriber) Close() {
	s.natsConn.Close()
}
