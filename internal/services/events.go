package services

import (
	"encoding/json"
	"log"
	"time"

	"outfitter/internal/models"
)

// EventsExchange is the topic exchange mutation events are published to.
const EventsExchange = "outfitter.events"

// EventPublisher is satisfied by *rabbitmq.Client.
type EventPublisher interface {
	Publish(exchange, routingKey string, body []byte) error
}

// publishEvent is best-effort: a failed publish is logged and never fails the mutation.
func publishEvent(p EventPublisher, evt models.MutationEvent) {
	if p == nil {
		return
	}
	if evt.OccurredAt.IsZero() {
		evt.OccurredAt = time.Now().UTC()
	}
	body, err := json.Marshal(evt)
	if err != nil {
		log.Printf("Failed to marshal %s event: %v", evt.Type, err)
		return
	}
	if err := p.Publish(EventsExchange, evt.Type, body); err != nil {
		log.Printf("Warning: failed to publish %s event for user %s: %v", evt.Type, evt.UserID, err)
	}
}
