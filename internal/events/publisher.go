package events

import (
	"context"
	"fmt"
	"time"

	"github.com/Skotchmaster/texnomart/internal/logging"
)

type EventPublisher interface {
	PublishEvent(ctx context.Context, topic, key string, event any) error
}

type Envelope struct {
	Type       string    `json:"type"`
	OccurredAt time.Time `json:"occurred_at"`
	ProductID  uint      `json:"product_id,omitempty"`
	CategoryID uint      `json:"category_id,omitempty"`
	Name       string    `json:"name,omitempty"`
	Slug       string    `json:"slug,omitempty"`
}

func EnvelopeFor(ev Event) (key string, env Envelope) {
	env = Envelope{Type: string(ev.Kind), OccurredAt: ev.At}
	switch {
	case ev.Product != nil:
		env.ProductID = ev.Product.ID
		env.CategoryID = ev.Product.CategoryID
		env.Name = ev.Product.Name
		env.Slug = ev.Product.Slug
		key = fmt.Sprintf("product:%d", ev.Product.ID)
	case ev.Category != nil:
		env.CategoryID = ev.Category.ID
		env.Name = ev.Category.Title
		env.Slug = ev.Category.Slug
		key = fmt.Sprintf("category:%d", ev.Category.ID)
	}
	return key, env
}

// KafkaPublisher forwards catalog events to a topic on a best-effort basis.
type KafkaPublisher struct {
	Producer EventPublisher
	Topic    string
}

func (k *KafkaPublisher) Handle(ctx context.Context, ev Event) error {
	key, env := EnvelopeFor(ev)
	if err := k.Producer.PublishEvent(ctx, k.Topic, key, env); err != nil {
		logging.FromContext(ctx).Warn("kafka_publish_failed", "topic", k.Topic, "key", key, "error", err)
	}
	return nil
}
