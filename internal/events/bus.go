package events

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Skotchmaster/texnomart/internal/logging"
	"github.com/Skotchmaster/texnomart/internal/metrics"
	"github.com/Skotchmaster/texnomart/internal/models"
)

type Kind string

const (
	ProductCreated   Kind = "product.created"
	ProductUpdated   Kind = "product.updated"
	ProductDeleting  Kind = "product.deleting"
	ProductDeleted   Kind = "product.deleted"
	CategoryCreated  Kind = "category.created"
	CategoryUpdated  Kind = "category.updated"
	CategoryDeleting Kind = "category.deleting"
	CategoryDeleted  Kind = "category.deleted"
)

// Event carries the entity a write touched. For category events Products holds
// the category's products as they were when the event fired.
type Event struct {
	Kind     Kind
	At       time.Time
	Product  *models.Product
	Category *models.Category
	Products []models.Product
}

type Handler func(ctx context.Context, ev Event) error

type subscription struct {
	name string
	fn   Handler
}

// Bus dispatches events synchronously to handlers in subscription order.
type Bus struct {
	mu   sync.RWMutex
	subs map[Kind][]subscription
}

func NewBus() *Bus {
	return &Bus{subs: make(map[Kind][]subscription)}
}

func (b *Bus) Subscribe(name string, h Handler, kinds ...Kind) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, k := range kinds {
		b.subs[k] = append(b.subs[k], subscription{name: name, fn: h})
	}
}

// Emit stops at the first failing handler and returns its error.
func (b *Bus) Emit(ctx context.Context, ev Event) error {
	if b == nil {
		return nil
	}
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}

	b.mu.RLock()
	subs := append([]subscription(nil), b.subs[ev.Kind]...)
	b.mu.RUnlock()

	l := logging.FromContext(ctx).With("event", string(ev.Kind))
	for _, s := range subs {
		if err := s.fn(ctx, ev); err != nil {
			metrics.RecordEvent(string(ev.Kind), err)
			l.Error("event_handler_failed", "handler", s.name, "error", err)
			return fmt.Errorf("%s handler %s: %w", ev.Kind, s.name, err)
		}
	}
	metrics.RecordEvent(string(ev.Kind), nil)
	return nil
}

func AllKinds() []Kind {
	return []Kind{
		ProductCreated, ProductUpdated, ProductDeleting, ProductDeleted,
		CategoryCreated, CategoryUpdated, CategoryDeleting, CategoryDeleted,
	}
}

// WithTimeout bounds a best-effort handler so a slow collaborator cannot stall the request.
func WithTimeout(h Handler, d time.Duration) Handler {
	return func(ctx context.Context, ev Event) error {
		ctx, cancel := context.WithTimeout(ctx, d)
		defer cancel()
		return h(ctx, ev)
	}
}
