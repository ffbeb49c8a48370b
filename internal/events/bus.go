// Package events carries catalogue change notifications inside the process
// and bridges PostgreSQL NOTIFY messages onto them.
package events

import (
	"fmt"

	"github.com/asaskevich/EventBus"
	"github.com/rs/zerolog"
)

// TopicProductsChanged is published after any insert, update or delete on
// products.
const TopicProductsChanged = "products:changed"

// Event sources.
const (
	SourceService  = "service"
	SourceDatabase = "database"
)

// ProductsChanged describes a catalogue mutation. Op is the SQL operation
// when known, such as INSERT or IMPORT.
type ProductsChanged struct {
	Op     string
	Source string
}

// Bus is an in-process publish/subscribe hub.
type Bus struct {
	bus    EventBus.Bus
	logger zerolog.Logger
}

// NewBus creates an empty bus.
func NewBus(logger zerolog.Logger) *Bus {
	return &Bus{
		bus:    EventBus.New(),
		logger: logger.With().Str("component", "events").Logger(),
	}
}

// PublishProductsChanged notifies subscribers synchronously.
func (b *Bus) PublishProductsChanged(op, source string) {
	b.logger.Debug().Str("op", op).Str("source", source).Msg("products changed")
	b.bus.Publish(TopicProductsChanged, ProductsChanged{Op: op, Source: source})
}

// OnProductsChanged registers fn and returns a function that removes it.
// Handlers are matched by function identity, so closures built from the
// same literal must not be registered twice.
func (b *Bus) OnProductsChanged(fn func(ProductsChanged)) (func(), error) {
	if err := b.bus.Subscribe(TopicProductsChanged, fn); err != nil {
		return nil, fmt.Errorf("failed to subscribe to %s: %w", TopicProductsChanged, err)
	}

	return func() {
		if err := b.bus.Unsubscribe(TopicProductsChanged, fn); err != nil {
			b.logger.Warn().Err(err).Msg("failed to unsubscribe")
		}
	}, nil
}
