package pubsub

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"

	"glance/internal/domain"

	"github.com/rs/zerolog"
)

// StateEventFilter selects events; the zero value matches everything
type StateEventFilter struct {
	Kinds []domain.StateEventKind // Empty matches every kind
	ID    string                  // Restrict to one widget or integration
}

func (f StateEventFilter) matches(event domain.StateEvent) bool {
	if len(f.Kinds) > 0 && !slices.Contains(f.Kinds, event.Kind) {
		return false
	}
	return f.ID == "" || f.ID == event.ID
}

// Subscription receives matching events until its context ends.
// Events is closed once the subscription is removed.
type Subscription struct {
	ID     string
	Events <-chan domain.StateEvent

	events chan domain.StateEvent
	filter StateEventFilter
	ctx    context.Context
	cancel context.CancelFunc
}

// StatePubSub fans coordinator state events out to subscribers.
// It implements ports.EventPublisher.
type StatePubSub struct {
	mu     sync.RWMutex
	subs   map[string]*Subscription
	seq    atomic.Int64
	buffer int
	logger zerolog.Logger
}

// NewStatePubSub creates a new pub/sub with the default per-subscriber buffer
func NewStatePubSub(logger zerolog.Logger) *StatePubSub {
	return &StatePubSub{
		subs:   make(map[string]*Subscription),
		buffer: 32,
		logger: logger,
	}
}

// Subscribe registers a subscription that is removed when ctx ends
func (ps *StatePubSub) Subscribe(ctx context.Context, filter StateEventFilter) *Subscription {
	ctx, cancel := context.WithCancel(ctx)
	events := make(chan domain.StateEvent, ps.buffer)
	sub := &Subscription{
		ID:     fmt.Sprintf("sub-%d", ps.seq.Add(1)),
		Events: events,
		events: events,
		filter: filter,
		ctx:    ctx,
		cancel: cancel,
	}

	ps.mu.Lock()
	ps.subs[sub.ID] = sub
	ps.mu.Unlock()
	context.AfterFunc(ctx, func() { ps.remove(sub.ID) })

	ps.logger.Debug().Str("subscriptionId", sub.ID).Msg("State subscription created")
	return sub
}

// Unsubscribe removes a subscription immediately; unknown ids are ignored
func (ps *StatePubSub) Unsubscribe(id string) {
	ps.remove(id)
}

func (ps *StatePubSub) remove(id string) {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	sub, ok := ps.subs[id]
	if !ok {
		return
	}
	delete(ps.subs, id)
	sub.cancel()
	close(sub.events)
	ps.logger.Debug().Str("subscriptionId", id).Msg("State subscription removed")
}

// Publish delivers event to every live matching subscriber. It never blocks:
// a full buffer drops the event for that subscriber.
func (ps *StatePubSub) Publish(event domain.StateEvent) {
	ps.mu.RLock()
	defer ps.mu.RUnlock()

	for _, sub := range ps.subs {
		if sub.ctx.Err() != nil || !sub.filter.matches(event) {
			continue
		}
		select {
		case sub.events <- event:
		default:
			ps.logger.Warn().
				Str("subscriptionId", sub.ID).
				Str("kind", string(event.Kind)).
				Msg("Subscriber is not keeping up, dropping event")
		}
	}
}

// Subscribers returns the number of active subscriptions
func (ps *StatePubSub) Subscribers() int {
	ps.mu.RLock()
	defer ps.mu.RUnlock()
	return len(ps.subs)
}
