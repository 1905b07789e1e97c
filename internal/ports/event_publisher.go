package ports

import "glance/internal/domain"

// EventPublisher receives state change notifications. Publish must not block.
type EventPublisher interface {
	Publish(event domain.StateEvent)
}
