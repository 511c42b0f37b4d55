package usecase

import (
	"context"

	"travel-booking/internal/event"
)

// SearchCache stores serialized search pages per inventory kind.
type SearchCache interface {
	Get(ctx context.Context, kind, key string, dest any) (bool, error)
	Set(ctx context.Context, kind, key string, value any) error
	Invalidate(ctx context.Context, kind string) error
}

// BookingClaims is a short-lived cross-instance lock on a booking key.
type BookingClaims interface {
	Acquire(ctx context.Context, key string) (bool, error)
	Release(ctx context.Context, key string) error
}

type EventPublisher interface {
	Publish(ctx context.Context, evt event.BookingEvent) error
}

// Infra groups the optional collaborators. Nil fields fall back to no-ops.
type Infra struct {
	Cache   SearchCache
	Claims  BookingClaims
	Events  EventPublisher
	Settler Settler
}

type noopCache struct{}

func (noopCache) Get(context.Context, string, string, any) (bool, error) { return false, nil }
func (noopCache) Set(context.Context, string, string, any) error         { return nil }
func (noopCache) Invalidate(context.Context, string) error               { return nil }

type noopClaims struct{}

func (noopClaims) Acquire(context.Context, string) (bool, error) { return true, nil }
func (noopClaims) Release(context.Context, string) error         { return nil }

type noopPublisher struct{}

func (noopPublisher) Publish(context.Context, event.BookingEvent) error { return nil }

func (i Infra) withDefaults() Infra {
	if i.Cache == nil {
		i.Cache = noopCache{}
	}
	if i.Claims == nil {
		i.Claims = noopClaims{}
	}
	if i.Events == nil {
		i.Events = noopPublisher{}
	}
	if i.Settler == nil {
		i.Settler = NewRandomSettler(DefaultSuccessRate, 0)
	}
	return i
}
