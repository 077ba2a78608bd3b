package event

import "context"

type Repository interface {
	// Append writes one audit entry inside the caller's transaction.
	Append(ctx context.Context, e *Event) error
	ListByEntity(ctx context.Context, entityKind, entityID string) ([]Event, error)
}
