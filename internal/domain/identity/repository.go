package identity

import "context"

type Repository interface {
	Create(ctx context.Context, id *Identity) error
	GetByIdentityID(ctx context.Context, identityID string) (*Identity, error)

	// Authorize stores a grant; revoked grants are reactivated in place.
	Authorize(ctx context.Context, identityID, delegateID string) error
	Revoke(ctx context.Context, identityID, delegateID string) error

	// IsOwnerOrAuthorized reports whether actingAddress owns the identity
	// or owns a delegate identity holding an active grant from it.
	IsOwnerOrAuthorized(ctx context.Context, identityID, actingAddress string) (bool, error)
}
