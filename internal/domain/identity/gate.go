package identity

import "context"

// Gate resolves whether an acting wallet address may act on behalf of an
// identity, either as its owner or through an authorization grant.
// Every identity-gated mutation consults it before touching state.
type Gate interface {
	IsOwnerOrAuthorized(ctx context.Context, identityID, actingAddress string) (bool, error)
}

// Resolve checks the gate and collapses the result into the authorization
// error every usecase surfaces. The delegate id is informational only:
// grants are flattened by the gate, so a delegate's owner address already
// resolves against the principal identity.
func Resolve(ctx context.Context, gate Gate, identityID, actingAddress string) error {
	ok, err := gate.IsOwnerOrAuthorized(ctx, identityID, actingAddress)
	if err != nil {
		return err
	}
	if !ok {
		return ErrUnauthorized
	}
	return nil
}
