package identity

import (
	"context"
	"time"

	domain "creditflow/internal/domain/identity"
	"creditflow/pkg/id"
)

type Usecase struct{ repo domain.Repository }

func NewUsecase(r domain.Repository) *Usecase { return &Usecase{repo: r} }

type RegisterInput struct {
	Type         string `json:"type"`
	OwnerAddress string `json:"owner_address"`
	Name         string `json:"name"`
}

type IdentityDTO struct {
	IdentityID   string    `json:"identity_id"`
	Type         string    `json:"type"`
	OwnerAddress string    `json:"owner_address"`
	Name         string    `json:"name"`
	CreatedAt    time.Time `json:"created_at"`
}

func (u *Usecase) Register(ctx context.Context, in RegisterInput) (*IdentityDTO, error) {
	t := domain.Type(in.Type)
	if t != domain.TypeIndividual && t != domain.TypeCompany {
		return nil, domain.ErrValidation
	}
	if in.OwnerAddress == "" {
		return nil, domain.ErrValidation
	}
	ident := &domain.Identity{
		IdentityID:   id.NewID32(),
		Type:         t,
		OwnerAddress: in.OwnerAddress,
		Name:         in.Name,
	}
	if err := u.repo.Create(ctx, ident); err != nil {
		return nil, err
	}
	return toDTO(ident), nil
}

func (u *Usecase) Get(ctx context.Context, identityID string) (*IdentityDTO, error) {
	ident, err := u.repo.GetByIdentityID(ctx, identityID)
	if err != nil {
		return nil, err
	}
	return toDTO(ident), nil
}

// Authorize grants a delegate the right to act for an identity. Only the
// identity's owner (or an already-authorized delegate) may grant.
func (u *Usecase) Authorize(ctx context.Context, identityID, delegateID, actorAddress string) error {
	if err := domain.Resolve(ctx, u.repo, identityID, actorAddress); err != nil {
		return err
	}
	if _, err := u.repo.GetByIdentityID(ctx, delegateID); err != nil {
		return err
	}
	return u.repo.Authorize(ctx, identityID, delegateID)
}

func (u *Usecase) Revoke(ctx context.Context, identityID, delegateID, actorAddress string) error {
	if err := domain.Resolve(ctx, u.repo, identityID, actorAddress); err != nil {
		return err
	}
	return u.repo.Revoke(ctx, identityID, delegateID)
}

// IsOwnerOrAuthorized lets the usecase double as the authorization gate
// injected into the agreement, credit line and loan usecases.
func (u *Usecase) IsOwnerOrAuthorized(ctx context.Context, identityID, actingAddress string) (bool, error) {
	return u.repo.IsOwnerOrAuthorized(ctx, identityID, actingAddress)
}

func toDTO(i *domain.Identity) *IdentityDTO {
	return &IdentityDTO{
		IdentityID:   i.IdentityID,
		Type:         string(i.Type),
		OwnerAddress: i.OwnerAddress,
		Name:         i.Name,
		CreatedAt:    i.CreatedAt,
	}
}
