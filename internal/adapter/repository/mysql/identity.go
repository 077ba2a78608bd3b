package mysql

import (
	"context"
	"errors"

	identityDomain "creditflow/internal/domain/identity"

	"gorm.io/gorm"
)

type IdentityRepository struct{ db *gorm.DB }

func NewIdentityRepository(db *gorm.DB) *IdentityRepository { return &IdentityRepository{db: db} }

func (r *IdentityRepository) Create(ctx context.Context, id *identityDomain.Identity) error {
	return r.db.WithContext(ctx).Create(id).Error
}

func (r *IdentityRepository) GetByIdentityID(ctx context.Context, identityID string) (*identityDomain.Identity, error) {
	var out identityDomain.Identity
	res := r.db.WithContext(ctx).Where("identity_id = ?", identityID).First(&out)
	if errors.Is(res.Error, gorm.ErrRecordNotFound) {
		return nil, identityDomain.ErrNotFound
	}
	return &out, res.Error
}

func (r *IdentityRepository) Authorize(ctx context.Context, identityID, delegateID string) error {
	var existing identityDomain.Grant
	res := r.db.WithContext(ctx).
		Where("identity_id = ? AND delegate_id = ?", identityID, delegateID).
		First(&existing)
	switch {
	case res.Error == nil:
		if !existing.Revoked {
			return identityDomain.ErrDuplicate
		}
		existing.Revoked = false
		return r.db.WithContext(ctx).Save(&existing).Error
	case errors.Is(res.Error, gorm.ErrRecordNotFound):
		return r.db.WithContext(ctx).Create(&identityDomain.Grant{
			IdentityID: identityID,
			DelegateID: delegateID,
		}).Error
	default:
		return res.Error
	}
}

func (r *IdentityRepository) Revoke(ctx context.Context, identityID, delegateID string) error {
	return r.db.WithContext(ctx).
		Model(&identityDomain.Grant{}).
		Where("identity_id = ? AND delegate_id = ?", identityID, delegateID).
		Update("revoked", true).Error
}

// IsOwnerOrAuthorized resolves direct ownership first, then one level of
// delegation: the acting address owning any identity that holds an
// active grant from the principal.
func (r *IdentityRepository) IsOwnerOrAuthorized(ctx context.Context, identityID, actingAddress string) (bool, error) {
	if identityID == "" || actingAddress == "" {
		return false, nil
	}
	var direct int64
	err := r.db.WithContext(ctx).
		Model(&identityDomain.Identity{}).
		Where("identity_id = ? AND owner_address = ?", identityID, actingAddress).
		Count(&direct).Error
	if err != nil {
		return false, err
	}
	if direct > 0 {
		return true, nil
	}

	var delegated int64
	err = r.db.WithContext(ctx).
		Model(&identityDomain.Grant{}).
		Joins("JOIN identities ON identities.identity_id = identity_grants.delegate_id").
		Where("identity_grants.identity_id = ? AND identity_grants.revoked = ? AND identities.owner_address = ?",
			identityID, false, actingAddress).
		Count(&delegated).Error
	if err != nil {
		return false, err
	}
	return delegated > 0, nil
}
