package mysql

import (
	"context"
	"errors"

	agreementDomain "creditflow/internal/domain/agreement"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type AgreementRepository struct{ db *gorm.DB }

func NewAgreementRepository(db *gorm.DB) *AgreementRepository { return &AgreementRepository{db: db} }

func (r *AgreementRepository) Create(ctx context.Context, a *agreementDomain.Agreement) error {
	return r.db.WithContext(ctx).Create(a).Error
}

func (r *AgreementRepository) getByAgreementID(ctx context.Context, agreementID string, lock bool) (*agreementDomain.Agreement, error) {
	var out agreementDomain.Agreement
	q := r.db.WithContext(ctx)
	if lock {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	res := q.
		Preload("Participants", func(db *gorm.DB) *gorm.DB { return db.Order("seq ASC") }).
		Preload("Approvers", func(db *gorm.DB) *gorm.DB { return db.Order("seq ASC") }).
		Preload("ProductConfigs", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Preload("PrivateFor").
		Where("agreement_id = ?", agreementID).
		First(&out)
	if errors.Is(res.Error, gorm.ErrRecordNotFound) {
		return nil, agreementDomain.ErrNotFound
	}
	return &out, res.Error
}

func (r *AgreementRepository) GetByAgreementID(ctx context.Context, agreementID string) (*agreementDomain.Agreement, error) {
	return r.getByAgreementID(ctx, agreementID, false)
}

func (r *AgreementRepository) GetByAgreementIDForUpdate(ctx context.Context, agreementID string) (*agreementDomain.Agreement, error) {
	return r.getByAgreementID(ctx, agreementID, true)
}

func (r *AgreementRepository) Save(ctx context.Context, a *agreementDomain.Agreement) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(a).Error
}

func (r *AgreementRepository) ReplaceApprovers(ctx context.Context, agreementRef uint64, approvers []agreementDomain.Approver) error {
	tx := r.db.WithContext(ctx)
	if err := tx.Where("agreement_ref = ?", agreementRef).
		Delete(&agreementDomain.Approver{}).Error; err != nil {
		return err
	}
	if len(approvers) == 0 {
		return nil
	}
	return tx.Create(&approvers).Error
}

func (r *AgreementRepository) SaveParticipant(ctx context.Context, p *agreementDomain.Participant) error {
	return r.db.WithContext(ctx).Save(p).Error
}

func (r *AgreementRepository) AppendProductConfig(ctx context.Context, v *agreementDomain.ProductConfigVersion) error {
	return r.db.WithContext(ctx).Create(v).Error
}

func (r *AgreementRepository) SaveProductConfig(ctx context.Context, v *agreementDomain.ProductConfigVersion) error {
	return r.db.WithContext(ctx).Save(v).Error
}

func (r *AgreementRepository) ProductConfigHistory(ctx context.Context, agreementRef uint64, productID string) ([]agreementDomain.ProductConfigVersion, error) {
	var out []agreementDomain.ProductConfigVersion
	res := r.db.WithContext(ctx).
		Where("agreement_ref = ? AND product_id = ?", agreementRef, productID).
		Order("id ASC").
		Find(&out)
	return out, res.Error
}

func (r *AgreementRepository) AddPrivateFor(ctx context.Context, e *agreementDomain.PrivateForEntry) error {
	return r.db.WithContext(ctx).Create(e).Error
}

func (r *AgreementRepository) RemovePrivateFor(ctx context.Context, agreementRef uint64, value string) error {
	return r.db.WithContext(ctx).
		Where("agreement_ref = ? AND value = ?", agreementRef, value).
		Delete(&agreementDomain.PrivateForEntry{}).Error
}
