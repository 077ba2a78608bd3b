package mysql

import (
	"context"
	"errors"

	creditlineDomain "creditflow/internal/domain/creditline"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CreditLineRepository struct{ db *gorm.DB }

func NewCreditLineRepository(db *gorm.DB) *CreditLineRepository { return &CreditLineRepository{db: db} }

func (r *CreditLineRepository) Create(ctx context.Context, c *creditlineDomain.CreditLine) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *CreditLineRepository) preloaded(ctx context.Context, lock bool) *gorm.DB {
	q := r.db.WithContext(ctx)
	if lock {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return q.
		Preload("Participants", func(db *gorm.DB) *gorm.DB { return db.Order("seq ASC") }).
		Preload("Approvals", func(db *gorm.DB) *gorm.DB { return db.Order("seq ASC") }).
		Preload("DataRecords", func(db *gorm.DB) *gorm.DB { return db.Order("idx ASC") }).
		Preload("PrivateFor")
}

func (r *CreditLineRepository) GetByCreditLineID(ctx context.Context, creditLineID string) (*creditlineDomain.CreditLine, error) {
	var out creditlineDomain.CreditLine
	res := r.preloaded(ctx, false).Where("credit_line_id = ?", creditLineID).First(&out)
	if errors.Is(res.Error, gorm.ErrRecordNotFound) {
		return nil, creditlineDomain.ErrNotFound
	}
	return &out, res.Error
}

func (r *CreditLineRepository) GetByCreditLineIDForUpdate(ctx context.Context, creditLineID string) (*creditlineDomain.CreditLine, error) {
	var out creditlineDomain.CreditLine
	res := r.preloaded(ctx, true).Where("credit_line_id = ?", creditLineID).First(&out)
	if errors.Is(res.Error, gorm.ErrRecordNotFound) {
		return nil, creditlineDomain.ErrNotFound
	}
	return &out, res.Error
}

func (r *CreditLineRepository) GetByRefForUpdate(ctx context.Context, ref uint64) (*creditlineDomain.CreditLine, error) {
	var out creditlineDomain.CreditLine
	res := r.preloaded(ctx, true).Where("id = ?", ref).First(&out)
	if errors.Is(res.Error, gorm.ErrRecordNotFound) {
		return nil, creditlineDomain.ErrNotFound
	}
	return &out, res.Error
}

// Save writes the root row only; children have their own methods so the
// append-only collections are never rewritten wholesale.
func (r *CreditLineRepository) Save(ctx context.Context, c *creditlineDomain.CreditLine) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(c).Error
}

func (r *CreditLineRepository) SaveApproval(ctx context.Context, a *creditlineDomain.ApproverAction) error {
	return r.db.WithContext(ctx).Save(a).Error
}

func (r *CreditLineRepository) AddParticipant(ctx context.Context, p *creditlineDomain.Participant) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *CreditLineRepository) AppendData(ctx context.Context, d *creditlineDomain.DataRecord) error {
	return r.db.WithContext(ctx).Create(d).Error
}

func (r *CreditLineRepository) SaveData(ctx context.Context, d *creditlineDomain.DataRecord) error {
	return r.db.WithContext(ctx).Save(d).Error
}

func (r *CreditLineRepository) AddPrivateFor(ctx context.Context, e *creditlineDomain.PrivateForEntry) error {
	return r.db.WithContext(ctx).Create(e).Error
}

func (r *CreditLineRepository) RemovePrivateFor(ctx context.Context, creditLineRef uint64, value string) error {
	return r.db.WithContext(ctx).
		Where("credit_line_ref = ? AND value = ?", creditLineRef, value).
		Delete(&creditlineDomain.PrivateForEntry{}).Error
}
