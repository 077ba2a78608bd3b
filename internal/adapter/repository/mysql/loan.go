package mysql

import (
	"context"
	"errors"

	loanDomain "creditflow/internal/domain/loan"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type LoanRepository struct{ db *gorm.DB }

func NewLoanRepository(db *gorm.DB) *LoanRepository { return &LoanRepository{db: db} }

func (r *LoanRepository) Create(ctx context.Context, l *loanDomain.Loan) error {
	return r.db.WithContext(ctx).Create(l).Error
}

func (r *LoanRepository) preloaded(ctx context.Context, lock bool) *gorm.DB {
	q := r.db.WithContext(ctx)
	if lock {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return q.
		Preload("Participants", func(db *gorm.DB) *gorm.DB { return db.Order("seq ASC") }).
		Preload("Approvals", func(db *gorm.DB) *gorm.DB { return db.Order("seq ASC") }).
		Preload("ScheduledPayments", func(db *gorm.DB) *gorm.DB { return db.Order("idx ASC") }).
		Preload("Payments", func(db *gorm.DB) *gorm.DB { return db.Order("idx ASC") }).
		Preload("Balances").
		Preload("PrivateFor")
}

func (r *LoanRepository) GetByLoanID(ctx context.Context, loanID string) (*loanDomain.Loan, error) {
	var out loanDomain.Loan
	res := r.preloaded(ctx, false).Where("loan_id = ?", loanID).First(&out)
	if errors.Is(res.Error, gorm.ErrRecordNotFound) {
		return nil, loanDomain.ErrNotFound
	}
	return &out, res.Error
}

func (r *LoanRepository) GetByLoanIDForUpdate(ctx context.Context, loanID string) (*loanDomain.Loan, error) {
	var out loanDomain.Loan
	res := r.preloaded(ctx, true).Where("loan_id = ?", loanID).First(&out)
	if errors.Is(res.Error, gorm.ErrRecordNotFound) {
		return nil, loanDomain.ErrNotFound
	}
	return &out, res.Error
}

func (r *LoanRepository) Save(ctx context.Context, l *loanDomain.Loan) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(l).Error
}

func (r *LoanRepository) SaveApproval(ctx context.Context, a *loanDomain.Approval) error {
	return r.db.WithContext(ctx).Save(a).Error
}

// ReplaceSchedule deletes any prior (never-confirmed) schedule and
// writes the new one. Used by disburse request/cancel only; once the
// loan is repaying the schedule rows are updated in place.
func (r *LoanRepository) ReplaceSchedule(ctx context.Context, loanRef uint64, schedule []loanDomain.ScheduledPayment) error {
	tx := r.db.WithContext(ctx)
	if err := tx.Where("loan_ref = ?", loanRef).
		Delete(&loanDomain.ScheduledPayment{}).Error; err != nil {
		return err
	}
	if len(schedule) == 0 {
		return nil
	}
	return tx.Create(&schedule).Error
}

func (r *LoanRepository) SaveScheduledPayment(ctx context.Context, sp *loanDomain.ScheduledPayment) error {
	return r.db.WithContext(ctx).Save(sp).Error
}

func (r *LoanRepository) AppendPayment(ctx context.Context, p *loanDomain.Payment) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *LoanRepository) SavePayment(ctx context.Context, p *loanDomain.Payment) error {
	return r.db.WithContext(ctx).Save(p).Error
}

func (r *LoanRepository) SaveBalance(ctx context.Context, b *loanDomain.Balance) error {
	return r.db.WithContext(ctx).Save(b).Error
}

func (r *LoanRepository) AddPrivateFor(ctx context.Context, e *loanDomain.PrivateForEntry) error {
	return r.db.WithContext(ctx).Create(e).Error
}

func (r *LoanRepository) RemovePrivateFor(ctx context.Context, loanRef uint64, value string) error {
	return r.db.WithContext(ctx).
		Where("loan_ref = ? AND value = ?", loanRef, value).
		Delete(&loanDomain.PrivateForEntry{}).Error
}
