package mysql

import (
	"context"

	creditlineDomain "creditflow/internal/domain/creditline"
	loanDomain "creditflow/internal/domain/loan"
	"creditflow/internal/domain/uow"

	"gorm.io/gorm"
)

type GormUoW struct{ db *gorm.DB }

func NewGormUoW(db *gorm.DB) *GormUoW { return &GormUoW{db: db} }

func repos(tx *gorm.DB) uow.Repos {
	return uow.Repos{
		Identities:  &IdentityRepository{db: tx},
		Agreements:  &AgreementRepository{db: tx},
		CreditLines: &CreditLineRepository{db: tx},
		Loans:       &LoanRepository{db: tx},
		Events:      &EventRepository{db: tx},
	}
}

func (u *GormUoW) WithinTx(ctx context.Context, fn func(r uow.Repos) error) error {
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(repos(tx))
	})
}

func (u *GormUoW) WithinLoanTx(ctx context.Context, loanID string, fn func(r uow.Repos, l *loanDomain.Loan) error) error {
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		r := repos(tx)
		l, err := r.Loans.GetByLoanIDForUpdate(ctx, loanID)
		if err != nil {
			return err
		}
		return fn(r, l)
	})
}

func (u *GormUoW) WithinCreditLineTx(ctx context.Context, creditLineID string, fn func(r uow.Repos, c *creditlineDomain.CreditLine) error) error {
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		r := repos(tx)
		c, err := r.CreditLines.GetByCreditLineIDForUpdate(ctx, creditLineID)
		if err != nil {
			return err
		}
		return fn(r, c)
	})
}
