package uow

import (
	"context"

	"creditflow/internal/domain/agreement"
	"creditflow/internal/domain/creditline"
	"creditflow/internal/domain/event"
	"creditflow/internal/domain/identity"
	"creditflow/internal/domain/loan"
)

type Repos struct {
	Identities  identity.Repository
	Agreements  agreement.Repository
	CreditLines creditline.Repository
	Loans       loan.Repository
	Events      event.Repository
}

// UnitOfWork runs fn inside a single transaction; everything commits or
// nothing does, which is what keeps counters and responded-flags intact
// when a mutation fails partway.
type UnitOfWork interface {
	WithinTx(ctx context.Context, fn func(r Repos) error) error
	// WithinLoanTx locks the loan row first, then passes it in.
	WithinLoanTx(ctx context.Context, loanID string, fn func(r Repos, l *loan.Loan) error) error
	// WithinCreditLineTx locks the credit line row first; all accounting
	// mutations against the line serialize through this lock.
	WithinCreditLineTx(ctx context.Context, creditLineID string, fn func(r Repos, c *creditline.CreditLine) error) error
}
