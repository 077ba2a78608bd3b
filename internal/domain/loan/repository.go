package loan

import "context"

type Repository interface {
	Create(ctx context.Context, l *Loan) error

	GetByLoanID(ctx context.Context, loanID string) (*Loan, error)
	// GetByLoanIDForUpdate locks the loan row for the surrounding
	// transaction; every state-changing usecase starts here.
	GetByLoanIDForUpdate(ctx context.Context, loanID string) (*Loan, error)

	// Save persists the root row's scalar columns only.
	Save(ctx context.Context, l *Loan) error

	SaveApproval(ctx context.Context, a *Approval) error

	ReplaceSchedule(ctx context.Context, loanRef uint64, schedule []ScheduledPayment) error
	SaveScheduledPayment(ctx context.Context, sp *ScheduledPayment) error

	// AppendPayment adds one ledger entry; entries are never rewritten.
	AppendPayment(ctx context.Context, p *Payment) error
	SavePayment(ctx context.Context, p *Payment) error

	SaveBalance(ctx context.Context, b *Balance) error

	AddPrivateFor(ctx context.Context, e *PrivateForEntry) error
	RemovePrivateFor(ctx context.Context, loanRef uint64, value string) error
}
