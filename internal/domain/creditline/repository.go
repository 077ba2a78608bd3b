package creditline

import "context"

type Repository interface {
	Create(ctx context.Context, c *CreditLine) error

	GetByCreditLineID(ctx context.Context, creditLineID string) (*CreditLine, error)
	// GetByCreditLineIDForUpdate locks the credit line row; all counter
	// mutations and approval responses go through it.
	GetByCreditLineIDForUpdate(ctx context.Context, creditLineID string) (*CreditLine, error)
	GetByRefForUpdate(ctx context.Context, ref uint64) (*CreditLine, error)

	// Save persists the root row's scalar columns (status, counters,
	// next action id). Children are written through their own methods.
	Save(ctx context.Context, c *CreditLine) error

	SaveApproval(ctx context.Context, a *ApproverAction) error
	AddParticipant(ctx context.Context, p *Participant) error

	AppendData(ctx context.Context, d *DataRecord) error
	SaveData(ctx context.Context, d *DataRecord) error

	AddPrivateFor(ctx context.Context, e *PrivateForEntry) error
	RemovePrivateFor(ctx context.Context, creditLineRef uint64, value string) error
}
