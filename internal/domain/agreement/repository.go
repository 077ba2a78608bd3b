package agreement

import "context"

type Repository interface {
	// Create persists the agreement with its participant, approver and
	// private-for children in one shot.
	Create(ctx context.Context, a *Agreement) error

	GetByAgreementID(ctx context.Context, agreementID string) (*Agreement, error)
	// GetByAgreementIDForUpdate locks the agreement row for the duration
	// of the surrounding transaction.
	GetByAgreementIDForUpdate(ctx context.Context, agreementID string) (*Agreement, error)

	// Save persists the root row's scalar columns only; children are
	// written through their dedicated methods.
	Save(ctx context.Context, a *Agreement) error

	// ReplaceApprovers swaps the approval workflow wholesale.
	ReplaceApprovers(ctx context.Context, agreementRef uint64, approvers []Approver) error

	SaveParticipant(ctx context.Context, p *Participant) error

	// AppendProductConfig appends one immutable config version.
	AppendProductConfig(ctx context.Context, v *ProductConfigVersion) error
	// SaveProductConfig flips flags on an existing version (latest only,
	// enforced by the caller).
	SaveProductConfig(ctx context.Context, v *ProductConfigVersion) error
	ProductConfigHistory(ctx context.Context, agreementRef uint64, productID string) ([]ProductConfigVersion, error)

	AddPrivateFor(ctx context.Context, e *PrivateForEntry) error
	RemovePrivateFor(ctx context.Context, agreementRef uint64, value string) error
}
