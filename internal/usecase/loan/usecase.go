package loan

import (
	"context"
	"time"

	creditlineDomain "creditflow/internal/domain/creditline"
	"creditflow/internal/domain/event"
	"creditflow/internal/domain/identity"
	domain "creditflow/internal/domain/loan"
	"creditflow/internal/domain/uow"
	"creditflow/pkg/id"
)

type Usecase struct {
	uow  uow.UnitOfWork
	gate identity.Gate
}

func NewUsecase(u uow.UnitOfWork, gate identity.Gate) *Usecase {
	return &Usecase{uow: u, gate: gate}
}

// Create opens a loan against an approved credit line, copying its
// participant list and approval workflow. Creation reserves nothing:
// the principal is checked against availability only when the final
// approval lands.
func (u *Usecase) Create(ctx context.Context, in CreateInput) (*LoanDTO, error) {
	if in.CreditLineID == "" || in.TotalPrinciple <= 0 {
		return nil, domain.ErrValidation
	}

	var out *LoanDTO
	err := u.uow.WithinCreditLineTx(ctx, in.CreditLineID, func(r uow.Repos, c *creditlineDomain.CreditLine) error {
		if err := identity.Resolve(ctx, u.gate, c.OwnerID, in.Actor.Address); err != nil {
			return err
		}
		if !c.IsOpened() {
			return domain.ErrInvalidState
		}

		l := &domain.Loan{
			LoanID:            id.NewID32(),
			CreditLineRef:     c.ID,
			BorrowerID:        c.OwnerID,
			State:             domain.StatePending,
			StateUpdatedAt:    time.Now(),
			TotalPrinciple:    in.TotalPrinciple,
			ProductConfigHash: in.ProductConfigHash,
			ExternalID:        in.ExternalID,
			EncryptKey:        in.EncryptKey,
			NextActionID:      2,
		}
		for i, p := range c.Participants {
			l.Participants = append(l.Participants, domain.Participant{
				Seq:        i,
				IdentityID: p.IdentityID,
				Role:       p.Role,
			})
		}
		for i, a := range c.Approvals {
			role := identity.RoleNone
			for _, p := range c.Participants {
				if p.IdentityID == a.ApproverID {
					role = p.Role
					break
				}
			}
			if a.ApproverID == c.OwnerID {
				role = identity.RoleBorrower
			}
			l.Approvals = append(l.Approvals, domain.Approval{
				Seq:        i,
				ApproverID: a.ApproverID,
				Role:       role,
			})
		}
		if err := r.Loans.Create(ctx, l); err != nil {
			return err
		}
		if err := r.Events.Append(ctx, event.New(
			event.EntityLoan, l.LoanID, 1, event.TypeLoanSubmit,
			c.OwnerID, in.Actor.DelegateID,
			map[string]any{"total_principle": in.TotalPrinciple, "credit_line_id": c.CreditLineID},
		)); err != nil {
			return err
		}
		out = toDTO(l)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Approve records one approver's single response. Any rejection settles
// the loan immediately. The final approval also reserves the principal
// against the credit line; if the line cannot cover it the whole
// transaction rolls back, response included.
func (u *Usecase) Approve(ctx context.Context, in ApproveInput) error {
	return u.uow.WithinLoanTx(ctx, in.LoanID, func(r uow.Repos, l *domain.Loan) error {
		if err := identity.Resolve(ctx, u.gate, in.ApproverID, in.Actor.Address); err != nil {
			return err
		}
		if l.State != domain.StatePending {
			return domain.ErrInvalidState
		}
		slot := l.ApprovalByID(in.ApproverID)
		if slot == nil {
			return domain.ErrNotApprover
		}
		if slot.Responded {
			return domain.ErrAlreadyResponded
		}
		now := time.Now()
		slot.Responded = true
		slot.Approved = in.Approve
		slot.RespondedAt = &now
		if err := r.Loans.SaveApproval(ctx, slot); err != nil {
			return err
		}

		if !in.Approve {
			u.setState(l, domain.StateRejected)
		} else if l.AllApproved() {
			c, err := r.CreditLines.GetByRefForUpdate(ctx, l.CreditLineRef)
			if err != nil {
				return err
			}
			if err := c.Reserve(l.TotalPrinciple); err != nil {
				return err
			}
			if err := r.CreditLines.Save(ctx, c); err != nil {
				return err
			}
			u.setState(l, domain.StateApproved)
		}
		return u.record(ctx, r, l, event.TypeLoanApprove, in.Actor, map[string]any{
			"approver": in.ApproverID, "approve": in.Approve, "state": string(l.State),
		})
	})
}

// Recall clears an approver's own response while the loan is still
// pending, reopening the slot for a fresh answer.
func (u *Usecase) Recall(ctx context.Context, loanID, approverID string, actor Actor) error {
	return u.uow.WithinLoanTx(ctx, loanID, func(r uow.Repos, l *domain.Loan) error {
		if err := identity.Resolve(ctx, u.gate, approverID, actor.Address); err != nil {
			return err
		}
		if l.State != domain.StatePending {
			return domain.ErrInvalidState
		}
		slot := l.ApprovalByID(approverID)
		if slot == nil {
			return domain.ErrNotApprover
		}
		slot.Responded = false
		slot.Approved = false
		slot.RespondedAt = nil
		if err := r.Loans.SaveApproval(ctx, slot); err != nil {
			return err
		}
		return u.record(ctx, r, l, event.TypeLoanRecall, actor, map[string]any{
			"approver": approverID,
		})
	})
}

// Cancel aborts a pending or approved loan. Borrower or any approver.
// An approved loan hands its reservation back to the credit line.
func (u *Usecase) Cancel(ctx context.Context, loanID string, actor Actor) error {
	return u.uow.WithinLoanTx(ctx, loanID, func(r uow.Repos, l *domain.Loan) error {
		if err := identity.Resolve(ctx, u.gate, actor.IdentityID, actor.Address); err != nil {
			return err
		}
		if actor.IdentityID != l.BorrowerID && l.ApprovalByID(actor.IdentityID) == nil {
			return domain.ErrUnauthorized
		}
		if l.State != domain.StatePending && l.State != domain.StateApproved {
			return domain.ErrInvalidState
		}
		if l.State == domain.StateApproved {
			c, err := r.CreditLines.GetByRefForUpdate(ctx, l.CreditLineRef)
			if err != nil {
				return err
			}
			if err := c.Release(l.TotalPrinciple); err != nil {
				return err
			}
			if err := r.CreditLines.Save(ctx, c); err != nil {
				return err
			}
		}
		u.setState(l, domain.StateCancelled)
		return u.record(ctx, r, l, event.TypeLoanCancel, actor, nil)
	})
}

// AddData appends an upload marker to the audit trail. Any participant.
func (u *Usecase) AddData(ctx context.Context, loanID, value string, actor Actor) error {
	if value == "" {
		return domain.ErrValidation
	}
	return u.uow.WithinLoanTx(ctx, loanID, func(r uow.Repos, l *domain.Loan) error {
		if err := u.resolveParticipant(ctx, l, actor); err != nil {
			return err
		}
		return u.record(ctx, r, l, event.TypeLoanDataUpdated, actor, map[string]any{
			"value": value,
		})
	})
}

// EContractSigned logs a contract-signature marker. Any participant.
func (u *Usecase) EContractSigned(ctx context.Context, loanID, contractHash string, actor Actor) error {
	return u.uow.WithinLoanTx(ctx, loanID, func(r uow.Repos, l *domain.Loan) error {
		if err := u.resolveParticipant(ctx, l, actor); err != nil {
			return err
		}
		return u.record(ctx, r, l, event.TypeLoanSignContract, actor, map[string]any{
			"contract_hash": contractHash,
		})
	})
}

func (u *Usecase) Get(ctx context.Context, loanID string) (*LoanDTO, error) {
	var out *LoanDTO
	err := u.uow.WithinTx(ctx, func(r uow.Repos) error {
		l, err := r.Loans.GetByLoanID(ctx, loanID)
		if err != nil {
			return err
		}
		out = toDTO(l)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ApprovalDetails returns the workflow slots with their responses.
func (u *Usecase) ApprovalDetails(ctx context.Context, loanID string) ([]ApprovalDTO, error) {
	dto, err := u.Get(ctx, loanID)
	if err != nil {
		return nil, err
	}
	return dto.Approvals, nil
}

// Events returns the loan's ordered audit trail.
func (u *Usecase) Events(ctx context.Context, loanID string) ([]event.Event, error) {
	var out []event.Event
	err := u.uow.WithinTx(ctx, func(r uow.Repos) error {
		if _, err := r.Loans.GetByLoanID(ctx, loanID); err != nil {
			return err
		}
		var err error
		out, err = r.Events.ListByEntity(ctx, event.EntityLoan, loanID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// AddPrivateFor appends an opaque broadcast-scope tag. Borrower only.
func (u *Usecase) AddPrivateFor(ctx context.Context, loanID, value string, actor Actor) error {
	if value == "" {
		return domain.ErrValidation
	}
	return u.uow.WithinLoanTx(ctx, loanID, func(r uow.Repos, l *domain.Loan) error {
		if err := identity.Resolve(ctx, u.gate, l.BorrowerID, actor.Address); err != nil {
			return err
		}
		for _, e := range l.PrivateFor {
			if e.Value == value {
				return nil
			}
		}
		if err := r.Loans.AddPrivateFor(ctx, &domain.PrivateForEntry{LoanRef: l.ID, Value: value}); err != nil {
			return err
		}
		return u.record(ctx, r, l, event.TypeLoanDataUpdated, actor, map[string]any{
			"action": "add_private_for",
		})
	})
}

func (u *Usecase) RemovePrivateFor(ctx context.Context, loanID, value string, actor Actor) error {
	return u.uow.WithinLoanTx(ctx, loanID, func(r uow.Repos, l *domain.Loan) error {
		if err := identity.Resolve(ctx, u.gate, l.BorrowerID, actor.Address); err != nil {
			return err
		}
		if err := r.Loans.RemovePrivateFor(ctx, l.ID, value); err != nil {
			return err
		}
		return u.record(ctx, r, l, event.TypeLoanDataUpdated, actor, map[string]any{
			"action": "remove_private_for",
		})
	})
}

func (u *Usecase) setState(l *domain.Loan, s domain.State) {
	l.State = s
	l.StateUpdatedAt = time.Now()
}

// resolveParticipant checks the actor's grant and participant membership.
func (u *Usecase) resolveParticipant(ctx context.Context, l *domain.Loan, actor Actor) error {
	if err := identity.Resolve(ctx, u.gate, actor.IdentityID, actor.Address); err != nil {
		return err
	}
	if !l.HasParticipant(actor.IdentityID) {
		return domain.ErrNotParticipant
	}
	return nil
}

// record assigns the next action id, persists the root row and appends
// the audit event, all under the row lock WithinLoanTx took.
func (u *Usecase) record(ctx context.Context, r uow.Repos, l *domain.Loan, typ string, actor Actor, payload map[string]any) error {
	actionID := l.NextActionID
	l.NextActionID++
	if err := r.Loans.Save(ctx, l); err != nil {
		return err
	}
	actorID := actor.IdentityID
	if actorID == "" {
		actorID = l.BorrowerID
	}
	return r.Events.Append(ctx, event.New(
		event.EntityLoan, l.LoanID, actionID, typ, actorID, actor.DelegateID, payload,
	))
}
