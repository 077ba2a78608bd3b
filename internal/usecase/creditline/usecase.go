package creditline

import (
	"context"
	"time"

	agreementDomain "creditflow/internal/domain/agreement"
	domain "creditflow/internal/domain/creditline"
	"creditflow/internal/domain/event"
	"creditflow/internal/domain/identity"
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

// Create opens a credit line against an agreement, snapshotting its
// participant list and approval workflow. The borrower joins the
// participant set if not already on it, and heads the workflow: the
// borrower's own sign-off is the first approval slot.
func (u *Usecase) Create(ctx context.Context, in CreateInput) (*CreditLineDTO, error) {
	if in.AgreementID == "" || in.BorrowerID == "" || in.ProductID == "" {
		return nil, domain.ErrValidation
	}
	if err := identity.Resolve(ctx, u.gate, in.BorrowerID, in.Actor.Address); err != nil {
		return nil, err
	}

	var out *CreditLineDTO
	err := u.uow.WithinTx(ctx, func(r uow.Repos) error {
		a, err := r.Agreements.GetByAgreementID(ctx, in.AgreementID)
		if err != nil {
			if err == agreementDomain.ErrNotFound {
				return domain.ErrValidation
			}
			return err
		}
		if !a.HasParticipant(in.BorrowerID) {
			return domain.ErrValidation
		}

		c := &domain.CreditLine{
			CreditLineID: id.NewID32(),
			AgreementRef: a.ID,
			OwnerID:      in.BorrowerID,
			ProductID:    in.ProductID,
			EncryptKey:   in.EncryptKey,
			Status:       domain.StatusPending,
			NextActionID: 2,
		}
		for i, p := range a.Participants {
			c.Participants = append(c.Participants, domain.Participant{
				Seq:        i,
				IdentityID: p.IdentityID,
				Role:       p.Role,
			})
		}
		if !c.HasParticipant(in.BorrowerID) {
			c.Participants = append(c.Participants, domain.Participant{
				Seq:        len(c.Participants),
				IdentityID: in.BorrowerID,
				Role:       identity.RoleBorrower,
			})
		}
		c.Approvals = append(c.Approvals, domain.ApproverAction{Seq: 0, ApproverID: in.BorrowerID})
		for i, w := range a.ApproverIDs() {
			if w == in.BorrowerID {
				continue
			}
			c.Approvals = append(c.Approvals, domain.ApproverAction{Seq: i + 1, ApproverID: w})
		}
		if err := r.CreditLines.Create(ctx, c); err != nil {
			return err
		}
		if err := r.Events.Append(ctx, event.New(
			event.EntityCreditLine, c.CreditLineID, 1, event.TypeCreditCreate,
			in.BorrowerID, in.Actor.DelegateID,
			map[string]any{"agreement_id": in.AgreementID, "product_id": in.ProductID},
		)); err != nil {
			return err
		}
		out = toDTO(c)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Submit enters the line into its approval round with the requested
// amount. Borrower (or delegate) only; one shot.
func (u *Usecase) Submit(ctx context.Context, in SubmitInput) error {
	if in.RequestedAmount <= 0 {
		return domain.ErrValidation
	}
	return u.uow.WithinCreditLineTx(ctx, in.CreditLineID, func(r uow.Repos, c *domain.CreditLine) error {
		if err := identity.Resolve(ctx, u.gate, c.OwnerID, in.Actor.Address); err != nil {
			return err
		}
		if c.Submitted || c.Status != domain.StatusPending {
			return domain.ErrInvalidState
		}
		c.Submitted = true
		c.RequestedAmount = in.RequestedAmount
		return u.record(ctx, r, c, event.TypeCreditSubmit, in.Actor, map[string]any{
			"requested_amount": in.RequestedAmount,
		})
	})
}

// Action records one approver's single response. A rejection settles the
// line immediately; once every slot approved, the granted amount becomes
// the minimum of all proposed amounts.
func (u *Usecase) Action(ctx context.Context, in ActionInput) error {
	if in.Approve && in.ProposedAmount <= 0 {
		return domain.ErrValidation
	}
	return u.uow.WithinCreditLineTx(ctx, in.CreditLineID, func(r uow.Repos, c *domain.CreditLine) error {
		if err := identity.Resolve(ctx, u.gate, in.ApproverID, in.Actor.Address); err != nil {
			return err
		}
		if !c.Submitted || c.Status != domain.StatusPending {
			return domain.ErrInvalidState
		}
		slot := c.ActionByApprover(in.ApproverID)
		if slot == nil {
			return domain.ErrNotApprover
		}
		if slot.Responded {
			return domain.ErrAlreadyResponded
		}
		now := time.Now()
		slot.Responded = true
		slot.Approved = in.Approve
		slot.ProposedAmount = in.ProposedAmount
		slot.Remarks = in.Remarks
		slot.RespondedAt = &now
		if err := r.CreditLines.SaveApproval(ctx, slot); err != nil {
			return err
		}

		if !in.Approve {
			c.Status = domain.StatusRejected
		} else if c.AllResponded() {
			allApproved := true
			for _, a := range c.Approvals {
				if !a.Approved {
					allApproved = false
					break
				}
			}
			if allApproved {
				c.Status = domain.StatusApproved
				c.GrantedAmount = c.GrantedFromProposals()
			}
		}
		return u.record(ctx, r, c, event.TypeCreditApprove, in.Actor, map[string]any{
			"approver":        in.ApproverID,
			"approve":         in.Approve,
			"proposed_amount": in.ProposedAmount,
			"status":          string(c.Status),
		})
	})
}

// AddParticipant adds an identity to the snapshot list. The caller must
// resolve to the new participant, who is consenting to join.
func (u *Usecase) AddParticipant(ctx context.Context, in AddParticipantInput) error {
	return u.uow.WithinCreditLineTx(ctx, in.CreditLineID, func(r uow.Repos, c *domain.CreditLine) error {
		if err := identity.Resolve(ctx, u.gate, in.IdentityID, in.Actor.Address); err != nil {
			return err
		}
		if c.HasParticipant(in.IdentityID) {
			return domain.ErrDuplicateParticipant
		}
		p := &domain.Participant{
			CreditLineRef: c.ID,
			Seq:           len(c.Participants),
			IdentityID:    in.IdentityID,
			Role:          in.Role,
		}
		if err := r.CreditLines.AddParticipant(ctx, p); err != nil {
			return err
		}
		return u.record(ctx, r, c, event.TypeCreditDataUpdated, in.Actor, map[string]any{
			"action": "add_participant", "participant": in.IdentityID,
		})
	})
}

// AddData appends an upload record. Any participant.
func (u *Usecase) AddData(ctx context.Context, in AddDataInput) error {
	if in.Value == "" {
		return domain.ErrValidation
	}
	return u.uow.WithinCreditLineTx(ctx, in.CreditLineID, func(r uow.Repos, c *domain.CreditLine) error {
		if err := identity.Resolve(ctx, u.gate, in.Actor.IdentityID, in.Actor.Address); err != nil {
			return err
		}
		if !c.HasParticipant(in.Actor.IdentityID) {
			return domain.ErrNotParticipant
		}
		d := &domain.DataRecord{
			CreditLineRef: c.ID,
			Idx:           len(c.DataRecords),
			Value:         in.Value,
			UploaderID:    in.Actor.IdentityID,
		}
		if err := r.CreditLines.AppendData(ctx, d); err != nil {
			return err
		}
		return u.record(ctx, r, c, event.TypeCreditDataUpdated, in.Actor, map[string]any{
			"action": "add_data", "idx": d.Idx,
		})
	})
}

// SetDataDeleted soft-deletes an upload. Only the uploader or the credit
// line owner; the record itself stays in history.
func (u *Usecase) SetDataDeleted(ctx context.Context, creditLineID string, idx int, deleted bool, actor Actor) error {
	return u.uow.WithinCreditLineTx(ctx, creditLineID, func(r uow.Repos, c *domain.CreditLine) error {
		if err := identity.Resolve(ctx, u.gate, actor.IdentityID, actor.Address); err != nil {
			return err
		}
		var rec *domain.DataRecord
		for i := range c.DataRecords {
			if c.DataRecords[i].Idx == idx {
				rec = &c.DataRecords[i]
				break
			}
		}
		if rec == nil {
			return domain.ErrNotFound
		}
		if actor.IdentityID != rec.UploaderID && actor.IdentityID != c.OwnerID {
			return domain.ErrUnauthorized
		}
		rec.Deleted = deleted
		if err := r.CreditLines.SaveData(ctx, rec); err != nil {
			return err
		}
		return u.record(ctx, r, c, event.TypeCreditDataUpdated, actor, map[string]any{
			"action": "set_data_deleted", "idx": idx, "deleted": deleted,
		})
	})
}

// AddPrivateFor appends an opaque broadcast-scope tag. Owner only.
func (u *Usecase) AddPrivateFor(ctx context.Context, creditLineID, value string, actor Actor) error {
	if value == "" {
		return domain.ErrValidation
	}
	return u.uow.WithinCreditLineTx(ctx, creditLineID, func(r uow.Repos, c *domain.CreditLine) error {
		if err := identity.Resolve(ctx, u.gate, c.OwnerID, actor.Address); err != nil {
			return err
		}
		for _, e := range c.PrivateFor {
			if e.Value == value {
				return nil
			}
		}
		if err := r.CreditLines.AddPrivateFor(ctx, &domain.PrivateForEntry{CreditLineRef: c.ID, Value: value}); err != nil {
			return err
		}
		return u.record(ctx, r, c, event.TypeCreditDataUpdated, actor, map[string]any{
			"action": "add_private_for",
		})
	})
}

func (u *Usecase) RemovePrivateFor(ctx context.Context, creditLineID, value string, actor Actor) error {
	return u.uow.WithinCreditLineTx(ctx, creditLineID, func(r uow.Repos, c *domain.CreditLine) error {
		if err := identity.Resolve(ctx, u.gate, c.OwnerID, actor.Address); err != nil {
			return err
		}
		if err := r.CreditLines.RemovePrivateFor(ctx, c.ID, value); err != nil {
			return err
		}
		return u.record(ctx, r, c, event.TypeCreditDataUpdated, actor, map[string]any{
			"action": "remove_private_for",
		})
	})
}

func (u *Usecase) Get(ctx context.Context, creditLineID string) (*CreditLineDTO, error) {
	var out *CreditLineDTO
	err := u.uow.WithinTx(ctx, func(r uow.Repos) error {
		c, err := r.CreditLines.GetByCreditLineID(ctx, creditLineID)
		if err != nil {
			return err
		}
		out = toDTO(c)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Events returns the line's ordered audit trail.
func (u *Usecase) Events(ctx context.Context, creditLineID string) ([]event.Event, error) {
	var out []event.Event
	err := u.uow.WithinTx(ctx, func(r uow.Repos) error {
		if _, err := r.CreditLines.GetByCreditLineID(ctx, creditLineID); err != nil {
			return err
		}
		var err error
		out, err = r.Events.ListByEntity(ctx, event.EntityCreditLine, creditLineID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// record assigns the next action id, persists the root row and appends
// the audit event, all under the row lock WithinCreditLineTx took.
func (u *Usecase) record(ctx context.Context, r uow.Repos, c *domain.CreditLine, typ string, actor Actor, payload map[string]any) error {
	actionID := c.NextActionID
	c.NextActionID++
	if err := r.CreditLines.Save(ctx, c); err != nil {
		return err
	}
	actorID := actor.IdentityID
	if actorID == "" {
		actorID = c.OwnerID
	}
	return r.Events.Append(ctx, event.New(
		event.EntityCreditLine, c.CreditLineID, actionID, typ, actorID, actor.DelegateID, payload,
	))
}
