package agreement

import (
	"context"
	"errors"

	domain "creditflow/internal/domain/agreement"
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

// Create registers an agreement binding participants to roles, with an
// optional initial approval workflow. The owner joins as accepted, every
// other participant as pending.
func (u *Usecase) Create(ctx context.Context, in CreateInput) (*AgreementDTO, error) {
	if in.OwnerID == "" || len(in.Participants) == 0 {
		return nil, domain.ErrValidation
	}
	if len(in.Participants) != len(in.Roles) {
		return nil, domain.ErrValidation
	}
	seen := make(map[string]bool, len(in.Participants))
	ownerListed := false
	for _, p := range in.Participants {
		if p == "" || seen[p] {
			return nil, domain.ErrValidation
		}
		seen[p] = true
		if p == in.OwnerID {
			ownerListed = true
		}
	}
	if !ownerListed {
		return nil, domain.ErrValidation
	}
	if err := domain.ValidateWorkflow(in.ApprovalWorkflow, in.Participants); err != nil {
		return nil, err
	}
	if err := identity.Resolve(ctx, u.gate, in.OwnerID, in.ActorAddress); err != nil {
		return nil, err
	}

	a := &domain.Agreement{
		AgreementID:  id.NewID32(),
		OwnerID:      in.OwnerID,
		EncryptKey:   in.EncryptKey,
		NextActionID: 2,
	}
	for i, p := range in.Participants {
		status := domain.StatusPending
		if p == in.OwnerID {
			status = domain.StatusAccepted
		}
		a.Participants = append(a.Participants, domain.Participant{
			Seq:        i,
			IdentityID: p,
			Role:       in.Roles[i],
			Status:     status,
		})
	}
	for i, w := range in.ApprovalWorkflow {
		a.Approvers = append(a.Approvers, domain.Approver{Seq: i, IdentityID: w})
	}

	err := u.uow.WithinTx(ctx, func(r uow.Repos) error {
		for _, p := range in.Participants {
			if _, err := r.Identities.GetByIdentityID(ctx, p); err != nil {
				if errors.Is(err, identity.ErrNotFound) {
					return domain.ErrValidation
				}
				return err
			}
		}
		if err := r.Agreements.Create(ctx, a); err != nil {
			return err
		}
		return r.Events.Append(ctx, event.New(
			event.EntityAgreement, a.AgreementID, 1,
			event.TypeAgreementUpdated, in.OwnerID, "",
			map[string]any{"action": "create"},
		))
	})
	if err != nil {
		return nil, err
	}
	return toDTO(a), nil
}

func (u *Usecase) Get(ctx context.Context, agreementID string) (*AgreementDTO, error) {
	var out *AgreementDTO
	err := u.uow.WithinTx(ctx, func(r uow.Repos) error {
		a, err := r.Agreements.GetByAgreementID(ctx, agreementID)
		if err != nil {
			return err
		}
		out = toDTO(a)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// SetApprovalWorkflow replaces the approver sequence wholesale. Owner only;
// every entry must be a current participant.
func (u *Usecase) SetApprovalWorkflow(ctx context.Context, in SetWorkflowInput) error {
	return u.withAgreement(ctx, in.AgreementID, func(r uow.Repos, a *domain.Agreement) error {
		if err := identity.Resolve(ctx, u.gate, a.OwnerID, in.Actor.Address); err != nil {
			return err
		}
		members := make([]string, 0, len(a.Participants))
		for _, p := range a.Participants {
			members = append(members, p.IdentityID)
		}
		if err := domain.ValidateWorkflow(in.Workflow, members); err != nil {
			return err
		}
		approvers := make([]domain.Approver, 0, len(in.Workflow))
		for i, w := range in.Workflow {
			approvers = append(approvers, domain.Approver{AgreementRef: a.ID, Seq: i, IdentityID: w})
		}
		if err := r.Agreements.ReplaceApprovers(ctx, a.ID, approvers); err != nil {
			return err
		}
		return u.record(ctx, r, a, in.Actor, map[string]any{"action": "set_approval_workflow"})
	})
}

// SetParticipantStatus lets a participant accept, reject or exit on its own
// behalf. Nobody can answer for another participant, delegates aside.
func (u *Usecase) SetParticipantStatus(ctx context.Context, in SetParticipantStatusInput) error {
	switch in.Status {
	case domain.StatusAccepted, domain.StatusRejected, domain.StatusExited:
	default:
		return domain.ErrValidation
	}
	return u.withAgreement(ctx, in.AgreementID, func(r uow.Repos, a *domain.Agreement) error {
		if err := identity.Resolve(ctx, u.gate, in.ParticipantID, in.Actor.Address); err != nil {
			return err
		}
		p := a.ParticipantByID(in.ParticipantID)
		if p == nil {
			return domain.ErrNotParticipant
		}
		p.Status = in.Status
		if err := r.Agreements.SaveParticipant(ctx, p); err != nil {
			return err
		}
		return u.record(ctx, r, a, in.Actor, map[string]any{
			"action": "set_participant_status", "participant": in.ParticipantID, "status": string(in.Status),
		})
	})
}

// SetParticipantName sets the display name on a participant's own entry.
func (u *Usecase) SetParticipantName(ctx context.Context, agreementID, participantID, name string, actor Actor) error {
	return u.withAgreement(ctx, agreementID, func(r uow.Repos, a *domain.Agreement) error {
		if err := identity.Resolve(ctx, u.gate, participantID, actor.Address); err != nil {
			return err
		}
		p := a.ParticipantByID(participantID)
		if p == nil {
			return domain.ErrNotParticipant
		}
		p.Name = name
		if err := r.Agreements.SaveParticipant(ctx, p); err != nil {
			return err
		}
		return u.record(ctx, r, a, actor, map[string]any{
			"action": "set_participant_name", "participant": participantID,
		})
	})
}

// UpdateProductConfig appends a new config version for the product. The
// history is append-only; earlier versions are never rewritten.
func (u *Usecase) UpdateProductConfig(ctx context.Context, in ProductConfigInput) error {
	if in.ProductID == "" || in.IPFSHash == "" {
		return domain.ErrValidation
	}
	return u.withAgreement(ctx, in.AgreementID, func(r uow.Repos, a *domain.Agreement) error {
		if err := identity.Resolve(ctx, u.gate, a.OwnerID, in.Actor.Address); err != nil {
			return err
		}
		v := &domain.ProductConfigVersion{
			AgreementRef: a.ID,
			ProductID:    in.ProductID,
			IPFSHash:     in.IPFSHash,
			IsOpened:     in.IsOpened,
		}
		if err := r.Agreements.AppendProductConfig(ctx, v); err != nil {
			return err
		}
		return u.record(ctx, r, a, in.Actor, map[string]any{
			"action": "update_product_config", "product_id": in.ProductID,
		})
	})
}

// SetProductConfigOpened flips the opened flag on the latest version of a
// product's config. Only the latest version can be toggled.
func (u *Usecase) SetProductConfigOpened(ctx context.Context, agreementID, productID string, opened bool, actor Actor) error {
	return u.withAgreement(ctx, agreementID, func(r uow.Repos, a *domain.Agreement) error {
		if err := identity.Resolve(ctx, u.gate, a.OwnerID, actor.Address); err != nil {
			return err
		}
		history, err := r.Agreements.ProductConfigHistory(ctx, a.ID, productID)
		if err != nil {
			return err
		}
		if len(history) == 0 {
			return domain.ErrNotFound
		}
		latest := history[len(history)-1]
		latest.IsOpened = opened
		if err := r.Agreements.SaveProductConfig(ctx, &latest); err != nil {
			return err
		}
		return u.record(ctx, r, a, actor, map[string]any{
			"action": "set_product_config_opened", "product_id": productID, "opened": opened,
		})
	})
}

func (u *Usecase) ProductConfigHistory(ctx context.Context, agreementID, productID string) ([]ProductConfigDTO, error) {
	var out []ProductConfigDTO
	err := u.uow.WithinTx(ctx, func(r uow.Repos) error {
		a, err := r.Agreements.GetByAgreementID(ctx, agreementID)
		if err != nil {
			return err
		}
		history, err := r.Agreements.ProductConfigHistory(ctx, a.ID, productID)
		if err != nil {
			return err
		}
		for _, v := range history {
			out = append(out, ProductConfigDTO{
				ProductID: v.ProductID,
				IPFSHash:  v.IPFSHash,
				IsOpened:  v.IsOpened,
				CreatedAt: v.CreatedAt,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// AddPrivateFor appends an opaque broadcast-scope tag. Owner only.
func (u *Usecase) AddPrivateFor(ctx context.Context, agreementID, value string, actor Actor) error {
	if value == "" {
		return domain.ErrValidation
	}
	return u.withAgreement(ctx, agreementID, func(r uow.Repos, a *domain.Agreement) error {
		if err := identity.Resolve(ctx, u.gate, a.OwnerID, actor.Address); err != nil {
			return err
		}
		for _, e := range a.PrivateFor {
			if e.Value == value {
				return nil
			}
		}
		if err := r.Agreements.AddPrivateFor(ctx, &domain.PrivateForEntry{AgreementRef: a.ID, Value: value}); err != nil {
			return err
		}
		return u.record(ctx, r, a, actor, map[string]any{"action": "add_private_for"})
	})
}

func (u *Usecase) RemovePrivateFor(ctx context.Context, agreementID, value string, actor Actor) error {
	return u.withAgreement(ctx, agreementID, func(r uow.Repos, a *domain.Agreement) error {
		if err := identity.Resolve(ctx, u.gate, a.OwnerID, actor.Address); err != nil {
			return err
		}
		if err := r.Agreements.RemovePrivateFor(ctx, a.ID, value); err != nil {
			return err
		}
		return u.record(ctx, r, a, actor, map[string]any{"action": "remove_private_for"})
	})
}

// Events returns the agreement's ordered audit trail.
func (u *Usecase) Events(ctx context.Context, agreementID string) ([]event.Event, error) {
	var out []event.Event
	err := u.uow.WithinTx(ctx, func(r uow.Repos) error {
		if _, err := r.Agreements.GetByAgreementID(ctx, agreementID); err != nil {
			return err
		}
		var err error
		out, err = r.Events.ListByEntity(ctx, event.EntityAgreement, agreementID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// withAgreement runs fn inside a transaction holding the agreement's row
// lock, so counter bumps and child writes serialize per agreement.
func (u *Usecase) withAgreement(ctx context.Context, agreementID string, fn func(r uow.Repos, a *domain.Agreement) error) error {
	return u.uow.WithinTx(ctx, func(r uow.Repos) error {
		a, err := r.Agreements.GetByAgreementIDForUpdate(ctx, agreementID)
		if err != nil {
			return err
		}
		return fn(r, a)
	})
}

// record assigns the next action id, persists the counter and appends the
// audit event, all under the row lock withAgreement took.
func (u *Usecase) record(ctx context.Context, r uow.Repos, a *domain.Agreement, actor Actor, payload map[string]any) error {
	actionID := a.NextActionID
	a.NextActionID++
	if err := r.Agreements.Save(ctx, a); err != nil {
		return err
	}
	actorID := actor.IdentityID
	if actorID == "" {
		actorID = a.OwnerID
	}
	return r.Events.Append(ctx, event.New(
		event.EntityAgreement, a.AgreementID, actionID,
		event.TypeAgreementUpdated, actorID, actor.DelegateID, payload,
	))
}
