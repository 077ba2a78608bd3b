package creditline

import (
	"time"

	domain "creditflow/internal/domain/creditline"
	"creditflow/internal/domain/identity"
)

// Actor identifies who performs a mutation: the identity acted for, the
// optional delegate acting on its behalf, and the authenticated address.
type Actor struct {
	IdentityID string
	DelegateID string
	Address    string
}

type CreateInput struct {
	AgreementID string
	BorrowerID  string
	ProductID   string
	EncryptKey  string
	Actor       Actor
}

type SubmitInput struct {
	CreditLineID    string
	RequestedAmount int64
	Actor           Actor
}

type ActionInput struct {
	CreditLineID   string
	ApproverID     string
	Approve        bool
	ProposedAmount int64
	Remarks        string
	Actor          Actor
}

type AddParticipantInput struct {
	CreditLineID string
	IdentityID   string
	Role         identity.Role
	Actor        Actor
}

type AddDataInput struct {
	CreditLineID string
	Value        string
	Actor        Actor
}

type ApprovalDTO struct {
	ApproverID     string     `json:"approver_id"`
	Responded      bool       `json:"responded"`
	Approved       bool       `json:"approved"`
	ProposedAmount int64      `json:"proposed_amount"`
	Remarks        string     `json:"remarks,omitempty"`
	RespondedAt    *time.Time `json:"responded_at,omitempty"`
}

type ParticipantDTO struct {
	IdentityID string        `json:"identity_id"`
	Role       identity.Role `json:"role"`
}

type DataRecordDTO struct {
	Idx        int    `json:"idx"`
	Value      string `json:"value"`
	UploaderID string `json:"uploader_id"`
	Deleted    bool   `json:"deleted"`
}

type CreditLineDTO struct {
	CreditLineID    string           `json:"credit_line_id"`
	OwnerID         string           `json:"owner_id"`
	ProductID       string           `json:"product_id"`
	Status          domain.Status    `json:"status"`
	Submitted       bool             `json:"submitted"`
	RequestedAmount int64            `json:"requested_amount"`
	GrantedAmount   int64            `json:"granted_amount"`
	FrozenAmount    int64            `json:"frozen_amount"`
	UsedAmount      int64            `json:"used_amount"`
	AvailableAmount int64            `json:"available_amount"`
	Participants    []ParticipantDTO `json:"participants"`
	Approvals       []ApprovalDTO    `json:"approvals"`
	DataRecords     []DataRecordDTO  `json:"data_records,omitempty"`
	CreatedAt       time.Time        `json:"created_at"`
}

func toDTO(c *domain.CreditLine) *CreditLineDTO {
	dto := &CreditLineDTO{
		CreditLineID:    c.CreditLineID,
		OwnerID:         c.OwnerID,
		ProductID:       c.ProductID,
		Status:          c.Status,
		Submitted:       c.Submitted,
		RequestedAmount: c.RequestedAmount,
		GrantedAmount:   c.GrantedAmount,
		FrozenAmount:    c.FrozenAmount,
		UsedAmount:      c.UsedAmount,
		AvailableAmount: c.AvailableAmount(),
		CreatedAt:       c.CreatedAt,
	}
	for _, p := range c.Participants {
		dto.Participants = append(dto.Participants, ParticipantDTO{IdentityID: p.IdentityID, Role: p.Role})
	}
	for _, a := range c.Approvals {
		dto.Approvals = append(dto.Approvals, ApprovalDTO{
			ApproverID:     a.ApproverID,
			Responded:      a.Responded,
			Approved:       a.Approved,
			ProposedAmount: a.ProposedAmount,
			Remarks:        a.Remarks,
			RespondedAt:    a.RespondedAt,
		})
	}
	for _, d := range c.DataRecords {
		dto.DataRecords = append(dto.DataRecords, DataRecordDTO{
			Idx:        d.Idx,
			Value:      d.Value,
			UploaderID: d.UploaderID,
			Deleted:    d.Deleted,
		})
	}
	return dto
}
