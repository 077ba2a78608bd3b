package event

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Type names follow the message vocabulary of the credit network.
const (
	TypeCreditCreate       = "CREDIT_CREATE"
	TypeCreditSubmit       = "CREDIT_SUBMIT"
	TypeCreditApprove      = "CREDIT_APPROVE"
	TypeCreditDataUpdated  = "CREDIT_DATA_UPDATED"
	TypeLoanSubmit         = "LOAN_SUBMIT"
	TypeLoanApprove        = "LOAN_APPROVE"
	TypeLoanRecall         = "LOAN_RECALL"
	TypeLoanCancel         = "LOAN_CANCEL"
	TypeLoanDisburseApply  = "LOAN_DISBURSE_APPLY"
	TypeLoanDisburseCancel = "LOAN_DISBURSE_CANCEL"
	TypeLoanDisburseDone   = "LOAN_DISBURSE_CONFIRM"
	TypeLoanRepayApply     = "LOAN_REPAY_APPLY"
	TypeLoanRepayConfirm   = "LOAN_REPAY_CONFIRM"
	TypeLoanRepayReject    = "LOAN_REPAY_REJECT"
	TypeLoanTransfer       = "LOAN_TRANSFER"
	TypeLoanDataUpdated    = "LOAN_DATA_UPDATED"
	TypeLoanSignContract   = "LOAN_SIGN_CONTRACT"
	TypeAgreementUpdated   = "AGREEMENT_UPDATED"
)

const (
	EntityAgreement  = "agreement"
	EntityCreditLine = "credit_line"
	EntityLoan       = "loan"
)

// Event is one entry of the append-only audit trail. ActionID is the
// per-entity monotonic counter assigned under the entity's row lock, so
// consumers can order events without relying on wall-clock time.
type Event struct {
	ID         uint64    `gorm:"column:id;primaryKey;autoIncrement"`
	EventID    string    `gorm:"column:event_id;type:char(36);not null;uniqueIndex"`
	EntityKind string    `gorm:"column:entity_kind;size:24;not null;index:idx_events_entity"`
	EntityID   string    `gorm:"column:entity_id;type:char(32);not null;index:idx_events_entity"`
	ActionID   uint64    `gorm:"column:action_id;not null"`
	Type       string    `gorm:"column:type;size:40;not null"`
	ActorID    string    `gorm:"column:actor_id;type:char(32)"`
	DelegateID string    `gorm:"column:delegate_id;type:char(32)"`
	Payload    []byte    `gorm:"column:payload;type:json"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (Event) TableName() string { return "events" }

// New builds an event with a fresh id and a marshalled payload. A nil
// payload is stored as SQL NULL.
func New(entityKind, entityID string, actionID uint64, typ, actorID, delegateID string, payload map[string]any) *Event {
	var raw []byte
	if payload != nil {
		raw, _ = json.Marshal(payload)
	}
	return &Event{
		EventID:    uuid.NewString(),
		EntityKind: entityKind,
		EntityID:   entityID,
		ActionID:   actionID,
		Type:       typ,
		ActorID:    actorID,
		DelegateID: delegateID,
		Payload:    raw,
	}
}
