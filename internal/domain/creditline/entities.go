package creditline

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"creditflow/internal/domain/identity"
)

var (
	ErrNotFound             = errors.New("credit line not found")
	ErrValidation           = errors.New("invalid credit line input")
	ErrUnauthorized         = errors.New("caller may not act on this credit line")
	ErrInvalidState         = errors.New("operation invalid for current credit line status")
	ErrNotApprover          = errors.New("identity is not in the approval workflow")
	ErrAlreadyResponded     = errors.New("approver already responded")
	ErrInsufficientCredit   = errors.New("amount exceeds available credit")
	ErrDuplicateParticipant = errors.New("participant already exists")
	ErrNotParticipant       = errors.New("identity is not a credit line participant")
)

type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// CreditLine references one agreement and runs a one-round-per-approver
// approval protocol yielding a granted amount. Its frozen/used counters
// are mutated only through Reserve/Release/Consume, always under the
// credit line's row lock.
type CreditLine struct {
	ID           uint64 `gorm:"column:id;primaryKey;autoIncrement"`
	CreditLineID string `gorm:"column:credit_line_id;type:char(32);not null;uniqueIndex"`
	AgreementRef uint64 `gorm:"column:agreement_ref;not null;index"`
	OwnerID      string `gorm:"column:owner_id;type:char(32);not null;index"` // borrower identity
	ProductID    string `gorm:"column:product_id;size:64;not null"`
	EncryptKey   string `gorm:"column:encrypt_key;type:text"`

	Status          Status `gorm:"column:status;size:16;not null;default:'pending'"`
	Submitted       bool   `gorm:"column:submitted;not null;default:false"`
	RequestedAmount int64  `gorm:"column:requested_amount;not null;default:0"`
	GrantedAmount   int64  `gorm:"column:granted_amount;not null;default:0"`
	FrozenAmount    int64  `gorm:"column:frozen_amount;not null;default:0"`
	UsedAmount      int64  `gorm:"column:used_amount;not null;default:0"`

	// NextActionID numbers ActionEvents; incremented under the row lock.
	NextActionID uint64 `gorm:"column:next_action_id;not null;default:1"`

	Participants []Participant     `gorm:"foreignKey:CreditLineRef"`
	Approvals    []ApproverAction  `gorm:"foreignKey:CreditLineRef"`
	DataRecords  []DataRecord      `gorm:"foreignKey:CreditLineRef"`
	PrivateFor   []PrivateForEntry `gorm:"foreignKey:CreditLineRef"`

	CreatedAt time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time      `gorm:"column:updated_at;autoUpdateTime"`
	DeletedAt gorm.DeletedAt `gorm:"column:deleted_at;index"`
}

func (CreditLine) TableName() string { return "credit_lines" }

type Participant struct {
	ID            uint64        `gorm:"column:id;primaryKey;autoIncrement"`
	CreditLineRef uint64        `gorm:"column:credit_line_ref;not null;index;uniqueIndex:ux_credit_line_participant"`
	Seq           int           `gorm:"column:seq;not null"`
	IdentityID    string        `gorm:"column:identity_id;type:char(32);not null;uniqueIndex:ux_credit_line_participant"`
	Role          identity.Role `gorm:"column:role;not null"`
}

func (Participant) TableName() string { return "credit_line_participants" }

// ApproverAction is one approver's slot in the workflow: at most one
// response, recorded with the proposed amount.
type ApproverAction struct {
	ID             uint64     `gorm:"column:id;primaryKey;autoIncrement"`
	CreditLineRef  uint64     `gorm:"column:credit_line_ref;not null;index"`
	Seq            int        `gorm:"column:seq;not null"`
	ApproverID     string     `gorm:"column:approver_id;type:char(32);not null"`
	Responded      bool       `gorm:"column:responded;not null;default:false"`
	Approved       bool       `gorm:"column:approved;not null;default:false"`
	ProposedAmount int64      `gorm:"column:proposed_amount;not null;default:0"`
	Remarks        string     `gorm:"column:remarks;type:text"`
	RespondedAt    *time.Time `gorm:"column:responded_at"`
}

func (ApproverAction) TableName() string { return "credit_line_approvals" }

// DataRecord is an append-only upload; delete is a soft flag settable by
// the uploader or the credit line owner, never a physical removal.
type DataRecord struct {
	ID            uint64    `gorm:"column:id;primaryKey;autoIncrement"`
	CreditLineRef uint64    `gorm:"column:credit_line_ref;not null;index"`
	Idx           int       `gorm:"column:idx;not null"`
	Value         string    `gorm:"column:value;type:text;not null"`
	UploaderID    string    `gorm:"column:uploader_id;type:char(32);not null"`
	Deleted       bool      `gorm:"column:deleted;not null;default:false"`
	CreatedAt     time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (DataRecord) TableName() string { return "credit_line_data" }

type PrivateForEntry struct {
	ID            uint64 `gorm:"column:id;primaryKey;autoIncrement"`
	CreditLineRef uint64 `gorm:"column:credit_line_ref;not null;index"`
	Value         string `gorm:"column:value;size:128;not null"`
}

func (PrivateForEntry) TableName() string { return "credit_line_private_for" }
