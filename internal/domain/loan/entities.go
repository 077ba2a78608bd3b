package loan

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"creditflow/internal/domain/identity"
)

var (
	ErrNotFound            = errors.New("loan not found")
	ErrValidation          = errors.New("invalid loan input")
	ErrUnauthorized        = errors.New("caller may not act on this loan")
	ErrInvalidState        = errors.New("operation invalid for current loan state")
	ErrNotApprover         = errors.New("identity is not in the approval workflow")
	ErrNotParticipant      = errors.New("identity is not a loan participant")
	ErrAlreadyResponded    = errors.New("approver already responded")
	ErrAlreadyConfirmed    = errors.New("scheduled payment already confirmed")
	ErrInsufficientBalance = errors.New("transfer exceeds balance")
	ErrPaymentNotRequested = errors.New("payment is not in requested status")
)

type State string

const (
	StatePending           State = "pending"
	StateApproved          State = "approved"
	StateRejected          State = "rejected"
	StateCancelled         State = "cancelled"
	StatePendingOnDisburse State = "pending_on_confirm_disbursement"
	StateRepaying          State = "repaying"
	StateCompleted         State = "completed"
)

type PaymentStatus string

const (
	PaymentRequested PaymentStatus = "requested"
	PaymentConfirmed PaymentStatus = "confirmed"
	PaymentRejected  PaymentStatus = "rejected"
)

// Loan is drawn against an approved credit line. It carries its own
// approval round, a disbursement sub-protocol producing a repayment
// schedule, an append-only payment ledger and a claim-transfer ledger.
type Loan struct {
	ID            uint64 `gorm:"column:id;primaryKey;autoIncrement"`
	LoanID        string `gorm:"column:loan_id;type:char(32);not null;uniqueIndex"`
	CreditLineRef uint64 `gorm:"column:credit_line_ref;not null;index"`
	BorrowerID    string `gorm:"column:borrower_id;type:char(32);not null;index"`

	State          State     `gorm:"column:state;size:40;not null;default:'pending'"`
	StateUpdatedAt time.Time `gorm:"column:state_updated_at"`

	TotalPrinciple       int64 `gorm:"column:total_principle;not null;default:0"`
	TotalInterest        int64 `gorm:"column:total_interest;not null;default:0"`
	OutstandingPrinciple int64 `gorm:"column:outstanding_principle;not null;default:0"`
	DisburseTime         int64 `gorm:"column:disburse_time;not null;default:0"`
	InterestStartTime    int64 `gorm:"column:interest_start_time;not null;default:0"`

	ProductConfigHash string `gorm:"column:product_config_hash;size:128"`
	ExternalID        string `gorm:"column:external_id;size:64"`
	EncryptKey        string `gorm:"column:encrypt_key;type:text"`

	NextActionID uint64 `gorm:"column:next_action_id;not null;default:1"`

	Participants      []Participant      `gorm:"foreignKey:LoanRef"`
	Approvals         []Approval         `gorm:"foreignKey:LoanRef"`
	ScheduledPayments []ScheduledPayment `gorm:"foreignKey:LoanRef"`
	Payments          []Payment          `gorm:"foreignKey:LoanRef"`
	Balances          []Balance          `gorm:"foreignKey:LoanRef"`
	PrivateFor        []PrivateForEntry  `gorm:"foreignKey:LoanRef"`

	CreatedAt time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time      `gorm:"column:updated_at;autoUpdateTime"`
	DeletedAt gorm.DeletedAt `gorm:"column:deleted_at;index"`
}

func (Loan) TableName() string { return "loans" }

type Participant struct {
	ID         uint64        `gorm:"column:id;primaryKey;autoIncrement"`
	LoanRef    uint64        `gorm:"column:loan_ref;not null;index;uniqueIndex:ux_loan_participant"`
	Seq        int           `gorm:"column:seq;not null"`
	IdentityID string        `gorm:"column:identity_id;type:char(32);not null;uniqueIndex:ux_loan_participant"`
	Role       identity.Role `gorm:"column:role;not null"`
}

func (Participant) TableName() string { return "loan_participants" }

// Approval is one approver's slot; the workflow always begins with the
// borrower. Recall clears a slot while the loan is still pending.
type Approval struct {
	ID          uint64        `gorm:"column:id;primaryKey;autoIncrement"`
	LoanRef     uint64        `gorm:"column:loan_ref;not null;index"`
	Seq         int           `gorm:"column:seq;not null"`
	ApproverID  string        `gorm:"column:approver_id;type:char(32);not null"`
	Role        identity.Role `gorm:"column:role;not null"`
	Responded   bool          `gorm:"column:responded;not null;default:false"`
	Approved    bool          `gorm:"column:approved;not null;default:false"`
	RespondedAt *time.Time    `gorm:"column:responded_at"`
}

func (Approval) TableName() string { return "loan_approvals" }

// ScheduledPayment is one planned due-date/principal/interest slot set at
// disbursement time.
type ScheduledPayment struct {
	ID           uint64 `gorm:"column:id;primaryKey;autoIncrement"`
	LoanRef      uint64 `gorm:"column:loan_ref;not null;index"`
	Idx          int    `gorm:"column:idx;not null"`
	DueTime      int64  `gorm:"column:due_time;not null"`
	DuePrincipal int64  `gorm:"column:due_principal;not null"`
	DueInterest  int64  `gorm:"column:due_interest;not null"`
	DebtorID     string `gorm:"column:debtor_id;type:char(32);not null"`
	Sequence     int    `gorm:"column:sequence;not null"`
	Completed    bool   `gorm:"column:completed;not null;default:false"`
}

func (ScheduledPayment) TableName() string { return "loan_scheduled_payments" }

// Payment is one repayment attempt against a schedule slot. Records are
// append-only: after creation only the status and confirm time may be
// set, and each record is identified by its own index, not the slot's.
type Payment struct {
	ID            uint64        `gorm:"column:id;primaryKey;autoIncrement"`
	LoanRef       uint64        `gorm:"column:loan_ref;not null;index"`
	Idx           int           `gorm:"column:idx;not null"`
	ScheduleIdx   int           `gorm:"column:schedule_idx;not null"`
	PaidPrincipal int64         `gorm:"column:paid_principal;not null"`
	PaidInterest  int64         `gorm:"column:paid_interest;not null"`
	PaidTime      int64         `gorm:"column:paid_time;not null"`
	ConfirmTime   int64         `gorm:"column:confirm_time;not null;default:0"`
	MarkCompleted bool          `gorm:"column:mark_completed;not null;default:false"`
	DebtorID      string        `gorm:"column:debtor_id;type:char(32);not null"`
	Status        PaymentStatus `gorm:"column:status;size:16;not null;default:'requested'"`
	CreatedAt     time.Time     `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time     `gorm:"column:updated_at;autoUpdateTime"`
}

func (Payment) TableName() string { return "loan_payments" }

// Balance is one identity's recorded share of the loan's principal.
// Shares move between identities via Transfer; their sum equals the
// total principle while the loan is repaying or completed.
type Balance struct {
	ID         uint64    `gorm:"column:id;primaryKey;autoIncrement"`
	LoanRef    uint64    `gorm:"column:loan_ref;not null;index;uniqueIndex:ux_loan_balance"`
	IdentityID string    `gorm:"column:identity_id;type:char(32);not null;uniqueIndex:ux_loan_balance"`
	Amount     int64     `gorm:"column:amount;not null;default:0"`
	UpdatedAt  time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (Balance) TableName() string { return "loan_balances" }

type PrivateForEntry struct {
	ID      uint64 `gorm:"column:id;primaryKey;autoIncrement"`
	LoanRef uint64 `gorm:"column:loan_ref;not null;index"`
	Value   string `gorm:"column:value;size:128;not null"`
}

func (PrivateForEntry) TableName() string { return "loan_private_for" }
