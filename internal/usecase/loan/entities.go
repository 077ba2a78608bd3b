package loan

import (
	"time"

	"creditflow/internal/domain/identity"
	domain "creditflow/internal/domain/loan"
)

// Actor identifies who performs a mutation: the identity acted for, the
// optional delegate acting on its behalf, and the authenticated address.
type Actor struct {
	IdentityID string
	DelegateID string
	Address    string
}

type CreateInput struct {
	CreditLineID      string
	TotalPrinciple    int64
	ProductConfigHash string
	ExternalID        string
	EncryptKey        string
	Actor             Actor
}

type ApproveInput struct {
	LoanID     string
	ApproverID string
	Approve    bool
	Actor      Actor
}

type DisburseRequestInput struct {
	LoanID            string
	DueTimes          []int64
	DuePrincipals     []int64
	DueInterests      []int64
	Debtors           []string
	Sequences         []int
	DisburseTime      int64
	InterestStartTime int64
	Actor             Actor
}

type RepayRequestInput struct {
	LoanID        string
	ScheduleIdx   int
	PaidTime      int64
	PaidPrincipal int64
	PaidInterest  int64
	MarkCompleted bool
	DebtorID      string
	Actor         Actor
}

type TransferInput struct {
	LoanID    string
	FromID    string
	ToID      string
	Amount    int64
	Timestamp int64
	Actor     Actor
}

type ApprovalDTO struct {
	ApproverID  string        `json:"approver_id"`
	Role        identity.Role `json:"role"`
	Responded   bool          `json:"responded"`
	Approved    bool          `json:"approved"`
	RespondedAt *time.Time    `json:"responded_at,omitempty"`
}

type ScheduledPaymentDTO struct {
	Idx          int    `json:"idx"`
	DueTime      int64  `json:"due_time"`
	DuePrincipal int64  `json:"due_principal"`
	DueInterest  int64  `json:"due_interest"`
	DebtorID     string `json:"debtor_id"`
	Sequence     int    `json:"sequence"`
	Completed    bool   `json:"completed"`
}

type PaymentDTO struct {
	Idx           int                  `json:"idx"`
	ScheduleIdx   int                  `json:"schedule_idx"`
	PaidPrincipal int64                `json:"paid_principal"`
	PaidInterest  int64                `json:"paid_interest"`
	PaidTime      int64                `json:"paid_time"`
	ConfirmTime   int64                `json:"confirm_time,omitempty"`
	MarkCompleted bool                 `json:"mark_completed"`
	DebtorID      string               `json:"debtor_id"`
	Status        domain.PaymentStatus `json:"status"`
}

type BalanceDTO struct {
	IdentityID string `json:"identity_id"`
	Amount     int64  `json:"amount"`
}

type LoanDTO struct {
	LoanID               string                `json:"loan_id"`
	BorrowerID           string                `json:"borrower_id"`
	State                domain.State          `json:"state"`
	TotalPrinciple       int64                 `json:"total_principle"`
	TotalInterest        int64                 `json:"total_interest"`
	OutstandingPrinciple int64                 `json:"outstanding_principle"`
	DisburseTime         int64                 `json:"disburse_time,omitempty"`
	InterestStartTime    int64                 `json:"interest_start_time,omitempty"`
	ProductConfigHash    string                `json:"product_config_hash,omitempty"`
	ExternalID           string                `json:"external_id,omitempty"`
	Approvals            []ApprovalDTO         `json:"approvals"`
	ScheduledPayments    []ScheduledPaymentDTO `json:"scheduled_payments,omitempty"`
	Payments             []PaymentDTO          `json:"payments,omitempty"`
	Balances             []BalanceDTO          `json:"balances,omitempty"`
	CreatedAt            time.Time             `json:"created_at"`
}

func toDTO(l *domain.Loan) *LoanDTO {
	dto := &LoanDTO{
		LoanID:               l.LoanID,
		BorrowerID:           l.BorrowerID,
		State:                l.EffectiveState(),
		TotalPrinciple:       l.TotalPrinciple,
		TotalInterest:        l.TotalInterest,
		OutstandingPrinciple: l.OutstandingPrinciple,
		DisburseTime:         l.DisburseTime,
		InterestStartTime:    l.InterestStartTime,
		ProductConfigHash:    l.ProductConfigHash,
		ExternalID:           l.ExternalID,
		CreatedAt:            l.CreatedAt,
	}
	for _, a := range l.Approvals {
		dto.Approvals = append(dto.Approvals, ApprovalDTO{
			ApproverID:  a.ApproverID,
			Role:        a.Role,
			Responded:   a.Responded,
			Approved:    a.Approved,
			RespondedAt: a.RespondedAt,
		})
	}
	for _, sp := range l.ScheduledPayments {
		dto.ScheduledPayments = append(dto.ScheduledPayments, ScheduledPaymentDTO{
			Idx:          sp.Idx,
			DueTime:      sp.DueTime,
			DuePrincipal: sp.DuePrincipal,
			DueInterest:  sp.DueInterest,
			DebtorID:     sp.DebtorID,
			Sequence:     sp.Sequence,
			Completed:    sp.Completed,
		})
	}
	for _, p := range l.Payments {
		dto.Payments = append(dto.Payments, PaymentDTO{
			Idx:           p.Idx,
			ScheduleIdx:   p.ScheduleIdx,
			PaidPrincipal: p.PaidPrincipal,
			PaidInterest:  p.PaidInterest,
			PaidTime:      p.PaidTime,
			ConfirmTime:   p.ConfirmTime,
			MarkCompleted: p.MarkCompleted,
			DebtorID:      p.DebtorID,
			Status:        p.Status,
		})
	}
	for _, b := range l.Balances {
		dto.Balances = append(dto.Balances, BalanceDTO{IdentityID: b.IdentityID, Amount: b.Amount})
	}
	return dto
}
