package loan

import "creditflow/internal/domain/identity"

// ApprovalByID returns the workflow slot for an identity, or nil.
func (l *Loan) ApprovalByID(approverID string) *Approval {
	for i := range l.Approvals {
		if l.Approvals[i].ApproverID == approverID {
			return &l.Approvals[i]
		}
	}
	return nil
}

// AllApproved reports whether every slot responded with approval.
func (l *Loan) AllApproved() bool {
	for _, a := range l.Approvals {
		if !a.Responded || !a.Approved {
			return false
		}
	}
	return len(l.Approvals) > 0
}

// HasParticipant reports whether the identity was copied onto the loan's
// participant list at creation.
func (l *Loan) HasParticipant(identityID string) bool {
	for _, p := range l.Participants {
		if p.IdentityID == identityID {
			return true
		}
	}
	return false
}

// LenderID returns the first participant holding the lender role.
func (l *Loan) LenderID() string {
	for _, p := range l.Participants {
		if p.Role == identity.RoleLender {
			return p.IdentityID
		}
	}
	return ""
}

// IsCompleted reports whether every scheduled payment slot is completed.
// Completion is driven by the repayment ledger, not a separate explicit
// transition.
func (l *Loan) IsCompleted() bool {
	if len(l.ScheduledPayments) == 0 {
		return false
	}
	for _, sp := range l.ScheduledPayments {
		if !sp.Completed {
			return false
		}
	}
	return true
}

// EffectiveState is the externally reported state: REPAYING reads as
// COMPLETED once the whole schedule is confirmed.
func (l *Loan) EffectiveState() State {
	if l.State == StateRepaying && l.IsCompleted() {
		return StateCompleted
	}
	return l.State
}

// IsTerminal reports whether no state-changing operation except transfer
// and reads remains valid.
func (l *Loan) IsTerminal() bool {
	switch l.EffectiveState() {
	case StateRejected, StateCancelled, StateCompleted:
		return true
	}
	return false
}

// BalanceOf returns the recorded share for an identity (zero if none).
func (l *Loan) BalanceOf(identityID string) int64 {
	for _, b := range l.Balances {
		if b.IdentityID == identityID {
			return b.Amount
		}
	}
	return 0
}

// ScheduledPaymentAt returns the slot at idx, or nil when out of range.
func (l *Loan) ScheduledPaymentAt(idx int) *ScheduledPayment {
	for i := range l.ScheduledPayments {
		if l.ScheduledPayments[i].Idx == idx {
			return &l.ScheduledPayments[i]
		}
	}
	return nil
}

// PaymentAt returns the ledger entry at idx, or nil when out of range.
func (l *Loan) PaymentAt(idx int) *Payment {
	for i := range l.Payments {
		if l.Payments[i].Idx == idx {
			return &l.Payments[i]
		}
	}
	return nil
}
