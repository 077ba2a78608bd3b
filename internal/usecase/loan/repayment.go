package loan

import (
	"context"

	"creditflow/internal/domain/event"
	"creditflow/internal/domain/identity"
	domain "creditflow/internal/domain/loan"
	"creditflow/internal/domain/uow"
)

// RepayRequest appends one repayment attempt against a schedule slot.
// Borrower only, while repaying. The request touches no counters; a slot
// may accumulate several requests over time, e.g. after a rejection.
func (u *Usecase) RepayRequest(ctx context.Context, in RepayRequestInput) error {
	if in.PaidPrincipal < 0 || in.PaidInterest < 0 {
		return domain.ErrValidation
	}
	return u.uow.WithinLoanTx(ctx, in.LoanID, func(r uow.Repos, l *domain.Loan) error {
		if err := identity.Resolve(ctx, u.gate, l.BorrowerID, in.Actor.Address); err != nil {
			return err
		}
		if l.EffectiveState() != domain.StateRepaying {
			return domain.ErrInvalidState
		}
		if l.ScheduledPaymentAt(in.ScheduleIdx) == nil {
			return domain.ErrValidation
		}
		p := &domain.Payment{
			LoanRef:       l.ID,
			Idx:           len(l.Payments),
			ScheduleIdx:   in.ScheduleIdx,
			PaidPrincipal: in.PaidPrincipal,
			PaidInterest:  in.PaidInterest,
			PaidTime:      in.PaidTime,
			MarkCompleted: in.MarkCompleted,
			DebtorID:      in.DebtorID,
			Status:        domain.PaymentRequested,
		}
		if p.DebtorID == "" {
			p.DebtorID = l.BorrowerID
		}
		if err := r.Loans.AppendPayment(ctx, p); err != nil {
			return err
		}
		return u.record(ctx, r, l, event.TypeLoanRepayApply, in.Actor, map[string]any{
			"payment_idx": p.Idx, "schedule_idx": in.ScheduleIdx, "paid_principal": in.PaidPrincipal,
		})
	})
}

// RepayConfirm settles one requested payment. Lender only. Confirming a
// request for a slot whose schedule entry is already completed fails:
// two competing requests for the same slot cannot both land.
func (u *Usecase) RepayConfirm(ctx context.Context, loanID string, paymentIdx int, confirmTime int64, actor Actor) error {
	return u.uow.WithinLoanTx(ctx, loanID, func(r uow.Repos, l *domain.Loan) error {
		lender := l.LenderID()
		if lender == "" {
			return domain.ErrValidation
		}
		if err := identity.Resolve(ctx, u.gate, lender, actor.Address); err != nil {
			return err
		}
		if l.State != domain.StateRepaying {
			return domain.ErrInvalidState
		}
		p := l.PaymentAt(paymentIdx)
		if p == nil {
			return domain.ErrNotFound
		}
		if p.Status != domain.PaymentRequested {
			return domain.ErrPaymentNotRequested
		}
		slot := l.ScheduledPaymentAt(p.ScheduleIdx)
		if slot == nil {
			return domain.ErrValidation
		}
		if slot.Completed {
			return domain.ErrAlreadyConfirmed
		}
		// outstanding principal may not go negative
		if p.PaidPrincipal > l.OutstandingPrinciple {
			return domain.ErrValidation
		}

		p.Status = domain.PaymentConfirmed
		p.ConfirmTime = confirmTime
		if err := r.Loans.SavePayment(ctx, p); err != nil {
			return err
		}
		if p.MarkCompleted {
			slot.Completed = true
			if err := r.Loans.SaveScheduledPayment(ctx, slot); err != nil {
				return err
			}
		}
		l.OutstandingPrinciple -= p.PaidPrincipal
		return u.record(ctx, r, l, event.TypeLoanRepayConfirm, actor, map[string]any{
			"payment_idx":           paymentIdx,
			"schedule_idx":          p.ScheduleIdx,
			"paid_principal":        p.PaidPrincipal,
			"outstanding_principle": l.OutstandingPrinciple,
			"completed":             l.IsCompleted(),
		})
	})
}

// RepayReject declines one requested payment. Lender or any approver.
// The record stays in history as rejected; no counter moves.
func (u *Usecase) RepayReject(ctx context.Context, loanID string, paymentIdx int, rejectorID string, actor Actor) error {
	return u.uow.WithinLoanTx(ctx, loanID, func(r uow.Repos, l *domain.Loan) error {
		if err := identity.Resolve(ctx, u.gate, rejectorID, actor.Address); err != nil {
			return err
		}
		if rejectorID != l.LenderID() && l.ApprovalByID(rejectorID) == nil {
			return domain.ErrUnauthorized
		}
		if l.State != domain.StateRepaying {
			return domain.ErrInvalidState
		}
		p := l.PaymentAt(paymentIdx)
		if p == nil {
			return domain.ErrNotFound
		}
		if p.Status != domain.PaymentRequested {
			return domain.ErrPaymentNotRequested
		}
		p.Status = domain.PaymentRejected
		if err := r.Loans.SavePayment(ctx, p); err != nil {
			return err
		}
		return u.record(ctx, r, l, event.TypeLoanRepayReject, actor, map[string]any{
			"payment_idx": paymentIdx, "rejector": rejectorID,
		})
	})
}

// Transfer moves a recorded claim between identities. Valid whenever
// balances exist, terminal states included.
func (u *Usecase) Transfer(ctx context.Context, in TransferInput) error {
	if in.Amount <= 0 || in.FromID == "" || in.ToID == "" || in.FromID == in.ToID {
		return domain.ErrValidation
	}
	return u.uow.WithinLoanTx(ctx, in.LoanID, func(r uow.Repos, l *domain.Loan) error {
		if err := identity.Resolve(ctx, u.gate, in.FromID, in.Actor.Address); err != nil {
			return err
		}
		if in.Amount > l.BalanceOf(in.FromID) {
			return domain.ErrInsufficientBalance
		}
		if err := u.creditBalance(ctx, r, l, in.FromID, -in.Amount); err != nil {
			return err
		}
		if err := u.creditBalance(ctx, r, l, in.ToID, in.Amount); err != nil {
			return err
		}
		return u.record(ctx, r, l, event.TypeLoanTransfer, in.Actor, map[string]any{
			"from": in.FromID, "to": in.ToID, "amount": in.Amount, "timestamp": in.Timestamp,
		})
	})
}

// creditBalance adjusts one identity's recorded share in place, creating
// the row on first touch.
func (u *Usecase) creditBalance(ctx context.Context, r uow.Repos, l *domain.Loan, identityID string, delta int64) error {
	for i := range l.Balances {
		if l.Balances[i].IdentityID == identityID {
			l.Balances[i].Amount += delta
			return r.Loans.SaveBalance(ctx, &l.Balances[i])
		}
	}
	b := domain.Balance{LoanRef: l.ID, IdentityID: identityID, Amount: delta}
	if err := r.Loans.SaveBalance(ctx, &b); err != nil {
		return err
	}
	l.Balances = append(l.Balances, b)
	return nil
}
