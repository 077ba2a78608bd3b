package loan

import (
	"context"

	"creditflow/internal/domain/event"
	"creditflow/internal/domain/identity"
	domain "creditflow/internal/domain/loan"
	"creditflow/internal/domain/uow"
)

// DisburseRequest proposes the repayment schedule. Lender only, from the
// approved state; the schedule's principal must add up to the loan's
// total. Capacity is not consumed yet.
func (u *Usecase) DisburseRequest(ctx context.Context, in DisburseRequestInput) error {
	n := len(in.DueTimes)
	if n == 0 ||
		len(in.DuePrincipals) != n ||
		len(in.DueInterests) != n ||
		len(in.Debtors) != n ||
		len(in.Sequences) != n {
		return domain.ErrValidation
	}
	return u.uow.WithinLoanTx(ctx, in.LoanID, func(r uow.Repos, l *domain.Loan) error {
		lender := l.LenderID()
		if lender == "" {
			return domain.ErrValidation
		}
		if err := identity.Resolve(ctx, u.gate, lender, in.Actor.Address); err != nil {
			return err
		}
		if l.State != domain.StateApproved {
			return domain.ErrInvalidState
		}

		var sumPrincipal, sumInterest int64
		schedule := make([]domain.ScheduledPayment, 0, n)
		for i := 0; i < n; i++ {
			if in.DuePrincipals[i] < 0 || in.DueInterests[i] < 0 || in.Debtors[i] == "" {
				return domain.ErrValidation
			}
			sumPrincipal += in.DuePrincipals[i]
			sumInterest += in.DueInterests[i]
			schedule = append(schedule, domain.ScheduledPayment{
				LoanRef:      l.ID,
				Idx:          i,
				DueTime:      in.DueTimes[i],
				DuePrincipal: in.DuePrincipals[i],
				DueInterest:  in.DueInterests[i],
				DebtorID:     in.Debtors[i],
				Sequence:     in.Sequences[i],
			})
		}
		if sumPrincipal != l.TotalPrinciple {
			return domain.ErrValidation
		}
		if err := r.Loans.ReplaceSchedule(ctx, l.ID, schedule); err != nil {
			return err
		}

		l.TotalInterest = sumInterest
		l.DisburseTime = in.DisburseTime
		l.InterestStartTime = in.InterestStartTime
		u.setState(l, domain.StatePendingOnDisburse)
		return u.record(ctx, r, l, event.TypeLoanDisburseApply, in.Actor, map[string]any{
			"installments":   n,
			"total_interest": sumInterest,
			"disburse_time":  in.DisburseTime,
		})
	})
}

// CancelDisburse withdraws a proposed schedule. Any participant; the loan
// returns to approved with its reservation untouched.
func (u *Usecase) CancelDisburse(ctx context.Context, loanID string, actor Actor) error {
	return u.uow.WithinLoanTx(ctx, loanID, func(r uow.Repos, l *domain.Loan) error {
		if err := u.resolveParticipant(ctx, l, actor); err != nil {
			return err
		}
		if l.State != domain.StatePendingOnDisburse {
			return domain.ErrInvalidState
		}
		if err := r.Loans.ReplaceSchedule(ctx, l.ID, nil); err != nil {
			return err
		}
		l.TotalInterest = 0
		l.DisburseTime = 0
		l.InterestStartTime = 0
		u.setState(l, domain.StateApproved)
		return u.record(ctx, r, l, event.TypeLoanDisburseCancel, actor, nil)
	})
}

// ConfirmDisburse accepts the schedule and moves the principal from the
// credit line's frozen pool to used, seeds the outstanding principle and
// the lender's balance, and starts repayment.
func (u *Usecase) ConfirmDisburse(ctx context.Context, loanID string, actor Actor) error {
	return u.uow.WithinLoanTx(ctx, loanID, func(r uow.Repos, l *domain.Loan) error {
		if err := u.resolveParticipant(ctx, l, actor); err != nil {
			return err
		}
		if l.State != domain.StatePendingOnDisburse {
			return domain.ErrInvalidState
		}
		lender := l.LenderID()
		if lender == "" {
			return domain.ErrValidation
		}

		c, err := r.CreditLines.GetByRefForUpdate(ctx, l.CreditLineRef)
		if err != nil {
			return err
		}
		if err := c.Consume(l.TotalPrinciple); err != nil {
			return err
		}
		if err := r.CreditLines.Save(ctx, c); err != nil {
			return err
		}

		l.OutstandingPrinciple = l.TotalPrinciple
		if err := u.creditBalance(ctx, r, l, lender, l.TotalPrinciple); err != nil {
			return err
		}
		u.setState(l, domain.StateRepaying)
		return u.record(ctx, r, l, event.TypeLoanDisburseDone, actor, map[string]any{
			"lender": lender, "total_principle": l.TotalPrinciple,
		})
	})
}
