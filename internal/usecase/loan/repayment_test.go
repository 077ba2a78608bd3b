package loan

import (
	"errors"
	"testing"

	domain "creditflow/internal/domain/loan"
)

// disburse proposes an installment schedule and confirms it, leaving the
// loan repaying with the principal consumed from the credit line.
func (e *env) disburse(t *testing.T, loanID string, principals []int64) {
	t.Helper()
	n := len(principals)
	in := DisburseRequestInput{
		LoanID:            loanID,
		DisburseTime:      1_700_000_000,
		InterestStartTime: 1_700_000_000,
		Actor:             e.actor(e.lender, "0xlender"),
	}
	for i, p := range principals {
		in.DueTimes = append(in.DueTimes, int64(1_702_000_000+i*2_592_000))
		in.DuePrincipals = append(in.DuePrincipals, p)
		in.DueInterests = append(in.DueInterests, 500)
		in.Debtors = append(in.Debtors, e.borrower)
		in.Sequences = append(in.Sequences, i+1)
	}
	if err := e.uc.DisburseRequest(e.ctx, in); err != nil {
		t.Fatalf("disburse request (%d installments): %v", n, err)
	}
	if err := e.uc.ConfirmDisburse(e.ctx, loanID, e.actor(e.borrower, "0xborrower")); err != nil {
		t.Fatalf("confirm disburse: %v", err)
	}
}

// repay runs one borrower request and lender confirmation for a slot.
func (e *env) repay(t *testing.T, loanID string, scheduleIdx int, principal int64, complete bool) {
	t.Helper()
	if err := e.uc.RepayRequest(e.ctx, RepayRequestInput{
		LoanID:        loanID,
		ScheduleIdx:   scheduleIdx,
		PaidTime:      1_702_000_100,
		PaidPrincipal: principal,
		PaidInterest:  500,
		MarkCompleted: complete,
		Actor:         e.actor(e.borrower, "0xborrower"),
	}); err != nil {
		t.Fatalf("repay request slot %d: %v", scheduleIdx, err)
	}
	got, _ := e.uc.Get(e.ctx, loanID)
	idx := len(got.Payments) - 1
	if err := e.uc.RepayConfirm(e.ctx, loanID, idx, 1_702_000_200, e.actor(e.lender, "0xlender")); err != nil {
		t.Fatalf("repay confirm slot %d: %v", scheduleIdx, err)
	}
}

func TestDisburse_Lifecycle(t *testing.T) {
	e := newEnv(t)
	dto := e.create(t, 30_000)
	e.approveAll(t, dto.LoanID)
	e.disburse(t, dto.LoanID, []int64{10_000, 10_000, 10_000})

	got, _ := e.uc.Get(e.ctx, dto.LoanID)
	if got.State != domain.StateRepaying {
		t.Fatalf("state = %s, want repaying", got.State)
	}
	if got.OutstandingPrinciple != 30_000 || got.TotalInterest != 1_500 {
		t.Fatalf("outstanding=%d interest=%d", got.OutstandingPrinciple, got.TotalInterest)
	}
	if len(got.ScheduledPayments) != 3 {
		t.Fatalf("schedule length = %d", len(got.ScheduledPayments))
	}
	if len(got.Balances) != 1 || got.Balances[0].IdentityID != e.lender || got.Balances[0].Amount != 30_000 {
		t.Fatalf("balances = %+v", got.Balances)
	}

	c := e.creditLine(t)
	if c.FrozenAmount != 0 || c.UsedAmount != 30_000 || c.AvailableAmount != 270_000 {
		t.Fatalf("accounting: frozen=%d used=%d available=%d", c.FrozenAmount, c.UsedAmount, c.AvailableAmount)
	}
}

func TestDisburse_PrincipalMustAddUp(t *testing.T) {
	e := newEnv(t)
	dto := e.create(t, 30_000)
	e.approveAll(t, dto.LoanID)

	err := e.uc.DisburseRequest(e.ctx, DisburseRequestInput{
		LoanID:        dto.LoanID,
		DueTimes:      []int64{1_702_000_000},
		DuePrincipals: []int64{25_000},
		DueInterests:  []int64{500},
		Debtors:       []string{e.borrower},
		Sequences:     []int{1},
		Actor:         e.actor(e.lender, "0xlender"),
	})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("short schedule: want ErrValidation, got %v", err)
	}
}

func TestDisburse_CancelRestoresApproved(t *testing.T) {
	e := newEnv(t)
	dto := e.create(t, 30_000)
	e.approveAll(t, dto.LoanID)

	if err := e.uc.DisburseRequest(e.ctx, DisburseRequestInput{
		LoanID:        dto.LoanID,
		DueTimes:      []int64{1_702_000_000},
		DuePrincipals: []int64{30_000},
		DueInterests:  []int64{1_000},
		Debtors:       []string{e.borrower},
		Sequences:     []int{1},
		Actor:         e.actor(e.lender, "0xlender"),
	}); err != nil {
		t.Fatalf("disburse request: %v", err)
	}
	if err := e.uc.CancelDisburse(e.ctx, dto.LoanID, e.actor(e.witness, "0xwitness")); err != nil {
		t.Fatalf("cancel disburse: %v", err)
	}

	got, _ := e.uc.Get(e.ctx, dto.LoanID)
	if got.State != domain.StateApproved || len(got.ScheduledPayments) != 0 || got.TotalInterest != 0 {
		t.Fatalf("after cancel: state=%s schedule=%d interest=%d",
			got.State, len(got.ScheduledPayments), got.TotalInterest)
	}
	// the reservation is untouched
	if c := e.creditLine(t); c.FrozenAmount != 30_000 {
		t.Fatalf("frozen = %d, want 30000", c.FrozenAmount)
	}
}

func TestRepay_FullRunCompletes(t *testing.T) {
	e := newEnv(t)
	dto := e.create(t, 30_000)
	e.approveAll(t, dto.LoanID)
	e.disburse(t, dto.LoanID, []int64{10_000, 10_000, 10_000})

	e.repay(t, dto.LoanID, 0, 10_000, true)
	e.repay(t, dto.LoanID, 1, 10_000, true)

	got, _ := e.uc.Get(e.ctx, dto.LoanID)
	if got.State != domain.StateRepaying || got.OutstandingPrinciple != 10_000 {
		t.Fatalf("mid-run: state=%s outstanding=%d", got.State, got.OutstandingPrinciple)
	}

	e.repay(t, dto.LoanID, 2, 10_000, true)
	got, _ = e.uc.Get(e.ctx, dto.LoanID)
	if got.State != domain.StateCompleted {
		t.Fatalf("state = %s, want completed", got.State)
	}
	if got.OutstandingPrinciple != 0 {
		t.Fatalf("outstanding = %d, want 0", got.OutstandingPrinciple)
	}
}

func TestRepay_CompletedSlotRefusesSecondConfirm(t *testing.T) {
	e := newEnv(t)
	dto := e.create(t, 30_000)
	e.approveAll(t, dto.LoanID)
	e.disburse(t, dto.LoanID, []int64{10_000, 10_000, 10_000})

	// two competing requests against slot 0
	for i := 0; i < 2; i++ {
		if err := e.uc.RepayRequest(e.ctx, RepayRequestInput{
			LoanID:        dto.LoanID,
			ScheduleIdx:   0,
			PaidPrincipal: 10_000,
			MarkCompleted: true,
			Actor:         e.actor(e.borrower, "0xborrower"),
		}); err != nil {
			t.Fatalf("repay request %d: %v", i, err)
		}
	}
	if err := e.uc.RepayConfirm(e.ctx, dto.LoanID, 0, 1_702_000_200, e.actor(e.lender, "0xlender")); err != nil {
		t.Fatalf("first confirm: %v", err)
	}
	err := e.uc.RepayConfirm(e.ctx, dto.LoanID, 1, 1_702_000_300, e.actor(e.lender, "0xlender"))
	if !errors.Is(err, domain.ErrAlreadyConfirmed) {
		t.Fatalf("second confirm: want ErrAlreadyConfirmed, got %v", err)
	}

	// only one confirmation moved the counter
	got, _ := e.uc.Get(e.ctx, dto.LoanID)
	if got.OutstandingPrinciple != 20_000 {
		t.Fatalf("outstanding = %d, want 20000", got.OutstandingPrinciple)
	}
}

func TestRepay_RejectThenRetry(t *testing.T) {
	e := newEnv(t)
	dto := e.create(t, 30_000)
	e.approveAll(t, dto.LoanID)
	e.disburse(t, dto.LoanID, []int64{10_000, 10_000, 10_000})

	if err := e.uc.RepayRequest(e.ctx, RepayRequestInput{
		LoanID:        dto.LoanID,
		ScheduleIdx:   0,
		PaidPrincipal: 10_000,
		MarkCompleted: true,
		Actor:         e.actor(e.borrower, "0xborrower"),
	}); err != nil {
		t.Fatalf("repay request: %v", err)
	}
	if err := e.uc.RepayReject(e.ctx, dto.LoanID, 0, e.lender, e.actor(e.lender, "0xlender")); err != nil {
		t.Fatalf("repay reject: %v", err)
	}
	// a rejected payment cannot be confirmed later
	err := e.uc.RepayConfirm(e.ctx, dto.LoanID, 0, 1_702_000_200, e.actor(e.lender, "0xlender"))
	if !errors.Is(err, domain.ErrPaymentNotRequested) {
		t.Fatalf("confirm rejected: want ErrPaymentNotRequested, got %v", err)
	}

	// the slot is still open for a fresh attempt
	e.repay(t, dto.LoanID, 0, 10_000, true)
	got, _ := e.uc.Get(e.ctx, dto.LoanID)
	if got.OutstandingPrinciple != 20_000 {
		t.Fatalf("outstanding = %d, want 20000", got.OutstandingPrinciple)
	}
	if len(got.Payments) != 2 || got.Payments[0].Status != domain.PaymentRejected {
		t.Fatalf("payments = %+v", got.Payments)
	}
}

func TestRepay_OverstatedPrincipalRefused(t *testing.T) {
	e := newEnv(t)
	dto := e.create(t, 30_000)
	e.approveAll(t, dto.LoanID)
	e.disburse(t, dto.LoanID, []int64{10_000, 10_000, 10_000})

	if err := e.uc.RepayRequest(e.ctx, RepayRequestInput{
		LoanID:        dto.LoanID,
		ScheduleIdx:   0,
		PaidPrincipal: 40_000,
		Actor:         e.actor(e.borrower, "0xborrower"),
	}); err != nil {
		t.Fatalf("repay request: %v", err)
	}
	err := e.uc.RepayConfirm(e.ctx, dto.LoanID, 0, 1_702_000_200, e.actor(e.lender, "0xlender"))
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("over-stated principal: want ErrValidation, got %v", err)
	}
	got, _ := e.uc.Get(e.ctx, dto.LoanID)
	if got.OutstandingPrinciple != 30_000 {
		t.Fatalf("outstanding = %d, want 30000", got.OutstandingPrinciple)
	}
}

func TestTransfer_SplitsClaim(t *testing.T) {
	e := newEnv(t)
	dto := e.create(t, 30_000)
	e.approveAll(t, dto.LoanID)
	e.disburse(t, dto.LoanID, []int64{30_000})

	investorX := e.register(t, "0xinvestor-x")
	investorY := e.register(t, "0xinvestor-y")

	if err := e.uc.Transfer(e.ctx, TransferInput{
		LoanID: dto.LoanID, FromID: e.lender, ToID: investorX, Amount: 2_000,
		Actor: e.actor(e.lender, "0xlender"),
	}); err != nil {
		t.Fatalf("lender transfer: %v", err)
	}
	if err := e.uc.Transfer(e.ctx, TransferInput{
		LoanID: dto.LoanID, FromID: investorX, ToID: investorY, Amount: 1_500,
		Actor: e.actor(investorX, "0xinvestor-x"),
	}); err != nil {
		t.Fatalf("onward transfer: %v", err)
	}

	got, _ := e.uc.Get(e.ctx, dto.LoanID)
	want := map[string]int64{e.lender: 28_000, investorX: 500, investorY: 1_500}
	var total int64
	for _, b := range got.Balances {
		if b.Amount != want[b.IdentityID] {
			t.Fatalf("balance of %s = %d, want %d", b.IdentityID, b.Amount, want[b.IdentityID])
		}
		total += b.Amount
	}
	if total != 30_000 {
		t.Fatalf("balance sum = %d, want 30000", total)
	}
}

func TestTransfer_CannotOverdraw(t *testing.T) {
	e := newEnv(t)
	dto := e.create(t, 30_000)
	e.approveAll(t, dto.LoanID)
	e.disburse(t, dto.LoanID, []int64{30_000})

	stranger := e.register(t, "0xstranger")
	err := e.uc.Transfer(e.ctx, TransferInput{
		LoanID: dto.LoanID, FromID: stranger, ToID: e.borrower, Amount: 1,
		Actor: e.actor(stranger, "0xstranger"),
	})
	if !errors.Is(err, domain.ErrInsufficientBalance) {
		t.Fatalf("zero-balance transfer: want ErrInsufficientBalance, got %v", err)
	}

	err = e.uc.Transfer(e.ctx, TransferInput{
		LoanID: dto.LoanID, FromID: e.lender, ToID: e.borrower, Amount: 30_001,
		Actor: e.actor(e.lender, "0xlender"),
	})
	if !errors.Is(err, domain.ErrInsufficientBalance) {
		t.Fatalf("overdraw: want ErrInsufficientBalance, got %v", err)
	}
}
