package loan

import (
	"context"
	"errors"
	"testing"

	"creditflow/internal/adapter/repository/mysql"
	creditlineDomain "creditflow/internal/domain/creditline"
	identityDomain "creditflow/internal/domain/identity"
	domain "creditflow/internal/domain/loan"
	"creditflow/internal/testutil/testdb"
	agreementUC "creditflow/internal/usecase/agreement"
	creditlineUC "creditflow/internal/usecase/creditline"
	identityUC "creditflow/internal/usecase/identity"
)

type env struct {
	uc          *Usecase
	creditLines *creditlineUC.Usecase
	agreements  *agreementUC.Usecase
	ids         *identityUC.Usecase
	ctx         context.Context

	borrower, lender, witness string
	creditLineID              string
}

// newEnv builds identities, an agreement and a credit line approved for
// 300000, ready to back loans.
func newEnv(t *testing.T) *env {
	t.Helper()
	db := testdb.Open(t)
	ids := identityUC.NewUsecase(mysql.NewIdentityRepository(db))
	unit := mysql.NewGormUoW(db)
	e := &env{
		uc:          NewUsecase(unit, ids),
		creditLines: creditlineUC.NewUsecase(unit, ids),
		agreements:  agreementUC.NewUsecase(unit, ids),
		ids:         ids,
		ctx:         context.Background(),
	}
	e.borrower = e.register(t, "0xborrower")
	e.lender = e.register(t, "0xlender")
	e.witness = e.register(t, "0xwitness")

	a, err := e.agreements.Create(e.ctx, agreementUC.CreateInput{
		OwnerID:      e.borrower,
		Participants: []string{e.borrower, e.lender, e.witness},
		Roles: []identityDomain.Role{
			identityDomain.RoleBorrower, identityDomain.RoleLender, identityDomain.RoleWitness,
		},
		ApprovalWorkflow: []string{e.lender, e.witness},
		ActorAddress:     "0xborrower",
	})
	if err != nil {
		t.Fatalf("create agreement: %v", err)
	}

	c, err := e.creditLines.Create(e.ctx, creditlineUC.CreateInput{
		AgreementID: a.AgreementID,
		BorrowerID:  e.borrower,
		ProductID:   "micro-loan",
		Actor:       creditlineUC.Actor{IdentityID: e.borrower, Address: "0xborrower"},
	})
	if err != nil {
		t.Fatalf("create credit line: %v", err)
	}
	e.creditLineID = c.CreditLineID
	if err := e.creditLines.Submit(e.ctx, creditlineUC.SubmitInput{
		CreditLineID:    c.CreditLineID,
		RequestedAmount: 300_000,
		Actor:           creditlineUC.Actor{IdentityID: e.borrower, Address: "0xborrower"},
	}); err != nil {
		t.Fatalf("submit credit line: %v", err)
	}
	for id, addr := range map[string]string{
		e.borrower: "0xborrower", e.lender: "0xlender", e.witness: "0xwitness",
	} {
		if err := e.creditLines.Action(e.ctx, creditlineUC.ActionInput{
			CreditLineID:   c.CreditLineID,
			ApproverID:     id,
			Approve:        true,
			ProposedAmount: 300_000,
			Actor:          creditlineUC.Actor{IdentityID: id, Address: addr},
		}); err != nil {
			t.Fatalf("approve credit line as %s: %v", addr, err)
		}
	}
	return e
}

func (e *env) register(t *testing.T, addr string) string {
	t.Helper()
	dto, err := e.ids.Register(e.ctx, identityUC.RegisterInput{Type: "individual", OwnerAddress: addr})
	if err != nil {
		t.Fatalf("register identity: %v", err)
	}
	return dto.IdentityID
}

func (e *env) actor(id, addr string) Actor {
	return Actor{IdentityID: id, Address: addr}
}

func (e *env) create(t *testing.T, principle int64) *LoanDTO {
	t.Helper()
	dto, err := e.uc.Create(e.ctx, CreateInput{
		CreditLineID:   e.creditLineID,
		TotalPrinciple: principle,
		Actor:          e.actor(e.borrower, "0xborrower"),
	})
	if err != nil {
		t.Fatalf("create loan: %v", err)
	}
	return dto
}

func (e *env) approve(t *testing.T, loanID, approverID, addr string, approve bool) error {
	t.Helper()
	return e.uc.Approve(e.ctx, ApproveInput{
		LoanID:     loanID,
		ApproverID: approverID,
		Approve:    approve,
		Actor:      e.actor(approverID, addr),
	})
}

func (e *env) approveAll(t *testing.T, loanID string) {
	t.Helper()
	for id, addr := range map[string]string{
		e.borrower: "0xborrower", e.lender: "0xlender", e.witness: "0xwitness",
	} {
		if err := e.approve(t, loanID, id, addr, true); err != nil {
			t.Fatalf("approve loan as %s: %v", addr, err)
		}
	}
}

func (e *env) creditLine(t *testing.T) *creditlineUC.CreditLineDTO {
	t.Helper()
	dto, err := e.creditLines.Get(e.ctx, e.creditLineID)
	if err != nil {
		t.Fatalf("get credit line: %v", err)
	}
	return dto
}

func TestCreate_CopiesCreditLineWorkflow(t *testing.T) {
	e := newEnv(t)
	dto := e.create(t, 30_000)

	if dto.State != domain.StatePending {
		t.Fatalf("state = %s, want pending", dto.State)
	}
	if len(dto.Approvals) != 3 || dto.Approvals[0].ApproverID != e.borrower {
		t.Fatalf("approvals = %+v", dto.Approvals)
	}
	if dto.Approvals[0].Role != identityDomain.RoleBorrower {
		t.Fatalf("borrower slot role = %d", dto.Approvals[0].Role)
	}

	// creation alone reserves nothing
	c := e.creditLine(t)
	if c.FrozenAmount != 0 || c.AvailableAmount != 300_000 {
		t.Fatalf("accounting after create: frozen=%d available=%d", c.FrozenAmount, c.AvailableAmount)
	}
}

func TestCreate_RequiresOpenLine(t *testing.T) {
	e := newEnv(t)

	pending := e.createPendingLine(t)
	_, err := e.uc.Create(e.ctx, CreateInput{
		CreditLineID:   pending,
		TotalPrinciple: 10_000,
		Actor:          e.actor(e.borrower, "0xborrower"),
	})
	if !errors.Is(err, domain.ErrInvalidState) {
		t.Fatalf("loan on pending line: want ErrInvalidState, got %v", err)
	}
}

func TestApprove_FinalApprovalReserves(t *testing.T) {
	e := newEnv(t)
	dto := e.create(t, 30_000)
	e.approveAll(t, dto.LoanID)

	got, _ := e.uc.Get(e.ctx, dto.LoanID)
	if got.State != domain.StateApproved {
		t.Fatalf("state = %s, want approved", got.State)
	}
	c := e.creditLine(t)
	if c.FrozenAmount != 30_000 || c.AvailableAmount != 270_000 || c.UsedAmount != 0 {
		t.Fatalf("accounting: frozen=%d available=%d used=%d", c.FrozenAmount, c.AvailableAmount, c.UsedAmount)
	}
}

func TestApprove_NoSecondResponse(t *testing.T) {
	e := newEnv(t)
	dto := e.create(t, 30_000)

	if err := e.approve(t, dto.LoanID, e.lender, "0xlender", true); err != nil {
		t.Fatalf("first approve: %v", err)
	}
	err := e.approve(t, dto.LoanID, e.lender, "0xlender", false)
	if !errors.Is(err, domain.ErrAlreadyResponded) {
		t.Fatalf("second response: want ErrAlreadyResponded, got %v", err)
	}
}

func TestApprove_RejectShortCircuits(t *testing.T) {
	e := newEnv(t)
	dto := e.create(t, 30_000)

	if err := e.approve(t, dto.LoanID, e.witness, "0xwitness", false); err != nil {
		t.Fatalf("reject: %v", err)
	}
	got, _ := e.uc.Get(e.ctx, dto.LoanID)
	if got.State != domain.StateRejected {
		t.Fatalf("state = %s, want rejected", got.State)
	}
	err := e.approve(t, dto.LoanID, e.lender, "0xlender", true)
	if !errors.Is(err, domain.ErrInvalidState) {
		t.Fatalf("approve after reject: want ErrInvalidState, got %v", err)
	}
	// nothing was ever reserved
	if c := e.creditLine(t); c.FrozenAmount != 0 {
		t.Fatalf("frozen = %d after rejection", c.FrozenAmount)
	}
}

func TestApprove_InsufficientCreditRollsBackResponse(t *testing.T) {
	e := newEnv(t)

	big := e.create(t, 300_000)
	e.approveAll(t, big.LoanID)

	small := e.create(t, 20_000)
	if err := e.approve(t, small.LoanID, e.borrower, "0xborrower", true); err != nil {
		t.Fatalf("borrower approve: %v", err)
	}
	if err := e.approve(t, small.LoanID, e.lender, "0xlender", true); err != nil {
		t.Fatalf("lender approve: %v", err)
	}
	err := e.approve(t, small.LoanID, e.witness, "0xwitness", true)
	if !errors.Is(err, creditlineDomain.ErrInsufficientCredit) {
		t.Fatalf("final approve over capacity: want ErrInsufficientCredit, got %v", err)
	}

	// the failed response must not have stuck
	got, _ := e.uc.Get(e.ctx, small.LoanID)
	if got.State != domain.StatePending {
		t.Fatalf("state = %s, want pending", got.State)
	}
	for _, a := range got.Approvals {
		if a.ApproverID == e.witness && a.Responded {
			t.Fatal("witness response survived the rollback")
		}
	}

	// freeing capacity makes the same final approval succeed
	if err := e.uc.Cancel(e.ctx, big.LoanID, e.actor(e.borrower, "0xborrower")); err != nil {
		t.Fatalf("cancel big loan: %v", err)
	}
	if err := e.approve(t, small.LoanID, e.witness, "0xwitness", true); err != nil {
		t.Fatalf("retry final approve: %v", err)
	}
	got, _ = e.uc.Get(e.ctx, small.LoanID)
	if got.State != domain.StateApproved {
		t.Fatalf("state = %s, want approved", got.State)
	}
}

func TestRecall_ReopensSlot(t *testing.T) {
	e := newEnv(t)
	dto := e.create(t, 30_000)

	if err := e.approve(t, dto.LoanID, e.lender, "0xlender", true); err != nil {
		t.Fatalf("approve: %v", err)
	}
	if err := e.uc.Recall(e.ctx, dto.LoanID, e.lender, e.actor(e.lender, "0xlender")); err != nil {
		t.Fatalf("recall: %v", err)
	}
	// the slot answers again
	if err := e.approve(t, dto.LoanID, e.lender, "0xlender", false); err != nil {
		t.Fatalf("re-respond after recall: %v", err)
	}
	got, _ := e.uc.Get(e.ctx, dto.LoanID)
	if got.State != domain.StateRejected {
		t.Fatalf("state = %s, want rejected", got.State)
	}
}

func TestCancel_ReleasesReservation(t *testing.T) {
	e := newEnv(t)
	dto := e.create(t, 30_000)
	e.approveAll(t, dto.LoanID)

	if err := e.uc.Cancel(e.ctx, dto.LoanID, e.actor(e.borrower, "0xborrower")); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	got, _ := e.uc.Get(e.ctx, dto.LoanID)
	if got.State != domain.StateCancelled {
		t.Fatalf("state = %s, want cancelled", got.State)
	}
	c := e.creditLine(t)
	if c.FrozenAmount != 0 || c.AvailableAmount != 300_000 {
		t.Fatalf("accounting after cancel: frozen=%d available=%d", c.FrozenAmount, c.AvailableAmount)
	}

	// nothing to do on a settled loan
	err := e.uc.Cancel(e.ctx, dto.LoanID, e.actor(e.borrower, "0xborrower"))
	if !errors.Is(err, domain.ErrInvalidState) {
		t.Fatalf("double cancel: want ErrInvalidState, got %v", err)
	}
}

func TestCancel_OutsiderRefused(t *testing.T) {
	e := newEnv(t)
	dto := e.create(t, 30_000)
	outsider := e.register(t, "0xoutsider")

	err := e.uc.Cancel(e.ctx, dto.LoanID, e.actor(outsider, "0xoutsider"))
	if !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("outsider cancel: want ErrUnauthorized, got %v", err)
	}
}

func TestPrivateFor_BorrowerOnlyAndAudited(t *testing.T) {
	e := newEnv(t)
	dto := e.create(t, 30_000)

	err := e.uc.AddPrivateFor(e.ctx, dto.LoanID, "node-9", e.actor(e.lender, "0xlender"))
	if !errors.Is(err, identityDomain.ErrUnauthorized) {
		t.Fatalf("non-borrower add: want ErrUnauthorized, got %v", err)
	}

	borrower := e.actor(e.borrower, "0xborrower")
	if err := e.uc.AddPrivateFor(e.ctx, dto.LoanID, "node-9", borrower); err != nil {
		t.Fatalf("AddPrivateFor: %v", err)
	}
	// duplicate add is a no-op and leaves no trace
	if err := e.uc.AddPrivateFor(e.ctx, dto.LoanID, "node-9", borrower); err != nil {
		t.Fatalf("AddPrivateFor again: %v", err)
	}
	if err := e.uc.RemovePrivateFor(e.ctx, dto.LoanID, "node-9", borrower); err != nil {
		t.Fatalf("RemovePrivateFor: %v", err)
	}

	events, err := e.uc.Events(e.ctx, dto.LoanID)
	if err != nil {
		t.Fatalf("Events: %v", err)
	}
	want := []string{"LOAN_SUBMIT", "LOAN_DATA_UPDATED", "LOAN_DATA_UPDATED"}
	if len(events) != len(want) {
		t.Fatalf("event count = %d, want %d", len(events), len(want))
	}
	for i, ev := range events {
		if ev.Type != want[i] || ev.ActionID != uint64(i+1) {
			t.Errorf("event %d = %s/%d, want %s/%d", i, ev.Type, ev.ActionID, want[i], i+1)
		}
	}
}

// createPendingLine opens a second credit line on a fresh agreement and
// leaves it unapproved.
func (e *env) createPendingLine(t *testing.T) string {
	t.Helper()
	a, err := e.agreements.Create(e.ctx, agreementUC.CreateInput{
		OwnerID:          e.borrower,
		Participants:     []string{e.borrower, e.lender},
		Roles:            []identityDomain.Role{identityDomain.RoleBorrower, identityDomain.RoleLender},
		ApprovalWorkflow: []string{e.lender},
		ActorAddress:     "0xborrower",
	})
	if err != nil {
		t.Fatalf("create second agreement: %v", err)
	}
	c, err := e.creditLines.Create(e.ctx, creditlineUC.CreateInput{
		AgreementID: a.AgreementID,
		BorrowerID:  e.borrower,
		ProductID:   "micro-loan",
		Actor:       creditlineUC.Actor{IdentityID: e.borrower, Address: "0xborrower"},
	})
	if err != nil {
		t.Fatalf("create second credit line: %v", err)
	}
	return c.CreditLineID
}
