package agreement

import (
	"context"
	"errors"
	"testing"

	"creditflow/internal/adapter/repository/mysql"
	domain "creditflow/internal/domain/agreement"
	identityDomain "creditflow/internal/domain/identity"
	"creditflow/internal/testutil/testdb"
	identityUC "creditflow/internal/usecase/identity"
)

type env struct {
	uc  *Usecase
	ids *identityUC.Usecase
	ctx context.Context
}

func newEnv(t *testing.T) *env {
	t.Helper()
	db := testdb.Open(t)
	ids := identityUC.NewUsecase(mysql.NewIdentityRepository(db))
	return &env{
		uc:  NewUsecase(mysql.NewGormUoW(db), ids),
		ids: ids,
		ctx: context.Background(),
	}
}

// register returns the identity id for a fresh identity owned by addr.
func (e *env) register(t *testing.T, addr string) string {
	t.Helper()
	dto, err := e.ids.Register(e.ctx, identityUC.RegisterInput{Type: "individual", OwnerAddress: addr})
	if err != nil {
		t.Fatalf("register identity: %v", err)
	}
	return dto.IdentityID
}

func roles(n int) []identityDomain.Role {
	out := make([]identityDomain.Role, n)
	for i := range out {
		out[i] = identityDomain.Role(i)
	}
	return out
}

func TestCreate_Validation(t *testing.T) {
	e := newEnv(t)
	a := e.register(t, "0xa")
	b := e.register(t, "0xb")

	cases := []struct {
		name string
		in   CreateInput
	}{
		{"length mismatch", CreateInput{
			OwnerID: a, Participants: []string{a, b}, Roles: roles(1), ActorAddress: "0xa",
		}},
		{"duplicate participant", CreateInput{
			OwnerID: a, Participants: []string{a, a}, Roles: roles(2), ActorAddress: "0xa",
		}},
		{"duplicate workflow entry", CreateInput{
			OwnerID: a, Participants: []string{a, b}, Roles: roles(2),
			ApprovalWorkflow: []string{b, b}, ActorAddress: "0xa",
		}},
		{"workflow entry not a participant", CreateInput{
			OwnerID: a, Participants: []string{a, b}, Roles: roles(2),
			ApprovalWorkflow: []string{"cccccccccccccccccccccccccccccccc"}, ActorAddress: "0xa",
		}},
		{"owner not listed", CreateInput{
			OwnerID: a, Participants: []string{b}, Roles: roles(1), ActorAddress: "0xa",
		}},
	}
	for _, tc := range cases {
		if _, err := e.uc.Create(e.ctx, tc.in); !errors.Is(err, domain.ErrValidation) {
			t.Errorf("%s: want ErrValidation, got %v", tc.name, err)
		}
	}
}

func TestCreate_OwnerAcceptedOthersPending(t *testing.T) {
	e := newEnv(t)
	a := e.register(t, "0xa")
	b := e.register(t, "0xb")
	c := e.register(t, "0xc")

	dto, err := e.uc.Create(e.ctx, CreateInput{
		OwnerID:          a,
		Participants:     []string{a, b, c},
		Roles:            roles(3),
		ApprovalWorkflow: []string{a, b},
		ActorAddress:     "0xa",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if dto.OverallStatus != domain.StatusPending {
		t.Fatalf("overall = %s, want pending", dto.OverallStatus)
	}
	for _, p := range dto.Participants {
		want := domain.StatusPending
		if p.IdentityID == a {
			want = domain.StatusAccepted
		}
		if p.Status != want {
			t.Errorf("participant %s status = %s, want %s", p.IdentityID, p.Status, want)
		}
	}
	if len(dto.ApprovalWorkflow) != 2 || dto.ApprovalWorkflow[0] != a || dto.ApprovalWorkflow[1] != b {
		t.Fatalf("workflow = %v", dto.ApprovalWorkflow)
	}
}

func TestCreate_UnknownParticipant(t *testing.T) {
	e := newEnv(t)
	a := e.register(t, "0xa")
	_, err := e.uc.Create(e.ctx, CreateInput{
		OwnerID:      a,
		Participants: []string{a, "eeeeeeeeeeeeeeeeeeeeeeeeeeeeeeee"},
		Roles:        roles(2),
		ActorAddress: "0xa",
	})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("unknown participant: want ErrValidation, got %v", err)
	}
}

func TestSetApprovalWorkflow_DuplicateFails(t *testing.T) {
	e := newEnv(t)
	a := e.register(t, "0xa")
	b := e.register(t, "0xb")
	c := e.register(t, "0xc")
	d := e.register(t, "0xd")

	dto, err := e.uc.Create(e.ctx, CreateInput{
		OwnerID:          a,
		Participants:     []string{a, b, c, d},
		Roles:            roles(4),
		ApprovalWorkflow: []string{a, b},
		ActorAddress:     "0xa",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	err = e.uc.SetApprovalWorkflow(e.ctx, SetWorkflowInput{
		AgreementID: dto.AgreementID,
		Workflow:    []string{a, a},
		Actor:       Actor{IdentityID: a, Address: "0xa"},
	})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("duplicate workflow: want ErrValidation, got %v", err)
	}

	// owner only
	err = e.uc.SetApprovalWorkflow(e.ctx, SetWorkflowInput{
		AgreementID: dto.AgreementID,
		Workflow:    []string{b},
		Actor:       Actor{IdentityID: b, Address: "0xb"},
	})
	if !errors.Is(err, identityDomain.ErrUnauthorized) {
		t.Fatalf("non-owner workflow change: want ErrUnauthorized, got %v", err)
	}

	// wholesale replacement
	if err := e.uc.SetApprovalWorkflow(e.ctx, SetWorkflowInput{
		AgreementID: dto.AgreementID,
		Workflow:    []string{c, d},
		Actor:       Actor{IdentityID: a, Address: "0xa"},
	}); err != nil {
		t.Fatalf("SetApprovalWorkflow: %v", err)
	}
	got, err := e.uc.Get(e.ctx, dto.AgreementID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(got.ApprovalWorkflow) != 2 || got.ApprovalWorkflow[0] != c || got.ApprovalWorkflow[1] != d {
		t.Fatalf("workflow after replace = %v", got.ApprovalWorkflow)
	}
}

func TestSetParticipantStatus_SelfOnly(t *testing.T) {
	e := newEnv(t)
	a := e.register(t, "0xa")
	b := e.register(t, "0xb")
	c := e.register(t, "0xc")

	dto, err := e.uc.Create(e.ctx, CreateInput{
		OwnerID: a, Participants: []string{a, b, c}, Roles: roles(3), ActorAddress: "0xa",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	// owner cannot answer for b
	err = e.uc.SetParticipantStatus(e.ctx, SetParticipantStatusInput{
		AgreementID: dto.AgreementID, ParticipantID: b,
		Status: domain.StatusAccepted,
		Actor:  Actor{IdentityID: a, Address: "0xa"},
	})
	if !errors.Is(err, identityDomain.ErrUnauthorized) {
		t.Fatalf("owner answering for b: want ErrUnauthorized, got %v", err)
	}

	for id, addr := range map[string]string{b: "0xb", c: "0xc"} {
		if err := e.uc.SetParticipantStatus(e.ctx, SetParticipantStatusInput{
			AgreementID: dto.AgreementID, ParticipantID: id,
			Status: domain.StatusAccepted,
			Actor:  Actor{IdentityID: id, Address: addr},
		}); err != nil {
			t.Fatalf("SetParticipantStatus %s: %v", id, err)
		}
	}
	got, _ := e.uc.Get(e.ctx, dto.AgreementID)
	if got.OverallStatus != domain.StatusAccepted {
		t.Fatalf("overall = %s, want accepted", got.OverallStatus)
	}

	// a single rejection dominates, even over exited
	if err := e.uc.SetParticipantStatus(e.ctx, SetParticipantStatusInput{
		AgreementID: dto.AgreementID, ParticipantID: b,
		Status: domain.StatusExited,
		Actor:  Actor{IdentityID: b, Address: "0xb"},
	}); err != nil {
		t.Fatalf("exit: %v", err)
	}
	if err := e.uc.SetParticipantStatus(e.ctx, SetParticipantStatusInput{
		AgreementID: dto.AgreementID, ParticipantID: c,
		Status: domain.StatusRejected,
		Actor:  Actor{IdentityID: c, Address: "0xc"},
	}); err != nil {
		t.Fatalf("reject: %v", err)
	}
	got, _ = e.uc.Get(e.ctx, dto.AgreementID)
	if got.OverallStatus != domain.StatusRejected {
		t.Fatalf("overall = %s, want rejected", got.OverallStatus)
	}
}

func TestProductConfig_AppendOnlyHistory(t *testing.T) {
	e := newEnv(t)
	a := e.register(t, "0xa")

	dto, err := e.uc.Create(e.ctx, CreateInput{
		OwnerID: a, Participants: []string{a}, Roles: roles(1), ActorAddress: "0xa",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	actor := Actor{IdentityID: a, Address: "0xa"}

	for _, hash := range []string{"Qm1", "Qm2", "Qm3"} {
		if err := e.uc.UpdateProductConfig(e.ctx, ProductConfigInput{
			AgreementID: dto.AgreementID, ProductID: "micro-loan",
			IPFSHash: hash, IsOpened: false, Actor: actor,
		}); err != nil {
			t.Fatalf("UpdateProductConfig %s: %v", hash, err)
		}
	}

	if err := e.uc.SetProductConfigOpened(e.ctx, dto.AgreementID, "micro-loan", true, actor); err != nil {
		t.Fatalf("SetProductConfigOpened: %v", err)
	}

	history, err := e.uc.ProductConfigHistory(e.ctx, dto.AgreementID, "micro-loan")
	if err != nil {
		t.Fatalf("ProductConfigHistory: %v", err)
	}
	if len(history) != 3 {
		t.Fatalf("history length = %d, want 3", len(history))
	}
	for i, v := range history {
		wantOpened := i == 2 // only the latest version was flipped
		if v.IsOpened != wantOpened {
			t.Errorf("version %d opened = %v, want %v", i, v.IsOpened, wantOpened)
		}
	}

	// unknown product has no latest version to flip
	err = e.uc.SetProductConfigOpened(e.ctx, dto.AgreementID, "no-such-product", true, actor)
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("unknown product: want ErrNotFound, got %v", err)
	}
}

func TestPrivateFor_OwnerOnly(t *testing.T) {
	e := newEnv(t)
	a := e.register(t, "0xa")
	b := e.register(t, "0xb")

	dto, err := e.uc.Create(e.ctx, CreateInput{
		OwnerID: a, Participants: []string{a, b}, Roles: roles(2), ActorAddress: "0xa",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	err = e.uc.AddPrivateFor(e.ctx, dto.AgreementID, "node-7", Actor{IdentityID: b, Address: "0xb"})
	if !errors.Is(err, identityDomain.ErrUnauthorized) {
		t.Fatalf("non-owner add: want ErrUnauthorized, got %v", err)
	}

	owner := Actor{IdentityID: a, Address: "0xa"}
	if err := e.uc.AddPrivateFor(e.ctx, dto.AgreementID, "node-7", owner); err != nil {
		t.Fatalf("AddPrivateFor: %v", err)
	}
	// adding the same tag twice is a no-op, not a duplicate
	if err := e.uc.AddPrivateFor(e.ctx, dto.AgreementID, "node-7", owner); err != nil {
		t.Fatalf("AddPrivateFor again: %v", err)
	}
	got, _ := e.uc.Get(e.ctx, dto.AgreementID)
	if len(got.PrivateFor) != 1 || got.PrivateFor[0] != "node-7" {
		t.Fatalf("private_for = %v", got.PrivateFor)
	}

	if err := e.uc.RemovePrivateFor(e.ctx, dto.AgreementID, "node-7", owner); err != nil {
		t.Fatalf("RemovePrivateFor: %v", err)
	}
	got, _ = e.uc.Get(e.ctx, dto.AgreementID)
	if len(got.PrivateFor) != 0 {
		t.Fatalf("private_for after remove = %v", got.PrivateFor)
	}
}

func TestEvents_MonotonicActionIDs(t *testing.T) {
	e := newEnv(t)
	a := e.register(t, "0xa")
	b := e.register(t, "0xb")

	dto, err := e.uc.Create(e.ctx, CreateInput{
		OwnerID: a, Participants: []string{a, b}, Roles: roles(2),
		ApprovalWorkflow: []string{a}, ActorAddress: "0xa",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	owner := Actor{IdentityID: a, Address: "0xa"}

	if err := e.uc.SetApprovalWorkflow(e.ctx, SetWorkflowInput{
		AgreementID: dto.AgreementID, Workflow: []string{b}, Actor: owner,
	}); err != nil {
		t.Fatalf("SetApprovalWorkflow: %v", err)
	}
	if err := e.uc.AddPrivateFor(e.ctx, dto.AgreementID, "node-1", owner); err != nil {
		t.Fatalf("AddPrivateFor: %v", err)
	}

	events, err := e.uc.Events(e.ctx, dto.AgreementID)
	if err != nil {
		t.Fatalf("Events: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("event count = %d, want 3", len(events))
	}
	for i, ev := range events {
		if ev.ActionID != uint64(i+1) {
			t.Errorf("event %d action id = %d, want %d", i, ev.ActionID, i+1)
		}
	}
}
