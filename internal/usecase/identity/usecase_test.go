package identity

import (
	"context"
	"errors"
	"testing"

	"creditflow/internal/adapter/repository/mysql"
	domain "creditflow/internal/domain/identity"
	"creditflow/internal/testutil/testdb"
)

func newUsecaseForTest(t *testing.T) *Usecase {
	t.Helper()
	return NewUsecase(mysql.NewIdentityRepository(testdb.Open(t)))
}

func TestRegister_Validation(t *testing.T) {
	uc := newUsecaseForTest(t)
	ctx := context.Background()

	if _, err := uc.Register(ctx, RegisterInput{Type: "robot", OwnerAddress: "0xabc"}); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("bad type: want ErrValidation, got %v", err)
	}
	if _, err := uc.Register(ctx, RegisterInput{Type: "individual"}); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("missing owner address: want ErrValidation, got %v", err)
	}
}

func TestRegister_AssignsID(t *testing.T) {
	uc := newUsecaseForTest(t)
	ctx := context.Background()

	dto, err := uc.Register(ctx, RegisterInput{Type: "company", OwnerAddress: "0xcompany", Name: "Acme"})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if len(dto.IdentityID) != 32 {
		t.Fatalf("identity id length = %d, want 32", len(dto.IdentityID))
	}

	got, err := uc.Get(ctx, dto.IdentityID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.OwnerAddress != "0xcompany" || got.Type != "company" {
		t.Fatalf("unexpected identity: %+v", got)
	}
}

func TestAuthorize_DelegateResolution(t *testing.T) {
	uc := newUsecaseForTest(t)
	ctx := context.Background()

	principal, err := uc.Register(ctx, RegisterInput{Type: "company", OwnerAddress: "0xowner"})
	if err != nil {
		t.Fatalf("register principal: %v", err)
	}
	delegate, err := uc.Register(ctx, RegisterInput{Type: "individual", OwnerAddress: "0xdelegate"})
	if err != nil {
		t.Fatalf("register delegate: %v", err)
	}

	// a stranger may not grant
	err = uc.Authorize(ctx, principal.IdentityID, delegate.IdentityID, "0xstranger")
	if !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("stranger grant: want ErrUnauthorized, got %v", err)
	}

	if err := uc.Authorize(ctx, principal.IdentityID, delegate.IdentityID, "0xowner"); err != nil {
		t.Fatalf("Authorize: %v", err)
	}

	// the delegate's owner address now resolves against the principal
	ok, err := uc.IsOwnerOrAuthorized(ctx, principal.IdentityID, "0xdelegate")
	if err != nil || !ok {
		t.Fatalf("delegate resolution: ok=%v err=%v", ok, err)
	}

	if err := uc.Revoke(ctx, principal.IdentityID, delegate.IdentityID, "0xowner"); err != nil {
		t.Fatalf("Revoke: %v", err)
	}
	ok, err = uc.IsOwnerOrAuthorized(ctx, principal.IdentityID, "0xdelegate")
	if err != nil {
		t.Fatalf("IsOwnerOrAuthorized after revoke: %v", err)
	}
	if ok {
		t.Fatal("revoked delegate still resolves")
	}
}

func TestAuthorize_UnknownDelegate(t *testing.T) {
	uc := newUsecaseForTest(t)
	ctx := context.Background()

	principal, err := uc.Register(ctx, RegisterInput{Type: "company", OwnerAddress: "0xowner"})
	if err != nil {
		t.Fatalf("register principal: %v", err)
	}
	err = uc.Authorize(ctx, principal.IdentityID, "ffffffffffffffffffffffffffffffff", "0xowner")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("unknown delegate: want ErrNotFound, got %v", err)
	}
}
