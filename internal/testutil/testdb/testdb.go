package testdb

import (
	"fmt"
	"sync/atomic"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	agreementDomain "creditflow/internal/domain/agreement"
	creditlineDomain "creditflow/internal/domain/creditline"
	eventDomain "creditflow/internal/domain/event"
	identityDomain "creditflow/internal/domain/identity"
	loanDomain "creditflow/internal/domain/loan"
)

var dbSeq atomic.Int64

// Open returns an in-memory sqlite DB with the full schema migrated.
// The DSN names the database and shares its cache so every pooled
// connection sees the same schema; a plain ":memory:" DSN gives each
// connection its own empty database, which breaks queries that run
// outside the transaction's connection. The sqlite driver ignores
// FOR UPDATE clauses, so the repositories' locking reads run unchanged.
func Open(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:testdb%d?mode=memory&cache=shared&_busy_timeout=5000", dbSeq.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(
		&identityDomain.Identity{},
		&identityDomain.Grant{},
		&agreementDomain.Agreement{},
		&agreementDomain.Participant{},
		&agreementDomain.Approver{},
		&agreementDomain.ProductConfigVersion{},
		&agreementDomain.PrivateForEntry{},
		&creditlineDomain.CreditLine{},
		&creditlineDomain.Participant{},
		&creditlineDomain.ApproverAction{},
		&creditlineDomain.DataRecord{},
		&creditlineDomain.PrivateForEntry{},
		&loanDomain.Loan{},
		&loanDomain.Participant{},
		&loanDomain.Approval{},
		&loanDomain.ScheduledPayment{},
		&loanDomain.Payment{},
		&loanDomain.Balance{},
		&loanDomain.PrivateForEntry{},
		&eventDomain.Event{},
	); err != nil {
		t.Fatalf("auto-migrate: %v", err)
	}
	return db
}
