package agreement

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"creditflow/internal/domain/identity"
)

var (
	ErrNotFound       = errors.New("agreement not found")
	ErrValidation     = errors.New("invalid agreement input")
	ErrUnauthorized   = errors.New("caller may not act on this agreement")
	ErrNotParticipant = errors.New("identity is not an agreement participant")
)

type ParticipantStatus string

const (
	StatusPending  ParticipantStatus = "pending"
	StatusAccepted ParticipantStatus = "accepted"
	StatusRejected ParticipantStatus = "rejected"
	StatusExited   ParticipantStatus = "exited"
)

// Agreement binds a set of identities to roles and an ordered approver
// sequence. Credit lines snapshot it at creation time.
type Agreement struct {
	ID          uint64 `gorm:"column:id;primaryKey;autoIncrement"`
	AgreementID string `gorm:"column:agreement_id;type:char(32);not null;uniqueIndex"`
	OwnerID     string `gorm:"column:owner_id;type:char(32);not null;index"`
	EncryptKey  string `gorm:"column:encrypt_key;type:text"`

	// NextActionID numbers audit events; incremented under the row lock.
	NextActionID uint64 `gorm:"column:next_action_id;not null;default:1"`

	Participants   []Participant          `gorm:"foreignKey:AgreementRef"`
	Approvers      []Approver             `gorm:"foreignKey:AgreementRef"`
	ProductConfigs []ProductConfigVersion `gorm:"foreignKey:AgreementRef"`
	PrivateFor     []PrivateForEntry      `gorm:"foreignKey:AgreementRef"`

	CreatedAt time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time      `gorm:"column:updated_at;autoUpdateTime"`
	DeletedAt gorm.DeletedAt `gorm:"column:deleted_at;index"`
}

func (Agreement) TableName() string { return "agreements" }

type Participant struct {
	ID           uint64            `gorm:"column:id;primaryKey;autoIncrement"`
	AgreementRef uint64            `gorm:"column:agreement_ref;not null;index;uniqueIndex:ux_agreement_participant"`
	Seq          int               `gorm:"column:seq;not null"`
	IdentityID   string            `gorm:"column:identity_id;type:char(32);not null;uniqueIndex:ux_agreement_participant"`
	Role         identity.Role     `gorm:"column:role;not null"`
	Status       ParticipantStatus `gorm:"column:status;size:16;not null;default:'pending'"`
	Name         string            `gorm:"column:name;size:255"`
	UpdatedAt    time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

func (Participant) TableName() string { return "agreement_participants" }

// Approver is one slot of the ordered approval workflow. The list is
// replaced wholesale by SetApprovalWorkflow, never partially updated.
type Approver struct {
	ID           uint64 `gorm:"column:id;primaryKey;autoIncrement"`
	AgreementRef uint64 `gorm:"column:agreement_ref;not null;index"`
	Seq          int    `gorm:"column:seq;not null"`
	IdentityID   string `gorm:"column:identity_id;type:char(32);not null"`
}

func (Approver) TableName() string { return "agreement_approvers" }

// ProductConfigVersion is one immutable entry of a product's config
// history. Updates append, never overwrite; only the latest version's
// opened flag may flip.
type ProductConfigVersion struct {
	ID           uint64    `gorm:"column:id;primaryKey;autoIncrement"`
	AgreementRef uint64    `gorm:"column:agreement_ref;not null;index"`
	ProductID    string    `gorm:"column:product_id;size:64;not null;index"`
	IPFSHash     string    `gorm:"column:ipfs_hash;size:128;not null"`
	IsOpened     bool      `gorm:"column:is_opened;not null;default:false"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (ProductConfigVersion) TableName() string { return "agreement_product_configs" }

// PrivateForEntry is an opaque broadcast-scope tag, passed through
// unmodified. Owner-only mutation.
type PrivateForEntry struct {
	ID           uint64 `gorm:"column:id;primaryKey;autoIncrement"`
	AgreementRef uint64 `gorm:"column:agreement_ref;not null;index"`
	Value        string `gorm:"column:value;size:128;not null"`
}

func (PrivateForEntry) TableName() string { return "agreement_private_for" }

// HasParticipant reports whether the identity is on the participant list.
func (a *Agreement) HasParticipant(identityID string) bool {
	for _, p := range a.Participants {
		if p.IdentityID == identityID {
			return true
		}
	}
	return false
}

// ParticipantByID returns the participant entry for an identity, or nil.
func (a *Agreement) ParticipantByID(identityID string) *Participant {
	for i := range a.Participants {
		if a.Participants[i].IdentityID == identityID {
			return &a.Participants[i]
		}
	}
	return nil
}

// ApproverIDs returns the approval workflow in sequence order. Callers
// must not mutate the returned slice.
func (a *Agreement) ApproverIDs() []string {
	out := make([]string, 0, len(a.Approvers))
	for _, ap := range a.Approvers {
		out = append(out, ap.IdentityID)
	}
	return out
}

// ValidateWorkflow enforces the creation-time rules shared with
// SetApprovalWorkflow: no duplicates, every entry a participant.
func ValidateWorkflow(workflow []string, participants []string) error {
	seen := make(map[string]bool, len(workflow))
	members := make(map[string]bool, len(participants))
	for _, p := range participants {
		members[p] = true
	}
	for _, w := range workflow {
		if seen[w] {
			return ErrValidation
		}
		seen[w] = true
		if !members[w] {
			return ErrValidation
		}
	}
	return nil
}
