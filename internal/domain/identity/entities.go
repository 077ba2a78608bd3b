package identity

import (
	"errors"
	"time"

	"gorm.io/gorm"
)

var (
	ErrNotFound     = errors.New("identity not found")
	ErrValidation   = errors.New("invalid identity input")
	ErrUnauthorized = errors.New("acting address is not owner or authorized")
	ErrDuplicate    = errors.New("delegate already authorized")
)

type Type string

const (
	TypeIndividual Type = "individual"
	TypeCompany    Type = "company"
)

// Role is shared by agreements, credit lines and loans.
type Role int

const (
	RoleNone Role = iota
	RoleBorrower
	RoleLender
	RoleGuarantee
	RoleChannel
	RoleAssetBuyer
	RoleWitness
)

// Identity is a party reference: an individual or a company controlled
// by an owner wallet address.
type Identity struct {
	ID           uint64         `gorm:"column:id;primaryKey;autoIncrement"`
	IdentityID   string         `gorm:"column:identity_id;type:char(32);not null;uniqueIndex"`
	Type         Type           `gorm:"column:type;size:16;not null"`
	OwnerAddress string         `gorm:"column:owner_address;size:64;not null;index"`
	Name         string         `gorm:"column:name;size:255"`
	CreatedAt    time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time      `gorm:"column:updated_at;autoUpdateTime"`
	DeletedAt    gorm.DeletedAt `gorm:"column:deleted_at;index"`
}

func (Identity) TableName() string { return "identities" }

// Grant records that a delegate identity may act on behalf of another
// identity until revoked.
type Grant struct {
	ID         uint64    `gorm:"column:id;primaryKey;autoIncrement"`
	IdentityID string    `gorm:"column:identity_id;type:char(32);not null;uniqueIndex:ux_grants_identity_delegate"`
	DelegateID string    `gorm:"column:delegate_id;type:char(32);not null;uniqueIndex:ux_grants_identity_delegate"`
	Revoked    bool      `gorm:"column:revoked;not null;default:false"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (Grant) TableName() string { return "identity_grants" }
