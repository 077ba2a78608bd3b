package agreement

import (
	"time"

	domain "creditflow/internal/domain/agreement"
	"creditflow/internal/domain/identity"
)

// Actor identifies who is performing a mutation: the identity acted for,
// the optional delegate identity acting on its behalf, and the wallet
// address the request was authenticated with.
type Actor struct {
	IdentityID string
	DelegateID string
	Address    string
}

type CreateInput struct {
	OwnerID          string
	Participants     []string
	Roles            []identity.Role
	ApprovalWorkflow []string
	EncryptKey       string
	ActorAddress     string
}

type SetWorkflowInput struct {
	AgreementID string
	Workflow    []string
	Actor       Actor
}

type SetParticipantStatusInput struct {
	AgreementID   string
	ParticipantID string
	Status        domain.ParticipantStatus
	Actor         Actor
}

type ProductConfigInput struct {
	AgreementID string
	ProductID   string
	IPFSHash    string
	IsOpened    bool
	Actor       Actor
}

type ParticipantDTO struct {
	IdentityID string                   `json:"identity_id"`
	Role       identity.Role            `json:"role"`
	Status     domain.ParticipantStatus `json:"status"`
	Name       string                   `json:"name,omitempty"`
}

type AgreementDTO struct {
	AgreementID      string                   `json:"agreement_id"`
	OwnerID          string                   `json:"owner_id"`
	Participants     []ParticipantDTO         `json:"participants"`
	ApprovalWorkflow []string                 `json:"approval_workflow"`
	OverallStatus    domain.ParticipantStatus `json:"overall_status"`
	PrivateFor       []string                 `json:"private_for,omitempty"`
	CreatedAt        time.Time                `json:"created_at"`
}

type ProductConfigDTO struct {
	ProductID string    `json:"product_id"`
	IPFSHash  string    `json:"ipfs_hash"`
	IsOpened  bool      `json:"is_opened"`
	CreatedAt time.Time `json:"created_at"`
}

func toDTO(a *domain.Agreement) *AgreementDTO {
	dto := &AgreementDTO{
		AgreementID:      a.AgreementID,
		OwnerID:          a.OwnerID,
		ApprovalWorkflow: a.ApproverIDs(),
		OverallStatus:    a.OverallStatus(),
		CreatedAt:        a.CreatedAt,
	}
	for _, p := range a.Participants {
		dto.Participants = append(dto.Participants, ParticipantDTO{
			IdentityID: p.IdentityID,
			Role:       p.Role,
			Status:     p.Status,
			Name:       p.Name,
		})
	}
	for _, e := range a.PrivateFor {
		dto.PrivateFor = append(dto.PrivateFor, e.Value)
	}
	return dto
}
