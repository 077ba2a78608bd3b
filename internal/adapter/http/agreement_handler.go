package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	agreementDomain "creditflow/internal/domain/agreement"
	identityDomain "creditflow/internal/domain/identity"
	"creditflow/internal/usecase/agreement"
)

type AgreementHandler struct{ uc *agreement.Usecase }

func NewAgreementHandler(uc *agreement.Usecase) *AgreementHandler {
	return &AgreementHandler{uc: uc}
}

// bindActor pulls the acting identity from the request headers and the
// authenticated address from the auth middleware.
func bindActor(c echo.Context) agreement.Actor {
	return agreement.Actor{
		IdentityID: c.Request().Header.Get("Ax-Identity-Id"),
		DelegateID: c.Request().Header.Get("Ax-Delegate-Id"),
		Address:    actorAddress(c),
	}
}

type createAgreementReq struct {
	OwnerID          string   `json:"owner_id"          validate:"required,hex32"`
	Participants     []string `json:"participants"      validate:"required,min=1,dive,hex32"`
	Roles            []int    `json:"roles"             validate:"required"`
	ApprovalWorkflow []string `json:"approval_workflow" validate:"dive,hex32"`
	EncryptKey       string   `json:"encrypt_key"`
}

func (h *AgreementHandler) Create(c echo.Context) error {
	var req createAgreementReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "validation failed",
			Details: ToFieldErrors(err),
		})
	}
	roles := make([]identityDomain.Role, 0, len(req.Roles))
	for _, r := range req.Roles {
		roles = append(roles, identityDomain.Role(r))
	}
	dto, err := h.uc.Create(c.Request().Context(), agreement.CreateInput{
		OwnerID:          req.OwnerID,
		Participants:     req.Participants,
		Roles:            roles,
		ApprovalWorkflow: req.ApprovalWorkflow,
		EncryptKey:       req.EncryptKey,
		ActorAddress:     actorAddress(c),
	})
	if err != nil {
		return writeErr(c, err)
	}
	return c.JSON(http.StatusCreated, dto)
}

func (h *AgreementHandler) Get(c echo.Context) error {
	dto, err := h.uc.Get(c.Request().Context(), c.Param("agreement_id"))
	if err != nil {
		return writeErr(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

type setWorkflowReq struct {
	Workflow []string `json:"workflow" validate:"dive,hex32"`
}

func (h *AgreementHandler) SetApprovalWorkflow(c echo.Context) error {
	var req setWorkflowReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "validation failed",
			Details: ToFieldErrors(err),
		})
	}
	err := h.uc.SetApprovalWorkflow(c.Request().Context(), agreement.SetWorkflowInput{
		AgreementID: c.Param("agreement_id"),
		Workflow:    req.Workflow,
		Actor:       bindActor(c),
	})
	if err != nil {
		return writeErr(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "updated"})
}

type setParticipantStatusReq struct {
	Status string `json:"status" validate:"required,oneof=accepted rejected exited"`
}

func (h *AgreementHandler) SetParticipantStatus(c echo.Context) error {
	var req setParticipantStatusReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "validation failed",
			Details: ToFieldErrors(err),
		})
	}
	err := h.uc.SetParticipantStatus(c.Request().Context(), agreement.SetParticipantStatusInput{
		AgreementID:   c.Param("agreement_id"),
		ParticipantID: c.Param("participant_id"),
		Status:        agreementDomain.ParticipantStatus(req.Status),
		Actor:         bindActor(c),
	})
	if err != nil {
		return writeErr(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "updated"})
}

type setParticipantNameReq struct {
	Name string `json:"name" validate:"required,max=255"`
}

func (h *AgreementHandler) SetParticipantName(c echo.Context) error {
	var req setParticipantNameReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "validation failed",
			Details: ToFieldErrors(err),
		})
	}
	err := h.uc.SetParticipantName(c.Request().Context(),
		c.Param("agreement_id"), c.Param("participant_id"), req.Name, bindActor(c))
	if err != nil {
		return writeErr(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "updated"})
}

type productConfigReq struct {
	IPFSHash string `json:"ipfs_hash" validate:"required,max=128"`
	IsOpened bool   `json:"is_opened"`
}

func (h *AgreementHandler) UpdateProductConfig(c echo.Context) error {
	var req productConfigReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "validation failed",
			Details: ToFieldErrors(err),
		})
	}
	err := h.uc.UpdateProductConfig(c.Request().Context(), agreement.ProductConfigInput{
		AgreementID: c.Param("agreement_id"),
		ProductID:   c.Param("product_id"),
		IPFSHash:    req.IPFSHash,
		IsOpened:    req.IsOpened,
		Actor:       bindActor(c),
	})
	if err != nil {
		return writeErr(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "updated"})
}

type setOpenedReq struct {
	IsOpened bool `json:"is_opened"`
}

func (h *AgreementHandler) SetProductConfigOpened(c echo.Context) error {
	var req setOpenedReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	err := h.uc.SetProductConfigOpened(c.Request().Context(),
		c.Param("agreement_id"), c.Param("product_id"), req.IsOpened, bindActor(c))
	if err != nil {
		return writeErr(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "updated"})
}

func (h *AgreementHandler) Events(c echo.Context) error {
	events, err := h.uc.Events(c.Request().Context(), c.Param("agreement_id"))
	if err != nil {
		return writeErr(c, err)
	}
	return c.JSON(http.StatusOK, events)
}

func (h *AgreementHandler) ProductConfigHistory(c echo.Context) error {
	history, err := h.uc.ProductConfigHistory(c.Request().Context(),
		c.Param("agreement_id"), c.Param("product_id"))
	if err != nil {
		return writeErr(c, err)
	}
	return c.JSON(http.StatusOK, history)
}

type privateForReq struct {
	Value string `json:"value" validate:"required,max=128"`
}

func (h *AgreementHandler) AddPrivateFor(c echo.Context) error {
	var req privateForReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "validation failed",
			Details: ToFieldErrors(err),
		})
	}
	if err := h.uc.AddPrivateFor(c.Request().Context(), c.Param("agreement_id"), req.Value, bindActor(c)); err != nil {
		return writeErr(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "added"})
}

func (h *AgreementHandler) RemovePrivateFor(c echo.Context) error {
	var req privateForReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if err := h.uc.RemovePrivateFor(c.Request().Context(), c.Param("agreement_id"), req.Value, bindActor(c)); err != nil {
		return writeErr(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "removed"})
}
