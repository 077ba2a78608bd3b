package http

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	identityDomain "creditflow/internal/domain/identity"
	"creditflow/internal/usecase/creditline"
)

type CreditLineHandler struct{ uc *creditline.Usecase }

func NewCreditLineHandler(uc *creditline.Usecase) *CreditLineHandler {
	return &CreditLineHandler{uc: uc}
}

func clActor(c echo.Context) creditline.Actor {
	return creditline.Actor{
		IdentityID: c.Request().Header.Get("Ax-Identity-Id"),
		DelegateID: c.Request().Header.Get("Ax-Delegate-Id"),
		Address:    actorAddress(c),
	}
}

type createCreditLineReq struct {
	AgreementID string `json:"agreement_id" validate:"required,hex32"`
	BorrowerID  string `json:"borrower_id"  validate:"required,hex32"`
	ProductID   string `json:"product_id"   validate:"required,max=64"`
	EncryptKey  string `json:"encrypt_key"`
}

func (h *CreditLineHandler) Create(c echo.Context) error {
	var req createCreditLineReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "validation failed",
			Details: ToFieldErrors(err),
		})
	}
	dto, err := h.uc.Create(c.Request().Context(), creditline.CreateInput{
		AgreementID: req.AgreementID,
		BorrowerID:  req.BorrowerID,
		ProductID:   req.ProductID,
		EncryptKey:  req.EncryptKey,
		Actor:       clActor(c),
	})
	if err != nil {
		return writeErr(c, err)
	}
	return c.JSON(http.StatusCreated, dto)
}

func (h *CreditLineHandler) Get(c echo.Context) error {
	dto, err := h.uc.Get(c.Request().Context(), c.Param("credit_line_id"))
	if err != nil {
		return writeErr(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

type submitCreditLineReq struct {
	RequestedAmount int64 `json:"requested_amount" validate:"required,gt=0"`
}

func (h *CreditLineHandler) Submit(c echo.Context) error {
	var req submitCreditLineReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "validation failed",
			Details: ToFieldErrors(err),
		})
	}
	err := h.uc.Submit(c.Request().Context(), creditline.SubmitInput{
		CreditLineID:    c.Param("credit_line_id"),
		RequestedAmount: req.RequestedAmount,
		Actor:           clActor(c),
	})
	if err != nil {
		return writeErr(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "submitted"})
}

type creditActionReq struct {
	ApproverID     string `json:"approver_id"     validate:"required,hex32"`
	Approve        bool   `json:"approve"`
	ProposedAmount int64  `json:"proposed_amount" validate:"gte=0"`
	Remarks        string `json:"remarks"`
}

func (h *CreditLineHandler) Action(c echo.Context) error {
	var req creditActionReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "validation failed",
			Details: ToFieldErrors(err),
		})
	}
	err := h.uc.Action(c.Request().Context(), creditline.ActionInput{
		CreditLineID:   c.Param("credit_line_id"),
		ApproverID:     req.ApproverID,
		Approve:        req.Approve,
		ProposedAmount: req.ProposedAmount,
		Remarks:        req.Remarks,
		Actor:          clActor(c),
	})
	if err != nil {
		return writeErr(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "recorded"})
}

type addCLParticipantReq struct {
	IdentityID string `json:"identity_id" validate:"required,hex32"`
	Role       int    `json:"role"        validate:"gte=0,lte=6"`
}

func (h *CreditLineHandler) AddParticipant(c echo.Context) error {
	var req addCLParticipantReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "validation failed",
			Details: ToFieldErrors(err),
		})
	}
	err := h.uc.AddParticipant(c.Request().Context(), creditline.AddParticipantInput{
		CreditLineID: c.Param("credit_line_id"),
		IdentityID:   req.IdentityID,
		Role:         identityDomain.Role(req.Role),
		Actor:        clActor(c),
	})
	if err != nil {
		return writeErr(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "added"})
}

type addDataReq struct {
	Value string `json:"value" validate:"required"`
}

func (h *CreditLineHandler) AddData(c echo.Context) error {
	var req addDataReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "validation failed",
			Details: ToFieldErrors(err),
		})
	}
	err := h.uc.AddData(c.Request().Context(), creditline.AddDataInput{
		CreditLineID: c.Param("credit_line_id"),
		Value:        req.Value,
		Actor:        clActor(c),
	})
	if err != nil {
		return writeErr(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "added"})
}

type setDataDeletedReq struct {
	Deleted bool `json:"deleted"`
}

func (h *CreditLineHandler) SetDataDeleted(c echo.Context) error {
	idx, err := strconv.Atoi(c.Param("idx"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid idx path param"})
	}
	var req setDataDeletedReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	err = h.uc.SetDataDeleted(c.Request().Context(), c.Param("credit_line_id"), idx, req.Deleted, clActor(c))
	if err != nil {
		return writeErr(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "updated"})
}

func (h *CreditLineHandler) AddPrivateFor(c echo.Context) error {
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
	if err := h.uc.AddPrivateFor(c.Request().Context(), c.Param("credit_line_id"), req.Value, clActor(c)); err != nil {
		return writeErr(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "added"})
}

func (h *CreditLineHandler) RemovePrivateFor(c echo.Context) error {
	var req privateForReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if err := h.uc.RemovePrivateFor(c.Request().Context(), c.Param("credit_line_id"), req.Value, clActor(c)); err != nil {
		return writeErr(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "removed"})
}

func (h *CreditLineHandler) Events(c echo.Context) error {
	events, err := h.uc.Events(c.Request().Context(), c.Param("credit_line_id"))
	if err != nil {
		return writeErr(c, err)
	}
	return c.JSON(http.StatusOK, events)
}
