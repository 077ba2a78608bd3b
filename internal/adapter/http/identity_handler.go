package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"creditflow/internal/usecase/identity"
)

type IdentityHandler struct{ uc *identity.Usecase }

func NewIdentityHandler(uc *identity.Usecase) *IdentityHandler { return &IdentityHandler{uc: uc} }

type registerIdentityReq struct {
	Type         string `json:"type"          validate:"required,oneof=individual company"`
	OwnerAddress string `json:"owner_address" validate:"required"`
	Name         string `json:"name"`
}

func (h *IdentityHandler) Register(c echo.Context) error {
	var req registerIdentityReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "validation failed",
			Details: ToFieldErrors(err),
		})
	}
	dto, err := h.uc.Register(c.Request().Context(), identity.RegisterInput(req))
	if err != nil {
		return writeErr(c, err)
	}
	return c.JSON(http.StatusCreated, dto)
}

func (h *IdentityHandler) Get(c echo.Context) error {
	dto, err := h.uc.Get(c.Request().Context(), c.Param("identity_id"))
	if err != nil {
		return writeErr(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

type delegateReq struct {
	DelegateID string `json:"delegate_id" validate:"required,hex32"`
}

func (h *IdentityHandler) Authorize(c echo.Context) error {
	var req delegateReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "validation failed",
			Details: ToFieldErrors(err),
		})
	}
	err := h.uc.Authorize(c.Request().Context(), c.Param("identity_id"), req.DelegateID, actorAddress(c))
	if err != nil {
		return writeErr(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "authorized"})
}

func (h *IdentityHandler) Revoke(c echo.Context) error {
	var req delegateReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "validation failed",
			Details: ToFieldErrors(err),
		})
	}
	err := h.uc.Revoke(c.Request().Context(), c.Param("identity_id"), req.DelegateID, actorAddress(c))
	if err != nil {
		return writeErr(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "revoked"})
}
