package http

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	agreementDomain "creditflow/internal/domain/agreement"
	creditlineDomain "creditflow/internal/domain/creditline"
	identityDomain "creditflow/internal/domain/identity"
	loanDomain "creditflow/internal/domain/loan"
)

// statusFor maps domain sentinels onto HTTP codes. Unknown errors are
// internal: the handler must not leak storage details to the client.
func statusFor(err error) int {
	switch {
	case errors.Is(err, identityDomain.ErrNotFound),
		errors.Is(err, agreementDomain.ErrNotFound),
		errors.Is(err, creditlineDomain.ErrNotFound),
		errors.Is(err, loanDomain.ErrNotFound):
		return http.StatusNotFound

	case errors.Is(err, identityDomain.ErrUnauthorized),
		errors.Is(err, agreementDomain.ErrUnauthorized),
		errors.Is(err, creditlineDomain.ErrUnauthorized),
		errors.Is(err, loanDomain.ErrUnauthorized),
		errors.Is(err, agreementDomain.ErrNotParticipant),
		errors.Is(err, creditlineDomain.ErrNotParticipant),
		errors.Is(err, creditlineDomain.ErrNotApprover),
		errors.Is(err, loanDomain.ErrNotParticipant),
		errors.Is(err, loanDomain.ErrNotApprover):
		return http.StatusForbidden

	case errors.Is(err, identityDomain.ErrValidation),
		errors.Is(err, agreementDomain.ErrValidation),
		errors.Is(err, creditlineDomain.ErrValidation),
		errors.Is(err, loanDomain.ErrValidation):
		return http.StatusBadRequest

	case errors.Is(err, identityDomain.ErrDuplicate),
		errors.Is(err, creditlineDomain.ErrDuplicateParticipant),
		errors.Is(err, creditlineDomain.ErrAlreadyResponded),
		errors.Is(err, creditlineDomain.ErrInvalidState),
		errors.Is(err, loanDomain.ErrAlreadyResponded),
		errors.Is(err, loanDomain.ErrAlreadyConfirmed),
		errors.Is(err, loanDomain.ErrPaymentNotRequested),
		errors.Is(err, loanDomain.ErrInvalidState):
		return http.StatusConflict

	case errors.Is(err, creditlineDomain.ErrInsufficientCredit),
		errors.Is(err, loanDomain.ErrInsufficientBalance):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

// writeErr renders a domain error in the shared payload shape.
func writeErr(c echo.Context, err error) error {
	code := statusFor(err)
	msg := err.Error()
	if code == http.StatusInternalServerError {
		msg = "internal error"
	}
	return c.JSON(code, ErrorResponse{Error: msg})
}
