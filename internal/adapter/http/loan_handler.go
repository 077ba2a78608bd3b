package http

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"creditflow/internal/usecase/loan"
)

type LoanHandler struct{ uc *loan.Usecase }

func NewLoanHandler(uc *loan.Usecase) *LoanHandler { return &LoanHandler{uc: uc} }

func loanActor(c echo.Context) loan.Actor {
	return loan.Actor{
		IdentityID: c.Request().Header.Get("Ax-Identity-Id"),
		DelegateID: c.Request().Header.Get("Ax-Delegate-Id"),
		Address:    actorAddress(c),
	}
}

type createLoanReq struct {
	CreditLineID      string `json:"credit_line_id"      validate:"required,hex32"`
	TotalPrinciple    int64  `json:"total_principle"     validate:"required,gt=0"`
	ProductConfigHash string `json:"product_config_hash" validate:"max=128"`
	ExternalID        string `json:"external_id"         validate:"max=64"`
	EncryptKey        string `json:"encrypt_key"`
}

func (h *LoanHandler) Create(c echo.Context) error {
	var req createLoanReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "validation failed",
			Details: ToFieldErrors(err),
		})
	}
	dto, err := h.uc.Create(c.Request().Context(), loan.CreateInput{
		CreditLineID:      req.CreditLineID,
		TotalPrinciple:    req.TotalPrinciple,
		ProductConfigHash: req.ProductConfigHash,
		ExternalID:        req.ExternalID,
		EncryptKey:        req.EncryptKey,
		Actor:             loanActor(c),
	})
	if err != nil {
		return writeErr(c, err)
	}
	return c.JSON(http.StatusCreated, dto)
}

func (h *LoanHandler) Get(c echo.Context) error {
	dto, err := h.uc.Get(c.Request().Context(), c.Param("loan_id"))
	if err != nil {
		return writeErr(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *LoanHandler) ApprovalDetails(c echo.Context) error {
	details, err := h.uc.ApprovalDetails(c.Request().Context(), c.Param("loan_id"))
	if err != nil {
		return writeErr(c, err)
	}
	return c.JSON(http.StatusOK, details)
}

func (h *LoanHandler) Events(c echo.Context) error {
	events, err := h.uc.Events(c.Request().Context(), c.Param("loan_id"))
	if err != nil {
		return writeErr(c, err)
	}
	return c.JSON(http.StatusOK, events)
}

type approveLoanReq struct {
	ApproverID string `json:"approver_id" validate:"required,hex32"`
	Approve    bool   `json:"approve"`
}

func (h *LoanHandler) Approve(c echo.Context) error {
	var req approveLoanReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "validation failed",
			Details: ToFieldErrors(err),
		})
	}
	err := h.uc.Approve(c.Request().Context(), loan.ApproveInput{
		LoanID:     c.Param("loan_id"),
		ApproverID: req.ApproverID,
		Approve:    req.Approve,
		Actor:      loanActor(c),
	})
	if err != nil {
		return writeErr(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "recorded"})
}

type recallReq struct {
	ApproverID string `json:"approver_id" validate:"required,hex32"`
}

func (h *LoanHandler) Recall(c echo.Context) error {
	var req recallReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "validation failed",
			Details: ToFieldErrors(err),
		})
	}
	if err := h.uc.Recall(c.Request().Context(), c.Param("loan_id"), req.ApproverID, loanActor(c)); err != nil {
		return writeErr(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "recalled"})
}

func (h *LoanHandler) Cancel(c echo.Context) error {
	if err := h.uc.Cancel(c.Request().Context(), c.Param("loan_id"), loanActor(c)); err != nil {
		return writeErr(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "cancelled"})
}

type disburseRequestReq struct {
	DueTimes          []int64  `json:"due_times"           validate:"required,min=1"`
	DuePrincipals     []int64  `json:"due_principals"      validate:"required,min=1"`
	DueInterests      []int64  `json:"due_interests"       validate:"required,min=1"`
	Debtors           []string `json:"debtors"             validate:"required,min=1,dive,hex32"`
	Sequences         []int    `json:"sequences"           validate:"required,min=1"`
	DisburseTime      int64    `json:"disburse_time"       validate:"required,gt=0"`
	InterestStartTime int64    `json:"interest_start_time" validate:"required,gt=0"`
}

func (h *LoanHandler) DisburseRequest(c echo.Context) error {
	var req disburseRequestReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "validation failed",
			Details: ToFieldErrors(err),
		})
	}
	err := h.uc.DisburseRequest(c.Request().Context(), loan.DisburseRequestInput{
		LoanID:            c.Param("loan_id"),
		DueTimes:          req.DueTimes,
		DuePrincipals:     req.DuePrincipals,
		DueInterests:      req.DueInterests,
		Debtors:           req.Debtors,
		Sequences:         req.Sequences,
		DisburseTime:      req.DisburseTime,
		InterestStartTime: req.InterestStartTime,
		Actor:             loanActor(c),
	})
	if err != nil {
		return writeErr(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "requested"})
}

func (h *LoanHandler) CancelDisburse(c echo.Context) error {
	if err := h.uc.CancelDisburse(c.Request().Context(), c.Param("loan_id"), loanActor(c)); err != nil {
		return writeErr(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "cancelled"})
}

func (h *LoanHandler) ConfirmDisburse(c echo.Context) error {
	if err := h.uc.ConfirmDisburse(c.Request().Context(), c.Param("loan_id"), loanActor(c)); err != nil {
		return writeErr(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "confirmed"})
}

type repayRequestReq struct {
	ScheduleIdx   int    `json:"schedule_idx"   validate:"gte=0"`
	PaidTime      int64  `json:"paid_time"      validate:"required,gt=0"`
	PaidPrincipal int64  `json:"paid_principal" validate:"gte=0"`
	PaidInterest  int64  `json:"paid_interest"  validate:"gte=0"`
	MarkCompleted bool   `json:"mark_completed"`
	DebtorID      string `json:"debtor_id"      validate:"omitempty,hex32"`
}

func (h *LoanHandler) RepayRequest(c echo.Context) error {
	var req repayRequestReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "validation failed",
			Details: ToFieldErrors(err),
		})
	}
	err := h.uc.RepayRequest(c.Request().Context(), loan.RepayRequestInput{
		LoanID:        c.Param("loan_id"),
		ScheduleIdx:   req.ScheduleIdx,
		PaidTime:      req.PaidTime,
		PaidPrincipal: req.PaidPrincipal,
		PaidInterest:  req.PaidInterest,
		MarkCompleted: req.MarkCompleted,
		DebtorID:      req.DebtorID,
		Actor:         loanActor(c),
	})
	if err != nil {
		return writeErr(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "requested"})
}

type repayConfirmReq struct {
	ConfirmTime int64 `json:"confirm_time" validate:"required,gt=0"`
}

func (h *LoanHandler) RepayConfirm(c echo.Context) error {
	paymentIdx, err := strconv.Atoi(c.Param("payment_idx"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid payment_idx path param"})
	}
	var req repayConfirmReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "validation failed",
			Details: ToFieldErrors(err),
		})
	}
	if err := h.uc.RepayConfirm(c.Request().Context(), c.Param("loan_id"), paymentIdx, req.ConfirmTime, loanActor(c)); err != nil {
		return writeErr(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "confirmed"})
}

type repayRejectReq struct {
	RejectorID string `json:"rejector_id" validate:"required,hex32"`
}

func (h *LoanHandler) RepayReject(c echo.Context) error {
	paymentIdx, err := strconv.Atoi(c.Param("payment_idx"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid payment_idx path param"})
	}
	var req repayRejectReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "validation failed",
			Details: ToFieldErrors(err),
		})
	}
	if err := h.uc.RepayReject(c.Request().Context(), c.Param("loan_id"), paymentIdx, req.RejectorID, loanActor(c)); err != nil {
		return writeErr(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "rejected"})
}

type transferReq struct {
	FromID    string `json:"from_id"   validate:"required,hex32"`
	ToID      string `json:"to_id"     validate:"required,hex32"`
	Amount    int64  `json:"amount"    validate:"required,gt=0"`
	Timestamp int64  `json:"timestamp" validate:"required,gt=0"`
}

func (h *LoanHandler) Transfer(c echo.Context) error {
	var req transferReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "validation failed",
			Details: ToFieldErrors(err),
		})
	}
	err := h.uc.Transfer(c.Request().Context(), loan.TransferInput{
		LoanID:    c.Param("loan_id"),
		FromID:    req.FromID,
		ToID:      req.ToID,
		Amount:    req.Amount,
		Timestamp: req.Timestamp,
		Actor:     loanActor(c),
	})
	if err != nil {
		return writeErr(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "transferred"})
}

type loanDataReq struct {
	Value string `json:"value" validate:"required"`
}

func (h *LoanHandler) AddData(c echo.Context) error {
	var req loanDataReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "validation failed",
			Details: ToFieldErrors(err),
		})
	}
	if err := h.uc.AddData(c.Request().Context(), c.Param("loan_id"), req.Value, loanActor(c)); err != nil {
		return writeErr(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "added"})
}

type eContractReq struct {
	ContractHash string `json:"contract_hash" validate:"required,max=128"`
}

func (h *LoanHandler) EContractSigned(c echo.Context) error {
	var req eContractReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "validation failed",
			Details: ToFieldErrors(err),
		})
	}
	if err := h.uc.EContractSigned(c.Request().Context(), c.Param("loan_id"), req.ContractHash, loanActor(c)); err != nil {
		return writeErr(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "signed"})
}
