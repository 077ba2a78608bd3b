package http

import "github.com/labstack/echo/v4"

// Handlers bundles everything the router needs.
type Handlers struct {
	Health     *Handler
	Identity   *IdentityHandler
	Agreement  *AgreementHandler
	CreditLine *CreditLineHandler
	Loan       *LoanHandler
}

// RegisterRoutes wires the API surface. The auth middleware guards every
// mutating group; health and identity registration stay open.
func RegisterRoutes(e *echo.Echo, h Handlers, auth echo.MiddlewareFunc, extra ...echo.MiddlewareFunc) {
	e.GET("/health", h.Health.Health)

	// identity registration bootstraps the system, so it is open;
	// grant management needs the owner's token.
	e.POST("/identities", h.Identity.Register)
	e.GET("/identities/:identity_id", h.Identity.Get)
	ig := e.Group("/identities", auth)
	ig.POST("/:identity_id/authorize", h.Identity.Authorize)
	ig.POST("/:identity_id/revoke", h.Identity.Revoke)

	mws := append([]echo.MiddlewareFunc{auth}, extra...)

	ag := e.Group("/agreements", mws...)
	ag.POST("", h.Agreement.Create)
	ag.GET("/:agreement_id", h.Agreement.Get)
	ag.GET("/:agreement_id/events", h.Agreement.Events)
	ag.PUT("/:agreement_id/approval-workflow", h.Agreement.SetApprovalWorkflow)
	ag.PUT("/:agreement_id/participants/:participant_id/status", h.Agreement.SetParticipantStatus)
	ag.PUT("/:agreement_id/participants/:participant_id/name", h.Agreement.SetParticipantName)
	ag.POST("/:agreement_id/products/:product_id/config", h.Agreement.UpdateProductConfig)
	ag.PUT("/:agreement_id/products/:product_id/opened", h.Agreement.SetProductConfigOpened)
	ag.GET("/:agreement_id/products/:product_id/config/history", h.Agreement.ProductConfigHistory)
	ag.POST("/:agreement_id/private-for", h.Agreement.AddPrivateFor)
	ag.DELETE("/:agreement_id/private-for", h.Agreement.RemovePrivateFor)

	cl := e.Group("/credit-lines", mws...)
	cl.POST("", h.CreditLine.Create)
	cl.GET("/:credit_line_id", h.CreditLine.Get)
	cl.GET("/:credit_line_id/events", h.CreditLine.Events)
	cl.POST("/:credit_line_id/submit", h.CreditLine.Submit)
	cl.POST("/:credit_line_id/actions", h.CreditLine.Action)
	cl.POST("/:credit_line_id/participants", h.CreditLine.AddParticipant)
	cl.POST("/:credit_line_id/data", h.CreditLine.AddData)
	cl.PUT("/:credit_line_id/data/:idx/deleted", h.CreditLine.SetDataDeleted)
	cl.POST("/:credit_line_id/private-for", h.CreditLine.AddPrivateFor)
	cl.DELETE("/:credit_line_id/private-for", h.CreditLine.RemovePrivateFor)

	lo := e.Group("/loans", mws...)
	lo.POST("", h.Loan.Create)
	lo.GET("/:loan_id", h.Loan.Get)
	lo.GET("/:loan_id/approvals", h.Loan.ApprovalDetails)
	lo.GET("/:loan_id/events", h.Loan.Events)
	lo.POST("/:loan_id/approve", h.Loan.Approve)
	lo.POST("/:loan_id/recall", h.Loan.Recall)
	lo.POST("/:loan_id/cancel", h.Loan.Cancel)
	lo.POST("/:loan_id/disburse/request", h.Loan.DisburseRequest)
	lo.POST("/:loan_id/disburse/cancel", h.Loan.CancelDisburse)
	lo.POST("/:loan_id/disburse/confirm", h.Loan.ConfirmDisburse)
	lo.POST("/:loan_id/repayments", h.Loan.RepayRequest)
	lo.POST("/:loan_id/repayments/:payment_idx/confirm", h.Loan.RepayConfirm)
	lo.POST("/:loan_id/repayments/:payment_idx/reject", h.Loan.RepayReject)
	lo.POST("/:loan_id/transfer", h.Loan.Transfer)
	lo.POST("/:loan_id/data", h.Loan.AddData)
	lo.POST("/:loan_id/e-contract", h.Loan.EContractSigned)
}
