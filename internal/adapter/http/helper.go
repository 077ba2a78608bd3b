package http

import (
	"strings"

	"github.com/labstack/echo/v4"

	mw "creditflow/internal/adapter/middleware"
)

// ---- helpers ----

// actorAddress is the authenticated wallet address set by the auth
// middleware; empty when the route is unauthenticated.
func actorAddress(c echo.Context) string { return mw.ActorAddress(c) }

func containsFieldMsg(list []FieldError, field, substr string) bool {
	for _, e := range list {
		if e.Field == field && strings.Contains(e.Message, substr) {
			return true
		}
	}
	return false
}
