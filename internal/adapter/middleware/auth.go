package middleware

import (
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

// ActorAddressKey is where the authenticated wallet address lands in the
// echo context. Handlers read it to resolve owner/delegate capability.
const ActorAddressKey = "actor_address"

type actorClaims struct {
	Address string `json:"address"`
	jwt.RegisteredClaims
}

// AuthMiddleware verifies the bearer token and extracts the acting
// address. Tokens are HS256, issued by the identity service.
func AuthMiddleware(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw := strings.TrimSpace(c.Request().Header.Get("Authorization"))
			if !strings.HasPrefix(raw, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "missing bearer token"})
			}
			raw = strings.TrimSpace(strings.TrimPrefix(raw, "Bearer "))

			var claims actorClaims
			token, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, jwt.ErrSignatureInvalid
				}
				return []byte(secret), nil
			})
			if err != nil || !token.Valid {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "invalid token"})
			}
			if claims.Address == "" {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "token carries no address"})
			}
			c.Set(ActorAddressKey, claims.Address)
			return next(c)
		}
	}
}

// ActorAddress returns the address AuthMiddleware stored, or "".
func ActorAddress(c echo.Context) string {
	if v, ok := c.Get(ActorAddressKey).(string); ok {
		return v
	}
	return ""
}

// IssueToken mints an HS256 token for an address. Used by tests and the
// local dev login endpoint.
func IssueToken(secret, address string) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, actorClaims{Address: address})
	return token.SignedString([]byte(secret))
}
