package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"oneaccount/api/internal/apperr"
	"oneaccount/api/internal/service"
)

// Cookie names, one per token namespace.
const (
	AccountTokenCookie    = "accountAccessToken"
	AdminTokenCookie      = "adminAccessToken"
	SuperAdminTokenCookie = "superAdminAccessToken"
)

// Authenticator resolves bearer tokens back to principals. Implemented by
// the identity service; the guards stay thin token-plumbing.
type Authenticator interface {
	ResolveAccount(ctx context.Context, token string) (service.Principal, error)
	ResolveUser(ctx context.Context, token string) (service.Principal, error)
	ResolveAdmin(ctx context.Context, token string) (service.Principal, error)
	ResolveSuperAdmin(ctx context.Context, token string) (service.Principal, error)
}

type resolveFunc func(auth Authenticator, ctx context.Context, token string) (service.Principal, error)

// accountTierToken reads the account-tier token: cookie first, then the
// Authorization header. The cookie wins when both are present.
func accountTierToken(c *gin.Context) string {
	if token, err := c.Cookie(AccountTokenCookie); err == nil && token != "" {
		return token
	}
	header := c.GetHeader("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return ""
}

// cookieToken reads a tier token delivered only via its cookie.
func cookieToken(name string) func(*gin.Context) string {
	return func(c *gin.Context) string {
		token, err := c.Cookie(name)
		if err != nil {
			return ""
		}
		return token
	}
}

func guard(auth Authenticator, extract func(*gin.Context) string, resolve resolveFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extract(c)
		if token == "" {
			abortWithError(c, apperr.Unauthorized("missing access token"))
			return
		}

		principal, err := resolve(auth, c.Request.Context(), token)
		if err != nil {
			abortWithError(c, err)
			return
		}

		setPrincipal(c, principal)
		c.Next()
	}
}

// AccountAuth guards account-tier endpoints.
func AccountAuth(auth Authenticator) gin.HandlerFunc {
	return guard(auth, accountTierToken, Authenticator.ResolveAccount)
}

// UserAuth guards USER endpoints: account-tier token plus an active USER
// attachment and record.
func UserAuth(auth Authenticator) gin.HandlerFunc {
	return guard(auth, accountTierToken, Authenticator.ResolveUser)
}

// AdminAuth guards ADMIN endpoints with the admin-tier cookie.
func AdminAuth(auth Authenticator) gin.HandlerFunc {
	return guard(auth, cookieToken(AdminTokenCookie), Authenticator.ResolveAdmin)
}

// SuperAdminAuth guards SUPERADMIN endpoints with the superadmin-tier
// cookie.
func SuperAdminAuth(auth Authenticator) gin.HandlerFunc {
	return guard(auth, cookieToken(SuperAdminTokenCookie), Authenticator.ResolveSuperAdmin)
}

func abortWithError(c *gin.Context, err error) {
	c.AbortWithStatusJSON(apperr.StatusOf(err), gin.H{
		"error": err.Error(),
		"code":  apperr.CodeOf(err),
	})
}
