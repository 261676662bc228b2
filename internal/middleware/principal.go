package middleware

import (
	"github.com/gin-gonic/gin"

	"oneaccount/api/internal/service"
)

const principalKey = "principal"

func setPrincipal(c *gin.Context, principal service.Principal) {
	c.Set(principalKey, principal)
}

// CurrentPrincipal returns the principal a guard attached to the request.
// The second return is false on unguarded routes.
func CurrentPrincipal(c *gin.Context) (service.Principal, bool) {
	value, exists := c.Get(principalKey)
	if !exists {
		return service.Principal{}, false
	}
	principal, ok := value.(service.Principal)
	return principal, ok
}
