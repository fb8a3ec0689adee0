package http

import (
	"net/http"

	"github.com/bdCalling-Sdt-hub/jewellery-backend/internal/domain"

	"github.com/gin-gonic/gin"
)

const identityContextKey = "identity"

type unauthorizedResponse struct {
	Message string `json:"message"`
}

// authorize binds a role set to a route. The set is built once here and
// shared read-only by every request to that route.
func (s *Server) authorize(roles ...domain.Role) gin.HandlerFunc {
	allowed := domain.NewRoleSet(roles...)
	return func(c *gin.Context) {
		if s.gate == nil {
			writeUnauthorized(c)
			return
		}
		decision := s.gate.Authorize(c.Request.Context(), allowed, c.GetHeader("Authorization"))
		identity, ok := decision.Identity()
		if !ok {
			writeUnauthorized(c)
			return
		}
		c.Request = c.Request.WithContext(domain.ContextWithIdentity(c.Request.Context(), identity))
		c.Set(identityContextKey, identity)
		c.Next()
	}
}

func writeUnauthorized(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, unauthorizedResponse{Message: "Unauthorized"})
}

func IdentityFromGin(c *gin.Context) (domain.AccessClaims, bool) {
	raw, ok := c.Get(identityContextKey)
	if !ok {
		return domain.IdentityFromContext(c.Request.Context())
	}
	identity, ok := raw.(domain.AccessClaims)
	return identity, ok
}
