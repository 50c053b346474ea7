package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/hermesapp/auth-service/internal/common"
	"github.com/hermesapp/auth-service/internal/server/models"
)

const currentUserKey = "currentUser"

// requireAccessToken validates the Authorization header as a bearer access
// token and injects the authenticated user into the gin context. Any failure
// short of a storage outage gets the same 401 body.
func (s *Server) requireAccessToken() gin.HandlerFunc {
	return func(c *gin.Context) {
		parts := strings.Fields(c.GetHeader("Authorization"))
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": "invalid token"})
			return
		}

		user, err := s.sessions.VerifyAccess(c.Request.Context(), parts[1])
		if err != nil {
			if errors.Is(err, common.ErrInternal) {
				c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"detail": "service unavailable"})
				return
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": "invalid token"})
			return
		}

		c.Set(currentUserKey, user)
		c.Next()
	}
}

// currentUser returns the user injected by requireAccessToken, or nil when
// the middleware did not run.
func currentUser(c *gin.Context) *models.User {
	v, ok := c.Get(currentUserKey)
	if !ok {
		return nil
	}
	user, ok := v.(*models.User)
	if !ok {
		return nil
	}
	return user
}
