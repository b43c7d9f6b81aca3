package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/niyyah-app/niyyah-api/internal/model"
	"golang.org/x/crypto/bcrypt"
)

// AdminKeyHeader carries the shared admin secret
const AdminKeyHeader = "X-Admin-Key"

// AdminKeyMiddleware compares X-Admin-Key against a bcrypt hash. With no hash
// configured the admin routes are disabled.
func AdminKeyMiddleware(keyHash string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if keyHash == "" {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, model.ErrorResponse{Error: "Admin routes are disabled"})
			return
		}

		key := c.GetHeader(AdminKeyHeader)
		if key == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, model.ErrorResponse{Error: "Unauthorized"})
			return
		}

		if err := bcrypt.CompareHashAndPassword([]byte(keyHash), []byte(key)); err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, model.ErrorResponse{Error: "Unauthorized"})
			return
		}

		c.Next()
	}
}
