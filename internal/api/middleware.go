package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/milktrack/server/internal/auth"
	"github.com/milktrack/server/internal/models"
)

// Context key under which the authenticated user id is stored.
const contextUserID = "userId"

// AuthMiddleware returns a Gin middleware that guards a route with access
// token verification. All verification failures look identical to the caller.
func AuthMiddleware(tokens *auth.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortUnauthorized(c, "Authentication required")
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			abortUnauthorized(c, "Invalid token format")
			return
		}

		userID, err := tokens.VerifyAccess(parts[1])
		if err != nil {
			abortUnauthorized(c, "Invalid token")
			return
		}

		c.Set(contextUserID, userID)
		c.Next()
	}
}

func abortUnauthorized(c *gin.Context, message string) {
	c.JSON(http.StatusUnauthorized, models.ErrorResponse{
		Status:  "error",
		Code:    "UNAUTHORIZED",
		Message: message,
	})
	c.Abort()
}
