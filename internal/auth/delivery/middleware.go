package delivery

import (
	"net/http"
	"strings"

	authdomain "jobmatch-backend/internal/auth/domain"
	"jobmatch-backend/internal/auth/usecase"

	"github.com/gin-gonic/gin"
)

// AuthMiddleware validates the bearer token and puts the user and their
// profile in the request context.
func AuthMiddleware(authUsecase usecase.AuthUsecase) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			// EventSource cannot set headers, so the SSE stream passes the token as a query param
			if token := c.Query("token"); token != "" {
				authHeader = "Bearer " + token
			}
		}
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "authorization header required"})
			c.Abort()
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization header format"})
			c.Abort()
			return
		}

		user, err := authUsecase.ValidateToken(parts[1])
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			c.Abort()
			return
		}

		c.Set("user", user)
		c.Set("userID", user.ID)
		c.Set("profile", user.Profile.Data())
		c.Next()
	}
}

// ProfileFromContext returns the profile loaded by AuthMiddleware.
func ProfileFromContext(c *gin.Context) authdomain.Profile {
	if v, ok := c.Get("profile"); ok {
		if profile, ok := v.(authdomain.Profile); ok {
			return profile
		}
	}
	return authdomain.Profile{}
}

// UserFromContext returns the authenticated user, or nil.
func UserFromContext(c *gin.Context) *authdomain.User {
	if v, ok := c.Get("user"); ok {
		if user, ok := v.(*authdomain.User); ok {
			return user
		}
	}
	return nil
}
