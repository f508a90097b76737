package middleware

import (
	"context"  // Context for store lookups
	"net/http" // HTTP status codes

	"wallet_auth/internal/domain"  // Importing domain models
	"wallet_auth/internal/errutil" // Error codes

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Logging
)

// UserLoader loads the account a token belongs to
type UserLoader interface {
	UserByID(ctx context.Context, id uint) (*domain.User, error)
}

// CurrentUserMiddleware loads the acting user from the store on each request.
// A token whose account was deleted no longer authenticates anyone.
func CurrentUserMiddleware(users UserLoader) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, exists := c.Get(UserIDKey) // Get userID from context
		// Check if userID exists in context
		if !exists {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized", "code": "token_invalid"})
			return
		}
		user, err := users.UserByID(c.Request.Context(), userID.(uint)) // Fetch user from store
		if err != nil {
			if errutil.Code(err) == domain.CodeUserNotFound {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Account no longer exists", "code": "token_invalid"})
				return
			}
			errutil.LogError(logrus.StandardLogger(), "Failed to load acting user", err, logrus.Fields{"user_id": userID})
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Internal server error", "code": "internal_error"})
			return
		}
		c.Set(UserKey, user) // Store acting user in context
		c.Next()             // Proceed to the next handler
	}
}

// CurrentUser returns the acting user stored by CurrentUserMiddleware
func CurrentUser(c *gin.Context) (*domain.User, bool) {
	v, ok := c.Get(UserKey)
	if !ok {
		return nil, false
	}
	user, ok := v.(*domain.User)
	return user, ok
}
