package middleware

import (
	"context"  // Context for revocation checks
	"net/http" // HTTP status codes
	"strings"  // String manipulation

	"wallet_auth/internal/auth" // Token verification

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Logging
)

// Context keys set by the auth middlewares
const (
	ClaimsKey = "claims" // *auth.Claims of the presented token
	UserIDKey = "userID" // uint user ID from the token
	UserKey   = "user"   // *domain.User loaded for the token
)

// RevocationChecker reports whether a token ID was revoked by logout
type RevocationChecker interface {
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// JWTAuthMiddleware validates bearer tokens and extracts user information.
// Expired, malformed, forged or revoked tokens are rejected.
func JWTAuthMiddleware(tokens *auth.TokenIssuer, revoked RevocationChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization") // Get Authorization header
		// Check if the Authorization header is present and properly formatted
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Missing or invalid Authorization header", "code": "token_invalid"})
			return
		}
		tokenStr := strings.TrimPrefix(authHeader, "Bearer ") // Extract the token string
		claims, err := tokens.Parse(tokenStr)                 // Parse and verify the token
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token", "code": "token_invalid"})
			return
		}
		if revoked != nil {
			isRevoked, err := revoked.IsRevoked(c.Request.Context(), claims.ID)
			if err != nil {
				// Fail closed: an unverifiable token is not accepted
				logrus.WithFields(logrus.Fields{"user_id": claims.UserID, "error": err.Error()}).Error("Token revocation check failed")
				c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "Token check unavailable", "code": "internal_error"})
				return
			}
			if isRevoked {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Token has been revoked", "code": "token_invalid"})
				return
			}
		}
		c.Set(ClaimsKey, claims)        // Store claims in context
		c.Set(UserIDKey, claims.UserID) // Store userID in context
		c.Next()                        // Proceed to the next handler
	}
}
