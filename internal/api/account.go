package api

import (
	"context"  // Context for cache calls
	"net/http" // HTTP status codes
	"time"     // Token expiry

	"wallet_auth/internal/auth"       // Authentication service
	"wallet_auth/internal/domain"     // Importing domain models
	"wallet_auth/internal/middleware" // Acting user and claims

	"github.com/gin-gonic/gin"         // Gin web framework
	"github.com/gin-gonic/gin/binding" // Re-readable body binding
	"github.com/samber/oops"           // Error context
	"github.com/sirupsen/logrus"       // Logging
)

// ProfileStore caches account profiles between requests
type ProfileStore interface {
	Get(ctx context.Context, userID uint) (*domain.User, bool, error)
	Set(ctx context.Context, user *domain.User) error
	Invalidate(ctx context.Context, userID uint) error
}

// TokenRevoker revokes a token until it expires
type TokenRevoker interface {
	Revoke(ctx context.Context, tokenID string, userID uint, expiresAt time.Time) error
}

// Request struct for email update
type UpdateEmailRequest struct {
	Username string `json:"username" binding:"required"` // Account to update
	NewEmail string `json:"newEmail" binding:"required"` // Replacement email
}

// Request struct for password update
type UpdatePasswordRequest struct {
	Username    string `json:"username" binding:"required"`    // Account to update
	NewPassword string `json:"newPassword" binding:"required"` // Replacement password
}

// Request struct for preference update. Traits are read as top-level fields.
type UpdatePreferencesRequest struct {
	Username string `json:"username" binding:"required"` // Account to update
}

// Request struct for account deletion; the first non-empty field is used
type DeleteUserRequest struct {
	Username      string `json:"username"`
	Email         string `json:"email"`
	WalletAddress string `json:"walletAddress"`
}

// MeHandler returns the account the token belongs to, served from cache when possible
func MeHandler(svc *auth.Service, profiles ProfileStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetUint(middleware.UserIDKey) // Set by JWTAuthMiddleware
		ctx := c.Request.Context()

		user, found, err := profiles.Get(ctx, userID) // Check cache first
		if err != nil {
			logrus.WithFields(logrus.Fields{"user_id": userID, "error": err.Error()}).Warn("Profile cache read failed")
		}
		if found {
			c.JSON(http.StatusOK, UserResponse{User: user})
			return
		}

		user, err = svc.UserByID(ctx, userID) // Cache miss, read from store
		if err != nil {
			respondError(c, err)
			return
		}
		if err := profiles.Set(ctx, user); err != nil {
			logrus.WithFields(logrus.Fields{"user_id": userID, "error": err.Error()}).Warn("Profile cache write failed")
		}
		c.JSON(http.StatusOK, UserResponse{User: user})
	}
}

// UpdateEmailHandler replaces the caller's email
func UpdateEmailHandler(svc *auth.Service, profiles ProfileStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req UpdateEmailRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "username and newEmail are required")
			return
		}
		if !actingOn(c, req.Username) {
			return
		}
		user, err := svc.UpdateEmail(c.Request.Context(), req.Username, req.NewEmail)
		if err != nil {
			respondError(c, err)
			return
		}
		invalidateProfile(c, profiles, user.ID)
		c.JSON(http.StatusOK, UserResponse{User: user})
	}
}

// UpdatePasswordHandler replaces the caller's password
func UpdatePasswordHandler(svc *auth.Service, profiles ProfileStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req UpdatePasswordRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "username and newPassword are required")
			return
		}
		if !actingOn(c, req.Username) {
			return
		}
		user, err := svc.UpdatePassword(c.Request.Context(), req.Username, req.NewPassword)
		if err != nil {
			respondError(c, err)
			return
		}
		invalidateProfile(c, profiles, user.ID)
		c.JSON(http.StatusOK, UserResponse{User: user})
	}
}

// UpdatePreferencesHandler writes the supplied traits together or not at all
func UpdatePreferencesHandler(svc *auth.Service, profiles ProfileStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req UpdatePreferencesRequest // Bind JSON request to struct
		if err := c.ShouldBindBodyWith(&req, binding.JSON); err != nil {
			badRequest(c, "username is required")
			return
		}
		traits, ok := bindTraits(c, "username")
		if !ok {
			return
		}
		if !actingOn(c, req.Username) {
			return
		}
		user, err := svc.UpdatePreferences(c.Request.Context(), req.Username, traits)
		if err != nil {
			respondError(c, err)
			return
		}
		invalidateProfile(c, profiles, user.ID)
		c.JSON(http.StatusOK, UserResponse{User: user})
	}
}

// DeleteUserHandler deletes the caller's account, located by username, email or wallet
func DeleteUserHandler(svc *auth.Service, profiles ProfileStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req DeleteUserRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "request body must be a JSON object")
			return
		}
		acting, ok := middleware.CurrentUser(c)
		if !ok {
			respondError(c, domain.ErrTokenInvalid)
			return
		}
		user, err := svc.DeleteUser(c.Request.Context(), auth.DeleteCriteria{
			Username:      req.Username,
			Email:         req.Email,
			WalletAddress: req.WalletAddress,
			ActingUserID:  acting.ID, // Only the caller's own account may go
		})
		if err != nil {
			respondError(c, err)
			return
		}
		invalidateProfile(c, profiles, user.ID)
		c.JSON(http.StatusOK, UserResponse{User: user})
	}
}

// LogoutHandler revokes the presented token
func LogoutHandler(revoker TokenRevoker) gin.HandlerFunc {
	return func(c *gin.Context) {
		v, _ := c.Get(middleware.ClaimsKey)
		claims, ok := v.(*auth.Claims)
		if !ok {
			respondError(c, domain.ErrTokenInvalid)
			return
		}
		if err := revoker.Revoke(c.Request.Context(), claims.ID, claims.UserID, claims.ExpiresAt.Time); err != nil {
			respondError(c, oops.Code("AUTH_LOGOUT_FAILED").With("user_id", claims.UserID).Wrap(err))
			return
		}
		logrus.WithFields(logrus.Fields{"user_id": claims.UserID}).Info("User logged out")
		c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
	}
}

// actingOn rejects requests that target an account other than the caller's
func actingOn(c *gin.Context, username string) bool {
	acting, ok := middleware.CurrentUser(c)
	if !ok {
		respondError(c, domain.ErrTokenInvalid)
		return false
	}
	if acting.Username != domain.NormalizeUsername(username) {
		respondError(c, oops.With("user_id", acting.ID).Wrap(domain.ErrForbidden))
		return false
	}
	return true
}

// invalidateProfile drops the cached profile; a failure only delays freshness by the cache TTL
func invalidateProfile(c *gin.Context, profiles ProfileStore, userID uint) {
	if err := profiles.Invalidate(c.Request.Context(), userID); err != nil {
		logrus.WithFields(logrus.Fields{"user_id": userID, "error": err.Error()}).Warn("Profile cache invalidation failed")
	}
}
