package api

import (
	"net/http" // HTTP status codes

	"wallet_auth/internal/auth"   // Authentication service
	"wallet_auth/internal/domain" // Importing domain models

	"github.com/gin-gonic/gin"         // Gin web framework
	"github.com/gin-gonic/gin/binding" // Re-readable body binding
)

// Request struct for login
type LoginRequest struct {
	Username string `json:"username" binding:"required"` // Username must be provided
	Password string `json:"password" binding:"required"` // Password must be provided
}

// Request struct for wallet login
type Web3LoginRequest struct {
	Address   string `json:"address" binding:"required"`   // Claimed wallet address
	Signature string `json:"signature" binding:"required"` // Signature over the login message
}

// Request struct for registration. Preference traits are read from the same
// body as top-level fields.
type RegisterRequest struct {
	Username string  `json:"username" binding:"required"` // Username must be provided
	Password string  `json:"password" binding:"required"` // Password must be provided
	Email    *string `json:"email"`                       // Optional email
}

// Response struct for password login
type AuthResponse struct {
	Token string `json:"token"` // JWT token
}

// Response struct for wallet login
type Web3LoginResponse struct {
	Token string       `json:"token"` // JWT token carrying the wallet address
	User  *domain.User `json:"user"`  // Resolved or provisioned account
}

// Response struct for the wallet login challenge
type MessageResponse struct {
	Message string `json:"message"` // Exact text the wallet must sign
}

// Response struct for endpoints returning an account
type UserResponse struct {
	User *domain.User `json:"user"`
}

// registerFields are the non-trait keys of a registration body
var registerFields = []string{"username", "password", "email"}

// LoginMessageHandler returns the message wallets sign before calling web3login
func LoginMessageHandler(svc *auth.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, MessageResponse{Message: svc.LoginMessage()})
	}
}

// LoginHandler authenticates a user and returns a JWT token
func LoginHandler(svc *auth.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req LoginRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			// If binding fails, return bad request
			badRequest(c, "username and password are required")
			return
		}
		token, err := svc.Login(c.Request.Context(), req.Username, req.Password)
		if err != nil {
			respondError(c, err) // Unknown user and wrong password look the same
			return
		}
		// Return the token in the response
		c.JSON(http.StatusOK, AuthResponse{Token: token})
	}
}

// Web3LoginHandler authenticates a wallet signature, creating the account on first login
func Web3LoginHandler(svc *auth.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req Web3LoginRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			// If binding fails, return bad request
			badRequest(c, "address and signature are required")
			return
		}
		session, err := svc.Web3Login(c.Request.Context(), req.Address, req.Signature)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, Web3LoginResponse{Token: session.Token, User: session.User})
	}
}

// RegisterHandler creates a password account with optional email and preferences
func RegisterHandler(svc *auth.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req RegisterRequest // Bind JSON request to struct
		if err := c.ShouldBindBodyWith(&req, binding.JSON); err != nil {
			// If binding fails, return bad request
			badRequest(c, "username and password are required")
			return
		}
		traits, ok := bindTraits(c, registerFields...)
		if !ok {
			return
		}
		user, err := svc.Register(c.Request.Context(), auth.RegisterInput{
			Username:    req.Username,
			Password:    req.Password,
			Email:       req.Email,
			Preferences: traits,
		})
		if err != nil {
			respondError(c, err)
			return
		}
		// Return the created account
		c.JSON(http.StatusCreated, UserResponse{User: user})
	}
}

// bindTraits decodes the body a second time as a map and drops the named
// non-trait keys. Whatever remains is validated as preference traits.
func bindTraits(c *gin.Context, skip ...string) (map[string]any, bool) {
	var raw map[string]any
	if err := c.ShouldBindBodyWith(&raw, binding.JSON); err != nil {
		badRequest(c, "request body must be a JSON object")
		return nil, false
	}
	for _, key := range skip {
		delete(raw, key)
	}
	return raw, true
}
