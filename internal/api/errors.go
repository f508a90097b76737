package api

import (
	"net/http" // HTTP status codes

	"wallet_auth/internal/domain"  // Domain failure codes
	"wallet_auth/internal/errutil" // Error classification

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Logging
)

// errorKind is the HTTP status and stable client code for a domain failure code
type errorKind struct {
	status int
	code   string
}

var errorKinds = map[string]errorKind{
	domain.CodeInvalidCredentials:     {http.StatusUnauthorized, "invalid_credentials"},
	domain.CodeSignatureMismatch:      {http.StatusUnauthorized, "signature_mismatch"},
	domain.CodeMalformedSignature:     {http.StatusUnauthorized, "signature_mismatch"},
	domain.CodeTokenInvalid:           {http.StatusUnauthorized, "token_invalid"},
	domain.CodeForbidden:              {http.StatusForbidden, "forbidden"},
	domain.CodeUserNotFound:           {http.StatusNotFound, "user_not_found"},
	domain.CodeUserAlreadyExists:      {http.StatusConflict, "user_already_exists"},
	domain.CodeEmailAlreadyExists:     {http.StatusConflict, "email_already_exists"},
	domain.CodeInvalidPreferenceValue: {http.StatusBadRequest, "invalid_preference_value"},
	domain.CodeInvalidUsername:        {http.StatusBadRequest, "invalid_username"},
	domain.CodeInvalidPassword:        {http.StatusBadRequest, "invalid_password"},
	domain.CodeInvalidEmail:           {http.StatusBadRequest, "invalid_email"},
	domain.CodeInvalidWalletAddress:   {http.StatusBadRequest, "invalid_wallet_address"},
	domain.CodeInvalidCriteria:        {http.StatusBadRequest, "invalid_criteria"},
}

// Messages for failures whose wrapped text may carry internals or enumerate accounts
var fixedMessages = map[string]string{
	"invalid_credentials":  "Invalid credentials",
	"signature_mismatch":   "Signature verification failed",
	"token_invalid":        "Invalid or expired token",
	"forbidden":            "Token does not grant access to this account",
	"user_not_found":       "User not found",
	"user_already_exists":  "User already exists",
	"email_already_exists": "Email already exists",
}

// classify returns the HTTP status and client code for err
func classify(err error) (int, string) {
	if k, ok := errorKinds[errutil.Code(err)]; ok {
		return k.status, k.code
	}
	return http.StatusInternalServerError, "internal_error"
}

// respondError writes the client-visible form of err. Unexpected faults are
// logged with their oops context and reported as a generic internal error.
func respondError(c *gin.Context, err error) {
	status, code := classify(err)
	if status == http.StatusInternalServerError {
		errutil.LogError(logrus.StandardLogger(), "Unexpected failure", err, logrus.Fields{"path": c.FullPath()})
		c.JSON(status, gin.H{"error": "Internal server error", "code": code})
		return
	}
	msg, ok := fixedMessages[code]
	if !ok {
		msg = err.Error() // Validation failures describe what to fix
	}
	c.JSON(status, gin.H{"error": msg, "code": code})
}

// badRequest reports a malformed request body
func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg, "code": "bad_request"})
}
