package domain

import (
	"errors"

	"github.com/samber/oops"
)

// Store-level failures returned by every UserStore implementation
var (
	ErrNotFound  = errors.New("not found")                   // No record matched the lookup
	ErrDuplicate = errors.New("unique constraint violation") // Username, email or wallet already taken
)

// Codes carried by the authentication-domain failures below
const (
	CodeInvalidCredentials     = "AUTH_INVALID_CREDENTIALS"
	CodeSignatureMismatch      = "AUTH_SIGNATURE_MISMATCH"
	CodeMalformedSignature     = "AUTH_MALFORMED_SIGNATURE"
	CodeTokenInvalid           = "AUTH_TOKEN_INVALID"
	CodeForbidden              = "AUTH_FORBIDDEN"
	CodeUserNotFound           = "USER_NOT_FOUND"
	CodeUserAlreadyExists      = "USER_ALREADY_EXISTS"
	CodeEmailAlreadyExists     = "EMAIL_ALREADY_EXISTS"
	CodeInvalidPreferenceValue = "INVALID_PREFERENCE_VALUE"
	CodeInvalidUsername        = "INVALID_USERNAME"
	CodeInvalidPassword        = "INVALID_PASSWORD"
	CodeInvalidEmail           = "INVALID_EMAIL"
	CodeInvalidWalletAddress   = "INVALID_WALLET_ADDRESS"
	CodeInvalidCriteria        = "INVALID_CRITERIA"
)

// Authentication-domain failures. Call sites wrap these with oops context
// without a new code, so errutil.Code still reports the sentinel's code.
var (
	ErrInvalidCredentials     = oops.Code(CodeInvalidCredentials).Errorf("invalid username or password")
	ErrSignatureMismatch      = oops.Code(CodeSignatureMismatch).Errorf("signature does not match wallet address")
	ErrMalformedSignature     = oops.Code(CodeMalformedSignature).Errorf("signature cannot be decoded")
	ErrTokenInvalid           = oops.Code(CodeTokenInvalid).Errorf("invalid or expired token")
	ErrForbidden              = oops.Code(CodeForbidden).Errorf("token does not grant access to this account")
	ErrUserNotFound           = oops.Code(CodeUserNotFound).Errorf("user not found")
	ErrUserAlreadyExists      = oops.Code(CodeUserAlreadyExists).Errorf("user already exists")
	ErrEmailAlreadyExists     = oops.Code(CodeEmailAlreadyExists).Errorf("email already exists")
	ErrInvalidPreferenceValue = oops.Code(CodeInvalidPreferenceValue).Errorf("invalid preference value")
	ErrInvalidUsername        = oops.Code(CodeInvalidUsername).Errorf("invalid username")
	ErrInvalidPassword        = oops.Code(CodeInvalidPassword).Errorf("invalid password")
	ErrInvalidEmail           = oops.Code(CodeInvalidEmail).Errorf("invalid email")
	ErrInvalidWalletAddress   = oops.Code(CodeInvalidWalletAddress).Errorf("invalid wallet address")
	ErrInvalidCriteria        = oops.Code(CodeInvalidCriteria).Errorf("at least one of username, email or walletAddress is required")
)
