package domain

import (
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/samber/oops"
)

// Username constraints for registered accounts
const (
	MinUsernameLength = 3
	MaxUsernameLength = 30
	MaxPasswordBytes  = 72 // bcrypt ignores anything past 72 bytes
)

// Placeholder identity for auto-provisioned wallet accounts
const (
	WalletUsernamePrefix = "wallet_"
	WalletEmailDomain    = "walletuser.io"
)

var (
	usernameRegex = regexp.MustCompile(`^[a-z][a-z0-9_]*$`) // Lower-cased before matching
	validate      = validator.New()                         // Shared, safe for concurrent use
)

// User Model
type User struct {
	ID            uint    `gorm:"primaryKey" json:"id"`                               // Primary key
	Username      string  `gorm:"size:64;uniqueIndex;not null" json:"username"`       // Unique, lower-cased
	PasswordHash  *string `gorm:"size:255" json:"-"`                                  // Absent for wallet-only accounts
	Email         *string `gorm:"size:255;uniqueIndex" json:"email,omitempty"`        // Unique when set
	WalletAddress *string `gorm:"size:42;uniqueIndex" json:"walletAddress,omitempty"` // Canonical 0x-prefixed lower hex

	// Ten traits in [1,10], stored as columns of the users table
	Preferences `gorm:"embedded"`

	CreatedAt time.Time `json:"createdAt"` // Creation timestamp
	UpdatedAt time.Time `json:"updatedAt"` // Last update timestamp
}

// Fields is a column → value set handed to UserStore.Update
type Fields map[string]any

// HasCredential reports whether the account can still be reached by a password or a wallet
func (u *User) HasCredential() bool {
	return (u.PasswordHash != nil && *u.PasswordHash != "") || (u.WalletAddress != nil && *u.WalletAddress != "")
}

// NormalizeUsername trims and lower-cases a username
func NormalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

// ValidateUsername checks a normalized username chosen at registration.
func ValidateUsername(username string) error {
	switch {
	case username == "":
		return oops.Wrapf(ErrInvalidUsername, "username is required")
	case len(username) < MinUsernameLength:
		return oops.With("min", MinUsernameLength).
			Wrapf(ErrInvalidUsername, "username must be at least %d characters", MinUsernameLength)
	case len(username) > MaxUsernameLength:
		return oops.With("max", MaxUsernameLength).
			Wrapf(ErrInvalidUsername, "username must be at most %d characters", MaxUsernameLength)
	case !usernameRegex.MatchString(username):
		return oops.Wrapf(ErrInvalidUsername, "username must start with a letter and contain only letters, numbers, and underscores")
	}
	return nil
}

// ValidatePassword checks a plaintext password before hashing
func ValidatePassword(password string) error {
	if password == "" {
		return oops.Wrapf(ErrInvalidPassword, "password is required")
	}
	if len(password) > MaxPasswordBytes {
		return oops.With("max", MaxPasswordBytes).
			Wrapf(ErrInvalidPassword, "password must be at most %d bytes", MaxPasswordBytes)
	}
	return nil
}

// NormalizeEmail trims and lower-cases an email address
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidateEmail checks a normalized, user-supplied email. The placeholder
// domain is reserved for auto-provisioned wallet accounts.
func ValidateEmail(email string) error {
	if err := validate.Var(email, "required,email"); err != nil {
		return oops.With("email", email).Wrapf(ErrInvalidEmail, "please enter a valid email")
	}
	if strings.HasSuffix(email, "@"+WalletEmailDomain) {
		return oops.With("email", email).Wrapf(ErrInvalidEmail, "the %s domain is reserved", WalletEmailDomain)
	}
	return nil
}

// NewWalletUser builds the auto-provisioned account for a canonical wallet
// address. Username and email derive from the address so the record is easy
// to find when debugging.
func NewWalletUser(address string) *User {
	body := strings.TrimPrefix(address, "0x")
	username := WalletUsernamePrefix + body
	email := body + "@" + WalletEmailDomain
	return &User{
		Username:      username,
		Email:         &email,
		WalletAddress: &address,
	}
}

// Column names accepted by ApplyFields besides the preference traits
const (
	ColumnEmail         = "email"
	ColumnPasswordHash  = "password_hash"
	ColumnWalletAddress = "wallet_address"
)

// ApplyFields copies a Fields set onto u the way a store update would.
func (u *User) ApplyFields(fields Fields) error {
	for column, value := range fields {
		switch column {
		case ColumnEmail:
			u.Email = stringPtr(value)
		case ColumnPasswordHash:
			u.PasswordHash = stringPtr(value)
		case ColumnWalletAddress:
			u.WalletAddress = stringPtr(value)
		default:
			n, ok := value.(int)
			if !ok || !u.Preferences.setColumn(column, n) {
				return oops.With("column", column).Errorf("unsupported update column %q", column)
			}
		}
	}
	return nil
}

func stringPtr(value any) *string {
	switch v := value.(type) {
	case string:
		return &v
	case *string:
		if v == nil {
			return nil
		}
		s := *v
		return &s
	}
	return nil
}
