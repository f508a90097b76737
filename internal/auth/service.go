package auth

import (
	"context"
	"errors"

	"github.com/samber/oops"
	"github.com/sirupsen/logrus"

	"wallet_auth/internal/domain"
	"wallet_auth/internal/errutil"
	"wallet_auth/internal/metrics"
)

// Service orchestrates login, registration and account mutation.
type Service struct {
	users    UserStore
	hasher   PasswordHasher
	resolver *Resolver
	tokens   *TokenIssuer
	log      logrus.FieldLogger
	metrics  *metrics.Metrics
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger; the default is logrus.StandardLogger().
func WithLogger(log logrus.FieldLogger) Option {
	return func(s *Service) {
		if log != nil {
			s.log = log
		}
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WalletSession is the result of a wallet login.
type WalletSession struct {
	Token string       `json:"token"`
	User  *domain.User `json:"user"`
}

// RegisterInput carries registration fields. Preferences holds raw decoded
// JSON values keyed by trait name.
type RegisterInput struct {
	Username    string
	Password    string
	Email       *string
	Preferences map[string]any
}

// DeleteCriteria identifies the account to delete. The first non-empty of
// Username, Email, WalletAddress is used. A non-zero ActingUserID restricts
// deletion to that user's own account.
type DeleteCriteria struct {
	Username      string
	Email         string
	WalletAddress string
	ActingUserID  uint
}

// NewService creates a Service.
func NewService(users UserStore, hasher PasswordHasher, verifier *SignatureVerifier, tokens *TokenIssuer, opts ...Option) (*Service, error) {
	if tokens == nil {
		return nil, oops.Errorf("token issuer is required")
	}
	s := &Service{
		users:  users,
		hasher: hasher,
		tokens: tokens,
		log:    logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	resolver, err := NewResolver(users, hasher, verifier, s.log, s.metrics)
	if err != nil {
		return nil, err
	}
	s.resolver = resolver
	return s, nil
}

// Tokens returns the issuer used for session tokens.
func (s *Service) Tokens() *TokenIssuer {
	return s.tokens
}

// LoginMessage returns the challenge a wallet signs for Web3Login.
func (s *Service) LoginMessage() string {
	return s.resolver.verifier.Message()
}

// Login authenticates a username/password pair and returns a session token.
func (s *Service) Login(ctx context.Context, username, password string) (string, error) {
	user, err := s.resolver.Resolve(ctx, domain.PasswordCredential{Username: username, Password: password})
	if err != nil {
		s.recordFailure(metrics.MethodPassword, err)
		return "", err
	}

	s.upgradeHash(ctx, user, password)

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		s.metrics.RecordLogin(metrics.MethodPassword, metrics.OutcomeError)
		return "", err
	}
	s.metrics.RecordLogin(metrics.MethodPassword, metrics.OutcomeSuccess)
	s.log.WithFields(logrus.Fields{"user_id": user.ID, "method": metrics.MethodPassword}).Info("User logged in")
	return token, nil
}

// Web3Login authenticates a wallet signature, provisioning the account on
// first use, and returns a token carrying the wallet address.
func (s *Service) Web3Login(ctx context.Context, address, signature string) (*WalletSession, error) {
	user, err := s.resolver.Resolve(ctx, domain.WalletCredential{Address: address, Signature: signature})
	if err != nil {
		s.recordFailure(metrics.MethodWallet, err)
		return nil, err
	}

	var wallet string
	if user.WalletAddress != nil {
		wallet = *user.WalletAddress
	}
	token, err := s.tokens.Issue(user.ID, WithWalletAddress(wallet))
	if err != nil {
		s.metrics.RecordLogin(metrics.MethodWallet, metrics.OutcomeError)
		return nil, err
	}
	s.metrics.RecordLogin(metrics.MethodWallet, metrics.OutcomeSuccess)
	s.log.WithFields(logrus.Fields{"user_id": user.ID, "method": metrics.MethodWallet}).Info("User logged in")
	return &WalletSession{Token: token, User: user}, nil
}

// Register creates a password account. It never links or creates wallet accounts.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*domain.User, error) {
	username := domain.NormalizeUsername(in.Username)
	if err := domain.ValidateUsername(username); err != nil {
		return nil, err
	}
	if err := domain.ValidatePassword(in.Password); err != nil {
		return nil, err
	}

	var email *string
	if in.Email != nil && *in.Email != "" {
		normalized := domain.NormalizeEmail(*in.Email)
		if err := domain.ValidateEmail(normalized); err != nil {
			return nil, err
		}
		email = &normalized
	}

	prefs, err := domain.ParsePreferences(in.Preferences)
	if err != nil {
		return nil, err
	}

	if err := s.ensureAbsent(ctx, "username", username, s.users.FindByUsername); err != nil {
		return nil, err
	}
	if email != nil {
		if err := s.ensureAbsent(ctx, "email", *email, s.users.FindByEmail); err != nil {
			return nil, err
		}
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, oops.Code("AUTH_REGISTER_FAILED").With("operation", "hash password").Wrap(err)
	}

	user := &domain.User{
		Username:     username,
		PasswordHash: &hash,
		Email:        email,
		Preferences:  prefs,
	}
	if !user.HasCredential() {
		return nil, oops.Code("AUTH_REGISTER_FAILED").Errorf("account has no credential")
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, domain.ErrDuplicate) {
			return nil, oops.With("username", username).Wrap(domain.ErrUserAlreadyExists)
		}
		return nil, oops.Code("AUTH_REGISTER_FAILED").With("operation", "create user").Wrap(err)
	}

	s.metrics.RecordRegistration()
	s.log.WithFields(logrus.Fields{"user_id": user.ID, "username": user.Username}).Info("User registered")
	return user, nil
}

// UpdateEmail replaces the user's email.
func (s *Service) UpdateEmail(ctx context.Context, username, newEmail string) (*domain.User, error) {
	email := domain.NormalizeEmail(newEmail)
	if err := domain.ValidateEmail(email); err != nil {
		return nil, err
	}

	user, err := s.findUser(ctx, username)
	if err != nil {
		return nil, err
	}

	other, err := s.users.FindByEmail(ctx, email)
	switch {
	case err == nil && other.ID != user.ID:
		return nil, oops.With("email", email).Wrap(domain.ErrEmailAlreadyExists)
	case err != nil && !errors.Is(err, domain.ErrNotFound):
		return nil, oops.Code("AUTH_UPDATE_FAILED").With("operation", "find user by email").Wrap(err)
	}

	updated, err := s.users.Update(ctx, user.ID, domain.Fields{domain.ColumnEmail: email})
	if err != nil {
		if errors.Is(err, domain.ErrDuplicate) {
			return nil, oops.With("email", email).Wrap(domain.ErrEmailAlreadyExists)
		}
		return nil, s.updateError(user, err)
	}
	s.log.WithFields(logrus.Fields{"user_id": user.ID, "field": "email"}).Info("User updated")
	return updated, nil
}

// UpdatePassword replaces the user's password hash.
func (s *Service) UpdatePassword(ctx context.Context, username, newPassword string) (*domain.User, error) {
	if err := domain.ValidatePassword(newPassword); err != nil {
		return nil, err
	}

	user, err := s.findUser(ctx, username)
	if err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return nil, oops.Code("AUTH_UPDATE_FAILED").With("operation", "hash password").Wrap(err)
	}
	updated, err := s.users.Update(ctx, user.ID, domain.Fields{domain.ColumnPasswordHash: hash})
	if err != nil {
		return nil, s.updateError(user, err)
	}
	s.log.WithFields(logrus.Fields{"user_id": user.ID, "field": "password"}).Info("User updated")
	return updated, nil
}

// UpdatePreferences validates every supplied trait and writes them together.
// A single invalid trait rejects the update and nothing is written.
func (s *Service) UpdatePreferences(ctx context.Context, username string, raw map[string]any) (*domain.User, error) {
	prefs, err := domain.ParsePreferences(raw)
	if err != nil {
		return nil, err
	}

	user, err := s.findUser(ctx, username)
	if err != nil {
		return nil, err
	}

	fields := prefs.Fields()
	if len(fields) == 0 {
		return user, nil
	}
	updated, err := s.users.Update(ctx, user.ID, fields)
	if err != nil {
		return nil, s.updateError(user, err)
	}
	s.log.WithFields(logrus.Fields{"user_id": user.ID, "field": "preferences", "count": len(fields)}).Info("User updated")
	return updated, nil
}

// DeleteUser removes the account matching criteria. Deleting an account that
// no longer exists fails with domain.ErrUserNotFound.
func (s *Service) DeleteUser(ctx context.Context, criteria DeleteCriteria) (*domain.User, error) {
	user, err := s.findByCriteria(ctx, criteria)
	if err != nil {
		return nil, err
	}
	if criteria.ActingUserID != 0 && criteria.ActingUserID != user.ID {
		return nil, oops.With("user_id", user.ID).With("acting_user_id", criteria.ActingUserID).Wrap(domain.ErrForbidden)
	}

	deleted, err := s.users.Delete(ctx, user.ID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, oops.Code("AUTH_DELETE_FAILED").With("user_id", user.ID).Wrap(err)
	}
	if !deleted {
		return nil, oops.With("user_id", user.ID).Wrap(domain.ErrUserNotFound)
	}
	s.log.WithFields(logrus.Fields{"user_id": user.ID}).Info("User deleted")
	return user, nil
}

// UserByID returns the user with the given ID.
func (s *Service) UserByID(ctx context.Context, id uint) (*domain.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, oops.With("user_id", id).Wrap(domain.ErrUserNotFound)
		}
		return nil, oops.Code("AUTH_LOOKUP_FAILED").With("user_id", id).Wrap(err)
	}
	return user, nil
}

func (s *Service) findUser(ctx context.Context, username string) (*domain.User, error) {
	username = domain.NormalizeUsername(username)
	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, oops.With("username", username).Wrap(domain.ErrUserNotFound)
		}
		return nil, oops.Code("AUTH_LOOKUP_FAILED").With("username", username).Wrap(err)
	}
	return user, nil
}

func (s *Service) findByCriteria(ctx context.Context, c DeleteCriteria) (*domain.User, error) {
	var (
		user *domain.User
		err  error
	)
	switch {
	case c.Username != "":
		return s.findUser(ctx, c.Username)
	case c.Email != "":
		user, err = s.users.FindByEmail(ctx, domain.NormalizeEmail(c.Email))
	case c.WalletAddress != "":
		address, normErr := NormalizeAddress(c.WalletAddress)
		if normErr != nil {
			return nil, normErr
		}
		user, err = s.users.FindByWalletAddress(ctx, address)
	default:
		return nil, domain.ErrInvalidCriteria
	}
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, oops.Code("AUTH_LOOKUP_FAILED").Wrap(err)
	}
	return user, nil
}

func (s *Service) ensureAbsent(ctx context.Context, field, value string, find func(context.Context, string) (*domain.User, error)) error {
	_, err := find(ctx, value)
	switch {
	case err == nil:
		return oops.With(field, value).Wrap(domain.ErrUserAlreadyExists)
	case errors.Is(err, domain.ErrNotFound):
		return nil
	default:
		return oops.Code("AUTH_REGISTER_FAILED").With("operation", "find user by "+field).Wrap(err)
	}
}

func (s *Service) updateError(user *domain.User, err error) error {
	if errors.Is(err, domain.ErrNotFound) {
		return oops.With("user_id", user.ID).Wrap(domain.ErrUserNotFound)
	}
	return oops.Code("AUTH_UPDATE_FAILED").With("user_id", user.ID).Wrap(err)
}

// upgradeHash rehashes with the current cost after a successful login. Login
// succeeds regardless of the outcome.
func (s *Service) upgradeHash(ctx context.Context, user *domain.User, password string) {
	if user.PasswordHash == nil || !s.hasher.NeedsUpgrade(*user.PasswordHash) {
		return
	}
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return
	}
	if _, err := s.users.Update(ctx, user.ID, domain.Fields{domain.ColumnPasswordHash: hash}); err != nil {
		s.log.WithFields(logrus.Fields{"user_id": user.ID, "error": err.Error()}).Warn("Password hash upgrade failed")
	}
}

func (s *Service) recordFailure(method string, err error) {
	if errutil.HasCode(err, domain.CodeInvalidCredentials, domain.CodeSignatureMismatch, domain.CodeInvalidWalletAddress) {
		s.metrics.RecordLogin(method, metrics.OutcomeRejected)
		return
	}
	s.metrics.RecordLogin(method, metrics.OutcomeError)
	s.log.WithFields(logrus.Fields{"method": method, "error": err.Error()}).Error("Login failed")
}
