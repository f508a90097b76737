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

// Resolver turns a Credential into a canonical user.
type Resolver struct {
	users     UserStore
	hasher    PasswordHasher
	verifier  *SignatureVerifier
	log       logrus.FieldLogger
	metrics   *metrics.Metrics
	dummyHash string
}

// NewResolver creates a Resolver.
func NewResolver(users UserStore, hasher PasswordHasher, verifier *SignatureVerifier, log logrus.FieldLogger, m *metrics.Metrics) (*Resolver, error) {
	if users == nil {
		return nil, oops.Errorf("user store is required")
	}
	if hasher == nil {
		return nil, oops.Errorf("password hasher is required")
	}
	if verifier == nil {
		return nil, oops.Errorf("signature verifier is required")
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	// Compared against when the username is unknown so both failure paths do
	// the same amount of work.
	dummy, err := hasher.Hash("not-a-real-password")
	if err != nil {
		return nil, oops.Code("AUTH_RESOLVER_INIT").Wrap(err)
	}
	return &Resolver{users: users, hasher: hasher, verifier: verifier, log: log, metrics: m, dummyHash: dummy}, nil
}

// Resolve dispatches on the credential kind.
func (r *Resolver) Resolve(ctx context.Context, cred domain.Credential) (*domain.User, error) {
	switch c := cred.(type) {
	case domain.PasswordCredential:
		return r.ResolveByPassword(ctx, c.Username, c.Password)
	case domain.WalletCredential:
		return r.ResolveByWallet(ctx, c.Address, c.Signature)
	default:
		return nil, oops.Code("AUTH_UNSUPPORTED_CREDENTIAL").Errorf("unsupported credential %T", cred)
	}
}

// ResolveByPassword authenticates a username/password pair. Unknown users,
// wallet-only users and wrong passwords all return the same
// domain.ErrInvalidCredentials.
func (r *Resolver) ResolveByPassword(ctx context.Context, username, password string) (*domain.User, error) {
	user, err := r.users.FindByUsername(ctx, domain.NormalizeUsername(username))
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, oops.Code("AUTH_LOGIN_FAILED").
			With("operation", "find user by username").
			Wrap(err)
	}

	target := r.dummyHash
	exists := err == nil && user.PasswordHash != nil && *user.PasswordHash != ""
	if exists {
		target = *user.PasswordHash
	}

	valid, verifyErr := r.hasher.Verify(password, target)
	if verifyErr != nil {
		if !exists {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, oops.Code("AUTH_LOGIN_FAILED").
			With("operation", "verify password").
			Wrap(verifyErr)
	}
	if !exists || !valid {
		return nil, domain.ErrInvalidCredentials
	}
	return user, nil
}

// ResolveByWallet authenticates a wallet address by its signature over the
// login message, creating the account on first use. Nothing is read from or
// written to the store until the signature checks out.
func (r *Resolver) ResolveByWallet(ctx context.Context, address, signature string) (*domain.User, error) {
	canonical, err := NormalizeAddress(address)
	if err != nil {
		return nil, err
	}

	if _, err := r.verifier.Verify(canonical, signature); err != nil {
		if errutil.Code(err) == domain.CodeMalformedSignature {
			r.log.WithFields(logrus.Fields{"address": canonical, "error": err.Error()}).Warn("Malformed wallet signature")
			return nil, oops.With("reason", "malformed signature").Wrap(domain.ErrSignatureMismatch)
		}
		return nil, err
	}

	user, err := r.users.FindByWalletAddress(ctx, canonical)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, oops.Code("AUTH_WALLET_LOGIN_FAILED").
			With("operation", "find user by wallet").
			Wrap(err)
	}
	return r.provisionWallet(ctx, canonical)
}

// provisionWallet creates the placeholder account. When a concurrent login
// for the same address wins the insert, the unique index rejects ours and the
// winner's record is read back instead.
func (r *Resolver) provisionWallet(ctx context.Context, address string) (*domain.User, error) {
	user := domain.NewWalletUser(address)
	err := r.users.Create(ctx, user)
	if err == nil {
		r.metrics.RecordProvisioned()
		r.log.WithFields(logrus.Fields{
			"user_id":  user.ID,
			"address":  address,
			"username": user.Username,
		}).Info("Wallet account provisioned")
		return user, nil
	}
	if !errors.Is(err, domain.ErrDuplicate) {
		return nil, oops.Code("AUTH_WALLET_PROVISION_FAILED").
			With("operation", "create wallet user").
			With("address", address).
			Wrap(err)
	}

	r.metrics.RecordProvisionConflict()
	existing, err := r.users.FindByWalletAddress(ctx, address)
	if err != nil {
		return nil, oops.Code("AUTH_WALLET_PROVISION_FAILED").
			With("operation", "re-read wallet user after conflict").
			With("address", address).
			Wrap(err)
	}
	return existing, nil
}
