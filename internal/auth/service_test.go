package auth_test

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"wallet_auth/internal/auth"
	"wallet_auth/internal/domain"
	"wallet_auth/internal/errutil"
	"wallet_auth/internal/metrics"
	"wallet_auth/internal/store/memstore"
)

type serviceFixture struct {
	svc     *auth.Service
	store   *memstore.Store
	metrics *metrics.Metrics
	hook    *test.Hook
}

func newService(t *testing.T) serviceFixture {
	t.Helper()
	store := memstore.New()
	m := metrics.New(prometheus.NewRegistry())
	log, hook := test.NewNullLogger()
	tokens, err := auth.NewTokenIssuer(testSecret, "wallet_auth", time.Hour)
	require.NoError(t, err)

	svc, err := auth.NewService(store, auth.NewBcryptHasher(bcrypt.MinCost), auth.NewSignatureVerifier(""), tokens,
		auth.WithLogger(log), auth.WithMetrics(m))
	require.NoError(t, err)
	return serviceFixture{svc: svc, store: store, metrics: m, hook: hook}
}

func (f serviceFixture) register(t *testing.T, username, password string) *domain.User {
	t.Helper()
	user, err := f.svc.Register(context.Background(), auth.RegisterInput{Username: username, Password: password})
	require.NoError(t, err)
	return user
}

func TestNewService_RequiresTokenIssuer(t *testing.T) {
	_, err := auth.NewService(memstore.New(), auth.NewBcryptHasher(bcrypt.MinCost), auth.NewSignatureVerifier(""), nil)
	assert.Error(t, err)
}

func TestService_RegisterAndLogin(t *testing.T) {
	ctx := context.Background()
	f := newService(t)

	user := f.register(t, "alice", "p1")
	assert.Equal(t, "alice", user.Username)
	assert.NotZero(t, user.ID)
	require.NotNil(t, user.PasswordHash)
	assert.NotEqual(t, "p1", *user.PasswordHash)

	token, err := f.svc.Login(ctx, "alice", "p1")
	require.NoError(t, err)
	claims, err := f.svc.Tokens().Parse(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Empty(t, claims.WalletAddress)

	assert.Equal(t, float64(1), testutil.ToFloat64(f.metrics.Registrations))
	assert.Equal(t, float64(1), testutil.ToFloat64(f.metrics.LoginsTotal.WithLabelValues(metrics.MethodPassword, metrics.OutcomeSuccess)))
}

func TestService_LoginFailuresAreIndistinguishable(t *testing.T) {
	ctx := context.Background()
	f := newService(t)
	f.register(t, "alice", "p1")

	_, errUnknown := f.svc.Login(ctx, "bob", "p1")
	_, errWrong := f.svc.Login(ctx, "alice", "nope")

	errutil.AssertErrorCode(t, errUnknown, domain.CodeInvalidCredentials)
	errutil.AssertErrorCode(t, errWrong, domain.CodeInvalidCredentials)
	assert.Equal(t, errUnknown.Error(), errWrong.Error())
	assert.Equal(t, float64(2), testutil.ToFloat64(f.metrics.LoginsTotal.WithLabelValues(metrics.MethodPassword, metrics.OutcomeRejected)))
}

func TestService_Register(t *testing.T) {
	ctx := context.Background()
	email := func(s string) *string { return &s }

	tests := []struct {
		name    string
		input   auth.RegisterInput
		wantCode string
	}{
		{"invalid username", auth.RegisterInput{Username: "a!", Password: "p1"}, domain.CodeInvalidUsername},
		{"empty password", auth.RegisterInput{Username: "carol", Password: ""}, domain.CodeInvalidPassword},
		{"invalid email", auth.RegisterInput{Username: "carol", Password: "p1", Email: email("nope")}, domain.CodeInvalidEmail},
		{"reserved email domain", auth.RegisterInput{Username: "carol", Password: "p1", Email: email("x@walletuser.io")}, domain.CodeInvalidEmail},
		{"bad preference", auth.RegisterInput{Username: "carol", Password: "p1", Preferences: map[string]any{"riskAversion": float64(0)}}, domain.CodeInvalidPreferenceValue},
		{"duplicate username", auth.RegisterInput{Username: "Alice", Password: "p2"}, domain.CodeUserAlreadyExists},
		{"duplicate email", auth.RegisterInput{Username: "dave", Password: "p2", Email: email("A@B.io")}, domain.CodeUserAlreadyExists},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newService(t)
			_, err := f.svc.Register(ctx, auth.RegisterInput{Username: "alice", Password: "p1", Email: email("a@b.io")})
			require.NoError(t, err)

			user, err := f.svc.Register(ctx, tt.input)
			assert.Nil(t, user)
			errutil.AssertErrorCode(t, err, tt.wantCode)
			assert.Equal(t, 1, f.store.Len())
		})
	}
}

func TestService_RegisterWithEmailAndPreferences(t *testing.T) {
	f := newService(t)
	email := " Carol@Example.COM "

	user, err := f.svc.Register(context.Background(), auth.RegisterInput{
		Username:    "carol",
		Password:    "p1",
		Email:       &email,
		Preferences: map[string]any{"riskAversion": float64(3), "growthFocus": float64(8)},
	})
	require.NoError(t, err)
	require.NotNil(t, user.Email)
	assert.Equal(t, "carol@example.com", *user.Email)
	assert.Equal(t, 3, *user.RiskAversion)
	assert.Equal(t, 8, *user.GrowthFocus)
	assert.Nil(t, user.WalletAddress)
}

func TestService_Web3Login(t *testing.T) {
	ctx := context.Background()
	f := newService(t)
	w := newWallet(t)
	sig := w.sign(t, auth.DefaultLoginMessage)
	canonical := strings.ToLower(w.address)

	first, err := f.svc.Web3Login(ctx, w.address, sig)
	require.NoError(t, err)
	assert.Equal(t, "wallet_"+canonical[2:], first.User.Username)
	assert.Equal(t, canonical, *first.User.WalletAddress)

	claims, err := f.svc.Tokens().Parse(first.Token)
	require.NoError(t, err)
	assert.Equal(t, first.User.ID, claims.UserID)
	assert.Equal(t, canonical, claims.WalletAddress)

	// Same wallet, different case: same account, no new row
	second, err := f.svc.Web3Login(ctx, canonical, sig)
	require.NoError(t, err)
	assert.Equal(t, first.User.ID, second.User.ID)
	assert.Equal(t, 1, f.store.Len())
	assert.Equal(t, float64(1), testutil.ToFloat64(f.metrics.AccountsProvisioned))
}

func TestService_Web3LoginRejections(t *testing.T) {
	ctx := context.Background()
	f := newService(t)
	w := newWallet(t)
	sig := w.sign(t, auth.DefaultLoginMessage)

	_, err := f.svc.Web3Login(ctx, newWallet(t).address, sig)
	errutil.AssertErrorCode(t, err, domain.CodeSignatureMismatch)

	_, err = f.svc.Web3Login(ctx, "0x1234", sig)
	errutil.AssertErrorCode(t, err, domain.CodeInvalidWalletAddress)
	errutil.AssertNotErrorCode(t, err, domain.CodeSignatureMismatch)

	_, err = f.svc.Web3Login(ctx, w.address, "0xdeadbeef")
	errutil.AssertErrorCode(t, err, domain.CodeSignatureMismatch)

	assert.Zero(t, f.store.Len())
	assert.Equal(t, float64(3), testutil.ToFloat64(f.metrics.LoginsTotal.WithLabelValues(metrics.MethodWallet, metrics.OutcomeRejected)))
}

func TestService_ConcurrentFirstWalletLogins(t *testing.T) {
	ctx := context.Background()
	f := newService(t)
	w := newWallet(t)
	sig := w.sign(t, auth.DefaultLoginMessage)

	const n = 16
	var wg sync.WaitGroup
	ids := make([]uint, n)
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			session, err := f.svc.Web3Login(ctx, w.address, sig)
			errs[i] = err
			if err == nil {
				ids[i] = session.User.ID
			}
		}(i)
	}
	wg.Wait()

	for i := 0; i < n; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, ids[0], ids[i])
	}
	assert.Equal(t, 1, f.store.Len())
	assert.Equal(t, 1, f.store.Creates())
}

func TestService_WalletAccountCannotPasswordLogin(t *testing.T) {
	ctx := context.Background()
	f := newService(t)
	w := newWallet(t)

	session, err := f.svc.Web3Login(ctx, w.address, w.sign(t, auth.DefaultLoginMessage))
	require.NoError(t, err)

	_, err = f.svc.Login(ctx, session.User.Username, "")
	errutil.AssertErrorCode(t, err, domain.CodeInvalidCredentials)
	_, err = f.svc.Login(ctx, session.User.Username, "anything")
	errutil.AssertErrorCode(t, err, domain.CodeInvalidCredentials)
}

func TestService_UpdateEmail(t *testing.T) {
	ctx := context.Background()
	f := newService(t)
	f.register(t, "alice", "p1")
	f.register(t, "bob", "p1")

	user, err := f.svc.UpdateEmail(ctx, "alice", "Alice@Example.com")
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", *user.Email)

	// Setting the same email again is not a conflict with oneself
	_, err = f.svc.UpdateEmail(ctx, "alice", "alice@example.com")
	assert.NoError(t, err)

	_, err = f.svc.UpdateEmail(ctx, "bob", "alice@example.com")
	errutil.AssertErrorCode(t, err, domain.CodeEmailAlreadyExists)
	errutil.AssertNotErrorCode(t, err, domain.CodeUserNotFound)

	_, err = f.svc.UpdateEmail(ctx, "bob", "not-an-email")
	errutil.AssertErrorCode(t, err, domain.CodeInvalidEmail)

	_, err = f.svc.UpdateEmail(ctx, "nobody", "n@b.io")
	errutil.AssertErrorCode(t, err, domain.CodeUserNotFound)
	errutil.AssertNotErrorCode(t, err, domain.CodeEmailAlreadyExists)
}

func TestService_UpdatePassword(t *testing.T) {
	ctx := context.Background()
	f := newService(t)
	f.register(t, "alice", "p1")

	_, err := f.svc.UpdatePassword(ctx, "alice", "p2")
	require.NoError(t, err)

	_, err = f.svc.Login(ctx, "alice", "p1")
	errutil.AssertErrorCode(t, err, domain.CodeInvalidCredentials)
	_, err = f.svc.Login(ctx, "alice", "p2")
	assert.NoError(t, err)

	_, err = f.svc.UpdatePassword(ctx, "alice", "")
	errutil.AssertErrorCode(t, err, domain.CodeInvalidPassword)
	_, err = f.svc.UpdatePassword(ctx, "nobody", "p3")
	errutil.AssertErrorCode(t, err, domain.CodeUserNotFound)
}

func TestService_UpdatePreferencesIsAtomic(t *testing.T) {
	ctx := context.Background()
	f := newService(t)
	f.register(t, "alice", "p1")

	user, err := f.svc.UpdatePreferences(ctx, "alice", map[string]any{"riskAversion": float64(4), "holdingPatience": float64(9)})
	require.NoError(t, err)
	assert.Equal(t, 4, *user.RiskAversion)
	assert.Equal(t, 9, *user.HoldingPatience)

	_, err = f.svc.UpdatePreferences(ctx, "alice", map[string]any{"riskAversion": float64(6), "growthFocus": float64(11)})
	errutil.AssertErrorCode(t, err, domain.CodeInvalidPreferenceValue)

	current, err := f.svc.UserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, *current.RiskAversion, "no trait is written when any is invalid")
	assert.Nil(t, current.GrowthFocus)

	unchanged, err := f.svc.UpdatePreferences(ctx, "alice", map[string]any{})
	require.NoError(t, err)
	assert.Equal(t, 4, *unchanged.RiskAversion)

	_, err = f.svc.UpdatePreferences(ctx, "nobody", map[string]any{"riskAversion": float64(2)})
	errutil.AssertErrorCode(t, err, domain.CodeUserNotFound)
}

func TestService_DeleteUser(t *testing.T) {
	ctx := context.Background()
	f := newService(t)
	alice := f.register(t, "alice", "p1")
	bob := f.register(t, "bob", "p1")

	_, err := f.svc.DeleteUser(ctx, auth.DeleteCriteria{Username: "alice", ActingUserID: bob.ID})
	errutil.AssertErrorCode(t, err, domain.CodeForbidden)

	deleted, err := f.svc.DeleteUser(ctx, auth.DeleteCriteria{Username: "alice", ActingUserID: alice.ID})
	require.NoError(t, err)
	assert.Equal(t, alice.ID, deleted.ID)

	_, err = f.svc.DeleteUser(ctx, auth.DeleteCriteria{Username: "alice", ActingUserID: alice.ID})
	errutil.AssertErrorCode(t, err, domain.CodeUserNotFound)

	_, err = f.svc.Login(ctx, "alice", "p1")
	errutil.AssertErrorCode(t, err, domain.CodeInvalidCredentials)

	_, err = f.svc.DeleteUser(ctx, auth.DeleteCriteria{})
	errutil.AssertErrorCode(t, err, domain.CodeInvalidCriteria)
}

func TestService_DeleteUserByWalletAndEmail(t *testing.T) {
	ctx := context.Background()
	f := newService(t)
	w := newWallet(t)

	session, err := f.svc.Web3Login(ctx, w.address, w.sign(t, auth.DefaultLoginMessage))
	require.NoError(t, err)
	deleted, err := f.svc.DeleteUser(ctx, auth.DeleteCriteria{WalletAddress: w.address})
	require.NoError(t, err)
	assert.Equal(t, session.User.ID, deleted.ID)

	email := "c@d.io"
	_, err = f.svc.Register(ctx, auth.RegisterInput{Username: "carol", Password: "p1", Email: &email})
	require.NoError(t, err)
	_, err = f.svc.DeleteUser(ctx, auth.DeleteCriteria{Email: "C@D.io"})
	require.NoError(t, err)

	_, err = f.svc.DeleteUser(ctx, auth.DeleteCriteria{WalletAddress: "0xnope"})
	errutil.AssertErrorCode(t, err, domain.CodeInvalidWalletAddress)
	assert.Zero(t, f.store.Len())
}

func TestService_LoginUpgradesWeakHash(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	tokens, err := auth.NewTokenIssuer(testSecret, "wallet_auth", time.Hour)
	require.NoError(t, err)

	weak, err := auth.NewService(store, auth.NewBcryptHasher(bcrypt.MinCost), auth.NewSignatureVerifier(""), tokens)
	require.NoError(t, err)
	user, err := weak.Register(ctx, auth.RegisterInput{Username: "alice", Password: "p1"})
	require.NoError(t, err)

	stronger, err := auth.NewService(store, auth.NewBcryptHasher(bcrypt.MinCost+1), auth.NewSignatureVerifier(""), tokens)
	require.NoError(t, err)
	_, err = stronger.Login(ctx, "alice", "p1")
	require.NoError(t, err)

	current, err := store.FindByID(ctx, user.ID)
	require.NoError(t, err)
	cost, err := bcrypt.Cost([]byte(*current.PasswordHash))
	require.NoError(t, err)
	assert.Equal(t, bcrypt.MinCost+1, cost)
}
