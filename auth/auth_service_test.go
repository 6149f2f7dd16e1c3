package auth_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jrsteele09/genzmobo-auth/auth"
	apperrors "github.com/jrsteele09/genzmobo-auth/internal/errors"
	"github.com/jrsteele09/genzmobo-auth/internal/kvstore"
	"github.com/jrsteele09/genzmobo-auth/mail/mailfake"
	"github.com/jrsteele09/genzmobo-auth/otp"
	"github.com/jrsteele09/genzmobo-auth/token"
	"github.com/jrsteele09/genzmobo-auth/token/revocation"
	"github.com/jrsteele09/genzmobo-auth/users"
	fakeuserrepo "github.com/jrsteele09/genzmobo-auth/users/repofake"
	"github.com/stretchr/testify/require"
)

const (
	secretStr        = "1234"
	testUserEmail    = "a@x.com"
	testUsername     = "alice"
	testUserPassword = "P@ss1234"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// testFixture holds all test dependencies
type testFixture struct {
	clock       *fakeClock
	signer      token.Signer
	userRepo    *fakeuserrepo.FakeUserRepo
	issuer      *token.Issuer
	verifier    *token.Verifier
	revocations *revocation.Store
	relay       *mailfake.FakeRelay
	deps        auth.Deps
	service     *auth.Service
}

func setupTestFixture(t *testing.T, options ...auth.ServiceOption) *testFixture {
	t.Helper()

	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	signer, err := token.NewHMACSigner(secretStr, "HS256")
	require.NoError(t, err)
	kv := kvstore.NewMemoryStore(kvstore.WithMemoryClock(clock.Now))

	f := &testFixture{
		clock:       clock,
		signer:      signer,
		userRepo:    fakeuserrepo.NewFakeUserRepo(),
		issuer:      token.NewIssuer(signer, token.WithIssuerClock(clock.Now)),
		revocations: revocation.New(kv, revocation.WithClock(clock.Now)),
		relay:       mailfake.NewFakeRelay(),
	}
	f.verifier = token.NewVerifier(signer, f.revocations, token.WithVerifierClock(clock.Now))
	f.deps = auth.Deps{
		Users:       f.userRepo,
		Issuer:      f.issuer,
		Verifier:    f.verifier,
		Revocations: f.revocations,
		Mail:        f.relay,
		Attempts:    otp.NewLimiter(kv),
	}
	f.service = f.newService(t, options...)
	return f
}

func (f *testFixture) newService(t *testing.T, options ...auth.ServiceOption) *auth.Service {
	t.Helper()
	options = append([]auth.ServiceOption{auth.WithNowTime(f.clock.Now)}, options...)
	s, err := auth.NewService(f.deps, options...)
	require.NoError(t, err)
	return s
}

// createUser stores a user directly, bypassing registration.
func (f *testFixture) createUser(t *testing.T, email, username, password string, verified bool) *users.User {
	t.Helper()
	hash, err := users.HashPassword(password)
	require.NoError(t, err)
	u := users.NewUser(email, username, "", hash, f.clock.Now())
	u.IsVerified = verified
	require.NoError(t, f.userRepo.Create(context.Background(), u))
	return u
}

type failingRevoker struct{}

type unreachableRevocations struct{}

func (unreachableRevocations) IsRevoked(context.Context, string) (bool, error) {
	return false, errors.New("connection refused")
}

func (failingRevoker) Revoke(context.Context, string, time.Duration) error {
	return apperrors.New(apperrors.RevocationStoreUnavailable)
}

func TestNewService(t *testing.T) {
	f := setupTestFixture(t)

	tests := []struct {
		name   string
		modify func(d *auth.Deps)
	}{
		{name: "users", modify: func(d *auth.Deps) { d.Users = nil }},
		{name: "issuer", modify: func(d *auth.Deps) { d.Issuer = nil }},
		{name: "verifier", modify: func(d *auth.Deps) { d.Verifier = nil }},
		{name: "revocations", modify: func(d *auth.Deps) { d.Revocations = nil }},
		{name: "mail", modify: func(d *auth.Deps) { d.Mail = nil }},
		{name: "attempts", modify: func(d *auth.Deps) { d.Attempts = nil }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			deps := f.deps
			tt.modify(&deps)
			_, err := auth.NewService(deps)
			require.Error(t, err)
		})
	}
}

func TestLogin(t *testing.T) {
	ctx := context.Background()
	f := setupTestFixture(t)
	u := f.createUser(t, testUserEmail, testUsername, testUserPassword, true)

	t.Run("by email", func(t *testing.T) {
		res, err := f.service.Login(ctx, testUserEmail, testUserPassword)
		require.NoError(t, err)
		require.NotEmpty(t, res.AccessToken)
		require.NotEmpty(t, res.RefreshToken)
		require.Equal(t, f.clock.Now().Add(7*24*time.Hour), res.RefreshExpiresAt)
		require.Equal(t, u.ID, res.User.ID)

		claims, err := f.verifier.Verify(ctx, res.AccessToken, token.KindAccess)
		require.NoError(t, err)
		require.Equal(t, u.ID, claims.Subject)

		stored, err := f.userRepo.GetByID(ctx, u.ID)
		require.NoError(t, err)
		require.Equal(t, res.RefreshToken, stored.RefreshToken)
		require.Equal(t, claims.ID, stored.CurrentTokenJTI)
		require.NotNil(t, stored.LastLoginAt)
		require.NotNil(t, stored.LastActivityAt)
	})

	t.Run("by username", func(t *testing.T) {
		res, err := f.service.Login(ctx, testUsername, testUserPassword)
		require.NoError(t, err)
		require.Equal(t, u.ID, res.User.ID)
	})
}

func TestLogin_InvalidCredentials(t *testing.T) {
	ctx := context.Background()
	f := setupTestFixture(t)
	verified := f.createUser(t, testUserEmail, testUsername, testUserPassword, true)
	unverified := f.createUser(t, "b@x.com", "bob", testUserPassword, false)

	tests := []struct {
		name       string
		identifier string
		password   string
	}{
		{name: "unknown identifier", identifier: "nobody@x.com", password: testUserPassword},
		{name: "wrong password", identifier: testUserEmail, password: "Wr0ng@pass"},
		{name: "unverified email", identifier: "b@x.com", password: testUserPassword},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := f.service.Login(ctx, tt.identifier, tt.password)
			require.Nil(t, res)
			require.ErrorIs(t, err, apperrors.InvalidCredentials)
			require.Equal(t, apperrors.MessageOf(apperrors.New(apperrors.InvalidCredentials)), apperrors.MessageOf(err))
		})
	}

	for _, id := range []string{verified.ID, unverified.ID} {
		stored, err := f.userRepo.GetByID(ctx, id)
		require.NoError(t, err)
		require.Empty(t, stored.RefreshToken)
		require.Empty(t, stored.CurrentTokenJTI)
	}
}

func TestRefresh(t *testing.T) {
	ctx := context.Background()

	t.Run("rotation consumes the old token", func(t *testing.T) {
		f := setupTestFixture(t)
		f.createUser(t, testUserEmail, testUsername, testUserPassword, true)

		login, err := f.service.Login(ctx, testUserEmail, testUserPassword)
		require.NoError(t, err)

		rotated, err := f.service.Refresh(ctx, login.RefreshToken)
		require.NoError(t, err)
		require.NotEqual(t, login.RefreshToken, rotated.RefreshToken)
		require.NotEqual(t, login.AccessToken, rotated.AccessToken)

		_, err = f.service.Refresh(ctx, login.RefreshToken)
		require.ErrorIs(t, err, apperrors.InvalidOrRevokedRefreshToken)

		_, err = f.service.Refresh(ctx, rotated.RefreshToken)
		require.NoError(t, err)
	})

	t.Run("missing token", func(t *testing.T) {
		f := setupTestFixture(t)
		_, err := f.service.Refresh(ctx, "")
		require.ErrorIs(t, err, apperrors.MissingRefreshToken)
	})

	t.Run("unknown token", func(t *testing.T) {
		f := setupTestFixture(t)
		_, err := f.service.Refresh(ctx, "not-a-stored-token")
		require.ErrorIs(t, err, apperrors.InvalidOrRevokedRefreshToken)
	})

	t.Run("expired token still stored", func(t *testing.T) {
		f := setupTestFixture(t)
		f.createUser(t, testUserEmail, testUsername, testUserPassword, true)
		login, err := f.service.Login(ctx, testUserEmail, testUserPassword)
		require.NoError(t, err)

		f.clock.Advance(8 * 24 * time.Hour)
		_, err = f.service.Refresh(ctx, login.RefreshToken)
		require.ErrorIs(t, err, apperrors.InvalidOrRevokedRefreshToken)
	})

	t.Run("stored token belonging to another subject", func(t *testing.T) {
		f := setupTestFixture(t)
		a := f.createUser(t, testUserEmail, testUsername, testUserPassword, true)
		b := f.createUser(t, "b@x.com", "bob", testUserPassword, true)

		issued, err := f.issuer.IssueRefreshToken(b.ID)
		require.NoError(t, err)
		require.NoError(t, f.userRepo.StartSession(ctx, a.ID, users.Session{RefreshToken: issued.Token, At: f.clock.Now()}))

		_, err = f.service.Refresh(ctx, issued.Token)
		require.ErrorIs(t, err, apperrors.InvalidOrRevokedRefreshToken)
	})

	t.Run("revocation store outage is not a bad token", func(t *testing.T) {
		f := setupTestFixture(t)
		f.createUser(t, testUserEmail, testUsername, testUserPassword, true)
		login, err := f.service.Login(ctx, testUserEmail, testUserPassword)
		require.NoError(t, err)

		f.deps.Verifier = token.NewVerifier(f.signer, unreachableRevocations{},
			token.WithFailClosed(true),
			token.WithVerifierClock(f.clock.Now),
		)
		service := f.newService(t)

		_, err = service.Refresh(ctx, login.RefreshToken)
		require.ErrorIs(t, err, apperrors.RevocationStoreUnavailable)
		require.NotErrorIs(t, err, apperrors.InvalidOrRevokedRefreshToken)
		require.Equal(t, 503, apperrors.KindOf(err).Status())

		stored, err := f.userRepo.GetByID(ctx, login.User.ID)
		require.NoError(t, err)
		require.Equal(t, login.RefreshToken, stored.RefreshToken)
	})
}

// barrierRepo holds every GetByRefreshToken caller until n have arrived, so
// concurrent refreshes all read the same stored token before any writes.
type barrierRepo struct {
	users.UserRepo
	wg *sync.WaitGroup
}

func (b barrierRepo) GetByRefreshToken(ctx context.Context, refreshToken string) (*users.User, error) {
	u, err := b.UserRepo.GetByRefreshToken(ctx, refreshToken)
	b.wg.Done()
	b.wg.Wait()
	return u, err
}

func concurrentRefresh(t *testing.T, strict bool) []error {
	t.Helper()
	ctx := context.Background()
	f := setupTestFixture(t)
	f.createUser(t, testUserEmail, testUsername, testUserPassword, true)
	login, err := f.service.Login(ctx, testUserEmail, testUserPassword)
	require.NoError(t, err)

	wg := &sync.WaitGroup{}
	wg.Add(2)
	f.deps.Users = barrierRepo{UserRepo: f.userRepo, wg: wg}
	service := f.newService(t, auth.WithStrictRotation(strict))

	errs := make([]error, 2)
	var done sync.WaitGroup
	for i := range errs {
		done.Add(1)
		go func() {
			defer done.Done()
			_, errs[i] = service.Refresh(ctx, login.RefreshToken)
		}()
	}
	done.Wait()
	return errs
}

func TestRefresh_Concurrent(t *testing.T) {
	t.Run("last writer wins by default", func(t *testing.T) {
		for _, err := range concurrentRefresh(t, false) {
			require.NoError(t, err)
		}
	})

	t.Run("strict rotation allows one", func(t *testing.T) {
		errs := concurrentRefresh(t, true)
		failures := 0
		for _, err := range errs {
			if err != nil {
				require.ErrorIs(t, err, apperrors.InvalidOrRevokedRefreshToken)
				failures++
			}
		}
		require.Equal(t, 1, failures)
	})
}

func TestLogout(t *testing.T) {
	ctx := context.Background()

	t.Run("revokes access and ends session", func(t *testing.T) {
		f := setupTestFixture(t)
		u := f.createUser(t, testUserEmail, testUsername, testUserPassword, true)
		login, err := f.service.Login(ctx, testUserEmail, testUserPassword)
		require.NoError(t, err)
		claims, err := f.verifier.Verify(ctx, login.AccessToken, token.KindAccess)
		require.NoError(t, err)

		require.NoError(t, f.service.Logout(ctx, claims))

		_, err = f.verifier.Verify(ctx, login.AccessToken, token.KindAccess)
		require.ErrorIs(t, err, apperrors.TokenRevoked)
		_, err = f.service.Refresh(ctx, login.RefreshToken)
		require.ErrorIs(t, err, apperrors.InvalidOrRevokedRefreshToken)

		stored, err := f.userRepo.GetByID(ctx, u.ID)
		require.NoError(t, err)
		require.Empty(t, stored.RefreshToken)
		require.Empty(t, stored.CurrentTokenJTI)

		// Logging out again converges on the same state.
		require.NoError(t, f.service.Logout(ctx, claims))
		_, err = f.verifier.Verify(ctx, login.AccessToken, token.KindAccess)
		require.ErrorIs(t, err, apperrors.TokenRevoked)
	})

	t.Run("revocation lasts for the token's remaining lifetime", func(t *testing.T) {
		f := setupTestFixture(t)
		f.createUser(t, testUserEmail, testUsername, testUserPassword, true)
		login, err := f.service.Login(ctx, testUserEmail, testUserPassword)
		require.NoError(t, err)
		claims, err := f.verifier.Verify(ctx, login.AccessToken, token.KindAccess)
		require.NoError(t, err)

		f.clock.Advance(10 * time.Minute)
		require.NoError(t, f.service.Logout(ctx, claims))

		f.clock.Advance(4*time.Minute + 59*time.Second)
		revoked, err := f.revocations.IsRevoked(ctx, claims.ID)
		require.NoError(t, err)
		require.True(t, revoked)

		f.clock.Advance(2 * time.Second)
		revoked, err = f.revocations.IsRevoked(ctx, claims.ID)
		require.NoError(t, err)
		require.False(t, revoked)
	})

	t.Run("invalid payload", func(t *testing.T) {
		f := setupTestFixture(t)
		require.ErrorIs(t, f.service.Logout(ctx, nil), apperrors.InvalidPayload)
		require.ErrorIs(t, f.service.Logout(ctx, &token.Claims{}), apperrors.InvalidPayload)
	})

	t.Run("revocation failure is swallowed", func(t *testing.T) {
		f := setupTestFixture(t)
		u := f.createUser(t, testUserEmail, testUsername, testUserPassword, true)
		login, err := f.service.Login(ctx, testUserEmail, testUserPassword)
		require.NoError(t, err)
		claims, err := f.verifier.Verify(ctx, login.AccessToken, token.KindAccess)
		require.NoError(t, err)

		f.deps.Revocations = failingRevoker{}
		require.NoError(t, f.newService(t).Logout(ctx, claims))

		stored, err := f.userRepo.GetByID(ctx, u.ID)
		require.NoError(t, err)
		require.Empty(t, stored.RefreshToken)
	})
}

func TestFailuresAreTagged(t *testing.T) {
	f := setupTestFixture(t)
	_, err := f.service.Login(context.Background(), "nobody", "x")
	var appErr *apperrors.Error
	require.True(t, errors.As(err, &appErr))
	require.Equal(t, 401, appErr.Kind.Status())
}
