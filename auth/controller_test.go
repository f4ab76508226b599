package auth_test

import (
	"context"
	"sync"
	"testing"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/jrsteele09/productms-console/auth"
	"github.com/jrsteele09/productms-console/authmodel"
	"github.com/jrsteele09/productms-console/gateway"
	"github.com/jrsteele09/productms-console/gateway/gatewayfake"
	apperrors "github.com/jrsteele09/productms-console/internal/errors"
	"github.com/jrsteele09/productms-console/sessions"
	fakesessionstore "github.com/jrsteele09/productms-console/sessions/repofakes"
	"github.com/jrsteele09/productms-console/users"
	"github.com/stretchr/testify/require"
)

var (
	bob   = users.Profile{ID: 1, Username: "bob", FirstName: "Bob", Role: users.RoleManager}
	vic   = users.Profile{ID: 2, Username: "vic", Role: users.RoleViewer}
	alice = users.Profile{ID: 3, Username: "alice", Role: users.RoleAdmin}

	storedCreds = sessions.Credentials{Access: "stored-access", Refresh: "stored-refresh"}
)

// testFixture holds all test dependencies
type testFixture struct {
	store   *fakesessionstore.FakeStore
	gateway *gatewayfake.FakeGateway
	ctrl    *auth.Controller
}

func setupTestFixture(t *testing.T, options ...auth.ControllerOption) *testFixture {
	t.Helper()

	store := fakesessionstore.NewFakeStore()
	gw := gatewayfake.NewFakeGateway()
	ctrl, err := auth.NewController(store, gw, options...)
	require.NoError(t, err)

	return &testFixture{store: store, gateway: gw, ctrl: ctrl}
}

func (f *testFixture) seedStore(t *testing.T, creds sessions.Credentials, profile users.Profile) {
	t.Helper()
	require.NoError(t, f.store.Save(context.Background(), creds, profile))
}

func requireAnonymous(t *testing.T, s auth.Session) {
	t.Helper()
	require.Equal(t, auth.StateAnonymous, s.State)
	require.Nil(t, s.User)
	require.False(t, s.Authenticated())
}

func TestNewController_RequiresDependencies(t *testing.T) {
	_, err := auth.NewController(nil, gatewayfake.NewFakeGateway())
	require.Error(t, err)
	_, err = auth.NewController(fakesessionstore.NewFakeStore(), nil)
	require.Error(t, err)
}

func TestController_StartsInitializing(t *testing.T) {
	f := setupTestFixture(t)
	require.Equal(t, auth.StateInitializing, f.ctrl.Session().State)

	select {
	case <-f.ctrl.Ready():
		t.Fatal("ready before initialization")
	default:
	}
}

func TestController_Initialize(t *testing.T) {
	ctx := context.Background()

	t.Run("empty store goes straight to anonymous", func(t *testing.T) {
		f := setupTestFixture(t)
		requireAnonymous(t, f.ctrl.Initialize(ctx))
		require.Zero(t, f.gateway.ProfileCalls)
		<-f.ctrl.Ready()
	})

	t.Run("stored credentials adopt the fetched profile, not the cached one", func(t *testing.T) {
		f := setupTestFixture(t)
		stale := bob
		stale.Role = users.RoleViewer
		f.seedStore(t, storedCreds, stale)
		f.gateway.Profile = &bob

		s := f.ctrl.Initialize(ctx)
		require.True(t, s.Authenticated())
		require.Equal(t, bob, *s.User)
		require.Equal(t, "stored-access", f.gateway.LastToken)
		require.Equal(t, storedCreds, f.ctrl.Credentials())

		// The cache is refreshed with the fetched profile
		_, cached, err := f.store.Load(ctx)
		require.NoError(t, err)
		require.Equal(t, bob, *cached)
	})

	t.Run("unauthorized clears the store", func(t *testing.T) {
		f := setupTestFixture(t)
		f.seedStore(t, storedCreds, bob)
		f.gateway.ProfileErr = gateway.ErrUnauthorized

		requireAnonymous(t, f.ctrl.Initialize(ctx))
		_, _, err := f.store.Load(ctx)
		require.ErrorIs(t, err, sessions.ErrNoSession)
	})

	t.Run("network error clears the store", func(t *testing.T) {
		f := setupTestFixture(t)
		f.seedStore(t, storedCreds, bob)
		f.gateway.ProfileErr = &gateway.NetworkError{Op: "test", Err: context.DeadlineExceeded}

		requireAnonymous(t, f.ctrl.Initialize(ctx))
		require.Empty(t, f.store.Raw())
	})

	t.Run("missing profile cache still validates credentials", func(t *testing.T) {
		f := setupTestFixture(t)
		f.store.Set(sessions.KeyAccessToken, "a")
		f.store.Set(sessions.KeyRefreshToken, "r")
		f.gateway.Profile = &vic

		s := f.ctrl.Initialize(ctx)
		require.True(t, s.Authenticated())
		require.Equal(t, vic, *s.User)
	})

	t.Run("half pair is no session", func(t *testing.T) {
		f := setupTestFixture(t)
		f.store.Set(sessions.KeyAccessToken, "a")
		f.gateway.Profile = &vic

		requireAnonymous(t, f.ctrl.Initialize(ctx))
		require.Zero(t, f.gateway.ProfileCalls)
	})

	t.Run("expired jwt is discarded without a round trip", func(t *testing.T) {
		now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
		f := setupTestFixture(t, auth.WithNowTime(func() time.Time { return now }))

		tok := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, jwtlib.RegisteredClaims{
			ExpiresAt: jwtlib.NewNumericDate(now.Add(-time.Minute)),
		})
		access, err := tok.SignedString([]byte("k"))
		require.NoError(t, err)
		f.seedStore(t, sessions.Credentials{Access: access, Refresh: "r"}, bob)
		f.gateway.Profile = &bob

		requireAnonymous(t, f.ctrl.Initialize(ctx))
		require.Zero(t, f.gateway.ProfileCalls)
		require.Empty(t, f.store.Raw())
	})

	t.Run("runs once", func(t *testing.T) {
		f := setupTestFixture(t)
		f.seedStore(t, storedCreds, bob)
		f.gateway.Profile = &bob

		f.ctrl.Initialize(ctx)
		f.ctrl.Initialize(ctx)
		require.Equal(t, 1, f.gateway.ProfileCalls)
	})
}

func TestController_InitializeSuspendsUntilResolved(t *testing.T) {
	f := setupTestFixture(t)
	f.seedStore(t, storedCreds, bob)
	f.gateway.Profile = &bob
	f.gateway.Block = make(chan struct{})

	done := make(chan struct{})
	go func() {
		f.ctrl.Initialize(context.Background())
		close(done)
	}()

	require.Equal(t, auth.StateInitializing, f.ctrl.Session().State)
	close(f.gateway.Block)
	<-done
	<-f.ctrl.Ready()
	require.True(t, f.ctrl.Session().Authenticated())
}

func TestController_InitializeCancelledKeepsStore(t *testing.T) {
	f := setupTestFixture(t)
	f.seedStore(t, storedCreds, bob)
	f.gateway.Profile = &bob
	f.gateway.Block = make(chan struct{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan auth.Session)
	go func() {
		done <- f.ctrl.Initialize(ctx)
	}()
	cancel()

	requireAnonymous(t, <-done)
	require.Equal(t, 0, f.store.Clears)
	creds, profile, err := f.store.Load(context.Background())
	require.NoError(t, err)
	require.Equal(t, storedCreds, creds)
	require.Equal(t, bob, *profile)
}

func TestController_LogoutDuringInitializeWins(t *testing.T) {
	ctx := context.Background()
	f := setupTestFixture(t)
	f.seedStore(t, storedCreds, bob)
	f.gateway.Profile = &bob
	f.gateway.Block = make(chan struct{})

	done := make(chan struct{})
	go func() {
		f.ctrl.Initialize(ctx)
		close(done)
	}()

	f.ctrl.Logout(ctx)
	close(f.gateway.Block)
	<-done

	requireAnonymous(t, f.ctrl.Session())
	require.Empty(t, f.store.Raw())
}

func TestController_Login(t *testing.T) {
	ctx := context.Background()

	t.Run("success persists and authenticates", func(t *testing.T) {
		f := setupTestFixture(t)
		f.ctrl.Initialize(ctx)
		f.gateway.LoginResponse = gatewayfake.Issue("acc", "ref", bob)

		user, err := f.ctrl.Login(ctx, authmodel.LoginRequest{Username: "bob", Password: "right"})
		require.NoError(t, err)
		require.Equal(t, bob, *user)

		s := f.ctrl.Session()
		require.True(t, s.Authenticated())
		require.Equal(t, bob, *s.User)

		creds, cached, err := f.store.Load(ctx)
		require.NoError(t, err)
		require.Equal(t, sessions.Credentials{Access: "acc", Refresh: "ref"}, creds)
		require.Equal(t, bob, *cached)
	})

	t.Run("invalid credentials leave state and store unchanged", func(t *testing.T) {
		f := setupTestFixture(t)
		f.ctrl.Initialize(ctx)
		f.gateway.LoginErr = gateway.ErrInvalidCredentials
		before := f.store.Raw()

		_, err := f.ctrl.Login(ctx, authmodel.LoginRequest{Username: "bob", Password: "wrong"})
		require.ErrorIs(t, err, gateway.ErrInvalidCredentials)
		requireAnonymous(t, f.ctrl.Session())
		require.Equal(t, before, f.store.Raw())
		require.Zero(t, f.store.Saves)
	})

	t.Run("failure keeps an existing session", func(t *testing.T) {
		f := setupTestFixture(t)
		f.ctrl.Initialize(ctx)
		f.gateway.LoginResponse = gatewayfake.Issue("acc", "ref", bob)
		_, err := f.ctrl.Login(ctx, authmodel.LoginRequest{Username: "bob", Password: "right"})
		require.NoError(t, err)

		f.gateway.LoginResponse = nil
		f.gateway.LoginErr = &gateway.NetworkError{Op: "test", Err: context.Canceled}
		_, err = f.ctrl.Login(ctx, authmodel.LoginRequest{Username: "alice", Password: "pw"})
		require.ErrorIs(t, err, apperrors.ErrNetwork)
		require.Equal(t, bob, *f.ctrl.Session().User)
	})

	t.Run("storage failure degrades to memory only", func(t *testing.T) {
		f := setupTestFixture(t)
		f.ctrl.Initialize(ctx)
		f.store.FailSave = true
		f.gateway.LoginResponse = gatewayfake.Issue("acc", "ref", alice)

		user, err := f.ctrl.Login(ctx, authmodel.LoginRequest{Username: "alice", Password: "pw"})
		require.NoError(t, err)
		require.Equal(t, alice, *user)
		require.True(t, f.ctrl.Session().Authenticated())
		require.Empty(t, f.store.Raw())
	})

	t.Run("incomplete response is unexpected", func(t *testing.T) {
		f := setupTestFixture(t)
		f.ctrl.Initialize(ctx)
		f.gateway.LoginResponse = &authmodel.AuthResponse{}

		_, err := f.ctrl.Login(ctx, authmodel.LoginRequest{Username: "bob", Password: "pw"})
		require.ErrorIs(t, err, apperrors.ErrUnexpected)
		requireAnonymous(t, f.ctrl.Session())
	})
}

func TestController_Register(t *testing.T) {
	ctx := context.Background()

	t.Run("success is an implicit login", func(t *testing.T) {
		f := setupTestFixture(t)
		f.ctrl.Initialize(ctx)
		f.gateway.RegisterResponse = gatewayfake.Issue("acc", "ref", vic)

		user, err := f.ctrl.Register(ctx, authmodel.RegistrationRequest{Username: "vic"})
		require.NoError(t, err)
		require.Equal(t, vic, *user)
		require.True(t, f.ctrl.Session().Authenticated())
		require.Equal(t, 1, f.store.Saves)
	})

	t.Run("validation error propagates", func(t *testing.T) {
		f := setupTestFixture(t)
		f.ctrl.Initialize(ctx)
		fe := authmodel.FieldErrors{}
		fe.Add("username", "A user with that username already exists.")
		f.gateway.RegisterErr = &gateway.ValidationError{Fields: fe}

		_, err := f.ctrl.Register(ctx, authmodel.RegistrationRequest{Username: "vic"})
		var ve *gateway.ValidationError
		require.ErrorAs(t, err, &ve)
		requireAnonymous(t, f.ctrl.Session())
	})
}

func TestController_LogoutIsIdempotent(t *testing.T) {
	ctx := context.Background()
	f := setupTestFixture(t)
	f.ctrl.Initialize(ctx)
	f.gateway.LoginResponse = gatewayfake.Issue("acc", "ref", bob)
	_, err := f.ctrl.Login(ctx, authmodel.LoginRequest{Username: "bob", Password: "right"})
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		f.ctrl.Logout(ctx)
		requireAnonymous(t, f.ctrl.Session())
		_, _, err := f.store.Load(ctx)
		require.ErrorIs(t, err, sessions.ErrNoSession)
		require.False(t, f.ctrl.Credentials().Valid())
	}
}

func TestController_LogoutWithStorageFailure(t *testing.T) {
	ctx := context.Background()
	f := setupTestFixture(t)
	f.seedStore(t, storedCreds, bob)
	f.gateway.Profile = &bob
	f.ctrl.Initialize(ctx)
	f.store.FailClear = true

	f.ctrl.Logout(ctx)
	requireAnonymous(t, f.ctrl.Session())
}

func TestController_HasRole(t *testing.T) {
	ctx := context.Background()
	roleSets := [][]users.RoleType{
		nil,
		{users.RoleAdmin},
		{users.RoleManager},
		{users.RoleViewer},
		{users.RoleAdmin, users.RoleManager},
		{users.RoleAdmin, users.RoleManager, users.RoleViewer},
	}

	for _, user := range []users.Profile{alice, bob, vic} {
		f := setupTestFixture(t)
		f.ctrl.Initialize(ctx)
		f.gateway.LoginResponse = gatewayfake.Issue("a", "r", user)
		_, err := f.ctrl.Login(ctx, authmodel.LoginRequest{Username: user.Username, Password: "pw"})
		require.NoError(t, err)

		for _, roles := range roleSets {
			want := len(roles) == 0
			for _, r := range roles {
				if r == user.Role {
					want = true
				}
			}
			require.Equal(t, want, f.ctrl.HasRole(roles...), "user %s roles %v", user.Role, roles)
		}
	}
}

func TestController_HasRoleWithoutUser(t *testing.T) {
	t.Run("fails closed by default", func(t *testing.T) {
		f := setupTestFixture(t)
		require.True(t, f.ctrl.HasRole())
		require.False(t, f.ctrl.HasRole(users.RoleAdmin))

		f.ctrl.Initialize(context.Background())
		require.False(t, f.ctrl.HasRole(users.RoleAdmin))
	})

	t.Run("fail open compatibility mode", func(t *testing.T) {
		f := setupTestFixture(t, auth.WithFailOpenRoles(true))
		f.ctrl.Initialize(context.Background())
		require.True(t, f.ctrl.HasRole(users.RoleAdmin))
		require.True(t, f.ctrl.HasRole())
	})
}

func TestController_Token(t *testing.T) {
	ctx := context.Background()
	f := setupTestFixture(t)
	f.ctrl.Initialize(ctx)

	_, err := f.ctrl.Token()
	require.ErrorIs(t, err, auth.ErrNotAuthenticated)

	f.gateway.LoginResponse = gatewayfake.Issue("acc", "ref", bob)
	_, err = f.ctrl.Login(ctx, authmodel.LoginRequest{Username: "bob", Password: "pw"})
	require.NoError(t, err)

	tok, err := f.ctrl.Token()
	require.NoError(t, err)
	require.Equal(t, "acc", tok.AccessToken)
	require.Equal(t, "ref", tok.RefreshToken)
	require.Equal(t, "Bearer", tok.Type())

	f.ctrl.Logout(ctx)
	_, err = f.ctrl.Token()
	require.ErrorIs(t, err, auth.ErrNotAuthenticated)
}

func TestController_SessionIsASnapshot(t *testing.T) {
	ctx := context.Background()
	f := setupTestFixture(t)
	f.ctrl.Initialize(ctx)
	f.gateway.LoginResponse = gatewayfake.Issue("acc", "ref", bob)
	_, err := f.ctrl.Login(ctx, authmodel.LoginRequest{Username: "bob", Password: "pw"})
	require.NoError(t, err)

	s := f.ctrl.Session()
	s.User.Role = users.RoleAdmin
	require.False(t, f.ctrl.HasRole(users.RoleAdmin))
}

func TestController_ConcurrentReaders(t *testing.T) {
	ctx := context.Background()
	f := setupTestFixture(t)
	f.ctrl.Initialize(ctx)
	f.gateway.LoginResponse = gatewayfake.Issue("acc", "ref", bob)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			f.ctrl.HasRole(users.RoleManager)
			f.ctrl.Session()
			f.ctrl.Token()
		}()
	}
	_, err := f.ctrl.Login(ctx, authmodel.LoginRequest{Username: "bob", Password: "pw"})
	require.NoError(t, err)
	wg.Wait()
	require.True(t, f.ctrl.HasRole(users.RoleManager))
}

func TestContext(t *testing.T) {
	f := setupTestFixture(t)
	ctx := auth.NewContext(context.Background(), f.ctrl)

	got, ok := auth.FromContext(ctx)
	require.True(t, ok)
	require.Same(t, f.ctrl, got)

	_, ok = auth.FromContext(context.Background())
	require.False(t, ok)
}
