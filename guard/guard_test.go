package guard_test

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/jrsteele09/productms-console/auth"
	"github.com/jrsteele09/productms-console/authmodel"
	"github.com/jrsteele09/productms-console/gateway/gatewayfake"
	"github.com/jrsteele09/productms-console/guard"
	apperrors "github.com/jrsteele09/productms-console/internal/errors"
	fakesessionstore "github.com/jrsteele09/productms-console/sessions/repofakes"
	"github.com/jrsteele09/productms-console/users"
	"github.com/stretchr/testify/require"
)

func TestEvaluate_DecisionTable(t *testing.T) {
	req := guard.Requirement{users.RoleAdmin}
	tests := []struct {
		state     auth.State
		satisfied bool
		want      guard.Kind
	}{
		{auth.StateInitializing, false, guard.Suspend},
		{auth.StateInitializing, true, guard.Suspend},
		{auth.StateAnonymous, false, guard.RedirectToLogin},
		{auth.StateAnonymous, true, guard.RedirectToLogin},
		{auth.StateAuthenticated, false, guard.Deny},
		{auth.StateAuthenticated, true, guard.Render},
		{auth.State(99), true, guard.Deny},
	}

	for _, tt := range tests {
		t.Run(tt.state.String()+"/"+tt.want.String(), func(t *testing.T) {
			d := guard.Evaluate(tt.state, tt.satisfied, req, "/admin")
			require.Equal(t, tt.want, d.Kind)

			switch tt.want {
			case guard.RedirectToLogin:
				require.Equal(t, "/admin", d.Next)
				require.Nil(t, d.Required)
			case guard.Deny:
				require.Equal(t, req, d.Required)
				require.Empty(t, d.Next)
			default:
				require.Empty(t, d.Next)
				require.Nil(t, d.Required)
			}
		})
	}
}

func newController(t *testing.T) (*auth.Controller, *gatewayfake.FakeGateway) {
	t.Helper()
	gw := gatewayfake.NewFakeGateway()
	ctrl, err := auth.NewController(fakesessionstore.NewFakeStore(), gw)
	require.NoError(t, err)
	return ctrl, gw
}

func TestCheck_RedirectThenResume(t *testing.T) {
	ctx := context.Background()
	ctrl, gw := newController(t)
	routes := guard.DefaultRoutes()
	create, ok := routes.Lookup(guard.RouteProductCreate)
	require.True(t, ok)

	// Still initializing: nothing is decided yet
	require.Equal(t, guard.Suspend, guard.Check(ctrl, create.Roles, "/products/create").Kind)

	ctrl.Initialize(ctx)
	d := guard.Check(ctrl, create.Roles, "/products/create")
	require.Equal(t, guard.RedirectToLogin, d.Kind)
	require.Equal(t, "/products/create", d.Next)

	gw.LoginResponse = gatewayfake.Issue("a", "r", users.Profile{Username: "mia", Role: users.RoleManager})
	_, err := ctrl.Login(ctx, authmodel.LoginRequest{Username: "mia", Password: "pw"})
	require.NoError(t, err)

	resume := guard.SafeNext(d.Next)
	require.Equal(t, "/products/create", resume)
	require.Equal(t, guard.Render, guard.Check(ctrl, create.Roles, resume).Kind)
}

func TestCheck_ViewerDeniedAdmin(t *testing.T) {
	ctx := context.Background()
	ctrl, gw := newController(t)
	ctrl.Initialize(ctx)
	gw.LoginResponse = gatewayfake.Issue("a", "r", users.Profile{Username: "vic", Role: users.RoleViewer})
	_, err := ctrl.Login(ctx, authmodel.LoginRequest{Username: "vic", Password: "pw"})
	require.NoError(t, err)

	admin, _ := guard.DefaultRoutes().Lookup(guard.RouteAdmin)
	d := guard.Check(ctrl, admin.Roles, "/admin")
	require.Equal(t, guard.Deny, d.Kind)
	require.Equal(t, "admin", d.Required.String())

	// Views without a requirement are open to any role
	products, _ := guard.DefaultRoutes().Lookup(guard.RouteProducts)
	require.Equal(t, guard.Render, guard.Check(ctrl, products.Roles, "/products").Kind)
}

func TestCheck_FailOpenStillRedirectsAnonymous(t *testing.T) {
	gw := gatewayfake.NewFakeGateway()
	ctrl, err := auth.NewController(fakesessionstore.NewFakeStore(), gw, auth.WithFailOpenRoles(true))
	require.NoError(t, err)
	ctrl.Initialize(context.Background())

	require.True(t, ctrl.HasRole(users.RoleAdmin))
	require.Equal(t, guard.RedirectToLogin, guard.Check(ctrl, guard.Requirement{users.RoleAdmin}, "/admin").Kind)
}

func TestCheck_ConsistentDuringLogout(t *testing.T) {
	ctx := context.Background()
	ctrl, gw := newController(t)
	ctrl.Initialize(ctx)
	gw.LoginResponse = gatewayfake.Issue("a", "r", users.Profile{Username: "mia", Role: users.RoleManager})
	editors := guard.Requirement{users.RoleAdmin, users.RoleManager}

	stop := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-stop:
				return
			default:
			}
			_, _ = ctrl.Login(ctx, authmodel.LoginRequest{Username: "mia", Password: "pw"})
			ctrl.Logout(ctx)
		}
	}()

	// A manager either renders or, once signed out, is sent to login.
	// Mixing a signed in state with a signed out role check would deny.
	for i := 0; i < 2000; i++ {
		kind := guard.Check(ctrl, editors, "/products/create").Kind
		require.Contains(t, []guard.Kind{guard.Render, guard.RedirectToLogin}, kind)
	}
	close(stop)
	wg.Wait()
}

func TestRequirement_SatisfiedBy(t *testing.T) {
	editors := guard.Requirement{users.RoleAdmin, users.RoleManager}
	require.True(t, guard.Requirement{}.SatisfiedBy(nil))
	require.False(t, editors.SatisfiedBy(nil))
	require.True(t, editors.SatisfiedBy(&users.Profile{Username: "m", Role: users.RoleManager}))
	require.False(t, editors.SatisfiedBy(&users.Profile{Username: "v", Role: users.RoleViewer}))
}

func TestSafeNext(t *testing.T) {
	tests := map[string]string{
		"":                          "/",
		"/products/create":          "/products/create",
		"/products?page=2":          "/products?page=2",
		"https://evil.example.com/": "/",
		"//evil.example.com":        "/",
		`/\evil.example.com`:        "/",
		"products":                  "/",
		"/login":                    "/",
		"/register?x=1":             "/",
		"javascript:alert(1)":       "/",
	}
	for in, want := range tests {
		require.Equal(t, want, guard.SafeNext(in), "input %q", in)
	}
}

func TestLoginURL(t *testing.T) {
	require.Equal(t, "/login?next=%2Fproducts%2Fcreate", guard.LoginURL("/products/create"))
	require.Equal(t, "/login", guard.LoginURL("/"))
	require.Equal(t, "/login", guard.LoginURL("https://evil.example.com"))
}

func TestRequirement_String(t *testing.T) {
	require.Equal(t, "any", guard.Requirement{}.String())
	require.Equal(t, "admin, manager", guard.Requirement{users.RoleAdmin, users.RoleManager}.String())
}

func TestLoadRoutes(t *testing.T) {
	t.Run("no file uses defaults", func(t *testing.T) {
		routes, err := guard.LoadRoutes("")
		require.NoError(t, err)
		require.Equal(t, guard.DefaultRoutes(), routes)
	})

	t.Run("override roles", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "routes.yaml")
		require.NoError(t, os.WriteFile(path, []byte(`
routes:
  - path: /products
    roles: [admin, manager]
  - path: /admin
    title: Administration
    roles: [admin]
`), 0o600))

		routes, err := guard.LoadRoutes(path)
		require.NoError(t, err)
		products, _ := routes.Lookup(guard.RouteProducts)
		require.Equal(t, guard.Requirement{users.RoleAdmin, users.RoleManager}, products.Roles)
		admin, _ := routes.Lookup(guard.RouteAdmin)
		require.Equal(t, "Administration", admin.Title)
		require.Len(t, routes, len(guard.DefaultRoutes()))
	})

	t.Run("unknown role", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "routes.yaml")
		require.NoError(t, os.WriteFile(path, []byte("routes:\n  - path: /admin\n    roles: [root]\n"), 0o600))
		_, err := guard.LoadRoutes(path)
		require.ErrorContains(t, err, "unknown role")
		require.ErrorIs(t, err, apperrors.ErrInvalidConfig)
	})

	t.Run("unknown path", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "routes.yaml")
		require.NoError(t, os.WriteFile(path, []byte("routes:\n  - path: /reports\n"), 0o600))
		_, err := guard.LoadRoutes(path)
		require.ErrorContains(t, err, "unknown route")
		require.ErrorIs(t, err, apperrors.ErrInvalidConfig)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := guard.LoadRoutes(filepath.Join(t.TempDir(), "nope.yaml"))
		require.Error(t, err)
	})
}
