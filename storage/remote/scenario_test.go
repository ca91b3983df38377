package remote_test

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/volatiletech/null/v8"

	"github.com/givehub/console/core"
	"github.com/givehub/console/core/association"
	"github.com/givehub/console/core/auth"
	"github.com/givehub/console/core/user"
	"github.com/givehub/console/core/view"
	"github.com/givehub/console/storage/remote"
	"github.com/givehub/console/tests"
)

var ctx = context.Background()

func mountUsers(t *testing.T, env *testutil.Env) (*view.ListView[user.User], error) {
	t.Helper()
	v := view.NewListView[user.User]("users", env.Notifier, nil)
	err := v.Mount(ctx, func(ctx context.Context) ([]user.User, error) {
		return env.Users.List(ctx, user.QueryFilter{})
	})
	return v, err
}

func TestSessionRepository(t *testing.T) {
	env := testutil.NewEnv(t)
	acc := auth.NewAccessor(env.Session, nil)

	assert.Nil(t, acc.CurrentPrincipal(ctx))

	admin := testutil.LoginAs(t, env, auth.RoleAdmin)
	p := acc.CurrentPrincipal(ctx)
	require.NotNil(t, p)
	assert.Equal(t, admin.ID, p.ID)
	assert.Equal(t, auth.RoleAdmin, p.Role)

	// fresh round trip on every call
	acc.CurrentPrincipal(ctx)
	assert.Equal(t, 2, env.API.Calls(http.MethodGet, "/users/profile"))

	require.NoError(t, env.Session.Logout(ctx))
	assert.Nil(t, acc.CurrentPrincipal(ctx))

	err := env.Session.Login(ctx, admin.Email, "wrong", remote.AccountUser)
	assert.Equal(t, http.StatusBadRequest, core.TransportStatus(err))
}

func TestAssociationSession(t *testing.T) {
	env := testutil.NewEnv(t)
	assoc := testutil.CreateAssociation(t, env, "Food Bank", "bank@food.org", association.CategoryFood)

	assert.Nil(t, env.Assocs.Profile(ctx))
	require.NoError(t, env.Session.Login(ctx, assoc.Email, testutil.Password, remote.AccountAssociation))

	p := env.Assocs.Profile(ctx)
	require.NotNil(t, p)
	assert.Equal(t, assoc.ID, p.ID)

	// an association session is not a user session
	assert.Nil(t, auth.NewAccessor(env.Session, nil).CurrentPrincipal(ctx))
}

// Scenario A: a donor asking for the admin user list is rejected before anything is sent.
func TestScenario_DonorDenied(t *testing.T) {
	env := testutil.NewEnv(t)
	testutil.LoginAs(t, env, auth.RoleDonor)

	v, err := mountUsers(t, env)
	assert.True(t, core.IsAuthorization(err))
	assert.Equal(t, []user.User{}, v.Items())
	assert.Equal(t, view.StateLoadFailed, v.State())
	assert.Equal(t, view.PermissionDeniedText, v.LastError())
	assert.Equal(t, 0, env.API.Calls(http.MethodGet, "/users/admin/all"))
}

func TestDeniedGuardSendsNothing(t *testing.T) {
	for _, role := range []auth.Role{auth.RoleUnknown, auth.RoleDonor, auth.RoleRecipient} {
		t.Run(role.Label(), func(t *testing.T) {
			env := testutil.NewEnv(t)
			if role.Valid() {
				testutil.LoginAs(t, env, role)
			}

			_, err := env.Users.Create(ctx, user.NewUser{FirstName: "J", LastName: "D", Email: "j@x.com", Password: "secret123", UserType: auth.RoleDonor})
			assert.True(t, core.IsAuthorization(err))
			_, err = env.Users.Update(ctx, 1, user.UpdateUser{Email: null.StringFrom("a@x.com")})
			assert.True(t, core.IsAuthorization(err))
			assert.True(t, core.IsAuthorization(env.Users.Delete(ctx, 1)))
			_, err = env.Assocs.List(ctx, association.QueryFilter{})
			assert.True(t, core.IsAuthorization(err))
			_, err = env.Assocs.Create(ctx, association.NewAssociation{Name: "x", Email: "x@x.org", Password: "secret123", Category: association.CategoryFood})
			assert.True(t, core.IsAuthorization(err))
			assert.True(t, core.IsAuthorization(env.Assocs.Delete(ctx, 1)))

			// only the session reads went out
			assert.Equal(t, env.API.Calls(http.MethodGet, "/users/profile"), env.API.TotalCalls())
		})
	}
}

// Scenarios B, C and D: create, update and remove through the reconciler.
func TestScenario_AdminLifecycle(t *testing.T) {
	env := testutil.NewEnv(t)
	admin := testutil.LoginAs(t, env, auth.RoleAdmin)
	for i := 0; i < 5; i++ {
		testutil.CreateUser(t, env, "Filler", "User", "filler"+string(rune('a'+i))+"@test.cd", auth.RoleRecipient)
	}

	v, err := mountUsers(t, env)
	require.NoError(t, err)
	previous := v.Items()
	require.Len(t, previous, 6)
	assert.Equal(t, admin.ID, previous[0].ID)

	// B
	created, err := v.Create(ctx, func(ctx context.Context) (user.User, error) {
		return env.Users.Create(ctx, user.NewUser{
			FirstName: "Jane",
			LastName:  "Doe",
			Email:     "jane@x.com",
			Password:  "secret123",
			UserType:  auth.RoleDonor,
		})
	})
	require.NoError(t, err)
	assert.Equal(t, 7, created.ID)
	assert.Equal(t, append(previous, created), v.Items())

	bodies := env.API.Bodies(http.MethodPost, "/users/profile")
	require.Len(t, bodies, 1)
	assert.NotContains(t, bodies[0], "password")
	assert.Equal(t, "secret123", bodies[0]["passwordHash"])

	// the stored hash accepts the original password
	require.NoError(t, env.Session.Login(ctx, "jane@x.com", "secret123", remote.AccountUser))
	require.NoError(t, env.Session.Login(ctx, admin.Email, testutil.Password, remote.AccountUser))

	// C
	updated, err := v.Update(ctx, func(ctx context.Context) (user.User, error) {
		return env.Users.Update(ctx, 7, user.UpdateUser{Email: null.StringFrom("jane2@x.com")})
	})
	require.NoError(t, err)
	var matches []user.User
	for _, usr := range v.Items() {
		if usr.ID == 7 {
			matches = append(matches, usr)
		}
	}
	require.Len(t, matches, 1)
	assert.Equal(t, updated, matches[0])
	assert.Equal(t, "jane2@x.com", matches[0].Email)
	assert.Equal(t, created.FirstName, matches[0].FirstName)
	assert.Equal(t, created.LastName, matches[0].LastName)
	assert.Equal(t, created.UserType, matches[0].UserType)
	assert.Equal(t, []map[string]interface{}{{"email": "jane2@x.com"}}, env.API.Bodies(http.MethodPut, "/users/admin/:id"))

	// D
	require.NoError(t, v.Remove(ctx, 7, func(ctx context.Context) error {
		return env.Users.Delete(ctx, 7)
	}))
	for _, usr := range v.Items() {
		assert.NotEqual(t, 7, usr.ID)
	}
	assert.Equal(t, previous, v.Items())

	// idempotent re-list
	require.NoError(t, v.Refresh(ctx, func(ctx context.Context) ([]user.User, error) {
		return env.Users.List(ctx, user.QueryFilter{})
	}))
	first := v.Items()
	require.NoError(t, v.Refresh(ctx, func(ctx context.Context) ([]user.User, error) {
		return env.Users.List(ctx, user.QueryFilter{})
	}))
	assert.Equal(t, first, v.Items())
	assert.Equal(t, previous, first)
}

func TestUserFilters(t *testing.T) {
	env := testutil.NewEnv(t)
	testutil.LoginAs(t, env, auth.RoleAdmin)
	donor := testutil.CreateUser(t, env, "Dina", "Giver", "dina@test.cd", auth.RoleDonor)
	testutil.CreateUser(t, env, "Rick", "Taker", "rick@test.cd", auth.RoleRecipient)

	users, err := env.Users.List(ctx, user.QueryFilter{Search: "GIVER"})
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, donor.ID, users[0].ID)

	users, err = env.Users.List(ctx, user.QueryFilter{Role: auth.RoleRecipient})
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "Rick", users[0].FirstName)

	_, err = env.Users.Get(ctx, 404)
	assert.Equal(t, http.StatusNotFound, core.TransportStatus(err))
}

func TestAssociationLifecycle(t *testing.T) {
	env := testutil.NewEnv(t)
	testutil.LoginAs(t, env, auth.RoleAdmin)
	testutil.CreateAssociation(t, env, "Warm Clothes", "warm@clothes.org", association.CategoryClothes)

	v := view.NewListView[association.Association]("associations", env.Notifier, nil)
	require.NoError(t, v.Mount(ctx, func(ctx context.Context) ([]association.Association, error) {
		return env.Assocs.List(ctx, association.QueryFilter{})
	}))
	require.Len(t, v.Items(), 1)

	created, err := v.Create(ctx, func(ctx context.Context) (association.Association, error) {
		return env.Assocs.Create(ctx, association.NewAssociation{
			Name:           "School Kits",
			Email:          "kits@school.org",
			Password:       "pencils4all",
			Category:       association.CategoryEducation,
			FoundationDate: "2004-09-01",
		})
	})
	require.NoError(t, err)
	assert.Equal(t, association.CategoryEducation, created.Category)
	body := env.API.Bodies(http.MethodPost, "/associations/admin")[0]
	assert.NotContains(t, body, "password")
	assert.Equal(t, "pencils4all", body["passwordHash"])

	filtered, err := env.Assocs.List(ctx, association.QueryFilter{Category: association.CategoryEducation})
	require.NoError(t, err)
	assert.Equal(t, []association.Association{created}, filtered)

	_, err = v.Update(ctx, func(ctx context.Context) (association.Association, error) {
		return env.Assocs.Update(ctx, created.ID, association.UpdateAssociation{Category: null.StringFrom("home supplies")})
	})
	require.NoError(t, err)
	assert.Equal(t, association.CategoryHomeSupplies, v.Items()[1].Category)

	// public reads need no session
	require.NoError(t, env.Session.Logout(ctx))
	public, err := env.Assocs.ListPublic(ctx)
	require.NoError(t, err)
	assert.Len(t, public, 2)
	got, err := env.Assocs.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "School Kits", got.Name)

	// removal now needs a session again
	err = v.Remove(ctx, created.ID, func(ctx context.Context) error {
		return env.Assocs.Delete(ctx, created.ID)
	})
	assert.True(t, core.IsAuthorization(err))
	assert.Len(t, v.Items(), 2)
	assert.Equal(t, 0, env.API.Calls(http.MethodDelete, "/associations/admin/:id"))
}

// Scenario E: an expired session sends the user to the login screen, once, without retries.
func TestScenario_SessionExpired(t *testing.T) {
	env := testutil.NewEnv(t)
	testutil.LoginAs(t, env, auth.RoleAdmin)
	env.Navigator.Redirect("/admin/users")

	v, err := mountUsers(t, env)
	require.NoError(t, err)
	before := v.Items()

	env.API.ExpireSessions()
	env.API.ResetCalls()

	_, err = v.Update(ctx, func(ctx context.Context) (user.User, error) {
		return env.Users.Update(ctx, before[0].ID, user.UpdateUser{FirstName: null.StringFrom("Ada")})
	})
	assert.Error(t, err)
	assert.Equal(t, []string{"/admin/users", core.LoginPath}, env.Navigator.Redirects())
	assert.Equal(t, core.LoginPath, env.Navigator.Location())
	assert.Equal(t, 1, env.API.Calls(http.MethodGet, "/users/profile"))
	assert.Equal(t, 1, env.API.TotalCalls())
	assert.Equal(t, before, v.Items())
	assert.NotEmpty(t, v.LastError())

	// a raw 401 from a resource endpoint is intercepted the same way
	env.Navigator.Redirect("/admin/associations")
	err = env.Client.Do(ctx, http.MethodGet, "/users/admin/all", nil, nil, nil)
	assert.Equal(t, http.StatusUnauthorized, core.TransportStatus(err))
	assert.Equal(t, core.LoginPath, env.Navigator.Location())
}

func TestCookieStore(t *testing.T) {
	env := testutil.NewEnv(t)
	admin := testutil.LoginAs(t, env, auth.RoleAdmin)

	path := filepath.Join(t.TempDir(), "givehub", "session.json")
	store := remote.NewCookieStore(path)
	require.NoError(t, store.Save(env.Client))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	// a new client picks the session up
	client, err := remote.NewClient(env.Client.BaseURL().String())
	require.NoError(t, err)
	require.NoError(t, store.Load(client))
	p, err := remote.NewSessionRepository(client).CurrentUser(ctx)
	require.NoError(t, err)
	assert.Equal(t, admin.ID, p.ID)

	require.NoError(t, store.Clear())
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
	assert.NoError(t, store.Clear())
	assert.NoError(t, remote.NewCookieStore(path).Load(client))
}
