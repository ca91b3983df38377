package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/givehub/console/core"
	"github.com/givehub/console/core/association"
	"github.com/givehub/console/core/auth"
	"github.com/givehub/console/core/user"
	"github.com/givehub/console/core/view"
	consolesvc "github.com/givehub/console/services/console"
	"github.com/givehub/console/tests"
	"github.com/givehub/console/tests/fakeapi"
)

type testCLI struct {
	*commandLine
	env         *testutil.Env
	out, errOut *bytes.Buffer
}

func setup(t *testing.T) *testCLI {
	env := testutil.NewEnv(t)
	conf := &core.Config{
		Env:         "TEST",
		TestMode:    true,
		SessionFile: filepath.Join(t.TempDir(), "givehub", "session.json"),
		API:         core.APIConfig{BaseURL: env.Server.URL + fakeapi.BasePath},
	}
	var out, errOut bytes.Buffer
	return &testCLI{
		commandLine: newCommandLine(conf, &out, &errOut),
		env:         env,
		out:         &out,
		errOut:      &errOut,
	}
}

// exec runs the givehub command line with args, feeding pwds to the password prompts.
func (tc *testCLI) exec(args []string, pwds ...string) error {
	tc.out.Reset()
	tc.errOut.Reset()
	readPasswordFunc = func(int) ([]byte, error) {
		if len(pwds) == 0 {
			return nil, nil
		}
		pwd := pwds[0]
		pwds = pwds[1:]
		return []byte(pwd), nil
	}
	return tc.run(append([]string{"givehub"}, args...))
}

func (tc *testCLI) login(t *testing.T, role auth.Role) user.User {
	t.Helper()
	usr := testutil.CreateUser(t, tc.env, role.Label(), "Tester", role.String()+"@test.cd", role)
	require.NoError(t, tc.exec([]string{"login", "-e", usr.Email}, testutil.Password))
	tc.env.API.ResetCalls()
	return usr
}

func (tc *testCLI) decode(t *testing.T, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(tc.out.Bytes(), v), tc.out.String())
}

type cliTest struct {
	name       string
	args       []string // without program name
	pwds       []string
	wantErr    error
	wantErrStr string
	wantOut    string
	wantErrOut string
}

func runCLITests(t *testing.T, tc *testCLI, tests []cliTest) {
	t.Helper()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tc.exec(tt.args, tt.pwds...)
			switch {
			case tt.wantErr != nil:
				assert.Equal(t, tt.wantErr, err)
			case tt.wantErrStr != "":
				if assert.Error(t, err) {
					assert.Contains(t, err.Error(), tt.wantErrStr)
				}
			default:
				assert.NoError(t, err, tc.errOut.String())
			}
			if tt.wantOut != "" {
				assert.Contains(t, tc.out.String(), tt.wantOut)
			}
			if tt.wantErrOut != "" {
				assert.Contains(t, tc.errOut.String(), tt.wantErrOut)
			}
		})
	}
}

func Test_commandLine_usage(t *testing.T) {
	tc := setup(t)

	tests := []cliTest{
		{name: "no command", wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErrStr: "unknown command"},
		{name: "unknown output", args: []string{"associations", "public", "-o", "yaml"}, wantErrStr: "unknown output format"},
		{name: "login: no email", args: []string{"login"}, wantErr: errHelp},
		{name: "login: no password", args: []string{"login", "-e", "a@test.cd"}, wantErr: errHelp},
		{name: "get: missing id", args: []string{"users", "get"}, wantErrStr: "accepts 1 arg"},
		{name: "get: bad id", args: []string{"users", "get", "lol"}, wantErrStr: `invalid id "lol"`},
		{name: "update: nothing to update", args: []string{"users", "update", "1"}, wantErr: errHelp},
		{name: "list: bad role", args: []string{"users", "list", "--role", "GUEST"}, wantErrStr: "unknown role"},
		{name: "signup: admin", args: []string{"signup", "--role", "ADMIN"}, wantErrStr: "invalid role"},
	}
	runCLITests(t, tc, tests)
	assert.Equal(t, 0, tc.env.API.TotalCalls())
}

func Test_commandLine_session(t *testing.T) {
	tc := setup(t)
	donor := testutil.CreateUser(t, tc.env, "Dan", "Donor", "dan@test.cd", auth.RoleDonor)

	tests := []cliTest{
		{name: "whoami: logged out", args: []string{"whoami"}, wantErr: errFailed, wantErrOut: "You are not signed in."},
		{name: "wrong password", args: []string{"login", "-e", donor.Email}, pwds: []string{"nope-nope"}, wantErr: errFailed, wantErrOut: "Invalid email or password."},
		{name: "login", args: []string{"login", "-e", "  DAN@test.cd "}, pwds: []string{testutil.Password}, wantErrOut: "Logged in as dan@test.cd."},
		{name: "whoami", args: []string{"whoami"}, wantOut: "Dan Donor"},
		{name: "logout", args: []string{"logout"}, wantErrOut: "Logged out."},
		{name: "whoami: after logout", args: []string{"whoami"}, wantErr: errFailed},
	}
	runCLITests(t, tc, tests)

	_, err := os.Stat(tc.conf.SessionFile)
	assert.True(t, os.IsNotExist(err))
}

func Test_commandLine_signup(t *testing.T) {
	tc := setup(t)

	tests := []cliTest{
		{
			name:       "password mismatch",
			args:       []string{"signup", "--first-name", "Rita", "--last-name", "Recipient", "-e", "rita@test.cd", "--role", "RECIPIENT"},
			pwds:       []string{"s3cret-pwd", "s3cret-pwx"},
			wantErr:    errFailed,
			wantErrOut: "passwordConfirm",
		},
		{
			name:       "weak password",
			args:       []string{"signup", "--first-name", "Rita", "--last-name", "Recipient", "-e", "rita@test.cd"},
			pwds:       []string{"123456", "123456"},
			wantErr:    errFailed,
			wantErrOut: "Password strength: Weak",
		},
		{
			name:       "ok",
			args:       []string{"signup", "--first-name", "Rita", "--last-name", "Recipient", "-e", "rita@test.cd", "--role", "recipient"},
			pwds:       []string{"Tr0ub4dor&3x", "Tr0ub4dor&3x"},
			wantOut:    "rita@test.cd",
			wantErrOut: "Account created.",
		},
	}
	runCLITests(t, tc, tests)

	bodies := tc.env.API.Bodies(http.MethodPost, "/users/profile")
	require.Len(t, bodies, 1)
	assert.NotContains(t, bodies[0], "password")
	assert.Equal(t, "Tr0ub4dor&3x", bodies[0]["passwordHash"])
	assert.Equal(t, "RECIPIENT", bodies[0]["userType"])
}

func Test_commandLine_users(t *testing.T) {
	tc := setup(t)
	admin := tc.login(t, auth.RoleAdmin)
	donor := testutil.CreateUser(t, tc.env, "Dan", "Donor", "dan@test.cd", auth.RoleDonor)

	var users []user.User
	require.NoError(t, tc.exec([]string{"users", "list", "-o", "json"}))
	tc.decode(t, &users)
	assert.Len(t, users, 2)

	require.NoError(t, tc.exec([]string{"users", "list", "--role", "donor", "-o", "json"}))
	tc.decode(t, &users)
	require.Len(t, users, 1)
	assert.Equal(t, donor.ID, users[0].ID)

	require.NoError(t, tc.exec([]string{"users", "list"}))
	assert.Contains(t, tc.out.String(), "dan@test.cd")
	assert.Contains(t, tc.out.String(), admin.Email)

	// create
	tc.env.API.ResetCalls()
	err := tc.exec([]string{"users", "create", "--first-name", "Rita", "--last-name", "Recipient", "-e", "rita@test.cd", "--role", "RECIPIENT", "-o", "json"}, "s3cret-pwd")
	require.NoError(t, err, tc.errOut.String())
	tc.decode(t, &users)
	require.Len(t, users, 3)
	rita := users[2]
	assert.Equal(t, "rita@test.cd", rita.Email)
	assert.Equal(t, auth.RoleRecipient, rita.UserType)
	bodies := tc.env.API.Bodies(http.MethodPost, "/users/profile")
	require.Len(t, bodies, 1)
	assert.NotContains(t, bodies[0], "password")
	assert.Equal(t, "s3cret-pwd", bodies[0]["passwordHash"])

	// invalid input never reaches the API
	tc.env.API.ResetCalls()
	err = tc.exec([]string{"users", "create", "--first-name", "X", "--last-name", "Y", "-e", "not-an-email"}, "s3cret-pwd")
	assert.Equal(t, errFailed, err)
	assert.Contains(t, tc.errOut.String(), "email")
	assert.Equal(t, 0, tc.env.API.Calls(http.MethodPost, "/users/profile"))

	// update: only the given flags are sent
	tc.env.API.ResetCalls()
	id := strconv.Itoa(rita.ID)
	require.NoError(t, tc.exec([]string{"users", "update", id, "--phone", "+243810000000", "--role", "DONOR", "-o", "json"}))
	tc.decode(t, &users)
	for _, usr := range users {
		if usr.ID == rita.ID {
			assert.Equal(t, "+243810000000", usr.Phone)
			assert.Equal(t, auth.RoleDonor, usr.UserType)
		}
	}
	bodies = tc.env.API.Bodies(http.MethodPut, "/users/admin/:id")
	require.Len(t, bodies, 1)
	assert.Equal(t, map[string]interface{}{"phone": "+243810000000", "userType": "DONOR"}, bodies[0])

	// get
	require.NoError(t, tc.exec([]string{"users", "get", id}))
	assert.Contains(t, tc.out.String(), "+243810000000")
	assert.Equal(t, errFailed, tc.exec([]string{"users", "get", "999"}))
	assert.Contains(t, tc.errOut.String(), view.TryAgainLaterText)

	// delete
	require.NoError(t, tc.exec([]string{"users", "delete", id, "-o", "json"}))
	tc.decode(t, &users)
	assert.Len(t, users, 2)
	for _, usr := range users {
		assert.NotEqual(t, rita.ID, usr.ID)
	}
}

func Test_commandLine_deniedSendsNothing(t *testing.T) {
	tc := setup(t)
	tc.login(t, auth.RoleDonor)
	other := testutil.CreateUser(t, tc.env, "Rita", "Recipient", "rita@test.cd", auth.RoleRecipient)
	id := strconv.Itoa(other.ID)

	tests := []cliTest{
		{name: "users list", args: []string{"users", "list"}},
		{name: "users get", args: []string{"users", "get", id}},
		{name: "users create", args: []string{"users", "create", "--first-name", "A", "--last-name", "B", "-e", "ab@test.cd"}, pwds: []string{"s3cret-pwd"}},
		{name: "users update", args: []string{"users", "update", id, "--phone", "1"}},
		{name: "users delete", args: []string{"users", "delete", id}},
		{name: "associations list", args: []string{"associations", "list"}},
		{name: "dashboard", args: []string{"dashboard"}},
	}
	for i := range tests {
		tests[i].wantErr = errFailed
		tests[i].wantErrOut = view.PermissionDeniedText
	}
	runCLITests(t, tc, tests)

	// only the identity checks went out
	assert.Equal(t, tc.env.API.Calls(http.MethodGet, "/users/profile"), tc.env.API.TotalCalls())
}

func Test_commandLine_associations(t *testing.T) {
	tc := setup(t)
	bank := testutil.CreateAssociation(t, tc.env, "Food Bank", "bank@food.org", association.CategoryFood)

	// public screens need no session
	var assocs []association.Association
	require.NoError(t, tc.exec([]string{"associations", "public", "-o", "json"}))
	tc.decode(t, &assocs)
	require.Len(t, assocs, 1)
	assert.Equal(t, bank.ID, assocs[0].ID)
	require.NoError(t, tc.exec([]string{"assocs", "get", strconv.Itoa(bank.ID)}))
	assert.Contains(t, tc.out.String(), "Food Bank")

	tc.login(t, auth.RoleAdmin)

	tests := []cliTest{
		{
			name:       "create: unknown category",
			args:       []string{"associations", "create", "-n", "Books", "-e", "books@test.cd", "-c", "Toys"},
			pwds:       []string{"s3cret-pwd"},
			wantErr:    errFailed,
			wantErrOut: "category",
		},
		{
			name:       "create",
			args:       []string{"associations", "create", "-n", "Books For All", "-e", "books@test.cd", "-c", "education", "--founded", "2015-09-01"},
			pwds:       []string{"s3cret-pwd"},
			wantOut:    "Books For All",
			wantErrOut: "Association Books For All created.",
		},
		{name: "list: filtered", args: []string{"associations", "list", "-c", "food"}, wantOut: "Food Bank"},
		{
			name:       "update",
			args:       []string{"associations", "update", strconv.Itoa(bank.ID), "--description", "Daily meals", "-c", "home-supplies"},
			wantOut:    "Home supplies",
			wantErrOut: "updated.",
		},
		{name: "delete", args: []string{"associations", "delete", strconv.Itoa(bank.ID)}, wantErrOut: "deleted."},
	}
	runCLITests(t, tc, tests)

	bodies := tc.env.API.Bodies(http.MethodPost, "/associations/admin")
	require.Len(t, bodies, 1)
	assert.NotContains(t, bodies[0], "password")
	assert.Equal(t, "Education", bodies[0]["category"])

	require.NoError(t, tc.exec([]string{"associations", "list", "-o", "json"}))
	tc.decode(t, &assocs)
	require.Len(t, assocs, 1)
	assert.Equal(t, "Books For All", assocs[0].Name)
}

func Test_commandLine_associationProfile(t *testing.T) {
	tc := setup(t)
	bank := testutil.CreateAssociation(t, tc.env, "Food Bank", "bank@food.org", association.CategoryFood)

	assert.Equal(t, errFailed, tc.exec([]string{"associations", "profile"}))
	assert.Contains(t, tc.errOut.String(), "No association is signed in.")

	require.NoError(t, tc.exec([]string{"login", "--association", "-e", bank.Email}, testutil.Password))
	require.NoError(t, tc.exec([]string{"associations", "profile"}))
	assert.Contains(t, tc.out.String(), "Food Bank")
	require.NoError(t, tc.exec([]string{"whoami", "--association"}))
	assert.Contains(t, tc.out.String(), "bank@food.org")
}

func Test_commandLine_dashboard(t *testing.T) {
	tc := setup(t)
	tc.login(t, auth.RoleAdmin)
	testutil.CreateUser(t, tc.env, "Dan", "Donor", "dan@test.cd", auth.RoleDonor)
	testutil.CreateUser(t, tc.env, "Dora", "Donor", "dora@test.cd", auth.RoleDonor)
	testutil.CreateAssociation(t, tc.env, "Food Bank", "bank@food.org", association.CategoryFood)

	var stats dashboardStats
	require.NoError(t, tc.exec([]string{"dashboard", "-o", "json"}))
	tc.decode(t, &stats)
	assert.Equal(t, 3, stats.TotalUsers)
	assert.Equal(t, 1, stats.TotalAssociations)
	assert.Equal(t, []countStat{{"Donor", 2}, {"Recipient", 0}, {"Admin", 1}}, stats.Users)
	assert.Equal(t, countStat{"Food", 1}, stats.Associations[0])
	assert.Len(t, stats.Associations, len(association.Categories))

	require.NoError(t, tc.exec([]string{"dashboard"}))
	assert.Contains(t, tc.out.String(), "Users (3)")
	assert.Contains(t, tc.out.String(), "Associations (1)")
}

func Test_commandLine_sessionExpired(t *testing.T) {
	tc := setup(t)
	tc.login(t, auth.RoleAdmin)
	_, err := os.Stat(tc.conf.SessionFile)
	require.NoError(t, err)

	tc.env.API.ExpireSessions()
	assert.Equal(t, errFailed, tc.exec([]string{"users", "list"}))
	assert.Contains(t, tc.errOut.String(), consolesvc.SessionExpiredText)
	assert.Equal(t, 1, tc.env.API.TotalCalls())

	_, err = os.Stat(tc.conf.SessionFile)
	assert.True(t, os.IsNotExist(err))
}
