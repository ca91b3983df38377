package testutil

import (
	"context"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/givehub/console/core"
	"github.com/givehub/console/core/association"
	"github.com/givehub/console/core/auth"
	"github.com/givehub/console/core/user"
	"github.com/givehub/console/storage/remote"
	"github.com/givehub/console/tests/fakeapi"
)

const Password = "s3cret-pwd"

// Env is a fake API served over HTTP plus a client wired to it.
type Env struct {
	API       *fakeapi.Server
	Server    *httptest.Server
	Client    *remote.Client
	Navigator *Navigator
	Notifier  *Notifier
	Session   *remote.SessionRepository
	Guard     *auth.Guard
	Users     *user.Service
	Assocs    *association.Service
}

// NewEnv starts a fake API and returns a fresh, logged-out client for it.
func NewEnv(t *testing.T) *Env {
	t.Helper()
	api := fakeapi.New(nil)
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)

	nav := &Navigator{location: "/"}
	client, err := remote.NewClient(srv.URL+fakeapi.BasePath, remote.WithNavigator(nav))
	if err != nil {
		t.Fatalf("NewEnv() failed: %v", err)
	}
	session := remote.NewSessionRepository(client)
	guard := auth.NewGuard(auth.NewAccessor(session, nil))
	return &Env{
		API:       api,
		Server:    srv,
		Client:    client,
		Navigator: nav,
		Notifier:  &Notifier{},
		Session:   session,
		Guard:     guard,
		Users:     user.NewService(remote.NewUserRepository(client), guard),
		Assocs:    association.NewService(remote.NewAssociationRepository(client), guard, nil),
	}
}

// CreateUser seeds a user with Password directly in the fake API.
func CreateUser(t *testing.T, env *Env, first, last, email string, role auth.Role) user.User {
	t.Helper()
	usr, err := env.API.AddUser(user.User{FirstName: first, LastName: last, Email: email, UserType: role}, Password)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}

func CreateAssociation(t *testing.T, env *Env, name, email string, cat association.Category) association.Association {
	t.Helper()
	assoc, err := env.API.AddAssociation(association.Association{Name: name, Email: email, Category: cat}, Password)
	if err != nil {
		t.Fatalf("CreateAssociation() failed: %v", err)
	}
	return assoc
}

// LoginAs seeds a user of the given role and logs the client in as that user.
func LoginAs(t *testing.T, env *Env, role auth.Role) user.User {
	t.Helper()
	usr := CreateUser(t, env, role.Label(), "Tester", role.String()+"@test.cd", role)
	if err := env.Session.Login(context.Background(), usr.Email, Password, remote.AccountUser); err != nil {
		t.Fatalf("LoginAs() failed: %v", err)
	}
	env.API.ResetCalls()
	return usr
}

// Navigator records redirects.
type Navigator struct {
	mu        sync.Mutex
	location  string
	redirects []string
}

var _ core.Navigator = (*Navigator)(nil)

func (n *Navigator) Location() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.location
}

func (n *Navigator) Redirect(path string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.location = path
	n.redirects = append(n.redirects, path)
}

func (n *Navigator) Redirects() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.redirects...)
}

// Notice is one recorded notification.
type Notice struct {
	Level core.NoticeLevel
	Msg   string
}

// Notifier records notifications.
type Notifier struct {
	mu      sync.Mutex
	notices []Notice
}

var _ core.Notifier = (*Notifier)(nil)

func (n *Notifier) Notify(level core.NoticeLevel, msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notices = append(n.notices, Notice{level, msg})
}

func (n *Notifier) Notices() []Notice {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]Notice(nil), n.notices...)
}
