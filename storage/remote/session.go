package remote

import (
	"context"
	"net/http"

	"github.com/pkg/errors"

	"github.com/givehub/console/core/association"
	"github.com/givehub/console/core/auth"
)

// AccountKind selects which kind of account a login is for.
type AccountKind string

const (
	AccountUser        AccountKind = "user"
	AccountAssociation AccountKind = "association"
)

// SessionRepository reads and manages the cookie session of a Client.
type SessionRepository struct {
	client *Client
}

var _ auth.SessionRepository = (*SessionRepository)(nil)

func NewSessionRepository(client *Client) *SessionRepository {
	return &SessionRepository{client: client}
}

// CurrentUser returns the user bound to the session.
func (repo *SessionRepository) CurrentUser(ctx context.Context) (auth.Principal, error) {
	var p auth.Principal
	if err := repo.client.Do(ctx, http.MethodGet, "/users/profile", nil, nil, &p); err != nil {
		return auth.Principal{}, err
	}
	return p, nil
}

// CurrentAssociation returns the association bound to the session.
func (repo *SessionRepository) CurrentAssociation(ctx context.Context) (association.Association, error) {
	var assoc association.Association
	if err := repo.client.Do(ctx, http.MethodGet, "/associations/profile", nil, nil, &assoc); err != nil {
		return association.Association{}, err
	}
	return assoc, nil
}

type loginRequest struct {
	Email       string      `json:"email"`
	Password    string      `json:"password"`
	AccountType AccountKind `json:"accountType"`
}

// Login opens a session; the API answers with the session cookie, which the jar keeps.
func (repo *SessionRepository) Login(ctx context.Context, email, password string, kind AccountKind) error {
	if kind == "" {
		kind = AccountUser
	}
	body := loginRequest{Email: email, Password: password, AccountType: kind}
	return errors.Wrap(repo.client.Do(ctx, http.MethodPost, "/auth/login", nil, body, nil), "logging in")
}

func (repo *SessionRepository) Logout(ctx context.Context) error {
	return errors.Wrap(repo.client.Do(ctx, http.MethodPost, "/auth/logout", nil, nil, nil), "logging out")
}
