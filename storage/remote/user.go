package remote

import (
	"context"
	"net/http"
	"strconv"

	"github.com/givehub/console/core/user"
)

type UserRepository struct {
	client *Client
}

var _ user.Repository = (*UserRepository)(nil)

func NewUserRepository(client *Client) *UserRepository {
	return &UserRepository{client: client}
}

func (repo *UserRepository) QueryUsers(ctx context.Context, filter user.QueryFilter) ([]user.User, error) {
	users := make([]user.User, 0)
	if err := repo.client.Do(ctx, http.MethodGet, "/users/admin/all", filter.Values(), nil, &users); err != nil {
		return nil, err
	}
	return users, nil
}

func (repo *UserRepository) GetUser(ctx context.Context, id int) (user.User, error) {
	var usr user.User
	if err := repo.client.Do(ctx, http.MethodGet, userPath(id), nil, nil, &usr); err != nil {
		return user.User{}, err
	}
	return usr, nil
}

// CreateUser posts to the profile endpoint, which is also the admin create endpoint.
func (repo *UserRepository) CreateUser(ctx context.Context, payload user.CreatePayload) (user.User, error) {
	var usr user.User
	if err := repo.client.Do(ctx, http.MethodPost, "/users/profile", nil, payload, &usr); err != nil {
		return user.User{}, err
	}
	return usr, nil
}

func (repo *UserRepository) UpdateUser(ctx context.Context, id int, fields map[string]interface{}) (user.User, error) {
	var usr user.User
	if err := repo.client.Do(ctx, http.MethodPut, userPath(id), nil, fields, &usr); err != nil {
		return user.User{}, err
	}
	return usr, nil
}

func (repo *UserRepository) DeleteUser(ctx context.Context, id int) error {
	return repo.client.Do(ctx, http.MethodDelete, userPath(id), nil, nil, nil)
}

func userPath(id int) string {
	return "/users/admin/" + strconv.Itoa(id)
}
