package user

import (
	"context"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/givehub/console/core"
	"github.com/givehub/console/core/auth"
)

var (
	// errors
	ErrPasswordConfirmRequired = errors.New("password confirmation is required")
	ErrAdminSignup             = errors.New("admin accounts cannot sign up")
)

type (
	// Repository is the remote users API. Implementations do no authorization of their own.
	Repository interface {
		QueryUsers(ctx context.Context, filter QueryFilter) ([]User, error)
		GetUser(ctx context.Context, id int) (User, error)
		CreateUser(ctx context.Context, payload CreatePayload) (User, error)
		UpdateUser(ctx context.Context, id int, fields map[string]interface{}) (User, error)
		DeleteUser(ctx context.Context, id int) error
	}

	// Service is the Users resource client. Every operation except Register is restricted to admins.
	Service struct {
		repo       Repository
		guard      *auth.Guard
		validate   *validator.Validate
		translator ut.Translator
	}
)

func NewService(repo Repository, guard *auth.Guard) *Service {
	validate, translator := core.NewValidator()
	InitValidators(validate, translator)
	return &Service{
		repo:       repo,
		guard:      guard,
		validate:   validate,
		translator: translator,
	}
}

func (svc *Service) List(ctx context.Context, filter QueryFilter) ([]User, error) {
	if _, err := svc.guard.Require(ctx, auth.RoleAdmin); err != nil {
		return nil, err
	}
	filter.Clean()
	users, err := svc.repo.QueryUsers(ctx, filter)
	if err != nil {
		return nil, errors.Wrap(err, "listing users")
	}
	return active(users), nil
}

// active drops soft-deleted users.
func active(users []User) []User {
	res := make([]User, 0, len(users))
	for _, usr := range users {
		if !usr.IsDeleted() {
			res = append(res, usr)
		}
	}
	return res
}

func (svc *Service) Get(ctx context.Context, id int) (User, error) {
	if _, err := svc.guard.Require(ctx, auth.RoleAdmin); err != nil {
		return User{}, err
	}
	usr, err := svc.repo.GetUser(ctx, id)
	if err != nil {
		return User{}, errors.Wrapf(err, "getting user %d", id)
	}
	return usr, nil
}

func (svc *Service) Create(ctx context.Context, nu NewUser) (User, error) {
	if _, err := svc.guard.Require(ctx, auth.RoleAdmin); err != nil {
		return User{}, err
	}
	return svc.create(ctx, nu)
}

// Register signs up a new donor or recipient account. It is public; the password must be confirmed.
// Admin accounts are only made through Create.
func (svc *Service) Register(ctx context.Context, nu NewUser) (User, error) {
	if nu.UserType == auth.RoleAdmin {
		return User{}, core.NewValidationError(
			ErrAdminSignup,
			core.FieldError{Field: "userType", Error: "must be DONOR or RECIPIENT"},
		)
	}
	if nu.PasswordConfirm == "" {
		return User{}, core.NewValidationError(
			ErrPasswordConfirmRequired,
			core.FieldError{Field: "passwordConfirm", Error: "this field is required"},
		)
	}
	return svc.create(ctx, nu)
}

func (svc *Service) create(ctx context.Context, nu NewUser) (User, error) {
	if err := nu.Validate(svc.validate); err != nil {
		return User{}, core.TranslateValidation(err, svc.translator)
	}
	usr, err := svc.repo.CreateUser(ctx, nu.Payload())
	if err != nil {
		return User{}, errors.Wrap(err, "creating user")
	}
	return usr, nil
}

func (svc *Service) Update(ctx context.Context, id int, uu UpdateUser) (User, error) {
	if _, err := svc.guard.Require(ctx, auth.RoleAdmin); err != nil {
		return User{}, err
	}
	if uu.IsEmpty() {
		return User{}, core.NewValidationError(errors.New("nothing to update"))
	}
	if err := uu.Validate(svc.validate, svc.translator); err != nil {
		return User{}, err
	}
	usr, err := svc.repo.UpdateUser(ctx, id, uu.Fields())
	if err != nil {
		return User{}, errors.Wrapf(err, "updating user %d", id)
	}
	return usr, nil
}

func (svc *Service) Delete(ctx context.Context, id int) error {
	if _, err := svc.guard.Require(ctx, auth.RoleAdmin); err != nil {
		return err
	}
	if err := svc.repo.DeleteUser(ctx, id); err != nil {
		return errors.Wrapf(err, "deleting user %d", id)
	}
	return nil
}
