package association

import (
	"context"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/givehub/console/core"
	"github.com/givehub/console/core/auth"
)

type (
	// Repository is the remote associations API. Implementations do no authorization of their own.
	Repository interface {
		QueryPublicAssociations(ctx context.Context) ([]Association, error)
		QueryAssociations(ctx context.Context, filter QueryFilter) ([]Association, error)
		GetAssociation(ctx context.Context, id int) (Association, error)
		CreateAssociation(ctx context.Context, payload CreatePayload) (Association, error)
		UpdateAssociation(ctx context.Context, id int, fields map[string]interface{}) (Association, error)
		DeleteAssociation(ctx context.Context, id int) error
		// CurrentAssociation returns the association bound to the current session.
		CurrentAssociation(ctx context.Context) (Association, error)
	}

	// Service is the Associations resource client. The public directory and detail reads are open
	// to anyone; everything else is restricted to admins.
	Service struct {
		repo       Repository
		guard      *auth.Guard
		logger     core.Logger
		validate   *validator.Validate
		translator ut.Translator
	}
)

func NewService(repo Repository, guard *auth.Guard, logger core.Logger) *Service {
	if logger == nil {
		logger = core.NopLogger{}
	}
	validate, translator := core.NewValidator()
	InitValidators(validate, translator)
	return &Service{
		repo:       repo,
		guard:      guard,
		logger:     logger,
		validate:   validate,
		translator: translator,
	}
}

func (svc *Service) ListPublic(ctx context.Context) ([]Association, error) {
	assocs, err := svc.repo.QueryPublicAssociations(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "listing associations")
	}
	return active(assocs), nil
}

func (svc *Service) Get(ctx context.Context, id int) (Association, error) {
	assoc, err := svc.repo.GetAssociation(ctx, id)
	if err != nil {
		return Association{}, errors.Wrapf(err, "getting association %d", id)
	}
	return assoc, nil
}

// Profile returns the association bound to the current session, or nil if there is none.
func (svc *Service) Profile(ctx context.Context) *Association {
	assoc, err := svc.repo.CurrentAssociation(ctx)
	if err != nil {
		svc.logger.Debug("resolving current association", err)
		return nil
	}
	return &assoc
}

func (svc *Service) List(ctx context.Context, filter QueryFilter) ([]Association, error) {
	if _, err := svc.guard.Require(ctx, auth.RoleAdmin); err != nil {
		return nil, err
	}
	filter.Clean()
	assocs, err := svc.repo.QueryAssociations(ctx, filter)
	if err != nil {
		return nil, errors.Wrap(err, "listing associations")
	}
	return active(assocs), nil
}

// active drops soft-deleted associations.
func active(assocs []Association) []Association {
	res := make([]Association, 0, len(assocs))
	for _, a := range assocs {
		if !a.IsDeleted() {
			res = append(res, a)
		}
	}
	return res
}

func (svc *Service) Create(ctx context.Context, na NewAssociation) (Association, error) {
	if _, err := svc.guard.Require(ctx, auth.RoleAdmin); err != nil {
		return Association{}, err
	}
	if err := na.Validate(svc.validate); err != nil {
		return Association{}, core.TranslateValidation(err, svc.translator)
	}
	assoc, err := svc.repo.CreateAssociation(ctx, na.Payload())
	if err != nil {
		return Association{}, errors.Wrap(err, "creating association")
	}
	return assoc, nil
}

func (svc *Service) Update(ctx context.Context, id int, ua UpdateAssociation) (Association, error) {
	if _, err := svc.guard.Require(ctx, auth.RoleAdmin); err != nil {
		return Association{}, err
	}
	if ua.IsEmpty() {
		return Association{}, core.NewValidationError(errors.New("nothing to update"))
	}
	if err := ua.Validate(svc.validate, svc.translator); err != nil {
		return Association{}, err
	}
	assoc, err := svc.repo.UpdateAssociation(ctx, id, ua.Fields())
	if err != nil {
		return Association{}, errors.Wrapf(err, "updating association %d", id)
	}
	return assoc, nil
}

func (svc *Service) Delete(ctx context.Context, id int) error {
	if _, err := svc.guard.Require(ctx, auth.RoleAdmin); err != nil {
		return err
	}
	if err := svc.repo.DeleteAssociation(ctx, id); err != nil {
		return errors.Wrapf(err, "deleting association %d", id)
	}
	return nil
}
