package remote

import (
	"context"
	"net/http"
	"strconv"

	"github.com/givehub/console/core/association"
)

type AssociationRepository struct {
	client  *Client
	session *SessionRepository
}

var _ association.Repository = (*AssociationRepository)(nil)

func NewAssociationRepository(client *Client) *AssociationRepository {
	return &AssociationRepository{client: client, session: NewSessionRepository(client)}
}

// QueryPublicAssociations reads the public directory; no session is needed.
func (repo *AssociationRepository) QueryPublicAssociations(ctx context.Context) ([]association.Association, error) {
	return repo.query(ctx, "/associations", association.QueryFilter{})
}

func (repo *AssociationRepository) QueryAssociations(ctx context.Context, filter association.QueryFilter) ([]association.Association, error) {
	return repo.query(ctx, "/associations/admin/all", filter)
}

func (repo *AssociationRepository) query(ctx context.Context, path string, filter association.QueryFilter) ([]association.Association, error) {
	assocs := make([]association.Association, 0)
	if err := repo.client.Do(ctx, http.MethodGet, path, filter.Values(), nil, &assocs); err != nil {
		return nil, err
	}
	return assocs, nil
}

func (repo *AssociationRepository) GetAssociation(ctx context.Context, id int) (association.Association, error) {
	var assoc association.Association
	if err := repo.client.Do(ctx, http.MethodGet, "/associations/"+strconv.Itoa(id), nil, nil, &assoc); err != nil {
		return association.Association{}, err
	}
	return assoc, nil
}

func (repo *AssociationRepository) CreateAssociation(ctx context.Context, payload association.CreatePayload) (association.Association, error) {
	var assoc association.Association
	if err := repo.client.Do(ctx, http.MethodPost, "/associations/admin", nil, payload, &assoc); err != nil {
		return association.Association{}, err
	}
	return assoc, nil
}

func (repo *AssociationRepository) UpdateAssociation(ctx context.Context, id int, fields map[string]interface{}) (association.Association, error) {
	var assoc association.Association
	if err := repo.client.Do(ctx, http.MethodPut, associationPath(id), nil, fields, &assoc); err != nil {
		return association.Association{}, err
	}
	return assoc, nil
}

func (repo *AssociationRepository) DeleteAssociation(ctx context.Context, id int) error {
	return repo.client.Do(ctx, http.MethodDelete, associationPath(id), nil, nil, nil)
}

func (repo *AssociationRepository) CurrentAssociation(ctx context.Context) (association.Association, error) {
	return repo.session.CurrentAssociation(ctx)
}

func associationPath(id int) string {
	return "/associations/admin/" + strconv.Itoa(id)
}
