// internal/app/store/organizations/organizationstore.go
package organizationstore

import (
	"context"
	"errors"

	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	textfold "github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/classdeck/classdeck/internal/app/store/docstore"
	"github.com/classdeck/classdeck/internal/app/store/scoped"
	"github.com/classdeck/classdeck/internal/app/system/status"
	"github.com/classdeck/classdeck/internal/domain/models"
)

// Collection is the backing collection name.
const Collection = "organizations"

var ErrDuplicateOrganization = errors.New("an organization with this name already exists")

// Store manages tenants. Organizations are platform-level: they carry no
// organization_id themselves, and listing them is gated on the super-admin
// capability by authz, not by a tenant filter.
type Store struct {
	repo *scoped.Repo
}

func New(repo *scoped.Repo) *Store {
	return &Store{repo: repo}
}

// GetAll lists organizations ordered by folded name. limit <= 0 applies the
// default page cap.
func (s *Store) GetAll(ctx context.Context, limit int64, useCache bool) ([]models.Organization, error) {
	return s.list(ctx, nil, limit, useCache)
}

// GetByStatus lists organizations with the given status.
func (s *Store) GetByStatus(ctx context.Context, st string, limit int64, useCache bool) ([]models.Organization, error) {
	st = status.Normalize(st)
	if !status.IsValid(st) {
		return nil, errors.New(`status must be "active"|"inactive"`)
	}
	return s.list(ctx, []docstore.Filter{{Field: "status", Value: st}}, limit, useCache)
}

func (s *Store) list(ctx context.Context, filters []docstore.Filter, limit int64, useCache bool) ([]models.Organization, error) {
	// Organizations are platform-level; the all-tenants scope is correct
	// here and carries the cache/invalidation plumbing with it.
	docs, err := s.repo.ForTenant(nil).List(ctx, Collection, scoped.ListOpts{
		Filters:  filters,
		Order:    &docstore.Order{Field: "name_ci"},
		Limit:    limit,
		UseCache: useCache,
	})
	if err != nil {
		return nil, err
	}
	return docstore.DecodeAll[models.Organization](docs)
}

// Page returns one keyset page ordered by folded name, plus the cursor for
// the next page ("" on the last page). Folded names are unique, so the name
// alone is a total order and cursors never skip or repeat rows. Cursor pages
// are never cached.
func (s *Store) Page(ctx context.Context, after string, limit int64) ([]models.Organization, string, error) {
	if limit <= 0 {
		limit = docstore.DefaultLimit
	}
	q := docstore.Query{
		Order: &docstore.Order{Field: "name_ci"},
		Limit: limit,
	}
	if after != "" {
		if c, ok := wafflemongo.DecodeCursor(after); ok {
			q.StartAfter = c.CI
		}
	}
	docs, err := s.repo.Store().Query(ctx, Collection, q)
	if err != nil {
		return nil, "", err
	}
	orgs, err := docstore.DecodeAll[models.Organization](docs)
	if err != nil {
		return nil, "", err
	}
	next := ""
	if int64(len(orgs)) == limit && len(orgs) > 0 {
		last := orgs[len(orgs)-1]
		next = wafflemongo.EncodeCursor(last.NameCI, last.ID)
	}
	return orgs, next, nil
}

// GetByID loads one organization.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Organization, error) {
	var org models.Organization
	if err := s.repo.Store().Get(ctx, Collection, id, nil, &org); err != nil {
		return models.Organization{}, err
	}
	return org, nil
}

// Create inserts a tenant.
func (s *Store) Create(ctx context.Context, org models.Organization) (models.Organization, error) {
	org.ID = primitive.NewObjectID()
	org.NameCI = textfold.Fold(org.Name)
	if org.Status == "" {
		org.Status = status.Active
	}
	if _, err := s.repo.ForTenant(nil).Create(ctx, Collection, org); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Organization{}, ErrDuplicateOrganization
		}
		return models.Organization{}, err
	}
	return s.GetByID(ctx, org.ID)
}

// Update modifies an organization's mutable fields.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, org models.Organization) error {
	set := bson.M{}
	if org.Name != "" {
		set["name"] = org.Name
		set["name_ci"] = textfold.Fold(org.Name)
	}
	if org.Status != "" {
		st := status.Normalize(org.Status)
		if !status.IsValid(st) {
			return errors.New(`status must be "active"|"inactive"`)
		}
		set["status"] = st
	}
	if err := s.repo.ForTenant(nil).Update(ctx, Collection, id, set); err != nil {
		if wafflemongo.IsDup(err) {
			return ErrDuplicateOrganization
		}
		return err
	}
	return nil
}

// Delete removes an organization. It does NOT cascade: users, courses, and
// the rest of the tenant's records keep their organization_id and must be
// cleaned up or reassigned explicitly.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) error {
	return s.repo.ForTenant(nil).Delete(ctx, Collection, id)
}

// Count reports the total number of organizations.
func (s *Store) Count(ctx context.Context) (int64, error) {
	return s.repo.ForTenant(nil).Count(ctx, Collection, nil)
}
