// internal/app/store/courses/coursestore.go
package coursestore

import (
	"context"
	"errors"

	textfold "github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/classdeck/classdeck/internal/app/store/docstore"
	"github.com/classdeck/classdeck/internal/app/store/scoped"
	"github.com/classdeck/classdeck/internal/app/system/status"
	"github.com/classdeck/classdeck/internal/domain/models"
)

const Collection = "courses"

var errTitleRequired = errors.New("course title is required")

type Store struct {
	repo *scoped.Repo
}

func New(repo *scoped.Repo) *Store {
	return &Store{repo: repo}
}

// ForTenant returns course accessors bound to one organization; nil binds
// the all-tenants scope (super-admin only).
func (s *Store) ForTenant(orgID *primitive.ObjectID) *Scoped {
	return &Scoped{scope: s.repo.ForTenant(orgID)}
}

type Scoped struct {
	scope *scoped.Scope
}

func (sc *Scoped) GetAll(ctx context.Context, limit int64, useCache bool) ([]models.Course, error) {
	return sc.list(ctx, nil, limit, useCache)
}

func (sc *Scoped) GetByStatus(ctx context.Context, st string, limit int64, useCache bool) ([]models.Course, error) {
	st = status.Normalize(st)
	if !status.IsValid(st) {
		return nil, errors.New(`status must be "active"|"inactive"`)
	}
	return sc.list(ctx, []docstore.Filter{{Field: "status", Value: st}}, limit, useCache)
}

func (sc *Scoped) list(ctx context.Context, filters []docstore.Filter, limit int64, useCache bool) ([]models.Course, error) {
	docs, err := sc.scope.List(ctx, Collection, scoped.ListOpts{
		Filters:  filters,
		Order:    &docstore.Order{Field: "title_ci"},
		Limit:    limit,
		UseCache: useCache,
	})
	if err != nil {
		return nil, err
	}
	return docstore.DecodeAll[models.Course](docs)
}

func (sc *Scoped) GetByID(ctx context.Context, id primitive.ObjectID) (models.Course, error) {
	var c models.Course
	if err := sc.scope.Get(ctx, Collection, id, &c); err != nil {
		return models.Course{}, err
	}
	return c, nil
}

func (sc *Scoped) Create(ctx context.Context, c models.Course) (models.Course, error) {
	if c.Title == "" {
		return models.Course{}, errTitleRequired
	}
	if sc.scope.TenantID() == nil && c.OrganizationID.IsZero() {
		return models.Course{}, errors.New("course must belong to an organization")
	}
	c.ID = primitive.NewObjectID()
	c.TitleCI = textfold.Fold(c.Title)
	if c.Status == "" {
		c.Status = status.Active
	}
	if _, err := sc.scope.Create(ctx, Collection, c); err != nil {
		return models.Course{}, err
	}
	return sc.GetByID(ctx, c.ID)
}

func (sc *Scoped) Update(ctx context.Context, id primitive.ObjectID, c models.Course) error {
	set := bson.M{}
	if c.Title != "" {
		set["title"] = c.Title
		set["title_ci"] = textfold.Fold(c.Title)
	}
	if c.Description != "" {
		set["description"] = c.Description
	}
	if c.Schedule != "" {
		set["schedule"] = c.Schedule
	}
	if c.Status != "" {
		st := status.Normalize(c.Status)
		if !status.IsValid(st) {
			return errors.New(`status must be "active"|"inactive"`)
		}
		set["status"] = st
	}
	return sc.scope.Update(ctx, Collection, id, set)
}

func (sc *Scoped) Delete(ctx context.Context, id primitive.ObjectID) error {
	return sc.scope.Delete(ctx, Collection, id)
}

func (sc *Scoped) Count(ctx context.Context) (int64, error) {
	return sc.scope.Count(ctx, Collection, nil)
}
