// internal/app/store/batches/batchstore.go
package batchstore

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

const Collection = "batches"

type Store struct {
	repo *scoped.Repo
}

func New(repo *scoped.Repo) *Store {
	return &Store{repo: repo}
}

func (s *Store) ForTenant(orgID *primitive.ObjectID) *Scoped {
	return &Scoped{scope: s.repo.ForTenant(orgID)}
}

type Scoped struct {
	scope *scoped.Scope
}

func (sc *Scoped) GetAll(ctx context.Context, limit int64, useCache bool) ([]models.Batch, error) {
	return sc.list(ctx, nil, limit, useCache)
}

// GetByCourse lists batches attached to one course within the scope.
func (sc *Scoped) GetByCourse(ctx context.Context, courseID primitive.ObjectID, limit int64, useCache bool) ([]models.Batch, error) {
	return sc.list(ctx, []docstore.Filter{{Field: "course_id", Value: courseID}}, limit, useCache)
}

// GetByTeacher lists batches run by one teacher profile within the scope.
func (sc *Scoped) GetByTeacher(ctx context.Context, teacherID string, limit int64, useCache bool) ([]models.Batch, error) {
	return sc.list(ctx, []docstore.Filter{{Field: "teacher_id", Value: teacherID}}, limit, useCache)
}

func (sc *Scoped) list(ctx context.Context, filters []docstore.Filter, limit int64, useCache bool) ([]models.Batch, error) {
	docs, err := sc.scope.List(ctx, Collection, scoped.ListOpts{
		Filters:  filters,
		Order:    &docstore.Order{Field: "name_ci"},
		Limit:    limit,
		UseCache: useCache,
	})
	if err != nil {
		return nil, err
	}
	return docstore.DecodeAll[models.Batch](docs)
}

func (sc *Scoped) GetByID(ctx context.Context, id primitive.ObjectID) (models.Batch, error) {
	var b models.Batch
	if err := sc.scope.Get(ctx, Collection, id, &b); err != nil {
		return models.Batch{}, err
	}
	return b, nil
}

func (sc *Scoped) Create(ctx context.Context, b models.Batch) (models.Batch, error) {
	if b.Name == "" {
		return models.Batch{}, errors.New("batch name is required")
	}
	if sc.scope.TenantID() == nil && b.OrganizationID.IsZero() {
		return models.Batch{}, errors.New("batch must belong to an organization")
	}
	b.ID = primitive.NewObjectID()
	b.NameCI = textfold.Fold(b.Name)
	if b.Status == "" {
		b.Status = status.Active
	}
	if _, err := sc.scope.Create(ctx, Collection, b); err != nil {
		return models.Batch{}, err
	}
	return sc.GetByID(ctx, b.ID)
}

func (sc *Scoped) Update(ctx context.Context, id primitive.ObjectID, b models.Batch) error {
	set := bson.M{}
	if b.Name != "" {
		set["name"] = b.Name
		set["name_ci"] = textfold.Fold(b.Name)
	}
	if b.CourseID != nil {
		set["course_id"] = *b.CourseID
	}
	if b.TeacherID != "" {
		set["teacher_id"] = b.TeacherID
	}
	if b.StartDate != nil {
		set["start_date"] = *b.StartDate
	}
	if b.Status != "" {
		st := status.Normalize(b.Status)
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
