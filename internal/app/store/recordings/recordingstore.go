// internal/app/store/recordings/recordingstore.go
package recordingstore

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

const Collection = "recordings"

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

// GetAll lists recordings newest first.
func (sc *Scoped) GetAll(ctx context.Context, limit int64, useCache bool) ([]models.Recording, error) {
	return sc.list(ctx, nil, limit, useCache)
}

// GetByCourse lists recordings for one course within the scope.
func (sc *Scoped) GetByCourse(ctx context.Context, courseID primitive.ObjectID, limit int64, useCache bool) ([]models.Recording, error) {
	return sc.list(ctx, []docstore.Filter{{Field: "course_id", Value: courseID}}, limit, useCache)
}

// GetByBatch lists recordings for one batch within the scope.
func (sc *Scoped) GetByBatch(ctx context.Context, batchID primitive.ObjectID, limit int64, useCache bool) ([]models.Recording, error) {
	return sc.list(ctx, []docstore.Filter{{Field: "batch_id", Value: batchID}}, limit, useCache)
}

func (sc *Scoped) list(ctx context.Context, filters []docstore.Filter, limit int64, useCache bool) ([]models.Recording, error) {
	docs, err := sc.scope.List(ctx, Collection, scoped.ListOpts{
		Filters:  filters,
		Order:    &docstore.Order{Field: "created_at", Desc: true},
		Limit:    limit,
		UseCache: useCache,
	})
	if err != nil {
		return nil, err
	}
	return docstore.DecodeAll[models.Recording](docs)
}

func (sc *Scoped) GetByID(ctx context.Context, id primitive.ObjectID) (models.Recording, error) {
	var r models.Recording
	if err := sc.scope.Get(ctx, Collection, id, &r); err != nil {
		return models.Recording{}, err
	}
	return r, nil
}

func (sc *Scoped) Create(ctx context.Context, r models.Recording) (models.Recording, error) {
	if r.Title == "" || r.VideoURL == "" {
		return models.Recording{}, errors.New("recording title and video URL are required")
	}
	if sc.scope.TenantID() == nil && r.OrganizationID.IsZero() {
		return models.Recording{}, errors.New("recording must belong to an organization")
	}
	r.ID = primitive.NewObjectID()
	r.TitleCI = textfold.Fold(r.Title)
	if r.Status == "" {
		r.Status = status.Active
	}
	if _, err := sc.scope.Create(ctx, Collection, r); err != nil {
		return models.Recording{}, err
	}
	return sc.GetByID(ctx, r.ID)
}

func (sc *Scoped) Update(ctx context.Context, id primitive.ObjectID, r models.Recording) error {
	set := bson.M{}
	if r.Title != "" {
		set["title"] = r.Title
		set["title_ci"] = textfold.Fold(r.Title)
	}
	if r.VideoURL != "" {
		set["video_url"] = r.VideoURL
	}
	if r.CourseID != nil {
		set["course_id"] = *r.CourseID
	}
	if r.BatchID != nil {
		set["batch_id"] = *r.BatchID
	}
	if r.Status != "" {
		st := status.Normalize(r.Status)
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
