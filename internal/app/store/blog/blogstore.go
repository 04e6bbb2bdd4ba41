// internal/app/store/blog/blogstore.go
package blogstore

import (
	"context"
	"errors"

	textfold "github.com/dalemusser/waffle/pantry/text"
	"github.com/microcosm-cc/bluemonday"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/classdeck/classdeck/internal/app/store/docstore"
	"github.com/classdeck/classdeck/internal/app/store/scoped"
	"github.com/classdeck/classdeck/internal/domain/models"
)

const Collection = "blog_posts"

// Body HTML is sanitized once, on write. Reads serve the stored markup as-is.
var sanitizer = bluemonday.UGCPolicy()

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

// GetAll lists posts newest first, drafts included.
func (sc *Scoped) GetAll(ctx context.Context, limit int64, useCache bool) ([]models.BlogPost, error) {
	return sc.list(ctx, nil, limit, useCache)
}

// GetPublished lists only published posts, newest first.
func (sc *Scoped) GetPublished(ctx context.Context, limit int64, useCache bool) ([]models.BlogPost, error) {
	return sc.list(ctx, []docstore.Filter{{Field: "published", Value: true}}, limit, useCache)
}

func (sc *Scoped) list(ctx context.Context, filters []docstore.Filter, limit int64, useCache bool) ([]models.BlogPost, error) {
	docs, err := sc.scope.List(ctx, Collection, scoped.ListOpts{
		Filters:  filters,
		Order:    &docstore.Order{Field: "created_at", Desc: true},
		Limit:    limit,
		UseCache: useCache,
	})
	if err != nil {
		return nil, err
	}
	return docstore.DecodeAll[models.BlogPost](docs)
}

func (sc *Scoped) GetByID(ctx context.Context, id primitive.ObjectID) (models.BlogPost, error) {
	var p models.BlogPost
	if err := sc.scope.Get(ctx, Collection, id, &p); err != nil {
		return models.BlogPost{}, err
	}
	return p, nil
}

func (sc *Scoped) Create(ctx context.Context, p models.BlogPost) (models.BlogPost, error) {
	if p.Title == "" {
		return models.BlogPost{}, errors.New("post title is required")
	}
	if sc.scope.TenantID() == nil && p.OrganizationID.IsZero() {
		return models.BlogPost{}, errors.New("post must belong to an organization")
	}
	p.ID = primitive.NewObjectID()
	p.TitleCI = textfold.Fold(p.Title)
	p.Body = sanitizer.Sanitize(p.Body)
	if _, err := sc.scope.Create(ctx, Collection, p); err != nil {
		return models.BlogPost{}, err
	}
	return sc.GetByID(ctx, p.ID)
}

func (sc *Scoped) Update(ctx context.Context, id primitive.ObjectID, p models.BlogPost) error {
	set := bson.M{}
	if p.Title != "" {
		set["title"] = p.Title
		set["title_ci"] = textfold.Fold(p.Title)
	}
	if p.Body != "" {
		set["body"] = sanitizer.Sanitize(p.Body)
	}
	return sc.scope.Update(ctx, Collection, id, set)
}

// SetPublished flips the draft/published flag.
func (sc *Scoped) SetPublished(ctx context.Context, id primitive.ObjectID, published bool) error {
	return sc.scope.Update(ctx, Collection, id, bson.M{"published": published})
}

func (sc *Scoped) Delete(ctx context.Context, id primitive.ObjectID) error {
	return sc.scope.Delete(ctx, Collection, id)
}

func (sc *Scoped) Count(ctx context.Context) (int64, error) {
	return sc.scope.Count(ctx, Collection, nil)
}
