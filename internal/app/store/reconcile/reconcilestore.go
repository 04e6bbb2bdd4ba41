// internal/app/store/reconcile/reconcilestore.go
package reconcilestore

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/classdeck/classdeck/internal/app/store/docstore"
	"github.com/classdeck/classdeck/internal/app/store/scoped"
	"github.com/classdeck/classdeck/internal/domain/models"
)

const Collection = "reconciliations"

var errBadKind = errors.New(`kind must be "orphaned_identity"|"unlinked_profile"`)

func validKind(kind string) bool {
	return kind == models.ReconcileOrphanedIdentity || kind == models.ReconcileUnlinkedProfile
}

// Store persists reconciliation markers. Markers are platform-level: they
// describe identity/profile pairs, not tenant data, and only super-admin
// tooling reads them.
type Store struct {
	repo *scoped.Repo
}

func New(repo *scoped.Repo) *Store {
	return &Store{repo: repo}
}

// Record writes a marker. Best-effort callers may ignore the error; losing a
// marker degrades repair to manual discovery, it does not corrupt data.
func (s *Store) Record(ctx context.Context, r models.Reconciliation) (models.Reconciliation, error) {
	if !validKind(r.Kind) {
		return models.Reconciliation{}, errBadKind
	}
	if r.Email == "" {
		return models.Reconciliation{}, errors.New("marker email is required")
	}
	r.ID = primitive.NewObjectID()
	r.Resolved = false
	r.ResolvedAt = nil
	if _, err := s.repo.ForTenant(nil).Create(ctx, Collection, r); err != nil {
		return models.Reconciliation{}, err
	}
	return s.GetByID(ctx, r.ID)
}

// GetByID loads one marker.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Reconciliation, error) {
	var r models.Reconciliation
	if err := s.repo.Store().Get(ctx, Collection, id, nil, &r); err != nil {
		return models.Reconciliation{}, err
	}
	return r, nil
}

// ListOpen lists unresolved markers, oldest first so the backlog drains in
// order.
func (s *Store) ListOpen(ctx context.Context, limit int64) ([]models.Reconciliation, error) {
	return s.list(ctx, []docstore.Filter{{Field: "resolved", Value: false}}, limit)
}

// ListOpenByKind lists unresolved markers of one kind.
func (s *Store) ListOpenByKind(ctx context.Context, kind string, limit int64) ([]models.Reconciliation, error) {
	if !validKind(kind) {
		return nil, errBadKind
	}
	return s.list(ctx, []docstore.Filter{
		{Field: "resolved", Value: false},
		{Field: "kind", Value: kind},
	}, limit)
}

func (s *Store) list(ctx context.Context, filters []docstore.Filter, limit int64) ([]models.Reconciliation, error) {
	// Markers are an operator backlog; caching a repair queue would only
	// hide progress, so reads always hit the store.
	docs, err := s.repo.ForTenant(nil).List(ctx, Collection, scoped.ListOpts{
		Filters: filters,
		Order:   &docstore.Order{Field: "created_at"},
		Limit:   limit,
	})
	if err != nil {
		return nil, err
	}
	return docstore.DecodeAll[models.Reconciliation](docs)
}

// FindOpenBySubject returns the oldest unresolved marker for an identity
// subject, or docstore.ErrNotFound.
func (s *Store) FindOpenBySubject(ctx context.Context, subject string) (models.Reconciliation, error) {
	docs, err := s.repo.Store().Query(ctx, Collection, docstore.Query{
		Filters: []docstore.Filter{
			{Field: "resolved", Value: false},
			{Field: "subject", Value: subject},
		},
		Order: &docstore.Order{Field: "created_at"},
		Limit: 1,
	})
	if err != nil {
		return models.Reconciliation{}, err
	}
	if len(docs) == 0 {
		return models.Reconciliation{}, docstore.ErrNotFound
	}
	var r models.Reconciliation
	if err := bson.Unmarshal(docs[0], &r); err != nil {
		return models.Reconciliation{}, err
	}
	return r, nil
}

// Resolve closes a marker with a note about what was done.
func (s *Store) Resolve(ctx context.Context, id primitive.ObjectID, note string) error {
	now := time.Now().UTC()
	set := bson.M{
		"resolved":    true,
		"resolved_at": now,
	}
	if note != "" {
		set["note"] = note
	}
	return s.repo.ForTenant(nil).Update(ctx, Collection, id, set)
}

// CountOpen reports the unresolved backlog size.
func (s *Store) CountOpen(ctx context.Context) (int64, error) {
	return s.repo.ForTenant(nil).Count(ctx, Collection, []docstore.Filter{{Field: "resolved", Value: false}})
}
