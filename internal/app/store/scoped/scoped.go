// internal/app/store/scoped/scoped.go
//
// Package scoped centralizes the tenant-scoping policy. Collection services
// obtain a Scope from ForTenant and never build raw filters themselves, so a
// missed organization filter at a call site is structurally impossible: the
// filter is injected here or not at all.
package scoped

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/classdeck/classdeck/internal/app/store/cache"
	"github.com/classdeck/classdeck/internal/app/store/docstore"
)

// Repo bundles the document store adapter and the read-through cache.
type Repo struct {
	ds    *docstore.Store
	cache *cache.Cache
	log   *zap.Logger
}

func New(ds *docstore.Store, c *cache.Cache, log *zap.Logger) *Repo {
	return &Repo{ds: ds, cache: c, log: log}
}

// Store exposes the underlying adapter for platform-level collections
// (organizations, reconciliations) that are not tenant-scoped.
func (r *Repo) Store() *docstore.Store { return r.ds }

// Cache exposes the shared cache for the same platform-level collections.
func (r *Repo) Cache() *cache.Cache { return r.cache }

// ForTenant binds a tenant. A nil orgID means "all tenants" and is legal
// only on the super-admin path; every other caller passes its own
// organization id.
func (r *Repo) ForTenant(orgID *primitive.ObjectID) *Scope {
	return &Scope{repo: r, orgID: orgID}
}

// Scope is a repository handle with the tenant filter pre-bound.
type Scope struct {
	repo  *Repo
	orgID *primitive.ObjectID
}

// TenantID returns the bound organization id, nil for the all-tenants scope.
func (s *Scope) TenantID() *primitive.ObjectID { return s.orgID }

// ListOpts parameterizes a scoped list read.
type ListOpts struct {
	Filters    []docstore.Filter
	Order      *docstore.Order
	Limit      int64
	StartAfter any

	// UseCache routes the read through the TTL cache. Callers bypass it
	// when they need guaranteed-fresh data right after a write made through
	// a path that does not itself invalidate this collection.
	UseCache bool
}

// List runs a scoped, optionally cached read.
func (s *Scope) List(ctx context.Context, collection string, opts ListOpts) ([]bson.Raw, error) {
	q := docstore.Query{
		Filters:    s.withTenant(opts.Filters),
		Order:      opts.Order,
		Limit:      opts.Limit,
		StartAfter: opts.StartAfter,
	}

	// Cursor pages are not memoized; the key identifies the query shape,
	// not a position within it.
	useCache := opts.UseCache && opts.StartAfter == nil

	var key string
	if useCache {
		key = cache.Key(collection, q)
		if docs, ok := s.repo.cache.Get(key); ok {
			return docs, nil
		}
	}

	docs, err := s.repo.ds.Query(ctx, collection, q)
	if err != nil {
		return nil, err
	}
	if useCache {
		s.repo.cache.Set(key, docs)
	}
	return docs, nil
}

// Get loads one document, failing closed on tenant scope: when the scope is
// bound, the organization filter is part of the point read itself, so a
// foreign tenant's document reports not-found.
func (s *Scope) Get(ctx context.Context, collection string, id any, out any) error {
	return s.repo.ds.Get(ctx, collection, id, s.withTenant(nil), out)
}

// Create inserts a document. A bound scope stamps its organization id over
// whatever the document carried, then invalidates the collection's cache.
func (s *Scope) Create(ctx context.Context, collection string, doc any) (string, error) {
	var overrides bson.M
	if s.orgID != nil {
		overrides = bson.M{"organization_id": *s.orgID}
	}
	id, err := s.repo.ds.CreateWith(ctx, collection, doc, overrides)
	if err != nil {
		return "", err
	}
	s.repo.cache.Invalidate(collection)
	return id, nil
}

// Update applies a partial merge within the tenant scope and invalidates
// the collection's cache.
func (s *Scope) Update(ctx context.Context, collection string, id any, set bson.M) error {
	if err := s.repo.ds.Update(ctx, collection, id, set, s.withTenant(nil)...); err != nil {
		return err
	}
	s.repo.cache.Invalidate(collection)
	return nil
}

// UpdateUnset is Update plus removal of the named fields in the same write.
func (s *Scope) UpdateUnset(ctx context.Context, collection string, id any, set bson.M, unset []string) error {
	if err := s.repo.ds.UpdateUnset(ctx, collection, id, set, unset, s.withTenant(nil)...); err != nil {
		return err
	}
	s.repo.cache.Invalidate(collection)
	return nil
}

// Delete removes a document within the tenant scope and invalidates the
// collection's cache.
func (s *Scope) Delete(ctx context.Context, collection string, id any) error {
	if err := s.repo.ds.Delete(ctx, collection, id, s.withTenant(nil)...); err != nil {
		return err
	}
	s.repo.cache.Invalidate(collection)
	return nil
}

// Count returns the true scoped total, uncapped. GetAll-style reads stay
// capped at the default page size, so above the cap the two legitimately
// diverge.
func (s *Scope) Count(ctx context.Context, collection string, filters []docstore.Filter) (int64, error) {
	return s.repo.ds.Count(ctx, collection, s.withTenant(filters))
}

func (s *Scope) withTenant(filters []docstore.Filter) []docstore.Filter {
	if s.orgID == nil {
		return filters
	}
	out := make([]docstore.Filter, 0, len(filters)+1)
	out = append(out, filters...)
	out = append(out, docstore.Filter{Field: "organization_id", Value: *s.orgID})
	return out
}
