// internal/app/store/users/userstore.go
package userstore

import (
	"context"
	"errors"

	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	textfold "github.com/dalemusser/waffle/pantry/text"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/classdeck/classdeck/internal/app/store/docstore"
	"github.com/classdeck/classdeck/internal/app/store/scoped"
	"github.com/classdeck/classdeck/internal/app/system/normalize"
	"github.com/classdeck/classdeck/internal/app/system/status"
	"github.com/classdeck/classdeck/internal/domain/models"
	"github.com/classdeck/classdeck/internal/domain/roles"
)

// Collection is the backing collection name; cache invalidation keys off it.
const Collection = "users"

var (
	// ErrDuplicateEmail is returned when attempting to create a user with an
	// email that already exists.
	ErrDuplicateEmail = errors.New("a user with this email already exists")

	errBadStatus        = errors.New(`status must be "active"|"inactive"`)
	errBadRole          = errors.New(`role must be "student"|"teacher"|"admin"|"superAdmin"`)
	errOrgRequired      = errors.New("students, teachers, and admins must have organization_id")
	errOrgForbidden     = errors.New("super-admins must not have organization_id")
	errClassesRequired  = errors.New("students must reference at least one class")
	errClassesForbidden = errors.New("only students may carry class references")
)

// Store holds the user-profile accessors. All reads and writes go through
// the scoped repository; this package owns only the profile invariants.
type Store struct {
	repo *scoped.Repo
}

func New(repo *scoped.Repo) *Store {
	return &Store{repo: repo}
}

// ForTenant returns profile accessors bound to one organization. Passing nil
// binds the all-tenants scope, which only the super-admin path may use.
func (s *Store) ForTenant(orgID *primitive.ObjectID) *Scoped {
	return &Scoped{store: s, scope: s.repo.ForTenant(orgID)}
}

// Scoped is the tenant-bound view of the users collection.
type Scoped struct {
	store *Store
	scope *scoped.Scope
}

// GetAll lists profiles in scope, newest first. limit <= 0 applies the
// default page cap.
func (sc *Scoped) GetAll(ctx context.Context, limit int64, useCache bool) ([]models.UserProfile, error) {
	return sc.list(ctx, nil, limit, useCache)
}

// GetByRole lists profiles with the given role in scope. The role filter is
// always present and normalized; an invalid role is an error, never an
// unfiltered query.
func (sc *Scoped) GetByRole(ctx context.Context, role string, limit int64, useCache bool) ([]models.UserProfile, error) {
	r, err := roles.ParseStrict(role)
	if err != nil {
		return nil, errBadRole
	}
	return sc.list(ctx, []docstore.Filter{{Field: "role", Value: r.String()}}, limit, useCache)
}

// GetByStatus lists profiles with the given status in scope.
func (sc *Scoped) GetByStatus(ctx context.Context, st string, limit int64, useCache bool) ([]models.UserProfile, error) {
	st = status.Normalize(st)
	if !status.IsValid(st) {
		return nil, errBadStatus
	}
	return sc.list(ctx, []docstore.Filter{{Field: "status", Value: st}}, limit, useCache)
}

func (sc *Scoped) list(ctx context.Context, filters []docstore.Filter, limit int64, useCache bool) ([]models.UserProfile, error) {
	docs, err := sc.scope.List(ctx, Collection, scoped.ListOpts{
		Filters:  filters,
		Order:    &docstore.Order{Field: "created_at", Desc: true},
		Limit:    limit,
		UseCache: useCache,
	})
	if err != nil {
		return nil, err
	}
	users, err := docstore.DecodeAll[models.UserProfile](docs)
	if err != nil {
		return nil, err
	}
	for i := range users {
		normalizeProfile(&users[i])
	}
	return users, nil
}

// GetByID loads one profile in scope; a foreign tenant's profile reports
// docstore.ErrNotFound.
func (sc *Scoped) GetByID(ctx context.Context, id string) (*models.UserProfile, error) {
	var u models.UserProfile
	if err := sc.scope.Get(ctx, Collection, id, &u); err != nil {
		return nil, err
	}
	normalizeProfile(&u)
	return &u, nil
}

// Count reports the true scoped total. Above the default page cap this
// legitimately exceeds len(GetAll()).
func (sc *Scoped) Count(ctx context.Context) (int64, error) {
	return sc.scope.Count(ctx, Collection, nil)
}

// CountByRole reports the scoped total for one role.
func (sc *Scoped) CountByRole(ctx context.Context, role string) (int64, error) {
	r, err := roles.ParseStrict(role)
	if err != nil {
		return 0, errBadRole
	}
	return sc.scope.Count(ctx, Collection, []docstore.Filter{{Field: "role", Value: r.String()}})
}

// ProfileUpdate holds the fields edit forms may change.
type ProfileUpdate struct {
	Name           string
	Phone          string
	Role           roles.Role
	Status         string
	OrganizationID *primitive.ObjectID
	ClassIDs       []string
}

// Update rewrites a profile's mutable fields after re-checking the role
// invariants. The email and the document id never change here; re-keying a
// profile to a new identity subject is the repair utility's job.
func (sc *Scoped) Update(ctx context.Context, id string, upd ProfileUpdate) error {
	u := models.UserProfile{
		Name:           upd.Name,
		Phone:          upd.Phone,
		Role:           upd.Role,
		Status:         upd.Status,
		OrganizationID: upd.OrganizationID,
		ClassIDs:       upd.ClassIDs,
	}
	if err := validateProfile(&u); err != nil {
		return err
	}

	set := bson.M{
		"name":    u.Name,
		"name_ci": textfold.Fold(u.Name),
		"phone":   u.Phone,
		"role":    u.Role.String(),
		"status":  u.Status,
	}
	// A role change can strip fields the new role must not carry: a
	// promotion to super-admin leaves no organization_id behind, and
	// non-students hold no class list.
	var unset []string
	if u.OrganizationID != nil {
		set["organization_id"] = *u.OrganizationID
	} else {
		unset = append(unset, "organization_id")
	}
	if len(u.ClassIDs) > 0 {
		set["class_ids"] = u.ClassIDs
	} else {
		unset = append(unset, "class_ids")
	}
	if len(unset) > 0 {
		return sc.scope.UpdateUnset(ctx, Collection, id, set, unset)
	}
	return sc.scope.Update(ctx, Collection, id, set)
}

// Delete removes the profile document. The identity-provider account is
// intentionally left in place; callers that care record a reconciliation
// marker so the orphaned identity is findable later.
func (sc *Scoped) Delete(ctx context.Context, id string) error {
	return sc.scope.Delete(ctx, Collection, id)
}

// Create inserts a profile under a generated id. Used by the provisioning
// workflow's no-password path; the resulting profile cannot sign in until
// re-keyed to a real identity subject.
func (s *Store) Create(ctx context.Context, u models.UserProfile) (models.UserProfile, error) {
	u.ID = uuid.NewString()
	return s.insert(ctx, u)
}

// CreateWithID inserts a profile whose id is the identity provider's subject
// id, the linkage that makes sign-in resolve to this profile.
func (s *Store) CreateWithID(ctx context.Context, id string, u models.UserProfile) (models.UserProfile, error) {
	u.ID = id
	return s.insert(ctx, u)
}

func (s *Store) insert(ctx context.Context, u models.UserProfile) (models.UserProfile, error) {
	u.Email = normalize.Email(u.Email)
	u.Name = normalize.Name(u.Name)
	u.NameCI = textfold.Fold(u.Name)
	u.Phone = normalize.Phone(u.Phone)
	if u.Status == "" {
		u.Status = status.Active
	}
	if err := validateProfile(&u); err != nil {
		return models.UserProfile{}, err
	}

	// Route through the tenant scope so organization_id stamping and cache
	// invalidation are uniform with every other write.
	if _, err := s.repo.ForTenant(u.OrganizationID).Create(ctx, Collection, u); err != nil {
		if wafflemongo.IsDup(err) {
			return models.UserProfile{}, ErrDuplicateEmail
		}
		return models.UserProfile{}, err
	}

	// Read back for the adapter-stamped timestamps.
	created, err := s.GetByID(ctx, u.ID)
	if err != nil {
		return models.UserProfile{}, err
	}
	return *created, nil
}

// GetByID loads a profile by id across all tenants. The session fetcher and
// the repair utility use this; page-level callers go through ForTenant.
func (s *Store) GetByID(ctx context.Context, id string) (*models.UserProfile, error) {
	var u models.UserProfile
	if err := s.repo.Store().Get(ctx, Collection, id, nil, &u); err != nil {
		return nil, err
	}
	normalizeProfile(&u)
	return &u, nil
}

// Delete removes a profile across all tenants. Repair tooling only;
// page-level deletion goes through the tenant scope.
func (s *Store) Delete(ctx context.Context, id string) error {
	return s.repo.ForTenant(nil).Delete(ctx, Collection, id)
}

// GetByEmail looks a profile up by normalized email across all tenants.
// Returns docstore.ErrNotFound when absent.
func (s *Store) GetByEmail(ctx context.Context, email string) (*models.UserProfile, error) {
	docs, err := s.repo.Store().Query(ctx, Collection, docstore.Query{
		Filters: []docstore.Filter{{Field: "email", Value: normalize.Email(email)}},
		Limit:   1,
	})
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, docstore.ErrNotFound
	}
	var u models.UserProfile
	if err := bson.Unmarshal(docs[0], &u); err != nil {
		return nil, err
	}
	normalizeProfile(&u)
	return &u, nil
}

// validateProfile enforces the profile invariants shared by create and
// update. It normalizes the status default but does not touch identity
// fields.
func validateProfile(u *models.UserProfile) error {
	if !u.Role.IsValid() {
		return errBadRole
	}
	if !status.IsValid(u.Status) {
		return errBadStatus
	}
	if u.Role.RequiresOrganization() && u.OrganizationID == nil {
		return errOrgRequired
	}
	if !u.Role.RequiresOrganization() && u.OrganizationID != nil {
		return errOrgForbidden
	}
	if u.Role.RequiresClasses() && len(u.ClassIDs) == 0 {
		return errClassesRequired
	}
	if !u.Role.RequiresClasses() && len(u.ClassIDs) > 0 {
		return errClassesForbidden
	}
	return nil
}

// normalizeProfile canonicalizes values read from the store: role casing is
// normalized exactly once, here at the boundary.
func normalizeProfile(u *models.UserProfile) {
	u.Role = roles.Parse(string(u.Role))
	u.Status = status.Normalize(u.Status)
}
