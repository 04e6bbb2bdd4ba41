// internal/app/system/authz/authz.go
package authz

import (
	"net/http"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/classdeck/classdeck/internal/app/system/auth"
	"github.com/classdeck/classdeck/internal/domain/roles"
)

// Actor is the capability-check view of a signed-in user. Checks take an
// Actor rather than a request so workflows and tests can call them without
// HTTP plumbing.
type Actor struct {
	UserID         string
	Role           roles.Role
	OrganizationID *primitive.ObjectID
}

// ActorFromRequest resolves the request's session user into an Actor. The
// found flag is false for anonymous requests; absent or unknown roles
// resolve to the least-privileged one, never to an elevated default.
func ActorFromRequest(r *http.Request) (Actor, bool) {
	u, ok := auth.CurrentUser(r)
	if !ok {
		return Actor{Role: roles.Student}, false
	}
	return Actor{
		UserID:         u.ID,
		Role:           roles.Parse(u.Role.String()),
		OrganizationID: u.OrganizationID,
	}, true
}

// IsSuperAdmin reports whether the actor operates at platform level.
func (a Actor) IsSuperAdmin() bool {
	return a.Role == roles.SuperAdmin
}

// IsAdmin reports whether the actor administers an organization. Super-admins
// count as admins for permission purposes.
func (a Actor) IsAdmin() bool {
	return a.Role == roles.Admin || a.Role == roles.SuperAdmin
}

// CanListOrganizations gates the tenant directory: platform level only.
func (a Actor) CanListOrganizations() bool {
	return a.IsSuperAdmin()
}

// CanManageOrganizations gates tenant create/update/delete.
func (a Actor) CanManageOrganizations() bool {
	return a.IsSuperAdmin()
}

// CanCreateUser reports whether the actor may provision a profile with the
// given role into the given organization. Creating admins is platform-level
// only; admins and teachers provision teachers and students into their own
// tenant; super-admins provision anyone anywhere.
func (a Actor) CanCreateUser(role roles.Role, orgID *primitive.ObjectID) bool {
	if a.IsSuperAdmin() {
		return true
	}
	if role == roles.Admin || role == roles.SuperAdmin {
		return false
	}
	if a.Role != roles.Admin && a.Role != roles.Teacher {
		return false
	}
	return a.OrganizationID != nil && orgID != nil && *a.OrganizationID == *orgID
}

// CanManageProfile reports whether the actor may edit or delete the profile
// living in ownerOrg. There is no self-service path: a non-admin cannot
// manage any profile, their own included.
func (a Actor) CanManageProfile(ownerOrg *primitive.ObjectID) bool {
	if a.IsSuperAdmin() {
		return true
	}
	if a.Role != roles.Admin {
		return false
	}
	return a.OrganizationID != nil && ownerOrg != nil && *a.OrganizationID == *ownerOrg
}

// CanViewReconciliations gates the repair backlog.
func (a Actor) CanViewReconciliations() bool {
	return a.IsSuperAdmin()
}

// CanAccessOrg reports whether the actor may read the given tenant's data.
func (a Actor) CanAccessOrg(orgID primitive.ObjectID) bool {
	if a.IsSuperAdmin() {
		return true
	}
	return a.OrganizationID != nil && *a.OrganizationID == orgID
}

// ScopeFor returns the tenant id every store call on behalf of this actor
// must be bound to. Super-admins get the all-tenants scope (nil); everyone
// else gets exactly their own organization. The second return is false when
// the actor has no usable scope at all, which callers must treat as deny.
func (a Actor) ScopeFor() (*primitive.ObjectID, bool) {
	if a.IsSuperAdmin() {
		return nil, true
	}
	if a.OrganizationID == nil {
		// A tenant role with no organization is a broken profile; no
		// scope can be derived so nothing may be read.
		return nil, false
	}
	return a.OrganizationID, true
}
