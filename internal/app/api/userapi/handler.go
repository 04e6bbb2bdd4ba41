// internal/app/api/userapi/handler.go
package userapi

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/classdeck/classdeck/internal/app/api/respond"
	"github.com/classdeck/classdeck/internal/app/provision"
	userstore "github.com/classdeck/classdeck/internal/app/store/users"
	"github.com/classdeck/classdeck/internal/app/system/auth"
	"github.com/classdeck/classdeck/internal/app/system/authz"
	"github.com/classdeck/classdeck/internal/app/system/identity"
	"github.com/classdeck/classdeck/internal/app/system/timeouts"
	"github.com/classdeck/classdeck/internal/domain/models"
	"github.com/classdeck/classdeck/internal/domain/roles"
)

// Handler manages user profiles: listing, provisioning, editing, deleting.
type Handler struct {
	Users     *userstore.Store
	Provision *provision.Workflow
	Identity  identity.Provider
	Log       *zap.Logger
}

func NewHandler(users *userstore.Store, workflow *provision.Workflow, provider identity.Provider, log *zap.Logger) *Handler {
	return &Handler{Users: users, Provision: workflow, Identity: provider, Log: log}
}

func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	manage := auth.RequireRole(roles.Admin, roles.SuperAdmin)
	// Teachers may provision students and teachers into their own org; all
	// other profile management stays admin-level.
	enroll := auth.RequireRole(roles.Teacher, roles.Admin, roles.SuperAdmin)

	r.With(manage).Get("/", h.ServeList)
	r.With(enroll).Post("/", h.ServeCreate)
	r.With(manage).Get("/{id}", h.ServeGet)
	r.With(manage).Put("/{id}", h.ServeUpdate)
	r.With(manage).Delete("/{id}", h.ServeDelete)
	return r
}

// scopedStore resolves the actor's tenant scope or writes the error.
func (h *Handler) scopedStore(w http.ResponseWriter, r *http.Request) (*userstore.Scoped, authz.Actor, bool) {
	actor, _ := authz.ActorFromRequest(r)
	scope, ok := actor.ScopeFor()
	if !ok {
		respond.Error(w, http.StatusForbidden, "no usable tenant scope")
		return nil, actor, false
	}
	return h.Users.ForTenant(scope), actor, true
}

func listParams(r *http.Request) (limit int64, useCache bool) {
	limit = 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
			limit = n
		}
	}
	return limit, r.URL.Query().Get("cache") != "false"
}

// ServeList returns profiles in the caller's scope, optionally filtered by
// role or status. The payload carries the true scoped count alongside the
// page, which can legitimately be larger than the page itself.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	scoped, _, ok := h.scopedStore(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	limit, useCache := listParams(r)

	var (
		users []models.UserProfile
		err   error
	)
	switch {
	case r.URL.Query().Get("role") != "":
		users, err = scoped.GetByRole(ctx, r.URL.Query().Get("role"), limit, useCache)
	case r.URL.Query().Get("status") != "":
		users, err = scoped.GetByStatus(ctx, r.URL.Query().Get("status"), limit, useCache)
	default:
		users, err = scoped.GetAll(ctx, limit, useCache)
	}
	if err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	var total int64
	if role := r.URL.Query().Get("role"); role != "" {
		total, err = scoped.CountByRole(ctx, role)
	} else {
		total, err = scoped.Count(ctx)
	}
	if err != nil {
		h.Log.Warn("user count failed", zap.Error(err))
		total = int64(len(users))
	}

	respond.JSON(w, http.StatusOK, map[string]any{
		"users": users,
		"total": total,
	})
}

type createRequest struct {
	Email          string   `json:"email"`
	Name           string   `json:"name"`
	Phone          string   `json:"phone"`
	Password       string   `json:"password"`
	Role           string   `json:"role"`
	OrganizationID string   `json:"organization_id"`
	ClassIDs       []string `json:"class_ids"`
}

// ServeCreate provisions a new user. Admins always provision into their own
// organization; the body's organization_id only matters for super-admins.
func (h *Handler) ServeCreate(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if !respond.Decode(w, r, &req) {
		return
	}

	actor, _ := authz.ActorFromRequest(r)

	role, err := roles.ParseStrict(req.Role)
	if err != nil {
		respond.Fields(w, []provision.FieldError{{Field: "role", Message: "unknown role"}})
		return
	}

	var orgID *primitive.ObjectID
	if actor.IsSuperAdmin() {
		if req.OrganizationID != "" {
			oid, err := primitive.ObjectIDFromHex(req.OrganizationID)
			if err != nil {
				respond.Fields(w, []provision.FieldError{{Field: "organization_id", Message: "malformed id"}})
				return
			}
			orgID = &oid
		}
	} else {
		orgID = actor.OrganizationID
	}

	if !actor.CanCreateUser(role, orgID) {
		respond.Error(w, http.StatusForbidden, "forbidden")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	res, err := h.Provision.Provision(ctx, provision.Input{
		Email:    req.Email,
		Name:     req.Name,
		Phone:    req.Phone,
		Password: req.Password,
		Role:     role,
		Profile: models.UserProfile{
			OrganizationID: orgID,
			ClassIDs:       req.ClassIDs,
		},
	})
	if err != nil {
		respond.StoreError(w, h.Log, "provision user", err)
		return
	}

	respond.JSON(w, http.StatusCreated, map[string]any{
		"user":            res.Profile,
		"linked_identity": res.LinkedIdentity,
		"warning":         res.Warning,
	})
}

func (h *Handler) ServeGet(w http.ResponseWriter, r *http.Request) {
	scoped, _, ok := h.scopedStore(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	u, err := scoped.GetByID(ctx, chi.URLParam(r, "id"))
	if err != nil {
		respond.StoreError(w, h.Log, "get user", err)
		return
	}
	respond.JSON(w, http.StatusOK, u)
}

type updateRequest struct {
	Name     string   `json:"name"`
	Phone    string   `json:"phone"`
	Role     string   `json:"role"`
	Status   string   `json:"status"`
	ClassIDs []string `json:"class_ids"`
}

// ServeUpdate rewrites a profile's mutable fields. The organization never
// changes through this endpoint; moving a user between tenants is a
// delete-and-reprovision operation.
func (h *Handler) ServeUpdate(w http.ResponseWriter, r *http.Request) {
	scoped, actor, ok := h.scopedStore(w, r)
	if !ok {
		return
	}

	var req updateRequest
	if !respond.Decode(w, r, &req) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	id := chi.URLParam(r, "id")
	existing, err := scoped.GetByID(ctx, id)
	if err != nil {
		respond.StoreError(w, h.Log, "load user for update", err)
		return
	}
	if !actor.CanManageProfile(existing.OrganizationID) {
		respond.Error(w, http.StatusForbidden, "forbidden")
		return
	}

	role, err := roles.ParseStrict(req.Role)
	if err != nil {
		respond.Fields(w, []provision.FieldError{{Field: "role", Message: "unknown role"}})
		return
	}

	err = scoped.Update(ctx, id, userstore.ProfileUpdate{
		Name:           req.Name,
		Phone:          req.Phone,
		Role:           role,
		Status:         req.Status,
		OrganizationID: existing.OrganizationID,
		ClassIDs:       req.ClassIDs,
	})
	if err != nil {
		respond.StoreError(w, h.Log, "update user", err)
		return
	}

	// Keep the provider's display name in sync, best effort.
	if req.Name != "" && req.Name != existing.Name {
		if err := h.Identity.UpdateDisplayName(ctx, id, req.Name); err != nil {
			h.Log.Warn("display name sync failed",
				zap.String("subject", id),
				zap.Error(err))
		}
	}

	updated, err := scoped.GetByID(ctx, id)
	if err != nil {
		respond.StoreError(w, h.Log, "reload user", err)
		return
	}
	respond.JSON(w, http.StatusOK, updated)
}

// ServeDelete removes the profile document through the provisioning
// workflow so the orphaned identity gets its marker.
func (h *Handler) ServeDelete(w http.ResponseWriter, r *http.Request) {
	scoped, actor, ok := h.scopedStore(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	id := chi.URLParam(r, "id")
	existing, err := scoped.GetByID(ctx, id)
	if err != nil {
		respond.StoreError(w, h.Log, "load user for delete", err)
		return
	}
	if !actor.CanManageProfile(existing.OrganizationID) {
		respond.Error(w, http.StatusForbidden, "forbidden")
		return
	}

	if err := h.Provision.DeleteProfile(ctx, id); err != nil {
		respond.StoreError(w, h.Log, "delete user", err)
		return
	}
	respond.JSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
