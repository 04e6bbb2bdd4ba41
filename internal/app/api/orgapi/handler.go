// internal/app/api/orgapi/handler.go
package orgapi

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/classdeck/classdeck/internal/app/api/respond"
	organizationstore "github.com/classdeck/classdeck/internal/app/store/organizations"
	"github.com/classdeck/classdeck/internal/app/system/auth"
	"github.com/classdeck/classdeck/internal/app/system/authz"
	"github.com/classdeck/classdeck/internal/app/system/timeouts"
	"github.com/classdeck/classdeck/internal/domain/models"
	"github.com/classdeck/classdeck/internal/domain/roles"
)

// Handler manages tenants. The directory and all writes are super-admin
// only; an org admin may read exactly their own tenant record.
type Handler struct {
	Orgs *organizationstore.Store
	Log  *zap.Logger
}

func NewHandler(orgs *organizationstore.Store, log *zap.Logger) *Handler {
	return &Handler{Orgs: orgs, Log: log}
}

func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(auth.RequireRole(roles.Admin, roles.SuperAdmin))
	r.Get("/", h.ServeList)
	r.Post("/", h.ServeCreate)
	r.Get("/{id}", h.ServeGet)
	r.Put("/{id}", h.ServeUpdate)
	r.Delete("/{id}", h.ServeDelete)
	return r
}

// ServeList pages through tenants by folded name. ?after= carries the keyset
// cursor from the previous page.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	actor, _ := authz.ActorFromRequest(r)
	if !actor.CanListOrganizations() {
		respond.Error(w, http.StatusForbidden, "forbidden")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	var limit int64
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
			limit = n
		}
	}

	orgs, next, err := h.Orgs.Page(ctx, r.URL.Query().Get("after"), limit)
	if err != nil {
		respond.StoreError(w, h.Log, "list organizations", err)
		return
	}
	total, err := h.Orgs.Count(ctx)
	if err != nil {
		h.Log.Warn("organization count failed", zap.Error(err))
		total = int64(len(orgs))
	}

	respond.JSON(w, http.StatusOK, map[string]any{
		"organizations": orgs,
		"total":         total,
		"next":          next,
	})
}

type orgRequest struct {
	Name   string `json:"name"`
	Status string `json:"status"`
}

func (h *Handler) ServeCreate(w http.ResponseWriter, r *http.Request) {
	actor, _ := authz.ActorFromRequest(r)
	if !actor.CanManageOrganizations() {
		respond.Error(w, http.StatusForbidden, "forbidden")
		return
	}

	var req orgRequest
	if !respond.Decode(w, r, &req) {
		return
	}
	if req.Name == "" {
		respond.Error(w, http.StatusUnprocessableEntity, "name is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	org, err := h.Orgs.Create(ctx, models.Organization{Name: req.Name, Status: req.Status})
	if err != nil {
		if errors.Is(err, organizationstore.ErrDuplicateOrganization) {
			respond.Error(w, http.StatusConflict, err.Error())
			return
		}
		respond.StoreError(w, h.Log, "create organization", err)
		return
	}
	respond.JSON(w, http.StatusCreated, org)
}

func (h *Handler) orgID(w http.ResponseWriter, r *http.Request) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		respond.Error(w, http.StatusBadRequest, "malformed organization id")
		return primitive.NilObjectID, false
	}
	return id, true
}

func (h *Handler) ServeGet(w http.ResponseWriter, r *http.Request) {
	id, ok := h.orgID(w, r)
	if !ok {
		return
	}
	actor, _ := authz.ActorFromRequest(r)
	if !actor.CanAccessOrg(id) {
		respond.Error(w, http.StatusForbidden, "forbidden")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	org, err := h.Orgs.GetByID(ctx, id)
	if err != nil {
		respond.StoreError(w, h.Log, "get organization", err)
		return
	}
	respond.JSON(w, http.StatusOK, org)
}

func (h *Handler) ServeUpdate(w http.ResponseWriter, r *http.Request) {
	actor, _ := authz.ActorFromRequest(r)
	if !actor.CanManageOrganizations() {
		respond.Error(w, http.StatusForbidden, "forbidden")
		return
	}

	id, ok := h.orgID(w, r)
	if !ok {
		return
	}
	var req orgRequest
	if !respond.Decode(w, r, &req) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	err := h.Orgs.Update(ctx, id, models.Organization{Name: req.Name, Status: req.Status})
	if err != nil {
		if errors.Is(err, organizationstore.ErrDuplicateOrganization) {
			respond.Error(w, http.StatusConflict, err.Error())
			return
		}
		respond.StoreError(w, h.Log, "update organization", err)
		return
	}

	org, err := h.Orgs.GetByID(ctx, id)
	if err != nil {
		respond.StoreError(w, h.Log, "reload organization", err)
		return
	}
	respond.JSON(w, http.StatusOK, org)
}

// ServeDelete removes the tenant record only. Its users, courses, and other
// documents keep their organization_id; cleanup is a deliberate follow-up,
// never a cascade.
func (h *Handler) ServeDelete(w http.ResponseWriter, r *http.Request) {
	actor, _ := authz.ActorFromRequest(r)
	if !actor.CanManageOrganizations() {
		respond.Error(w, http.StatusForbidden, "forbidden")
		return
	}

	id, ok := h.orgID(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if err := h.Orgs.Delete(ctx, id); err != nil {
		respond.StoreError(w, h.Log, "delete organization", err)
		return
	}
	respond.JSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
