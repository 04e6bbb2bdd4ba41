// internal/app/api/reconcileapi/handler.go
package reconcileapi

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/classdeck/classdeck/internal/app/api/respond"
	"github.com/classdeck/classdeck/internal/app/provision"
	reconcilestore "github.com/classdeck/classdeck/internal/app/store/reconcile"
	"github.com/classdeck/classdeck/internal/app/system/authz"
	"github.com/classdeck/classdeck/internal/app/system/identity"
	"github.com/classdeck/classdeck/internal/app/system/timeouts"
	"github.com/classdeck/classdeck/internal/domain/models"
)

// Handler exposes the reconciliation backlog and the repair operation.
// Super-admin only.
type Handler struct {
	Markers  *reconcilestore.Store
	Workflow *provision.Workflow
	Identity identity.Provider
	Log      *zap.Logger
}

func NewHandler(markers *reconcilestore.Store, workflow *provision.Workflow, provider identity.Provider, log *zap.Logger) *Handler {
	return &Handler{Markers: markers, Workflow: workflow, Identity: provider, Log: log}
}

func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(requireBacklogAccess)
	r.Get("/", h.ServeList)
	r.Get("/{id}", h.ServeGet)
	r.Post("/repair", h.ServeRepair)
	r.Post("/{id}/resolve", h.ServeResolve)
	return r
}

// requireBacklogAccess gates every route on the reconciliation permission.
func requireBacklogAccess(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor, ok := authz.ActorFromRequest(r)
		if !ok {
			respond.Error(w, http.StatusUnauthorized, "sign in required")
			return
		}
		if !actor.CanViewReconciliations() {
			respond.Error(w, http.StatusForbidden, "forbidden")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ServeList returns the unresolved backlog, oldest first. ?kind= narrows to
// one marker kind.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	var limit int64
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
			limit = n
		}
	}

	var err error
	var markers any
	if kind := r.URL.Query().Get("kind"); kind != "" {
		markers, err = h.Markers.ListOpenByKind(ctx, kind, limit)
	} else {
		markers, err = h.Markers.ListOpen(ctx, limit)
	}
	if err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	open, err := h.Markers.CountOpen(ctx)
	if err != nil {
		h.Log.Warn("open marker count failed", zap.Error(err))
	}

	respond.JSON(w, http.StatusOK, map[string]any{
		"markers": markers,
		"open":    open,
	})
}

func (h *Handler) ServeGet(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		respond.Error(w, http.StatusBadRequest, "malformed marker id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	marker, err := h.Markers.GetByID(ctx, id)
	if err != nil {
		respond.StoreError(w, h.Log, "get marker", err)
		return
	}
	respond.JSON(w, http.StatusOK, marker)
}

type repairRequest struct {
	Subject   string `json:"subject"`
	ProfileID string `json:"profile_id"`
	MarkerID  string `json:"marker_id"`
}

// ServeRepair re-keys an unlinked profile onto a real identity subject and,
// when a marker id is supplied, closes it.
func (h *Handler) ServeRepair(w http.ResponseWriter, r *http.Request) {
	var req repairRequest
	if !respond.Decode(w, r, &req) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	profile, err := h.Workflow.Repair(ctx, req.Subject, req.ProfileID)
	if err != nil {
		if err == provision.ErrSubjectTaken {
			respond.Error(w, http.StatusConflict, err.Error())
			return
		}
		respond.StoreError(w, h.Log, "repair profile", err)
		return
	}

	// Close the marker: the one named in the request, or failing that the
	// oldest open marker for the subject being repaired.
	var mid primitive.ObjectID
	if req.MarkerID != "" {
		mid, _ = primitive.ObjectIDFromHex(req.MarkerID)
	} else if m, err := h.Markers.FindOpenBySubject(ctx, req.Subject); err == nil {
		mid = m.ID
	}
	if !mid.IsZero() {
		if err := h.Markers.Resolve(ctx, mid, "profile re-keyed to "+req.Subject); err != nil {
			h.Log.Warn("marker resolve failed",
				zap.String("marker_id", mid.Hex()),
				zap.Error(err))
		}
	}

	respond.JSON(w, http.StatusOK, profile)
}

type resolveRequest struct {
	Note string `json:"note"`
	// DiscardIdentity deletes the provider account an orphaned_identity
	// marker points at instead of keeping it for a later repair.
	DiscardIdentity bool `json:"discard_identity"`
}

// ServeResolve closes a marker that was handled out of band.
func (h *Handler) ServeResolve(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		respond.Error(w, http.StatusBadRequest, "malformed marker id")
		return
	}
	var req resolveRequest
	if !respond.Decode(w, r, &req) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if req.DiscardIdentity {
		marker, err := h.Markers.GetByID(ctx, id)
		if err != nil {
			respond.StoreError(w, h.Log, "load marker", err)
			return
		}
		if marker.Kind != models.ReconcileOrphanedIdentity || marker.Subject == "" {
			respond.Error(w, http.StatusUnprocessableEntity, "marker has no identity account to discard")
			return
		}
		if err := h.Identity.DeleteAccount(ctx, marker.Subject); err != nil && !errors.Is(err, identity.ErrAccountNotFound) {
			respond.StoreError(w, h.Log, "delete identity account", err)
			return
		}
		if req.Note == "" {
			req.Note = "identity account discarded"
		}
	}

	if err := h.Markers.Resolve(ctx, id, req.Note); err != nil {
		respond.StoreError(w, h.Log, "resolve marker", err)
		return
	}
	respond.JSON(w, http.StatusOK, map[string]string{"status": "resolved"})
}
