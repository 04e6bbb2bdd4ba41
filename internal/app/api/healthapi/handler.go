// internal/app/api/healthapi/handler.go
package healthapi

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"

	"github.com/classdeck/classdeck/internal/app/api/respond"
	"github.com/classdeck/classdeck/internal/app/store/scoped"
	"github.com/classdeck/classdeck/internal/app/system/timeouts"
)

// Handler answers load-balancer health checks.
type Handler struct {
	Client *mongo.Client
	Repo   *scoped.Repo
	Log    *zap.Logger
}

func NewHandler(client *mongo.Client, repo *scoped.Repo, log *zap.Logger) *Handler {
	return &Handler{Client: client, Repo: repo, Log: log}
}

func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ServeHealth)
	return r
}

func (h *Handler) ServeHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Ping())
	defer cancel()

	if err := h.Client.Ping(ctx, readpref.Primary()); err != nil {
		h.Log.Warn("health check failed", zap.Error(err))
		respond.Error(w, http.StatusServiceUnavailable, "database unreachable")
		return
	}
	respond.JSON(w, http.StatusOK, map[string]any{
		"status":        "ok",
		"cache_entries": h.Repo.Cache().Len(),
	})
}
