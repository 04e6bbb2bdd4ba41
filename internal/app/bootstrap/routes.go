// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"

	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/classdeck/classdeck/internal/app/api/authapi"
	"github.com/classdeck/classdeck/internal/app/api/contentapi"
	"github.com/classdeck/classdeck/internal/app/api/healthapi"
	"github.com/classdeck/classdeck/internal/app/api/orgapi"
	"github.com/classdeck/classdeck/internal/app/api/reconcileapi"
	"github.com/classdeck/classdeck/internal/app/api/userapi"
	"github.com/classdeck/classdeck/internal/app/provision"
	batchstore "github.com/classdeck/classdeck/internal/app/store/batches"
	blogstore "github.com/classdeck/classdeck/internal/app/store/blog"
	"github.com/classdeck/classdeck/internal/app/store/cache"
	coursestore "github.com/classdeck/classdeck/internal/app/store/courses"
	"github.com/classdeck/classdeck/internal/app/store/docstore"
	organizationstore "github.com/classdeck/classdeck/internal/app/store/organizations"
	paymentstore "github.com/classdeck/classdeck/internal/app/store/payments"
	reconcilestore "github.com/classdeck/classdeck/internal/app/store/reconcile"
	recordingstore "github.com/classdeck/classdeck/internal/app/store/recordings"
	"github.com/classdeck/classdeck/internal/app/store/scoped"
	userstore "github.com/classdeck/classdeck/internal/app/store/users"
	"github.com/classdeck/classdeck/internal/app/system/auth"
	"github.com/classdeck/classdeck/internal/app/system/identity"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// any Startup hooks have completed. The wiring runs bottom-up: the document
// store and list cache feed the tenant-scoped repository, the stores sit on
// top of that, and the provisioning workflow ties the user store to the
// identity provider. Handlers only ever see the stores and the workflow.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	secure := coreCfg.Env == "prod"
	sessionMgr, err := auth.NewSessionManager(appCfg.SessionKey, appCfg.SessionDomain, secure, logger)
	if err != nil {
		logger.Error("session manager init failed", zap.Error(err))
		return nil, err
	}

	ds := docstore.New(deps.MongoDatabase, logger)
	listCache := cache.New(appCfg.CacheTTL, nil)
	repo := scoped.New(ds, listCache, logger)

	users := userstore.New(repo)
	orgs := organizationstore.New(repo)
	courses := coursestore.New(repo)
	batches := batchstore.New(repo)
	recordings := recordingstore.New(repo)
	payments := paymentstore.New(repo)
	blog := blogstore.New(repo)
	markers := reconcilestore.New(repo)

	provider, err := buildIdentityProvider(appCfg, logger)
	if err != nil {
		return nil, err
	}

	workflow := provision.New(provider, users, markers, logger)

	r := chi.NewRouter()

	// Global auth middleware: resolves the session's subject to a fresh
	// profile on every request, so role changes and disabled accounts take
	// effect immediately.
	r.Use(sessionMgr.LoadSessionUser(users.GetByID))

	// Health check endpoint for load balancers and orchestrators.
	r.Mount("/health", healthapi.Routes(healthapi.NewHandler(deps.MongoClient, repo, logger)))

	// Authentication
	r.Mount("/auth", authapi.Routes(authapi.NewHandler(provider, sessionMgr, users, logger)))

	// Administration
	r.Mount("/api/users", userapi.Routes(userapi.NewHandler(users, workflow, provider, logger)))
	r.Mount("/api/organizations", orgapi.Routes(orgapi.NewHandler(orgs, logger)))
	r.Mount("/api/reconciliations", reconcileapi.Routes(reconcileapi.NewHandler(markers, workflow, provider, logger)))

	// Tenant content (courses, batches, recordings, payments, blog)
	r.Mount("/api", contentapi.Routes(contentapi.NewHandler(courses, batches, recordings, payments, blog, logger)))

	return r, nil
}

// buildIdentityProvider picks the REST client when a base URL is configured
// and falls back to the in-memory provider otherwise. ValidateConfig already
// rejected the in-memory fallback for prod.
func buildIdentityProvider(appCfg AppConfig, logger *zap.Logger) (identity.Provider, error) {
	if appCfg.IdentityBaseURL == "" {
		logger.Warn("identity_base_url not set; using in-memory identity provider")
		return identity.NewMemory([]byte(appCfg.SessionKey)), nil
	}
	return identity.NewClient(identity.ClientConfig{
		BaseURL:      appCfg.IdentityBaseURL,
		APIKey:       appCfg.IdentityAPIKey,
		ClientID:     appCfg.IdentityClientID,
		ClientSecret: appCfg.IdentityClientSecret,
		TokenURL:     appCfg.IdentityTokenURL,
		Timeout:      appCfg.IdentityTimeout,
	}, logger)
}
