// internal/app/api/authapi/handler.go
package authapi

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/classdeck/classdeck/internal/app/api/respond"
	"github.com/classdeck/classdeck/internal/app/store/docstore"
	userstore "github.com/classdeck/classdeck/internal/app/store/users"
	"github.com/classdeck/classdeck/internal/app/system/auth"
	"github.com/classdeck/classdeck/internal/app/system/identity"
	"github.com/classdeck/classdeck/internal/app/system/status"
	"github.com/classdeck/classdeck/internal/app/system/timeouts"
)

// Handler owns the sign-in and sign-out endpoints.
type Handler struct {
	Provider identity.Provider
	Sessions *auth.SessionManager
	Users    *userstore.Store
	Log      *zap.Logger
}

func NewHandler(provider identity.Provider, sessions *auth.SessionManager, users *userstore.Store, log *zap.Logger) *Handler {
	return &Handler{Provider: provider, Sessions: sessions, Users: users, Log: log}
}

func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Post("/login", h.ServeLogin)
	r.Post("/token", h.ServeTokenLogin)
	r.Post("/logout", h.ServeLogout)
	r.Get("/me", h.ServeMe)
	return r
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type meResponse struct {
	Authenticated bool   `json:"authenticated"`
	Profile       any    `json:"profile"`
	Subject       string `json:"subject,omitempty"`
}

// ServeLogin verifies credentials at the identity provider and opens a
// cookie session keyed by the subject. A subject with no profile document
// still gets a session: the middleware treats it as anonymous everywhere,
// and the response says so, which is what the repair tooling needs to see.
func (h *Handler) ServeLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !respond.Decode(w, r, &req) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	sess, err := h.Provider.SignIn(ctx, req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, identity.ErrInvalidCredentials):
			respond.Error(w, http.StatusUnauthorized, "invalid email or password")
		case errors.Is(err, identity.ErrUnavailable):
			respond.Error(w, http.StatusServiceUnavailable, "identity provider unavailable, try again")
		default:
			h.Log.Error("sign-in failed", zap.Error(err))
			respond.Error(w, http.StatusInternalServerError, "internal error")
		}
		return
	}

	h.openSession(ctx, w, r, sess.Account.Subject)
}

type tokenLoginRequest struct {
	Token string `json:"token"`
}

// ServeTokenLogin opens a cookie session from a provider-issued bearer
// token. Clients that authenticated against the provider directly hand the
// token here instead of replaying the password.
func (h *Handler) ServeTokenLogin(w http.ResponseWriter, r *http.Request) {
	var req tokenLoginRequest
	if !respond.Decode(w, r, &req) {
		return
	}
	if req.Token == "" {
		respond.Error(w, http.StatusUnprocessableEntity, "token is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	acct, err := h.Provider.VerifyToken(ctx, req.Token)
	if err != nil {
		switch {
		case errors.Is(err, identity.ErrInvalidCredentials):
			respond.Error(w, http.StatusUnauthorized, "token is invalid or expired")
		case errors.Is(err, identity.ErrUnavailable):
			respond.Error(w, http.StatusServiceUnavailable, "identity provider unavailable, try again")
		default:
			h.Log.Error("token verification failed", zap.Error(err))
			respond.Error(w, http.StatusInternalServerError, "internal error")
		}
		return
	}

	h.openSession(ctx, w, r, acct.Subject)
}

// openSession loads the subject's profile, rejects disabled accounts, and
// writes the session cookie. Shared tail of both login paths.
func (h *Handler) openSession(ctx context.Context, w http.ResponseWriter, r *http.Request, subject string) {
	profile, err := h.Users.GetByID(ctx, subject)
	if err != nil && !errors.Is(err, docstore.ErrNotFound) {
		h.Log.Error("profile load failed on login",
			zap.String("subject", subject),
			zap.Error(err))
		respond.Error(w, http.StatusInternalServerError, "internal error")
		return
	}

	if profile != nil && profile.Status == status.Inactive {
		h.Log.Info("login rejected for inactive profile",
			zap.String("subject", subject))
		respond.Error(w, http.StatusForbidden, "account disabled")
		return
	}

	if err := h.Sessions.SignIn(w, r, subject); err != nil {
		h.Log.Error("session save failed", zap.Error(err))
		respond.Error(w, http.StatusInternalServerError, "internal error")
		return
	}

	if profile == nil {
		h.Log.Info("login without profile", zap.String("subject", subject))
		respond.JSON(w, http.StatusOK, meResponse{
			Authenticated: true,
			Subject:       subject,
		})
		return
	}

	h.Log.Info("user logged in",
		zap.String("subject", subject),
		zap.String("role", profile.Role.String()))
	respond.JSON(w, http.StatusOK, meResponse{Authenticated: true, Profile: profile})
}

// ServeLogout revokes provider tokens best effort and clears the session.
func (h *Handler) ServeLogout(w http.ResponseWriter, r *http.Request) {
	if subject, ok := auth.AuthenticatedSubject(r); ok {
		ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
		defer cancel()
		if err := h.Provider.SignOut(ctx, subject); err != nil {
			h.Log.Warn("provider sign-out failed",
				zap.String("subject", subject),
				zap.Error(err))
		}
	}
	if err := h.Sessions.SignOut(w, r); err != nil {
		h.Log.Error("session clear failed", zap.Error(err))
		respond.Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	respond.JSON(w, http.StatusOK, map[string]string{"status": "signed out"})
}

// ServeMe reports the session state: profile, authenticated-without-profile,
// or anonymous.
func (h *Handler) ServeMe(w http.ResponseWriter, r *http.Request) {
	if u, ok := auth.CurrentUser(r); ok {
		respond.JSON(w, http.StatusOK, meResponse{Authenticated: true, Profile: u})
		return
	}
	if subject, ok := auth.AuthenticatedSubject(r); ok {
		respond.JSON(w, http.StatusOK, meResponse{Authenticated: true, Subject: subject})
		return
	}
	respond.JSON(w, http.StatusOK, meResponse{Authenticated: false})
}
