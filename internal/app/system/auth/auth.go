// internal/app/system/auth/auth.go
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gorilla/sessions"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/classdeck/classdeck/internal/app/store/docstore"
	"github.com/classdeck/classdeck/internal/domain/models"
	"github.com/classdeck/classdeck/internal/domain/roles"
)

const (
	SessionName = "classdeck-session"

	isAuthKey  = "is_authenticated"
	subjectKey = "subject"
)

// SessionUser is the resolved signed-in user injected into r.Context().
// ID is the profile document id, which equals the identity subject.
type SessionUser struct {
	ID             string
	Name           string
	Email          string
	Role           roles.Role
	OrganizationID *primitive.ObjectID
}

// ProfileFetcher resolves an identity subject to its profile document.
// Implemented by the user store; must return docstore.ErrNotFound when the
// subject has credentials but no profile behind them.
type ProfileFetcher func(ctx context.Context, id string) (*models.UserProfile, error)

// SessionManager owns the cookie store and the session lifecycle.
type SessionManager struct {
	store *sessions.CookieStore
	log   *zap.Logger
}

// NewSessionManager builds the cookie-backed session manager. In production
// (secure=true) cookies are Secure with SameSite=None; in local dev Lax.
func NewSessionManager(sessionKey, domain string, secure bool, log *zap.Logger) (*SessionManager, error) {
	if sessionKey == "" {
		return nil, fmt.Errorf("session key is empty; provide >=32 random chars")
	}
	if len(sessionKey) < 32 {
		log.Warn("session key is short; 32+ chars recommended",
			zap.Int("length", len(sessionKey)))
	}

	store := sessions.NewCookieStore([]byte(sessionKey))
	opts := &sessions.Options{
		Domain:   domain,
		Path:     "/",
		Secure:   secure,
		HttpOnly: true,
	}
	if secure {
		opts.SameSite = http.SameSiteNoneMode
	} else {
		opts.SameSite = http.SameSiteLaxMode
	}
	store.Options = opts

	log.Info("session store initialized",
		zap.Bool("secure", secure),
		zap.String("domain", domain))

	return &SessionManager{store: store, log: log}, nil
}

// GetSession returns the request's session, creating one if absent.
func (m *SessionManager) GetSession(r *http.Request) (*sessions.Session, error) {
	return m.store.Get(r, SessionName)
}

// SignIn marks the session authenticated for an identity subject.
func (m *SessionManager) SignIn(w http.ResponseWriter, r *http.Request, subject string) error {
	sess, err := m.GetSession(r)
	if err != nil {
		// A stale or tampered cookie decodes to an error; start fresh.
		m.log.Warn("session cookie invalid, using fresh session", zap.Error(err))
	}
	sess.Values[isAuthKey] = true
	sess.Values[subjectKey] = subject
	return sess.Save(r, w)
}

// SignOut clears the session.
func (m *SessionManager) SignOut(w http.ResponseWriter, r *http.Request) error {
	sess, _ := m.GetSession(r)
	sess.Values = map[any]any{}
	sess.Options.MaxAge = -1
	return sess.Save(r, w)
}

/* context plumbing */

type ctxKey string

const (
	currentUserKey ctxKey = "currentUser"
	subjectCtxKey  ctxKey = "authSubject"
)

// CurrentUser returns the profile-backed user and a found flag.
func CurrentUser(r *http.Request) (*SessionUser, bool) {
	u, ok := r.Context().Value(currentUserKey).(*SessionUser)
	return u, ok
}

// AuthenticatedSubject returns the identity subject on the session even when
// no profile resolved for it. Handlers use it to tell "signed out" apart
// from "signed in but not provisioned".
func AuthenticatedSubject(r *http.Request) (string, bool) {
	s, ok := r.Context().Value(subjectCtxKey).(string)
	return s, ok
}

func withUser(r *http.Request, u *SessionUser) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), currentUserKey, u))
}

func withSubject(r *http.Request, subject string) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), subjectCtxKey, subject))
}

// LoadSessionUser resolves the session's subject to a profile on every
// request and injects it into context. An authenticated subject with no
// profile is NOT treated as signed in: only the raw subject is recorded, and
// role checks fail closed.
func (m *SessionManager) LoadSessionUser(fetch ProfileFetcher) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, err := m.GetSession(r)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}
			isAuth, _ := sess.Values[isAuthKey].(bool)
			subject, _ := sess.Values[subjectKey].(string)
			if !isAuth || subject == "" {
				next.ServeHTTP(w, r)
				return
			}

			r = withSubject(r, subject)

			u, err := fetch(r.Context(), subject)
			if err != nil {
				if !errors.Is(err, docstore.ErrNotFound) {
					m.log.Warn("profile fetch failed for session",
						zap.String("subject", subject),
						zap.Error(err))
				}
				// No profile resolves: the request stays anonymous.
				next.ServeHTTP(w, r)
				return
			}

			r = withUser(r, &SessionUser{
				ID:             u.ID,
				Name:           u.Name,
				Email:          u.Email,
				Role:           u.Role,
				OrganizationID: u.OrganizationID,
			})
			next.ServeHTTP(w, r)
		})
	}
}

// RequireSignedIn rejects requests without a profile-backed user with 401.
func RequireSignedIn(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := CurrentUser(r); ok {
			next.ServeHTTP(w, r)
			return
		}
		writeJSONError(w, http.StatusUnauthorized, "unauthorized")
	})
}

// RequireRole allows only the listed roles through; 401 when anonymous, 403
// when signed in with a different role.
func RequireRole(allowed ...roles.Role) func(http.Handler) http.Handler {
	set := make(map[roles.Role]struct{}, len(allowed))
	for _, role := range allowed {
		set[role] = struct{}{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u, ok := CurrentUser(r)
			if !ok {
				writeJSONError(w, http.StatusUnauthorized, "unauthorized")
				return
			}
			if _, has := set[u.Role]; !has {
				writeJSONError(w, http.StatusForbidden, "forbidden")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// WithTestUser injects a user directly into the request context. Test-only.
func WithTestUser(r *http.Request, u *SessionUser) *http.Request {
	return withUser(r, u)
}

func writeJSONError(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	fmt.Fprintf(w, `{"error":%q}`+"\n", msg)
}
