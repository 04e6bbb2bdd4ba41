// internal/app/api/orgapi/handler_test.go
package orgapi

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/classdeck/classdeck/internal/app/store/cache"
	"github.com/classdeck/classdeck/internal/app/store/docstore"
	organizationstore "github.com/classdeck/classdeck/internal/app/store/organizations"
	"github.com/classdeck/classdeck/internal/app/store/scoped"
	"github.com/classdeck/classdeck/internal/testutil"
)

// The authorization checks run before any store access, so denial cases use
// a handler with no store behind it.
func denyHandler(t *testing.T) http.Handler {
	t.Helper()
	return Routes(NewHandler(nil, zap.NewNop()))
}

func TestRouteAuthorization(t *testing.T) {
	router := denyHandler(t)
	adminOrg := primitive.NewObjectID()

	cases := []struct {
		name   string
		method string
		target string
		user   func(*http.Request) *http.Request
		want   int
	}{
		{"anonymous list", http.MethodGet, "/", func(r *http.Request) *http.Request { return r }, http.StatusUnauthorized},
		{"admin cannot list directory", http.MethodGet, "/", func(r *http.Request) *http.Request {
			return testutil.WithUser(r, testutil.AdminUser(adminOrg))
		}, http.StatusForbidden},
		{"teacher blocked at role gate", http.MethodGet, "/", func(r *http.Request) *http.Request {
			return testutil.WithUser(r, testutil.TeacherUser(adminOrg))
		}, http.StatusForbidden},
		{"student blocked at role gate", http.MethodGet, "/", func(r *http.Request) *http.Request {
			return testutil.WithUser(r, testutil.StudentUser(adminOrg))
		}, http.StatusForbidden},
		{"admin cannot create", http.MethodPost, "/", func(r *http.Request) *http.Request {
			return testutil.WithUser(r, testutil.AdminUser(adminOrg))
		}, http.StatusForbidden},
		{"admin cannot delete", http.MethodDelete, "/" + adminOrg.Hex(), func(r *http.Request) *http.Request {
			return testutil.WithUser(r, testutil.AdminUser(adminOrg))
		}, http.StatusForbidden},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			req := c.user(testutil.NewRequest(c.method, c.target))
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)
			if rec.Code != c.want {
				t.Errorf("%s %s: status = %d, want %d", c.method, c.target, rec.Code, c.want)
			}
		})
	}
}

func TestAdminReadsOwnOrganizationOnly(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	fix := testutil.NewFixtures(t, db)

	own := fix.CreateOrganization(ctx, "Own Academy")
	other := fix.CreateOrganization(ctx, "Other Academy")

	repo := scoped.New(docstore.New(db, zap.NewNop()), cache.New(0, nil), zap.NewNop())
	h := NewHandler(organizationstore.New(repo), zap.NewNop())

	admin := testutil.AdminUser(own.ID)

	req := testutil.WithUser(testutil.NewRequest(http.MethodGet, "/"+own.ID.Hex()), admin)
	req = testutil.WithChiURLParam(req, "id", own.ID.Hex())
	rec := httptest.NewRecorder()
	h.ServeGet(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("own org: status = %d, want 200; body %s", rec.Code, rec.Body.String())
	}

	req = testutil.WithUser(testutil.NewRequest(http.MethodGet, "/"+other.ID.Hex()), admin)
	req = testutil.WithChiURLParam(req, "id", other.ID.Hex())
	rec = httptest.NewRecorder()
	h.ServeGet(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Errorf("other org: status = %d, want 403", rec.Code)
	}
}

func TestSuperAdminListsDirectory(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	fix := testutil.NewFixtures(t, db)
	fix.CreateOrganization(ctx, "Acme Academy")

	repo := scoped.New(docstore.New(db, zap.NewNop()), cache.New(0, nil), zap.NewNop())
	router := Routes(NewHandler(organizationstore.New(repo), zap.NewNop()))

	req := testutil.WithUser(testutil.NewRequest(http.MethodGet, "/"), testutil.SuperAdminUser())
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200; body %s", rec.Code, rec.Body.String())
	}
}
