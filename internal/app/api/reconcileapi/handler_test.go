// internal/app/api/reconcileapi/handler_test.go
package reconcileapi

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/classdeck/classdeck/internal/testutil"
)

// The backlog gate denies before any store access, so these run against a
// handler with nothing behind it.
func TestBacklogAccessGate(t *testing.T) {
	router := Routes(NewHandler(nil, nil, nil, zap.NewNop()))
	orgID := primitive.NewObjectID()

	cases := []struct {
		name string
		user func(*http.Request) *http.Request
		want int
	}{
		{"anonymous", func(r *http.Request) *http.Request { return r }, http.StatusUnauthorized},
		{"admin", func(r *http.Request) *http.Request {
			return testutil.WithUser(r, testutil.AdminUser(orgID))
		}, http.StatusForbidden},
		{"teacher", func(r *http.Request) *http.Request {
			return testutil.WithUser(r, testutil.TeacherUser(orgID))
		}, http.StatusForbidden},
		{"student", func(r *http.Request) *http.Request {
			return testutil.WithUser(r, testutil.StudentUser(orgID))
		}, http.StatusForbidden},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			req := c.user(testutil.NewRequest(http.MethodGet, "/"))
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)
			if rec.Code != c.want {
				t.Errorf("status = %d, want %d", rec.Code, c.want)
			}
		})
	}
}
