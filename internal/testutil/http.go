package testutil

import (
	"net/http"
	"net/http/httptest"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/classdeck/classdeck/internal/app/system/auth"
	"github.com/classdeck/classdeck/internal/domain/roles"
)

// SuperAdminUser returns a platform-level session user.
func SuperAdminUser() *auth.SessionUser {
	return &auth.SessionUser{
		ID:    uuid.NewString(),
		Name:  "Test SuperAdmin",
		Email: "root@test.com",
		Role:  roles.SuperAdmin,
	}
}

// AdminUser returns an org-admin session user for the given tenant.
func AdminUser(orgID primitive.ObjectID) *auth.SessionUser {
	return &auth.SessionUser{
		ID:             uuid.NewString(),
		Name:           "Test Admin",
		Email:          "admin@test.com",
		Role:           roles.Admin,
		OrganizationID: &orgID,
	}
}

// TeacherUser returns a teacher session user for the given tenant.
func TeacherUser(orgID primitive.ObjectID) *auth.SessionUser {
	return &auth.SessionUser{
		ID:             uuid.NewString(),
		Name:           "Test Teacher",
		Email:          "teacher@test.com",
		Role:           roles.Teacher,
		OrganizationID: &orgID,
	}
}

// StudentUser returns a student session user for the given tenant.
func StudentUser(orgID primitive.ObjectID) *auth.SessionUser {
	return &auth.SessionUser{
		ID:             uuid.NewString(),
		Name:           "Test Student",
		Email:          "student@test.com",
		Role:           roles.Student,
		OrganizationID: &orgID,
	}
}

// WithUser injects the user directly into the request context, bypassing the
// session middleware.
func WithUser(r *http.Request, u *auth.SessionUser) *http.Request {
	return auth.WithTestUser(r, u)
}

// NewRequest creates an HTTP request for handler tests.
func NewRequest(method, target string) *http.Request {
	return httptest.NewRequest(method, target, nil)
}
