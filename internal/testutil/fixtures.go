package testutil

import (
	"context"
	"net/http"
	"testing"
	"time"

	textfold "github.com/dalemusser/waffle/pantry/text"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/classdeck/classdeck/internal/domain/models"
	"github.com/classdeck/classdeck/internal/domain/roles"
)

// WithChiURLParam adds a chi URL parameter to the request context.
// Use this in handler tests that need to access chi.URLParam values.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// CreateOrganization creates a test organization with the given name.
func (f *Fixtures) CreateOrganization(ctx context.Context, name string) models.Organization {
	f.t.Helper()

	now := time.Now().UTC()
	org := models.Organization{
		ID:        primitive.NewObjectID(),
		Name:      name,
		NameCI:    textfold.Fold(name),
		Status:    "active",
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := f.db.Collection("organizations").InsertOne(ctx, org); err != nil {
		f.t.Fatalf("failed to create test organization: %v", err)
	}
	return org
}

// CreateProfile inserts a profile with a generated subject-style id. Role
// invariants are the caller's problem; fixtures write what they are told.
func (f *Fixtures) CreateProfile(ctx context.Context, email string, role roles.Role, orgID *primitive.ObjectID) models.UserProfile {
	f.t.Helper()

	now := time.Now().UTC()
	name := "Test " + string(role)
	u := models.UserProfile{
		ID:             uuid.NewString(),
		Email:          email,
		Name:           name,
		NameCI:         textfold.Fold(name),
		Role:           role,
		Status:         "active",
		OrganizationID: orgID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if role == roles.Student {
		u.ClassIDs = []string{"class-" + uuid.NewString()[:8]}
	}
	if _, err := f.db.Collection("users").InsertOne(ctx, u); err != nil {
		f.t.Fatalf("failed to create test profile: %v", err)
	}
	return u
}

// CreateCourse inserts a course for the organization.
func (f *Fixtures) CreateCourse(ctx context.Context, title string, orgID primitive.ObjectID) models.Course {
	f.t.Helper()

	now := time.Now().UTC()
	c := models.Course{
		ID:             primitive.NewObjectID(),
		Title:          title,
		TitleCI:        textfold.Fold(title),
		Status:         "active",
		OrganizationID: orgID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if _, err := f.db.Collection("courses").InsertOne(ctx, c); err != nil {
		f.t.Fatalf("failed to create test course: %v", err)
	}
	return c
}
