package bootstrap

import (
	"testing"
	"time"

	textfold "github.com/dalemusser/waffle/pantry/text"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/classdeck/classdeck/internal/app/system/status"
	"github.com/classdeck/classdeck/internal/domain/models"
	"github.com/classdeck/classdeck/internal/domain/roles"
	"github.com/classdeck/classdeck/internal/testutil"
)

func testLogger() *zap.Logger {
	return zap.NewNop()
}

func TestEnsureSuperAdmin_CreatesNew(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)

	deps := DBDeps{MongoDatabase: db}

	if err := ensureSuperAdmin(ctx, deps, "superadmin@test.com", testLogger()); err != nil {
		t.Fatalf("ensureSuperAdmin failed: %v", err)
	}

	var user models.UserProfile
	err := db.Collection("users").FindOne(ctx, bson.M{"email": "superadmin@test.com"}).Decode(&user)
	if err != nil {
		t.Fatalf("failed to find created user: %v", err)
	}
	if user.Role != roles.SuperAdmin {
		t.Errorf("expected role superadmin, got %q", user.Role)
	}
	if user.OrganizationID != nil {
		t.Error("expected superadmin to have nil organization_id")
	}
	if user.Status != status.Active {
		t.Errorf("expected status active, got %q", user.Status)
	}

	// A bootstrapped profile has no account behind it, so a marker must exist.
	var marker models.Reconciliation
	err = db.Collection("reconciliations").FindOne(ctx, bson.M{"profile_id": user.ID}).Decode(&marker)
	if err != nil {
		t.Fatalf("expected an unlinked_profile marker: %v", err)
	}
	if marker.Kind != models.ReconcileUnlinkedProfile {
		t.Errorf("marker kind = %q, want %q", marker.Kind, models.ReconcileUnlinkedProfile)
	}
}

func TestEnsureSuperAdmin_PromotesExisting(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)

	now := time.Now().UTC()
	email := "existing@test.com"
	orgID := primitive.NewObjectID()
	existing := models.UserProfile{
		ID:             uuid.NewString(),
		Email:          email,
		Name:           "Existing Teacher",
		NameCI:         textfold.Fold("Existing Teacher"),
		Role:           roles.Teacher,
		Status:         status.Active,
		OrganizationID: &orgID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if _, err := db.Collection("users").InsertOne(ctx, existing); err != nil {
		t.Fatalf("insert existing user: %v", err)
	}

	deps := DBDeps{MongoDatabase: db}
	if err := ensureSuperAdmin(ctx, deps, email, testLogger()); err != nil {
		t.Fatalf("ensureSuperAdmin failed: %v", err)
	}

	var user models.UserProfile
	if err := db.Collection("users").FindOne(ctx, bson.M{"_id": existing.ID}).Decode(&user); err != nil {
		t.Fatalf("reload user: %v", err)
	}
	if user.Role != roles.SuperAdmin {
		t.Errorf("expected promotion to superadmin, got %q", user.Role)
	}
	if user.OrganizationID != nil {
		t.Error("expected organization_id to be cleared on promotion")
	}
}

func TestEnsureSuperAdmin_AlreadySuperAdmin(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)

	now := time.Now().UTC()
	email := "root@test.com"
	existing := models.UserProfile{
		ID:        uuid.NewString(),
		Email:     email,
		Name:      "Root",
		NameCI:    textfold.Fold("Root"),
		Role:      roles.SuperAdmin,
		Status:    status.Active,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := db.Collection("users").InsertOne(ctx, existing); err != nil {
		t.Fatalf("insert existing user: %v", err)
	}

	deps := DBDeps{MongoDatabase: db}
	if err := ensureSuperAdmin(ctx, deps, email, testLogger()); err != nil {
		t.Fatalf("ensureSuperAdmin failed: %v", err)
	}

	n, err := db.Collection("users").CountDocuments(ctx, bson.M{"email": email})
	if err != nil {
		t.Fatalf("count users: %v", err)
	}
	if n != 1 {
		t.Errorf("expected exactly one profile for %s, got %d", email, n)
	}
}
