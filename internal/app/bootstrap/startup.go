// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"
	"time"

	"github.com/dalemusser/waffle/config"
	textfold "github.com/dalemusser/waffle/pantry/text"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/classdeck/classdeck/internal/app/system/status"
	"github.com/classdeck/classdeck/internal/app/system/timeouts"
	"github.com/classdeck/classdeck/internal/domain/models"
	"github.com/classdeck/classdeck/internal/domain/roles"
)

// Startup runs one-time application initialization after DB connections and
// schema setup are complete, but before the HTTP handler is built.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if n := timeouts.ConfigureFromEnv(); n > 0 {
		logger.Info("operation timeouts overridden from environment",
			zap.Int("overrides", n))
	}

	if appCfg.SuperAdminEmail != "" {
		if err := ensureSuperAdmin(ctx, deps, appCfg.SuperAdminEmail, logger); err != nil {
			return err
		}
	}
	return nil
}

// ensureSuperAdmin promotes the profile with the given email to super-admin,
// or creates one if none exists. A created profile has no identity-provider
// account behind it, so it also gets an unlinked_profile marker; the operator
// re-keys it through the repair endpoint once the account is registered.
func ensureSuperAdmin(ctx context.Context, deps DBDeps, email string, logger *zap.Logger) error {
	db := deps.MongoDatabase
	now := time.Now().UTC()

	var existing models.UserProfile
	err := db.Collection("users").FindOne(ctx, bson.M{"email": email}).Decode(&existing)
	switch {
	case err == nil:
		if existing.Role == roles.SuperAdmin {
			return nil
		}
		// Super-admins carry no organization and no class references.
		_, err = db.Collection("users").UpdateOne(ctx,
			bson.M{"_id": existing.ID},
			bson.M{
				"$set":   bson.M{"role": roles.SuperAdmin, "status": status.Active, "updated_at": now},
				"$unset": bson.M{"organization_id": "", "class_ids": ""},
			})
		if err != nil {
			return err
		}
		logger.Info("promoted existing user to superadmin", zap.String("email", email))
		return nil

	case err == mongo.ErrNoDocuments:
		profile := models.UserProfile{
			ID:        uuid.NewString(),
			Email:     email,
			Name:      "Super Admin",
			NameCI:    textfold.Fold("Super Admin"),
			Role:      roles.SuperAdmin,
			Status:    status.Active,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if _, err := db.Collection("users").InsertOne(ctx, profile); err != nil {
			return err
		}
		marker := models.Reconciliation{
			ID:        primitive.NewObjectID(),
			Kind:      models.ReconcileUnlinkedProfile,
			ProfileID: profile.ID,
			Email:     email,
			Note:      "superadmin bootstrapped at startup; re-key once an account exists",
			CreatedAt: now,
		}
		if _, err := db.Collection("reconciliations").InsertOne(ctx, marker); err != nil {
			logger.Warn("superadmin marker write failed", zap.Error(err))
		}
		logger.Info("created superadmin profile", zap.String("email", email))
		return nil

	default:
		return err
	}
}
