// internal/app/provision/repair.go
package provision

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/classdeck/classdeck/internal/app/store/docstore"
	"github.com/classdeck/classdeck/internal/domain/models"
)

var (
	// ErrSubjectTaken reports that a profile already lives under the
	// target subject id.
	ErrSubjectTaken = errors.New("a profile already exists for this identity subject")
)

// Repair re-keys an unlinked profile onto a real identity subject so the
// account can sign in. The profile document id is immutable in the store, so
// re-keying is delete-then-recreate; if the recreate fails the old document
// is restored best effort and a marker is recorded either way.
func (w *Workflow) Repair(ctx context.Context, subject, profileID string) (models.UserProfile, error) {
	if subject == "" || profileID == "" {
		return models.UserProfile{}, &ValidationError{Fields: []FieldError{
			{Field: "subject", Message: "subject and profile id are required"},
		}}
	}
	if subject == profileID {
		return models.UserProfile{}, &ValidationError{Fields: []FieldError{
			{Field: "subject", Message: "profile is already keyed to this subject"},
		}}
	}

	old, err := w.profiles.GetByID(ctx, profileID)
	if err != nil {
		return models.UserProfile{}, fmt.Errorf("load profile %s: %w", profileID, err)
	}

	if _, err := w.profiles.GetByID(ctx, subject); err == nil {
		return models.UserProfile{}, ErrSubjectTaken
	} else if !errors.Is(err, docstore.ErrNotFound) {
		return models.UserProfile{}, fmt.Errorf("check subject %s: %w", subject, err)
	}

	// The unique email index means the old document must go before the new
	// one can exist.
	if err := w.profiles.Delete(ctx, profileID); err != nil {
		return models.UserProfile{}, fmt.Errorf("remove old profile %s: %w", profileID, err)
	}

	created, err := w.profiles.CreateWithID(ctx, subject, *old)
	if err != nil {
		// Try to put the original back; either way the state is marked.
		if _, restoreErr := w.profiles.CreateWithID(ctx, profileID, *old); restoreErr != nil {
			w.record(ctx, models.Reconciliation{
				Kind:    models.ReconcileOrphanedIdentity,
				Subject: subject,
				Email:   old.Email,
				Note:    "repair lost the profile document: " + restoreErr.Error(),
			})
			w.log.Error("repair failed and restore failed",
				zap.String("profile_id", profileID),
				zap.String("subject", subject),
				zap.Error(restoreErr))
			return models.UserProfile{}, fmt.Errorf("re-key profile (original lost, marker recorded): %w", err)
		}
		return models.UserProfile{}, fmt.Errorf("re-key profile (original restored): %w", err)
	}

	w.log.Info("profile re-keyed to identity subject",
		zap.String("old_profile_id", profileID),
		zap.String("subject", subject),
		zap.String("email", created.Email))
	return created, nil
}

// DeleteProfile removes a profile document. The identity-provider account is
// deliberately left in place; an orphaned_identity marker records it so the
// credentials do not dangle invisibly.
func (w *Workflow) DeleteProfile(ctx context.Context, profileID string) error {
	old, err := w.profiles.GetByID(ctx, profileID)
	if err != nil {
		return fmt.Errorf("load profile %s: %w", profileID, err)
	}
	if err := w.profiles.Delete(ctx, profileID); err != nil {
		return fmt.Errorf("delete profile %s: %w", profileID, err)
	}

	w.record(ctx, models.Reconciliation{
		Kind:    models.ReconcileOrphanedIdentity,
		Subject: profileID,
		Email:   old.Email,
		Note:    "profile deleted; identity account kept",
	})
	w.log.Info("profile deleted",
		zap.String("profile_id", profileID),
		zap.String("email", old.Email))
	return nil
}
