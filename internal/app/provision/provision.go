// internal/app/provision/provision.go
//
// Package provision creates users across the two systems that make up an
// account: the identity provider that owns credentials and the document
// store that owns the profile. There is no transaction spanning both, so
// the workflow is ordered to keep partial failures inspectable: validate
// everything first, write identity second, write the profile last, and
// persist a reconciliation marker whenever one side is left dangling.
package provision

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/classdeck/classdeck/internal/app/store/docstore"
	"github.com/classdeck/classdeck/internal/app/system/identity"
	"github.com/classdeck/classdeck/internal/app/system/inputval"
	"github.com/classdeck/classdeck/internal/app/system/normalize"
	"github.com/classdeck/classdeck/internal/domain/models"
	"github.com/classdeck/classdeck/internal/domain/roles"
)

// FieldError attributes a validation failure to one input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError collects every field failure from one submission. The
// offline checks report all of them at once without touching any external
// system; only a fully clean submission pays for the duplicate-email read,
// and nothing has been written anywhere when this error returns.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.Field + ": " + f.Message
	}
	return "invalid input: " + strings.Join(parts, "; ")
}

// ErrProviderUnavailable re-exports identity.ErrUnavailable for callers that
// only import this package. Provision itself degrades to an unlinked profile
// when the provider is down; Repair and the auth endpoints still surface it.
var ErrProviderUnavailable = identity.ErrUnavailable

// ProfileStore is the slice of the user store the workflow needs.
type ProfileStore interface {
	Create(ctx context.Context, u models.UserProfile) (models.UserProfile, error)
	CreateWithID(ctx context.Context, id string, u models.UserProfile) (models.UserProfile, error)
	GetByID(ctx context.Context, id string) (*models.UserProfile, error)
	GetByEmail(ctx context.Context, email string) (*models.UserProfile, error)
	Delete(ctx context.Context, id string) error
}

// Workflow runs the two-phase provisioning saga.
type Workflow struct {
	identity identity.Provider
	profiles ProfileStore
	markers  markerRecorder
	log      *zap.Logger
}

// markerRecorder is what the workflow actually calls; reconcilestore.Store
// satisfies it directly.
type markerRecorder interface {
	Record(ctx context.Context, r models.Reconciliation) (models.Reconciliation, error)
}

// New builds the workflow. markers may come from the reconciliation store;
// marker writes are best effort and never fail the main operation.
func New(provider identity.Provider, profiles ProfileStore, markers markerRecorder, log *zap.Logger) *Workflow {
	return &Workflow{
		identity: provider,
		profiles: profiles,
		markers:  markers,
		log:      log,
	}
}

// Input is one provisioning request. Password empty means no credentials
// are created: the profile lands under a generated id and cannot sign in
// until repaired onto a real subject.
type Input struct {
	Email    string
	Name     string
	Phone    string
	Password string
	Role     roles.Role
	Profile  models.UserProfile // role-dependent fields: OrganizationID, ClassIDs
}

// Result reports what was created.
type Result struct {
	Profile        models.UserProfile
	LinkedIdentity bool   // false on the no-password path
	Warning        string // set when a reconciliation marker was recorded
}

// Provision runs the saga. Error classes:
//   - *ValidationError: input rejected, nothing was written anywhere
//   - provider unavailable: degrades to the no-password path (unlinked
//     profile + marker + warning), not an error
//   - userstore.ErrDuplicateEmail (wrapped): profile conflict
//   - anything else after identity creation succeeded: the identity account
//     survives and an orphaned_identity marker was recorded
func (w *Workflow) Provision(ctx context.Context, in Input) (Result, error) {
	in.Email = normalize.Email(in.Email)
	in.Name = normalize.Name(in.Name)
	in.Phone = normalize.Phone(in.Phone)

	if verr := w.validate(ctx, in); verr != nil {
		return Result{}, verr
	}

	profile := in.Profile
	profile.Email = in.Email
	profile.Name = in.Name
	profile.Phone = in.Phone
	profile.Role = in.Role

	// No-password path: profile only, flagged for later linking.
	if in.Password == "" {
		return w.createUnlinked(ctx, profile, "provisioned without credentials")
	}

	// Phase one: credentials. Runs on the secondary provider instance so
	// the admin performing the creation is never signed in as the new user.
	sec := w.identity.Secondary()
	acct, err := sec.CreateAccount(ctx, in.Email, in.Password, in.Name)
	if err != nil {
		switch {
		case errors.Is(err, identity.ErrEmailExists):
			// No profile was written. The existing account keeps its
			// credentials; the operator links it to a profile through the
			// reconciliation repair endpoint rather than re-registering.
			return Result{}, &ValidationError{Fields: []FieldError{
				{Field: "email", Message: "an identity account with this email already exists; " +
					"link it to a profile via the reconciliation repair endpoint instead of provisioning again"},
			}}
		case errors.Is(err, identity.ErrUnavailable):
			// The provider being down does not block enrollment; the
			// profile lands unlinked and the marker queues the re-key.
			w.log.Warn("identity provider unavailable during provisioning; creating unlinked profile",
				zap.String("email", in.Email))
			return w.createUnlinked(ctx, profile, "identity provider unavailable during provisioning")
		default:
			return Result{}, fmt.Errorf("create identity account: %w", err)
		}
	}

	// Account creation signed the secondary instance in as the new user;
	// drop that session before anything else can observe it.
	if err := sec.SignOut(ctx, acct.Subject); err != nil {
		w.log.Warn("secondary instance sign-out failed",
			zap.String("subject", acct.Subject),
			zap.Error(err))
	}

	// Phase two: the profile, keyed by the subject so sign-in resolves to
	// it. A failure here strands the identity account; that is recorded,
	// never silently rolled back.
	created, err := w.profiles.CreateWithID(ctx, acct.Subject, profile)
	if err != nil {
		warning := w.record(ctx, models.Reconciliation{
			Kind:    models.ReconcileOrphanedIdentity,
			Subject: acct.Subject,
			Email:   in.Email,
			Note:    "profile write failed during provisioning: " + err.Error(),
		})
		w.log.Error("profile write failed after identity creation",
			zap.String("subject", acct.Subject),
			zap.String("email", in.Email),
			zap.Error(err))
		if warning != "" {
			return Result{}, fmt.Errorf("create profile (identity %s kept, marker recorded): %w", acct.Subject, err)
		}
		return Result{}, fmt.Errorf("create profile (identity %s kept, marker write also failed): %w", acct.Subject, err)
	}

	w.log.Info("user provisioned",
		zap.String("profile_id", created.ID),
		zap.String("email", created.Email),
		zap.String("role", created.Role.String()))
	return Result{Profile: created, LinkedIdentity: true}, nil
}

// createUnlinked writes the profile under a generated id and records the
// unlinked_profile marker. Used for the no-password path and as the
// fallback when the provider cannot be reached.
func (w *Workflow) createUnlinked(ctx context.Context, profile models.UserProfile, note string) (Result, error) {
	created, err := w.profiles.Create(ctx, profile)
	if err != nil {
		return Result{}, fmt.Errorf("create profile: %w", err)
	}
	warning := w.record(ctx, models.Reconciliation{
		Kind:      models.ReconcileUnlinkedProfile,
		ProfileID: created.ID,
		Email:     created.Email,
		Note:      note,
	})
	w.log.Info("profile provisioned without identity",
		zap.String("profile_id", created.ID),
		zap.String("email", created.Email))
	return Result{Profile: created, Warning: warning}, nil
}

func (w *Workflow) validate(ctx context.Context, in Input) *ValidationError {
	var fields []FieldError

	if !inputval.IsValidEmail(in.Email) {
		fields = append(fields, FieldError{Field: "email", Message: "a valid email is required"})
	}
	if in.Name == "" {
		fields = append(fields, FieldError{Field: "name", Message: "name is required"})
	}
	if !inputval.IsValidPhone(in.Phone) {
		fields = append(fields, FieldError{Field: "phone", Message: "phone number is not valid"})
	}
	if in.Password != "" && !inputval.IsValidPassword(in.Password) {
		fields = append(fields, FieldError{Field: "password",
			Message: fmt.Sprintf("password must be at least %d characters", inputval.MinPasswordLength)})
	}
	// Students cannot be provisioned without login capability.
	if in.Role == roles.Student && in.Password == "" {
		fields = append(fields, FieldError{Field: "password", Message: "students require a password"})
	}
	if !in.Role.IsValid() {
		fields = append(fields, FieldError{Field: "role", Message: "unknown role"})
	} else {
		if in.Role.RequiresOrganization() && in.Profile.OrganizationID == nil {
			fields = append(fields, FieldError{Field: "organization_id", Message: "this role requires an organization"})
		}
		if !in.Role.RequiresOrganization() && in.Profile.OrganizationID != nil {
			fields = append(fields, FieldError{Field: "organization_id", Message: "super-admins are platform-level"})
		}
		if in.Role.RequiresClasses() && len(in.Profile.ClassIDs) == 0 {
			fields = append(fields, FieldError{Field: "class_ids", Message: "students must be assigned at least one class"})
		}
		if !in.Role.RequiresClasses() && len(in.Profile.ClassIDs) > 0 {
			fields = append(fields, FieldError{Field: "class_ids", Message: "only students carry class assignments"})
		}
	}

	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}

	// Duplicate precheck against the profile store. The unique index is
	// the real guarantee; this just turns the common case into a field
	// error before any identity write happens. It runs only once every
	// offline check has passed, so a rejected submission costs no store
	// round trip.
	if _, err := w.profiles.GetByEmail(ctx, in.Email); err == nil {
		return &ValidationError{Fields: []FieldError{
			{Field: "email", Message: "a user with this email already exists"},
		}}
	} else if !errors.Is(err, docstore.ErrNotFound) {
		w.log.Warn("duplicate precheck failed", zap.Error(err))
	}
	return nil
}

// record persists a marker and returns the warning text for the caller.
// A failed marker write is logged and reported, never fatal.
func (w *Workflow) record(ctx context.Context, r models.Reconciliation) string {
	if w.markers == nil {
		return ""
	}
	saved, err := w.markers.Record(ctx, r)
	if err != nil {
		w.log.Error("reconciliation marker write failed",
			zap.String("kind", r.Kind),
			zap.String("email", r.Email),
			zap.Error(err))
		return ""
	}
	return fmt.Sprintf("%s recorded as reconciliation %s", r.Kind, saved.ID.Hex())
}
