// internal/domain/models/reconciliation.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Reconciliation marker kinds.
const (
	// ReconcileOrphanedIdentity: an identity-provider account exists but the
	// profile write failed (or the profile was deleted), so the subject has
	// credentials with no profile behind them.
	ReconcileOrphanedIdentity = "orphaned_identity"

	// ReconcileUnlinkedProfile: a profile exists under a generated id with no
	// identity-provider account; the user cannot sign in until the profile is
	// re-keyed to a real subject id.
	ReconcileUnlinkedProfile = "unlinked_profile"
)

// Reconciliation is a persisted marker for a provisioning flow that left one
// side of the identity/profile pair missing. Provisioning never rolls back
// automatically; these records are what the repair utility (or an operator)
// works from instead of a warning dialog someone has to remember.
type Reconciliation struct {
	ID        primitive.ObjectID `bson:"_id" json:"id"`
	Kind      string             `bson:"kind" json:"kind"`
	Subject   string             `bson:"subject,omitempty" json:"subject,omitempty"`       // identity subject id, if known
	ProfileID string             `bson:"profile_id,omitempty" json:"profile_id,omitempty"` // profile document id, if one exists
	Email     string             `bson:"email" json:"email"`
	Note      string             `bson:"note,omitempty" json:"note,omitempty"`
	Resolved  bool               `bson:"resolved" json:"resolved"`

	CreatedAt  time.Time  `bson:"created_at" json:"created_at"`
	ResolvedAt *time.Time `bson:"resolved_at,omitempty" json:"resolved_at,omitempty"`
}
