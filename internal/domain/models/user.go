// internal/domain/models/user.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/classdeck/classdeck/internal/domain/roles"
)

// UserProfile is the application-level user record, one per human actor.
//
// NOTE:
//   - The document id is a string, not an ObjectID: once a login exists it
//     equals the identity provider's subject id, which is what links the
//     profile to its credentials. Profiles created without a password get a
//     generated UUID and cannot sign in until re-keyed by the repair utility.
type UserProfile struct {
	ID             string              `bson:"_id" json:"id"`
	Email          string              `bson:"email" json:"email"`
	Name           string              `bson:"name" json:"name"`
	NameCI         string              `bson:"name_ci" json:"name_ci"` // lowercase, diacritics-stripped
	Phone          string              `bson:"phone,omitempty" json:"phone,omitempty"`
	Role           roles.Role          `bson:"role" json:"role"`
	Status         string              `bson:"status,omitempty" json:"status,omitempty"`
	OrganizationID *primitive.ObjectID `bson:"organization_id,omitempty" json:"organization_id,omitempty"`

	// ClassIDs is required non-empty for students and must be absent for
	// every other role.
	ClassIDs []string `bson:"class_ids,omitempty" json:"class_ids,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
