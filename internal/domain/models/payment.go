// internal/domain/models/payment.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Payment statuses. Gateway integration is out of scope; these records track
// what the organization has billed and received.
const (
	PaymentPending  = "pending"
	PaymentPaid     = "paid"
	PaymentRefunded = "refunded"
)

// Payment is a fee record for a student, scoped to an organization.
type Payment struct {
	ID        primitive.ObjectID  `bson:"_id" json:"id"`
	StudentID string              `bson:"student_id" json:"student_id"` // profile id
	CourseID  *primitive.ObjectID `bson:"course_id,omitempty" json:"course_id,omitempty"`
	Amount    int64               `bson:"amount" json:"amount"` // minor units
	Currency  string              `bson:"currency" json:"currency"`
	Status    string              `bson:"status" json:"status"`
	Note      string              `bson:"note,omitempty" json:"note,omitempty"`

	OrganizationID primitive.ObjectID `bson:"organization_id" json:"organization_id"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
