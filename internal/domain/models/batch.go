// internal/domain/models/batch.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Batch is a cohort of students working through a course together.
type Batch struct {
	ID       primitive.ObjectID  `bson:"_id" json:"id"`
	Name     string              `bson:"name" json:"name"`
	NameCI   string              `bson:"name_ci" json:"name_ci"`
	CourseID *primitive.ObjectID `bson:"course_id,omitempty" json:"course_id,omitempty"`

	// TeacherID is the profile id (string) of the teacher running the batch.
	TeacherID string `bson:"teacher_id,omitempty" json:"teacher_id,omitempty"`

	StartDate *time.Time `bson:"start_date,omitempty" json:"start_date,omitempty"`
	Status    string     `bson:"status" json:"status"`

	OrganizationID primitive.ObjectID `bson:"organization_id" json:"organization_id"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
