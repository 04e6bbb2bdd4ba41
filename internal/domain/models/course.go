// internal/domain/models/course.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Course is a class offered by an organization. Student profiles reference
// courses by the hex form of the course id in their class_ids list.
type Course struct {
	ID          primitive.ObjectID `bson:"_id" json:"id"`
	Title       string             `bson:"title" json:"title"`
	TitleCI     string             `bson:"title_ci" json:"title_ci"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	Schedule    string             `bson:"schedule,omitempty" json:"schedule,omitempty"`
	Status      string             `bson:"status" json:"status"`

	OrganizationID primitive.ObjectID `bson:"organization_id" json:"organization_id"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
