// internal/domain/models/recording.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Recording is a recorded session attached to a course or batch.
type Recording struct {
	ID       primitive.ObjectID  `bson:"_id" json:"id"`
	Title    string              `bson:"title" json:"title"`
	TitleCI  string              `bson:"title_ci" json:"title_ci"`
	VideoURL string              `bson:"video_url" json:"video_url"`
	CourseID *primitive.ObjectID `bson:"course_id,omitempty" json:"course_id,omitempty"`
	BatchID  *primitive.ObjectID `bson:"batch_id,omitempty" json:"batch_id,omitempty"`
	Status   string              `bson:"status" json:"status"`

	OrganizationID primitive.ObjectID `bson:"organization_id" json:"organization_id"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
