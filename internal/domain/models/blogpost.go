// internal/domain/models/blogpost.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// BlogPost is an announcement/article published by an organization. Body is
// HTML and is sanitized on write.
type BlogPost struct {
	ID        primitive.ObjectID `bson:"_id" json:"id"`
	Title     string             `bson:"title" json:"title"`
	TitleCI   string             `bson:"title_ci" json:"title_ci"`
	Body      string             `bson:"body" json:"body"`
	AuthorID  string             `bson:"author_id" json:"author_id"` // profile id
	Published bool               `bson:"published" json:"published"`

	OrganizationID primitive.ObjectID `bson:"organization_id" json:"organization_id"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
