package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Playlist is an owner-curated set of video references. Videos holds no
// duplicates; the repository adds with $addToSet.
type Playlist struct {
	ID          primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Owner       primitive.ObjectID   `bson:"owner" json:"owner"`
	Name        string               `bson:"name" json:"name"`
	Description string               `bson:"description,omitempty" json:"description,omitempty"`
	Videos      []primitive.ObjectID `bson:"videos,omitempty" json:"videos,omitempty"`
	CreatedAt   time.Time            `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time            `bson:"updatedAt" json:"updatedAt"`
}
