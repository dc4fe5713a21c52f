package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Video is a published media entry. VideoFile points at the streaming
// manifest produced by the blob store, Thumbnail at the poster image.
// Owner is immutable after creation.
type Video struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Owner       primitive.ObjectID `bson:"owner" json:"owner"`
	VideoFile   string             `bson:"videoFile" json:"videoFile"`
	Thumbnail   string             `bson:"thumbnail" json:"thumbnail"`
	Title       string             `bson:"title" json:"title"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	Duration    float64            `bson:"duration" json:"duration"` // seconds
	Views       int64              `bson:"views" json:"views"`
	IsPublished bool               `bson:"isPublished" json:"isPublished"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// VideoWithOwner is a video row joined with its owner's public projection.
// The owner document is attached by a $lookup, never persisted.
type VideoWithOwner struct {
	Video     `bson:",inline"`
	OwnerInfo PublicUser `bson:"ownerInfo" json:"ownerInfo"`
}
