package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Subscription links a subscriber to a channel (both users). The repository
// enforces uniqueness of the (channel, subscriber) pair; the service rejects
// channel == subscriber.
type Subscription struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Channel    primitive.ObjectID `bson:"channel" json:"channel"`
	Subscriber primitive.ObjectID `bson:"subscriber" json:"subscriber"`
	CreatedAt  time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt  time.Time          `bson:"updatedAt" json:"updatedAt"`
}
