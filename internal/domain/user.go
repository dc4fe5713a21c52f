package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User represents a channel owner / viewer. Credential management lives in the
// identity service; this model only carries what the content side needs.
type User struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Username    string             `bson:"username" json:"username"` // unique, stored lowercase
	Email       string             `bson:"email" json:"email"`       // unique
	FullName    string             `bson:"fullName" json:"fullName"`
	Avatar      string             `bson:"avatar,omitempty" json:"avatar,omitempty"`
	CoverImage  string             `bson:"coverImage,omitempty" json:"coverImage,omitempty"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`

	// WatchHistory grows unbounded until the user clears it explicitly.
	WatchHistory []WatchEntry `bson:"watchHistory,omitempty" json:"watchHistory,omitempty"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// WatchEntry is a single playback record on a user's history list.
type WatchEntry struct {
	Video     primitive.ObjectID `bson:"video" json:"video"`
	WatchedAt time.Time          `bson:"watchedAt" json:"watchedAt"`
}

// PublicUser is the projection of a user that other people's views may see.
type PublicUser struct {
	ID       primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Username string             `bson:"username" json:"username"`
	FullName string             `bson:"fullName" json:"fullName"`
	Avatar   string             `bson:"avatar,omitempty" json:"avatar,omitempty"`
}

// Public returns the user's public projection.
func (u *User) Public() PublicUser {
	return PublicUser{
		ID:       u.ID,
		Username: u.Username,
		FullName: u.FullName,
		Avatar:   u.Avatar,
	}
}
