package domain

import (
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// LikeTargetKind names the collection a like points into.
type LikeTargetKind string

const (
	LikeTargetVideo   LikeTargetKind = "video"
	LikeTargetComment LikeTargetKind = "comment"
	LikeTargetTweet   LikeTargetKind = "tweet"
)

// Like records one user's reaction to exactly one of a video, a comment or a
// tweet. Liked=false is a dislike. The repository enforces a partial unique
// index per (target, likedBy) pair.
type Like struct {
	ID      primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	Video   *primitive.ObjectID `bson:"video,omitempty" json:"video,omitempty"`
	Comment *primitive.ObjectID `bson:"comment,omitempty" json:"comment,omitempty"`
	Tweet   *primitive.ObjectID `bson:"tweet,omitempty" json:"tweet,omitempty"`
	LikedBy primitive.ObjectID  `bson:"likedBy" json:"likedBy"`
	Liked   bool                `bson:"liked" json:"liked"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// ErrAmbiguousLikeTarget is returned when a like does not reference exactly
// one target.
var ErrAmbiguousLikeTarget = errors.New("like must reference exactly one of video, comment or tweet")

// Validate checks the one-target invariant.
func (l *Like) Validate() error {
	n := 0
	if l.Video != nil {
		n++
	}
	if l.Comment != nil {
		n++
	}
	if l.Tweet != nil {
		n++
	}
	if n != 1 {
		return ErrAmbiguousLikeTarget
	}
	return nil
}

// Target returns the kind and id of the referenced entity.
func (l *Like) Target() (LikeTargetKind, primitive.ObjectID) {
	switch {
	case l.Video != nil:
		return LikeTargetVideo, *l.Video
	case l.Comment != nil:
		return LikeTargetComment, *l.Comment
	case l.Tweet != nil:
		return LikeTargetTweet, *l.Tweet
	}
	return "", primitive.NilObjectID
}
