package repository

import (
	"context"
	"time"

	"okenna/streamtube/internal/domain"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Error constants for the repository layer.
var (
	ErrNotFound     = RepositoryError("not found")
	ErrConflict     = RepositoryError("duplicate key")
	ErrUpdateFailed = RepositoryError("update failed")
	ErrDeleteFailed = RepositoryError("delete failed")
)

// RepositoryError helps distinguish repository errors.
type RepositoryError string

func (e RepositoryError) Error() string {
	return string(e)
}

// VideoFilter narrows video listings. Nil/zero fields are ignored.
type VideoFilter struct {
	Owner         *primitive.ObjectID
	PublishedOnly bool
}

// Page is a 1-based pagination request.
type Page struct {
	Number int
	Limit  int
}

// ChannelVideoStats are the per-owner sums computed by a single group stage.
type ChannelVideoStats struct {
	TotalVideos int64 `bson:"totalVideos"`
	TotalViews  int64 `bson:"totalViews"`
}

// UserRepository gives access to users and their watch history list.
type UserRepository interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	GetPublicByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]domain.PublicUser, error)
	AppendWatchEntry(ctx context.Context, userID, videoID primitive.ObjectID, watchedAt time.Time) error
	GetWatchHistory(ctx context.Context, userID primitive.ObjectID) ([]domain.WatchEntry, error)
	ClearWatchHistory(ctx context.Context, userID primitive.ObjectID) error
}

// VideoRepository stores video metadata. Listing goes through the
// aggregation pipeline builder so owner details come back joined.
type VideoRepository interface {
	Create(ctx context.Context, video *domain.Video) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Video, error)
	Update(ctx context.Context, video *domain.Video) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	IncrementViews(ctx context.Context, id primitive.ObjectID) (int64, error)

	// List returns one page plus the total match count, default-ordered by
	// creation time descending.
	List(ctx context.Context, filter VideoFilter, page Page) ([]domain.VideoWithOwner, int64, error)
	// ListAll returns every match default-ordered, for in-process ranking.
	ListAll(ctx context.Context, filter VideoFilter) ([]domain.VideoWithOwner, error)
	ListByIDs(ctx context.Context, ids []primitive.ObjectID) ([]domain.Video, error)
	StatsByOwner(ctx context.Context, owner primitive.ObjectID) (*ChannelVideoStats, error)
	IDsByOwner(ctx context.Context, owner primitive.ObjectID) ([]primitive.ObjectID, error)
}

// LikeRepository stores like/dislike rows for all three target kinds.
type LikeRepository interface {
	Create(ctx context.Context, like *domain.Like) (primitive.ObjectID, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
	SetLiked(ctx context.Context, id primitive.ObjectID, liked bool) error
	FindByTarget(ctx context.Context, kind domain.LikeTargetKind, target, likedBy primitive.ObjectID) (*domain.Like, error)
	ListByVideo(ctx context.Context, videoID primitive.ObjectID) ([]domain.Like, error)
	CountLikesForVideos(ctx context.Context, videoIDs []primitive.ObjectID) (int64, error)
	ListVideoLikesByUser(ctx context.Context, likedBy primitive.ObjectID) ([]domain.Like, error)
}

// SubscriptionRepository stores channel/subscriber pairs.
type SubscriptionRepository interface {
	Create(ctx context.Context, sub *domain.Subscription) (primitive.ObjectID, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
	Find(ctx context.Context, channel, subscriber primitive.ObjectID) (*domain.Subscription, error)
	Exists(ctx context.Context, channel, subscriber primitive.ObjectID) (bool, error)
	CountByChannel(ctx context.Context, channel primitive.ObjectID) (int64, error)
	CountBySubscriber(ctx context.Context, subscriber primitive.ObjectID) (int64, error)
	ListByChannel(ctx context.Context, channel primitive.ObjectID) ([]domain.Subscription, error)
	ListBySubscriber(ctx context.Context, subscriber primitive.ObjectID) ([]domain.Subscription, error)
}

// CommentRepository: the core only needs lookups and counts; comment CRUD is
// a separate thin collaborator.
type CommentRepository interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Comment, error)
	CountForVideos(ctx context.Context, videoIDs []primitive.ObjectID) (int64, error)
}

// TweetRepository: likewise count-only for channel stats.
type TweetRepository interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Tweet, error)
	CountByOwner(ctx context.Context, owner primitive.ObjectID) (int64, error)
}

// PlaylistRepository keeps video membership sets consistent with deletions.
type PlaylistRepository interface {
	ListByOwner(ctx context.Context, owner primitive.ObjectID) ([]domain.Playlist, error)
	RemoveVideoFromAll(ctx context.Context, videoID primitive.ObjectID) (int64, error)
}
