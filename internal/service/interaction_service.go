package service

import (
	"context"
	"errors"
	"time"

	"okenna/streamtube/internal/domain"
	"okenna/streamtube/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ReactionState reports the actor's reaction to a target after a toggle.
type ReactionState struct {
	Active bool `json:"active"`
	Liked  bool `json:"liked"`
}

// SubscriptionState reports whether the actor is subscribed after a toggle.
type SubscriptionState struct {
	Subscribed bool `json:"subscribed"`
}

// InteractionService handles the write side of engagement: like and dislike
// toggles, subscription toggles, and watch history clearing. Toggles are
// idempotent cycles, never counters.
type InteractionService interface {
	ToggleVideoLike(ctx context.Context, actor, video primitive.ObjectID, liked bool) (*ReactionState, error)
	ToggleCommentLike(ctx context.Context, actor, comment primitive.ObjectID, liked bool) (*ReactionState, error)
	ToggleTweetLike(ctx context.Context, actor, tweet primitive.ObjectID, liked bool) (*ReactionState, error)
	ToggleSubscription(ctx context.Context, actor, channel primitive.ObjectID) (*SubscriptionState, error)
	ClearWatchHistory(ctx context.Context, actor primitive.ObjectID) error
}

type interactionService struct {
	userRepo    repository.UserRepository
	videoRepo   repository.VideoRepository
	commentRepo repository.CommentRepository
	tweetRepo   repository.TweetRepository
	likeRepo    repository.LikeRepository
	subRepo     repository.SubscriptionRepository
}

// NewInteractionService creates a new instance of interactionService.
func NewInteractionService(
	userRepo repository.UserRepository,
	videoRepo repository.VideoRepository,
	commentRepo repository.CommentRepository,
	tweetRepo repository.TweetRepository,
	likeRepo repository.LikeRepository,
	subRepo repository.SubscriptionRepository,
) InteractionService {
	return &interactionService{
		userRepo:    userRepo,
		videoRepo:   videoRepo,
		commentRepo: commentRepo,
		tweetRepo:   tweetRepo,
		likeRepo:    likeRepo,
		subRepo:     subRepo,
	}
}

func (s *interactionService) ToggleVideoLike(ctx context.Context, actor, video primitive.ObjectID, liked bool) (*ReactionState, error) {
	if _, err := s.videoRepo.GetByID(ctx, video); err != nil {
		return nil, repoError(err, "video not found", "failed to load video")
	}
	return s.toggleLike(ctx, actor, domain.LikeTargetVideo, video, liked)
}

func (s *interactionService) ToggleCommentLike(ctx context.Context, actor, comment primitive.ObjectID, liked bool) (*ReactionState, error) {
	if _, err := s.commentRepo.GetByID(ctx, comment); err != nil {
		return nil, repoError(err, "comment not found", "failed to load comment")
	}
	return s.toggleLike(ctx, actor, domain.LikeTargetComment, comment, liked)
}

func (s *interactionService) ToggleTweetLike(ctx context.Context, actor, tweet primitive.ObjectID, liked bool) (*ReactionState, error) {
	if _, err := s.tweetRepo.GetByID(ctx, tweet); err != nil {
		return nil, repoError(err, "tweet not found", "failed to load tweet")
	}
	return s.toggleLike(ctx, actor, domain.LikeTargetTweet, tweet, liked)
}

// toggleLike runs the three-way cycle: no reaction creates one, repeating the
// same reaction removes it, and the opposite reaction flips the stored flag
// in place so one document per (target, user) ever exists.
func (s *interactionService) toggleLike(ctx context.Context, actor primitive.ObjectID, kind domain.LikeTargetKind, target primitive.ObjectID, liked bool) (*ReactionState, error) {
	existing, err := s.likeRepo.FindByTarget(ctx, kind, target, actor)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, persistenceError("failed to look up reaction", err)
	}

	if existing == nil {
		now := time.Now()
		like := &domain.Like{
			LikedBy:   actor,
			Liked:     liked,
			CreatedAt: now,
			UpdatedAt: now,
		}
		switch kind {
		case domain.LikeTargetVideo:
			like.Video = &target
		case domain.LikeTargetComment:
			like.Comment = &target
		case domain.LikeTargetTweet:
			like.Tweet = &target
		}
		if _, err := s.likeRepo.Create(ctx, like); err != nil {
			if errors.Is(err, repository.ErrConflict) {
				// Lost a race with a concurrent toggle for the same target.
				return nil, conflictError("reaction already recorded", err)
			}
			return nil, persistenceError("failed to record reaction", err)
		}
		return &ReactionState{Active: true, Liked: liked}, nil
	}

	if existing.Liked == liked {
		if err := s.likeRepo.Delete(ctx, existing.ID); err != nil {
			return nil, persistenceError("failed to remove reaction", err)
		}
		return &ReactionState{Active: false, Liked: liked}, nil
	}

	if err := s.likeRepo.SetLiked(ctx, existing.ID, liked); err != nil {
		return nil, persistenceError("failed to update reaction", err)
	}
	return &ReactionState{Active: true, Liked: liked}, nil
}

func (s *interactionService) ToggleSubscription(ctx context.Context, actor, channel primitive.ObjectID) (*SubscriptionState, error) {
	if actor == channel {
		return nil, validationError("cannot subscribe to your own channel")
	}
	if _, err := s.userRepo.GetByID(ctx, channel); err != nil {
		return nil, repoError(err, "channel not found", "failed to load channel")
	}

	existing, err := s.subRepo.Find(ctx, channel, actor)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, persistenceError("failed to look up subscription", err)
	}
	if existing != nil {
		if err := s.subRepo.Delete(ctx, existing.ID); err != nil {
			return nil, persistenceError("failed to remove subscription", err)
		}
		return &SubscriptionState{Subscribed: false}, nil
	}

	now := time.Now()
	sub := &domain.Subscription{
		Channel:    channel,
		Subscriber: actor,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if _, err := s.subRepo.Create(ctx, sub); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, conflictError("subscription already recorded", err)
		}
		return nil, persistenceError("failed to record subscription", err)
	}
	return &SubscriptionState{Subscribed: true}, nil
}

func (s *interactionService) ClearWatchHistory(ctx context.Context, actor primitive.ObjectID) error {
	if err := s.userRepo.ClearWatchHistory(ctx, actor); err != nil {
		return repoError(err, "user not found", "failed to clear watch history")
	}
	return nil
}
