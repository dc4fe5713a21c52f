package service

import (
	"context"
	"sort"
	"time"

	"okenna/streamtube/internal/domain"
	"okenna/streamtube/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	defaultFeedLimit = 10
	maxFeedLimit     = 100
	watchDateLayout  = "2006-01-02"
)

// ChannelStats is the dashboard view over everything a channel owns. Every
// number is its own independent count or sum, never a cross product.
type ChannelStats struct {
	TotalVideos       int64 `json:"totalVideos"`
	TotalViews        int64 `json:"totalViews"`
	SubscriberCount   int64 `json:"subscriberCount"`
	SubscribedToCount int64 `json:"subscribedToCount"`
	TotalLikes        int64 `json:"totalLikes"`
	TotalComments     int64 `json:"totalComments"`
	TotalTweets       int64 `json:"totalTweets"`
}

// ChannelProfile is the public channel page.
type ChannelProfile struct {
	domain.PublicUser
	CoverImage        string `json:"coverImage,omitempty"`
	Description       string `json:"description,omitempty"`
	SubscriberCount   int64  `json:"subscriberCount"`
	SubscribedToCount int64  `json:"subscribedToCount"`
	IsSubscribed      bool   `json:"isSubscribed"`
}

// VideoDetail is a single published video with its like partition and the
// optional actor's own reaction flags.
type VideoDetail struct {
	domain.Video
	Owner         domain.PublicUser `json:"owner"`
	TotalLikes    int64             `json:"totalLikes"`
	TotalDislikes int64             `json:"totalDislikes"`
	IsLiked       bool              `json:"isLiked"`
	IsDisliked    bool              `json:"isDisliked"`
}

// HistoryEntry is one watched video enriched with its owner.
type HistoryEntry struct {
	Video     domain.Video      `json:"video"`
	Owner     domain.PublicUser `json:"owner"`
	WatchedAt time.Time         `json:"watchedAt"`
}

// HistoryDay groups history entries by the calendar date they were watched.
type HistoryDay struct {
	Date    string         `json:"date"`
	Entries []HistoryEntry `json:"entries"`
}

// FeedOptions select and page the public video feed.
type FeedOptions struct {
	Owner  *primitive.ObjectID
	Search string
	Page   int
	Limit  int
}

// FeedPage is one page of feed results with its paging envelope.
type FeedPage struct {
	Videos     []domain.VideoWithOwner `json:"videos"`
	Page       int                     `json:"page"`
	Limit      int                     `json:"limit"`
	TotalItems int64                   `json:"totalItems"`
	TotalPages int64                   `json:"totalPages"`
}

// SubscriptionRow is one edge of the subscription graph enriched with the
// other party and that party's own subscriber count.
type SubscriptionRow struct {
	ID              primitive.ObjectID `json:"id"`
	User            domain.PublicUser  `json:"user"`
	SubscriberCount int64              `json:"subscriberCount"`
	CreatedAt       time.Time          `json:"createdAt"`
}

// EngagementService builds the read-time composite views. Every operation
// is a read-only join over the repositories; none mutates source entities,
// and no isolation guarantee spans the joins inside one view.
type EngagementService interface {
	ChannelStats(ctx context.Context, owner primitive.ObjectID) (*ChannelStats, error)
	ChannelProfile(ctx context.Context, username string, actor *primitive.ObjectID) (*ChannelProfile, error)
	ChannelVideos(ctx context.Context, owner primitive.ObjectID) ([]domain.Video, error)
	ChannelPlaylists(ctx context.Context, owner primitive.ObjectID) ([]domain.Playlist, error)
	VideoDetail(ctx context.Context, videoID primitive.ObjectID, actor *primitive.ObjectID) (*VideoDetail, error)
	WatchHistory(ctx context.Context, actor primitive.ObjectID) ([]HistoryDay, error)
	Feed(ctx context.Context, opts FeedOptions) (*FeedPage, error)
	LikedVideos(ctx context.Context, actor primitive.ObjectID) ([]domain.VideoWithOwner, error)
	SubscribersOf(ctx context.Context, channel primitive.ObjectID) ([]SubscriptionRow, error)
	SubscriptionsOf(ctx context.Context, subscriber primitive.ObjectID) ([]SubscriptionRow, error)
}

type engagementService struct {
	userRepo     repository.UserRepository
	videoRepo    repository.VideoRepository
	likeRepo     repository.LikeRepository
	subRepo      repository.SubscriptionRepository
	commentRepo  repository.CommentRepository
	tweetRepo    repository.TweetRepository
	playlistRepo repository.PlaylistRepository
}

// NewEngagementService creates a new instance of engagementService.
func NewEngagementService(
	userRepo repository.UserRepository,
	videoRepo repository.VideoRepository,
	likeRepo repository.LikeRepository,
	subRepo repository.SubscriptionRepository,
	commentRepo repository.CommentRepository,
	tweetRepo repository.TweetRepository,
	playlistRepo repository.PlaylistRepository,
) EngagementService {
	return &engagementService{
		userRepo:     userRepo,
		videoRepo:    videoRepo,
		likeRepo:     likeRepo,
		subRepo:      subRepo,
		commentRepo:  commentRepo,
		tweetRepo:    tweetRepo,
		playlistRepo: playlistRepo,
	}
}

func (s *engagementService) ChannelStats(ctx context.Context, owner primitive.ObjectID) (*ChannelStats, error) {
	if _, err := s.userRepo.GetByID(ctx, owner); err != nil {
		return nil, repoError(err, "channel not found", "failed to load channel")
	}

	videoStats, err := s.videoRepo.StatsByOwner(ctx, owner)
	if err != nil {
		return nil, persistenceError("failed to aggregate video stats", err)
	}
	subscriberCount, err := s.subRepo.CountByChannel(ctx, owner)
	if err != nil {
		return nil, persistenceError("failed to count subscribers", err)
	}
	subscribedToCount, err := s.subRepo.CountBySubscriber(ctx, owner)
	if err != nil {
		return nil, persistenceError("failed to count subscriptions", err)
	}
	videoIDs, err := s.videoRepo.IDsByOwner(ctx, owner)
	if err != nil {
		return nil, persistenceError("failed to list owned videos", err)
	}
	totalLikes, err := s.likeRepo.CountLikesForVideos(ctx, videoIDs)
	if err != nil {
		return nil, persistenceError("failed to count likes", err)
	}
	totalComments, err := s.commentRepo.CountForVideos(ctx, videoIDs)
	if err != nil {
		return nil, persistenceError("failed to count comments", err)
	}
	totalTweets, err := s.tweetRepo.CountByOwner(ctx, owner)
	if err != nil {
		return nil, persistenceError("failed to count tweets", err)
	}

	return &ChannelStats{
		TotalVideos:       videoStats.TotalVideos,
		TotalViews:        videoStats.TotalViews,
		SubscriberCount:   subscriberCount,
		SubscribedToCount: subscribedToCount,
		TotalLikes:        totalLikes,
		TotalComments:     totalComments,
		TotalTweets:       totalTweets,
	}, nil
}

func (s *engagementService) ChannelProfile(ctx context.Context, username string, actor *primitive.ObjectID) (*ChannelProfile, error) {
	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return nil, repoError(err, "channel does not exist", "failed to load channel")
	}

	subscriberCount, err := s.subRepo.CountByChannel(ctx, user.ID)
	if err != nil {
		return nil, persistenceError("failed to count subscribers", err)
	}
	subscribedToCount, err := s.subRepo.CountBySubscriber(ctx, user.ID)
	if err != nil {
		return nil, persistenceError("failed to count subscriptions", err)
	}

	isSubscribed := false
	if actor != nil {
		isSubscribed, err = s.subRepo.Exists(ctx, user.ID, *actor)
		if err != nil {
			return nil, persistenceError("failed to check subscription", err)
		}
	}

	return &ChannelProfile{
		PublicUser:        user.Public(),
		CoverImage:        user.CoverImage,
		Description:       user.Description,
		SubscriberCount:   subscriberCount,
		SubscribedToCount: subscribedToCount,
		IsSubscribed:      isSubscribed,
	}, nil
}

// ChannelVideos lists everything the owner uploaded, published or not; it
// backs the owner's own dashboard.
func (s *engagementService) ChannelVideos(ctx context.Context, owner primitive.ObjectID) ([]domain.Video, error) {
	if _, err := s.userRepo.GetByID(ctx, owner); err != nil {
		return nil, repoError(err, "channel not found", "failed to load channel")
	}
	ids, err := s.videoRepo.IDsByOwner(ctx, owner)
	if err != nil {
		return nil, persistenceError("failed to list owned videos", err)
	}
	videos, err := s.videoRepo.ListByIDs(ctx, ids)
	if err != nil {
		return nil, persistenceError("failed to load owned videos", err)
	}
	sort.Slice(videos, func(i, j int) bool {
		return videos[i].CreatedAt.After(videos[j].CreatedAt)
	})
	return videos, nil
}

// ChannelPlaylists lists the playlists a channel curates.
func (s *engagementService) ChannelPlaylists(ctx context.Context, owner primitive.ObjectID) ([]domain.Playlist, error) {
	if _, err := s.userRepo.GetByID(ctx, owner); err != nil {
		return nil, repoError(err, "channel not found", "failed to load channel")
	}
	playlists, err := s.playlistRepo.ListByOwner(ctx, owner)
	if err != nil {
		return nil, persistenceError("failed to list playlists", err)
	}
	return playlists, nil
}

func (s *engagementService) VideoDetail(ctx context.Context, videoID primitive.ObjectID, actor *primitive.ObjectID) (*VideoDetail, error) {
	video, err := s.videoRepo.GetByID(ctx, videoID)
	if err != nil {
		return nil, repoError(err, "video not found", "failed to load video")
	}
	// Unpublished videos are invisible here, owner included.
	if !video.IsPublished {
		return nil, notFoundError("video not found")
	}

	likes, err := s.likeRepo.ListByVideo(ctx, videoID)
	if err != nil {
		return nil, persistenceError("failed to load likes", err)
	}

	detail := &VideoDetail{Video: *video}
	for _, like := range likes {
		if like.Liked {
			detail.TotalLikes++
		} else {
			detail.TotalDislikes++
		}
		if actor != nil && like.LikedBy == *actor {
			if like.Liked {
				detail.IsLiked = true
			} else {
				detail.IsDisliked = true
			}
		}
	}

	owners, err := s.userRepo.GetPublicByIDs(ctx, []primitive.ObjectID{video.Owner})
	if err != nil {
		return nil, persistenceError("failed to load video owner", err)
	}
	detail.Owner = owners[video.Owner]

	return detail, nil
}

// WatchHistory returns the actor's history grouped by calendar date of the
// watch, most recent day first. Entries whose video has since been deleted
// are skipped.
func (s *engagementService) WatchHistory(ctx context.Context, actor primitive.ObjectID) ([]HistoryDay, error) {
	entries, err := s.userRepo.GetWatchHistory(ctx, actor)
	if err != nil {
		return nil, repoError(err, "user not found", "failed to load watch history")
	}
	if len(entries) == 0 {
		return []HistoryDay{}, nil
	}

	videoIDs := make([]primitive.ObjectID, 0, len(entries))
	for _, e := range entries {
		videoIDs = append(videoIDs, e.Video)
	}
	videos, err := s.videoRepo.ListByIDs(ctx, videoIDs)
	if err != nil {
		return nil, persistenceError("failed to load watched videos", err)
	}
	videoByID := make(map[primitive.ObjectID]domain.Video, len(videos))
	ownerIDs := make([]primitive.ObjectID, 0, len(videos))
	for _, v := range videos {
		videoByID[v.ID] = v
		ownerIDs = append(ownerIDs, v.Owner)
	}
	owners, err := s.userRepo.GetPublicByIDs(ctx, ownerIDs)
	if err != nil {
		return nil, persistenceError("failed to load video owners", err)
	}

	sorted := make([]domain.WatchEntry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].WatchedAt.After(sorted[j].WatchedAt)
	})

	days := []HistoryDay{}
	for _, entry := range sorted {
		video, ok := videoByID[entry.Video]
		if !ok {
			continue
		}
		date := entry.WatchedAt.UTC().Format(watchDateLayout)
		if len(days) == 0 || days[len(days)-1].Date != date {
			days = append(days, HistoryDay{Date: date})
		}
		days[len(days)-1].Entries = append(days[len(days)-1].Entries, HistoryEntry{
			Video:     video,
			Owner:     owners[video.Owner],
			WatchedAt: entry.WatchedAt,
		})
	}
	return days, nil
}

func (s *engagementService) Feed(ctx context.Context, opts FeedOptions) (*FeedPage, error) {
	if opts.Page < 1 {
		opts.Page = 1
	}
	if opts.Limit < 1 {
		opts.Limit = defaultFeedLimit
	}
	if opts.Limit > maxFeedLimit {
		opts.Limit = maxFeedLimit
	}

	filter := repository.VideoFilter{Owner: opts.Owner, PublishedOnly: true}

	terms := SearchTerms(opts.Search)
	var (
		videos []domain.VideoWithOwner
		total  int64
		err    error
	)
	if len(terms) > 0 {
		// Ranking is in-process, so fetch every candidate and page the
		// scored order.
		candidates, err := s.videoRepo.ListAll(ctx, filter)
		if err != nil {
			return nil, persistenceError("failed to list videos", err)
		}
		scored := RankVideos(terms, candidates)
		total = int64(len(scored))
		start := (opts.Page - 1) * opts.Limit
		if start > len(scored) {
			start = len(scored)
		}
		end := start + opts.Limit
		if end > len(scored) {
			end = len(scored)
		}
		videos = make([]domain.VideoWithOwner, 0, end-start)
		for _, sv := range scored[start:end] {
			videos = append(videos, sv.VideoWithOwner)
		}
	} else {
		videos, total, err = s.videoRepo.List(ctx, filter, repository.Page{Number: opts.Page, Limit: opts.Limit})
		if err != nil {
			return nil, persistenceError("failed to list videos", err)
		}
	}

	totalPages := total / int64(opts.Limit)
	if total%int64(opts.Limit) != 0 {
		totalPages++
	}
	return &FeedPage{
		Videos:     videos,
		Page:       opts.Page,
		Limit:      opts.Limit,
		TotalItems: total,
		TotalPages: totalPages,
	}, nil
}

func (s *engagementService) LikedVideos(ctx context.Context, actor primitive.ObjectID) ([]domain.VideoWithOwner, error) {
	likes, err := s.likeRepo.ListVideoLikesByUser(ctx, actor)
	if err != nil {
		return nil, persistenceError("failed to list likes", err)
	}
	ids := make([]primitive.ObjectID, 0, len(likes))
	for _, like := range likes {
		if like.Video != nil {
			ids = append(ids, *like.Video)
		}
	}
	videos, err := s.videoRepo.ListByIDs(ctx, ids)
	if err != nil {
		return nil, persistenceError("failed to load liked videos", err)
	}
	videoByID := make(map[primitive.ObjectID]domain.Video, len(videos))
	ownerIDs := make([]primitive.ObjectID, 0, len(videos))
	for _, v := range videos {
		videoByID[v.ID] = v
		ownerIDs = append(ownerIDs, v.Owner)
	}
	owners, err := s.userRepo.GetPublicByIDs(ctx, ownerIDs)
	if err != nil {
		return nil, persistenceError("failed to load video owners", err)
	}

	out := []domain.VideoWithOwner{}
	for _, id := range ids {
		video, ok := videoByID[id]
		if !ok {
			continue // liked video deleted since
		}
		out = append(out, domain.VideoWithOwner{Video: video, OwnerInfo: owners[video.Owner]})
	}
	return out, nil
}

// subscriptionRows enriches each edge with the given party's public details
// and that party's own subscriber count, one nested aggregate per row.
func (s *engagementService) subscriptionRows(ctx context.Context, subs []domain.Subscription, party func(domain.Subscription) primitive.ObjectID) ([]SubscriptionRow, error) {
	ids := make([]primitive.ObjectID, 0, len(subs))
	for _, sub := range subs {
		ids = append(ids, party(sub))
	}
	publics, err := s.userRepo.GetPublicByIDs(ctx, ids)
	if err != nil {
		return nil, persistenceError("failed to load users", err)
	}

	rows := []SubscriptionRow{}
	for _, sub := range subs {
		id := party(sub)
		public, ok := publics[id]
		if !ok {
			continue
		}
		count, err := s.subRepo.CountByChannel(ctx, id)
		if err != nil {
			return nil, persistenceError("failed to count subscribers", err)
		}
		rows = append(rows, SubscriptionRow{
			ID:              sub.ID,
			User:            public,
			SubscriberCount: count,
			CreatedAt:       sub.CreatedAt,
		})
	}
	return rows, nil
}

func (s *engagementService) SubscribersOf(ctx context.Context, channel primitive.ObjectID) ([]SubscriptionRow, error) {
	if _, err := s.userRepo.GetByID(ctx, channel); err != nil {
		return nil, repoError(err, "channel not found", "failed to load channel")
	}
	subs, err := s.subRepo.ListByChannel(ctx, channel)
	if err != nil {
		return nil, persistenceError("failed to list subscribers", err)
	}
	return s.subscriptionRows(ctx, subs, func(sub domain.Subscription) primitive.ObjectID {
		return sub.Subscriber
	})
}

func (s *engagementService) SubscriptionsOf(ctx context.Context, subscriber primitive.ObjectID) ([]SubscriptionRow, error) {
	if _, err := s.userRepo.GetByID(ctx, subscriber); err != nil {
		return nil, repoError(err, "user not found", "failed to load user")
	}
	subs, err := s.subRepo.ListBySubscriber(ctx, subscriber)
	if err != nil {
		return nil, persistenceError("failed to list subscriptions", err)
	}
	return s.subscriptionRows(ctx, subs, func(sub domain.Subscription) primitive.ObjectID {
		return sub.Channel
	})
}
