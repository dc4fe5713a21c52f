package service

import (
	"context"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"okenna/streamtube/internal/domain"
	"okenna/streamtube/internal/repository"
	"okenna/streamtube/internal/storage"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// In-memory repository fakes. They mirror the mongo implementations'
// contracts: ErrNotFound for absent rows, ErrConflict on unique violations,
// createdAt-descending default ordering.

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[primitive.ObjectID]*domain.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[primitive.ObjectID]*domain.User{}}
}

func (r *fakeUserRepo) add(u *domain.User) primitive.ObjectID {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u.ID == primitive.NilObjectID {
		u.ID = primitive.NewObjectID()
	}
	r.users[u.ID] = u
	return u.ID
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *u
	return &copied, nil
}

func (r *fakeUserRepo) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Username == username {
			copied := *u
			return &copied, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeUserRepo) GetPublicByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]domain.PublicUser, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := map[primitive.ObjectID]domain.PublicUser{}
	for _, id := range ids {
		if u, ok := r.users[id]; ok {
			out[id] = u.Public()
		}
	}
	return out, nil
}

func (r *fakeUserRepo) AppendWatchEntry(ctx context.Context, userID, videoID primitive.ObjectID, watchedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok {
		return repository.ErrNotFound
	}
	u.WatchHistory = append(u.WatchHistory, domain.WatchEntry{Video: videoID, WatchedAt: watchedAt})
	return nil
}

func (r *fakeUserRepo) GetWatchHistory(ctx context.Context, userID primitive.ObjectID) ([]domain.WatchEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	out := make([]domain.WatchEntry, len(u.WatchHistory))
	copy(out, u.WatchHistory)
	return out, nil
}

func (r *fakeUserRepo) ClearWatchHistory(ctx context.Context, userID primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok {
		return repository.ErrNotFound
	}
	u.WatchHistory = nil
	return nil
}

type fakeVideoRepo struct {
	mu     sync.Mutex
	videos map[primitive.ObjectID]*domain.Video
	owners map[primitive.ObjectID]domain.PublicUser

	createErr error
	onCreate  func()
}

func newFakeVideoRepo() *fakeVideoRepo {
	return &fakeVideoRepo{
		videos: map[primitive.ObjectID]*domain.Video{},
		owners: map[primitive.ObjectID]domain.PublicUser{},
	}
}

func (r *fakeVideoRepo) add(v *domain.Video) primitive.ObjectID {
	r.mu.Lock()
	defer r.mu.Unlock()
	if v.ID == primitive.NilObjectID {
		v.ID = primitive.NewObjectID()
	}
	r.videos[v.ID] = v
	return v.ID
}

func (r *fakeVideoRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.videos)
}

func (r *fakeVideoRepo) Create(ctx context.Context, video *domain.Video) (primitive.ObjectID, error) {
	if r.createErr != nil {
		return primitive.NilObjectID, r.createErr
	}
	now := time.Now()
	video.CreatedAt = now
	video.UpdatedAt = now
	id := r.add(video)
	if r.onCreate != nil {
		r.onCreate()
	}
	return id, nil
}

func (r *fakeVideoRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Video, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.videos[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *v
	return &copied, nil
}

func (r *fakeVideoRepo) Update(ctx context.Context, video *domain.Video) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.videos[video.ID]; !ok {
		return repository.ErrNotFound
	}
	copied := *video
	copied.UpdatedAt = time.Now()
	r.videos[video.ID] = &copied
	return nil
}

func (r *fakeVideoRepo) Delete(ctx context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.videos[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.videos, id)
	return nil
}

func (r *fakeVideoRepo) IncrementViews(ctx context.Context, id primitive.ObjectID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.videos[id]
	if !ok {
		return 0, repository.ErrNotFound
	}
	v.Views++
	return v.Views, nil
}

func (r *fakeVideoRepo) matches(v *domain.Video, filter repository.VideoFilter) bool {
	if filter.PublishedOnly && !v.IsPublished {
		return false
	}
	if filter.Owner != nil && v.Owner != *filter.Owner {
		return false
	}
	return true
}

func (r *fakeVideoRepo) listSorted(filter repository.VideoFilter) []domain.VideoWithOwner {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []domain.VideoWithOwner{}
	for _, v := range r.videos {
		if r.matches(v, filter) {
			out = append(out, domain.VideoWithOwner{Video: *v, OwnerInfo: r.owners[v.Owner]})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

func (r *fakeVideoRepo) List(ctx context.Context, filter repository.VideoFilter, page repository.Page) ([]domain.VideoWithOwner, int64, error) {
	all := r.listSorted(filter)
	total := int64(len(all))
	start := (page.Number - 1) * page.Limit
	if start > len(all) {
		start = len(all)
	}
	end := start + page.Limit
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], total, nil
}

func (r *fakeVideoRepo) ListAll(ctx context.Context, filter repository.VideoFilter) ([]domain.VideoWithOwner, error) {
	return r.listSorted(filter), nil
}

func (r *fakeVideoRepo) ListByIDs(ctx context.Context, ids []primitive.ObjectID) ([]domain.Video, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []domain.Video{}
	seen := map[primitive.ObjectID]bool{}
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		if v, ok := r.videos[id]; ok {
			out = append(out, *v)
		}
	}
	return out, nil
}

func (r *fakeVideoRepo) StatsByOwner(ctx context.Context, owner primitive.ObjectID) (*repository.ChannelVideoStats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stats := &repository.ChannelVideoStats{}
	for _, v := range r.videos {
		if v.Owner == owner {
			stats.TotalVideos++
			stats.TotalViews += v.Views
		}
	}
	return stats, nil
}

func (r *fakeVideoRepo) IDsByOwner(ctx context.Context, owner primitive.ObjectID) ([]primitive.ObjectID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []primitive.ObjectID{}
	for _, v := range r.videos {
		if v.Owner == owner {
			out = append(out, v.ID)
		}
	}
	return out, nil
}

type fakeLikeRepo struct {
	mu    sync.Mutex
	likes map[primitive.ObjectID]*domain.Like

	// afterFind runs once FindByTarget's result is fixed, letting a test
	// slip a concurrent writer into the find-then-create window.
	afterFind func()
}

func newFakeLikeRepo() *fakeLikeRepo {
	return &fakeLikeRepo{likes: map[primitive.ObjectID]*domain.Like{}}
}

func (r *fakeLikeRepo) Create(ctx context.Context, like *domain.Like) (primitive.ObjectID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	kind, target := like.Target()
	for _, existing := range r.likes {
		ek, et := existing.Target()
		if ek == kind && et == target && existing.LikedBy == like.LikedBy {
			return primitive.NilObjectID, repository.ErrConflict
		}
	}
	like.ID = primitive.NewObjectID()
	copied := *like
	r.likes[like.ID] = &copied
	return like.ID, nil
}

func (r *fakeLikeRepo) Delete(ctx context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.likes[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.likes, id)
	return nil
}

func (r *fakeLikeRepo) SetLiked(ctx context.Context, id primitive.ObjectID, liked bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	like, ok := r.likes[id]
	if !ok {
		return repository.ErrNotFound
	}
	like.Liked = liked
	like.UpdatedAt = time.Now()
	return nil
}

func (r *fakeLikeRepo) FindByTarget(ctx context.Context, kind domain.LikeTargetKind, target, likedBy primitive.ObjectID) (*domain.Like, error) {
	var found *domain.Like
	r.mu.Lock()
	for _, like := range r.likes {
		k, t := like.Target()
		if k == kind && t == target && like.LikedBy == likedBy {
			copied := *like
			found = &copied
			break
		}
	}
	r.mu.Unlock()
	if r.afterFind != nil {
		r.afterFind()
	}
	if found == nil {
		return nil, repository.ErrNotFound
	}
	return found, nil
}

func (r *fakeLikeRepo) ListByVideo(ctx context.Context, videoID primitive.ObjectID) ([]domain.Like, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []domain.Like{}
	for _, like := range r.likes {
		if like.Video != nil && *like.Video == videoID {
			out = append(out, *like)
		}
	}
	return out, nil
}

func (r *fakeLikeRepo) CountLikesForVideos(ctx context.Context, videoIDs []primitive.ObjectID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := map[primitive.ObjectID]bool{}
	for _, id := range videoIDs {
		ids[id] = true
	}
	var n int64
	for _, like := range r.likes {
		if like.Video != nil && like.Liked && ids[*like.Video] {
			n++
		}
	}
	return n, nil
}

func (r *fakeLikeRepo) ListVideoLikesByUser(ctx context.Context, likedBy primitive.ObjectID) ([]domain.Like, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []domain.Like{}
	for _, like := range r.likes {
		if like.Video != nil && like.Liked && like.LikedBy == likedBy {
			out = append(out, *like)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

type fakeSubscriptionRepo struct {
	mu   sync.Mutex
	subs map[primitive.ObjectID]*domain.Subscription

	afterFind func()
}

func newFakeSubscriptionRepo() *fakeSubscriptionRepo {
	return &fakeSubscriptionRepo{subs: map[primitive.ObjectID]*domain.Subscription{}}
}

func (r *fakeSubscriptionRepo) Create(ctx context.Context, sub *domain.Subscription) (primitive.ObjectID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.subs {
		if existing.Channel == sub.Channel && existing.Subscriber == sub.Subscriber {
			return primitive.NilObjectID, repository.ErrConflict
		}
	}
	sub.ID = primitive.NewObjectID()
	copied := *sub
	r.subs[sub.ID] = &copied
	return sub.ID, nil
}

func (r *fakeSubscriptionRepo) Delete(ctx context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.subs[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.subs, id)
	return nil
}

func (r *fakeSubscriptionRepo) Find(ctx context.Context, channel, subscriber primitive.ObjectID) (*domain.Subscription, error) {
	var found *domain.Subscription
	r.mu.Lock()
	for _, sub := range r.subs {
		if sub.Channel == channel && sub.Subscriber == subscriber {
			copied := *sub
			found = &copied
			break
		}
	}
	r.mu.Unlock()
	if r.afterFind != nil {
		r.afterFind()
	}
	if found == nil {
		return nil, repository.ErrNotFound
	}
	return found, nil
}

func (r *fakeSubscriptionRepo) Exists(ctx context.Context, channel, subscriber primitive.ObjectID) (bool, error) {
	_, err := r.Find(ctx, channel, subscriber)
	if err == repository.ErrNotFound {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *fakeSubscriptionRepo) CountByChannel(ctx context.Context, channel primitive.ObjectID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, sub := range r.subs {
		if sub.Channel == channel {
			n++
		}
	}
	return n, nil
}

func (r *fakeSubscriptionRepo) CountBySubscriber(ctx context.Context, subscriber primitive.ObjectID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, sub := range r.subs {
		if sub.Subscriber == subscriber {
			n++
		}
	}
	return n, nil
}

func (r *fakeSubscriptionRepo) ListByChannel(ctx context.Context, channel primitive.ObjectID) ([]domain.Subscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []domain.Subscription{}
	for _, sub := range r.subs {
		if sub.Channel == channel {
			out = append(out, *sub)
		}
	}
	return out, nil
}

func (r *fakeSubscriptionRepo) ListBySubscriber(ctx context.Context, subscriber primitive.ObjectID) ([]domain.Subscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []domain.Subscription{}
	for _, sub := range r.subs {
		if sub.Subscriber == subscriber {
			out = append(out, *sub)
		}
	}
	return out, nil
}

type fakeCommentRepo struct {
	comments map[primitive.ObjectID]*domain.Comment
}

func newFakeCommentRepo() *fakeCommentRepo {
	return &fakeCommentRepo{comments: map[primitive.ObjectID]*domain.Comment{}}
}

func (r *fakeCommentRepo) add(c *domain.Comment) primitive.ObjectID {
	if c.ID == primitive.NilObjectID {
		c.ID = primitive.NewObjectID()
	}
	r.comments[c.ID] = c
	return c.ID
}

func (r *fakeCommentRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Comment, error) {
	c, ok := r.comments[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *c
	return &copied, nil
}

func (r *fakeCommentRepo) CountForVideos(ctx context.Context, videoIDs []primitive.ObjectID) (int64, error) {
	ids := map[primitive.ObjectID]bool{}
	for _, id := range videoIDs {
		ids[id] = true
	}
	var n int64
	for _, c := range r.comments {
		if ids[c.Video] {
			n++
		}
	}
	return n, nil
}

type fakeTweetRepo struct {
	tweets map[primitive.ObjectID]*domain.Tweet
}

func newFakeTweetRepo() *fakeTweetRepo {
	return &fakeTweetRepo{tweets: map[primitive.ObjectID]*domain.Tweet{}}
}

func (r *fakeTweetRepo) add(t *domain.Tweet) primitive.ObjectID {
	if t.ID == primitive.NilObjectID {
		t.ID = primitive.NewObjectID()
	}
	r.tweets[t.ID] = t
	return t.ID
}

func (r *fakeTweetRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Tweet, error) {
	t, ok := r.tweets[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *t
	return &copied, nil
}

func (r *fakeTweetRepo) CountByOwner(ctx context.Context, owner primitive.ObjectID) (int64, error) {
	var n int64
	for _, t := range r.tweets {
		if t.Owner == owner {
			n++
		}
	}
	return n, nil
}

type fakePlaylistRepo struct {
	playlists map[primitive.ObjectID]*domain.Playlist
}

func newFakePlaylistRepo() *fakePlaylistRepo {
	return &fakePlaylistRepo{playlists: map[primitive.ObjectID]*domain.Playlist{}}
}

func (r *fakePlaylistRepo) add(p *domain.Playlist) primitive.ObjectID {
	if p.ID == primitive.NilObjectID {
		p.ID = primitive.NewObjectID()
	}
	r.playlists[p.ID] = p
	return p.ID
}

func (r *fakePlaylistRepo) ListByOwner(ctx context.Context, owner primitive.ObjectID) ([]domain.Playlist, error) {
	out := []domain.Playlist{}
	for _, p := range r.playlists {
		if p.Owner == owner {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (r *fakePlaylistRepo) RemoveVideoFromAll(ctx context.Context, videoID primitive.ObjectID) (int64, error) {
	var n int64
	for _, p := range r.playlists {
		kept := p.Videos[:0]
		removed := false
		for _, id := range p.Videos {
			if id == videoID {
				removed = true
				continue
			}
			kept = append(kept, id)
		}
		if removed {
			p.Videos = kept
			n++
		}
	}
	return n, nil
}

// fakeStorage tracks live blobs so tests can assert that rollback leaves
// none behind. The hooks run just before an upload returns, which lets a
// test cancel the request context between pipeline stages.
type fakeStorage struct {
	mu       sync.Mutex
	seq      int
	live     map[string]bool
	manifest map[string]string

	videoErr  error
	imageErr  error
	deleteErr error

	onVideoUploaded func()
	onImageUploaded func()
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{
		live:     map[string]bool{},
		manifest: map[string]string{},
	}
}

func (s *fakeStorage) UploadVideo(ctx context.Context, r io.Reader, size int64, contentType string) (*storage.UploadedVideo, error) {
	if s.videoErr != nil {
		return nil, s.videoErr
	}
	s.mu.Lock()
	s.seq++
	url := fmt.Sprintf("http://blobs/videos/%d/raw", s.seq)
	manifestURL := fmt.Sprintf("http://blobs/videos/%d/index.m3u8", s.seq)
	s.live[url] = true
	s.manifest[manifestURL] = url
	s.mu.Unlock()
	if s.onVideoUploaded != nil {
		s.onVideoUploaded()
	}
	return &storage.UploadedVideo{URL: url, ManifestURL: manifestURL, Duration: 42.5}, nil
}

func (s *fakeStorage) UploadImage(ctx context.Context, r io.Reader, size int64, contentType string) (*storage.UploadedImage, error) {
	if s.imageErr != nil {
		return nil, s.imageErr
	}
	s.mu.Lock()
	s.seq++
	url := fmt.Sprintf("http://blobs/thumbnails/%d", s.seq)
	s.live[url] = true
	s.mu.Unlock()
	if s.onImageUploaded != nil {
		s.onImageUploaded()
	}
	return &storage.UploadedImage{URL: url}, nil
}

func (s *fakeStorage) Delete(ctx context.Context, url string, kind storage.BlobKind) error {
	if s.deleteErr != nil {
		return s.deleteErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if raw, ok := s.manifest[url]; ok {
		delete(s.manifest, url)
		delete(s.live, raw)
		return nil
	}
	if !s.live[url] {
		return fmt.Errorf("blob not found: %s", url)
	}
	delete(s.live, url)
	return nil
}

func (s *fakeStorage) liveCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.live)
}
