package service

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"okenna/streamtube/internal/domain"
	"okenna/streamtube/internal/repository"
	"okenna/streamtube/internal/storage"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const compensationTimeout = 30 * time.Second

// UploadInput is one raw media blob arriving with a request.
type UploadInput struct {
	Reader      io.Reader
	Size        int64
	ContentType string
}

// PublishInput carries everything a publish needs besides the actor.
type PublishInput struct {
	Title       string
	Description string
	Video       *UploadInput
	Thumbnail   *UploadInput
}

// UpdateVideoInput carries the metadata changes; nil fields stay untouched.
type UpdateVideoInput struct {
	Title       *string
	Description *string
	Thumbnail   *UploadInput
}

// ViewResult reports the two independent writes of a view: the counter
// increment and the watch-history append.
type ViewResult struct {
	Views           int64
	HistoryRecorded bool
}

// VideoService is the media ingestion pipeline: ordered external uploads
// with compensating rollback, and the owner-only video mutations.
type VideoService interface {
	Publish(ctx context.Context, actor primitive.ObjectID, in PublishInput) (*domain.Video, error)
	Update(ctx context.Context, actor, videoID primitive.ObjectID, in UpdateVideoInput) (*domain.Video, error)
	Delete(ctx context.Context, actor, videoID primitive.ObjectID) error
	TogglePublish(ctx context.Context, actor, videoID primitive.ObjectID) (*domain.Video, error)
	RecordView(ctx context.Context, actor *primitive.ObjectID, videoID primitive.ObjectID) (*ViewResult, error)
}

type videoService struct {
	videoRepo    repository.VideoRepository
	userRepo     repository.UserRepository
	playlistRepo repository.PlaylistRepository
	files        storage.FileStorage
}

// NewVideoService creates a new instance of videoService.
func NewVideoService(
	videoRepo repository.VideoRepository,
	userRepo repository.UserRepository,
	playlistRepo repository.PlaylistRepository,
	files storage.FileStorage,
) VideoService {
	return &videoService{
		videoRepo:    videoRepo,
		userRepo:     userRepo,
		playlistRepo: playlistRepo,
		files:        files,
	}
}

// compensator tracks committed external side effects and reverses them in
// LIFO order. Rollback runs on a context detached from the request so a
// client disconnect cannot cancel its own cleanup.
type compensator struct {
	undos []struct {
		name string
		fn   func(context.Context) error
	}
}

func (c *compensator) push(name string, fn func(context.Context) error) {
	c.undos = append(c.undos, struct {
		name string
		fn   func(context.Context) error
	}{name: name, fn: fn})
}

// rollback applies all compensations. Failures are logged, never returned:
// the triggering error must survive unreplaced.
func (c *compensator) rollback(ctx context.Context) {
	base := context.WithoutCancel(ctx)
	for i := len(c.undos) - 1; i >= 0; i-- {
		undo := c.undos[i]
		dctx, cancel := context.WithTimeout(base, compensationTimeout)
		if err := undo.fn(dctx); err != nil {
			logrus.WithError(err).WithField("step", undo.name).Error("compensation failed, orphan left behind")
		}
		cancel()
	}
}

// Publish runs the ordered upload stages. At every exit point either all
// side effects are reversed or a fully formed video exists referencing
// exactly its two live blobs.
func (s *videoService) Publish(ctx context.Context, actor primitive.ObjectID, in PublishInput) (*domain.Video, error) {
	if actor == primitive.NilObjectID {
		return nil, validationError("actor is required")
	}
	if strings.TrimSpace(in.Title) == "" {
		return nil, validationError("title is required")
	}
	if in.Video == nil || in.Video.Reader == nil {
		return nil, validationError("video file is required")
	}
	if in.Thumbnail == nil || in.Thumbnail.Reader == nil {
		return nil, validationError("thumbnail file is required")
	}

	comp := &compensator{}

	if ctx.Err() != nil {
		return nil, cancelledError("publish cancelled before upload")
	}

	uploaded, err := s.files.UploadVideo(ctx, in.Video.Reader, in.Video.Size, in.Video.ContentType)
	if err != nil {
		return nil, uploadError("failed to upload video file", err)
	}
	comp.push("delete video blob", func(dctx context.Context) error {
		return s.files.Delete(dctx, uploaded.URL, storage.BlobVideo)
	})

	if ctx.Err() != nil {
		comp.rollback(ctx)
		return nil, cancelledError("publish cancelled after video upload")
	}

	thumb, err := s.files.UploadImage(ctx, in.Thumbnail.Reader, in.Thumbnail.Size, in.Thumbnail.ContentType)
	if err != nil {
		comp.rollback(ctx)
		return nil, uploadError("failed to upload thumbnail", err)
	}
	comp.push("delete thumbnail blob", func(dctx context.Context) error {
		return s.files.Delete(dctx, thumb.URL, storage.BlobImage)
	})

	if ctx.Err() != nil {
		comp.rollback(ctx)
		return nil, cancelledError("publish cancelled after thumbnail upload")
	}

	video := &domain.Video{
		Owner:       actor,
		VideoFile:   uploaded.ManifestURL,
		Thumbnail:   thumb.URL,
		Title:       strings.TrimSpace(in.Title),
		Description: in.Description,
		Duration:    uploaded.Duration,
		IsPublished: true,
	}
	id, err := s.videoRepo.Create(ctx, video)
	if err != nil {
		comp.rollback(ctx)
		return nil, persistenceError("failed to persist video", err)
	}
	video.ID = id
	comp.push("delete video record", func(dctx context.Context) error {
		return s.videoRepo.Delete(dctx, id)
	})

	if ctx.Err() != nil {
		comp.rollback(ctx)
		return nil, cancelledError("publish cancelled after persistence")
	}

	return video, nil
}

func (s *videoService) ownedVideo(ctx context.Context, actor, videoID primitive.ObjectID) (*domain.Video, error) {
	video, err := s.videoRepo.GetByID(ctx, videoID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, notFoundError("video not found")
		}
		return nil, persistenceError("failed to load video", err)
	}
	if video.Owner != actor {
		return nil, authorizationError("only the owner may modify this video")
	}
	return video, nil
}

// Update changes metadata, replacing the thumbnail with the same
// upload-then-compensate discipline: the old thumbnail stays live until the
// new one is confirmed both uploaded and persisted.
func (s *videoService) Update(ctx context.Context, actor, videoID primitive.ObjectID, in UpdateVideoInput) (*domain.Video, error) {
	video, err := s.ownedVideo(ctx, actor, videoID)
	if err != nil {
		return nil, err
	}

	if in.Title != nil {
		if strings.TrimSpace(*in.Title) == "" {
			return nil, validationError("title must not be empty")
		}
		video.Title = strings.TrimSpace(*in.Title)
	}
	if in.Description != nil {
		video.Description = *in.Description
	}

	comp := &compensator{}
	oldThumbnail := ""
	if in.Thumbnail != nil {
		uploaded, err := s.files.UploadImage(ctx, in.Thumbnail.Reader, in.Thumbnail.Size, in.Thumbnail.ContentType)
		if err != nil {
			return nil, uploadError("failed to upload replacement thumbnail", err)
		}
		comp.push("delete replacement thumbnail", func(dctx context.Context) error {
			return s.files.Delete(dctx, uploaded.URL, storage.BlobImage)
		})
		oldThumbnail = video.Thumbnail
		video.Thumbnail = uploaded.URL
	}

	if err := s.videoRepo.Update(ctx, video); err != nil {
		comp.rollback(ctx)
		return nil, repoError(err, "video not found", "failed to update video")
	}

	// The record now points at the new thumbnail; the old blob is garbage.
	if oldThumbnail != "" {
		if err := s.files.Delete(ctx, oldThumbnail, storage.BlobImage); err != nil {
			logrus.WithError(err).WithField("url", oldThumbnail).Warn("failed to delete replaced thumbnail")
		}
	}
	return video, nil
}

// Delete removes both blobs and the record. Blob failures are reported and
// logged but never block the remaining deletions; the record going away is
// what callers depend on. Likes and comments are deliberately left in place.
func (s *videoService) Delete(ctx context.Context, actor, videoID primitive.ObjectID) error {
	video, err := s.ownedVideo(ctx, actor, videoID)
	if err != nil {
		return err
	}

	if err := s.files.Delete(ctx, video.VideoFile, storage.BlobVideo); err != nil {
		logrus.WithError(err).WithField("video", videoID.Hex()).Error("failed to delete video blob")
	}
	if err := s.files.Delete(ctx, video.Thumbnail, storage.BlobImage); err != nil {
		logrus.WithError(err).WithField("video", videoID.Hex()).Error("failed to delete thumbnail blob")
	}

	if err := s.videoRepo.Delete(ctx, videoID); err != nil {
		return repoError(err, "video not found", "failed to delete video record")
	}

	if n, err := s.playlistRepo.RemoveVideoFromAll(ctx, videoID); err != nil {
		logrus.WithError(err).WithField("video", videoID.Hex()).Error("failed to prune video from playlists")
	} else if n > 0 {
		logrus.WithFields(logrus.Fields{"video": videoID.Hex(), "playlists": n}).Info("pruned deleted video from playlists")
	}
	return nil
}

func (s *videoService) TogglePublish(ctx context.Context, actor, videoID primitive.ObjectID) (*domain.Video, error) {
	video, err := s.ownedVideo(ctx, actor, videoID)
	if err != nil {
		return nil, err
	}
	video.IsPublished = !video.IsPublished
	if err := s.videoRepo.Update(ctx, video); err != nil {
		return nil, repoError(err, "video not found", "failed to toggle publish state")
	}
	return video, nil
}

// RecordView bumps the counter and, for an authenticated actor, appends a
// watch-history entry. The two writes are independent; a history failure is
// reported in the result, not as an error.
func (s *videoService) RecordView(ctx context.Context, actor *primitive.ObjectID, videoID primitive.ObjectID) (*ViewResult, error) {
	views, err := s.videoRepo.IncrementViews(ctx, videoID)
	if err != nil {
		return nil, repoError(err, "video not found", "failed to increment views")
	}

	result := &ViewResult{Views: views}
	if actor != nil {
		if err := s.userRepo.AppendWatchEntry(ctx, *actor, videoID, time.Now().UTC()); err != nil {
			logrus.WithError(err).WithField("user", actor.Hex()).Warn("failed to append watch history entry")
		} else {
			result.HistoryRecorded = true
		}
	}
	return result, nil
}
