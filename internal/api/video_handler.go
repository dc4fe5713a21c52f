package api

import (
	"errors"
	"mime/multipart"
	"net/http"
	"strconv"

	"okenna/streamtube/internal/config"
	"okenna/streamtube/internal/service"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type VideoHandler struct {
	videoService      service.VideoService
	engagementService service.EngagementService
	media             config.MediaConfig
}

func NewVideoHandler(videoService service.VideoService, engagementService service.EngagementService, media config.MediaConfig) *VideoHandler {
	return &VideoHandler{
		videoService:      videoService,
		engagementService: engagementService,
		media:             media,
	}
}

// --- DTOs ---

type UpdateVideoRequest struct {
	Title       *string `form:"title"`
	Description *string `form:"description"`
}

// openUpload turns a multipart file header into a service upload input,
// enforcing the configured size cap.
func openUpload(header *multipart.FileHeader, maxBytes int64) (*service.UploadInput, func(), error) {
	if header.Size > maxBytes {
		return nil, nil, errFileTooLarge
	}
	file, err := header.Open()
	if err != nil {
		return nil, nil, err
	}
	return &service.UploadInput{
		Reader:      file,
		Size:        header.Size,
		ContentType: header.Header.Get("Content-Type"),
	}, func() { file.Close() }, nil
}

var errFileTooLarge = errors.New("file exceeds the allowed size")

// PublishVideo handles the multipart upload of a new video with its
// thumbnail. The request context doubles as the cancellation signal for the
// ingestion pipeline: a dropped connection aborts the publish and rolls back
// whatever already reached storage.
func (h *VideoHandler) PublishVideo(c *gin.Context) {
	actorID, err := getActorFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify user from token.")
		return
	}

	title := c.PostForm("title")
	description := c.PostForm("description")

	videoHeader, err := c.FormFile("videoFile")
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "videoFile is required")
		return
	}
	thumbHeader, err := c.FormFile("thumbnail")
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "thumbnail is required")
		return
	}

	videoUpload, closeVideo, err := openUpload(videoHeader, h.media.MaxVideoBytes)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "videoFile: "+err.Error())
		return
	}
	defer closeVideo()
	thumbUpload, closeThumb, err := openUpload(thumbHeader, h.media.MaxThumbnailBytes)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "thumbnail: "+err.Error())
		return
	}
	defer closeThumb()

	video, err := h.videoService.Publish(c.Request.Context(), actorID, service.PublishInput{
		Title:       title,
		Description: description,
		Video:       videoUpload,
		Thumbnail:   thumbUpload,
	})
	if err != nil {
		abortServiceError(c, err)
		return
	}

	respond(c, http.StatusCreated, "Video published successfully", video)
}

// UpdateVideo patches title, description and optionally replaces the
// thumbnail.
func (h *VideoHandler) UpdateVideo(c *gin.Context) {
	actorID, err := getActorFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify user from token.")
		return
	}
	videoID, err := primitive.ObjectIDFromHex(c.Param("videoId"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid video ID format.")
		return
	}

	var req UpdateVideoRequest
	if err := c.ShouldBind(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	in := service.UpdateVideoInput{Title: req.Title, Description: req.Description}
	if thumbHeader, err := c.FormFile("thumbnail"); err == nil {
		thumbUpload, closeThumb, err := openUpload(thumbHeader, h.media.MaxThumbnailBytes)
		if err != nil {
			abortWithError(c, http.StatusBadRequest, "thumbnail: "+err.Error())
			return
		}
		defer closeThumb()
		in.Thumbnail = thumbUpload
	}

	video, err := h.videoService.Update(c.Request.Context(), actorID, videoID, in)
	if err != nil {
		abortServiceError(c, err)
		return
	}

	respond(c, http.StatusOK, "Video updated successfully", video)
}

// DeleteVideo removes the video record, its stored blobs and its playlist
// memberships.
func (h *VideoHandler) DeleteVideo(c *gin.Context) {
	actorID, err := getActorFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify user from token.")
		return
	}
	videoID, err := primitive.ObjectIDFromHex(c.Param("videoId"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid video ID format.")
		return
	}

	if err := h.videoService.Delete(c.Request.Context(), actorID, videoID); err != nil {
		abortServiceError(c, err)
		return
	}

	respond(c, http.StatusOK, "Video deleted successfully", nil)
}

// TogglePublish flips the video's published flag.
func (h *VideoHandler) TogglePublish(c *gin.Context) {
	actorID, err := getActorFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify user from token.")
		return
	}
	videoID, err := primitive.ObjectIDFromHex(c.Param("videoId"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid video ID format.")
		return
	}

	video, err := h.videoService.TogglePublish(c.Request.Context(), actorID, videoID)
	if err != nil {
		abortServiceError(c, err)
		return
	}

	respond(c, http.StatusOK, "Publish status toggled", gin.H{"id": video.ID, "isPublished": video.IsPublished})
}

// RecordView bumps the view counter and, for signed-in viewers, appends a
// watch history entry.
func (h *VideoHandler) RecordView(c *gin.Context) {
	videoID, err := primitive.ObjectIDFromHex(c.Param("videoId"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid video ID format.")
		return
	}

	result, err := h.videoService.RecordView(c.Request.Context(), optionalActorFromContext(c), videoID)
	if err != nil {
		abortServiceError(c, err)
		return
	}

	respond(c, http.StatusOK, "View recorded", gin.H{
		"views":           result.Views,
		"historyRecorded": result.HistoryRecorded,
	})
}

// GetVideo returns a published video with its like partition and the
// viewer's own reaction flags.
func (h *VideoHandler) GetVideo(c *gin.Context) {
	videoID, err := primitive.ObjectIDFromHex(c.Param("videoId"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid video ID format.")
		return
	}

	detail, err := h.engagementService.VideoDetail(c.Request.Context(), videoID, optionalActorFromContext(c))
	if err != nil {
		abortServiceError(c, err)
		return
	}

	respond(c, http.StatusOK, "Video fetched successfully", detail)
}

// ListVideos serves the public feed: published videos, optionally filtered
// by owner and ranked by a free-text query.
func (h *VideoHandler) ListVideos(c *gin.Context) {
	opts := service.FeedOptions{
		Search: c.Query("query"),
		Page:   intQuery(c, "page", 1),
		Limit:  intQuery(c, "limit", 0),
	}
	if ownerHex := c.Query("userId"); ownerHex != "" {
		ownerID, err := primitive.ObjectIDFromHex(ownerHex)
		if err != nil {
			abortWithError(c, http.StatusBadRequest, "Invalid user ID format.")
			return
		}
		opts.Owner = &ownerID
	}

	page, err := h.engagementService.Feed(c.Request.Context(), opts)
	if err != nil {
		abortServiceError(c, err)
		return
	}

	respond(c, http.StatusOK, "Videos fetched successfully", page)
}

func intQuery(c *gin.Context, name string, fallback int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}
