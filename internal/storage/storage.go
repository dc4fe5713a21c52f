package storage

import (
	"context"
	"io"
)

// BlobKind tells Delete which derived objects belong to a URL.
type BlobKind string

const (
	BlobVideo BlobKind = "video"
	BlobImage BlobKind = "image"
)

// UploadedVideo is the durable result of a video upload: the raw object URL,
// the URL of the streaming manifest the transcoder publishes beside it, and
// the probed duration in seconds.
type UploadedVideo struct {
	URL         string
	ManifestURL string
	Duration    float64
}

// UploadedImage is the durable result of an image upload.
type UploadedImage struct {
	URL string
}

// FileStorage defines the blob-store capability the ingestion pipeline
// consumes. Implementations must make Delete safe to call with either the
// raw or the manifest URL of a video.
type FileStorage interface {
	UploadVideo(ctx context.Context, r io.Reader, size int64, contentType string) (*UploadedVideo, error)
	UploadImage(ctx context.Context, r io.Reader, size int64, contentType string) (*UploadedImage, error)
	Delete(ctx context.Context, url string, kind BlobKind) error
}
