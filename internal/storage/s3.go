package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path"
	"strconv"
	"strings"

	"okenna/streamtube/internal/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsCfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	ffmpeg "github.com/u2takey/ffmpeg-go"
)

const (
	videoPrefix     = "videos"
	thumbnailPrefix = "thumbnails"
	rawObjectName   = "raw"
	manifestName    = "index.m3u8"
)

// s3Storage implements FileStorage against an S3-compatible backend.
// Video objects live under videos/<id>/raw with the HLS manifest expected at
// videos/<id>/index.m3u8; the transcoder that fills in the renditions is an
// external service watching the raw prefix.
type s3Storage struct {
	client     *s3.Client
	bucketName string
	baseURL    string
}

// NewS3Storage creates a new S3 storage service instance.
func NewS3Storage(cfg config.S3Config) (FileStorage, error) {
	// Custom resolver for S3-compatible endpoints (MinIO, Spaces).
	customResolver := aws.EndpointResolverWithOptionsFunc(func(service, region string, options ...interface{}) (aws.Endpoint, error) {
		if cfg.Endpoint != "" {
			return aws.Endpoint{
				PartitionID:   "aws",
				URL:           cfg.Endpoint,
				SigningRegion: cfg.Region,
			}, nil
		}
		return aws.Endpoint{}, &aws.EndpointNotFoundError{}
	})

	awsSDKConfig, err := awsCfg.LoadDefaultConfig(context.TODO(),
		awsCfg.WithRegion(cfg.Region),
		awsCfg.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")),
		awsCfg.WithEndpointResolverWithOptions(customResolver),
	)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "load AWS SDK config")
	}

	// Path-style addressing is required by most S3-compatible services.
	s3Client := s3.NewFromConfig(awsSDKConfig, func(o *s3.Options) {
		o.UsePathStyle = true
	})

	logrus.WithFields(logrus.Fields{
		"endpoint": cfg.Endpoint,
		"bucket":   cfg.BucketName,
	}).Info("S3 storage initialized")

	return &s3Storage{
		client:     s3Client,
		bucketName: cfg.BucketName,
		baseURL:    baseURLFor(cfg),
	}, nil
}

// baseURLFor yields the public object URL root. Without an explicit endpoint
// the regional AWS endpoint applies, matching the client's path-style
// addressing.
func baseURLFor(cfg config.S3Config) string {
	if cfg.Endpoint != "" {
		return strings.TrimSuffix(cfg.Endpoint, "/")
	}
	return fmt.Sprintf("https://s3.%s.amazonaws.com", cfg.Region)
}

func (s *s3Storage) objectURL(key string) string {
	return fmt.Sprintf("%s/%s/%s", s.baseURL, s.bucketName, key)
}

func (s *s3Storage) keyFromURL(url string) (string, error) {
	prefix := fmt.Sprintf("%s/%s/", s.baseURL, s.bucketName)
	key := strings.TrimPrefix(url, prefix)
	if key == url || key == "" {
		return "", fmt.Errorf("url %q does not belong to bucket %q", url, s.bucketName)
	}
	return key, nil
}

func (s *s3Storage) putObject(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucketName),
		Key:           aws.String(key),
		Body:          r,
		ContentLength: aws.Int64(size),
		ContentType:   aws.String(contentType),
	})
	return err
}

// UploadVideo stores the raw media object and probes its duration. The
// upload is spooled through a temp file so ffprobe can inspect it.
func (s *s3Storage) UploadVideo(ctx context.Context, r io.Reader, size int64, contentType string) (*UploadedVideo, error) {
	tmp, err := os.CreateTemp("", "streamtube-upload-*")
	if err != nil {
		return nil, pkgerrors.Wrap(err, "spool upload")
	}
	defer func() {
		tmp.Close()
		os.Remove(tmp.Name())
	}()

	if _, err := io.Copy(tmp, r); err != nil {
		return nil, pkgerrors.Wrap(err, "spool upload")
	}

	duration, err := probeDuration(tmp.Name())
	if err != nil {
		return nil, pkgerrors.Wrap(err, "probe video duration")
	}

	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		return nil, pkgerrors.Wrap(err, "rewind spool file")
	}

	id := uuid.NewString()
	rawKey := path.Join(videoPrefix, id, rawObjectName)
	if err := s.putObject(ctx, rawKey, tmp, size, contentType); err != nil {
		return nil, pkgerrors.Wrap(err, "upload video object")
	}

	manifestKey := path.Join(videoPrefix, id, manifestName)
	logrus.WithFields(logrus.Fields{"key": rawKey, "duration": duration}).Info("video uploaded")

	return &UploadedVideo{
		URL:         s.objectURL(rawKey),
		ManifestURL: s.objectURL(manifestKey),
		Duration:    duration,
	}, nil
}

func (s *s3Storage) UploadImage(ctx context.Context, r io.Reader, size int64, contentType string) (*UploadedImage, error) {
	key := path.Join(thumbnailPrefix, uuid.NewString())
	if err := s.putObject(ctx, key, r, size, contentType); err != nil {
		return nil, pkgerrors.Wrap(err, "upload image object")
	}
	logrus.WithField("key", key).Info("image uploaded")
	return &UploadedImage{URL: s.objectURL(key)}, nil
}

// Delete removes the object(s) backing a URL. For videos both the raw
// object and the manifest are removed, whichever URL the caller holds.
func (s *s3Storage) Delete(ctx context.Context, url string, kind BlobKind) error {
	key, err := s.keyFromURL(url)
	if err != nil {
		return err
	}

	keys := []string{key}
	if kind == BlobVideo {
		dir := path.Dir(key)
		keys = []string{path.Join(dir, rawObjectName), path.Join(dir, manifestName)}
	}

	var firstErr error
	for _, k := range keys {
		_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
			Bucket: aws.String(s.bucketName),
			Key:    aws.String(k),
		})
		if err != nil {
			logrus.WithError(err).WithField("key", k).Error("failed to delete object")
			if firstErr == nil {
				firstErr = pkgerrors.Wrapf(err, "delete object %s", k)
			}
		}
	}
	return firstErr
}

// probeDuration reads the container duration with ffprobe.
func probeDuration(filePath string) (float64, error) {
	out, err := ffmpeg.Probe(filePath)
	if err != nil {
		return 0, err
	}
	var probe struct {
		Format struct {
			Duration string `json:"duration"`
		} `json:"format"`
	}
	if err := json.Unmarshal([]byte(out), &probe); err != nil {
		return 0, err
	}
	if probe.Format.Duration == "" {
		return 0, fmt.Errorf("no duration in probe output")
	}
	return strconv.ParseFloat(probe.Format.Duration, 64)
}
