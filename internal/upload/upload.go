// Package upload stores admin image uploads in S3-compatible object storage.
package upload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	miniogo "github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"atelier/api/internal/logger"
	"atelier/api/internal/util"
)

// DefaultPrefix is the object key prefix for admin uploads.
const DefaultPrefix = "uploads"

var ErrNotConfigured = errors.New("uploads not configured")

type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	BucketURL string
	Region    string
	UseSSL    bool
}

type Result struct {
	Key string `json:"key"`
	URL string `json:"url"`
}

type Uploader struct {
	client    *miniogo.Client
	bucket    string
	bucketURL string
	log       logger.Logger
	now       func() time.Time
}

// New creates an uploader. The public bucket URL is required because every
// upload answers with the object's public address.
func New(cfg Config, log logger.Logger) (*Uploader, error) {
	if cfg.Endpoint == "" || cfg.Bucket == "" {
		return nil, ErrNotConfigured
	}
	if cfg.BucketURL == "" {
		return nil, fmt.Errorf("%w: bucket URL is not defined", ErrNotConfigured)
	}

	client, err := miniogo.New(cfg.Endpoint, &miniogo.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("create object storage client: %w", err)
	}

	log.Info("uploads initialized",
		logger.String("endpoint", cfg.Endpoint),
		logger.String("bucket", cfg.Bucket),
	)

	return &Uploader{
		client:    client,
		bucket:    cfg.Bucket,
		bucketURL: strings.TrimRight(cfg.BucketURL, "/"),
		log:       log,
		now:       time.Now,
	}, nil
}

// ObjectKey builds "{prefix}/{unixMillis}-{filename}".
func ObjectKey(prefix, filename string, at time.Time) string {
	return fmt.Sprintf("%s/%d-%s", prefix, at.UnixMilli(), util.SafeFilename(filename))
}

// PublicURL joins the bucket's public URL and an object key.
func PublicURL(bucketURL, key string) string {
	return strings.TrimRight(bucketURL, "/") + "/" + key
}

// Upload stores r under a fresh key. size may be -1 when unknown.
func (u *Uploader) Upload(ctx context.Context, filename, contentType string, r io.Reader, size int64) (Result, error) {
	key := ObjectKey(DefaultPrefix, filename, u.now())
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	_, err := u.client.PutObject(ctx, u.bucket, key, r, size, miniogo.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return Result{}, fmt.Errorf("put object %s: %w", key, err)
	}

	u.log.Debug("uploaded object",
		logger.String("key", key),
		logger.String("content_type", contentType),
		logger.Int64("size_bytes", size),
	)
	return Result{Key: key, URL: PublicURL(u.bucketURL, key)}, nil
}

func (u *Uploader) Delete(ctx context.Context, key string) error {
	if err := u.client.RemoveObject(ctx, u.bucket, key, miniogo.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("remove object %s: %w", key, err)
	}
	return nil
}
