// Package blobstore generates signed URLs for packages, droplets and build
// caches held in an S3-compatible bucket.
package blobstore

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Config locates the bucket.
type Config struct {
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	URLExpiry time.Duration
}

// Store signs URLs for blobs in one bucket. Signing happens locally; no
// request reaches the blobstore.
type Store struct {
	client *minio.Client
	bucket string
	expiry time.Duration
	logger *slog.Logger
}

// New creates a Store. Region must be set so signing does not have to look
// up the bucket location.
func New(cfg Config, logger *slog.Logger) (*Store, error) {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		return nil, fmt.Errorf("blobstore endpoint is required")
	}
	if cfg.AccessKey == "" || cfg.SecretKey == "" {
		return nil, fmt.Errorf("blobstore access key and secret key are required")
	}
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("blobstore bucket is required")
	}
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}
	expiry := cfg.URLExpiry
	if expiry <= 0 {
		expiry = time.Hour
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: region,
	})
	if err != nil {
		return nil, fmt.Errorf("init blobstore client: %w", err)
	}
	return &Store{
		client: client,
		bucket: cfg.Bucket,
		expiry: expiry,
		logger: logger.With("component", "blobstore"),
	}, nil
}

// PartitionedKey spreads guids over two directory levels: "abcdef" becomes
// "ab/cd/abcdef".
func PartitionedKey(guid string) string {
	if len(guid) < 4 {
		return guid
	}
	return guid[0:2] + "/" + guid[2:4] + "/" + guid
}

// PackageKey is the key of an uploaded app package.
func PackageKey(packageGUID string) string {
	return "packages/" + PartitionedKey(packageGUID)
}

// DropletKey is the key of a staged droplet.
func DropletKey(dropletGUID, checksum string) string {
	return "droplets/" + PartitionedKey(dropletGUID+"/"+checksum)
}

// BuildCacheKey is the key of an app's build artifacts cache for a stack.
func BuildCacheKey(appGUID, stack string) string {
	return "buildpack_cache/" + PartitionedKey(appGUID+"/"+stack)
}

// DownloadURL signs a GET for key.
func (s *Store) DownloadURL(ctx context.Context, key string) (string, error) {
	s.logger.Debug("sign", "op", "get", "key", key)
	u, err := s.client.PresignedGetObject(ctx, s.bucket, key, s.expiry, url.Values{})
	if err != nil {
		return "", fmt.Errorf("sign download %s: %w", key, err)
	}
	return u.String(), nil
}

// UploadURL signs a PUT for key.
func (s *Store) UploadURL(ctx context.Context, key string) (string, error) {
	s.logger.Debug("sign", "op", "put", "key", key)
	u, err := s.client.PresignedPutObject(ctx, s.bucket, key, s.expiry)
	if err != nil {
		return "", fmt.Errorf("sign upload %s: %w", key, err)
	}
	return u.String(), nil
}
