package s3

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/couchcryptid/ecoguard-service/internal/config"
	"github.com/couchcryptid/ecoguard-service/internal/domain"
)

const keyPrefix = "reports/"

// putter is the slice of the S3 API the image store needs.
type putter interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// ImageStore uploads captured images to an S3-compatible bucket and returns
// the object URL for the report to reference.
type ImageStore struct {
	client  putter
	bucket  string
	baseURL string
	logger  *slog.Logger
}

// NewImageStore builds an S3 client from the S3_* settings. A custom
// endpoint (MinIO and friends) switches to path-style addressing.
func NewImageStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*ImageStore, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.S3Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.S3AccessKey, cfg.S3SecretKey, "")),
	}
	if cfg.S3Endpoint != "" {
		opts = append(opts, awsconfig.WithBaseEndpoint(cfg.S3Endpoint))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.S3Endpoint != ""
	})
	return &ImageStore{
		client:  client,
		bucket:  cfg.S3Bucket,
		baseURL: objectBaseURL(cfg),
		logger:  logger,
	}, nil
}

func (s *ImageStore) Put(ctx context.Context, reportID string, img domain.Image) (string, error) {
	if len(img.Data) == 0 {
		return "", domain.ErrEmptyImage
	}

	key := objectKey(reportID, img.ContentType)
	contentType := img.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(img.Data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("upload image %s: %w", key, err)
	}

	s.logger.Debug("image uploaded", "bucket", s.bucket, "key", key, "bytes", len(img.Data))
	return s.baseURL + "/" + key, nil
}

func objectKey(reportID, contentType string) string {
	return keyPrefix + reportID + extension(contentType)
}

func extension(contentType string) string {
	switch strings.ToLower(strings.TrimSpace(contentType)) {
	case "image/jpeg", "image/jpg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	case "image/heic":
		return ".heic"
	case "image/gif":
		return ".gif"
	default:
		return ""
	}
}

// objectBaseURL is the prefix objects are served from: S3_PUBLIC_URL when
// set, the custom endpoint in path style, or the AWS virtual-host URL.
func objectBaseURL(cfg *config.Config) string {
	switch {
	case cfg.S3PublicURL != "":
		return strings.TrimRight(cfg.S3PublicURL, "/")
	case cfg.S3Endpoint != "":
		return strings.TrimRight(cfg.S3Endpoint, "/") + "/" + cfg.S3Bucket
	default:
		return fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.S3Bucket, cfg.S3Region)
	}
}
