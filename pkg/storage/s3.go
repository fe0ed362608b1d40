package storage

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	pkglogger "github.com/fieldsense/fieldsense-backend/pkg/logger"
)

// S3Client stores field captures in S3-compatible storage (S3, R2, MinIO)
type S3Client struct {
	client   *s3.Client
	bucket   string
	endpoint string
	cdnURL   string
	basePath string
	now      func() time.Time
}

// S3Config holds S3-compatible storage configuration
type S3Config struct {
	Endpoint        string // e.g. http://127.0.0.1:9000 for MinIO
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
	CDNURL          string
	BasePath        string // prefix for all objects, e.g. "captures/"
	ForcePathStyle  bool
}

// NewS3Client creates a new S3-compatible storage client
func NewS3Client(cfg S3Config) (*S3Client, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3: bucket is required")
	}
	client := s3.New(s3.Options{}, func(o *s3.Options) {
		o.Region = cfg.Region
		o.Credentials = credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.ForcePathStyle
	})

	pkglogger.GetLogger().Info().
		Str("bucket", cfg.Bucket).
		Str("endpoint", cfg.Endpoint).
		Msg("capture storage initialized")

	return &S3Client{
		client:   client,
		bucket:   cfg.Bucket,
		endpoint: strings.TrimRight(cfg.Endpoint, "/"),
		cdnURL:   strings.TrimRight(cfg.CDNURL, "/"),
		basePath: cfg.BasePath,
		now:      time.Now,
	}, nil
}

// StoreImage uploads image bytes and returns the public URL of the object
func (c *S3Client) StoreImage(ctx context.Context, data []byte, contentType string) (string, error) {
	key := c.captureKey(contentType)
	_, err := c.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(c.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(data))),
	})
	if err != nil {
		return "", fmt.Errorf("s3 upload failed: %w", err)
	}
	return c.ObjectURL(key), nil
}

// DeleteImage removes a stored capture. URLs not owned by this bucket are ignored.
func (c *S3Client) DeleteImage(ctx context.Context, imageURL string) error {
	key, ok := c.KeyFromURL(imageURL)
	if !ok {
		return nil
	}
	_, err := c.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("s3 delete failed: %w", err)
	}
	return nil
}

// ObjectURL returns the public URL of a key, preferring the CDN
func (c *S3Client) ObjectURL(key string) string {
	return c.urlPrefix() + key
}

// KeyFromURL recovers the object key from a URL produced by ObjectURL
func (c *S3Client) KeyFromURL(u string) (string, bool) {
	prefix := c.urlPrefix()
	if !strings.HasPrefix(u, prefix) {
		return "", false
	}
	key := strings.TrimPrefix(u, prefix)
	return key, key != ""
}

func (c *S3Client) urlPrefix() string {
	switch {
	case c.cdnURL != "":
		return c.cdnURL + "/"
	case c.endpoint != "":
		return c.endpoint + "/" + c.bucket + "/"
	default:
		return fmt.Sprintf("https://%s.s3.amazonaws.com/", c.bucket)
	}
}

// captureKey builds captures/YYYY/MM/DD/<uuid>.<ext>
func (c *S3Client) captureKey(contentType string) string {
	now := c.now().UTC()
	return fmt.Sprintf("%s%d/%02d/%02d/%s%s",
		c.basePath, now.Year(), now.Month(), now.Day(), uuid.NewString(), extensionFor(contentType))
}

func extensionFor(contentType string) string {
	switch strings.ToLower(contentType) {
	case "image/jpeg", "image/jpg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	case "image/gif":
		return ".gif"
	case "image/heic":
		return ".heic"
	}
	return ".bin"
}
