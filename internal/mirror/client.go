package mirror

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"studio/internal/config"
)

var tracer = otel.Tracer("minio-client")

// Uploader copies an artifact to remote storage and returns its URL.
type Uploader interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) (string, error)
}

// Client is the MinIO storage client used to mirror generated artifacts.
type Client struct {
	client   *minio.Client
	endpoint string
	bucket   string
	secure   bool
}

// New returns an Uploader for cfg.Mirror. A disabled mirror yields a no-op
// uploader.
func New(cfg *config.Config) (Uploader, error) {
	if cfg == nil || !cfg.Mirror.Enabled {
		return Disabled{}, nil
	}
	return NewClient(cfg.Mirror.Endpoint, cfg.Mirror.AccessKey, cfg.Mirror.SecretKey, cfg.Mirror.Bucket, cfg.Mirror.UseSSL)
}

// NewClient creates a new MinIO client bound to bucket.
func NewClient(endpoint, accessKey, secretKey, bucket string, useSSL bool) (*Client, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	return &Client{
		client:   client,
		endpoint: endpoint,
		bucket:   bucket,
		secure:   useSSL,
	}, nil
}

// EnsureBucket creates the bucket if it doesn't exist
func (c *Client) EnsureBucket(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "minio_ensure_bucket")
	defer span.End()
	span.SetAttributes(attribute.String("minio.bucket", c.bucket))

	exists, err := c.client.BucketExists(ctx, c.bucket)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to check bucket existence: %w", err)
	}

	if !exists {
		if err := c.client.MakeBucket(ctx, c.bucket, minio.MakeBucketOptions{}); err != nil {
			span.RecordError(err)
			return fmt.Errorf("failed to create bucket: %w", err)
		}
	}

	return nil
}

// Upload stores data under key and returns the object URL.
func (c *Client) Upload(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	ctx, span := tracer.Start(ctx, "minio_upload")
	defer span.End()
	span.SetAttributes(
		attribute.String("minio.bucket", c.bucket),
		attribute.String("minio.key", key),
		attribute.Int("minio.size", len(data)),
	)

	if err := c.EnsureBucket(ctx); err != nil {
		return "", err
	}

	_, err := c.client.PutObject(ctx, c.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("failed to upload to MinIO: %w", err)
	}

	protocol := "http"
	if c.secure {
		protocol = "https"
	}
	return fmt.Sprintf("%s://%s/%s/%s", protocol, c.endpoint, c.bucket, key), nil
}

// Disabled is the Uploader used when mirroring is off.
type Disabled struct{}

func (Disabled) Upload(context.Context, string, []byte, string) (string, error) { return "", nil }

// ObjectKey builds the object key for an artifact: the project directory name
// followed by the artifact's path relative to the project root, always with
// forward slashes.
func ObjectKey(projectName, relPath string) string {
	rel := strings.ReplaceAll(relPath, "\\", "/")
	rel = strings.TrimPrefix(path.Clean("/"+rel), "/")
	project := strings.Trim(strings.ReplaceAll(projectName, "\\", "/"), "/")
	if project == "" {
		return rel
	}
	return project + "/" + rel
}
