package export

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/codezelat/pitchlens/internal/config"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

var ErrPublishDisabled = errors.New("badge publishing is not configured")

// Publisher uploads rendered badges to an S3-compatible bucket so they can be
// hot-linked from third-party pages.
type Publisher struct {
	client *minio.Client
	bucket string
}

// NewPublisher connects to the configured bucket, creating it if missing.
func NewPublisher(ctx context.Context, cfg config.PublishConfig) (*Publisher, error) {
	if !cfg.Enabled() {
		return nil, ErrPublishDisabled
	}
	cli, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("creating object storage client: %w", err)
	}

	exists, err := cli.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("checking bucket %s: %w", cfg.Bucket, err)
	}
	if !exists {
		if err := cli.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{Region: cfg.Region}); err != nil {
			return nil, fmt.Errorf("creating bucket %s: %w", cfg.Bucket, err)
		}
	}

	return &Publisher{client: cli, bucket: cfg.Bucket}, nil
}

// ObjectKey names a published badge. Owners get their own prefix; the empty
// owner publishes under "public".
func ObjectKey(owner, style string, score int, f Format) string {
	if owner == "" {
		owner = "public"
	}
	return fmt.Sprintf("badges/%s/%s-%d.%s", owner, style, score, f)
}

// Publish uploads data under key and returns its public URL.
func (p *Publisher) Publish(ctx context.Context, key string, f Format, data []byte) (string, error) {
	_, err := p.client.PutObject(ctx, p.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType:  f.ContentType(),
		CacheControl: "public, max-age=300",
	})
	if err != nil {
		return "", fmt.Errorf("uploading %s: %w", key, err)
	}
	return p.URL(key), nil
}

// URL returns the public address of key.
func (p *Publisher) URL(key string) string {
	ep := p.client.EndpointURL()
	return fmt.Sprintf("%s://%s/%s/%s", ep.Scheme, ep.Host, p.bucket, key)
}
