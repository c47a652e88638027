// Package s3blob is the cold-storage backend for trade archival. It targets
// any S3-compatible store (AWS S3, MinIO, Cloudflare R2) through the AWS SDK
// v2, with static credentials and an optional custom endpoint.
package s3blob

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// ClientConfig selects the archive bucket and how to reach it.
type ClientConfig struct {
	// Endpoint overrides the AWS endpoint for self-hosted or third-party
	// stores, e.g. "http://localhost:9000" for MinIO. Empty means AWS S3.
	Endpoint string

	// Region is required by the SDK even when Endpoint ignores it.
	Region string

	// Bucket receives every archive object written by this process.
	Bucket string

	AccessKey string
	SecretKey string

	// UseSSL picks the scheme when Endpoint is given without one.
	UseSSL bool

	// ForcePathStyle addresses the bucket in the path instead of the host.
	// MinIO and most non-AWS stores require it.
	ForcePathStyle bool
}

// Client holds the SDK client and the archive bucket it writes to.
type Client struct {
	s3     *s3.Client
	bucket string
}

// New builds a Client for cfg. It does not touch the network; call Health to
// verify the bucket is reachable.
func New(ctx context.Context, cfg ClientConfig) (*Client, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3blob: bucket is required")
	}
	if cfg.Region == "" {
		return nil, fmt.Errorf("s3blob: region is required")
	}

	awsCfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(cfg.Region),
		config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("s3blob: load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(withScheme(cfg.Endpoint, cfg.UseSSL))
		}
		o.UsePathStyle = cfg.ForcePathStyle
	})

	return &Client{s3: client, bucket: cfg.Bucket}, nil
}

// Health checks that the archive bucket exists and the credentials can see
// it.
func (c *Client) Health(ctx context.Context) error {
	_, err := c.s3.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(c.bucket),
	})
	if err != nil {
		return fmt.Errorf("s3blob: bucket %s unreachable: %w", c.bucket, err)
	}
	return nil
}

// withScheme prepends http:// or https:// when endpoint carries no scheme.
func withScheme(endpoint string, useSSL bool) string {
	if strings.Contains(endpoint, "://") {
		return endpoint
	}
	if useSSL {
		return "https://" + endpoint
	}
	return "http://" + endpoint
}
