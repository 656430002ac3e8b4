package s3

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/chastitela/meta-lv/internal/storage"
)

// Config options for the S3 bucket.
type Config struct {
	Region          string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
	// Optional custom endpoint for S3-compatible services (MinIO).
	Endpoint     string
	UsePathStyle bool
	// PublicBaseURL overrides the derived public URL prefix, e.g. a CDN.
	PublicBaseURL string
}

// Backend is an S3 implementation of the storage.Bucket interface.
type Backend struct {
	client        *s3.Client
	bucket        string
	region        string
	publicBaseURL string
}

// New creates an S3-backed bucket.
func New(ctx context.Context, cfg Config) (*Backend, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("s3 storage: bucket name is required")
	}
	if cfg.Region == "" {
		cfg.Region = "us-east-1"
	}

	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("s3 storage: load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		if cfg.UsePathStyle {
			o.UsePathStyle = true
		}
	})

	publicBase := strings.TrimRight(cfg.PublicBaseURL, "/")
	if publicBase == "" {
		if cfg.Endpoint != "" {
			publicBase = fmt.Sprintf("%s/%s", strings.TrimRight(cfg.Endpoint, "/"), cfg.Bucket)
		} else {
			publicBase = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.Bucket, cfg.Region)
		}
	}

	return &Backend{
		client:        client,
		bucket:        cfg.Bucket,
		region:        cfg.Region,
		publicBaseURL: publicBase,
	}, nil
}

// Upload puts the object. Without overwrite the put is conditional on
// the key not existing yet.
func (b *Backend) Upload(ctx context.Context, path string, r io.Reader, overwrite bool) error {
	key := strings.TrimLeft(path, "/")
	input := &s3.PutObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(key),
		Body:   r,
	}
	if !overwrite {
		input.IfNoneMatch = aws.String("*")
	}

	if _, err := b.client.PutObject(ctx, input); err != nil {
		if !overwrite && strings.Contains(err.Error(), "PreconditionFailed") {
			return storage.ErrObjectExists
		}
		return err
	}
	return nil
}

// PublicURL derives the public object address from the configured
// base.
func (b *Backend) PublicURL(path string) string {
	return b.publicBaseURL + "/" + strings.TrimLeft(path, "/")
}
