package assetstore

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// Store is the asset host boundary: push bytes, get back a durable public
// URL, and optionally delete an asset by the URL previously returned.
type Store interface {
	Upload(ctx context.Context, filename, contentType string, r io.Reader) (string, error)
	Delete(ctx context.Context, url string) error
}

// Config holds the object storage connection details.
type Config struct {
	Endpoint      string
	Region        string
	Bucket        string
	AccessKey     string
	SecretKey     string
	PublicBaseURL string
}

// S3Store is an S3-compatible implementation of Store. It works against AWS
// as well as MinIO-style deployments via a custom endpoint.
type S3Store struct {
	client        *s3.Client
	bucket        string
	publicBaseURL string
}

// NewS3Store creates a Store backed by an S3-compatible object storage service.
func NewS3Store(ctx context.Context, cfg Config) (*S3Store, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKey,
			cfg.SecretKey,
			"",
		)))
	if err != nil {
		return nil, fmt.Errorf("failed to load object storage config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(cfg.Endpoint)
		o.UsePathStyle = true
	})

	return &S3Store{
		client:        client,
		bucket:        cfg.Bucket,
		publicBaseURL: strings.TrimSuffix(cfg.PublicBaseURL, "/"),
	}, nil
}

// storageKey builds a collision-free object key, keeping the original file
// extension so the asset is served with a sensible type.
func storageKey(filename string) string {
	d := time.Now()
	return fmt.Sprintf("assets/%d/%02d/%02d/%s%s", d.Year(), d.Month(), d.Day(), uuid.New(), path.Ext(filename))
}

// Upload stores the file bytes and returns the public URL of the object.
func (s *S3Store) Upload(ctx context.Context, filename, contentType string, r io.Reader) (string, error) {
	key := storageKey(filename)

	input := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   r,
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}

	if _, err := s.client.PutObject(ctx, input); err != nil {
		return "", fmt.Errorf("failed to upload asset %s: %w", filename, err)
	}

	return fmt.Sprintf("%s/%s/%s", s.publicBaseURL, s.bucket, key), nil
}

// Delete removes the object behind a URL previously returned by Upload.
func (s *S3Store) Delete(ctx context.Context, url string) error {
	prefix := fmt.Sprintf("%s/%s/", s.publicBaseURL, s.bucket)
	key := strings.TrimPrefix(url, prefix)
	if key == url || key == "" {
		return fmt.Errorf("asset url %q is not served by this store", url)
	}

	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete asset %s: %w", key, err)
	}
	return nil
}
