// Package storage keeps proof-of-delivery uploads in an S3-compatible bucket.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// ErrStorageDisabled is returned when no bucket is configured
var ErrStorageDisabled = errors.New("object storage is not configured")

// ProofStore persists uploaded files and returns their public URL
type ProofStore interface {
	Put(ctx context.Context, key string, body io.Reader, contentType string) (string, error)
}

// S3Config describes an S3 or R2 bucket
type S3Config struct {
	Endpoint        string
	Region          string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
	PublicURL       string
}

// Enabled reports whether enough is set to talk to a bucket
func (c S3Config) Enabled() bool {
	return c.Bucket != "" && c.AccessKeyID != "" && c.SecretAccessKey != ""
}

type objectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3ProofStore implements ProofStore on aws-sdk-go-v2
type S3ProofStore struct {
	client    objectPutter
	bucket    string
	publicURL string
}

// NewS3ProofStore creates a store with static credentials. A custom endpoint
// selects an S3-compatible provider.
func NewS3ProofStore(cfg S3Config) (*S3ProofStore, error) {
	if !cfg.Enabled() {
		return nil, ErrStorageDisabled
	}

	region := cfg.Region
	if region == "" {
		region = "auto"
	}

	opts := s3.Options{
		Region: region,
		Credentials: credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			"",
		),
	}
	if cfg.Endpoint != "" {
		opts.BaseEndpoint = aws.String(cfg.Endpoint)
		opts.UsePathStyle = true
	}

	publicURL := strings.TrimRight(cfg.PublicURL, "/")
	if publicURL == "" {
		publicURL = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.Bucket, region)
	}

	return newS3ProofStore(s3.New(opts), cfg.Bucket, publicURL), nil
}

func newS3ProofStore(client objectPutter, bucket, publicURL string) *S3ProofStore {
	return &S3ProofStore{client: client, bucket: bucket, publicURL: publicURL}
}

// Put uploads body under key and returns its public URL
func (s *S3ProofStore) Put(ctx context.Context, key string, body io.Reader, contentType string) (string, error) {
	key = strings.TrimLeft(path.Clean("/"+key), "/")

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("put object %s: %w", key, err)
	}
	return s.publicURL + "/" + key, nil
}
