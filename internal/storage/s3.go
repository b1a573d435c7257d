package storage

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/sirupsen/logrus"
)

// S3Store serves the ObjectStore contract from an S3 bucket fronted by a public
// base URL (CDN or bucket website endpoint).
type S3Store struct {
	client  *s3.Client
	bucket  string
	baseURL string
	logger  *logrus.Entry
}

// NewS3Store builds an S3-backed store. An empty bucket name leaves the store in
// the not-configured state rather than failing construction, so read paths that
// only need the DB fallback keep working.
func NewS3Store(ctx context.Context, bucket, region, publicBaseURL string, logger *logrus.Logger) (*S3Store, error) {
	store := &S3Store{
		bucket:  bucket,
		baseURL: strings.TrimRight(publicBaseURL, "/"),
		logger:  logger.WithField("component", "s3-store"),
	}

	if bucket == "" {
		return store, nil
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS default config: %w", err)
	}
	store.client = s3.NewFromConfig(cfg)

	return store, nil
}

// Configured reports whether the store can accept writes.
func (s *S3Store) Configured() bool {
	return s.client != nil && s.bucket != ""
}

// Put uploads the object with public-read access and returns its public URL.
func (s *S3Store) Put(ctx context.Context, path string, body io.Reader, contentType string) (string, error) {
	if !s.Configured() {
		return "", ErrNotConfigured
	}

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(path),
		Body:        body,
		ContentType: aws.String(contentType),
		ACL:         s3types.ObjectCannedACLPublicRead,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload object %s: %w", path, err)
	}

	return s.PublicURL(path), nil
}

// List returns all objects under prefix, paging through the bucket listing.
func (s *S3Store) List(ctx context.Context, prefix string) ([]Object, error) {
	if !s.Configured() {
		return nil, ErrNotConfigured
	}

	var objects []Object
	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(prefix),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list objects under %s: %w", prefix, err)
		}
		for _, obj := range page.Contents {
			key := aws.ToString(obj.Key)
			objects = append(objects, Object{Path: key, URL: s.PublicURL(key)})
		}
	}

	return objects, nil
}

// PublicURL joins the configured public base URL with an object path.
func (s *S3Store) PublicURL(path string) string {
	if s.baseURL == "" {
		return fmt.Sprintf("https://%s.s3.amazonaws.com/%s", s.bucket, path)
	}
	return s.baseURL + "/" + path
}
