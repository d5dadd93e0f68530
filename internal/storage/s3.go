package storage

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

const s3KeyPrefix = "profile-pics/"

type objectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Config selects the bucket and endpoint. Endpoint is optional (MinIO and other
// S3-compatible stores); PublicBaseURL overrides the URL returned for saved objects.
type S3Config struct {
	Bucket        string
	Region        string
	Endpoint      string
	PublicBaseURL string
}

// S3Store uploads files to an S3 bucket under profile-pics/.
type S3Store struct {
	client  objectPutter
	bucket  string
	baseURL string
}

// NewS3Store loads AWS credentials from the default chain and returns a store for cfg.Bucket.
func NewS3Store(ctx context.Context, cfg S3Config) (*S3Store, error) {
	var opts []func(*config.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, config.WithRegion(cfg.Region))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("storage: load aws config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})
	return newS3Store(client, cfg), nil
}

func newS3Store(client objectPutter, cfg S3Config) *S3Store {
	base := strings.TrimRight(cfg.PublicBaseURL, "/")
	if base == "" {
		switch {
		case cfg.Endpoint != "":
			base = strings.TrimRight(cfg.Endpoint, "/") + "/" + cfg.Bucket
		case cfg.Region != "":
			base = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.Bucket, cfg.Region)
		default:
			base = fmt.Sprintf("https://%s.s3.amazonaws.com", cfg.Bucket)
		}
	}
	return &S3Store{client: client, bucket: cfg.Bucket, baseURL: base}
}

// Save uploads r to profile-pics/<name> and returns its public URL. r should be an
// io.ReadSeeker (multipart files are) so the SDK can sign the payload.
func (s *S3Store) Save(ctx context.Context, name, contentType string, r io.Reader) (string, error) {
	if !validName(name) {
		return "", ErrInvalidName
	}
	key := s3KeyPrefix + name
	in := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   r,
	}
	if contentType != "" {
		in.ContentType = aws.String(contentType)
	}
	if _, err := s.client.PutObject(ctx, in); err != nil {
		return "", fmt.Errorf("storage: put s3://%s/%s: %w", s.bucket, key, err)
	}
	return s.baseURL + "/" + key, nil
}
