package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"go.uber.org/zap"
)

const defaultS3Retries = 3

// S3Adapter implements the Adapter interface for S3-compatible storage
type S3Adapter struct {
	client   *s3.Client
	bucket   string
	prefix   string
	attempts uint
	delay    time.Duration
	log      *zap.Logger
}

// S3Options holds S3 adapter configuration
type S3Options struct {
	Endpoint        string
	Region          string
	Bucket          string
	Prefix          string
	AccessKeyID     string
	SecretAccessKey string
	MaxRetries      int
}

// NewS3Adapter creates a new S3 adapter
func NewS3Adapter(opts S3Options, log *zap.Logger) (*S3Adapter, error) {
	if opts.Bucket == "" {
		return nil, errors.New("s3 bucket is required")
	}
	if log == nil {
		log = zap.NewNop()
	}

	ctx := context.Background()

	loadOpts := []func(*config.LoadOptions) error{
		config.WithRegion(opts.Region),
	}
	if opts.AccessKeyID != "" && opts.SecretAccessKey != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKeyID, opts.SecretAccessKey, ""),
		))
	}

	cfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	var clientOpts []func(*s3.Options)
	if opts.Endpoint != "" {
		clientOpts = append(clientOpts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(opts.Endpoint)
			o.UsePathStyle = true // Required for MinIO and similar services
		})
	}

	retries := opts.MaxRetries
	if retries <= 0 {
		retries = defaultS3Retries
	}

	return &S3Adapter{
		client:   s3.NewFromConfig(cfg, clientOpts...),
		bucket:   opts.Bucket,
		prefix:   strings.Trim(opts.Prefix, "/"),
		attempts: uint(retries),
		delay:    200 * time.Millisecond,
		log:      log,
	}, nil
}

// Put stores data at the given path. The body is buffered so that a failed
// request can be replayed.
func (s *S3Adapter) Put(ctx context.Context, p string, data io.Reader) error {
	buf, err := io.ReadAll(data)
	if err != nil {
		return fmt.Errorf("failed to read data: %w", err)
	}

	key := s.key(p)
	err = s.do(ctx, "put", key, func() error {
		_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
			Bucket: aws.String(s.bucket),
			Key:    aws.String(key),
			Body:   bytes.NewReader(buf),
		})
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to put object: %w", err)
	}

	return nil
}

// Get retrieves data from the given path
func (s *S3Adapter) Get(ctx context.Context, p string) (io.ReadCloser, error) {
	key := s.key(p)

	var body io.ReadCloser
	err := s.do(ctx, "get", key, func() error {
		result, err := s.client.GetObject(ctx, &s3.GetObjectInput{
			Bucket: aws.String(s.bucket),
			Key:    aws.String(key),
		})
		if err != nil {
			if isNotFound(err) {
				return retry.Unrecoverable(fmt.Errorf("%w: %s", ErrNotFound, p))
			}
			return err
		}
		body = result.Body
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get object: %w", err)
	}

	return body, nil
}

// Delete removes data at the given path
func (s *S3Adapter) Delete(ctx context.Context, p string) error {
	key := s.key(p)
	err := s.do(ctx, "delete", key, func() error {
		_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
			Bucket: aws.String(s.bucket),
			Key:    aws.String(key),
		})
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to delete object: %w", err)
	}

	return nil
}

// Exists checks if data exists at the given path
func (s *S3Adapter) Exists(ctx context.Context, p string) (bool, error) {
	key := s.key(p)

	found := true
	err := s.do(ctx, "head", key, func() error {
		_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
			Bucket: aws.String(s.bucket),
			Key:    aws.String(key),
		})
		if err != nil && isNotFound(err) {
			found = false
			return nil
		}
		return err
	})
	if err != nil {
		return false, fmt.Errorf("failed to check existence: %w", err)
	}

	return found, nil
}

// List returns paths matching the given prefix, relative to the adapter prefix
func (s *S3Adapter) List(ctx context.Context, prefix string) ([]string, error) {
	var paths []string

	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(s.keyPrefix(prefix)),
	})

	for paginator.HasMorePages() {
		var page *s3.ListObjectsV2Output
		err := s.do(ctx, "list", prefix, func() error {
			var err error
			page, err = paginator.NextPage(ctx)
			return err
		})
		if err != nil {
			return nil, fmt.Errorf("failed to list objects: %w", err)
		}

		for _, obj := range page.Contents {
			if obj.Key != nil {
				paths = append(paths, s.relative(*obj.Key))
			}
		}
	}

	return paths, nil
}

// Close cleans up any resources
func (s *S3Adapter) Close() error {
	return nil
}

func (s *S3Adapter) do(ctx context.Context, op, key string, fn func() error) error {
	return retry.Do(
		fn,
		retry.Context(ctx),
		retry.Attempts(s.attempts),
		retry.Delay(s.delay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			s.log.Warn("retrying s3 request",
				zap.String("op", op),
				zap.String("key", key),
				zap.Uint("attempt", n+1),
				zap.Error(err))
		}),
	)
}

func (s *S3Adapter) key(p string) string {
	p = strings.TrimPrefix(p, "/")
	if s.prefix == "" {
		return p
	}
	return path.Join(s.prefix, p)
}

// keyPrefix keeps a trailing slash that path.Join would drop.
func (s *S3Adapter) keyPrefix(prefix string) string {
	if s.prefix == "" {
		return prefix
	}
	return s.prefix + "/" + strings.TrimPrefix(prefix, "/")
}

func (s *S3Adapter) relative(key string) string {
	if s.prefix == "" {
		return key
	}
	return strings.TrimPrefix(key, s.prefix+"/")
}

func isNotFound(err error) bool {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound":
			return true
		}
	}
	return false
}
