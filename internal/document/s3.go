package document

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Fetcher downloads a remote document to a local temp file.
type Fetcher interface {
	Fetch(ctx context.Context, uri string) (localPath string, cleanup func(), err error)
}

// IsRemote reports whether p names an object store location.
func IsRemote(p string) bool {
	return strings.HasPrefix(p, "s3://")
}

// S3Fetcher reads s3://bucket/key objects.
type S3Fetcher struct {
	client *s3.Client
	logger *slog.Logger
}

func NewS3Fetcher(client *s3.Client, logger *slog.Logger) *S3Fetcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &S3Fetcher{client: client, logger: logger}
}

// NewS3FetcherFromEnv builds a client from the default AWS credential chain.
func NewS3FetcherFromEnv(ctx context.Context, region string, logger *slog.Logger) (*S3Fetcher, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if region != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return NewS3Fetcher(s3.NewFromConfig(cfg), logger), nil
}

// ParseS3URI splits s3://bucket/key.
func ParseS3URI(uri string) (bucket, key string, err error) {
	u, err := url.Parse(uri)
	if err != nil {
		return "", "", fmt.Errorf("parse %q: %w", uri, err)
	}
	if u.Scheme != "s3" || u.Host == "" || strings.TrimPrefix(u.Path, "/") == "" {
		return "", "", fmt.Errorf("invalid s3 uri %q", uri)
	}
	return u.Host, strings.TrimPrefix(u.Path, "/"), nil
}

func (f *S3Fetcher) Fetch(ctx context.Context, uri string) (string, func(), error) {
	bucket, key, err := ParseS3URI(uri)
	if err != nil {
		return "", nil, err
	}

	obj, err := f.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return "", nil, fmt.Errorf("get object: %w", err)
	}
	defer func() { _ = obj.Body.Close() }()

	// keep the extension so format detection still works
	tmp, err := os.CreateTemp("", "di-s3-*"+path.Ext(key))
	if err != nil {
		return "", nil, err
	}
	cleanup := func() { _ = os.Remove(tmp.Name()) }

	n, err := io.Copy(tmp, obj.Body)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		cleanup()
		return "", nil, fmt.Errorf("download %s: %w", uri, err)
	}

	f.logger.Debug("document.s3.fetched", "bucket", bucket, "key", key, "bytes", n)
	return tmp.Name(), cleanup, nil
}
