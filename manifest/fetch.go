package manifest

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Config carries S3 authentication for s3:// manifest locations. The zero
// value falls back to the ambient AWS configuration.
type S3Config struct {
	AccessKey string
	SecretKey string
	Region    string
	Endpoint  string // optional custom S3-compatible endpoint
}

// openReader resolves a manifest location to a reader. Plain paths and
// file:// URLs read from the local filesystem, http(s):// fetches over HTTP,
// s3://bucket/key reads the object from S3.
func openReader(ctx context.Context, location string, cfg *S3Config) (io.ReadCloser, error) {
	u, err := url.Parse(location)
	if err != nil {
		return nil, fmt.Errorf("invalid manifest location %q: %w", location, err)
	}

	switch strings.ToLower(u.Scheme) {
	case "":
		return osOpen(location)
	case "file":
		return osOpen(u.Path)
	case "http", "https":
		return openHTTPReader(ctx, location)
	case "s3":
		bucket := u.Host
		key := strings.TrimPrefix(u.Path, "/")
		if bucket == "" || key == "" {
			return nil, fmt.Errorf("invalid manifest location %q: want s3://bucket/key", location)
		}
		return openS3Reader(ctx, bucket, key, cfg)
	default:
		return nil, fmt.Errorf("unsupported manifest location scheme %q", u.Scheme)
	}
}

func openHTTPReader(ctx context.Context, location string) (io.ReadCloser, error) {
	client := &http.Client{Timeout: time.Minute}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		return nil, err
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch manifest: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("failed to fetch manifest: status %d", resp.StatusCode)
	}
	return resp.Body, nil
}

func openS3Reader(ctx context.Context, bucket, key string, cfg *S3Config) (io.ReadCloser, error) {
	client, err := newS3Client(ctx, cfg)
	if err != nil {
		return nil, err
	}

	resp, err := client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get S3 object %s/%s: %w", bucket, key, err)
	}
	return resp.Body, nil
}

func newS3Client(ctx context.Context, cfg *S3Config) (*s3.Client, error) {
	var loadOpts []func(*config.LoadOptions) error
	if cfg != nil && cfg.Region != "" {
		loadOpts = append(loadOpts, config.WithRegion(cfg.Region))
	}
	if cfg != nil && cfg.AccessKey != "" && cfg.SecretKey != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg != nil && cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true // S3-compatible services
		}
	}), nil
}

// osOpen is swapped in tests.
var osOpen = func(path string) (io.ReadCloser, error) {
	return os.Open(path)
}
