// Package archive stores snippet export bundles in an S3-compatible bucket.
package archive

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"sort"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// ErrNotConfigured is returned when no endpoint or bucket is set.
var ErrNotConfigured = errors.New("archive storage not configured")

type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Region    string
	Bucket    string
	Prefix    string
	UseSSL    bool
}

// Enabled reports whether enough is set to talk to a bucket.
func (c Config) Enabled() bool {
	return c.Endpoint != "" && c.Bucket != ""
}

type Client struct {
	mc     *minio.Client
	config Config
	logger *slog.Logger
}

// NewClient builds a client. It does not contact the endpoint.
func NewClient(cfg Config, logger *slog.Logger) (*Client, error) {
	if !cfg.Enabled() {
		return nil, ErrNotConfigured
	}
	if logger == nil {
		logger = slog.Default()
	}
	mc, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("s3 client: %w", err)
	}
	return &Client{mc: mc, config: cfg, logger: logger}, nil
}

// EnsureBucket creates the configured bucket if it does not exist.
func (c *Client) EnsureBucket(ctx context.Context) error {
	name := c.config.Bucket
	exists, err := c.mc.BucketExists(ctx, name)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", name, err)
	}
	if exists {
		return nil
	}
	region := c.config.Region
	if region == "" {
		region = "us-east-1"
	}
	if err := c.mc.MakeBucket(ctx, name, minio.MakeBucketOptions{Region: region}); err != nil {
		return fmt.Errorf("create bucket %s: %w", name, err)
	}
	c.logger.Info("created bucket", slog.String("bucket", name))
	return nil
}

// Upload writes a bundle under name and returns the object key.
func (c *Client) Upload(ctx context.Context, name string, data []byte) (string, error) {
	if err := c.EnsureBucket(ctx); err != nil {
		return "", err
	}
	key := c.Key(name)
	_, err := c.mc.PutObject(ctx, c.config.Bucket, key, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: "application/json"})
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", key, err)
	}
	c.logger.Info("bundle archived",
		slog.String("bucket", c.config.Bucket),
		slog.String("key", key),
		slog.Int("bytes", len(data)))
	return key, nil
}

// Download reads the object stored under key.
func (c *Client) Download(ctx context.Context, key string) ([]byte, error) {
	obj, err := c.mc.GetObject(ctx, c.config.Bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", key, err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", key, err)
	}
	return data, nil
}

// List returns the archived bundle keys, newest name last.
func (c *Client) List(ctx context.Context) ([]string, error) {
	var keys []string
	opts := minio.ListObjectsOptions{Prefix: c.prefix(), Recursive: true}
	for obj := range c.mc.ListObjects(ctx, c.config.Bucket, opts) {
		if obj.Err != nil {
			return nil, fmt.Errorf("list %s: %w", c.config.Bucket, obj.Err)
		}
		keys = append(keys, obj.Key)
	}
	sort.Strings(keys)
	return keys, nil
}

func (c *Client) Healthy(ctx context.Context) error {
	_, err := c.mc.BucketExists(ctx, c.config.Bucket)
	return err
}

// Key returns the object key a bundle named name is stored under.
func (c *Client) Key(name string) string {
	if p := c.prefix(); p != "" {
		return path.Join(p, name)
	}
	return name
}

func (c *Client) prefix() string {
	return strings.Trim(c.config.Prefix, "/")
}

func (c *Client) Bucket() string {
	return c.config.Bucket
}
