// Package objstore keeps manifest bytes and dataset files in an S3-compatible bucket.
package objstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

var ErrNotFound = errors.New("objstore: object not found")

type Config struct {
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	URLExpiry time.Duration
}

type Store struct {
	client     *minio.Client
	bucketName string
	region     string
	urlExpiry  time.Duration

	mu    sync.Mutex
	ready bool
}

func New(cfg Config) (*Store, error) {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		return nil, fmt.Errorf("objstore: endpoint is required")
	}
	access := strings.TrimSpace(cfg.AccessKey)
	secret := strings.TrimSpace(cfg.SecretKey)
	if access == "" || secret == "" {
		return nil, fmt.Errorf("objstore: access key and secret key are required")
	}
	bucket := strings.TrimSpace(cfg.Bucket)
	if bucket == "" {
		return nil, fmt.Errorf("objstore: bucket is required")
	}
	region := strings.TrimSpace(cfg.Region)
	if region == "" {
		region = "us-east-1"
	}
	expiry := cfg.URLExpiry
	if expiry <= 0 {
		expiry = time.Hour
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(access, secret, ""),
		Secure: cfg.UseSSL,
		Region: region,
	})
	if err != nil {
		return nil, fmt.Errorf("objstore: init client: %w", err)
	}

	return &Store{
		client:     client,
		bucketName: bucket,
		region:     region,
		urlExpiry:  expiry,
	}, nil
}

const bucketCheckTimeout = 10 * time.Second

// ensureBucket checks for the bucket and creates it if missing.
// Success is remembered; failures are retried on the next call.
// The check ignores ctx cancellation and runs under its own timeout.
func (s *Store) ensureBucket(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ready {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), bucketCheckTimeout)
	defer cancel()

	exists, err := s.client.BucketExists(ctx, s.bucketName)
	if err != nil {
		return err
	}
	if !exists {
		if err := s.client.MakeBucket(ctx, s.bucketName, minio.MakeBucketOptions{Region: s.region}); err != nil {
			return err
		}
	}
	s.ready = true
	return nil
}

// Ready reports whether the bucket is reachable, creating it on first use.
func (s *Store) Ready(ctx context.Context) error {
	if err := s.ensureBucket(ctx); err != nil {
		return fmt.Errorf("objstore: ensure bucket: %w", err)
	}
	return nil
}

// Put uploads content under key.
func (s *Store) Put(ctx context.Context, key string, content []byte, contentType string) error {
	key = cleanKey(key)
	if key == "" {
		return fmt.Errorf("objstore: key is required")
	}
	if err := s.Ready(ctx); err != nil {
		return err
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	_, err := s.client.PutObject(ctx, s.bucketName, key, bytes.NewReader(content), int64(len(content)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("objstore: put %s: %w", key, err)
	}
	return nil
}

// Get downloads the object stored under key.
// Returns ErrNotFound when the key or bucket does not exist.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	key = cleanKey(key)
	if err := s.Ready(ctx); err != nil {
		return nil, err
	}
	obj, err := s.client.GetObject(ctx, s.bucketName, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, notFound(key, err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, notFound(key, err)
	}
	return data, nil
}

func notFound(key string, err error) error {
	switch minio.ToErrorResponse(err).Code {
	case "NoSuchKey", "NoSuchBucket":
		return ErrNotFound
	}
	return fmt.Errorf("objstore: get %s: %w", key, err)
}

// PresignedURL returns a time-limited download URL for key.
func (s *Store) PresignedURL(ctx context.Context, key string) (string, error) {
	key = cleanKey(key)
	u, err := s.client.PresignedGetObject(ctx, s.bucketName, key, s.urlExpiry, url.Values{})
	if err != nil {
		return "", fmt.Errorf("objstore: presign %s: %w", key, err)
	}
	return u.String(), nil
}

// Delete removes the object stored under key. Missing objects are not an error.
func (s *Store) Delete(ctx context.Context, key string) error {
	key = cleanKey(key)
	if err := s.client.RemoveObject(ctx, s.bucketName, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("objstore: delete %s: %w", key, err)
	}
	return nil
}

// ManifestKey is where the uploaded manifest of a dataset is kept.
func ManifestKey(datasetID, filename string) string {
	name := path.Base(strings.ReplaceAll(strings.TrimSpace(filename), `\`, "/"))
	if name == "." || name == "/" || name == "" {
		name = "manifest.json"
	}
	return "manifests/" + strings.TrimSpace(datasetID) + "/" + name
}

// FileKey is where a file node of a dataset is kept.
func FileKey(datasetID, nodePath string) string {
	return "datasets/" + strings.TrimSpace(datasetID) + "/" + cleanKey(nodePath)
}

func cleanKey(key string) string {
	return strings.TrimLeft(strings.TrimSpace(key), "/")
}
