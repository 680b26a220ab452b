package storage

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

type MinIOConfig struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Bucket    string `yaml:"bucket"`
	UseSSL    bool   `yaml:"use_ssl"`
}

type MinIOStore struct {
	mc     *minio.Client
	bucket string
}

func NewMinIOStore(cfg MinIOConfig) (*MinIOStore, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("minio endpoint is required")
	}
	if cfg.AccessKey == "" || cfg.SecretKey == "" {
		return nil, fmt.Errorf("minio access_key and secret_key are required")
	}

	mc, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	bucket := cfg.Bucket
	if bucket == "" {
		bucket = "book-network"
	}
	return &MinIOStore{mc: mc, bucket: bucket}, nil
}

func (s *MinIOStore) EnsureBucket(ctx context.Context) error {
	exists, err := s.mc.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("check bucket: %w", err)
	}
	if !exists {
		err = s.mc.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{})
		if err != nil {
			return fmt.Errorf("create bucket: %w", err)
		}
		slog.Info("bucket created", slog.String("bucket", s.bucket))
	}
	return nil
}

func (s *MinIOStore) Store(ctx context.Context, ownerID int64, r io.Reader, size int64, contentType string) (string, error) {
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	ref := newRef(ownerID, contentType)
	_, err := s.mc.PutObject(ctx, s.bucket, ref, r, size, minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", ref, err)
	}
	return ref, nil
}

/* The caller closes the returned reader. */
func (s *MinIOStore) Read(ctx context.Context, ref string) (io.ReadCloser, error) {
	err := validRef(ref)
	if err != nil {
		return nil, err
	}

	obj, err := s.mc.GetObject(ctx, s.bucket, ref, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", ref, err)
	}
	// GetObject is lazy, Stat surfaces a missing key.
	_, err = obj.Stat()
	if err != nil {
		obj.Close()
		return nil, fmt.Errorf("stat %s: %w", ref, err)
	}
	return obj, nil
}
