// Package storage archives exported PDFs in an S3-compatible bucket.
package storage

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/kiranshivaraju/bizlens/internal/config"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

const exportPrefix = "exports"

// ExportStore uploads exported report files.
type ExportStore interface {
	PutExport(ctx context.Context, feature, filename string, data []byte) (string, error)
}

// MinioStore is an ExportStore backed by MinIO.
type MinioStore struct {
	client *minio.Client
	bucket string
	region string
}

// New connects to the configured endpoint. The bucket is not touched until
// EnsureBucket is called.
func New(cfg config.MinioConfig) (*MinioStore, error) {
	cli, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("creating minio client: %w", err)
	}
	return &MinioStore{client: cli, bucket: cfg.Bucket, region: cfg.Region}, nil
}

// EnsureBucket creates the bucket if it does not exist yet.
func (s *MinioStore) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("checking bucket %s: %w", s.bucket, err)
	}
	if exists {
		return nil
	}
	if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{Region: s.region}); err != nil {
		return fmt.Errorf("creating bucket %s: %w", s.bucket, err)
	}
	return nil
}

// PutExport uploads data under exports/<feature>/<filename> and returns the
// object URL.
func (s *MinioStore) PutExport(ctx context.Context, feature, filename string, data []byte) (string, error) {
	key := ObjectKey(feature, filename)
	_, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: ContentType(filename),
	})
	if err != nil {
		return "", fmt.Errorf("uploading %s: %w", key, err)
	}

	u := *s.client.EndpointURL()
	u.Path = "/" + path.Join(s.bucket, key)
	return u.String(), nil
}

// ObjectKey builds the bucket key for an exported file.
func ObjectKey(feature, filename string) string {
	feature = strings.Trim(strings.ReplaceAll(feature, "/", "_"), ".")
	if feature == "" {
		feature = "misc"
	}
	return path.Join(exportPrefix, feature, path.Base("/"+filename))
}

func ContentType(filename string) string {
	switch strings.ToLower(path.Ext(filename)) {
	case ".pdf":
		return "application/pdf"
	case ".md":
		return "text/markdown; charset=utf-8"
	case ".json":
		return "application/json"
	case ".html":
		return "text/html; charset=utf-8"
	default:
		return "application/octet-stream"
	}
}
