// Package minio archives processed artifacts to S3-compatible object storage.
package minio

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/phrazzld/userfile-api/internal/config"
)

// Archiver uploads local files into a single bucket.
type Archiver struct {
	client *minio.Client
	bucket string
	logger *slog.Logger
}

// NewClient builds a minio client from the archive configuration.
func NewClient(cfg config.ArchiveConfig) (*minio.Client, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("minio client init: %w", err)
	}
	return client, nil
}

// NewArchiver ensures bucket exists and returns an Archiver writing to it.
func NewArchiver(ctx context.Context, client *minio.Client, bucket string, logger *slog.Logger) (*Archiver, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("component", "archiver"), slog.String("bucket", bucket))

	if err := ensureBucket(ctx, client, bucket, logger); err != nil {
		return nil, err
	}

	return &Archiver{client: client, bucket: bucket, logger: logger}, nil
}

func ensureBucket(ctx context.Context, client *minio.Client, bucket string, logger *slog.Logger) error {
	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return fmt.Errorf("error checking bucket: %w", err)
	}
	if exists {
		logger.Debug("bucket exists")
		return nil
	}

	if err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("error creating bucket: %w", err)
	}
	logger.Info("created bucket")
	return nil
}

// Archive uploads the file at path as objectName. Re-archiving the same
// object overwrites it.
func (a *Archiver) Archive(ctx context.Context, objectName, path, contentType string) error {
	info, err := a.client.FPutObject(ctx, a.bucket, objectName, path, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("upload %s: %w", objectName, err)
	}

	a.logger.Info("object archived",
		slog.String("object", objectName),
		slog.Int64("size", info.Size))
	return nil
}
