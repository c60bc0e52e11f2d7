package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"mindtrack/mindtrack/config"
	"mindtrack/mindtrack/utils/logging"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"
)

type MinIOClient struct {
	client *minio.Client
	bucket string
}

// NewMinIOClient connects to the transcript bucket, creating it when missing.
// It returns nil, nil when no endpoint is configured.
func NewMinIOClient(ctx context.Context, cfg config.Config) (*MinIOClient, error) {
	if cfg.MinIOEndpoint == "" {
		return nil, nil
	}
	client, err := minio.New(cfg.MinIOEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinIOAccessKey, cfg.MinIOSecretKey, ""),
		Secure: cfg.MinIOUseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("minio client: %w", err)
	}
	exists, err := client.BucketExists(ctx, cfg.MinIOBucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket %s: %w", cfg.MinIOBucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.MinIOBucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("make bucket %s: %w", cfg.MinIOBucket, err)
		}
		logging.AppLogger.Info("created transcript bucket", zap.String("bucket", cfg.MinIOBucket))
	}
	return &MinIOClient{client: client, bucket: cfg.MinIOBucket}, nil
}

// UploadTranscript stores a JSON transcript under key.
func (m *MinIOClient) UploadTranscript(ctx context.Context, key string, data []byte) error {
	defer logging.LogDuration(ctx, "minio_upload_transcript")()
	_, err := m.client.PutObject(ctx, m.bucket, key, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: "application/json"})
	return err
}

func (m *MinIOClient) GetTranscript(ctx context.Context, key string) ([]byte, error) {
	obj, err := m.client.GetObject(ctx, m.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, err
	}
	defer obj.Close()
	return io.ReadAll(obj)
}
