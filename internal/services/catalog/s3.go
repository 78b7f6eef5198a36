package catalog

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"

	"welfare-scheme-engine/internal/utils"
)

// S3Source fetches catalog documents from an S3 bucket, used when the
// engine runs on Lambda and no local filesystem catalog exists.
type S3Source struct {
	client *s3.Client
	bucket string
	key    string
}

// NewS3Source creates a catalog source bound to one bucket and key.
func NewS3Source(ctx context.Context, bucket, key string) (*S3Source, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return &S3Source{
		client: s3.NewFromConfig(cfg),
		bucket: bucket,
		key:    key,
	}, nil
}

// Fetch downloads the catalog document.
func (src *S3Source) Fetch(ctx context.Context) ([]byte, error) {
	result, err := src.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(src.bucket),
		Key:    aws.String(src.key),
	})
	if err != nil {
		utils.GetLogger().Error("Failed to download catalog from S3",
			zap.String("bucket", src.bucket),
			zap.String("key", src.key),
			zap.Error(err),
		)
		return nil, fmt.Errorf("failed to download catalog: %w", err)
	}
	defer result.Body.Close()

	data, err := io.ReadAll(result.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog body: %w", err)
	}

	utils.GetLogger().Info("Downloaded catalog from S3",
		zap.String("bucket", src.bucket),
		zap.String("key", src.key),
		zap.Int("size", len(data)),
	)
	return data, nil
}

// Upload pushes a catalog document back to S3, used by the export path.
func (src *S3Source) Upload(ctx context.Context, data []byte) error {
	_, err := src.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(src.bucket),
		Key:         aws.String(src.key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		utils.GetLogger().Error("Failed to upload catalog to S3",
			zap.String("bucket", src.bucket),
			zap.String("key", src.key),
			zap.Error(err),
		)
		return fmt.Errorf("failed to upload catalog: %w", err)
	}

	utils.GetLogger().Info("Uploaded catalog to S3",
		zap.String("bucket", src.bucket),
		zap.String("key", src.key),
		zap.Int("size", len(data)),
	)
	return nil
}

// LoadFromS3 fetches the catalog document and loads it into the store.
func (s *Store) LoadFromS3(ctx context.Context, src *S3Source) error {
	data, err := src.Fetch(ctx)
	if err != nil {
		return err
	}
	return s.LoadBytes(data)
}
