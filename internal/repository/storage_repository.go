package repository

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/rs/zerolog"

	"github.com/ck496/theCleverDocs/blog-service/internal/models"
)

// ArchiveRepository хранит markdown сгенерированных вариантов в объектном
// хранилище. БД остаётся источником истины — архив является производным
// и пишется best-effort после коммита.
type ArchiveRepository interface {
	UploadVariant(ctx context.Context, variant *models.GeneratedVariant) error
}

type minioArchiveRepository struct {
	client *minio.Client
	bucket string
	region string
	logger zerolog.Logger

	ensureMu      sync.Mutex
	bucketEnsured bool
}

func NewMinIOArchiveRepository(endpoint, accessKey, secretKey, bucket, region string, useSSL bool, connectTimeout time.Duration, logger zerolog.Logger) (ArchiveRepository, error) {
	// Инициализация клиента MinIO
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	repo := &minioArchiveRepository{
		client: client,
		bucket: bucket,
		region: region,
		logger: logger,
	}

	// Best-effort bootstrap: на старте НЕ валим сервис, если MinIO ещё не готов.
	if connectTimeout <= 0 {
		connectTimeout = 30 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	if err := repo.ensureBucket(ctx); err != nil {
		logger.Error().Err(err).
			Str("endpoint", endpoint).
			Str("bucket", bucket).
			Msg("MinIO not ready during startup; archive uploads will retry on demand")
	} else {
		logger.Info().
			Str("endpoint", endpoint).
			Str("bucket", bucket).
			Bool("ssl", useSSL).
			Msg("Connected to MinIO")
	}

	return repo, nil
}

func (r *minioArchiveRepository) ensureBucket(ctx context.Context) error {
	r.ensureMu.Lock()
	defer r.ensureMu.Unlock()
	if r.bucketEnsured {
		return nil
	}

	exists, err := r.client.BucketExists(ctx, r.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket: %w", err)
	}

	if !exists {
		if err := r.client.MakeBucket(ctx, r.bucket, minio.MakeBucketOptions{Region: r.region}); err != nil {
			return fmt.Errorf("failed to create bucket: %w", err)
		}
		r.logger.Info().Str("bucket", r.bucket).Msg("Created new bucket")
	}

	r.bucketEnsured = true
	return nil
}

func (r *minioArchiveRepository) UploadVariant(ctx context.Context, variant *models.GeneratedVariant) error {
	if err := r.ensureBucket(ctx); err != nil {
		return err
	}

	objectName := fmt.Sprintf("%s/%s.md", variant.SubmissionID, variant.Level)
	body := []byte(variant.Content)

	uploadInfo, err := r.client.PutObject(ctx, r.bucket, objectName, bytes.NewReader(body), int64(len(body)), minio.PutObjectOptions{
		ContentType: "text/markdown",
	})
	if err != nil {
		return fmt.Errorf("failed to upload variant: %w", err)
	}

	r.logger.Debug().
		Str("bucket", r.bucket).
		Str("object", objectName).
		Str("etag", uploadInfo.ETag).
		Int("size", len(body)).
		Msg("Variant archived to MinIO")

	return nil
}
