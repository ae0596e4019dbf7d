package storage

import (
	"context"
	"net/http"

	apperrors "go-image-detector/internal/errors"
	"go-image-detector/internal/upload"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

const S3Scheme = "s3"

type MinioConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Region    string
	UseSSL    bool
	MaxSize   int64
}

// MinioFetcher reads s3://<bucket>/<key> sources from any S3-compatible
// endpoint.
type MinioFetcher struct {
	client  *minio.Client
	maxSize int64
}

func NewMinioFetcher(cfg MinioConfig) (*MinioFetcher, error) {
	cli, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, apperrors.NewConfigurationError("failed to create MinIO client", err)
	}

	maxSize := cfg.MaxSize
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	return &MinioFetcher{client: cli, maxSize: maxSize}, nil
}

func (m *MinioFetcher) FetchImage(ctx context.Context, objectURL string) (*upload.File, error) {
	bucket, key, err := splitObjectURL(objectURL, S3Scheme)
	if err != nil {
		return nil, err
	}

	obj, err := m.client.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, classifyMinioError(err)
	}
	defer obj.Close()

	info, err := obj.Stat()
	if err != nil {
		return nil, classifyMinioError(err)
	}
	if info.Size > m.maxSize {
		return nil, tooLarge(m.maxSize)
	}

	data, err := readLimited(obj, m.maxSize)
	if err != nil {
		return nil, err
	}
	return &upload.File{
		Name:        fileName(key),
		ContentType: declaredType(info.ContentType, data),
		Data:        data,
	}, nil
}

func classifyMinioError(err error) error {
	resp := minio.ToErrorResponse(err)
	if resp.StatusCode == http.StatusNotFound || resp.Code == "NoSuchKey" || resp.Code == "NoSuchBucket" {
		return apperrors.NewNotFoundError("object not found", err)
	}
	return apperrors.NewNetworkError("object download failed", err)
}
