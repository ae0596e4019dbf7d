package storage

import (
	"context"
	"fmt"

	apperrors "go-image-detector/internal/errors"
	"go-image-detector/internal/upload"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"
)

const AzureScheme = "azblob"

// AzureConfig holds the shared key credential for one storage account.
// ServiceURL defaults to the public blob endpoint of the account.
type AzureConfig struct {
	AccountName string
	AccountKey  string
	ServiceURL  string
	MaxSize     int64
}

// AzureBlobFetcher reads azblob://<container>/<blob> sources.
type AzureBlobFetcher struct {
	client  *azblob.Client
	maxSize int64
}

func NewAzureBlobFetcher(cfg AzureConfig) (*AzureBlobFetcher, error) {
	credential, err := azblob.NewSharedKeyCredential(cfg.AccountName, cfg.AccountKey)
	if err != nil {
		return nil, apperrors.NewConfigurationError("invalid Azure storage credential", err)
	}

	serviceURL := cfg.ServiceURL
	if serviceURL == "" {
		serviceURL = fmt.Sprintf("https://%s.blob.core.windows.net", cfg.AccountName)
	}
	client, err := azblob.NewClientWithSharedKeyCredential(serviceURL, credential, nil)
	if err != nil {
		return nil, apperrors.NewConfigurationError("failed to create Azure blob client", err)
	}

	maxSize := cfg.MaxSize
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	return &AzureBlobFetcher{client: client, maxSize: maxSize}, nil
}

func (s *AzureBlobFetcher) FetchImage(ctx context.Context, blobURL string) (*upload.File, error) {
	containerName, blobName, err := splitObjectURL(blobURL, AzureScheme)
	if err != nil {
		return nil, err
	}

	resp, err := s.client.DownloadStream(ctx, containerName, blobName, nil)
	if err != nil {
		if bloberror.HasCode(err, bloberror.BlobNotFound, bloberror.ContainerNotFound) {
			return nil, apperrors.NewNotFoundError("blob not found", err)
		}
		return nil, apperrors.NewNetworkError("blob download failed", err)
	}
	defer resp.Body.Close()

	if resp.ContentLength != nil && *resp.ContentLength > s.maxSize {
		return nil, tooLarge(s.maxSize)
	}
	data, err := readLimited(resp.Body, s.maxSize)
	if err != nil {
		return nil, err
	}

	var contentType string
	if resp.ContentType != nil {
		contentType = *resp.ContentType
	}
	return &upload.File{
		Name:        fileName(blobName),
		ContentType: declaredType(contentType, data),
		Data:        data,
	}, nil
}
