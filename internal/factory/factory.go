package factory

import (
	"context"
	"fmt"

	"go-image-detector/internal/analysis"
	"go-image-detector/internal/config"
	apperrors "go-image-detector/internal/errors"
	"go-image-detector/internal/observer"
	"go-image-detector/internal/repository"
	"go-image-detector/internal/storage"
)

// StorageType represents different types of remote image sources
type StorageType string

const (
	// HTTPStorage for http and https URLs
	HTTPStorage StorageType = "http"
	// AzureStorage for azblob:// URLs
	AzureStorage StorageType = "azure"
	// MinioStorage for s3:// URLs
	MinioStorage StorageType = "minio"
)

// AnalyzerFactory creates the client for the external analysis service
type AnalyzerFactory interface {
	CreateAnalyzer(ctx context.Context) (analysis.Analyzer, error)
}

// StorageFactory creates remote source fetchers
type StorageFactory interface {
	CreateStorage(storageType StorageType) (storage.ImageFetcher, error)
}

type analyzerFactory struct {
	cfg *config.Config
}

// NewAnalyzerFactory creates an analyzer factory for the configured provider
func NewAnalyzerFactory(cfg *config.Config) AnalyzerFactory {
	return &analyzerFactory{cfg: cfg}
}

func (f *analyzerFactory) CreateAnalyzer(ctx context.Context) (analysis.Analyzer, error) {
	switch f.cfg.Provider {
	case config.ProviderGemini:
		g, err := analysis.NewGeminiAnalyzer(ctx, analysis.GeminiConfig{
			APIKey: f.cfg.APIKey,
			Model:  f.cfg.Model,
		})
		if err != nil {
			return nil, err
		}
		return g, nil
	case config.ProviderOpenAI:
		o, err := analysis.NewOpenAIAnalyzer(analysis.OpenAIConfig{
			APIKey: f.cfg.APIKey,
			Model:  f.cfg.Model,
		})
		if err != nil {
			return nil, err
		}
		return o, nil
	default:
		return nil, apperrors.NewConfigurationError(fmt.Sprintf("unsupported analysis provider: %s", f.cfg.Provider), nil)
	}
}

type storageFactory struct {
	cfg *config.Config
}

// NewStorageFactory creates a storage factory
func NewStorageFactory(cfg *config.Config) StorageFactory {
	return &storageFactory{cfg: cfg}
}

func (f *storageFactory) CreateStorage(storageType StorageType) (storage.ImageFetcher, error) {
	switch storageType {
	case HTTPStorage:
		return storage.NewHTTPImageFetcher(storage.HTTPFetcherOptions{
			Timeout:              f.cfg.ImageFetchTimeout,
			MaxSize:              f.cfg.MaxRequestBodySize,
			AllowPrivateNetworks: f.cfg.AllowPrivateSources,
		}), nil
	case AzureStorage:
		if !f.cfg.AzureEnabled() {
			return nil, apperrors.NewConfigurationError("azure storage is not configured", nil)
		}
		az, err := storage.NewAzureBlobFetcher(storage.AzureConfig{
			AccountName: f.cfg.AzureAccountName,
			AccountKey:  f.cfg.AzureAccountKey,
			MaxSize:     f.cfg.MaxRequestBodySize,
		})
		if err != nil {
			return nil, err
		}
		return az, nil
	case MinioStorage:
		if !f.cfg.MinioEnabled() {
			return nil, apperrors.NewConfigurationError("minio storage is not configured", nil)
		}
		m, err := storage.NewMinioFetcher(storage.MinioConfig{
			Endpoint:  f.cfg.MinioEndpoint,
			AccessKey: f.cfg.MinioAccessKey,
			SecretKey: f.cfg.MinioSecretKey,
			Region:    f.cfg.MinioRegion,
			UseSSL:    f.cfg.MinioUseSSL,
			MaxSize:   f.cfg.MaxRequestBodySize,
		})
		if err != nil {
			return nil, err
		}
		return m, nil
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", storageType)
	}
}

// ComponentFactory combines all factories
type ComponentFactory struct {
	cfg             *config.Config
	AnalyzerFactory AnalyzerFactory
	StorageFactory  StorageFactory
}

// NewComponentFactory creates a new component factory
func NewComponentFactory(cfg *config.Config) *ComponentFactory {
	return &ComponentFactory{
		cfg:             cfg,
		AnalyzerFactory: NewAnalyzerFactory(cfg),
		StorageFactory:  NewStorageFactory(cfg),
	}
}

// CreateRepository registers every configured source. HTTP is always on;
// Azure and MinIO only when their credentials are set.
func (f *ComponentFactory) CreateRepository(events observer.Subject) (*repository.SourceRepository, error) {
	repo := repository.NewSourceRepository(nil, events)

	sources := []struct {
		storageType StorageType
		enabled     bool
		schemes     []string
	}{
		{HTTPStorage, true, []string{"http", "https"}},
		{AzureStorage, f.cfg.AzureEnabled(), []string{storage.AzureScheme}},
		{MinioStorage, f.cfg.MinioEnabled(), []string{storage.S3Scheme}},
	}
	for _, src := range sources {
		if !src.enabled {
			continue
		}
		fetcher, err := f.StorageFactory.CreateStorage(src.storageType)
		if err != nil {
			return nil, fmt.Errorf("create %s storage: %w", src.storageType, err)
		}
		repo.Register(fetcher, src.schemes...)
	}
	return repo, nil
}
