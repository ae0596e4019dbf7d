package repository

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"time"

	apperrors "go-image-detector/internal/errors"
	"go-image-detector/internal/observer"
	"go-image-detector/internal/storage"
	"go-image-detector/internal/upload"
	"go-image-detector/pkg/validation"
)

// ImageRepository defines the interface for remote image access
type ImageRepository interface {
	// FetchImage downloads the image at sourceURL as an upload candidate
	FetchImage(ctx context.Context, sourceURL string) (*upload.File, error)

	// ValidateImageURL validates if the provided URL is acceptable
	ValidateImageURL(sourceURL string) error
}

// SourceRepository routes a source URL to the fetcher registered for its
// scheme.
type SourceRepository struct {
	validator *validation.URLValidator
	events    observer.Subject
	fetchers  map[string]storage.ImageFetcher
}

// NewSourceRepository creates a repository with no fetchers. A nil
// validator accepts every default scheme.
func NewSourceRepository(validator *validation.URLValidator, events observer.Subject) *SourceRepository {
	if validator == nil {
		validator = validation.NewURLValidator()
	}
	if events == nil {
		events = observer.Discard{}
	}
	return &SourceRepository{
		validator: validator,
		events:    events,
		fetchers:  make(map[string]storage.ImageFetcher),
	}
}

// Register binds fetcher to the given URL schemes.
func (r *SourceRepository) Register(fetcher storage.ImageFetcher, schemes ...string) {
	for _, scheme := range schemes {
		r.fetchers[scheme] = fetcher
	}
}

// Schemes lists the schemes with a registered fetcher.
func (r *SourceRepository) Schemes() []string {
	schemes := make([]string, 0, len(r.fetchers))
	for scheme := range r.fetchers {
		schemes = append(schemes, scheme)
	}
	sort.Strings(schemes)
	return schemes
}

func (r *SourceRepository) ValidateImageURL(sourceURL string) error {
	_, _, err := r.route(sourceURL)
	return err
}

func (r *SourceRepository) FetchImage(ctx context.Context, sourceURL string) (*upload.File, error) {
	fetcher, u, err := r.route(sourceURL)
	if err != nil {
		return nil, err
	}
	sourceURL = u.String()

	start := time.Now()
	file, err := fetcher.FetchImage(ctx, sourceURL)
	event := observer.AnalysisEvent{
		EventType:      observer.ImageFetched,
		ProcessingTime: time.Since(start),
		Success:        err == nil,
		Metadata:       map[string]interface{}{"source_url": sourceURL},
	}
	if err != nil {
		event.EventType = observer.ImageFetchFailed
		event.ErrorMessage = err.Error()
		r.events.NotifyObservers(ctx, event)
		return nil, err
	}

	event.ImageName = file.Name
	event.MIMEType = file.ContentType
	event.ImageSize = len(file.Data)
	r.events.NotifyObservers(ctx, event)
	return file, nil
}

func (r *SourceRepository) route(sourceURL string) (storage.ImageFetcher, *url.URL, error) {
	u, err := r.validator.Parse(sourceURL)
	if err != nil {
		return nil, nil, err
	}
	fetcher, ok := r.fetchers[u.Scheme]
	if !ok {
		return nil, nil, apperrors.NewValidationError(
			fmt.Sprintf("no image source configured for %s:// URLs", u.Scheme),
			ErrSourceNotConfigured,
		)
	}
	return fetcher, u, nil
}
