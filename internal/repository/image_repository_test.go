package repository

import (
	"context"
	"errors"
	"sync"
	"testing"

	apperrors "go-image-detector/internal/errors"
	"go-image-detector/internal/observer"
	"go-image-detector/internal/upload"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeFetcher struct {
	file *upload.File
	err  error
	urls []string
}

func (f *fakeFetcher) FetchImage(_ context.Context, sourceURL string) (*upload.File, error) {
	f.urls = append(f.urls, sourceURL)
	return f.file, f.err
}

type recordingSubject struct {
	mu     sync.Mutex
	events []observer.AnalysisEvent
}

func (s *recordingSubject) Subscribe(observer.Observer)   {}
func (s *recordingSubject) Unsubscribe(observer.Observer) {}
func (s *recordingSubject) NotifyObservers(_ context.Context, e observer.AnalysisEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
}

func TestSourceRepository_RoutesByScheme(t *testing.T) {
	web := &fakeFetcher{file: &upload.File{Name: "a.png", ContentType: "image/png", Data: []byte{1, 2}}}
	s3 := &fakeFetcher{file: &upload.File{Name: "b.jpg", ContentType: "image/jpeg", Data: []byte{3}}}
	events := &recordingSubject{}

	repo := NewSourceRepository(nil, events)
	repo.Register(web, "http", "https")
	repo.Register(s3, "s3")
	assert.Equal(t, []string{"http", "https", "s3"}, repo.Schemes())

	file, err := repo.FetchImage(context.Background(), " HTTPS://example.com/a.png ")
	require.NoError(t, err)
	assert.Equal(t, "a.png", file.Name)
	assert.Equal(t, []string{"https://example.com/a.png"}, web.urls)

	file, err = repo.FetchImage(context.Background(), "s3://bucket/b.jpg")
	require.NoError(t, err)
	assert.Equal(t, "b.jpg", file.Name)
	assert.Len(t, s3.urls, 1)

	require.Len(t, events.events, 2)
	assert.Equal(t, observer.ImageFetched, events.events[0].EventType)
	assert.Equal(t, 2, events.events[0].ImageSize)
	assert.True(t, events.events[0].Success)
}

func TestSourceRepository_UnconfiguredScheme(t *testing.T) {
	repo := NewSourceRepository(nil, nil)
	repo.Register(&fakeFetcher{}, "http", "https")

	err := repo.ValidateImageURL("azblob://photos/cat.png")
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
	assert.ErrorIs(t, err, ErrSourceNotConfigured)

	_, err = repo.FetchImage(context.Background(), "ftp://example.com/a.png")
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
}

func TestSourceRepository_FetchFailure(t *testing.T) {
	cause := apperrors.NewNotFoundError("image not found", errors.New("404"))
	events := &recordingSubject{}
	repo := NewSourceRepository(nil, events)
	repo.Register(&fakeFetcher{err: cause}, "https")

	file, err := repo.FetchImage(context.Background(), "https://example.com/missing.png")
	assert.Nil(t, file)
	assert.Same(t, cause, err)

	require.Len(t, events.events, 1)
	assert.Equal(t, observer.ImageFetchFailed, events.events[0].EventType)
	assert.False(t, events.events[0].Success)
	assert.NotEmpty(t, events.events[0].ErrorMessage)
}
