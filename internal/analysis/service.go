package analysis

import (
	"context"
	"time"

	apperrors "go-image-detector/internal/errors"
	"go-image-detector/internal/logger"
	"go-image-detector/internal/observer"
	"go-image-detector/internal/upload"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Service runs one accepted image through the Analyzer. Every failure is
// folded into a single analysis-failure error carrying the cause's message.
type Service struct {
	analyzer Analyzer
	events   observer.Subject
}

func NewService(analyzer Analyzer, events observer.Subject) *Service {
	if events == nil {
		events = observer.Discard{}
	}
	return &Service{analyzer: analyzer, events: events}
}

// Analyze performs exactly one outbound call. Identical images are analyzed
// again on every invocation.
func (s *Service) Analyze(ctx context.Context, img *upload.Image) (*Result, error) {
	if img == nil {
		return nil, apperrors.NewMissingFileError()
	}

	id := uuid.NewString()
	base := observer.AnalysisEvent{
		AnalysisID: id,
		ImageName:  img.Name(),
		MIMEType:   img.MIMEType(),
		ImageSize:  img.Size(),
	}
	start := time.Now()

	started := base
	started.EventType = observer.AnalysisStarted
	s.events.NotifyObservers(ctx, started)

	result, err := s.analyzer.AnalyzeImage(ctx, img.Data(), img.MIMEType())
	elapsed := time.Since(start)
	if err == nil && result == nil {
		err = ErrEmptyResponse
	}

	if err != nil {
		appErr := apperrors.NewAnalysisError(err)
		logger.WithError(err).WithFields(logrus.Fields{
			"analysis_id": id,
			"mime_type":   img.MIMEType(),
		}).Error("Error calling analysis service")

		failed := base
		failed.EventType = observer.AnalysisFailed
		failed.ProcessingTime = elapsed
		failed.ErrorMessage = err.Error()
		s.events.NotifyObservers(ctx, failed)
		return nil, appErr
	}

	completed := base
	completed.EventType = observer.AnalysisCompleted
	completed.ProcessingTime = elapsed
	completed.Success = true
	completed.Metadata = map[string]interface{}{
		"is_sensitive":       result.IsSensitive(),
		"identified_objects": len(result.identifiedObjects),
		"key_insights":       len(result.keyInsights),
	}
	s.events.NotifyObservers(ctx, completed)
	return result, nil
}
