// Package transport exposes the detector over HTTP: the single-page view with
// its form actions, a JSON API, health and metrics.
package transport

import (
	"context"
	"errors"
	"net/http"
	"time"

	"go-image-detector/internal/analysis"
	"go-image-detector/internal/config"
	apperrors "go-image-detector/internal/errors"
	"go-image-detector/internal/logger"
	"go-image-detector/internal/session"
	"go-image-detector/internal/upload"
	"go-image-detector/internal/worker"
	"go-image-detector/pkg/models"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const (
	sessionCookie = "session_id"
	formFileField = "image"
	formURLField  = "url"
)

// ImageSource fetches remote images for the import actions.
type ImageSource interface {
	FetchImage(ctx context.Context, sourceURL string) (*upload.File, error)
	Schemes() []string
}

type Dependencies struct {
	Config   *config.Config
	Analyzer session.Runner
	Sources  ImageSource
	Sessions *session.Store
	// Workers runs page analyses. Required; the caller starts and closes it.
	Workers *worker.Pool
	// Metrics serves /metrics when set.
	Metrics http.Handler
}

// Handler is the gin router plus the pool running its background analyses.
type Handler struct {
	engine   *gin.Engine
	cfg      *config.Config
	analyzer session.Runner
	sources  ImageSource
	sessions *session.Store
	workers  *worker.Pool
}

func NewHandler(deps Dependencies) *Handler {
	h := &Handler{
		cfg:      deps.Config,
		analyzer: deps.Analyzer,
		sources:  deps.Sources,
		sessions: deps.Sessions,
		workers:  deps.Workers,
	}

	r := gin.New()
	r.Use(
		gin.Recovery(),
		requestID(),
		requestLogger(),
		requestSizeLimiter(h.cfg.MaxRequestBodySize),
		errorHandler(),
	)
	r.SetHTMLTemplate(loadTemplates())

	r.GET("/", h.index)
	r.POST("/upload", h.upload)
	r.POST("/import", h.importURL)
	r.POST("/analyze", h.analyze)
	r.POST("/reveal", h.reveal)

	api := r.Group("/api/v1")
	api.Use(corsMiddleware(h.cfg.CORSAllowedOrigins))
	api.OPTIONS("/*path", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	api.POST("/analyze", h.apiAnalyze)
	api.POST("/analyze-url", h.apiAnalyzeURL)
	api.GET("/session", h.apiSession)

	r.GET("/health", h.healthCheck)
	if deps.Metrics != nil {
		r.GET("/metrics", gin.WrapH(deps.Metrics))
	}

	h.engine = r
	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.engine.ServeHTTP(w, r)
}

// Wait blocks until every background analysis has settled.
func (h *Handler) Wait() {
	h.workers.Wait()
}

// existingSession returns the session named by the caller's cookie, or nil.
// It never creates one.
func (h *Handler) existingSession(c *gin.Context) *session.Session {
	id, err := c.Cookie(sessionCookie)
	if err != nil {
		return nil
	}
	s, ok := h.sessions.Get(id)
	if !ok {
		return nil
	}
	return s
}

// session returns the caller's session, issuing a cookie for new ones.
func (h *Handler) session(c *gin.Context) *session.Session {
	id, _ := c.Cookie(sessionCookie)
	s, created := h.sessions.GetOrCreate(id)
	if created {
		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(sessionCookie, s.ID(), 0, "/", "", c.Request.TLS != nil, true)
	}
	return s
}

func (h *Handler) index(c *gin.Context) {
	s := h.session(c)
	c.Header("Cache-Control", "no-store")
	c.HTML(http.StatusOK, pageTemplate, newPageView(s.Snapshot(), h.cfg.ProgressInterval))
}

func (h *Handler) upload(c *gin.Context) {
	s := h.session(c)
	if file, err := h.formFile(c); err != nil {
		s.Reject(err)
	} else {
		_ = s.SelectFile(file)
	}
	c.Redirect(http.StatusSeeOther, "/")
}

func (h *Handler) importURL(c *gin.Context) {
	s := h.session(c)
	if file, err := h.fetch(c, c.PostForm(formURLField)); err != nil {
		s.Reject(err)
	} else {
		_ = s.SelectFile(file)
	}
	c.Redirect(http.StatusSeeOther, "/")
}

// analyze queues the analysis on the worker pool and redirects right away;
// the page polls until the session settles.
func (h *Handler) analyze(c *gin.Context) {
	s := h.session(c)
	ticket, err := s.Begin()
	if err == nil {
		ctx := context.WithoutCancel(c.Request.Context())
		fields := logrus.Fields{
			"session_id": s.ID(),
			"request_id": c.GetString(requestIDKey),
		}

		err = h.workers.Submit(c.Request.Context(), func() {
			result, err := h.analyzer.Analyze(ctx, ticket.Image())
			if !s.Settle(ticket, result, err) {
				logger.WithFields(fields).Debug("Discarded stale analysis outcome")
			}
		})
		if err != nil {
			logger.WithError(err).WithFields(fields).Warn("Failed to queue analysis")
			s.Settle(ticket, nil, apperrors.NewInternalError("analysis queue unavailable", err))
		}
	}
	c.Redirect(http.StatusSeeOther, "/")
}

func (h *Handler) reveal(c *gin.Context) {
	h.session(c).Reveal()
	c.Redirect(http.StatusSeeOther, "/")
}

// apiAnalyze and apiAnalyzeURL are one-shot: a caller without a session
// cookie gets its result and nothing is kept. An existing session is
// updated like the page would be.
func (h *Handler) apiAnalyze(c *gin.Context) {
	s := h.existingSession(c)
	file, err := h.formFile(c)
	if err != nil {
		if s != nil {
			s.Reject(err)
		}
		respondError(c, err)
		return
	}
	h.analyzeNow(c, s, file)
}

func (h *Handler) apiAnalyzeURL(c *gin.Context) {
	s := h.existingSession(c)

	var req models.AnalyzeURLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, normalizeBindError(err, h.cfg.MaxRequestBodySize))
		return
	}

	file, err := h.fetch(c, req.URL)
	if err != nil {
		if s != nil {
			s.Reject(err)
		}
		respondError(c, err)
		return
	}
	h.analyzeNow(c, s, file)
}

func (h *Handler) apiSession(c *gin.Context) {
	c.Header("Cache-Control", "no-store")
	c.JSON(http.StatusOK, h.session(c).Snapshot())
}

// analyzeNow runs one analysis of file within the request. With a nil
// session the image is only held for the call.
func (h *Handler) analyzeNow(c *gin.Context, s *session.Session, file *upload.File) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.cfg.RequestTimeout)
	defer cancel()

	var (
		result *analysis.Result
		err    error
	)
	if s != nil {
		result, err = h.analyzeInSession(ctx, s, file)
	} else {
		result, err = h.analyzeOnce(ctx, file)
	}
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *Handler) analyzeOnce(ctx context.Context, file *upload.File) (*analysis.Result, error) {
	img, err := upload.Accept(file)
	if err != nil {
		return nil, err
	}
	return h.analyzer.Analyze(ctx, img)
}

func (h *Handler) analyzeInSession(ctx context.Context, s *session.Session, file *upload.File) (*analysis.Result, error) {
	if err := s.SelectFile(file); err != nil {
		return nil, err
	}
	ticket, err := s.Begin()
	if err != nil {
		return nil, err
	}
	result, err := h.analyzer.Analyze(ctx, ticket.Image())
	s.Settle(ticket, result, err)
	return result, err
}

// formFile reads the multipart image. A request without one yields a nil
// file so that selection reports the missing-file message.
func (h *Handler) formFile(c *gin.Context) (*upload.File, error) {
	fh, err := c.FormFile(formFileField)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return nil, nil
		}
		return nil, normalizeError(err, h.cfg.MaxRequestBodySize)
	}
	file, err := upload.FromMultipart(fh)
	if err != nil {
		return nil, normalizeError(err, h.cfg.MaxRequestBodySize)
	}
	return file, nil
}

func (h *Handler) fetch(c *gin.Context, sourceURL string) (*upload.File, error) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.cfg.ImageFetchTimeout)
	defer cancel()

	file, err := h.sources.FetchImage(ctx, sourceURL)
	if err != nil {
		logger.WithError(err).WithFields(logrus.Fields{
			"url":        sourceURL,
			"request_id": c.GetString(requestIDKey),
		}).Warn("Failed to import image")
		return nil, normalizeError(err, h.cfg.MaxRequestBodySize)
	}
	return file, nil
}

func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, models.HealthResponse{
		Status:    "available",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Provider:  h.cfg.Provider,
		Model:     h.cfg.Model,
		Sources:   h.sources.Schemes(),
		Sessions:  h.sessions.Len(),
	})
}

func normalizeBindError(err error, maxBytes int64) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return apperrors.NewTooLargeError(maxBytes, err)
	}
	return apperrors.NewValidationError("invalid request format", err)
}
