package container

import (
	"context"
	"fmt"

	"go-image-detector/internal/analysis"
	"go-image-detector/internal/config"
	"go-image-detector/internal/factory"
	"go-image-detector/internal/logger"
	"go-image-detector/internal/observer"
	"go-image-detector/internal/session"
	"go-image-detector/internal/transport"
	"go-image-detector/internal/worker"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Container holds all application dependencies
type Container struct {
	config   *config.Config
	events   *observer.EventPublisher
	sessions *session.Store
	workers  *worker.Pool
	handler  *transport.Handler
}

// NewContainer builds the dependency graph for cfg.
func NewContainer(ctx context.Context, cfg *config.Config) (*Container, error) {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	events := observer.NewEventPublisher()
	events.Subscribe(observer.NewLoggingObserver(logger.Logger))
	metrics, err := observer.NewMetricsObserver(registry)
	if err != nil {
		return nil, fmt.Errorf("register metrics: %w", err)
	}
	events.Subscribe(metrics)

	components := factory.NewComponentFactory(cfg)
	analyzer, err := components.AnalyzerFactory.CreateAnalyzer(ctx)
	if err != nil {
		return nil, fmt.Errorf("create analyzer: %w", err)
	}
	repo, err := components.CreateRepository(events)
	if err != nil {
		return nil, err
	}

	service := analysis.NewService(analyzer, events)
	sessions := session.NewStore(session.StoreOptions{
		ProgressInterval: cfg.ProgressInterval,
		Events:           events,
	})
	workers := worker.NewPool(cfg.AnalysisWorkers)
	workers.Start()
	handler := transport.NewHandler(transport.Dependencies{
		Config:   cfg,
		Analyzer: service,
		Sources:  repo,
		Sessions: sessions,
		Workers:  workers,
		Metrics:  promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}),
	})

	return &Container{
		config:   cfg,
		events:   events,
		sessions: sessions,
		workers:  workers,
		handler:  handler,
	}, nil
}

// Handler returns the HTTP handler
func (c *Container) Handler() *transport.Handler {
	return c.handler
}

// Config returns the configuration
func (c *Container) Config() *config.Config {
	return c.config
}

func (c *Container) Sessions() *session.Store {
	return c.sessions
}

// Close stops the analysis workers once queued jobs have run.
func (c *Container) Close() {
	c.workers.Close()
}

// Events returns the publisher shared by every component.
func (c *Container) Events() *observer.EventPublisher {
	return c.events
}
