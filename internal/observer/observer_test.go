package observer

import (
	"bytes"
	"context"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingObserver struct {
	name   string
	mu     sync.Mutex
	events []AnalysisEvent
}

func (r *recordingObserver) OnEvent(ctx context.Context, event AnalysisEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *recordingObserver) GetObserverName() string { return r.name }

func (r *recordingObserver) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

type panickingObserver struct{}

func (panickingObserver) OnEvent(context.Context, AnalysisEvent) { panic("boom") }
func (panickingObserver) GetObserverName() string                { return "panicker" }

func TestEventPublisher_NotifiesAllObservers(t *testing.T) {
	p := NewEventPublisher()
	a := &recordingObserver{name: "a"}
	b := &recordingObserver{name: "b"}
	p.Subscribe(a)
	p.Subscribe(b)
	p.Subscribe(panickingObserver{})

	p.NotifyObservers(context.Background(), AnalysisEvent{EventType: AnalysisStarted})
	p.Wait()

	assert.Equal(t, 1, a.count())
	assert.Equal(t, 1, b.count())
	assert.False(t, a.events[0].Timestamp.IsZero(), "timestamp is filled in")
}

func TestEventPublisher_Unsubscribe(t *testing.T) {
	p := NewEventPublisher()
	a := &recordingObserver{name: "a"}
	p.Subscribe(a)
	p.Unsubscribe(a)

	p.NotifyObservers(context.Background(), AnalysisEvent{EventType: AnalysisStarted})
	p.Wait()

	assert.Equal(t, 0, a.count())
}

func TestMetricsObserver(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := NewMetricsObserver(reg)
	require.NoError(t, err)

	ctx := context.Background()
	m.OnEvent(ctx, AnalysisEvent{EventType: AnalysisStarted})
	m.OnEvent(ctx, AnalysisEvent{EventType: AnalysisStarted})
	m.OnEvent(ctx, AnalysisEvent{EventType: AnalysisCompleted, ProcessingTime: time.Second})
	m.OnEvent(ctx, AnalysisEvent{EventType: AnalysisFailed})
	m.OnEvent(ctx, AnalysisEvent{EventType: ImageAccepted})
	m.OnEvent(ctx, AnalysisEvent{EventType: ImageRejected})
	m.OnEvent(ctx, AnalysisEvent{EventType: ImageRejected})
	m.OnEvent(ctx, AnalysisEvent{EventType: ImageFetchFailed})

	assert.Equal(t, 2.0, testutil.ToFloat64(m.analyses.WithLabelValues("started")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.analyses.WithLabelValues("completed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.analyses.WithLabelValues("failed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.uploads.WithLabelValues("accepted")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.uploads.WithLabelValues("rejected")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.fetches.WithLabelValues("failed")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.duration))

	// Registering twice on the same registry is a programming error.
	_, err = NewMetricsObserver(reg)
	assert.Error(t, err)
}

func TestLoggingObserver(t *testing.T) {
	var buf bytes.Buffer
	l := logrus.New()
	l.SetOutput(&buf)
	l.SetFormatter(&logrus.JSONFormatter{})

	o := NewLoggingObserver(l)
	o.OnEvent(context.Background(), AnalysisEvent{
		EventType:    AnalysisFailed,
		AnalysisID:   "abc",
		ImageName:    "cat.png",
		ErrorMessage: "upstream said no",
	})

	out := buf.String()
	assert.Contains(t, out, `"analysis_id":"abc"`)
	assert.Contains(t, out, `"error":"upstream said no"`)
	assert.Contains(t, out, "Image analysis failed")
	assert.Equal(t, "logging_observer", o.GetObserverName())
}
