// Package session holds the per-visitor view state: the selected image and
// its preview, the pending/settled analysis, the error banner and the
// sensitive-content reveal flag.
package session

import (
	"context"
	"sync"
	"time"

	"go-image-detector/internal/analysis"
	apperrors "go-image-detector/internal/errors"
	"go-image-detector/internal/observer"
	"go-image-detector/internal/progress"
	"go-image-detector/internal/upload"
)

// analysisErrorPrefix precedes the underlying message in the error banner.
const analysisErrorPrefix = "Erro ao analisar a imagem: "

// Runner performs one analysis of an accepted image.
type Runner interface {
	Analyze(ctx context.Context, img *upload.Image) (*analysis.Result, error)
}

// State is a read-only snapshot used for rendering.
type State struct {
	ID              string           `json:"id"`
	HasFile         bool             `json:"hasFile"`
	FileName        string           `json:"fileName,omitempty"`
	PreviewURL      string           `json:"previewUrl,omitempty"`
	Loading         bool             `json:"loading"`
	ProgressMessage string           `json:"progressMessage,omitempty"`
	Error           string           `json:"error,omitempty"`
	Result          *analysis.Result `json:"result,omitempty"`
	ShowSensitive   bool             `json:"showSensitive"`
	// Gated is true while a sensitive result is withheld behind the reveal step.
	Gated bool `json:"gated"`
	// ShowResult is true when the full result may be rendered.
	ShowResult bool `json:"showResult"`
	ShowError  bool `json:"showError"`
	CanAnalyze bool `json:"canAnalyze"`
}

// Ticket identifies one analysis started by Begin. A ticket goes stale as
// soon as a new file is selected or a new analysis begins.
type Ticket struct {
	generation uint64
	image      *upload.Image
}

func (t Ticket) Image() *upload.Image { return t.image }

type Session struct {
	id     string
	events observer.Subject
	now    func() time.Time

	mu         sync.Mutex
	image      *upload.Image
	preview    string
	result     *analysis.Result
	errMsg     string
	loading    bool
	reveal     bool
	generation uint64
	closed     bool
	lastSeen   time.Time
	progress   *progress.Rotator
}

// New creates an empty session. events may be nil.
func New(id string, rotator *progress.Rotator, events observer.Subject) *Session {
	if rotator == nil {
		rotator = progress.NewRotator(nil, 0)
	}
	if events == nil {
		events = observer.Discard{}
	}
	s := &Session{id: id, progress: rotator, events: events, now: time.Now}
	s.lastSeen = s.now()
	return s
}

func (s *Session) ID() string { return s.id }

// SelectFile validates a candidate. A rejected file only sets the error
// message; an accepted file replaces the image and clears the previous
// result, error and reveal flag.
func (s *Session) SelectFile(f *upload.File) error {
	img, err := upload.Accept(f)

	if err != nil {
		s.Reject(err)
		s.notify(observer.AnalysisEvent{EventType: observer.ImageRejected, ImageName: fileName(f), ErrorMessage: err.Error()})
		return err
	}

	s.mu.Lock()
	s.lastSeen = s.now()
	s.image = img
	s.preview = img.DataURL()
	s.result = nil
	s.errMsg = ""
	s.reveal = false
	s.generation++
	if s.loading {
		s.loading = false
		s.progress.Stop()
	}
	s.mu.Unlock()

	s.notify(observer.AnalysisEvent{
		EventType: observer.ImageAccepted,
		ImageName: img.Name(),
		MIMEType:  img.MIMEType(),
		ImageSize: img.Size(),
		Success:   true,
	})
	return nil
}

// Reject shows err as the error message for a file that never became a
// candidate. The current image, preview and result are left untouched.
func (s *Session) Reject(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSeen = s.now()
	s.errMsg = apperrors.UserMessage(err)
}

// Begin starts an analysis of the current image. Without an image it sets
// the missing-file message and returns an error.
func (s *Session) Begin() (Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSeen = s.now()

	if s.image == nil {
		err := apperrors.NewMissingFileError()
		s.errMsg = err.Message
		return Ticket{}, err
	}

	s.loading = true
	s.errMsg = ""
	s.result = nil
	s.reveal = false
	s.generation++
	s.progress.Start()
	return Ticket{generation: s.generation, image: s.image}, nil
}

// Settle applies the outcome of the analysis identified by t. Outcomes for
// stale tickets or closed sessions are discarded; the return value reports
// whether the outcome was applied.
func (s *Session) Settle(t Ticket, result *analysis.Result, err error) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || t.generation != s.generation {
		return false
	}
	s.loading = false
	s.progress.Stop()

	if err != nil {
		s.errMsg = analysisErrorPrefix + apperrors.UserMessage(err)
		return true
	}
	s.result = result
	return true
}

// Analyze runs Begin, one call to r and Settle, in sequence.
func (s *Session) Analyze(ctx context.Context, r Runner) error {
	t, err := s.Begin()
	if err != nil {
		return err
	}
	result, err := r.Analyze(ctx, t.Image())
	s.Settle(t, result, err)
	return err
}

// Reveal lifts the sensitive-content gate for the current result. It never
// triggers a new request.
func (s *Session) Reveal() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSeen = s.now()

	if s.result == nil {
		return false
	}
	s.reveal = true
	return true
}

// Close tears the session down. Any analysis still in flight is discarded
// when it settles.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	if s.loading {
		s.loading = false
		s.progress.Stop()
	}
}

func (s *Session) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := State{
		ID:            s.id,
		HasFile:       s.image != nil,
		PreviewURL:    s.preview,
		Loading:       s.loading,
		Error:         s.errMsg,
		Result:        s.result,
		ShowSensitive: s.reveal,
	}
	if s.image != nil {
		st.FileName = s.image.Name()
	}
	if s.loading {
		st.ProgressMessage = s.progress.Current()
	}
	st.Gated = st.Result != nil && st.Result.IsSensitive() && !st.ShowSensitive
	st.ShowResult = !st.Loading && st.Result != nil && !st.Gated
	st.ShowError = !st.Loading && st.Error != ""
	st.CanAnalyze = st.HasFile && !st.Loading
	return st
}

func (s *Session) idleSince() (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen, s.loading
}

func (s *Session) notify(e observer.AnalysisEvent) {
	s.events.NotifyObservers(context.Background(), e)
}

func fileName(f *upload.File) string {
	if f == nil {
		return ""
	}
	return f.Name
}
