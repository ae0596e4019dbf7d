// Package progress cycles human-readable "still working" messages on a fixed
// interval while a request is pending. It has no coupling to the request.
package progress

import (
	"sync"
	"time"
)

// DefaultMessages are shown in order while an analysis is pending.
var DefaultMessages = []string{
	"Preparando sua imagem...",
	"Verificando conteúdo...",
	"Analisando os detalhes da imagem...",
	"Estruturando os resultados...",
	"Quase pronto, gerando a descrição...",
}

// DefaultInterval is the time between two messages.
const DefaultInterval = 2500 * time.Millisecond

// Rotator advances an index over its messages on every tick between Start
// and Stop.
type Rotator struct {
	messages []string
	interval time.Duration

	mu      sync.Mutex
	index   int
	running bool
	stop    chan struct{}
	done    chan struct{}
}

func NewRotator(messages []string, interval time.Duration) *Rotator {
	if len(messages) == 0 {
		messages = DefaultMessages
	}
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Rotator{messages: append([]string(nil), messages...), interval: interval}
}

// Start resets to the first message and begins rotating. Calling Start while
// running restarts the rotation.
func (r *Rotator) Start() {
	r.Stop()

	r.mu.Lock()
	r.index = 0
	r.running = true
	r.stop = make(chan struct{})
	r.done = make(chan struct{})
	stop, done := r.stop, r.done
	r.mu.Unlock()

	go r.loop(stop, done)
}

func (r *Rotator) loop(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			r.mu.Lock()
			r.index = (r.index + 1) % len(r.messages)
			r.mu.Unlock()
		}
	}
}

// Stop cancels the rotation and waits for the ticker goroutine to exit.
func (r *Rotator) Stop() {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return
	}
	r.running = false
	stop, done := r.stop, r.done
	r.mu.Unlock()

	close(stop)
	<-done
}

// Current returns the active message, or "" when not running.
func (r *Rotator) Current() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.running {
		return ""
	}
	return r.messages[r.index]
}

func (r *Rotator) Running() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}

func (r *Rotator) Interval() time.Duration { return r.interval }
