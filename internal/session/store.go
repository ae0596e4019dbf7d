package session

import (
	"context"
	"sync"
	"time"

	"go-image-detector/internal/logger"
	"go-image-detector/internal/observer"
	"go-image-detector/internal/progress"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// StoreOptions configures the sessions a Store creates.
type StoreOptions struct {
	ProgressMessages []string
	ProgressInterval time.Duration
	Events           observer.Subject
}

// Store keeps sessions in memory only; nothing survives a restart.
type Store struct {
	opts StoreOptions
	now  func() time.Time

	mu       sync.Mutex
	sessions map[string]*Session
}

func NewStore(opts StoreOptions) *Store {
	return &Store{
		opts:     opts,
		now:      time.Now,
		sessions: make(map[string]*Session),
	}
}

// Get returns the session for id, if any.
func (st *Store) Get(id string) (*Session, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()
	s, ok := st.sessions[id]
	return s, ok
}

// GetOrCreate returns the session for id, creating a fresh one with a new
// id when id is unknown or empty.
func (st *Store) GetOrCreate(id string) (*Session, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()

	if s, ok := st.sessions[id]; ok && id != "" {
		return s, false
	}
	newID := uuid.NewString()
	s := New(newID, progress.NewRotator(st.opts.ProgressMessages, st.opts.ProgressInterval), st.opts.Events)
	s.now = st.now
	s.lastSeen = st.now()
	st.sessions[newID] = s
	return s, true
}

// Delete closes and forgets the session.
func (st *Store) Delete(id string) {
	st.mu.Lock()
	s, ok := st.sessions[id]
	delete(st.sessions, id)
	st.mu.Unlock()
	if ok {
		s.Close()
	}
}

func (st *Store) Len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.sessions)
}

// Sweep closes and removes sessions idle for longer than maxIdle. Sessions
// with an analysis in flight are kept.
func (st *Store) Sweep(maxIdle time.Duration) int {
	cutoff := st.now().Add(-maxIdle)

	st.mu.Lock()
	var stale []*Session
	for id, s := range st.sessions {
		lastSeen, loading := s.idleSince()
		if !loading && lastSeen.Before(cutoff) {
			stale = append(stale, s)
			delete(st.sessions, id)
		}
	}
	st.mu.Unlock()

	for _, s := range stale {
		s.Close()
	}
	return len(stale)
}

// Run sweeps every interval until ctx is done.
func (st *Store) Run(ctx context.Context, interval, maxIdle time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if n := st.Sweep(maxIdle); n > 0 {
				logger.WithFields(logrus.Fields{
					"evicted":   n,
					"remaining": st.Len(),
				}).Debug("Evicted idle sessions")
			}
		}
	}
}
