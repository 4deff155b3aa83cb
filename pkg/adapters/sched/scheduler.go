// Package sched provides the process-local scheduler adapter. On the
// device the alarm queue lives in the system manager; host-side this
// adapter stands in for it with plain timers.
//
// Entries are keyed by callback identity: arming a key that is already
// pending replaces the previous entry, so a burst of identical commands
// re-arms one timer instead of stacking several.
package sched

import (
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/tether/pkg/core"
)

// Scheduler implements core.Scheduler with one-shot timers.
type Scheduler struct {
	mu     sync.Mutex
	timers map[string]*time.Timer
	logger *slog.Logger
}

// New creates a Scheduler. A nil logger is allowed.
func New(logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Scheduler{
		timers: make(map[string]*time.Timer),
		logger: logger,
	}
}

// Arm registers fn to run at the given time, replacing any pending
// entry under the same key. Times in the past fire immediately.
func (s *Scheduler) Arm(key string, at time.Time, fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t, ok := s.timers[key]; ok {
		t.Stop()
		s.logger.Debug("replacing pending alarm", "key", key)
	}

	s.timers[key] = time.AfterFunc(time.Until(at), func() {
		s.mu.Lock()
		delete(s.timers, key)
		s.mu.Unlock()
		fn()
	})
}

// Cancel stops and removes the pending entry for key, if any.
// Cancelling an absent or already-fired key is a no-op.
func (s *Scheduler) Cancel(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.timers[key]; ok {
		t.Stop()
		delete(s.timers, key)
	}
}

// Pending returns the number of armed entries.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}

// Stop cancels every pending entry. Used at shutdown.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, t := range s.timers {
		t.Stop()
		delete(s.timers, key)
	}
}

var _ core.Scheduler = (*Scheduler)(nil)
