// Package ui holds presentation-side state of the web UI.
package ui

import (
	"sync"
	"time"

	"github.com/elpatron68/side-launcher/internal/dispatch"
)

type ResultEntry struct {
	When   time.Time
	Label  string
	Result dispatch.CommandResult
}

// ResultLog keeps the most recent results per user.
type ResultLog struct {
	mu        sync.Mutex
	userToBuf map[string][]ResultEntry
	max       int
	now       func() time.Time
}

func NewResultLog(max int) *ResultLog {
	if max <= 0 {
		max = 200
	}
	return &ResultLog{userToBuf: make(map[string][]ResultEntry), max: max, now: time.Now}
}

func (s *ResultLog) SetMax(max int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if max <= 0 {
		return
	}
	s.max = max
}

func (s *ResultLog) Append(username, label string, res dispatch.CommandResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	buf := append(s.userToBuf[username], ResultEntry{When: s.now(), Label: label, Result: res})
	if len(buf) > s.max {
		// drop oldest
		buf = buf[len(buf)-s.max:]
	}
	s.userToBuf[username] = buf
}

// List returns the last n entries, newest first. n <= 0 means all.
func (s *ResultLog) List(username string, n int) []ResultEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	buf := s.userToBuf[username]
	if n <= 0 || n > len(buf) {
		n = len(buf)
	}
	out := make([]ResultEntry, 0, n)
	for i := len(buf) - 1; i >= len(buf)-n; i-- {
		out = append(out, buf[i])
	}
	return out
}

// Sink returns a dispatch sink that records into username's log.
func (s *ResultLog) Sink(username, label string) dispatch.Sink {
	return dispatch.SinkFunc(func(res dispatch.CommandResult) {
		s.Append(username, label, res)
	})
}
