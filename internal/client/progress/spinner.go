// Package progress draws a single-line activity indicator on a terminal.
package progress

import (
	"fmt"
	"io"
	"sync"
	"time"
)

var frames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// Spinner redraws its label with a rotating frame until stopped. Stop is
// safe to call more than once and from a deferred function; after it
// returns the line is cleared and nothing else is written.
type Spinner struct {
	w        io.Writer
	interval time.Duration

	mu      sync.Mutex
	label   string
	running bool
	done    chan struct{}
	exited  chan struct{}
}

func New(w io.Writer, interval time.Duration) *Spinner {
	if interval <= 0 {
		interval = 100 * time.Millisecond
	}
	return &Spinner{w: w, interval: interval}
}

// Start begins drawing label. Starting a running spinner only changes the
// label.
func (s *Spinner) Start(label string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.label = label
	if s.running {
		return
	}
	s.running = true
	s.done = make(chan struct{})
	s.exited = make(chan struct{})
	go s.loop(s.done, s.exited)
}

// SetLabel changes the text shown next to the frame.
func (s *Spinner) SetLabel(label string) {
	s.mu.Lock()
	s.label = label
	s.mu.Unlock()
}

func (s *Spinner) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	close(s.done)
	exited := s.exited
	s.mu.Unlock()

	<-exited
	_, _ = fmt.Fprint(s.w, "\r\033[K")
}

// Running reports whether the spinner is drawing.
func (s *Spinner) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *Spinner) loop(done <-chan struct{}, exited chan<- struct{}) {
	defer close(exited)

	t := time.NewTicker(s.interval)
	defer t.Stop()

	for i := 0; ; i++ {
		s.mu.Lock()
		label := s.label
		s.mu.Unlock()
		_, _ = fmt.Fprintf(s.w, "\r\033[K%s %s", frames[i%len(frames)], label)

		select {
		case <-done:
			return
		case <-t.C:
		}
	}
}
