package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

var spinnerFrames = [...]string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

const spinnerInterval = 80 * time.Millisecond

// Spinner animates a status line on stderr until stopped or until its
// context ends.
type Spinner struct {
	ctx    context.Context
	cancel context.CancelFunc
	out    io.Writer

	once     sync.Once
	finished chan struct{}

	mu      sync.Mutex
	message string
	width   int // widest line drawn so far
}

func newSpinner(message string) *Spinner {
	return newSpinnerWithContext(context.Background(), message)
}

// newSpinnerWithContext returns a spinner that stops drawing when ctx ends.
func newSpinnerWithContext(ctx context.Context, message string) *Spinner {
	ctx, cancel := context.WithCancel(ctx)
	return &Spinner{
		ctx:      ctx,
		cancel:   cancel,
		out:      os.Stderr,
		finished: make(chan struct{}),
		message:  message,
	}
}

// Start draws the first frame and animates in the background.
func (s *Spinner) Start() {
	s.draw(0)
	go func() {
		defer close(s.finished)
		tick := time.NewTicker(spinnerInterval)
		defer tick.Stop()
		for n := 1; ; n++ {
			select {
			case <-s.ctx.Done():
				s.clearLine()
				return
			case <-tick.C:
				s.draw(n)
			}
		}
	}()
}

func (s *Spinner) draw(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	frame := spinnerFrames[n%len(spinnerFrames)]
	fmt.Fprintf(s.out, "\r%s %s", styleSpinner.Render(frame), StyleDim.Render(s.message))
	s.width = max(s.width, len(s.message))
}

func (s *Spinner) clearLine() {
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintf(s.out, "\r%s\r", strings.Repeat(" ", max(s.width, len(s.message))+4))
}

// SetMessage replaces the status text. Safe for concurrent use.
func (s *Spinner) SetMessage(message string) {
	s.mu.Lock()
	s.message = message
	s.mu.Unlock()
}

// Stop ends the animation and clears the line. Calling it again is a no-op.
func (s *Spinner) Stop() {
	s.once.Do(func() {
		s.cancel()
		select {
		case <-s.finished:
		case <-time.After(time.Second):
		}
		s.clearLine()
	})
}

func (s *Spinner) StopWithSuccess(message string) {
	s.Stop()
	printSuccess("%s", message)
}

func (s *Spinner) StopWithError(message string) {
	s.Stop()
	printError("%s", message)
}

// Cancelled reports whether the spinner's context has ended, either through
// its parent or through Stop.
func (s *Spinner) Cancelled() bool {
	return s.ctx.Err() != nil
}
