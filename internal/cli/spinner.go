package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
)

var spinnerFrames = [...]string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

const spinnerInterval = 80 * time.Millisecond

// Spinner animates a status line while a blocking step runs. On writers that
// are not terminals it prints nothing.
type Spinner struct {
	w       io.Writer
	label   string
	parent  context.Context
	halt    context.CancelFunc
	ctx     context.Context
	done    chan struct{}
	stopped sync.Once
}

// newSpinner ties the spinner to ctx: cancelling ctx stops it as well.
func newSpinner(ctx context.Context, w io.Writer, label string) *Spinner {
	inner, halt := context.WithCancel(ctx)
	return &Spinner{w: w, label: label, parent: ctx, ctx: inner, halt: halt, done: make(chan struct{})}
}

func (s *Spinner) Start() {
	if !isTerminal(s.w) {
		close(s.done)
		return
	}
	go s.loop()
}

func (s *Spinner) loop() {
	defer close(s.done)
	tick := time.NewTicker(spinnerInterval)
	defer tick.Stop()
	frame := 0
	for {
		select {
		case <-s.ctx.Done():
			// Blank the frame, the space and the label.
			fmt.Fprintf(s.w, "\r%s\r", strings.Repeat(" ", len(s.label)+4))
			return
		case <-tick.C:
			fmt.Fprintf(s.w, "\r%s %s", styleIconSpinner.Render(spinnerFrames[frame]), StyleDim.Render(s.label))
			frame = (frame + 1) % len(spinnerFrames)
		}
	}
}

// Stop clears the line and waits for the animation to end. Safe to call
// more than once.
func (s *Spinner) Stop() {
	s.stopped.Do(s.halt)
	<-s.done
}

// Cancelled reports whether the parent context ended the spinner.
func (s *Spinner) Cancelled() bool { return s.parent.Err() != nil }
