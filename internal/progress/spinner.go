package progress

import (
	"fmt"
	"io"
	"time"

	"github.com/briandowns/spinner"
)

const spinnerInterval = 100 * time.Millisecond

// Spinner shows one step at a time. On a TTY it animates; otherwise Start
// prints nothing and Success/Fail print a single result line, which keeps CI
// logs free of control sequences.
type Spinner struct {
	out     io.Writer
	caps    TerminalCapabilities
	symbols ProgressSymbols
	spin    *spinner.Spinner
	message string
}

// NewSpinner creates a spinner writing to out.
func NewSpinner(out io.Writer, caps TerminalCapabilities) *Spinner {
	return &Spinner{out: out, caps: caps, symbols: SelectSymbols(caps)}
}

// Start begins a step. A step still running is stopped first.
func (s *Spinner) Start(message string) {
	s.stop()
	s.message = message
	if !s.caps.IsTTY {
		return
	}
	s.spin = spinner.New(spinner.CharSets[s.symbols.SpinnerSet], spinnerInterval, spinner.WithWriter(s.out))
	s.spin.Suffix = " " + message
	s.spin.Start()
}

// Success ends the current step with a checkmark. An empty message repeats
// the step's own message.
func (s *Spinner) Success(message string) {
	s.finish(s.symbols.Checkmark, message)
}

// Fail ends the current step with a failure marker.
func (s *Spinner) Fail(message string) {
	s.finish(s.symbols.Failure, message)
}

func (s *Spinner) finish(symbol, message string) {
	s.stop()
	if message == "" {
		message = s.message
	}
	fmt.Fprintf(s.out, "%s %s\n", symbol, message)
	s.message = ""
}

func (s *Spinner) stop() {
	if s.spin != nil {
		s.spin.Stop()
		s.spin = nil
	}
}
