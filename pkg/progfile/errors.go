package progfile

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownDirective is returned for a line that starts with an unsupported keyword.
var ErrUnknownDirective = errors.New("unknown directive")

// LineError is a failure attributed to one line of a program file.
type LineError struct {
	Line int // 1-based
	Text string
	Err  error
}

func (e *LineError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e *LineError) Unwrap() error {
	return e.Err
}

// LoadError aggregates every malformed line of a program file.
type LoadError struct {
	Path  string
	Lines []*LineError
}

func (e *LoadError) Error() string {
	msgs := make([]string, len(e.Lines))
	for i, le := range e.Lines {
		if e.Path != "" {
			msgs[i] = fmt.Sprintf("%s:%d: %v", e.Path, le.Line, le.Err)
		} else {
			msgs[i] = le.Error()
		}
	}
	return strings.Join(msgs, "\n")
}

// Unwrap exposes the line errors to errors.Is and errors.As.
func (e *LoadError) Unwrap() []error {
	errs := make([]error, len(e.Lines))
	for i, le := range e.Lines {
		errs[i] = le
	}
	return errs
}
