// Package fault defines the terminal error taxonomy for the audit pipeline.
// Every fault aborts the whole audit; there is no retry anywhere.
package fault

import (
	"errors"
	"fmt"
)

// Kind classifies a fault by where in the pipeline it originated.
type Kind string

const (
	// Precondition covers missing credentials, an unusable options file or
	// a service release too old to serve configuration-version downloads.
	Precondition Kind = "precondition"
	// Transport covers network failures and malformed response bodies.
	Transport Kind = "transport"
	// Consistency covers remote state that changed between reads, such as a
	// version list out of sync with the run being inspected.
	Consistency Kind = "consistency"
	// Filesystem covers staging directory collisions, extraction failures
	// and removal failures.
	Filesystem Kind = "filesystem"
)

// Fault is a terminal pipeline error carrying its classification.
type Fault struct {
	Kind Kind
	Err  error
}

func (f *Fault) Error() string {
	return fmt.Sprintf("%s fault: %v", f.Kind, f.Err)
}

func (f *Fault) Unwrap() error {
	return f.Err
}

// New wraps err as a fault of the given kind. A nil err yields nil.
func New(kind Kind, err error) error {
	if err == nil {
		return nil
	}
	return &Fault{Kind: kind, Err: err}
}

// Preconditionf builds a precondition fault from a format string.
func Preconditionf(format string, args ...interface{}) error {
	return &Fault{Kind: Precondition, Err: fmt.Errorf(format, args...)}
}

// Transportf builds a transport fault from a format string.
func Transportf(format string, args ...interface{}) error {
	return &Fault{Kind: Transport, Err: fmt.Errorf(format, args...)}
}

// Consistencyf builds a consistency fault from a format string.
func Consistencyf(format string, args ...interface{}) error {
	return &Fault{Kind: Consistency, Err: fmt.Errorf(format, args...)}
}

// Filesystemf builds a filesystem fault from a format string.
func Filesystemf(format string, args ...interface{}) error {
	return &Fault{Kind: Filesystem, Err: fmt.Errorf(format, args...)}
}

// KindOf returns the classification of err, or "" when err carries none.
func KindOf(err error) Kind {
	var f *Fault
	if errors.As(err, &f) {
		return f.Kind
	}
	return ""
}

// IsKind reports whether err is a fault of the given kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}
