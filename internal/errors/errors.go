// Package errors declares the closed set of error kinds the detector can
// produce and the policy for handling each.
package errors

import (
	"fmt"
	"time"
)

// Kind is a closed sum type for the detector's error taxonomy. It is a
// plain string enum rather than a type hierarchy so callers can switch on
// it directly.
type Kind string

const (
	// KindConfig covers a missing or unreadable source root; fatal, aborts
	// before any worker starts.
	KindConfig Kind = "config"
	// KindFileRead covers I/O failure while reading an admitted file; the
	// file is skipped and a warning logged.
	KindFileRead Kind = "file_read"
	// KindParse covers a grammar outright rejecting input; the file is
	// skipped unless the grammar recovered a partial tree.
	KindParse Kind = "parse"
	// KindUnsupportedExtension means a file reached the parser without a
	// registered grammar, which filtering should have prevented.
	KindUnsupportedExtension Kind = "unsupported_extension"
	// KindInternalPanic covers a traversal assertion recovered mid-file;
	// isolated to the offending file, other workers continue.
	KindInternalPanic Kind = "internal_panic"
	// KindOutput covers a failure writing the final report.
	KindOutput Kind = "output"
)

// DetectorError wraps an underlying error with the kind and file context
// needed to apply the per-kind policy from §7 without re-deriving it at
// every call site.
type DetectorError struct {
	Kind      Kind
	Path      string
	Op        string
	Err       error
	Timestamp time.Time
}

// New creates a DetectorError for op, wrapping err.
func New(kind Kind, op string, err error) *DetectorError {
	return &DetectorError{Kind: kind, Op: op, Err: err, Timestamp: time.Now()}
}

// WithPath attaches the file path this error occurred on.
func (e *DetectorError) WithPath(path string) *DetectorError {
	e.Path = path
	return e
}

func (e *DetectorError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s (%s): %v", e.Kind, e.Op, e.Path, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.Kind, e.Op, e.Err)
}

func (e *DetectorError) Unwrap() error {
	return e.Err
}

// Fatal reports whether an error of this kind must abort the whole run
// rather than being isolated to one file.
func (k Kind) Fatal() bool {
	return k == KindConfig || k == KindOutput
}
