// Package debug provides the detector's verbose logging, gated by the
// --debug CLI flag. It mirrors output to a writer that defaults to nil
// (no output) so non-debug runs pay no logging cost.
package debug

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

var (
	mu      sync.Mutex
	enabled bool
	out     io.Writer
	file    *os.File
)

// Enable turns on debug logging to the given writer. Pass nil to disable.
func Enable(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	enabled = w != nil
	out = w
}

// Enabled reports whether debug logging is currently on.
func Enabled() bool {
	mu.Lock()
	defer mu.Unlock()
	return enabled
}

// OpenLogFile creates (or truncates) path and routes debug output to it in
// addition to stderr. Call CloseLogFile when the run finishes.
func OpenLogFile(path string) error {
	mu.Lock()
	defer mu.Unlock()

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("open debug log: %w", err)
	}
	file = f
	enabled = true
	out = io.MultiWriter(os.Stderr, f)
	return nil
}

// CloseLogFile closes the debug log file opened by OpenLogFile, if any.
func CloseLogFile() {
	mu.Lock()
	defer mu.Unlock()
	if file != nil {
		_ = file.Close()
		file = nil
	}
}

// Logf writes a timestamped debug line. No-op unless debug logging is
// enabled, safe to call concurrently from any worker.
func Logf(format string, args ...any) {
	mu.Lock()
	defer mu.Unlock()
	if !enabled || out == nil {
		return
	}
	fmt.Fprintf(out, "[%s] "+format+"\n", append([]any{time.Now().Format(time.RFC3339)}, args...)...)
}
