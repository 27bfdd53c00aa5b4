// Package history records package operations in a local BoltDB log. The
// log is per-user and diagnostic; nothing on the shared volume depends on
// it.
package history

import (
	"strings"
	"time"
)

// Operation names what an entry recorded.
type Operation string

const (
	OpInstall   Operation = "install"
	OpUninstall Operation = "uninstall"
	OpUpgrade   Operation = "upgrade"
	OpPublish   Operation = "publish"
	OpClean     Operation = "clean"
)

// Entry is a single recorded operation. Packages holds package keys in
// "provider:name@version" form, or bare names when the version is unknown
// at record time.
type Entry struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Operation Operation `json:"operation"`
	Packages  []string  `json:"packages"`
	Success   bool      `json:"success"`
	Error     string    `json:"error,omitempty"`
}

// NewEntry starts an entry for an operation about to run. Success is
// recorded when the operation reports back.
func NewEntry(op Operation, packages ...string) *Entry {
	return &Entry{
		ID:        generateID(),
		Timestamp: time.Now(),
		Operation: op,
		Packages:  packages,
	}
}

// MarkSuccess marks the entry as successful.
func (e *Entry) MarkSuccess() {
	e.Success = true
}

// MarkFailed marks the entry as failed, keeping the error message.
func (e *Entry) MarkFailed(err error) {
	e.Success = false
	if err != nil {
		e.Error = err.Error()
	}
}

func generateID() string {
	return time.Now().Format("20060102150405.000000")
}

// FormatTime returns a human-readable timestamp.
func (e *Entry) FormatTime() string {
	return e.Timestamp.Format("2006-01-02 15:04:05")
}

// Summary returns a one-line description for listings.
func (e *Entry) Summary() string {
	status := "success"
	if !e.Success {
		status = "failed"
	}

	if len(e.Packages) == 0 {
		return e.FormatTime() + " " + string(e.Operation) + " (" + status + ")"
	}
	return e.FormatTime() + " " + string(e.Operation) + " " +
		strings.Join(e.Packages, " ") + " (" + status + ")"
}
