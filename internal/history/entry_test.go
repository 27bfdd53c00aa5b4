package history

import (
	"errors"
	"strings"
	"testing"
)

func TestNewEntry(t *testing.T) {
	entry := NewEntry(OpInstall, "bob:ripgrep@14.1.0")

	if entry.ID == "" {
		t.Error("entry has no ID")
	}
	if entry.Operation != OpInstall {
		t.Errorf("Operation = %s", entry.Operation)
	}
	if len(entry.Packages) != 1 || entry.Packages[0] != "bob:ripgrep@14.1.0" {
		t.Errorf("Packages = %v", entry.Packages)
	}
	if entry.Success {
		t.Error("a fresh entry must not start as successful")
	}
	if entry.Timestamp.IsZero() {
		t.Error("entry has no timestamp")
	}
}

func TestMarkSuccess(t *testing.T) {
	entry := NewEntry(OpUninstall, "bob:ripgrep@14.1.0")
	entry.MarkSuccess()

	if !entry.Success {
		t.Error("MarkSuccess() did not set Success")
	}
	if entry.Error != "" {
		t.Errorf("Error = %q", entry.Error)
	}
}

func TestMarkFailed(t *testing.T) {
	entry := NewEntry(OpInstall, "bob:ripgrep@14.1.0")
	entry.MarkFailed(errors.New("checksum mismatch"))

	if entry.Success {
		t.Error("MarkFailed() left Success set")
	}
	if entry.Error != "checksum mismatch" {
		t.Errorf("Error = %q", entry.Error)
	}
}

func TestMarkFailedNilError(t *testing.T) {
	entry := NewEntry(OpClean)
	entry.MarkFailed(nil)

	if entry.Success || entry.Error != "" {
		t.Errorf("entry = %+v", entry)
	}
}

func TestSummary(t *testing.T) {
	entry := NewEntry(OpInstall, "bob:ripgrep@14.1.0")
	entry.MarkSuccess()

	got := entry.Summary()
	if !strings.Contains(got, "install") || !strings.Contains(got, "bob:ripgrep@14.1.0") {
		t.Errorf("Summary() = %q", got)
	}
	if !strings.Contains(got, "success") {
		t.Errorf("Summary() = %q, want success status", got)
	}

	entry.MarkFailed(errors.New("boom"))
	if !strings.Contains(entry.Summary(), "failed") {
		t.Errorf("Summary() = %q, want failed status", entry.Summary())
	}
}

func TestSummaryNoPackages(t *testing.T) {
	entry := NewEntry(OpClean)
	entry.MarkSuccess()

	got := entry.Summary()
	if !strings.Contains(got, "clean") || !strings.Contains(got, "success") {
		t.Errorf("Summary() = %q", got)
	}
}
