package executor

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestNew(t *testing.T) {
	exec := New(false)
	if exec == nil {
		t.Fatal("New() returned nil")
	}
}

func TestOutput(t *testing.T) {
	exec := New(false)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	output, err := exec.Output(ctx, "echo", "hello")
	if err != nil {
		t.Fatalf("Output() error: %v", err)
	}

	if !strings.Contains(output, "hello") {
		t.Errorf("Output() = %s, want to contain 'hello'", output)
	}
}

func TestRun(t *testing.T) {
	exec := New(false)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := exec.Run(ctx, "true"); err != nil {
		t.Fatalf("Run() error: %v", err)
	}
}

func TestRunFailing(t *testing.T) {
	exec := New(false)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	stderr, err := exec.Run(ctx, "sh", "-c", "echo boom >&2; exit 3")
	if err == nil {
		t.Fatal("Run() should return error for failing command")
	}
	if !strings.Contains(stderr, "boom") {
		t.Errorf("Run() stderr = %q, want to contain 'boom'", stderr)
	}
	if code := ExitCode(err); code != 3 {
		t.Errorf("ExitCode() = %d, want 3", code)
	}
}

func TestRunIn(t *testing.T) {
	exec := New(false)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "marker"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	stderr, err := exec.RunIn(ctx, dir, "ls", "marker")
	if err != nil {
		t.Fatalf("RunIn() error: %v (stderr: %s)", err, stderr)
	}
}

func TestRunSandboxedEnv(t *testing.T) {
	exec := New(false)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	dir := t.TempDir()
	env := []string{"PATH=/usr/local/bin:/usr/bin:/bin", "HOME=" + dir}

	// The subprocess must see only the constructed environment.
	stderr, err := exec.RunSandboxed(ctx, dir, env, "sh", "-c",
		`[ "$HOME" = "`+dir+`" ] && [ -z "$USER" ]`)
	if err != nil {
		t.Fatalf("RunSandboxed() env not cleared: %v (stderr: %s)", err, stderr)
	}
}

func TestExitCodeNonExec(t *testing.T) {
	if code := ExitCode(context.Canceled); code != -1 {
		t.Errorf("ExitCode(non-exec error) = %d, want -1", code)
	}
}

func TestContextCancellation(t *testing.T) {
	exec := New(false)
	ctx, cancel := context.WithCancel(context.Background())
	cancel() // Cancel immediately

	// Should fail due to cancelled context
	_, err := exec.Output(ctx, "sleep", "10")
	if err == nil {
		t.Error("Output() should error with cancelled context")
	}
}
