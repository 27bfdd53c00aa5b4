package perms

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestCheckDirectory(t *testing.T) {
	dir := t.TempDir()

	if err := CheckDirectory(dir, false); err != nil {
		t.Errorf("CheckDirectory(read) on own temp dir: %v", err)
	}
	if err := CheckDirectory(dir, true); err != nil {
		t.Errorf("CheckDirectory(write) on own temp dir: %v", err)
	}
}

func TestCheckDirectoryMissing(t *testing.T) {
	err := CheckDirectory("/non/existent/dir", true)
	if err == nil {
		t.Fatal("CheckDirectory() should fail for missing directory")
	}

	var permErr *PermissionError
	if !errors.As(err, &permErr) {
		t.Fatalf("error type = %T, want *PermissionError", err)
	}
	if permErr.Path != "/non/existent/dir" || !permErr.Write {
		t.Errorf("PermissionError fields = %+v", permErr)
	}
}

func TestCheckDirectoryNotADir(t *testing.T) {
	file := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(file, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	if err := CheckDirectory(file, false); err == nil {
		t.Error("CheckDirectory() should fail for a regular file")
	}
}

func TestCheckDirectoryReadOnly(t *testing.T) {
	if os.Getuid() == 0 {
		t.Skip("root bypasses permission bits")
	}

	dir := filepath.Join(t.TempDir(), "ro")
	if err := os.Mkdir(dir, 0555); err != nil {
		t.Fatal(err)
	}

	if err := CheckDirectory(dir, false); err != nil {
		t.Errorf("read check should pass on r-x dir: %v", err)
	}
	if err := CheckDirectory(dir, true); err == nil {
		t.Error("write check should fail on r-x dir")
	}
}

func TestIsOwner(t *testing.T) {
	dir := t.TempDir()

	owned, err := IsOwner(dir)
	if err != nil {
		t.Fatalf("IsOwner() error: %v", err)
	}
	if !owned {
		t.Error("IsOwner() should be true for own temp dir")
	}
}
