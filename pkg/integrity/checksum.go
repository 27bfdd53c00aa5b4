// Package integrity verifies downloaded artifacts: SHA-256 checksums and
// RSA signatures over the artifact digest.
package integrity

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// ErrChecksumMismatch matches any checksum verification failure.
var ErrChecksumMismatch = errors.New("checksum mismatch")

// ChecksumMismatchError carries both digests for error reporting.
type ChecksumMismatchError struct {
	Expected string
	Actual   string
}

func (e *ChecksumMismatchError) Error() string {
	return fmt.Sprintf("checksum mismatch: expected %s, got %s", e.Expected, e.Actual)
}

// Unwrap makes the error match ErrChecksumMismatch with errors.Is.
func (e *ChecksumMismatchError) Unwrap() error {
	return ErrChecksumMismatch
}

// FileChecksum computes the hex SHA-256 of a file without loading it whole.
func FileChecksum(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// NormalizeChecksum lowercases a digest and strips an optional "sha256:"
// prefix, so manifests may carry either form.
func NormalizeChecksum(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.TrimPrefix(s, "sha256:")
}

// VerifyChecksum compares a declared digest against a computed one.
func VerifyChecksum(expected, actual string) error {
	want := NormalizeChecksum(expected)
	got := NormalizeChecksum(actual)
	if want != got {
		return &ChecksumMismatchError{Expected: want, Actual: got}
	}
	return nil
}
