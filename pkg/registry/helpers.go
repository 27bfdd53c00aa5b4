package registry

import (
	"path/filepath"
	"strings"
)

// isSafeRelPath reports whether p is a clean path that stays inside a
// package directory. Absolute paths and parent traversal are rejected
// because manifests name files inside their own package tree.
func isSafeRelPath(p string) bool {
	if p == "" {
		return false
	}
	clean := filepath.Clean(p)
	if clean != p || filepath.IsAbs(clean) {
		return false
	}
	return clean != "." && clean != ".." && !strings.HasPrefix(clean, "../")
}
