// Package cache maintains the scratch-space artifact cache. Downloaded
// archives are kept under <scratch>/<user>/diem/cache/<provider_name>/ and
// tracked in a BoltDB ledger keyed by checksum, so a reinstall of the same
// version never refetches the artifact. Everything here is disposable: the
// scratch filesystem is wiped between sessions and the ledger is rebuilt as
// installs happen.
package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"diem/internal/config"
	"diem/internal/fsutil"
	"diem/pkg/integrity"
	"diem/pkg/registry"

	"github.com/charmbracelet/log"
	"go.etcd.io/bbolt"
	berrors "go.etcd.io/bbolt/errors"
)

const bucketArtifacts = "artifacts"

// Entry records one cached artifact.
type Entry struct {
	Provider string    `json:"provider"`
	Name     string    `json:"name"`
	Version  string    `json:"version"`
	Path     string    `json:"path"`
	Size     int64     `json:"size"`
	StoredAt time.Time `json:"stored_at"`
}

// Store manages the artifact cache using BoltDB.
type Store struct {
	db    *bbolt.DB
	paths *config.Paths
}

// Open opens or creates the artifact cache under the scratch root.
func Open(paths *config.Paths) (*Store, error) {
	if err := fsutil.EnsureDir(paths.CacheRoot()); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	db, err := bbolt.Open(paths.CacheDBPath(), 0600, &bbolt.Options{
		Timeout: 1 * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open cache ledger: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketArtifacts))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize cache ledger: %w", err)
	}

	return &Store{db: db, paths: paths}, nil
}

// Close closes the ledger.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Put copies the artifact at src into the cache and records it under its
// checksum. An existing entry for the same checksum is overwritten.
func (s *Store) Put(pkg *registry.Package, checksum, src string) (string, error) {
	dir := s.paths.CacheDir(pkg.Reference().DirName())
	if err := fsutil.EnsureDir(dir); err != nil {
		return "", err
	}

	dest := filepath.Join(dir, fmt.Sprintf("%s-%s.tar.gz", pkg.Name, pkg.Version))
	if err := fsutil.CopyFile(src, dest); err != nil {
		return "", fmt.Errorf("failed to cache artifact: %w", err)
	}

	info, err := os.Stat(dest)
	if err != nil {
		return "", err
	}

	entry := Entry{
		Provider: pkg.Provider,
		Name:     pkg.Name,
		Version:  pkg.Version,
		Path:     dest,
		Size:     info.Size(),
		StoredAt: time.Now(),
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return "", err
	}

	err = s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(bucketArtifacts)).Put(ledgerKey(checksum), data)
	})
	if err != nil {
		return "", err
	}

	log.Debug("cached artifact", "package", pkg.Key(), "path", dest)
	return dest, nil
}

// Get returns the cached artifact path for a checksum. A ledger row whose
// blob has vanished from scratch is dropped and reported as a miss.
func (s *Store) Get(checksum string) (string, bool) {
	var entry Entry
	found := false

	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket([]byte(bucketArtifacts)).Get(ledgerKey(checksum))
		if data == nil {
			return nil
		}
		if err := json.Unmarshal(data, &entry); err != nil {
			return nil
		}
		found = true
		return nil
	})
	if err != nil || !found {
		return "", false
	}

	if _, err := os.Stat(entry.Path); err != nil {
		s.db.Update(func(tx *bbolt.Tx) error {
			return tx.Bucket([]byte(bucketArtifacts)).Delete(ledgerKey(checksum))
		})
		return "", false
	}

	return entry.Path, true
}

// RemovePackage deletes the cache directory for one installed package and
// every ledger row pointing into it.
func (s *Store) RemovePackage(dir string) error {
	target := s.paths.CacheDir(dir)

	err := s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(bucketArtifacts))

		var stale [][]byte
		cursor := bucket.Cursor()
		for k, v := cursor.First(); k != nil; k, v = cursor.Next() {
			var entry Entry
			if err := json.Unmarshal(v, &entry); err != nil {
				continue
			}
			if strings.HasPrefix(entry.Path, target+string(os.PathSeparator)) {
				key := make([]byte, len(k))
				copy(key, k)
				stale = append(stale, key)
			}
		}

		for _, key := range stale {
			if err := bucket.Delete(key); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	return os.RemoveAll(target)
}

// Clear removes every cached artifact and resets the ledger.
func (s *Store) Clear() error {
	err := s.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.DeleteBucket([]byte(bucketArtifacts)); err != nil && !errors.Is(err, berrors.ErrBucketNotFound) {
			return err
		}
		_, err := tx.CreateBucket([]byte(bucketArtifacts))
		return err
	})
	if err != nil {
		return err
	}

	entries, err := os.ReadDir(s.paths.CacheRoot())
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue // the ledger file itself lives here
		}
		if err := os.RemoveAll(filepath.Join(s.paths.CacheRoot(), entry.Name())); err != nil {
			return err
		}
	}
	return nil
}

// Count returns the number of ledger rows.
func (s *Store) Count() (int, error) {
	var count int
	err := s.db.View(func(tx *bbolt.Tx) error {
		count = tx.Bucket([]byte(bucketArtifacts)).Stats().KeyN
		return nil
	})
	return count, err
}

// Size returns the total bytes of cached artifacts on disk.
func (s *Store) Size() (int64, error) {
	var total int64
	err := filepath.WalkDir(s.paths.CacheRoot(), func(path string, d os.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if d.IsDir() || path == s.paths.CacheDBPath() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		total += info.Size()
		return nil
	})
	return total, err
}

func ledgerKey(checksum string) []byte {
	return []byte(integrity.NormalizeChecksum(checksum))
}
