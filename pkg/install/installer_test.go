package install

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"diem/internal/config"
	"diem/pkg/cache"
	"diem/pkg/integrity"
	"diem/pkg/registry"
)

type fakeCatalog struct {
	packages map[string]*registry.Package // keyed "provider:name"
	latest   map[string]string
}

func (c *fakeCatalog) PackageInfo(ref registry.PackageReference) (*registry.Package, error) {
	if pkg, ok := c.packages[ref.String()]; ok {
		return pkg, nil
	}
	return nil, &registry.NotFoundError{Name: ref.Name, Provider: ref.Provider}
}

func (c *fakeCatalog) LatestVersion(ref registry.PackageReference) (string, error) {
	if v, ok := c.latest[ref.String()]; ok {
		return v, nil
	}
	return "", &registry.NotFoundError{Name: ref.Name, Provider: ref.Provider}
}

func testEnv(t *testing.T) (*config.Paths, *fakeCatalog) {
	t.Helper()
	cfg := config.Default()
	cfg.General.ShareRoot = t.TempDir()
	cfg.General.ScratchRoot = t.TempDir()
	cfg.General.Username = "alice"
	return config.NewPaths(cfg), &fakeCatalog{
		packages: map[string]*registry.Package{},
		latest:   map[string]string{},
	}
}

// makeArchive builds a gzipped tarball with a single leading directory, the
// shape the extraction step strips.
func makeArchive(t *testing.T, files map[string]string) (string, string) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "artifact.tar.gz")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}

	gz := gzip.NewWriter(f)
	tw := tar.NewWriter(gz)
	for name, content := range files {
		hdr := &tar.Header{Name: "pkg/" + name, Mode: 0755, Size: int64(len(content))}
		if err := tw.WriteHeader(hdr); err != nil {
			t.Fatal(err)
		}
		if _, err := tw.Write([]byte(content)); err != nil {
			t.Fatal(err)
		}
	}
	if err := tw.Close(); err != nil {
		t.Fatal(err)
	}
	if err := gz.Close(); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}

	sum, err := integrity.FileChecksum(path)
	if err != nil {
		t.Fatal(err)
	}
	return path, sum
}

func TestInstallEndToEnd(t *testing.T) {
	paths, catalog := testEnv(t)
	archive, sum := makeArchive(t, map[string]string{"hello": "#!/bin/sh\necho hi\n"})
	pkg := &registry.Package{
		Name: "hello", Version: "1.0.0", Provider: "bob",
		URL: archive, Checksum: sum,
		Binaries: []string{"hello"},
	}

	inst, err := New(paths, catalog)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	if err := inst.Install(context.Background(), pkg, false); err != nil {
		t.Fatalf("Install() error: %v", err)
	}

	target := paths.PackageDir("bob_hello")
	body, err := os.ReadFile(filepath.Join(target, "hello"))
	if err != nil {
		t.Fatalf("extracted binary missing: %v", err)
	}
	if string(body) != "#!/bin/sh\necho hi\n" {
		t.Errorf("extracted content = %q", body)
	}

	installed, err := registry.LoadManifest(filepath.Join(target, registry.ManifestName))
	if err != nil {
		t.Fatalf("installed manifest missing: %v", err)
	}
	if installed.Version != "1.0.0" {
		t.Errorf("installed manifest version = %s", installed.Version)
	}

	link := filepath.Join(paths.BinDir(), "hello")
	fi, err := os.Lstat(link)
	if err != nil {
		t.Fatalf("symlink missing: %v", err)
	}
	if fi.Mode()&os.ModeSymlink == 0 {
		t.Error("bin entry is not a symlink")
	}
	dest, err := os.Readlink(link)
	if err != nil {
		t.Fatal(err)
	}
	if dest != filepath.Join(target, "hello") {
		t.Errorf("symlink target = %s", dest)
	}

	srcInfo, err := os.Stat(filepath.Join(target, "hello"))
	if err != nil {
		t.Fatal(err)
	}
	if srcInfo.Mode()&0111 == 0 {
		t.Error("source binary not marked executable")
	}

	meta, err := LoadMetadata(paths.MetadataPath())
	if err != nil {
		t.Fatal(err)
	}
	rec, ok := meta.Get("hello")
	if !ok {
		t.Fatal("no installation record persisted")
	}
	if rec.InstalledVersion != "1.0.0" || rec.InstalledFrom != "bob" {
		t.Errorf("record = %+v", rec)
	}
	if len(rec.Files) != 2 || rec.Files[0] != link || rec.Files[1] != target {
		t.Errorf("record files = %v, want [%s %s]", rec.Files, link, target)
	}

	if _, err := os.Stat(filepath.Join(paths.LocksDir(), "hello.lock")); !os.IsNotExist(err) {
		t.Error("lock not released")
	}
	entries, err := os.ReadDir(paths.TempRoot())
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("temp root not cleaned: %v", entries)
	}
}

func TestInstallChecksumMismatch(t *testing.T) {
	paths, catalog := testEnv(t)
	archive, _ := makeArchive(t, map[string]string{"hello": "data"})
	pkg := &registry.Package{
		Name: "hello", Version: "1.0.0", Provider: "bob",
		URL: archive, Checksum: strings.Repeat("0", 64),
		Binaries: []string{"hello"},
	}

	inst, err := New(paths, catalog)
	if err != nil {
		t.Fatal(err)
	}
	err = inst.Install(context.Background(), pkg, false)
	if !errors.Is(err, integrity.ErrChecksumMismatch) {
		t.Fatalf("Install() error = %v, want ErrChecksumMismatch", err)
	}

	entries, err := os.ReadDir(paths.BinDir())
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("binaries linked despite checksum failure: %v", entries)
	}

	meta, err := LoadMetadata(paths.MetadataPath())
	if err != nil {
		t.Fatal(err)
	}
	if meta.Has("hello") {
		t.Error("installation recorded despite checksum failure")
	}
	if _, err := os.Stat(filepath.Join(paths.LocksDir(), "hello.lock")); !os.IsNotExist(err) {
		t.Error("lock not released after failure")
	}
}

func TestInstallLocked(t *testing.T) {
	paths, catalog := testEnv(t)
	pkg := &registry.Package{Name: "hello", Version: "1.0.0", Provider: "bob"}

	inst, err := New(paths, catalog)
	if err != nil {
		t.Fatal(err)
	}

	held, err := Acquire(paths.LocksDir(), "hello")
	if err != nil {
		t.Fatal(err)
	}
	defer held.Release()

	if err := inst.Install(context.Background(), pkg, false); !errors.Is(err, ErrLocked) {
		t.Errorf("Install() error = %v, want ErrLocked", err)
	}
}

func TestInstallForceOverwrite(t *testing.T) {
	paths, catalog := testEnv(t)
	archive, sum := makeArchive(t, map[string]string{"hello": "fresh"})
	pkg := &registry.Package{
		Name: "hello", Version: "1.0.0", Provider: "bob",
		URL: archive, Checksum: sum,
		Binaries: []string{"hello"},
	}

	// An unrelated link already occupies the name.
	if err := os.MkdirAll(paths.BinDir(), 0755); err != nil {
		t.Fatal(err)
	}
	link := filepath.Join(paths.BinDir(), "hello")
	if err := os.Symlink("/usr/bin/true", link); err != nil {
		t.Fatal(err)
	}

	inst, err := New(paths, catalog)
	if err != nil {
		t.Fatal(err)
	}

	err = inst.Install(context.Background(), pkg, false)
	if !errors.Is(err, ErrBinaryExists) {
		t.Fatalf("Install() error = %v, want ErrBinaryExists", err)
	}
	var conflict *BinaryExistsError
	if !errors.As(err, &conflict) || conflict.Binary != "hello" {
		t.Errorf("conflict = %+v", conflict)
	}

	if err := inst.Install(context.Background(), pkg, true); err != nil {
		t.Fatalf("forced Install() error: %v", err)
	}
	dest, err := os.Readlink(link)
	if err != nil {
		t.Fatal(err)
	}
	if want := filepath.Join(paths.PackageDir("bob_hello"), "hello"); dest != want {
		t.Errorf("symlink = %s, want %s", dest, want)
	}
}

func TestInstallScriptSandbox(t *testing.T) {
	paths, catalog := testEnv(t)
	t.Setenv("LEAKY", "secret")

	pkg := &registry.Package{
		Name: "scripted", Version: "1.0.0", Provider: "bob",
		InstallScript: "printf '%s' \"$HOME\" > home.txt\n" +
			"printf '%s' \"$LEAKY\" > leak.txt\n" +
			"touch done.txt\n",
	}

	inst, err := New(paths, catalog)
	if err != nil {
		t.Fatal(err)
	}
	if err := inst.Install(context.Background(), pkg, false); err != nil {
		t.Fatalf("Install() error: %v", err)
	}

	target := paths.PackageDir("bob_scripted")
	if _, err := os.Stat(filepath.Join(target, "done.txt")); err != nil {
		t.Fatalf("script did not run in the package directory: %v", err)
	}

	home, err := os.ReadFile(filepath.Join(target, "home.txt"))
	if err != nil {
		t.Fatal(err)
	}
	if string(home) != target {
		t.Errorf("script HOME = %q, want %q", home, target)
	}

	leak, err := os.ReadFile(filepath.Join(target, "leak.txt"))
	if err != nil {
		t.Fatal(err)
	}
	if string(leak) != "" {
		t.Errorf("caller environment leaked into the script: %q", leak)
	}

	entries, err := os.ReadDir(paths.TempRoot())
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("temp root not cleaned: %v", entries)
	}
}

func TestInstallScriptFailure(t *testing.T) {
	paths, catalog := testEnv(t)
	pkg := &registry.Package{
		Name: "doomed", Version: "1.0.0", Provider: "bob",
		InstallScript: "echo doom >&2\nexit 7\n",
	}

	inst, err := New(paths, catalog)
	if err != nil {
		t.Fatal(err)
	}
	err = inst.Install(context.Background(), pkg, false)
	if !errors.Is(err, ErrScriptFailed) {
		t.Fatalf("Install() error = %v, want ErrScriptFailed", err)
	}

	var scriptErr *ScriptError
	if !errors.As(err, &scriptErr) {
		t.Fatal("error should be *ScriptError")
	}
	if scriptErr.ExitCode != 7 {
		t.Errorf("ExitCode = %d, want 7", scriptErr.ExitCode)
	}
	if !strings.Contains(scriptErr.Stderr, "doom") {
		t.Errorf("Stderr = %q, want captured output", scriptErr.Stderr)
	}
}

func TestInstallBadArchive(t *testing.T) {
	paths, catalog := testEnv(t)

	bogus := filepath.Join(t.TempDir(), "bogus.tar.gz")
	if err := os.WriteFile(bogus, []byte("not a tarball"), 0644); err != nil {
		t.Fatal(err)
	}
	sum, err := integrity.FileChecksum(bogus)
	if err != nil {
		t.Fatal(err)
	}

	pkg := &registry.Package{
		Name: "hello", Version: "1.0.0", Provider: "bob",
		URL: bogus, Checksum: sum,
	}

	inst, err := New(paths, catalog)
	if err != nil {
		t.Fatal(err)
	}
	if err := inst.Install(context.Background(), pkg, false); !errors.Is(err, ErrExtractFailed) {
		t.Errorf("Install() error = %v, want ErrExtractFailed", err)
	}
}

func TestInstallCacheReuse(t *testing.T) {
	paths, catalog := testEnv(t)
	archive, sum := makeArchive(t, map[string]string{"hello": "cached"})
	pkg := &registry.Package{
		Name: "hello", Version: "1.0.0", Provider: "bob",
		URL: archive, Checksum: sum,
		Binaries: []string{"hello"},
	}

	store, err := cache.Open(paths)
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	inst, err := New(paths, catalog, WithCache(store))
	if err != nil {
		t.Fatal(err)
	}
	if err := inst.Install(context.Background(), pkg, false); err != nil {
		t.Fatalf("first Install() error: %v", err)
	}

	// With the origin gone, only the cache can satisfy the reinstall.
	if err := os.Remove(archive); err != nil {
		t.Fatal(err)
	}
	if err := inst.Install(context.Background(), pkg, true); err != nil {
		t.Fatalf("cached Install() error: %v", err)
	}
}

func TestUpgrade(t *testing.T) {
	paths, catalog := testEnv(t)

	archiveV1, sumV1 := makeArchive(t, map[string]string{"hello": "one"})
	archiveV2, sumV2 := makeArchive(t, map[string]string{"hello": "two"})

	v1 := &registry.Package{
		Name: "hello", Version: "1.0.0", Provider: "bob",
		URL: archiveV1, Checksum: sumV1, Binaries: []string{"hello"},
	}
	v2 := &registry.Package{
		Name: "hello", Version: "1.1.0", Provider: "bob",
		URL: archiveV2, Checksum: sumV2, Binaries: []string{"hello"},
	}
	catalog.packages["bob:hello"] = v2
	catalog.latest["bob:hello"] = "1.1.0"

	inst, err := New(paths, catalog)
	if err != nil {
		t.Fatal(err)
	}
	if err := inst.Install(context.Background(), v1, false); err != nil {
		t.Fatal(err)
	}

	res, err := inst.Upgrade(context.Background(), "hello")
	if err != nil {
		t.Fatalf("Upgrade() error: %v", err)
	}
	if !res.Updated || res.From != "1.0.0" || res.To != "1.1.0" {
		t.Errorf("result = %+v", res)
	}

	body, err := os.ReadFile(filepath.Join(paths.PackageDir("bob_hello"), "hello"))
	if err != nil {
		t.Fatal(err)
	}
	if string(body) != "two" {
		t.Errorf("content after upgrade = %q", body)
	}

	rec, _ := inst.Metadata().Get("hello")
	if rec.InstalledVersion != "1.1.0" {
		t.Errorf("recorded version = %s", rec.InstalledVersion)
	}

	again, err := inst.Upgrade(context.Background(), "hello")
	if err != nil {
		t.Fatalf("second Upgrade() error: %v", err)
	}
	if again.Updated {
		t.Error("upgrade at the latest version must be a no-op")
	}
}

func TestUpgradeNotInstalled(t *testing.T) {
	paths, catalog := testEnv(t)
	inst, err := New(paths, catalog)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := inst.Upgrade(context.Background(), "ghost"); !errors.Is(err, ErrNotInstalled) {
		t.Errorf("Upgrade() error = %v, want ErrNotInstalled", err)
	}
}
