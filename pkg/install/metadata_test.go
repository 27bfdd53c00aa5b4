package install

import (
	"path/filepath"
	"testing"
	"time"
)

func TestLoadMetadataMissing(t *testing.T) {
	m, err := LoadMetadata(filepath.Join(t.TempDir(), "installed_packages.toml"))
	if err != nil {
		t.Fatalf("LoadMetadata() error: %v", err)
	}
	if m.Len() != 0 {
		t.Errorf("Len() = %d, want 0", m.Len())
	}
	if m.Has("anything") {
		t.Error("Has() on empty metadata")
	}
}

func TestMetadataRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "installed_packages.toml")

	m, err := LoadMetadata(path)
	if err != nil {
		t.Fatal(err)
	}

	when := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	m.Set("ripgrep", Record{
		InstalledVersion: "14.1.0",
		InstalledFrom:    "bob",
		InstallDate:      when,
		Files:            []string{"/sgoinfre/alice/diem/bin/rg"},
	})
	m.Set("fd", Record{InstalledVersion: "9.0.0", InstalledFrom: "carol", InstallDate: when})
	if err := m.Save(); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	reloaded, err := LoadMetadata(path)
	if err != nil {
		t.Fatalf("reload error: %v", err)
	}

	rec, ok := reloaded.Get("ripgrep")
	if !ok {
		t.Fatal("ripgrep record missing after reload")
	}
	if rec.InstalledVersion != "14.1.0" || rec.InstalledFrom != "bob" {
		t.Errorf("record = %+v", rec)
	}
	if !rec.InstallDate.Equal(when) {
		t.Errorf("InstallDate = %v, want %v", rec.InstallDate, when)
	}
	if len(rec.Files) != 1 || rec.Files[0] != "/sgoinfre/alice/diem/bin/rg" {
		t.Errorf("Files = %v", rec.Files)
	}

	names := reloaded.Names()
	if len(names) != 2 || names[0] != "fd" || names[1] != "ripgrep" {
		t.Errorf("Names() = %v, want sorted [fd ripgrep]", names)
	}
}

func TestMetadataRemoveRewrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "installed_packages.toml")

	m, err := LoadMetadata(path)
	if err != nil {
		t.Fatal(err)
	}
	m.Set("ripgrep", Record{InstalledVersion: "14.1.0", InstalledFrom: "bob", InstallDate: time.Now().UTC()})
	m.Set("fd", Record{InstalledVersion: "9.0.0", InstalledFrom: "bob", InstallDate: time.Now().UTC()})
	if err := m.Save(); err != nil {
		t.Fatal(err)
	}

	m.Remove("ripgrep")
	if err := m.Save(); err != nil {
		t.Fatal(err)
	}

	reloaded, err := LoadMetadata(path)
	if err != nil {
		t.Fatal(err)
	}
	if reloaded.Has("ripgrep") {
		t.Error("removed record survived the rewrite")
	}
	if !reloaded.Has("fd") {
		t.Error("unrelated record lost in the rewrite")
	}
}

func TestMetadataOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "installed_packages.toml")

	m, err := LoadMetadata(path)
	if err != nil {
		t.Fatal(err)
	}
	m.Set("ripgrep", Record{InstalledVersion: "14.0.0", InstalledFrom: "bob", InstallDate: time.Now().UTC()})
	if err := m.Save(); err != nil {
		t.Fatal(err)
	}

	m.Set("ripgrep", Record{InstalledVersion: "14.1.0", InstalledFrom: "carol", InstallDate: time.Now().UTC()})
	if err := m.Save(); err != nil {
		t.Fatal(err)
	}

	reloaded, err := LoadMetadata(path)
	if err != nil {
		t.Fatal(err)
	}
	rec, _ := reloaded.Get("ripgrep")
	if rec.InstalledVersion != "14.1.0" || rec.InstalledFrom != "carol" {
		t.Errorf("record = %+v, want the overwriting install", rec)
	}
}
