package registry

import (
	"errors"
	"testing"
)

func TestParseReference(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		def     string
		want    PackageReference
		wantErr error
	}{
		{name: "explicit provider", text: "bob:ripgrep", want: PackageReference{Provider: "bob", Name: "ripgrep"}},
		{name: "bare with default", text: "ripgrep", def: "carol", want: PackageReference{Provider: "carol", Name: "ripgrep"}},
		{name: "explicit ignores default", text: "bob:ripgrep", def: "carol", want: PackageReference{Provider: "bob", Name: "ripgrep"}},
		{name: "bare without default", text: "ripgrep", wantErr: ErrNoDefaultProvider},
		{name: "empty", text: "", wantErr: ErrInvalidReference},
		{name: "empty provider", text: ":ripgrep", wantErr: ErrInvalidReference},
		{name: "empty name", text: "bob:", wantErr: ErrInvalidReference},
		{name: "too many separators", text: "a:b:c", wantErr: ErrInvalidReference},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseReference(tt.text, tt.def)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("ParseReference(%q) error = %v, want %v", tt.text, err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseReference(%q) error: %v", tt.text, err)
			}
			if got != tt.want {
				t.Errorf("ParseReference(%q) = %+v, want %+v", tt.text, got, tt.want)
			}
		})
	}
}

func TestDirNameRoundTrip(t *testing.T) {
	ref := PackageReference{Provider: "bob", Name: "ripgrep"}

	dir := ref.DirName()
	if dir != "bob_ripgrep" {
		t.Fatalf("DirName() = %q", dir)
	}

	back, err := ParseDirName(dir)
	if err != nil {
		t.Fatalf("ParseDirName(%q) error: %v", dir, err)
	}
	if back != ref {
		t.Errorf("round trip = %+v, want %+v", back, ref)
	}
}

func TestParseDirNameRejectsMalformed(t *testing.T) {
	for _, dir := range []string{"", "noseparator", "a_b_c", "_name", "provider_"} {
		if _, err := ParseDirName(dir); !errors.Is(err, ErrInvalidReference) {
			t.Errorf("ParseDirName(%q) error = %v, want ErrInvalidReference", dir, err)
		}
	}
}

func TestReferenceString(t *testing.T) {
	ref := PackageReference{Provider: "bob", Name: "ripgrep"}
	if got := ref.String(); got != "bob:ripgrep" {
		t.Errorf("String() = %q", got)
	}
}

func TestValidateName(t *testing.T) {
	for _, name := range []string{"ripgrep", "fd-find", "lib.so", "gcc-c++", "a", "0ad"} {
		if err := ValidateName(name); err != nil {
			t.Errorf("ValidateName(%q) = %v, want nil", name, err)
		}
	}

	// Underscores and colons would break the directory-name round trip.
	for _, name := range []string{"", "Ripgrep", "my_pkg", "a:b", "-lead", ".lead", "sp ace"} {
		if err := ValidateName(name); !errors.Is(err, ErrInvalidReference) {
			t.Errorf("ValidateName(%q) = %v, want ErrInvalidReference", name, err)
		}
	}
}

func TestReferenceValidate(t *testing.T) {
	if err := (PackageReference{Provider: "bob", Name: "ripgrep"}).Validate(); err != nil {
		t.Errorf("Validate() = %v, want nil", err)
	}
	if err := (PackageReference{Provider: "b_ob", Name: "ripgrep"}).Validate(); err == nil {
		t.Error("Validate() accepted a provider with an underscore")
	}
}
