package primitives

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFilepath_Join(t *testing.T) {
	base := Filepath("/data")
	result := base.Join("tables", "users.dat")
	expected := filepath.Join("/data", "tables", "users.dat")
	if result.String() != expected {
		t.Errorf("expected '%s', got '%s'", expected, result.String())
	}
}

func TestFilepath_BaseAndDir(t *testing.T) {
	path := Filepath("/data/tables/users.dat")
	if path.Base() != "users.dat" {
		t.Errorf("expected 'users.dat', got '%s'", path.Base())
	}
	if path.Dir() != filepath.Dir("/data/tables/users.dat") {
		t.Errorf("unexpected dir '%s'", path.Dir())
	}
}

func TestFilepath_Hash(t *testing.T) {
	tests := []struct {
		name  string
		a, b  Filepath
		equal bool
	}{
		{"same path", "/data/users.dat", "/data/users.dat", true},
		{"different files", "/data/users.dat", "/data/orders.dat", false},
		{"different dirs", "/a/users.dat", "/b/users.dat", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if (tt.a.Hash() == tt.b.Hash()) != tt.equal {
				t.Errorf("Hash(%s)=%d, Hash(%s)=%d, expected equal=%v",
					tt.a, tt.a.Hash(), tt.b, tt.b.Hash(), tt.equal)
			}
		})
	}
}

func TestFilepath_Canonical(t *testing.T) {
	dir := t.TempDir()
	messy := Filepath(dir + "/sub/../users.dat")
	clean := Filepath(filepath.Join(dir, "users.dat"))

	got, err := messy.Canonical()
	if err != nil {
		t.Fatalf("Canonical failed: %v", err)
	}
	if got != clean {
		t.Errorf("expected '%s', got '%s'", clean, got)
	}
	if got.Hash() != clean.Hash() {
		t.Errorf("canonical forms should hash equally")
	}
	if !got.IsAbs() {
		t.Errorf("canonical path should be absolute")
	}
}

func TestFilepath_ExistsAndRemove(t *testing.T) {
	path := Filepath(filepath.Join(t.TempDir(), "nested", "file.dat"))

	if path.Exists() {
		t.Fatalf("file should not exist yet")
	}
	if err := path.Remove(); err != nil {
		t.Errorf("removing a missing file should succeed, got %v", err)
	}

	if err := path.MkdirAll(0o755); err != nil {
		t.Fatalf("MkdirAll failed: %v", err)
	}
	if err := os.WriteFile(path.String(), []byte("x"), 0o644); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	if !path.Exists() {
		t.Errorf("file should exist")
	}
	if err := path.Remove(); err != nil {
		t.Errorf("Remove failed: %v", err)
	}
	if path.Exists() {
		t.Errorf("file should be gone")
	}
}

func TestFilepath_IsEmpty(t *testing.T) {
	if !Filepath("").IsEmpty() {
		t.Errorf("empty path should report IsEmpty")
	}
	if Filepath("/data/users.dat").IsEmpty() {
		t.Errorf("non-empty path should not report IsEmpty")
	}
}
