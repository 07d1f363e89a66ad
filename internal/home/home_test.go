package home

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNew(t *testing.T) {
	t.Run("with explicit path", func(t *testing.T) {
		dir, err := New("/tmp/test-dossier")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if dir.Path() != "/tmp/test-dossier" {
			t.Errorf("expected path /tmp/test-dossier, got %s", dir.Path())
		}
	})

	t.Run("with empty path uses default", func(t *testing.T) {
		dir, err := New("")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		home, _ := os.UserHomeDir()
		expected := filepath.Join(home, DefaultDirName)
		if dir.Path() != expected {
			t.Errorf("expected path %s, got %s", expected, dir.Path())
		}
	})
}

func TestDir_Paths(t *testing.T) {
	dir, _ := New("/tmp/test-dossier")

	t.Run("ConfigPath", func(t *testing.T) {
		expected := "/tmp/test-dossier/config.yaml"
		if dir.ConfigPath() != expected {
			t.Errorf("expected %s, got %s", expected, dir.ConfigPath())
		}
	})

	t.Run("ExportsDir", func(t *testing.T) {
		expected := "/tmp/test-dossier/exports"
		if dir.ExportsDir() != expected {
			t.Errorf("expected %s, got %s", expected, dir.ExportsDir())
		}
	})

	t.Run("ExportPath strips directories", func(t *testing.T) {
		expected := "/tmp/test-dossier/exports/out.pdf"
		if got := dir.ExportPath("../../out.pdf"); got != expected {
			t.Errorf("expected %s, got %s", expected, got)
		}
	})
}

func TestDir_EnsureExists(t *testing.T) {
	tmpDir := t.TempDir()
	dir, _ := New(filepath.Join(tmpDir, "home"))

	if dir.Exists() {
		t.Fatal("expected home to not exist yet")
	}
	if err := dir.EnsureExists(); err != nil {
		t.Fatalf("EnsureExists failed: %v", err)
	}
	if !dir.Exists() {
		t.Error("expected home to exist")
	}
	if _, err := os.Stat(dir.ExportsDir()); err != nil {
		t.Errorf("expected exports dir to exist: %v", err)
	}
	if dir.ConfigExists() {
		t.Error("expected no config file")
	}

	if err := os.WriteFile(dir.ConfigPath(), []byte("server:\n  port: 1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if !dir.ConfigExists() {
		t.Error("expected config file to exist")
	}
}
