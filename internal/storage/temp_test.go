package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestWriteTemp(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "scratch")
	f, err := WriteTemp(dir, "Jane Doe.DOCX", []byte("abc"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasSuffix(f.Path, ".docx") {
		t.Errorf("extension not kept: %s", f.Path)
	}
	if filepath.Dir(f.Path) != dir {
		t.Errorf("file written outside dir: %s", f.Path)
	}
	got, err := os.ReadFile(f.Path)
	if err != nil || string(got) != "abc" {
		t.Errorf("content = %q, %v", got, err)
	}
	if n, _ := CountTemp(dir); n != 1 {
		t.Errorf("CountTemp = %d, want 1", n)
	}
	if err := f.Remove(); err != nil {
		t.Fatal(err)
	}
	if err := f.Remove(); err != nil {
		t.Errorf("second Remove: %v", err)
	}
	if n, _ := CountTemp(dir); n != 0 {
		t.Errorf("CountTemp after remove = %d", n)
	}
}

func TestWriteTemp_defaultExtension(t *testing.T) {
	f, err := WriteTemp(t.TempDir(), "resume", nil)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Remove()
	if filepath.Ext(f.Path) != ".pdf" {
		t.Errorf("ext = %s", filepath.Ext(f.Path))
	}
}

func TestWriteTemp_uniqueNames(t *testing.T) {
	dir := t.TempDir()
	a, err := WriteTemp(dir, "same.pdf", []byte("1"))
	if err != nil {
		t.Fatal(err)
	}
	b, err := WriteTemp(dir, "same.pdf", []byte("2"))
	if err != nil {
		t.Fatal(err)
	}
	if a.Path == b.Path {
		t.Error("duplicate filenames must get distinct temp files")
	}
}
