package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

const tempPrefix = "resumatch-"

// TempFile is a scratch copy of an uploaded document. Remove it when done.
type TempFile struct {
	Path string
}

// WriteTemp writes content to a uniquely named file in dir. The file keeps the extension of
// name (defaulting to .pdf) so extractors can dispatch on it. The file is removed again if
// the write fails.
func WriteTemp(dir, name string, content []byte) (*TempFile, error) {
	if dir == "" {
		dir = os.TempDir()
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create temp directory: %w", err)
	}
	ext := strings.ToLower(filepath.Ext(name))
	if ext == "" {
		ext = ".pdf"
	}
	path := filepath.Join(dir, tempPrefix+uuid.NewString()+ext)
	if err := os.WriteFile(path, content, 0600); err != nil {
		_ = os.Remove(path)
		return nil, fmt.Errorf("failed to write temp file: %w", err)
	}
	return &TempFile{Path: path}, nil
}

// Remove deletes the file. Removing an already deleted file is not an error.
func (t *TempFile) Remove() error {
	if t == nil || t.Path == "" {
		return nil
	}
	if err := os.Remove(t.Path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// CountTemp returns how many scratch files are currently in dir.
func CountTemp(dir string) (int, error) {
	n, _, err := TempUsage(dir)
	return n, err
}
