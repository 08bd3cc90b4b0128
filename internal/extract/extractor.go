// Package extract pulls plain text out of resume documents and decides whether any usable
// text was found.
package extract

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hyperjump/resumatch/pkg/utils"
)

var (
	// ErrNoText means the document parsed but contained only whitespace (e.g. a scanned PDF).
	ErrNoText = errors.New("no extractable text")
	// ErrUnsupportedFormat means the extension has no extractor.
	ErrUnsupportedFormat = errors.New("unsupported document format")
)

// SupportedExtensions lists the extensions ExtractBytes understands.
var SupportedExtensions = []string{".pdf", ".docx", ".odt", ".rtf", ".txt", ".md"}

// Extractor extracts plain text from resume files.
type Extractor struct{}

// NewExtractor returns a new Extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// ExtractFile reads the file at path and returns its normalized text.
func (e *Extractor) ExtractFile(path string) (string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read file: %w", err)
	}
	return e.ExtractBytes(content, filepath.Ext(path))
}

// ExtractBytes extracts text from content based on its extension (with leading dot).
// Whitespace runs are collapsed to single spaces. Returns ErrNoText when nothing but
// whitespace remains.
func (e *Extractor) ExtractBytes(content []byte, ext string) (string, error) {
	var (
		raw string
		err error
	)
	switch strings.ToLower(ext) {
	case ".pdf":
		raw, err = extractPDF(content)
	case ".docx":
		raw, err = extractDOCX(content)
	case ".odt", ".rtf":
		raw, err = extractWithCat(content)
	case ".txt", ".md":
		raw, err = extractPlain(content)
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
	if err != nil {
		return "", err
	}
	text := utils.CollapseWhitespace(raw)
	if text == "" {
		return "", ErrNoText
	}
	return text, nil
}

// IsSupported reports whether path has an extension ExtractBytes understands.
func IsSupported(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, s := range SupportedExtensions {
		if s == ext {
			return true
		}
	}
	return false
}
