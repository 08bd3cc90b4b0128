// Package storage provides scratch files for uploaded resumes and disk usage helpers.
package storage

import (
	"os"
	"path/filepath"
)

// sqliteSidecars are the files SQLite keeps next to a database in WAL mode.
var sqliteSidecars = []string{"", "-wal", "-shm"}

// Usage is the disk footprint of a deployment, split by what owns the bytes.
type Usage struct {
	CorpusBytes int64 `json:"corpus_bytes"`
	TempFiles   int   `json:"temp_files"`
	TempBytes   int64 `json:"temp_bytes"`
}

// MeasureUsage reports the corpus database and the resume scratch files separately.
// A missing corpus or temp directory counts as empty.
func MeasureUsage(corpusPath, tempDir string) (Usage, error) {
	corpus, err := CorpusBytes(corpusPath)
	if err != nil {
		return Usage{}, err
	}
	n, size, err := TempUsage(tempDir)
	if err != nil {
		return Usage{}, err
	}
	return Usage{CorpusBytes: corpus, TempFiles: n, TempBytes: size}, nil
}

// CorpusBytes returns the size of the SQLite corpus at path, including its WAL and
// shared-memory files.
func CorpusBytes(path string) (int64, error) {
	if path == "" {
		return 0, nil
	}
	var total int64
	for _, suffix := range sqliteSidecars {
		info, err := os.Stat(path + suffix)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return 0, err
		}
		total += info.Size()
	}
	return total, nil
}

// TempUsage returns how many resume scratch files are in dir and their total size.
// Other files sharing the directory are not counted.
func TempUsage(dir string) (int, int64, error) {
	matches, err := filepath.Glob(filepath.Join(dir, tempPrefix+"*"))
	if err != nil {
		return 0, 0, err
	}
	var (
		n    int
		size int64
	)
	for _, m := range matches {
		info, err := os.Stat(m)
		if os.IsNotExist(err) {
			// removed by its request in the meantime
			continue
		}
		if err != nil {
			return 0, 0, err
		}
		if info.IsDir() {
			continue
		}
		n++
		size += info.Size()
	}
	return n, size, nil
}
