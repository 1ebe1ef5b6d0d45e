package util

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

func EnsureDir(path string) error {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", path, err)
	}
	return nil
}

func SafeJoin(root, name string) string {
	return filepath.Join(root, filepath.Base(name))
}

// SuffixTimestamp rewrites name so a colliding upload gets its own file:
// "notes.pdf" + 1700000000 -> "notes_1700000000.pdf".
func SuffixTimestamp(name string, unix int64) string {
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	return fmt.Sprintf("%s_%d%s", stem, unix, ext)
}

// WriteReaderAtomic streams r into path via a temp file and rename, so a
// crashed upload never leaves a partial file at the final location.
func WriteReaderAtomic(path string, r io.Reader) (int64, error) {
	if err := EnsureDir(filepath.Dir(path)); err != nil {
		return 0, err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), "upload-*")
	if err != nil {
		return 0, fmt.Errorf("create temp file: %w", err)
	}
	n, err := io.Copy(tmp, r)
	if err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return 0, fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return 0, fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		_ = os.Remove(tmp.Name())
		return 0, fmt.Errorf("rename temp file: %w", err)
	}
	return n, nil
}
