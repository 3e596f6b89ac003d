// Package fsutil provides hashing and filesystem helpers shared across
// the pipeline.
package fsutil

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// HashFile computes the SHA-256 hash of a file's contents.
func HashFile(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer file.Close()

	hash := sha256.New()
	if _, err := io.Copy(hash, file); err != nil {
		return "", err
	}

	return hex.EncodeToString(hash.Sum(nil)), nil
}

// HashBytes computes the SHA-256 hash of the provided bytes.
func HashBytes(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// HashString computes the SHA-256 hash of a string.
func HashString(s string) string {
	return HashBytes([]byte(s))
}

// HashParts computes the SHA-256 hash of several parts joined with "|".
// Used for content-addressed cache keys (text|provider|model).
func HashParts(parts ...string) string {
	return HashString(strings.Join(parts, "|"))
}

// EnsureDir creates a directory (and parents) if it doesn't exist.
func EnsureDir(path string) error {
	return os.MkdirAll(path, 0755)
}

// AtomicWriteFile writes data to a temporary file in the target
// directory and renames it into place. Readers never observe a
// partially written file.
func AtomicWriteFile(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := EnsureDir(dir); err != nil {
		return fmt.Errorf("failed to create directory %q; %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file; %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write temp file; %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close temp file; %w", err)
	}
	if err := os.Chmod(tmpName, perm); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to chmod temp file; %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to rename temp file; %w", err)
	}
	return nil
}

// UniquePath returns path if it does not exist, otherwise the first
// "<stem>_<n><ext>" variant (n starting at 1) that does not exist.
func UniquePath(path string) string {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return path
	}

	dir := filepath.Dir(path)
	ext := filepath.Ext(path)
	stem := strings.TrimSuffix(filepath.Base(path), ext)

	for n := 1; ; n++ {
		candidate := filepath.Join(dir, fmt.Sprintf("%s_%d%s", stem, n, ext))
		if _, err := os.Stat(candidate); os.IsNotExist(err) {
			return candidate
		}
	}
}

// RelativeTo returns the path of child relative to root. When child is
// not under root, the bare file name is returned so callers can still
// build a destination path.
func RelativeTo(root, child string) string {
	rel, err := filepath.Rel(root, child)
	if err != nil || strings.HasPrefix(rel, "..") {
		return filepath.Base(child)
	}
	return rel
}
