package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// CopyDir copies the regular files of src (recursively) into a new temp
// directory and returns its path. Tests that record fixtures use it to keep
// testdata untouched.
func CopyDir(t testing.TB, src string) string {
	t.Helper()
	dst := t.TempDir()

	err := filepath.Walk(src, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		if info.IsDir() {
			return os.MkdirAll(target, 0755)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		return os.WriteFile(target, data, 0644)
	})
	if err != nil {
		t.Fatalf("CopyDir(%s) failed: %v", src, err)
	}
	return dst
}
