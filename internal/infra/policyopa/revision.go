package policyopa

import (
	"crypto/sha256"
	"encoding/hex"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ComputeRevisionFromPath fingerprints the rego and data.json files under
// path so operators can tell which policy a process loaded.
func ComputeRevisionFromPath(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", err
	}
	if !info.IsDir() {
		data, err := os.ReadFile(path)
		if err != nil {
			return "", err
		}
		return revisionOf([]string{filepath.Base(path) + ":" + sha256Hex(data)}), nil
	}
	return ComputeRevisionFromFS(os.DirFS(path), ".")
}

func ComputeRevisionFromFS(fsys fs.FS, root string) (string, error) {
	var entries []string
	err := fs.WalkDir(fsys, root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if path == "." {
			return nil
		}
		base := filepath.Base(path)
		if d.IsDir() {
			if strings.HasPrefix(base, ".") || base == "vendor" {
				return fs.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(base, ".") || !isPolicyFile(base) {
			return nil
		}
		data, err := fs.ReadFile(fsys, path)
		if err != nil {
			return err
		}
		entries = append(entries, filepath.ToSlash(path)+":"+sha256Hex(data))
		return nil
	})
	if err != nil {
		return "", err
	}
	sort.Strings(entries)
	return revisionOf(entries), nil
}

func isPolicyFile(base string) bool {
	return base == "data.json" || strings.HasSuffix(base, ".rego")
}

func revisionOf(entries []string) string {
	return sha256Hex([]byte(strings.Join(entries, "\n")))
}

func sha256Hex(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
