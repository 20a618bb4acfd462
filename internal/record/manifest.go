package record

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/salazaj/provenance-recorder/internal/models"
)

// HashFile returns the hex SHA-256 of the file's contents.
func HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hash %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// BuildManifest stats and hashes the given files, descending into
// directories. Manifest keys are always relative paths: absolute arguments
// are rewritten relative to the working directory, and an argument that
// cannot be expressed relatively is an error rather than a contract
// violation downstream.
func BuildManifest(paths []string) (models.Manifest, error) {
	manifest := models.Manifest{}
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", p, err)
		}
		if !info.IsDir() {
			if err := addFile(manifest, p, info); err != nil {
				return nil, err
			}
			continue
		}
		files, err := filesUnder(p)
		if err != nil {
			return nil, err
		}
		for _, sub := range files {
			subInfo, err := os.Stat(sub)
			if err != nil {
				return nil, fmt.Errorf("stat %s: %w", sub, err)
			}
			if err := addFile(manifest, sub, subInfo); err != nil {
				return nil, err
			}
		}
	}
	return manifest, nil
}

func addFile(manifest models.Manifest, path string, info os.FileInfo) error {
	key, err := manifestKey(path)
	if err != nil {
		return err
	}
	hash, err := HashFile(path)
	if err != nil {
		return err
	}
	mtime := info.ModTime().UTC()
	manifest[key] = models.FileStat{
		Bytes:      info.Size(),
		MtimeEpoch: mtime.Unix(),
		MtimeUTC:   mtime.Format(time.RFC3339),
		Hash:       hash,
	}
	return nil
}

func filesUnder(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", dir, err)
	}
	sort.Strings(files)
	return files, nil
}

// manifestKey normalizes a recorded path to the relative, slash-separated
// form the run-record contract requires.
func manifestKey(path string) (string, error) {
	if filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("getwd: %w", err)
		}
		rel, err := filepath.Rel(cwd, path)
		if err != nil {
			return "", fmt.Errorf("%s cannot be recorded relative to the working directory: %w", path, err)
		}
		path = rel
	}
	return filepath.ToSlash(filepath.Clean(path)), nil
}
