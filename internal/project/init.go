// Package project creates the on-disk provenance layout for a project.
package project

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/salazaj/provenance-recorder/internal/models"
	"github.com/salazaj/provenance-recorder/internal/store"
)

// gitignoreEntry is the line ensured in the project's .gitignore.
const gitignoreEntry = ".prov/"

// InitResult reports what Init created versus what already existed.
type InitResult struct {
	Dir              string
	RunsDir          string
	IndexPath        string
	IndexCreated     bool
	GitignorePath    string
	GitignoreChanged bool
}

// Init creates the provenance directory, its runs subdirectory, and an empty
// index, and makes sure the project's .gitignore covers the directory.
// Idempotent when the layout already exists; only a regular file squatting on
// the directory path is an error.
func Init(st *store.Store, force bool) (*InitResult, error) {
	dir := st.Dir()
	if info, err := os.Stat(dir); err == nil && !info.IsDir() && !force {
		return nil, fmt.Errorf("%s exists and is a file", dir)
	}
	if err := os.MkdirAll(st.RunsDir(), 0o755); err != nil {
		return nil, fmt.Errorf("create %s: %w", st.RunsDir(), err)
	}

	result := &InitResult{
		Dir:       dir,
		RunsDir:   st.RunsDir(),
		IndexPath: st.IndexPath(),
	}

	if _, err := os.Stat(st.IndexPath()); os.IsNotExist(err) {
		if err := st.SaveIndex(models.NewIndex()); err != nil {
			return nil, err
		}
		result.IndexCreated = true
	}

	changed, path, err := ensureGitignoreEntry(filepath.Dir(dir), gitignoreEntry)
	if err != nil {
		return nil, err
	}
	result.GitignorePath = path
	result.GitignoreChanged = changed
	return result, nil
}

// ensureGitignoreEntry appends entry to root's .gitignore unless an
// equivalent line (with or without the trailing slash) is already present.
// Creates the file when missing.
func ensureGitignoreEntry(root, entry string) (bool, string, error) {
	path := filepath.Join(root, ".gitignore")

	content := ""
	if data, err := os.ReadFile(path); err == nil {
		content = string(data)
	} else if !os.IsNotExist(err) {
		return false, path, fmt.Errorf("read %s: %w", path, err)
	}

	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if line == entry || line == strings.TrimSuffix(entry, "/") {
			return false, path, nil
		}
	}

	if content != "" && !strings.HasSuffix(content, "\n") {
		content += "\n"
	}
	content += entry + "\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return false, path, fmt.Errorf("write %s: %w", path, err)
	}
	return true, path, nil
}
