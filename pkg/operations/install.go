package operations

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Install copies the operation scripts of fsys into dir, creating dir if
// needed. Existing files are kept unless overwrite is set. It returns the
// names of the files written.
func Install(fsys fs.FS, dir string, overwrite bool) ([]string, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("failed to read bundled operations: %w", err)
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create operations directory: %w", err)
	}

	var written []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sh") {
			continue
		}

		target := filepath.Join(dir, entry.Name())
		if !overwrite {
			if _, err := os.Stat(target); err == nil {
				continue
			}
		}

		data, err := fs.ReadFile(fsys, entry.Name())
		if err != nil {
			return written, fmt.Errorf("failed to read %s: %w", entry.Name(), err)
		}
		if err := os.WriteFile(target, data, 0755); err != nil {
			return written, fmt.Errorf("failed to write %s: %w", target, err)
		}
		// WriteFile keeps the mode of an existing file.
		if err := os.Chmod(target, 0755); err != nil {
			return written, fmt.Errorf("failed to chmod %s: %w", target, err)
		}
		written = append(written, entry.Name())
	}

	return written, nil
}
