package modeldoc

import (
	"io/fs"
	"path/filepath"
)

// FindFiles recursively finds model files (.yaml, .yml, .json, .toml) under dir in
// lexical order
func FindFiles(dir string) ([]string, error) {
	var files []string

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		// Skip directories
		if d.IsDir() {
			return nil
		}

		if _, err := FormatFromPath(path); err == nil {
			files = append(files, path)
		}

		return nil
	})

	if err != nil {
		return nil, err
	}

	return files, nil
}
