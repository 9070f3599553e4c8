// Package fsutil provides file system utility functions.
package fsutil

import (
	"io/fs"
	"path/filepath"
)

// FindFilesByName recursively searches the given root path for all files
// whose base name equals name. It returns a slice of their full paths.
func FindFilesByName(rootPath string, name string) ([]string, error) {
	if name == "" {
		panic("name must not be empty")
	}

	var files []string
	err := filepath.WalkDir(rootPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && d.Name() == name {
			files = append(files, path)
		}
		return nil
	})

	if err != nil {
		return nil, err
	}

	return files, nil
}
