package bundle

import (
	"os"
	"path/filepath"
)

// ReadFile resolves path relative to the directory containing
// fromFile (or relative to the working directory if fromFile is
// empty, i.e. for the root file) and reads it from disk.
func (DiskSourceProvider) ReadFile(fromFile, path string) (string, string, error) {
	resolved := path
	if fromFile != "" && !filepath.IsAbs(path) {
		resolved = filepath.Join(filepath.Dir(fromFile), path)
	}
	data, err := os.ReadFile(resolved)
	if err != nil {
		return "", "", err
	}
	return resolved, string(data), nil
}
