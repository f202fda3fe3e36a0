// Package fs saves export files to the local filesystem.
package fs

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/fwojciec/adsift"
)

// Ensure Saver implements adsift.Saver at compile time.
var _ adsift.Saver = (*Saver)(nil)

// Saver writes files into a directory. Each file is written to a
// temporary name first and renamed into place, so readers never observe
// a partial export.
type Saver struct {
	dir string
}

// NewSaver creates a Saver that writes into dir. The directory is created
// on first use.
func NewSaver(dir string) *Saver {
	return &Saver{dir: dir}
}

// Dir returns the directory files are written to.
func (s *Saver) Dir() string {
	return s.dir
}

// Save writes data to dir/name and returns the full path.
func (s *Saver) Save(ctx context.Context, name string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := validateName(name); err != nil {
		return "", err
	}

	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return "", err
	}

	tmp, err := os.CreateTemp(s.dir, "."+name+".*.tmp")
	if err != nil {
		return "", err
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return "", err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return "", err
	}
	if err := os.Chmod(tmpPath, 0644); err != nil {
		_ = os.Remove(tmpPath)
		return "", err
	}

	path := filepath.Join(s.dir, name)
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return "", err
	}
	return path, nil
}

func validateName(name string) error {
	switch {
	case name == "", name == ".", name == "..":
		return adsift.Errorf(adsift.EINVALID, "invalid file name %q", name)
	case strings.ContainsAny(name, `/\`):
		return adsift.Errorf(adsift.EINVALID, "file name %q must not contain a path separator", name)
	}
	return nil
}
