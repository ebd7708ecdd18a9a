package fs

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// LocalFileSystem implements ports.FileSystemPort on the local disk.
type LocalFileSystem struct{}

func NewLocalFileSystem() *LocalFileSystem {
	return &LocalFileSystem{}
}

// Creates a directory if not present. Returns non nil error if the directory is
// already present and force flag is false, or if the path exists but is not a
// directory.
func (lfs *LocalFileSystem) CreateDir(dirPath string, permission os.FileMode, force bool) error {
	stat, err := os.Stat(dirPath)
	switch {
	case err == nil:
		if !stat.IsDir() {
			return fmt.Errorf("existing path %s isn't a directory", dirPath)
		}
		if !force {
			return fmt.Errorf("directory %s already exists", dirPath)
		}
		return nil
	case !errors.Is(err, os.ErrNotExist):
		return fmt.Errorf("error in getting directory stat %s : %w", dirPath, err)
	}

	if err := os.MkdirAll(dirPath, permission); err != nil {
		return fmt.Errorf("error in creating all directories %s : %w", dirPath, err)
	}
	return nil
}

// Deletes a directory and everything below it.
func (lfs *LocalFileSystem) DeleteDir(path string) error {
	return os.RemoveAll(path)
}

// Returns the paths matching a glob pattern.
func (lfs *LocalFileSystem) ReadDir(pattern string) ([]string, error) {
	return filepath.Glob(pattern)
}

// Writes to a file.
func (lfs *LocalFileSystem) WriteFile(filePath string, permission os.FileMode, contents []byte) error {
	return os.WriteFile(filePath, contents, permission)
}

// Read file contents.
func (lfs *LocalFileSystem) ReadFile(filePath string) ([]byte, error) {
	return os.ReadFile(filePath)
}

// Deletes a file. Deleting a missing file is not an error.
func (lfs *LocalFileSystem) DeleteFile(filePath string) error {
	if err := os.Remove(filePath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// Checks if a file exists or not.
func (lfs *LocalFileSystem) Exists(file string) (bool, error) {
	_, err := os.Stat(file)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, err
}
