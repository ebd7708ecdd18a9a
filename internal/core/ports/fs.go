package ports

import "os"

// FileSystemPort is the subset of file system operations the storages and the
// initializer need, abstracted for testing.
type FileSystemPort interface {
	CreateDir(dirPath string, permission os.FileMode, force bool) error
	DeleteDir(dirPath string) error
	ReadDir(pattern string) ([]string, error)

	WriteFile(filePath string, permission os.FileMode, contents []byte) error
	ReadFile(filePath string) ([]byte, error)
	DeleteFile(filePath string) error

	Exists(filePath string) (bool, error)
}
