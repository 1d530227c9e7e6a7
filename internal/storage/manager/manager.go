package manager

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	domainerrors "github.com/leengari/dbon/internal/domain/errors"
)

// FileSuffix is appended to a database name to form its file name.
const FileSuffix = ".dbon.json"

// DatabasePath returns the file backing database name inside basePath.
func DatabasePath(basePath, name string) string {
	return filepath.Join(basePath, name+FileSuffix)
}

// ValidateName rejects names that cannot be used as a file name.
func ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("database name must not be empty")
	}
	if strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return fmt.Errorf("invalid database name %q", name)
	}
	return nil
}

// ListDatabases returns the names of all databases in basePath, sorted.
// A missing basePath holds no databases.
func ListDatabases(basePath string) ([]string, error) {
	entries, err := os.ReadDir(basePath)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, &domainerrors.IOError{Op: "readdir", Path: basePath, Err: err}
	}

	databases := []string{}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name, ok := strings.CutSuffix(entry.Name(), FileSuffix)
		if !ok || name == "" {
			continue
		}
		databases = append(databases, name)
	}
	sort.Strings(databases)
	return databases, nil
}
