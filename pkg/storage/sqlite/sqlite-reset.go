package sqlite

import (
	"errors"
	"fmt"
	"os"
)

// Remove deletes the database file along with any journal the engine may have left behind.
// It destroys every row: callers must obtain an explicit confirmation first. A missing file isn't an error.
func Remove(path string) error {
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		return fmt.Errorf("%w: %s", ErrIsDirectory, path)
	}

	for _, file := range []string{path, path + "-journal", path + "-wal", path + "-shm"} {
		if err := os.Remove(file); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("removing %q: %w", file, err)
		}
	}
	return nil
}
