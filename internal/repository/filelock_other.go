//go:build !unix

package repository

import (
	"fmt"
	"os"
)

// lockFile only creates the lock file; cross-process exclusion is unavailable here
// and callers rely on their in-process mutex.
func lockFile(path string) (func(), error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open lock file: %w", err)
	}
	return func() { _ = f.Close() }, nil
}
