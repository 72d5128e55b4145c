// Package scratch manages temporary files whose lifetime is bound to a
// single call.
package scratch

import (
	"errors"
	"fmt"
	"io"
	"os"
)

// WithFile copies content into a new temporary file in dir, calls fn with its
// path and removes the file before returning, whatever fn does. An empty dir
// means os.TempDir. A failed removal is reported only when fn succeeded.
func WithFile(dir, pattern string, content io.Reader, fn func(path string) error) (err error) {
	f, err := os.CreateTemp(dir, pattern)
	if err != nil {
		return fmt.Errorf("create scratch file: %w", err)
	}
	path := f.Name()

	defer func() {
		if removeErr := os.Remove(path); removeErr != nil && !errors.Is(removeErr, os.ErrNotExist) && err == nil {
			err = fmt.Errorf("remove scratch file: %w", removeErr)
		}
	}()

	if _, err := io.Copy(f, content); err != nil {
		_ = f.Close()
		return fmt.Errorf("write scratch file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close scratch file: %w", err)
	}

	return fn(path)
}
