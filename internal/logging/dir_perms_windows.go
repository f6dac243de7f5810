//go:build windows

package logging

import (
	"fmt"
	"os"
)

func ensureLogDir(dir string, _ bool) error {
	if dir == "" || dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("logging: create log dir: %w", err)
	}
	return nil
}
