//go:build !windows

package logging

import (
	"fmt"
	"log/slog"
	"os"
	"sync"

	"golang.org/x/sys/unix"
)

var logDirPermsWarnOnce sync.Once

// ensureLogDir creates dir with 0700. An existing default dir that others can read is
// tightened when it belongs to the current user; an explicitly configured one only
// triggers a warning.
func ensureLogDir(dir string, isOverride bool) error {
	if dir == "" || dir == "." {
		return nil
	}
	var st unix.Stat_t
	if err := unix.Stat(dir, &st); err != nil {
		if err != unix.ENOENT {
			return fmt.Errorf("logging: stat log dir: %w", err)
		}
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("logging: create log dir: %w", err)
		}
		return nil
	}
	if st.Mode&unix.S_IFMT != unix.S_IFDIR {
		return fmt.Errorf("logging: log dir %q is not a directory", dir)
	}
	mode := os.FileMode(st.Mode & 0o777)
	if mode&0o077 == 0 {
		return nil
	}
	if isOverride {
		logDirPermsWarnOnce.Do(func() {
			slog.Warn("log dir is group/world accessible; consider chmod 0700", "path", dir, "mode", mode.String())
		})
		return nil
	}
	if st.Uid == uint32(unix.Getuid()) {
		if err := unix.Chmod(dir, 0o700); err != nil {
			return fmt.Errorf("logging: chmod log dir: %w", err)
		}
		return nil
	}
	logDirPermsWarnOnce.Do(func() {
		slog.Warn("log dir is not owned by current user; permissions unchanged", "path", dir, "mode", mode.String())
	})
	return nil
}
