package watcher

import (
	"context"
	"errors"
	"os"
	"time"
)

// ErrFileNotFound is returned when the watched file does not exist.
var ErrFileNotFound = errors.New("file not found")

// ErrFileUnstable is returned when the file keeps changing until the timeout.
var ErrFileUnstable = errors.New("file did not stabilize within timeout")

// StabilityChecker waits until a file stops changing. A project descriptor that
// is still being written would otherwise be read half-empty.
type StabilityChecker struct {
	threshold time.Duration
	timeout   time.Duration
	interval  time.Duration
}

// NewStabilityChecker creates a StabilityChecker that requires threshold of quiet.
// It gives up after 30 seconds and samples every threshold/4 (at least 20ms).
func NewStabilityChecker(threshold time.Duration) *StabilityChecker {
	interval := threshold / 4
	if interval < 20*time.Millisecond {
		interval = 20 * time.Millisecond
	}
	return &StabilityChecker{
		threshold: threshold,
		timeout:   30 * time.Second,
		interval:  interval,
	}
}

// NewStabilityCheckerWithOptions creates a StabilityChecker with explicit timing.
func NewStabilityCheckerWithOptions(threshold, timeout, interval time.Duration) *StabilityChecker {
	return &StabilityChecker{threshold: threshold, timeout: timeout, interval: interval}
}

type fileState struct {
	size    int64
	modTime time.Time
}

// Wait blocks until path has kept the same size and modification time for the
// threshold. It returns ErrFileNotFound if the file is missing or disappears,
// ErrFileUnstable on timeout and the context error on cancellation.
func (s *StabilityChecker) Wait(ctx context.Context, path string) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	last, err := stat(path)
	if err != nil {
		return err
	}
	lastChange := time.Now()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return ErrFileUnstable
			}
			return ctx.Err()
		case <-ticker.C:
			current, err := stat(path)
			if err != nil {
				return err
			}
			if current != last {
				last = current
				lastChange = time.Now()
			} else if time.Since(lastChange) >= s.threshold {
				return nil
			}
		}
	}
}

func stat(path string) (fileState, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fileState{}, ErrFileNotFound
		}
		return fileState{}, err
	}
	return fileState{size: info.Size(), modTime: info.ModTime()}, nil
}

// Threshold returns the required quiet period.
func (s *StabilityChecker) Threshold() time.Duration {
	return s.threshold
}

// Timeout returns the maximum wait.
func (s *StabilityChecker) Timeout() time.Duration {
	return s.timeout
}
