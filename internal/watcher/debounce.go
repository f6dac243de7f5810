package watcher

import (
	"sync"
	"time"
)

// Debouncer coalesces bursts of events per key. The callback runs once per key,
// delay after the last Add for that key. Editors write a descriptor in several
// steps, and a project copy creates the directory before its contents.
type Debouncer struct {
	delay    time.Duration
	callback func(key string)

	mu      sync.Mutex
	pending map[string]*time.Timer
	stopped bool
}

// NewDebouncer creates a Debouncer.
func NewDebouncer(delay time.Duration, callback func(key string)) *Debouncer {
	return &Debouncer{
		delay:    delay,
		callback: callback,
		pending:  make(map[string]*time.Timer),
	}
}

// Add schedules key, restarting its timer if it is already pending.
// Add after Stop is a no-op.
func (d *Debouncer) Add(key string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}
	if timer, ok := d.pending[key]; ok {
		timer.Stop()
	}
	d.pending[key] = time.AfterFunc(d.delay, func() { d.fire(key) })
}

func (d *Debouncer) fire(key string) {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return
	}
	delete(d.pending, key)
	d.mu.Unlock()

	// outside the lock: the callback may Add again
	if d.callback != nil {
		d.callback(key)
	}
}

// Cancel drops a pending key.
func (d *Debouncer) Cancel(key string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if timer, ok := d.pending[key]; ok {
		timer.Stop()
		delete(d.pending, key)
	}
}

// Stop cancels everything pending and rejects further Adds. It returns the number
// of keys that were dropped.
func (d *Debouncer) Stop() int {
	d.mu.Lock()
	defer d.mu.Unlock()

	dropped := len(d.pending)
	for key, timer := range d.pending {
		timer.Stop()
		delete(d.pending, key)
	}
	d.stopped = true
	return dropped
}

// PendingCount returns the number of keys waiting for their timer.
func (d *Debouncer) PendingCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.pending)
}

// IsPending reports whether key is waiting for its timer.
func (d *Debouncer) IsPending(key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.pending[key]
	return ok
}

// Delay returns the configured delay.
func (d *Debouncer) Delay() time.Duration {
	return d.delay
}
