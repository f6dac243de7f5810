package journal

import (
	"fmt"
	"io"
	"path/filepath"
	"sync"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"
)

// FileName is the journal file name inside the state directory.
const FileName = "journal.jsonl"

// Config controls where the journal lives and how it rotates.
type Config struct {
	Directory  string
	MaxSizeMB  int
	MaxBackups int
}

// Path returns the active journal file path.
func (c Config) Path() string {
	return filepath.Join(c.Directory, FileName)
}

// Recorder accepts journal events. The validator depends on this, not on Writer.
type Recorder interface {
	Record(e Event)
}

// Writer appends events to a rotating JSON Lines file.
type Writer struct {
	mu    sync.Mutex
	out   io.WriteCloser
	runID RunID
	now   func() time.Time
	onErr func(error)
}

// NewWriter opens the journal described by cfg for appending.
func NewWriter(cfg Config) *Writer {
	maxSize := cfg.MaxSizeMB
	if maxSize <= 0 {
		maxSize = 10
	}
	return NewWriterTo(&lumberjack.Logger{
		Filename:   cfg.Path(),
		MaxSize:    maxSize,
		MaxBackups: cfg.MaxBackups,
	})
}

// NewWriterTo creates a Writer over an arbitrary sink.
func NewWriterTo(out io.WriteCloser) *Writer {
	return &Writer{
		out:   out,
		runID: NewRunID(),
		now:   time.Now,
	}
}

// OnError sets the callback for write failures. Recording never fails the caller.
func (w *Writer) OnError(fn func(error)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onErr = fn
}

// RunID returns the identifier stamped on every event of this writer.
func (w *Writer) RunID() RunID {
	return w.runID
}

// Record implements Recorder.
func (w *Writer) Record(e Event) {
	if err := w.Write(e); err != nil {
		w.mu.Lock()
		fn := w.onErr
		w.mu.Unlock()
		if fn != nil {
			fn(err)
		}
	}
}

// Write appends e, filling in the timestamp and run ID.
func (w *Writer) Write(e Event) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if e.Timestamp.IsZero() {
		e.Timestamp = w.now()
	}
	if e.RunID == "" {
		e.RunID = w.runID
	}
	data, err := e.MarshalJSON()
	if err != nil {
		return fmt.Errorf("encode journal event: %w", err)
	}
	data = append(data, '\n')
	if _, err := w.out.Write(data); err != nil {
		return fmt.Errorf("write journal event: %w", err)
	}
	return nil
}

// StartRun writes RUN_START with the given metadata.
func (w *Writer) StartRun(metadata map[string]string) error {
	return w.Write(Event{EventType: EventRunStart, Metadata: metadata})
}

// EndRun writes RUN_END with the given metadata.
func (w *Writer) EndRun(metadata map[string]string) error {
	return w.Write(Event{EventType: EventRunEnd, Metadata: metadata})
}

// Close closes the underlying sink.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.out.Close()
}

// Discard is a Recorder that drops events.
type Discard struct{}

// Record implements Recorder.
func (Discard) Record(Event) {}
