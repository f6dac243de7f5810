package ui

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/huh"
	"golang.org/x/term"

	"namesync/internal/project"
)

// ErrNoInput is returned when the input stream ends before the user answers.
var ErrNoInput = errors.New("no input available for prompt")

// Prompt styles.
const (
	StyleAuto = "auto"
	StyleForm = "form"
	StyleLine = "line"
)

// Asker poses a yes/no question. accepted=false with a nil error is a decline or cancel.
type Asker interface {
	Ask(ctx context.Context, title, message string) (accepted bool, err error)
}

// LineAsker reads a y/n answer from a line-oriented stream.
type LineAsker struct {
	mu      sync.Mutex
	scanner *bufio.Scanner
	writer  io.Writer
}

// NewLineAsker creates a LineAsker. Use os.Stdin and os.Stdout for normal operation.
func NewLineAsker(reader io.Reader, writer io.Writer) *LineAsker {
	return &LineAsker{
		scanner: bufio.NewScanner(reader),
		writer:  writer,
	}
}

// Ask implements Asker. Anything other than y/yes is a decline.
func (a *LineAsker) Ask(_ context.Context, title, message string) (bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if title != "" {
		fmt.Fprintf(a.writer, "\n%s\n", title)
	}
	fmt.Fprintf(a.writer, "%s\n", message)
	fmt.Fprintf(a.writer, "Ignore this project? (y)es, (n)o: ")

	if !a.scanner.Scan() {
		if err := a.scanner.Err(); err != nil {
			return false, fmt.Errorf("error reading input: %w", err)
		}
		return false, ErrNoInput
	}

	switch strings.TrimSpace(strings.ToLower(a.scanner.Text())) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}

// FormAsker shows a confirm form on a terminal.
type FormAsker struct{}

// Ask implements Asker. Aborting the form (ctrl+c, esc) is a cancel.
func (FormAsker) Ask(ctx context.Context, title, message string) (bool, error) {
	accepted := false
	confirm := huh.NewConfirm().
		Title(title).
		Description(message).
		Affirmative("Ignore").
		Negative("Keep reporting").
		Value(&accepted)

	err := huh.NewForm(huh.NewGroup(confirm)).RunWithContext(ctx)
	if err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return false, nil
		}
		return false, err
	}
	return accepted, nil
}

// NewTerminalAsker picks an Asker for the given streams. StyleAuto uses a form when in is
// a terminal and falls back to line input otherwise.
func NewTerminalAsker(in *os.File, out io.Writer, style string) Asker {
	switch style {
	case StyleForm:
		return FormAsker{}
	case StyleLine:
		return NewLineAsker(in, out)
	}
	if IsInteractive(in) {
		return FormAsker{}
	}
	return NewLineAsker(in, out)
}

// IsInteractive reports whether f is a terminal.
func IsInteractive(f *os.File) bool {
	if f == nil {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}

// DialogPrompter implements the validator's Prompter by asking on the UI dispatcher.
// Confirm blocks the calling goroutine until the user has answered.
type DialogPrompter struct {
	dispatcher *Dispatcher
	asker      Asker
	title      string
}

// NewDialogPrompter creates a DialogPrompter.
func NewDialogPrompter(d *Dispatcher, asker Asker, title string) *DialogPrompter {
	if title == "" {
		title = "Project name mismatch"
	}
	return &DialogPrompter{dispatcher: d, asker: asker, title: title}
}

// Confirm asks whether p should be ignored from now on.
func (p *DialogPrompter) Confirm(ctx context.Context, proj project.Project, message string) (bool, error) {
	var (
		accepted bool
		askErr   error
	)
	title := p.title + ": " + proj.Name
	if err := p.dispatcher.SyncExec(func() {
		accepted, askErr = p.asker.Ask(ctx, title, message)
	}); err != nil {
		return false, err
	}
	return accepted, askErr
}
