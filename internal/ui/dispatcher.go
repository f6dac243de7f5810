// Package ui holds the interactive collaborators of the validation workflow: a UI
// dispatcher that owns the terminal, the rename-warning prompt and the ignore property page.
package ui

import (
	"errors"
	"sync"
)

// ErrDispatcherClosed is returned by SyncExec after Close.
var ErrDispatcherClosed = errors.New("ui dispatcher closed")

// Dispatcher runs functions one at a time on a dedicated goroutine, the "UI thread".
// Interactive work goes through it so that two prompts never share the terminal.
type Dispatcher struct {
	tasks chan task
	done  chan struct{}
	once  sync.Once
	wg    sync.WaitGroup
}

type task struct {
	fn   func()
	done chan struct{}
}

// NewDispatcher starts a dispatcher goroutine.
func NewDispatcher() *Dispatcher {
	d := &Dispatcher{
		tasks: make(chan task),
		done:  make(chan struct{}),
	}
	d.wg.Add(1)
	go d.loop()
	return d
}

func (d *Dispatcher) loop() {
	defer d.wg.Done()
	for {
		select {
		case <-d.done:
			return
		case t := <-d.tasks:
			func() {
				defer close(t.done)
				t.fn()
			}()
		}
	}
}

// SyncExec runs fn on the dispatcher goroutine and blocks until it returns.
// There is no timeout: the caller waits as long as fn does.
func (d *Dispatcher) SyncExec(fn func()) error {
	t := task{fn: fn, done: make(chan struct{})}
	select {
	case <-d.done:
		return ErrDispatcherClosed
	case d.tasks <- t:
	}
	<-t.done
	return nil
}

// Close stops accepting work and waits for the running function, if any, to finish.
func (d *Dispatcher) Close() {
	d.once.Do(func() {
		close(d.done)
	})
	d.wg.Wait()
}
