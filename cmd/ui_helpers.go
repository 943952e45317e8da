package cmd

import (
	"fmt"
	"sync"
	"time"

	"gooddata/cli/internal/task"

	"atomicgo.dev/cursor"
	"github.com/pterm/pterm"
)

// progress shows a spinner while a remote operation runs and reflects every
// task status the poller observes.
type progress struct {
	mu      sync.Mutex
	text    string
	started time.Time
	spinner *pterm.SpinnerPrinter
}

// startProgress hides the cursor and starts a spinner with text. When stdout is
// not a terminal the spinner degrades to plain lines printed by pterm.
func startProgress(text string) *progress {
	p := &progress{text: text, started: time.Now()}
	cursor.Hide()
	s, err := pterm.DefaultSpinner.WithRemoveWhenDone(false).Start(text)
	if err == nil {
		p.spinner = s
	}
	return p
}

// hook is installed as the task poller's status hook.
func (p *progress) hook(h task.Handle, status string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.spinner == nil {
		return
	}
	p.spinner.UpdateText(fmt.Sprintf("%s: %s (%s)", p.text, status, time.Since(p.started).Round(time.Second)))
}

// done stops the spinner with a success or failure line and restores the cursor.
func (p *progress) done(err error, success string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	defer cursor.Show()
	if p.spinner == nil {
		return
	}
	elapsed := time.Since(p.started).Round(time.Millisecond)
	if err != nil {
		p.spinner.Fail(fmt.Sprintf("%s failed after %s", p.text, elapsed))
	} else {
		p.spinner.Success(fmt.Sprintf("%s (%s)", success, elapsed))
	}
	p.spinner = nil
}

// track runs fn under a spinner labelled text. fn receives the status hook to
// hand to the poller.
func track(text, success string, fn func(hook func(task.Handle, string)) error) error {
	p := startProgress(text)
	err := fn(p.hook)
	p.done(err, success)
	return err
}

// spin runs fn under a spinner; for operations that poll no tasks.
func spin(text, success string, fn func() error) error {
	return track(text, success, func(func(task.Handle, string)) error { return fn() })
}
