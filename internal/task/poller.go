// Copyright (c) 2025 gdc authors
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package task tracks long-running platform operations to completion by
// repeatedly fetching their status resource.
//
// A task is Polling until its status field reads "OK" (Succeeded) or "ERROR" /
// "WARNING" (Failed). Every other value, including ones the platform may add
// later, means the task is still running. Waiting between fetches follows a
// backoff policy bounded by a total timeout; exhausting it yields TimedOut.
// Polling that stops without a verdict from the task, because the status could
// not be fetched or the context ended, yields Aborted.
package task

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	gderrors "gooddata/cli/internal/errors"
	"gooddata/cli/internal/logging"

	"github.com/cenkalti/backoff/v4"
	"github.com/pterm/pterm"
)

// Status values reported by the platform.
const (
	StatusOK      = "OK"
	StatusError   = "ERROR"
	StatusWarning = "WARNING"
)

// Outcome is the terminal state of a polled task.
type Outcome int

const (
	// Polling is the zero value; Poll never returns it.
	Polling Outcome = iota
	Succeeded
	Failed
	TimedOut
	Aborted
)

func (o Outcome) String() string {
	switch o {
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	case TimedOut:
		return "timed out"
	case Aborted:
		return "aborted"
	default:
		return "polling"
	}
}

// Handle identifies one task to poll.
type Handle struct {
	// URI is the task status resource, relative to the API host.
	URI string
	// Path locates the status string inside the status document.
	Path FieldPath
	// Kind is the error kind reported when the task fails.
	Kind gderrors.Kind
	// Context is attached to the failure, e.g. the MAQL text or directory name.
	Context map[string]string
}

// Fetcher retrieves the raw status document of a task.
type Fetcher interface {
	Fetch(ctx context.Context, uri string) ([]byte, error)
}

// FetchFunc adapts a function to Fetcher.
type FetchFunc func(ctx context.Context, uri string) ([]byte, error)

func (f FetchFunc) Fetch(ctx context.Context, uri string) ([]byte, error) { return f(ctx, uri) }

// Config bounds the wait between status fetches.
type Config struct {
	// Interval is the wait after the first non-terminal status.
	Interval time.Duration
	// Multiplier grows the wait after each fetch; 1.0 keeps it constant.
	Multiplier float64
	// MaxInterval caps the wait.
	MaxInterval time.Duration
	// Timeout bounds the total polling time; 0 polls until a terminal status.
	Timeout time.Duration
}

// DefaultConfig polls every half second for at most an hour.
func DefaultConfig() Config {
	return Config{
		Interval:    500 * time.Millisecond,
		Multiplier:  1.0,
		MaxInterval: 5 * time.Second,
		Timeout:     time.Hour,
	}
}

func (c Config) backoff() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.Interval
	b.RandomizationFactor = 0
	b.Multiplier = c.Multiplier
	if b.Multiplier < 1 {
		b.Multiplier = 1
	}
	b.MaxInterval = c.MaxInterval
	if b.MaxInterval < b.InitialInterval {
		b.MaxInterval = b.InitialInterval
	}
	b.MaxElapsedTime = c.Timeout
	b.Reset()
	return b
}

// Poller polls task handles through a Fetcher.
type Poller struct {
	fetch    Fetcher
	cfg      Config
	log      *pterm.Logger
	onStatus func(Handle, string)
}

// Option configures a Poller.
type Option func(*Poller)

// WithLogger sets the debug logger.
func WithLogger(l *pterm.Logger) Option {
	return func(p *Poller) { p.log = l }
}

// WithStatusHook registers a callback invoked with every observed status.
func WithStatusHook(fn func(h Handle, status string)) Option {
	return func(p *Poller) { p.onStatus = fn }
}

// New creates a Poller.
func New(f Fetcher, cfg Config, opts ...Option) *Poller {
	p := &Poller{fetch: f, cfg: cfg, log: logging.Discard()}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// errRunning marks a non-terminal status so the backoff policy schedules
// another fetch.
var errRunning = stderrors.New("task still running")

// Poll fetches the handle's status until it is terminal, the timeout elapses or
// ctx is done. A failed task returns Failed with an *errors.E of the handle's
// kind. A fetch error or cancellation returns Aborted and the error unchanged.
func (p *Poller) Poll(ctx context.Context, h Handle) (Outcome, error) {
	var (
		last     []byte
		status   string
		fetchErr bool
	)
	op := func() error {
		body, err := p.fetch.Fetch(ctx, h.URI)
		if err != nil {
			fetchErr = true
			return backoff.Permanent(err)
		}
		last = body
		status, err = h.Path.ExtractBytes(body)
		if err != nil {
			e := gderrors.Wrap(h.Kind, fmt.Sprintf("unreadable status of task %s", h.URI), err)
			e.URI = h.URI
			e.Body = body
			return backoff.Permanent(e)
		}
		p.log.Debug("task status", p.log.Args("uri", h.URI, "status", status))
		if p.onStatus != nil {
			p.onStatus(h, status)
		}
		switch status {
		case StatusOK:
			return nil
		case StatusError, StatusWarning:
			return backoff.Permanent(p.failure(h, status, body))
		default:
			return errRunning
		}
	}

	err := backoff.Retry(op, backoff.WithContext(p.cfg.backoff(), ctx))
	switch {
	case err == nil:
		return Succeeded, nil
	case stderrors.Is(err, errRunning):
		e := gderrors.New(gderrors.TimedOut, fmt.Sprintf("task %s still %q after %s", h.URI, status, p.cfg.Timeout))
		e.URI = h.URI
		e.Body = last
		for k, v := range h.Context {
			e.With(k, v)
		}
		return TimedOut, e
	case fetchErr, ctx.Err() != nil:
		return Aborted, err
	default:
		return Failed, err
	}
}

func (p *Poller) failure(h Handle, status string, body []byte) *gderrors.E {
	e := &gderrors.E{
		Kind:    h.Kind,
		Message: fmt.Sprintf("an error occurred while polling uri %s: task status %s", h.URI, status),
		Body:    body,
		URI:     h.URI,
	}
	if api, ok := gderrors.ParseAPIError(body); ok {
		e.API = api
	}
	for k, v := range h.Context {
		e.With(k, v)
	}
	return e
}

// PollAll polls the handles one after another in order, stopping at the first
// one that does not succeed.
func (p *Poller) PollAll(ctx context.Context, handles []Handle) error {
	for _, h := range handles {
		if _, err := p.Poll(ctx, h); err != nil {
			return err
		}
	}
	return nil
}
