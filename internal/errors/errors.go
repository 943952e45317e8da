// Copyright (c) 2025 gdc authors
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package errors defines typed errors with categories for user-friendly reporting.
// Every failure surfaced by the platform client is an *E carrying a machine-readable
// Kind plus the diagnostic fields needed to understand it without re-deriving state:
// HTTP status code, raw response body, the parsed platform error, the URI involved
// and operation-specific context (MAQL text, staging directory name, ...).
package errors

import (
	stderrors "errors"
	"fmt"
	"sort"
	"strings"
)

// Kind is a machine-readable error category.
type Kind string

const (
	// AuthenticationFailed indicates the login or token-refresh call failed.
	AuthenticationFailed Kind = "authentication_failed"
	// ServiceUnavailable indicates the platform could not be reached at all, or
	// answered with something that is not an API response.
	ServiceUnavailable Kind = "service_unavailable"
	// ProjectNotFound indicates a name-based project lookup found no match.
	ProjectNotFound Kind = "project_not_found"
	// ProjectCreationFailed indicates the platform rejected a project creation.
	ProjectCreationFailed Kind = "project_creation_failed"
	// ProjectNotOpened indicates a project could not be deleted or was never loaded.
	ProjectNotOpened Kind = "project_not_opened"
	// ValidationFailed indicates a MAQL script did not validate.
	ValidationFailed Kind = "validation_failed"
	// SchemaExecutionFailed indicates MAQL execution failed.
	SchemaExecutionFailed Kind = "schema_execution_failed"
	// RowScriptExecutionFailed indicates DML execution failed.
	RowScriptExecutionFailed Kind = "row_script_execution_failed"
	// IntegrationFailed indicates a pull integration of staged data failed.
	IntegrationFailed Kind = "integration_failed"
	// UploadFailed indicates the staging service rejected a directory or archive.
	UploadFailed Kind = "upload_failed"
	// TimedOut indicates a task did not reach a terminal status in time.
	TimedOut Kind = "timed_out"
	// RequestFailed is the default kind for unclassified HTTP failures.
	RequestFailed Kind = "request_failed"
)

// E wraps an error with kind and human-friendly message.
type E struct {
	Kind    Kind
	Message string
	// StatusCode is the HTTP status of the failed call, 0 when no response exists.
	StatusCode int
	// Body is the raw response body of the failed call.
	Body []byte
	// API is the structured platform error, when the body carried one.
	API *APIError
	// URI is the request or task URI involved.
	URI string
	// Context holds operation inputs attached by the caller.
	Context map[string]string
	Err     error
}

func (e *E) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Kind))
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, " (status %d)", e.StatusCode)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *E) Unwrap() error { return e.Err }

// Is matches another *E by kind, so errors.Is(err, errors.New(kind, "")) works
// anywhere in a wrapped chain.
func (e *E) Is(target error) bool {
	t, ok := target.(*E)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// With returns the error with an additional context field.
func (e *E) With(key, value string) *E {
	if e.Context == nil {
		e.Context = make(map[string]string)
	}
	e.Context[key] = value
	return e
}

// Details renders the context fields in a stable order, for diagnostics.
func (e *E) Details() string {
	if len(e.Context) == 0 {
		return ""
	}
	keys := make([]string, 0, len(e.Context))
	for k := range e.Context {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+e.Context[k])
	}
	return strings.Join(parts, " ")
}

func Wrap(kind Kind, msg string, err error) *E { return &E{Kind: kind, Message: msg, Err: err} }
func New(kind Kind, msg string) *E             { return &E{Kind: kind, Message: msg} }

// KindOf returns the kind of the first *E in err's chain, or "" if there is none.
func KindOf(err error) Kind {
	var e *E
	if stderrors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsKind reports whether err's chain contains an *E of the given kind.
func IsKind(err error, kind Kind) bool {
	return stderrors.Is(err, &E{Kind: kind})
}

// As is re-exported so callers importing this package need not also import the
// standard library errors under an alias.
func As(err error, target any) bool { return stderrors.As(err, target) }
