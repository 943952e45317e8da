// Copyright (c) 2025 gdc authors
// Licensed under the MIT License. See LICENSE file in the project root for details.

package session

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	gderrors "gooddata/cli/internal/errors"
)

// Response is a successful (2xx) platform response with its body fully read.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// JSON decodes the body into v.
func (r *Response) JSON(v any) error {
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// CallOption customises how a failed call is reported.
type CallOption func(*callConfig)

type callConfig struct {
	kind    gderrors.Kind
	message string
	context map[string]string
	strict  bool
}

// WithErrorKind sets the kind of the error returned on HTTP failure.
func WithErrorKind(kind gderrors.Kind) CallOption {
	return func(c *callConfig) { c.kind = kind }
}

// WithErrorMessage overrides the message derived from the response body.
func WithErrorMessage(msg string) CallOption {
	return func(c *callConfig) { c.message = msg }
}

// WithErrorContext attaches a diagnostic field to the error returned on failure.
func WithErrorContext(key, value string) CallOption {
	return func(c *callConfig) {
		if c.context == nil {
			c.context = make(map[string]string)
		}
		c.context[key] = value
	}
}

// WithStrictBody escalates failures whose body is not JSON to ServiceUnavailable:
// an API that cannot even produce an error document is degraded rather than
// rejecting the request.
func WithStrictBody() CallOption {
	return func(c *callConfig) { c.strict = true }
}

func (c callConfig) classify(method, uri string, resp *Response) error {
	kind := c.kind
	if c.strict && !json.Valid(resp.Body) {
		kind = gderrors.ServiceUnavailable
	}

	e := &gderrors.E{
		Kind:       kind,
		StatusCode: resp.StatusCode,
		Body:       resp.Body,
		URI:        uri,
	}
	for k, v := range c.context {
		e.With(k, v)
	}

	api, ok := gderrors.ParseAPIError(resp.Body)
	if ok {
		e.API = api
	}
	switch {
	case c.message != "":
		e.Message = c.message
	case ok:
		e.Message = api.Text()
	default:
		e.Message = fmt.Sprintf("%s %s: %s", method, uri, strings.TrimSpace(string(resp.Body)))
	}
	return e
}

// IsSessionExpired reports whether err is an HTTP 401, the only failure the
// client recovers from on its own.
func IsSessionExpired(err error) bool {
	var e *gderrors.E
	if !gderrors.As(err, &e) {
		return false
	}
	return e.StatusCode == http.StatusUnauthorized
}
