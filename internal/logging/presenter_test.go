// Copyright (c) 2025 gdc authors
// Licensed under the MIT License. See LICENSE file in the project root for details.

package logging

import (
	stderrors "errors"
	"testing"

	gderrors "gooddata/cli/internal/errors"

	"github.com/stretchr/testify/assert"
)

func TestFormatOperationError(t *testing.T) {
	e := &gderrors.E{
		Kind:       gderrors.IntegrationFailed,
		Message:    "fallback",
		StatusCode: 400,
		API:        &gderrors.APIError{Message: "Dataset %s is missing", Parameters: []any{"sales"}},
		URI:        "/gdc/md/p1/etl/pull",
	}
	e.With("dir_name", "gdc-123")

	out := FormatOperationError(e)
	assert.Contains(t, out, "Data integration failed")
	assert.Contains(t, out, "Dataset sales is missing")
	assert.Contains(t, out, "HTTP status: 400")
	assert.Contains(t, out, "dir_name=gdc-123")
	assert.NotContains(t, out, "fallback")
}

func TestFormatOperationErrorPlain(t *testing.T) {
	out := FormatOperationError(stderrors.New("connect postgres://u:p@db/x failed"))
	assert.Equal(t, "connect postgres://*:*@db/x failed", out)
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, ParseLevel("DEBUG"), ParseLevel("debug"))
	assert.Equal(t, ParseLevel("info"), ParseLevel("bogus"))
}
