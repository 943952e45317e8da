// Copyright (c) 2025 gdc authors
// Licensed under the MIT License. See LICENSE file in the project root for details.

package logging

import (
	"fmt"
	"strings"

	gderrors "gooddata/cli/internal/errors"

	"github.com/pterm/pterm"
)

// PresentError formats an error for user display with masking.
func PresentError(context string, err error) string {
	if err == nil {
		return ""
	}
	if context == "" {
		return Mask(err.Error())
	}
	return fmt.Sprintf("%s: %s", context, Mask(err.Error()))
}

// FormatOperationError renders a typed platform error with a title, the platform's
// own message, the attached context and a suggested next step.
func FormatOperationError(err error) string {
	var e *gderrors.E
	if !gderrors.As(err, &e) {
		return PresentError("", err)
	}

	var b strings.Builder
	b.WriteString(pterm.NewStyle(pterm.FgRed, pterm.Bold).Sprint(title(e.Kind)))
	b.WriteString("\n\n")

	msg := e.Message
	if e.API != nil {
		msg = e.API.Text()
	}
	if msg != "" {
		b.WriteString(Mask(msg))
		b.WriteString("\n")
	}
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, "HTTP status: %d\n", e.StatusCode)
	}
	if e.URI != "" {
		fmt.Fprintf(&b, "URI: %s\n", e.URI)
	}
	if d := e.Details(); d != "" {
		b.WriteString(pterm.NewStyle(pterm.FgGray).Sprint("Context: " + Mask(d)))
		b.WriteString("\n")
	}

	if hint := hint(e.Kind); hint != "" {
		b.WriteString("\n")
		b.WriteString(pterm.NewStyle(pterm.FgYellow).Sprint("→ " + hint))
		b.WriteString("\n")
	}
	return b.String()
}

func title(k gderrors.Kind) string {
	switch k {
	case gderrors.AuthenticationFailed:
		return "Authentication failed"
	case gderrors.ServiceUnavailable:
		return "GoodData is unavailable"
	case gderrors.ProjectNotFound:
		return "Project not found"
	case gderrors.ProjectCreationFailed:
		return "Project could not be created"
	case gderrors.ProjectNotOpened:
		return "Project is not opened"
	case gderrors.ValidationFailed:
		return "MAQL did not validate"
	case gderrors.SchemaExecutionFailed:
		return "MAQL execution failed"
	case gderrors.RowScriptExecutionFailed:
		return "DML execution failed"
	case gderrors.IntegrationFailed:
		return "Data integration failed"
	case gderrors.UploadFailed:
		return "Upload failed"
	case gderrors.TimedOut:
		return "Task timed out"
	default:
		return "Request failed"
	}
}

func hint(k gderrors.Kind) string {
	switch k {
	case gderrors.AuthenticationFailed:
		return "Run 'gdc login' and try again"
	case gderrors.ProjectNotFound:
		return "Check the project title or pass --project with the identifier"
	case gderrors.TimedOut:
		return "The task may still be running; raise --poll-timeout to wait longer"
	case gderrors.ValidationFailed:
		return "Fix the MAQL script; nothing was executed"
	}
	return ""
}
