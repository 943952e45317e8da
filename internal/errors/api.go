// Copyright (c) 2025 gdc authors
// Licensed under the MIT License. See LICENSE file in the project root for details.

package errors

import (
	"encoding/json"
	"fmt"
	"strings"
)

// APIError is the structured error document the platform returns on failure:
//
//	{"error": {"message": "Project %s not found", "parameters": ["abc"], ...}}
type APIError struct {
	Message    string `json:"message"`
	Parameters []any  `json:"parameters"`
	ErrorClass string `json:"errorClass,omitempty"`
	Component  string `json:"component,omitempty"`
	ErrorCode  string `json:"errorCode,omitempty"`
	RequestID  string `json:"requestId,omitempty"`
}

// Text substitutes the parameters positionally into the message template.
// Each printf-style verb consumes the next parameter; surplus verbs stay as-is.
func (a *APIError) Text() string {
	if a == nil {
		return ""
	}
	var b strings.Builder
	msg := a.Message
	next := 0
	for i := 0; i < len(msg); i++ {
		c := msg[i]
		if c != '%' || i+1 >= len(msg) {
			b.WriteByte(c)
			continue
		}
		verb := msg[i+1]
		switch {
		case verb == '%':
			b.WriteByte('%')
			i++
		case isVerb(verb) && next < len(a.Parameters):
			b.WriteString(fmt.Sprint(a.Parameters[next]))
			next++
			i++
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

func isVerb(c byte) bool {
	switch c {
	case 's', 'd', 'v', 'f', 'r':
		return true
	}
	return false
}

// ParseAPIError extracts the structured error from a response body. It returns
// false when the body is not JSON or carries no "error" object.
func ParseAPIError(body []byte) (*APIError, bool) {
	var doc struct {
		Error *APIError `json:"error"`
	}
	if err := json.Unmarshal(body, &doc); err != nil || doc.Error == nil {
		return nil, false
	}
	return doc.Error, true
}
