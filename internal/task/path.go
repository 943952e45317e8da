// Copyright (c) 2025 gdc authors
// Licensed under the MIT License. See LICENSE file in the project root for details.

package task

import (
	"encoding/json"
	"fmt"
	"strings"
)

// FieldPath is an ordered list of object keys leading to a task's status value,
// e.g. ["wTaskStatus", "status"].
type FieldPath []string

// ParsePath splits a dotted path such as "taskState.status".
func ParsePath(dotted string) FieldPath {
	if strings.TrimSpace(dotted) == "" {
		return nil
	}
	return FieldPath(strings.Split(dotted, "."))
}

func (p FieldPath) String() string { return strings.Join(p, ".") }

// Extract descends a decoded JSON document along the path and returns the final
// value, which must be a string.
func (p FieldPath) Extract(doc any) (string, error) {
	if len(p) == 0 {
		return "", fmt.Errorf("empty status path")
	}
	cur := doc
	for i, key := range p {
		obj, ok := cur.(map[string]any)
		if !ok {
			return "", fmt.Errorf("status path %s: %s is not an object", p, FieldPath(p[:i]))
		}
		cur, ok = obj[key]
		if !ok {
			return "", fmt.Errorf("status path %s: missing key %q", p, key)
		}
	}
	s, ok := cur.(string)
	if !ok {
		return "", fmt.Errorf("status path %s: value is %T, not a string", p, cur)
	}
	return s, nil
}

// ExtractBytes decodes body and extracts the status along the path.
func (p FieldPath) ExtractBytes(body []byte) (string, error) {
	var doc any
	if err := json.Unmarshal(body, &doc); err != nil {
		return "", fmt.Errorf("decode task status: %w", err)
	}
	return p.Extract(doc)
}
