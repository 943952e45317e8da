// Copyright (c) 2025 gdc authors
// Licensed under the MIT License. See LICENSE file in the project root for details.

package archive

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadManifest reads a column manifest from a YAML or JSON file. JSON is valid
// YAML, so both go through the same decoder.
func LoadManifest(path string) (map[string]any, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	return ParseManifest(b)
}

// ParseManifest decodes a manifest document. The top level must be a mapping.
func ParseManifest(b []byte) (map[string]any, error) {
	var m map[string]any
	if err := yaml.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("decode manifest: %w", err)
	}
	if len(m) == 0 {
		return nil, fmt.Errorf("decode manifest: document is empty")
	}
	return m, nil
}
