// Copyright (c) 2025 gdc authors
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package archive packs a CSV payload and its column manifest into the zip
// layout the staging service ingests: data.csv next to upload_info.json.
package archive

import (
	"archive/zip"
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	// DataFile is the CSV entry inside the archive.
	DataFile = "data.csv"
	// ManifestFile is the column manifest entry inside the archive.
	ManifestFile = "upload_info.json"
	// Prefix starts every generated archive name.
	Prefix = "gdc-"

	dateLayout     = "2006-01-02"
	datetimeLayout = "2006-01-02 15:04:05"
)

// Options controls how the payload is packed.
type Options struct {
	// Dates lists columns normalised to yyyy-MM-dd.
	Dates []string
	// Datetimes lists columns normalised to yyyy-MM-dd HH:mm:ss.
	Datetimes []string
	// KeepCSV also writes the normalised CSV to CSVPath.
	KeepCSV bool
	CSVPath string
}

// Packer writes archives into Dir (the system temp dir when empty).
type Packer struct {
	Dir string
}

// Pack writes the archive to a uniquely named file and returns its path. The
// base name of that path doubles as the staging directory name.
func (p Packer) Pack(data []byte, manifest map[string]any, opts Options) (string, error) {
	normalised, err := Normalise(data, opts.Dates, opts.Datetimes)
	if err != nil {
		return "", err
	}
	if opts.KeepCSV {
		if opts.CSVPath == "" {
			return "", fmt.Errorf("keep csv requested without a csv path")
		}
		if err := os.WriteFile(opts.CSVPath, normalised, 0o644); err != nil {
			return "", fmt.Errorf("write csv copy: %w", err)
		}
	}

	manifestJSON, err := json.Marshal(manifest)
	if err != nil {
		return "", fmt.Errorf("encode manifest: %w", err)
	}

	dir := p.Dir
	if dir == "" {
		dir = os.TempDir()
	}
	path := filepath.Join(dir, Prefix+uuid.NewString())
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		return "", fmt.Errorf("create archive: %w", err)
	}

	if err := write(f, normalised, manifestJSON); err != nil {
		f.Close()
		os.Remove(path)
		return "", err
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("close archive: %w", err)
	}
	return path, nil
}

func write(w io.Writer, data, manifest []byte) error {
	zw := zip.NewWriter(w)
	for _, entry := range []struct {
		name string
		body []byte
	}{
		{DataFile, data},
		{ManifestFile, manifest},
	} {
		fw, err := zw.Create(entry.name)
		if err != nil {
			return fmt.Errorf("add %s: %w", entry.name, err)
		}
		if _, err := fw.Write(entry.body); err != nil {
			return fmt.Errorf("write %s: %w", entry.name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("finish archive: %w", err)
	}
	return nil
}

// inputLayouts are the date and time shapes accepted in date columns.
var inputLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
	"01/02/2006",
}

// Normalise rewrites the date and datetime columns of a CSV document, the first
// record being the header. Empty cells stay empty.
func Normalise(data []byte, dates, datetimes []string) ([]byte, error) {
	if len(dates) == 0 && len(datetimes) == 0 {
		return data, nil
	}
	r := csv.NewReader(bytes.NewReader(data))
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	if len(records) == 0 {
		return data, nil
	}

	layouts := make(map[int]string)
	for i, col := range records[0] {
		switch {
		case slices.Contains(dates, col):
			layouts[i] = dateLayout
		case slices.Contains(datetimes, col):
			layouts[i] = datetimeLayout
		}
	}
	for _, col := range append(slices.Clone(dates), datetimes...) {
		if !slices.Contains(records[0], col) {
			return nil, fmt.Errorf("column %q not in csv header", col)
		}
	}

	for line, rec := range records[1:] {
		for i, layout := range layouts {
			if i >= len(rec) || strings.TrimSpace(rec[i]) == "" {
				continue
			}
			t, err := parseTime(rec[i])
			if err != nil {
				return nil, fmt.Errorf("line %d column %q: %w", line+2, records[0][i], err)
			}
			rec[i] = t.Format(layout)
		}
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.WriteAll(records); err != nil {
		return nil, fmt.Errorf("write csv: %w", err)
	}
	return buf.Bytes(), nil
}

func parseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range inputLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q", s)
}
