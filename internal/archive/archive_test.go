// Copyright (c) 2025 gdc authors
// Licensed under the MIT License. See LICENSE file in the project root for details.

package archive

import (
	"archive/zip"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readEntries(t *testing.T, path string) map[string]string {
	t.Helper()
	zr, err := zip.OpenReader(path)
	require.NoError(t, err)
	defer zr.Close()
	out := make(map[string]string)
	for _, f := range zr.File {
		rc, err := f.Open()
		require.NoError(t, err)
		b, err := io.ReadAll(rc)
		rc.Close()
		require.NoError(t, err)
		out[f.Name] = string(b)
	}
	return out
}

func TestPack(t *testing.T) {
	dir := t.TempDir()
	csvPath := filepath.Join(dir, "kept.csv")
	data := []byte("id,created,updated\n1,2024-03-05T10:11:12Z,03/07/2024\n2,,2024-03-08\n")
	manifest := map[string]any{"dataSetSLIManifest": map[string]any{"dataSet": "dataset.sales"}}

	path, err := Packer{Dir: dir}.Pack(data, manifest, Options{
		Dates:     []string{"updated"},
		Datetimes: []string{"created"},
		KeepCSV:   true,
		CSVPath:   csvPath,
	})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(filepath.Base(path), Prefix))
	assert.Equal(t, dir, filepath.Dir(path))

	entries := readEntries(t, path)
	want := "id,created,updated\n1,2024-03-05 10:11:12,2024-03-07\n2,,2024-03-08\n"
	assert.Equal(t, want, entries[DataFile])
	assert.JSONEq(t, `{"dataSetSLIManifest":{"dataSet":"dataset.sales"}}`, entries[ManifestFile])

	kept, err := os.ReadFile(csvPath)
	require.NoError(t, err)
	assert.Equal(t, want, string(kept))
}

func TestPackUniqueNames(t *testing.T) {
	dir := t.TempDir()
	a, err := Packer{Dir: dir}.Pack([]byte("a\n1\n"), nil, Options{})
	require.NoError(t, err)
	b, err := Packer{Dir: dir}.Pack([]byte("a\n1\n"), nil, Options{})
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestPackKeepCSVNeedsPath(t *testing.T) {
	_, err := Packer{Dir: t.TempDir()}.Pack([]byte("a\n"), nil, Options{KeepCSV: true})
	assert.Error(t, err)
}

func TestNormalise(t *testing.T) {
	tests := []struct {
		name      string
		in        string
		dates     []string
		datetimes []string
		want      string
		wantErr   bool
	}{
		{name: "untouched without columns", in: "a,b\n1,2\n", want: "a,b\n1,2\n"},
		{name: "date from datetime", in: "d\n2024-01-02 03:04:05\n", dates: []string{"d"}, want: "d\n2024-01-02\n"},
		{name: "datetime from date", in: "t\n2024-01-02\n", datetimes: []string{"t"}, want: "t\n2024-01-02 00:00:00\n"},
		{name: "unknown column", in: "a\n1\n", dates: []string{"missing"}, wantErr: true},
		{name: "bad value", in: "d\nyesterday\n", dates: []string{"d"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Normalise([]byte(tt.in), tt.dates, tt.datetimes)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(got))
		})
	}
}

func TestManifestIsJSON(t *testing.T) {
	path, err := Packer{Dir: t.TempDir()}.Pack([]byte("a\n1\n"), map[string]any{"columns": []string{"a"}}, Options{})
	require.NoError(t, err)
	var m map[string]any
	require.NoError(t, json.Unmarshal([]byte(readEntries(t, path)[ManifestFile]), &m))
	assert.Equal(t, []any{"a"}, m["columns"])
}
