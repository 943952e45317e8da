// Copyright (c) 2025 gdc authors
// Licensed under the MIT License. See LICENSE file in the project root for details.

package staging

import (
	"archive/zip"
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"gooddata/cli/internal/archive"
	gderrors "gooddata/cli/internal/errors"
	"gooddata/cli/internal/session"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type request struct {
	method      string
	path        string
	contentType string
	user        string
	body        []byte
}

type webdav struct {
	mu       sync.Mutex
	requests []request
	failPut  bool
}

func (w *webdav) ServeHTTP(rw http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	user, _, _ := r.BasicAuth()
	w.mu.Lock()
	w.requests = append(w.requests, request{r.Method, r.URL.Path, r.Header.Get("Content-Type"), user, body})
	fail := w.failPut && r.Method == http.MethodPut
	w.mu.Unlock()
	switch {
	case fail:
		rw.WriteHeader(http.StatusInsufficientStorage)
	case r.Method == methodMkcol || r.Method == http.MethodPut:
		rw.WriteHeader(http.StatusCreated)
	default:
		rw.WriteHeader(http.StatusNoContent)
	}
}

func newClient(t *testing.T, dav *webdav, dir string) *Client {
	t.Helper()
	srv := httptest.NewServer(dav)
	t.Cleanup(srv.Close)
	sess := session.New("http://unused.invalid", session.Credentials{Username: "joe", Password: "pw"})
	return New(srv.URL, sess, WithPacker(archive.Packer{Dir: dir}))
}

func TestStage(t *testing.T) {
	dav := &webdav{}
	dir := t.TempDir()
	c := newClient(t, dav, dir)

	name, err := c.Stage(context.Background(), []byte("id,amount\n1,10\n"), map[string]any{"a": 1}, Options{})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(name, archive.Prefix))

	require.Len(t, dav.requests, 2)
	assert.Equal(t, methodMkcol, dav.requests[0].method)
	assert.Equal(t, "/uploads/"+name+"/", dav.requests[0].path)
	assert.Equal(t, "joe", dav.requests[0].user)

	put := dav.requests[1]
	assert.Equal(t, http.MethodPut, put.method)
	assert.Equal(t, "/uploads/"+name+"/upload.zip", put.path)
	assert.Equal(t, "application/zip", put.contentType)
	zr, err := zip.NewReader(bytes.NewReader(put.body), int64(len(put.body)))
	require.NoError(t, err)
	assert.Len(t, zr.File, 2)

	_, err = os.Stat(filepath.Join(dir, name))
	assert.True(t, os.IsNotExist(err), "local archive must be removed")
}

func TestStageRemovesArchiveOnFailure(t *testing.T) {
	dav := &webdav{failPut: true}
	dir := t.TempDir()
	c := newClient(t, dav, dir)

	_, err := c.Stage(context.Background(), []byte("id\n1\n"), nil, Options{})
	var e *gderrors.E
	require.ErrorAs(t, err, &e)
	assert.Equal(t, gderrors.UploadFailed, e.Kind)
	assert.Equal(t, http.StatusInsufficientStorage, e.StatusCode)
	assert.NotEmpty(t, e.Context["dir_name"])

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestStageNoUpload(t *testing.T) {
	dav := &webdav{}
	dir := t.TempDir()
	c := newClient(t, dav, dir)
	csvPath := filepath.Join(t.TempDir(), "inspect.csv")

	got, err := c.Stage(context.Background(), []byte("id\n1\n"), nil, Options{NoUpload: true, KeepCSV: true, CSVPath: csvPath})
	require.NoError(t, err)
	assert.Equal(t, csvPath, got)
	assert.Empty(t, dav.requests)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
	_, err = os.Stat(csvPath)
	assert.NoError(t, err)
}

func TestUnstage(t *testing.T) {
	dav := &webdav{}
	c := newClient(t, dav, t.TempDir())

	require.NoError(t, c.Unstage(context.Background(), "gdc-123"))
	require.Len(t, dav.requests, 1)
	assert.Equal(t, http.MethodDelete, dav.requests[0].method)
	assert.Equal(t, "/uploads/gdc-123/", dav.requests[0].path)
}
