// Copyright (c) 2025 gdc authors
// Licensed under the MIT License. See LICENSE file in the project root for details.

package loader

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"gooddata/cli/internal/archive"
	gderrors "gooddata/cli/internal/errors"
	"gooddata/cli/internal/platformtest"
	"gooddata/cli/internal/project"
	"gooddata/cli/internal/session"
	"gooddata/cli/internal/staging"
	"gooddata/cli/internal/task"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadRoundTrip(t *testing.T) {
	api := platformtest.New(t, "joe", "pw")
	api.JSON(http.MethodPost, "/gdc/md/p1/etl/pull", http.StatusCreated, map[string]any{"pullTask": map[string]any{"uri": "/pull/1"}})
	api.JSON(http.MethodGet, "/pull/1", http.StatusOK, map[string]any{"taskStatus": "OK"})

	var (
		mu     sync.Mutex
		mkcols []string
	)
	dav := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == "MKCOL" {
			mu.Lock()
			mkcols = append(mkcols, r.URL.Path)
			mu.Unlock()
		}
		w.WriteHeader(http.StatusCreated)
	}))
	t.Cleanup(dav.Close)

	sess := session.New(api.URL, session.Credentials{Username: "joe", Password: "pw"})
	require.NoError(t, sess.Login(context.Background()))
	poll := task.Config{Interval: time.Millisecond, Multiplier: 1, MaxInterval: time.Millisecond, Timeout: time.Second}

	l := &Loader{
		Stager:     staging.New(dav.URL, sess, staging.WithPacker(archive.Packer{Dir: t.TempDir()})),
		Integrator: project.NewClient(sess, poll).Load("p1"),
	}
	res, err := l.Load(context.Background(), []byte("id\n1\n"), map[string]any{}, staging.Options{})
	require.NoError(t, err)
	assert.False(t, res.DryRun)
	assert.True(t, strings.HasPrefix(res.Dir, archive.Prefix))

	require.Len(t, mkcols, 1)
	assert.Equal(t, "/uploads/"+res.Dir+"/", mkcols[0])

	pulls := api.Calls(http.MethodPost, "/gdc/md/p1/etl/pull")
	require.Len(t, pulls, 1)
	var body map[string]string
	require.NoError(t, json.Unmarshal(pulls[0].Body, &body))
	assert.Equal(t, res.Dir, body["pullIntegration"])
}

type stubStager struct{ dir string }

func (s stubStager) Stage(context.Context, []byte, map[string]any, staging.Options) (string, error) {
	return s.dir, nil
}

type recordingIntegrator struct {
	dirs []string
	err  error
}

func (r *recordingIntegrator) IntegrateUploadedData(_ context.Context, dir string, _ ...project.ExecOption) error {
	r.dirs = append(r.dirs, dir)
	return r.err
}

func TestLoadDryRunSkipsIntegration(t *testing.T) {
	integ := &recordingIntegrator{}
	l := &Loader{Stager: stubStager{dir: "/tmp/out.csv"}, Integrator: integ}

	res, err := l.Load(context.Background(), nil, nil, staging.Options{NoUpload: true})
	require.NoError(t, err)
	assert.True(t, res.DryRun)
	assert.Equal(t, "/tmp/out.csv", res.Dir)
	assert.Empty(t, integ.dirs)
}

func TestLoadIntegrationFailureKeepsDir(t *testing.T) {
	integ := &recordingIntegrator{err: gderrors.New(gderrors.IntegrationFailed, "boom")}
	l := &Loader{Stager: stubStager{dir: "gdc-9"}, Integrator: integ}

	res, err := l.Load(context.Background(), nil, nil, staging.Options{})
	assert.True(t, gderrors.IsKind(err, gderrors.IntegrationFailed))
	assert.Equal(t, "gdc-9", res.Dir)
	assert.Equal(t, []string{"gdc-9"}, integ.dirs)
}
