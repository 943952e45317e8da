package cmd

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	gderrors "gooddata/cli/internal/errors"
	"gooddata/cli/internal/logging"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadScript(t *testing.T) {
	got, err := readScript([]string{"CREATE DATASET {dataset.x};"}, "")
	require.NoError(t, err)
	assert.Equal(t, "CREATE DATASET {dataset.x};", got)

	path := filepath.Join(t.TempDir(), "schema.maql")
	require.NoError(t, os.WriteFile(path, []byte("\nALTER DATASET {dataset.x};\n"), 0o600))
	got, err = readScript([]string{"ignored"}, path)
	require.NoError(t, err)
	assert.Equal(t, "ALTER DATASET {dataset.x};", got)

	_, err = readScript(nil, "")
	assert.Error(t, err)
}

func TestUnion(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"}, union([]string{"a", "b"}, []string{"b", "c"}))
	assert.Equal(t, []string{"x"}, union(nil, []string{"x"}))
}

func TestStagedDirRemembersLastUpload(t *testing.T) {
	t.Setenv("XDG_STATE_HOME", t.TempDir())
	rt = &app{log: logging.Discard()}

	_, err := stagedDir(nil)
	assert.Error(t, err)

	rememberStaged("gdc-5f0c1d2e")
	got, err := stagedDir(nil)
	require.NoError(t, err)
	assert.Equal(t, "gdc-5f0c1d2e", got)

	got, err = stagedDir([]string{"explicit"})
	require.NoError(t, err)
	assert.Equal(t, "explicit", got)
}

func TestSetupAppliesFlagOverrides(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("host: https://file.example\nproject: fromfile\npoll:\n  timeout: 10m\n"), 0o600))

	rootCmd.SetArgs([]string{"--config", path, "--project", "fromflag", "--poll-timeout", "0", "config", "show"})
	t.Cleanup(func() { rootCmd.SetArgs(nil) })
	require.NoError(t, rootCmd.Execute())

	assert.Equal(t, "https://file.example", rt.cfg.Host)
	assert.Equal(t, "fromflag", rt.cfg.Project)
	assert.Equal(t, time.Duration(0), rt.cfg.Poll.Timeout)
	id, err := rt.projectID()
	require.NoError(t, err)
	assert.Equal(t, "fromflag", id)
}

func TestErrorReportPrintsEachFailureOnce(t *testing.T) {
	down := &gderrors.E{
		Kind:       gderrors.ServiceUnavailable,
		Message:    "POST https://secure.gooddata.com/gdc/md/p1/ldm/manage2: <html>",
		StatusCode: 503,
		URI:        "https://secure.gooddata.com/gdc/md/p1/ldm/manage2",
	}
	out := errorReport(down)
	assert.Equal(t, 1, strings.Count(out, "secure.gooddata.com returned HTTP 503"))
	assert.NotContains(t, out, "HTTP status:")

	gone := &gderrors.E{Kind: gderrors.ProjectNotOpened, Message: "project does not seem to be opened: p1", StatusCode: 404}
	out = errorReport(gone)
	assert.Equal(t, 1, strings.Count(out, "HTTP status: 404"))

	assert.Equal(t, "❌ boom", errorReport(errors.New("boom")))
}
