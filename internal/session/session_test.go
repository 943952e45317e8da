// Copyright (c) 2025 gdc authors
// Licensed under the MIT License. See LICENSE file in the project root for details.

package session

import (
	"context"
	"net/http"
	"testing"

	gderrors "gooddata/cli/internal/errors"
	"gooddata/cli/internal/platformtest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoginThenAuthenticatedCall(t *testing.T) {
	srv := platformtest.New(t, "joe@example.com", "secret")
	srv.JSON(http.MethodGet, "/gdc/md/", http.StatusOK, map[string]any{"about": map[string]any{"links": []any{}}})

	m := New(srv.URL, Credentials{Username: "joe@example.com", Password: "secret"})
	require.NoError(t, m.Login(context.Background()))
	assert.True(t, m.LoggedIn())

	resp, err := m.GetMetadata(context.Background())
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 1, srv.Count(http.MethodGet, "/gdc/account/token"))
}

func TestLoginInvalidCredentials(t *testing.T) {
	srv := platformtest.New(t, "joe@example.com", "secret")
	srv.JSON(http.MethodGet, "/gdc/md/", http.StatusOK, map[string]any{})

	m := New(srv.URL, Credentials{Username: "joe@example.com", Password: "wrong"})
	err := m.Login(context.Background())
	require.Error(t, err)
	assert.True(t, gderrors.IsKind(err, gderrors.AuthenticationFailed))
	assert.Contains(t, err.Error(), "Bad login or password for joe@example.com")
	assert.False(t, m.LoggedIn())
	assert.Equal(t, 0, srv.Count(http.MethodGet, "/gdc/account/token"))

	// no cookie state is retained, so authenticated calls are refused
	_, err = m.GetMetadata(context.Background())
	require.Error(t, err)
	assert.True(t, IsSessionExpired(err))
}

func TestLoginFailedRelogDropsPreviousSession(t *testing.T) {
	srv := platformtest.New(t, "joe@example.com", "secret")
	m := New(srv.URL, Credentials{Username: "joe@example.com", Password: "secret"})
	require.NoError(t, m.Login(context.Background()))

	srv.Close()
	err := m.Relogin(context.Background())
	require.Error(t, err)
	assert.True(t, gderrors.IsKind(err, gderrors.ServiceUnavailable))
	assert.False(t, m.LoggedIn())
}

func TestErrorClassification(t *testing.T) {
	srv := platformtest.New(t, "u", "p")
	srv.Handle(http.MethodPost, "/gdc/md/p1/maqlvalidator", func(w http.ResponseWriter, r *http.Request) {
		platformtest.WriteError(w, http.StatusBadRequest, "Dataset %s has no %s", "sales", "attribute")
	})
	srv.Handle(http.MethodPost, "/gdc/projects", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("<html>502 Bad Gateway</html>"))
	})

	m := New(srv.URL, Credentials{Username: "u", Password: "p"})
	require.NoError(t, m.Login(context.Background()))

	t.Run("structured api error", func(t *testing.T) {
		_, err := m.Post(context.Background(), "/gdc/md/p1/maqlvalidator", map[string]string{"expression": "x"},
			WithErrorKind(gderrors.ValidationFailed), WithErrorContext("maql", "x"))
		var e *gderrors.E
		require.ErrorAs(t, err, &e)
		assert.Equal(t, gderrors.ValidationFailed, e.Kind)
		assert.Equal(t, http.StatusBadRequest, e.StatusCode)
		assert.Equal(t, "Dataset sales has no attribute", e.Message)
		require.NotNil(t, e.API)
		assert.Equal(t, "x", e.Context["maql"])
		assert.Equal(t, "/gdc/md/p1/maqlvalidator", e.URI)
	})

	t.Run("raw body fallback", func(t *testing.T) {
		_, err := m.Post(context.Background(), "/gdc/projects", map[string]string{}, WithErrorKind(gderrors.ProjectCreationFailed))
		var e *gderrors.E
		require.ErrorAs(t, err, &e)
		assert.Equal(t, gderrors.ProjectCreationFailed, e.Kind)
		assert.Nil(t, e.API)
		assert.Contains(t, e.Message, "502 Bad Gateway")
	})

	t.Run("strict body escalates", func(t *testing.T) {
		_, err := m.Post(context.Background(), "/gdc/projects", map[string]string{},
			WithErrorKind(gderrors.ProjectCreationFailed), WithStrictBody())
		assert.True(t, gderrors.IsKind(err, gderrors.ServiceUnavailable))
	})

	t.Run("default kind", func(t *testing.T) {
		_, err := m.Delete(context.Background(), "/gdc/projects/none")
		assert.True(t, gderrors.IsKind(err, gderrors.RequestFailed))
	})
}

func TestUnreachableHost(t *testing.T) {
	srv := platformtest.New(t, "u", "p")
	url := srv.URL
	srv.Close()

	m := New(url, Credentials{Username: "u", Password: "p"})
	_, err := m.Get(context.Background(), "/gdc/md/")
	require.Error(t, err)
	assert.True(t, gderrors.IsKind(err, gderrors.ServiceUnavailable))
	assert.False(t, IsSessionExpired(err))
}

func TestCancelledContextIsNotServiceUnavailable(t *testing.T) {
	srv := platformtest.New(t, "u", "p")
	m := New(srv.URL, Credentials{Username: "u", Password: "p"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := m.Get(ctx, "/gdc/md/")
	require.ErrorIs(t, err, context.Canceled)
	assert.False(t, gderrors.IsKind(err, gderrors.ServiceUnavailable))
}

func TestRetryReloginsOnceOnExpiry(t *testing.T) {
	srv := platformtest.New(t, "u", "p")
	srv.JSON(http.MethodGet, "/gdc/md/", http.StatusOK, map[string]any{})

	m := New(srv.URL, Credentials{Username: "u", Password: "p"})
	require.NoError(t, m.Login(context.Background()))
	srv.Expire()

	calls := 0
	resp, err := Retry(context.Background(), m, func(ctx context.Context) (*Response, error) {
		calls++
		return m.GetMetadata(ctx)
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 2, calls)
	assert.Equal(t, 2, srv.Logins())
}

func TestRetrySurfacesSecondExpiry(t *testing.T) {
	srv := platformtest.New(t, "u", "p")
	srv.Handle(http.MethodGet, "/gdc/md/", func(w http.ResponseWriter, r *http.Request) {
		platformtest.WriteError(w, http.StatusUnauthorized, "Not authorized")
	})

	m := New(srv.URL, Credentials{Username: "u", Password: "p"})
	require.NoError(t, m.Login(context.Background()))

	calls := 0
	_, err := Retry(context.Background(), m, func(ctx context.Context) (*Response, error) {
		calls++
		return m.GetMetadata(ctx)
	})
	require.Error(t, err)
	assert.True(t, IsSessionExpired(err))
	assert.Equal(t, 2, calls)
	assert.Equal(t, 2, srv.Logins())
}

func TestRetryPassesThroughOtherErrors(t *testing.T) {
	srv := platformtest.New(t, "u", "p")
	m := New(srv.URL, Credentials{Username: "u", Password: "p"})
	require.NoError(t, m.Login(context.Background()))

	calls := 0
	_, err := Retry(context.Background(), m, func(ctx context.Context) (*Response, error) {
		calls++
		return m.Get(ctx, "/gdc/missing")
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
	assert.Equal(t, 1, srv.Logins())
}

func TestDoUsesBasicAuth(t *testing.T) {
	var user, pass string
	var ok bool
	srv := platformtest.New(t, "u", "p")
	srv.Handle("MKCOL", "/uploads/dir/", func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok = r.BasicAuth()
		w.WriteHeader(http.StatusCreated)
	})

	m := New(srv.URL, Credentials{Username: "u", Password: "p"})
	require.NoError(t, m.Login(context.Background()))

	req, err := http.NewRequest("MKCOL", srv.URL+"/uploads/dir/", nil)
	require.NoError(t, err)
	resp, err := m.Do(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.True(t, ok)
	assert.Equal(t, "u", user)
	assert.Equal(t, "p", pass)
}
