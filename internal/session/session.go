// Copyright (c) 2025 gdc authors
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package session owns the authenticated connection to the GoodData platform.
// It performs login and re-login, keeps the session cookie jar, and turns every
// HTTP failure into a typed *errors.E so callers never inspect raw responses.
//
// The cookie jar is a single mutable cell: login builds a fresh jar and swaps it in
// atomically only after both the login and the token refresh succeeded, so a
// request racing a relogin sees either the old or the new session, never a
// half-initialised one.
package session

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"sync/atomic"
	"time"

	gderrors "gooddata/cli/internal/errors"
	"gooddata/cli/internal/logging"

	"github.com/pterm/pterm"
)

// DefaultHost is the production platform API host.
const DefaultHost = "https://secure.gooddata.com"

// Credentials identify the account. They are supplied once and never change for
// the lifetime of a Manager.
type Credentials struct {
	Username string
	Password string
}

// Endpoints contains the account URIs used to establish a session.
type Endpoints struct {
	Login    string // e.g., "/gdc/account/login"
	Token    string // e.g., "/gdc/account/token"
	Metadata string // e.g., "/gdc/md/"
}

// DefaultEndpoints are the platform's account URIs.
var DefaultEndpoints = Endpoints{
	Login:    "/gdc/account/login",
	Token:    "/gdc/account/token",
	Metadata: "/gdc/md/",
}

// Manager performs authenticated requests against the platform API.
type Manager struct {
	// baseURL is the base URL for all relative URIs (e.g., "https://secure.gooddata.com")
	baseURL string
	creds   Credentials
	// endpoints contains the account URIs
	endpoints Endpoints
	// client is the underlying transport; its Jar is ignored in favour of jar
	client *http.Client
	// jar is the cookie jar of the current session, nil before login
	jar atomic.Pointer[cookiejar.Jar]
	log *pterm.Logger
}

// Option configures a Manager.
type Option func(*Manager)

// WithHTTPClient sets the transport used for every request.
func WithHTTPClient(c *http.Client) Option {
	return func(m *Manager) { m.client = c }
}

// WithLogger sets the debug logger.
func WithLogger(l *pterm.Logger) Option {
	return func(m *Manager) { m.log = l }
}

// WithEndpoints overrides the account URIs.
func WithEndpoints(e Endpoints) Option {
	return func(m *Manager) { m.endpoints = e }
}

// New creates a session manager. No request is made until Login.
func New(baseURL string, creds Credentials, opts ...Option) *Manager {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultHost
	}
	m := &Manager{
		baseURL:   strings.TrimRight(baseURL, "/"),
		creds:     creds,
		endpoints: DefaultEndpoints,
		client:    &http.Client{Timeout: 60 * time.Second},
		log:       logging.Discard(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Username returns the account the session authenticates as.
func (m *Manager) Username() string { return m.creds.Username }

// BaseURL returns the API host the session talks to.
func (m *Manager) BaseURL() string { return m.baseURL }

// LoggedIn reports whether a session cookie jar is installed.
func (m *Manager) LoggedIn() bool { return m.jar.Load() != nil }

// Login submits the credentials, then confirms the session with a token refresh.
// The new cookie jar is installed only when both calls succeed; on failure any
// previous session state is dropped.
func (m *Manager) Login(ctx context.Context) error {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return err
	}
	body := map[string]any{
		"postUserLogin": map[string]any{
			"login":    m.creds.Username,
			"password": m.creds.Password,
			"remember": 1,
		},
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}

	if _, err := m.send(ctx, jar, http.MethodPost, m.endpoints.Login, payload, WithErrorKind(gderrors.AuthenticationFailed)); err != nil {
		m.jar.Store(nil)
		return err
	}
	if _, err := m.send(ctx, jar, http.MethodGet, m.endpoints.Token, nil, WithErrorKind(gderrors.AuthenticationFailed)); err != nil {
		m.jar.Store(nil)
		return err
	}
	m.jar.Store(jar)
	m.log.Debug("logged in", m.log.Args("user", m.creds.Username))
	return nil
}

// Relogin performs a single login with the stored credentials. It is the silent
// recovery path for an expired session; there is no backoff and no retry loop.
func (m *Manager) Relogin(ctx context.Context) error {
	m.log.Debug("session expired, logging in again", m.log.Args("user", m.creds.Username))
	return m.Login(ctx)
}

// Get performs an authenticated GET of a URI relative to the API host.
func (m *Manager) Get(ctx context.Context, uri string, opts ...CallOption) (*Response, error) {
	return m.send(ctx, m.jar.Load(), http.MethodGet, uri, nil, opts...)
}

// Post JSON-encodes body and performs an authenticated POST.
func (m *Manager) Post(ctx context.Context, uri string, body any, opts ...CallOption) (*Response, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode request for %s: %w", uri, err)
	}
	return m.send(ctx, m.jar.Load(), http.MethodPost, uri, payload, opts...)
}

// Delete performs an authenticated DELETE. Failures carry the RequestFailed kind
// unless the caller supplies another.
func (m *Manager) Delete(ctx context.Context, uri string, opts ...CallOption) (*Response, error) {
	return m.send(ctx, m.jar.Load(), http.MethodDelete, uri, nil, opts...)
}

// GetMetadata fetches the metadata root document listing the projects the
// account can see.
func (m *Manager) GetMetadata(ctx context.Context) (*Response, error) {
	return m.Get(ctx, m.endpoints.Metadata)
}

func (m *Manager) send(ctx context.Context, jar *cookiejar.Jar, method, uri string, payload []byte, opts ...CallOption) (*Response, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, m.baseURL+uri, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	return m.do(req, jar, uri, opts...)
}

// Do sends a prepared request (usually to another host, e.g. the staging
// service) with the session's basic credentials and current cookies, classifying
// failures the same way as Get and Post.
func (m *Manager) Do(req *http.Request, opts ...CallOption) (*Response, error) {
	return m.do(req, m.jar.Load(), req.URL.String(), opts...)
}

func (m *Manager) do(req *http.Request, jar *cookiejar.Jar, uri string, opts ...CallOption) (*Response, error) {
	cfg := callConfig{kind: gderrors.RequestFailed}
	for _, opt := range opts {
		opt(&cfg)
	}

	m.log.Debug(req.Method, m.log.Args("uri", uri))

	req.SetBasicAuth(m.creds.Username, m.creds.Password)
	client := *m.client
	client.Jar = nil
	if jar != nil {
		client.Jar = jar
	}

	resp, err := client.Do(req)
	if err != nil {
		if ctxErr := req.Context().Err(); ctxErr != nil {
			return nil, ctxErr
		}
		e := gderrors.Wrap(gderrors.ServiceUnavailable, fmt.Sprintf("%s %s: platform unreachable", req.Method, uri), err)
		e.URI = uri
		return nil, e
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		e := gderrors.Wrap(gderrors.ServiceUnavailable, fmt.Sprintf("%s %s: reading response", req.Method, uri), err)
		e.URI = uri
		return nil, e
	}

	out := &Response{StatusCode: resp.StatusCode, Header: resp.Header, Body: data}
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return out, nil
	}
	return nil, cfg.classify(req.Method, uri, out)
}
