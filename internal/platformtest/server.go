// Copyright (c) 2025 gdc authors
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package platformtest provides an in-process fake of the GoodData platform API
// for tests: cookie-based login and token refresh, session expiry, and scripted
// handlers for project, MAQL, DML and pull-integration endpoints.
package platformtest

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

const (
	sstCookie = "GDCAuthSST"
	ttCookie  = "GDCAuthTT"
)

// Call records one request received by the fake.
type Call struct {
	Method string
	Path   string
	Body   []byte
}

// Server is a fake platform API.
type Server struct {
	*httptest.Server

	mu       sync.Mutex
	username string
	password string
	logins   int
	tokens   int
	tt       string
	calls    []Call
	routes   map[string]http.HandlerFunc
}

// New starts a fake platform accepting the given credentials. It is closed
// automatically when the test ends.
func New(t testing.TB, username, password string) *Server {
	t.Helper()
	s := &Server{
		username: username,
		password: password,
		routes:   make(map[string]http.HandlerFunc),
	}
	s.Server = httptest.NewServer(http.HandlerFunc(s.serve))
	t.Cleanup(s.Close)
	return s
}

// Handle registers a handler for an authenticated method + path.
func (s *Server) Handle(method, path string, h http.HandlerFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.routes[method+" "+path] = h
}

// JSON registers a handler answering with a fixed status and JSON document.
func (s *Server) JSON(method, path string, status int, body any) {
	s.Handle(method, path, func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, status, body)
	})
}

// Sequence registers a handler answering with the given documents in order,
// repeating the last one once exhausted.
func (s *Server) Sequence(method, path string, bodies ...any) {
	var mu sync.Mutex
	i := 0
	s.Handle(method, path, func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		body := bodies[min(i, len(bodies)-1)]
		i++
		mu.Unlock()
		WriteJSON(w, http.StatusOK, body)
	})
}

// Expire invalidates the current session so the next authenticated request
// receives 401 until a new login happens.
func (s *Server) Expire() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tt = ""
}

// Logins returns how many successful login submissions were received.
func (s *Server) Logins() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.logins
}

// Calls returns the requests received for method + path.
func (s *Server) Calls(method, path string) []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Call
	for _, c := range s.calls {
		if c.Method == method && c.Path == path {
			out = append(out, c)
		}
	}
	return out
}

// Count returns how many requests were received for method + path.
func (s *Server) Count(method, path string) int {
	return len(s.Calls(method, path))
}

func (s *Server) serve(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)

	s.mu.Lock()
	s.calls = append(s.calls, Call{Method: r.Method, Path: r.URL.Path, Body: body})
	s.mu.Unlock()

	switch r.URL.Path {
	case "/gdc/account/login":
		s.login(w, body)
		return
	case "/gdc/account/token":
		s.token(w, r)
		return
	}

	s.mu.Lock()
	authorized := s.tt != "" && hasCookie(r, ttCookie, s.tt)
	h := s.routes[r.Method+" "+r.URL.Path]
	s.mu.Unlock()

	if !authorized {
		WriteError(w, http.StatusUnauthorized, "Session %s expired", "TT")
		return
	}
	if h == nil {
		WriteError(w, http.StatusNotFound, "Resource %s not found", r.URL.Path)
		return
	}
	h(w, r)
}

func (s *Server) login(w http.ResponseWriter, body []byte) {
	var req struct {
		PostUserLogin struct {
			Login    string `json:"login"`
			Password string `json:"password"`
		} `json:"postUserLogin"`
	}
	if err := json.Unmarshal(body, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "Malformed %s", "login")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if req.PostUserLogin.Login != s.username || req.PostUserLogin.Password != s.password {
		WriteError(w, http.StatusUnauthorized, "Bad login or password for %s", req.PostUserLogin.Login)
		return
	}
	s.logins++
	http.SetCookie(w, &http.Cookie{Name: sstCookie, Value: fmt.Sprintf("sst-%d", s.logins), Path: "/"})
	WriteJSON(w, http.StatusOK, map[string]any{"userLogin": map[string]any{"state": "/gdc/account/login/1"}})
}

func (s *Server) token(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !hasCookie(r, sstCookie, fmt.Sprintf("sst-%d", s.logins)) {
		WriteError(w, http.StatusUnauthorized, "Missing %s", sstCookie)
		return
	}
	s.tokens++
	s.tt = fmt.Sprintf("tt-%d", s.tokens)
	http.SetCookie(w, &http.Cookie{Name: ttCookie, Value: s.tt, Path: "/"})
	WriteJSON(w, http.StatusOK, map[string]any{"userToken": map[string]any{"token": s.tt}})
}

func hasCookie(r *http.Request, name, value string) bool {
	c, err := r.Cookie(name)
	return err == nil && c.Value == value
}

// WriteJSON writes a JSON document with the given status.
func WriteJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// WriteError writes a platform error document.
func WriteError(w http.ResponseWriter, status int, message string, params ...any) {
	if params == nil {
		params = []any{}
	}
	WriteJSON(w, status, map[string]any{
		"error": map[string]any{
			"message":    message,
			"parameters": params,
			"errorClass": "com.gooddata.exception.TestException",
		},
	})
}
