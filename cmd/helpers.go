// Copyright (c) 2025 gdc authors
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"gooddata/cli/internal/auth"
	"gooddata/cli/internal/config"
	"gooddata/cli/internal/keychain"
	"gooddata/cli/internal/project"
	"gooddata/cli/internal/session"
	"gooddata/cli/internal/staging"
	"gooddata/cli/internal/task"
	"gooddata/cli/internal/xdg"

	"github.com/pterm/pterm"
)

// app is the per-invocation state built by the root command's pre-run hook.
type app struct {
	cfg config.Config
	log *pterm.Logger
}

var rt *app

var errNoProject = errors.New("no project selected: pass --project or set 'project' in the config file")

func (a *app) sessionOptions() []session.Option {
	return []session.Option{
		session.WithHTTPClient(&http.Client{Timeout: a.cfg.HTTPTimeout}),
		session.WithLogger(a.log),
	}
}

func (a *app) authService() (*auth.Service, error) {
	km, err := keychain.GetManager()
	if err != nil {
		return nil, err
	}
	return auth.NewService(km, a.cfg.Host, a.sessionOptions()...), nil
}

// session logs in with the resolved credentials.
func (a *app) session(ctx context.Context) (*session.Manager, error) {
	svc, err := a.authService()
	if err != nil {
		return nil, err
	}
	m, err := svc.Session(ctx, session.Credentials{Username: flagUsername})
	if err != nil {
		return nil, err
	}
	a.log.Debug("logged in", a.log.Args("account", m.Username(), "host", m.BaseURL()))
	return m, nil
}

// projects returns an executor whose task polls report to hook.
func (a *app) projects(sess project.Session, hook func(task.Handle, string)) *project.Client {
	opts := []project.Option{project.WithLogger(a.log)}
	if hook != nil {
		opts = append(opts, project.WithPollOptions(task.WithStatusHook(hook)))
	}
	return project.NewClient(sess, a.cfg.Poll.Task(), opts...)
}

func (a *app) staging(sess *session.Manager) *staging.Client {
	return staging.New(a.cfg.StagingHost, sess, staging.WithLogger(a.log))
}

// projectID returns the selected project identifier.
func (a *app) projectID() (string, error) {
	id := strings.TrimSpace(a.cfg.Project)
	if id == "" {
		return "", errNoProject
	}
	return id, nil
}

// readScript returns the script given inline, from --file, or from stdin ("-").
func readScript(args []string, file string) (string, error) {
	switch {
	case file == "-":
		b, err := io.ReadAll(os.Stdin)
		return strings.TrimSpace(string(b)), err
	case file != "":
		b, err := os.ReadFile(file)
		if err != nil {
			return "", fmt.Errorf("read script: %w", err)
		}
		return strings.TrimSpace(string(b)), nil
	case len(args) > 0:
		return strings.TrimSpace(strings.Join(args, " ")), nil
	}
	return "", errors.New("no script given: pass it as an argument or with --file")
}

const lastStagedFile = "last_staged"

// rememberStaged records dir so integrate and unstage can default to it.
func rememberStaged(dir string) {
	d, err := xdg.StateDir()
	if err != nil {
		return
	}
	if err := os.WriteFile(filepath.Join(d, lastStagedFile), []byte(dir+"\n"), 0o600); err != nil {
		rt.log.Debug("could not record staged directory", rt.log.Args("error", err))
	}
}

// stagedDir returns args[0], or the directory recorded by the last upload.
func stagedDir(args []string) (string, error) {
	if len(args) == 1 {
		return args[0], nil
	}
	d, err := xdg.StateDir()
	if err != nil {
		return "", err
	}
	b, err := os.ReadFile(filepath.Join(d, lastStagedFile))
	if err != nil || strings.TrimSpace(string(b)) == "" {
		return "", errors.New("no staging directory given and no previous upload recorded")
	}
	return strings.TrimSpace(string(b)), nil
}
