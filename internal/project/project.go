// Copyright (c) 2025 gdc authors
// Licensed under the MIT License. See LICENSE file in the project root for details.

package project

import (
	"context"
	"fmt"
	"strings"

	gderrors "gooddata/cli/internal/errors"
	"gooddata/cli/internal/session"
	"gooddata/cli/internal/task"
)

// Status paths of the task documents each operation produces.
var (
	maqlStatusPath = task.ParsePath("wTaskStatus.status")
	dmlStatusPath  = task.ParsePath("taskState.status")
	pullStatusPath = task.ParsePath("taskStatus")
)

// Project is a handle on one remote project. It is immutable once loaded.
type Project struct {
	client *Client
	id     string
}

// ID returns the project identifier.
func (p *Project) ID() string { return p.id }

// ExecOption configures an executing operation.
type ExecOption func(*execConfig)

type execConfig struct {
	wait bool
}

// NoWait returns as soon as the platform accepted the request, without polling
// the resulting tasks.
func NoWait() ExecOption {
	return func(c *execConfig) { c.wait = false }
}

func newExecConfig(opts []ExecOption) execConfig {
	cfg := execConfig{wait: true}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// Delete deletes the project.
func (p *Project) Delete(ctx context.Context) error {
	uri := p.client.endpoints.Projects + "/" + p.id
	if p.id == "" {
		e := gderrors.New(gderrors.ProjectNotOpened, "project does not seem to be opened: no id")
		e.URI = uri
		return e
	}
	_, err := session.Retry(ctx, p.client.sess, func(ctx context.Context) (*session.Response, error) {
		return p.client.sess.Delete(ctx, uri,
			session.WithErrorKind(gderrors.ProjectNotOpened),
			session.WithErrorMessage(fmt.Sprintf("project does not seem to be opened: %s", p.id)),
			session.WithErrorContext("project_id", p.id))
	})
	if err != nil {
		return err
	}
	p.client.log.Debug("deleted project", p.client.log.Args("id", p.id))
	return nil
}

// ValidateMAQL checks a schema script with the platform validator.
func (p *Project) ValidateMAQL(ctx context.Context, maql string) error {
	if strings.TrimSpace(maql) == "" {
		return gderrors.New(gderrors.ValidationFailed, "MAQL missing, nothing to execute")
	}
	uri := fmt.Sprintf(p.client.endpoints.Validator, p.id)
	resp, err := session.Retry(ctx, p.client.sess, func(ctx context.Context) (*session.Response, error) {
		return p.client.sess.Post(ctx, uri, map[string]string{"expression": maql},
			session.WithErrorKind(gderrors.ValidationFailed),
			session.WithErrorContext("maql", maql))
	})
	if err != nil {
		return err
	}

	var content map[string]any
	if err := resp.JSON(&content); err != nil {
		e := gderrors.Wrap(gderrors.ServiceUnavailable, "unreadable validator response", err)
		e.URI = uri
		e.Body = resp.Body
		return e
	}
	if _, ok := content["maqlOK"]; !ok {
		e := gderrors.New(gderrors.ValidationFailed, "MAQL queries did not validate")
		e.URI = uri
		e.Body = resp.Body
		e.StatusCode = resp.StatusCode
		if api, ok := gderrors.ParseAPIError(resp.Body); ok {
			e.API = api
		}
		return e.With("maql", maql)
	}
	return nil
}

// ExecuteMAQL validates a schema script, submits it and, unless NoWait is given,
// polls every resulting task in order. It returns the task links.
func (p *Project) ExecuteMAQL(ctx context.Context, maql string, opts ...ExecOption) ([]string, error) {
	cfg := newExecConfig(opts)
	if err := p.ValidateMAQL(ctx, maql); err != nil {
		return nil, err
	}

	uri := fmt.Sprintf(p.client.endpoints.MAQLExec, p.id)
	resp, err := p.submit(ctx, uri, manageBody(maql), gderrors.SchemaExecutionFailed, "maql", maql)
	if err != nil {
		return nil, err
	}

	var doc struct {
		Entries []struct {
			Link string `json:"link"`
		} `json:"entries"`
	}
	if err := resp.JSON(&doc); err != nil {
		return nil, unexpectedBody(uri, resp, err)
	}
	links := make([]string, 0, len(doc.Entries))
	handles := make([]task.Handle, 0, len(doc.Entries))
	for _, entry := range doc.Entries {
		links = append(links, entry.Link)
		handles = append(handles, task.Handle{
			URI:     entry.Link,
			Path:    maqlStatusPath,
			Kind:    gderrors.SchemaExecutionFailed,
			Context: map[string]string{"maql": maql},
		})
	}
	if !cfg.wait {
		return links, nil
	}
	return links, p.client.poller.PollAll(ctx, handles)
}

// ExecuteDML submits a row-deletion script and waits for it to finish.
func (p *Project) ExecuteDML(ctx context.Context, dml string) error {
	uri := fmt.Sprintf(p.client.endpoints.DML, p.id)
	resp, err := p.submit(ctx, uri, manageBody(dml), gderrors.RowScriptExecutionFailed, "maql", dml)
	if err != nil {
		return err
	}

	var doc struct {
		URI string `json:"uri"`
	}
	if err := resp.JSON(&doc); err != nil || doc.URI == "" {
		return unexpectedBody(uri, resp, err)
	}
	_, err = p.client.poller.Poll(ctx, task.Handle{
		URI:     doc.URI,
		Path:    dmlStatusPath,
		Kind:    gderrors.RowScriptExecutionFailed,
		Context: map[string]string{"maql": dml},
	})
	return err
}

// IntegrateUploadedData ingests a previously staged directory. The directory
// name is sent exactly as given.
func (p *Project) IntegrateUploadedData(ctx context.Context, dir string, opts ...ExecOption) error {
	cfg := newExecConfig(opts)
	uri := fmt.Sprintf(p.client.endpoints.Pull, p.id)
	resp, err := p.submit(ctx, uri, map[string]string{"pullIntegration": dir}, gderrors.IntegrationFailed, "dir_name", dir)
	if err != nil {
		return err
	}

	var doc struct {
		PullTask struct {
			URI string `json:"uri"`
		} `json:"pullTask"`
	}
	if err := resp.JSON(&doc); err != nil || doc.PullTask.URI == "" {
		return unexpectedBody(uri, resp, err)
	}
	if !cfg.wait {
		return nil
	}
	_, err = p.client.poller.Poll(ctx, task.Handle{
		URI:     doc.PullTask.URI,
		Path:    pullStatusPath,
		Kind:    gderrors.IntegrationFailed,
		Context: map[string]string{"dir_name": dir},
	})
	return err
}

func (p *Project) submit(ctx context.Context, uri string, body any, kind gderrors.Kind, key, value string) (*session.Response, error) {
	return session.Retry(ctx, p.client.sess, func(ctx context.Context) (*session.Response, error) {
		return p.client.sess.Post(ctx, uri, body,
			session.WithErrorKind(kind),
			session.WithErrorContext(key, value),
			session.WithStrictBody())
	})
}

func manageBody(script string) map[string]any {
	return map[string]any{"manage": map[string]string{"maql": script}}
}

func unexpectedBody(uri string, resp *session.Response, err error) error {
	e := gderrors.Wrap(gderrors.ServiceUnavailable, "request accepted but no task link returned", err)
	e.URI = uri
	e.Body = resp.Body
	e.StatusCode = resp.StatusCode
	return e
}
