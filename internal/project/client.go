// Copyright (c) 2025 gdc authors
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package project executes remote operations against a platform project:
// creation and deletion, schema (MAQL) validation and execution, row-deletion
// (DML) scripts and pull integration of staged data. Each operation submits a
// request, extracts the resulting task links and hands them to the task poller.
//
// Every submission and every status fetch goes through session.Retry, so an
// expired session is renewed once and the call repeated once.
package project

import (
	"context"
	"fmt"
	"path"
	"strings"

	gderrors "gooddata/cli/internal/errors"
	"gooddata/cli/internal/logging"
	"gooddata/cli/internal/session"
	"gooddata/cli/internal/task"

	"github.com/pterm/pterm"
)

// Session is the part of session.Manager the executor needs.
type Session interface {
	session.Relogger
	Get(ctx context.Context, uri string, opts ...session.CallOption) (*session.Response, error)
	Post(ctx context.Context, uri string, body any, opts ...session.CallOption) (*session.Response, error)
	Delete(ctx context.Context, uri string, opts ...session.CallOption) (*session.Response, error)
	GetMetadata(ctx context.Context) (*session.Response, error)
}

// Endpoints are the project URIs; the %s verbs take the project id.
type Endpoints struct {
	Projects  string
	MAQLExec  string
	Validator string
	Pull      string
	DML       string
}

// DefaultEndpoints are the platform's project URIs.
var DefaultEndpoints = Endpoints{
	Projects:  "/gdc/projects",
	MAQLExec:  "/gdc/md/%s/ldm/manage2",
	Validator: "/gdc/md/%s/maqlvalidator",
	Pull:      "/gdc/md/%s/etl/pull",
	DML:       "/gdc/md/%s/dml/manage",
}

// Client resolves, creates and deletes projects.
type Client struct {
	sess      Session
	poller    *task.Poller
	endpoints Endpoints
	log       *pterm.Logger
}

// Option configures a Client.
type Option func(*clientOptions)

type clientOptions struct {
	endpoints Endpoints
	log       *pterm.Logger
	pollOpts  []task.Option
}

// WithEndpoints overrides the project URIs.
func WithEndpoints(e Endpoints) Option {
	return func(o *clientOptions) { o.endpoints = e }
}

// WithLogger sets the debug logger, shared with the poller.
func WithLogger(l *pterm.Logger) Option {
	return func(o *clientOptions) { o.log = l }
}

// WithPollOptions passes options to the task poller.
func WithPollOptions(opts ...task.Option) Option {
	return func(o *clientOptions) { o.pollOpts = append(o.pollOpts, opts...) }
}

// NewClient creates an executor polling tasks with the given config.
func NewClient(sess Session, poll task.Config, opts ...Option) *Client {
	o := clientOptions{endpoints: DefaultEndpoints, log: logging.Discard()}
	for _, opt := range opts {
		opt(&o)
	}
	c := &Client{sess: sess, endpoints: o.endpoints, log: o.log}
	pollOpts := append([]task.Option{task.WithLogger(o.log)}, o.pollOpts...)
	c.poller = task.New(task.FetchFunc(c.fetchStatus), poll, pollOpts...)
	return c
}

func (c *Client) fetchStatus(ctx context.Context, uri string) ([]byte, error) {
	resp, err := session.Retry(ctx, c.sess, func(ctx context.Context) (*session.Response, error) {
		return c.sess.Get(ctx, uri)
	})
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}

// Link is one project entry of the metadata root document.
type Link struct {
	Title      string `json:"title"`
	Identifier string `json:"identifier"`
	Link       string `json:"link"`
	Summary    string `json:"summary,omitempty"`
	Category   string `json:"category,omitempty"`
}

// List returns the projects visible to the account.
func (c *Client) List(ctx context.Context) ([]Link, error) {
	resp, err := session.Retry(ctx, c.sess, c.sess.GetMetadata)
	if err != nil {
		return nil, err
	}
	var doc struct {
		About struct {
			Links []Link `json:"links"`
		} `json:"about"`
	}
	if err := resp.JSON(&doc); err != nil {
		return nil, gderrors.Wrap(gderrors.ServiceUnavailable, "unexpected metadata document", err)
	}
	return doc.About.Links, nil
}

// Load returns a handle on a project known by id. No request is made.
func (c *Client) Load(id string) *Project {
	return &Project{client: c, id: id}
}

// LoadByName resolves a project title to its id. The first matching entry wins.
func (c *Client) LoadByName(ctx context.Context, name string) (*Project, error) {
	links, err := c.List(ctx)
	if err != nil {
		return nil, err
	}
	titles := make([]string, 0, len(links))
	for _, l := range links {
		if l.Title == name {
			c.log.Debug("resolved project", c.log.Args("name", name, "id", l.Identifier))
			return c.Load(l.Identifier), nil
		}
		titles = append(titles, l.Title)
	}
	e := gderrors.New(gderrors.ProjectNotFound, fmt.Sprintf("failed to retrieve project identifier for %s", name))
	e.With("project_name", name).With("links", strings.Join(titles, ", "))
	return nil, e
}

// CreateRequest describes a new project.
type CreateRequest struct {
	Title    string
	Summary  string
	Template string
	Token    string
}

// Create creates a project and returns a handle on it.
func (c *Client) Create(ctx context.Context, req CreateRequest) (*Project, error) {
	meta := map[string]any{
		"title":   req.Title,
		"summary": req.Summary,
	}
	if req.Template != "" {
		meta["projectTemplate"] = req.Template
	}
	body := map[string]any{
		"project": map[string]any{
			"meta": meta,
			"content": map[string]any{
				"guidedNavigation":   "1",
				"authorizationToken": req.Token,
			},
		},
	}

	resp, err := session.Retry(ctx, c.sess, func(ctx context.Context) (*session.Response, error) {
		return c.sess.Post(ctx, c.endpoints.Projects, body,
			session.WithErrorKind(gderrors.ProjectCreationFailed),
			session.WithErrorMessage(fmt.Sprintf("could not create project %s", req.Title)),
			session.WithErrorContext("name", req.Title),
			session.WithStrictBody())
	})
	if err != nil {
		return nil, err
	}

	var created struct {
		URI string `json:"uri"`
	}
	if err := resp.JSON(&created); err != nil || created.URI == "" {
		e := gderrors.Wrap(gderrors.ServiceUnavailable, "project created but no uri returned", err)
		e.Body = resp.Body
		return nil, e
	}
	id := path.Base(created.URI)
	c.log.Debug("created project", c.log.Args("name", req.Title, "id", id))
	return c.Load(id), nil
}

// DeleteByName deletes every project titled name, one lookup at a time, and
// returns how many were deleted. Running out of matches ends the loop normally.
func (c *Client) DeleteByName(ctx context.Context, name string) (int, error) {
	c.log.Debug("dropping projects by name", c.log.Args("name", name))
	deleted := 0
	for {
		p, err := c.LoadByName(ctx, name)
		if gderrors.IsKind(err, gderrors.ProjectNotFound) {
			return deleted, nil
		}
		if err != nil {
			return deleted, err
		}
		if err := p.Delete(ctx); err != nil {
			return deleted, err
		}
		deleted++
	}
}
