// Copyright (c) 2025 gdc authors
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package staging uploads packed payloads to the platform's WebDAV staging
// service, where a pull integration can pick them up.
package staging

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"gooddata/cli/internal/archive"
	gderrors "gooddata/cli/internal/errors"
	"gooddata/cli/internal/logging"
	"gooddata/cli/internal/session"

	"github.com/pterm/pterm"
)

const (
	// DefaultHost is the production staging service.
	DefaultHost = "https://secure-di.gooddata.com"
	// ArchiveName is the file name of the uploaded archive inside its directory.
	ArchiveName = "upload.zip"

	methodMkcol = "MKCOL"
	uploadsURI  = "/uploads/%s/"
)

// Doer sends a prepared request with the session's credentials.
type Doer interface {
	Do(req *http.Request, opts ...session.CallOption) (*session.Response, error)
}

// Packer builds the archive to upload and returns its local path.
type Packer interface {
	Pack(data []byte, manifest map[string]any, opts archive.Options) (string, error)
}

// Options controls one Stage call.
type Options struct {
	Dates     []string
	Datetimes []string
	KeepCSV   bool
	CSVPath   string
	// NoUpload builds the archive, discards it and returns CSVPath.
	NoUpload bool
}

// Client talks to the staging service.
type Client struct {
	host   string
	doer   Doer
	packer Packer
	log    *pterm.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithPacker replaces the archive packer.
func WithPacker(p Packer) Option {
	return func(c *Client) { c.packer = p }
}

// WithLogger sets the debug logger.
func WithLogger(l *pterm.Logger) Option {
	return func(c *Client) { c.log = l }
}

// New creates a staging client for host, authenticating through doer.
func New(host string, doer Doer, opts ...Option) *Client {
	if strings.TrimSpace(host) == "" {
		host = DefaultHost
	}
	c := &Client{
		host:   strings.TrimRight(host, "/"),
		doer:   doer,
		packer: archive.Packer{},
		log:    logging.Discard(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Stage packs the payload, creates a staging directory named after the archive
// and uploads the archive into it. It returns the directory name to pass to a
// pull integration. The local archive is removed whatever the outcome.
func (c *Client) Stage(ctx context.Context, data []byte, manifest map[string]any, opts Options) (string, error) {
	path, err := c.packer.Pack(data, manifest, archive.Options{
		Dates:     opts.Dates,
		Datetimes: opts.Datetimes,
		KeepCSV:   opts.KeepCSV,
		CSVPath:   opts.CSVPath,
	})
	if err != nil {
		return "", gderrors.Wrap(gderrors.UploadFailed, "could not pack payload", err)
	}
	defer func() {
		if rmErr := os.Remove(path); rmErr != nil && !os.IsNotExist(rmErr) {
			c.log.Warn("could not remove local archive", c.log.Args("path", path, "error", rmErr))
		}
	}()

	if opts.NoUpload {
		c.log.Debug("upload skipped", c.log.Args("archive", path))
		return opts.CSVPath, nil
	}

	dir := filepath.Base(path)
	dirURI := fmt.Sprintf(uploadsURI, dir)
	if err := c.send(ctx, methodMkcol, dirURI, nil, "", dir); err != nil {
		return "", err
	}

	body, err := os.ReadFile(path)
	if err != nil {
		return "", gderrors.Wrap(gderrors.UploadFailed, "could not read archive", err).With("dir_name", dir)
	}
	if err := c.send(ctx, http.MethodPut, dirURI+ArchiveName, body, "application/zip", dir); err != nil {
		return "", err
	}
	c.log.Debug("staged payload", c.log.Args("dir_name", dir, "bytes", len(body)))
	return dir, nil
}

// Unstage deletes a staging directory.
func (c *Client) Unstage(ctx context.Context, dir string) error {
	return c.send(ctx, http.MethodDelete, fmt.Sprintf(uploadsURI, dir), nil, "", dir)
}

func (c *Client) send(ctx context.Context, method, uri string, body []byte, contentType, dir string) error {
	req, err := http.NewRequestWithContext(ctx, method, c.host+uri, bytes.NewReader(body))
	if err != nil {
		return err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	_, err = c.doer.Do(req,
		session.WithErrorKind(gderrors.UploadFailed),
		session.WithErrorContext("dir_name", dir))
	return err
}
