// Copyright (c) 2025 gdc authors
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package loader runs the full data load: stage a payload, then integrate the
// staged directory into a project.
package loader

import (
	"context"

	"gooddata/cli/internal/project"
	"gooddata/cli/internal/staging"
)

// Stager uploads a payload and returns its staging directory.
type Stager interface {
	Stage(ctx context.Context, data []byte, manifest map[string]any, opts staging.Options) (string, error)
}

// Integrator ingests a staging directory.
type Integrator interface {
	IntegrateUploadedData(ctx context.Context, dir string, opts ...project.ExecOption) error
}

// Result describes a completed load.
type Result struct {
	// Dir is the staging directory, or the local CSV path on a dry run.
	Dir    string
	DryRun bool
}

// Loader stages and integrates payloads.
type Loader struct {
	Stager     Stager
	Integrator Integrator
}

// Load stages the payload and integrates it under the exact directory name the
// stager returned. A dry run (opts.NoUpload) stops after packing.
func (l *Loader) Load(ctx context.Context, data []byte, manifest map[string]any, opts staging.Options, exec ...project.ExecOption) (Result, error) {
	dir, err := l.Stager.Stage(ctx, data, manifest, opts)
	if err != nil {
		return Result{}, err
	}
	if opts.NoUpload {
		return Result{Dir: dir, DryRun: true}, nil
	}
	if err := l.Integrator.IntegrateUploadedData(ctx, dir, exec...); err != nil {
		return Result{Dir: dir}, err
	}
	return Result{Dir: dir}, nil
}
