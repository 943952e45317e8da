// Copyright (c) 2025 gdc authors
// Licensed under the MIT License. See LICENSE file in the project root for details.

package session

import (
	"context"
)

// Relogger re-establishes an expired session.
type Relogger interface {
	Relogin(ctx context.Context) error
}

// Retry runs op and, if it fails because the session expired, logs in again once
// and runs op exactly one more time. A second expiry is returned to the caller.
func Retry[T any](ctx context.Context, r Relogger, op func(context.Context) (T, error)) (T, error) {
	out, err := op(ctx)
	if err == nil || !IsSessionExpired(err) {
		return out, err
	}
	if rerr := r.Relogin(ctx); rerr != nil {
		var zero T
		return zero, rerr
	}
	return op(ctx)
}
