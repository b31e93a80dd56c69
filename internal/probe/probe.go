// Package probe implements the routine and deep probes.
//
// Every probe returns a watchdog.Result instead of an error.
// An unreachable service or a failed command is a data, not an exception.
package probe

import (
	"context"
	"errors"
	"time"

	api "github.com/nbwatchdog/nbwatchdog/lib-watchdog"
)

// CurrentTime returns current time.
// This variable is for testing purpose.
var CurrentTime = time.Now

func latencyMs(since time.Time) *int64 {
	ms := time.Since(since).Milliseconds()
	return &ms
}

// errorTypeOr returns ErrorTypeTimeout if the context is timed out, otherwise the kind.
func errorTypeOr(ctx context.Context, err error, kind api.ErrorType) api.ErrorType {
	if ctx.Err() == context.DeadlineExceeded || errors.Is(err, context.DeadlineExceeded) {
		return api.ErrorTypeTimeout
	}
	return kind
}
