package main

import (
	"context"
	"fmt"
)

// RunClear deletes all recorded history.
func (cmd *WatchdogCommand) RunClear(ctx context.Context, a *app) (exitCode int) {
	if err := a.Store.ClearAll(ctx); err != nil {
		fmt.Fprintf(cmd.ErrStream, "error: %s\n", err)
		return 1
	}

	fmt.Fprintf(cmd.OutStream, "cleared all history in %s\n", a.Store.Path())
	return 0
}
