package main

import (
	"context"
	"fmt"
)

// RunReport generates a report and prints its path.
func (cmd *WatchdogCommand) RunReport(ctx context.Context, a *app) (exitCode int) {
	path, err := a.Reporter.Generate(ctx)
	if err != nil {
		fmt.Fprintf(cmd.ErrStream, "error: failed to generate report: %s\n", err)
		return 1
	}

	fmt.Fprintln(cmd.OutStream, path)
	return 0
}
