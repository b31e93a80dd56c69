package main

import (
	"context"
	"fmt"

	"github.com/nbwatchdog/nbwatchdog/internal/meta"
)

// RunDaemon runs the polling loop until ctx is cancelled by a signal.
func (cmd *WatchdogCommand) RunDaemon(ctx context.Context, a *app) (exitCode int) {
	fmt.Fprintf(cmd.ErrStream, "starts %s %s, monitoring %d services\n", meta.Name, meta.Version, len(cmd.Config.Services))

	if err := a.Daemon.Run(ctx); err != nil {
		fmt.Fprintf(cmd.ErrStream, "error: %s\n", err)
		return 1
	}
	return 0
}
