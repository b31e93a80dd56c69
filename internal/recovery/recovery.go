// Package recovery restarts the monitored VPN client service, and reads the client's own status.
package recovery

import (
	"context"
	"strings"

	"github.com/go-logr/logr"

	"github.com/nbwatchdog/nbwatchdog/internal/command"
)

const (
	MethodFailed = "failed"
)

// Strategy is a way to restart the service.
// It succeeds only if every step succeeded.
type Strategy struct {
	Method string
	Steps  [][]string
}

// RestartResult is the outcome of Client.Restart.
type RestartResult struct {
	Success bool   `json:"success"`
	Method  string `json:"method"`
	Stdout  string `json:"stdout"`
	Stderr  string `json:"stderr"`
}

// CommandResult is the outcome of a client CLI invocation.
type CommandResult struct {
	Success    bool   `json:"success"`
	Stdout     string `json:"stdout"`
	Stderr     string `json:"stderr"`
	ReturnCode int    `json:"returncode"`
}

// Text returns stdout, followed by stderr if it is not empty.
func (r CommandResult) Text() string {
	if r.Stderr == "" {
		return r.Stdout
	}
	return r.Stdout + "\n" + r.Stderr
}

// Client controls the monitored service, and queries the client CLI.
type Client struct {
	// Service is the name of the service in the OS service manager.
	Service string

	// CLI is the command name of the client CLI.
	CLI string

	Runner command.Runner

	// Strategies are tried in order. DefaultStrategies(Service) is used if it is nil.
	Strategies []Strategy

	Logger logr.Logger
}

func joinOutputs(xs []string) string {
	var ss []string
	for _, x := range xs {
		if x != "" {
			ss = append(ss, x)
		}
	}
	return strings.Join(ss, "\n")
}

func (c *Client) strategies() []Strategy {
	if c.Strategies != nil {
		return c.Strategies
	}
	return DefaultStrategies(c.Service)
}

// Restart tries the strategies in order, and stops at the first success.
// Every step of a strategy is run even if an earlier step failed, because stop fails on an already stopped service.
// If every strategy failed, the result has method "failed" and the outputs of all attempts.
func (c *Client) Restart(ctx context.Context) RestartResult {
	var allStdout, allStderr []string

	for _, s := range c.strategies() {
		ok := len(s.Steps) > 0
		var stdout, stderr []string

		for _, argv := range s.Steps {
			res := c.Runner.Run(ctx, argv[0], argv[1:]...)
			stdout = append(stdout, res.Stdout)
			stderr = append(stderr, res.Stderr)
			if !res.Success() {
				ok = false
				if res.Stderr == "" {
					stderr = append(stderr, res.Err.Error())
				}
			}
		}

		if ok {
			c.Logger.Info("service restarted", "method", s.Method)
			return RestartResult{
				Success: true,
				Method:  s.Method,
				Stdout:  joinOutputs(stdout),
				Stderr:  joinOutputs(stderr),
			}
		}

		c.Logger.V(1).Info("restart strategy failed", "method", s.Method)
		allStdout = append(allStdout, stdout...)
		allStderr = append(allStderr, stderr...)
	}

	c.Logger.Error(nil, "every restart strategy failed", "service", c.Service)

	return RestartResult{
		Success: false,
		Method:  MethodFailed,
		Stdout:  joinOutputs(allStdout),
		Stderr:  joinOutputs(allStderr),
	}
}

func (c *Client) cli(ctx context.Context, args ...string) CommandResult {
	res := c.Runner.Run(ctx, c.CLI, args...)

	r := CommandResult{
		Success:    res.Success(),
		Stdout:     res.Stdout,
		Stderr:     res.Stderr,
		ReturnCode: res.ExitCode,
	}
	if !res.Success() && r.Stderr == "" {
		r.Stderr = res.Err.Error()
	}
	return r
}

// Status queries the client CLI status in the text form.
func (c *Client) Status(ctx context.Context) CommandResult {
	return c.cli(ctx, "status")
}

// StatusJSON queries the client CLI status in the JSON form.
func (c *Client) StatusJSON(ctx context.Context) CommandResult {
	return c.cli(ctx, "status", "--json")
}

// Routes queries the route list of the client.
func (c *Client) Routes(ctx context.Context) CommandResult {
	return c.cli(ctx, "routes", "list")
}
