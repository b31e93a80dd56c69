package main

import (
	"os"
	"time"

	"github.com/go-logr/logr"
	"github.com/mattn/go-isatty"

	"github.com/nbwatchdog/nbwatchdog/internal/collector"
	"github.com/nbwatchdog/nbwatchdog/internal/command"
	"github.com/nbwatchdog/nbwatchdog/internal/config"
	"github.com/nbwatchdog/nbwatchdog/internal/daemon"
	"github.com/nbwatchdog/nbwatchdog/internal/logging"
	"github.com/nbwatchdog/nbwatchdog/internal/probe"
	"github.com/nbwatchdog/nbwatchdog/internal/recovery"
	"github.com/nbwatchdog/nbwatchdog/internal/report"
	"github.com/nbwatchdog/nbwatchdog/internal/store"
	"github.com/nbwatchdog/nbwatchdog/internal/watchdog"
)

// app is the set of components wired from a configuration.
type app struct {
	Output *logging.Output
	Logger logr.Logger
	Store  *store.Store

	Collector  *collector.Collector
	Recovery   *recovery.Client
	Controller *watchdog.Controller
	Reporter   *report.Generator
	Daemon     *daemon.Daemon
}

func isTerminal(w interface{}) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func (cmd *WatchdogCommand) open() (*app, error) {
	cfg := cmd.Config

	out := &logging.Output{
		Level:         cfg.Level(),
		Console:       cmd.ErrStream,
		Colored:       isTerminal(cmd.ErrStream),
		Dir:           cfg.LogDir,
		Pattern:       logging.ParsePattern(logging.DefaultPattern),
		RetentionDays: cfg.LogRetentionDays,
	}
	logger := logging.New(out)

	s, err := store.Open(cfg.DatabasePath())
	if err != nil {
		out.Close()
		return nil, err
	}
	out.SetMeta(s)

	return newApp(cfg, out, logger, s, command.ExecRunner{Timeout: time.Duration(cfg.DeepTimeout)}), nil
}

// newApp wires the components. The runner is used by the deep probes and the client CLI.
func newApp(cfg config.Config, out *logging.Output, logger logr.Logger, s *store.Store, runner command.Runner) *app {
	a := &app{
		Output: out,
		Logger: logger,
		Store:  s,
	}

	a.Collector = &collector.Collector{
		ProcessName:  cfg.ProcessName,
		InternetHost: cfg.InternetHost,
		InternetPort: cfg.InternetPort,
		DNSDomain:    cfg.DNSDomain,
		Services:     cfg.Services,
		Timeout:      time.Duration(cfg.RoutineTimeout),
		Deep:         probe.DeepProber{Runner: runner},
		Logger:       logger.WithName("collector"),
	}

	a.Recovery = &recovery.Client{
		Service: cfg.ServiceName,
		CLI:     cfg.ClientCommand,
		Runner:  runner,
		Logger:  logger.WithName("recovery"),
	}

	a.Controller = &watchdog.Controller{
		Threshold:   cfg.FailureThreshold,
		AutoRestart: cfg.AutoRestart,
		Cooldown:    time.Duration(cfg.RestartCooldown),
		Store:       s,
		Deep:        a.Collector,
		Recovery:    a.Recovery,
		Logger:      logger.WithName("watchdog"),
	}

	a.Reporter = &report.Generator{
		Store:          s,
		Deep:           a.Collector,
		Client:         a.Recovery,
		Services:       cfg.Services,
		ResolveTimeout: time.Duration(cfg.RoutineTimeout),
		Dir:            cfg.ReportsPath(),
		HistoryWindow:  cfg.HistoryWindow,
		IncidentWindow: cfg.IncidentWindow,
		Logger:         logger.WithName("report"),
	}

	a.Daemon = &daemon.Daemon{
		Interval:       time.Duration(cfg.RoutineInterval),
		Routine:        a.Collector,
		Store:          s,
		Controller:     a.Controller,
		Reporter:       a.Reporter,
		ReportSchedule: cfg.Schedule(),
		Logger:         logger.WithName("daemon"),
	}

	return a
}

// Close closes the store and the log file, and returns the errors while writing meta logs.
func (a *app) Close() []string {
	a.Output.SetMeta(nil)
	a.Store.Close()
	a.Output.Close()
	return a.Store.Errors()
}
