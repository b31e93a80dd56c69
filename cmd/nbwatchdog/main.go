package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/template"

	"github.com/spf13/pflag"

	"github.com/nbwatchdog/nbwatchdog/internal/config"
	"github.com/nbwatchdog/nbwatchdog/internal/meta"
	"github.com/nbwatchdog/nbwatchdog/internal/probe"
)

func init() {
	probe.HTTPUserAgent = meta.UserAgent()
}

const helpText = `{{ .Name }} -- watchdog for the NetBird client

Usage: {{ .Name }} [COMMAND] [OPTIONS...]

Commands:
  run       Run the polling loop until interrupted. (default)
  oneshot   Run a single check, print the status, and exit 1 if not healthy.
  report    Generate a report and print its path.
  conv      Export the health check history. See '{{ .Name }} conv -h'.
  clear     Delete all recorded history. Requires --yes.
  version   Show version and exit.
{{ if not .Short }}
Options:
{{ .Flags }}
Environment:
  Every option in the config file can be overridden by WATCHDOG_<KEY>,
  like WATCHDOG_ROUTINE_INTERVAL=30 or WATCHDOG_SERVICES=svc-a,203.0.113.5.
  The NETBIRD_* names of older deployments, like NETBIRD_ROUTINE_CHECK_INTERVAL,
  are read when the WATCHDOG_* one is not set.
  Durations accept Go syntax like "1m30s", or a bare number of seconds.
{{ else }}
Please see '{{ .Name }} -h' for options.
{{ end -}}
`

// WatchdogCommand is the command line interface except conv.
type WatchdogCommand struct {
	OutStream io.Writer
	ErrStream io.Writer

	// LookupEnv reads the environment variables. It is os.LookupEnv in production.
	LookupEnv func(string) (string, bool)

	Mode        string
	ConfigPath  string
	Yes         bool
	ShowVersion bool
	ShowHelp    bool

	Config config.Config

	flags *pflag.FlagSet
}

var defaultWatchdogCommand = &WatchdogCommand{
	OutStream: os.Stdout,
	ErrStream: os.Stderr,
	LookupEnv: os.LookupEnv,
}

func (cmd *WatchdogCommand) PrintUsage(detail bool) {
	var flags string
	if cmd.flags != nil {
		flags = cmd.flags.FlagUsages()
	}

	tmpl := template.Must(template.New("help").Parse(helpText))
	tmpl.Execute(cmd.ErrStream, map[string]interface{}{
		"Name":  meta.Name,
		"Flags": flags,
		"Short": !detail,
	})
}

func (cmd *WatchdogCommand) PrintVersion() {
	fmt.Fprintln(cmd.OutStream, meta.VersionString())
}

func (cmd *WatchdogCommand) defaultConfigPath() string {
	if cmd.LookupEnv != nil {
		if p, ok := cmd.LookupEnv(config.ENV_PREFIX + "CONFIG"); ok && p != "" {
			return p
		}
	}
	return "watchdog.yaml"
}

// findConfigPath reads only --config in args, because the file must be loaded before the other flags override it.
func (cmd *WatchdogCommand) findConfigPath(args []string) string {
	flags := pflag.NewFlagSet(meta.Name, pflag.ContinueOnError)
	flags.ParseErrorsWhitelist.UnknownFlags = true
	flags.SetOutput(io.Discard)
	flags.Usage = func() {}

	path := flags.StringP("config", "f", cmd.defaultConfigPath(), "")
	flags.BoolP("help", "h", false, "")
	flags.Parse(args)

	return *path
}

// ParseArgs parses the mode, the config file, the environment variables, and the flags, in this order.
// args[0] is the program name, and args[1] is the mode if it is not a flag.
func (cmd *WatchdogCommand) ParseArgs(args []string) (exitCode int) {
	rest := args[1:]
	cmd.Mode = "run"
	if len(rest) > 0 && !strings.HasPrefix(rest[0], "-") {
		cmd.Mode = rest[0]
		rest = rest[1:]
	}

	switch cmd.Mode {
	case "run", "oneshot", "report", "clear", "version":
	default:
		fmt.Fprintf(cmd.ErrStream, "unknown command: %s\n\nPlease see `%s -h` for more information.\n", cmd.Mode, args[0])
		return 2
	}

	cmd.ConfigPath = cmd.findConfigPath(rest)

	cfg, err := config.Load(cmd.ConfigPath)
	if err != nil {
		fmt.Fprintf(cmd.ErrStream, "error: %s\n", err)
		return 2
	}
	if cmd.LookupEnv != nil {
		if err := cfg.ApplyEnv(cmd.LookupEnv); err != nil {
			fmt.Fprintf(cmd.ErrStream, "error: %s\n", err)
			return 2
		}
	}
	cmd.Config = cfg

	flags := pflag.NewFlagSet(meta.Name, pflag.ContinueOnError)
	flags.SetOutput(io.Discard)
	flags.Usage = func() {}
	cmd.flags = flags

	flags.StringVarP(&cmd.ConfigPath, "config", "f", cmd.ConfigPath, "Path to the config file.")
	cmd.Config.BindFlags(flags)
	flags.BoolVarP(&cmd.Yes, "yes", "y", false, "Confirm the clear command.")
	flags.BoolVarP(&cmd.ShowVersion, "version", "v", false, "Show version.")
	flags.BoolVarP(&cmd.ShowHelp, "help", "h", false, "Show help message.")

	if err := flags.Parse(rest); err != nil {
		fmt.Fprintln(cmd.ErrStream, err)
		fmt.Fprintf(cmd.ErrStream, "\nPlease see `%s -h` for more information.\n", args[0])
		return 2
	}

	if cmd.ShowVersion || cmd.ShowHelp || cmd.Mode == "version" {
		return 0
	}

	if flags.NArg() > 0 {
		fmt.Fprintf(cmd.ErrStream, "invalid argument: unexpected argument: %s\n\nPlease see `%s -h` for more information.\n", flags.Arg(0), args[0])
		return 2
	}

	if err := cmd.Config.Validate(); err != nil {
		fmt.Fprintf(cmd.ErrStream, "error: %s\n", err)
		return 2
	}

	if cmd.Mode == "clear" && !cmd.Yes {
		fmt.Fprintln(cmd.ErrStream, "error: clear deletes all recorded history. please add --yes to confirm.")
		return 2
	}

	return 0
}

func (cmd *WatchdogCommand) Run(ctx context.Context, args []string) (exitCode int) {
	if code := cmd.ParseArgs(args); code != 0 {
		return code
	}

	if cmd.ShowVersion || cmd.Mode == "version" {
		cmd.PrintVersion()
		return 0
	}

	if cmd.ShowHelp {
		cmd.PrintUsage(true)
		return 0
	}

	a, err := cmd.open()
	if err != nil {
		fmt.Fprintf(cmd.ErrStream, "error: %s\n", err)
		return 1
	}

	switch cmd.Mode {
	case "oneshot":
		exitCode = cmd.RunOneshot(ctx, a)
	case "report":
		exitCode = cmd.RunReport(ctx, a)
	case "clear":
		exitCode = cmd.RunClear(ctx, a)
	default:
		exitCode = cmd.RunDaemon(ctx, a)
	}

	errs := a.Close()
	if exitCode == 0 && len(errs) > 0 {
		fmt.Fprintf(cmd.ErrStream, "error: %d meta log entries could not be written, last one: %s\n", len(errs), errs[len(errs)-1])
		return 1
	}

	return exitCode
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "conv", "convert":
			os.Exit(defaultConvCommand.Run(ctx, os.Args))
		}
	}

	os.Exit(defaultWatchdogCommand.Run(ctx, os.Args))
}
