package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/goccy/go-json"
	"github.com/spf13/pflag"

	"github.com/nbwatchdog/nbwatchdog/internal/config"
	"github.com/nbwatchdog/nbwatchdog/internal/logconv"
	"github.com/nbwatchdog/nbwatchdog/internal/schedule"
	"github.com/nbwatchdog/nbwatchdog/internal/store"
	api "github.com/nbwatchdog/nbwatchdog/lib-watchdog"
)

type ConvCommand struct {
	OutStream io.Writer
	ErrStream io.Writer

	// LookupEnv reads the environment variables. It is os.LookupEnv in production.
	LookupEnv func(string) (string, bool)

	// IsTerminal reports the writer is a terminal. It is isTerminal if nil.
	IsTerminal func(io.Writer) bool

	// CurrentTime returns current time. It is time.Now if nil.
	CurrentTime func() time.Time
}

var defaultConvCommand = &ConvCommand{
	OutStream: os.Stdout,
	ErrStream: os.Stderr,
	LookupEnv: os.LookupEnv,
}

const ConvHelp = `nbwatchdog conv -- Export the health check history

Usage: nbwatchdog conv [OPTIONS...]

Options:
  -o, --output  Output file. (default stdout)

  -c, --csv     Convert to CSV. (default format)
  -j, --json    Convert to JSON.
  -l, --ltsv    Convert to LTSV.
  -x, --xlsx    Convert to XLSX.

  -s, --since   Export records since this time. RFC3339 time, or duration
                before now like "24h". (default all)
  -u, --until   Export records before this time. (default now)

  -f, --config  Path to the config file, to find the database.
      --db      Path to the database file.

  -h, --help    Show this help message and exit.
`

func (c ConvCommand) now() time.Time {
	if c.CurrentTime != nil {
		return c.CurrentTime()
	}
	return time.Now()
}

func (c ConvCommand) isTerminal(w io.Writer) bool {
	if c.IsTerminal != nil {
		return c.IsTerminal(w)
	}
	return isTerminal(w)
}

// parseTimeFlag parses an RFC3339 time, or a duration before now.
func (c ConvCommand) parseTimeFlag(s string, def time.Time) (time.Time, error) {
	if s == "" {
		return def, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	if d, err := schedule.ParseDuration(s); err == nil {
		return c.now().Add(-d), nil
	}
	return time.Time{}, fmt.Errorf("invalid time: %q", s)
}

func (c ConvCommand) Run(ctx context.Context, args []string) int {
	flags := pflag.NewFlagSet("nbwatchdog conv", pflag.ContinueOnError)
	flags.SetOutput(io.Discard)
	flags.Usage = func() {}

	outputPath := flags.StringP("output", "o", "", "Output file")

	toCsv := flags.BoolP("csv", "c", false, "Convert to CSV")
	toJson := flags.BoolP("json", "j", false, "Convert to JSON")
	toLtsv := flags.BoolP("ltsv", "l", false, "Convert to LTSV")
	toXlsx := flags.BoolP("xlsx", "x", false, "Convert to XLSX")

	sinceFlag := flags.StringP("since", "s", "", "Export records since this time")
	untilFlag := flags.StringP("until", "u", "", "Export records before this time")

	configPath := flags.StringP("config", "f", "watchdog.yaml", "Path to the config file")
	dbPath := flags.String("db", "", "Path to the database file")

	help := flags.BoolP("help", "h", false, "Show this message and exit")

	if err := flags.Parse(args[2:]); err != nil {
		fmt.Fprintln(c.ErrStream, err)
		fmt.Fprintf(c.ErrStream, "\nPlease see `%s %s -h` for more information.\n", args[0], args[1])
		return 2
	}

	if *help {
		fmt.Fprint(c.OutStream, ConvHelp)
		return 0
	}

	count := 0
	for _, b := range []bool{*toCsv, *toJson, *toLtsv, *toXlsx} {
		if b {
			count++
		}
	}
	if count > 1 {
		fmt.Fprintln(c.ErrStream, "error: flags for output format can not use multiple in the same time.")
		return 2
	}

	since, err := c.parseTimeFlag(*sinceFlag, time.Unix(0, 0))
	if err != nil {
		fmt.Fprintf(c.ErrStream, "error: --since: %s\n", err)
		return 2
	}
	until, err := c.parseTimeFlag(*untilFlag, c.now().Add(time.Second))
	if err != nil {
		fmt.Fprintf(c.ErrStream, "error: --until: %s\n", err)
		return 2
	}

	path := *dbPath
	if path == "" {
		cfg, err := config.Load(*configPath)
		if err != nil {
			fmt.Fprintf(c.ErrStream, "error: %s\n", err)
			return 2
		}
		if c.LookupEnv != nil {
			if err := cfg.ApplyEnv(c.LookupEnv); err != nil {
				fmt.Fprintf(c.ErrStream, "error: %s\n", err)
				return 2
			}
		}
		path = cfg.DatabasePath()
	}

	if _, err := os.Stat(path); err != nil {
		fmt.Fprintf(c.ErrStream, "error: failed to open database: %s\n", err)
		return 1
	}

	output := c.OutStream
	if *outputPath != "" && *outputPath != "-" {
		f, err := os.Create(*outputPath)
		if err != nil {
			fmt.Fprintf(c.ErrStream, "error: failed to open output file: %s\n", err)
			return 1
		}
		defer f.Close()
		output = f
	} else if *toXlsx && c.isTerminal(output) {
		fmt.Fprintln(c.ErrStream, "error: can not write xlsx format to stdout. please redirect or use -o option.")
		return 2
	}

	s, err := store.Open(path)
	if err != nil {
		fmt.Fprintf(c.ErrStream, "error: %s\n", err)
		return 1
	}
	defer s.Close()

	records := logconv.FromStore(ctx, s, since, until)

	switch {
	case *toJson:
		err = c.toJson(records, output)
	case *toLtsv:
		err = logconv.ToLTSV(output, records)
	case *toXlsx:
		err = logconv.ToXlsx(output, records, c.now())
	default:
		err = logconv.ToCSV(output, records)
	}
	if err != nil {
		fmt.Fprintf(c.ErrStream, "error: %s\n", err)
		return 1
	}
	return 0
}

func (c ConvCommand) toJson(records logconv.Records, output io.Writer) error {
	if _, err := io.WriteString(output, "["); err != nil {
		return fmt.Errorf("failed to write history: %s", err)
	}

	empty := true

	err := records(func(r api.HealthCheckRecord) error {
		j, err := json.Marshal(r)
		if err != nil {
			return fmt.Errorf("failed to encode history: %s", err)
		}
		sep := ",\n  "
		if empty {
			sep = "\n  "
			empty = false
		}
		if _, err := io.WriteString(output, sep+string(j)); err != nil {
			return fmt.Errorf("failed to write history: %s", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	end := "\n]\n"
	if empty {
		end = "]\n"
	}
	if _, err := io.WriteString(output, end); err != nil {
		return fmt.Errorf("failed to write history: %s", err)
	}
	return nil
}
