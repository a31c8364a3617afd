// Command norikra-query inspects and rewrites EPL queries: it reports the
// streams and fields a query reads, renames event types, flattens container
// field paths and checks query sets.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"github.com/yui-knk/norikra"
)

var version = "dev"

// app carries the state shared by all commands. It is populated by the root
// command's Before hook.
type app struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	cfg    *norikra.Config
	logger *zap.Logger
	styles *styles
}

func main() {
	a := &app{stdin: os.Stdin, stdout: os.Stdout, stderr: os.Stderr}

	err := a.command().Run(context.Background(), os.Args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func (a *app) command() *cli.Command {
	return &cli.Command{
		Name:    "norikra-query",
		Version: version,
		Usage:   "Inspect and rewrite EPL queries",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Usage:   "config file (default: nearest .norikra.yaml)",
				Sources: cli.EnvVars("NORIKRA_CONFIG"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "debug, info, warn or error (overrides config)",
				Sources: cli.EnvVars("NORIKRA_LOG_LEVEL"),
			},
			&cli.BoolFlag{
				Name:  "no-color",
				Usage: "disable colored output",
			},
		},
		Before: a.before,
		After:  a.after,
		Commands: []*cli.Command{
			a.targetsCommand(),
			a.fieldsCommand(),
			a.rewriteCommand(),
			a.fmtCommand(),
			a.checkCommand(),
			a.listCommand(),
		},
	}
}

func (a *app) before(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	cfg, err := loadConfig(cmd.String("config"))
	if err != nil {
		return ctx, err
	}

	level := cfg.Log.Level
	if l := cmd.String("log-level"); l != "" {
		level = l
	}

	logger, err := newLogger(a.stderr, level, cfg.Log.Development)
	if err != nil {
		return ctx, err
	}

	a.cfg = cfg
	a.logger = logger
	a.styles = newStyles(a.stdout, cmd.Bool("no-color"))

	if cfg.Dir != "" {
		logger.Debug("Loaded config", zap.String("dir", cfg.Dir))
	}

	return ctx, nil
}

func (a *app) after(context.Context, *cli.Command) error {
	if a.logger != nil {
		_ = a.logger.Sync()
	}

	return nil
}

// loadConfig loads the given config file, or the nearest one above the
// working directory. A missing config yields the zero config.
func loadConfig(path string) (*norikra.Config, error) {
	if path != "" {
		return norikra.LoadConfigFile(path)
	}

	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get working directory: %w", err)
	}

	cfg, err := norikra.LoadConfig(wd)
	if errors.Is(err, norikra.ErrConfigNotFound) {
		return &norikra.Config{}, nil
	}

	return cfg, err
}
