// Command richcord sets a Discord Rich Presence activity from flags, a
// stream of JSON updates, or the user's keyboard idle time.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime/debug"

	"github.com/urfave/cli/v3"
	rootpkg "tools.zach/dev/richcord"
	"tools.zach/dev/richcord/internal/config"
	"tools.zach/dev/richcord/internal/logger"
	"tools.zach/dev/richcord/internal/paths"
	"tools.zach/dev/richcord/internal/printer"
)

// ///////////////////////////////////////////////
// Version
// ///////////////////////////////////////////////

// version is set at build time via -X main.version=...
var version = "dev"

// resolveVersion falls back to the VCS revision embedded by the toolchain
// when version was not set at build time.
func resolveVersion() string {
	if version != "dev" {
		return version
	}
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return version
	}
	var revision string
	var dirty bool
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			revision = s.Value
		case "vcs.modified":
			dirty = s.Value == "true"
		}
	}
	if revision == "" {
		return version
	}
	v := "dev+" + revision[:min(7, len(revision))]
	if dirty {
		v += ".dirty"
	}
	return v
}

// ///////////////////////////////////////////////
// Flags
// ///////////////////////////////////////////////

// Flags holds the global options plus everything loaded in Before.
type Flags struct {
	ClientID     string
	DataDir      string
	LogLevel     string
	Verbose      bool
	DisableColor bool

	Update bool
	Input  string
	Follow bool

	AFK       bool
	AFKAfter  int
	AFKUpdate int

	Interval  int
	ExitAfter int

	// Set by Before.
	Config  *config.Config
	Printer *printer.Printer
}

func newApp(flags *Flags) *cli.Command {
	return &cli.Command{
		Name:      paths.BinaryName,
		Usage:     "Set your Discord Rich Presence from the command line",
		UsageText: "richcord [options]",
		Description: `Without --update or --afk, the activity given by flags is published and
held until interrupted (or until --exit_after elapses).

--update reads newline-delimited JSON objects from stdin (or --input) and
merges each one into the current activity.

--afk shows an "Away from keyboard" card after --afk_after minutes without
keyboard or mouse input and clears it when input resumes.

Example:
  richcord -c 383226320970055681 --details "Writing Go" --enable_time
  tail -f status.jsonl | richcord -c 383226320970055681 --update`,
		Version: resolveVersion(),
		Flags: append([]cli.Flag{
			&cli.StringFlag{
				Name:        "client_id",
				Aliases:     []string{"c"},
				Usage:       "Discord application ID (defaults to discord.app_id in config)",
				Sources:     cli.EnvVars("RICHCORD_CLIENT_ID"),
				Destination: &flags.ClientID,
			},
			&cli.BoolFlag{
				Name:        "update",
				Usage:       "read JSON activity updates line by line",
				Destination: &flags.Update,
			},
			&cli.StringFlag{
				Name:        "input",
				Usage:       "read --update lines from `FILE` instead of stdin",
				Destination: &flags.Input,
			},
			&cli.BoolFlag{
				Name:        "follow",
				Usage:       "keep reading --input as lines are appended",
				Destination: &flags.Follow,
			},
			&cli.BoolFlag{
				Name:        "afk",
				Usage:       "show an away card while the keyboard and mouse are idle",
				Destination: &flags.AFK,
			},
			&cli.IntFlag{
				Name:        "afk_after",
				Usage:       "idle `MINUTES` before switching to away (default afk.after_minutes)",
				Destination: &flags.AFKAfter,
			},
			&cli.IntFlag{
				Name:        "afk_update",
				Usage:       "idle check interval in `SECONDS` (default afk.update_seconds)",
				Destination: &flags.AFKUpdate,
			},
			&cli.IntFlag{
				Name:        "interval",
				Usage:       "re-send the activity every `SECONDS`",
				Destination: &flags.Interval,
			},
			&cli.IntFlag{
				Name:        "exit_after",
				Usage:       "clear the activity and exit after `SECONDS`",
				Destination: &flags.ExitAfter,
			},
			&cli.BoolFlag{
				Name:        "disable_color",
				Usage:       "plain terminal output",
				Destination: &flags.DisableColor,
			},
			&cli.StringFlag{
				Name:        "data_dir",
				Usage:       "directory holding config.toml and richcord.log (default ~/.richcord)",
				Sources:     cli.EnvVars("RICHCORD_DATA_DIR"),
				Destination: &flags.DataDir,
			},
			&cli.StringFlag{
				Name:        "log_level",
				Usage:       "log level (trace, debug, info, warn, error); overrides log.level",
				Destination: &flags.LogLevel,
			},
			&cli.BoolFlag{
				Name:        "verbose",
				Usage:       "mirror log output to stderr",
				Destination: &flags.Verbose,
			},
		}, activityFlags()...),
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			return ctx, setup(flags)
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			if c.Args().Len() > 0 {
				return fmt.Errorf("unexpected argument %q. Run 'richcord --help' for usage", c.Args().First())
			}
			return run(ctx, c, flags)
		},
	}
}

// ///////////////////////////////////////////////
// Setup
// ///////////////////////////////////////////////

// logCloser flushes the log file on exit.
var logCloser io.Closer

// setup loads config, installs the default logger and builds the printer.
func setup(flags *Flags) error {
	dir, err := paths.Default(flags.DataDir)
	if err != nil {
		return fmt.Errorf("resolve data directory: %w", err)
	}
	flags.DataDir = dir.Root

	if created, err := config.WriteDefault(dir.Root, rootpkg.DefaultConfigTOML); err != nil {
		slog.Warn("failed to write default config", "error", err)
	} else if created {
		slog.Debug("wrote default config", "path", dir.Config())
	}

	cfg, err := config.Load(dir.Root)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	flags.Config = cfg

	level := cfg.Log.Level
	if flags.LogLevel != "" {
		level = flags.LogLevel
	}
	opts := logger.Options{
		Path:      dir.Log(),
		Level:     logger.ParseLevel(level),
		MaxSizeMB: cfg.Log.MaxSizeMB,
	}
	if flags.Verbose {
		opts.Mirror = os.Stderr
	}
	log, closer := logger.New(opts)
	slog.SetDefault(log)
	logCloser = closer

	flags.Printer = printer.New(os.Stderr, cfg.Display.Color && !flags.DisableColor)
	slog.Debug("richcord starting", "version", resolveVersion(), "data_dir", dir.Root)
	return nil
}

// ///////////////////////////////////////////////
// Main
// ///////////////////////////////////////////////

func main() {
	flags := &Flags{}
	app := newApp(flags)

	ctx, stop := signalContext(context.Background())
	err := app.Run(ctx, os.Args)
	stop()

	if err != nil {
		slog.Error("exiting", "error", err)
		report(flags, err)
	}
	if logCloser != nil {
		logCloser.Close()
	}
	if err != nil {
		os.Exit(1)
	}
}

// report prints err for the operator. Usage mistakes get a single line,
// everything else the error box.
func report(flags *Flags, err error) {
	p := flags.Printer
	if p == nil {
		p = printer.New(os.Stderr, !flags.DisableColor)
	}
	var usage *usageError
	if errors.As(err, &usage) {
		p.Errorf("%s", usage.Error())
		return
	}
	p.FatalError(err)
}

// signalContext returns a context cancelled by the first shutdown signal.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	sigCh := signalChannel()
	go func() {
		select {
		case sig := <-sigCh:
			slog.Info("received shutdown signal", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}
