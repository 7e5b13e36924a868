package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/urfave/cli/v3"
	"tools.zach/dev/richcord/internal/config"
	"tools.zach/dev/richcord/internal/discord"
	"tools.zach/dev/richcord/internal/follow"
	"tools.zach/dev/richcord/internal/idle"
	"tools.zach/dev/richcord/internal/mode"
	"tools.zach/dev/richcord/internal/paths"
	"tools.zach/dev/richcord/internal/presence"
	"tools.zach/dev/richcord/internal/session"
	"tools.zach/dev/richcord/internal/update"
)

// usageError is a mistake in the command line rather than a runtime failure.
type usageError struct{ msg string }

func (e *usageError) Error() string { return e.msg }

// ///////////////////////////////////////////////
// Mode Selection
// ///////////////////////////////////////////////

// run picks the mode from the flags and runs it to completion.
func run(ctx context.Context, c *cli.Command, flags *Flags) error {
	if err := checkFlags(flags); err != nil {
		return err
	}
	if flags.AFK {
		return runAFK(ctx, c, flags)
	}

	appID, err := clientID(flags)
	if err != nil {
		return err
	}
	activity, err := activityFromFlags(c)
	if err != nil {
		return err
	}
	if flags.Update {
		return runStream(ctx, flags, appID, activity)
	}
	return runOneShot(ctx, c, flags, appID, activity)
}

// checkFlags rejects flag combinations no mode accepts.
func checkFlags(flags *Flags) error {
	switch {
	case flags.Update && flags.AFK:
		return &usageError{"--update and --afk cannot be used together"}
	case flags.Input != "" && !flags.Update:
		return &usageError{"--input requires --update"}
	case flags.Follow && flags.Input == "":
		return &usageError{"--follow requires --input"}
	case flags.Interval < 0, flags.ExitAfter < 0, flags.AFKAfter < 0, flags.AFKUpdate < 0:
		return &usageError{"durations must not be negative"}
	}
	return nil
}

// clientID resolves the application ID from --client_id, RICHCORD_CLIENT_ID
// or discord.app_id, in that order.
func clientID(flags *Flags) (string, error) {
	id := flags.ClientID
	if id == "" {
		id = flags.Config.Discord.AppID
	}
	if id == "" {
		return "", &usageError{"no Discord application ID: pass --client_id or set discord.app_id in " + paths.ConfigFile}
	}
	if !config.ValidAppID(id) {
		return "", &usageError{fmt.Sprintf("%q is not a Discord application ID", id)}
	}
	return id, nil
}

// opener connects a session for appID using the connection settings in cfg.
func opener(appID string, cfg *config.Config) mode.Opener {
	return func(ctx context.Context) (mode.Publisher, error) {
		client := discord.NewClient(appID)
		client.SetTimeout(cfg.Timeout())
		s, err := session.Open(ctx, client, session.Options{
			ConnectAttempts: cfg.Discord.ConnectAttempts,
			RetryInterval:   cfg.RetryInterval(),
		})
		if err != nil {
			return nil, err
		}
		slog.Info("connected to discord", "app_id", appID)
		return s, nil
	}
}

func seconds(n int) time.Duration { return time.Duration(n) * time.Second }

// orConfig returns the flag value when the flag was given, else def.
func orConfig(c *cli.Command, name string, flag, def int) int {
	if c.IsSet(name) {
		return flag
	}
	return def
}

// checkForUpdate runs the release check in the background for long-running
// modes.
func checkForUpdate(ctx context.Context, cfg *config.Config) {
	if !cfg.Update.Check {
		return
	}
	go func() {
		defer func() {
			if r := recover(); r != nil {
				slog.Error("update check panic", "error", r)
			}
		}()
		update.Notify(ctx, resolveVersion())
	}()
}

// ///////////////////////////////////////////////
// Modes
// ///////////////////////////////////////////////

func runOneShot(ctx context.Context, c *cli.Command, flags *Flags, appID string, activity presence.Activity) error {
	cfg := flags.Config
	driver := &mode.OneShot{
		Activity:        activity,
		Validator:       presence.Validator{StrictParty: cfg.Behavior.StrictParty},
		Open:            opener(appID, cfg),
		Interval:        seconds(orConfig(c, "interval", flags.Interval, cfg.Behavior.IntervalSeconds)),
		ExitAfter:       seconds(orConfig(c, "exit_after", flags.ExitAfter, cfg.Behavior.ExitAfterSeconds)),
		TeardownTimeout: cfg.TeardownTimeout(),
	}
	if activity.IsEmpty() {
		flags.Printer.Warnf("no activity flags given; presence will be cleared")
	}
	flags.Printer.Infof("Publishing presence. Press Ctrl+C to clear and exit.")
	if err := driver.Run(ctx); err != nil {
		return err
	}
	flags.Printer.Successf("Presence cleared")
	return nil
}

func runStream(ctx context.Context, flags *Flags, appID string, base presence.Activity) error {
	cfg := flags.Config

	var input io.Reader = os.Stdin
	switch {
	case flags.Follow:
		r, err := follow.Open(ctx, flags.Input)
		if err != nil {
			return fmt.Errorf("follow input: %w", err)
		}
		defer r.Close()
		input = r
	case flags.Input != "":
		f, err := os.Open(flags.Input)
		if err != nil {
			return fmt.Errorf("open input: %w", err)
		}
		defer f.Close()
		input = f
	}

	checkForUpdate(ctx, cfg)

	driver := &mode.Stream{
		Input:           input,
		Base:            base,
		Validator:       presence.Validator{StrictParty: cfg.Behavior.StrictParty},
		Open:            opener(appID, cfg),
		TeardownTimeout: cfg.TeardownTimeout(),
		Report:          flags.Printer.Skipped,
	}
	err := driver.Run(ctx)
	stats := driver.Stats()
	slog.Info("stream finished", "lines", stats.Lines, "published", stats.Published,
		"malformed", stats.Malformed, "rejected", stats.Rejected)
	if err != nil {
		return err
	}
	flags.Printer.Infof("%d lines read, %d published, %d skipped",
		stats.Lines, stats.Published, stats.Malformed+stats.Rejected)
	return nil
}

func runAFK(ctx context.Context, c *cli.Command, flags *Flags) error {
	cfg := flags.Config
	for _, f := range activityFlags() {
		if c.IsSet(f.Names()[0]) {
			flags.Printer.Warnf("activity flags are ignored with --afk")
			break
		}
	}
	if cfg.AFK.AppID == config.DefaultAFKAppID {
		return &usageError{"--afk needs your own Discord application: set afk.app_id in " + paths.ConfigFile}
	}

	dir := paths.DataDir{Root: flags.DataDir}
	lock, err := acquirePID(dir.PID())
	if err != nil {
		return err
	}
	defer lock.Release()

	checkForUpdate(ctx, cfg)

	after := seconds(60 * orConfig(c, "afk_after", flags.AFKAfter, cfg.AFK.AfterMinutes))
	driver := &mode.AFK{
		Probe:     idle.System(),
		Open:      opener(cfg.AFK.AppID, cfg),
		Threshold: after,
		Poll:      seconds(orConfig(c, "afk_update", flags.AFKUpdate, cfg.AFK.UpdateSeconds)),
		Away: mode.AwayTemplate{
			Details:    cfg.AFK.Details,
			State:      cfg.AFK.State,
			LargeImage: cfg.AFK.LargeImage,
			LargeText:  cfg.AFK.LargeText,
		},
		Validator:       presence.Validator{StrictParty: cfg.Behavior.StrictParty},
		TeardownTimeout: cfg.TeardownTimeout(),
	}
	flags.Printer.Infof("Watching for idle: away after %s. Press Ctrl+C to stop.", after)
	return driver.Run(ctx)
}
