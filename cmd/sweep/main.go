// Command sweep runs one recycle bin cleanup against the configured SFTP
// server and prints the report as JSON.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"sftp-gateway/internal/config"
	"sftp-gateway/internal/logger"
	"sftp-gateway/internal/model"
	"sftp-gateway/internal/remote"
	"sftp-gateway/internal/retention"
)

func main() {
	if err := run(); err != nil {
		slog.Error("sweep failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	var dryRun bool
	var envFiles []string

	flagSet := pflag.NewFlagSet("sweep", pflag.ContinueOnError)
	flagSet.BoolVar(&dryRun, "dry-run", false, "list expired entries without deleting them")
	flagSet.StringSliceVar(&envFiles, "env-file", nil, "load variables from these files before the environment (default .env)")
	flagSet.BoolP("help", "h", false, "show help")

	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			printHelp(flagSet)
			return nil
		}
		return err
	}

	if help, _ := flagSet.GetBool("help"); help {
		printHelp(flagSet)
		return nil
	}

	// Logs go to stderr so stdout carries only the report.
	level := new(slog.LevelVar)
	logHandler := logger.NewPrettyHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	if os.Getenv("NO_COLOR") != "" {
		logHandler = logHandler.WithoutColor()
	}
	slog.SetDefault(slog.New(logHandler))

	cfg, err := config.LoadRemote(envFiles...)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	level.Set(logger.ParseLevel(cfg.LogLevel))

	dialer, err := remote.NewSFTPDialer(cfg.SFTP)
	if err != nil {
		return err
	}

	sweeper := retention.NewSweeper(dialer, cfg.RecycleBinPath, retention.DefaultPolicy(),
		retention.WithConcurrency(cfg.SweepConcurrency),
		retention.WithTimeout(cfg.SweepTimeout),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var report model.SweepReport
	var sweepErr error
	if dryRun {
		report, sweepErr = sweeper.DryRun(ctx)
	} else {
		report, sweepErr = sweeper.Run(ctx)
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(report); err != nil {
		return errors.Join(sweepErr, err)
	}

	return sweepErr
}

func printHelp(flagSet *pflag.FlagSet) {
	fmt.Fprintf(os.Stderr, `Deletes recycle bin entries older than 30 days from the SFTP server.

Reads the same environment as the gateway (SFTP_HOST, SFTP_USER, SFTP_PASS,
RECYCLE_BIN_PATH, ...). Exits non-zero if any step of the sweep failed.

Usage:
  sweep [flags]

Flags:
%s`, flagSet.FlagUsages())
}
