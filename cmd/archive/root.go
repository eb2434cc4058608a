package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/kacper-wojtaszczyk/archive-go/internal/archive"
	"github.com/kacper-wojtaszczyk/archive-go/internal/clock"
	"github.com/kacper-wojtaszczyk/archive-go/internal/config"
	"github.com/kacper-wojtaszczyk/archive-go/internal/logging"
	"github.com/kacper-wojtaszczyk/archive-go/internal/model"
	"github.com/kacper-wojtaszczyk/archive-go/internal/storage"
)

// app carries what the commands share. Tests replace newStorage and clock.
type app struct {
	newStorage func(ctx context.Context, cfg *config.Config) (storage.Client, error)
	clock      clock.Clock
	console    *os.File

	configPath string
	runID      string
	dryRun     bool

	// set once a command's RunE is entered
	started  bool
	cfg      *config.Config
	closeLog func() error
}

// flag name -> config key
var boundFlags = map[string]string{
	"provider":    config.EnvProvider,
	"endpoint":    config.EnvEndpoint,
	"bucket":      config.EnvBucket,
	"prefix":      config.EnvPrefix,
	"key-mapping": config.EnvKeyMapping,
	"concurrency": config.EnvConcurrency,
	"root":        config.EnvSnapshotRoot,
	"log-level":   config.EnvLogLevel,
	"log-format":  config.EnvLogFormat,
	"log-file":    config.EnvLogFile,
}

func newRootCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "archive",
		Short:         "Archive files, directory trees and daily snapshots to object storage",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.SetFlagErrorFunc(func(c *cobra.Command, err error) error {
		return fmt.Errorf("%w: %w", errUsage, err)
	})

	f := cmd.PersistentFlags()
	f.StringVarP(&a.configPath, "config", "c", "", "config file (yaml, json, toml, env)")
	f.StringVar(&a.runID, "run-id", "", "run identifier (UUIDv7), generated when empty")
	f.BoolVar(&a.dryRun, "dry-run", false, "plan and log uploads without writing objects")
	f.String("provider", "", "storage provider: s3 or minio")
	f.String("endpoint", "", "storage endpoint, required for minio")
	f.String("bucket", "", "target bucket")
	f.String("prefix", "", "prefix for every object key")
	f.String("key-mapping", "", "directory key mapping: base or flat")
	f.Int("concurrency", 0, "parallel uploads in a directory batch")
	f.String("log-level", "", "debug, info, warn or error")
	f.String("log-format", "", "auto, text or json")
	f.String("log-file", "", "also append JSON logs to this file")

	cmd.AddCommand(
		newBucketsCmd(a),
		newFileCmd(a),
		newDirCmd(a),
		newSnapshotCmd(a),
		newVersionCmd(),
	)
	return cmd
}

// setup loads the configuration, installs the logger and tags it with the
// run-id. Every command that talks to storage calls it first.
func (a *app) setup(cmd *cobra.Command) error {
	a.started = true

	v, err := config.New(a.configPath)
	if err != nil {
		return fmt.Errorf("%w: %w", errUsage, err)
	}
	for name, key := range boundFlags {
		flag := cmd.Flags().Lookup(name)
		if flag == nil {
			continue
		}
		if err := v.BindPFlag(key, flag); err != nil {
			return fmt.Errorf("bind flag %s: %w", name, err)
		}
	}
	cfg, err := config.Load(v)
	if err != nil {
		return err
	}
	a.cfg = cfg

	runID := model.RunID(a.runID)
	if runID == "" {
		if runID, err = model.NewRunID(); err != nil {
			return err
		}
	} else if err := runID.Validate(); err != nil {
		return fmt.Errorf("%w: %w", errUsage, err)
	}

	logger, closeLog, err := logging.New(a.console, logging.Options{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
		File:   cfg.LogFile,
	})
	if err != nil {
		return &config.ErrInvalidValue{Name: config.EnvLogFile, Value: cfg.LogFile, Reason: err.Error()}
	}
	a.closeLog = closeLog
	slog.SetDefault(logger.With("run_id", runID.String()))

	slog.DebugContext(cmd.Context(), "configuration loaded",
		"command", cmd.Name(),
		"provider", cfg.Provider,
		"region", cfg.Region,
		"bucket", cfg.Bucket,
		"key_mapping", cfg.KeyMapping,
		"concurrency", cfg.Concurrency,
		"dry_run", a.dryRun,
	)
	return nil
}

// service builds the storage client and the archive service on top of it,
// then lists buckets as the run's credential check.
func (a *app) service(ctx context.Context, excludes, includes []string) (*archive.Service, error) {
	client, err := a.newStorage(ctx, a.cfg)
	if err != nil {
		return nil, fmt.Errorf("initialize %s client: %w", a.cfg.Provider, err)
	}
	svc := archive.NewService(client, archive.Options{
		Bucket:      a.cfg.Bucket,
		Prefix:      a.cfg.Prefix,
		KeyMapping:  a.cfg.KeyMapping,
		Concurrency: a.cfg.Concurrency,
		DryRun:      a.dryRun,
		Excludes:    excludes,
		Includes:    includes,
	})
	if _, err := svc.ListBuckets(ctx); err != nil {
		return nil, err
	}
	return svc, nil
}
