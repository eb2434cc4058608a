package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/kacper-wojtaszczyk/archive-go/internal/archive"
	"github.com/kacper-wojtaszczyk/archive-go/internal/snapshot"
)

func exactArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := cobra.ExactArgs(n)(cmd, args); err != nil {
			return fmt.Errorf("%w: %w", errUsage, err)
		}
		return nil
	}
}

func newBucketsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "buckets",
		Short: "List the buckets visible to the configured credentials",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.setup(cmd); err != nil {
				return err
			}
			_, err := a.service(cmd.Context(), nil, nil)
			return err
		},
	}
}

func newFileCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "file <path>",
		Short: "Upload one file under its base name",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.setup(cmd); err != nil {
				return err
			}
			if err := a.cfg.RequireBucket(); err != nil {
				return err
			}
			ctx := cmd.Context()
			svc, err := a.service(ctx, nil, nil)
			if err != nil {
				archive.LogSummary(ctx, nil, err)
				return err
			}

			started := time.Now()
			res, err := svc.UploadFile(ctx, args[0])
			if errors.Is(err, archive.ErrSourceNotFound) {
				archive.LogSummary(ctx, nil, err)
				return err
			}
			archive.LogSummary(ctx, &archive.Report{
				Bucket:   a.cfg.Bucket,
				DryRun:   a.dryRun,
				Results:  []archive.UploadResult{res},
				Single:   true,
				Started:  started,
				Finished: time.Now(),
			}, err)
			return err
		},
	}
}

type filterFlags struct {
	excludes []string
	includes []string
}

func (f *filterFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringSliceVar(&f.excludes, "exclude", nil, "gitignore-style pattern to skip (repeatable)")
	cmd.Flags().StringSliceVar(&f.includes, "include", nil, "glob a file must match to be uploaded (repeatable)")
}

// validate rejects bad include globs before any storage call.
func (f *filterFlags) validate() error {
	if err := archive.ValidateIncludes(f.includes); err != nil {
		return fmt.Errorf("%w: %w", errUsage, err)
	}
	return nil
}

func newDirCmd(a *app) *cobra.Command {
	var filters filterFlags
	cmd := &cobra.Command{
		Use:   "dir <path>",
		Short: "Upload a directory tree, one object per regular file",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.setup(cmd); err != nil {
				return err
			}
			if err := a.cfg.RequireBucket(); err != nil {
				return err
			}
			if err := filters.validate(); err != nil {
				return err
			}
			ctx := cmd.Context()
			svc, err := a.service(ctx, filters.excludes, filters.includes)
			if err != nil {
				archive.LogSummary(ctx, nil, err)
				return err
			}

			report, err := svc.UploadDirectory(ctx, args[0])
			return finish(ctx, report, err)
		},
	}
	filters.register(cmd)
	return cmd
}

func newSnapshotCmd(a *app) *cobra.Command {
	var (
		filters filterFlags
		date    string
	)
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Upload the dated snapshot directory for a day (default yesterday)",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.setup(cmd); err != nil {
				return err
			}
			if err := a.cfg.RequireBucket(); err != nil {
				return err
			}
			if err := a.cfg.RequireSnapshotRoot(); err != nil {
				return err
			}
			target, err := snapshot.TargetDate(date, a.clock)
			if err != nil {
				return fmt.Errorf("%w: %w", errUsage, err)
			}
			if err := filters.validate(); err != nil {
				return err
			}

			ctx := cmd.Context()
			svc, err := a.service(ctx, filters.excludes, filters.includes)
			if err != nil {
				archive.LogSummary(ctx, nil, err)
				return err
			}

			_, report, err := svc.ArchiveSnapshot(ctx, a.cfg.SnapshotRoot, target)
			return finish(ctx, report, err)
		},
	}
	cmd.Flags().String("root", "", "directory holding the dated snapshot directories")
	cmd.Flags().StringVar(&date, "date", "", "snapshot day as YYYY-MM-DD (default yesterday)")
	filters.register(cmd)
	return cmd
}

// finish logs the summary of a directory batch and turns its outcome into
// the command's error.
func finish(ctx context.Context, report *archive.Report, err error) error {
	archive.LogSummary(ctx, report, err)
	if err != nil {
		return err
	}
	return errors.Join(report.Err(), ctx.Err())
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  exactArgs(0),
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version)
		},
	}
}
