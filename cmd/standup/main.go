package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"
	_ "time/tzdata"

	"github.com/ericksa/reclaimdigest/internal/app"
	"github.com/ericksa/reclaimdigest/internal/config"
	"github.com/ericksa/reclaimdigest/internal/digest"
	"github.com/spf13/cobra"
)

// source is the part of the composer the CLI reads from.
type source interface {
	Daily(ctx context.Context) (*digest.DailyDigest, error)
	EmailSummary(ctx context.Context) (*digest.EmailSummary, error)
	Upcoming(ctx context.Context) (*digest.UpcomingDigest, error)
}

type options struct {
	configFile string
	output     string
	timeout    time.Duration
}

// openSource is replaced in tests.
var openSource = func(opts *options) (source, error) {
	cfg, err := config.Load(opts.configFile)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if _, err := cfg.Credential(); err != nil {
		return nil, err
	}
	logger := cfg.Log.NewLogger(os.Stderr)
	return app.NewComposer(cfg, app.NewClient(cfg, logger), logger)
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:   "standup",
		Short: "Reclaim task digest for the daily standup",
		Long: `Print a digest of your Reclaim.ai tasks.

Output formats:
  console            colored terminal output (default)
  json, yaml         machine readable output on stdout
  <file>.json|.yaml  write to a file, format by extension
  <file>.md|.txt     markdown report
  <file>.html        HTML report

Example:
  standup daily
  standup summary --output /tmp/summary.html
  standup upcoming -o yaml`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&opts.configFile, "config", "", "config file (default: ./config.yaml or ~/.reclaimdigest/config.yaml)")
	root.PersistentFlags().StringVarP(&opts.output, "output", "o", "console", "output format or file path")
	root.PersistentFlags().DurationVar(&opts.timeout, "timeout", time.Minute, "overall timeout")

	root.AddCommand(
		reportCmd(opts, "daily", "Urgency-bucketed daily digest", func(ctx context.Context, s source) (*report, error) {
			d, err := s.Daily(ctx)
			if err != nil {
				return nil, err
			}
			return dailyReport(d), nil
		}),
		reportCmd(opts, "summary", "Overdue and at-risk summary", func(ctx context.Context, s source) (*report, error) {
			e, err := s.EmailSummary(ctx)
			if err != nil {
				return nil, err
			}
			return summaryReport(e), nil
		}),
		reportCmd(opts, "upcoming", "Next due open tasks", func(ctx context.Context, s source) (*report, error) {
			u, err := s.Upcoming(ctx)
			if err != nil {
				return nil, err
			}
			return upcomingReport(u), nil
		}),
	)
	return root
}

func reportCmd(opts *options, use, short string, build func(context.Context, source) (*report, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := openSource(opts)
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), opts.timeout)
			defer cancel()

			r, err := build(ctx, src)
			if err != nil {
				return fmt.Errorf("generating report: %w", err)
			}
			return writeReport(cmd.OutOrStdout(), r, opts.output)
		},
	}
}

func writeReport(w io.Writer, r *report, output string) error {
	path, format := resolveOutput(output)
	if path == "" {
		return render(w, r, format)
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := render(f, r, format); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Fprintf(w, "Report written to: %s\n", path)
	return nil
}
