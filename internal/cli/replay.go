package cli

import (
	"context"
	"time"

	"github.com/okian/auscult/internal/replay"
	"github.com/spf13/cobra"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	Config replay.Config
	Stats  bool
}

// replayOutput is the document printed with --stats.
type replayOutput struct {
	Stats  replay.Stats `json:"stats"`
	Report any          `json:"report"`
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay <capture.json|->",
		Short: "Post a capture to a running service and print its report",
		Long: `Replay a capture against a running auscult service.

Events are posted in capture order in batches, the command waits until
every batch is processed and then prints the session report.

Exit codes:
  0 - Report fetched
  1 - The service rejected the capture or did not settle
  2 - Command error (capture unreadable)

Examples:
  auscult replay --url http://localhost:9080 capture.json
  auscult replay --session demo --flush --events capture.json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(cmd.Context(), opts, cmd, args[0])
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.Config.BaseURL, "url", "http://localhost:9080", "base URL of the service")
	f.StringVar(&opts.Config.SessionID, "session", "", "target session (default: the capture's sessionId or a new uuid)")
	f.IntVar(&opts.Config.BatchSize, "batch-size", replay.DefaultBatchSize, "events per request")
	f.DurationVar(&opts.Config.Timeout, "timeout", replay.DefaultTimeout, "HTTP request timeout")
	f.DurationVar(&opts.Config.Settle, "settle", replay.DefaultSettle, "how long to wait for processing")
	f.IntVar(&opts.Config.MaxRetries, "retries", replay.DefaultMaxRetries, "retries per rate-limited batch")
	f.BoolVar(&opts.Config.Flush, "flush", true, "release held events before fetching the report")
	f.BoolVar(&opts.Config.Events, "events", false, "include the normalized events")
	f.BoolVar(&opts.Stats, "stats", false, "print replay statistics next to the report")

	return cmd
}

func runReplay(ctx context.Context, opts *ReplayOptions, cmd *cobra.Command, path string) error {
	if ctx == nil {
		ctx = context.Background()
	}

	data, err := readCapture(cmd.InOrStdin(), path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read capture", err)
	}

	// One deadline for the whole run on top of the per-request timeout.
	runCtx, cancel := context.WithTimeout(ctx, opts.Config.Settle+10*opts.Config.Timeout+time.Minute)
	defer cancel()

	rep, stats, err := replay.Run(runCtx, opts.Config, data)
	if err != nil {
		return WrapExitError(ExitFailure, "replay failed", err)
	}

	if opts.Stats {
		return writeDocument(cmd.OutOrStdout(), opts.Format, replayOutput{Stats: stats, Report: rep})
	}
	return writeDocument(cmd.OutOrStdout(), opts.Format, rep)
}
