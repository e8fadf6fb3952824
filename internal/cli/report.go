package cli

import (
	"context"

	service "github.com/okian/auscult/internal/app"
	"github.com/okian/auscult/internal/config"
	"github.com/okian/auscult/internal/domain/model"
	"github.com/okian/auscult/pkg/logger"
	"github.com/spf13/cobra"
)

// ReportOptions holds flags for the report command.
type ReportOptions struct {
	*RootOptions
	Vocabulary string
	Events     bool
	Audit      bool
	HoldMS     int
	WindowMS   int
}

// NewReportCommand creates the report command.
func NewReportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReportOptions{RootOptions: rootOpts}
	defaults := config.New()

	cmd := &cobra.Command{
		Use:   "report <capture.json|->",
		Short: "Build a report from a capture file offline",
		Long: `Run the whole pipeline over a capture file without a server.

The capture is either a JSON array of raw events or an object with an
"events" array. Held events are flushed before the report is assembled.

Examples:
  auscult report capture.json
  auscult report --format yaml --events capture.json
  cat capture.json | auscult report --audit -`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReport(cmd.Context(), opts, cmd, args[0])
		},
	}

	cmd.Flags().StringVar(&opts.Vocabulary, "vocabulary", "", "YAML file overriding lists of the built-in vocabulary")
	cmd.Flags().BoolVar(&opts.Events, "events", false, "include the normalized events")
	cmd.Flags().BoolVar(&opts.Audit, "audit", false, "emit the filter audit and counters next to the report")
	cmd.Flags().IntVar(&opts.HoldMS, "hold-ms", defaults.HoldMS, "hold before an accepted event is released")
	cmd.Flags().IntVar(&opts.WindowMS, "window-ms", defaults.DedupeWindowMS, "duplicate window")

	return cmd
}

func runReport(ctx context.Context, opts *ReportOptions, cmd *cobra.Command, path string) error {
	if ctx == nil {
		ctx = context.Background()
	}

	data, err := readCapture(cmd.InOrStdin(), path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read capture", err)
	}
	events, malformed, err := model.DecodeRawEvents(data)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to decode capture", err)
	}

	cfg := config.New()
	cfg.VocabularyFile = opts.Vocabulary
	cfg.HoldMS = opts.HoldMS
	cfg.DedupeWindowMS = opts.WindowMS
	if err := cfg.Validate(); err != nil {
		return WrapExitError(ExitCommandError, "invalid filter settings", err)
	}
	pipeline, err := cfg.Pipeline()
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load vocabulary", err)
	}

	svc := service.New(service.WithPipeline(pipeline), service.WithLogger(logger.Get().Named("report")))
	res := svc.Analyze(ctx, events)
	res.Malformed = malformed
	if !opts.Events {
		res.Report.Events = nil
	}

	if opts.Audit {
		return writeDocument(cmd.OutOrStdout(), opts.Format, res)
	}
	return writeDocument(cmd.OutOrStdout(), opts.Format, res.Report)
}
