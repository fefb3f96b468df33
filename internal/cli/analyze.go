package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/rollcall/internal/anomaly"
	"github.com/roach88/rollcall/internal/config"
)

// errAIDisabled is returned by the default model factory without an API key.
var errAIDisabled = errors.New("GEMINI_API_KEY is not set")

// AnalyzeOptions holds flags for the analyze command.
type AnalyzeOptions struct {
	*RootOptions
	Summarize bool
}

// AnalyzeResult is the JSON payload of the analyze command.
type AnalyzeResult struct {
	Detection anomaly.DetectionReport `json:"detection"`
	Summary   *anomaly.SummaryReport  `json:"summary,omitempty"`
}

// NewAnalyzeCommand creates the analyze command.
func NewAnalyzeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &AnalyzeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Look for attendance anomalies with a language model",
		Long: `Send the attendance log as CSV to the configured model and report
anomalies such as unusual check-in times or missing students.

Requires GEMINI_API_KEY. With --summarize the findings are condensed
into a short overview by a second call.

Exit codes:
  0 - Analysis printed
  1 - Empty log, no API key, model failure, or not logged in as admin
  2 - Command error

Examples:
  rollcall analyze
  rollcall analyze --summarize --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(cmd, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.Summarize, "summarize", false, "summarize the detected anomalies")

	return cmd
}

func runAnalyze(cmd *cobra.Command, opts *AnalyzeOptions) error {
	ctx := cmd.Context()
	s, err := opts.openSession(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	if err := s.requireAdmin(); err != nil {
		return err
	}

	newModel := opts.NewModel
	if newModel == nil {
		newModel = newGeminiModel
	}
	model, err := newModel(ctx, s.cfg)
	if err != nil {
		return analysisFailed(err)
	}
	analyzer, err := anomaly.New(model, anomaly.WithLogger(s.logger))
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load prompt catalog", err)
	}

	var result AnalyzeResult
	result.Detection, err = analyzer.Detect(ctx, s.ledger.ExportCSV())
	if err != nil {
		return analysisFailed(err)
	}
	if opts.Summarize {
		if input, ok := anomaly.SummaryInput(result.Detection); ok {
			summary, err := analyzer.Summarize(ctx, input)
			if err != nil {
				return analysisFailed(err)
			}
			result.Summary = &summary
		} else {
			s.logger.Debug("nothing to summarize")
		}
	}

	f := opts.formatter(cmd)
	if f.IsJSON() {
		return f.Success(result)
	}

	w := f.Writer
	fmt.Fprintf(w, "Summary: %s\n", result.Detection.Summary)
	if len(result.Detection.Anomalies) == 0 {
		fmt.Fprintln(w, "No anomalies found.")
	} else {
		fmt.Fprintln(w, "Anomalies:")
		for _, a := range result.Detection.Anomalies {
			fmt.Fprintf(w, "  - %s\n", a)
		}
	}
	if result.Summary != nil {
		fmt.Fprintf(w, "Overview: %s\n", result.Summary.Summary)
	}
	return nil
}

func newGeminiModel(ctx context.Context, cfg config.Config) (anomaly.Model, error) {
	if !cfg.AIEnabled() {
		return nil, errAIDisabled
	}
	m, err := anomaly.NewGeminiModel(ctx, cfg.GeminiAPIKey, cfg.Model)
	if err != nil {
		return nil, err
	}
	return m, nil
}

// analysisFailed maps analyzer errors to exit errors.
func analysisFailed(err error) error {
	switch {
	case errors.Is(err, errAIDisabled):
		return WrapExitError(ExitFailure, "anomaly detection is disabled", err).WithErrCode(ErrCodeAIDisabled)
	case errors.Is(err, anomaly.ErrEmptyInput):
		return NewExitError(ExitFailure, "No attendance data to analyze.").WithErrCode(ErrCodeNothingToExport)
	case errors.Is(err, anomaly.ErrInvalidOutput):
		return WrapExitError(ExitFailure, "analysis failed", err).WithErrCode(ErrCodeAIInvalidOutput)
	default:
		return WrapExitError(ExitFailure, "analysis failed", err).WithErrCode(ErrCodeAIUnavailable)
	}
}

