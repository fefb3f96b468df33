package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/roach88/rollcall/internal/csvexport"
)

// ExportOptions holds flags for the export command.
type ExportOptions struct {
	*RootOptions
	Dir    string
	Base   string
	Quoted bool
}

// ExportResult is the JSON payload of a successful export.
type ExportResult struct {
	Path        string `json:"path"`
	Records     int    `json:"records"`
	ContentType string `json:"contentType"`
}

// NewExportCommand creates the export command.
func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExportOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the attendance log to a CSV file",
		Long: `Write the attendance log to <dir>/<base>_<YYYY-MM-DD>.csv.

Rows are newest first under a "Name,Timestamp,Date" header. Names are
written as-is unless --quoted is given, in which case fields containing
commas, quotes or newlines are quoted.

Exit codes:
  0 - File written
  1 - Nothing to export, or not logged in as admin
  2 - Command error (unwritable directory, etc.)

Examples:
  rollcall export
  rollcall export --dir ./reports --base week12 --quoted`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Dir, "dir", "", "output directory (default $ROLLCALL_EXPORT_DIR)")
	cmd.Flags().StringVar(&opts.Base, "base", "", "file name prefix (default $ROLLCALL_EXPORT_BASE)")
	cmd.Flags().BoolVar(&opts.Quoted, "quoted", false, "quote fields that need it")

	return cmd
}

func runExport(cmd *cobra.Command, opts *ExportOptions) error {
	s, err := opts.openSession(cmd.Context())
	if err != nil {
		return err
	}
	defer s.Close()

	if err := s.requireAdmin(); err != nil {
		return err
	}

	content := s.ledger.ExportCSV()
	if content == "" {
		return NewExitError(ExitFailure, "No attendance data to export.").WithErrCode(ErrCodeNothingToExport)
	}
	if opts.Quoted {
		content, err = s.ledger.ExportQuotedCSV()
		if err != nil {
			return exportFailed("failed to render CSV", err)
		}
	}

	dir := opts.Dir
	if dir == "" {
		dir = s.cfg.ExportDir
	}
	base := opts.Base
	if base == "" {
		base = s.cfg.ExportBase
	}

	path, err := csvexport.WriteFile(dir, base, content, s.now(opts.Clock))
	if err != nil {
		return exportFailed("failed to write export", err)
	}

	n := len(s.ledger.AllRecords())
	s.logger.Info("attendance exported", zap.String("path", path), zap.Int("records", n))
	f := opts.formatter(cmd)
	if f.IsJSON() {
		return f.Success(ExportResult{Path: path, Records: n, ContentType: csvexport.ContentType})
	}
	f.VerboseLog("%s", content)
	return f.Success(fmt.Sprintf("Exported %d record(s) to %s", n, path))
}

func exportFailed(message string, err error) error {
	return WrapExitError(ExitCommandError, message, err).WithErrCode(ErrCodeWriteFailed)
}
