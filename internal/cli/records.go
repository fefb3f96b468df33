package cli

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/rollcall/internal/identity"
	"github.com/roach88/rollcall/internal/model"
)

// LogOptions holds flags for the log command.
type LogOptions struct {
	*RootOptions
	Name string
}

// NewLogCommand creates the log command.
func NewLogCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &LogOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "log",
		Short: "Show attendance records, newest first",
		Long: `Show attendance records, newest first.

The admin sees every record, or one student's with --name. A student
sees only their own records.

Examples:
  rollcall log
  rollcall log --name "Ada Lovelace" --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLog(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Name, "name", "", "only records for this name (case-insensitive)")

	return cmd
}

func runLog(cmd *cobra.Command, opts *LogOptions) error {
	s, err := opts.openSession(cmd.Context())
	if err != nil {
		return err
	}
	defer s.Close()

	var records []model.AttendanceRecord
	if s.requireAdmin() == nil {
		if opts.Name != "" {
			records = s.ledger.RecordsForIdentity(opts.Name)
		} else {
			records = s.ledger.AllRecords()
		}
	} else {
		user, err := s.requireStudent()
		if err != nil {
			return err
		}
		if opts.Name != "" && !identity.Equal(opts.Name, user.Name) {
			return WrapExitError(ExitFailure, "students can only view their own records", ErrForbidden).
				WithErrCode(ErrCodeForbidden)
		}
		records = s.ledger.RecordsForIdentity(user.Name)
	}

	f := opts.formatter(cmd)
	if f.IsJSON() {
		return f.Success(records)
	}
	return writeRecords(f.Writer, records)
}

// NewMeCommand creates the me command.
func NewMeCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "me",
		Short:         "Show the logged-in student's attendance summary",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.openSession(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			user, err := s.requireStudent()
			if err != nil {
				return err
			}
			summary := s.ledger.Summary(user.Name)

			f := opts.formatter(cmd)
			if f.IsJSON() {
				return f.Success(summary)
			}

			w := f.Writer
			face := "Not Registered"
			if user.FaceDataRegistered {
				face = "Registered"
			}
			last := "Never"
			if !summary.LastCheckIn.IsZero() {
				last = summary.LastCheckIn.In(s.ledger.Location()).Format(time.DateTime)
			}
			fmt.Fprintf(w, "Name:            %s\n", user.Name)
			fmt.Fprintf(w, "Email:           %s\n", user.Email)
			fmt.Fprintf(w, "Face data:       %s\n", face)
			fmt.Fprintf(w, "Total check-ins: %d\n", summary.TotalCheckIns)
			fmt.Fprintf(w, "Last check-in:   %s\n", last)
			fmt.Fprintln(w)
			return writeRecords(w, summary.Records)
		},
	}
}

// writeRecords prints records as an aligned table.
func writeRecords(w io.Writer, records []model.AttendanceRecord) error {
	if len(records) == 0 {
		_, err := fmt.Fprintln(w, "No attendance records yet.")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tTIMESTAMP\tDATE")
	for _, r := range records {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", r.Name, r.Timestamp, r.Date)
	}
	return tw.Flush()
}
