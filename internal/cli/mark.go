package cli

import (
	"github.com/spf13/cobra"
)

// NewMarkCommand creates the mark command.
func NewMarkCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "mark <name>",
		Short: "Mark a student present",
		Long: `Mark a student present by name.

Each invocation is its own session, so marking the same name twice in a
row records it twice. Use the kiosk for a long-running session with
duplicate checks.

Exit codes:
  0 - Marked present
  1 - Rejected (empty name) or not logged in as admin
  2 - Command error

Examples:
  rollcall mark "Ada Lovelace"`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := opts.openSession(ctx)
			if err != nil {
				return err
			}
			defer s.Close()

			if err := s.requireAdmin(); err != nil {
				return err
			}
			res := s.ledger.MarkPresent(ctx, args[0])
			if !res.Success {
				return rejected(res.Result)
			}

			f := opts.formatter(cmd)
			if f.IsJSON() {
				return f.Success(res)
			}
			return f.Success(res.Message)
		},
	}
}
