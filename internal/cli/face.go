package cli

import (
	"github.com/spf13/cobra"
)

// NewFaceCommand creates the face command group.
func NewFaceCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "face",
		Short: "Manage the logged-in student's face data",
		Long: `Register or remove face data for the logged-in student.

Only students with face data are picked by the recognition kiosk.`,
	}

	cmd.AddCommand(newFaceToggleCommand(opts, "register", "Register face data", true))
	cmd.AddCommand(newFaceToggleCommand(opts, "remove", "Remove face data", false))

	return cmd
}

func newFaceToggleCommand(opts *RootOptions, use, short string, registered bool) *cobra.Command {
	return &cobra.Command{
		Use:           use,
		Short:         short,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := opts.openSession(ctx)
			if err != nil {
				return err
			}
			defer s.Close()

			user, err := s.requireStudent()
			if err != nil {
				return err
			}
			res, err := s.dir.SetFaceData(ctx, user.ID, registered)
			if err != nil {
				return storageFailed(err)
			}
			if !res.Success {
				return rejected(res)
			}

			f := opts.formatter(cmd)
			if f.IsJSON() {
				return f.Success(res)
			}
			return f.Success(res.Message)
		},
	}
}
