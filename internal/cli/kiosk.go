package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/roach88/rollcall/internal/kiosk"
	"github.com/roach88/rollcall/internal/recognition"
)

// NewKioskCommand creates the kiosk command.
func NewKioskCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "kiosk",
		Short: "Run the check-in kiosk",
		Long: `Run the check-in kiosk for one session.

Every ROLLCALL_DETECTION_INTERVAL the kiosk "recognizes" a random student
with face data and marks them present, until every eligible student was
seen or ROLLCALL_MAX_RECOGNITIONS is reached. Operator commands are read
from stdin; type "help" for the list.

Examples:
  rollcall kiosk
  ROLLCALL_DETECTION_INTERVAL=1s rollcall kiosk`,
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

			if err := s.requireAdmin(); err != nil {
				return err
			}

			simOpts := []recognition.Option{
				recognition.WithMaxRecognitions(s.cfg.MaxRecognitions),
				recognition.WithLogger(s.logger),
			}
			if opts.Rand != nil {
				simOpts = append(simOpts, recognition.WithRand(opts.Rand))
			}
			sim := recognition.NewSimulator(s.dir, s.ledger, simOpts...)

			k := kiosk.New(s.ledger, sim, cmd.OutOrStdout(),
				kiosk.WithInterval(s.cfg.DetectionInterval),
				kiosk.WithLogger(s.logger),
			)
			err = k.Run(ctx, cmd.InOrStdin())
			if errors.Is(err, context.Canceled) {
				return nil
			}
			if err != nil {
				return WrapExitError(ExitFailure, "kiosk stopped", err)
			}
			return nil
		},
	}
}
