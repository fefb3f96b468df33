package cli

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/roach88/rollcall/internal/anomaly"
	"github.com/roach88/rollcall/internal/config"
	"github.com/roach88/rollcall/internal/directory"
	"github.com/roach88/rollcall/internal/ledger"
	"github.com/roach88/rollcall/internal/logging"
	"github.com/roach88/rollcall/internal/model"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"
	DBPath  string // overrides ROLLCALL_DB when set

	// Config is loaded from the environment before each command unless
	// already set.
	Config *config.Config
	// Logger is built from Config.LogLevel unless already set.
	Logger *zap.Logger

	// Hooks for tests. Zero values select the production behavior.
	Clock    ledger.Clock
	IDs      ledger.IDGenerator
	UserIDs  directory.IDGenerator
	HashCost int
	Rand     *rand.Rand
	NewModel func(ctx context.Context, cfg config.Config) (anomaly.Model, error)
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the rollcall CLI.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&RootOptions{})
}

func newRootCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rollcall",
		Short: "rollcall - session attendance ledger",
		Long: `Keep a session-scoped attendance log.

Students register and log in, the admin marks attendance by name or
through the simulated recognition kiosk, and the log is exported as CSV.`,
		Version:       model.AppVersion,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.setup()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if opts.Logger != nil {
				_ = opts.Logger.Sync()
			}
		},
	}

	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return WrapExitError(ExitCommandError, "invalid flags", err)
	})

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.DBPath, "db", "", "path to the SQLite database (default $ROLLCALL_DB)")

	// Add subcommands
	cmd.AddCommand(NewRegisterCommand(opts))
	cmd.AddCommand(NewLoginCommand(opts))
	cmd.AddCommand(NewLogoutCommand(opts))
	cmd.AddCommand(NewWhoamiCommand(opts))
	cmd.AddCommand(NewFaceCommand(opts))
	cmd.AddCommand(NewMarkCommand(opts))
	cmd.AddCommand(NewLogCommand(opts))
	cmd.AddCommand(NewMeCommand(opts))
	cmd.AddCommand(NewExportCommand(opts))
	cmd.AddCommand(NewAnalyzeCommand(opts))
	cmd.AddCommand(NewKioskCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))

	return cmd
}

// setup validates global flags and resolves configuration and logging.
func (o *RootOptions) setup() error {
	if !isValidFormat(o.Format) {
		return NewExitError(ExitCommandError,
			fmt.Sprintf("invalid format %q: must be one of %v", o.Format, ValidFormats))
	}

	if o.Config == nil {
		cfg, err := config.Load()
		if err != nil {
			return WrapExitError(ExitCommandError, "load configuration", err).WithErrCode(ErrCodeConfig)
		}
		o.Config = &cfg
	}
	if o.DBPath != "" {
		o.Config.DBPath = o.DBPath
	}
	if err := o.Config.Validate(); err != nil {
		return WrapExitError(ExitCommandError, "invalid configuration", err).WithErrCode(ErrCodeConfig)
	}

	if o.Logger == nil {
		logger, err := logging.New(o.Config.LogLevel, o.Verbose)
		if err != nil {
			return WrapExitError(ExitCommandError, "invalid configuration", err).WithErrCode(ErrCodeConfig)
		}
		o.Logger = logger
	}
	return nil
}

// formatter returns an OutputFormatter bound to cmd's writers.
func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   o.Verbose,
	}
}

// Execute runs cmd with ctx and prints any error it returns: a JSON
// envelope on stdout with --format json, otherwise "Error [code]: message"
// on stderr. It returns the process exit code.
//
// Errors that are not an ExitError come from cobra itself (unknown command,
// wrong argument count) and are reported as command errors.
func Execute(ctx context.Context, cmd *cobra.Command) int {
	err := cmd.ExecuteContext(ctx)
	if err == nil {
		return ExitSuccess
	}

	var exitErr *ExitError
	if !errors.As(err, &exitErr) {
		exitErr = &ExitError{Code: ExitCommandError, Message: err.Error()}
	}
	if exitErr.Reported {
		return exitErr.Code
	}

	format, _ := cmd.PersistentFlags().GetString("format")
	verbose, _ := cmd.PersistentFlags().GetBool("verbose")
	f := &OutputFormatter{Format: format, Writer: cmd.ErrOrStderr(), Verbose: verbose}
	if f.IsJSON() {
		f.Writer = cmd.OutOrStdout()
	}
	_ = f.Error(GetErrCode(exitErr), exitErr.Error(), nil)
	return exitErr.Code
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}
