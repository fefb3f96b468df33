package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/rollcall/internal/directory"
	"github.com/roach88/rollcall/internal/model"
)

// RegisterOptions holds flags for the register command.
type RegisterOptions struct {
	*RootOptions
	Name     string
	Email    string
	Password string
	Confirm  string
}

// NewRegisterCommand creates the register command.
func NewRegisterCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RegisterOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Register a student account",
		Long: `Register a new student account.

All four fields are required and the two passwords must match.
Emails are unique regardless of case.

Examples:
  rollcall register --name "Ada Lovelace" --email ada@example.com \
    --password s3cret --confirm s3cret`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRegister(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Name, "name", "", "full name")
	cmd.Flags().StringVar(&opts.Email, "email", "", "email address")
	cmd.Flags().StringVar(&opts.Password, "password", "", "password")
	cmd.Flags().StringVar(&opts.Confirm, "confirm", "", "password confirmation")

	return cmd
}

func runRegister(cmd *cobra.Command, opts *RegisterOptions) error {
	ctx := cmd.Context()
	s, err := opts.openSession(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	res, err := s.dir.RegisterStudent(ctx, opts.Name, opts.Email, opts.Password, opts.Confirm)
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
}

// LoginOptions holds flags for the login command.
type LoginOptions struct {
	*RootOptions
	Email    string
	Password string
	Role     string
}

// NewLoginCommand creates the login command.
func NewLoginCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &LoginOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in as a student or the admin",
		Long: `Log in and remember the identity in the database.

A failed attempt logs out whoever was logged in before.

Examples:
  rollcall login --email ada@example.com --password s3cret
  rollcall login --email admin@example.com --password adminpass --role admin`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogin(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Email, "email", "", "email address")
	cmd.Flags().StringVar(&opts.Password, "password", "", "password")
	cmd.Flags().StringVar(&opts.Role, "role", string(model.RoleStudent), "role to log in as (student|admin)")

	return cmd
}

func runLogin(cmd *cobra.Command, opts *LoginOptions) error {
	role, ok := model.ParseRole(opts.Role)
	if !ok {
		return NewExitError(ExitCommandError,
			fmt.Sprintf("invalid role %q: must be one of %v", opts.Role, model.ValidRoles))
	}

	ctx := cmd.Context()
	s, err := opts.openSession(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	auth, err := s.dir.Login(ctx, opts.Email, opts.Password, role)
	if errors.Is(err, directory.ErrInvalidCredentials) {
		return WrapExitError(ExitFailure, "login failed", err).WithErrCode(ErrCodeBadCredentials)
	}
	if err != nil {
		return storageFailed(err)
	}

	f := opts.formatter(cmd)
	if f.IsJSON() {
		return f.Success(auth)
	}
	return f.Success(fmt.Sprintf("Logged in as %s (%s).", auth.UserName, auth.UserRole))
}

// NewLogoutCommand creates the logout command.
func NewLogoutCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "logout",
		Short:         "Forget the logged-in identity",
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

			if err := s.dir.Logout(ctx); err != nil {
				return storageFailed(err)
			}

			f := opts.formatter(cmd)
			if f.IsJSON() {
				return f.Success(s.dir.Current())
			}
			return f.Success("Logged out.")
		},
	}
}

// NewWhoamiCommand creates the whoami command.
func NewWhoamiCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "whoami",
		Short:         "Show the logged-in identity",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.openSession(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			auth := s.dir.Current()
			f := opts.formatter(cmd)
			if f.IsJSON() {
				return f.Success(auth)
			}
			if !auth.IsAuthenticated {
				return f.Success("Not logged in.")
			}
			return f.Success(fmt.Sprintf("%s (%s)", auth.UserName, auth.UserRole))
		},
	}
}
