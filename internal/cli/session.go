package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/roach88/rollcall/internal/config"
	"github.com/roach88/rollcall/internal/directory"
	"github.com/roach88/rollcall/internal/ledger"
	"github.com/roach88/rollcall/internal/model"
	"github.com/roach88/rollcall/internal/store"
)

var (
	// ErrForbidden is returned when the logged-in identity lacks the role a
	// command needs.
	ErrForbidden = errors.New("forbidden")

	// ErrNotLoggedIn is returned by student commands when nobody is logged in
	// as a student.
	ErrNotLoggedIn = errors.New("not logged in")
)

// session is the state one command works on: the open store plus the
// ledger and directory loaded from it.
type session struct {
	store  *store.Store
	ledger *ledger.Ledger
	dir    *directory.Directory
	cfg    config.Config
	logger *zap.Logger
}

// openSession opens the configured database and loads the ledger and the
// directory. The caller must Close it.
func (o *RootOptions) openSession(ctx context.Context) (*session, error) {
	cfg := *o.Config
	loc, err := cfg.Location()
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "invalid configuration", err).WithErrCode(ErrCodeConfig)
	}

	st, err := store.Open(cfg.DBPath)
	if err != nil {
		return nil, WrapExitError(ExitCommandError,
			fmt.Sprintf("failed to open database %s", cfg.DBPath), err).WithErrCode(ErrCodeStorage)
	}

	ledgerOpts := []ledger.Option{ledger.WithLocation(loc), ledger.WithLogger(o.Logger)}
	if o.Clock != nil {
		ledgerOpts = append(ledgerOpts, ledger.WithClock(o.Clock))
	}
	if o.IDs != nil {
		ledgerOpts = append(ledgerOpts, ledger.WithIDGenerator(o.IDs))
	}

	dirOpts := []directory.Option{
		directory.WithAdmin(cfg.AdminEmail, cfg.AdminPassword),
		directory.WithLogger(o.Logger),
	}
	if o.HashCost > 0 {
		dirOpts = append(dirOpts, directory.WithHashCost(o.HashCost))
	}
	if o.UserIDs != nil {
		dirOpts = append(dirOpts, directory.WithIDGenerator(o.UserIDs))
	}

	o.Logger.Debug("session opened", zap.String("db", cfg.DBPath), zap.String("timezone", loc.String()))

	return &session{
		store:  st,
		ledger: ledger.Open(ctx, st, ledgerOpts...),
		dir:    directory.Open(ctx, st, dirOpts...),
		cfg:    cfg,
		logger: o.Logger,
	}, nil
}

// Close closes the underlying store.
func (s *session) Close() error {
	return s.store.Close()
}

// now returns the current instant in the configured zone.
func (s *session) now(clock ledger.Clock) time.Time {
	if clock == nil {
		clock = ledger.SystemClock{}
	}
	return clock.Now().In(s.ledger.Location())
}

// requireAdmin fails unless the admin is logged in.
func (s *session) requireAdmin() error {
	auth := s.dir.Current()
	if auth.IsAuthenticated && auth.UserRole == model.RoleAdmin {
		return nil
	}
	return WrapExitError(ExitFailure, "this command requires the admin to be logged in", ErrForbidden).
		WithErrCode(ErrCodeForbidden)
}

// requireStudent returns the logged-in student.
func (s *session) requireStudent() (model.RegisteredUser, error) {
	auth := s.dir.Current()
	if auth.IsAuthenticated && auth.UserRole == model.RoleAdmin {
		return model.RegisteredUser{}, WrapExitError(ExitFailure,
			"this command is for students; the admin is logged in", ErrForbidden).WithErrCode(ErrCodeForbidden)
	}
	user, ok := s.dir.LoggedInUser()
	if !ok {
		return model.RegisteredUser{}, WrapExitError(ExitFailure,
			"log in as a student first", ErrNotLoggedIn).WithErrCode(ErrCodeNotLoggedIn)
	}
	return user, nil
}

// rejected turns a failed Result into an ExitError.
func rejected(res model.Result) error {
	return NewExitError(ExitFailure, res.Message).WithErrCode(ErrCodeRejected)
}

// storageFailed wraps an unexpected persistence error.
func storageFailed(err error) error {
	return WrapExitError(ExitCommandError, "storage error", err).WithErrCode(ErrCodeStorage)
}
