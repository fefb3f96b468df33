package cli

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/roach88/rollcall/internal/config"
	"github.com/roach88/rollcall/internal/testutil"
)

const (
	adminEmail    = "admin@example.com"
	adminPassword = "adminpass"
)

// newTestOptions returns options over a fresh database in t's temp dir
// with a step clock, sequential ids and cheap hashing.
func newTestOptions(t *testing.T) *RootOptions {
	t.Helper()

	dir := t.TempDir()
	return &RootOptions{
		Config: &config.Config{
			DBPath:            filepath.Join(dir, "rollcall.db"),
			LogLevel:          "info",
			Timezone:          "UTC",
			ExportDir:         dir,
			ExportBase:        "attendance_log",
			AdminEmail:        adminEmail,
			AdminPassword:     adminPassword,
			DetectionInterval: time.Hour,
			MaxRecognitions:   50,
			Model:             "gemini-2.0-flash",
		},
		Logger:   zap.NewNop(),
		Clock:    testutil.NewStepClock(time.Time{}, 0),
		IDs:      testutil.NewSequentialIDs("rec"),
		UserIDs:  testutil.NewSequentialIDs("user"),
		HashCost: bcrypt.MinCost,
	}
}

type cliResult struct {
	Stdout string
	Stderr string
	Code   int
}

// runCLI executes one command line through Execute with stdin.
func runCLI(t *testing.T, opts *RootOptions, stdin string, args ...string) cliResult {
	t.Helper()

	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	cmd := newRootCommand(opts)
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)

	code := Execute(context.Background(), cmd)
	return cliResult{Stdout: out.String(), Stderr: errOut.String(), Code: code}
}

// mustRun executes a command that is expected to succeed.
func mustRun(t *testing.T, opts *RootOptions, args ...string) string {
	t.Helper()

	res := runCLI(t, opts, "", args...)
	if res.Code != ExitSuccess {
		t.Fatalf("%v: exit %d\nstdout: %s\nstderr: %s", args, res.Code, res.Stdout, res.Stderr)
	}
	return res.Stdout
}

func loginAdmin(t *testing.T, opts *RootOptions) {
	t.Helper()
	mustRun(t, opts, "login", "--email", adminEmail, "--password", adminPassword, "--role", "admin")
}

// registerStudent registers and logs in a student.
func registerStudent(t *testing.T, opts *RootOptions, name, email string) {
	t.Helper()
	mustRun(t, opts, "register", "--name", name, "--email", email, "--password", "pw", "--confirm", "pw")
	mustRun(t, opts, "login", "--email", email, "--password", "pw")
}
