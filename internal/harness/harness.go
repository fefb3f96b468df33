package harness

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/roach88/rollcall/internal/ledger"
	"github.com/roach88/rollcall/internal/store"
	"github.com/roach88/rollcall/internal/testutil"
)

// Run executes a scenario against a fresh in-memory SQLite store and
// returns the result. An error means the scenario could not be run at all;
// failed expectations are reported in the result.
func Run(scenario *Scenario) (*Result, error) {
	loc := time.UTC
	if scenario.Timezone != "" {
		var err error
		if loc, err = time.LoadLocation(scenario.Timezone); err != nil {
			return nil, fmt.Errorf("scenario timezone: %w", err)
		}
	}

	st, err := store.Open(store.MemoryPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	ctx := context.Background()
	l := ledger.Open(ctx, st,
		ledger.WithClock(testutil.NewStepClock(testutil.DefaultStart, time.Minute)),
		ledger.WithIDGenerator(testutil.NewSequentialIDs("rec")),
		ledger.WithLocation(loc),
	)

	result := NewResult()
	for i, step := range scenario.Steps {
		event := runStep(ctx, l, step)
		event.Seq = i + 1
		result.Trace = append(result.Trace, event)

		if step.Expect != "" && step.Expect != event.Outcome {
			result.AddError(fmt.Sprintf("steps[%d]: mark %q: expected %s, got %s (%s)",
				i, event.Name, step.Expect, event.Outcome, event.Message))
		}
	}

	result.Records = l.AllRecords()
	result.CSV = l.ExportCSV()
	result.SessionCount = l.SessionCount()

	for _, msg := range EvaluateAssertions(l, result, scenario.Assertions) {
		result.AddError(msg)
	}
	return result, nil
}

func runStep(ctx context.Context, l *ledger.Ledger, step Step) TraceEvent {
	if step.NewSession {
		l.StartNewSession()
		return TraceEvent{Step: "new_session", Outcome: OutcomeReset}
	}

	name := *step.Mark
	res := l.MarkPresent(ctx, name)
	event := TraceEvent{Step: "mark", Name: name, Message: res.Message}
	switch {
	case res.Success:
		event.Outcome = OutcomeSuccess
		event.RecordID = res.Record.ID
	case strings.TrimSpace(name) == "":
		event.Outcome = OutcomeInvalid
	default:
		event.Outcome = OutcomeDuplicate
	}
	return event
}
