package harness

import (
	"fmt"
	"strings"

	"github.com/roach88/rollcall/internal/ledger"
)

// EvaluateAssertions checks every assertion and returns one message per
// failure.
func EvaluateAssertions(l *ledger.Ledger, result *Result, assertions []Assertion) []string {
	var errs []string
	for i, a := range assertions {
		if err := evaluate(l, result, a); err != nil {
			errs = append(errs, fmt.Sprintf("assertions[%d] %s: %v", i, a.Type, err))
		}
	}
	return errs
}

func evaluate(l *ledger.Ledger, result *Result, a Assertion) error {
	switch a.Type {
	case AssertRecords:
		return expectCount(*a.Count, len(result.Records))
	case AssertSessionCount:
		return expectCount(*a.Count, result.SessionCount)
	case AssertCSVLines:
		return expectCount(*a.Count, csvLines(result.CSV))
	case AssertRecordsFor:
		return expectCount(*a.Count, len(l.RecordsForIdentity(a.Name)))
	case AssertFirstName:
		if len(result.Records) == 0 {
			return fmt.Errorf("expected %q, log is empty", a.Name)
		}
		if got := result.Records[0].Name; got != a.Name {
			return fmt.Errorf("expected %q, got %q", a.Name, got)
		}
		return nil
	default:
		return fmt.Errorf("unknown assertion type")
	}
}

func expectCount(want, got int) error {
	if want != got {
		return fmt.Errorf("expected %d, got %d", want, got)
	}
	return nil
}

func csvLines(csv string) int {
	if csv == "" {
		return 0
	}
	return strings.Count(csv, "\n") + 1
}
