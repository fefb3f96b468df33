package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Scenario is one ledger scenario file.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Timezone is the IANA zone used for record dates. Defaults to UTC.
	Timezone string `yaml:"timezone,omitempty"`

	// Steps run in order against a fresh ledger.
	Steps []Step `yaml:"steps"`

	// Assertions are checked after the last step.
	Assertions []Assertion `yaml:"assertions"`
}

// Step is either a mark or a session reset.
type Step struct {
	// Mark is the name to mark present. A pointer so that an explicit empty
	// name can be tested.
	Mark *string `yaml:"mark,omitempty"`

	// Expect is the expected outcome of a mark: success, duplicate or
	// invalid. Empty skips the check.
	Expect string `yaml:"expect,omitempty"`

	// NewSession starts a new session.
	NewSession bool `yaml:"new_session,omitempty"`
}

// Mark outcomes.
const (
	OutcomeSuccess   = "success"
	OutcomeDuplicate = "duplicate"
	OutcomeInvalid   = "invalid"
	OutcomeReset     = "session_reset"
)

// Assertion checks the final ledger state.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// Count is the expected number (records, session_count, csv_lines,
	// records_for).
	Count *int `yaml:"count,omitempty"`

	// Name is the identity for records_for or the expected name for
	// first_name.
	Name string `yaml:"name,omitempty"`
}

// Assertion type constants.
const (
	AssertRecords      = "records"
	AssertSessionCount = "session_count"
	AssertCSVLines     = "csv_lines"
	AssertRecordsFor   = "records_for"
	AssertFirstName    = "first_name"
)

// LoadScenario reads and parses a scenario YAML file.
// Unknown fields are rejected so typos fail loudly.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario decodes and validates scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}
	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for i, step := range s.Steps {
		switch {
		case step.Mark != nil && step.NewSession:
			return fmt.Errorf("steps[%d]: mark and new_session are mutually exclusive", i)
		case step.Mark == nil && !step.NewSession:
			return fmt.Errorf("steps[%d]: one of mark or new_session is required", i)
		case step.NewSession && step.Expect != "":
			return fmt.Errorf("steps[%d]: expect only applies to mark", i)
		}
		switch step.Expect {
		case "", OutcomeSuccess, OutcomeDuplicate, OutcomeInvalid:
		default:
			return fmt.Errorf("steps[%d]: unknown expect %q", i, step.Expect)
		}
	}

	for i, a := range s.Assertions {
		if err := validateAssertion(i, a); err != nil {
			return err
		}
	}
	return nil
}

func validateAssertion(index int, a Assertion) error {
	switch a.Type {
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	case AssertRecords, AssertSessionCount, AssertCSVLines:
		if a.Count == nil || *a.Count < 0 {
			return fmt.Errorf("assertions[%d]: non-negative count is required for %s", index, a.Type)
		}
	case AssertRecordsFor:
		if a.Name == "" {
			return fmt.Errorf("assertions[%d]: name is required for records_for", index)
		}
		if a.Count == nil || *a.Count < 0 {
			return fmt.Errorf("assertions[%d]: non-negative count is required for records_for", index)
		}
	case AssertFirstName:
		if a.Name == "" {
			return fmt.Errorf("assertions[%d]: name is required for first_name", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
