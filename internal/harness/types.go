package harness

import "github.com/roach88/rollcall/internal/model"

// TraceEvent records what one step did.
type TraceEvent struct {
	Seq      int    `json:"seq"`
	Step     string `json:"step"` // "mark" or "new_session"
	Name     string `json:"name,omitempty"`
	Outcome  string `json:"outcome"`
	Message  string `json:"message,omitempty"`
	RecordID string `json:"record_id,omitempty"`
}

// Result is the outcome of a scenario run.
type Result struct {
	// Pass is true when every expect and assertion held.
	Pass bool `json:"pass"`

	// Trace has one event per step, in order.
	Trace []TraceEvent `json:"trace"`

	// Errors lists the failed expectations and assertions.
	Errors []string `json:"errors,omitempty"`

	// Records is the final log, newest first.
	Records []model.AttendanceRecord `json:"records"`

	// CSV is the final projection.
	CSV string `json:"csv"`

	// SessionCount is the number of names marked in the final session.
	SessionCount int `json:"session_count"`
}

// NewResult creates an empty passing result.
func NewResult() *Result {
	return &Result{
		Pass:    true,
		Trace:   []TraceEvent{},
		Errors:  []string{},
		Records: []model.AttendanceRecord{},
	}
}

// AddError records a failure and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
