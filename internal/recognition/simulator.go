// Package recognition simulates a camera recognizing registered students.
//
// Each Tick picks one eligible student not yet seen in the current cycle,
// uniformly at random, and marks them present in the ledger. A cycle ends
// when every eligible student was seen or the per-cycle cap is reached.
package recognition

import (
	"context"
	"fmt"
	"math/rand/v2"

	"go.uber.org/zap"

	"github.com/roach88/rollcall/internal/ledger"
	"github.com/roach88/rollcall/internal/model"
)

// DefaultMaxRecognitions caps unique recognitions per cycle.
const DefaultMaxRecognitions = 50

// Outcome classifies a Tick.
type Outcome int

const (
	// Recognized means a student was picked and newly marked present.
	Recognized Outcome = iota
	// AlreadyMarked means a student was picked but the ledger refused the
	// mark as a duplicate in this session.
	AlreadyMarked
	// NoEligible means no student has face data registered. The cycle stops.
	NoEligible
	// CycleComplete means every eligible student was processed or the cap
	// was reached. The cycle stops.
	CycleComplete
)

func (o Outcome) String() string {
	switch o {
	case Recognized:
		return "recognized"
	case AlreadyMarked:
		return "already_marked"
	case NoEligible:
		return "no_eligible"
	case CycleComplete:
		return "cycle_complete"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Stops reports whether the outcome ends the cycle.
func (o Outcome) Stops() bool {
	return o == NoEligible || o == CycleComplete
}

// Event is the result of one Tick.
type Event struct {
	Outcome Outcome
	// Student is the picked student; zero for NoEligible and CycleComplete.
	Student model.RegisteredUser
	// Status is the progress line, e.g. "Recognizing Alice... (2/5)".
	Status  string
	Message string
}

// Roster supplies the students that can be recognized.
type Roster interface {
	Eligible() []model.RegisteredUser
}

// Marker records attendance.
type Marker interface {
	MarkPresent(ctx context.Context, name string) ledger.MarkResult
}

// Simulator holds the state of one recognition cycle.
type Simulator struct {
	roster Roster
	marker Marker
	seen   map[string]struct{}
	max    int
	rng    *rand.Rand
	active bool
	logger *zap.Logger
}

// Option configures a Simulator.
type Option func(*Simulator)

// WithMaxRecognitions sets the per-cycle cap. Non-positive values are ignored.
func WithMaxRecognitions(n int) Option {
	return func(s *Simulator) {
		if n > 0 {
			s.max = n
		}
	}
}

// WithRand sets the random source used to pick students (for testing).
func WithRand(rng *rand.Rand) Option {
	return func(s *Simulator) {
		if rng != nil {
			s.rng = rng
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Simulator) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewSimulator creates a simulator with an empty, active cycle.
func NewSimulator(roster Roster, marker Marker, opts ...Option) *Simulator {
	s := &Simulator{
		roster: roster,
		marker: marker,
		seen:   make(map[string]struct{}),
		max:    DefaultMaxRecognitions,
		rng:    rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
		active: true,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Tick performs one detection attempt.
//
// After a stopping outcome the simulator is inactive; further ticks repeat
// the evaluation without marking anyone until NewCycle is called.
func (s *Simulator) Tick(ctx context.Context) Event {
	eligible := s.roster.Eligible()
	candidates := make([]model.RegisteredUser, 0, len(eligible))
	for _, u := range eligible {
		if _, ok := s.seen[u.ID]; !ok {
			candidates = append(candidates, u)
		}
	}

	switch {
	case s.active && len(candidates) > 0 && len(s.seen) < s.max:
		student := candidates[s.rng.IntN(len(candidates))]
		s.seen[student.ID] = struct{}{}
		status := fmt.Sprintf("Recognizing %s... (%d/%d)", student.Name, len(s.seen), min(len(eligible), s.max))

		res := s.marker.MarkPresent(ctx, student.Name)
		s.logger.Debug("student recognized",
			zap.String("user_id", student.ID),
			zap.Bool("marked", res.Success))
		if res.Success {
			return Event{
				Outcome: Recognized,
				Student: student,
				Status:  status,
				Message: fmt.Sprintf("%s recognized and marked present.", student.Name),
			}
		}
		return Event{
			Outcome: AlreadyMarked,
			Student: student,
			Status:  status,
			Message: fmt.Sprintf("%s already logged in this session's records.", student.Name),
		}

	case len(eligible) == 0:
		s.active = false
		return Event{
			Outcome: NoEligible,
			Status:  "No students with face data registered to detect.",
			Message: "Please register students and ensure they've registered their face data on their dashboard.",
		}

	default:
		s.active = false
		msg := "Session cycle complete. All available unique students processed."
		if len(s.seen) >= s.max {
			msg = fmt.Sprintf("Session cycle complete. Maximum %d unique students processed.", s.max)
		}
		return Event{Outcome: CycleComplete, Status: msg, Message: msg}
	}
}

// NewCycle forgets which students were seen and reactivates the simulator.
func (s *Simulator) NewCycle() {
	clear(s.seen)
	s.active = true
}

// Active reports whether the current cycle is still running.
func (s *Simulator) Active() bool {
	return s.active
}

// Seen returns how many unique students were recognized this cycle.
func (s *Simulator) Seen() int {
	return len(s.seen)
}

// Max returns the per-cycle cap.
func (s *Simulator) Max() int {
	return s.max
}
