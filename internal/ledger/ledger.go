package ledger

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/roach88/rollcall/internal/csvexport"
	"github.com/roach88/rollcall/internal/identity"
	"github.com/roach88/rollcall/internal/model"
	"github.com/roach88/rollcall/internal/store"
)

// TimestampLayout formats record timestamps: RFC 3339 in UTC with
// millisecond precision, e.g. 2024-03-01T09:15:00.000Z.
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// MarkResult is the outcome of MarkPresent.
type MarkResult struct {
	model.Result
	// Record is the appended record; nil unless Success.
	Record *model.AttendanceRecord `json:"record,omitempty"`
}

// IdentitySummary is the per-student view of the log.
type IdentitySummary struct {
	Name          string                   `json:"name"`
	TotalCheckIns int                      `json:"totalCheckIns"`
	LastCheckIn   time.Time                `json:"lastCheckIn,omitzero"`
	Records       []model.AttendanceRecord `json:"records"`
}

// Ledger is the facade over the record store and the session guard.
type Ledger struct {
	records *RecordStore
	guard   *SessionGuard
	clock   Clock
	ids     IDGenerator
	loc     *time.Location
	logger  *zap.Logger
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithClock overrides the wall clock (for testing).
func WithClock(c Clock) Option {
	return func(l *Ledger) { l.clock = c }
}

// WithIDGenerator overrides the record id generator (for testing).
func WithIDGenerator(g IDGenerator) Option {
	return func(l *Ledger) { l.ids = g }
}

// WithLocation sets the time zone used to derive a record's date.
// Defaults to time.Local.
func WithLocation(loc *time.Location) Option {
	return func(l *Ledger) {
		if loc != nil {
			l.loc = loc
		}
	}
}

// WithLogger sets the logger for storage warnings.
func WithLogger(logger *zap.Logger) Option {
	return func(l *Ledger) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// Open creates a ledger over kv, loads the persisted log and starts an
// empty session.
func Open(ctx context.Context, kv store.KV, opts ...Option) *Ledger {
	l := &Ledger{
		guard:  NewSessionGuard(),
		clock:  SystemClock{},
		ids:    UUIDGenerator{},
		loc:    time.Local,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	l.records = NewRecordStore(kv, l.logger)
	l.records.LoadAll(ctx)
	return l
}

// MarkPresent records name as present unless it was already marked in this
// session. An empty or blank name is rejected. The stored name is trimmed;
// the session check uses name exactly as given.
func (l *Ledger) MarkPresent(ctx context.Context, name string) MarkResult {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return MarkResult{Result: model.Fail("Name cannot be empty.")}
	}
	if !l.guard.TryMark(name) {
		return MarkResult{Result: model.Fail(fmt.Sprintf("%s has already been marked present in this session.", name))}
	}

	now := l.clock.Now()
	rec := model.AttendanceRecord{
		ID:        l.ids.NewID(),
		Name:      trimmed,
		Timestamp: now.UTC().Format(TimestampLayout),
		Date:      now.In(l.loc).Format(time.DateOnly),
	}

	if err := l.records.Append(ctx, rec); err != nil {
		l.logger.Warn("attendance record kept in memory only",
			zap.String("id", rec.ID), zap.String("name", rec.Name), zap.Error(err))
	}

	return MarkResult{
		Result: model.Ok(fmt.Sprintf("%s marked present successfully.", name)),
		Record: &rec,
	}
}

// AllRecords returns every record, newest first.
func (l *Ledger) AllRecords() []model.AttendanceRecord {
	return l.records.Snapshot()
}

// RecordsForIdentity returns the records whose name matches name ignoring
// case, newest first.
func (l *Ledger) RecordsForIdentity(name string) []model.AttendanceRecord {
	out := []model.AttendanceRecord{}
	for _, r := range l.records.Snapshot() {
		if identity.Equal(r.Name, name) {
			out = append(out, r)
		}
	}
	return out
}

// Summary returns the check-in count and latest check-in for name.
// Timestamps that do not parse are counted but never chosen as latest.
func (l *Ledger) Summary(name string) IdentitySummary {
	recs := l.RecordsForIdentity(name)
	sum := IdentitySummary{Name: name, TotalCheckIns: len(recs), Records: recs}
	for _, r := range recs {
		ts, err := time.Parse(time.RFC3339Nano, r.Timestamp)
		if err != nil {
			continue
		}
		if ts.After(sum.LastCheckIn) {
			sum.LastCheckIn = ts
		}
	}
	return sum
}

// ExportCSV projects the whole log to CSV. It returns "" when the log is
// empty, meaning there is nothing to export.
func (l *Ledger) ExportCSV() string {
	return csvexport.Project(l.records.Snapshot())
}

// ExportQuotedCSV is ExportCSV with RFC 4180 quoting.
func (l *Ledger) ExportQuotedCSV() (string, error) {
	return csvexport.ProjectQuoted(l.records.Snapshot())
}

// StartNewSession forgets who was marked; the log is untouched.
func (l *Ledger) StartNewSession() {
	l.guard.Reset()
}

// SessionCount returns how many names were marked this session.
func (l *Ledger) SessionCount() int {
	return l.guard.Count()
}

// Location returns the zone used for record dates.
func (l *Ledger) Location() *time.Location {
	return l.loc
}
