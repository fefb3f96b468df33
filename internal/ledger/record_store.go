package ledger

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/roach88/rollcall/internal/model"
	"github.com/roach88/rollcall/internal/store"
)

// RecordStore is the ordered attendance log, newest first.
type RecordStore struct {
	kv      store.KV
	key     string
	records []model.AttendanceRecord
	logger  *zap.Logger
}

// NewRecordStore creates an empty store persisting to kv under
// store.KeyAttendanceLog. Call LoadAll to read what is already there.
func NewRecordStore(kv store.KV, logger *zap.Logger) *RecordStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RecordStore{
		kv:      kv,
		key:     store.KeyAttendanceLog,
		records: []model.AttendanceRecord{},
		logger:  logger,
	}
}

// LoadAll reads the persisted log, replaces the in-memory copy with it and
// returns it, most recent first.
//
// Missing data yields an empty log. Unparseable data also yields an empty
// log and a warning; it is never reported to the caller.
func (s *RecordStore) LoadAll(ctx context.Context) []model.AttendanceRecord {
	var loaded []model.AttendanceRecord
	err := store.LoadJSON(ctx, s.kv, s.key, &loaded)
	switch {
	case err == nil:
	case errors.Is(err, store.ErrNotFound):
		loaded = nil
	case errors.Is(err, store.ErrCorrupt):
		s.logger.Warn("attendance log is corrupt, starting empty",
			zap.String("key", s.key), zap.Error(err))
		loaded = nil
	default:
		s.logger.Warn("attendance log could not be read, starting empty",
			zap.String("key", s.key), zap.Error(err))
		loaded = nil
	}

	if loaded == nil {
		loaded = []model.AttendanceRecord{}
	}
	s.records = loaded
	return s.Snapshot()
}

// Append puts rec at the front of the log and persists the whole log.
//
// The in-memory log is updated even when persisting fails; the returned
// error is a warning for the caller to report, not a rollback.
func (s *RecordStore) Append(ctx context.Context, rec model.AttendanceRecord) error {
	next := make([]model.AttendanceRecord, 0, len(s.records)+1)
	next = append(next, rec)
	next = append(next, s.records...)
	s.records = next

	if err := store.SaveJSON(ctx, s.kv, s.key, s.records); err != nil {
		return fmt.Errorf("persist attendance log: %w", err)
	}
	return nil
}

// Snapshot returns a copy of the in-memory log without touching storage.
func (s *RecordStore) Snapshot() []model.AttendanceRecord {
	out := make([]model.AttendanceRecord, len(s.records))
	copy(out, s.records)
	return out
}

// Len returns the number of records in memory.
func (s *RecordStore) Len() int {
	return len(s.records)
}
