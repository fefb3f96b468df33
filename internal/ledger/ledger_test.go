package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/roach88/rollcall/internal/store"
	"github.com/roach88/rollcall/internal/testutil"
)

func TestMarkPresent_Success(t *testing.T) {
	l := openTestLedger(t, store.NewMemory())

	res := l.MarkPresent(context.Background(), "Bob")
	require.True(t, res.Success)
	assert.Equal(t, "Bob marked present successfully.", res.Message)
	require.NotNil(t, res.Record)
	assert.Equal(t, "rec-0001", res.Record.ID)
	assert.Equal(t, "Bob", res.Record.Name)
	assert.Equal(t, "2024-03-01T09:00:00.000Z", res.Record.Timestamp)
	assert.Equal(t, "2024-03-01", res.Record.Date)
	assert.Equal(t, 1, l.SessionCount())
}

func TestMarkPresent_DuplicateInSession(t *testing.T) {
	ctx := context.Background()
	l := openTestLedger(t, store.NewMemory())

	first := l.MarkPresent(ctx, "Bob")
	second := l.MarkPresent(ctx, "Bob")

	assert.True(t, first.Success)
	assert.False(t, second.Success)
	assert.Nil(t, second.Record)
	assert.Equal(t, "Bob has already been marked present in this session.", second.Message)
	assert.Len(t, l.AllRecords(), 1)
}

func TestMarkPresent_TwiceGrowsByExactlyOne(t *testing.T) {
	for _, name := range []string{"a", "Alice", "Doe, Jane", "  padded  ", "Zoë"} {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			l := openTestLedger(t, store.NewMemory())
			before := len(l.AllRecords())

			assert.True(t, l.MarkPresent(ctx, name).Success)
			assert.False(t, l.MarkPresent(ctx, name).Success)
			assert.Equal(t, before+1, len(l.AllRecords()))
		})
	}
}

func TestMarkPresent_EmptyName(t *testing.T) {
	l := openTestLedger(t, store.NewMemory())

	for _, name := range []string{"", "   ", "\t\n"} {
		res := l.MarkPresent(context.Background(), name)
		assert.False(t, res.Success)
		assert.Equal(t, "Name cannot be empty.", res.Message)
	}
	assert.Empty(t, l.AllRecords())
	assert.Equal(t, 0, l.SessionCount())
}

func TestMarkPresent_TrimsStoredNameButGuardsRawName(t *testing.T) {
	ctx := context.Background()
	l := openTestLedger(t, store.NewMemory())

	res := l.MarkPresent(ctx, "  Bob ")
	require.True(t, res.Success)
	assert.Equal(t, "Bob", res.Record.Name)

	// The guard saw "  Bob ", so a bare "Bob" is a different session entry.
	assert.True(t, l.MarkPresent(ctx, "Bob").Success)
	assert.Len(t, l.AllRecords(), 2)
}

func TestMarkPresent_GuardIsCaseSensitive(t *testing.T) {
	ctx := context.Background()
	l := openTestLedger(t, store.NewMemory())

	assert.True(t, l.MarkPresent(ctx, "Alice").Success)
	assert.True(t, l.MarkPresent(ctx, "ALICE").Success)
	assert.Len(t, l.RecordsForIdentity("alice"), 2)
}

func TestStartNewSession_AllowsRemark(t *testing.T) {
	ctx := context.Background()
	l := openTestLedger(t, store.NewMemory())

	require.True(t, l.MarkPresent(ctx, "Bob").Success)
	l.StartNewSession()
	assert.Equal(t, 0, l.SessionCount())

	res := l.MarkPresent(ctx, "Bob")
	assert.True(t, res.Success)
	assert.Len(t, l.AllRecords(), 2)
}

func TestScenario_BobAcrossSessions(t *testing.T) {
	ctx := context.Background()
	l := openTestLedger(t, store.NewMemory())

	assert.True(t, l.MarkPresent(ctx, "Bob").Success)
	all := l.AllRecords()
	require.Len(t, all, 1)
	assert.Equal(t, "Bob", all[0].Name)

	assert.False(t, l.MarkPresent(ctx, "Bob").Success)
	assert.Len(t, l.AllRecords(), 1)

	l.StartNewSession()
	assert.True(t, l.MarkPresent(ctx, "Bob").Success)
	assert.Len(t, l.AllRecords(), 2)
}

func TestAllRecords_NewestFirst(t *testing.T) {
	ctx := context.Background()
	l := openTestLedger(t, store.NewMemory())
	for _, n := range []string{"A", "B", "C"} {
		require.True(t, l.MarkPresent(ctx, n).Success)
	}

	var names []string
	for _, r := range l.AllRecords() {
		names = append(names, r.Name)
	}
	assert.Equal(t, []string{"C", "B", "A"}, names)
}

func TestRecordsForIdentity_CaseInsensitive(t *testing.T) {
	ctx := context.Background()
	l := openTestLedger(t, store.NewMemory())
	require.True(t, l.MarkPresent(ctx, "Alice").Success)
	require.True(t, l.MarkPresent(ctx, "Bob").Success)

	lower := l.RecordsForIdentity("Alice")
	upper := l.RecordsForIdentity("ALICE")
	require.Len(t, lower, 1)
	assert.Equal(t, lower, upper)

	assert.Empty(t, l.RecordsForIdentity("Carol"))
	assert.NotNil(t, l.RecordsForIdentity("Carol"))
}

func TestSummary(t *testing.T) {
	ctx := context.Background()
	clock := testutil.NewStepClock(time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC), time.Hour)
	l := openTestLedger(t, store.NewMemory(), WithClock(clock))

	require.True(t, l.MarkPresent(ctx, "Alice").Success)
	require.True(t, l.MarkPresent(ctx, "Bob").Success)
	l.StartNewSession()
	require.True(t, l.MarkPresent(ctx, "alice").Success)

	sum := l.Summary("ALICE")
	assert.Equal(t, 2, sum.TotalCheckIns)
	assert.Equal(t, time.Date(2024, 3, 1, 11, 0, 0, 0, time.UTC), sum.LastCheckIn)
	assert.Len(t, sum.Records, 2)

	none := l.Summary("Nobody")
	assert.Equal(t, 0, none.TotalCheckIns)
	assert.True(t, none.LastCheckIn.IsZero())
}

func TestExportCSV_Empty(t *testing.T) {
	l := openTestLedger(t, store.NewMemory())
	assert.Equal(t, "", l.ExportCSV())
}

func TestExportCSV_MatchesAllRecords(t *testing.T) {
	ctx := context.Background()
	l := openTestLedger(t, store.NewMemory())
	for _, n := range []string{"Alice", "Bob", "Carol"} {
		require.True(t, l.MarkPresent(ctx, n).Success)
	}

	lines := strings.Split(l.ExportCSV(), "\n")
	all := l.AllRecords()
	require.Len(t, lines, len(all)+1)
	assert.Equal(t, "Name,Timestamp,Date", lines[0])
	for i, r := range all {
		assert.Equal(t, fmt.Sprintf("%s,%s,%s", r.Name, r.Timestamp, r.Date), lines[i+1])
	}
}

func TestExportQuotedCSV(t *testing.T) {
	l := openTestLedger(t, store.NewMemory())
	require.True(t, l.MarkPresent(context.Background(), "Doe, Jane").Success)

	out, err := l.ExportQuotedCSV()
	require.NoError(t, err)
	assert.Equal(t, "Name,Timestamp,Date\n\"Doe, Jane\",2024-03-01T09:00:00.000Z,2024-03-01", out)
}

func TestPersistReload_RoundTrip(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemory()
	l := openTestLedger(t, kv)

	for _, n := range []string{"Alice", "Bob", "Alice", "Carol"} {
		l.MarkPresent(ctx, n)
	}
	l.StartNewSession()
	l.MarkPresent(ctx, "Alice")

	reopened := Open(ctx, kv)
	if diff := cmp.Diff(l.AllRecords(), reopened.AllRecords()); diff != "" {
		t.Errorf("reloaded ledger mismatch (-want +got):\n%s", diff)
	}
	// The session is not persisted.
	assert.Equal(t, 0, reopened.SessionCount())
}

func TestOpen_CorruptData(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemory()
	require.NoError(t, kv.Set(ctx, store.KeyAttendanceLog, "not json at all"))

	var l *Ledger
	require.NotPanics(t, func() { l = Open(ctx, kv) })
	assert.Empty(t, l.AllRecords())
	assert.Equal(t, "", l.ExportCSV())
}

func TestMarkPresent_PersistFaultStillSucceeds(t *testing.T) {
	kv := store.NewMemory()
	kv.FailWrites = errors.New("storage unavailable")
	core, logs := observer.New(zapcore.WarnLevel)
	l := openTestLedger(t, kv, WithLogger(zap.New(core)))

	res := l.MarkPresent(context.Background(), "Bob")
	assert.True(t, res.Success)
	assert.Len(t, l.AllRecords(), 1)

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, zapcore.WarnLevel, entry.Level)
	assert.Equal(t, "Bob", entry.ContextMap()["name"])
}

func TestMarkPresent_DateUsesLocation(t *testing.T) {
	// 23:30 UTC on March 1st is already March 2nd in Tokyo.
	clock := testutil.NewStepClock(time.Date(2024, 3, 1, 23, 30, 0, 0, time.UTC), time.Minute)
	tokyo := time.FixedZone("JST", 9*60*60)
	l := openTestLedger(t, store.NewMemory(), WithClock(clock), WithLocation(tokyo))

	res := l.MarkPresent(context.Background(), "Bob")
	require.True(t, res.Success)
	assert.Equal(t, "2024-03-01T23:30:00.000Z", res.Record.Timestamp)
	assert.Equal(t, "2024-03-02", res.Record.Date)
	assert.Equal(t, tokyo, l.Location())
}

func TestDefaultIDs_AreUniqueUUIDv7(t *testing.T) {
	ctx := context.Background()
	l := Open(ctx, store.NewMemory())

	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		res := l.MarkPresent(ctx, fmt.Sprintf("student-%d", i))
		require.True(t, res.Success)

		parsed, err := uuid.Parse(res.Record.ID)
		require.NoError(t, err)
		assert.Equal(t, uuid.Version(7), parsed.Version())
		assert.False(t, seen[res.Record.ID])
		seen[res.Record.ID] = true
	}
}

func TestLedger_SQLiteBacked(t *testing.T) {
	ctx := context.Background()
	st, err := store.Open(store.MemoryPath)
	require.NoError(t, err)
	defer st.Close()

	l := openTestLedger(t, st)
	require.True(t, l.MarkPresent(ctx, "Alice").Success)
	require.True(t, l.MarkPresent(ctx, "Bob").Success)

	reopened := Open(ctx, st)
	assert.Equal(t, l.AllRecords(), reopened.AllRecords())
	assert.Equal(t, l.ExportCSV(), reopened.ExportCSV())
}
