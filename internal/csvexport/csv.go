// Package csvexport projects attendance records to delimited text and writes
// export files.
package csvexport

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/roach88/rollcall/internal/model"
)

// Header is the fixed first line of every non-empty projection.
const Header = "Name,Timestamp,Date"

// ContentType is the MIME type of an export file.
const ContentType = "text/csv;charset=utf-8"

// DefaultBaseName is used when an export is requested without a base name.
const DefaultBaseName = "attendance_log"

// ErrNothingToExport is returned by WriteFile for the empty projection.
var ErrNothingToExport = errors.New("nothing to export")

// Project renders records as CSV text, one line per record in input order.
//
// Fields are joined with commas as-is: a name containing a comma or newline
// produces a malformed row. Use ProjectQuoted when names are untrusted.
// An empty input yields "" (no header), which callers treat as "nothing to
// export". Lines are separated by "\n" with no trailing newline.
func Project(records []model.AttendanceRecord) string {
	if len(records) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString(Header)
	for _, r := range records {
		b.WriteByte('\n')
		b.WriteString(r.Name)
		b.WriteByte(',')
		b.WriteString(r.Timestamp)
		b.WriteByte(',')
		b.WriteString(r.Date)
	}
	return b.String()
}

// ProjectQuoted is Project with RFC 4180 quoting of fields that need it.
func ProjectQuoted(records []model.AttendanceRecord) (string, error) {
	if len(records) == 0 {
		return "", nil
	}
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(strings.Split(Header, ",")); err != nil {
		return "", fmt.Errorf("write header: %w", err)
	}
	for _, r := range records {
		if err := w.Write([]string{r.Name, r.Timestamp, r.Date}); err != nil {
			return "", fmt.Errorf("write record %s: %w", r.ID, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("flush csv: %w", err)
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}

// Filename returns "<base>_<YYYY-MM-DD>.csv" for the calendar day of day,
// in day's location.
func Filename(base string, day time.Time) string {
	if base == "" {
		base = DefaultBaseName
	}
	return fmt.Sprintf("%s_%s.csv", base, day.Format(time.DateOnly))
}

// WriteFile writes content to dir under Filename(base, now) and returns the
// path written. The empty projection is refused with ErrNothingToExport.
func WriteFile(dir, base, content string, now time.Time) (string, error) {
	if content == "" {
		return "", ErrNothingToExport
	}
	if dir == "" {
		dir = "."
	}
	path := filepath.Join(dir, Filename(base, now))
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("write export: %w", err)
	}
	return path, nil
}
