// Package refnum issues the human-readable reference numbers used across
// the reporting modules: REP-20250504-M-001, EVT-20250504-M-002,
// COORD-20250504-001 and so on. Sequences come from a per-scope counter
// table so concurrent writers never produce duplicates.
package refnum

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// Series prefixes
const (
	PrefixReport       = "REP"
	PrefixEvent        = "EVT"
	PrefixCoordination = "COORD"
	PrefixMeeting      = "MTG"
	PrefixCall         = "CALL"
	PrefixMemo         = "MEMO"
	PrefixRelease      = "REL"
)

// Report type codes embedded in report and event numbers
const (
	CodeMorning = "M"
	CodeEvening = "E"
)

const dateLayout = "20060102"

// TypeCode maps a report type to its single-letter number code.
func TypeCode(reportType string) (string, error) {
	switch reportType {
	case "morning":
		return CodeMorning, nil
	case "evening":
		return CodeEvening, nil
	default:
		return "", fmt.Errorf("unknown report type %q", reportType)
	}
}

// Format builds a reference number. typeCode is empty for series without
// a type segment. Sequences are padded to 3 digits; a sequence past 999
// simply widens, it is not an error.
func Format(prefix string, date time.Time, typeCode string, seq int64) string {
	if typeCode != "" {
		return fmt.Sprintf("%s-%s-%s-%03d", prefix, date.Format(dateLayout), typeCode, seq)
	}
	return fmt.Sprintf("%s-%s-%03d", prefix, date.Format(dateLayout), seq)
}

// Parsed is a decomposed reference number.
type Parsed struct {
	Prefix   string
	Date     time.Time
	TypeCode string
	Seq      int64
}

var numberPattern = regexp.MustCompile(`^([A-Z]+)-(\d{8})(?:-([ME]))?-(\d{3,})$`)

// Parse decomposes a reference number. Event numbers inherit the date and
// type segment of their parent report's number, so creating an event means
// parsing the parent number rather than recomputing from the report row.
func Parse(number string) (Parsed, error) {
	m := numberPattern.FindStringSubmatch(number)
	if m == nil {
		return Parsed{}, fmt.Errorf("malformed reference number %q", number)
	}

	date, err := time.Parse(dateLayout, m[2])
	if err != nil {
		return Parsed{}, fmt.Errorf("malformed date in reference number %q", number)
	}

	seq, err := strconv.ParseInt(m[4], 10, 64)
	if err != nil {
		return Parsed{}, fmt.Errorf("malformed sequence in reference number %q", number)
	}

	return Parsed{
		Prefix:   m[1],
		Date:     date,
		TypeCode: m[3],
		Seq:      seq,
	}, nil
}

// Scope keys for the counter table. Each key names one independent
// sequence.

// ScopeTyped keys a (prefix, date, type) sequence, used for reports.
func ScopeTyped(prefix string, date time.Time, typeCode string) string {
	return fmt.Sprintf("%s:%s:%s", prefix, date.Format(dateLayout), typeCode)
}

// ScopeDated keys a (prefix, date) sequence, used for coordinations,
// meetings, calls, memos and releases.
func ScopeDated(prefix string, date time.Time) string {
	return fmt.Sprintf("%s:%s", prefix, date.Format(dateLayout))
}

// ScopeParent keys a per-parent sequence, used for events under a report.
func ScopeParent(prefix string, parentID string) string {
	return fmt.Sprintf("%s:%s", prefix, parentID)
}
