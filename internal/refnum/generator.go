package refnum

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/sitrep-gov/platform/internal/shared/errors"
	"github.com/sitrep-gov/platform/internal/shared/metrics"
	"github.com/sitrep-gov/platform/internal/shared/types"
)

// Querier is satisfied by both *pgxpool.Pool and pgx.Tx. Callers pass the
// transaction that also inserts the numbered entity, so the counter bump
// rolls back if the insert fails.
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Generator allocates sequence values from the refnum.counters table.
type Generator struct{}

// NewGenerator creates a reference number generator.
func NewGenerator() *Generator {
	return &Generator{}
}

// next bumps the counter for a scope key and returns the new value. The
// upsert is atomic in Postgres, so two transactions racing on the same
// scope serialize on the row and get distinct values.
func (g *Generator) next(ctx context.Context, q Querier, scope string) (int64, error) {
	var value int64
	err := q.QueryRow(ctx, `
		INSERT INTO refnum.counters (scope, value)
		VALUES ($1, 1)
		ON CONFLICT (scope) DO UPDATE SET value = refnum.counters.value + 1
		RETURNING value
	`, scope).Scan(&value)
	if err != nil {
		return 0, errors.Wrap(err, "failed to allocate sequence")
	}
	return value, nil
}

// NextReportNumber allocates the next report number for a date and type,
// e.g. REP-20250504-M-001.
func (g *Generator) NextReportNumber(ctx context.Context, q Querier, date time.Time, reportType string) (string, error) {
	code, err := TypeCode(reportType)
	if err != nil {
		return "", errors.BadRequest(err.Error())
	}

	seq, err := g.next(ctx, q, ScopeTyped(PrefixReport, date, code))
	if err != nil {
		return "", err
	}

	metrics.RecordReferenceNumber(PrefixReport)
	return Format(PrefixReport, date, code, seq), nil
}

// NextEventNumber allocates the next event number under a report. The date
// and type segment come from the parent report's own number, so an event
// always matches its report even if the report row's date were edited.
func (g *Generator) NextEventNumber(ctx context.Context, q Querier, reportID types.ID, reportNumber string) (string, error) {
	parent, err := Parse(reportNumber)
	if err != nil {
		return "", errors.Wrap(err, "failed to parse parent report number")
	}

	seq, err := g.next(ctx, q, ScopeParent(PrefixEvent, reportID.String()))
	if err != nil {
		return "", err
	}

	metrics.RecordReferenceNumber(PrefixEvent)
	return Format(PrefixEvent, parent.Date, parent.TypeCode, seq), nil
}

// NextDatedNumber allocates the next number in a (prefix, date) series,
// used for coordinations, meetings, calls, memos and releases.
func (g *Generator) NextDatedNumber(ctx context.Context, q Querier, prefix string, date time.Time) (string, error) {
	seq, err := g.next(ctx, q, ScopeDated(prefix, date))
	if err != nil {
		return "", err
	}

	metrics.RecordReferenceNumber(prefix)
	return Format(prefix, date, "", seq), nil
}
