package event

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sitrep-gov/platform/internal/refnum"
	"github.com/sitrep-gov/platform/internal/shared/errors"
	"github.com/sitrep-gov/platform/internal/shared/types"
)

// Repository provides event storage and keeps the parent report's
// event_count in step with the true child count.
type Repository struct {
	pool *pgxpool.Pool
	gen  *refnum.Generator
}

// NewRepository creates a new event repository
func NewRepository(pool *pgxpool.Pool, gen *refnum.Generator) *Repository {
	return &Repository{pool: pool, gen: gen}
}

const eventColumns = `
	id, report_id, event_number, governorate_id, region,
	event_time, event_date, event_type, severity, description,
	involved_parties, intervention, response, results,
	casualties_killed, casualties_injured, casualties_arrested,
	status, lat, lng, created_by, created_at, updated_at`

func scanEvent(row pgx.Row) (*Event, error) {
	var ev Event
	var lat, lng *float64
	err := row.Scan(
		&ev.ID, &ev.ReportID, &ev.EventNumber, &ev.GovernorateID, &ev.Region,
		&ev.EventTime, &ev.EventDate, &ev.EventType, &ev.Severity, &ev.Description,
		&ev.InvolvedParties, &ev.Intervention, &ev.Response, &ev.Results,
		&ev.Casualties.Killed, &ev.Casualties.Injured, &ev.Casualties.Arrested,
		&ev.Status, &lat, &lng, &ev.CreatedBy, &ev.CreatedAt, &ev.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if ev.InvolvedParties == nil {
		ev.InvolvedParties = []string{}
	}
	if lat != nil && lng != nil {
		ev.Location = &types.Coordinates{Lat: *lat, Lng: *lng}
	}
	return &ev, nil
}

func locationColumns(ev *Event) (lat, lng *float64) {
	if ev.Location != nil {
		return &ev.Location.Lat, &ev.Location.Lng
	}
	return nil, nil
}

// recount recomputes the parent's event_count from the true child count
// inside the caller's transaction. Running it in the same transaction as
// the event write means the counter can never drift, even under
// concurrent writers.
func recount(ctx context.Context, tx pgx.Tx, reportID types.ID) error {
	_, err := tx.Exec(ctx, `
		UPDATE reporting.daily_reports
		SET event_count = (
			SELECT COUNT(*) FROM reporting.events WHERE report_id = $1
		), updated_at = NOW()
		WHERE id = $1
	`, reportID)
	if err != nil {
		return errors.Wrap(err, "failed to recount report events")
	}
	return nil
}

// Create inserts an event and updates the parent report in one
// transaction. The parent row is locked first, which both serializes
// sibling numbering per report and guarantees the recount sees the
// insert.
func (r *Repository) Create(ctx context.Context, ev *Event) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to begin transaction")
	}
	defer tx.Rollback(ctx)

	var reportNumber string
	err = tx.QueryRow(ctx, `
		SELECT report_number FROM reporting.daily_reports
		WHERE id = $1
		FOR UPDATE
	`, ev.ReportID).Scan(&reportNumber)
	if err != nil {
		if stderrors.Is(err, pgx.ErrNoRows) {
			return errors.NotFound("report", ev.ReportID.String())
		}
		return errors.Wrap(err, "failed to lock parent report")
	}

	number, err := r.gen.NextEventNumber(ctx, tx, ev.ReportID, reportNumber)
	if err != nil {
		return err
	}
	ev.EventNumber = number

	lat, lng := locationColumns(ev)
	_, err = tx.Exec(ctx, `
		INSERT INTO reporting.events (
			id, report_id, event_number, governorate_id, region,
			event_time, event_date, event_type, severity, description,
			involved_parties, intervention, response, results,
			casualties_killed, casualties_injured, casualties_arrested,
			status, lat, lng, created_by
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10,
			$11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21
		)
	`,
		ev.ID, ev.ReportID, ev.EventNumber, ev.GovernorateID, ev.Region,
		ev.EventTime, ev.EventDate, ev.EventType, ev.Severity, ev.Description,
		ev.InvolvedParties, ev.Intervention, ev.Response, ev.Results,
		ev.Casualties.Killed, ev.Casualties.Injured, ev.Casualties.Arrested,
		ev.Status, lat, lng, ev.CreatedBy,
	)
	if err != nil {
		return errors.Wrap(err, "failed to create event")
	}

	if err := recount(ctx, tx, ev.ReportID); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return errors.Wrap(err, "failed to commit event creation")
	}
	return nil
}

// FindByID finds an event by ID
func (r *Repository) FindByID(ctx context.Context, id types.ID) (*Event, error) {
	ev, err := scanEvent(r.pool.QueryRow(ctx,
		`SELECT `+eventColumns+` FROM reporting.events WHERE id = $1`, id))
	if err != nil {
		if stderrors.Is(err, pgx.ErrNoRows) {
			return nil, errors.NotFound("event", id.String())
		}
		return nil, errors.Wrap(err, "failed to find event")
	}
	return ev, nil
}

// List lists events with filters, newest first
func (r *Repository) List(ctx context.Context, filter ListFilter) ([]Event, int, error) {
	var conditions []string
	var args []any
	argNum := 1

	if filter.ReportID != nil {
		conditions = append(conditions, fmt.Sprintf("report_id = $%d", argNum))
		args = append(args, *filter.ReportID)
		argNum++
	}
	if filter.GovernorateID != nil {
		conditions = append(conditions, fmt.Sprintf("governorate_id = $%d", argNum))
		args = append(args, *filter.GovernorateID)
		argNum++
	}
	if filter.EventType != "" {
		conditions = append(conditions, fmt.Sprintf("event_type = $%d", argNum))
		args = append(args, filter.EventType)
		argNum++
	}
	if filter.Severity != "" {
		conditions = append(conditions, fmt.Sprintf("severity = $%d", argNum))
		args = append(args, filter.Severity)
		argNum++
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argNum))
		args = append(args, filter.Status)
		argNum++
	}
	if filter.DateFrom != nil {
		conditions = append(conditions, fmt.Sprintf("event_date >= $%d", argNum))
		args = append(args, *filter.DateFrom)
		argNum++
	}
	if filter.DateTo != nil {
		conditions = append(conditions, fmt.Sprintf("event_date <= $%d", argNum))
		args = append(args, *filter.DateTo)
		argNum++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM reporting.events %s", whereClause)
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, errors.Wrap(err, "failed to count events")
	}

	limit := 20
	if filter.Limit > 0 && filter.Limit <= 100 {
		limit = filter.Limit
	}
	offset := 0
	if filter.Page > 1 {
		offset = (filter.Page - 1) * limit
	}

	query := fmt.Sprintf(`
		SELECT %s FROM reporting.events
		%s
		ORDER BY event_time DESC
		LIMIT $%d OFFSET $%d`, eventColumns, whereClause, argNum, argNum+1)
	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, errors.Wrap(err, "failed to list events")
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, 0, errors.Wrap(err, "failed to scan event")
		}
		events = append(events, *ev)
	}

	return events, total, nil
}

// ListByReport lists the events attached to one report, oldest first so
// the numbering reads in order
func (r *Repository) ListByReport(ctx context.Context, reportID types.ID, page, limit int) ([]Event, int, error) {
	var total int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM reporting.events WHERE report_id = $1`, reportID).Scan(&total)
	if err != nil {
		return nil, 0, errors.Wrap(err, "failed to count report events")
	}

	if limit <= 0 || limit > 100 {
		limit = 20
	}
	offset := 0
	if page > 1 {
		offset = (page - 1) * limit
	}

	rows, err := r.pool.Query(ctx, `
		SELECT `+eventColumns+` FROM reporting.events
		WHERE report_id = $1
		ORDER BY event_number
		LIMIT $2 OFFSET $3
	`, reportID, limit, offset)
	if err != nil {
		return nil, 0, errors.Wrap(err, "failed to list report events")
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, 0, errors.Wrap(err, "failed to scan event")
		}
		events = append(events, *ev)
	}

	return events, total, nil
}

// Update updates event fields
func (r *Repository) Update(ctx context.Context, ev *Event) error {
	lat, lng := locationColumns(ev)
	tag, err := r.pool.Exec(ctx, `
		UPDATE reporting.events SET
			governorate_id = $2, region = $3, event_time = $4, event_date = $5,
			event_type = $6, severity = $7, description = $8,
			involved_parties = $9, intervention = $10, response = $11, results = $12,
			casualties_killed = $13, casualties_injured = $14, casualties_arrested = $15,
			status = $16, lat = $17, lng = $18, updated_at = NOW()
		WHERE id = $1
	`,
		ev.ID, ev.GovernorateID, ev.Region, ev.EventTime, ev.EventDate,
		ev.EventType, ev.Severity, ev.Description,
		ev.InvolvedParties, ev.Intervention, ev.Response, ev.Results,
		ev.Casualties.Killed, ev.Casualties.Injured, ev.Casualties.Arrested,
		ev.Status, lat, lng,
	)
	if err != nil {
		return errors.Wrap(err, "failed to update event")
	}
	if tag.RowsAffected() == 0 {
		return errors.NotFound("event", ev.ID.String())
	}
	return nil
}

// Delete removes an event and recounts the parent in one transaction
func (r *Repository) Delete(ctx context.Context, id types.ID) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to begin transaction")
	}
	defer tx.Rollback(ctx)

	var reportID types.ID
	err = tx.QueryRow(ctx, `SELECT report_id FROM reporting.events WHERE id = $1`, id).Scan(&reportID)
	if err != nil {
		if stderrors.Is(err, pgx.ErrNoRows) {
			return errors.NotFound("event", id.String())
		}
		return errors.Wrap(err, "failed to find event")
	}

	// Lock the parent so the recount below and any concurrent sibling
	// write serialize.
	if _, err := tx.Exec(ctx, `
		SELECT 1 FROM reporting.daily_reports WHERE id = $1 FOR UPDATE
	`, reportID); err != nil {
		return errors.Wrap(err, "failed to lock parent report")
	}

	if _, err := tx.Exec(ctx, `DELETE FROM reporting.events WHERE id = $1`, id); err != nil {
		return errors.Wrap(err, "failed to delete event")
	}

	if err := recount(ctx, tx, reportID); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return errors.Wrap(err, "failed to commit event deletion")
	}
	return nil
}
