package meeting

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

// Repository provides meeting and call storage
type Repository struct {
	pool *pgxpool.Pool
	gen  *refnum.Generator
}

// NewRepository creates a new meeting repository
func NewRepository(pool *pgxpool.Pool, gen *refnum.Generator) *Repository {
	return &Repository{pool: pool, gen: gen}
}

const meetingColumns = `
	id, reference_number, type, date, time, duration, location,
	requested_by, participants, agenda, purpose, minutes, decisions,
	follow_up, status, postponed_to, reason, created_by, created_at, updated_at`

func scanMeeting(row pgx.Row) (*MeetingCall, error) {
	var m MeetingCall
	err := row.Scan(
		&m.ID, &m.ReferenceNumber, &m.Kind, &m.Date, &m.Time, &m.Duration, &m.Location,
		&m.RequestedBy, &m.Participants, &m.Agenda, &m.Purpose, &m.Minutes, &m.Decisions,
		&m.FollowUp, &m.Status, &m.PostponedTo, &m.Reason, &m.CreatedBy, &m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if m.Participants == nil {
		m.Participants = []Participant{}
	}
	if m.Decisions == nil {
		m.Decisions = []string{}
	}
	if m.FollowUp == nil {
		m.FollowUp = []FollowUp{}
	}
	return &m, nil
}

// Create allocates the reference number and inserts the record in one
// transaction. Meetings and calls draw from separate daily sequences.
func (r *Repository) Create(ctx context.Context, m *MeetingCall) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to begin transaction")
	}
	defer tx.Rollback(ctx)

	number, err := r.gen.NextDatedNumber(ctx, tx, NumberPrefix(m.Kind), m.Date)
	if err != nil {
		return err
	}
	m.ReferenceNumber = number

	_, err = tx.Exec(ctx, `
		INSERT INTO reporting.meeting_calls (
			id, reference_number, type, date, time, duration, location,
			requested_by, participants, agenda, purpose, status, created_by
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`,
		m.ID, m.ReferenceNumber, m.Kind, m.Date, m.Time, m.Duration, m.Location,
		m.RequestedBy, m.Participants, m.Agenda, m.Purpose, m.Status, m.CreatedBy,
	)
	if err != nil {
		return errors.Wrap(err, "failed to create meeting record")
	}

	if err := tx.Commit(ctx); err != nil {
		return errors.Wrap(err, "failed to commit meeting creation")
	}
	return nil
}

// FindByID finds a meeting or call by ID
func (r *Repository) FindByID(ctx context.Context, id types.ID) (*MeetingCall, error) {
	m, err := scanMeeting(r.pool.QueryRow(ctx,
		`SELECT `+meetingColumns+` FROM reporting.meeting_calls WHERE id = $1`, id))
	if err != nil {
		if stderrors.Is(err, pgx.ErrNoRows) {
			return nil, errors.NotFound("meeting record", id.String())
		}
		return nil, errors.Wrap(err, "failed to find meeting record")
	}
	return m, nil
}

// List lists meetings and calls with filters, newest first
func (r *Repository) List(ctx context.Context, filter ListFilter) ([]MeetingCall, int, error) {
	var conditions []string
	var args []any
	argNum := 1

	if filter.Kind != "" {
		conditions = append(conditions, fmt.Sprintf("type = $%d", argNum))
		args = append(args, filter.Kind)
		argNum++
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argNum))
		args = append(args, filter.Status)
		argNum++
	}
	if filter.DateFrom != nil {
		conditions = append(conditions, fmt.Sprintf("date >= $%d", argNum))
		args = append(args, *filter.DateFrom)
		argNum++
	}
	if filter.DateTo != nil {
		conditions = append(conditions, fmt.Sprintf("date <= $%d", argNum))
		args = append(args, *filter.DateTo)
		argNum++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM reporting.meeting_calls %s", whereClause)
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, errors.Wrap(err, "failed to count meeting records")
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
		SELECT %s FROM reporting.meeting_calls
		%s
		ORDER BY date DESC, time DESC
		LIMIT $%d OFFSET $%d`, meetingColumns, whereClause, argNum, argNum+1)
	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, errors.Wrap(err, "failed to list meeting records")
	}
	defer rows.Close()

	var meetings []MeetingCall
	for rows.Next() {
		m, err := scanMeeting(rows)
		if err != nil {
			return nil, 0, errors.Wrap(err, "failed to scan meeting record")
		}
		meetings = append(meetings, *m)
	}

	return meetings, total, nil
}

// Update persists all mutable fields
func (r *Repository) Update(ctx context.Context, m *MeetingCall) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE reporting.meeting_calls SET
			date = $2, time = $3, duration = $4, location = $5,
			requested_by = $6, participants = $7, agenda = $8, purpose = $9,
			minutes = $10, decisions = $11, follow_up = $12, status = $13,
			postponed_to = $14, reason = $15, updated_at = NOW()
		WHERE id = $1
	`,
		m.ID, m.Date, m.Time, m.Duration, m.Location,
		m.RequestedBy, m.Participants, m.Agenda, m.Purpose,
		m.Minutes, m.Decisions, m.FollowUp, m.Status,
		m.PostponedTo, m.Reason,
	)
	if err != nil {
		return errors.Wrap(err, "failed to update meeting record")
	}
	if tag.RowsAffected() == 0 {
		return errors.NotFound("meeting record", m.ID.String())
	}
	return nil
}

// Delete removes a meeting or call record
func (r *Repository) Delete(ctx context.Context, id types.ID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM reporting.meeting_calls WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "failed to delete meeting record")
	}
	if tag.RowsAffected() == 0 {
		return errors.NotFound("meeting record", id.String())
	}
	return nil
}
