package memo

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

// Repository provides memo and release document storage
type Repository struct {
	pool *pgxpool.Pool
	gen  *refnum.Generator
}

// NewRepository creates a new memo repository
func NewRepository(pool *pgxpool.Pool, gen *refnum.Generator) *Repository {
	return &Repository{pool: pool, gen: gen}
}

const memoColumns = `
	id, reference_number, type, date, time, location, subject, content,
	governorate_id, issued_to, issued_by, person_name, person_id,
	date_of_birth, residence_place, detention_date, release_date,
	detention_period, detention_reason, status, created_by, created_at, updated_at`

func scanMemo(row pgx.Row) (*MemoRelease, error) {
	var m MemoRelease
	err := row.Scan(
		&m.ID, &m.ReferenceNumber, &m.Kind, &m.Date, &m.Time, &m.Location, &m.Subject, &m.Content,
		&m.GovernorateID, &m.IssuedTo, &m.IssuedBy, &m.PersonName, &m.PersonID,
		&m.DateOfBirth, &m.ResidencePlace, &m.DetentionDate, &m.ReleaseDate,
		&m.DetentionPeriod, &m.DetentionReason, &m.Status, &m.CreatedBy, &m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// Create allocates the reference number and inserts the document in one
// transaction. Memos and releases draw from separate daily sequences.
func (r *Repository) Create(ctx context.Context, m *MemoRelease) error {
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
		INSERT INTO reporting.memo_releases (
			id, reference_number, type, date, time, location, subject, content,
			governorate_id, issued_to, issued_by, person_name, person_id,
			date_of_birth, residence_place, detention_date, release_date,
			detention_period, detention_reason, status, created_by
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11,
			$12, $13, $14, $15, $16, $17, $18, $19, $20, $21
		)
	`,
		m.ID, m.ReferenceNumber, m.Kind, m.Date, m.Time, m.Location, m.Subject, m.Content,
		m.GovernorateID, m.IssuedTo, m.IssuedBy, m.PersonName, m.PersonID,
		m.DateOfBirth, m.ResidencePlace, m.DetentionDate, m.ReleaseDate,
		m.DetentionPeriod, m.DetentionReason, m.Status, m.CreatedBy,
	)
	if err != nil {
		return errors.Wrap(err, "failed to create memo document")
	}

	if err := tx.Commit(ctx); err != nil {
		return errors.Wrap(err, "failed to commit memo creation")
	}
	return nil
}

// FindByID finds a memo or release document by ID
func (r *Repository) FindByID(ctx context.Context, id types.ID) (*MemoRelease, error) {
	m, err := scanMemo(r.pool.QueryRow(ctx,
		`SELECT `+memoColumns+` FROM reporting.memo_releases WHERE id = $1`, id))
	if err != nil {
		if stderrors.Is(err, pgx.ErrNoRows) {
			return nil, errors.NotFound("memo document", id.String())
		}
		return nil, errors.Wrap(err, "failed to find memo document")
	}
	return m, nil
}

// List lists memo and release documents with filters, newest first
func (r *Repository) List(ctx context.Context, filter ListFilter) ([]MemoRelease, int, error) {
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
	if filter.GovernorateID != nil {
		conditions = append(conditions, fmt.Sprintf("governorate_id = $%d", argNum))
		args = append(args, *filter.GovernorateID)
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
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM reporting.memo_releases %s", whereClause)
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, errors.Wrap(err, "failed to count memo documents")
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
		SELECT %s FROM reporting.memo_releases
		%s
		ORDER BY date DESC, reference_number DESC
		LIMIT $%d OFFSET $%d`, memoColumns, whereClause, argNum, argNum+1)
	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, errors.Wrap(err, "failed to list memo documents")
	}
	defer rows.Close()

	var memos []MemoRelease
	for rows.Next() {
		m, err := scanMemo(rows)
		if err != nil {
			return nil, 0, errors.Wrap(err, "failed to scan memo document")
		}
		memos = append(memos, *m)
	}

	return memos, total, nil
}

// Update persists all mutable fields
func (r *Repository) Update(ctx context.Context, m *MemoRelease) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE reporting.memo_releases SET
			date = $2, time = $3, location = $4, subject = $5, content = $6,
			issued_to = $7, issued_by = $8, person_name = $9, person_id = $10,
			date_of_birth = $11, residence_place = $12, detention_date = $13,
			release_date = $14, detention_period = $15, detention_reason = $16,
			status = $17, updated_at = NOW()
		WHERE id = $1
	`,
		m.ID, m.Date, m.Time, m.Location, m.Subject, m.Content,
		m.IssuedTo, m.IssuedBy, m.PersonName, m.PersonID,
		m.DateOfBirth, m.ResidencePlace, m.DetentionDate,
		m.ReleaseDate, m.DetentionPeriod, m.DetentionReason,
		m.Status,
	)
	if err != nil {
		return errors.Wrap(err, "failed to update memo document")
	}
	if tag.RowsAffected() == 0 {
		return errors.NotFound("memo document", m.ID.String())
	}
	return nil
}

// Delete removes a memo or release document
func (r *Repository) Delete(ctx context.Context, id types.ID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM reporting.memo_releases WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "failed to delete memo document")
	}
	if tag.RowsAffected() == 0 {
		return errors.NotFound("memo document", id.String())
	}
	return nil
}
