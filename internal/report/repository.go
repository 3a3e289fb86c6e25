package report

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sitrep-gov/platform/internal/refnum"
	"github.com/sitrep-gov/platform/internal/shared/errors"
	"github.com/sitrep-gov/platform/internal/shared/types"
)

// Repository provides daily report storage
type Repository struct {
	pool *pgxpool.Pool
	gen  *refnum.Generator
}

// NewRepository creates a new report repository
func NewRepository(pool *pgxpool.Pool, gen *refnum.Generator) *Repository {
	return &Repository{pool: pool, gen: gen}
}

const reportColumns = `
	id, report_number, report_date, report_type, status, summary,
	event_count, governorate_ids, created_by, approved_by,
	created_at, updated_at`

func scanReport(row pgx.Row) (*Report, error) {
	var rep Report
	err := row.Scan(
		&rep.ID, &rep.ReportNumber, &rep.ReportDate, &rep.ReportType,
		&rep.Status, &rep.Summary, &rep.EventCount, &rep.GovernorateIDs,
		&rep.CreatedBy, &rep.ApprovedBy, &rep.CreatedAt, &rep.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if rep.GovernorateIDs == nil {
		rep.GovernorateIDs = []types.ID{}
	}
	return &rep, nil
}

// Create allocates the report number and inserts the report in one
// transaction, so a failed insert never burns a visible number gap and a
// duplicate (date, type) aborts before the row lands.
func (r *Repository) Create(ctx context.Context, rep *Report) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to begin transaction")
	}
	defer tx.Rollback(ctx)

	number, err := r.gen.NextReportNumber(ctx, tx, rep.ReportDate, rep.ReportType)
	if err != nil {
		return err
	}
	rep.ReportNumber = number

	_, err = tx.Exec(ctx, `
		INSERT INTO reporting.daily_reports (
			id, report_number, report_date, report_type, status, summary,
			event_count, governorate_ids, created_by
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`,
		rep.ID, rep.ReportNumber, rep.ReportDate, rep.ReportType, rep.Status,
		rep.Summary, rep.EventCount, rep.GovernorateIDs, rep.CreatedBy,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if stderrors.As(err, &pgErr) && pgErr.Code == "23505" {
			return errors.Duplicate("reportDate+reportType")
		}
		return errors.Wrap(err, "failed to create report")
	}

	if err := tx.Commit(ctx); err != nil {
		return errors.Wrap(err, "failed to commit report creation")
	}
	return nil
}

// FindByID finds a report by ID
func (r *Repository) FindByID(ctx context.Context, id types.ID) (*Report, error) {
	rep, err := scanReport(r.pool.QueryRow(ctx,
		`SELECT `+reportColumns+` FROM reporting.daily_reports WHERE id = $1`, id))
	if err != nil {
		if stderrors.Is(err, pgx.ErrNoRows) {
			return nil, errors.NotFound("report", id.String())
		}
		return nil, errors.Wrap(err, "failed to find report")
	}
	return rep, nil
}

// List lists reports with filters, newest report date first
func (r *Repository) List(ctx context.Context, filter ListFilter) ([]Report, int, error) {
	var conditions []string
	var args []any
	argNum := 1

	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argNum))
		args = append(args, filter.Status)
		argNum++
	}
	if filter.ReportType != "" {
		conditions = append(conditions, fmt.Sprintf("report_type = $%d", argNum))
		args = append(args, filter.ReportType)
		argNum++
	}
	if filter.DateFrom != nil {
		conditions = append(conditions, fmt.Sprintf("report_date >= $%d", argNum))
		args = append(args, *filter.DateFrom)
		argNum++
	}
	if filter.DateTo != nil {
		conditions = append(conditions, fmt.Sprintf("report_date <= $%d", argNum))
		args = append(args, *filter.DateTo)
		argNum++
	}
	if filter.GovernorateID != nil {
		conditions = append(conditions, fmt.Sprintf("$%d = ANY(governorate_ids)", argNum))
		args = append(args, *filter.GovernorateID)
		argNum++
	}
	if filter.CreatedBy != nil {
		conditions = append(conditions, fmt.Sprintf("created_by = $%d", argNum))
		args = append(args, *filter.CreatedBy)
		argNum++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM reporting.daily_reports %s", whereClause)
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, errors.Wrap(err, "failed to count reports")
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
		SELECT %s FROM reporting.daily_reports
		%s
		ORDER BY report_date DESC, report_number DESC
		LIMIT $%d OFFSET $%d`, reportColumns, whereClause, argNum, argNum+1)
	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, errors.Wrap(err, "failed to list reports")
	}
	defer rows.Close()

	var reports []Report
	for rows.Next() {
		rep, err := scanReport(rows)
		if err != nil {
			return nil, 0, errors.Wrap(err, "failed to scan report")
		}
		reports = append(reports, *rep)
	}

	return reports, total, nil
}

// Update updates the mutable fields: summary, status, governorates and
// the approver
func (r *Repository) Update(ctx context.Context, rep *Report) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE reporting.daily_reports SET
			summary = $2, status = $3, governorate_ids = $4,
			approved_by = $5, updated_at = NOW()
		WHERE id = $1
	`,
		rep.ID, rep.Summary, rep.Status, rep.GovernorateIDs, rep.ApprovedBy,
	)
	if err != nil {
		return errors.Wrap(err, "failed to update report")
	}
	if tag.RowsAffected() == 0 {
		return errors.NotFound("report", rep.ID.String())
	}
	return nil
}

// Delete removes a report. It refuses while child events exist; the row
// is locked first so a concurrent event insert cannot slip in between
// the check and the delete.
func (r *Repository) Delete(ctx context.Context, id types.ID) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to begin transaction")
	}
	defer tx.Rollback(ctx)

	var eventCount int
	err = tx.QueryRow(ctx, `
		SELECT event_count FROM reporting.daily_reports
		WHERE id = $1
		FOR UPDATE
	`, id).Scan(&eventCount)
	if err != nil {
		if stderrors.Is(err, pgx.ErrNoRows) {
			return errors.NotFound("report", id.String())
		}
		return errors.Wrap(err, "failed to lock report")
	}

	if eventCount > 0 {
		return errors.Conflict("report has events attached, delete them first or archive the report", "eventCount")
	}

	if _, err := tx.Exec(ctx, `DELETE FROM reporting.daily_reports WHERE id = $1`, id); err != nil {
		return errors.Wrap(err, "failed to delete report")
	}

	if err := tx.Commit(ctx); err != nil {
		return errors.Wrap(err, "failed to commit report deletion")
	}
	return nil
}
