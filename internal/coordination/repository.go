package coordination

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

// Repository provides coordination request storage
type Repository struct {
	pool *pgxpool.Pool
	gen  *refnum.Generator
}

// NewRepository creates a new coordination repository
func NewRepository(pool *pgxpool.Pool, gen *refnum.Generator) *Repository {
	return &Repository{pool: pool, gen: gen}
}

const coordColumns = `
	id, request_number, request_time, request_date, approval_time,
	movement_time, return_time, governorate_id, from_location, to_location,
	route_details, department, forces, vehicles, vehicle_types,
	weapons, weapon_types, purpose, estimated_duration, status, priority,
	rejection_reason, notes, requested_by, approved_by, created_at, updated_at`

func scanCoordination(row pgx.Row) (*Coordination, error) {
	var c Coordination
	err := row.Scan(
		&c.ID, &c.RequestNumber, &c.RequestTime, &c.RequestDate, &c.ApprovalTime,
		&c.MovementTime, &c.ReturnTime, &c.GovernorateID, &c.FromLocation, &c.ToLocation,
		&c.RouteDetails, &c.Department, &c.Forces, &c.Vehicles, &c.VehicleTypes,
		&c.Weapons, &c.WeaponTypes, &c.Purpose, &c.EstimatedDuration, &c.Status, &c.Priority,
		&c.RejectionReason, &c.Notes, &c.RequestedBy, &c.ApprovedBy, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if c.VehicleTypes == nil {
		c.VehicleTypes = []string{}
	}
	if c.WeaponTypes == nil {
		c.WeaponTypes = []string{}
	}
	return &c, nil
}

// Create allocates the request number and inserts the request in one
// transaction
func (r *Repository) Create(ctx context.Context, c *Coordination) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to begin transaction")
	}
	defer tx.Rollback(ctx)

	number, err := r.gen.NextDatedNumber(ctx, tx, refnum.PrefixCoordination, c.RequestDate)
	if err != nil {
		return err
	}
	c.RequestNumber = number

	_, err = tx.Exec(ctx, `
		INSERT INTO reporting.coordinations (
			id, request_number, request_time, request_date, movement_time,
			governorate_id, from_location, to_location, route_details,
			department, forces, vehicles, vehicle_types, weapons, weapon_types,
			purpose, estimated_duration, status, priority, notes, requested_by
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10,
			$11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21
		)
	`,
		c.ID, c.RequestNumber, c.RequestTime, c.RequestDate, c.MovementTime,
		c.GovernorateID, c.FromLocation, c.ToLocation, c.RouteDetails,
		c.Department, c.Forces, c.Vehicles, c.VehicleTypes, c.Weapons, c.WeaponTypes,
		c.Purpose, c.EstimatedDuration, c.Status, c.Priority, c.Notes, c.RequestedBy,
	)
	if err != nil {
		return errors.Wrap(err, "failed to create coordination request")
	}

	if err := tx.Commit(ctx); err != nil {
		return errors.Wrap(err, "failed to commit coordination creation")
	}
	return nil
}

// FindByID finds a coordination request by ID
func (r *Repository) FindByID(ctx context.Context, id types.ID) (*Coordination, error) {
	c, err := scanCoordination(r.pool.QueryRow(ctx,
		`SELECT `+coordColumns+` FROM reporting.coordinations WHERE id = $1`, id))
	if err != nil {
		if stderrors.Is(err, pgx.ErrNoRows) {
			return nil, errors.NotFound("coordination request", id.String())
		}
		return nil, errors.Wrap(err, "failed to find coordination request")
	}
	return c, nil
}

// List lists coordination requests with filters, newest first
func (r *Repository) List(ctx context.Context, filter ListFilter) ([]Coordination, int, error) {
	var conditions []string
	var args []any
	argNum := 1

	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argNum))
		args = append(args, filter.Status)
		argNum++
	}
	if filter.Priority != "" {
		conditions = append(conditions, fmt.Sprintf("priority = $%d", argNum))
		args = append(args, filter.Priority)
		argNum++
	}
	if filter.GovernorateID != nil {
		conditions = append(conditions, fmt.Sprintf("governorate_id = $%d", argNum))
		args = append(args, *filter.GovernorateID)
		argNum++
	}
	if filter.Department != "" {
		conditions = append(conditions, fmt.Sprintf("department = $%d", argNum))
		args = append(args, filter.Department)
		argNum++
	}
	if filter.DateFrom != nil {
		conditions = append(conditions, fmt.Sprintf("request_date >= $%d", argNum))
		args = append(args, *filter.DateFrom)
		argNum++
	}
	if filter.DateTo != nil {
		conditions = append(conditions, fmt.Sprintf("request_date <= $%d", argNum))
		args = append(args, *filter.DateTo)
		argNum++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM reporting.coordinations %s", whereClause)
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, errors.Wrap(err, "failed to count coordination requests")
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
		SELECT %s FROM reporting.coordinations
		%s
		ORDER BY request_time DESC
		LIMIT $%d OFFSET $%d`, coordColumns, whereClause, argNum, argNum+1)
	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, errors.Wrap(err, "failed to list coordination requests")
	}
	defer rows.Close()

	var coords []Coordination
	for rows.Next() {
		c, err := scanCoordination(rows)
		if err != nil {
			return nil, 0, errors.Wrap(err, "failed to scan coordination request")
		}
		coords = append(coords, *c)
	}

	return coords, total, nil
}

// Update persists all mutable fields
func (r *Repository) Update(ctx context.Context, c *Coordination) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE reporting.coordinations SET
			approval_time = $2, movement_time = $3, return_time = $4,
			from_location = $5, to_location = $6, route_details = $7,
			department = $8, forces = $9, vehicles = $10, vehicle_types = $11,
			weapons = $12, weapon_types = $13, purpose = $14,
			estimated_duration = $15, status = $16, priority = $17,
			rejection_reason = $18, notes = $19, approved_by = $20,
			updated_at = NOW()
		WHERE id = $1
	`,
		c.ID, c.ApprovalTime, c.MovementTime, c.ReturnTime,
		c.FromLocation, c.ToLocation, c.RouteDetails,
		c.Department, c.Forces, c.Vehicles, c.VehicleTypes,
		c.Weapons, c.WeaponTypes, c.Purpose,
		c.EstimatedDuration, c.Status, c.Priority,
		c.RejectionReason, c.Notes, c.ApprovedBy,
	)
	if err != nil {
		return errors.Wrap(err, "failed to update coordination request")
	}
	if tag.RowsAffected() == 0 {
		return errors.NotFound("coordination request", c.ID.String())
	}
	return nil
}

// Delete removes a coordination request
func (r *Repository) Delete(ctx context.Context, id types.ID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM reporting.coordinations WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "failed to delete coordination request")
	}
	if tag.RowsAffected() == 0 {
		return errors.NotFound("coordination request", id.String())
	}
	return nil
}
