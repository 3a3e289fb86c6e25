package governorate

import (
	"context"
	stderrors "errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sitrep-gov/platform/internal/shared/errors"
	"github.com/sitrep-gov/platform/internal/shared/types"
)

// Repository provides governorate storage
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new governorate repository
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const govColumns = `
	id, name, code, regions, contact_address, contact_phone, contact_email,
	is_active, created_at, updated_at`

func scanGovernorate(row pgx.Row) (*Governorate, error) {
	var g Governorate
	err := row.Scan(
		&g.ID, &g.Name, &g.Code, &g.Regions,
		&g.Contact.Address, &g.Contact.Phone, &g.Contact.Email,
		&g.IsActive, &g.CreatedAt, &g.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if g.Regions == nil {
		g.Regions = []string{}
	}
	return &g, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return stderrors.As(err, &pgErr) && pgErr.Code == "23505"
}

// Create inserts a governorate
func (r *Repository) Create(ctx context.Context, g *Governorate) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO geo.governorates (
			id, name, code, regions,
			contact_address, contact_phone, contact_email, is_active
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`,
		g.ID, g.Name, g.Code, g.Regions,
		g.Contact.Address, g.Contact.Phone, g.Contact.Email, g.IsActive,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return errors.Duplicate("code")
		}
		return errors.Wrap(err, "failed to create governorate")
	}
	return nil
}

// FindByID finds a governorate by ID, active or not
func (r *Repository) FindByID(ctx context.Context, id types.ID) (*Governorate, error) {
	g, err := scanGovernorate(r.pool.QueryRow(ctx,
		`SELECT `+govColumns+` FROM geo.governorates WHERE id = $1`, id))
	if err != nil {
		if stderrors.Is(err, pgx.ErrNoRows) {
			return nil, errors.NotFound("governorate", id.String())
		}
		return nil, errors.Wrap(err, "failed to find governorate")
	}
	return g, nil
}

// FindActive finds a governorate that has not been soft-deleted
func (r *Repository) FindActive(ctx context.Context, id types.ID) (*Governorate, error) {
	g, err := r.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !g.IsActive {
		return nil, errors.NotFound("governorate", id.String())
	}
	return g, nil
}

// List lists governorates, active only unless IncludeInactive is set
func (r *Repository) List(ctx context.Context, filter ListFilter) ([]Governorate, error) {
	var conditions []string
	var args []any

	if !filter.IncludeInactive {
		conditions = append(conditions, "is_active = TRUE")
	}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		conditions = append(conditions, "(name ILIKE $1 OR code ILIKE $1)")
	}

	query := `SELECT ` + govColumns + ` FROM geo.governorates`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY name"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list governorates")
	}
	defer rows.Close()

	var govs []Governorate
	for rows.Next() {
		g, err := scanGovernorate(rows)
		if err != nil {
			return nil, errors.Wrap(err, "failed to scan governorate")
		}
		govs = append(govs, *g)
	}
	return govs, nil
}

// Update updates name, code and contact details
func (r *Repository) Update(ctx context.Context, g *Governorate) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE geo.governorates SET
			name = $2, code = $3,
			contact_address = $4, contact_phone = $5, contact_email = $6,
			updated_at = NOW()
		WHERE id = $1
	`,
		g.ID, g.Name, g.Code,
		g.Contact.Address, g.Contact.Phone, g.Contact.Email,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return errors.Duplicate("code")
		}
		return errors.Wrap(err, "failed to update governorate")
	}
	if tag.RowsAffected() == 0 {
		return errors.NotFound("governorate", g.ID.String())
	}
	return nil
}

// SoftDelete marks a governorate inactive
func (r *Repository) SoftDelete(ctx context.Context, id types.ID) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE geo.governorates SET is_active = FALSE, updated_at = NOW()
		WHERE id = $1
	`, id)
	if err != nil {
		return errors.Wrap(err, "failed to delete governorate")
	}
	if tag.RowsAffected() == 0 {
		return errors.NotFound("governorate", id.String())
	}
	return nil
}

// AddRegion appends a region if it is not already present
func (r *Repository) AddRegion(ctx context.Context, id types.ID, region string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE geo.governorates
		SET regions = array_append(regions, $2), updated_at = NOW()
		WHERE id = $1 AND NOT ($2 = ANY(regions))
	`, id, region)
	if err != nil {
		return errors.Wrap(err, "failed to add region")
	}
	if tag.RowsAffected() == 0 {
		// Either the governorate is unknown or the region already exists.
		if _, err := r.FindByID(ctx, id); err != nil {
			return err
		}
		return errors.Duplicate("region")
	}
	return nil
}

// RemoveRegion removes a region from the list
func (r *Repository) RemoveRegion(ctx context.Context, id types.ID, region string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE geo.governorates
		SET regions = array_remove(regions, $2), updated_at = NOW()
		WHERE id = $1 AND $2 = ANY(regions)
	`, id, region)
	if err != nil {
		return errors.Wrap(err, "failed to remove region")
	}
	if tag.RowsAffected() == 0 {
		if _, err := r.FindByID(ctx, id); err != nil {
			return err
		}
		return errors.NotFound("region", region)
	}
	return nil
}
