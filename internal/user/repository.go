package user

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sitrep-gov/platform/internal/auth"
	"github.com/sitrep-gov/platform/internal/shared/errors"
	"github.com/sitrep-gov/platform/internal/shared/types"
)

// Repository provides user storage
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new user repository
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const userColumns = `
	id, username, password_hash, full_name, email, phone_number,
	role, governorate_id, department, is_active, last_login,
	created_at, updated_at`

func scanUser(row pgx.Row) (*User, error) {
	var u User
	err := row.Scan(
		&u.ID, &u.Username, &u.PasswordHash, &u.FullName, &u.Email, &u.PhoneNumber,
		&u.Role, &u.GovernorateID, &u.Department, &u.IsActive, &u.LastLogin,
		&u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return stderrors.As(err, &pgErr) && pgErr.Code == "23505"
}

// Create inserts a user and their permission grants in one transaction
func (r *Repository) Create(ctx context.Context, u *User) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to begin transaction")
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO identity.users (
			id, username, password_hash, full_name, email, phone_number,
			role, governorate_id, department, is_active
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`,
		u.ID, u.Username, u.PasswordHash, u.FullName, u.Email, u.PhoneNumber,
		u.Role, u.GovernorateID, u.Department, u.IsActive,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return errors.Duplicate("username")
		}
		return errors.Wrap(err, "failed to create user")
	}

	if err := insertPermissions(ctx, tx, u.ID, u.Permissions); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return errors.Wrap(err, "failed to commit user creation")
	}
	return nil
}

func insertPermissions(ctx context.Context, tx pgx.Tx, userID types.ID, perms []Permission) error {
	for _, p := range perms {
		_, err := tx.Exec(ctx, `
			INSERT INTO identity.user_permissions (user_id, module, actions)
			VALUES ($1, $2, $3)
			ON CONFLICT (user_id, module) DO UPDATE SET actions = EXCLUDED.actions
		`, userID, p.Module, p.Actions)
		if err != nil {
			return errors.Wrap(err, "failed to insert permission grant")
		}
	}
	return nil
}

func (r *Repository) loadPermissions(ctx context.Context, userID types.ID) ([]Permission, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT module, actions FROM identity.user_permissions
		WHERE user_id = $1
		ORDER BY module
	`, userID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load permissions")
	}
	defer rows.Close()

	perms := []Permission{}
	for rows.Next() {
		var p Permission
		if err := rows.Scan(&p.Module, &p.Actions); err != nil {
			return nil, errors.Wrap(err, "failed to scan permission grant")
		}
		perms = append(perms, p)
	}
	return perms, nil
}

// FindByID finds a user with their permission grants
func (r *Repository) FindByID(ctx context.Context, id types.ID) (*User, error) {
	u, err := scanUser(r.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM identity.users WHERE id = $1`, id))
	if err != nil {
		if stderrors.Is(err, pgx.ErrNoRows) {
			return nil, errors.NotFound("user", id.String())
		}
		return nil, errors.Wrap(err, "failed to find user")
	}

	u.Permissions, err = r.loadPermissions(ctx, u.ID)
	if err != nil {
		return nil, err
	}
	return u, nil
}

// FindByUsername finds a user by username with their permission grants
func (r *Repository) FindByUsername(ctx context.Context, username string) (*User, error) {
	u, err := scanUser(r.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM identity.users WHERE username = $1`, username))
	if err != nil {
		if stderrors.Is(err, pgx.ErrNoRows) {
			return nil, errors.NotFound("user", username)
		}
		return nil, errors.Wrap(err, "failed to find user")
	}

	u.Permissions, err = r.loadPermissions(ctx, u.ID)
	if err != nil {
		return nil, err
	}
	return u, nil
}

// FindSessionUser loads the authenticated identity for a request
func (r *Repository) FindSessionUser(ctx context.Context, id types.ID) (*auth.SessionUser, error) {
	u, err := r.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	perms := make(map[string][]string, len(u.Permissions))
	for _, p := range u.Permissions {
		perms[p.Module] = p.Actions
	}

	return &auth.SessionUser{
		ID:            u.ID,
		Username:      u.Username,
		FullName:      u.FullName,
		Role:          u.Role,
		GovernorateID: u.GovernorateID,
		IsActive:      u.IsActive,
		Permissions:   perms,
	}, nil
}

// List lists users with filters
func (r *Repository) List(ctx context.Context, filter ListFilter) ([]User, int, error) {
	var conditions []string
	var args []any
	argNum := 1

	if filter.Role != "" {
		conditions = append(conditions, fmt.Sprintf("role = $%d", argNum))
		args = append(args, filter.Role)
		argNum++
	}
	if filter.GovernorateID != nil {
		conditions = append(conditions, fmt.Sprintf("governorate_id = $%d", argNum))
		args = append(args, *filter.GovernorateID)
		argNum++
	}
	if filter.IsActive != nil {
		conditions = append(conditions, fmt.Sprintf("is_active = $%d", argNum))
		args = append(args, *filter.IsActive)
		argNum++
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(username ILIKE $%d OR full_name ILIKE $%d)", argNum, argNum))
		args = append(args, "%"+filter.Search+"%")
		argNum++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM identity.users %s", whereClause)
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, errors.Wrap(err, "failed to count users")
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
		SELECT %s FROM identity.users
		%s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d`, userColumns, whereClause, argNum, argNum+1)
	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, errors.Wrap(err, "failed to list users")
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, errors.Wrap(err, "failed to scan user")
		}
		users = append(users, *u)
	}

	for i := range users {
		perms, err := r.loadPermissions(ctx, users[i].ID)
		if err != nil {
			return nil, 0, err
		}
		users[i].Permissions = perms
	}

	return users, total, nil
}

// Update updates account fields
func (r *Repository) Update(ctx context.Context, u *User) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE identity.users SET
			full_name = $2, email = $3, phone_number = $4, role = $5,
			governorate_id = $6, department = $7, is_active = $8,
			updated_at = NOW()
		WHERE id = $1
	`,
		u.ID, u.FullName, u.Email, u.PhoneNumber, u.Role,
		u.GovernorateID, u.Department, u.IsActive,
	)
	if err != nil {
		return errors.Wrap(err, "failed to update user")
	}
	if tag.RowsAffected() == 0 {
		return errors.NotFound("user", u.ID.String())
	}
	return nil
}

// UpdatePasswordHash sets a new password hash
func (r *Repository) UpdatePasswordHash(ctx context.Context, id types.ID, hash string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE identity.users SET password_hash = $2, updated_at = NOW()
		WHERE id = $1
	`, id, hash)
	if err != nil {
		return errors.Wrap(err, "failed to update password")
	}
	if tag.RowsAffected() == 0 {
		return errors.NotFound("user", id.String())
	}
	return nil
}

// SetPermissions replaces all permission grants for a user
func (r *Repository) SetPermissions(ctx context.Context, id types.ID, perms []Permission) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to begin transaction")
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM identity.user_permissions WHERE user_id = $1`, id); err != nil {
		return errors.Wrap(err, "failed to clear permission grants")
	}
	if err := insertPermissions(ctx, tx, id, perms); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return errors.Wrap(err, "failed to commit permission update")
	}
	return nil
}

// Deactivate soft-disables a user. Accounts are never hard-deleted.
func (r *Repository) Deactivate(ctx context.Context, id types.ID) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE identity.users SET is_active = FALSE, updated_at = NOW()
		WHERE id = $1
	`, id)
	if err != nil {
		return errors.Wrap(err, "failed to deactivate user")
	}
	if tag.RowsAffected() == 0 {
		return errors.NotFound("user", id.String())
	}
	return nil
}

// RecordLogin stamps a successful login
func (r *Repository) RecordLogin(ctx context.Context, id types.ID, at time.Time) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE identity.users SET last_login = $2 WHERE id = $1
	`, id, at)
	if err != nil {
		return errors.Wrap(err, "failed to record login")
	}
	return nil
}
