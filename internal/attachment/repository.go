package attachment

import (
	"context"
	stderrors "errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sitrep-gov/platform/internal/shared/errors"
	"github.com/sitrep-gov/platform/internal/shared/types"
)

// Repository provides attachment record storage
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new attachment repository
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Insert records a stored attachment
func (r *Repository) Insert(ctx context.Context, a *Attachment) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO reporting.attachments (
			id, owner_type, owner_id, filename, path, mimetype, size, uploaded_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`,
		a.ID, a.OwnerType, a.OwnerID, a.Filename, a.Path, a.MimeType, a.Size, a.UploadedAt,
	)
	if err != nil {
		return errors.Wrap(err, "failed to insert attachment")
	}
	return nil
}

// ListByOwner lists the attachments of one owning record
func (r *Repository) ListByOwner(ctx context.Context, ownerType string, ownerID types.ID) ([]Attachment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, owner_type, owner_id, filename, path, mimetype, size, uploaded_at
		FROM reporting.attachments
		WHERE owner_type = $1 AND owner_id = $2
		ORDER BY uploaded_at
	`, ownerType, ownerID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list attachments")
	}
	defer rows.Close()

	attachments := []Attachment{}
	for rows.Next() {
		var a Attachment
		err := rows.Scan(&a.ID, &a.OwnerType, &a.OwnerID, &a.Filename, &a.Path, &a.MimeType, &a.Size, &a.UploadedAt)
		if err != nil {
			return nil, errors.Wrap(err, "failed to scan attachment")
		}
		attachments = append(attachments, a)
	}
	return attachments, nil
}

// FindOwned finds an attachment by ID, scoped to its owner so one record
// cannot remove another record's file
func (r *Repository) FindOwned(ctx context.Context, ownerType string, ownerID, id types.ID) (*Attachment, error) {
	var a Attachment
	err := r.pool.QueryRow(ctx, `
		SELECT id, owner_type, owner_id, filename, path, mimetype, size, uploaded_at
		FROM reporting.attachments
		WHERE id = $1 AND owner_type = $2 AND owner_id = $3
	`, id, ownerType, ownerID).Scan(
		&a.ID, &a.OwnerType, &a.OwnerID, &a.Filename, &a.Path, &a.MimeType, &a.Size, &a.UploadedAt,
	)
	if err != nil {
		if stderrors.Is(err, pgx.ErrNoRows) {
			return nil, errors.NotFound("attachment", id.String())
		}
		return nil, errors.Wrap(err, "failed to find attachment")
	}
	return &a, nil
}

// Delete removes an attachment record
func (r *Repository) Delete(ctx context.Context, id types.ID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM reporting.attachments WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "failed to delete attachment")
	}
	if tag.RowsAffected() == 0 {
		return errors.NotFound("attachment", id.String())
	}
	return nil
}
