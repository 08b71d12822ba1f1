package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"contas/internal/core"
)

const iconColumns = `id, keyword, brand_term, custom_image_url, created_at, updated_at`

func (r *Repository) ListIcons(ctx context.Context) ([]core.CustomIcon, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+iconColumns+` FROM custom_icons ORDER BY keyword ASC`)
	if err != nil {
		return nil, fmt.Errorf("query custom icons: %w", err)
	}
	defer rows.Close()

	out := []core.CustomIcon{}
	for rows.Next() {
		i, err := scanIcon(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, i)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate custom icons: %w", err)
	}
	return out, nil
}

// UpsertIcon creates the icon or, when the keyword already exists, overwrites
// its brand term and image URL.
func (r *Repository) UpsertIcon(ctx context.Context, i core.CustomIcon) (core.CustomIcon, error) {
	now := time.Now()
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO custom_icons (id, keyword, brand_term, custom_image_url, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (keyword) DO UPDATE SET
			brand_term = excluded.brand_term,
			custom_image_url = excluded.custom_image_url,
			updated_at = excluded.updated_at`,
		uuid.NewString(), i.Keyword, nullStr(i.BrandTerm), nullStr(i.CustomImageURL),
		unix(now), unix(now))
	if err != nil {
		return core.CustomIcon{}, fmt.Errorf("upsert custom icon: %w", err)
	}

	row := r.db.QueryRowContext(ctx,
		`SELECT `+iconColumns+` FROM custom_icons WHERE keyword = ?`, i.Keyword)
	icon, err := scanIcon(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.CustomIcon{}, ErrNotFound
	}
	return icon, err
}

func (r *Repository) DeleteIcon(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM custom_icons WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete custom icon: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func scanIcon(row rowScanner) (core.CustomIcon, error) {
	var (
		i                core.CustomIcon
		brand, imageURL  sql.NullString
		created, updated int64
	)
	err := row.Scan(&i.ID, &i.Keyword, &brand, &imageURL, &created, &updated)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.CustomIcon{}, err
		}
		return core.CustomIcon{}, fmt.Errorf("scan custom icon: %w", err)
	}
	i.BrandTerm = strPtr(brand)
	i.CustomImageURL = strPtr(imageURL)
	i.CreatedAt = fromUnix(created)
	i.UpdatedAt = fromUnix(updated)
	return i, nil
}
